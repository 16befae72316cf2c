package intarray

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mote-tools/psb/internal/opcode"
)

func readBack(t *testing.T, buf []byte) []uint64 {
	t.Helper()
	r := bytes.NewReader(buf)

	var opByte [1]byte
	_, err := r.Read(opByte[:])
	require.NoError(t, err)

	got, err := Read(r, opcode.Op(opByte[0]))
	require.NoError(t, err)

	return got
}

func TestEmptyArray_S5(t *testing.T) {
	var buf bytes.Buffer
	_, err := Write(&buf, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x0D, 0x0D}, buf.Bytes())

	got := readBack(t, buf.Bytes())
	assert.Empty(t, got)
}

func TestRoundTrip(t *testing.T) {
	vals := []uint64{0, 1, 255, 256, 1 << 20, 1<<32 - 1}

	var buf bytes.Buffer
	_, err := Write(&buf, vals)
	require.NoError(t, err)

	got := readBack(t, buf.Bytes())
	assert.Equal(t, vals, got)
}

func TestSingleElement(t *testing.T) {
	vals := []uint64{42}

	var buf bytes.Buffer
	_, err := Write(&buf, vals)
	require.NoError(t, err)

	got := readBack(t, buf.Bytes())
	assert.Equal(t, vals, got)
}
