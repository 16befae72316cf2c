package number

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWidthForUnsigned(t *testing.T) {
	cases := []struct {
		v    uint64
		want int
	}{
		{0, 0},
		{0xFF, 1},
		{0x100, 2},
		{0xFFFF, 2},
		{0x10000, 3},
		{1<<56 - 1, 7},
		{1 << 63, 8},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, WidthForUnsigned(c.v), "value %#x", c.v)
	}
}

func TestWidthForSigned(t *testing.T) {
	cases := []struct {
		v    int64
		want int
	}{
		{0, 1},
		{-1, 1},
		{0x7F, 1},
		{-0x80, 1},
		{0x7FFF, 2},
		{0x8000, 3},
		{1<<63 - 1, 8},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, WidthForSigned(c.v), "value %d", c.v)
	}
}

func TestIntegerRoundTrip_S1(t *testing.T) {
	var buf bytes.Buffer
	_, err := WriteSigned(&buf, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x04}, buf.Bytes())

	got, err := ReadSigned(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, int64(0), got)
}

func TestIntegerRoundTrip_S2(t *testing.T) {
	var buf bytes.Buffer
	_, err := WriteSigned(&buf, -1)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x05, 0xFF}, buf.Bytes())

	got, err := ReadSigned(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, int64(-1), got)
}

func TestSignedRoundTripBoundaries(t *testing.T) {
	values := []int64{0, 1, -1, 0x7F, -0x80, 0x7FFF, -0x8000, 1<<56 - 1, 1<<63 - 1, -(1 << 62)}
	for _, v := range values {
		var buf bytes.Buffer
		_, err := WriteSigned(&buf, v)
		require.NoError(t, err)

		got, err := ReadSigned(bytes.NewReader(buf.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, v, got)
	}
}

func TestUnsignedMinWidth(t *testing.T) {
	var buf bytes.Buffer
	n, err := WriteUnsigned(&buf, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n) // opcode + 1 payload byte, never width 0 when minWidth=1

	got, err := ReadUnsigned(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got)
}

func TestFloatZero_S3(t *testing.T) {
	var buf bytes.Buffer
	_, err := WriteFloat(&buf, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1D}, buf.Bytes())
}

func TestFloatOne_S3(t *testing.T) {
	var buf bytes.Buffer
	_, err := WriteFloat(&buf, 1.0)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1E, 0x00, 0x00, 0x80, 0x3F}, buf.Bytes())
}

func TestFloatRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	_, err := WriteFloat(&buf, 3.5)
	require.NoError(t, err)

	v, isDouble, err := ReadFloatOrDouble(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.False(t, isDouble)
	assert.InDelta(t, 3.5, v, 1e-6)
}

func TestDoubleRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	_, err := WriteDouble(&buf, 0)
	require.NoError(t, err)
	assert.Equal(t, byte(0x1F), buf.Bytes()[0], "doubles always use the Double opcode, even for zero")

	v, isDouble, err := ReadFloatOrDouble(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.True(t, isDouble)
	assert.Equal(t, float64(0), v)
}

func TestReadSigned_InvalidOpcode(t *testing.T) {
	_, err := ReadSigned(bytes.NewReader([]byte{0xFF}))
	assert.Error(t, err)
}

func TestReadRawUnsigned_TruncatedPayload(t *testing.T) {
	_, err := ReadRawUnsigned(bytes.NewReader([]byte{0x01}), 4)
	assert.Error(t, err)
}
