package psb

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mote-tools/psb/value"
	"github.com/mote-tools/psb/vtree"
)

// TestWriteOpen_RoundTrip verifies the top-level raw-PSB convenience wrappers
// round-trip a simple tree.
func TestWriteOpen_RoundTrip(t *testing.T) {
	f := vtree.New(3)
	require.NoError(t, f.Root.Set("greeting", value.NewString("hi")))

	staging := &memSeeker{}
	require.NoError(t, Write(f, staging))

	loaded, err := Open(bytes.NewReader(staging.data))
	require.NoError(t, err)

	got, ok := loaded.Root.Get("greeting")
	require.True(t, ok)
	require.Equal(t, "hi", got.Str)
}

// TestWriteMDFOpenMDF_RoundTrip verifies the MDF convenience wrappers
// round-trip through the zlib envelope.
func TestWriteMDFOpenMDF_RoundTrip(t *testing.T) {
	f := vtree.New(3)
	require.NoError(t, f.Root.Set("count", value.NewInt(7)))

	var buf bytes.Buffer
	require.NoError(t, WriteMDF(f, &buf))

	loaded, err := OpenMDF(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	got, ok := loaded.Root.Get("count")
	require.True(t, ok)
	require.Equal(t, int64(7), got.Int)
}

// memSeeker is a growable in-memory buffer supporting overwrite-in-place at
// any position, the minimal io.WriteSeeker Write needs for its offset-block
// backpatch (mirrors writer.memSeeker, kept package-local since that one is
// unexported).
type memSeeker struct {
	data []byte
	pos  int
}

func (m *memSeeker) Write(p []byte) (int, error) {
	end := m.pos + len(p)
	if end > len(m.data) {
		grown := make([]byte, end)
		copy(grown, m.data)
		m.data = grown
	}

	copy(m.data[m.pos:end], p)
	m.pos = end

	return len(p), nil
}

func (m *memSeeker) Seek(offset int64, whence int) (int64, error) {
	var pos int64

	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = int64(m.pos) + offset
	case io.SeekEnd:
		pos = int64(len(m.data)) + offset
	}

	m.pos = int(pos)

	return pos, nil
}
