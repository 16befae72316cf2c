// Package writer implements the PSB and MDF writer (§4.8, §4.9): the
// name/string gathering pass, deterministic emission order, offset-block
// fixup, and the adler-32 checksum.
package writer

import (
	"bytes"
	"encoding/binary"
	"io"
	"sort"

	"github.com/mote-tools/psb/errs"
	"github.com/mote-tools/psb/internal/intarray"
	"github.com/mote-tools/psb/internal/trie"
	"github.com/mote-tools/psb/internal/xoff"
	"github.com/mote-tools/psb/mdf"
	"github.com/mote-tools/psb/value"
	"github.com/mote-tools/psb/vtree"
)

// Signature is the 4-byte PSB magic written at the start of every file.
var Signature = [4]byte{'P', 'S', 'B', 0}

type config struct {
	version    uint16
	dedup      bool
	checksum   *bool // nil = version-driven default (version >= 3)
}

// Option configures Write/WriteMDF.
type Option func(*config)

// WithVersion sets the header version (1..4). Default 3.
func WithVersion(n uint16) Option {
	return func(c *config) { c.version = n }
}

// WithoutDeduplication disables the §4.5.3 sibling value-sharing pass, so
// every value is emitted byte-for-byte even when structurally identical to
// a sibling. Useful for deterministic fixtures in tests.
func WithoutDeduplication() Option {
	return func(c *config) { c.dedup = false }
}

// WithChecksum computes (true) or suppresses (false) the adler-32 checksum
// instead of deciding by version, for constructing malformed-file test
// fixtures. Versions 1-2 have no checksum slot in the offset block, so a
// checksum computed for them is not written.
func WithChecksum(enabled bool) Option {
	return func(c *config) { c.checksum = &enabled }
}

func newConfig(opts []Option) config {
	c := config{version: 3, dedup: true}
	for _, opt := range opts {
		opt(&c)
	}

	return c
}

func (c config) writeChecksum() bool {
	if c.checksum != nil {
		return *c.checksum
	}

	return c.version >= 3
}

// Write serializes f as a complete PSB file to w (§4.8). w must support
// Seek, since the offset block and checksum are backpatched after the body
// is emitted.
func Write(f *vtree.File, w io.WriteSeeker, opts ...Option) error {
	cfg := newConfig(opts)

	if _, err := w.Write(Signature[:]); err != nil {
		return errs.IO("writing psb signature", err)
	}

	var hdr [8]byte
	binary.LittleEndian.PutUint16(hdr[0:2], cfg.version)

	if f.Header.Encrypted {
		binary.LittleEndian.PutUint16(hdr[2:4], 1)
	}
	// hdr[4:8] (offsets-block length) is left 0, per §9 Open Question (2).

	if _, err := w.Write(hdr[:]); err != nil {
		return errs.IO("writing psb header", err)
	}

	offsetBlockStart, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return errs.IO("seeking after header", err)
	}

	blockSize := xoff.BlockSize(cfg.version)
	if _, err := w.Write(make([]byte, blockSize)); err != nil {
		return errs.IO("reserving offset block", err)
	}

	var names, strs []string

	f.Root.WalkNames(func(n string) { names = append(names, n) })
	f.Root.WalkStrings(func(s string) { strs = append(strs, s) })

	names = distinctSorted(names)
	strs = distinctSorted(strs)

	nameIdx := indexOf(names)
	strIdx := indexOf(strs)

	var offsets xoff.Table

	nameOffset, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return errs.IO("seeking before name trie", err)
	}

	offsets.NameOffset = uint32(nameOffset) //nolint:gosec // psb offsets are 32-bit by format definition

	toffsets, ttree, ttails := trie.Encode(names)
	if err := writeIntArray(w, toffsets); err != nil {
		return err
	}

	if err := writeIntArray(w, ttree); err != nil {
		return err
	}

	if err := writeIntArray(w, ttails); err != nil {
		return err
	}

	entryPoint, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return errs.IO("seeking before root value", err)
	}

	offsets.EntryPoint = uint32(entryPoint) //nolint:gosec

	valueOpts := &value.EncodeOptions{NameIndex: nameIdx, StringIndex: strIdx, Dedup: cfg.dedup}
	if _, err := value.Encode(w, value.NewObject(f.Root), valueOpts); err != nil {
		return err
	}

	stringOffsetPos, stringDataPos, err := writeStrings(w, strs)
	if err != nil {
		return err
	}

	offsets.StringOffsetPos = stringOffsetPos
	offsets.StringDataPos = stringDataPos

	resOffsetPos, resLengthsPos, resDataPos, err := writeBlobTable(w, f.Resources)
	if err != nil {
		return err
	}

	offsets.ResourceOffsetPos = resOffsetPos
	offsets.ResourceLengthsPos = resLengthsPos
	offsets.ResourceDataPos = resDataPos

	if cfg.version >= 4 {
		extraOffsetPos, extraLengthsPos, extraDataPos, err := writeBlobTable(w, f.Extras)
		if err != nil {
			return err
		}

		offsets.ExtraOffsetPos = extraOffsetPos
		offsets.ExtraLengthsPos = extraLengthsPos
		offsets.ExtraDataPos = extraDataPos
	}

	if cfg.writeChecksum() {
		offsets.Checksum = xoff.Checksum(uint32(offsetBlockStart), offsets) //nolint:gosec
	}

	if _, err := w.Seek(offsetBlockStart, io.SeekStart); err != nil {
		return errs.IO("seeking back to offset block", err)
	}

	if err := offsets.Put(w, cfg.version); err != nil {
		return err
	}

	if _, err := w.Seek(0, io.SeekEnd); err != nil {
		return errs.IO("seeking to end after fixup", err)
	}

	return nil
}

// WriteMDF serializes f as a PSB file into an in-memory seekable buffer,
// then wraps that buffer through the zlib envelope into w (§4.9), so the
// PSB writer's own seek-back fixups never touch the caller's sink (mdf.Write
// itself stages the compressed bytes in a pooled buffer, see mdf.Write).
func WriteMDF(f *vtree.File, w io.Writer, opts ...Option) error {
	staging := &memSeeker{}

	if err := Write(f, staging, opts...); err != nil {
		return err
	}

	return mdf.Write(w, staging.data)
}

// memSeeker is a growable in-memory buffer supporting overwrite-in-place at
// any position, the minimal io.WriteSeeker the PSB writer needs for its
// offset-block backpatch.
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
	default:
		return 0, errs.New(errs.ErrInvalidValue, "unsupported seek whence")
	}

	if pos < 0 {
		return 0, errs.New(errs.ErrInvalidValue, "negative seek position")
	}

	m.pos = int(pos)

	return pos, nil
}

func distinctSorted(in []string) []string {
	seen := make(map[string]struct{}, len(in))

	out := make([]string, 0, len(in))

	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}

		seen[s] = struct{}{}
		out = append(out, s)
	}

	sort.Strings(out)

	return out
}

func indexOf(sorted []string) map[string]uint64 {
	m := make(map[string]uint64, len(sorted))
	for i, s := range sorted {
		m[s] = uint64(i)
	}

	return m
}

func writeIntArray(w io.Writer, vals []uint64) error {
	_, err := intarray.Write(w, vals)
	return err
}

// writeStrings emits the string offset array, then the concatenated
// NUL-terminated UTF-8 blob (§4.8 step 6), returning the two section
// positions.
func writeStrings(w io.WriteSeeker, strs []string) (offsetPos, dataPos uint32, err error) {
	pos, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, 0, errs.IO("seeking before string offsets", err)
	}

	offsetPos = uint32(pos) //nolint:gosec

	var blob bytes.Buffer

	offs := make([]uint64, len(strs))

	for i, s := range strs {
		offs[i] = uint64(blob.Len())
		blob.WriteString(s)
		blob.WriteByte(0)
	}

	if err := writeIntArray(w, offs); err != nil {
		return 0, 0, err
	}

	pos, err = w.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, 0, errs.IO("seeking before string data", err)
	}

	dataPos = uint32(pos) //nolint:gosec

	if _, err := w.Write(blob.Bytes()); err != nil {
		return 0, 0, errs.IO("writing string blob", err)
	}

	return offsetPos, dataPos, nil
}

// writeBlobTable emits a resource/extras section: offset array, length
// array, then the concatenated raw blobs (§4.8 steps 7-8).
func writeBlobTable(w io.WriteSeeker, blobs [][]byte) (offsetPos, lengthsPos, dataPos uint32, err error) {
	pos, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, 0, 0, errs.IO("seeking before blob offsets", err)
	}

	offsetPos = uint32(pos) //nolint:gosec

	offs := make([]uint64, len(blobs))
	lens := make([]uint64, len(blobs))

	var cursor uint64

	for i, b := range blobs {
		offs[i] = cursor
		lens[i] = uint64(len(b))
		cursor += uint64(len(b))
	}

	if err := writeIntArray(w, offs); err != nil {
		return 0, 0, 0, err
	}

	pos, err = w.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, 0, 0, errs.IO("seeking before blob lengths", err)
	}

	lengthsPos = uint32(pos) //nolint:gosec

	if err := writeIntArray(w, lens); err != nil {
		return 0, 0, 0, err
	}

	pos, err = w.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, 0, 0, errs.IO("seeking before blob data", err)
	}

	dataPos = uint32(pos) //nolint:gosec

	for _, b := range blobs {
		if _, err := w.Write(b); err != nil {
			return 0, 0, 0, errs.IO("writing blob data", err)
		}
	}

	return offsetPos, lengthsPos, dataPos, nil
}
