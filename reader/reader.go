// Package reader implements the PSB and MDF reader (§4.7): signature and
// header dispatch, offset-table parsing, name trie/string/resource loading,
// and root-value traversal into a vtree.File.
package reader

import (
	"bytes"
	"encoding/binary"
	"io"
	"unicode/utf8"

	"github.com/mote-tools/psb/errs"
	"github.com/mote-tools/psb/internal/intarray"
	"github.com/mote-tools/psb/internal/number"
	"github.com/mote-tools/psb/internal/trie"
	"github.com/mote-tools/psb/internal/xoff"
	"github.com/mote-tools/psb/mdf"
	"github.com/mote-tools/psb/value"
	"github.com/mote-tools/psb/vtree"
)

// readIntArray reads one opcode-prefixed variable-width integer array (§4.2)
// at r's current position.
func readIntArray(r io.Reader) ([]uint64, error) {
	op, err := number.ReadOpcode(r)
	if err != nil {
		return nil, err
	}

	return intarray.Read(r, op)
}

// Signature is the 4-byte PSB magic, "PSB\0" (little-endian u32 0x00425350).
var Signature = [4]byte{'P', 'S', 'B', 0}

// File is an opened, but not yet fully loaded, PSB stream: the header and
// offset table have been parsed, and the name/string/resource/extra tables
// are ready, but the root value tree has not yet been walked.
type File struct {
	header    vtree.Header
	offsets   xoff.Table
	data      []byte // the whole decompressed PSB file, for random-access seeking
	names     []string
	strings   []string
	resources [][]byte
	extras    [][]byte
}

// OpenPSB reads and parses a raw (uncompressed) PSB stream: signature,
// header, offset table, then the name trie, string table, and resource
// (and extras, if version >= 4) tables pointed to by it.
func OpenPSB(r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errs.IO("reading psb stream", err)
	}

	return parsePSB(data)
}

// OpenMDF reads an MDF envelope, decompresses it, and parses the inner PSB
// stream exactly as OpenPSB would.
func OpenMDF(r io.Reader) (*File, error) {
	data, err := mdf.Read(r)
	if err != nil {
		return nil, err
	}

	return parsePSB(data)
}

func parsePSB(data []byte) (*File, error) {
	br := bytes.NewReader(data)

	var sig [4]byte
	if _, err := io.ReadFull(br, sig[:]); err != nil {
		return nil, errs.IO("reading psb signature", err)
	}

	if sig != Signature {
		return nil, errs.New(errs.ErrInvalidFile, "not a psb stream")
	}

	var hdr [8]byte
	if _, err := io.ReadFull(br, hdr[:]); err != nil {
		return nil, errs.IO("reading psb header", err)
	}

	version := binary.LittleEndian.Uint16(hdr[0:2])
	encFlag := binary.LittleEndian.Uint16(hdr[2:4])
	// hdr[4:8] is the offsets-block length; informational only, per §9 Open
	// Question (2) the reader never consults it.

	if version < 1 || version > 4 {
		return nil, errs.New(errs.ErrUnknownHeaderVersion, "")
	}

	if encFlag != 0 {
		return nil, errs.New(errs.ErrInvalidFile, "stream is encrypted; wrap it with an internal/crypt reader first")
	}

	offsets, err := xoff.Get(br, version)
	if err != nil {
		return nil, err
	}

	names, err := readTrie(data, offsets.NameOffset)
	if err != nil {
		return nil, err
	}

	strs, err := readStrings(data, offsets.StringOffsetPos, offsets.StringDataPos)
	if err != nil {
		return nil, err
	}

	resources, err := loadBlobTable(data, offsets.ResourceOffsetPos, offsets.ResourceLengthsPos, offsets.ResourceDataPos)
	if err != nil {
		return nil, err
	}

	var extras [][]byte

	if version >= 4 {
		extras, err = loadBlobTable(data, offsets.ExtraOffsetPos, offsets.ExtraLengthsPos, offsets.ExtraDataPos)
		if err != nil {
			return nil, err
		}
	}

	return &File{
		header:    vtree.Header{Version: version, Encrypted: encFlag != 0},
		offsets:   offsets,
		data:      data,
		names:     names,
		strings:   strs,
		resources: resources,
		extras:    extras,
	}, nil
}

// Load decodes the root Value from the entry point and returns the
// resulting virtual file. The root must decode as an Object (§3 invariant);
// any other kind fails with ErrInvalidRoot.
func (f *File) Load() (*vtree.File, error) {
	r := bytes.NewReader(f.data)
	if _, err := r.Seek(int64(f.offsets.EntryPoint), io.SeekStart); err != nil {
		return nil, errs.IO("seeking to entry point", err)
	}

	root, err := value.Decode(r, f.names, f.strings)
	if err != nil {
		return nil, err
	}

	if root.Kind != value.KindObject {
		return nil, errs.New(errs.ErrInvalidRoot, "")
	}

	return &vtree.File{
		Header:    f.header,
		Resources: f.resources,
		Extras:    f.extras,
		Root:      root.Obj,
	}, nil
}

// readTrie decodes the three variable-width integer arrays at nameOffset
// into the name set (§4.4). Names are decoded as UTF-8 like the string
// table, with invalid sequences replaced.
func readTrie(data []byte, nameOffset uint32) ([]string, error) {
	r := bytes.NewReader(data)
	if _, err := r.Seek(int64(nameOffset), io.SeekStart); err != nil {
		return nil, errs.IO("seeking to name trie", err)
	}

	offsets, err := readIntArray(r)
	if err != nil {
		return nil, err
	}

	tree, err := readIntArray(r)
	if err != nil {
		return nil, err
	}

	tails, err := readIntArray(r)
	if err != nil {
		return nil, err
	}

	names, err := trie.Decode(offsets, tree, tails)
	if err != nil {
		return nil, err
	}

	for i, n := range names {
		names[i] = lossyUTF8([]byte(n))
	}

	return names, nil
}

// readStrings decodes the string offset array, then slices the
// NUL-terminated UTF-8 blob it points into (§4.7). Invalid UTF-8 is
// replaced lossily with the Unicode replacement character.
func readStrings(data []byte, offsetPos, dataPos uint32) ([]string, error) {
	r := bytes.NewReader(data)
	if _, err := r.Seek(int64(offsetPos), io.SeekStart); err != nil {
		return nil, errs.IO("seeking to string offsets", err)
	}

	offs, err := readIntArray(r)
	if err != nil {
		return nil, err
	}

	out := make([]string, len(offs))

	for i, off := range offs {
		start := int64(dataPos) + int64(off)
		if start < 0 || start > int64(len(data)) {
			return nil, errs.New(errs.ErrInvalidOffsetTable, "string offset out of range")
		}

		end := start
		for end < int64(len(data)) && data[end] != 0 {
			end++
		}

		out[i] = lossyUTF8(data[start:end])
	}

	return out, nil
}

// lossyUTF8 decodes b as UTF-8, replacing invalid sequences with the
// Unicode replacement character, per §4.7.
func lossyUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}

	var sb []rune

	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		sb = append(sb, r)
		b = b[size:]
	}

	return string(sb)
}

// loadBlobTable walks paired offset+length arrays and slices raw blobs out
// of data, shared by the resource and extras tables since both have
// identical shape (§4.6).
func loadBlobTable(data []byte, offsetPos, lengthsPos, dataPos uint32) ([][]byte, error) {
	or := bytes.NewReader(data)
	if _, err := or.Seek(int64(offsetPos), io.SeekStart); err != nil {
		return nil, errs.IO("seeking to blob offsets", err)
	}

	offs, err := readIntArray(or)
	if err != nil {
		return nil, err
	}

	lr := bytes.NewReader(data)
	if _, err := lr.Seek(int64(lengthsPos), io.SeekStart); err != nil {
		return nil, errs.IO("seeking to blob lengths", err)
	}

	lens, err := readIntArray(lr)
	if err != nil {
		return nil, err
	}

	if len(lens) < len(offs) {
		return nil, errs.New(errs.ErrInvalidOffsetTable, "blob length array shorter than offset array")
	}

	blobs := make([][]byte, len(offs))

	for i, off := range offs {
		start := int64(dataPos) + int64(off)
		end := start + int64(lens[i])

		if start < 0 || end > int64(len(data)) || end < start {
			return nil, errs.New(errs.ErrInvalidOffsetTable, "blob range out of bounds")
		}

		blobs[i] = data[start:end]
	}

	return blobs, nil
}
