// Package xoff implements the PSB offset table (§4.6, §6.1): the fixed-shape
// block of section pointers at the head of a PSB file, version-gated in
// size, with an adler-32 checksum for version >= 3.
package xoff

import (
	"encoding/binary"
	"hash/adler32"
	"io"

	"github.com/mote-tools/psb/errs"
)

// Table is the in-memory shape of the offset block. Every field is always
// populated (even the version-gated ones), so a freshly constructed Table
// never needs version-conditional nil checks before Put serializes it
// (ported from the original's always-Some defaulting behavior).
type Table struct {
	NameOffset         uint32
	StringOffsetPos    uint32
	StringDataPos      uint32
	ResourceOffsetPos  uint32
	ResourceLengthsPos uint32
	ResourceDataPos    uint32
	EntryPoint         uint32
	Checksum           uint32
	ExtraOffsetPos     uint32
	ExtraLengthsPos    uint32
	ExtraDataPos       uint32
}

// BlockSize returns the on-wire byte size of the offset block for the given
// header version: 28 bytes for versions 1-2, 32 for version 3 (adds the
// checksum), 44 for version 4 (adds the three extras pointers).
func BlockSize(version uint16) int {
	switch {
	case version >= 4:
		return 44
	case version == 3:
		return 32
	default:
		return 28
	}
}

// Get reads a Table of the shape appropriate to version from r.
func Get(r io.Reader, version uint16) (Table, error) {
	n := BlockSize(version)

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Table{}, errs.IO("reading offset table", err)
	}

	var t Table

	t.NameOffset = binary.LittleEndian.Uint32(buf[0:4])
	t.StringOffsetPos = binary.LittleEndian.Uint32(buf[4:8])
	t.StringDataPos = binary.LittleEndian.Uint32(buf[8:12])
	t.ResourceOffsetPos = binary.LittleEndian.Uint32(buf[12:16])
	t.ResourceLengthsPos = binary.LittleEndian.Uint32(buf[16:20])
	t.ResourceDataPos = binary.LittleEndian.Uint32(buf[20:24])
	t.EntryPoint = binary.LittleEndian.Uint32(buf[24:28])

	if version >= 3 {
		t.Checksum = binary.LittleEndian.Uint32(buf[28:32])
	}

	if version >= 4 {
		t.ExtraOffsetPos = binary.LittleEndian.Uint32(buf[32:36])
		t.ExtraLengthsPos = binary.LittleEndian.Uint32(buf[36:40])
		t.ExtraDataPos = binary.LittleEndian.Uint32(buf[40:44])
	}

	return t, nil
}

// Put writes t in the shape appropriate to version to w.
func (t Table) Put(w io.Writer, version uint16) error {
	buf := make([]byte, BlockSize(version))

	binary.LittleEndian.PutUint32(buf[0:4], t.NameOffset)
	binary.LittleEndian.PutUint32(buf[4:8], t.StringOffsetPos)
	binary.LittleEndian.PutUint32(buf[8:12], t.StringDataPos)
	binary.LittleEndian.PutUint32(buf[12:16], t.ResourceOffsetPos)
	binary.LittleEndian.PutUint32(buf[16:20], t.ResourceLengthsPos)
	binary.LittleEndian.PutUint32(buf[20:24], t.ResourceDataPos)
	binary.LittleEndian.PutUint32(buf[24:28], t.EntryPoint)

	if version >= 3 {
		binary.LittleEndian.PutUint32(buf[28:32], t.Checksum)
	}

	if version >= 4 {
		binary.LittleEndian.PutUint32(buf[32:36], t.ExtraOffsetPos)
		binary.LittleEndian.PutUint32(buf[36:40], t.ExtraLengthsPos)
		binary.LittleEndian.PutUint32(buf[40:44], t.ExtraDataPos)
	}

	if _, err := w.Write(buf); err != nil {
		return errs.IO("writing offset table", err)
	}

	return nil
}

// Checksum computes the adler-32 over the eight core offset words in the
// order §4.8 step 9 specifies: offsetBlockStart, name_offset,
// strings.offset_pos, strings.data_pos, resources.offset_pos,
// resources.lengths_pos, resources.data_pos, entry_point.
func Checksum(offsetBlockStart uint32, t Table) uint32 {
	var buf [32]byte

	binary.LittleEndian.PutUint32(buf[0:4], offsetBlockStart)
	binary.LittleEndian.PutUint32(buf[4:8], t.NameOffset)
	binary.LittleEndian.PutUint32(buf[8:12], t.StringOffsetPos)
	binary.LittleEndian.PutUint32(buf[12:16], t.StringDataPos)
	binary.LittleEndian.PutUint32(buf[16:20], t.ResourceOffsetPos)
	binary.LittleEndian.PutUint32(buf[20:24], t.ResourceLengthsPos)
	binary.LittleEndian.PutUint32(buf[24:28], t.ResourceDataPos)
	binary.LittleEndian.PutUint32(buf[28:32], t.EntryPoint)

	return adler32.Checksum(buf[:])
}
