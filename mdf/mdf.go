// Package mdf implements the MDF zlib envelope around a PSB file (§4.9,
// §6.2): a 4-byte signature, a little-endian u32 byte length of the
// following zlib stream, then the zlib-wrapped deflate stream itself.
package mdf

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/mote-tools/psb/errs"
	"github.com/mote-tools/psb/internal/pool"
)

// Signature is the 4-byte MDF magic, "mdf\0" (little-endian u32 0x0066646D).
var Signature = [4]byte{'m', 'd', 'f', 0}

// Write compresses payload (a complete PSB file's bytes) and writes the full
// MDF envelope to w: signature, then the compressed stream's byte length,
// then the stream itself. Per §9 Open Question (3), the stored length is the
// zlib-stream byte length, not the uncompressed payload length — Read below
// relies on exactly this interpretation.
func Write(w io.Writer, payload []byte) error {
	compressed := pool.Get()
	defer pool.Put(compressed)

	zw := zlib.NewWriter(compressed)
	if _, err := zw.Write(payload); err != nil {
		return errs.IO("compressing mdf payload", err)
	}

	if err := zw.Close(); err != nil {
		return errs.IO("closing mdf zlib stream", err)
	}

	if _, err := w.Write(Signature[:]); err != nil {
		return errs.IO("writing mdf signature", err)
	}

	var sizeBuf [4]byte
	binary.LittleEndian.PutUint32(sizeBuf[:], uint32(compressed.Len())) //nolint:gosec // stream length fits u32

	if _, err := w.Write(sizeBuf[:]); err != nil {
		return errs.IO("writing mdf stream length", err)
	}

	if _, err := w.Write(compressed.Bytes()); err != nil {
		return errs.IO("writing mdf stream", err)
	}

	return nil
}

// Read reads and decompresses an MDF envelope from r, returning the
// decoded PSB file bytes.
func Read(r io.Reader) ([]byte, error) {
	var sig [4]byte
	if _, err := io.ReadFull(r, sig[:]); err != nil {
		return nil, errs.IO("reading mdf signature", err)
	}

	if sig != Signature {
		return nil, errs.New(errs.ErrInvalidFile, "not an mdf stream")
	}

	var sizeBuf [4]byte
	if _, err := io.ReadFull(r, sizeBuf[:]); err != nil {
		return nil, errs.IO("reading mdf stream length", err)
	}

	streamLen := binary.LittleEndian.Uint32(sizeBuf[:])

	compressed := make([]byte, streamLen)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return nil, errs.IO("reading mdf zlib stream", err)
	}

	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, errs.Wrap(errs.ErrInvalidFile, "opening mdf zlib stream", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, errs.IO("decompressing mdf stream", err)
	}

	return out, nil
}
