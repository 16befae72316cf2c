// Package ref implements the PSB reference/handle codec (§4.3): small
// unsigned indices into the names, strings, resources, and extras tables,
// each carried by a distinct opcode family so the decoder never confuses a
// string handle for a resource handle.
package ref

import (
	"io"

	"github.com/mote-tools/psb/errs"
	"github.com/mote-tools/psb/internal/number"
	"github.com/mote-tools/psb/internal/opcode"
)

// String is an index into the PSB string table.
type String uint64

// Resource is an index into the PSB resource table.
type Resource uint64

// Extra is an index into the PSB extras table (version >= 4 only).
type Extra uint64

// width returns the minimal byte width for the handle's magnitude, never
// less than 1 (§4.3: "N is always >= 1 even for index 0").
func width(v uint64) int {
	n := number.WidthForUnsigned(v)
	if n < 1 {
		n = 1
	}

	return n
}

// Width reports the on-wire byte width of this handle.
func (s String) Width() int { return width(uint64(s)) }

// Width reports the on-wire byte width of this handle.
func (r Resource) Width() int { return width(uint64(r)) }

// Width reports the on-wire byte width of this handle.
func (e Extra) Width() int { return width(uint64(e)) }

// ReadStringRef decodes a string-ref opcode/payload pair (§4.3, base 0x14).
func ReadStringRef(r io.Reader, op opcode.Op) (String, error) {
	n, ok := opcode.RefWidth(op, opcode.StringRefBase)
	if !ok {
		return 0, errs.New(errs.ErrInvalidValue, "opcode is not a string ref")
	}

	v, err := number.ReadRawUnsigned(r, n)
	if err != nil {
		return 0, err
	}

	return String(v), nil
}

// WriteStringRef writes s as a string-ref opcode/payload pair.
func WriteStringRef(w io.Writer, s String) (int, error) {
	n := s.Width()
	if _, err := w.Write([]byte{byte(opcode.ForRefWidth(opcode.StringRefBase, n))}); err != nil {
		return 0, errs.IO("writing string ref opcode", err)
	}

	written, err := writeN(w, uint64(s), n)
	return written + 1, err
}

// ReadResourceRef decodes a resource-ref opcode/payload pair (§4.3, base 0x18).
func ReadResourceRef(r io.Reader, op opcode.Op) (Resource, error) {
	n, ok := opcode.RefWidth(op, opcode.ResourceRefBase)
	if !ok {
		return 0, errs.New(errs.ErrInvalidValue, "opcode is not a resource ref")
	}

	v, err := number.ReadRawUnsigned(r, n)
	if err != nil {
		return 0, err
	}

	return Resource(v), nil
}

// WriteResourceRef writes rr as a resource-ref opcode/payload pair.
func WriteResourceRef(w io.Writer, rr Resource) (int, error) {
	n := rr.Width()
	if _, err := w.Write([]byte{byte(opcode.ForRefWidth(opcode.ResourceRefBase, n))}); err != nil {
		return 0, errs.IO("writing resource ref opcode", err)
	}

	written, err := writeN(w, uint64(rr), n)
	return written + 1, err
}

// ReadExtraRef decodes an extra-resource-ref opcode/payload pair (§4.3, base
// 0x21). Callers must ensure op != opcode.Object before calling this: 0x21
// decodes strictly as Object (§4.3 Open Question), only 0x22..0x25 are valid
// extra-ref opcodes.
func ReadExtraRef(r io.Reader, op opcode.Op) (Extra, error) {
	if op == opcode.Object {
		return 0, errs.New(errs.ErrInvalidValue, "0x21 is Object, not an extra-ref")
	}

	n, ok := opcode.RefWidth(op, opcode.ExtraRefBase)
	if !ok {
		return 0, errs.New(errs.ErrInvalidValue, "opcode is not an extra ref")
	}

	v, err := number.ReadRawUnsigned(r, n)
	if err != nil {
		return 0, err
	}

	return Extra(v), nil
}

// WriteExtraRef writes e as an extra-resource-ref opcode/payload pair. The
// width is never 0, so the emitted opcode is always >= 0x22, never colliding
// with Object's 0x21.
func WriteExtraRef(w io.Writer, e Extra) (int, error) {
	n := e.Width()
	if _, err := w.Write([]byte{byte(opcode.ForRefWidth(opcode.ExtraRefBase, n))}); err != nil {
		return 0, errs.IO("writing extra ref opcode", err)
	}

	written, err := writeN(w, uint64(e), n)
	return written + 1, err
}

func writeN(w io.Writer, v uint64, n int) (int, error) {
	var buf [8]byte
	for i := 0; i < n; i++ {
		buf[i] = byte(v >> (8 * i))
	}

	written, err := w.Write(buf[:n])
	if err != nil {
		return written, errs.IO("writing ref payload", err)
	}

	return written, nil
}
