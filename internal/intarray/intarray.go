// Package intarray implements the PSB variable-width unsigned integer array
// codec (§4.2): a count-width opcode, the element count, an element-width
// opcode, then the elements themselves.
package intarray

import (
	"io"

	"github.com/mote-tools/psb/errs"
	"github.com/mote-tools/psb/internal/number"
	"github.com/mote-tools/psb/internal/opcode"
)

// Read decodes an IntArray value. The caller must have already consumed the
// outer opcode byte that identifies this as an IntArray (e.g. while
// dispatching a value or an offset-table slot); Read re-derives the
// count-width from that same opcode.
func Read(r io.Reader, op opcode.Op) ([]uint64, error) {
	countWidth, ok := opcode.IntArrayCountWidth(op)
	if !ok {
		return nil, errs.New(errs.ErrInvalidOffsetTable, "opcode is not an int array")
	}

	count, err := number.ReadRawUnsigned(r, countWidth)
	if err != nil {
		return nil, err
	}

	elemOp, err := number.ReadOpcode(r)
	if err != nil {
		return nil, err
	}

	elemWidth, ok := opcode.IntArrayCountWidth(elemOp)
	if !ok {
		return nil, errs.New(errs.ErrInvalidValue, "int array element-width opcode out of range")
	}

	out := make([]uint64, count)
	for i := range out {
		v, err := number.ReadRawUnsigned(r, elemWidth)
		if err != nil {
			return nil, err
		}

		out[i] = v
	}

	return out, nil
}

// Write encodes vals as an IntArray, including the leading count-width
// opcode, per §4.2: count-width N1 is the minimal unsigned width for
// len(vals) (at least 1), element-width N2 is the minimal unsigned width for
// the largest element (at least 1 when vals is non-empty, else the empty
// encoding uses element-opcode 0x0D with zero element bytes). Both the
// count-width and element-width tags are opcodes from the IntArray family
// (IntArrayBase-relative), not the scalar Integer family — Read derives the
// count width directly from the single opcode its caller already consumed,
// so that opcode must itself identify as an IntArray opcode.
func Write(w io.Writer, vals []uint64) (int, error) {
	countWidth := number.WidthForUnsigned(uint64(len(vals)))
	if countWidth < 1 {
		countWidth = 1
	}

	if _, err := w.Write([]byte{byte(opcode.ForIntArrayCountWidth(countWidth))}); err != nil {
		return 0, errs.IO("writing int array count-width opcode", err)
	}

	n := 1

	written, err := writeRaw(w, uint64(len(vals)), countWidth)
	n += written

	if err != nil {
		return n, err
	}

	elemWidth := 1
	if len(vals) > 0 {
		var maxVal uint64
		for _, v := range vals {
			if v > maxVal {
				maxVal = v
			}
		}

		elemWidth = number.WidthForUnsigned(maxVal)
		if elemWidth < 1 {
			elemWidth = 1
		}
	}

	if _, err := w.Write([]byte{byte(opcode.ForIntArrayCountWidth(elemWidth))}); err != nil {
		return n, errs.IO("writing int array element-width opcode", err)
	}

	n++

	for _, v := range vals {
		written, err := writeRaw(w, v, elemWidth)
		if err != nil {
			return n, err
		}

		n += written
	}

	return n, nil
}

func writeRaw(w io.Writer, v uint64, width int) (int, error) {
	var buf [8]byte
	for i := 0; i < width; i++ {
		buf[i] = byte(v >> (8 * i))
	}

	written, err := w.Write(buf[:width])
	if err != nil {
		return written, errs.IO("writing int array element", err)
	}

	return written, nil
}
