// Package number implements the PSB number codec (§4.1): variable-width
// signed/unsigned integers and the fixed-width float/double/float-zero
// opcodes, all little-endian on the wire.
package number

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/mote-tools/psb/errs"
	"github.com/mote-tools/psb/internal/opcode"
)

// WidthForUnsigned returns the minimal byte width N in [0, 8] such that
// value < 2^(8N). Zero requires width 0.
func WidthForUnsigned(value uint64) int {
	n := 0
	for value != 0 {
		value >>= 8
		n++
	}

	return n
}

// WidthForSigned returns the minimal byte width N in [1, 8] such that value
// fits in the two's-complement representation of N bytes.
func WidthForSigned(value int64) int {
	for n := 1; n <= 8; n++ {
		lo := -(int64(1) << (8*n - 1))
		hi := int64(1)<<(8*n-1) - 1

		if value >= lo && value <= hi {
			return n
		}
	}

	return 8
}

// ReadRawUnsigned reads n little-endian bytes (n in [0, 8]) as an unsigned
// integer. It does not read an opcode byte.
func ReadRawUnsigned(r io.Reader, n int) (uint64, error) {
	if n < 0 || n > 8 {
		return 0, errs.New(errs.ErrInvalidValue, "integer width out of range")
	}

	if n == 0 {
		return 0, nil
	}

	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:n]); err != nil {
		return 0, errs.IO("reading integer payload", err)
	}

	var v uint64
	for i := n - 1; i >= 0; i-- {
		v = v<<8 | uint64(buf[i])
	}

	return v, nil
}

// writeRawUnsigned writes the low n bytes of v, little-endian, without an opcode.
func writeRawUnsigned(w io.Writer, v uint64, n int) (int, error) {
	if n == 0 {
		return 0, nil
	}

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)

	written, err := w.Write(buf[:n])
	if err != nil {
		return written, errs.IO("writing integer payload", err)
	}

	return written, nil
}

// signExtend interprets the low 8*n bits of v as a two's-complement signed
// integer of width n bytes.
func signExtend(v uint64, n int) int64 {
	if n == 0 || n >= 8 {
		return int64(v) //nolint:gosec // n==8 is exactly 64 bits, no truncation
	}

	signBit := uint64(1) << (8*n - 1)
	if v >= signBit {
		return -int64((uint64(1) << (8 * n)) - v)
	}

	return int64(v)
}

// ReadOpcode reads a single opcode byte.
func ReadOpcode(r io.Reader) (opcode.Op, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, errs.IO("reading opcode", err)
	}

	return opcode.Op(buf[0]), nil
}

// ReadSigned reads an opcode-prefixed signed integer (§4.1).
func ReadSigned(r io.Reader) (int64, error) {
	op, err := ReadOpcode(r)
	if err != nil {
		return 0, err
	}

	return ReadSignedRaw(r, op)
}

// ReadSignedRaw decodes a signed integer given an opcode the caller already
// consumed (e.g. while dispatching a value's kind).
func ReadSignedRaw(r io.Reader, op opcode.Op) (int64, error) {
	n, ok := opcode.IntegerWidth(op)
	if !ok {
		return 0, errs.New(errs.ErrInvalidValue, "opcode is not an integer")
	}

	raw, err := ReadRawUnsigned(r, n)
	if err != nil {
		return 0, err
	}

	return signExtend(raw, n), nil
}

// ReadUnsigned reads an opcode-prefixed unsigned integer (§4.1), skipping
// sign extension.
func ReadUnsigned(r io.Reader) (uint64, error) {
	op, err := ReadOpcode(r)
	if err != nil {
		return 0, err
	}

	n, ok := opcode.IntegerWidth(op)
	if !ok {
		return 0, errs.New(errs.ErrInvalidValue, "opcode is not an integer")
	}

	return ReadRawUnsigned(r, n)
}

// WriteSigned writes v using the minimal width for its signed magnitude,
// opcode-prefixed. Zero is written with width 0 (the opcode alone).
func WriteSigned(w io.Writer, v int64) (int, error) {
	n := WidthForSigned(v)
	if v == 0 {
		n = 0
	}

	if _, err := w.Write([]byte{byte(opcode.ForIntegerWidth(n))}); err != nil {
		return 0, errs.IO("writing integer opcode", err)
	}

	written, err := writeRawUnsigned(w, uint64(v), n) //nolint:gosec // two's complement bit pattern
	return written + 1, err
}

// WriteUnsigned writes v using the minimal width for its magnitude,
// opcode-prefixed. If minWidth > 0, the width is never chosen smaller than
// minWidth even when v's natural minimal width is less (used by §4.3
// reference handles, which always reserve at least 1 byte).
func WriteUnsigned(w io.Writer, v uint64, minWidth int) (int, error) {
	n := WidthForUnsigned(v)
	if n < minWidth {
		n = minWidth
	}

	if _, err := w.Write([]byte{byte(opcode.ForIntegerWidth(n))}); err != nil {
		return 0, errs.IO("writing integer opcode", err)
	}

	written, err := writeRawUnsigned(w, v, n)
	return written + 1, err
}

// ReadFloatOrDouble reads an opcode-prefixed Float0/Float/Double value,
// returning it widened to float64 and whether it was encoded as a double.
func ReadFloatOrDouble(r io.Reader) (value float64, isDouble bool, err error) {
	op, err := ReadOpcode(r)
	if err != nil {
		return 0, false, err
	}

	return ReadFloatOrDoubleRaw(r, op)
}

// ReadFloatOrDoubleRaw decodes a Float0/Float/Double value given an opcode
// the caller already consumed.
func ReadFloatOrDoubleRaw(r io.Reader, op opcode.Op) (value float64, isDouble bool, err error) {
	switch op {
	case opcode.FloatZero:
		return 0, false, nil
	case opcode.Float:
		var buf [4]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, false, errs.IO("reading float payload", err)
		}

		bits := binary.LittleEndian.Uint32(buf[:])

		return float64(math.Float32frombits(bits)), false, nil
	case opcode.Double:
		var buf [8]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, false, errs.IO("reading double payload", err)
		}

		bits := binary.LittleEndian.Uint64(buf[:])

		return math.Float64frombits(bits), true, nil
	default:
		return 0, false, errs.New(errs.ErrInvalidValue, "opcode is not a float/double")
	}
}

// WriteFloat writes a 32-bit float. Zero is always emitted as the zero-payload
// FloatZero opcode (§4.1).
func WriteFloat(w io.Writer, v float32) (int, error) {
	if v == 0 {
		if _, err := w.Write([]byte{byte(opcode.FloatZero)}); err != nil {
			return 0, errs.IO("writing float-zero opcode", err)
		}

		return 1, nil
	}

	var buf [5]byte
	buf[0] = byte(opcode.Float)
	binary.LittleEndian.PutUint32(buf[1:], math.Float32bits(v))

	if _, err := w.Write(buf[:]); err != nil {
		return 0, errs.IO("writing float payload", err)
	}

	return 5, nil
}

// WriteDouble writes a 64-bit double; doubles always use the Double opcode,
// even for zero.
func WriteDouble(w io.Writer, v float64) (int, error) {
	var buf [9]byte
	buf[0] = byte(opcode.Double)
	binary.LittleEndian.PutUint64(buf[1:], math.Float64bits(v))

	if _, err := w.Write(buf[:]); err != nil {
		return 0, errs.IO("writing double payload", err)
	}

	return 9, nil
}
