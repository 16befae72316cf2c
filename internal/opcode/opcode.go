// Package opcode defines the PSB value tag-byte table (§4.5 of the format)
// and the small helpers for deriving/recovering the byte-width encoded in
// an opcode's low nibble, mirroring the role format.EncodingType plays for
// the teacher's blob header flags.
package opcode

// Op is a single PSB value opcode byte.
type Op byte

// Fixed, payload-free opcodes.
const (
	None  Op = 0x00
	Null  Op = 0x01
	False Op = 0x02
	True  Op = 0x03
)

// Integer opcodes span a contiguous range keyed by byte width N = op - IntegerBase,
// N in [0, 8].
const (
	IntegerBase Op = 0x04
	IntegerMax  Op = 0x0C // IntegerBase + 8
)

// Integer-array opcodes span a contiguous range keyed by count-width N = op - IntArrayBase,
// N in [1, 8].
const (
	IntArrayBase Op = 0x0C
	IntArrayMax  Op = 0x14 // IntArrayBase + 8
)

// String-handle opcodes, width N = op - StringRefBase, N in [1, 4].
const (
	StringRefBase Op = 0x14
	StringRefMax  Op = 0x18
)

// Resource-handle opcodes, width N = op - ResourceRefBase, N in [1, 4].
const (
	ResourceRefBase Op = 0x18
	ResourceRefMax  Op = 0x1C
)

// Float / double opcodes.
const (
	FloatZero Op = 0x1D
	Float     Op = 0x1E
	Double    Op = 0x1F
)

// Collection opcodes.
const (
	List   Op = 0x20
	Object Op = 0x21
)

// Extra-resource-handle opcodes, width N = op - ExtraRefBase, N in [1, 4].
// NOTE: ExtraRefBase (0x21) collides with Object. The decoder must read 0x21
// strictly as Object; only 0x22..0x25 are extra-resource opcodes (§4.3 Open
// Question). No encoder may emit 0x21 for an extra-ref of width 0.
const (
	ExtraRefBase Op = 0x21
	ExtraRefMax  Op = 0x25
)

// Tombstone opcodes: compiler-emitted markers with no payload.
const (
	TombstoneInteger    Op = 0x80
	TombstoneString     Op = 0x81
	TombstoneResource   Op = 0x82
	TombstoneDecimal    Op = 0x83
	TombstoneArray      Op = 0x84
	TombstoneBool       Op = 0x85
	TombstoneBinaryTree Op = 0x86
)

// IsTombstone reports whether op is one of the seven compiler-tombstone opcodes.
func IsTombstone(op Op) bool {
	return op >= TombstoneInteger && op <= TombstoneBinaryTree
}

// IntegerWidth returns the payload byte width encoded by an integer opcode,
// and whether op is in fact an integer opcode.
func IntegerWidth(op Op) (n int, ok bool) {
	if op < IntegerBase || op > IntegerMax {
		return 0, false
	}

	return int(op - IntegerBase), true
}

// ForIntegerWidth returns the integer opcode for byte width n (0..=8).
func ForIntegerWidth(n int) Op {
	return IntegerBase + Op(n)
}

// IntArrayCountWidth returns the count-width encoded by an int-array opcode.
func IntArrayCountWidth(op Op) (n int, ok bool) {
	if op < IntArrayBase+1 || op > IntArrayMax {
		return 0, false
	}

	return int(op - IntArrayBase), true
}

// ForIntArrayCountWidth returns the int-array opcode for count-width n (1..=8).
func ForIntArrayCountWidth(n int) Op {
	return IntArrayBase + Op(n)
}

// RefWidth returns the handle byte width encoded by a string/resource/extra-ref
// opcode, given the family's base opcode.
func RefWidth(op, base Op) (n int, ok bool) {
	if op < base+1 || op > base+4 {
		return 0, false
	}

	return int(op - base), true
}

// ForRefWidth returns the ref opcode for the given family base and width n (1..=4).
func ForRefWidth(base Op, n int) Op {
	return base + Op(n)
}
