// Package value implements the PSB value codec (§4.5): the tagged union
// over every value kind, the ordered Object map, and the mutually
// recursive List/Object payload (de)serialization.
package value

import (
	"bytes"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/mote-tools/psb/errs"
	"github.com/mote-tools/psb/internal/hash"
	"github.com/mote-tools/psb/internal/intarray"
	"github.com/mote-tools/psb/internal/number"
	"github.com/mote-tools/psb/internal/opcode"
	"github.com/mote-tools/psb/ref"
)

func float32bits(f float32) uint32 { return math.Float32bits(f) }
func float64bits(f float64) uint64 { return math.Float64bits(f) }

// Kind tags which field of a Value is meaningful.
type Kind int

// Value kinds, one per row of the §4.5 opcode dispatch table plus the seven
// compiler tombstones.
const (
	KindNone Kind = iota
	KindNull
	KindBool
	KindInteger
	KindIntArray
	KindString
	KindResourceRef
	KindExtraRef
	KindFloat
	KindDouble
	KindList
	KindObject
	KindTombstoneInteger
	KindTombstoneString
	KindTombstoneResource
	KindTombstoneDecimal
	KindTombstoneArray
	KindTombstoneBool
	KindTombstoneBinaryTree
)

// Value is a tagged union over every PSB value kind. Only the field(s)
// matching Kind are meaningful; the others are zero.
type Value struct {
	Kind        Kind
	Bool        bool
	Int         int64
	Ints        []uint64
	Str         string
	Float32     float32
	Float64     float64
	Obj         *Object
	List        []Value
	ResourceRef ref.Resource
	ExtraRef    ref.Extra
}

// None returns the payload-free None value.
func None() Value { return Value{Kind: KindNone} }

// Null returns the payload-free Null value.
func Null() Value { return Value{Kind: KindNull} }

// NewBool returns a Bool value.
func NewBool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// NewInt returns a signed Integer value.
func NewInt(v int64) Value { return Value{Kind: KindInteger, Int: v} }

// NewIntArray returns an IntArray value.
func NewIntArray(vals []uint64) Value { return Value{Kind: KindIntArray, Ints: vals} }

// NewString returns a String value.
func NewString(s string) Value { return Value{Kind: KindString, Str: s} }

// NewResourceRef returns a ResourceRef value.
func NewResourceRef(r ref.Resource) Value { return Value{Kind: KindResourceRef, ResourceRef: r} }

// NewExtraRef returns an ExtraResourceRef value.
func NewExtraRef(e ref.Extra) Value { return Value{Kind: KindExtraRef, ExtraRef: e} }

// NewFloat returns a 32-bit Float value.
func NewFloat(f float32) Value { return Value{Kind: KindFloat, Float32: f} }

// NewDouble returns a 64-bit Double value.
func NewDouble(d float64) Value { return Value{Kind: KindDouble, Float64: d} }

// NewList returns a List value.
func NewList(vals []Value) Value { return Value{Kind: KindList, List: vals} }

// NewObject returns an Object value wrapping o.
func NewObject(o *Object) Value { return Value{Kind: KindObject, Obj: o} }

// Tombstone returns one of the seven compiler-tombstone values for the
// given opcode (§4.5, 0x80..0x86).
func Tombstone(op opcode.Op) (Value, error) {
	switch op {
	case opcode.TombstoneInteger:
		return Value{Kind: KindTombstoneInteger}, nil
	case opcode.TombstoneString:
		return Value{Kind: KindTombstoneString}, nil
	case opcode.TombstoneResource:
		return Value{Kind: KindTombstoneResource}, nil
	case opcode.TombstoneDecimal:
		return Value{Kind: KindTombstoneDecimal}, nil
	case opcode.TombstoneArray:
		return Value{Kind: KindTombstoneArray}, nil
	case opcode.TombstoneBool:
		return Value{Kind: KindTombstoneBool}, nil
	case opcode.TombstoneBinaryTree:
		return Value{Kind: KindTombstoneBinaryTree}, nil
	default:
		return Value{}, errs.New(errs.ErrInvalidValue, "not a tombstone opcode")
	}
}

// Equal reports structural equality, per §8 property 1, comparing floats by
// bit pattern so NaN compares equal to itself (the natural reflexive notion
// a round-trip test needs, unlike IEEE-754 `==`).
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}

	switch v.Kind {
	case KindBool:
		return v.Bool == other.Bool
	case KindInteger:
		return v.Int == other.Int
	case KindIntArray:
		if len(v.Ints) != len(other.Ints) {
			return false
		}

		for i := range v.Ints {
			if v.Ints[i] != other.Ints[i] {
				return false
			}
		}

		return true
	case KindString:
		return v.Str == other.Str
	case KindResourceRef:
		return v.ResourceRef == other.ResourceRef
	case KindExtraRef:
		return v.ExtraRef == other.ExtraRef
	case KindFloat:
		return float32bits(v.Float32) == float32bits(other.Float32)
	case KindDouble:
		return float64bits(v.Float64) == float64bits(other.Float64)
	case KindList:
		if len(v.List) != len(other.List) {
			return false
		}

		for i := range v.List {
			if !v.List[i].Equal(other.List[i]) {
				return false
			}
		}

		return true
	case KindObject:
		return v.Obj.Equal(other.Obj)
	default:
		return true // None, Null, tombstones: kind equality is the whole value
	}
}

// Object is an ordered mapping from UTF-8 key to Value: a parallel
// insertion-ordered key slice plus a lookup map, since §3 requires key
// uniqueness while the writer needs a stable order to re-sort for emission.
type Object struct {
	keys []string
	vals map[string]Value
}

// NewEmptyObject returns an empty Object ready for Set.
func NewEmptyObject() *Object {
	return &Object{vals: make(map[string]Value)}
}

// Set inserts key/v, rejecting a key already present (ErrDuplicateKey) or
// containing a NUL byte (ErrKeyContainsNUL, since names are NUL-terminated
// on the wire and could never round-trip otherwise).
func (o *Object) Set(key string, v Value) error {
	if strings.IndexByte(key, 0) >= 0 {
		return errs.New(errs.ErrKeyContainsNUL, key)
	}

	if _, exists := o.vals[key]; exists {
		return errs.New(errs.ErrDuplicateKey, key)
	}

	o.keys = append(o.keys, key)
	o.vals[key] = v

	return nil
}

// Get returns the value for key and whether it was present.
func (o *Object) Get(key string) (Value, bool) {
	v, ok := o.vals[key]
	return v, ok
}

// Keys returns the object's keys in insertion order. The returned slice
// must not be mutated by the caller.
func (o *Object) Keys() []string {
	return o.keys
}

// Len returns the number of entries.
func (o *Object) Len() int {
	return len(o.keys)
}

// Equal reports whether o and other have the same key set with pairwise
// equal values, ignoring insertion order.
func (o *Object) Equal(other *Object) bool {
	if o == nil || other == nil {
		return o == other
	}

	if o.Len() != other.Len() {
		return false
	}

	for _, k := range o.keys {
		ov, ok := other.Get(k)
		if !ok {
			return false
		}

		v, _ := o.Get(k)
		if !v.Equal(ov) {
			return false
		}
	}

	return true
}

// WalkNames invokes fn for every object key reachable from o, including
// keys in nested Lists and Objects, mirroring the writer's name-gathering
// tree walk.
func (o *Object) WalkNames(fn func(string)) {
	for _, k := range o.keys {
		fn(k)
		walkValueNames(o.vals[k], fn)
	}
}

func walkValueNames(v Value, fn func(string)) {
	switch v.Kind {
	case KindObject:
		v.Obj.WalkNames(fn)
	case KindList:
		for _, c := range v.List {
			walkValueNames(c, fn)
		}
	default:
	}
}

// WalkStrings invokes fn for every String value reachable from o, including
// strings in nested Lists and Objects, mirroring the writer's string-value
// gathering tree walk.
func (o *Object) WalkStrings(fn func(string)) {
	for _, k := range o.keys {
		walkValueStrings(o.vals[k], fn)
	}
}

func walkValueStrings(v Value, fn func(string)) {
	switch v.Kind {
	case KindString:
		fn(v.Str)
	case KindObject:
		v.Obj.WalkStrings(fn)
	case KindList:
		for _, c := range v.List {
			walkValueStrings(c, fn)
		}
	default:
	}
}

// Decode reads one opcode-prefixed Value at r's current position, recursing
// through List/Object payloads by seeking to each child's offset (§4.5.1,
// §4.5.2). names and strings are the already-loaded name/string tables
// (§4.4, §4.7) that Object keys and String values index into.
func Decode(r io.ReadSeeker, names, strs []string) (Value, error) {
	op, err := number.ReadOpcode(r)
	if err != nil {
		return Value{}, err
	}

	return decodeOp(r, op, names, strs)
}

func decodeOp(r io.ReadSeeker, op opcode.Op, names, strs []string) (Value, error) {
	switch {
	case op == opcode.None:
		return None(), nil
	case op == opcode.Null:
		return Null(), nil
	case op == opcode.False:
		return NewBool(false), nil
	case op == opcode.True:
		return NewBool(true), nil
	case op >= opcode.IntegerBase && op <= opcode.IntegerMax:
		v, err := number.ReadSignedRaw(r, op)
		if err != nil {
			return Value{}, err
		}

		return NewInt(v), nil
	case op > opcode.IntArrayBase && op <= opcode.IntArrayMax:
		vals, err := intarray.Read(r, op)
		if err != nil {
			return Value{}, err
		}

		return NewIntArray(vals), nil
	case op > opcode.StringRefBase && op <= opcode.StringRefMax:
		sref, err := ref.ReadStringRef(r, op)
		if err != nil {
			return Value{}, err
		}

		idx := int(sref)
		if idx < 0 || idx >= len(strs) {
			return Value{}, errs.New(errs.ErrInvalidIndex, "string-ref index out of range")
		}

		return NewString(strs[idx]), nil
	case op > opcode.ResourceRefBase && op <= opcode.ResourceRefMax:
		rref, err := ref.ReadResourceRef(r, op)
		if err != nil {
			return Value{}, err
		}

		return NewResourceRef(rref), nil
	case op == opcode.FloatZero || op == opcode.Float || op == opcode.Double:
		v, isDouble, err := number.ReadFloatOrDoubleRaw(r, op)
		if err != nil {
			return Value{}, err
		}

		if isDouble {
			return NewDouble(v), nil
		}

		return NewFloat(float32(v)), nil
	case op == opcode.List:
		return decodeList(r, names, strs)
	case op == opcode.Object:
		return decodeObject(r, names, strs)
	case op > opcode.ExtraRefBase && op <= opcode.ExtraRefMax:
		eref, err := ref.ReadExtraRef(r, op)
		if err != nil {
			return Value{}, err
		}

		return NewExtraRef(eref), nil
	case opcode.IsTombstone(op):
		return Tombstone(op)
	default:
		return Value{}, errs.New(errs.ErrInvalidValue, "unknown value opcode")
	}
}

// decodeList reads a List payload (§4.5.1): one IntArray of child offsets
// measured from the byte immediately after the offset array, then seeks to
// each and decodes one Value.
func decodeList(r io.ReadSeeker, names, strs []string) (Value, error) {
	op, err := number.ReadOpcode(r)
	if err != nil {
		return Value{}, err
	}

	offsets, err := intarray.Read(r, op)
	if err != nil {
		return Value{}, err
	}

	anchor, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return Value{}, errs.IO("seeking list anchor", err)
	}

	children := make([]Value, len(offsets))

	for i, off := range offsets {
		if _, err := r.Seek(anchor+int64(off), io.SeekStart); err != nil {
			return Value{}, errs.IO("seeking list child", err)
		}

		v, err := Decode(r, names, strs)
		if err != nil {
			return Value{}, err
		}

		children[i] = v
	}

	return NewList(children), nil
}

// decodeObject reads an Object payload (§4.5.2): paired name-ref and
// child-offset IntArrays, then each child like a List, with keys resolved
// against names.
func decodeObject(r io.ReadSeeker, names, strs []string) (Value, error) {
	nameOp, err := number.ReadOpcode(r)
	if err != nil {
		return Value{}, err
	}

	nameRefs, err := intarray.Read(r, nameOp)
	if err != nil {
		return Value{}, err
	}

	offOp, err := number.ReadOpcode(r)
	if err != nil {
		return Value{}, err
	}

	offsets, err := intarray.Read(r, offOp)
	if err != nil {
		return Value{}, err
	}

	if len(nameRefs) != len(offsets) {
		return Value{}, errs.New(errs.ErrInvalidOffsetTable, "object name-ref/offset count mismatch")
	}

	anchor, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return Value{}, errs.IO("seeking object anchor", err)
	}

	obj := NewEmptyObject()

	for i, nref := range nameRefs {
		if nref >= uint64(len(names)) {
			return Value{}, errs.New(errs.ErrInvalidOffsetTable, "object key name index out of range")
		}

		if _, err := r.Seek(anchor+int64(offsets[i]), io.SeekStart); err != nil {
			return Value{}, errs.IO("seeking object child", err)
		}

		v, err := Decode(r, names, strs)
		if err != nil {
			return Value{}, err
		}

		if err := obj.Set(names[nref], v); err != nil {
			return Value{}, err
		}
	}

	return NewObject(obj), nil
}

// EncodeOptions carries the already-gathered name/string index tables the
// writer built in its sort phase (§4.8 step 3), plus whether to perform the
// §4.5.3 sibling value-dedup pass.
type EncodeOptions struct {
	NameIndex   map[string]uint64
	StringIndex map[string]uint64
	Dedup       bool
}

// Encode writes v as an opcode-prefixed Value, recursing through List/Object
// children. Object keys and String values are resolved against opts'
// lookup tables, which must already contain every name/string reachable
// from v (the writer's gather phase guarantees this).
func Encode(w io.Writer, v Value, opts *EncodeOptions) (int, error) {
	switch v.Kind {
	case KindNone:
		return writeOp(w, opcode.None)
	case KindNull:
		return writeOp(w, opcode.Null)
	case KindBool:
		if v.Bool {
			return writeOp(w, opcode.True)
		}

		return writeOp(w, opcode.False)
	case KindInteger:
		return number.WriteSigned(w, v.Int)
	case KindIntArray:
		return intarray.Write(w, v.Ints)
	case KindString:
		idx, ok := opts.StringIndex[v.Str]
		if !ok {
			return 0, errs.New(errs.ErrInvalidValue, "string value not in gathered string table")
		}

		return ref.WriteStringRef(w, ref.String(idx))
	case KindResourceRef:
		return ref.WriteResourceRef(w, v.ResourceRef)
	case KindExtraRef:
		return ref.WriteExtraRef(w, v.ExtraRef)
	case KindFloat:
		return number.WriteFloat(w, v.Float32)
	case KindDouble:
		return number.WriteDouble(w, v.Float64)
	case KindList:
		return encodeList(w, v.List, opts)
	case KindObject:
		return encodeObject(w, v.Obj, opts)
	case KindTombstoneInteger:
		return writeOp(w, opcode.TombstoneInteger)
	case KindTombstoneString:
		return writeOp(w, opcode.TombstoneString)
	case KindTombstoneResource:
		return writeOp(w, opcode.TombstoneResource)
	case KindTombstoneDecimal:
		return writeOp(w, opcode.TombstoneDecimal)
	case KindTombstoneArray:
		return writeOp(w, opcode.TombstoneArray)
	case KindTombstoneBool:
		return writeOp(w, opcode.TombstoneBool)
	case KindTombstoneBinaryTree:
		return writeOp(w, opcode.TombstoneBinaryTree)
	default:
		return 0, errs.New(errs.ErrInvalidValue, "unknown value kind")
	}
}

func writeOp(w io.Writer, op opcode.Op) (int, error) {
	if _, err := w.Write([]byte{byte(op)}); err != nil {
		return 0, errs.IO("writing opcode", err)
	}

	return 1, nil
}

// encodeList writes a List payload: the child-offset IntArray, then the
// concatenated (deduplicated) child bytes (§4.5.1).
func encodeList(w io.Writer, children []Value, opts *EncodeOptions) (int, error) {
	offsets, payload, err := encodeChildren(children, opts)
	if err != nil {
		return 0, err
	}

	n, err := writeOp(w, opcode.List)
	if err != nil {
		return n, err
	}

	wn, err := intarray.Write(w, offsets)
	n += wn

	if err != nil {
		return n, err
	}

	wn2, err := w.Write(payload)
	n += wn2

	if err != nil {
		return n, errs.IO("writing list payload", err)
	}

	return n, nil
}

// encodeObject writes an Object payload: paired name-ref/child-offset
// IntArrays with keys sorted lexicographically (§9 "ordering of Object
// children on write"), then the concatenated (deduplicated) child bytes
// (§4.5.2).
func encodeObject(w io.Writer, o *Object, opts *EncodeOptions) (int, error) {
	keys := append([]string(nil), o.Keys()...)
	sort.Strings(keys)

	children := make([]Value, len(keys))
	nameRefs := make([]uint64, len(keys))

	for i, k := range keys {
		v, _ := o.Get(k)
		children[i] = v

		idx, ok := opts.NameIndex[k]
		if !ok {
			return 0, errs.New(errs.ErrInvalidValue, "object key not in gathered name table")
		}

		nameRefs[i] = idx
	}

	offsets, payload, err := encodeChildren(children, opts)
	if err != nil {
		return 0, err
	}

	n, err := writeOp(w, opcode.Object)
	if err != nil {
		return n, err
	}

	wn, err := intarray.Write(w, nameRefs)
	n += wn

	if err != nil {
		return n, err
	}

	wn2, err := intarray.Write(w, offsets)
	n += wn2

	if err != nil {
		return n, err
	}

	wn3, err := w.Write(payload)
	n += wn3

	if err != nil {
		return n, errs.IO("writing object payload", err)
	}

	return n, nil
}

// encodeChildren encodes each child independently, then assigns offsets
// relative to the start of the concatenated payload. When opts.Dedup is
// set, a child whose encoded bytes exactly match an earlier sibling's reuses
// that sibling's offset instead of being re-emitted (§4.5.3); xxhash of the
// encoded bytes is a fast pre-filter ahead of the exact byte comparison that
// actually decides equality.
func encodeChildren(children []Value, opts *EncodeOptions) (offsets []uint64, payload []byte, err error) {
	type candidate struct {
		offset uint64
		data   []byte
	}

	seen := make(map[uint64][]candidate)
	offsets = make([]uint64, len(children))

	var buf bytes.Buffer

	for i, c := range children {
		var cbuf bytes.Buffer
		if _, err := Encode(&cbuf, c, opts); err != nil {
			return nil, nil, err
		}

		data := cbuf.Bytes()

		if opts != nil && opts.Dedup {
			h := hash.ID(string(data))

			matched := false

			for _, cand := range seen[h] {
				if bytes.Equal(cand.data, data) {
					offsets[i] = cand.offset
					matched = true

					break
				}
			}

			if matched {
				continue
			}

			offset := uint64(buf.Len())
			offsets[i] = offset
			buf.Write(data)
			seen[h] = append(seen[h], candidate{offset: offset, data: data})

			continue
		}

		offsets[i] = uint64(buf.Len())
		buf.Write(data)
	}

	return offsets, buf.Bytes(), nil
}
