package value

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mote-tools/psb/ref"
)

func TestScalarRoundTrip(t *testing.T) {
	cases := []Value{
		None(),
		Null(),
		NewBool(true),
		NewBool(false),
		NewInt(0),
		NewInt(-1),
		NewInt(1 << 40),
		NewFloat(0),
		NewFloat(1.0),
		NewDouble(3.5),
		NewIntArray(nil),
		NewIntArray([]uint64{1, 2, 3}),
		NewResourceRef(ref.Resource(7)),
		NewExtraRef(ref.Extra(0)),
	}

	opts := &EncodeOptions{NameIndex: map[string]uint64{}, StringIndex: map[string]uint64{}}

	for _, c := range cases {
		var buf bytes.Buffer
		_, err := Encode(&buf, c, opts)
		require.NoError(t, err)

		got, err := Decode(bytes.NewReader(buf.Bytes()), nil, nil)
		require.NoError(t, err)
		assert.True(t, c.Equal(got), "case %+v got %+v", c, got)
	}
}

func TestTombstoneRoundTrip(t *testing.T) {
	opts := &EncodeOptions{}
	kinds := []Kind{
		KindTombstoneInteger, KindTombstoneString, KindTombstoneResource,
		KindTombstoneDecimal, KindTombstoneArray, KindTombstoneBool, KindTombstoneBinaryTree,
	}

	for _, k := range kinds {
		v := Value{Kind: k}

		var buf bytes.Buffer
		_, err := Encode(&buf, v, opts)
		require.NoError(t, err)

		got, err := Decode(bytes.NewReader(buf.Bytes()), nil, nil)
		require.NoError(t, err)
		assert.Equal(t, k, got.Kind)
	}
}

func TestEmptyObject_S5(t *testing.T) {
	obj := NewEmptyObject()
	opts := &EncodeOptions{NameIndex: map[string]uint64{}, StringIndex: map[string]uint64{}}

	var buf bytes.Buffer
	_, err := Encode(&buf, NewObject(obj), opts)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x21, 0x0D, 0x00, 0x0D, 0x0D, 0x00, 0x0D}, buf.Bytes())

	got, err := Decode(bytes.NewReader(buf.Bytes()), nil, nil)
	require.NoError(t, err)
	require.Equal(t, KindObject, got.Kind)
	assert.Equal(t, 0, got.Obj.Len())
}

func TestListAndObjectRoundTrip(t *testing.T) {
	names := []string{"count", "label", "values"}
	strs := []string{"hello", "world"}

	nameIdx := map[string]uint64{"count": 0, "label": 1, "values": 2}
	strIdx := map[string]uint64{"hello": 0, "world": 1}

	obj := NewEmptyObject()
	require.NoError(t, obj.Set("label", NewString("hello")))
	require.NoError(t, obj.Set("count", NewInt(42)))
	require.NoError(t, obj.Set("values", NewList([]Value{
		NewString("world"),
		NewInt(7),
		NewBool(true),
	})))

	opts := &EncodeOptions{NameIndex: nameIdx, StringIndex: strIdx}

	var buf bytes.Buffer
	_, err := Encode(&buf, NewObject(obj), opts)
	require.NoError(t, err)

	got, err := Decode(bytes.NewReader(buf.Bytes()), names, strs)
	require.NoError(t, err)
	require.Equal(t, KindObject, got.Kind)

	v, ok := got.Obj.Get("label")
	require.True(t, ok)
	assert.Equal(t, "hello", v.Str)

	v, ok = got.Obj.Get("count")
	require.True(t, ok)
	assert.Equal(t, int64(42), v.Int)

	v, ok = got.Obj.Get("values")
	require.True(t, ok)
	require.Len(t, v.List, 3)
	assert.Equal(t, "world", v.List[0].Str)
}

func TestObject_RejectsDuplicateKey(t *testing.T) {
	obj := NewEmptyObject()
	require.NoError(t, obj.Set("a", NewInt(1)))
	assert.Error(t, obj.Set("a", NewInt(2)))
}

func TestObject_RejectsNULKey(t *testing.T) {
	obj := NewEmptyObject()
	assert.Error(t, obj.Set("a\x00b", NewInt(1)))
}

func TestWalkNamesAndStrings(t *testing.T) {
	obj := NewEmptyObject()
	inner := NewEmptyObject()
	require.NoError(t, inner.Set("inner_key", NewString("deep")))
	require.NoError(t, obj.Set("outer_key", NewObject(inner)))
	require.NoError(t, obj.Set("list_key", NewList([]Value{NewString("listed")})))

	var names []string
	obj.WalkNames(func(n string) { names = append(names, n) })
	assert.ElementsMatch(t, []string{"outer_key", "inner_key", "list_key"}, names)

	var strs []string
	obj.WalkStrings(func(s string) { strs = append(strs, s) })
	assert.ElementsMatch(t, []string{"deep", "listed"}, strs)
}

func TestDedup_SharesIdenticalSiblingOffsets(t *testing.T) {
	list := NewList([]Value{
		NewInt(5),
		NewInt(5),
		NewInt(6),
	})

	opts := &EncodeOptions{NameIndex: map[string]uint64{}, StringIndex: map[string]uint64{}, Dedup: true}

	var buf bytes.Buffer
	_, err := Encode(&buf, list, opts)
	require.NoError(t, err)

	// List opcode, offsets [0, 0, 2] (the second 5 reuses offset 0), then
	// the payload holding Int(5) and Int(6) once each.
	assert.Equal(t, []byte{0x20, 0x0D, 0x03, 0x0D, 0x00, 0x00, 0x02, 0x05, 0x05, 0x05, 0x06}, buf.Bytes())

	got, err := Decode(bytes.NewReader(buf.Bytes()), nil, nil)
	require.NoError(t, err)
	require.Len(t, got.List, 3)
	assert.True(t, got.List[0].Equal(NewInt(5)))
	assert.True(t, got.List[1].Equal(NewInt(5)))
	assert.True(t, got.List[2].Equal(NewInt(6)))
}

func TestObject_MissingNameIndexErrors(t *testing.T) {
	obj := NewEmptyObject()
	require.NoError(t, obj.Set("unknown", NewInt(1)))

	opts := &EncodeOptions{NameIndex: map[string]uint64{}, StringIndex: map[string]uint64{}}

	var buf bytes.Buffer
	_, err := Encode(&buf, NewObject(obj), opts)
	assert.Error(t, err)
}

func TestDecode_InvalidOpcode(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte{0xFF}), nil, nil)
	assert.Error(t, err)
}
