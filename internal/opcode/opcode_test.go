package opcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntegerWidthRoundTrip(t *testing.T) {
	for n := 0; n <= 8; n++ {
		op := ForIntegerWidth(n)
		got, ok := IntegerWidth(op)
		assert.True(t, ok)
		assert.Equal(t, n, got)
	}
}

func TestIntegerWidth_OutOfRange(t *testing.T) {
	_, ok := IntegerWidth(0x0D)
	assert.False(t, ok)
}

func TestIntArrayCountWidthRoundTrip(t *testing.T) {
	for n := 1; n <= 8; n++ {
		op := ForIntArrayCountWidth(n)
		got, ok := IntArrayCountWidth(op)
		assert.True(t, ok)
		assert.Equal(t, n, got)
	}
}

func TestRefWidth_ExtraRefBaseCollidesWithObject(t *testing.T) {
	// 0x21 must resolve as Object, not as an extra-ref of width 0.
	_, ok := RefWidth(Object, ExtraRefBase)
	assert.False(t, ok, "0x21 must not decode as a zero-width extra-ref")

	n, ok := RefWidth(0x22, ExtraRefBase)
	assert.True(t, ok)
	assert.Equal(t, 1, n)
}

func TestIsTombstone(t *testing.T) {
	assert.True(t, IsTombstone(TombstoneInteger))
	assert.True(t, IsTombstone(TombstoneBinaryTree))
	assert.False(t, IsTombstone(List))
}
