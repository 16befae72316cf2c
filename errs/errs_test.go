package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Is(t *testing.T) {
	err := New(ErrInvalidValue, "opcode 0xff")
	assert.True(t, errors.Is(err, ErrInvalidValue))
	assert.False(t, errors.Is(err, ErrInvalidFile))
}

func TestError_WrapUnwrapsCause(t *testing.T) {
	cause := errors.New("short read")
	err := Wrap(ErrIO, "reading header", cause)

	assert.True(t, errors.Is(err, ErrIO))
	assert.Contains(t, err.Error(), "short read")
	assert.Contains(t, err.Error(), "reading header")
}

func TestIO_NilCause(t *testing.T) {
	assert.Nil(t, IO("ctx", nil))
}
