package reader

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpenPSB_RejectsBadSignature(t *testing.T) {
	_, err := OpenPSB(bytes.NewReader([]byte("NOPE")))
	assert.Error(t, err)
}

func TestOpenPSB_RejectsUnknownVersion(t *testing.T) {
	data := []byte{
		'P', 'S', 'B', 0, // signature
		5, 0, // version 5 (out of range)
		0, 0, // encryption flag
		0, 0, 0, 0, // offsets-block length
	}

	_, err := OpenPSB(bytes.NewReader(data))
	assert.Error(t, err)
}

func TestOpenPSB_RejectsEncryptedWithoutUnwrapping(t *testing.T) {
	data := []byte{
		'P', 'S', 'B', 0,
		2, 0, // version 2
		1, 0, // encryption flag set
		0, 0, 0, 0,
	}

	_, err := OpenPSB(bytes.NewReader(data))
	assert.Error(t, err)
}

func TestOpenMDF_RejectsBadSignature(t *testing.T) {
	_, err := OpenMDF(bytes.NewReader([]byte("not mdf!")))
	assert.Error(t, err)
}
