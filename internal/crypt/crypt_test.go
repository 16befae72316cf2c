package crypt

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXORReader_RoundTrip(t *testing.T) {
	plain := []byte("this is a plaintext PSB stream of some length")
	key := [4]byte{0x11, 0x22, 0x33, 0x44}

	encrypted := encryptXOR(plain, key)

	r := NewXORReader(bytes.NewReader(encrypted), key)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, plain, got)
}

func encryptXOR(data []byte, key [4]byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ key[i%4]
	}

	return out
}

func TestXorshiftReader_Deterministic(t *testing.T) {
	plain := bytes.Repeat([]byte{0xAA}, 37)

	r1 := NewXorshiftReader(bytes.NewReader(plain), 42)
	out1, err := io.ReadAll(r1)
	require.NoError(t, err)

	r2 := NewXorshiftReader(bytes.NewReader(plain), 42)
	out2, err := io.ReadAll(r2)
	require.NoError(t, err)

	assert.Equal(t, out1, out2)
	assert.NotEqual(t, plain, out1)
}

func TestXorshiftReader_RoundTrip(t *testing.T) {
	plain := []byte("round trip through the same xorshift stream twice")

	r1 := NewXorshiftReader(bytes.NewReader(plain), 7)
	encrypted, err := io.ReadAll(r1)
	require.NoError(t, err)

	r2 := NewXorshiftReader(bytes.NewReader(encrypted), 7)
	decrypted, err := io.ReadAll(r2)
	require.NoError(t, err)

	assert.Equal(t, plain, decrypted)
}
