// Package crypt implements the two PSB encryption stream collaborators
// described informatively in §6.3: a static-key XOR stream and an
// xorshift-seeded XOR stream. Neither is wired into the core reader —
// per §9 Open Question (4), a caller that knows a file is encrypted wraps
// its input with one of these before handing it to reader.OpenPSB.
package crypt

import "io"

// XORReader XOR-masks every byte read from the wrapped reader against a
// static 4-byte key, keyed by the byte's absolute offset in the stream
// (offset mod 4 selects the key byte).
type XORReader struct {
	r      io.Reader
	key    [4]byte
	offset uint64
}

// NewXORReader wraps r, XOR-masking bytes against key by absolute offset.
func NewXORReader(r io.Reader, key [4]byte) *XORReader {
	return &XORReader{r: r, key: key}
}

// Read implements io.Reader.
func (x *XORReader) Read(p []byte) (int, error) {
	n, err := x.r.Read(p)
	for i := 0; i < n; i++ {
		p[i] ^= x.key[x.offset%4]
		x.offset++
	}

	return n, err
}

// XorshiftReader XOR-masks every byte against a byte stream produced by a
// 4-word xorshift PRNG, seeded [123456789, 362436069, 521288629, key]
// (§6.3), advancing one 32-bit word every 4 bytes consumed.
type XorshiftReader struct {
	r         io.Reader
	x, y, z, w uint32
	stream     [4]byte
	idx        int
}

// NewXorshiftReader wraps r, XOR-masking bytes against the xorshift stream
// seeded with key as the fourth word.
func NewXorshiftReader(r io.Reader, key uint32) *XorshiftReader {
	xr := &XorshiftReader{r: r, x: 123456789, y: 362436069, z: 521288629, w: key, idx: 4}
	return xr
}

func (x *XorshiftReader) next() byte {
	if x.idx >= 4 {
		t := x.x ^ (x.x << 11)
		x.x, x.y, x.z = x.y, x.z, x.w
		x.w = (x.w ^ (x.w >> 19)) ^ (t ^ (t >> 8))

		var buf [4]byte
		buf[0] = byte(x.w)
		buf[1] = byte(x.w >> 8)
		buf[2] = byte(x.w >> 16)
		buf[3] = byte(x.w >> 24)
		x.stream = buf
		x.idx = 0
	}

	b := x.stream[x.idx]
	x.idx++

	return b
}

// Read implements io.Reader.
func (x *XorshiftReader) Read(p []byte) (int, error) {
	n, err := x.r.Read(p)
	for i := 0; i < n; i++ {
		p[i] ^= x.next()
	}

	return n, err
}
