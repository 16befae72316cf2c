// Package psb provides a compact binary container format for self-indexing
// tree-shaped data: objects, lists, integers, floats, strings, and binary
// resources, with deduplicated name and string interning and an optional
// zlib envelope (MDF) for at-rest compression.
//
// PSB is aimed at scenarios that need random-access decoding of a mostly
// static tree without parsing the whole file up front: a name trie and a
// handful of offset/length tables let a reader jump straight to any value
// reachable from the root object.
//
// # Core Features
//
//   - Self-describing tagged-union value codec (§4.5): objects, lists,
//     integers, floats/doubles, strings, and resource/extra-resource refs
//   - Deduplicated name interning via a byte trie (§4.4) and a flat string
//     table (§4.7), so repeated keys and string values cost one copy
//   - Per-parent sibling value deduplication on write (§4.5.3)
//   - Optional zlib-compressed MDF envelope (§4.9) around a PSB stream
//   - Pluggable XOR/xorshift decrypting readers for encrypted streams (§6.3)
//
// # Basic Usage
//
// Building and writing a tree:
//
//	import "github.com/mote-tools/psb/psb"
//	import "github.com/mote-tools/psb/value"
//	import "github.com/mote-tools/psb/vtree"
//
//	f := vtree.New(3)
//	f.Root.Set("name", value.NewString("hello"))
//	f.Root.Set("count", value.NewInt(42))
//
//	var buf bytes.Buffer
//	err := psb.WriteMDF(f, &buf)
//
// Reading one back:
//
//	loaded, err := psb.OpenMDF(&buf)
//	name, _ := loaded.Root.Get("name")
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the reader
// and writer packages. For fine-grained control over write options (header
// version, deduplication, checksum behavior) use the writer package
// directly; for the lower-level value/reference/trie codecs used to build
// custom tooling on top of PSB, see the value, ref, and internal/trie
// packages.
package psb

import (
	"io"

	"github.com/mote-tools/psb/reader"
	"github.com/mote-tools/psb/vtree"
	"github.com/mote-tools/psb/writer"
)

// Open reads and fully decodes a raw (uncompressed) PSB stream from r,
// returning the virtual file tree ready for traversal.
func Open(r io.Reader) (*vtree.File, error) {
	f, err := reader.OpenPSB(r)
	if err != nil {
		return nil, err
	}

	return f.Load()
}

// OpenMDF reads an MDF-wrapped PSB stream from r, decompressing the zlib
// envelope before decoding exactly as Open would.
func OpenMDF(r io.Reader) (*vtree.File, error) {
	f, err := reader.OpenMDF(r)
	if err != nil {
		return nil, err
	}

	return f.Load()
}

// Write serializes f as a raw PSB stream to w, using writer's default
// options (header version 3, deduplication and checksum enabled). For
// control over those options, call writer.Write directly.
func Write(f *vtree.File, w io.WriteSeeker, opts ...writer.Option) error {
	return writer.Write(f, w, opts...)
}

// WriteMDF serializes f as an MDF-wrapped PSB stream to w. For control over
// the PSB writer's options, call writer.WriteMDF directly.
func WriteMDF(f *vtree.File, w io.Writer, opts ...writer.Option) error {
	return writer.WriteMDF(f, w, opts...)
}
