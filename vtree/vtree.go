// Package vtree implements the in-memory virtual file model (§3): the
// decoded form of a PSB file, owned exclusively by its root object,
// resources, and extras.
package vtree

import "github.com/mote-tools/psb/value"

// Header carries the two fields from the PSB file header that survive into
// the decoded tree (§6.1): the format version and the raw encryption flag.
type Header struct {
	Version   uint16
	Encrypted bool
}

// File is a fully loaded PSB tree: a header, the resource and extra blob
// tables (by index), and the root Object. Extras is only ever non-empty
// when Header.Version >= 4 (§3 invariant).
type File struct {
	Header    Header
	Resources [][]byte
	Extras    [][]byte
	Root      *value.Object
}

// New returns an empty File with an empty root Object, ready for
// application code to populate before writing.
func New(version uint16) *File {
	return &File{
		Header: Header{Version: version},
		Root:   value.NewEmptyObject(),
	}
}
