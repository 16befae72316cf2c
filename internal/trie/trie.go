// Package trie implements the PSB name trie ("binary tree") codec (§4.4): a
// double-array-trie-shaped encoding of a distinct name set into three
// parallel unsigned integer arrays (offsets, tree, tails).
package trie

import (
	"sort"

	"github.com/mote-tools/psb/errs"
)

type node struct {
	children   map[byte]*node
	terminal   bool
	id         uint64
	terminalID uint64
}

// Encode builds the offsets/tree/tails arrays for names (§4.4). names need
// not be pre-sorted: the trie is always built by inserting a sorted copy for
// deterministic node layout (§8 property 5), but tails[i] still identifies
// the terminal node for names[i] in the caller's original order, since
// lookups are by name, not by trie-assigned position.
func Encode(names []string) (offsets, tree, tails []uint64) {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)

	root := &node{}
	for _, name := range sorted {
		n := root
		for i := 0; i < len(name); i++ {
			b := name[i]
			if n.children == nil {
				n.children = make(map[byte]*node)
			}

			child, ok := n.children[b]
			if !ok {
				child = &node{}
				n.children[b] = child
			}

			n = child
		}

		n.terminal = true
	}

	tree = []uint64{0}
	offsets = []uint64{0}

	type queued struct {
		n  *node
		id uint64
	}

	queue := []queued{{root, 0}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		symbols := make([]int, 0, len(cur.n.children)+1)
		if cur.n.terminal {
			symbols = append(symbols, 0)
		}

		for b := range cur.n.children {
			symbols = append(symbols, int(b))
		}

		if len(symbols) == 0 {
			continue
		}

		sort.Ints(symbols)

		minC, maxC := symbols[0], symbols[len(symbols)-1]
		pos := uint64(len(tree))
		regionLen := maxC - minC + 1

		for k := 0; k < regionLen; k++ {
			tree = append(tree, 0)
		}

		for _, s := range symbols {
			id := pos + uint64(s-minC)
			tree[id] = cur.id

			if s == 0 {
				cur.n.terminalID = id
			} else {
				child := cur.n.children[byte(s)]
				child.id = id
				queue = append(queue, queued{child, id})
			}
		}

		for uint64(len(offsets)) <= cur.id {
			offsets = append(offsets, 0)
		}

		offsets[cur.id] = pos - uint64(minC)
	}

	tails = make([]uint64, len(names))
	for i, name := range names {
		n := root
		for j := 0; j < len(name); j++ {
			n = n.children[name[j]]
		}

		tails[i] = n.terminalID
	}

	return offsets, tree, tails
}

// Decode reverses Encode, reconstructing one name per entry in tails, in the
// same order as tails.
func Decode(offsets, tree, tails []uint64) ([]string, error) {
	names := make([]string, len(tails))

	for i, k := range tails {
		if k >= uint64(len(tree)) {
			return nil, errs.New(errs.ErrInvalidIndex, "trie tail index out of range")
		}

		id := tree[k]

		var rev []byte

		for id != 0 {
			if id >= uint64(len(tree)) {
				return nil, errs.New(errs.ErrInvalidIndex, "trie node index out of range")
			}

			parent := tree[id]
			if parent >= uint64(len(offsets)) {
				return nil, errs.New(errs.ErrInvalidIndex, "trie parent offset index out of range")
			}

			rev = append(rev, byte(id-offsets[parent]))
			id = parent
		}

		for l, r := 0, len(rev)-1; l < r; l, r = l+1, r-1 {
			rev[l], rev[r] = rev[r], rev[l]
		}

		names[i] = string(rev)
	}

	return names, nil
}
