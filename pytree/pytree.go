// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package pytree

import (
	"github.com/born-ml/trainstate/internal/pytree"
)

// Node is a tree node: Leaf, List, *Dict or *Record.
type Node = pytree.Node

// Leaf wraps a single value.
type Leaf = pytree.Leaf

// List is an ordered sequence of nodes.
type List = pytree.List

// Dict is an insertion-ordered mapping from string keys to nodes.
type Dict = pytree.Dict

// Record is a named node with ordered fields.
type Record = pytree.Record

// NewDict creates an empty Dict.
func NewDict() *Dict {
	return pytree.NewDict()
}

// NewRecord creates an empty Record with the given type name.
func NewRecord(name string) *Record {
	return pytree.NewRecord(name)
}

// Paths

// EntryKind tells how a PathEntry descends into its parent.
type EntryKind = pytree.EntryKind

// Path entry kinds.
const (
	KeyEntry   = pytree.KeyEntry
	IndexEntry = pytree.IndexEntry
	FieldEntry = pytree.FieldEntry
)

// PathEntry is one step from a node to a child.
type PathEntry = pytree.PathEntry

// KeyPath is the sequence of steps from the root to a node.
type KeyPath = pytree.KeyPath

// Key returns a mapping-key path entry.
func Key(k string) PathEntry { return pytree.Key(k) }

// Index returns a sequence-index path entry.
func Index(i int) PathEntry { return pytree.Index(i) }

// Field returns a record-field path entry.
func Field(f string) PathEntry { return pytree.Field(f) }

// ParseKeyPath parses the canonical path form produced by KeyPath.String.
func ParseKeyPath(s string) (KeyPath, error) {
	return pytree.ParseKeyPath(s)
}

// Errors

// ErrStructureMismatch is wrapped by errors about trees of different shape.
var ErrStructureMismatch = pytree.ErrStructureMismatch

// ErrInvalidPath is returned by ParseKeyPath for malformed paths.
var ErrInvalidPath = pytree.ErrInvalidPath

// PathError records the path at which an operation failed.
type PathError = pytree.PathError

// Traversal

// PathLeaf is a leaf together with its path.
type PathLeaf = pytree.PathLeaf

// WalkFunc is called for each leaf by Walk.
type WalkFunc = pytree.WalkFunc

// MapFunc transforms one leaf value.
type MapFunc = pytree.MapFunc

// Map2Func combines the leaves at the same path of two trees.
type Map2Func = pytree.Map2Func

// Walk visits every leaf in depth-first declared order, stopping at the first error.
func Walk(n Node, fn WalkFunc) error {
	return pytree.Walk(n, fn)
}

// FlattenWithPath returns all leaves with their paths in traversal order.
func FlattenWithPath(n Node) []PathLeaf {
	return pytree.FlattenWithPath(n)
}

// Leaves returns all leaf values in traversal order.
func Leaves(n Node) []any {
	return pytree.Leaves(n)
}

// NumLeaves returns the number of leaves.
func NumLeaves(n Node) int {
	return pytree.NumLeaves(n)
}

// Map returns a new tree with fn applied to every leaf.
func Map(n Node, fn MapFunc) (Node, error) {
	return pytree.Map(n, fn)
}

// Map2 combines two trees of the same structure leaf by leaf.
func Map2(a, b Node, fn Map2Func) (Node, error) {
	return pytree.Map2(a, b, fn)
}

// SameStructure returns nil when a and b have the same keys, fields and
// indices, and an error naming the first differing path otherwise.
func SameStructure(a, b Node) error {
	return pytree.SameStructure(a, b)
}

// Equal reports whether a and b have the same structure and eq holds for
// every pair of leaves.
func Equal(a, b Node, eq func(x, y any) bool) bool {
	return pytree.Equal(a, b, eq)
}
