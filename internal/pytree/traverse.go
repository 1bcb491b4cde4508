package pytree

import (
	"errors"
	"fmt"
)

// PathLeaf is a leaf value together with its path from the root.
type PathLeaf struct {
	Path  KeyPath
	Value any
}

// WalkFunc is called once per leaf in traversal order.
type WalkFunc func(path KeyPath, value any) error

// Walk visits every leaf of n depth-first in declared order.
// It stops at the first error returned by fn and returns it unchanged.
func Walk(n Node, fn WalkFunc) error {
	return walk(nil, n, fn)
}

func walk(path KeyPath, n Node, fn WalkFunc) error {
	switch v := n.(type) {
	case nil:
		return nil
	case Leaf:
		return fn(path, v.Value)
	case List:
		for i, c := range v {
			if err := walk(path.child(Index(i)), c, fn); err != nil {
				return err
			}
		}
	case *Dict:
		if v == nil {
			return nil
		}
		for _, k := range v.keys {
			if err := walk(path.child(Key(k)), v.items[k], fn); err != nil {
				return err
			}
		}
	case *Record:
		if v == nil {
			return nil
		}
		for _, f := range v.fields {
			if err := walk(path.child(Field(f)), v.values[f], fn); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("unsupported node type %T", n)
	}
	return nil
}

// FlattenWithPath returns every leaf of n with its path, in traversal order.
func FlattenWithPath(n Node) []PathLeaf {
	var out []PathLeaf
	_ = Walk(n, func(path KeyPath, value any) error {
		out = append(out, PathLeaf{Path: path, Value: value})
		return nil
	})
	return out
}

// Leaves returns the leaf values of n in traversal order.
func Leaves(n Node) []any {
	var out []any
	_ = Walk(n, func(_ KeyPath, value any) error {
		out = append(out, value)
		return nil
	})
	return out
}

// NumLeaves returns the number of leaves in n.
func NumLeaves(n Node) int {
	count := 0
	_ = Walk(n, func(KeyPath, any) error {
		count++
		return nil
	})
	return count
}

// MapFunc transforms one leaf value.
type MapFunc func(path KeyPath, value any) (any, error)

// Map returns a new tree with the structure of n whose leaves are fn applied
// to the leaves of n. Errors from fn are wrapped in a *PathError.
func Map(n Node, fn MapFunc) (Node, error) {
	return mapNode(nil, n, fn)
}

func mapNode(path KeyPath, n Node, fn MapFunc) (Node, error) {
	switch v := n.(type) {
	case nil:
		return nil, nil
	case Leaf:
		out, err := fn(path, v.Value)
		if err != nil {
			return nil, wrapLeafError(path, err)
		}
		return Leaf{Value: out}, nil
	case List:
		out := make(List, len(v))
		for i, c := range v {
			m, err := mapNode(path.child(Index(i)), c, fn)
			if err != nil {
				return nil, err
			}
			out[i] = m
		}
		return out, nil
	case *Dict:
		if v == nil {
			return nil, nil
		}
		out := NewDict()
		for _, k := range v.keys {
			m, err := mapNode(path.child(Key(k)), v.items[k], fn)
			if err != nil {
				return nil, err
			}
			out.Set(k, m)
		}
		return out, nil
	case *Record:
		if v == nil {
			return nil, nil
		}
		out := NewRecord(v.name)
		for _, f := range v.fields {
			m, err := mapNode(path.child(Field(f)), v.values[f], fn)
			if err != nil {
				return nil, err
			}
			out.Set(f, m)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported node type %T", n)
	}
}

// Map2Func combines the leaves at the same path of two trees.
type Map2Func func(path KeyPath, a, b any) (any, error)

// Map2 walks a and b in lockstep and returns a tree with their shared
// structure whose leaves are fn(a_leaf, b_leaf). It fails with
// ErrStructureMismatch at the first path where the structures differ.
func Map2(a, b Node, fn Map2Func) (Node, error) {
	return map2(nil, a, b, fn)
}

//nolint:gocyclo,cyclop // one case per node kind
func map2(path KeyPath, a, b Node, fn Map2Func) (Node, error) {
	a, b = normalize(a), normalize(b)
	switch av := a.(type) {
	case nil:
		if b != nil {
			return nil, mismatch(path, "empty vs %s", kindName(b))
		}
		return nil, nil
	case Leaf:
		bv, ok := b.(Leaf)
		if !ok {
			return nil, mismatch(path, "leaf vs %s", kindName(b))
		}
		out, err := fn(path, av.Value, bv.Value)
		if err != nil {
			return nil, wrapLeafError(path, err)
		}
		return Leaf{Value: out}, nil
	case List:
		bv, ok := b.(List)
		if !ok || len(av) != len(bv) {
			return nil, mismatch(path, "%s vs %s", kindName(a), kindName(b))
		}
		out := make(List, len(av))
		for i := range av {
			m, err := map2(path.child(Index(i)), av[i], bv[i], fn)
			if err != nil {
				return nil, err
			}
			out[i] = m
		}
		return out, nil
	case *Dict:
		bv, ok := b.(*Dict)
		if !ok || av.Len() != bv.Len() {
			return nil, mismatch(path, "%s vs %s", kindName(a), kindName(b))
		}
		out := NewDict()
		for i, k := range av.keys {
			if bv.keys[i] != k {
				return nil, mismatch(path, "key %q vs %q at position %d", k, bv.keys[i], i)
			}
			m, err := map2(path.child(Key(k)), av.items[k], bv.items[k], fn)
			if err != nil {
				return nil, err
			}
			out.Set(k, m)
		}
		return out, nil
	case *Record:
		bv, ok := b.(*Record)
		if !ok || av.name != bv.name || av.Len() != bv.Len() {
			return nil, mismatch(path, "%s vs %s", kindName(a), kindName(b))
		}
		out := NewRecord(av.name)
		for i, f := range av.fields {
			if bv.fields[i] != f {
				return nil, mismatch(path, "field %q vs %q at position %d", f, bv.fields[i], i)
			}
			m, err := map2(path.child(Field(f)), av.values[f], bv.values[f], fn)
			if err != nil {
				return nil, err
			}
			out.Set(f, m)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported node type %T", a)
	}
}

// SameStructure returns nil when a and b have identical keys, fields and
// sequence lengths at every level, and an ErrStructureMismatch naming the
// first differing path otherwise. Leaf values are not compared.
func SameStructure(a, b Node) error {
	_, err := map2(nil, a, b, func(KeyPath, any, any) (any, error) { return nil, nil })
	return err
}

var errLeafDiffers = errors.New("leaf values differ")

// Equal reports whether a and b share structure and eq holds for every pair
// of leaves.
func Equal(a, b Node, eq func(x, y any) bool) bool {
	_, err := map2(nil, a, b, func(_ KeyPath, x, y any) (any, error) {
		if !eq(x, y) {
			return nil, errLeafDiffers
		}
		return nil, nil
	})
	return err == nil
}

// normalize turns typed nil containers into an untyped nil.
func normalize(n Node) Node {
	switch v := n.(type) {
	case *Dict:
		if v == nil {
			return nil
		}
	case *Record:
		if v == nil {
			return nil
		}
	}
	return n
}

func wrapLeafError(path KeyPath, err error) error {
	var pe *PathError
	if errors.As(err, &pe) {
		return err
	}
	return &PathError{Path: path, Err: err}
}
