package serialization

import (
	"fmt"

	"github.com/born-ml/trainstate/internal/pytree"
)

// Tree rebuilds the stored tensors into a tree without a template, using
// the stored paths alone. Named steps become Dict keys and indices become
// List positions, so Record names are not recovered and subtrees without
// leaves do not reappear.
func (r *Reader) Tree() (pytree.Node, error) {
	root := &treeBuilder{}
	for _, t := range r.header.Tensors {
		path, err := pytree.ParseKeyPath(t.Path)
		if err != nil {
			return nil, err
		}
		raw, err := r.ReadTensor(t.Path)
		if err != nil {
			return nil, err
		}
		if err := root.insert(path, raw); err != nil {
			return nil, &pytree.PathError{Path: path, Err: err}
		}
	}
	return root.node(), nil
}

type treeBuilder struct {
	leaf     any
	hasLeaf  bool
	keys     []string
	children map[string]*treeBuilder
	items    []*treeBuilder
}

func (b *treeBuilder) insert(path pytree.KeyPath, v any) error {
	if len(path) == 0 {
		if b.hasLeaf || len(b.keys) > 0 || len(b.items) > 0 {
			return fmt.Errorf("%w: leaf collides with another entry", ErrInvalidTensorName)
		}
		b.leaf, b.hasLeaf = v, true
		return nil
	}
	if b.hasLeaf {
		return fmt.Errorf("%w: path descends into a leaf", ErrInvalidTensorName)
	}

	e := path[0]
	if e.Kind == pytree.IndexEntry {
		if len(b.keys) > 0 {
			return fmt.Errorf("%w: index under a keyed node", ErrInvalidTensorName)
		}
		if e.Index >= MaxTensorCount {
			return fmt.Errorf("%w: index %d", ErrTooManyTensors, e.Index)
		}
		for len(b.items) <= e.Index {
			b.items = append(b.items, &treeBuilder{})
		}
		return b.items[e.Index].insert(path[1:], v)
	}

	if len(b.items) > 0 {
		return fmt.Errorf("%w: key under a list node", ErrInvalidTensorName)
	}
	if b.children == nil {
		b.children = make(map[string]*treeBuilder)
	}
	c, ok := b.children[e.Key]
	if !ok {
		c = &treeBuilder{}
		b.children[e.Key] = c
		b.keys = append(b.keys, e.Key)
	}
	return c.insert(path[1:], v)
}

func (b *treeBuilder) node() pytree.Node {
	switch {
	case b.hasLeaf:
		return pytree.Leaf{Value: b.leaf}
	case len(b.items) > 0:
		out := make(pytree.List, len(b.items))
		for i, item := range b.items {
			out[i] = item.node()
		}
		return out
	case len(b.keys) > 0:
		out := pytree.NewDict()
		for _, k := range b.keys {
			out.Set(k, b.children[k].node())
		}
		return out
	default:
		return nil
	}
}
