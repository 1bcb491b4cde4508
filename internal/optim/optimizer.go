// Package optim implements gradient transformations for training.
//
// A GradientTransformation is a pure (Init, Update) pair:
//   - Init builds the optimizer state tree for a parameter tree
//   - Update turns gradients into parameter updates and a new state
//
// Neither call mutates its inputs; ApplyUpdates produces new parameters.
// The transformation itself is static configuration and is never part of
// the numeric state that gets checkpointed.
//
// Example:
//
//	tx := optim.NewAdam(optim.AdamConfig{LR: 0.001})
//	state, _ := tx.Init(params)
//	updates, state, _ := tx.Update(grads, state, params)
//	params, _ = optim.ApplyUpdates(params, updates)
package optim

import (
	"fmt"

	"github.com/born-ml/trainstate/internal/parallel"
	"github.com/born-ml/trainstate/internal/pytree"
	"github.com/born-ml/trainstate/internal/tensor"
)

// GradientTransformation is an optimizer update rule.
type GradientTransformation interface {
	// Name identifies the rule, e.g. "Adam".
	Name() string

	// Hyperparams returns the rule's configuration for logging and
	// checkpoint metadata.
	Hyperparams() map[string]float64

	// Init returns the initial optimizer state for params.
	Init(params pytree.Node) (pytree.Node, error)

	// Update computes parameter updates from grads.
	// grads must have the structure of params.
	Update(grads, state, params pytree.Node) (updates, newState pytree.Node, err error)
}

// Config is the base configuration for all optimizers.
type Config struct {
	LR float32 // Learning rate
}

// ApplyUpdates returns params + updates leaf by leaf.
func ApplyUpdates(params, updates pytree.Node) (pytree.Node, error) {
	out, err := pytree.Map2(params, updates, func(_ pytree.KeyPath, p, u any) (any, error) {
		return binary(p, u, func(a, b float32) float32 { return a + b })
	})
	if err != nil {
		return nil, fmt.Errorf("apply updates: %w", err)
	}
	return out, nil
}

// ZerosLike returns a tree of float32 zero tensors shaped like tree.
func ZerosLike(tree pytree.Node) (pytree.Node, error) {
	return pytree.Map(tree, func(_ pytree.KeyPath, v any) (any, error) {
		raw, err := floatLeaf(v)
		if err != nil {
			return nil, err
		}
		return tensor.ZerosLike(raw), nil
	})
}

// floatLeaf asserts that a leaf is a float32 tensor.
func floatLeaf(v any) (*tensor.RawTensor, error) {
	raw, ok := v.(*tensor.RawTensor)
	if !ok || raw == nil {
		return nil, fmt.Errorf("leaf is %T, want *tensor.RawTensor", v)
	}
	if raw.DType() != tensor.Float32 {
		return nil, fmt.Errorf("leaf has dtype %s, want float32", raw.DType())
	}
	return raw, nil
}

// binary applies fn element-wise to two same-shaped float32 leaves.
func binary(a, b any, fn func(x, y float32) float32) (*tensor.RawTensor, error) {
	ra, err := floatLeaf(a)
	if err != nil {
		return nil, err
	}
	rb, err := floatLeaf(b)
	if err != nil {
		return nil, err
	}
	if !ra.Shape().Equal(rb.Shape()) {
		return nil, fmt.Errorf("shape %v does not match %v", ra.Shape(), rb.Shape())
	}

	out := tensor.ZerosLike(ra)
	x, y, z := ra.AsFloat32(), rb.AsFloat32(), out.AsFloat32()
	parallel.ForChunks(len(z), func(start, end int) {
		for i := start; i < end; i++ {
			z[i] = fn(x[i], y[i])
		}
	}, parallel.ElementwiseConfig())
	return out, nil
}

// unary applies fn element-wise to a float32 leaf.
func unary(a any, fn func(x float32) float32) (*tensor.RawTensor, error) {
	ra, err := floatLeaf(a)
	if err != nil {
		return nil, err
	}
	out := tensor.ZerosLike(ra)
	x, z := ra.AsFloat32(), out.AsFloat32()
	parallel.ForChunks(len(z), func(start, end int) {
		for i := start; i < end; i++ {
			z[i] = fn(x[i])
		}
	}, parallel.ElementwiseConfig())
	return out, nil
}

// stateRecord asserts that state is a record with the given name.
func stateRecord(state pytree.Node, name string) (*pytree.Record, error) {
	r, ok := state.(*pytree.Record)
	if !ok || r == nil || r.Name() != name {
		return nil, fmt.Errorf("optimizer state is %T, want %s record", state, name)
	}
	return r, nil
}

// recordField fetches a field from an optimizer state record.
func recordField(state pytree.Node, name, field string) (pytree.Node, error) {
	r, err := stateRecord(state, name)
	if err != nil {
		return nil, err
	}
	n, ok := r.Field(field)
	if !ok {
		return nil, fmt.Errorf("%s record has no field %q", name, field)
	}
	return n, nil
}
