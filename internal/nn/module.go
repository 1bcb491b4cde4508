// Package nn describes model structure separately from model parameters.
//
// A Structure is the immutable topology of a model (layer kinds and sizes).
// Its parameters live in a pytree.Node produced by Init and are passed back
// in to Forward. The training state stores both halves side by side:
//   - Structure: opaque metadata, never serialized as numbers
//   - Params: the numeric tree that optimizers update and checkpoints persist
package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/trainstate/internal/pytree"
	"github.com/born-ml/trainstate/internal/tensor"
)

// Structure is the topology of a model.
type Structure interface {
	// Name identifies the architecture, e.g. "Linear(3->1)".
	Name() string

	// Init creates a freshly initialized parameter tree.
	Init(rng *rand.Rand) (pytree.Node, error)

	// Spec returns a tree with the same structure as Init's result whose
	// leaves are ParamSpec values.
	Spec() pytree.Node

	// Forward runs the model on input with the given parameters.
	Forward(params pytree.Node, input *tensor.RawTensor) (*tensor.RawTensor, error)
}

// ParamSpec declares the shape and element type of one parameter.
// It satisfies tensor.Array so a spec tree renders like a parameter tree.
type ParamSpec struct {
	shape tensor.Shape
	dtype tensor.DataType
}

// NewParamSpec creates a ParamSpec.
func NewParamSpec(shape tensor.Shape, dtype tensor.DataType) ParamSpec {
	return ParamSpec{shape: shape.Clone(), dtype: dtype}
}

// Shape returns the declared shape.
func (p ParamSpec) Shape() tensor.Shape { return p.shape }

// DType returns the declared element type.
func (p ParamSpec) DType() tensor.DataType { return p.dtype }

// CheckParams verifies that params has the structure of s.Spec() and that
// every leaf is an array with the declared shape and dtype.
func CheckParams(s Structure, params pytree.Node) error {
	_, err := pytree.Map2(s.Spec(), params, func(_ pytree.KeyPath, want, got any) (any, error) {
		spec, ok := want.(ParamSpec)
		if !ok {
			return nil, fmt.Errorf("spec leaf is %T, want nn.ParamSpec", want)
		}
		arr, ok := got.(tensor.Array)
		if !ok {
			return nil, fmt.Errorf("parameter is %T, want an array", got)
		}
		if !arr.Shape().Equal(spec.Shape()) || arr.DType() != spec.DType() {
			return nil, fmt.Errorf("parameter is %v@%s, want %v@%s",
				arr.Shape(), arr.DType(), spec.Shape(), spec.DType())
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", s.Name(), err)
	}
	return nil
}

// paramTensor fetches a float32 tensor stored under key in a Dict.
func paramTensor(params pytree.Node, key string) (*tensor.RawTensor, error) {
	d, ok := params.(*pytree.Dict)
	if !ok || d == nil {
		return nil, fmt.Errorf("params must be a dict, got %T", params)
	}
	n, ok := d.Get(key)
	if !ok {
		return nil, fmt.Errorf("missing parameter %q", key)
	}
	leaf, ok := n.(pytree.Leaf)
	if !ok {
		return nil, fmt.Errorf("parameter %q is not a leaf", key)
	}
	raw, ok := leaf.Value.(*tensor.RawTensor)
	if !ok || raw == nil {
		return nil, fmt.Errorf("parameter %q is %T, want *tensor.RawTensor", key, leaf.Value)
	}
	if raw.DType() != tensor.Float32 {
		return nil, fmt.Errorf("parameter %q has dtype %s, want float32", key, raw.DType())
	}
	return raw, nil
}
