package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/trainstate/internal/pytree"
	"github.com/born-ml/trainstate/internal/tensor"
)

// ReLU applies f(x) = max(0, x) element-wise. It has no parameters; its
// params subtree is an empty Dict.
type ReLU struct{}

// Name implements Structure.
func (ReLU) Name() string { return "ReLU" }

// Spec implements Structure.
func (ReLU) Spec() pytree.Node { return pytree.NewDict() }

// Init implements Structure.
func (ReLU) Init(*rand.Rand) (pytree.Node, error) { return pytree.NewDict(), nil }

// Forward implements Structure.
func (ReLU) Forward(_ pytree.Node, input *tensor.RawTensor) (*tensor.RawTensor, error) {
	if input.DType() != tensor.Float32 {
		return nil, fmt.Errorf("ReLU: expected float32 input, got %s", input.DType())
	}
	out := input.Clone()
	data := out.AsFloat32()
	for i, v := range data {
		if v < 0 {
			data[i] = 0
		}
	}
	return out, nil
}
