package nn

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/born-ml/trainstate/internal/pytree"
	"github.com/born-ml/trainstate/internal/tensor"
)

// Sequential chains structures; each output feeds the next input.
// Its parameters are a Dict keyed "layers_0", "layers_1", ... in order.
//
// Example:
//
//	model := nn.NewSequential(
//	    nn.NewLinear(784, 128),
//	    nn.ReLU{},
//	    nn.NewLinear(128, 10),
//	)
type Sequential struct {
	layers []Structure
}

// NewSequential creates a Sequential structure.
func NewSequential(layers ...Structure) *Sequential {
	return &Sequential{layers: append([]Structure(nil), layers...)}
}

// Layers returns the chained structures.
func (s *Sequential) Layers() []Structure {
	return append([]Structure(nil), s.layers...)
}

// Name implements Structure.
func (s *Sequential) Name() string {
	names := make([]string, len(s.layers))
	for i, l := range s.layers {
		names[i] = l.Name()
	}
	return "Sequential(" + strings.Join(names, ", ") + ")"
}

func layerKey(i int) string {
	return fmt.Sprintf("layers_%d", i)
}

// Spec implements Structure.
func (s *Sequential) Spec() pytree.Node {
	d := pytree.NewDict()
	for i, l := range s.layers {
		d.Set(layerKey(i), l.Spec())
	}
	return d
}

// Init implements Structure.
func (s *Sequential) Init(rng *rand.Rand) (pytree.Node, error) {
	d := pytree.NewDict()
	for i, l := range s.layers {
		p, err := l.Init(rng)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		d.Set(layerKey(i), p)
	}
	return d, nil
}

// Forward implements Structure.
func (s *Sequential) Forward(params pytree.Node, input *tensor.RawTensor) (*tensor.RawTensor, error) {
	d, ok := params.(*pytree.Dict)
	if !ok || d == nil {
		return nil, fmt.Errorf("%s: params must be a dict, got %T", s.Name(), params)
	}

	out := input
	for i, l := range s.layers {
		p, ok := d.Get(layerKey(i))
		if !ok {
			return nil, fmt.Errorf("%s: missing params for %s", s.Name(), layerKey(i))
		}
		var err error
		out, err = l.Forward(p, out)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return out, nil
}
