package nn

import (
	"fmt"
	"math/rand"

	"github.com/born-ml/trainstate/internal/parallel"
	"github.com/born-ml/trainstate/internal/pytree"
	"github.com/born-ml/trainstate/internal/tensor"
)

// Linear is a fully connected layer: y = x @ W.T + b
// where:
//   - x has shape [batch_size, in_features]
//   - W ("weight") has shape [out_features, in_features]
//   - b ("bias") has shape [out_features]
//
// Weights are initialized with Xavier/Glorot uniform, biases with zeros.
type Linear struct {
	InFeatures  int
	OutFeatures int
	NoBias      bool
}

// NewLinear creates a Linear structure with bias.
func NewLinear(inFeatures, outFeatures int) Linear {
	return Linear{InFeatures: inFeatures, OutFeatures: outFeatures}
}

// Name implements Structure.
func (l Linear) Name() string {
	return fmt.Sprintf("Linear(%d->%d)", l.InFeatures, l.OutFeatures)
}

// Spec implements Structure.
func (l Linear) Spec() pytree.Node {
	d := pytree.NewDict().
		Set("weight", pytree.Leaf{Value: NewParamSpec(tensor.Shape{l.OutFeatures, l.InFeatures}, tensor.Float32)})
	if !l.NoBias {
		d.Set("bias", pytree.Leaf{Value: NewParamSpec(tensor.Shape{l.OutFeatures}, tensor.Float32)})
	}
	return d
}

// Init implements Structure.
func (l Linear) Init(rng *rand.Rand) (pytree.Node, error) {
	if l.InFeatures <= 0 || l.OutFeatures <= 0 {
		return nil, fmt.Errorf("%s: features must be positive", l.Name())
	}

	weight := tensor.Xavier(l.InFeatures, l.OutFeatures, tensor.Shape{l.OutFeatures, l.InFeatures}, rng)
	d := pytree.NewDict().Set("weight", pytree.Leaf{Value: weight})
	if !l.NoBias {
		d.Set("bias", pytree.Leaf{Value: tensor.Zeros(tensor.Shape{l.OutFeatures}, tensor.Float32)})
	}
	return d, nil
}

// Forward implements Structure.
func (l Linear) Forward(params pytree.Node, input *tensor.RawTensor) (*tensor.RawTensor, error) {
	if err := l.checkInput(input); err != nil {
		return nil, err
	}
	w, err := paramTensor(params, "weight")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", l.Name(), err)
	}

	batch := input.Shape()[0]
	out := tensor.Zeros(tensor.Shape{batch, l.OutFeatures}, tensor.Float32)
	x, wd, y := input.AsFloat32(), w.AsFloat32(), out.AsFloat32()

	parallel.For(batch, func(n int) {
		for o := 0; o < l.OutFeatures; o++ {
			var acc float32
			for i := 0; i < l.InFeatures; i++ {
				acc += x[n*l.InFeatures+i] * wd[o*l.InFeatures+i]
			}
			y[n*l.OutFeatures+o] = acc
		}
	}, parallel.DefaultConfig())

	if !l.NoBias {
		b, err := paramTensor(params, "bias")
		if err != nil {
			return nil, fmt.Errorf("%s: %w", l.Name(), err)
		}
		bd := b.AsFloat32()
		for n := 0; n < batch; n++ {
			for o := 0; o < l.OutFeatures; o++ {
				y[n*l.OutFeatures+o] += bd[o]
			}
		}
	}
	return out, nil
}

// Backward returns the parameter gradients given the layer input and the
// gradient of the loss with respect to the layer output:
//
//	dW = gradOut.T @ x
//	db = sum(gradOut, axis=0)
func (l Linear) Backward(input, gradOut *tensor.RawTensor) (pytree.Node, error) {
	if err := l.checkInput(input); err != nil {
		return nil, err
	}
	batch := input.Shape()[0]
	if !gradOut.Shape().Equal(tensor.Shape{batch, l.OutFeatures}) {
		return nil, fmt.Errorf("%s: gradient shape %v, want %v", l.Name(), gradOut.Shape(), tensor.Shape{batch, l.OutFeatures})
	}

	dW := tensor.Zeros(tensor.Shape{l.OutFeatures, l.InFeatures}, tensor.Float32)
	x, g, dw := input.AsFloat32(), gradOut.AsFloat32(), dW.AsFloat32()
	// Rows of dW are independent; batch order stays fixed within a row.
	parallel.For(l.OutFeatures, func(o int) {
		row := dw[o*l.InFeatures : (o+1)*l.InFeatures]
		for n := 0; n < batch; n++ {
			gv := g[n*l.OutFeatures+o]
			for i := range row {
				row[i] += gv * x[n*l.InFeatures+i]
			}
		}
	}, parallel.DefaultConfig())
	grads := pytree.NewDict().Set("weight", pytree.Leaf{Value: dW})

	if !l.NoBias {
		dB := tensor.Zeros(tensor.Shape{l.OutFeatures}, tensor.Float32)
		db := dB.AsFloat32()
		for n := 0; n < batch; n++ {
			for o := 0; o < l.OutFeatures; o++ {
				db[o] += g[n*l.OutFeatures+o]
			}
		}
		grads.Set("bias", pytree.Leaf{Value: dB})
	}
	return grads, nil
}

func (l Linear) checkInput(input *tensor.RawTensor) error {
	shape := input.Shape()
	if len(shape) != 2 {
		return fmt.Errorf("%s: expected 2D input [batch, features], got shape %v", l.Name(), shape)
	}
	if shape[1] != l.InFeatures {
		return fmt.Errorf("%s: expected input with %d features, got %d", l.Name(), l.InFeatures, shape[1])
	}
	if input.DType() != tensor.Float32 {
		return fmt.Errorf("%s: expected float32 input, got %s", l.Name(), input.DType())
	}
	return nil
}
