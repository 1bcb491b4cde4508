package trainstate

import (
	"fmt"

	"github.com/born-ml/trainstate/internal/parallel"
	"github.com/born-ml/trainstate/internal/pytree"
	"github.com/born-ml/trainstate/internal/tensor"
)

// UpdateEMA returns the exponential moving average of current:
//
//	new = decay * old + (1 - decay) * current
//
// A nil old seeds the average with a copy of current. Float32 and float64
// leaves are supported. Neither input is modified.
func UpdateEMA(decay float64, old, current pytree.Node) (pytree.Node, error) {
	if !(decay > 0 && decay <= 1) {
		return nil, fmt.Errorf("ema decay %v outside (0, 1]", decay)
	}

	if old == nil {
		seeded, err := pytree.Map(current, func(_ pytree.KeyPath, v any) (any, error) {
			raw, ok := v.(*tensor.RawTensor)
			if !ok || raw == nil {
				return nil, fmt.Errorf("leaf is %T, want *tensor.RawTensor", v)
			}
			return raw.Clone(), nil
		})
		if err != nil {
			return nil, fmt.Errorf("seed ema: %w", err)
		}
		return seeded, nil
	}

	out, err := pytree.Map2(old, current, func(_ pytree.KeyPath, o, c any) (any, error) {
		return emaLeaf(decay, o, c)
	})
	if err != nil {
		return nil, fmt.Errorf("update ema: %w", err)
	}
	return out, nil
}

func emaLeaf(decay float64, o, c any) (*tensor.RawTensor, error) {
	ro, okO := o.(*tensor.RawTensor)
	rc, okC := c.(*tensor.RawTensor)
	if !okO || !okC || ro == nil || rc == nil {
		return nil, fmt.Errorf("leaves are %T and %T, want *tensor.RawTensor", o, c)
	}
	if ro.DType() != rc.DType() || !ro.Shape().Equal(rc.Shape()) {
		return nil, fmt.Errorf("ema %v and params %v do not match", ro, rc)
	}

	out := tensor.ZerosLike(rc)
	switch rc.DType() {
	case tensor.Float32:
		d := float32(decay)
		x, y, z := ro.AsFloat32(), rc.AsFloat32(), out.AsFloat32()
		parallel.ForChunks(len(z), func(start, end int) {
			for i := start; i < end; i++ {
				z[i] = d*x[i] + (1-d)*y[i]
			}
		}, parallel.ElementwiseConfig())
	case tensor.Float64:
		x, y, z := ro.AsFloat64(), rc.AsFloat64(), out.AsFloat64()
		parallel.ForChunks(len(z), func(start, end int) {
			for i := start; i < end; i++ {
				z[i] = decay*x[i] + (1-decay)*y[i]
			}
		}, parallel.ElementwiseConfig())
	default:
		return nil, fmt.Errorf("ema requires float leaves, got %s", rc.DType())
	}
	return out, nil
}
