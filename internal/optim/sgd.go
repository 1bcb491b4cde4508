package optim

import (
	"fmt"

	"github.com/born-ml/trainstate/internal/pytree"
)

// sgdStateName is the record name of SGD optimizer state.
const sgdStateName = "SGDState"

// SGD implements Stochastic Gradient Descent with optional momentum.
//
// Update rule without momentum:
//
//	update = -lr * gradient
//
// Update rule with momentum:
//
//	trace = momentum * trace + gradient
//	update = -lr * trace
//
// State is a SGDState record; with momentum it holds a "trace" tree shaped
// like params, otherwise it is empty.
type SGD struct {
	lr       float32
	momentum float32
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float32 // Learning rate (default: 0.01)
	Momentum float32 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD transformation.
func NewSGD(config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD{lr: config.LR, momentum: config.Momentum}
}

// Name implements GradientTransformation.
func (s *SGD) Name() string { return "SGD" }

// Hyperparams implements GradientTransformation.
func (s *SGD) Hyperparams() map[string]float64 {
	return map[string]float64{"lr": float64(s.lr), "momentum": float64(s.momentum)}
}

// Init implements GradientTransformation.
func (s *SGD) Init(params pytree.Node) (pytree.Node, error) {
	state := pytree.NewRecord(sgdStateName)
	if s.momentum == 0 {
		return state, nil
	}
	trace, err := ZerosLike(params)
	if err != nil {
		return nil, fmt.Errorf("sgd init: %w", err)
	}
	return state.Set("trace", trace), nil
}

// Update implements GradientTransformation.
func (s *SGD) Update(grads, state, _ pytree.Node) (pytree.Node, pytree.Node, error) {
	lr, momentum := s.lr, s.momentum

	if momentum == 0 {
		if _, err := stateRecord(state, sgdStateName); err != nil {
			return nil, nil, err
		}
		updates, err := pytree.Map(grads, func(_ pytree.KeyPath, g any) (any, error) {
			return unary(g, func(x float32) float32 { return -lr * x })
		})
		if err != nil {
			return nil, nil, fmt.Errorf("sgd update: %w", err)
		}
		return updates, state, nil
	}

	trace, err := recordField(state, sgdStateName, "trace")
	if err != nil {
		return nil, nil, err
	}
	newTrace, err := pytree.Map2(trace, grads, func(_ pytree.KeyPath, t, g any) (any, error) {
		return binary(t, g, func(tv, gv float32) float32 { return momentum*tv + gv })
	})
	if err != nil {
		return nil, nil, fmt.Errorf("sgd update: %w", err)
	}
	updates, err := pytree.Map(newTrace, func(_ pytree.KeyPath, t any) (any, error) {
		return unary(t, func(x float32) float32 { return -lr * x })
	})
	if err != nil {
		return nil, nil, fmt.Errorf("sgd update: %w", err)
	}
	return updates, pytree.NewRecord(sgdStateName).Set("trace", newTrace), nil
}
