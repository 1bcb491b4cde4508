package optim

import (
	"fmt"
	"math"

	"github.com/born-ml/trainstate/internal/pytree"
	"github.com/born-ml/trainstate/internal/tensor"
)

// adamStateName is the record name of Adam optimizer state.
const adamStateName = "AdamState"

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Update rule:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient       // First moment
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²      // Second moment
//	m_hat = m_t / (1 - beta1^t)                        // Bias correction
//	v_hat = v_t / (1 - beta2^t)                        // Bias correction
//	update = -lr * m_hat / (sqrt(v_hat) + eps)
//
// State is an AdamState record with fields:
//   - count: int64 scalar timestep
//   - mu:    first moments, shaped like params
//   - nu:    second moments, shaped like params
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
type Adam struct {
	lr    float32
	beta1 float32
	beta2 float32
	eps   float32
}

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	LR    float32    // Learning rate (default: 0.001)
	Betas [2]float32 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps   float32    // Term for numerical stability (default: 1e-8)
}

// NewAdam creates a new Adam transformation, filling zero fields with
// defaults.
func NewAdam(config AdamConfig) *Adam {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}

	return &Adam{
		lr:    config.LR,
		beta1: config.Betas[0],
		beta2: config.Betas[1],
		eps:   config.Eps,
	}
}

// Name implements GradientTransformation.
func (a *Adam) Name() string { return "Adam" }

// Hyperparams implements GradientTransformation.
func (a *Adam) Hyperparams() map[string]float64 {
	return map[string]float64{
		"lr":    float64(a.lr),
		"beta1": float64(a.beta1),
		"beta2": float64(a.beta2),
		"eps":   float64(a.eps),
	}
}

// Init implements GradientTransformation.
func (a *Adam) Init(params pytree.Node) (pytree.Node, error) {
	mu, err := ZerosLike(params)
	if err != nil {
		return nil, fmt.Errorf("adam init: %w", err)
	}
	nu, err := ZerosLike(params)
	if err != nil {
		return nil, fmt.Errorf("adam init: %w", err)
	}
	return newAdamState(0, mu, nu), nil
}

func newAdamState(count int64, mu, nu pytree.Node) *pytree.Record {
	return pytree.NewRecord(adamStateName).
		Set("count", pytree.Leaf{Value: tensor.Scalar(count)}).
		Set("mu", mu).
		Set("nu", nu)
}

// Update implements GradientTransformation.
func (a *Adam) Update(grads, state, _ pytree.Node) (pytree.Node, pytree.Node, error) {
	count, err := adamCount(state)
	if err != nil {
		return nil, nil, err
	}
	mu, err := recordField(state, adamStateName, "mu")
	if err != nil {
		return nil, nil, err
	}
	nu, err := recordField(state, adamStateName, "nu")
	if err != nil {
		return nil, nil, err
	}

	count++
	beta1, beta2 := a.beta1, a.beta2
	biasCorrection1 := float32(1.0 - math.Pow(float64(beta1), float64(count)))
	biasCorrection2 := float32(1.0 - math.Pow(float64(beta2), float64(count)))

	newMu, err := pytree.Map2(mu, grads, func(_ pytree.KeyPath, m, g any) (any, error) {
		return binary(m, g, func(mv, gv float32) float32 { return beta1*mv + (1-beta1)*gv })
	})
	if err != nil {
		return nil, nil, fmt.Errorf("adam update: %w", err)
	}
	newNu, err := pytree.Map2(nu, grads, func(_ pytree.KeyPath, v, g any) (any, error) {
		return binary(v, g, func(vv, gv float32) float32 { return beta2*vv + (1-beta2)*gv*gv })
	})
	if err != nil {
		return nil, nil, fmt.Errorf("adam update: %w", err)
	}

	lr, eps := a.lr, a.eps
	updates, err := pytree.Map2(newMu, newNu, func(_ pytree.KeyPath, m, v any) (any, error) {
		return binary(m, v, func(mv, vv float32) float32 {
			mHat := mv / biasCorrection1
			vHat := vv / biasCorrection2
			return -lr * mHat / (float32(math.Sqrt(float64(vHat))) + eps)
		})
	})
	if err != nil {
		return nil, nil, fmt.Errorf("adam update: %w", err)
	}

	return updates, newAdamState(count, newMu, newNu), nil
}

// adamCount reads the timestep from an AdamState record.
func adamCount(state pytree.Node) (int64, error) {
	n, err := recordField(state, adamStateName, "count")
	if err != nil {
		return 0, err
	}
	leaf, ok := n.(pytree.Leaf)
	if !ok {
		return 0, fmt.Errorf("adam count is %T, want leaf", n)
	}
	raw, ok := leaf.Value.(*tensor.RawTensor)
	if !ok || raw == nil || raw.DType() != tensor.Int64 || raw.NumElements() != 1 {
		return 0, fmt.Errorf("adam count must be an int64 scalar, got %T", leaf.Value)
	}
	return raw.AsInt64()[0], nil
}
