// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/born-ml/trainstate/internal/optim"
	"github.com/born-ml/trainstate/internal/pytree"
)

// GradientTransformation is a pure optimizer rule.
type GradientTransformation = optim.GradientTransformation

// Config represents the base configuration for optimizers.
type Config = optim.Config

// ApplyUpdates returns params + updates leaf by leaf.
func ApplyUpdates(params, updates pytree.Node) (pytree.Node, error) {
	return optim.ApplyUpdates(params, updates)
}

// ZerosLike returns a tree of zero tensors shaped like tree.
func ZerosLike(tree pytree.Node) (pytree.Node, error) {
	return optim.ZerosLike(tree)
}

// SGD (Stochastic Gradient Descent)

// SGD represents the SGD rule with optional momentum.
type SGD = optim.SGD

// SGDConfig contains configuration for SGD.
type SGDConfig = optim.SGDConfig

// NewSGD creates an SGD transformation.
//
// Example:
//
//	tx := optim.NewSGD(optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
func NewSGD(config SGDConfig) *SGD {
	return optim.NewSGD(config)
}

// Adam (Adaptive Moment Estimation)

// Adam represents the Adam rule.
type Adam = optim.Adam

// AdamConfig contains configuration for Adam.
type AdamConfig = optim.AdamConfig

// NewAdam creates an Adam transformation with bias correction.
//
// Example:
//
//	tx := optim.NewAdam(optim.AdamConfig{
//	    LR:    0.001,
//	    Betas: [2]float32{0.9, 0.999},
//	    Eps:   1e-8,
//	})
func NewAdam(config AdamConfig) *Adam {
	return optim.NewAdam(config)
}
