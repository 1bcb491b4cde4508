// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"github.com/born-ml/trainstate/internal/nn"
	"github.com/born-ml/trainstate/internal/pytree"
	"github.com/born-ml/trainstate/internal/tensor"
)

// Structure describes a model's topology independently of its parameters.
type Structure = nn.Structure

// ParamSpec is the shape and dtype a parameter leaf must have.
type ParamSpec = nn.ParamSpec

// NewParamSpec creates a parameter specification.
func NewParamSpec(shape tensor.Shape, dtype tensor.DataType) ParamSpec {
	return nn.NewParamSpec(shape, dtype)
}

// CheckParams verifies that params matches the layout declared by s.
func CheckParams(s Structure, params pytree.Node) error {
	return nn.CheckParams(s, params)
}

// Layers

// Linear is a fully connected layer: y = x @ W.T + b.
type Linear = nn.Linear

// NewLinear creates a Linear structure with bias.
//
// Example:
//
//	layer := nn.NewLinear(784, 128)
//	params, _ := layer.Init(rng) // weight (128, 784), bias (128,)
func NewLinear(inFeatures, outFeatures int) Linear {
	return nn.NewLinear(inFeatures, outFeatures)
}

// Sequential chains structures; parameters are keyed layers_0, layers_1, ...
type Sequential = nn.Sequential

// NewSequential creates a Sequential structure.
func NewSequential(layers ...Structure) *Sequential {
	return nn.NewSequential(layers...)
}

// Activations

// ReLU applies max(0, x) element-wise. It has no parameters.
type ReLU = nn.ReLU

// Loss functions

// MSELoss returns the mean squared error and its gradient with respect to predictions.
func MSELoss(predictions, targets *tensor.RawTensor) (float32, *tensor.RawTensor, error) {
	return nn.MSELoss(predictions, targets)
}
