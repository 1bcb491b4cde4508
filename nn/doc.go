// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides model structures: the static description of a model
// whose parameters live in a separate tree.
//
// # Overview
//
// A Structure knows its name, the layout of its parameters (Spec), how to
// create fresh parameters (Init) and how to run a forward pass given a
// parameter tree. It never owns parameters, so the same structure can be
// shared by every State of a training run.
//
// This package contains:
//   - Layers: Linear
//   - Activations: ReLU
//   - Containers: Sequential
//   - Loss functions: MSELoss
//
// # Basic Usage
//
//	model := nn.NewSequential(
//	    nn.NewLinear(4, 16),
//	    nn.ReLU{},
//	    nn.NewLinear(16, 1),
//	)
//	params, err := model.Init(rand.New(rand.NewSource(0)))
//	// params.layers_0.weight: (16, 4)@float32
//	// params.layers_0.bias:   (16,)@float32
//	// ...
//	out, err := model.Forward(params, batch)
package nn
