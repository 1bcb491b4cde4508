// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides gradient transformations: pure optimizer rules
// whose state lives in a tree next to the parameters.
//
// # Overview
//
// A GradientTransformation has two operations:
//   - Init(params) builds the initial optimizer state
//   - Update(grads, state, params) returns the updates to add to params and
//     the next state
//
// Neither mutates its inputs. ApplyUpdates adds the updates leaf by leaf.
//
// # Available Optimizers
//
//   - SGD: stochastic gradient descent with optional momentum
//     (state: SGDState{trace})
//   - Adam: adaptive moments with bias correction
//     (state: AdamState{count, mu, nu})
//
// # Basic Usage
//
//	tx := optim.NewAdam(optim.AdamConfig{LR: 0.001})
//	state, err := tx.Init(params)
//	for step := 0; step < steps; step++ {
//	    grads := computeGrads(params)
//	    updates, next, err := tx.Update(grads, state, params)
//	    params, err = optim.ApplyUpdates(params, updates)
//	    state = next
//	}
package optim
