// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package trainstate bundles everything needed to checkpoint, resume and
// step a training run.
//
// # Overview
//
// A State holds numeric state (Step, Params, OptState, EMAParams) and static
// configuration (Structure, Tx, EMADecay). Only the numeric part is exposed
// by Traversable, rendered by Summary and written by SaveState.
//
// States are values: WithStep, WithParams, ApplyGradients and friends return
// a new State and leave the old one untouched.
//
// # Basic Usage
//
//	model := nn.NewLinear(3, 1)
//	tx := optim.NewAdam(optim.AdamConfig{LR: 0.01})
//	state, err := trainstate.Create(model, tx, rng, trainstate.WithEMADecay(0.99))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for step := 0; step < 100; step++ {
//	    grads := computeGrads(state.Params)
//	    state, err = state.ApplyGradients(grads)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
//	summary, _ := state.Summary()
//	fmt.Println(summary)
//	// step: ()@int64
//	// params.weight: (1, 3)@float32
//	// ...
//
// # Checkpoints
//
// SaveState writes a .born file (format v2, SHA-256 checked). LoadState
// needs a template State of the same layout and returns a new State with
// the stored numbers and the template's static fields:
//
//	err := trainstate.SaveState("run.born", state, trainstate.Meta{})
//	resumed, err := trainstate.LoadState("run.born", template)
package trainstate
