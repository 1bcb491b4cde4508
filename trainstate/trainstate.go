// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package trainstate

import (
	"math/rand"

	"github.com/born-ml/trainstate/internal/nn"
	"github.com/born-ml/trainstate/internal/optim"
	"github.com/born-ml/trainstate/internal/pytree"
	"github.com/born-ml/trainstate/internal/trainstate"
)

// State is an immutable training-state record.
type State = trainstate.State

// Option configures New and Create.
type Option = trainstate.Option

// RecordName is the record name of the tree returned by State.Traversable.
const RecordName = trainstate.RecordName

// Traversable field names.
const (
	FieldStep      = trainstate.FieldStep
	FieldParams    = trainstate.FieldParams
	FieldOptState  = trainstate.FieldOptState
	FieldEMAParams = trainstate.FieldEMAParams
)

// ErrInvalidState is wrapped by every State.Validate failure.
var ErrInvalidState = trainstate.ErrInvalidState

// WithEMADecay enables EMA tracking of the parameters with the given decay.
func WithEMADecay(decay float64) Option {
	return trainstate.WithEMADecay(decay)
}

// WithInitialStep starts the state at step instead of 0.
func WithInitialStep(step int64) Option {
	return trainstate.WithInitialStep(step)
}

// New builds a validated State from existing parameters.
func New(structure nn.Structure, params pytree.Node, tx optim.GradientTransformation, opts ...Option) (State, error) {
	return trainstate.New(structure, params, tx, opts...)
}

// Create initializes parameters from structure and builds a validated State.
func Create(structure nn.Structure, tx optim.GradientTransformation, rng *rand.Rand, opts ...Option) (State, error) {
	return trainstate.Create(structure, tx, rng, opts...)
}

// UpdateEMA returns decay*old + (1-decay)*current leaf by leaf. A nil old
// tree is seeded with a copy of current.
func UpdateEMA(decay float64, old, current pytree.Node) (pytree.Node, error) {
	return trainstate.UpdateEMA(decay, old, current)
}
