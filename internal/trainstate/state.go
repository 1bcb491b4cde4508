// Package trainstate holds the training-state record: everything needed to
// checkpoint, resume and step a training run.
//
// A State splits into two parts:
//   - numeric state (Step, Params, OptState, EMAParams), exposed as a tree by
//     Traversable and persisted by checkpoints
//   - static configuration (Structure, Tx, EMADecay), carried along but
//     never traversed or serialized
//
// A State is a value. Every update (WithStep, ApplyGradients, ...) returns a
// new State and leaves the receiver and the trees it references unchanged,
// so a checkpoint writer can read an older State while training moves on.
package trainstate

import (
	"errors"
	"fmt"
	"math/rand"
	"reflect"

	"github.com/born-ml/trainstate/internal/nn"
	"github.com/born-ml/trainstate/internal/optim"
	"github.com/born-ml/trainstate/internal/pytree"
	"github.com/born-ml/trainstate/internal/tensor"
	"github.com/born-ml/trainstate/internal/treefmt"
)

// RecordName is the record name of the tree returned by Traversable.
const RecordName = "TrainState"

// Traversable field names.
const (
	FieldStep      = "step"
	FieldParams    = "params"
	FieldOptState  = "opt_state"
	FieldEMAParams = "ema_params"
)

// ErrInvalidState is wrapped by every Validate failure.
var ErrInvalidState = errors.New("invalid train state")

// State is an immutable training-state record.
//
// Constructing a State literal performs no validation; New and Create do.
type State struct {
	Step      int64                        // Completed optimizer steps
	Params    pytree.Node                  // Model parameters
	Structure nn.Structure                 // Model topology (static)
	OptState  pytree.Node                  // Optimizer state
	Tx        optim.GradientTransformation // Update rule (static)
	EMADecay  *float64                     // EMA decay in (0, 1]; nil disables EMA (static)
	EMAParams pytree.Node                  // EMA of Params; nil until first computed
}

// Option configures New and Create.
type Option func(*options)

type options struct {
	emaDecay *float64
	step     int64
}

// WithEMADecay enables EMA tracking of the parameters with the given decay.
func WithEMADecay(decay float64) Option {
	return func(o *options) {
		o.emaDecay = &decay
	}
}

// WithInitialStep starts the state at step instead of 0.
func WithInitialStep(step int64) Option {
	return func(o *options) {
		o.step = step
	}
}

// New builds a State from existing parameters, initializing the optimizer
// state with tx.Init. The result is validated.
func New(structure nn.Structure, params pytree.Node, tx optim.GradientTransformation, opts ...Option) (State, error) {
	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if tx == nil {
		return State{}, fmt.Errorf("%w: nil gradient transformation", ErrInvalidState)
	}

	optState, err := tx.Init(params)
	if err != nil {
		return State{}, fmt.Errorf("init optimizer state: %w", err)
	}

	s := State{
		Step:      o.step,
		Params:    params,
		Structure: structure,
		OptState:  optState,
		Tx:        tx,
		EMADecay:  o.emaDecay,
	}
	if err := s.Validate(); err != nil {
		return State{}, err
	}
	return s, nil
}

// Create initializes parameters from structure and then calls New.
func Create(structure nn.Structure, tx optim.GradientTransformation, rng *rand.Rand, opts ...Option) (State, error) {
	if structure == nil {
		return State{}, fmt.Errorf("%w: nil structure", ErrInvalidState)
	}
	params, err := structure.Init(rng)
	if err != nil {
		return State{}, fmt.Errorf("init params: %w", err)
	}
	return New(structure, params, tx, opts...)
}

// WithStep returns a copy of s with Step replaced.
func (s State) WithStep(step int64) State {
	s.Step = step
	return s
}

// WithParams returns a copy of s with Params replaced.
func (s State) WithParams(params pytree.Node) State {
	s.Params = params
	return s
}

// WithOptState returns a copy of s with OptState replaced.
func (s State) WithOptState(optState pytree.Node) State {
	s.OptState = optState
	return s
}

// WithEMAParams returns a copy of s with EMAParams replaced.
func (s State) WithEMAParams(emaParams pytree.Node) State {
	s.EMAParams = emaParams
	return s
}

// HasEMA reports whether EMA tracking is enabled.
func (s State) HasEMA() bool {
	return s.EMADecay != nil
}

// ApplyGradients performs one optimizer step and returns the new State:
// Step+1, Params updated by Tx, new OptState and, when EMA is enabled, the
// updated EMAParams. grads must have the structure of Params.
func (s State) ApplyGradients(grads pytree.Node) (State, error) {
	if s.Tx == nil {
		return State{}, fmt.Errorf("%w: nil gradient transformation", ErrInvalidState)
	}

	updates, optState, err := s.Tx.Update(grads, s.OptState, s.Params)
	if err != nil {
		return State{}, fmt.Errorf("step %d: %w", s.Step, err)
	}
	params, err := optim.ApplyUpdates(s.Params, updates)
	if err != nil {
		return State{}, fmt.Errorf("step %d: %w", s.Step, err)
	}

	next := s
	next.Step = s.Step + 1
	next.Params = params
	next.OptState = optState

	if s.EMADecay != nil {
		ema, err := UpdateEMA(*s.EMADecay, s.EMAParams, params)
		if err != nil {
			return State{}, fmt.Errorf("step %d: %w", s.Step, err)
		}
		next.EMAParams = ema
	}
	return next, nil
}

// Traversable returns the numeric part of the state as a TrainState record
// with fields step, params, opt_state and, when present, ema_params.
// Tx and EMADecay are never included.
func (s State) Traversable() *pytree.Record {
	r := pytree.NewRecord(RecordName).
		Set(FieldStep, pytree.Leaf{Value: tensor.Scalar(s.Step)}).
		Set(FieldParams, s.Params).
		Set(FieldOptState, s.OptState)
	if s.EMAParams != nil {
		r.Set(FieldEMAParams, s.EMAParams)
	}
	return r
}

// Summary renders the traversable state, one "<path>: <shape>@<dtype>" line
// per array.
func (s State) Summary() (string, error) {
	return treefmt.RenderArrays(s.Traversable())
}

// Validate checks the consistency the constructing code is responsible for:
//   - Step is non-negative
//   - EMADecay, when set, is in (0, 1]
//   - Params matches Structure's declared shapes (when Structure is set)
//   - EMAParams, when present, has the structure of Params
//   - every OptState leaf is an array
func (s State) Validate() error {
	if s.Step < 0 {
		return fmt.Errorf("%w: negative step %d", ErrInvalidState, s.Step)
	}
	if s.EMADecay != nil {
		if d := *s.EMADecay; !(d > 0 && d <= 1) {
			return fmt.Errorf("%w: ema decay %v outside (0, 1]", ErrInvalidState, d)
		}
	}
	if s.Structure != nil {
		if err := nn.CheckParams(s.Structure, s.Params); err != nil {
			return fmt.Errorf("%w: params: %w", ErrInvalidState, err)
		}
	}
	if s.EMAParams != nil {
		if err := pytree.SameStructure(s.Params, s.EMAParams); err != nil {
			return fmt.Errorf("%w: ema params: %w", ErrInvalidState, err)
		}
	}
	err := pytree.Walk(s.OptState, func(path pytree.KeyPath, v any) error {
		if _, ok := v.(tensor.Array); !ok {
			return &pytree.PathError{Path: path, Err: fmt.Errorf("leaf is %T, want an array", v)}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: opt state: %w", ErrInvalidState, err)
	}
	return nil
}

// Equal reports whether two states hold equal numeric state (tensor bytes
// compared) and the same static configuration. Tx and Structure are compared
// with ==; values of non-comparable types are never equal.
func (s State) Equal(other State) bool {
	if !sameStatic(s.Tx, other.Tx) || !sameStatic(s.Structure, other.Structure) {
		return false
	}
	if (s.EMADecay == nil) != (other.EMADecay == nil) {
		return false
	}
	if s.EMADecay != nil && *s.EMADecay != *other.EMADecay {
		return false
	}
	return pytree.Equal(s.Traversable(), other.Traversable(), leafEqual)
}

func sameStatic(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if ta, tb := reflect.TypeOf(a), reflect.TypeOf(b); ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

func leafEqual(a, b any) bool {
	ra, okA := a.(*tensor.RawTensor)
	rb, okB := b.(*tensor.RawTensor)
	if okA && okB {
		return ra.Equal(rb)
	}
	if okA != okB {
		return false
	}
	return reflect.DeepEqual(a, b)
}
