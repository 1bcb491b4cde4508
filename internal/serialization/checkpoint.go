package serialization

import (
	"fmt"

	"github.com/born-ml/trainstate/internal/pytree"
	"github.com/born-ml/trainstate/internal/tensor"
	"github.com/born-ml/trainstate/internal/trainstate"
)

// Meta carries caller-supplied checkpoint fields.
type Meta struct {
	RunID    string            // Training run UUID; a new one is generated when empty
	Metadata map[string]string // Free-form key/value pairs
}

// SaveState writes the traversable part of s to path. Tx and EMADecay are
// not stored; only their names and hyperparameters land in the header.
func SaveState(path string, s trainstate.State, meta Meta) error {
	header := Header{
		RunID:    meta.RunID,
		Step:     s.Step,
		HasEMA:   s.EMAParams != nil,
		Metadata: meta.Metadata,
	}
	if s.Structure != nil {
		header.Structure = s.Structure.Name()
	}
	if s.Tx != nil {
		header.Optimizer = s.Tx.Name()
		header.OptimizerConfig = s.Tx.Hyperparams()
	}
	header.HasOptimizer = pytree.NumLeaves(s.OptState) > 0

	if err := Save(path, s.Traversable(), header); err != nil {
		return fmt.Errorf("save state at step %d: %w", s.Step, err)
	}
	return nil
}

// LoadState reads the checkpoint at path into the shape of template.
//
// The template supplies the tree layout and the static fields (Structure,
// Tx, EMADecay); the file supplies Step, Params, OptState and EMAParams.
// When the file holds EMA parameters and the template has none, Params
// serves as their layout.
func LoadState(path string, template trainstate.State) (trainstate.State, error) {
	r, err := Open(path)
	if err != nil {
		return trainstate.State{}, fmt.Errorf("load state: %w", err)
	}
	defer func() { _ = r.Close() }()

	header := r.Header()
	layout := template
	switch {
	case header.HasEMA && layout.EMAParams == nil:
		layout.EMAParams = layout.Params
	case !header.HasEMA:
		layout.EMAParams = nil
	}

	restored, err := r.RestoreTree(layout.Traversable())
	if err != nil {
		return trainstate.State{}, fmt.Errorf("load state: %w", err)
	}
	rec, ok := restored.(*pytree.Record)
	if !ok {
		return trainstate.State{}, fmt.Errorf("load state: restored %T, want a record", restored)
	}

	step, err := stepValue(rec)
	if err != nil {
		return trainstate.State{}, fmt.Errorf("load state: %w", err)
	}
	if step != header.Step {
		return trainstate.State{}, fmt.Errorf("load state: %w: header step %d, stored step %d", ErrTensorMismatch, header.Step, step)
	}

	out := template
	out.Step = step
	out.Params, _ = rec.Field(trainstate.FieldParams)
	out.OptState, _ = rec.Field(trainstate.FieldOptState)
	out.EMAParams, _ = rec.Field(trainstate.FieldEMAParams)
	if err := out.Validate(); err != nil {
		return trainstate.State{}, fmt.Errorf("load state: %w", err)
	}
	return out, nil
}

func stepValue(rec *pytree.Record) (int64, error) {
	n, ok := rec.Field(trainstate.FieldStep)
	if !ok {
		return 0, fmt.Errorf("%w: no step", ErrTensorMismatch)
	}
	leaf, ok := n.(pytree.Leaf)
	if !ok {
		return 0, fmt.Errorf("%w: step is not a leaf", ErrTensorMismatch)
	}
	raw, ok := leaf.Value.(*tensor.RawTensor)
	if !ok || raw.DType() != tensor.Int64 || raw.NumElements() != 1 {
		return 0, fmt.Errorf("%w: step must be an int64 scalar", ErrTensorMismatch)
	}
	return raw.AsInt64()[0], nil
}
