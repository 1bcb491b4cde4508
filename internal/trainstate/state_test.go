package trainstate_test

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/born-ml/trainstate/internal/nn"
	"github.com/born-ml/trainstate/internal/optim"
	"github.com/born-ml/trainstate/internal/pytree"
	"github.com/born-ml/trainstate/internal/tensor"
	"github.com/born-ml/trainstate/internal/trainstate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRNG() *rand.Rand {
	return rand.New(rand.NewSource(11)) //nolint:gosec // deterministic test data
}

func newState(t *testing.T, opts ...trainstate.Option) trainstate.State {
	t.Helper()
	s, err := trainstate.Create(nn.NewLinear(3, 2), optim.NewAdam(optim.AdamConfig{LR: 0.01}), newRNG(), opts...)
	require.NoError(t, err)
	return s
}

func onesLike(t *testing.T, tree pytree.Node) pytree.Node {
	t.Helper()
	out, err := pytree.Map(tree, func(_ pytree.KeyPath, v any) (any, error) {
		return tensor.Full(v.(*tensor.RawTensor).Shape(), 1), nil
	})
	require.NoError(t, err)
	return out
}

func TestCreate_InitialState(t *testing.T) {
	s := newState(t)

	assert.Equal(t, int64(0), s.Step)
	assert.Nil(t, s.EMAParams)
	assert.False(t, s.HasEMA())
	require.NoError(t, s.Validate())

	summary, err := s.Summary()
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"step: ()@int64",
		"params.weight: (2, 3)@float32",
		"params.bias: (2,)@float32",
		"opt_state.count: ()@int64",
		"opt_state.mu.weight: (2, 3)@float32",
		"opt_state.mu.bias: (2,)@float32",
		"opt_state.nu.weight: (2, 3)@float32",
		"opt_state.nu.bias: (2,)@float32",
	}, "\n"), summary)
}

func TestEqual_SameFields(t *testing.T) {
	a := newState(t)
	b := trainstate.State{
		Step:      a.Step,
		Params:    a.Params,
		Structure: a.Structure,
		OptState:  a.OptState,
		Tx:        a.Tx,
	}
	assert.True(t, a.Equal(b))

	// Independently built from the same seed: equal numbers, distinct trees.
	c, err := trainstate.Create(nn.NewLinear(3, 2), a.Tx, newRNG())
	require.NoError(t, err)
	assert.True(t, a.Equal(c))

	assert.False(t, a.Equal(a.WithStep(1)))
	assert.False(t, a.Equal(trainstate.State{Step: a.Step, Params: a.Params, Structure: a.Structure, OptState: a.OptState}))
}

func TestWithStep_CopyOnWrite(t *testing.T) {
	old := newState(t)
	oldSummary, _ := old.Summary()

	next := old.WithStep(5)

	assert.Equal(t, int64(5), next.Step)
	assert.Equal(t, int64(0), old.Step)
	assert.Same(t, old.Params, next.Params)
	assert.Same(t, old.OptState, next.OptState)
	assert.Equal(t, old.Structure, next.Structure)

	summary, _ := old.Summary()
	assert.Equal(t, oldSummary, summary)
}

func TestApplyGradients_StepsFunctionally(t *testing.T) {
	old := newState(t)
	oldParams, err := pytree.Map(old.Params, func(_ pytree.KeyPath, v any) (any, error) {
		return v.(*tensor.RawTensor).Clone(), nil
	})
	require.NoError(t, err)

	next, err := old.ApplyGradients(onesLike(t, old.Params))
	require.NoError(t, err)

	assert.Equal(t, int64(1), next.Step)
	assert.Equal(t, int64(0), old.Step)
	require.NoError(t, next.Validate())

	// Old params untouched; new params moved against the gradient.
	assert.True(t, pytree.Equal(old.Params, oldParams, func(a, b any) bool {
		return a.(*tensor.RawTensor).Equal(b.(*tensor.RawTensor))
	}))
	_, err = pytree.Map2(old.Params, next.Params, func(p pytree.KeyPath, a, b any) (any, error) {
		before, after := a.(*tensor.RawTensor).AsFloat32(), b.(*tensor.RawTensor).AsFloat32()
		for i := range before {
			assert.Less(t, after[i], before[i], "%s[%d]", p, i)
		}
		return nil, nil
	})
	require.NoError(t, err)
	assert.Nil(t, next.EMAParams, "EMA disabled")
}

func TestApplyGradients_EMA(t *testing.T) {
	s := newState(t, trainstate.WithEMADecay(0.5))
	require.True(t, s.HasEMA())
	assert.Nil(t, s.EMAParams, "ema params absent until first update")

	s1, err := s.ApplyGradients(onesLike(t, s.Params))
	require.NoError(t, err)
	require.NotNil(t, s1.EMAParams)
	require.NoError(t, pytree.SameStructure(s1.Params, s1.EMAParams))
	assert.True(t, pytree.Equal(s1.Params, s1.EMAParams, func(a, b any) bool {
		return a.(*tensor.RawTensor).Equal(b.(*tensor.RawTensor))
	}), "first update seeds ema with params")

	s2, err := s1.ApplyGradients(onesLike(t, s1.Params))
	require.NoError(t, err)
	ema := pytree.Leaves(s2.EMAParams)[0].(*tensor.RawTensor).AsFloat32()
	prev := pytree.Leaves(s1.EMAParams)[0].(*tensor.RawTensor).AsFloat32()
	cur := pytree.Leaves(s2.Params)[0].(*tensor.RawTensor).AsFloat32()
	for i := range ema {
		assert.InDelta(t, 0.5*prev[i]+0.5*cur[i], ema[i], 1e-6)
	}

	summary, err := s2.Summary()
	require.NoError(t, err)
	assert.Contains(t, summary, "ema_params.weight: (2, 3)@float32")
}

func TestApplyGradients_BadGrads(t *testing.T) {
	s := newState(t)
	_, err := s.ApplyGradients(pytree.NewDict())
	require.ErrorIs(t, err, pytree.ErrStructureMismatch)
}

func TestValidate(t *testing.T) {
	s := newState(t)
	bad := 1.5
	zero := 0.0

	tests := []struct {
		name  string
		state trainstate.State
	}{
		{"negative step", s.WithStep(-1)},
		{"decay above one", func() trainstate.State { c := s; c.EMADecay = &bad; return c }()},
		{"decay zero", func() trainstate.State { c := s; c.EMADecay = &zero; return c }()},
		{"params shape", s.WithParams(pytree.NewDict().Set("weight", pytree.Leaf{Value: tensor.Zeros(tensor.Shape{3, 2}, tensor.Float32)}))},
		{"ema structure", s.WithEMAParams(pytree.NewDict())},
		{"opt state leaf", s.WithOptState(pytree.NewRecord("AdamState").Set("count", pytree.Leaf{Value: 3}))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.state.Validate(), trainstate.ErrInvalidState)
		})
	}

	one := 1.0
	ok := s
	ok.EMADecay = &one
	require.NoError(t, ok.Validate())
}

func TestNew_Errors(t *testing.T) {
	l := nn.NewLinear(2, 2)
	params, err := l.Init(newRNG())
	require.NoError(t, err)

	_, err = trainstate.New(l, params, nil)
	require.ErrorIs(t, err, trainstate.ErrInvalidState)

	_, err = trainstate.New(l, params, optim.NewSGD(optim.SGDConfig{}), trainstate.WithEMADecay(2))
	require.ErrorIs(t, err, trainstate.ErrInvalidState)

	_, err = trainstate.Create(nil, optim.NewSGD(optim.SGDConfig{}), newRNG())
	require.ErrorIs(t, err, trainstate.ErrInvalidState)

	s, err := trainstate.New(l, params, optim.NewSGD(optim.SGDConfig{}), trainstate.WithInitialStep(100))
	require.NoError(t, err)
	assert.Equal(t, int64(100), s.Step)
}

func TestTraversable_ExcludesStaticConfig(t *testing.T) {
	s := newState(t, trainstate.WithEMADecay(0.9))
	r := s.Traversable()
	assert.Equal(t, []string{"step", "params", "opt_state"}, r.Fields())

	s1, err := s.ApplyGradients(onesLike(t, s.Params))
	require.NoError(t, err)
	assert.Equal(t, []string{"step", "params", "opt_state", "ema_params"}, s1.Traversable().Fields())

	for _, leaf := range pytree.Leaves(s1.Traversable()) {
		_, isArray := leaf.(tensor.Array)
		assert.True(t, isArray, "only numeric arrays are traversed, got %T", leaf)
	}
}
