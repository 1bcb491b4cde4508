package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"

	"github.com/born-ml/trainstate/nn"
	"github.com/born-ml/trainstate/optim"
	"github.com/born-ml/trainstate/pytree"
	"github.com/born-ml/trainstate/tensor"
	"github.com/born-ml/trainstate/trainstate"
)

// Ground truth of the synthetic regression problem.
var (
	trueWeight = []float32{2, -3, 0.5}
	trueBias   = float32(1)
)

type demoConfig struct {
	steps    int
	samples  int
	lr       float64
	ema      float64
	seed     int64
	logEvery int
	out      string
}

func runDemo(args []string, stdout io.Writer, logger *slog.Logger) error {
	var cfg demoConfig
	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	fs.SetOutput(stdout)
	fs.IntVar(&cfg.steps, "steps", 200, "Number of optimizer steps")
	fs.IntVar(&cfg.samples, "samples", 256, "Number of synthetic samples")
	fs.Float64Var(&cfg.lr, "lr", 0.05, "Learning rate for Adam")
	fs.Float64Var(&cfg.ema, "ema", 0, "EMA decay in (0, 1]; 0 disables EMA")
	fs.Int64Var(&cfg.seed, "seed", 42, "Random seed")
	fs.IntVar(&cfg.logEvery, "log-every", 20, "Log the loss every N steps (0 = never)")
	fs.StringVar(&cfg.out, "out", "", "Write the final state to this .born file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if cfg.steps < 0 || cfg.samples <= 0 {
		return fmt.Errorf("demo: steps must be >= 0 and samples > 0")
	}

	state, loss, err := trainRegression(cfg, logger)
	if err != nil {
		return err
	}

	weight, bias, err := linearValues(state.Params)
	if err != nil {
		return err
	}
	logger.Info("training finished",
		"step", state.Step,
		"loss", loss,
		"weight", weight,
		"bias", bias,
		"true_weight", trueWeight,
		"true_bias", trueBias,
	)

	summary, err := state.Summary()
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, summary)

	if cfg.out == "" {
		return nil
	}
	meta := trainstate.Meta{Metadata: map[string]string{
		"task": "linear-regression",
		"loss": fmt.Sprintf("%.6g", loss),
		"seed": fmt.Sprint(cfg.seed),
	}}
	if err := trainstate.SaveState(cfg.out, state, meta); err != nil {
		return err
	}
	header, err := trainstate.ReadHeader(cfg.out)
	if err != nil {
		return err
	}
	logger.Info("checkpoint saved", "path", cfg.out, "run_id", header.RunID, "tensors", len(header.Tensors))
	return nil
}

// trainRegression fits a Linear(3->1) model with Adam on noisy samples of
// y = x . trueWeight + trueBias and returns the final state and loss.
func trainRegression(cfg demoConfig, logger *slog.Logger) (trainstate.State, float32, error) {
	rng := rand.New(rand.NewSource(cfg.seed)) //nolint:gosec // reproducible demo data
	x, y, err := syntheticData(rng, cfg.samples)
	if err != nil {
		return trainstate.State{}, 0, err
	}

	model := nn.NewLinear(len(trueWeight), 1)
	tx := optim.NewAdam(optim.AdamConfig{LR: float32(cfg.lr)})
	var opts []trainstate.Option
	if cfg.ema > 0 {
		opts = append(opts, trainstate.WithEMADecay(cfg.ema))
	}
	state, err := trainstate.Create(model, tx, rng, opts...)
	if err != nil {
		return trainstate.State{}, 0, err
	}
	logger.Info("starting training",
		"structure", model.Name(),
		"optimizer", tx.Name(),
		"lr", cfg.lr,
		"ema", cfg.ema,
		"samples", cfg.samples,
		"steps", cfg.steps,
	)

	var loss float32
	for i := 0; i < cfg.steps; i++ {
		pred, err := model.Forward(state.Params, x)
		if err != nil {
			return trainstate.State{}, 0, err
		}
		l, gradOut, err := nn.MSELoss(pred, y)
		if err != nil {
			return trainstate.State{}, 0, err
		}
		grads, err := model.Backward(x, gradOut)
		if err != nil {
			return trainstate.State{}, 0, err
		}
		state, err = state.ApplyGradients(grads)
		if err != nil {
			return trainstate.State{}, 0, err
		}
		loss = l

		if cfg.logEvery > 0 && (state.Step%int64(cfg.logEvery) == 0 || i == cfg.steps-1) {
			logger.Info("step", "step", state.Step, "loss", l)
		}
	}
	return state, loss, nil
}

func syntheticData(rng *rand.Rand, n int) (x, y *tensor.RawTensor, err error) {
	features := len(trueWeight)
	xs := make([]float32, n*features)
	ys := make([]float32, n)
	for i := 0; i < n; i++ {
		target := trueBias
		for j := 0; j < features; j++ {
			v := float32(rng.NormFloat64())
			xs[i*features+j] = v
			target += v * trueWeight[j]
		}
		ys[i] = target + 0.01*float32(rng.NormFloat64())
	}

	x, err = tensor.FromSlice(xs, tensor.Shape{n, features})
	if err != nil {
		return nil, nil, err
	}
	y, err = tensor.FromSlice(ys, tensor.Shape{n, 1})
	if err != nil {
		return nil, nil, err
	}
	return x, y, nil
}

func linearValues(params pytree.Node) (weight []float32, bias float32, err error) {
	d, ok := params.(*pytree.Dict)
	if !ok {
		return nil, 0, fmt.Errorf("params are %T, want a dict", params)
	}
	w, err := dictTensor(d, "weight")
	if err != nil {
		return nil, 0, err
	}
	b, err := dictTensor(d, "bias")
	if err != nil {
		return nil, 0, err
	}
	return w.AsFloat32(), b.AsFloat32()[0], nil
}

func dictTensor(d *pytree.Dict, key string) (*tensor.RawTensor, error) {
	n, ok := d.Get(key)
	if !ok {
		return nil, fmt.Errorf("params have no %q", key)
	}
	leaf, ok := n.(pytree.Leaf)
	if !ok {
		return nil, fmt.Errorf("params.%s is not a leaf", key)
	}
	raw, ok := leaf.Value.(*tensor.RawTensor)
	if !ok {
		return nil, fmt.Errorf("params.%s is %T, want a tensor", key, leaf.Value)
	}
	return raw, nil
}
