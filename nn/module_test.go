// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn_test

import (
	"math/rand"
	"testing"

	"github.com/born-ml/trainstate/nn"
	"github.com/born-ml/trainstate/tensor"
)

// TestStructureInterface verifies that concrete types implement Structure.
func TestStructureInterface(t *testing.T) {
	tests := []struct {
		name      string
		structure nn.Structure
		outShape  tensor.Shape
	}{
		{
			name:      "Linear",
			structure: nn.NewLinear(10, 5),
			outShape:  tensor.Shape{2, 5},
		},
		{
			name: "Sequential",
			structure: nn.NewSequential(
				nn.NewLinear(10, 5),
				nn.ReLU{},
				nn.NewLinear(5, 1),
			),
			outShape: tensor.Shape{2, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := rand.New(rand.NewSource(0)) //nolint:gosec // deterministic test data

			params, err := tt.structure.Init(rng)
			if err != nil {
				t.Fatalf("Init: %v", err)
			}
			if err := nn.CheckParams(tt.structure, params); err != nil {
				t.Fatalf("CheckParams: %v", err)
			}

			out, err := tt.structure.Forward(params, tensor.Randn(tensor.Shape{2, 10}, rng))
			if err != nil {
				t.Fatalf("Forward: %v", err)
			}
			if !out.Shape().Equal(tt.outShape) {
				t.Errorf("output shape = %v, want %v", out.Shape(), tt.outShape)
			}
		})
	}
}
