package nn

import (
	"fmt"

	"github.com/born-ml/trainstate/internal/tensor"
)

// MSELoss computes Mean Squared Error and its gradient:
//
//	loss = mean((predictions - targets)²)
//	dLoss/dPredictions = 2 * (predictions - targets) / N
func MSELoss(predictions, targets *tensor.RawTensor) (float32, *tensor.RawTensor, error) {
	if !predictions.Shape().Equal(targets.Shape()) {
		return 0, nil, fmt.Errorf("MSELoss: predictions %v and targets %v must have the same shape",
			predictions.Shape(), targets.Shape())
	}
	if predictions.DType() != tensor.Float32 || targets.DType() != tensor.Float32 {
		return 0, nil, fmt.Errorf("MSELoss: float32 inputs required")
	}

	p, y := predictions.AsFloat32(), targets.AsFloat32()
	grad := tensor.Zeros(predictions.Shape(), tensor.Float32)
	g := grad.AsFloat32()
	n := float32(len(p))

	var sum float32
	for i := range p {
		diff := p[i] - y[i]
		sum += diff * diff
		g[i] = 2 * diff / n
	}
	return sum / n, grad, nil
}
