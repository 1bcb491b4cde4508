package tensor

import (
	"fmt"
	"math"
	"math/rand"
)

// Zeros creates a tensor filled with zeros.
// Panics on an invalid shape.
//
// Example:
//
//	t := tensor.Zeros(tensor.Shape{3, 4}, tensor.Float32)
func Zeros(shape Shape, dtype DataType) *RawTensor {
	raw, err := NewRaw(shape, dtype)
	if err != nil {
		panic(err)
	}
	return raw
}

// ZerosLike creates a zero tensor with the shape and dtype of a.
func ZerosLike(a Array) *RawTensor {
	return Zeros(a.Shape(), a.DType())
}

// FromSlice creates a tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice[T DType](data []T, shape Shape) (*RawTensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}

	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy))
	if err != nil {
		return nil, err
	}

	switch d := any(data).(type) {
	case []float32:
		copy(raw.AsFloat32(), d)
	case []float64:
		copy(raw.AsFloat64(), d)
	case []int32:
		copy(raw.AsInt32(), d)
	case []int64:
		copy(raw.AsInt64(), d)
	case []uint8:
		copy(raw.AsUint8(), d)
	case []bool:
		copy(raw.AsBool(), d)
	}
	return raw, nil
}

// Scalar creates a 0-D tensor holding v.
func Scalar[T DType](v T) *RawTensor {
	raw, err := FromSlice([]T{v}, Shape{})
	if err != nil {
		panic(err)
	}
	return raw
}

// Full creates a float32 tensor filled with a specific value.
func Full(shape Shape, value float32) *RawTensor {
	t := Zeros(shape, Float32)
	data := t.AsFloat32()
	for i := range data {
		data[i] = value
	}
	return t
}

// Xavier creates a float32 tensor drawn from the Glorot uniform distribution
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out))).
func Xavier(fanIn, fanOut int, shape Shape, rng *rand.Rand) *RawTensor {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))

	t := Zeros(shape, Float32)
	data := t.AsFloat32()
	for i := range data {
		data[i] = float32((rng.Float64()*2.0 - 1.0) * bound)
	}
	return t
}

// Randn creates a float32 tensor with values from N(0, 1).
// Uses Box-Muller transform.
func Randn(shape Shape, rng *rand.Rand) *RawTensor {
	t := Zeros(shape, Float32)
	data := t.AsFloat32()
	for i := 0; i < len(data); i += 2 {
		u1 := 1.0 - rng.Float64()
		u2 := rng.Float64()
		z0 := math.Sqrt(-2.0*math.Log(u1)) * math.Cos(2.0*math.Pi*u2)
		z1 := math.Sqrt(-2.0*math.Log(u1)) * math.Sin(2.0*math.Pi*u2)
		data[i] = float32(z0)
		if i+1 < len(data) {
			data[i+1] = float32(z1)
		}
	}
	return t
}
