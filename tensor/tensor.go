// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"math/rand"

	"github.com/born-ml/trainstate/internal/tensor"
)

// DType is the constraint satisfied by supported element types.
type DType = tensor.DType

// DataType identifies the element type of a tensor.
type DataType = tensor.DataType

// Supported data types.
const (
	Float32 = tensor.Float32
	Float64 = tensor.Float64
	Int32   = tensor.Int32
	Int64   = tensor.Int64
	Uint8   = tensor.Uint8
	Bool    = tensor.Bool
)

// Shape represents the dimensions of a tensor.
type Shape = tensor.Shape

// Array is any leaf with a shape and a data type.
type Array = tensor.Array

// RawTensor is the dense tensor representation.
//
// Example:
//
//	raw, _ := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32)
//	data := raw.AsFloat32() // Type-safe access
//	clone := raw.Clone()    // Deep copy
type RawTensor = tensor.RawTensor

// ParseDataType is the inverse of DataType.String.
func ParseDataType(s string) (DataType, error) {
	return tensor.ParseDataType(s)
}

// NewRaw creates a zero-filled tensor.
func NewRaw(shape Shape, dtype DataType) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype)
}

// NewRawFromBytes creates a tensor holding a copy of data.
func NewRawFromBytes(shape Shape, dtype DataType, data []byte) (*RawTensor, error) {
	return tensor.NewRawFromBytes(shape, dtype, data)
}

// Zeros creates a zero-filled tensor. It panics on an invalid shape.
func Zeros(shape Shape, dtype DataType) *RawTensor {
	return tensor.Zeros(shape, dtype)
}

// ZerosLike creates a zero-filled tensor with the shape and type of a.
func ZerosLike(a Array) *RawTensor {
	return tensor.ZerosLike(a)
}

// FromSlice creates a tensor from a copy of data.
func FromSlice[T DType](data []T, shape Shape) (*RawTensor, error) {
	return tensor.FromSlice(data, shape)
}

// Scalar creates a 0-dimensional tensor.
func Scalar[T DType](v T) *RawTensor {
	return tensor.Scalar(v)
}

// Full creates a float32 tensor filled with value.
func Full(shape Shape, value float32) *RawTensor {
	return tensor.Full(shape, value)
}

// Xavier creates a float32 tensor with Xavier/Glorot uniform initialization.
func Xavier(fanIn, fanOut int, shape Shape, rng *rand.Rand) *RawTensor {
	return tensor.Xavier(fanIn, fanOut, shape, rng)
}

// Randn creates a float32 tensor with standard normal values.
func Randn(shape Shape, rng *rand.Rand) *RawTensor {
	return tensor.Randn(shape, rng)
}
