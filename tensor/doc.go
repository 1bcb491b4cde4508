// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the array leaves stored in training-state trees.
//
// # Overview
//
// A RawTensor is a dense, row-major buffer with a Shape and a DataType.
// Trees of parameters, gradients and optimizer state hold RawTensor leaves;
// anything with Shape and DType methods satisfies Array and can be rendered
// by treefmt.RenderArrays.
//
// # Basic Usage
//
//	w, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(w)            // (2, 3)@float32
//	fmt.Println(w.AsFloat32()) // [1 2 3 4 5 6]
//
// # Supported Data Types
//
//   - float32, float64 (floating-point)
//   - int32, int64 (signed integers, e.g. step counters)
//   - uint8 (unsigned integers)
//   - bool (boolean masks)
//
// # Thread Safety
//
// Nothing in this module mutates a tensor after construction, so tensors may
// be shared freely between goroutines. Typed views (AsFloat32, ...) alias the
// buffer; writing through them is the caller's business.
package tensor
