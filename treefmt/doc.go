// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package treefmt renders trees as text for training logs.
//
// Every leaf becomes one line "<path>: <formatted leaf>", in depth-first
// declared order, joined by newlines with no trailing newline:
//
//	out, err := treefmt.RenderArrays(state)
//	// step: ()@int64
//	// params.weight: (2, 3)@float32
//	// params.bias: (2,)@float32
//
// Rendering is all or nothing: if the formatter fails on any leaf, no text is
// returned and the error carries the leaf's path.
//
// Filters written in the expr language select leaves by path, depth, shape,
// dtype or size:
//
//	f, err := treefmt.CompileFilter(`path startsWith "params." && size > 10`)
package treefmt
