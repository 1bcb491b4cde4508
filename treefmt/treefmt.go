// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package treefmt

import (
	"github.com/born-ml/trainstate/internal/pytree"
	"github.com/born-ml/trainstate/internal/treefmt"
)

// ErrNotArray is returned by ArrayFormatter for leaves without shape and dtype.
var ErrNotArray = treefmt.ErrNotArray

// LeafFormatter turns one leaf into text.
type LeafFormatter = treefmt.LeafFormatter

// Filter is a compiled leaf selection expression.
type Filter = treefmt.Filter

// DefaultFormatter formats a leaf with fmt.Sprint.
func DefaultFormatter(value any) (string, error) {
	return treefmt.DefaultFormatter(value)
}

// ArrayFormatter formats an array leaf as "<shape>@<dtype>", e.g. "(2, 3)@float32".
func ArrayFormatter(value any) (string, error) {
	return treefmt.ArrayFormatter(value)
}

// Render renders one line per leaf using format (DefaultFormatter when nil).
func Render(tree pytree.Node, format LeafFormatter) (string, error) {
	return treefmt.Render(tree, format)
}

// RenderArrays renders the shape and dtype of every array leaf.
func RenderArrays(tree pytree.Node) (string, error) {
	return treefmt.RenderArrays(tree)
}

// RenderFiltered renders only the leaves matched by filter.
func RenderFiltered(tree pytree.Node, format LeafFormatter, filter *Filter) (string, error) {
	return treefmt.RenderFiltered(tree, format, filter)
}

// CompileFilter compiles a boolean expression over the leaf variables
// path, depth, shape, dtype and size.
func CompileFilter(expression string) (*Filter, error) {
	return treefmt.CompileFilter(expression)
}
