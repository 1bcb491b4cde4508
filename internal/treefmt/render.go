// Package treefmt renders trees into one-line-per-leaf reports for logs.
//
// Each line has the form "<path>: <formatted leaf>", lines are joined with
// "\n" in traversal order, and there is no trailing newline. A tree without
// leaves renders as "". A tree that is a single leaf renders with an empty
// path, e.g. ": 42".
//
// Rendering is all or nothing: if the leaf formatter fails for any leaf the
// traversal stops and only the error is returned.
package treefmt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/born-ml/trainstate/internal/pytree"
	"github.com/born-ml/trainstate/internal/tensor"
)

// ErrNotArray is returned by ArrayFormatter for leaves without shape and dtype.
var ErrNotArray = errors.New("leaf is not an array")

// LeafFormatter converts one leaf value to its display string.
type LeafFormatter func(value any) (string, error)

// DefaultFormatter formats a leaf with fmt.Sprint.
func DefaultFormatter(value any) (string, error) {
	return fmt.Sprint(value), nil
}

// ArrayFormatter formats an array leaf as "<shape>@<dtype>", e.g. "(2, 3)@float32".
func ArrayFormatter(value any) (string, error) {
	a, ok := value.(tensor.Array)
	if !ok {
		return "", fmt.Errorf("%w: got %T", ErrNotArray, value)
	}
	if raw, isRaw := a.(*tensor.RawTensor); isRaw && raw == nil {
		return "", fmt.Errorf("%w: got nil %T", ErrNotArray, value)
	}
	return a.Shape().String() + "@" + a.DType().String(), nil
}

// Render formats every leaf of tree with format. A nil format uses
// DefaultFormatter. Formatter errors are returned wrapped in a
// *pytree.PathError naming the failing leaf.
func Render(tree pytree.Node, format LeafFormatter) (string, error) {
	return render(tree, format, nil)
}

// RenderArrays renders a tree whose leaves are all arrays, reporting the
// shape and element type of each. A non-array leaf fails with ErrNotArray.
func RenderArrays(tree pytree.Node) (string, error) {
	return render(tree, ArrayFormatter, nil)
}

// RenderFiltered is Render restricted to the leaves accepted by filter.
// A nil filter accepts every leaf.
func RenderFiltered(tree pytree.Node, format LeafFormatter, filter *Filter) (string, error) {
	return render(tree, format, filter)
}

func render(tree pytree.Node, format LeafFormatter, filter *Filter) (string, error) {
	if format == nil {
		format = DefaultFormatter
	}

	var lines []string
	err := pytree.Walk(tree, func(path pytree.KeyPath, value any) error {
		if filter != nil {
			keep, err := filter.Match(path, value)
			if err != nil {
				return &pytree.PathError{Path: path, Err: err}
			}
			if !keep {
				return nil
			}
		}

		s, err := format(value)
		if err != nil {
			return &pytree.PathError{Path: path, Err: err}
		}
		lines = append(lines, path.String()+": "+s)
		return nil
	})
	if err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}
