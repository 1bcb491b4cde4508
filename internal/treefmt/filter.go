package treefmt

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/born-ml/trainstate/internal/pytree"
	"github.com/born-ml/trainstate/internal/tensor"
)

// leafEnv is the environment a filter expression is evaluated against.
type leafEnv struct {
	Path  string `expr:"path"`
	Depth int    `expr:"depth"`
	Shape []int  `expr:"shape"`
	DType string `expr:"dtype"`
	Size  int    `expr:"size"`
}

// Filter selects leaves with a boolean expr-lang expression.
//
// Variables available to the expression:
//   - path:  canonical leaf path, e.g. "params.layers_0.weight"
//   - depth: number of path steps
//   - shape: array dimensions (empty for non-array leaves)
//   - dtype: array element type, e.g. "float32" ("" for non-array leaves)
//   - size:  number of array elements (0 for non-array leaves)
//
// Example:
//
//	f, err := treefmt.CompileFilter(`path startsWith "params." && size > 10`)
type Filter struct {
	source  string
	program *vm.Program
}

// CompileFilter compiles expression once for repeated evaluation.
func CompileFilter(expression string) (*Filter, error) {
	if expression == "" {
		return nil, fmt.Errorf("filter expression must not be empty")
	}
	program, err := expr.Compile(expression, expr.Env(leafEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", expression, err)
	}
	return &Filter{source: expression, program: program}, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	return f.source
}

// Match reports whether the leaf at path passes the filter.
func (f *Filter) Match(path pytree.KeyPath, value any) (bool, error) {
	env := leafEnv{Path: path.String(), Depth: len(path)}
	if a, ok := value.(tensor.Array); ok {
		if raw, isRaw := a.(*tensor.RawTensor); !isRaw || raw != nil {
			env.Shape = []int(a.Shape())
			env.DType = a.DType().String()
			env.Size = a.Shape().NumElements()
		}
	}

	out, err := expr.Run(f.program, env)
	if err != nil {
		return false, fmt.Errorf("evaluate filter %q: %w", f.source, err)
	}
	keep, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("filter %q returned %T, want bool", f.source, out)
	}
	return keep, nil
}
