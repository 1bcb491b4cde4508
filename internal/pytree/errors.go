package pytree

import (
	"errors"
	"fmt"
)

// ErrStructureMismatch is returned when two trees do not share structure.
var ErrStructureMismatch = errors.New("tree structure mismatch")

// PathError records the tree path at which an operation failed.
type PathError struct {
	Path KeyPath
	Err  error
}

// Error implements the error interface.
func (e *PathError) Error() string {
	p := e.Path.String()
	if p == "" {
		p = "<root>"
	}
	return fmt.Sprintf("%s: %v", p, e.Err)
}

// Unwrap returns the underlying error.
func (e *PathError) Unwrap() error {
	return e.Err
}

func mismatch(path KeyPath, format string, args ...any) error {
	return &PathError{Path: path, Err: fmt.Errorf("%w: %s", ErrStructureMismatch, fmt.Sprintf(format, args...))}
}
