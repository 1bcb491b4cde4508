package serialization

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/born-ml/trainstate/internal/tensor"
)

// Validation limits for resource protection.
const (
	MaxHeaderSize    = 100 * 1024 * 1024 // 100MB - maximum header size
	MaxTensorCount   = 100_000           // Maximum number of tensors in a file
	MaxTensorNameLen = 4096              // Maximum tensor path length
)

// ValidationLevel controls the strictness of validation.
type ValidationLevel int

const (
	// ValidationStrict performs all validation checks (default).
	ValidationStrict ValidationLevel = iota
	// ValidationNormal skips the offset overlap scan.
	ValidationNormal
	// ValidationNone skips validation. Use only with trusted input.
	ValidationNone
)

// ValidateTensorOffsets checks for overlapping tensor offsets and out-of-bounds access.
func ValidateTensorOffsets(tensors []TensorMeta, dataSize int64) error {
	if len(tensors) > MaxTensorCount {
		return &ValidationError{
			Type:    "too_many_tensors",
			Details: fmt.Sprintf("got %d, max %d", len(tensors), MaxTensorCount),
			Err:     ErrTooManyTensors,
		}
	}

	sorted := make([]TensorMeta, len(tensors))
	copy(sorted, tensors)
	// Empty tensors share their offset with the next stored tensor.
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Offset != sorted[j].Offset {
			return sorted[i].Offset < sorted[j].Offset
		}
		return sorted[i].Size < sorted[j].Size
	})

	for i, t := range sorted {
		if t.Offset < 0 || t.Size < 0 {
			return &ValidationError{
				Type:    "negative_offset",
				Tensor:  t.Path,
				Details: fmt.Sprintf("offset=%d, size=%d (negative values not allowed)", t.Offset, t.Size),
				Err:     ErrNegativeOffset,
			}
		}

		if t.Offset > dataSize-t.Size {
			return &ValidationError{
				Type:    "out_of_bounds",
				Tensor:  t.Path,
				Details: fmt.Sprintf("offset %d + size %d > data_size %d", t.Offset, t.Size, dataSize),
				Err:     ErrOutOfBounds,
			}
		}

		if i < len(sorted)-1 {
			next := sorted[i+1]
			if t.Size > next.Offset-t.Offset {
				return &ValidationError{
					Type:    "offset_overlap",
					Tensor:  t.Path,
					Tensor2: next.Path,
					Details: fmt.Sprintf("regions [%d-%d] and [%d-%d] overlap",
						t.Offset, t.Offset+t.Size, next.Offset, next.Offset+next.Size),
					Err: ErrOffsetOverlap,
				}
			}
		}
	}

	return nil
}

// ValidateTensorPath rejects over-long paths and paths carrying bytes that
// never appear in a canonical tree path.
func ValidateTensorPath(path string) error {
	if len(path) > MaxTensorNameLen {
		return &ValidationError{
			Type:    "name_too_long",
			Tensor:  path,
			Details: fmt.Sprintf("length %d > max %d", len(path), MaxTensorNameLen),
			Err:     ErrTensorNameTooLong,
		}
	}

	if strings.Contains(path, "..") {
		return &ValidationError{
			Type:    "invalid_name",
			Tensor:  path,
			Details: "contains '..'",
			Err:     ErrInvalidTensorName,
		}
	}

	if strings.ContainsAny(path, "/\\") {
		return &ValidationError{
			Type:    "invalid_name",
			Tensor:  path,
			Details: "contains path separator (/ or \\)",
			Err:     ErrInvalidTensorName,
		}
	}

	if strings.Contains(path, "\x00") {
		return &ValidationError{
			Type:    "invalid_name",
			Tensor:  path,
			Details: "contains null byte",
			Err:     ErrInvalidTensorName,
		}
	}

	return nil
}

// validateTensorMeta checks that the declared size agrees with dtype and shape.
func validateTensorMeta(t TensorMeta) error {
	dtype, err := tensor.ParseDataType(t.DType)
	if err != nil {
		return &ValidationError{Type: "invalid_dtype", Tensor: t.Path, Details: err.Error(), Err: ErrTensorMismatch}
	}
	shape := tensor.Shape(t.Shape)
	want, err := shape.NumBytes(dtype.Size())
	if err != nil {
		return &ValidationError{Type: "invalid_shape", Tensor: t.Path, Details: err.Error(), Err: ErrTensorMismatch}
	}
	if int64(want) != t.Size {
		return &ValidationError{
			Type:    "size_mismatch",
			Tensor:  t.Path,
			Details: fmt.Sprintf("shape %v of %s needs %d bytes, header says %d", shape, dtype, want, t.Size),
			Err:     ErrTensorMismatch,
		}
	}
	return nil
}

// ValidateHeader performs header validation at the given level.
func ValidateHeader(h *Header, dataSize int64, level ValidationLevel) error {
	if level == ValidationNone {
		return nil
	}

	if len(h.Tensors) > MaxTensorCount {
		return &ValidationError{
			Type:    "too_many_tensors",
			Details: fmt.Sprintf("got %d, max %d", len(h.Tensors), MaxTensorCount),
			Err:     ErrTooManyTensors,
		}
	}

	if h.RunID != "" {
		if _, err := uuid.Parse(h.RunID); err != nil {
			return &ValidationError{Type: "invalid_run_id", Details: err.Error(), Err: ErrInvalidRunID}
		}
	}

	seen := make(map[string]struct{}, len(h.Tensors))
	for _, t := range h.Tensors {
		if err := ValidateTensorPath(t.Path); err != nil {
			return err
		}
		if _, dup := seen[t.Path]; dup {
			return &ValidationError{Type: "duplicate_path", Tensor: t.Path, Details: "stored twice", Err: ErrInvalidTensorName}
		}
		seen[t.Path] = struct{}{}
		if err := validateTensorMeta(t); err != nil {
			return err
		}
	}

	if level == ValidationStrict {
		if err := ValidateTensorOffsets(h.Tensors, dataSize); err != nil {
			return err
		}
	}

	return nil
}
