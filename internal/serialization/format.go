package serialization

import (
	"time"
)

// Format constants.
const (
	MagicBytes       = "BORN"
	FormatVersion    = 2    // v2: fixed 64-byte header with SHA-256 checksum
	HeaderAlignment  = 64   // Align tensor data to 64 bytes
	FixedHeaderSize  = 64   // Fixed header size (0x40 bytes)
	ChecksumSize     = 32   // SHA-256 checksum size (32 bytes)
	ChecksumOffset   = 0x20 // Checksum offset in the fixed header
	headerSizeOffset = 0x10
	dataSizeOffset   = 0x18
)

// Flags for the .born format.
const (
	FlagHasOptimizer uint32 = 1 << 1 // bit 1: optimizer state included
	FlagHasMetadata  uint32 = 1 << 2 // bit 2: custom metadata included
	FlagHasEMA       uint32 = 1 << 3 // bit 3: EMA parameters included
)

// Header is the JSON header of a checkpoint file.
type Header struct {
	FormatVersion   int                `json:"format_version"`             // Version of the .born format
	CreatedAt       time.Time          `json:"created_at"`                 // When the file was written
	RunID           string             `json:"run_id"`                     // UUID of the training run
	Step            int64              `json:"step"`                       // Training step number
	Structure       string             `json:"structure,omitempty"`        // Model structure name
	Optimizer       string             `json:"optimizer,omitempty"`        // Optimizer name ("SGD", "Adam")
	OptimizerConfig map[string]float64 `json:"optimizer_config,omitempty"` // Optimizer hyperparameters
	HasOptimizer    bool               `json:"has_optimizer"`              // Optimizer state included
	HasEMA          bool               `json:"has_ema"`                    // EMA parameters included
	Metadata        map[string]string  `json:"metadata,omitempty"`         // Custom metadata
	Tensors         []TensorMeta       `json:"tensors"`                    // Tensor layout, traversal order
}

// TensorMeta describes one stored tensor.
type TensorMeta struct {
	Path   string `json:"path"`   // Canonical tree path (e.g. "params.weight")
	DType  string `json:"dtype"`  // Data type (e.g. "float32")
	Shape  []int  `json:"shape"`  // Tensor shape
	Offset int64  `json:"offset"` // Offset in the data section
	Size   int64  `json:"size"`   // Size in bytes
}

// Flags derives the flag word for h.
func (h *Header) Flags() uint32 {
	var flags uint32
	if h.HasOptimizer {
		flags |= FlagHasOptimizer
	}
	if len(h.Metadata) > 0 {
		flags |= FlagHasMetadata
	}
	if h.HasEMA {
		flags |= FlagHasEMA
	}
	return flags
}

// dataOffset returns where the aligned data section starts.
func dataOffset(headerSize int64) int64 {
	currentPos := int64(FixedHeaderSize) + headerSize
	padding := (HeaderAlignment - (currentPos % HeaderAlignment)) % HeaderAlignment
	return currentPos + padding
}
