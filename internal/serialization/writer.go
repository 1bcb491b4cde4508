package serialization

import (
	"bufio"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/born-ml/trainstate/internal/pytree"
	"github.com/born-ml/trainstate/internal/tensor"
)

// Writer writes trees of tensors in .born format.
type Writer struct {
	file   *os.File
	buf    *bufio.Writer
	closed bool
}

// NewWriter creates a new .born file writer.
func NewWriter(path string) (*Writer, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for checkpoint saving
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	return &Writer{
		file: file,
		buf:  bufio.NewWriter(file),
	}, nil
}

// WriteTree writes tree with the given header. Layout fields of header
// (FormatVersion, Tensors) are filled in here; CreatedAt and RunID are
// filled when zero.
func (w *Writer) WriteTree(tree pytree.Node, header Header) error {
	if w.closed {
		return fmt.Errorf("writer is closed")
	}
	if err := WriteTo(w.buf, tree, header); err != nil {
		return err
	}
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	return nil
}

// Close closes the writer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}

// Save writes tree to path in .born format.
func Save(path string, tree pytree.Node, header Header) error {
	w, err := NewWriter(path)
	if err != nil {
		return err
	}
	if err := w.WriteTree(tree, header); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// WriteTo writes tree to an io.Writer in .born format.
// Every leaf must be a *tensor.RawTensor; tensors are stored in traversal order.
func WriteTo(writer io.Writer, tree pytree.Node, header Header) error {
	header.FormatVersion = FormatVersion
	if header.CreatedAt.IsZero() {
		header.CreatedAt = time.Now().UTC()
	}
	if header.RunID == "" {
		header.RunID = uuid.NewString()
	}

	leaves := pytree.FlattenWithPath(tree)
	if len(leaves) > MaxTensorCount {
		return fmt.Errorf("%w: %d tensors, max %d", ErrTooManyTensors, len(leaves), MaxTensorCount)
	}

	// Calculate tensor offsets and collect tensor data
	header.Tensors = make([]TensorMeta, 0, len(leaves))
	raws := make([]*tensor.RawTensor, 0, len(leaves))
	seen := make(map[string]struct{}, len(leaves))
	var currentOffset int64

	for _, leaf := range leaves {
		path := leaf.Path.String()
		raw, ok := leaf.Value.(*tensor.RawTensor)
		if !ok || raw == nil {
			return &pytree.PathError{Path: leaf.Path, Err: fmt.Errorf("cannot serialize leaf of type %T", leaf.Value)}
		}
		if err := ValidateTensorPath(path); err != nil {
			return err
		}
		if _, dup := seen[path]; dup {
			return &ValidationError{Type: "duplicate_path", Tensor: path, Details: "two leaves render to the same path", Err: ErrInvalidTensorName}
		}
		seen[path] = struct{}{}

		size := int64(raw.ByteSize())
		header.Tensors = append(header.Tensors, TensorMeta{
			Path:   path,
			DType:  raw.DType().String(),
			Shape:  []int(raw.Shape().Clone()),
			Offset: currentOffset,
			Size:   size,
		})
		raws = append(raws, raw)
		currentOffset += size
	}

	tensorData := make([]byte, 0, currentOffset)
	for _, raw := range raws {
		tensorData = append(tensorData, raw.Data()...)
	}
	checksum := sha256.Sum256(tensorData)

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}
	if len(headerJSON) > MaxHeaderSize {
		return fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, len(headerJSON))
	}

	// 0x00 magic, 0x04 version, 0x08 flags, 0x0C reserved,
	// 0x10 header size, 0x18 data size, 0x20 checksum.
	fixedHeader := make([]byte, FixedHeaderSize)
	copy(fixedHeader[0:4], MagicBytes)
	binary.LittleEndian.PutUint32(fixedHeader[4:8], uint32(FormatVersion))
	binary.LittleEndian.PutUint32(fixedHeader[8:12], header.Flags())
	binary.LittleEndian.PutUint64(fixedHeader[headerSizeOffset:headerSizeOffset+8], uint64(len(headerJSON)))
	binary.LittleEndian.PutUint64(fixedHeader[dataSizeOffset:dataSizeOffset+8], uint64(len(tensorData)))
	copy(fixedHeader[ChecksumOffset:ChecksumOffset+ChecksumSize], checksum[:])

	if _, err := writer.Write(fixedHeader); err != nil {
		return fmt.Errorf("failed to write fixed header: %w", err)
	}
	if _, err := writer.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header JSON: %w", err)
	}

	//nolint:gosec // G115: header size is bounded by MaxHeaderSize
	padding := dataOffset(int64(len(headerJSON))) - int64(FixedHeaderSize) - int64(len(headerJSON))
	if padding > 0 {
		if _, err := writer.Write(make([]byte, padding)); err != nil {
			return fmt.Errorf("failed to write padding: %w", err)
		}
	}

	if _, err := writer.Write(tensorData); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}
	return nil
}
