package serialization

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/born-ml/trainstate/internal/pytree"
	"github.com/born-ml/trainstate/internal/tensor"
)

// Reader reads trees of tensors from .born format.
type Reader struct {
	src        io.ReaderAt
	closer     io.Closer
	header     Header
	flags      uint32
	dataOffset int64    // Offset where tensor data starts
	dataSize   int64    // Size of the data section
	checksum   [32]byte // SHA-256 of the data section
	index      map[string]int
	opts       ReaderOptions
	closed     bool
}

// ReaderOptions configures the behavior of Reader.
type ReaderOptions struct {
	SkipChecksumValidation bool            // Skip checksum validation (faster but less safe)
	ValidationLevel        ValidationLevel // Validation strictness level
}

// Open opens a .born file with default options (strict validation).
func Open(path string) (*Reader, error) {
	return OpenWithOptions(path, ReaderOptions{ValidationLevel: ValidationStrict})
}

// OpenWithOptions opens a .born file with custom options.
func OpenWithOptions(path string, opts ReaderOptions) (*Reader, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for checkpoint loading
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	r, err := NewReader(file, info.Size(), opts)
	if err != nil {
		_ = file.Close() // Best effort close on error
		return nil, err
	}
	r.closer = file
	return r, nil
}

// NewReader reads a .born image of the given size from src.
func NewReader(src io.ReaderAt, size int64, opts ReaderOptions) (*Reader, error) {
	r := &Reader{src: src, opts: opts}
	if err := r.parseHeader(size); err != nil {
		return nil, fmt.Errorf("failed to parse header: %w", err)
	}
	if err := ValidateHeader(&r.header, r.dataSize, opts.ValidationLevel); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	if !opts.SkipChecksumValidation {
		if err := r.verifyChecksum(); err != nil {
			return nil, err
		}
	}

	r.index = make(map[string]int, len(r.header.Tensors))
	for i, t := range r.header.Tensors {
		r.index[t.Path] = i
	}
	return r, nil
}

// verifyChecksum streams the data section through SHA-256 and compares the
// digest with the one stored in the fixed header.
func (r *Reader) verifyChecksum() error {
	h := sha256.New()
	if _, err := io.Copy(h, io.NewSectionReader(r.src, r.dataOffset, r.dataSize)); err != nil {
		return fmt.Errorf("failed to read tensor data for checksum: %w", err)
	}
	if !bytes.Equal(h.Sum(nil), r.checksum[:]) {
		return ErrChecksumMismatch
	}
	return nil
}

// parseHeader reads the fixed header and the JSON header.
func (r *Reader) parseHeader(size int64) error {
	if size < FixedHeaderSize {
		return fmt.Errorf("%w: file is %d bytes", ErrInvalidMagic, size)
	}

	fixedHeader := make([]byte, FixedHeaderSize)
	if _, err := r.src.ReadAt(fixedHeader, 0); err != nil {
		return fmt.Errorf("failed to read fixed header: %w", err)
	}

	if string(fixedHeader[0:4]) != MagicBytes {
		return ErrInvalidMagic
	}

	version := binary.LittleEndian.Uint32(fixedHeader[4:8])
	if version != FormatVersion {
		return fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, FormatVersion)
	}

	r.flags = binary.LittleEndian.Uint32(fixedHeader[8:12])
	headerSize := binary.LittleEndian.Uint64(fixedHeader[headerSizeOffset : headerSizeOffset+8])
	dataSize := binary.LittleEndian.Uint64(fixedHeader[dataSizeOffset : dataSizeOffset+8])
	copy(r.checksum[:], fixedHeader[ChecksumOffset:ChecksumOffset+ChecksumSize])

	if headerSize > MaxHeaderSize {
		return ErrHeaderTooLarge
	}

	//nolint:gosec // G115: headerSize is bounded by MaxHeaderSize
	r.dataOffset = dataOffset(int64(headerSize))
	//nolint:gosec // G115: compared against the real file size below
	r.dataSize = int64(dataSize)
	if r.dataSize < 0 || r.dataSize > size-r.dataOffset {
		return fmt.Errorf("%w: data section [%d, +%d) exceeds file size %d", ErrOutOfBounds, r.dataOffset, dataSize, size)
	}

	headerBytes := make([]byte, headerSize)
	if _, err := r.src.ReadAt(headerBytes, FixedHeaderSize); err != nil {
		return fmt.Errorf("failed to read header JSON: %w", err)
	}
	if err := json.Unmarshal(headerBytes, &r.header); err != nil {
		return fmt.Errorf("failed to parse header JSON: %w", err)
	}
	return nil
}

// Header returns the parsed header.
func (r *Reader) Header() Header {
	return r.header
}

// Flags returns the flag word of the fixed header.
func (r *Reader) Flags() uint32 {
	return r.flags
}

// TensorPaths returns the stored tensor paths in traversal order.
func (r *Reader) TensorPaths() []string {
	paths := make([]string, len(r.header.Tensors))
	for i, t := range r.header.Tensors {
		paths[i] = t.Path
	}
	return paths
}

// TensorInfo returns the layout of the tensor stored at path.
func (r *Reader) TensorInfo(path string) (TensorMeta, bool) {
	i, ok := r.index[path]
	if !ok {
		return TensorMeta{}, false
	}
	return r.header.Tensors[i], true
}

// ReadTensor reads the tensor stored at path.
func (r *Reader) ReadTensor(path string) (*tensor.RawTensor, error) {
	if r.closed {
		return nil, fmt.Errorf("reader is closed")
	}
	meta, ok := r.TensorInfo(path)
	if !ok {
		return nil, fmt.Errorf("%w: no tensor at %q", ErrTensorMismatch, path)
	}
	dtype, err := tensor.ParseDataType(meta.DType)
	if err != nil {
		return nil, fmt.Errorf("tensor %q: %w", path, err)
	}

	want, err := tensor.Shape(meta.Shape).NumBytes(dtype.Size())
	if err != nil || int64(want) != meta.Size {
		return nil, fmt.Errorf("%w: tensor %q declares %d bytes for %v@%s", ErrTensorMismatch, path, meta.Size, meta.Shape, meta.DType)
	}
	if meta.Offset < 0 || meta.Offset > r.dataSize-meta.Size {
		return nil, fmt.Errorf("%w: tensor %q at [%d, +%d) outside data section of %d bytes", ErrOutOfBounds, path, meta.Offset, meta.Size, r.dataSize)
	}

	data := make([]byte, meta.Size)
	if _, err := r.src.ReadAt(data, r.dataOffset+meta.Offset); err != nil {
		return nil, fmt.Errorf("failed to read tensor %q: %w", path, err)
	}
	raw, err := tensor.NewRawFromBytes(tensor.Shape(meta.Shape), dtype, data)
	if err != nil {
		return nil, fmt.Errorf("tensor %q: %w", path, err)
	}
	return raw, nil
}

// RestoreTree rebuilds template with stored tensors. Every template leaf must
// be a tensor.Array; the stored tensor at the same path must have the same
// dtype and shape, and the file must hold no tensors the template lacks.
func (r *Reader) RestoreTree(template pytree.Node) (pytree.Node, error) {
	if n := pytree.NumLeaves(template); n != len(r.header.Tensors) {
		return nil, fmt.Errorf("%w: file has %d tensors, template has %d leaves", ErrTensorMismatch, len(r.header.Tensors), n)
	}

	return pytree.Map(template, func(path pytree.KeyPath, v any) (any, error) {
		want, ok := v.(tensor.Array)
		if !ok {
			return nil, fmt.Errorf("template leaf is %T, want an array", v)
		}
		key := path.String()
		meta, ok := r.TensorInfo(key)
		if !ok {
			return nil, fmt.Errorf("%w: missing tensor", ErrTensorMismatch)
		}
		if meta.DType != want.DType().String() || !tensor.Shape(meta.Shape).Equal(want.Shape()) {
			return nil, fmt.Errorf("%w: stored %v@%s, template %v@%s",
				ErrTensorMismatch, tensor.Shape(meta.Shape), meta.DType, want.Shape(), want.DType())
		}
		return r.ReadTensor(key)
	})
}

// Close releases the underlying file, if any.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// ReadHeader returns the header of the .born file at path.
func ReadHeader(path string) (Header, error) {
	r, err := Open(path)
	if err != nil {
		return Header{}, err
	}
	defer func() { _ = r.Close() }()
	return r.Header(), nil
}
