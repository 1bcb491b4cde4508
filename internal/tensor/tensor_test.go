package tensor

import (
	"math"
	"math/rand"
	"testing"
)

// DType Tests

func TestDataTypeSize(t *testing.T) {
	tests := []struct {
		dtype DataType
		size  int
	}{
		{Float32, 4},
		{Float64, 8},
		{Int32, 4},
		{Int64, 8},
		{Uint8, 1},
		{Bool, 1},
	}

	for _, tt := range tests {
		if got := tt.dtype.Size(); got != tt.size {
			t.Errorf("%s.Size() = %d, want %d", tt.dtype, got, tt.size)
		}
	}
}

func TestDataTypeStringRoundTrip(t *testing.T) {
	for _, dt := range []DataType{Float32, Float64, Int32, Int64, Uint8, Bool} {
		parsed, err := ParseDataType(dt.String())
		if err != nil {
			t.Fatalf("ParseDataType(%q): %v", dt.String(), err)
		}
		if parsed != dt {
			t.Errorf("ParseDataType(%q) = %v, want %v", dt.String(), parsed, dt)
		}
	}

	if _, err := ParseDataType("complex64"); err == nil {
		t.Error("expected error for unknown dtype")
	}
}

// Shape Tests

func TestShapeString(t *testing.T) {
	tests := []struct {
		shape Shape
		want  string
	}{
		{Shape{}, "()"},
		{Shape{5}, "(5,)"},
		{Shape{2, 3}, "(2, 3)"},
		{Shape{1, 2, 3, 4}, "(1, 2, 3, 4)"},
	}

	for _, tt := range tests {
		if got := tt.shape.String(); got != tt.want {
			t.Errorf("Shape(%v).String() = %q, want %q", []int(tt.shape), got, tt.want)
		}
	}
}

func TestShapeNumElementsAndStrides(t *testing.T) {
	s := Shape{2, 3, 4}
	if n := s.NumElements(); n != 24 {
		t.Errorf("NumElements() = %d, want 24", n)
	}
	strides := s.ComputeStrides()
	want := []int{12, 4, 1}
	for i := range want {
		if strides[i] != want[i] {
			t.Errorf("stride[%d] = %d, want %d", i, strides[i], want[i])
		}
	}
	if n := (Shape{}).NumElements(); n != 1 {
		t.Errorf("scalar NumElements() = %d, want 1", n)
	}
}

func TestShapeValidate(t *testing.T) {
	for _, ok := range []Shape{{}, {2, 3}, {2, 0}, {0}} {
		if err := ok.Validate(); err != nil {
			t.Errorf("Shape%v.Validate() = %v, want nil", []int(ok), err)
		}
	}
	for _, bad := range []Shape{{2, -1}, {1 << 62, 4}, {math.MaxInt, 2}} {
		if err := bad.Validate(); err == nil {
			t.Errorf("Shape%v.Validate() = nil, want error", []int(bad))
		}
	}
}

func TestShapeNumBytes(t *testing.T) {
	if n, err := (Shape{2, 3}).NumBytes(4); err != nil || n != 24 {
		t.Errorf("NumBytes(4) = %d, %v, want 24", n, err)
	}
	if n, err := (Shape{0, 1 << 62}).NumBytes(8); err != nil || n != 0 {
		t.Errorf("NumBytes on empty shape = %d, %v, want 0", n, err)
	}
	if _, err := (Shape{1 << 61}).NumBytes(8); err == nil {
		t.Error("expected overflow error")
	}
	if _, err := NewRaw(Shape{1 << 40, 1 << 40}, Float32); err == nil {
		t.Error("NewRaw accepted an overflowing shape")
	}
}

func TestEmptyTensorViews(t *testing.T) {
	raw := Zeros(Shape{0}, Float32)
	if raw.String() != "(0,)@float32" {
		t.Errorf("String() = %q", raw.String())
	}
	if got := raw.AsFloat32(); len(got) != 0 {
		t.Errorf("AsFloat32() len = %d, want 0", len(got))
	}
	if !raw.Equal(raw.Clone()) {
		t.Error("empty clone should equal original")
	}

	for _, dt := range []DataType{Float64, Int32, Int64, Uint8, Bool} {
		e := Zeros(Shape{3, 0}, dt)
		if e.NumElements() != 0 || e.ByteSize() != 0 {
			t.Errorf("%s: NumElements=%d ByteSize=%d, want 0", dt, e.NumElements(), e.ByteSize())
		}
	}
	if len(Zeros(Shape{0}, Float64).AsFloat64()) != 0 ||
		len(Zeros(Shape{0}, Int32).AsInt32()) != 0 ||
		len(Zeros(Shape{0}, Int64).AsInt64()) != 0 ||
		len(Zeros(Shape{0}, Bool).AsBool()) != 0 {
		t.Error("typed view of empty tensor is not empty")
	}

	e, err := FromSlice([]int32{}, Shape{2, 0})
	if err != nil {
		t.Fatalf("FromSlice empty: %v", err)
	}
	if len(e.AsInt32()) != 0 {
		t.Error("expected empty int32 view")
	}
}

func TestFromSliceEveryDType(t *testing.T) {
	checks := []struct {
		raw  *RawTensor
		want DataType
	}{
		{mustFromSlice(t, []float32{1}), Float32},
		{mustFromSlice(t, []float64{1}), Float64},
		{mustFromSlice(t, []int32{1}), Int32},
		{mustFromSlice(t, []int64{1}), Int64},
		{mustFromSlice(t, []uint8{1}), Uint8},
		{mustFromSlice(t, []bool{true}), Bool},
	}
	for _, c := range checks {
		if c.raw.DType() != c.want {
			t.Errorf("DType() = %v, want %v", c.raw.DType(), c.want)
		}
		if bytesAllZero(c.raw.Data()) {
			t.Errorf("%v: data was not copied", c.want)
		}
	}
}

func mustFromSlice[T DType](t *testing.T, data []T) *RawTensor {
	t.Helper()
	raw, err := FromSlice(data, Shape{len(data)})
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	return raw
}

func bytesAllZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// RawTensor Tests

func TestFromSliceAndViews(t *testing.T) {
	raw, err := FromSlice([]float32{1, 2, 3, 4, 5, 6}, Shape{2, 3})
	if err != nil {
		t.Fatalf("FromSlice: %v", err)
	}
	if raw.DType() != Float32 {
		t.Errorf("DType() = %v, want Float32", raw.DType())
	}
	if raw.ByteSize() != 24 {
		t.Errorf("ByteSize() = %d, want 24", raw.ByteSize())
	}
	if got := raw.AsFloat32()[4]; got != 5 {
		t.Errorf("AsFloat32()[4] = %v, want 5", got)
	}

	ints, err := FromSlice([]int32{7, 8}, Shape{2})
	if err != nil {
		t.Fatalf("FromSlice int32: %v", err)
	}
	if ints.String() != "(2,)@int32" {
		t.Errorf("String() = %q", ints.String())
	}

	if _, err := FromSlice([]float32{1, 2}, Shape{3}); err == nil {
		t.Error("expected element count error")
	}
}

func TestWrongViewPanics(t *testing.T) {
	raw := Zeros(Shape{2}, Int32)
	defer func() {
		if recover() == nil {
			t.Error("expected panic for AsFloat32 on int32 tensor")
		}
	}()
	_ = raw.AsFloat32()
}

func TestCloneIsDeep(t *testing.T) {
	a, _ := FromSlice([]float64{1, 2, 3}, Shape{3})
	b := a.Clone()
	if !a.Equal(b) {
		t.Fatal("clone should equal original")
	}

	b.AsFloat64()[0] = 42
	if a.AsFloat64()[0] != 1 {
		t.Error("mutating clone changed the original")
	}
	if a.Equal(b) {
		t.Error("tensors with different bytes reported equal")
	}
}

func TestEqualComparesShapeAndDType(t *testing.T) {
	a := Zeros(Shape{2, 3}, Float32)
	if a.Equal(Zeros(Shape{3, 2}, Float32)) {
		t.Error("different shapes reported equal")
	}
	if a.Equal(Zeros(Shape{2, 3}, Int32)) {
		t.Error("different dtypes reported equal")
	}
	var nilTensor *RawTensor
	if a.Equal(nilTensor) {
		t.Error("non-nil equal to nil")
	}
}

func TestNewRawFromBytes(t *testing.T) {
	src, _ := FromSlice([]int64{1, -1}, Shape{2})
	cp, err := NewRawFromBytes(src.Shape(), src.DType(), src.Data())
	if err != nil {
		t.Fatalf("NewRawFromBytes: %v", err)
	}
	if !cp.Equal(src) {
		t.Error("bytes round trip mismatch")
	}
	if _, err := NewRawFromBytes(Shape{3}, Int64, src.Data()); err == nil {
		t.Error("expected size mismatch error")
	}
}

func TestScalar(t *testing.T) {
	s := Scalar(int64(9))
	if len(s.Shape()) != 0 {
		t.Errorf("scalar shape = %v", s.Shape())
	}
	if s.AsInt64()[0] != 9 {
		t.Errorf("scalar value = %d", s.AsInt64()[0])
	}
	if s.String() != "()@int64" {
		t.Errorf("String() = %q", s.String())
	}
}

func TestXavierBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1)) //nolint:gosec // deterministic test data
	w := Xavier(4, 6, Shape{6, 4}, rng)
	bound := float32(math.Sqrt(6.0 / 10.0))
	for i, v := range w.AsFloat32() {
		if v < -bound || v > bound {
			t.Fatalf("value %d = %v outside [-%v, %v]", i, v, bound, bound)
		}
	}
}

func TestRandnFinite(t *testing.T) {
	rng := rand.New(rand.NewSource(2)) //nolint:gosec // deterministic test data
	x := Randn(Shape{7}, rng)
	for i, v := range x.AsFloat32() {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("value %d is not finite: %v", i, v)
		}
	}
}
