package tensor

import "fmt"

// Device represents the compute device a handler runs on.
type Device int

// Supported compute devices.
const (
	CPU Device = iota
	WebGPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case WebGPU:
		return "WebGPU"
	default:
		return "Unknown"
	}
}

// RawTensor is a dense float64 buffer with a shape.
// Training steps never inspect it beyond shape equality; all arithmetic
// goes through a Handler with explicit destination arguments.
type RawTensor struct {
	data   []float64
	shape  Shape
	stride []int
}

// NewRaw creates a zero-filled RawTensor with the given shape.
func NewRaw(shape Shape) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	return &RawTensor{
		data:   make([]float64, shape.NumElements()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
	}, nil
}

// FromSlice creates a RawTensor that copies the given values.
func FromSlice(values []float64, shape Shape) (*RawTensor, error) {
	t, err := NewRaw(shape)
	if err != nil {
		return nil, err
	}
	if len(values) != len(t.data) {
		return nil, fmt.Errorf("data length %d does not match shape %v (%d elements)",
			len(values), shape, shape.NumElements())
	}
	copy(t.data, values)
	return t, nil
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's row-major memory strides.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// Data returns the underlying buffer. Mutating it mutates the tensor.
func (r *RawTensor) Data() []float64 {
	return r.data
}

// Clone returns a deep copy with its own buffer.
func (r *RawTensor) Clone() *RawTensor {
	data := make([]float64, len(r.data))
	copy(data, r.data)
	return &RawTensor{
		data:   data,
		shape:  r.shape.Clone(),
		stride: r.shape.ComputeStrides(),
	}
}
