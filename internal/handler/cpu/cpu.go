// Package cpu implements the reference CPU handler.
package cpu

import (
	"fmt"

	"github.com/nerve-ml/nerve/internal/parallel"
	"github.com/nerve-ml/nerve/internal/tensor"
)

// Verify that Handler implements tensor.Handler.
var _ tensor.Handler = (*Handler)(nil)

// Handler implements tensor operations on the host CPU.
// Large tensors are processed in parallel chunks; small ones stay on the
// calling goroutine to avoid scheduling overhead.
type Handler struct {
	cfg parallel.Config
}

// New creates a new CPU handler with default parallelism.
func New() *Handler {
	return &Handler{cfg: parallel.DefaultConfig()}
}

// NewSequential creates a CPU handler that never spawns goroutines.
// Useful for deterministic profiling and small workloads.
func NewSequential() *Handler {
	cfg := parallel.DefaultConfig()
	cfg.Enabled = false
	return &Handler{cfg: cfg}
}

// Name returns the handler name.
func (h *Handler) Name() string {
	return "cpu"
}

// Device returns the compute device.
func (h *Handler) Device() tensor.Device {
	return tensor.CPU
}

// Zeros allocates a zero-filled tensor with the given shape.
func (h *Handler) Zeros(shape tensor.Shape) *tensor.RawTensor {
	t, err := tensor.NewRaw(shape)
	if err != nil {
		panic(fmt.Sprintf("cpu: zeros: %v", err))
	}
	return t
}

// MultST writes scalar*t into out. out may alias t.
func (h *Handler) MultST(scalar float64, t, out *tensor.RawTensor) {
	checkShapes("mult_st", t, out)

	src := t.Data()
	dst := out.Data()
	parallel.For(len(src), func(start, end int) {
		for i := start; i < end; i++ {
			dst[i] = scalar * src[i]
		}
	}, h.cfg)
}

// AddTT writes a+b element-wise into out. out may alias a or b.
func (h *Handler) AddTT(a, b, out *tensor.RawTensor) {
	checkShapes("add_tt", a, b)
	checkShapes("add_tt", a, out)

	av := a.Data()
	bv := b.Data()
	dst := out.Data()
	parallel.For(len(av), func(start, end int) {
		for i := start; i < end; i++ {
			dst[i] = av[i] + bv[i]
		}
	}, h.cfg)
}

// MultAddST accumulates scalar*t into out (out += scalar*t).
func (h *Handler) MultAddST(scalar float64, t, out *tensor.RawTensor) {
	checkShapes("mult_add_st", t, out)

	src := t.Data()
	dst := out.Data()
	parallel.For(len(src), func(start, end int) {
		for i := start; i < end; i++ {
			dst[i] += scalar * src[i]
		}
	}, h.cfg)
}

func checkShapes(op string, a, b *tensor.RawTensor) {
	if !a.Shape().Equal(b.Shape()) {
		panic(fmt.Sprintf("cpu: %s: shape mismatch: %v vs %v", op, a.Shape(), b.Shape()))
	}
}
