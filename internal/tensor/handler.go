package tensor

// Handler defines the interface that all compute backends must implement.
// Handlers own the arithmetic used by training steps; every mutating
// primitive takes an explicit destination tensor so that buffers allocated
// once at start time are reused across iterations without hidden allocation.
//
// Implementations:
//   - cpu: pure Go with chunked parallel execution
//   - webgpu: GPU compute via WGSL shaders
//
// A destination may alias an input: MultST(m, v, v) scales v in place.
// All primitives panic on shape mismatch; steps never catch that.
type Handler interface {
	// Zeros allocates a zero-filled tensor with the given shape.
	Zeros(shape Shape) *RawTensor

	// MultST writes scalar*t into out (full overwrite).
	MultST(scalar float64, t, out *RawTensor)

	// AddTT writes a+b element-wise into out.
	AddTT(a, b, out *RawTensor)

	// MultAddST accumulates scalar*t into out (out += scalar*t).
	MultAddST(scalar float64, t, out *RawTensor)

	// Metadata
	Name() string
	Device() Device
}
