//go:build windows

// Package webgpu implements the GPU handler using WGSL compute shaders.
// Uses go-webgpu (github.com/go-webgpu/webgpu) for zero-CGO WebGPU bindings.
package webgpu

import (
	"fmt"
	"math"
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/nerve-ml/nerve/internal/tensor"
)

// Verify that Handler implements tensor.Handler.
var _ tensor.Handler = (*Handler)(nil)

// Handler implements tensor operations on GPU using WebGPU.
// Tensors live in host memory; each primitive uploads its operands,
// dispatches a compute pass and reads the result back. GPU arithmetic is
// float32 (WGSL storage buffers have no f64), so values round-trip through
// a narrowing conversion.
type Handler struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	// Shader and pipeline cache
	shaders   map[string]*wgpu.ShaderModule
	pipelines map[string]*wgpu.ComputePipeline
	mu        sync.RWMutex
}

// New creates a new WebGPU handler.
// Returns an error if WebGPU is not available or initialization fails.
func New() (handler *Handler, err error) {
	// Recover from panic if the wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			handler = nil
			err = fmt.Errorf("webgpu: native library not available: %v", r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request adapter: %w", adapterErr)
	}

	device, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to request device: %w", deviceErr)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("webgpu: failed to get queue")
	}

	return &Handler{
		instance:  instance,
		adapter:   adapter,
		device:    device,
		queue:     queue,
		shaders:   make(map[string]*wgpu.ShaderModule),
		pipelines: make(map[string]*wgpu.ComputePipeline),
	}, nil
}

// Release frees all GPU resources held by the handler.
func (h *Handler) Release() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, p := range h.pipelines {
		p.Release()
	}
	h.pipelines = make(map[string]*wgpu.ComputePipeline)
	for _, s := range h.shaders {
		s.Release()
	}
	h.shaders = make(map[string]*wgpu.ShaderModule)

	if h.device != nil {
		h.device.Release()
		h.device = nil
	}
	if h.adapter != nil {
		h.adapter.Release()
		h.adapter = nil
	}
	if h.instance != nil {
		h.instance.Release()
		h.instance = nil
	}
}

// Name returns the handler name.
func (h *Handler) Name() string {
	return "webgpu"
}

// Device returns the compute device.
func (h *Handler) Device() tensor.Device {
	return tensor.WebGPU
}

// Zeros allocates a zero-filled tensor with the given shape.
// Allocation is host-side; buffers are uploaded per dispatch.
func (h *Handler) Zeros(shape tensor.Shape) *tensor.RawTensor {
	t, err := tensor.NewRaw(shape)
	if err != nil {
		panic(fmt.Sprintf("webgpu: zeros: %v", err))
	}
	return t
}

// MultST writes scalar*t into out. out may alias t.
func (h *Handler) MultST(scalar float64, t, out *tensor.RawTensor) {
	checkShapes("mult_st", t, out)
	h.runScalarOp("mult_st", multSTShader, scalar, t, out)
}

// AddTT writes a+b element-wise into out. out may alias a or b.
func (h *Handler) AddTT(a, b, out *tensor.RawTensor) {
	checkShapes("add_tt", a, b)
	checkShapes("add_tt", a, out)
	h.runBinaryOp("add_tt", addTTShader, a, b, out)
}

// MultAddST accumulates scalar*t into out (out += scalar*t).
func (h *Handler) MultAddST(scalar float64, t, out *tensor.RawTensor) {
	checkShapes("mult_add_st", t, out)
	// The accumulate reads out as a second operand.
	h.runScalarOp("mult_add_st", multAddSTShader, scalar, t, out)
}

func checkShapes(op string, a, b *tensor.RawTensor) {
	if !a.Shape().Equal(b.Shape()) {
		panic(fmt.Sprintf("webgpu: %s: shape mismatch: %v vs %v", op, a.Shape(), b.Shape()))
	}
}

// compileShader compiles WGSL shader code into a ShaderModule.
// Results are cached in the Handler's shaders map.
func (h *Handler) compileShader(name, code string) *wgpu.ShaderModule {
	h.mu.RLock()
	if shader, exists := h.shaders[name]; exists {
		h.mu.RUnlock()
		return shader
	}
	h.mu.RUnlock()

	shader := h.device.CreateShaderModuleWGSL(code)

	h.mu.Lock()
	h.shaders[name] = shader
	h.mu.Unlock()

	return shader
}

// getOrCreatePipeline returns a cached ComputePipeline or creates a new one.
func (h *Handler) getOrCreatePipeline(name string, shader *wgpu.ShaderModule) *wgpu.ComputePipeline {
	h.mu.RLock()
	if pipeline, exists := h.pipelines[name]; exists {
		h.mu.RUnlock()
		return pipeline
	}
	h.mu.RUnlock()

	pipeline := h.device.CreateComputePipelineSimple(nil, shader, "main")

	h.mu.Lock()
	h.pipelines[name] = pipeline
	h.mu.Unlock()

	return pipeline
}

// runScalarOp executes a shader over (scalar, t, out) where the shader may
// also read out (used by the accumulate op).
func (h *Handler) runScalarOp(name, shaderCode string, scalar float64, t, out *tensor.RawTensor) {
	numElements := t.NumElements()

	shader := h.compileShader(name, shaderCode)
	pipeline := h.getOrCreatePipeline(name, shader)

	bufIn := h.uploadStorage(t)
	defer bufIn.Release()
	bufOut := h.uploadStorage(out)
	defer bufOut.Release()

	// Params: size u32 at offset 0, scalar f32 at offset 4, 16-byte aligned.
	params := make([]byte, 16)
	putUint32(params[0:4], uint32(numElements))
	putFloat32(params[4:8], float32(scalar))
	bufParams := h.createUniformBuffer(params)
	defer bufParams.Release()

	size := storageSize(numElements)
	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	bindGroup := h.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufIn, 0, size),
		wgpu.BufferBindingEntry(1, bufOut, 0, size),
		wgpu.BufferBindingEntry(2, bufParams, 0, 16),
	})
	defer bindGroup.Release()

	h.dispatch(pipeline, bindGroup, numElements)
	h.readBack(bufOut, out)
}

// runBinaryOp executes a shader over (a, b, out).
func (h *Handler) runBinaryOp(name, shaderCode string, a, b, out *tensor.RawTensor) {
	numElements := a.NumElements()

	shader := h.compileShader(name, shaderCode)
	pipeline := h.getOrCreatePipeline(name, shader)

	bufA := h.uploadStorage(a)
	defer bufA.Release()
	bufB := h.uploadStorage(b)
	defer bufB.Release()
	bufOut := h.uploadStorage(out)
	defer bufOut.Release()

	params := make([]byte, 16)
	putUint32(params[0:4], uint32(numElements))
	bufParams := h.createUniformBuffer(params)
	defer bufParams.Release()

	size := storageSize(numElements)
	bindGroupLayout := pipeline.GetBindGroupLayout(0)
	bindGroup := h.device.CreateBindGroupSimple(bindGroupLayout, []wgpu.BindGroupEntry{
		wgpu.BufferBindingEntry(0, bufA, 0, size),
		wgpu.BufferBindingEntry(1, bufB, 0, size),
		wgpu.BufferBindingEntry(2, bufOut, 0, size),
		wgpu.BufferBindingEntry(3, bufParams, 0, 16),
	})
	defer bindGroup.Release()

	h.dispatch(pipeline, bindGroup, numElements)
	h.readBack(bufOut, out)
}

// dispatch runs one compute pass over numElements items.
func (h *Handler) dispatch(pipeline *wgpu.ComputePipeline, bindGroup *wgpu.BindGroup, numElements int) {
	encoder := h.device.CreateCommandEncoder(nil)
	computePass := encoder.BeginComputePass(nil)

	computePass.SetPipeline(pipeline)
	computePass.SetBindGroup(0, bindGroup, nil)

	workgroups := uint32((numElements + workgroupSize - 1) / workgroupSize)
	computePass.DispatchWorkgroups(workgroups, 1, 1)
	computePass.End()

	cmdBuffer := encoder.Finish(nil)
	h.queue.Submit(cmdBuffer)
}

// uploadStorage creates a storage buffer holding t's data as float32.
func (h *Handler) uploadStorage(t *tensor.RawTensor) *wgpu.Buffer {
	data := t.Data()
	raw := make([]byte, storageSize(len(data)))
	for i, v := range data {
		putFloat32(raw[i*4:i*4+4], float32(v))
	}

	buffer := h.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageStorage | wgpu.BufferUsageCopySrc | wgpu.BufferUsageCopyDst,
		Size:             uint64(len(raw)),
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, uint64(len(raw)))
	copyToMapped(mappedPtr, raw)
	buffer.Unmap()

	return buffer
}

// createUniformBuffer creates a uniform buffer with proper alignment.
func (h *Handler) createUniformBuffer(data []byte) *wgpu.Buffer {
	size := uint64(len(data))
	alignedSize := (size + 15) &^ 15 // Round up to 16-byte boundary

	buffer := h.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:             alignedSize,
		MappedAtCreation: wgpu.True,
	})

	mappedPtr := buffer.GetMappedRange(0, alignedSize)
	copyToMapped(mappedPtr, data)
	buffer.Unmap()

	return buffer
}

// readBack copies a storage buffer into the destination tensor.
// Uses a staging buffer since storage buffers can't be mapped directly.
func (h *Handler) readBack(srcBuffer *wgpu.Buffer, out *tensor.RawTensor) {
	size := storageSize(out.NumElements())

	stagingBuffer := h.device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage: wgpu.BufferUsageMapRead | wgpu.BufferUsageCopyDst,
		Size:  size,
	})
	defer stagingBuffer.Release()

	encoder := h.device.CreateCommandEncoder(nil)
	encoder.CopyBufferToBuffer(srcBuffer, 0, stagingBuffer, 0, size)
	cmdBuffer := encoder.Finish(nil)
	h.queue.Submit(cmdBuffer)

	if err := stagingBuffer.MapAsync(h.device, wgpu.MapModeRead, 0, size); err != nil {
		panic(fmt.Sprintf("webgpu: failed to map staging buffer: %v", err))
	}

	mappedPtr := stagingBuffer.GetMappedRange(0, size)
	raw := copyFromMapped(mappedPtr, int(size))
	stagingBuffer.Unmap()

	dst := out.Data()
	for i := range dst {
		dst[i] = float64(math.Float32frombits(getUint32(raw[i*4 : i*4+4])))
	}
}

func storageSize(numElements int) uint64 {
	return uint64(numElements) * 4
}
