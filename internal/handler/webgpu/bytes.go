//go:build windows

package webgpu

import (
	"encoding/binary"
	"math"
	"unsafe"
)

func putUint32(b []byte, v uint32) {
	binary.LittleEndian.PutUint32(b, v)
}

func getUint32(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b)
}

func putFloat32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}

func copyToMapped(mappedPtr unsafe.Pointer, data []byte) {
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), len(data))
	copy(mappedSlice, data)
}

func copyFromMapped(mappedPtr unsafe.Pointer, size int) []byte {
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	result := make([]byte, size)
	copy(result, mappedSlice)
	return result
}
