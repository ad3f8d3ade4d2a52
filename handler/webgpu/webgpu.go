//go:build windows

// Copyright 2025 Nerve ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu exposes the GPU compute handler.
//
// The handler runs the tensor primitives as WGSL compute shaders. GPU
// arithmetic is float32; tensors round-trip through a narrowing conversion.
//
// Example:
//
//	gpu, err := webgpu.New()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer gpu.Release()
package webgpu

import (
	"github.com/nerve-ml/nerve/internal/handler/webgpu"
)

// Handler executes tensor operations on the GPU via WebGPU.
type Handler = webgpu.Handler

// New creates a WebGPU handler. It returns an error when no adapter or
// native library is available.
func New() (*Handler, error) {
	return webgpu.New()
}
