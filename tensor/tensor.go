// Copyright 2025 Nerve ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor exposes the tensor types and the Handler contract.
package tensor

import (
	"github.com/nerve-ml/nerve/internal/tensor"
)

// Shape represents the dimensions of a tensor.
type Shape = tensor.Shape

// RawTensor is a dense float64 buffer with a shape.
type RawTensor = tensor.RawTensor

// Handler is the compute backend contract consumed by training steps.
type Handler = tensor.Handler

// Device represents the compute device a handler runs on.
type Device = tensor.Device

// Supported compute devices.
const (
	CPU    = tensor.CPU
	WebGPU = tensor.WebGPU
)

// NewRaw creates a zero-filled RawTensor with the given shape.
func NewRaw(shape Shape) (*RawTensor, error) {
	return tensor.NewRaw(shape)
}

// FromSlice creates a RawTensor that copies the given values.
func FromSlice(values []float64, shape Shape) (*RawTensor, error) {
	return tensor.FromSlice(values, shape)
}
