// Copyright 2025 Nerve ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu exposes the CPU compute handler.
package cpu

import (
	"github.com/nerve-ml/nerve/internal/handler/cpu"
)

// Handler executes tensor operations on the host CPU.
type Handler = cpu.Handler

// New creates a CPU handler that parallelizes large operations.
func New() *Handler {
	return cpu.New()
}

// NewSequential creates a CPU handler that always runs single-threaded.
func NewSequential() *Handler {
	return cpu.NewSequential()
}
