// Copyright 2025 Nerve ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package net exposes the network contract consumed by training steps.
package net

import (
	"github.com/nerve-ml/nerve/internal/net"
)

// Network is the model contract a training step drives.
type Network = net.Network

// Buffer groups the flat parameter and gradient tensors of a network.
type Buffer = net.Buffer
