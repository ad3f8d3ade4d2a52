// Package net defines the network contract consumed by training steps.
//
// A Network owns its parameter and gradient buffers and knows how to run a
// forward and backward pass; everything else (layer wiring, loss layers,
// the autodiff machinery behind BackwardPass) is behind this interface.
package net

import "github.com/nerve-ml/nerve/internal/tensor"

// Buffer holds the flat parameter and gradient tensors of a network.
// Both tensors always have the same shape. Training steps read gradients
// and update parameters in place; they never reallocate either tensor.
type Buffer struct {
	Parameters *tensor.RawTensor
	Gradients  *tensor.RawTensor
}

// Network is the training-side view of a neural network.
type Network interface {
	// ForwardPass computes activations and the loss for the current input.
	// trainingPass selects training-time behavior in stochastic layers
	// (dropout and friends); validation runs with trainingPass=false.
	ForwardPass(trainingPass bool)

	// BackwardPass populates Buffer().Gradients from the last forward pass.
	BackwardPass()

	// LossValue returns the scalar loss observed in the last forward pass.
	LossValue() float64

	// Handler returns the compute backend the network's buffers live on.
	Handler() tensor.Handler

	// Buffer returns the network's parameter/gradient pair.
	Buffer() *Buffer
}
