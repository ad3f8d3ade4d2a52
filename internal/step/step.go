// Package step implements the training-step engine.
//
// A TrainingStep turns a Network into one optimization algorithm: bind the
// network once with Start, then call Run once per training iteration. Each
// Run performs exactly one forward pass, optionally a backward pass and an
// in-place parameter update, and returns the scalar loss for monitoring or
// early stopping.
//
// Available steps:
//   - ForwardStep: evaluation only, no training
//   - SgdStep: plain stochastic gradient descent
//   - MomentumStep: SGD with a momentum term
//   - NesterovStep: SGD with Nesterov-style momentum
//
// Example usage:
//
//	st, err := step.NewMomentumStep(step.MomentumConfig{
//	    LearningRate: 0.01,
//	    Momentum:     0.9,
//	})
//	if err != nil {
//	    return err
//	}
//	st.Start(network)
//	for i := 0; i < iterations; i++ {
//	    loss := st.Run()
//	    // monitor loss, decide when to stop
//	}
//
// A step holds exactly one network reference and owns its auxiliary tensors
// (velocity or update buffer). Steps are single-threaded: Run mutates the
// network's parameters in place without synchronization and must never be
// invoked concurrently on the same step.
package step

import (
	"fmt"

	"github.com/nerve-ml/nerve/internal/net"
	"github.com/nerve-ml/nerve/internal/schedule"
)

// Hyperparameter defaults shared by all steps.
const (
	DefaultLearningRate = 0.1
	DefaultMomentum     = 0.0
)

// TrainingStep is the common lifecycle of every step variant.
//
// The contract is two-phase: Start must be called exactly once before the
// first Run. Calling Start again re-binds the network and re-allocates the
// step's auxiliary tensors; calling Run without Start panics when the step
// dereferences the unbound network. Neither misuse is guarded — caller
// discipline is part of the contract.
type TrainingStep interface {
	// Start binds the network and allocates any buffers whose shape
	// depends on it.
	Start(n net.Network)

	// Run executes one optimization iteration and returns its loss.
	Run() float64

	// Describe returns the persistable configuration of the step.
	// The network reference and auxiliary tensors are environment-bound
	// and never part of the description.
	Describe() Description
}

// resolveSchedule normalizes a constant-or-schedule hyperparameter spec,
// substituting def when the spec is nil.
func resolveSchedule(name string, v any, def float64) (schedule.Schedule, error) {
	if v == nil {
		return schedule.NewConstant(def), nil
	}
	s, err := schedule.Get(v)
	if err != nil {
		return nil, fmt.Errorf("step: %s: %w", name, err)
	}
	return s, nil
}

// resolveBool validates a flag spec that must be exactly a boolean.
func resolveBool(name string, v any, def bool) (bool, error) {
	if v == nil {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("step: %s must be true or false, got %v (type %T)", name, v, v)
	}
	return b, nil
}
