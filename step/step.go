// Copyright 2025 Nerve ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package step exposes the training-step engine.
package step

import (
	"io"

	"github.com/nerve-ml/nerve/internal/step"
)

// TrainingStep is the common lifecycle of every step variant: bind a network
// once with Start, then call Run once per training iteration.
type TrainingStep = step.TrainingStep

// Description is the persistable configuration of a training step.
type Description = step.Description

// ForwardStep evaluates the network without updating parameters.
type ForwardStep = step.ForwardStep

// SgdStep performs plain stochastic gradient descent.
type SgdStep = step.SgdStep

// MomentumStep performs SGD with a momentum term.
type MomentumStep = step.MomentumStep

// NesterovStep performs SGD with Nesterov-style momentum.
type NesterovStep = step.NesterovStep

// ForwardConfig configures a ForwardStep.
type ForwardConfig = step.ForwardConfig

// SgdConfig configures an SgdStep.
type SgdConfig = step.SgdConfig

// MomentumConfig configures a MomentumStep or NesterovStep.
type MomentumConfig = step.MomentumConfig

// Hyperparameter defaults shared by all steps.
const (
	DefaultLearningRate = step.DefaultLearningRate
	DefaultMomentum     = step.DefaultMomentum
)

// Step kinds as they appear in serialized descriptions.
const (
	KindForward  = step.KindForward
	KindSgd      = step.KindSgd
	KindMomentum = step.KindMomentum
	KindNesterov = step.KindNesterov
)

// NewForwardStep creates an evaluation-only step.
func NewForwardStep(cfg ForwardConfig) *ForwardStep {
	return step.NewForwardStep(cfg)
}

// NewSgdStep creates a plain SGD step.
func NewSgdStep(cfg SgdConfig) (*SgdStep, error) {
	return step.NewSgdStep(cfg)
}

// NewMomentumStep creates a momentum SGD step.
func NewMomentumStep(cfg MomentumConfig) (*MomentumStep, error) {
	return step.NewMomentumStep(cfg)
}

// NewNesterovStep creates a Nesterov momentum SGD step.
func NewNesterovStep(cfg MomentumConfig) (*NesterovStep, error) {
	return step.NewNesterovStep(cfg)
}

// FromDescription reconstructs a training step from its description.
func FromDescription(d Description) (TrainingStep, error) {
	return step.FromDescription(d)
}

// Save writes the step's description as JSON.
func Save(w io.Writer, s TrainingStep) error {
	return step.Save(w, s)
}

// Load reads a JSON description and reconstructs the step.
func Load(r io.Reader) (TrainingStep, error) {
	return step.Load(r)
}
