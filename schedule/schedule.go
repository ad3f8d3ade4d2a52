// Copyright 2025 Nerve ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package schedule exposes scalar hyperparameter schedules.
package schedule

import (
	"github.com/nerve-ml/nerve/internal/schedule"
)

// Schedule yields a hyperparameter's value at each training iteration.
type Schedule = schedule.Schedule

// Spec is the serializable description of a schedule.
type Spec = schedule.Spec

// Constant always yields the same value.
type Constant = schedule.Constant

// Linear anneals from an initial to a final value in equal increments.
type Linear = schedule.Linear

// Exponential multiplies the value by a fixed factor after every interval.
type Exponential = schedule.Exponential

// MultiStep switches between fixed values at given call-count milestones.
type MultiStep = schedule.MultiStep

// NewConstant creates a constant schedule.
func NewConstant(value float64) *Constant {
	return schedule.NewConstant(value)
}

// NewLinear creates a linear annealing schedule.
func NewLinear(initial, final float64, changes, interval int) (*Linear, error) {
	return schedule.NewLinear(initial, final, changes, interval)
}

// NewExponential creates an exponential decay (or growth) schedule.
func NewExponential(initial, factor float64, interval int) (*Exponential, error) {
	return schedule.NewExponential(initial, factor, interval)
}

// NewMultiStep creates a milestone-based schedule.
func NewMultiStep(values []float64, milestones []int) (*MultiStep, error) {
	return schedule.NewMultiStep(values, milestones)
}

// Get normalizes a number, Schedule, or Spec into a live Schedule.
func Get(v any) (Schedule, error) {
	return schedule.Get(v)
}

// FromSpec rebuilds a live Schedule from its serialized description.
func FromSpec(s Spec) (Schedule, error) {
	return schedule.FromSpec(s)
}
