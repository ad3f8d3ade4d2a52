// Package schedule provides scalar hyperparameter schedules for training steps.
//
// A Schedule is a stateful generator: every Next call advances internal time
// and returns the value for that call index. Given the same construction
// parameters, the value sequence is deterministic.
//
// Steps accept either a bare number or a Schedule wherever a hyperparameter
// goes; Get normalizes both (and a serialized Spec) into a live Schedule.
package schedule

import "fmt"

// Schedule yields a hyperparameter's value at each training iteration.
type Schedule interface {
	// Next advances the schedule and returns the value for this call.
	Next() float64

	// Describe returns a serializable form the schedule can be rebuilt from.
	Describe() Spec
}

// Spec is the serializable description of a schedule.
// Exactly one variant is selected by Type; the other fields are ignored.
type Spec struct {
	Type string `json:"type"`

	// constant
	Value float64 `json:"value,omitempty"`

	// linear, exponential
	Initial  float64 `json:"initial,omitempty"`
	Final    float64 `json:"final,omitempty"`
	Factor   float64 `json:"factor,omitempty"`
	Interval int     `json:"interval,omitempty"`
	Changes  int     `json:"changes,omitempty"`

	// multistep
	Values     []float64 `json:"values,omitempty"`
	Milestones []int     `json:"milestones,omitempty"`
}

// Get normalizes a hyperparameter spec into a live Schedule.
//
// Accepted forms:
//   - a number (float64, float32, int): a constant schedule
//   - a Schedule: passed through unchanged
//   - a Spec: rebuilt via FromSpec (the post-load rehydration path)
func Get(v any) (Schedule, error) {
	switch s := v.(type) {
	case Schedule:
		return s, nil
	case Spec:
		return FromSpec(s)
	case *Spec:
		return FromSpec(*s)
	case float64:
		return NewConstant(s), nil
	case float32:
		return NewConstant(float64(s)), nil
	case int:
		return NewConstant(float64(s)), nil
	default:
		return nil, fmt.Errorf("schedule: unsupported spec %v (type %T)", v, v)
	}
}

// FromSpec rebuilds a live Schedule from its serialized description.
func FromSpec(s Spec) (Schedule, error) {
	switch s.Type {
	case "constant":
		return NewConstant(s.Value), nil
	case "linear":
		return NewLinear(s.Initial, s.Final, s.Changes, s.Interval)
	case "exponential":
		return NewExponential(s.Initial, s.Factor, s.Interval)
	case "multistep":
		return NewMultiStep(s.Values, s.Milestones)
	default:
		return nil, fmt.Errorf("schedule: unknown type %q", s.Type)
	}
}
