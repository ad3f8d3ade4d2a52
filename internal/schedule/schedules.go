package schedule

import (
	"fmt"
	"math"
)

// Constant always yields the same value.
type Constant struct {
	value float64
}

// NewConstant creates a constant schedule.
func NewConstant(value float64) *Constant {
	return &Constant{value: value}
}

// Next returns the constant value.
func (c *Constant) Next() float64 {
	return c.value
}

// Describe returns the serializable form.
func (c *Constant) Describe() Spec {
	return Spec{Type: "constant", Value: c.value}
}

// Linear anneals from an initial to a final value in equal increments.
// The value moves 1/changes of the total distance after every interval
// calls, and stays at the final value once all changes have happened.
type Linear struct {
	initial  float64
	final    float64
	changes  int
	interval int
	t        int
}

// NewLinear creates a linear annealing schedule.
func NewLinear(initial, final float64, changes, interval int) (*Linear, error) {
	if changes <= 0 {
		return nil, fmt.Errorf("schedule: linear: changes must be positive, got %d", changes)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("schedule: linear: interval must be positive, got %d", interval)
	}
	return &Linear{initial: initial, final: final, changes: changes, interval: interval}, nil
}

// Next returns the value for the current call index and advances time.
func (l *Linear) Next() float64 {
	k := min(l.t/l.interval, l.changes)
	l.t++
	return l.initial + (l.final-l.initial)*float64(k)/float64(l.changes)
}

// Describe returns the serializable form. Internal time is not persisted;
// a rebuilt schedule restarts from its initial value.
func (l *Linear) Describe() Spec {
	return Spec{
		Type:     "linear",
		Initial:  l.initial,
		Final:    l.final,
		Changes:  l.changes,
		Interval: l.interval,
	}
}

// Exponential multiplies the value by a fixed factor after every interval.
type Exponential struct {
	initial  float64
	factor   float64
	interval int
	t        int
}

// NewExponential creates an exponential decay (or growth) schedule.
func NewExponential(initial, factor float64, interval int) (*Exponential, error) {
	if factor <= 0 {
		return nil, fmt.Errorf("schedule: exponential: factor must be positive, got %g", factor)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("schedule: exponential: interval must be positive, got %d", interval)
	}
	return &Exponential{initial: initial, factor: factor, interval: interval}, nil
}

// Next returns the value for the current call index and advances time.
func (e *Exponential) Next() float64 {
	k := e.t / e.interval
	e.t++
	return e.initial * math.Pow(e.factor, float64(k))
}

// Describe returns the serializable form.
func (e *Exponential) Describe() Spec {
	return Spec{
		Type:     "exponential",
		Initial:  e.initial,
		Factor:   e.factor,
		Interval: e.interval,
	}
}

// MultiStep switches between fixed values at given call-count milestones.
// It yields values[0] until the call count reaches milestones[0], then
// values[1] until milestones[1], and so on.
type MultiStep struct {
	values     []float64
	milestones []int
	t          int
}

// NewMultiStep creates a milestone-based schedule.
// milestones must be strictly increasing and one shorter than values.
func NewMultiStep(values []float64, milestones []int) (*MultiStep, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("schedule: multistep: values must not be empty")
	}
	if len(milestones) != len(values)-1 {
		return nil, fmt.Errorf("schedule: multistep: need %d milestones for %d values, got %d",
			len(values)-1, len(values), len(milestones))
	}
	for i := 1; i < len(milestones); i++ {
		if milestones[i] <= milestones[i-1] {
			return nil, fmt.Errorf("schedule: multistep: milestones must be strictly increasing")
		}
	}
	return &MultiStep{values: values, milestones: milestones}, nil
}

// Next returns the value for the current call index and advances time.
func (m *MultiStep) Next() float64 {
	k := 0
	for k < len(m.milestones) && m.t >= m.milestones[k] {
		k++
	}
	m.t++
	return m.values[k]
}

// Describe returns the serializable form.
func (m *MultiStep) Describe() Spec {
	return Spec{
		Type:       "multistep",
		Values:     m.values,
		Milestones: m.milestones,
	}
}
