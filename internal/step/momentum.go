package step

import (
	"github.com/nerve-ml/nerve/internal/net"
	"github.com/nerve-ml/nerve/internal/schedule"
	"github.com/nerve-ml/nerve/internal/tensor"
)

// MomentumStep implements stochastic gradient descent with a momentum term.
//
// Update rule per iteration:
//
//	velocity = momentum * velocity - lr * gradients
//	parameters += velocity
//
// Both learning rate and momentum may be constants or schedules. When
// ScaleLearningRate is enabled (the default), lr is multiplied by
// (1 - momentum) using the momentum value sampled in the same iteration.
type MomentumStep struct {
	net               net.Network
	learningRate      schedule.Schedule
	momentum          schedule.Schedule
	scaleLearningRate bool
	velocity          *tensor.RawTensor
}

// MomentumConfig holds configuration for MomentumStep and NesterovStep.
type MomentumConfig struct {
	// LearningRate is a number or a schedule.Schedule/schedule.Spec
	// (default 0.1).
	LearningRate any

	// Momentum is a number or a schedule.Schedule/schedule.Spec
	// (default 0.0).
	Momentum any

	// ScaleLearningRate must be exactly a bool when set (default true).
	// Any other type fails construction.
	ScaleLearningRate any
}

// NewMomentumStep creates a new momentum step.
func NewMomentumStep(cfg MomentumConfig) (*MomentumStep, error) {
	lr, err := resolveSchedule("learning_rate", cfg.LearningRate, DefaultLearningRate)
	if err != nil {
		return nil, err
	}
	mom, err := resolveSchedule("momentum", cfg.Momentum, DefaultMomentum)
	if err != nil {
		return nil, err
	}
	scale, err := resolveBool("scale_learning_rate", cfg.ScaleLearningRate, true)
	if err != nil {
		return nil, err
	}
	return &MomentumStep{
		learningRate:      lr,
		momentum:          mom,
		scaleLearningRate: scale,
	}, nil
}

// Start binds the network and allocates the velocity buffer with the
// parameter shape, zero-initialized.
func (s *MomentumStep) Start(n net.Network) {
	s.net = n
	s.velocity = n.Handler().Zeros(n.Buffer().Parameters.Shape())
}

// Run performs one momentum iteration and returns its loss.
func (s *MomentumStep) Run() float64 {
	learningRate, momentum := s.sample()

	s.net.ForwardPass(true)
	loss := s.net.LossValue()
	s.net.BackwardPass()

	h := s.net.Handler()
	buf := s.net.Buffer()
	h.MultST(momentum, s.velocity, s.velocity)
	h.MultAddST(-learningRate, buf.Gradients, s.velocity)
	h.AddTT(s.velocity, buf.Parameters, buf.Parameters)
	return loss
}

// Describe returns the persistable configuration.
func (s *MomentumStep) Describe() Description {
	lr := s.learningRate.Describe()
	mom := s.momentum.Describe()
	scale := s.scaleLearningRate
	return Description{
		Kind:              KindMomentum,
		LearningRate:      &lr,
		Momentum:          &mom,
		ScaleLearningRate: &scale,
	}
}

// Velocity exposes the step-owned velocity tensor, mainly for inspection.
func (s *MomentumStep) Velocity() *tensor.RawTensor {
	return s.velocity
}

// sample advances both schedules once and applies the scaling rule.
// Each schedule is advanced exactly once per Run.
func (s *MomentumStep) sample() (learningRate, momentum float64) {
	learningRate = s.learningRate.Next()
	momentum = s.momentum.Next()
	if s.scaleLearningRate {
		learningRate *= 1 - momentum
	}
	return learningRate, momentum
}
