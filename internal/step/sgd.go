package step

import (
	"github.com/nerve-ml/nerve/internal/net"
	"github.com/nerve-ml/nerve/internal/schedule"
	"github.com/nerve-ml/nerve/internal/tensor"
)

// SgdStep implements plain stochastic gradient descent.
//
// Update rule per iteration:
//
//	update = -lr * gradients
//	parameters += update
//
// The learning rate may be a constant or any schedule; it is sampled once
// per Run.
type SgdStep struct {
	net          net.Network
	learningRate schedule.Schedule
	update       *tensor.RawTensor
}

// SgdConfig holds configuration for SgdStep.
type SgdConfig struct {
	// LearningRate is a number or a schedule.Schedule/schedule.Spec
	// (default 0.1).
	LearningRate any
}

// NewSgdStep creates a new SGD step.
func NewSgdStep(cfg SgdConfig) (*SgdStep, error) {
	lr, err := resolveSchedule("learning_rate", cfg.LearningRate, DefaultLearningRate)
	if err != nil {
		return nil, err
	}
	return &SgdStep{learningRate: lr}, nil
}

// Start binds the network and allocates the update buffer with the
// parameter shape. The buffer is reused across every Run.
func (s *SgdStep) Start(n net.Network) {
	s.net = n
	s.update = n.Handler().Zeros(n.Buffer().Parameters.Shape())
}

// Run performs one SGD iteration and returns its loss.
func (s *SgdStep) Run() float64 {
	learningRate := s.learningRate.Next()

	s.net.ForwardPass(true)
	loss := s.net.LossValue()
	s.net.BackwardPass()

	h := s.net.Handler()
	buf := s.net.Buffer()
	h.MultST(-learningRate, buf.Gradients, s.update)
	h.AddTT(s.update, buf.Parameters, buf.Parameters)
	return loss
}

// Describe returns the persistable configuration.
func (s *SgdStep) Describe() Description {
	lr := s.learningRate.Describe()
	return Description{
		Kind:         KindSgd,
		LearningRate: &lr,
	}
}

// Update exposes the step-owned update tensor, mainly for inspection.
func (s *SgdStep) Update() *tensor.RawTensor {
	return s.update
}
