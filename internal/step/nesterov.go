package step

// NesterovStep implements stochastic gradient descent with a
// Nesterov-style momentum term.
//
// Unlike MomentumStep, the decayed velocity is applied to the parameters
// before the forward pass (the lookahead move), so gradients are evaluated
// at the momentum-shifted point. The scaled gradient is then accumulated
// into both the velocity and the parameters (the corrective move). One
// gradient evaluation per iteration.
type NesterovStep struct {
	MomentumStep
}

// NewNesterovStep creates a new Nesterov momentum step.
// Configuration and defaults are shared with MomentumStep.
func NewNesterovStep(cfg MomentumConfig) (*NesterovStep, error) {
	m, err := NewMomentumStep(cfg)
	if err != nil {
		return nil, err
	}
	return &NesterovStep{MomentumStep: *m}, nil
}

// Run performs one Nesterov iteration and returns its loss.
func (s *NesterovStep) Run() float64 {
	learningRate, momentum := s.sample()

	h := s.net.Handler()
	buf := s.net.Buffer()

	// Lookahead: move to the point the momentum would carry us to.
	h.MultST(momentum, s.velocity, s.velocity)
	h.AddTT(s.velocity, buf.Parameters, buf.Parameters)

	s.net.ForwardPass(true)
	loss := s.net.LossValue()
	s.net.BackwardPass()

	// Correction: gradients at the lookahead point update both the
	// velocity and the parameters.
	h.MultAddST(-learningRate, buf.Gradients, s.velocity)
	h.MultAddST(-learningRate, buf.Gradients, buf.Parameters)
	return loss
}

// Describe returns the persistable configuration.
func (s *NesterovStep) Describe() Description {
	d := s.MomentumStep.Describe()
	d.Kind = KindNesterov
	return d
}
