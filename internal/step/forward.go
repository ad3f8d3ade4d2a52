package step

import "github.com/nerve-ml/nerve/internal/net"

// ForwardStep only runs the forward pass and returns the loss. It does not
// train the network at all.
//
// This step is usually used for validation. If it is used during training,
// construct it with UseTrainingPass set to true so stochastic layers keep
// their training-time behavior.
type ForwardStep struct {
	net             net.Network
	useTrainingPass bool
}

// ForwardConfig holds configuration for ForwardStep.
type ForwardConfig struct {
	// UseTrainingPass selects training-mode forward passes (default false).
	UseTrainingPass bool
}

// NewForwardStep creates a forward-only evaluation step.
func NewForwardStep(cfg ForwardConfig) *ForwardStep {
	return &ForwardStep{useTrainingPass: cfg.UseTrainingPass}
}

// Start binds the network. ForwardStep owns no auxiliary tensors.
func (s *ForwardStep) Start(n net.Network) {
	s.net = n
}

// Run performs one forward pass and returns the loss.
// No gradients are computed and no buffers are mutated.
func (s *ForwardStep) Run() float64 {
	s.net.ForwardPass(s.useTrainingPass)
	return s.net.LossValue()
}

// Describe returns the persistable configuration.
func (s *ForwardStep) Describe() Description {
	return Description{
		Kind:            KindForward,
		UseTrainingPass: s.useTrainingPass,
	}
}
