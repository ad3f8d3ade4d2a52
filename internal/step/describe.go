package step

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/nerve-ml/nerve/internal/schedule"
)

// Step kinds as they appear in serialized descriptions.
const (
	KindForward  = "forward"
	KindSgd      = "sgd"
	KindMomentum = "momentum"
	KindNesterov = "nesterov"
)

// Description is the persistable form of a training step.
//
// It holds configuration only: hyperparameter schedules reduced to their
// serializable specs plus plain flags. Environment-bound state (the network
// reference, the update/velocity tensors) is deliberately absent; it is
// rebuilt when the restored step is started on a network.
type Description struct {
	Kind              string         `json:"kind"`
	UseTrainingPass   bool           `json:"use_training_pass,omitempty"`
	LearningRate      *schedule.Spec `json:"learning_rate,omitempty"`
	Momentum          *schedule.Spec `json:"momentum,omitempty"`
	ScaleLearningRate *bool          `json:"scale_learning_rate,omitempty"`
}

// FromDescription reconstructs a training step from its description.
//
// Restoring is two-phase: the plain configuration comes from the
// description, then live schedules are rebuilt from their specs here.
// Auxiliary tensors are allocated later, on Start.
func FromDescription(d Description) (TrainingStep, error) {
	switch d.Kind {
	case KindForward:
		return NewForwardStep(ForwardConfig{UseTrainingPass: d.UseTrainingPass}), nil
	case KindSgd:
		return NewSgdStep(SgdConfig{LearningRate: specValue(d.LearningRate)})
	case KindMomentum:
		return NewMomentumStep(momentumConfig(d))
	case KindNesterov:
		return NewNesterovStep(momentumConfig(d))
	default:
		return nil, fmt.Errorf("step: unknown kind %q", d.Kind)
	}
}

// Save writes the step's description as JSON.
func Save(w io.Writer, s TrainingStep) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s.Describe()); err != nil {
		return fmt.Errorf("step: save: %w", err)
	}
	return nil
}

// Load reads a JSON description and reconstructs the step.
func Load(r io.Reader) (TrainingStep, error) {
	var d Description
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("step: load: %w", err)
	}
	return FromDescription(d)
}

func momentumConfig(d Description) MomentumConfig {
	return MomentumConfig{
		LearningRate:      specValue(d.LearningRate),
		Momentum:          specValue(d.Momentum),
		ScaleLearningRate: boolValue(d.ScaleLearningRate),
	}
}

// specValue unwraps an optional spec into a constructor argument;
// nil means "use the default".
func specValue(s *schedule.Spec) any {
	if s == nil {
		return nil
	}
	return *s
}

func boolValue(b *bool) any {
	if b == nil {
		return nil
	}
	return *b
}
