package step_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerve-ml/nerve/internal/handler/cpu"
	"github.com/nerve-ml/nerve/internal/net"
	"github.com/nerve-ml/nerve/internal/schedule"
	"github.com/nerve-ml/nerve/internal/step"
	"github.com/nerve-ml/nerve/internal/tensor"
)

// mockNetwork scripts gradients and losses so update algebra can be
// checked exactly.
type mockNetwork struct {
	handler tensor.Handler
	buffer  *net.Buffer

	gradients []float64 // written into the gradient buffer on every backward pass
	losses    []float64 // loss per forward pass; the last value repeats

	forwardCalls  int
	backwardCalls int
	trainingFlags []bool
}

func newMockNetwork(t *testing.T, params, gradients []float64, losses ...float64) *mockNetwork {
	t.Helper()

	h := cpu.New()
	p, err := tensor.FromSlice(params, tensor.Shape{len(params)})
	require.NoError(t, err)

	if len(losses) == 0 {
		losses = []float64{0}
	}
	return &mockNetwork{
		handler: h,
		buffer: &net.Buffer{
			Parameters: p,
			Gradients:  h.Zeros(tensor.Shape{len(params)}),
		},
		gradients: gradients,
		losses:    losses,
	}
}

func (m *mockNetwork) ForwardPass(trainingPass bool) {
	m.forwardCalls++
	m.trainingFlags = append(m.trainingFlags, trainingPass)
}

func (m *mockNetwork) BackwardPass() {
	m.backwardCalls++
	copy(m.buffer.Gradients.Data(), m.gradients)
}

func (m *mockNetwork) LossValue() float64 {
	i := m.forwardCalls - 1
	if i >= len(m.losses) {
		i = len(m.losses) - 1
	}
	return m.losses[i]
}

func (m *mockNetwork) Handler() tensor.Handler { return m.handler }

func (m *mockNetwork) Buffer() *net.Buffer { return m.buffer }

func params(m *mockNetwork) []float64 { return m.buffer.Parameters.Data() }

func TestForwardStep(t *testing.T) {
	n := newMockNetwork(t, []float64{1.0, 2.0}, []float64{1.0, 1.0}, 0.42)

	s := step.NewForwardStep(step.ForwardConfig{})
	s.Start(n)

	loss := s.Run()
	assert.Equal(t, 0.42, loss)
	assert.Equal(t, 1, n.forwardCalls)
	assert.Equal(t, []bool{false}, n.trainingFlags, "defaults to inference mode")
	assert.Zero(t, n.backwardCalls, "no gradient computation")
	assert.Equal(t, []float64{1.0, 2.0}, params(n), "no parameter mutation")
}

func TestForwardStep_TrainingPass(t *testing.T) {
	n := newMockNetwork(t, []float64{1.0}, []float64{1.0})

	s := step.NewForwardStep(step.ForwardConfig{UseTrainingPass: true})
	s.Start(n)
	s.Run()

	assert.Equal(t, []bool{true}, n.trainingFlags)
}

func TestSgdStep_SingleRun(t *testing.T) {
	// lr=0.1, params=[1, 2], gradients=[1, 1]
	// After one run: params=[0.9, 1.9], update=[-0.1, -0.1].
	n := newMockNetwork(t, []float64{1.0, 2.0}, []float64{1.0, 1.0}, 0.5)

	s, err := step.NewSgdStep(step.SgdConfig{LearningRate: 0.1})
	require.NoError(t, err)
	s.Start(n)

	loss := s.Run()
	assert.Equal(t, 0.5, loss)
	assert.InDeltaSlice(t, []float64{0.9, 1.9}, params(n), 1e-12)
	assert.InDeltaSlice(t, []float64{-0.1, -0.1}, s.Update().Data(), 1e-12)

	assert.Equal(t, 1, n.forwardCalls)
	assert.Equal(t, 1, n.backwardCalls)
	assert.Equal(t, []bool{true}, n.trainingFlags, "SGD always trains")
}

func TestSgdStep_UpdateIsOverwrittenNotAccumulated(t *testing.T) {
	n := newMockNetwork(t, []float64{1.0}, []float64{1.0})

	s, err := step.NewSgdStep(step.SgdConfig{LearningRate: 0.1})
	require.NoError(t, err)
	s.Start(n)

	s.Run()
	s.Run()
	assert.InDeltaSlice(t, []float64{-0.1}, s.Update().Data(), 1e-12)
	assert.InDeltaSlice(t, []float64{0.8}, params(n), 1e-12)
}

func TestSgdStep_DefaultLearningRate(t *testing.T) {
	n := newMockNetwork(t, []float64{1.0}, []float64{1.0})

	s, err := step.NewSgdStep(step.SgdConfig{})
	require.NoError(t, err)
	s.Start(n)
	s.Run()

	assert.InDeltaSlice(t, []float64{0.9}, params(n), 1e-12)
}

func TestSgdStep_ScheduledLearningRate(t *testing.T) {
	n := newMockNetwork(t, []float64{1.0}, []float64{1.0})

	lr, err := schedule.NewMultiStep([]float64{0.1, 0.01}, []int{1})
	require.NoError(t, err)

	s, err := step.NewSgdStep(step.SgdConfig{LearningRate: lr})
	require.NoError(t, err)
	s.Start(n)

	s.Run()
	assert.InDeltaSlice(t, []float64{0.9}, params(n), 1e-12)
	s.Run()
	assert.InDeltaSlice(t, []float64{0.89}, params(n), 1e-12)
}

func TestMomentumStep_SingleRun_Unscaled(t *testing.T) {
	// lr=0.1, momentum=0.5, no scaling. Velocity starts at zero, so after
	// one run velocity=[-0.1, -0.1] and parameters drop by 0.1 each.
	n := newMockNetwork(t, []float64{1.0, 2.0}, []float64{1.0, 1.0})

	s, err := step.NewMomentumStep(step.MomentumConfig{
		LearningRate:      0.1,
		Momentum:          0.5,
		ScaleLearningRate: false,
	})
	require.NoError(t, err)
	s.Start(n)

	s.Run()
	assert.InDeltaSlice(t, []float64{-0.1, -0.1}, s.Velocity().Data(), 1e-12)
	assert.InDeltaSlice(t, []float64{0.9, 1.9}, params(n), 1e-12)
}

func TestMomentumStep_VelocityDecay(t *testing.T) {
	n := newMockNetwork(t, []float64{1.0}, []float64{1.0})

	s, err := step.NewMomentumStep(step.MomentumConfig{
		LearningRate:      0.1,
		Momentum:          0.5,
		ScaleLearningRate: false,
	})
	require.NoError(t, err)
	s.Start(n)

	s.Run()
	// velocity = 0.5*(-0.1) - 0.1 = -0.15
	s.Run()
	assert.InDeltaSlice(t, []float64{-0.15}, s.Velocity().Data(), 1e-12)
	assert.InDeltaSlice(t, []float64{0.75}, params(n), 1e-12)
}

func TestMomentumStep_ZeroMomentumReducesToSgd(t *testing.T) {
	grads := []float64{0.5, -1.0, 2.0}
	start := []float64{1.0, 2.0, 3.0}

	sgdNet := newMockNetwork(t, start, grads)
	momNet := newMockNetwork(t, start, grads)

	sgd, err := step.NewSgdStep(step.SgdConfig{LearningRate: 0.1})
	require.NoError(t, err)
	mom, err := step.NewMomentumStep(step.MomentumConfig{LearningRate: 0.1, Momentum: 0.0})
	require.NoError(t, err)

	sgd.Start(sgdNet)
	mom.Start(momNet)

	for i := 0; i < 5; i++ {
		sgd.Run()
		mom.Run()
		assert.InDeltaSlice(t, params(sgdNet), params(momNet), 1e-12, "iteration %d", i)
	}
}

func TestMomentumStep_ScaleLearningRate(t *testing.T) {
	// With scaling, the effective learning rate is lr*(1-momentum):
	// 0.1 * (1-0.5) = 0.05.
	n := newMockNetwork(t, []float64{1.0}, []float64{1.0})

	s, err := step.NewMomentumStep(step.MomentumConfig{
		LearningRate: 0.1,
		Momentum:     0.5,
	})
	require.NoError(t, err)
	s.Start(n)

	s.Run()
	assert.InDeltaSlice(t, []float64{-0.05}, s.Velocity().Data(), 1e-12)
	assert.InDeltaSlice(t, []float64{0.95}, params(n), 1e-12)
}

func TestMomentumStep_ScalingUsesSameSample(t *testing.T) {
	// Momentum jumps from 0 to 0.5 on the second iteration; the scaling
	// must use the value sampled in that same iteration.
	n := newMockNetwork(t, []float64{1.0}, []float64{1.0})

	mom, err := schedule.NewMultiStep([]float64{0.0, 0.5}, []int{1})
	require.NoError(t, err)

	s, err := step.NewMomentumStep(step.MomentumConfig{
		LearningRate: 0.1,
		Momentum:     mom,
	})
	require.NoError(t, err)
	s.Start(n)

	s.Run()
	// Iteration 1: momentum=0, effective lr=0.1, velocity=-0.1.
	assert.InDeltaSlice(t, []float64{-0.1}, s.Velocity().Data(), 1e-12)

	s.Run()
	// Iteration 2: momentum=0.5, effective lr=0.05.
	// velocity = 0.5*(-0.1) - 0.05 = -0.1.
	assert.InDeltaSlice(t, []float64{-0.1}, s.Velocity().Data(), 1e-12)
}

func TestMomentumStep_RejectsNonBoolScaleFlag(t *testing.T) {
	for _, bad := range []any{1, "yes", 0.0} {
		_, err := step.NewMomentumStep(step.MomentumConfig{ScaleLearningRate: bad})
		assert.Error(t, err, "%v (%T) must be rejected", bad, bad)
	}
}

func TestNesterovStep_RejectsNonBoolScaleFlag(t *testing.T) {
	for _, bad := range []any{1, "yes"} {
		_, err := step.NewNesterovStep(step.MomentumConfig{ScaleLearningRate: bad})
		assert.Error(t, err, "%v (%T) must be rejected", bad, bad)
	}
}

func TestMomentumStep_RejectsNonNumericSchedules(t *testing.T) {
	_, err := step.NewMomentumStep(step.MomentumConfig{LearningRate: "fast"})
	assert.Error(t, err)

	_, err = step.NewMomentumStep(step.MomentumConfig{Momentum: []float64{0.9}})
	assert.Error(t, err)
}

func TestNesterovStep_TwoIterations(t *testing.T) {
	// lr=0.1, momentum=0.5, no scaling, constant gradients [1].
	// Iteration 1: v=0, lookahead no-op, v=-0.1, p=1-0.1=0.9.
	// Iteration 2: v=-0.05, p=0.85 before forward, then v=-0.15, p=0.75.
	n := newMockNetwork(t, []float64{1.0}, []float64{1.0})

	s, err := step.NewNesterovStep(step.MomentumConfig{
		LearningRate:      0.1,
		Momentum:          0.5,
		ScaleLearningRate: false,
	})
	require.NoError(t, err)
	s.Start(n)

	s.Run()
	assert.InDeltaSlice(t, []float64{-0.1}, s.Velocity().Data(), 1e-12)
	assert.InDeltaSlice(t, []float64{0.9}, params(n), 1e-12)

	s.Run()
	assert.InDeltaSlice(t, []float64{-0.15}, s.Velocity().Data(), 1e-12)
	assert.InDeltaSlice(t, []float64{0.75}, params(n), 1e-12)
}

func TestNesterovStep_LookaheadHappensBeforeForward(t *testing.T) {
	// A network that records its parameters at forward time shows the
	// momentum move applied before the gradient evaluation.
	n := newMockNetwork(t, []float64{1.0}, []float64{1.0})
	var seenAtForward []float64
	rec := &recordingNetwork{mockNetwork: n, onForward: func() {
		seenAtForward = append(seenAtForward, n.buffer.Parameters.Data()[0])
	}}

	s, err := step.NewNesterovStep(step.MomentumConfig{
		LearningRate:      0.1,
		Momentum:          0.5,
		ScaleLearningRate: false,
	})
	require.NoError(t, err)
	s.Start(rec)

	s.Run()
	s.Run()

	// First forward sees the unmoved parameters; second one sees the
	// lookahead point 0.9 + 0.5*(-0.1) = 0.85.
	assert.InDeltaSlice(t, []float64{1.0, 0.85}, seenAtForward, 1e-12)
}

func TestNesterovStep_ZeroMomentumReducesToSgd(t *testing.T) {
	grads := []float64{2.0, -0.5}
	start := []float64{1.0, 1.0}

	sgdNet := newMockNetwork(t, start, grads)
	nesNet := newMockNetwork(t, start, grads)

	sgd, err := step.NewSgdStep(step.SgdConfig{LearningRate: 0.1})
	require.NoError(t, err)
	nes, err := step.NewNesterovStep(step.MomentumConfig{LearningRate: 0.1, Momentum: 0.0})
	require.NoError(t, err)

	sgd.Start(sgdNet)
	nes.Start(nesNet)

	for i := 0; i < 5; i++ {
		sgd.Run()
		nes.Run()
		assert.InDeltaSlice(t, params(sgdNet), params(nesNet), 1e-12, "iteration %d", i)
	}
}

func TestAuxiliaryTensorShapeAndZeroing(t *testing.T) {
	n := newMockNetwork(t, []float64{1.0, 2.0, 3.0}, []float64{0, 0, 0})

	sgd, err := step.NewSgdStep(step.SgdConfig{})
	require.NoError(t, err)
	sgd.Start(n)
	assert.True(t, sgd.Update().Shape().Equal(n.buffer.Parameters.Shape()))
	assert.Equal(t, []float64{0, 0, 0}, sgd.Update().Data())

	mom, err := step.NewMomentumStep(step.MomentumConfig{})
	require.NoError(t, err)
	mom.Start(n)
	assert.True(t, mom.Velocity().Shape().Equal(n.buffer.Parameters.Shape()))
	assert.Equal(t, []float64{0, 0, 0}, mom.Velocity().Data())
}

func TestRunBeforeStartPanics(t *testing.T) {
	sgd, err := step.NewSgdStep(step.SgdConfig{})
	require.NoError(t, err)
	mom, err := step.NewMomentumStep(step.MomentumConfig{})
	require.NoError(t, err)
	nes, err := step.NewNesterovStep(step.MomentumConfig{})
	require.NoError(t, err)

	steps := map[string]step.TrainingStep{
		"forward":  step.NewForwardStep(step.ForwardConfig{}),
		"sgd":      sgd,
		"momentum": mom,
		"nesterov": nes,
	}

	for name, s := range steps {
		t.Run(name, func(t *testing.T) {
			assert.Panics(t, func() { s.Run() })
		})
	}
}

func TestDeterminism(t *testing.T) {
	build := func() (step.TrainingStep, *mockNetwork) {
		n := newMockNetwork(t, []float64{1.0, -2.0}, []float64{0.3, -0.7})
		s, err := step.NewMomentumStep(step.MomentumConfig{
			LearningRate: 0.05,
			Momentum:     0.9,
		})
		require.NoError(t, err)
		s.Start(n)
		return s, n
	}

	s1, n1 := build()
	s2, n2 := build()

	for i := 0; i < 20; i++ {
		s1.Run()
		s2.Run()
		assert.Equal(t, params(n1), params(n2), "iteration %d", i)
	}
}

func TestSchedulesAdvanceOncePerRun(t *testing.T) {
	n := newMockNetwork(t, []float64{1.0}, []float64{1.0})

	lr := &countingSchedule{value: 0.1}
	mom := &countingSchedule{value: 0.5}

	s, err := step.NewMomentumStep(step.MomentumConfig{LearningRate: lr, Momentum: mom})
	require.NoError(t, err)
	s.Start(n)

	for i := 0; i < 7; i++ {
		s.Run()
	}
	assert.Equal(t, 7, lr.calls)
	assert.Equal(t, 7, mom.calls)
}

// recordingNetwork wraps mockNetwork to observe parameter state at
// forward time.
type recordingNetwork struct {
	*mockNetwork
	onForward func()
}

func (r *recordingNetwork) ForwardPass(trainingPass bool) {
	r.onForward()
	r.mockNetwork.ForwardPass(trainingPass)
}

// countingSchedule counts Next calls.
type countingSchedule struct {
	value float64
	calls int
}

func (c *countingSchedule) Next() float64 {
	c.calls++
	return c.value
}

func (c *countingSchedule) Describe() schedule.Spec {
	return schedule.Spec{Type: "constant", Value: c.value}
}
