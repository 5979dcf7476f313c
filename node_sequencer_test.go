package synthcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSequencerForTest(sampleRate float64) *sequencerNode {
	return newSequencerNode(sampleRate, 64).(*sequencerNode)
}

func TestSequencer_SilentUntilStarted(t *testing.T) {
	n := newSequencerForTest(44100)
	out := make([]float32, 4)
	gate := make([]float32, 4)
	n.Process(Buffers{}, Buffers{"note_cv": out, "gate_cv": gate})
	for _, s := range out {
		assert.Equal(t, float32(0), s)
	}
	for _, s := range gate {
		assert.Equal(t, float32(0), s)
	}
}

func TestSequencer_FirstStepMatchesDefaultScaleRoot(t *testing.T) {
	n := newSequencerForTest(44100)
	require.NoError(t, n.SetParameter("running", 1))

	out := make([]float32, 1)
	gate := make([]float32, 1)
	vel := make([]float32, 1)
	n.Process(Buffers{}, Buffers{"note_cv": out, "gate_cv": gate, "velocity_cv": vel})

	assert.InDelta(t, 0, out[0], 1e-4, "C4 is the 1V/oct reference, so its CV should be 0")
	assert.Equal(t, float32(5), gate[0])
	assert.InDelta(t, 8.0, vel[0], 1e-4)
}

func TestSequencer_AdvancesStepAfterSamplesPerStep(t *testing.T) {
	const sampleRate = 44100.0
	n := newSequencerForTest(sampleRate)
	require.NoError(t, n.SetParameter("bpm", 120))
	require.NoError(t, n.SetParameter("running", 1))

	samplesPerStep := n.samplesPerStep
	out := make([]float32, samplesPerStep+1)
	n.Process(Buffers{}, Buffers{"note_cv": out})

	assert.Equal(t, 1, n.currentStep)
}

func TestSequencer_ResetReturnsToStepZero(t *testing.T) {
	n := newSequencerForTest(44100)
	require.NoError(t, n.SetParameter("running", 1))
	out := make([]float32, n.samplesPerStep*3)
	n.Process(Buffers{}, Buffers{"note_cv": out})
	assert.NotEqual(t, 0, n.currentStep)

	require.NoError(t, n.SetParameter("reset", 1))
	assert.Equal(t, 0, n.currentStep)
}

func TestSequencer_StepCountClampedToValidRange(t *testing.T) {
	n := newSequencerForTest(44100)
	require.NoError(t, n.SetParameter("step_count", 99))
	assert.Equal(t, seqMaxSteps, n.stepCount)

	require.NoError(t, n.SetParameter("step_count", 0))
	assert.Equal(t, 1, n.stepCount)
}

func TestSequencer_StepParameterRoundTrip(t *testing.T) {
	n := newSequencerForTest(44100)
	require.NoError(t, n.SetParameter("step_0_note", 440))
	v, err := n.GetParameter("step_0_note")
	require.NoError(t, err)
	assert.Equal(t, float32(440), v)

	require.NoError(t, n.SetParameter("step_0_gate", 0))
	v, err = n.GetParameter("step_0_gate")
	require.NoError(t, err)
	assert.Equal(t, float32(0), v)
}

func TestSequencer_UnknownStepIndexRejected(t *testing.T) {
	n := newSequencerForTest(44100)
	assert.ErrorIs(t, n.SetParameter("step_99_note", 1), ErrUnknownParameter)
}

func TestSequencer_Reset(t *testing.T) {
	n := newSequencerForTest(44100)
	require.NoError(t, n.SetParameter("running", 1))
	n.Reset()
	assert.False(t, n.running)
	assert.Equal(t, 0, n.currentStep)
}
