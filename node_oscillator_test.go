package synthcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOscForTest(sampleRate float64, blockSize int) *oscillatorNode {
	return newOscillatorNode(sampleRate, blockSize).(*oscillatorNode)
}

func TestOscillator_SilentWhenAmplitudeZero(t *testing.T) {
	n := newOscForTest(44100, 512)
	require.NoError(t, n.SetParameter("active", 1))
	require.NoError(t, n.SetParameter("amplitude", 0))

	out := make([]float32, 512)
	n.Process(Buffers{}, Buffers{"audio_out": out})

	for _, s := range out {
		assert.Equal(t, float32(0), s)
	}
}

func TestOscillator_SilentWhenInactive(t *testing.T) {
	n := newOscForTest(44100, 512)
	require.NoError(t, n.SetParameter("active", 0))
	require.NoError(t, n.SetParameter("amplitude", 1))

	out := make([]float32, 512)
	n.Process(Buffers{}, Buffers{"audio_out": out})

	for _, s := range out {
		assert.Equal(t, float32(0), s)
	}
}

func TestOscillator_BoundedAndZeroCrossingRate(t *testing.T) {
	const sampleRate = 44100.0
	n := newOscForTest(sampleRate, 512)
	require.NoError(t, n.SetParameter("active", 1))
	require.NoError(t, n.SetParameter("amplitude", 1))
	require.NoError(t, n.SetParameter("frequency", 440))
	require.NoError(t, n.SetParameter("waveform", waveSine))

	const totalSamples = int(sampleRate) // one second, across several blocks
	all := make([]float32, 0, totalSamples)
	for len(all) < totalSamples {
		out := make([]float32, 512)
		n.Process(Buffers{}, Buffers{"audio_out": out})
		all = append(all, out...)
	}
	all = all[:totalSamples]

	crossings := 0
	for i := 1; i < len(all); i++ {
		assert.GreaterOrEqual(t, all[i], float32(-1.0001))
		assert.LessOrEqual(t, all[i], float32(1.0001))
		if (all[i-1] < 0) != (all[i] < 0) {
			crossings++
		}
	}
	// 440Hz sine crosses zero twice per cycle -> ~880 crossings/sec.
	assert.InDelta(t, 880, crossings, 5)
}

func TestOscillator_UnknownParameter(t *testing.T) {
	n := newOscForTest(44100, 512)
	_, err := n.GetParameter("bogus")
	assert.ErrorIs(t, err, ErrUnknownParameter)
	assert.ErrorIs(t, n.SetParameter("bogus", 1), ErrUnknownParameter)
}

func TestOscillator_InvalidWaveformEnumRejected(t *testing.T) {
	n := newOscForTest(44100, 512)
	assert.ErrorIs(t, n.SetParameter("waveform", 7), ErrInvalidEnum)
}

func TestOscillator_WaveformCVSelectsWaveform(t *testing.T) {
	n := newOscForTest(44100, 512)
	require.NoError(t, n.SetParameter("active", 1))
	require.NoError(t, n.SetParameter("waveform", waveSine))

	waveformCV := make([]float32, 512)
	for i := range waveformCV {
		waveformCV[i] = 0.75 // floor(0.75*4) == 3 -> pulse
	}
	out := make([]float32, 512)
	n.Process(Buffers{"waveform_cv": waveformCV}, Buffers{"audio_out": out})

	assert.Equal(t, float32(wavePulse), n.waveform)
}

func TestOscillator_PulseWidthCVModulatesPulseWidth(t *testing.T) {
	n := newOscForTest(44100, 512)
	require.NoError(t, n.SetParameter("active", 1))
	require.NoError(t, n.SetParameter("waveform", wavePulse))
	require.NoError(t, n.SetParameter("pulse_width", 0.5))

	pwCV := make([]float32, 512)
	for i := range pwCV {
		pwCV[i] = 1 // 0.1 + 1*0.8 = 0.9, clamped to the declared max
	}
	out := make([]float32, 512)
	n.Process(Buffers{"pulse_width_cv": pwCV}, Buffers{"audio_out": out})

	assert.InDelta(t, 0.9, n.pulseWidth, 1e-6)
}

func TestOscillator_Reset(t *testing.T) {
	n := newOscForTest(44100, 512)
	require.NoError(t, n.SetParameter("active", 1))
	out := make([]float32, 64)
	n.Process(Buffers{}, Buffers{"audio_out": out})
	assert.NotEqual(t, float32(0), n.phase)

	n.Reset()
	assert.Equal(t, float32(0), n.phase)
}
