package synthcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDelayForTest(sampleRate float64) *delayNode {
	return newDelayNode(sampleRate, 64).(*delayNode)
}

func TestDelay_ImpulseResponse(t *testing.T) {
	const sampleRate = 44100.0
	const delayMS = 10.0

	n := newDelayForTest(sampleRate)
	require.NoError(t, n.SetParameter("feedback", 0))
	require.NoError(t, n.SetParameter("mix", 1))
	require.NoError(t, n.SetParameter("delay_time", delayMS))

	expectedIndex := int(delayMS / 1000 * sampleRate)

	total := expectedIndex + 10
	in := make([]float32, total)
	in[0] = 1
	out := make([]float32, total)
	for i := 0; i < total; i++ {
		single := out[i : i+1]
		n.Process(Buffers{"audio_in": in[i : i+1]}, Buffers{"audio_out": single})
	}

	assert.InDelta(t, 1.0, out[expectedIndex], 0.01)
	for i, s := range out {
		if i != expectedIndex {
			assert.InDelta(t, 0, s, 1e-6, "unexpected energy at sample %d", i)
		}
	}
}

func TestDelay_PassThroughWhenInactive(t *testing.T) {
	n := newDelayForTest(44100)
	require.NoError(t, n.SetParameter("active", 0))
	in := []float32{0.25}
	out := make([]float32, 1)
	n.Process(Buffers{"audio_in": in}, Buffers{"audio_out": out})
	assert.Equal(t, float32(0.25), out[0])
}

func TestDelay_FeedbackHardCapped(t *testing.T) {
	n := newDelayForTest(44100)
	require.NoError(t, n.SetParameter("feedback", 5))
	v, err := n.GetParameter("feedback")
	require.NoError(t, err)
	assert.Equal(t, float32(0.95), v)
}

func TestDelay_Reset(t *testing.T) {
	n := newDelayForTest(44100)
	in := []float32{1, 1, 1, 1}
	out := make([]float32, 4)
	n.Process(Buffers{"audio_in": in}, Buffers{"audio_out": out})

	n.Reset()
	for _, s := range n.buffer {
		assert.Equal(t, float32(0), s)
	}
	assert.Equal(t, 0, n.position)
}
