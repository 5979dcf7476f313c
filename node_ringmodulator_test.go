package synthcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRingModulatorForTest() *ringModulatorNode {
	return newRingModulatorNode(44100, 64).(*ringModulatorNode)
}

func TestRingModulator_MultipliesCarrierAndModulator(t *testing.T) {
	n := newRingModulatorForTest()
	require.NoError(t, n.SetParameter("mix", 1))

	carrier := []float32{0.5}
	modulator := []float32{0.5}
	out := make([]float32, 1)
	n.Process(Buffers{"carrier_in": carrier, "modulator_in": modulator}, Buffers{"audio_out": out})
	assert.InDelta(t, 0.25, out[0], 1e-6)
}

func TestRingModulator_ZeroMixIsDryCarrier(t *testing.T) {
	n := newRingModulatorForTest()
	require.NoError(t, n.SetParameter("mix", 0))

	carrier := []float32{0.7}
	modulator := []float32{0.9}
	out := make([]float32, 1)
	n.Process(Buffers{"carrier_in": carrier, "modulator_in": modulator}, Buffers{"audio_out": out})
	assert.InDelta(t, 0.7, out[0], 1e-6)
}

func TestRingModulator_PassThroughCarrierWhenInactive(t *testing.T) {
	n := newRingModulatorForTest()
	require.NoError(t, n.SetParameter("active", 0))

	carrier := []float32{0.42}
	out := make([]float32, 1)
	n.Process(Buffers{"carrier_in": carrier}, Buffers{"audio_out": out})
	assert.Equal(t, float32(0.42), out[0])
}

func TestRingModulator_GainsClamp(t *testing.T) {
	n := newRingModulatorForTest()
	require.NoError(t, n.SetParameter("carrier_gain", 10))
	v, err := n.GetParameter("carrier_gain")
	require.NoError(t, err)
	assert.Equal(t, float32(2), v)
}
