package synthcore

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newQuantizerForTest(sampleRate float64) *quantizerNode {
	return newQuantizerNode(sampleRate, 64).(*quantizerNode)
}

func TestQuantizer_ChromaticRoundsToNearestSemitone(t *testing.T) {
	n := newQuantizerForTest(44100)
	require.NoError(t, n.SetParameter("scale", float32(quantizerScaleChromatic)))

	in := []float32{0.04} // 0.48 semitones, below the .5 rounding boundary
	out := make([]float32, 1)
	n.Process(Buffers{"cv_in": in}, Buffers{"cv_out": out})
	assert.InDelta(t, 0.0, out[0], 1e-5)
}

func TestQuantizer_MajorScaleSnapsOffScaleNoteUpward(t *testing.T) {
	n := newQuantizerForTest(44100)
	require.NoError(t, n.SetParameter("scale", float32(quantizerScaleMajor)))

	in := []float32{1.5 / 12} // halfway between C# (1, off-scale) and D (2, on-scale)
	out := make([]float32, 1)
	n.Process(Buffers{"cv_in": in}, Buffers{"cv_out": out})
	assert.InDelta(t, 2.0/12, out[0], 1e-5) // snaps up to the in-scale neighbor (D)
}

func TestQuantizer_TransposeShiftsScaleReference(t *testing.T) {
	in := []float32{1.5 / 12}

	withoutTranspose := newQuantizerForTest(44100)
	require.NoError(t, withoutTranspose.SetParameter("scale", float32(quantizerScaleMajor)))
	out1 := make([]float32, 1)
	withoutTranspose.Process(Buffers{"cv_in": in}, Buffers{"cv_out": out1})

	withTranspose := newQuantizerForTest(44100)
	require.NoError(t, withTranspose.SetParameter("scale", float32(quantizerScaleMajor)))
	require.NoError(t, withTranspose.SetParameter("transpose", 1))
	out2 := make([]float32, 1)
	withTranspose.Process(Buffers{"cv_in": in}, Buffers{"cv_out": out2})

	assert.NotEqual(t, out1[0], out2[0], "shifting transpose should change which in-scale neighbor is picked")
}

func TestQuantizer_SlewRateLimitsStepChange(t *testing.T) {
	n := newQuantizerForTest(44100)
	require.NoError(t, n.SetParameter("scale", float32(quantizerScaleChromatic)))
	require.NoError(t, n.SetParameter("slew_rate", 0.001))

	in := []float32{0, 1} // a large step from 0V to 1V (one octave)
	out := make([]float32, 2)
	n.Process(Buffers{"cv_in": in[0:1]}, Buffers{"cv_out": out[0:1]})
	n.Process(Buffers{"cv_in": in[1:2]}, Buffers{"cv_out": out[1:2]})

	assert.Less(t, out[1], float32(1.0), "slew-limited output should not jump straight to the target")
}

func TestQuantizer_CustomScaleUsesCustomTable(t *testing.T) {
	n := newQuantizerForTest(44100)
	require.NoError(t, n.SetParameter("scale", float32(quantizerScaleCustom)))
	for i := 0; i < 12; i++ {
		require.NoError(t, n.SetParameter(customParamName(i), 0))
	}
	require.NoError(t, n.SetParameter(customParamName(1), 1)) // only semitone 1 allowed

	in := []float32{0}
	out := make([]float32, 1)
	n.Process(Buffers{"cv_in": in}, Buffers{"cv_out": out})
	assert.InDelta(t, 1.0/12, out[0], 1e-5)
}

func TestQuantizer_InvalidScaleRejected(t *testing.T) {
	n := newQuantizerForTest(44100)
	assert.ErrorIs(t, n.SetParameter("scale", 8), ErrInvalidEnum)
	assert.ErrorIs(t, n.SetParameter("scale", 1.5), ErrInvalidEnum)
}

func TestQuantizer_PassThroughWhenInactive(t *testing.T) {
	n := newQuantizerForTest(44100)
	require.NoError(t, n.SetParameter("active", 0))
	in := []float32{0.37}
	out := make([]float32, 1)
	n.Process(Buffers{"cv_in": in}, Buffers{"cv_out": out})
	assert.Equal(t, float32(0.37), out[0])
}

func customParamName(i int) string {
	return "custom_" + strconv.Itoa(i)
}
