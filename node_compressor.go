// node_compressor.go - dB-domain dynamics compressor with optional limiter
//
// Grounded on original_source/src/nodes/compressor.rs's CompressorNode: the
// exponential envelope follower coefficients, the soft/hard-knee gain
// reduction formula, makeup gain, the post-compression limiter stage, and
// the gain_reduction CV output (scaled /10 for a reasonable CV range) are
// all carried unchanged in meaning.
package synthcore

import "math"

type compressorNode struct {
	sampleRate float64

	active           float32
	threshold        float32
	ratio            float32
	attack           float32
	release          float32
	knee             float32
	makeupGain       float32
	limiterMode      float32
	limiterThreshold float32

	envelope      float32
	gainReduction float32
	attackCoeff   float32
	releaseCoeff  float32
}

func newCompressorNode(sampleRate float64, _ int) Node {
	n := &compressorNode{
		sampleRate:       sampleRate,
		active:           1,
		threshold:        -20,
		ratio:            4,
		attack:           0.003,
		release:          0.1,
		knee:             2,
		limiterThreshold: -0.1,
	}
	n.updateCoefficients()
	return n
}

func init() {
	RegisterNodeType("compressor", newCompressorNode)
}

func (n *compressorNode) updateCoefficients() {
	n.attackCoeff = float32(math.Exp(-1 / (float64(n.attack) * n.sampleRate)))
	n.releaseCoeff = float32(math.Exp(-1 / (float64(n.release) * n.sampleRate)))
}

func (n *compressorNode) Describe() Descriptor {
	return Descriptor{
		TypeName: "compressor",
		Inputs:   []Port{{Name: "audio_in", Type: AudioMono}},
		Outputs: []Port{
			{Name: "audio_out", Type: AudioMono},
			{Name: "gain_reduction_out", Type: CV},
		},
		Parameters: []ParameterRange{
			{Name: "threshold", Min: -60, Max: 0, Default: -20},
			{Name: "ratio", Min: 1, Max: 20, Default: 4},
			{Name: "attack", Min: 0.0001, Max: 1, Default: 0.003},
			{Name: "release", Min: 0.001, Max: 10, Default: 0.1},
			{Name: "knee", Min: 0, Max: 10, Default: 2},
			{Name: "makeup_gain", Min: -20, Max: 20, Default: 0},
			{Name: "limiter_mode", Min: 0, Max: 1, Default: 0},
			{Name: "limiter_threshold", Min: -20, Max: 0, Default: -0.1},
			{Name: "active", Min: 0, Max: 1, Default: 1},
		},
	}
}

func linearToDB(linear float32) float32 {
	if linear > 0 {
		return 20 * float32(math.Log10(float64(linear)))
	}
	return -100
}

func dbToLinear(db float32) float32 {
	return float32(math.Pow(10, float64(db)/20))
}

func (n *compressorNode) processSample(input float32) float32 {
	inputDB := linearToDB(abs32(input))

	if inputDB > n.envelope {
		n.envelope = inputDB + (n.envelope-inputDB)*n.attackCoeff
	} else {
		n.envelope = inputDB + (n.envelope-inputDB)*n.releaseCoeff
	}

	over := n.envelope - n.threshold
	var gain float32
	if over > 0 {
		if n.knee > 0 && over < n.knee {
			kneeRatio := over / n.knee
			softRatio := 1 + (n.ratio-1)*kneeRatio*kneeRatio
			gain = -over * (1 - 1/softRatio)
		} else {
			gain = -over * (1 - 1/n.ratio)
		}
	}
	n.gainReduction = gain

	output := input * dbToLinear(gain)
	output *= dbToLinear(n.makeupGain)

	if n.limiterMode != 0 {
		outputDB := linearToDB(abs32(output))
		if outputDB > n.limiterThreshold {
			output *= dbToLinear(n.limiterThreshold - outputDB)
		}
	}

	return output
}

func (n *compressorNode) Process(inputs Buffers, outputs Buffers) {
	out := outputs["audio_out"]
	if out == nil {
		return
	}
	in := inputs["audio_in"]

	if n.active == 0 {
		copy(out, in)
		for i := len(in); i < len(out); i++ {
			out[i] = 0
		}
		return
	}

	for i := range out {
		var input float32
		if i < len(in) {
			input = in[i]
		}
		out[i] = n.processSample(input)
	}

	if gr := outputs["gain_reduction_out"]; gr != nil {
		for i := range gr {
			gr[i] = n.gainReduction / 10
		}
	}
}

func (n *compressorNode) SetParameter(name string, value float32) error {
	switch name {
	case "threshold":
		n.threshold = clamp32(value, -60, 0)
	case "ratio":
		n.ratio = clamp32(value, 1, 20)
	case "attack":
		n.attack = clamp32(value, 0.0001, 1)
		n.updateCoefficients()
	case "release":
		n.release = clamp32(value, 0.001, 10)
		n.updateCoefficients()
	case "knee":
		n.knee = clamp32(value, 0, 10)
	case "makeup_gain":
		n.makeupGain = clamp32(value, -20, 20)
	case "limiter_mode":
		n.limiterMode = boolToF32(value != 0)
	case "limiter_threshold":
		n.limiterThreshold = clamp32(value, -20, 0)
	case "active":
		n.active = boolToF32(value != 0)
	default:
		return ErrUnknownParameter
	}
	return nil
}

func (n *compressorNode) GetParameter(name string) (float32, error) {
	switch name {
	case "threshold":
		return n.threshold, nil
	case "ratio":
		return n.ratio, nil
	case "attack":
		return n.attack, nil
	case "release":
		return n.release, nil
	case "knee":
		return n.knee, nil
	case "makeup_gain":
		return n.makeupGain, nil
	case "limiter_mode":
		return n.limiterMode, nil
	case "limiter_threshold":
		return n.limiterThreshold, nil
	case "gain_reduction":
		return n.gainReduction, nil
	case "active":
		return n.active, nil
	default:
		return 0, ErrUnknownParameter
	}
}

func (n *compressorNode) Reset() {
	n.envelope = 0
	n.gainReduction = 0
}
