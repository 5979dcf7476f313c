// node_waveshaper.go - multi-curve distortion/saturation
//
// Grounded on original_source/src/nodes/waveshaper.rs's WaveshaperNode: all
// eight shaping curves, the pre/post one-pole lowpass filters, and the
// bias->drive->shape->filter->gain->clamp signal chain are carried
// unchanged in meaning.
package synthcore

import "math"

const (
	shapeTanh = iota
	shapeArcTan
	shapeSine
	shapeCubic
	shapeHardClip
	shapeSoftClip
	shapeTube
	shapeAsymmetric
)

type waveshaperNode struct {
	sampleRate float64

	active           float32
	drive            float32
	shapeType        float32
	shapeAmount      float32
	bias             float32
	outputGain       float32
	preFilterCutoff  float32
	postFilterCutoff float32

	preFilterState  float32
	postFilterState float32
}

func newWaveshaperNode(sampleRate float64, _ int) Node {
	return &waveshaperNode{
		sampleRate:       sampleRate,
		active:           1,
		drive:            1,
		shapeType:        shapeTanh,
		shapeAmount:      0.5,
		outputGain:       1,
		preFilterCutoff:  20000,
		postFilterCutoff: 20000,
	}
}

func init() {
	RegisterNodeType("waveshaper", newWaveshaperNode)
}

func (n *waveshaperNode) Describe() Descriptor {
	return Descriptor{
		TypeName: "waveshaper",
		Inputs:   []Port{{Name: "audio_in", Type: AudioMono}},
		Outputs:  []Port{{Name: "audio_out", Type: AudioMono}},
		Parameters: []ParameterRange{
			{Name: "drive", Min: 0.1, Max: 10, Default: 1},
			{Name: "shape_type", Min: 0, Max: 7, Default: shapeTanh},
			{Name: "shape_amount", Min: 0, Max: 1, Default: 0.5},
			{Name: "bias", Min: -1, Max: 1, Default: 0},
			{Name: "output_gain", Min: 0.1, Max: 2, Default: 1},
			{Name: "pre_filter_cutoff", Min: 20, Max: 20000, Default: 20000},
			{Name: "post_filter_cutoff", Min: 20, Max: 20000, Default: 20000},
			{Name: "active", Min: 0, Max: 1, Default: 1},
		},
	}
}

func sign32(v float32) float32 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

func (n *waveshaperNode) applyWaveshaping(input float32) float32 {
	biased := input + n.bias
	driven := biased * n.drive

	switch int(n.shapeType) {
	case shapeArcTan:
		amount := n.shapeAmount*5 + 1e-9
		return float32(math.Atan(float64(driven*amount)) / math.Atan(float64(amount)))
	case shapeSine:
		amount := n.shapeAmount
		sineShaped := float32(math.Sin(float64(driven) * math.Pi))
		return sineShaped*amount + driven*(1-amount)
	case shapeCubic:
		amount := n.shapeAmount
		cubic := driven - driven*driven*driven/3
		return cubic*amount + driven*(1-amount)
	case shapeHardClip:
		threshold := 1 - n.shapeAmount*0.8
		return clamp32(driven, -threshold, threshold)
	case shapeSoftClip:
		amount := n.shapeAmount*2 + 0.1
		if abs32(driven) < amount {
			return driven
		}
		return amount * sign32(driven)
	case shapeTube:
		amount := n.shapeAmount*3 + 0.1
		x := driven / amount
		if abs32(x) < 1 {
			return driven * (1 - x*x/3)
		}
		return (2.0 / 3.0) * amount * sign32(x)
	case shapeAsymmetric:
		posThreshold := 0.7 - n.shapeAmount*0.3
		negThreshold := 1.2 - n.shapeAmount*0.5
		switch {
		case driven > posThreshold:
			return posThreshold + (driven-posThreshold)*0.1
		case driven < -negThreshold:
			return -negThreshold + (driven+negThreshold)*0.1
		default:
			return driven
		}
	default: // tanh
		amount := n.shapeAmount * 10
		return float32(math.Tanh(float64(driven)))*amount + driven*(1-n.shapeAmount)
	}
}

func (n *waveshaperNode) onePoleLowpass(input, cutoff float32, state *float32) float32 {
	rc := 1 / (2 * math.Pi * float64(cutoff))
	dt := 1 / n.sampleRate
	alpha := float32(dt / (rc + dt))
	*state += alpha * (input - *state)
	return *state
}

func (n *waveshaperNode) Process(inputs Buffers, outputs Buffers) {
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
		preFiltered := n.onePoleLowpass(input, n.preFilterCutoff, &n.preFilterState)
		shaped := n.applyWaveshaping(preFiltered)
		postFiltered := n.onePoleLowpass(shaped, n.postFilterCutoff, &n.postFilterState)
		out[i] = clamp32(postFiltered*n.outputGain, -2, 2)
	}
}

func (n *waveshaperNode) SetParameter(name string, value float32) error {
	switch name {
	case "drive":
		n.drive = clamp32(value, 0.1, 10)
	case "shape_type":
		if value < 0 || value > 7 {
			return ErrInvalidEnum
		}
		n.shapeType = value
	case "shape_amount":
		n.shapeAmount = clamp32(value, 0, 1)
	case "bias":
		n.bias = clamp32(value, -1, 1)
	case "output_gain":
		n.outputGain = clamp32(value, 0.1, 2)
	case "pre_filter_cutoff":
		n.preFilterCutoff = clamp32(value, 20, 20000)
	case "post_filter_cutoff":
		n.postFilterCutoff = clamp32(value, 20, 20000)
	case "active":
		n.active = boolToF32(value != 0)
	default:
		return ErrUnknownParameter
	}
	return nil
}

func (n *waveshaperNode) GetParameter(name string) (float32, error) {
	switch name {
	case "drive":
		return n.drive, nil
	case "shape_type":
		return n.shapeType, nil
	case "shape_amount":
		return n.shapeAmount, nil
	case "bias":
		return n.bias, nil
	case "output_gain":
		return n.outputGain, nil
	case "pre_filter_cutoff":
		return n.preFilterCutoff, nil
	case "post_filter_cutoff":
		return n.postFilterCutoff, nil
	case "active":
		return n.active, nil
	default:
		return 0, ErrUnknownParameter
	}
}

func (n *waveshaperNode) Reset() {
	n.preFilterState = 0
	n.postFilterState = 0
}
