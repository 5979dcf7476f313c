// node_filter.go - RBJ cookbook biquad filter (direct form I)
//
// Grounded on original_source/src/nodes/filter.rs's VCFNode: the three
// biquad coefficient sets (lowpass/highpass/bandpass), the exp2-based
// 1V/oct cutoff CV scaling, the +cv*2 resonance CV scaling, and the
// "recompute coefficients only when the effective value moved enough to
// matter" dirty-flag are all carried across unchanged in meaning.
package synthcore

import "math"

const (
	filterLowpass = iota
	filterHighpass
	filterBandpass
)

type filterNode struct {
	sampleRate float64

	cutoff    float32
	resonance float32
	filter    float32
	active    float32

	x1, x2, y1, y2 float32
	a0, a1, a2     float32
	b1, b2         float32
	dirty          bool
}

func newFilterNode(sampleRate float64, _ int) Node {
	n := &filterNode{
		sampleRate: sampleRate,
		cutoff:     1000,
		resonance:  1,
		filter:     filterLowpass,
		active:     1,
		a0:         1,
		dirty:      true,
	}
	n.updateCoefficients()
	return n
}

func init() {
	RegisterNodeType("filter", newFilterNode)
}

func (n *filterNode) Describe() Descriptor {
	return Descriptor{
		TypeName: "filter",
		Inputs: []Port{
			{Name: "audio_in", Type: AudioMono},
			{Name: "cutoff_cv", Type: CV},
			{Name: "resonance_cv", Type: CV},
		},
		Outputs: []Port{{Name: "audio_out", Type: AudioMono}},
		Parameters: []ParameterRange{
			{Name: "cutoff_frequency", Min: 20, Max: 20000, Default: 1000},
			{Name: "resonance", Min: 0.1, Max: 10, Default: 1},
			{Name: "filter_type", Min: 0, Max: 2, Default: filterLowpass},
			{Name: "active", Min: 0, Max: 1, Default: 1},
		},
	}
}

func (n *filterNode) updateCoefficients() {
	if !n.dirty {
		return
	}
	omega := 2 * math.Pi * float64(n.cutoff) / n.sampleRate
	sinOmega := math.Sin(omega)
	cosOmega := math.Cos(omega)
	alpha := sinOmega / (2 * float64(n.resonance))

	var b0, b1, b2, a0, a1, a2 float64
	switch int(n.filter) {
	case filterHighpass:
		b0 = (1 + cosOmega) / 2
		b1 = -(1 + cosOmega)
		b2 = (1 + cosOmega) / 2
		a0 = 1 + alpha
		a1 = -2 * cosOmega
		a2 = 1 - alpha
	case filterBandpass:
		b0 = alpha
		b1 = 0
		b2 = -alpha
		a0 = 1 + alpha
		a1 = -2 * cosOmega
		a2 = 1 - alpha
	default: // lowpass
		b0 = (1 - cosOmega) / 2
		b1 = 1 - cosOmega
		b2 = (1 - cosOmega) / 2
		a0 = 1 + alpha
		a1 = -2 * cosOmega
		a2 = 1 - alpha
	}

	n.a0 = float32(b0 / a0)
	n.a1 = float32(b1 / a0)
	n.a2 = float32(b2 / a0)
	n.b1 = float32(a1 / a0)
	n.b2 = float32(a2 / a0)
	n.dirty = false
}

func (n *filterNode) processSample(input float32) float32 {
	n.updateCoefficients()
	output := n.a0*input + n.a1*n.x1 + n.a2*n.x2 - n.b1*n.y1 - n.b2*n.y2
	n.x2 = n.x1
	n.x1 = input
	n.y2 = n.y1
	n.y1 = output
	return output
}

func (n *filterNode) Process(inputs Buffers, outputs Buffers) {
	out := outputs["audio_out"]
	if out == nil {
		return
	}
	in := inputs["audio_in"]
	if n.active == 0 || len(in) == 0 {
		for i := range out {
			out[i] = 0
		}
		return
	}

	cutoffCV := inputs["cutoff_cv"]
	resCV := inputs["resonance_cv"]

	for i := range out {
		var input float32
		if i < len(in) {
			input = in[i]
		}

		effCutoff := n.cutoff
		if len(cutoffCV) > 0 {
			cv := float32(0)
			if i < len(cutoffCV) {
				cv = cutoffCV[i]
			}
			effCutoff = clamp32(n.cutoff*float32(math.Exp2(float64(cv))), 20, 20000)
		}
		effRes := n.resonance
		if len(resCV) > 0 {
			cv := float32(0)
			if i < len(resCV) {
				cv = resCV[i]
			}
			effRes = clamp32(n.resonance+cv*2, 0.1, 10)
		}

		if abs32(effCutoff-n.cutoff) > 0.1 {
			n.cutoff = effCutoff
			n.dirty = true
		}
		if abs32(effRes-n.resonance) > 0.01 {
			n.resonance = effRes
			n.dirty = true
		}

		out[i] = n.processSample(input)
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func (n *filterNode) SetParameter(name string, value float32) error {
	switch name {
	case "cutoff_frequency":
		n.cutoff = clamp32(value, 20, 20000)
		n.dirty = true
	case "resonance":
		n.resonance = clamp32(value, 0.1, 10)
		n.dirty = true
	case "filter_type":
		if value < 0 || value > 2 {
			return ErrInvalidEnum
		}
		n.filter = value
		n.dirty = true
	case "active":
		n.active = boolToF32(value != 0)
	default:
		return ErrUnknownParameter
	}
	return nil
}

func (n *filterNode) GetParameter(name string) (float32, error) {
	switch name {
	case "cutoff_frequency":
		return n.cutoff, nil
	case "resonance":
		return n.resonance, nil
	case "filter_type":
		return n.filter, nil
	case "active":
		return n.active, nil
	default:
		return 0, ErrUnknownParameter
	}
}

func (n *filterNode) Reset() {
	n.x1, n.x2, n.y1, n.y2 = 0, 0, 0, 0
}
