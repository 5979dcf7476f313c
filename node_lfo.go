// node_lfo.go - low-frequency oscillator
//
// Grounded on original_source/src/nodes/lfo.rs's LFONode: the 0-1 phase
// domain waveform formulas, the phase_offset wrap, and the once-per-block
// (not per-sample) CV read and random reseed are all carried unchanged in
// meaning — the Rust source samples frequency_cv/amplitude_cv only at index
// 0 and fills the entire output buffer from a single computed value, a
// deliberate block-rate rather than sample-rate modulation rate for this
// node specifically.
package synthcore

import "math"

const (
	lfoSine = iota
	lfoTriangle
	lfoSawtooth
	lfoSquare
	lfoRandom
)

type lfoNode struct {
	sampleRate float64

	frequency   float32
	amplitude   float32
	waveform    float32
	phaseOffset float32
	active      float32

	phase       float32
	lastPhase   float32
	randomValue float32
}

func newLFONode(sampleRate float64, _ int) Node {
	return &lfoNode{
		sampleRate: sampleRate,
		frequency:  1,
		amplitude:  1,
		waveform:   lfoSine,
	}
}

func init() {
	RegisterNodeType("lfo", newLFONode)
}

func (n *lfoNode) Describe() Descriptor {
	return Descriptor{
		TypeName: "lfo",
		Inputs: []Port{
			{Name: "frequency_cv", Type: CV},
			{Name: "amplitude_cv", Type: CV},
		},
		Outputs: []Port{{Name: "cv_out", Type: CV}},
		Parameters: []ParameterRange{
			{Name: "frequency", Min: 0.01, Max: 20, Default: 1},
			{Name: "amplitude", Min: 0, Max: 1, Default: 1},
			{Name: "waveform", Min: 0, Max: 4, Default: lfoSine},
			{Name: "phase_offset", Min: 0, Max: 1, Default: 0},
			{Name: "active", Min: 0, Max: 1, Default: 0},
		},
	}
}

func (n *lfoNode) generateSample() float32 {
	adjusted := n.phase + n.phaseOffset
	for adjusted >= 1 {
		adjusted -= 1
	}

	var raw float32
	switch int(n.waveform) {
	case lfoTriangle:
		if adjusted < 0.5 {
			raw = 4*adjusted - 1
		} else {
			raw = 3 - 4*adjusted
		}
	case lfoSawtooth:
		raw = 2*adjusted - 1
	case lfoSquare:
		if adjusted < 0.5 {
			raw = 1
		} else {
			raw = -1
		}
	case lfoRandom:
		if n.phase < n.lastPhase {
			seed := uint32(n.phase * 12345)
			seed = seed*1103515245 + 12345
			n.randomValue = float32(seed>>16&0x7fff)/16384.0 - 1
		}
		raw = n.randomValue
	default: // sine
		raw = float32(math.Sin(float64(adjusted) * 2 * math.Pi))
	}

	n.lastPhase = n.phase
	increment := n.frequency / float32(n.sampleRate)
	n.phase += increment
	for n.phase >= 1 {
		n.phase -= 1
	}

	return raw * n.amplitude
}

func (n *lfoNode) Process(inputs Buffers, outputs Buffers) {
	out := outputs["cv_out"]
	if out == nil {
		return
	}
	if n.active == 0 {
		for i := range out {
			out[i] = 0
		}
		return
	}

	freqCV := inputs["frequency_cv"]
	ampCV := inputs["amplitude_cv"]

	origFreq, origAmp := n.frequency, n.amplitude
	if len(freqCV) > 0 {
		n.frequency = origFreq + freqCV[0]*1000
	}
	if len(ampCV) > 0 {
		n.amplitude = clamp32(origAmp+ampCV[0]*0.1, 0, 1)
	}

	value := n.generateSample()
	for i := range out {
		out[i] = value
	}

	n.frequency, n.amplitude = origFreq, origAmp
}

func (n *lfoNode) SetParameter(name string, value float32) error {
	switch name {
	case "frequency":
		n.frequency = clamp32(value, 0.01, 20)
	case "amplitude":
		n.amplitude = clamp32(value, 0, 1)
	case "waveform":
		if value < 0 || value > 4 {
			return ErrInvalidEnum
		}
		n.waveform = value
	case "phase_offset":
		n.phaseOffset = clamp32(value, 0, 1)
	case "active":
		n.active = boolToF32(value != 0)
	default:
		return ErrUnknownParameter
	}
	return nil
}

func (n *lfoNode) GetParameter(name string) (float32, error) {
	switch name {
	case "frequency":
		return n.frequency, nil
	case "amplitude":
		return n.amplitude, nil
	case "waveform":
		return n.waveform, nil
	case "phase_offset":
		return n.phaseOffset, nil
	case "active":
		return n.active, nil
	default:
		return 0, ErrUnknownParameter
	}
}

func (n *lfoNode) Reset() {
	n.phase = 0
	n.lastPhase = 0
	n.randomValue = 0
}
