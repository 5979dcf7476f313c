// node_oscillator.go - phase-accumulator oscillator
//
// Grounded on original_source/src/nodes/oscillator.rs's OscillatorNode: the
// four waveform formulas, the linear CV-to-Hz scaling (+cv*1000Hz), the
// amplitude CV scaling (cv*0.1, clamped 0-1), and phase-wrap-on-overflow are
// carried unchanged in meaning. Waveform is exposed as a numeric parameter
// (0=sine,1=triangle,2=sawtooth,3=pulse) since SetParameter only accepts
// float32, mirroring how oscillator.rs keeps a Rust enum behind a
// from_string/to_string pair at the boundary.
package synthcore

import "math"

const (
	waveSine = iota
	waveTriangle
	waveSawtooth
	wavePulse
)

type oscillatorNode struct {
	sampleRate float64

	frequency  float32
	amplitude  float32
	waveform   float32
	pulseWidth float32
	active     float32

	phase float32
}

func newOscillatorNode(sampleRate float64, _ int) Node {
	return &oscillatorNode{
		sampleRate: sampleRate,
		frequency:  440,
		amplitude:  0.5,
		waveform:   waveSine,
		pulseWidth: 0.5,
	}
}

func init() {
	RegisterNodeType("oscillator", newOscillatorNode)
}

func (n *oscillatorNode) Describe() Descriptor {
	return Descriptor{
		TypeName: "oscillator",
		Inputs: []Port{
			{Name: "frequency_cv", Type: CV},
			{Name: "amplitude_cv", Type: CV},
			{Name: "waveform_cv", Type: CV},
			{Name: "pulse_width_cv", Type: CV},
		},
		Outputs: []Port{{Name: "audio_out", Type: AudioMono}},
		Parameters: []ParameterRange{
			{Name: "frequency", Min: 20, Max: 20000, Default: 440},
			{Name: "amplitude", Min: 0, Max: 1, Default: 0.5},
			{Name: "waveform", Min: 0, Max: 3, Default: waveSine},
			{Name: "pulse_width", Min: 0.1, Max: 0.9, Default: 0.5},
			{Name: "active", Min: 0, Max: 1, Default: 0},
		},
	}
}

func (n *oscillatorNode) generate(phase float32) float32 {
	const twoPi = 2 * math.Pi
	switch int(n.waveform) {
	case waveTriangle:
		norm := phase / twoPi
		if norm < 0.5 {
			return 4*norm - 1
		}
		return 3 - 4*norm
	case waveSawtooth:
		norm := phase / twoPi
		return 2*norm - 1
	case wavePulse:
		norm := phase / twoPi
		if norm < n.pulseWidth {
			return 1
		}
		return -1
	default: // sine
		return float32(math.Sin(float64(phase)))
	}
}

func (n *oscillatorNode) Process(inputs Buffers, outputs Buffers) {
	out := outputs["audio_out"]
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
	waveformCV := inputs["waveform_cv"]
	pulseWidthCV := inputs["pulse_width_cv"]
	twoPi := float32(2 * math.Pi)

	for i := range out {
		freq := n.frequency
		if len(freqCV) > 0 {
			cv := float32(0)
			if i < len(freqCV) {
				cv = freqCV[i]
			}
			freq = n.frequency + cv*1000
		}
		amp := n.amplitude
		if len(ampCV) > 0 {
			cv := float32(0)
			if i < len(ampCV) {
				cv = ampCV[i]
			}
			amp = clamp32(n.amplitude+cv*0.1, 0, 1)
		}
		if i < len(waveformCV) {
			if w := float32(math.Floor(float64(waveformCV[i] * 4))); w >= 0 && w <= 3 {
				n.waveform = w
			}
		}
		if i < len(pulseWidthCV) {
			n.pulseWidth = clamp32(0.1+pulseWidthCV[i]*0.8, 0.1, 0.9)
		}

		out[i] = n.generate(n.phase) * amp

		n.phase += twoPi * freq / float32(n.sampleRate)
		for n.phase >= twoPi {
			n.phase -= twoPi
		}
		for n.phase < 0 {
			n.phase += twoPi
		}
	}
}

func (n *oscillatorNode) SetParameter(name string, value float32) error {
	switch name {
	case "frequency":
		n.frequency = clamp32(value, 20, 20000)
	case "amplitude":
		n.amplitude = clamp32(value, 0, 1)
	case "waveform":
		if value < 0 || value > 3 {
			return ErrInvalidEnum
		}
		n.waveform = value
	case "pulse_width":
		n.pulseWidth = clamp32(value, 0.1, 0.9)
	case "active":
		n.active = boolToF32(value != 0)
	default:
		return ErrUnknownParameter
	}
	return nil
}

func (n *oscillatorNode) GetParameter(name string) (float32, error) {
	switch name {
	case "frequency":
		return n.frequency, nil
	case "amplitude":
		return n.amplitude, nil
	case "waveform":
		return n.waveform, nil
	case "pulse_width":
		return n.pulseWidth, nil
	case "active":
		return n.active, nil
	default:
		return 0, ErrUnknownParameter
	}
}

func (n *oscillatorNode) Reset() {
	n.phase = 0
}
