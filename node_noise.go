// node_noise.go - white/pink/brown/blue noise generator
//
// Grounded on original_source/src/nodes/noise.rs's NoiseNode: the LCG
// (1664525/1013904223), Paul Kellet's 7-pole pink noise filter, the
// integrated-and-clamped brown noise, and blue noise as pink noise's
// discrete derivative are all carried unchanged in meaning.
package synthcore

const (
	noiseWhite = iota
	noisePink
	noiseBrown
	noiseBlue
)

type noiseNode struct {
	noiseType float32
	amplitude float32
	active    float32

	rngState   uint32
	pinkState  [7]float32
	brownState float32
	lastPink   float32
}

func newNoiseNode(_ float64, _ int) Node {
	return &noiseNode{
		noiseType: noiseWhite,
		amplitude: 0.5,
		active:    1,
		rngState:  1,
	}
}

func init() {
	RegisterNodeType("noise", newNoiseNode)
}

func (n *noiseNode) Describe() Descriptor {
	return Descriptor{
		TypeName: "noise",
		Inputs:   []Port{{Name: "amplitude_cv", Type: CV}},
		Outputs:  []Port{{Name: "audio_out", Type: AudioMono}},
		Parameters: []ParameterRange{
			{Name: "noise_type", Min: 0, Max: 3, Default: noiseWhite},
			{Name: "amplitude", Min: 0, Max: 1, Default: 0.5},
			{Name: "active", Min: 0, Max: 1, Default: 1},
		},
	}
}

func (n *noiseNode) nextRandom() float32 {
	n.rngState = n.rngState*1664525 + 1013904223
	return float32(n.rngState)/float32(^uint32(0))*2 - 1
}

func (n *noiseNode) generateWhite() float32 { return n.nextRandom() }

func (n *noiseNode) generatePink() float32 {
	white := n.nextRandom()
	s := &n.pinkState
	s[0] = 0.99886*s[0] + white*0.0555179
	s[1] = 0.99332*s[1] + white*0.0750759
	s[2] = 0.96900*s[2] + white*0.1538520
	s[3] = 0.86650*s[3] + white*0.3104856
	s[4] = 0.55000*s[4] + white*0.5329522
	s[5] = -0.7616*s[5] - white*0.0168980

	pink := s[0] + s[1] + s[2] + s[3] + s[4] + s[5] + s[6] + white*0.5362
	s[6] = white * 0.115926
	return pink * 0.11
}

func (n *noiseNode) generateBrown() float32 {
	white := n.nextRandom()
	n.brownState = clamp32(n.brownState+white*0.02, -1, 1)
	return n.brownState
}

func (n *noiseNode) generateBlue() float32 {
	currentPink := n.generatePink()
	blue := currentPink - n.lastPink
	n.lastPink = currentPink
	return blue * 2
}

func (n *noiseNode) generateSample() float32 {
	if n.active == 0 {
		return 0
	}
	var noise float32
	switch int(n.noiseType) {
	case noisePink:
		noise = n.generatePink()
	case noiseBrown:
		noise = n.generateBrown()
	case noiseBlue:
		noise = n.generateBlue()
	default:
		noise = n.generateWhite()
	}
	return noise * n.amplitude
}

func (n *noiseNode) Process(inputs Buffers, outputs Buffers) {
	out := outputs["audio_out"]
	if out == nil {
		return
	}
	ampCV := inputs["amplitude_cv"]

	for i := range out {
		original := n.amplitude
		if i < len(ampCV) && ampCV[i] != 0 {
			n.amplitude = clamp32(n.amplitude+ampCV[i]*0.1, 0, 1)
		}
		out[i] = n.generateSample()
		n.amplitude = original
	}
}

func (n *noiseNode) SetParameter(name string, value float32) error {
	switch name {
	case "noise_type":
		if value < 0 || value > 3 {
			return ErrInvalidEnum
		}
		n.noiseType = value
	case "amplitude":
		n.amplitude = clamp32(value, 0, 1)
	case "active":
		n.active = boolToF32(value != 0)
	default:
		return ErrUnknownParameter
	}
	return nil
}

func (n *noiseNode) GetParameter(name string) (float32, error) {
	switch name {
	case "noise_type":
		return n.noiseType, nil
	case "amplitude":
		return n.amplitude, nil
	case "active":
		return n.active, nil
	default:
		return 0, ErrUnknownParameter
	}
}

func (n *noiseNode) Reset() {
	n.rngState = 1
	n.pinkState = [7]float32{}
	n.brownState = 0
	n.lastPink = 0
}
