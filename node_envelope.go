// node_envelope.go - ADSR envelope generator
//
// Grounded on original_source/src/nodes/envelope.rs's ADSRNode: the five
// state machine (Idle/Attack/Decay/Sustain/Release), its gate-edge-driven
// transitions, and the per-stage level formulas (linear attack, linear decay
// toward sustain, release scaled from the level captured when release
// began) are carried unchanged in meaning.
package synthcore

const (
	envIdle = iota
	envAttack
	envDecay
	envSustain
	envRelease
)

type envelopeNode struct {
	sampleRate float64

	attack  float32
	decay   float32
	sustain float32
	release float32
	active  float32

	state         int
	currentLevel  float32
	stageProgress float32
	releaseLevel  float32
	gateWasHigh   bool
}

func newEnvelopeNode(sampleRate float64, _ int) Node {
	return &envelopeNode{
		sampleRate: sampleRate,
		attack:     0.1,
		decay:      0.3,
		sustain:    0.7,
		release:    0.5,
		active:     1,
	}
}

func init() {
	RegisterNodeType("adsr", newEnvelopeNode)
}

func (n *envelopeNode) Describe() Descriptor {
	return Descriptor{
		TypeName: "adsr",
		Inputs:   []Port{{Name: "gate_in", Type: CV}},
		Outputs:  []Port{{Name: "cv_out", Type: CV}},
		Parameters: []ParameterRange{
			{Name: "attack", Min: 0.001, Max: 10, Default: 0.1},
			{Name: "decay", Min: 0.001, Max: 10, Default: 0.3},
			{Name: "sustain", Min: 0, Max: 1, Default: 0.7},
			{Name: "release", Min: 0.001, Max: 10, Default: 0.5},
			{Name: "active", Min: 0, Max: 1, Default: 1},
		},
	}
}

func (n *envelopeNode) processGate(gateHigh bool) {
	rising := gateHigh && !n.gateWasHigh
	falling := !gateHigh && n.gateWasHigh
	n.gateWasHigh = gateHigh

	switch n.state {
	case envIdle:
		if rising {
			n.state = envAttack
			n.stageProgress = 0
		}
	case envAttack:
		switch {
		case falling:
			n.state = envRelease
			n.stageProgress = 0
		case n.stageProgress >= 1:
			n.state = envDecay
			n.stageProgress = 0
		}
	case envDecay:
		switch {
		case falling:
			n.state = envRelease
			n.stageProgress = 0
		case n.stageProgress >= 1:
			n.state = envSustain
			n.stageProgress = 0
		}
	case envSustain:
		if falling {
			n.state = envRelease
			n.stageProgress = 0
		}
	case envRelease:
		switch {
		case rising:
			n.state = envAttack
			n.stageProgress = 0
		case n.stageProgress >= 1:
			n.state = envIdle
			n.stageProgress = 0
			n.currentLevel = 0
		}
	}
}

func (n *envelopeNode) calculateLevel() float32 {
	switch n.state {
	case envIdle:
		n.currentLevel = 0
	case envAttack:
		n.currentLevel = n.stageProgress
		attackSamples := n.attack * float32(n.sampleRate)
		n.stageProgress += 1 / attackSamples
	case envDecay:
		decayRange := 1 - n.sustain
		n.currentLevel = 1 - decayRange*n.stageProgress
		decaySamples := n.decay * float32(n.sampleRate)
		n.stageProgress += 1 / decaySamples
	case envSustain:
		n.currentLevel = n.sustain
	case envRelease:
		if n.stageProgress == 0 {
			n.releaseLevel = n.currentLevel
		}
		n.currentLevel = n.releaseLevel * (1 - n.stageProgress)
		releaseSamples := n.release * float32(n.sampleRate)
		n.stageProgress += 1 / releaseSamples
	}
	return clamp32(n.currentLevel, 0, 1)
}

func (n *envelopeNode) Process(inputs Buffers, outputs Buffers) {
	out := outputs["cv_out"]
	if out == nil {
		return
	}
	if n.active == 0 {
		for i := range out {
			out[i] = 0
		}
		n.state = envIdle
		n.currentLevel = 0
		n.stageProgress = 0
		return
	}

	gate := inputs["gate_in"]
	for i := range out {
		var g float32
		if i < len(gate) {
			g = gate[i]
		}
		n.processGate(g > 0.5)
		out[i] = n.calculateLevel()
	}
}

func (n *envelopeNode) SetParameter(name string, value float32) error {
	switch name {
	case "attack":
		n.attack = clamp32(value, 0.001, 10)
	case "decay":
		n.decay = clamp32(value, 0.001, 10)
	case "sustain":
		n.sustain = clamp32(value, 0, 1)
	case "release":
		n.release = clamp32(value, 0.001, 10)
	case "active":
		n.active = boolToF32(value != 0)
	default:
		return ErrUnknownParameter
	}
	return nil
}

func (n *envelopeNode) GetParameter(name string) (float32, error) {
	switch name {
	case "attack":
		return n.attack, nil
	case "decay":
		return n.decay, nil
	case "sustain":
		return n.sustain, nil
	case "release":
		return n.release, nil
	case "active":
		return n.active, nil
	default:
		return 0, ErrUnknownParameter
	}
}

func (n *envelopeNode) Reset() {
	n.state = envIdle
	n.currentLevel = 0
	n.stageProgress = 0
	n.gateWasHigh = false
}
