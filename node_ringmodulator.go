// node_ringmodulator.go - ring modulator utility node
//
// Grounded on original_source/src/nodes/ring_modulator.rs's RingModulatorNode:
// carrier/modulator signals each scaled by an independent gain, multiplied,
// then cross-faded against the dry carrier by mix. active=false passes
// carrier_in through on audio_out.
package synthcore

type ringModulatorNode struct {
	mix           float32
	carrierGain   float32
	modulatorGain float32
	active        float32
}

func newRingModulatorNode(_ float64, _ int) Node {
	return &ringModulatorNode{mix: 1, carrierGain: 1, modulatorGain: 1, active: 1}
}

func init() {
	RegisterNodeType("ring_modulator", newRingModulatorNode)
}

func (n *ringModulatorNode) Describe() Descriptor {
	return Descriptor{
		TypeName: "ring_modulator",
		Inputs: []Port{
			{Name: "carrier_in", Type: AudioMono},
			{Name: "modulator_in", Type: AudioMono},
		},
		Outputs: []Port{{Name: "audio_out", Type: AudioMono}},
		Parameters: []ParameterRange{
			{Name: "mix", Min: 0, Max: 1, Default: 1},
			{Name: "carrier_gain", Min: 0, Max: 2, Default: 1},
			{Name: "modulator_gain", Min: 0, Max: 2, Default: 1},
			{Name: "active", Min: 0, Max: 1, Default: 1},
		},
	}
}

func (n *ringModulatorNode) Process(inputs Buffers, outputs Buffers) {
	out := outputs["audio_out"]
	if out == nil {
		return
	}
	carrier := inputs["carrier_in"]

	if n.active == 0 {
		for i := range out {
			if i < len(carrier) {
				out[i] = carrier[i]
			} else {
				out[i] = 0
			}
		}
		return
	}

	modulator := inputs["modulator_in"]
	for i := range out {
		var carrierSample, modulatorSample float32
		if i < len(carrier) {
			carrierSample = carrier[i]
		}
		if i < len(modulator) {
			modulatorSample = modulator[i]
		}
		scaledCarrier := carrierSample * n.carrierGain
		scaledModulator := modulatorSample * n.modulatorGain
		modulated := scaledCarrier * scaledModulator
		out[i] = carrierSample*(1-n.mix) + modulated*n.mix
	}
}

func (n *ringModulatorNode) SetParameter(name string, value float32) error {
	switch name {
	case "mix":
		n.mix = clamp32(value, 0, 1)
	case "carrier_gain":
		n.carrierGain = clamp32(value, 0, 2)
	case "modulator_gain":
		n.modulatorGain = clamp32(value, 0, 2)
	case "active":
		n.active = boolToF32(value != 0)
	default:
		return ErrUnknownParameter
	}
	return nil
}

func (n *ringModulatorNode) GetParameter(name string) (float32, error) {
	switch name {
	case "mix":
		return n.mix, nil
	case "carrier_gain":
		return n.carrierGain, nil
	case "modulator_gain":
		return n.modulatorGain, nil
	case "active":
		return n.active, nil
	default:
		return 0, ErrUnknownParameter
	}
}

func (n *ringModulatorNode) Reset() {}
