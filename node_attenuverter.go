// node_attenuverter.go - attenuverter/inverter utility node
//
// Grounded on original_source/src/nodes/attenuverter.rs's AttenuverterNode:
// attenuation/offset applied then soft-clipped via tanh above +-5V, plus a
// second inverted_out port carrying soft-clip(-input*|attenuation|) without
// the offset. active=false passes signal_in through unchanged (spec.md §9's
// per-node tie-break, matching the Rust node's inactive branch).
package synthcore

import "math"

type attenuverterNode struct {
	attenuation float32
	offset      float32
	active      float32
}

func newAttenuverterNode(_ float64, _ int) Node {
	return &attenuverterNode{attenuation: 1, offset: 0, active: 1}
}

func init() {
	RegisterNodeType("attenuverter", newAttenuverterNode)
}

func (n *attenuverterNode) Describe() Descriptor {
	return Descriptor{
		TypeName: "attenuverter",
		Inputs:   []Port{{Name: "signal_in", Type: AudioMono}},
		Outputs: []Port{
			{Name: "signal_out", Type: AudioMono},
			{Name: "inverted_out", Type: AudioMono},
		},
		Parameters: []ParameterRange{
			{Name: "attenuation", Min: -1, Max: 1, Default: 1},
			{Name: "offset", Min: -5, Max: 5, Default: 0},
			{Name: "active", Min: 0, Max: 1, Default: 1},
		},
	}
}

const attenuverterClipThreshold = 5.0

func softClip5(v float32) float32 {
	if float32(math.Abs(float64(v))) > attenuverterClipThreshold {
		return attenuverterClipThreshold * float32(math.Tanh(float64(v)/attenuverterClipThreshold))
	}
	return v
}

func (n *attenuverterNode) Process(inputs Buffers, outputs Buffers) {
	in := inputs["signal_in"]
	out := outputs["signal_out"]
	invOut := outputs["inverted_out"]

	if n.active == 0 {
		if out != nil {
			for i := range out {
				if i < len(in) {
					out[i] = in[i]
				} else {
					out[i] = 0
				}
			}
		}
		return
	}

	if out != nil {
		for i := range out {
			var sample float32
			if i < len(in) {
				sample = in[i]
			}
			out[i] = softClip5(sample*n.attenuation + n.offset)
		}
	}
	if invOut != nil {
		absAtten := n.attenuation
		if absAtten < 0 {
			absAtten = -absAtten
		}
		for i := range invOut {
			var sample float32
			if i < len(in) {
				sample = in[i]
			}
			invOut[i] = softClip5(-sample * absAtten)
		}
	}
}

func (n *attenuverterNode) SetParameter(name string, value float32) error {
	switch name {
	case "attenuation":
		n.attenuation = clamp32(value, -1, 1)
	case "offset":
		n.offset = clamp32(value, -5, 5)
	case "active":
		n.active = boolToF32(value != 0)
	default:
		return ErrUnknownParameter
	}
	return nil
}

func (n *attenuverterNode) GetParameter(name string) (float32, error) {
	switch name {
	case "attenuation":
		return n.attenuation, nil
	case "offset":
		return n.offset, nil
	case "active":
		return n.active, nil
	default:
		return 0, ErrUnknownParameter
	}
}

func (n *attenuverterNode) Reset() {}
