// node_vca.go - voltage-controlled amplifier
//
// Grounded on original_source/src/nodes/vca.rs's VCANode: the -10V..+10V to
// 0.0..2.0 CV-gain mapping and the "cv_value==0 means no modulation, pass
// through unity" special case are both carried unchanged in meaning.
package synthcore

type vcaNode struct {
	gain          float32
	cvSensitivity float32
	active        float32
}

func newVCANode(_ float64, _ int) Node {
	return &vcaNode{gain: 1, cvSensitivity: 1, active: 1}
}

func init() {
	RegisterNodeType("vca", newVCANode)
}

func (n *vcaNode) Describe() Descriptor {
	return Descriptor{
		TypeName: "vca",
		Inputs: []Port{
			{Name: "audio_in", Type: AudioMono},
			{Name: "gain_cv", Type: CV},
		},
		Outputs: []Port{{Name: "audio_out", Type: AudioMono}},
		Parameters: []ParameterRange{
			{Name: "gain", Min: 0, Max: 2, Default: 1},
			{Name: "cv_sensitivity", Min: 0, Max: 2, Default: 1},
			{Name: "active", Min: 0, Max: 1, Default: 1},
		},
	}
}

func (n *vcaNode) processSample(audio, cv float32) float32 {
	if n.active == 0 {
		return 0
	}
	cvGain := float32(1)
	if cv != 0 {
		normalized := (cv + 10) / 20
		cvGain = clamp32(normalized, 0, 1) * 2 * n.cvSensitivity
	}
	return audio * n.gain * cvGain
}

func (n *vcaNode) Process(inputs Buffers, outputs Buffers) {
	out := outputs["audio_out"]
	if out == nil {
		return
	}
	in := inputs["audio_in"]
	gainCV := inputs["gain_cv"]

	for i := range out {
		var audio, cv float32
		if i < len(in) {
			audio = in[i]
		}
		if i < len(gainCV) {
			cv = gainCV[i]
		}
		out[i] = n.processSample(audio, cv)
	}
}

func (n *vcaNode) SetParameter(name string, value float32) error {
	switch name {
	case "gain":
		n.gain = clamp32(value, 0, 2)
	case "cv_sensitivity":
		n.cvSensitivity = clamp32(value, 0, 2)
	case "active":
		n.active = boolToF32(value != 0)
	default:
		return ErrUnknownParameter
	}
	return nil
}

func (n *vcaNode) GetParameter(name string) (float32, error) {
	switch name {
	case "gain":
		return n.gain, nil
	case "cv_sensitivity":
		return n.cvSensitivity, nil
	case "active":
		return n.active, nil
	default:
		return 0, ErrUnknownParameter
	}
}

func (n *vcaNode) Reset() {}
