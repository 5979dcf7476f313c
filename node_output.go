// node_output.go - terminal mix-to-master node
//
// Grounded on original_source/src/nodes/output.rs's OutputNode: L+R mixing
// followed by master_volume (only the first CV sample of the block is
// read, block-rate rather than sample-rate, matching the Rust source), and
// mute zeroing the buffer before any mixing happens.
package synthcore

type outputNode struct {
	masterVolume float32
	mute         float32
}

func newOutputNode(_ float64, _ int) Node {
	return &outputNode{masterVolume: 0.7}
}

func init() {
	RegisterNodeType("output", newOutputNode)
}

func (n *outputNode) Describe() Descriptor {
	return Descriptor{
		TypeName: "output",
		Inputs: []Port{
			{Name: "audio_in_l", Type: AudioMono},
			{Name: "audio_in_r", Type: AudioMono},
			{Name: "master_volume_cv", Type: CV},
		},
		Outputs: []Port{{Name: "mixed_output", Type: AudioMono}},
		Parameters: []ParameterRange{
			{Name: "master_volume", Min: 0, Max: 1, Default: 0.7},
			{Name: "mute", Min: 0, Max: 1, Default: 0},
		},
	}
}

func (n *outputNode) Process(inputs Buffers, outputs Buffers) {
	out := outputs["mixed_output"]
	if out == nil {
		return
	}
	for i := range out {
		out[i] = 0
	}
	if n.mute != 0 {
		return
	}

	left := inputs["audio_in_l"]
	right := inputs["audio_in_r"]
	volumeCV := inputs["master_volume_cv"]

	effectiveVolume := n.masterVolume
	if len(volumeCV) > 0 {
		effectiveVolume = clamp32(n.masterVolume+volumeCV[0]*0.1, 0, 1)
	}

	for i := range out {
		var l, r float32
		if i < len(left) {
			l = left[i]
		}
		if i < len(right) {
			r = right[i]
		}
		out[i] = (l + r) * effectiveVolume
	}
}

func (n *outputNode) SetParameter(name string, value float32) error {
	switch name {
	case "master_volume":
		n.masterVolume = clamp32(value, 0, 1)
	case "mute":
		n.mute = boolToF32(value != 0)
	default:
		return ErrUnknownParameter
	}
	return nil
}

func (n *outputNode) GetParameter(name string) (float32, error) {
	switch name {
	case "master_volume":
		return n.masterVolume, nil
	case "mute":
		return n.mute, nil
	default:
		return 0, ErrUnknownParameter
	}
}

func (n *outputNode) Reset() {}
