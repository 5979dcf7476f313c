// node_delay.go - feedback delay line
//
// Grounded on original_source/src/nodes/delay.rs's DelayNode: the ring
// buffer sized from delay_time_ms*sample_rate, the feedback-into-buffer
// write, and the dry/wet mix formula are carried unchanged in meaning,
// including the quirk that CV modulation re-invokes the clamped setters
// (and therefore a possible buffer resize) on every sample rather than once
// per block.
package synthcore

type delayNode struct {
	sampleRate float64

	buffer   []float32
	position int

	delayTimeMS float32
	feedback    float32
	mix         float32
	active      float32
}

func newDelayNode(sampleRate float64, _ int) Node {
	n := &delayNode{
		sampleRate:  sampleRate,
		delayTimeMS: 250,
		feedback:    0.3,
		mix:         0.5,
		active:      1,
	}
	n.buffer = make([]float32, delayBufferSize(n.delayTimeMS, sampleRate))
	return n
}

func init() {
	RegisterNodeType("delay", newDelayNode)
}

func delayBufferSize(delayTimeMS float32, sampleRate float64) int {
	size := int(float64(delayTimeMS) / 1000 * sampleRate)
	if size < 1 {
		size = 1
	}
	return size
}

func (n *delayNode) Describe() Descriptor {
	return Descriptor{
		TypeName: "delay",
		Inputs: []Port{
			{Name: "audio_in", Type: AudioMono},
			{Name: "delay_time_cv", Type: CV},
			{Name: "feedback_cv", Type: CV},
			{Name: "mix_cv", Type: CV},
		},
		Outputs: []Port{{Name: "audio_out", Type: AudioMono}},
		Parameters: []ParameterRange{
			{Name: "delay_time", Min: 1, Max: 2000, Default: 250},
			{Name: "feedback", Min: 0, Max: 0.95, Default: 0.3},
			{Name: "mix", Min: 0, Max: 1, Default: 0.5},
			{Name: "active", Min: 0, Max: 1, Default: 1},
		},
	}
}

func (n *delayNode) setDelayTime(ms float32) {
	n.delayTimeMS = clamp32(ms, 1, 2000)
	newSize := delayBufferSize(n.delayTimeMS, n.sampleRate)
	if newSize != len(n.buffer) {
		resized := make([]float32, newSize)
		copy(resized, n.buffer)
		n.buffer = resized
		n.position %= newSize
	}
}

func (n *delayNode) setFeedback(v float32) { n.feedback = clamp32(v, 0, 0.95) }
func (n *delayNode) setMix(v float32)      { n.mix = clamp32(v, 0, 1) }

func (n *delayNode) processSample(input float32) float32 {
	if n.active == 0 || len(n.buffer) == 0 {
		return input
	}
	delayed := n.buffer[n.position]
	feedbackSample := input + delayed*n.feedback
	n.buffer[n.position] = feedbackSample
	n.position = (n.position + 1) % len(n.buffer)

	dry := input * (1 - n.mix)
	wet := delayed * n.mix
	return dry + wet
}

func (n *delayNode) Process(inputs Buffers, outputs Buffers) {
	out := outputs["audio_out"]
	if out == nil {
		return
	}
	in := inputs["audio_in"]
	delayCV := inputs["delay_time_cv"]
	feedbackCV := inputs["feedback_cv"]
	mixCV := inputs["mix_cv"]

	for i := range out {
		var input float32
		if i < len(in) {
			input = in[i]
		}

		if i < len(delayCV) && delayCV[i] != 0 {
			n.setDelayTime(n.delayTimeMS + delayCV[i]*100)
		}
		if i < len(feedbackCV) && feedbackCV[i] != 0 {
			n.setFeedback(n.feedback + feedbackCV[i]*0.1)
		}
		if i < len(mixCV) && mixCV[i] != 0 {
			n.setMix(n.mix + mixCV[i]*0.1)
		}

		out[i] = n.processSample(input)
	}
}

func (n *delayNode) SetParameter(name string, value float32) error {
	switch name {
	case "delay_time":
		n.setDelayTime(value)
	case "feedback":
		n.setFeedback(value)
	case "mix":
		n.setMix(value)
	case "active":
		n.active = boolToF32(value != 0)
	default:
		return ErrUnknownParameter
	}
	return nil
}

func (n *delayNode) GetParameter(name string) (float32, error) {
	switch name {
	case "delay_time":
		return n.delayTimeMS, nil
	case "feedback":
		return n.feedback, nil
	case "mix":
		return n.mix, nil
	case "active":
		return n.active, nil
	default:
		return 0, ErrUnknownParameter
	}
}

func (n *delayNode) Reset() {
	for i := range n.buffer {
		n.buffer[i] = 0
	}
	n.position = 0
}
