// node_samplehold.go - sample & hold utility node
//
// Grounded on original_source/src/nodes/sample_hold.rs's SampleHoldNode:
// samples signal_in on each rising edge of trigger_in crossing
// trigger_threshold, holds the value until the next edge, and also accepts a
// one-shot manual_trigger parameter set from a control thread. held_value is
// exposed as a read-only parameter; trigger_out passes trigger_in through.
// active=false passes signal_in through on signal_out.
package synthcore

type sampleHoldNode struct {
	triggerThreshold       float32
	heldValue              float32
	lastTriggerHigh        bool
	active                 float32
	manualTrigger          bool
	manualTriggerProcessed bool
}

func newSampleHoldNode(_ float64, _ int) Node {
	return &sampleHoldNode{triggerThreshold: 0.1, active: 1, manualTriggerProcessed: true}
}

func init() {
	RegisterNodeType("sample_hold", newSampleHoldNode)
}

func (n *sampleHoldNode) Describe() Descriptor {
	return Descriptor{
		TypeName: "sample_hold",
		Inputs: []Port{
			{Name: "signal_in", Type: AudioMono},
			{Name: "trigger_in", Type: CV},
		},
		Outputs: []Port{
			{Name: "signal_out", Type: AudioMono},
			{Name: "trigger_out", Type: CV},
		},
		Parameters: []ParameterRange{
			{Name: "trigger_threshold", Min: 0.01, Max: 1, Default: 0.1},
			{Name: "manual_trigger", Min: 0, Max: 1, Default: 0},
			{Name: "active", Min: 0, Max: 1, Default: 1},
		},
	}
}

func (n *sampleHoldNode) sampleAndHold(signal, trigger float32) float32 {
	if n.manualTrigger && !n.manualTriggerProcessed {
		n.heldValue = signal
		n.manualTriggerProcessed = true
		return n.heldValue
	}

	triggerHigh := trigger > n.triggerThreshold
	risingEdge := triggerHigh && !n.lastTriggerHigh
	n.lastTriggerHigh = triggerHigh

	if risingEdge {
		n.heldValue = signal
	}
	return n.heldValue
}

func (n *sampleHoldNode) Process(inputs Buffers, outputs Buffers) {
	out := outputs["signal_out"]
	signal := inputs["signal_in"]
	trigger := inputs["trigger_in"]

	if n.active == 0 {
		if out != nil {
			for i := range out {
				if i < len(signal) {
					out[i] = signal[i]
				} else {
					out[i] = 0
				}
			}
		}
		return
	}

	if out != nil {
		for i := range out {
			var s, t float32
			if i < len(signal) {
				s = signal[i]
			}
			if i < len(trigger) {
				t = trigger[i]
			}
			out[i] = n.sampleAndHold(s, t)
		}
	}

	if trigOut := outputs["trigger_out"]; trigOut != nil {
		for i := range trigOut {
			if i < len(trigger) {
				trigOut[i] = trigger[i]
			} else {
				trigOut[i] = 0
			}
		}
	}
}

func (n *sampleHoldNode) SetParameter(name string, value float32) error {
	switch name {
	case "trigger_threshold":
		n.triggerThreshold = clamp32(value, 0.01, 1)
	case "manual_trigger":
		if value > 0.5 && !n.manualTrigger {
			n.manualTrigger = true
			n.manualTriggerProcessed = false
		} else if value <= 0.5 {
			n.manualTrigger = false
		}
	case "active":
		n.active = boolToF32(value != 0)
	default:
		return ErrUnknownParameter
	}
	return nil
}

func (n *sampleHoldNode) GetParameter(name string) (float32, error) {
	switch name {
	case "trigger_threshold":
		return n.triggerThreshold, nil
	case "held_value":
		return n.heldValue, nil
	case "manual_trigger":
		return boolToF32(n.manualTrigger), nil
	case "active":
		return n.active, nil
	default:
		return 0, ErrUnknownParameter
	}
}

func (n *sampleHoldNode) Reset() {
	n.heldValue = 0
	n.lastTriggerHigh = false
	n.manualTrigger = false
	n.manualTriggerProcessed = true
}
