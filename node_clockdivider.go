// node_clockdivider.go - multi-ratio clock divider
//
// Grounded on original_source/src/nodes/clock_divider.rs's
// ClockDividerNode: rising-edge detection on clock_in, per-ratio counters
// that fire a fixed-length gate pulse on reaching their ratio, and a
// pass-through clock_out, all carried unchanged in meaning.
package synthcore

var clockDivRatios = [...]int{1, 2, 4, 8, 16, 32}

type clockDividerNode struct {
	sampleRate float64

	triggerThreshold float32
	gateLength       float32
	active           float32

	lastTriggerHigh bool
	divCounters     [len(clockDivRatios)]uint32
	gateCounters    [len(clockDivRatios)]float32
	outputState     [len(clockDivRatios)]bool
}

func newClockDividerNode(sampleRate float64, _ int) Node {
	return &clockDividerNode{
		sampleRate:       sampleRate,
		triggerThreshold: 0.1,
		gateLength:       0.05,
		active:           1,
	}
}

func init() {
	RegisterNodeType("clock_divider", newClockDividerNode)
}

func (n *clockDividerNode) Describe() Descriptor {
	outputs := make([]Port, 0, len(clockDivRatios)+1)
	for _, ratio := range clockDivRatios {
		outputs = append(outputs, Port{Name: divPortName(ratio), Type: CV})
	}
	outputs = append(outputs, Port{Name: "clock_out", Type: CV})

	return Descriptor{
		TypeName: "clock_divider",
		Inputs:   []Port{{Name: "clock_in", Type: CV}},
		Outputs:  outputs,
		Parameters: []ParameterRange{
			{Name: "trigger_threshold", Min: 0.01, Max: 1, Default: 0.1},
			{Name: "gate_length", Min: 0.001, Max: 1, Default: 0.05},
			{Name: "active", Min: 0, Max: 1, Default: 1},
		},
	}
}

func divPortName(ratio int) string {
	switch ratio {
	case 1:
		return "div_1"
	case 2:
		return "div_2"
	case 4:
		return "div_4"
	case 8:
		return "div_8"
	case 16:
		return "div_16"
	default:
		return "div_32"
	}
}

func (n *clockDividerNode) processSample(trigger float32) {
	high := trigger > n.triggerThreshold
	rising := high && !n.lastTriggerHigh
	n.lastTriggerHigh = high

	if rising {
		for i, ratio := range clockDivRatios {
			n.divCounters[i]++
			if n.divCounters[i] >= uint32(ratio) {
				n.divCounters[i] = 0
				n.outputState[i] = true
				n.gateCounters[i] = n.gateLength * float32(n.sampleRate)
			}
		}
	}

	for i := range clockDivRatios {
		if n.gateCounters[i] > 0 {
			n.gateCounters[i]--
			if n.gateCounters[i] <= 0 {
				n.outputState[i] = false
			}
		}
	}
}

func (n *clockDividerNode) Process(inputs Buffers, outputs Buffers) {
	clockIn := inputs["clock_in"]
	clockOut := outputs["clock_out"]

	ports := make([][]float32, len(clockDivRatios))
	for i, ratio := range clockDivRatios {
		ports[i] = outputs[divPortName(ratio)]
	}

	length := len(clockOut)
	if length == 0 {
		for _, p := range ports {
			if len(p) > length {
				length = len(p)
			}
		}
	}

	for i := 0; i < length; i++ {
		var trigger float32
		if i < len(clockIn) {
			trigger = clockIn[i]
		}
		if n.active != 0 {
			n.processSample(trigger)
		}
		for r, p := range ports {
			if i < len(p) {
				p[i] = boolToF32(n.outputState[r]) * 5
			}
		}
		if i < len(clockOut) {
			clockOut[i] = trigger
		}
	}
}

func (n *clockDividerNode) SetParameter(name string, value float32) error {
	switch name {
	case "trigger_threshold":
		n.triggerThreshold = clamp32(value, 0.01, 1)
	case "gate_length":
		n.gateLength = clamp32(value, 0.001, 1)
	case "active":
		n.active = boolToF32(value != 0)
	default:
		return ErrUnknownParameter
	}
	return nil
}

func (n *clockDividerNode) GetParameter(name string) (float32, error) {
	switch name {
	case "trigger_threshold":
		return n.triggerThreshold, nil
	case "gate_length":
		return n.gateLength, nil
	case "active":
		return n.active, nil
	default:
		return 0, ErrUnknownParameter
	}
}

func (n *clockDividerNode) Reset() {
	n.lastTriggerHigh = false
	n.divCounters = [len(clockDivRatios)]uint32{}
	n.gateCounters = [len(clockDivRatios)]float32{}
	n.outputState = [len(clockDivRatios)]bool{}
}
