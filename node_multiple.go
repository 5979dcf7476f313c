// node_multiple.go - passive multiple/buffered-mult utility node
//
// Grounded on original_source/src/nodes/multiple.rs's MultipleNode: fans
// signal_in out to outputs named out_1..out_8, each with an independent gain
// (parameters gain_0..gain_7). The Rust node takes channel_count (2-8) at
// construction; here the count is fixed at 8 and channel_count can be read
// but not set. The Rust node emits nothing at all when inactive
// (there is no designated pass-through port on a fan-out node), so this
// implementation leaves outputs untouched rather than zeroing them, matching
// spec.md §9's "multiple emits nothing" resolution.
package synthcore

import (
	"fmt"
	"strconv"
	"strings"
)

const multipleChannelCount = 8

type multipleNode struct {
	active       float32
	channelCount int
	outputGains  []float32
}

func newMultipleNode(_ float64, _ int) Node {
	n := &multipleNode{active: 1, channelCount: multipleChannelCount}
	n.outputGains = make([]float32, multipleChannelCount)
	for i := range n.outputGains {
		n.outputGains[i] = 1
	}
	return n
}

func init() {
	RegisterNodeType("multiple", newMultipleNode)
}

func (n *multipleNode) Describe() Descriptor {
	outputs := make([]Port, n.channelCount)
	params := make([]ParameterRange, 0, n.channelCount+1)
	params = append(params, ParameterRange{Name: "active", Min: 0, Max: 1, Default: 1})
	for i := 0; i < n.channelCount; i++ {
		outputs[i] = Port{Name: fmt.Sprintf("out_%d", i+1), Type: AudioMono}
		params = append(params, ParameterRange{Name: fmt.Sprintf("gain_%d", i), Min: 0, Max: 2, Default: 1})
	}

	return Descriptor{
		TypeName:   "multiple",
		Inputs:     []Port{{Name: "signal_in", Type: AudioMono}},
		Outputs:    outputs,
		Parameters: params,
	}
}

func (n *multipleNode) Process(inputs Buffers, outputs Buffers) {
	if n.active == 0 {
		return
	}
	in := inputs["signal_in"]
	if len(in) == 0 {
		return
	}

	for ch := 0; ch < n.channelCount; ch++ {
		out := outputs[fmt.Sprintf("out_%d", ch+1)]
		if out == nil {
			continue
		}
		gain := n.outputGains[ch]
		for i := range out {
			var sample float32
			if i < len(in) {
				sample = in[i]
			}
			out[i] = sample * gain
		}
	}
}

func (n *multipleNode) gainIndex(name string) (int, bool) {
	const prefix = "gain_"
	if !strings.HasPrefix(name, prefix) {
		return 0, false
	}
	ch, err := strconv.Atoi(name[len(prefix):])
	if err != nil || ch < 0 || ch >= n.channelCount {
		return 0, false
	}
	return ch, true
}

func (n *multipleNode) SetParameter(name string, value float32) error {
	switch name {
	case "active":
		n.active = boolToF32(value != 0)
	default:
		if ch, ok := n.gainIndex(name); ok {
			n.outputGains[ch] = clamp32(value, 0, 2)
			return nil
		}
		return ErrUnknownParameter
	}
	return nil
}

func (n *multipleNode) GetParameter(name string) (float32, error) {
	switch name {
	case "active":
		return n.active, nil
	case "channel_count":
		return float32(n.channelCount), nil
	default:
		if ch, ok := n.gainIndex(name); ok {
			return n.outputGains[ch], nil
		}
		return 0, ErrUnknownParameter
	}
}

func (n *multipleNode) Reset() {
	for i := range n.outputGains {
		n.outputGains[i] = 1
	}
}
