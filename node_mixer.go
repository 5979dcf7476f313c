// node_mixer.go - N-channel mixer with per-channel gain/pan and constant-power panning
//
// Grounded on original_source/src/nodes/mixer.rs's MixerNode: constant-power
// pan law (cos/sin of (pan+1)*pi/4), per-channel gain*pan_gain accumulation
// into temp stereo buffers, then master_gain applied on write-out. The Rust
// node takes channel_count at construction (2-8); since this runtime's
// Factory signature carries no per-instance constructor argument, the
// catalog registers a single 4-channel "mixer" type rather than one type
// per channel count.
package synthcore

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const mixerChannelCount = 4

type mixerNode struct {
	channelCount int
	channelGains []float32
	channelPans  []float32
	masterGain   float32
	active       float32
}

func newMixerNode(_ float64, _ int) Node {
	n := &mixerNode{
		channelCount: mixerChannelCount,
		channelGains: make([]float32, mixerChannelCount),
		channelPans:  make([]float32, mixerChannelCount),
		masterGain:   0.8,
		active:       1,
	}
	for i := range n.channelGains {
		n.channelGains[i] = 0.7
	}
	return n
}

func init() {
	RegisterNodeType("mixer", newMixerNode)
}

func (n *mixerNode) Describe() Descriptor {
	inputs := make([]Port, 0, n.channelCount*3+1)
	for i := 1; i <= n.channelCount; i++ {
		inputs = append(inputs, Port{Name: fmt.Sprintf("audio_in_%d", i), Type: AudioMono})
	}
	for i := 1; i <= n.channelCount; i++ {
		inputs = append(inputs,
			Port{Name: fmt.Sprintf("gain_cv_%d", i), Type: CV},
			Port{Name: fmt.Sprintf("pan_cv_%d", i), Type: CV})
	}
	inputs = append(inputs, Port{Name: "master_gain_cv", Type: CV})

	params := []ParameterRange{
		{Name: "master_gain", Min: 0, Max: 1, Default: 0.8},
		{Name: "active", Min: 0, Max: 1, Default: 1},
	}
	for i := 1; i <= n.channelCount; i++ {
		params = append(params,
			ParameterRange{Name: fmt.Sprintf("gain_%d", i), Min: 0, Max: 1, Default: 0.7},
			ParameterRange{Name: fmt.Sprintf("pan_%d", i), Min: -1, Max: 1, Default: 0})
	}

	return Descriptor{
		TypeName: "mixer",
		Inputs:   inputs,
		Outputs: []Port{
			{Name: "audio_out_l", Type: AudioMono},
			{Name: "audio_out_r", Type: AudioMono},
		},
		Parameters: params,
	}
}

func panGains(pan float32) (left, right float32) {
	angle := float64(pan+1) * 0.25 * math.Pi
	return float32(math.Cos(angle)), float32(math.Sin(angle))
}

func (n *mixerNode) Process(inputs Buffers, outputs Buffers) {
	outL := outputs["audio_out_l"]
	outR := outputs["audio_out_r"]
	if outL == nil || outR == nil {
		return
	}
	for i := range outL {
		outL[i] = 0
	}
	for i := range outR {
		outR[i] = 0
	}
	if n.active == 0 {
		return
	}

	for ch := 0; ch < n.channelCount; ch++ {
		in := inputs[fmt.Sprintf("audio_in_%d", ch+1)]
		if len(in) == 0 {
			continue
		}
		left, right := panGains(n.channelPans[ch])
		finalLeft := n.channelGains[ch] * left
		finalRight := n.channelGains[ch] * right
		for i, sample := range in {
			if i >= len(outL) {
				break
			}
			outL[i] += sample * finalLeft
			outR[i] += sample * finalRight
		}
	}

	for i := range outL {
		outL[i] *= n.masterGain
		outR[i] *= n.masterGain
	}
}

func (n *mixerNode) channelIndex(param, prefix string) (int, bool) {
	if !strings.HasPrefix(param, prefix) {
		return 0, false
	}
	ch, err := strconv.Atoi(param[len(prefix):])
	if err != nil || ch < 1 || ch > n.channelCount {
		return 0, false
	}
	return ch - 1, true
}

func (n *mixerNode) SetParameter(name string, value float32) error {
	switch {
	case name == "master_gain":
		n.masterGain = clamp32(value, 0, 1)
	case name == "active":
		n.active = boolToF32(value != 0)
	default:
		if ch, ok := n.channelIndex(name, "gain_"); ok {
			n.channelGains[ch] = clamp32(value, 0, 1)
			return nil
		}
		if ch, ok := n.channelIndex(name, "pan_"); ok {
			n.channelPans[ch] = clamp32(value, -1, 1)
			return nil
		}
		return ErrUnknownParameter
	}
	return nil
}

func (n *mixerNode) GetParameter(name string) (float32, error) {
	switch {
	case name == "master_gain":
		return n.masterGain, nil
	case name == "active":
		return n.active, nil
	default:
		if ch, ok := n.channelIndex(name, "gain_"); ok {
			return n.channelGains[ch], nil
		}
		if ch, ok := n.channelIndex(name, "pan_"); ok {
			return n.channelPans[ch], nil
		}
		return 0, ErrUnknownParameter
	}
}

func (n *mixerNode) Reset() {}
