// node_oscilloscope.go - pass-through audio probe with a trigger system and
// periodic waveform/measurement capture
//
// Grounded on original_source/src/nodes/oscilloscope.rs's OscilloscopeNode
// and TriggerSystem: Auto/Normal/Single trigger modes, Rising/Falling slope
// edge detection, a 256-sample pre-trigger ring buffer, and Vpp/Vrms/
// frequency-via-zero-crossing measurements are carried unchanged in meaning.
// Measurements are recomputed, and the capture published, when a capture
// completes once at least measurement_interval samples have passed since
// the last measurement. The
// Arc<Mutex<...>> shared-with-the-UI pattern is reimplemented as a
// sync.Mutex-guarded pair of fields read through ScopeInterface.
package synthcore

import (
	"math"
	"sync"
)

const (
	scopeTriggerAuto = iota
	scopeTriggerNormal
	scopeTriggerSingle
)

const (
	scopeSlopeRising = iota
	scopeSlopeFalling
)

const scopePreTriggerSize = 256
const scopeMeasurementInterval = 1024

type scopeMeasurements struct {
	vpp       float32
	vrms      float32
	frequency float32
	period    float32
}

type oscilloscopeNode struct {
	sampleRate float64

	timeDiv    float32
	voltDiv    float32
	positionH  float32
	positionV  float32
	active     float32
	mode       float32
	level      float32
	slope      float32

	triggered     bool
	lastSample    float32
	preTrigger    []float32
	waveform      []float32
	bufferSize    int
	measureCount  int
	measurements  scopeMeasurements

	mu             sync.Mutex
	sharedWaveform []float32
	sharedMeasure  scopeMeasurements
}

func newOscilloscopeNode(sampleRate float64, _ int) Node {
	n := &oscilloscopeNode{
		sampleRate: sampleRate,
		timeDiv:    0.01,
		voltDiv:    1,
		active:     1,
		mode:       scopeTriggerAuto,
		level:      0,
		slope:      scopeSlopeRising,
		preTrigger: make([]float32, 0, scopePreTriggerSize),
	}
	n.resizeBuffer()
	return n
}

func init() {
	RegisterNodeType("oscilloscope", newOscilloscopeNode)
}

func (n *oscilloscopeNode) resizeBuffer() {
	size := int(n.timeDiv * float32(n.sampleRate) * 10)
	if size < 512 {
		size = 512
	}
	if size > 8192 {
		size = 8192
	}
	n.bufferSize = size
	n.waveform = make([]float32, 0, size)
}

func (n *oscilloscopeNode) Describe() Descriptor {
	return Descriptor{
		TypeName: "oscilloscope",
		Inputs:   []Port{{Name: "audio_in", Type: AudioMono}},
		Outputs:  []Port{{Name: "audio_out", Type: AudioMono}},
		Parameters: []ParameterRange{
			{Name: "time_div", Min: 0.0001, Max: 0.1, Default: 0.01},
			{Name: "volt_div", Min: 0.1, Max: 10, Default: 1},
			{Name: "position_h", Min: -0.5, Max: 0.5, Default: 0},
			{Name: "position_v", Min: -0.5, Max: 0.5, Default: 0},
			{Name: "trigger_mode", Min: 0, Max: 2, Default: scopeTriggerAuto},
			{Name: "trigger_level", Min: -5, Max: 5, Default: 0},
			{Name: "trigger_slope", Min: 0, Max: 1, Default: scopeSlopeRising},
			{Name: "active", Min: 0, Max: 1, Default: 1},
		},
	}
}

// triggerSample runs one sample through the trigger system, returning
// whether the scope should capture starting at this sample.
func (n *oscilloscopeNode) triggerSample(sample float32) bool {
	crossesRising := n.lastSample <= n.level && sample > n.level
	crossesFalling := n.lastSample >= n.level && sample < n.level
	n.lastSample = sample

	fires := false
	switch int(n.slope) {
	case scopeSlopeFalling:
		fires = crossesFalling
	default:
		fires = crossesRising
	}

	switch int(n.mode) {
	case scopeTriggerSingle:
		if fires && !n.triggered {
			n.triggered = true
			return true
		}
		return false
	case scopeTriggerNormal:
		return fires
	default: // auto
		return fires || len(n.waveform) == 0
	}
}

func (n *oscilloscopeNode) calculateMeasurements() {
	if len(n.waveform) == 0 {
		return
	}
	minV, maxV := n.waveform[0], n.waveform[0]
	var sumSquares float64
	crossings := 0
	for i, s := range n.waveform {
		if s < minV {
			minV = s
		}
		if s > maxV {
			maxV = s
		}
		sumSquares += float64(s) * float64(s)
		if i > 0 && ((n.waveform[i-1] <= 0 && s > 0) || (n.waveform[i-1] >= 0 && s < 0)) {
			crossings++
		}
	}
	n.measurements.vpp = maxV - minV
	n.measurements.vrms = float32(math.Sqrt(sumSquares / float64(len(n.waveform))))
	if crossings > 1 {
		periodSamples := float32(len(n.waveform)) / (float32(crossings) / 2)
		n.measurements.period = periodSamples / float32(n.sampleRate)
		if n.measurements.period > 0 {
			n.measurements.frequency = 1 / n.measurements.period
		}
	}
}

func (n *oscilloscopeNode) publish() {
	n.mu.Lock()
	n.sharedWaveform = append(n.sharedWaveform[:0], n.waveform...)
	n.sharedMeasure = n.measurements
	n.mu.Unlock()
}

func (n *oscilloscopeNode) Process(inputs Buffers, outputs Buffers) {
	in := inputs["audio_in"]
	out := outputs["audio_out"]
	if out == nil {
		return
	}
	copy(out, in)
	if len(in) < len(out) {
		for i := len(in); i < len(out); i++ {
			out[i] = 0
		}
	}

	if n.active == 0 {
		return
	}

	for _, sample := range in {
		n.measureCount++
		if len(n.preTrigger) >= scopePreTriggerSize {
			copy(n.preTrigger, n.preTrigger[1:])
			n.preTrigger[len(n.preTrigger)-1] = sample
		} else {
			n.preTrigger = append(n.preTrigger, sample)
		}

		if n.triggerSample(sample) && len(n.waveform) == 0 {
			n.waveform = append(n.waveform[:0], n.preTrigger...)
		}
		if len(n.waveform) > 0 && len(n.waveform) < n.bufferSize {
			n.waveform = append(n.waveform, sample)
		}
		if len(n.waveform) >= n.bufferSize {
			if n.measureCount >= scopeMeasurementInterval {
				n.measureCount = 0
				n.calculateMeasurements()
				n.publish()
			}
			n.waveform = n.waveform[:0]
			n.triggered = false
		}
	}
}

// WaveformData implements ScopeInterface.
func (n *oscilloscopeNode) WaveformData() []float32 {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]float32, len(n.sharedWaveform))
	copy(out, n.sharedWaveform)
	return out
}

func (n *oscilloscopeNode) SetParameter(name string, value float32) error {
	switch name {
	case "time_div":
		n.timeDiv = clamp32(value, 0.0001, 0.1)
		n.resizeBuffer()
	case "volt_div":
		n.voltDiv = clamp32(value, 0.1, 10)
	case "position_h":
		n.positionH = clamp32(value, -0.5, 0.5)
	case "position_v":
		n.positionV = clamp32(value, -0.5, 0.5)
	case "trigger_mode":
		if value < 0 || value > 2 {
			return ErrInvalidEnum
		}
		n.mode = value
	case "trigger_level":
		n.level = clamp32(value, -5, 5)
	case "trigger_slope":
		if value < 0 || value > 1 {
			return ErrInvalidEnum
		}
		n.slope = value
	case "active":
		n.active = boolToF32(value != 0)
	default:
		return ErrUnknownParameter
	}
	return nil
}

func (n *oscilloscopeNode) GetParameter(name string) (float32, error) {
	switch name {
	case "time_div":
		return n.timeDiv, nil
	case "volt_div":
		return n.voltDiv, nil
	case "position_h":
		return n.positionH, nil
	case "position_v":
		return n.positionV, nil
	case "trigger_mode":
		return n.mode, nil
	case "trigger_level":
		return n.level, nil
	case "trigger_slope":
		return n.slope, nil
	case "active":
		return n.active, nil
	default:
		return 0, ErrUnknownParameter
	}
}

func (n *oscilloscopeNode) Reset() {
	n.waveform = n.waveform[:0]
	n.preTrigger = n.preTrigger[:0]
	n.triggered = false
	n.measureCount = 0
	n.measurements = scopeMeasurements{}
}
