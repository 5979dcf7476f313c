// node_sequencer.go - step sequencer
//
// Grounded on original_source/src/nodes/sequencer.rs's SequencerNode: the
// BPM-derived 16th-note timing (samples_per_step = 60/bpm*sample_rate/4),
// the 1V/oct CV reference (C4 = 261.63Hz, cv = log2(note/C4)), the 5V gate
// and 0-10V velocity conventions, and the default 8-step C4-C5 major scale
// pattern are carried unchanged in meaning.
package synthcore

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	seqMaxSteps   = 16
	seqDefaultLen = 8
	c4Frequency   = 261.63
)

var defaultScale = [...]float32{261.63, 293.66, 329.63, 349.23, 392.00, 440.00, 493.88, 523.25}

type sequencerStep struct {
	note     float32
	gate     bool
	velocity float32
}

type sequencerNode struct {
	sampleRate float64

	steps       [seqMaxSteps]sequencerStep
	stepCount   int
	currentStep int

	bpm            float32
	samplesPerStep int
	sampleCounter  int

	active  float32
	running bool
}

func newSequencerNode(sampleRate float64, _ int) Node {
	n := &sequencerNode{
		sampleRate: sampleRate,
		stepCount:  seqDefaultLen,
		bpm:        120,
		active:     1,
	}
	for i := 0; i < seqMaxSteps; i++ {
		n.steps[i] = sequencerStep{note: defaultScale[i%len(defaultScale)], gate: true, velocity: 0.8}
	}
	n.recomputeSamplesPerStep()
	return n
}

func init() {
	RegisterNodeType("sequencer", newSequencerNode)
}

func (n *sequencerNode) recomputeSamplesPerStep() {
	n.samplesPerStep = int((60 / float64(n.bpm)) * n.sampleRate / 4)
	if n.samplesPerStep < 1 {
		n.samplesPerStep = 1
	}
}

func (n *sequencerNode) Describe() Descriptor {
	params := []ParameterRange{
		{Name: "bpm", Min: 60, Max: 200, Default: 120},
		{Name: "step_count", Min: 1, Max: seqMaxSteps, Default: seqDefaultLen},
		{Name: "running", Min: 0, Max: 1, Default: 0},
		{Name: "reset", Min: 0, Max: 1, Default: 0},
		{Name: "active", Min: 0, Max: 1, Default: 1},
	}
	for i := 0; i < n.stepCount; i++ {
		params = append(params,
			ParameterRange{Name: fmt.Sprintf("step_%d_note", i), Min: 20, Max: 20000, Default: defaultScale[i%len(defaultScale)]},
			ParameterRange{Name: fmt.Sprintf("step_%d_gate", i), Min: 0, Max: 1, Default: 1},
			ParameterRange{Name: fmt.Sprintf("step_%d_velocity", i), Min: 0, Max: 1, Default: 0.8})
	}

	return Descriptor{
		TypeName: "sequencer",
		Outputs: []Port{
			{Name: "note_cv", Type: CV},
			{Name: "gate_cv", Type: CV},
			{Name: "velocity_cv", Type: CV},
		},
		Parameters: params,
	}
}

func (n *sequencerNode) processStep() (noteCV, gateCV, velocityCV float32) {
	if n.active == 0 || !n.running {
		return 0, 0, 0
	}

	step := n.steps[n.currentStep%n.stepCount]

	if step.gate && step.note > 0 {
		noteCV = float32(math.Log2(float64(step.note) / c4Frequency))
	}
	if step.gate {
		gateCV = 5
	}
	velocityCV = step.velocity * 10

	n.sampleCounter++
	if n.sampleCounter >= n.samplesPerStep {
		n.sampleCounter = 0
		n.currentStep = (n.currentStep + 1) % n.stepCount
	}
	return
}

func (n *sequencerNode) Process(_ Buffers, outputs Buffers) {
	noteOut := outputs["note_cv"]
	gateOut := outputs["gate_cv"]
	velOut := outputs["velocity_cv"]
	if noteOut == nil {
		return
	}
	for i := range noteOut {
		note, gate, vel := n.processStep()
		noteOut[i] = note
		if i < len(gateOut) {
			gateOut[i] = gate
		}
		if i < len(velOut) {
			velOut[i] = vel
		}
	}
}

func (n *sequencerNode) setStepCount(count int) {
	if count < 1 {
		count = 1
	}
	if count > seqMaxSteps {
		count = seqMaxSteps
	}
	n.stepCount = count
	if n.currentStep >= count {
		n.currentStep = 0
	}
}

func (n *sequencerNode) start() {
	n.running = true
	n.currentStep = 0
	n.sampleCounter = 0
}

func (n *sequencerNode) stop() { n.running = false }

func (n *sequencerNode) resetSequence() {
	n.currentStep = 0
	n.sampleCounter = 0
}

func (n *sequencerNode) stepParam(name string) (step int, field string, ok bool) {
	if !strings.HasPrefix(name, "step_") {
		return 0, "", false
	}
	parts := strings.SplitN(name[len("step_"):], "_", 2)
	if len(parts) != 2 {
		return 0, "", false
	}
	idx, err := strconv.Atoi(parts[0])
	if err != nil || idx < 0 || idx >= n.stepCount {
		return 0, "", false
	}
	return idx, parts[1], true
}

func (n *sequencerNode) SetParameter(name string, value float32) error {
	switch name {
	case "bpm":
		n.bpm = clamp32(value, 60, 200)
		n.recomputeSamplesPerStep()
	case "step_count":
		n.setStepCount(int(value))
	case "running":
		if value != 0 {
			n.start()
		} else {
			n.stop()
		}
	case "reset":
		if value != 0 {
			n.resetSequence()
		}
	case "active":
		n.active = boolToF32(value != 0)
	default:
		idx, field, ok := n.stepParam(name)
		if !ok {
			return ErrUnknownParameter
		}
		switch field {
		case "note":
			n.steps[idx].note = clamp32(value, 20, 20000)
		case "gate":
			n.steps[idx].gate = value != 0
		case "velocity":
			n.steps[idx].velocity = clamp32(value, 0, 1)
		default:
			return ErrUnknownParameter
		}
	}
	return nil
}

func (n *sequencerNode) GetParameter(name string) (float32, error) {
	switch name {
	case "bpm":
		return n.bpm, nil
	case "step_count":
		return float32(n.stepCount), nil
	case "current_step":
		return float32(n.currentStep), nil
	case "running":
		return boolToF32(n.running), nil
	case "active":
		return n.active, nil
	default:
		idx, field, ok := n.stepParam(name)
		if !ok {
			return 0, ErrUnknownParameter
		}
		switch field {
		case "note":
			return n.steps[idx].note, nil
		case "gate":
			return boolToF32(n.steps[idx].gate), nil
		case "velocity":
			return n.steps[idx].velocity, nil
		default:
			return 0, ErrUnknownParameter
		}
	}
}

func (n *sequencerNode) Reset() {
	n.resetSequence()
	n.running = false
}
