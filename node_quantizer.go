// node_quantizer.go - CV quantizer utility node
//
// Grounded on original_source/src/nodes/quantizer.rs's QuantizerNode: a
// fixed table of 12-entry semitone scales (plus a settable custom table),
// root-note/transpose offsets, nearest-in-scale search up to 6 semitones in
// either direction when neither adjacent semitone is in scale, and
// slew-rate-limited output against the previous sample. active=false passes
// cv_in through on cv_out.
package synthcore

import "strconv"

const (
	quantizerScaleChromatic float32 = iota
	quantizerScaleMajor
	quantizerScaleMinor
	quantizerScalePentatonic
	quantizerScaleBlues
	quantizerScaleDorian
	quantizerScaleMixolydian
	quantizerScaleCustom
)

var quantizerScaleTables = map[float32][12]bool{
	quantizerScaleChromatic:  {true, true, true, true, true, true, true, true, true, true, true, true},
	quantizerScaleMajor:      {true, false, true, false, true, true, false, true, false, true, false, true},
	quantizerScaleMinor:      {true, false, true, true, false, true, false, true, true, false, true, false},
	quantizerScalePentatonic: {true, false, true, false, true, false, false, true, false, true, false, false},
	quantizerScaleBlues:      {true, false, false, true, false, true, true, true, false, false, true, false},
	quantizerScaleDorian:     {true, false, true, true, false, true, false, true, false, true, true, false},
	quantizerScaleMixolydian: {true, false, true, false, true, true, false, true, false, true, true, false},
}

type quantizerNode struct {
	active      float32
	scale       float32
	rootNote    float32
	transpose   float32
	customScale [12]bool
	slewRate    float32
	lastOutput  float32
	sampleRate  float64
}

func newQuantizerNode(sampleRate float64, _ int) Node {
	n := &quantizerNode{active: 1, scale: quantizerScaleChromatic, sampleRate: sampleRate}
	for i := range n.customScale {
		n.customScale[i] = true
	}
	return n
}

func init() {
	RegisterNodeType("quantizer", newQuantizerNode)
}

func (n *quantizerNode) Describe() Descriptor {
	params := []ParameterRange{
		{Name: "active", Min: 0, Max: 1, Default: 1},
		{Name: "scale", Min: 0, Max: 7, Default: 0},
		{Name: "root_note", Min: -5, Max: 5, Default: 0},
		{Name: "transpose", Min: -24, Max: 24, Default: 0},
		{Name: "slew_rate", Min: 0, Max: 1, Default: 0},
	}
	for i := 0; i < 12; i++ {
		params = append(params, ParameterRange{Name: "custom_" + strconv.Itoa(i), Min: 0, Max: 1, Default: 1})
	}

	return Descriptor{
		TypeName:   "quantizer",
		Inputs:     []Port{{Name: "cv_in", Type: CV}},
		Outputs:    []Port{{Name: "cv_out", Type: CV}, {Name: "trigger_out", Type: CV}},
		Parameters: params,
	}
}

func (n *quantizerNode) scaleNotes() [12]bool {
	if n.scale == quantizerScaleCustom {
		return n.customScale
	}
	return quantizerScaleTables[n.scale]
}

func mod12(v int) int {
	m := v % 12
	if m < 0 {
		m += 12
	}
	return m
}

func (n *quantizerNode) quantize(inputVoltage float32) float32 {
	adjusted := inputVoltage - n.rootNote + n.transpose/12
	semitones := adjusted * 12

	notes := n.scaleNotes()
	baseSemitone := int(float32Floor(semitones))
	fractional := semitones - float32(baseSemitone)

	currentNote := mod12(baseSemitone)
	nextNote := mod12(baseSemitone + 1)

	var quantizedSemitone int
	switch {
	case notes[currentNote] && notes[nextNote]:
		if fractional < 0.5 {
			quantizedSemitone = baseSemitone
		} else {
			quantizedSemitone = baseSemitone + 1
		}
	case notes[currentNote]:
		quantizedSemitone = baseSemitone
	case notes[nextNote]:
		quantizedSemitone = baseSemitone + 1
	default:
		quantizedSemitone = baseSemitone
		closestDistance := 12
		for offset := 1; offset <= 6; offset++ {
			for _, direction := range [2]int{-1, 1} {
				testSemitone := baseSemitone + offset*direction
				testNote := mod12(testSemitone)
				if notes[testNote] && offset < closestDistance {
					closestDistance = offset
					quantizedSemitone = testSemitone
				}
			}
		}
	}

	targetVoltage := float32(quantizedSemitone)/12 + n.rootNote - n.transpose/12

	if n.slewRate > 0 {
		maxChange := n.slewRate * float32(1/n.sampleRate)
		diff := clamp32(targetVoltage-n.lastOutput, -maxChange, maxChange)
		n.lastOutput += diff
	} else {
		n.lastOutput = targetVoltage
	}
	return n.lastOutput
}

func float32Floor(v float32) float32 {
	i := float32(int(v))
	if v < 0 && i != v {
		return i - 1
	}
	return i
}

func (n *quantizerNode) Process(inputs Buffers, outputs Buffers) {
	out := outputs["cv_out"]
	in := inputs["cv_in"]

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
			out[i] = n.quantize(sample)
		}
	}
	if trigOut := outputs["trigger_out"]; trigOut != nil {
		for i := range trigOut {
			trigOut[i] = 0
		}
	}
}

func (n *quantizerNode) customIndex(name string) (int, bool) {
	const prefix = "custom_"
	if len(name) <= len(prefix) || name[:len(prefix)] != prefix {
		return 0, false
	}
	idx, err := strconv.Atoi(name[len(prefix):])
	if err != nil || idx < 0 || idx >= 12 {
		return 0, false
	}
	return idx, true
}

func (n *quantizerNode) SetParameter(name string, value float32) error {
	switch name {
	case "active":
		n.active = boolToF32(value != 0)
	case "scale":
		if value < 0 || value > 7 || value != float32(int(value)) {
			return ErrInvalidEnum
		}
		n.scale = value
	case "root_note":
		n.rootNote = clamp32(value, -5, 5)
	case "transpose":
		n.transpose = clamp32(value, -24, 24)
	case "slew_rate":
		n.slewRate = clamp32(value, 0, 1)
	default:
		if idx, ok := n.customIndex(name); ok {
			n.customScale[idx] = value != 0
			return nil
		}
		return ErrUnknownParameter
	}
	return nil
}

func (n *quantizerNode) GetParameter(name string) (float32, error) {
	switch name {
	case "active":
		return n.active, nil
	case "scale":
		return n.scale, nil
	case "root_note":
		return n.rootNote, nil
	case "transpose":
		return n.transpose, nil
	case "slew_rate":
		return n.slewRate, nil
	default:
		if idx, ok := n.customIndex(name); ok {
			return boolToF32(n.customScale[idx]), nil
		}
		return 0, ErrUnknownParameter
	}
}

func (n *quantizerNode) Reset() {
	n.lastOutput = 0
}
