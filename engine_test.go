package synthcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_RenderBlock_OscillatorThroughOutput(t *testing.T) {
	const sampleRate = 44100.0
	const blockSize = 512

	e := NewEngine(sampleRate, blockSize, nil)
	g := e.Graph()

	oscID, err := g.AddNode("oscillator", "osc1")
	require.NoError(t, err)
	outID, err := g.AddNode("output", "out1")
	require.NoError(t, err)

	require.NoError(t, g.SetParameter(oscID, "frequency", 440))
	require.NoError(t, g.SetParameter(oscID, "amplitude", 0.5))
	require.NoError(t, g.SetParameter(oscID, "active", 1))
	require.NoError(t, g.SetParameter(outID, "master_volume", 1))

	require.NoError(t, g.AddConnection(oscID, "audio_out", outID, "audio_in_l"))

	require.NoError(t, e.Start())

	seconds := 1.0
	blocks := int(seconds * sampleRate / blockSize)
	var peak float32
	var crossings int
	var prevLeft float32
	first := true

	for b := 0; b < blocks; b++ {
		device := make([]float32, blockSize*2)
		e.RenderBlock(device)
		for i := 0; i < blockSize; i++ {
			left := device[2*i]
			if v := left; v > peak {
				peak = v
			}
			if v := -left; v > peak {
				peak = v
			}
			if !first && ((prevLeft < 0 && left >= 0) || (prevLeft > 0 && left <= 0)) {
				crossings++
			}
			first = false
			prevLeft = left
		}
	}

	assert.GreaterOrEqual(t, peak, float32(0.49))
	assert.LessOrEqual(t, peak, float32(0.51))

	expectedCrossings := 2 * 440.0 * seconds
	assert.InDelta(t, expectedCrossings, float64(crossings), expectedCrossings*0.1)
}

func TestEngine_StartStopIdempotent(t *testing.T) {
	e := NewEngine(44100, 64, nil)
	require.NoError(t, e.Start())
	require.NoError(t, e.Start())
	assert.True(t, e.IsRunning())

	require.NoError(t, e.Stop())
	require.NoError(t, e.Stop())
	assert.False(t, e.IsRunning())
}

func TestEngine_CommandQueue_AppliesAndReportsErrors(t *testing.T) {
	e := NewEngine(44100, 64, nil)

	reply := make(chan CommandResult, 1)
	e.Commands().Enqueue(Command{Kind: CmdCreateNode, NodeType: "vca", DisplayName: "vca1", ReplyTo: reply})

	device := make([]float32, 128)
	e.RenderBlock(device)

	res := <-reply
	require.NoError(t, res.Err)
	_, ok := e.Graph().FindByName("vca1")
	assert.True(t, ok)

	e.Commands().Enqueue(Command{Kind: CmdCreateNode, NodeType: "not_a_type", DisplayName: "bad"})
	e.RenderBlock(device)

	errs := e.PendingErrors()
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], ErrUnknownNodeType)

	assert.Empty(t, e.PendingErrors(), "PendingErrors should clear after being read")
}

func TestEngine_RenderBlock_SilentWithNoOutputNode(t *testing.T) {
	e := NewEngine(44100, 64, nil)
	device := make([]float32, 128)
	for i := range device {
		device[i] = 1 // poison the buffer to prove RenderBlock zeroes it
	}
	e.RenderBlock(device)
	for _, s := range device {
		assert.Equal(t, float32(0), s)
	}
}

func TestEngine_RenderBlock_RejectsGraphCycleViaCommand(t *testing.T) {
	e := NewEngine(44100, 64, nil)
	g := e.Graph()

	aID, err := g.AddNode("vca", "a")
	require.NoError(t, err)
	bID, err := g.AddNode("vca", "b")
	require.NoError(t, err)
	require.NoError(t, g.AddConnection(aID, "audio_out", bID, "audio_in"))

	reply := make(chan CommandResult, 1)
	e.Commands().Enqueue(Command{
		Kind: CmdConnect, SourceNode: bID, SourcePort: "audio_out",
		TargetNode: aID, TargetPort: "audio_in", ReplyTo: reply,
	})
	device := make([]float32, 128)
	e.RenderBlock(device)

	res := <-reply
	assert.ErrorIs(t, res.Err, ErrCycle)
}
