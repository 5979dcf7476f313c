package synthcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func newTestGraph(t *testing.T) *Graph {
	t.Helper()
	return NewGraph(44100, 64)
}

func TestGraph_AddNodeUnknownType(t *testing.T) {
	g := newTestGraph(t)
	_, err := g.AddNode("not-a-real-type", "x")
	assert.ErrorIs(t, err, ErrUnknownNodeType)
}

func TestGraph_AddConnection_SelfLoop(t *testing.T) {
	g := newTestGraph(t)
	a, err := g.AddNode("vca", "A")
	require.NoError(t, err)

	before := g.Snapshot()
	err = g.AddConnection(a, "audio_out", a, "audio_in")
	assert.ErrorIs(t, err, ErrSelfLoop)
	assert.Equal(t, before, g.Snapshot())
}

func TestGraph_AddConnection_Cycle(t *testing.T) {
	g := newTestGraph(t)
	a, err := g.AddNode("vca", "A")
	require.NoError(t, err)
	b, err := g.AddNode("vca", "B")
	require.NoError(t, err)
	c, err := g.AddNode("vca", "C")
	require.NoError(t, err)

	require.NoError(t, g.AddConnection(a, "audio_out", b, "audio_in"))
	require.NoError(t, g.AddConnection(b, "audio_out", c, "audio_in"))

	before := g.Snapshot()
	err = g.AddConnection(c, "audio_out", a, "audio_in")
	assert.ErrorIs(t, err, ErrCycle)
	assert.Equal(t, before, g.Snapshot())

	require.NoError(t, g.RemoveConnection(a, "audio_out", b, "audio_in"))
	assert.NoError(t, g.AddConnection(c, "audio_out", a, "audio_in"))
}

func TestGraph_AddConnection_TypeMismatch(t *testing.T) {
	g := newTestGraph(t)
	osc, err := g.AddNode("oscillator", "osc")
	require.NoError(t, err)
	env, err := g.AddNode("adsr", "env")
	require.NoError(t, err)

	// audio_out (AudioMono) -> gate_in (CV): incompatible port types.
	err = g.AddConnection(osc, "audio_out", env, "gate_in")
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestGraph_AddConnection_AlreadyConnected(t *testing.T) {
	g := newTestGraph(t)
	a, err := g.AddNode("vca", "A")
	require.NoError(t, err)
	b, err := g.AddNode("vca", "B")
	require.NoError(t, err)
	c, err := g.AddNode("vca", "C")
	require.NoError(t, err)

	require.NoError(t, g.AddConnection(a, "audio_out", c, "audio_in"))
	err = g.AddConnection(b, "audio_out", c, "audio_in")
	assert.ErrorIs(t, err, ErrAlreadyConnected)
}

func TestGraph_AddConnection_PortMissing(t *testing.T) {
	g := newTestGraph(t)
	a, err := g.AddNode("vca", "A")
	require.NoError(t, err)
	b, err := g.AddNode("vca", "B")
	require.NoError(t, err)

	err = g.AddConnection(a, "nope", b, "audio_in")
	assert.ErrorIs(t, err, ErrPortMissing)
}

func TestGraph_RemoveConnection_NotFound(t *testing.T) {
	g := newTestGraph(t)
	a, err := g.AddNode("vca", "A")
	require.NoError(t, err)
	b, err := g.AddNode("vca", "B")
	require.NoError(t, err)

	err = g.RemoveConnection(a, "audio_out", b, "audio_in")
	assert.ErrorIs(t, err, ErrConnectionMissing)
}

func TestGraph_RemoveNode_RemovesTouchingConnections(t *testing.T) {
	g := newTestGraph(t)
	a, err := g.AddNode("vca", "A")
	require.NoError(t, err)
	b, err := g.AddNode("vca", "B")
	require.NoError(t, err)
	require.NoError(t, g.AddConnection(a, "audio_out", b, "audio_in"))

	require.NoError(t, g.RemoveNode(a))
	assert.Len(t, g.Connections(), 0)
	_, ok := g.FindByName("A")
	assert.False(t, ok)
}

func TestGraph_FindByName_FirstMatchWins(t *testing.T) {
	g := newTestGraph(t)
	first, err := g.AddNode("vca", "dup")
	require.NoError(t, err)
	_, err = g.AddNode("vca", "dup")
	require.NoError(t, err)

	found, ok := g.FindByName("dup")
	require.True(t, ok)
	assert.Equal(t, first, found)
}

func TestGraph_SetParameter_UnknownNode(t *testing.T) {
	g := newTestGraph(t)
	err := g.SetParameter(NewNodeID(), "gain", 1)
	assert.ErrorIs(t, err, ErrUnknownNode)
}

func TestGraph_SetParameter_ClampAndIdempotent(t *testing.T) {
	g := newTestGraph(t)
	id, err := g.AddNode("vca", "v")
	require.NoError(t, err)

	require.NoError(t, g.SetParameter(id, "gain", 99))
	v, err := g.GetParameter(id, "gain")
	require.NoError(t, err)
	assert.Equal(t, float32(2), v) // gain range is [0,2]

	require.NoError(t, g.SetParameter(id, "gain", 2))
	v2, err := g.GetParameter(id, "gain")
	require.NoError(t, err)
	assert.Equal(t, v, v2)
}

func TestGraph_ProcessingOrder_RespectsDependencies(t *testing.T) {
	g := newTestGraph(t)
	a, err := g.AddNode("vca", "A")
	require.NoError(t, err)
	b, err := g.AddNode("vca", "B")
	require.NoError(t, err)
	c, err := g.AddNode("vca", "C")
	require.NoError(t, err)

	require.NoError(t, g.AddConnection(b, "audio_out", c, "audio_in"))
	require.NoError(t, g.AddConnection(a, "audio_out", b, "audio_in"))

	order := g.ProcessingOrder()
	pos := make(map[NodeID]int, len(order))
	for i, id := range order {
		pos[id] = i
	}
	assert.Less(t, pos[a], pos[b])
	assert.Less(t, pos[b], pos[c])
}

// TestGraph_CycleCheck_Property is the testable property from spec.md §8:
// "for every successful add_connection, a subsequent would_create_cycle on
// the same edge returns true." The graph has no standalone
// would_create_cycle method, so this exercises the same DFS indirectly by
// attempting to add the reverse edge and expecting ErrCycle.
func TestGraph_CycleCheck_Property(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g := NewGraph(44100, 64)
		n := rapid.IntRange(2, 6).Draw(t, "n")
		ids := make([]NodeID, n)
		for i := range ids {
			id, err := g.AddNode("vca", rapid.StringMatching(`[a-z]{3,8}`).Draw(t, "name"))
			if err != nil {
				t.Fatalf("add node: %v", err)
			}
			ids[i] = id
		}
		// Build a simple chain 0 -> 1 -> ... -> n-1.
		for i := 0; i < n-1; i++ {
			require.NoError(t, g.AddConnection(ids[i], "audio_out", ids[i+1], "audio_in"))
		}
		// Closing the loop must now be rejected as a cycle.
		err := g.AddConnection(ids[n-1], "audio_out", ids[0], "audio_in")
		if n == 1 {
			return
		}
		assert.ErrorIs(t, err, ErrCycle)
	})
}

func TestGraph_Clear(t *testing.T) {
	g := newTestGraph(t)
	a, err := g.AddNode("vca", "A")
	require.NoError(t, err)
	b, err := g.AddNode("vca", "B")
	require.NoError(t, err)
	require.NoError(t, g.AddConnection(a, "audio_out", b, "audio_in"))

	g.Clear()
	assert.Empty(t, g.ProcessingOrder())
	assert.Empty(t, g.Connections())
	_, ok := g.FindByName("A")
	assert.False(t, ok)

	// A fresh AddNode after Clear must still work (insertOrder reset cleanly).
	id, err := g.AddNode("vca", "fresh")
	require.NoError(t, err)
	assert.Equal(t, []NodeID{id}, g.ProcessingOrder())
}
