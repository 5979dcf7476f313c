package synthcore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPatch_SaveLoadRoundTrip(t *testing.T) {
	g := NewGraph(44100, 64)

	oscID, err := g.AddNode("oscillator", "osc1")
	require.NoError(t, err)
	vcaID, err := g.AddNode("vca", "vca1")
	require.NoError(t, err)
	envID, err := g.AddNode("envelope", "env1")
	require.NoError(t, err)
	outID, err := g.AddNode("output", "out1")
	require.NoError(t, err)

	require.NoError(t, g.SetParameter(oscID, "frequency", 440))
	require.NoError(t, g.SetParameter(vcaID, "gain", 0.8))

	require.NoError(t, g.AddConnection(oscID, "audio_out", vcaID, "audio_in"))
	require.NoError(t, g.AddConnection(envID, "cv_out", vcaID, "gain_cv"))
	require.NoError(t, g.AddConnection(vcaID, "audio_out", outID, "audio_in_l"))

	path := filepath.Join(t.TempDir(), "patch.json")
	require.NoError(t, SavePatch(g, "round trip", path))

	g2 := NewGraph(44100, 64)
	result, err := LoadPatch(g2, path)
	require.NoError(t, err)
	assert.Empty(t, result.NodeErrors)
	assert.Empty(t, result.ConnectionErrors)

	snap := g2.Snapshot()
	assert.Len(t, snap.Nodes, 4)
	assert.Len(t, snap.Connections, 3)

	names := make(map[string]bool, len(snap.Nodes))
	for _, n := range snap.Nodes {
		names[n.Name] = true
	}
	for _, want := range []string{"osc1", "vca1", "env1", "out1"} {
		assert.True(t, names[want], "expected loaded node %q", want)
	}

	newVCAID, ok := g2.FindByName("vca1")
	require.True(t, ok)
	gain, err := g2.GetParameter(newVCAID, "gain")
	require.NoError(t, err)
	assert.InDelta(t, 0.8, gain, 1e-5)
}

func TestPatch_LoadClearsExistingGraph(t *testing.T) {
	g := NewGraph(44100, 64)
	_, err := g.AddNode("vca", "stale")
	require.NoError(t, err)

	src := NewGraph(44100, 64)
	_, err = src.AddNode("oscillator", "fresh")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "patch.json")
	require.NoError(t, SavePatch(src, "fresh patch", path))

	_, err = LoadPatch(g, path)
	require.NoError(t, err)

	snap := g.Snapshot()
	require.Len(t, snap.Nodes, 1)
	assert.Equal(t, "fresh", snap.Nodes[0].Name)

	_, found := g.FindByName("stale")
	assert.False(t, found, "loading a patch must clear nodes from the previous graph")
}

func TestPatch_SaveRejectsDuplicateNames(t *testing.T) {
	g := NewGraph(44100, 64)
	_, err := g.AddNode("vca", "dup")
	require.NoError(t, err)
	_, err = g.AddNode("vca", "dup")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "patch.json")
	err = SavePatch(g, "dupes", path)
	assert.ErrorIs(t, err, ErrDuplicateName)
}

func TestPatch_LoadReportsUnknownNodeType(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patch.json")
	raw := `{
		"patch_name": "broken",
		"nodes": [{"id": "a", "name": "a", "node_type": "not_a_real_type", "parameters": {}}],
		"connections": []
	}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	g := NewGraph(44100, 64)
	result, err := LoadPatch(g, path)
	require.NoError(t, err)
	assert.Len(t, result.NodeErrors, 1)
	assert.ErrorIs(t, result.NodeErrors["a"], ErrUnknownNodeType)
}
