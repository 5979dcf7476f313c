// patch.go - JSON patch persistence
//
// Grounded on spec.md §6's literal field layout. encoding/json is used
// directly rather than an ecosystem serializer (documented stdlib exception
// in DESIGN.md): this is the one wire format the spec itself fixes byte for
// byte, and no example repo reaches for a third-party JSON library for a
// format it owns outright.

package synthcore

import (
	"encoding/json"
	"fmt"
	"os"
)

// patchNode is the on-disk shape of one node entry.
type patchNode struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	NodeType   string             `json:"node_type"`
	Parameters map[string]float32 `json:"parameters"`
}

// patchConnection is the on-disk shape of one connection entry.
type patchConnection struct {
	SourceNode string `json:"source_node"`
	SourcePort string `json:"source_port"`
	TargetNode string `json:"target_node"`
	TargetPort string `json:"target_port"`
}

// patchFile is the on-disk shape of a whole patch.
type patchFile struct {
	PatchName   string            `json:"patch_name"`
	Nodes       []patchNode       `json:"nodes"`
	Connections []patchConnection `json:"connections"`
}

// SavePatch serializes the graph's current nodes, parameters, and
// connections to path as JSON, identifying nodes by display name rather
// than runtime id. Display names must be unique within the graph for the
// file to round-trip; Save refuses to write a patch containing duplicates.
func SavePatch(g *Graph, patchName, path string) error {
	snap := g.Snapshot()

	seen := make(map[string]bool, len(snap.Nodes))
	byID := make(map[NodeID]string, len(snap.Nodes))
	for _, n := range snap.Nodes {
		if seen[n.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateName, n.Name)
		}
		seen[n.Name] = true
		byID[n.ID] = n.Name
	}

	pf := patchFile{
		PatchName: patchName,
		Nodes:     make([]patchNode, 0, len(snap.Nodes)),
	}
	for _, n := range snap.Nodes {
		pf.Nodes = append(pf.Nodes, patchNode{
			ID:         n.Name,
			Name:       n.Name,
			NodeType:   n.TypeName,
			Parameters: n.Parameters,
		})
	}
	for _, c := range snap.Connections {
		pf.Connections = append(pf.Connections, patchConnection{
			SourceNode: byID[c.SourceNode],
			SourcePort: c.SourcePort,
			TargetNode: byID[c.TargetNode],
			TargetPort: c.TargetPort,
		})
	}

	data, err := json.MarshalIndent(pf, "", "  ")
	if err != nil {
		return fmt.Errorf("synthcore: marshal patch: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadResult reports the per-step outcome of loading a patch: a patch with
// unknown node types or stale connections still loads as much as it can,
// with every skipped step recorded here rather than aborting the whole load.
type LoadResult struct {
	NodeErrors       map[string]error // keyed by patch node name, or "name.param" for a parameter that failed to apply
	ConnectionErrors []error
}

func (r *LoadResult) noteNodeError(name string, err error) {
	if r.NodeErrors == nil {
		r.NodeErrors = make(map[string]error)
	}
	r.NodeErrors[name] = err
}

// LoadPatch reads path, clears g, instantiates each node fresh into g under
// its saved display name and parameters, then recreates every connection.
// Node identity in the file is the display name; runtime ids are reassigned
// on load. When two nodes in the file share a display name, connections
// naming it resolve to the first of them.
func LoadPatch(g *Graph, path string) (*LoadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("synthcore: read patch: %w", err)
	}
	var pf patchFile
	if err := json.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("synthcore: parse patch: %w", err)
	}

	g.Clear()

	result := &LoadResult{}
	byName := make(map[string]NodeID, len(pf.Nodes))

	for _, n := range pf.Nodes {
		id, err := g.AddNode(n.NodeType, n.Name)
		if err != nil {
			result.noteNodeError(n.Name, err)
			continue
		}
		if _, dup := byName[n.Name]; !dup {
			byName[n.Name] = id
		}
		for param, value := range n.Parameters {
			if err := g.SetParameter(id, param, value); err != nil {
				result.noteNodeError(n.Name+"."+param, err)
			}
		}
	}

	for _, c := range pf.Connections {
		srcID, srcOK := byName[c.SourceNode]
		tgtID, tgtOK := byName[c.TargetNode]
		if !srcOK || !tgtOK {
			result.ConnectionErrors = append(result.ConnectionErrors, fmt.Errorf(
				"synthcore: connection %s:%s -> %s:%s references a node that failed to load",
				c.SourceNode, c.SourcePort, c.TargetNode, c.TargetPort))
			continue
		}
		if err := g.AddConnection(srcID, c.SourcePort, tgtID, c.TargetPort); err != nil {
			result.ConnectionErrors = append(result.ConnectionErrors, err)
		}
	}

	return result, nil
}
