// graph.go - node table, connections, cycle detection and topological order
//
// Grounded on original_source/src/graph/mod.rs: add_connection's validation
// steps (checked here in the order self-loop, node and port existence,
// type match, single-producer, would_create_cycle) and
// update_processing_order's DFS post-order traversal
// with visited/temp-visited sets are carried across unchanged in meaning,
// re-expressed as idiomatic Go.

package synthcore

import (
	"sync"

	"github.com/google/uuid"
)

// NodeID is the opaque identity of a node within a Graph.
type NodeID uuid.UUID

func (id NodeID) String() string { return uuid.UUID(id).String() }

// NewNodeID allocates a fresh random node identity.
func NewNodeID() NodeID { return NodeID(uuid.New()) }

// Connection is a directed edge from an output port to an input port.
// Connections are plain value records; they reference nodes by identity,
// never by pointer.
type Connection struct {
	SourceNode NodeID
	SourcePort string
	TargetNode NodeID
	TargetPort string
}

type nodeRecord struct {
	id       NodeID
	name     string
	typeName string
	impl     Node
	desc     Descriptor
}

// Graph owns every node instance in the running engine. Connections are
// validated and stored here; processing order is recomputed on every
// structural edit.
type Graph struct {
	mu          sync.RWMutex
	sampleRate  float64
	blockSize   int
	nodes       map[NodeID]*nodeRecord
	insertOrder []NodeID // insertion order, for deterministic tie-breaking in rebuildOrderLocked
	connections []Connection
	order       []NodeID
	epoch       uint64
}

// NewGraph constructs an empty graph bound to the given sample rate and
// block size; every node created through it inherits these.
func NewGraph(sampleRate float64, blockSize int) *Graph {
	return &Graph{
		sampleRate: sampleRate,
		blockSize:  blockSize,
		nodes:      make(map[NodeID]*nodeRecord),
	}
}

// AddNode instantiates a fresh node of typeName via the catalog, inserts it
// under displayName, and recomputes processing order.
func (g *Graph) AddNode(typeName, displayName string) (NodeID, error) {
	impl, err := NewNodeInstance(typeName, g.sampleRate, g.blockSize)
	if err != nil {
		return NodeID{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	id := NewNodeID()
	g.nodes[id] = &nodeRecord{
		id:       id,
		name:     displayName,
		typeName: typeName,
		impl:     impl,
		desc:     impl.Describe(),
	}
	g.insertOrder = append(g.insertOrder, id)
	g.rebuildOrderLocked()
	g.epoch++
	return id, nil
}

// RemoveNode removes the node and every connection touching it, then
// recomputes processing order. Returns ErrUnknownNode if id is not present.
func (g *Graph) RemoveNode(id NodeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[id]; !ok {
		return ErrUnknownNode
	}
	delete(g.nodes, id)

	for i, existing := range g.insertOrder {
		if existing == id {
			g.insertOrder = append(g.insertOrder[:i], g.insertOrder[i+1:]...)
			break
		}
	}

	kept := g.connections[:0]
	for _, c := range g.connections {
		if c.SourceNode != id && c.TargetNode != id {
			kept = append(kept, c)
		}
	}
	g.connections = kept

	g.rebuildOrderLocked()
	g.epoch++
	return nil
}

// Clear removes every node and connection, resetting the graph to the state
// NewGraph would produce, except that the structural epoch is incremented
// rather than reset. Used by patch loading, which replaces the whole graph
// rather than merging into it.
func (g *Graph) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.nodes = make(map[NodeID]*nodeRecord)
	g.insertOrder = nil
	g.connections = nil
	g.order = nil
	g.epoch++
}

func (g *Graph) findPort(id NodeID, name string, wantOutput bool) (Port, error) {
	rec, ok := g.nodes[id]
	if !ok {
		return Port{}, ErrUnknownNode
	}
	list := rec.desc.Inputs
	if wantOutput {
		list = rec.desc.Outputs
	}
	for _, p := range list {
		if p.Name == name {
			return p, nil
		}
	}
	return Port{}, ErrPortMissing
}

// AddConnection validates port existence, direction, type compatibility,
// the single-producer-per-input rule, rejects self-loops, and rejects edges
// that would create a cycle. On success it appends the connection and
// recomputes processing order.
func (g *Graph) AddConnection(srcID NodeID, srcPort string, tgtID NodeID, tgtPort string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if srcID == tgtID {
		return ErrSelfLoop
	}

	src, err := g.findPort(srcID, srcPort, true)
	if err != nil {
		return err
	}
	tgt, err := g.findPort(tgtID, tgtPort, false)
	if err != nil {
		return err
	}
	if src.Type != tgt.Type {
		return ErrTypeMismatch
	}

	for _, c := range g.connections {
		if c.TargetNode == tgtID && c.TargetPort == tgtPort {
			return ErrAlreadyConnected
		}
	}

	if g.wouldCreateCycleLocked(srcID, tgtID) {
		return ErrCycle
	}

	g.connections = append(g.connections, Connection{
		SourceNode: srcID, SourcePort: srcPort,
		TargetNode: tgtID, TargetPort: tgtPort,
	})
	g.rebuildOrderLocked()
	g.epoch++
	return nil
}

// RemoveConnection deletes the exact matching connection, or returns
// ErrConnectionMissing.
func (g *Graph) RemoveConnection(srcID NodeID, srcPort string, tgtID NodeID, tgtPort string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for i, c := range g.connections {
		if c.SourceNode == srcID && c.SourcePort == srcPort &&
			c.TargetNode == tgtID && c.TargetPort == tgtPort {
			g.connections = append(g.connections[:i], g.connections[i+1:]...)
			g.rebuildOrderLocked()
			g.epoch++
			return nil
		}
	}
	return ErrConnectionMissing
}

// wouldCreateCycleLocked reports whether adding an edge src->tgt creates a
// cycle: true iff a directed path from tgt to src already exists.
func (g *Graph) wouldCreateCycleLocked(src, tgt NodeID) bool {
	return g.hasPathLocked(tgt, src, make(map[NodeID]bool))
}

func (g *Graph) hasPathLocked(from, to NodeID, visited map[NodeID]bool) bool {
	if from == to {
		return true
	}
	if visited[from] {
		return false
	}
	visited[from] = true
	for _, c := range g.connections {
		if c.SourceNode == from {
			if g.hasPathLocked(c.TargetNode, to, visited) {
				return true
			}
		}
	}
	return false
}

// rebuildOrderLocked recomputes g.order via DFS post-order over the
// "incoming edges" relation: a node is emitted only after every node that
// feeds one of its inputs. A detected back-edge aborts the rebuild, leaving
// the previous valid order in place (this should never happen given
// AddConnection's cycle check; callers that hit it have an internal
// invariant bug).
func (g *Graph) rebuildOrderLocked() {
	incoming := make(map[NodeID][]NodeID)
	// Stable iteration: walk connections in insertion order so ties among
	// siblings break by insertion order, per spec.md §4.3.
	for _, c := range g.connections {
		incoming[c.TargetNode] = append(incoming[c.TargetNode], c.SourceNode)
	}

	visited := make(map[NodeID]bool, len(g.nodes))
	tempVisited := make(map[NodeID]bool, len(g.nodes))
	order := make([]NodeID, 0, len(g.nodes))

	var visit func(id NodeID) bool
	visit = func(id NodeID) bool {
		if visited[id] {
			return true
		}
		if tempVisited[id] {
			return false // back-edge: cycle
		}
		tempVisited[id] = true
		for _, dep := range incoming[id] {
			if !visit(dep) {
				return false
			}
		}
		tempVisited[id] = false
		visited[id] = true
		order = append(order, id)
		return true
	}

	for _, id := range g.insertOrder {
		if !visit(id) {
			return // leave g.order untouched
		}
	}
	g.order = order
}

// SetParameter forwards to the node's SetParameter.
func (g *Graph) SetParameter(id NodeID, name string, value float32) error {
	g.mu.RLock()
	rec, ok := g.nodes[id]
	g.mu.RUnlock()
	if !ok {
		return ErrUnknownNode
	}
	return rec.impl.SetParameter(name, value)
}

// GetParameter forwards to the node's GetParameter.
func (g *Graph) GetParameter(id NodeID, name string) (float32, error) {
	g.mu.RLock()
	rec, ok := g.nodes[id]
	g.mu.RUnlock()
	if !ok {
		return 0, ErrUnknownNode
	}
	return rec.impl.GetParameter(name)
}

// FindByName performs a linear search for the first node with the given
// display name. Display names are not guaranteed unique; ambiguity is
// resolved by first match, per spec.md §9.
func (g *Graph) FindByName(displayName string) (NodeID, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, id := range g.order {
		if g.nodes[id].name == displayName {
			return id, true
		}
	}
	// order may be stale/empty on a cyclic-rejected edit; fall back to the
	// unordered node table so lookups still succeed.
	for id, rec := range g.nodes {
		if rec.name == displayName {
			return id, true
		}
	}
	return NodeID{}, false
}

func (g *Graph) nodeImpl(id NodeID) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	rec, ok := g.nodes[id]
	if !ok {
		return nil, false
	}
	return rec.impl, true
}

// ProcessingOrder returns a snapshot of the current topological order.
func (g *Graph) ProcessingOrder() []NodeID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]NodeID, len(g.order))
	copy(out, g.order)
	return out
}

// Connections returns a snapshot of the current connection list.
func (g *Graph) Connections() []Connection {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Connection, len(g.connections))
	copy(out, g.connections)
	return out
}

// NodeSnapshot describes one node for Graph.Snapshot.
type NodeSnapshot struct {
	ID         NodeID
	Name       string
	TypeName   string
	Parameters map[string]float32
}

// GraphSnapshot is a serializable description of the whole graph, used for
// save/UI.
type GraphSnapshot struct {
	Nodes       []NodeSnapshot
	Connections []Connection
}

// Snapshot returns a serializable description of nodes, parameters, and
// connections.
func (g *Graph) Snapshot() GraphSnapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	nodes := make([]NodeSnapshot, 0, len(g.nodes))
	for _, id := range g.order {
		rec := g.nodes[id]
		nodes = append(nodes, NodeSnapshot{
			ID:         rec.id,
			Name:       rec.name,
			TypeName:   rec.typeName,
			Parameters: parameterValues(rec),
		})
	}
	if len(nodes) != len(g.nodes) {
		// order is stale (empty graph or last rebuild aborted); fall back
		// to an unordered walk so Snapshot never silently drops nodes.
		nodes = nodes[:0]
		for _, rec := range g.nodes {
			nodes = append(nodes, NodeSnapshot{
				ID:         rec.id,
				Name:       rec.name,
				TypeName:   rec.typeName,
				Parameters: parameterValues(rec),
			})
		}
	}

	conns := make([]Connection, len(g.connections))
	copy(conns, g.connections)

	return GraphSnapshot{Nodes: nodes, Connections: conns}
}

func parameterValues(rec *nodeRecord) map[string]float32 {
	values := make(map[string]float32, len(rec.desc.Parameters))
	for _, p := range rec.desc.Parameters {
		if v, err := rec.impl.GetParameter(p.Name); err == nil {
			values[p.Name] = v
		}
	}
	return values
}

// ScopeFor returns the ScopeInterface for id, if its node type implements it.
func (g *Graph) ScopeFor(id NodeID) (ScopeInterface, bool) {
	impl, ok := g.nodeImpl(id)
	if !ok {
		return nil, false
	}
	s, ok := impl.(ScopeInterface)
	return s, ok
}

// AnalyzerFor returns the AnalyzerInterface for id, if its node type
// implements it.
func (g *Graph) AnalyzerFor(id NodeID) (AnalyzerInterface, bool) {
	impl, ok := g.nodeImpl(id)
	if !ok {
		return nil, false
	}
	a, ok := impl.(AnalyzerInterface)
	return a, ok
}

// Epoch returns the structural-change counter, incremented on every
// successful AddNode/RemoveNode/AddConnection/RemoveConnection.
func (g *Graph) Epoch() uint64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.epoch
}
