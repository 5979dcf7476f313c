// engine.go - the scheduler: drains commands, walks processing order,
// marshals buffers, writes the terminal output to the device
//
// Grounded on spec.md §4.4 literally. The per-node buffer assembly mirrors
// the teacher's SoundChip.GenerateSample's per-sample "read shared state,
// compute, mix" shape, generalized from one fixed channel mix to an
// arbitrary topologically-ordered graph.

package synthcore

import (
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// Engine wraps a Graph with the buffer pool, command queue, and running
// state needed to render it block by block. The graph, buffer pool, and all
// node state are owned by the audio thread while running; control threads
// mutate only by enqueuing Commands.
type Engine struct {
	graph   *Graph
	pool    *bufferPool
	queue   *CommandQueue
	publish snapshotPublisher

	sampleRate float64
	blockSize  int

	running atomic.Bool

	logger *log.Logger

	mu             sync.Mutex // guards outputNodeID/lastEpoch cache below
	outputNodeID   NodeID
	haveOutputNode bool
	lastEpoch      uint64

	pendingErrors []error

	blockCount uint64
}

// snapshotPublishInterval is how many rendered blocks pass between
// publishes of the UI snapshot. GraphSnapshot.Parameters rebuilds a fresh
// map per node via GetParameter, which is more allocation than the UI
// needs every single block; the control side only ever reads "the most
// recent" snapshot, so thinning the publish rate is invisible to it.
const snapshotPublishInterval = 8

// NewEngine constructs an Engine bound to its own fresh Graph at the given
// sample rate and block size.
func NewEngine(sampleRate float64, blockSize int, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		graph:      NewGraph(sampleRate, blockSize),
		pool:       newBufferPool(blockSize),
		queue:      NewCommandQueue(),
		sampleRate: sampleRate,
		blockSize:  blockSize,
		logger:     logger,
	}
}

// Graph returns the engine's graph, for read-only introspection (tests,
// patch save). Structural edits during a running engine must go through the
// command queue, not direct Graph calls.
func (e *Engine) Graph() *Graph { return e.graph }

// Commands returns the engine's command queue for control threads to
// enqueue into.
func (e *Engine) Commands() *CommandQueue { return e.queue }

// IsRunning reports whether Start has been called without a matching Stop.
func (e *Engine) IsRunning() bool { return e.running.Load() }

// Start transitions the engine to running. Idempotent: calling it while
// already running is a no-op success, per spec.md §5 ("Start/stop
// transitions are idempotent").
func (e *Engine) Start() error {
	e.running.Store(true)
	return nil
}

// Stop transitions the engine to stopped. Idempotent.
func (e *Engine) Stop() error {
	e.running.Store(false)
	return nil
}

// PendingErrors returns and clears command-application errors recorded
// since the last call, for control-thread retrieval per spec.md §4.4 step 1.
func (e *Engine) PendingErrors() []error {
	e.mu.Lock()
	defer e.mu.Unlock()
	errs := e.pendingErrors
	e.pendingErrors = nil
	return errs
}

// RenderBlock drains pending commands, processes one block of e.blockSize
// frames through the graph, and writes a stereo-interleaved buffer of
// len(device) == 2*blockSize samples. Safe to call only from the single
// audio-thread owner.
func (e *Engine) RenderBlock(device []float32) {
	e.applyCommands()

	order := e.graph.ProcessingOrder()
	conns := e.graph.Connections()

	// Build a target-port -> connection index once per block; O(E), small.
	bySink := make(map[bufferKey]Connection, len(conns))
	for _, c := range conns {
		bySink[bufferKey{c.TargetNode, c.TargetPort}] = c
	}

	for _, id := range order {
		impl, ok := e.graph.nodeImpl(id)
		if !ok {
			continue
		}
		desc := impl.Describe()

		inputs := make(Buffers, len(desc.Inputs))
		for _, p := range desc.Inputs {
			if c, connected := bySink[bufferKey{id, p.Name}]; connected {
				inputs[p.Name] = e.pool.get(c.SourceNode, c.SourcePort)
			} else {
				inputs[p.Name] = e.pool.zero
			}
		}

		outputs := make(Buffers, len(desc.Outputs))
		for _, p := range desc.Outputs {
			outputs[p.Name] = e.pool.ensure(id, p.Name)
		}

		impl.Process(inputs, outputs)
	}

	e.writeDeviceBuffer(device)

	e.blockCount++
	if e.blockCount == 1 || e.blockCount%snapshotPublishInterval == 0 {
		e.publish.publish(e.graph.Snapshot())
	}
}

func (e *Engine) writeDeviceBuffer(device []float32) {
	for i := range device {
		device[i] = 0
	}
	outID, ok := e.resolveOutputNode()
	if !ok {
		return
	}
	mixed := e.pool.get(outID, "mixed_output")
	n := len(device) / 2
	if n > len(mixed) {
		n = len(mixed)
	}
	for i := 0; i < n; i++ {
		device[2*i] = mixed[i]
		device[2*i+1] = mixed[i]
	}
}

// resolveOutputNode caches the id of the node of type "output" discovered in
// the graph, refreshing only when the graph's structural epoch changes so
// the lookup never walks the node table on every block.
func (e *Engine) resolveOutputNode() (NodeID, bool) {
	epoch := e.graph.Epoch()

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.haveOutputNode && epoch == e.lastEpoch {
		return e.outputNodeID, true
	}
	e.lastEpoch = epoch
	e.haveOutputNode = false

	e.graph.mu.RLock()
	for id, rec := range e.graph.nodes {
		if rec.typeName == "output" {
			e.outputNodeID = id
			e.haveOutputNode = true
			break
		}
	}
	e.graph.mu.RUnlock()

	return e.outputNodeID, e.haveOutputNode
}

// Latest returns the most recently published graph snapshot.
func (e *Engine) Latest() GraphSnapshot { return e.publish.Latest() }

func (e *Engine) applyCommands() {
	for _, cmd := range e.queue.Drain() {
		res := e.apply(cmd)
		if res.Err != nil {
			e.logger.Warn("command failed", "kind", cmd.Kind, "err", res.Err)
			e.mu.Lock()
			e.pendingErrors = append(e.pendingErrors, res.Err)
			e.mu.Unlock()
		}
		if cmd.ReplyTo != nil {
			cmd.ReplyTo <- res
		}
	}
}

func (e *Engine) apply(cmd Command) CommandResult {
	switch cmd.Kind {
	case CmdCreateNode:
		id, err := e.graph.AddNode(cmd.NodeType, cmd.DisplayName)
		return CommandResult{Err: err, CreatedID: id}
	case CmdRemoveNode:
		return CommandResult{Err: e.graph.RemoveNode(cmd.NodeID)}
	case CmdConnect:
		return CommandResult{Err: e.graph.AddConnection(cmd.SourceNode, cmd.SourcePort, cmd.TargetNode, cmd.TargetPort)}
	case CmdDisconnect:
		return CommandResult{Err: e.graph.RemoveConnection(cmd.SourceNode, cmd.SourcePort, cmd.TargetNode, cmd.TargetPort)}
	case CmdSetParameter:
		return CommandResult{Err: e.graph.SetParameter(cmd.NodeID, cmd.ParamName, cmd.ParamValue)}
	case CmdStart:
		return CommandResult{Err: e.Start()}
	case CmdStop:
		return CommandResult{Err: e.Stop()}
	case CmdResetNode:
		impl, ok := e.graph.nodeImpl(cmd.NodeID)
		if !ok {
			return CommandResult{Err: ErrUnknownNode}
		}
		impl.Reset()
		return CommandResult{}
	default:
		return CommandResult{Err: ErrUnknownNodeType}
	}
}
