// bufferpool.go - preallocated, reusable buffers keyed by (node, port)
//
// Grounded on spec.md §2/§4.4: growth happens only outside any node's
// Process call, and a disconnected input reads as a shared buffer of zeros.

package synthcore

type bufferKey struct {
	node NodeID
	port string
}

// bufferPool owns every node's output buffers plus one shared zero buffer
// used for unconnected inputs. Engine.RenderBlock calls ensure() for every
// output port of every node it processes, so a port's buffer is allocated
// on the audio thread the first time the port is rendered and again after a
// block-size change; after that it is reused block to block. No allocation
// happens inside a node's Process call.
type bufferPool struct {
	blockSize int
	buffers   map[bufferKey][]float32
	zero      []float32
}

func newBufferPool(blockSize int) *bufferPool {
	return &bufferPool{
		blockSize: blockSize,
		buffers:   make(map[bufferKey][]float32),
		zero:      make([]float32, blockSize),
	}
}

// ensure returns the buffer for (node, port), allocating it if this is the
// first time the port has been seen or the pool's block size changed.
func (p *bufferPool) ensure(node NodeID, port string) []float32 {
	key := bufferKey{node, port}
	buf, ok := p.buffers[key]
	if !ok || len(buf) != p.blockSize {
		buf = make([]float32, p.blockSize)
		p.buffers[key] = buf
	}
	return buf
}

// get returns the existing buffer for (node, port) without allocating, or
// the shared zero buffer if none has been registered yet.
func (p *bufferPool) get(node NodeID, port string) []float32 {
	if buf, ok := p.buffers[bufferKey{node, port}]; ok {
		return buf
	}
	return p.zero
}

// resize changes the block size for every future ensure() call. Existing
// buffers are re-allocated lazily on next ensure(), not eagerly here.
func (p *bufferPool) resize(blockSize int) {
	p.blockSize = blockSize
	p.zero = make([]float32, blockSize)
}
