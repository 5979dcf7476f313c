//go:build !headless

// device_oto.go - oto/v3 audio output backend
//
// Adapted from the teacher's audio_backend_oto.go: same atomic.Pointer
// lock-free hot path and pre-allocated sample buffer, retargeted from a
// single SoundChip ring-buffer read to an Engine.RenderBlock call, and from
// mono to the stereo-interleaved format spec.md §6 specifies.

package synthcore

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ebitengine/oto/v3"
)

// OtoDevice drives an oto/v3 player from an Engine's rendered blocks. Read
// is called on oto's internal audio goroutine; it must never block or
// allocate beyond the rare buffer-growth path.
type OtoDevice struct {
	ctx       *oto.Context
	player    *oto.Player
	engine    atomic.Pointer[Engine]
	sampleBuf []float32 // byte-to-float32 staging for the current Read
	renderBuf []float32 // one engine block's worth of stereo samples
	queued    []float32 // tail of renderBuf not yet consumed by Read

	mutex   sync.Mutex
	started bool
}

// NewOtoDevice opens an oto context at sampleRate for stereo float32
// output. The returned device has no engine attached yet; call Attach
// before Start.
func NewOtoDevice(sampleRate int) (*OtoDevice, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   4,
	})
	if err != nil {
		return nil, ErrDeviceOpen
	}
	<-ready

	d := &OtoDevice{
		ctx:       ctx,
		sampleBuf: make([]float32, 4096),
	}
	d.player = ctx.NewPlayer(d)
	return d, nil
}

// Attach installs the engine Read should pull blocks from. Safe to call
// while the device is running; takes effect on the next Read.
func (d *OtoDevice) Attach(e *Engine) {
	d.engine.Store(e)
}

// Read implements io.Reader for oto.Player. oto requests buffers sized to
// its own liking, which rarely lines up with the engine's fixed block size;
// Read renders whole engine blocks into renderBuf and serves Read calls out
// of the queued tail, rendering a fresh block only once the previous one is
// exhausted.
func (d *OtoDevice) Read(p []byte) (int, error) {
	e := d.engine.Load()
	if e == nil {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	numSamples := len(p) / 4
	if len(d.sampleBuf) < numSamples {
		d.sampleBuf = make([]float32, numSamples)
	}
	out := d.sampleBuf[:numSamples]

	filled := 0
	for filled < numSamples {
		if len(d.queued) == 0 {
			frames := e.blockSize
			if len(d.renderBuf) != 2*frames {
				d.renderBuf = make([]float32, 2*frames)
			}
			e.RenderBlock(d.renderBuf)
			d.queued = d.renderBuf
		}
		n := copy(out[filled:], d.queued)
		d.queued = d.queued[n:]
		filled += n
	}

	bytes := unsafe.Slice((*byte)(unsafe.Pointer(&out[0])), len(out)*4)
	copy(p, bytes)
	return len(p), nil
}

// Start begins playback. Idempotent.
func (d *OtoDevice) Start() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if !d.started {
		d.player.Play()
		d.started = true
	}
}

// Stop halts playback without releasing the underlying player. Idempotent.
func (d *OtoDevice) Stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.started {
		d.player.Pause()
		d.started = false
	}
}

// Close releases the player. The device must not be used afterward.
func (d *OtoDevice) Close() error {
	d.Stop()
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.player.Close()
}

// IsStarted reports whether Start has been called without a matching Stop.
func (d *OtoDevice) IsStarted() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.started
}
