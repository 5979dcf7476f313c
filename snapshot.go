// snapshot.go - lock-free, double-buffered, read-only snapshot publish
//
// Grounded on spec.md §5: "Snapshots for the UI are produced by the audio
// thread into a lock-free, double-buffered, read-only publish slot... partial
// snapshots are never observable." Mirrors the teacher's
// atomic.Pointer[SoundChip] hot-path pattern in audio_backend_oto.go,
// applied here to a published GraphSnapshot instead of a chip reference.

package synthcore

import "sync/atomic"

// snapshotPublisher holds the most recently published GraphSnapshot. Publish
// is called from the audio thread after each block (or less often); Latest
// is called from any control thread and never blocks or sees a torn write.
type snapshotPublisher struct {
	slot atomic.Pointer[GraphSnapshot]
}

func (p *snapshotPublisher) publish(s GraphSnapshot) {
	p.slot.Store(&s)
}

// Latest returns the most recently published snapshot, or the zero value if
// none has been published yet.
func (p *snapshotPublisher) Latest() GraphSnapshot {
	if s := p.slot.Load(); s != nil {
		return *s
	}
	return GraphSnapshot{}
}
