package synthcore

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnapshotPublisher_LatestIsZeroBeforePublish(t *testing.T) {
	var p snapshotPublisher
	assert.Equal(t, GraphSnapshot{}, p.Latest())
}

func TestSnapshotPublisher_LatestReflectsMostRecentPublish(t *testing.T) {
	var p snapshotPublisher
	p.publish(GraphSnapshot{Nodes: []NodeSnapshot{{Name: "a"}}})
	p.publish(GraphSnapshot{Nodes: []NodeSnapshot{{Name: "b"}}})

	got := p.Latest()
	assert.Len(t, got.Nodes, 1)
	assert.Equal(t, "b", got.Nodes[0].Name)
}

func TestSnapshotPublisher_ConcurrentPublishNeverTears(t *testing.T) {
	var p snapshotPublisher
	var wg sync.WaitGroup
	const writers = 8

	wg.Add(writers)
	for w := 0; w < writers; w++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				nodes := make([]NodeSnapshot, id+1)
				for j := range nodes {
					nodes[j] = NodeSnapshot{Name: "writer"}
				}
				p.publish(GraphSnapshot{Nodes: nodes})
			}
		}(w)
	}

	done := make(chan struct{})
	go func() {
		for i := 0; i < 2000; i++ {
			snap := p.Latest()
			for _, n := range snap.Nodes {
				assert.Equal(t, "writer", n.Name)
			}
		}
		close(done)
	}()

	wg.Wait()
	<-done
}
