package ingest

import (
	"sync"

	"github.com/banshee-data/depthcloud/internal/pointcloud"
)

// mailbox is a single-slot handoff to one subscriber. Publishing overwrites
// an unconsumed frame and counts the overwrite as a drop, so a slow consumer
// always reads the newest frame and never stalls the producer.
type mailbox[T any, PT pointcloud.Record[T]] struct {
	mu    sync.Mutex
	cond  *sync.Cond
	frame *pointcloud.Buffer[T, PT] // nil once consumed

	consecutiveDrops uint64
	totalDrops       uint64
	consumed         uint64

	closed bool
}

func newMailbox[T any, PT pointcloud.Record[T]]() *mailbox[T, PT] {
	m := &mailbox[T, PT]{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// publish stores frame, handing ownership to the subscriber. It never blocks
// on the reader. It reports whether an unconsumed frame was overwritten.
func (m *mailbox[T, PT]) publish(frame *pointcloud.Buffer[T, PT]) (dropped bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false
	}
	if m.frame != nil {
		m.consecutiveDrops++
		m.totalDrops++
		dropped = true
	}
	m.frame = frame
	m.cond.Signal()
	return dropped
}

// read blocks until a frame is available or the mailbox is closed. A closed
// mailbox returns nil even if a frame was still pending.
func (m *mailbox[T, PT]) read() *pointcloud.Buffer[T, PT] {
	m.mu.Lock()
	defer m.mu.Unlock()

	for m.frame == nil && !m.closed {
		m.cond.Wait()
	}
	if m.closed {
		return nil
	}

	frame := m.frame
	m.frame = nil
	m.consumed++
	m.consecutiveDrops = 0
	return frame
}

func (m *mailbox[T, PT]) close() {
	m.mu.Lock()
	m.closed = true
	m.frame = nil
	m.cond.Broadcast()
	m.mu.Unlock()
}

func (m *mailbox[T, PT]) stats() SubscriberStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return SubscriberStats{
		Consumed:         m.consumed,
		ConsecutiveDrops: m.consecutiveDrops,
		TotalDrops:       m.totalDrops,
		Pending:          m.frame != nil,
	}
}
