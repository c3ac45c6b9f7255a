// Package ingest moves interop frames into point buffers and hands
// independent copies to consumers.
//
// A Stage owns one producer buffer that is repopulated in place for every
// frame. Consumers never see that buffer: each published frame is a deep
// copy owned by exactly one subscriber, delivered through a single-slot
// mailbox that keeps only the newest frame.
package ingest

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/banshee-data/depthcloud/internal/monitoring"
	"github.com/banshee-data/depthcloud/internal/pointcloud"
	"github.com/banshee-data/depthcloud/internal/timeutil"
)

var (
	// ErrClosed is returned by Ingest after Close.
	ErrClosed = errors.New("ingest: stage closed")

	// ErrMailboxDepth is returned for a mailbox depth other than one.
	// Mailboxes hold only the newest frame.
	ErrMailboxDepth = errors.New("ingest: unsupported mailbox depth")
)

var logf = monitoring.Component("ingest")

// Config sizes a Stage.
type Config struct {
	// Capacity is the number of records in the producer buffer.
	Capacity int
	// Stride is the number of float32 samples per record in incoming frames.
	Stride int
	// Metadata describes the sensor. It is shared by every published frame.
	Metadata *pointcloud.Metadata
	// MailboxDepth is the number of frames each subscriber mailbox holds.
	// Zero means one, the only supported depth.
	MailboxDepth int
	// Clock times each ingest. Defaults to the wall clock.
	Clock timeutil.Clock
}

// Stats is a point-in-time view of a Stage.
type Stats struct {
	FramesIngested     uint64
	InvalidFrames      uint64
	PopulateErrors     uint64
	Drops              uint64
	LastFrameID        int64
	LastIngestDuration time.Duration
	Subscribers        []SubscriberStats
}

// SubscriberStats describes one mailbox.
type SubscriberStats struct {
	ID               uint64
	Consumed         uint64
	ConsecutiveDrops uint64
	TotalDrops       uint64
	Pending          bool
}

// Stage converts interop frames into point buffers for its subscribers.
// Ingest may be called from any goroutine; calls are serialised.
type Stage[T any, PT pointcloud.Record[T]] struct {
	mu       sync.Mutex
	producer *pointcloud.Buffer[T, PT]
	stride   int
	clock    timeutil.Clock

	subs   map[uint64]*mailbox[T, PT]
	nextID uint64
	closed bool

	framesIngested uint64
	invalidFrames  uint64
	populateErrors uint64
	drops          uint64
	lastFrameID    int64
	lastDuration   time.Duration
}

// NewStage allocates the producer buffer. Stride must cover the record's
// raw components.
func NewStage[T any, PT pointcloud.Record[T]](cfg Config) (*Stage[T, PT], error) {
	if cfg.Metadata == nil {
		return nil, pointcloud.ErrNilMetadata
	}
	if need := PT(new(T)).RawComponents(); cfg.Stride < need {
		return nil, fmt.Errorf("stage stride %d, record needs %d: %w", cfg.Stride, need, pointcloud.ErrInvalidStride)
	}
	if cfg.MailboxDepth != 0 && cfg.MailboxDepth != 1 {
		return nil, fmt.Errorf("mailbox depth %d: %w", cfg.MailboxDepth, ErrMailboxDepth)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Stage[T, PT]{
		producer: pointcloud.NewBuffer[T, PT](cfg.Capacity, cfg.Metadata),
		stride:   cfg.Stride,
		clock:    clock,
		subs:     make(map[uint64]*mailbox[T, PT]),
	}, nil
}

// Ingest populates the producer buffer from one interop frame and publishes
// a deep copy to every subscriber. Invalid frames are published too so
// consumers observe the discard signal. On a contract violation nothing is
// published and the producer buffer keeps its previous frame.
func (s *Stage[T, PT]) Ingest(desc pointcloud.FrameDescriptor, raw []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}

	start := s.clock.Now()
	if err := s.producer.PopulateFromInterop(desc, raw, s.stride); err != nil {
		s.populateErrors++
		logf("dropping frame %d: %v", desc.FrameID, err)
		return fmt.Errorf("ingest frame %d: %w", desc.FrameID, err)
	}

	s.framesIngested++
	if !desc.Valid {
		s.invalidFrames++
	}
	s.lastFrameID = desc.FrameID

	for id, mb := range s.subs {
		if mb.publish(s.producer.Clone()) {
			s.drops++
			if s.drops == 1 || s.drops%100 == 0 {
				logf("subscriber %d is falling behind (%d drops total)", id, s.drops)
			}
		}
	}

	s.lastDuration = s.clock.Since(start)
	return nil
}

// Subscribe registers a consumer. read blocks until a frame is available and
// returns nil once cancel or Close has been called; it must be called from a
// single goroutine. The caller owns every buffer read returns. cancel is
// idempotent.
func (s *Stage[T, PT]) Subscribe() (read func() *pointcloud.Buffer[T, PT], cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return func() *pointcloud.Buffer[T, PT] { return nil }, func() {}
	}

	s.nextID++
	id := s.nextID
	mb := newMailbox[T, PT]()
	s.subs[id] = mb

	var once sync.Once
	cancel = func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			mb.close()
		})
	}
	return mb.read, cancel
}

// Stats reports counters for the stage and its live subscribers.
func (s *Stage[T, PT]) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		FramesIngested:     s.framesIngested,
		InvalidFrames:      s.invalidFrames,
		PopulateErrors:     s.populateErrors,
		Drops:              s.drops,
		LastFrameID:        s.lastFrameID,
		LastIngestDuration: s.lastDuration,
		Subscribers:        make([]SubscriberStats, 0, len(s.subs)),
	}
	for id, mb := range s.subs {
		ss := mb.stats()
		ss.ID = id
		st.Subscribers = append(st.Subscribers, ss)
	}
	sort.Slice(st.Subscribers, func(i, j int) bool { return st.Subscribers[i].ID < st.Subscribers[j].ID })
	return st
}

// Close stops the stage and wakes every blocked reader. Later Ingest calls
// return ErrClosed.
func (s *Stage[T, PT]) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	subs := s.subs
	s.subs = make(map[uint64]*mailbox[T, PT])
	frames := s.framesIngested
	s.mu.Unlock()

	for _, mb := range subs {
		mb.close()
	}
	logf("closed after %d frames", frames)
}
