// ============================================================================
// meinSPRACHWERK (mSW) - Lokaler Text-to-Speech Dienst
// ============================================================================
//
// Package:     speech
// Description: Bounded priority queue with preempting playback worker
// Author:      Mike Stoffels with Claude
// Created:     2025-12-14
// License:     MIT
// ============================================================================

package speech

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/msto63/mSW/pkg/core/logging"
)

// Synthesizer converts text to samples. The queue worker is its only
// caller per queue instance.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string, speed float64) ([]float32, int, error)
}

// Sink plays samples until finished or the context is cancelled
type Sink interface {
	Play(ctx context.Context, samples []float32, sampleRate int) error
}

// QueueConfig controls queue capacity and preemption behavior
type QueueConfig struct {
	MaxDepth                  int
	InterruptOnHigherPriority bool
}

// Queue is a bounded priority queue with a single worker that synthesizes
// and plays each item. Lower priority values are more urgent; ties are FIFO.
// The cap covers the queued set plus at most one in-flight item, and the
// in-flight item is never evicted by overflow.
type Queue struct {
	mu        sync.Mutex
	items     requestHeap
	current   *Request
	seq       uint64
	cfg       QueueConfig
	synth     Synthesizer
	sink      Sink
	logger    *logging.Logger
	observers []Observer

	wake     chan struct{}
	shutdown chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewQueue creates the queue and starts its worker
func NewQueue(cfg QueueConfig, synth Synthesizer, sink Sink, logger *logging.Logger) *Queue {
	if cfg.MaxDepth < 1 {
		cfg.MaxDepth = 1
	}
	if logger == nil {
		logger = logging.New("queue")
	}

	q := &Queue{
		cfg:      cfg,
		synth:    synth,
		sink:     sink,
		logger:   logger,
		wake:     make(chan struct{}, 1),
		shutdown: make(chan struct{}),
	}

	q.wg.Add(1)
	go q.worker()
	return q
}

// AddObserver registers a lifecycle observer. Observers run outside the
// queue lock and should return quickly.
func (q *Queue) AddObserver(obs Observer) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.observers = append(q.observers, obs)
}

// Enqueue admits a request. Never blocks on capacity: when the queue is
// full, one queued item with the largest priority value (oldest among
// equals) is evicted first. Returns the request id.
func (q *Queue) Enqueue(r *Request) string {
	q.mu.Lock()

	q.seq++
	r.enqueueSeq = q.seq
	r.enqueuedAt = time.Now()

	var evicted *Request
	occupied := q.items.Len()
	if q.current != nil {
		occupied++
	}
	if occupied >= q.cfg.MaxDepth {
		evicted = q.evictLocked()
	}

	heap.Push(&q.items, r)

	if q.cfg.InterruptOnHigherPriority && q.current != nil && r.Priority < q.current.Priority {
		q.current.Cancel()
	}

	q.mu.Unlock()

	if evicted != nil {
		q.logger.Info("Queue full, evicted item", "evicted", evicted.ID, "priority", evicted.Priority)
		q.emit(eventFor(EventEvicted, evicted))
	}
	q.emit(eventFor(EventQueued, r))

	q.signal()
	return r.ID
}

// evictLocked removes and returns the queued item with the largest
// priority value, oldest among equals. Returns nil when nothing is queued.
func (q *Queue) evictLocked() *Request {
	if q.items.Len() == 0 {
		return nil
	}

	victim := 0
	for i := 1; i < q.items.Len(); i++ {
		v, c := q.items[victim], q.items[i]
		if c.Priority > v.Priority || (c.Priority == v.Priority && c.enqueueSeq < v.enqueueSeq) {
			victim = i
		}
	}
	return heap.Remove(&q.items, victim).(*Request)
}

// StopAndClear cancels any in-flight playback and drops all queued items.
// It returns once both effects are ordered, without awaiting quiescence.
func (q *Queue) StopAndClear() {
	q.mu.Lock()
	if q.current != nil {
		q.current.Cancel()
	}
	dropped := make([]*Request, q.items.Len())
	copy(dropped, q.items)
	q.items = q.items[:0]
	q.mu.Unlock()

	for _, r := range dropped {
		q.emit(eventFor(EventDropped, r))
	}
	if len(dropped) > 0 {
		q.logger.Info("Queue cleared", "dropped", len(dropped))
	}

	q.signal()
}

// Depth returns the number of queued items, excluding the in-flight one
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

// Current returns the id of the item playing right now, or empty
func (q *Queue) Current() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.current == nil {
		return ""
	}
	return q.current.ID
}

// Close stops the worker after clearing the queue. Blocks until the worker
// has exited.
func (q *Queue) Close() {
	q.stopOnce.Do(func() {
		q.StopAndClear()
		close(q.shutdown)
	})
	q.wg.Wait()
}

func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *Queue) emit(ev Event) {
	q.mu.Lock()
	observers := make([]Observer, len(q.observers))
	copy(observers, q.observers)
	q.mu.Unlock()

	for _, obs := range observers {
		obs(ev)
	}
}

// worker drains the queue one item at a time, synthesizing then playing.
// Per-item failures are logged and absorbed; only shutdown ends the loop.
func (q *Queue) worker() {
	defer q.wg.Done()

	for {
		select {
		case <-q.shutdown:
			return
		case <-q.wake:
		}

		for {
			select {
			case <-q.shutdown:
				return
			default:
			}

			q.mu.Lock()
			if q.items.Len() == 0 {
				q.mu.Unlock()
				break
			}
			r := heap.Pop(&q.items).(*Request)
			q.current = r
			q.mu.Unlock()

			q.process(r)

			q.mu.Lock()
			q.current = nil
			q.mu.Unlock()
		}
	}
}

// process synthesizes and plays one request. Synthesis is not cancellable
// mid-call; a cancel raised during synthesis skips playback instead.
func (q *Queue) process(r *Request) {
	if r.Cancelled() {
		q.logger.Info("Item cancelled before synthesis", "id", r.ID)
		q.emit(eventFor(EventCancelled, r))
		return
	}

	q.emit(eventFor(EventStarted, r))

	samples, rate, err := q.synth.Synthesize(context.Background(), r.Text, r.VoiceID, r.Speed)
	if err != nil {
		q.logger.Error("Synthesis failed", "id", r.ID, "voice", r.VoiceID, "error", err)
		ev := eventFor(EventFailed, r)
		ev.Error = err.Error()
		q.emit(ev)
		return
	}

	if r.Cancelled() {
		q.logger.Info("Item cancelled before playback", "id", r.ID)
		q.emit(eventFor(EventCancelled, r))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	watchDone := make(chan struct{})
	go func() {
		select {
		case <-r.Done():
			cancel()
		case <-watchDone:
		}
	}()

	playErr := q.sink.Play(ctx, samples, rate)
	close(watchDone)
	cancel()

	switch {
	case r.Cancelled():
		q.logger.Info("Playback cancelled", "id", r.ID)
		q.emit(eventFor(EventCancelled, r))
	case playErr != nil:
		q.logger.Error("Playback failed", "id", r.ID, "error", playErr)
		ev := eventFor(EventFailed, r)
		ev.Error = playErr.Error()
		q.emit(ev)
	default:
		q.emit(eventFor(EventCompleted, r))
	}
}
