package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/yaoapp/kun/log"

	"github.com/raportyapp/raporty/report"
)

// ErrBusy the queue is at its configured bound
var ErrBusy = errors.New("report queue is full")

// ProcessFunc handles one dequeued request. The worker inspects the
// returned error to decide whether the request is requeued.
type ProcessFunc func(ctx context.Context, req *report.Request) error

// item one queued request with its retry state
type item struct {
	req     *report.Request
	retried bool
}

// Queue the bounded report request queue. The scheduler, the service
// endpoint and the bot all enqueue here; a single consumer processes
// items strictly in enqueue order, so report generations never run
// concurrently. A full queue rejects new requests instead of growing.
type Queue struct {
	requests   chan *item
	quit       chan bool
	done       chan bool
	process    ProcessFunc
	retryDelay time.Duration
	cancelled  map[string]bool
	mu         sync.Mutex
	startOnce  sync.Once
	stopOnce   sync.Once
}

// Option a queue option
type Option func(*Queue)

// WithRetryDelay sets the delay before a data-unavailable request is
// requeued
func WithRetryDelay(delay time.Duration) Option {
	return func(q *Queue) { q.retryDelay = delay }
}

// New creates a queue with the given bound
func New(size int, process ProcessFunc, options ...Option) *Queue {
	if size <= 0 {
		size = 1
	}
	q := &Queue{
		requests:   make(chan *item, size),
		quit:       make(chan bool),
		done:       make(chan bool),
		process:    process,
		retryDelay: 5 * time.Second,
		cancelled:  map[string]bool{},
	}
	for _, option := range options {
		option(q)
	}
	return q
}

// Enqueue adds a request without blocking. Returns ErrBusy when the
// queue is at its bound, leaving the depth unchanged.
func (q *Queue) Enqueue(req *report.Request) error {
	select {
	case q.requests <- &item{req: req}:
		log.Debug("[Queue] request %s (%s) queued, depth %d", req.ID, req.Kind, len(q.requests))
		return nil
	default:
		return ErrBusy
	}
}

// Depth the number of pending requests
func (q *Queue) Depth() int {
	return len(q.requests)
}

// Cancel marks a request so the worker skips it. Only requests still
// waiting in the queue can be cancelled; once generation starts it runs
// to completion or failure.
func (q *Queue) Cancel(requestID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cancelled[requestID] = true
}

func (q *Queue) isCancelled(requestID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.cancelled[requestID] {
		delete(q.cancelled, requestID)
		return true
	}
	return false
}

// Start starts the consumer goroutine
func (q *Queue) Start() {
	q.startOnce.Do(func() {
		go q.run()
		log.Info("[Queue] worker started, bound %d", cap(q.requests))
	})
}

// Stop stops the consumer after the in-flight request finishes
func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		close(q.quit)
		<-q.done
		log.Info("[Queue] worker stopped")
	})
}

func (q *Queue) run() {
	defer close(q.done)
	for {
		select {
		case next := <-q.requests:
			q.handle(next)
			if len(q.requests) == 0 {
				q.clearCancelled()
			}
		case <-q.quit:
			return
		}
	}
}

// clearCancelled drops leftover cancel marks. A drained queue cannot
// hold a request any mark could still match, so marks for requests
// that were already processed must not pile up on a long-lived worker.
func (q *Queue) clearCancelled() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.cancelled) > 0 {
		q.cancelled = map[string]bool{}
	}
}

// handle processes one item. Failures are logged, never raised: the
// worker loop must survive every request.
func (q *Queue) handle(next *item) {
	req := next.req
	if q.isCancelled(req.ID) {
		log.Info("[Queue] request %s cancelled before processing", req.ID)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("[Queue] request %s panicked: %v", req.ID, r)
		}
	}()

	err := q.process(context.Background(), req)
	if err == nil {
		return
	}

	switch {
	case report.IsDataUnavailable(err) && !next.retried:
		log.Warn("[Queue] request %s data unavailable, requeueing once: %s", req.ID, err.Error())
		go q.requeue(next)

	case report.IsDataUnavailable(err):
		log.Error("[Queue] request %s dropped after retry: %s", req.ID, err.Error())

	case report.IsGeneration(err):
		log.Error("[Queue] request %s dropped, malformed input: %s", req.ID, err.Error())

	default:
		log.Error("[Queue] request %s failed: %s", req.ID, err.Error())
	}
}

// requeue puts a data-unavailable request back after a backoff. A full
// queue at that point drops the request.
func (q *Queue) requeue(next *item) {
	select {
	case <-time.After(q.retryDelay):
	case <-q.quit:
		return
	}

	next.retried = true
	select {
	case q.requests <- next:
	default:
		log.Error("[Queue] request %s dropped on requeue, queue full", next.req.ID)
	}
}
