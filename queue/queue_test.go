package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/raportyapp/raporty/report"
)

type recorder struct {
	mu       sync.Mutex
	order    []string
	failWith map[string]error
	calls    map[string]int
}

func newRecorder() *recorder {
	return &recorder{failWith: map[string]error{}, calls: map[string]int{}}
}

func (r *recorder) process(ctx context.Context, req *report.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = append(r.order, req.ID)
	r.calls[req.ID]++
	return r.failWith[req.ID]
}

func (r *recorder) processed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.order...)
}

func (r *recorder) count(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[id]
}

func manualRequest() *report.Request {
	req := report.NewRequest(report.KindDaily, report.TriggerManual)
	req.Date = "02.05.2025"
	return req
}

func waitFor(t *testing.T, cond func() bool) {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached")
}

func TestEnqueueOrder(t *testing.T) {
	rec := newRecorder()
	q := New(8, rec.process)

	reqs := []*report.Request{manualRequest(), manualRequest(), manualRequest()}
	for _, req := range reqs {
		assert.Nil(t, q.Enqueue(req))
	}
	assert.Equal(t, 3, q.Depth())

	q.Start()
	defer q.Stop()

	waitFor(t, func() bool { return len(rec.processed()) == 3 })
	assert.Equal(t, []string{reqs[0].ID, reqs[1].ID, reqs[2].ID}, rec.processed())
	assert.Equal(t, 0, q.Depth())
}

func TestBackpressure(t *testing.T) {
	rec := newRecorder()
	q := New(2, rec.process)
	// worker not started: the queue fills up

	assert.Nil(t, q.Enqueue(manualRequest()))
	assert.Nil(t, q.Enqueue(manualRequest()))
	assert.Equal(t, 2, q.Depth())

	err := q.Enqueue(manualRequest())
	assert.True(t, errors.Is(err, ErrBusy))
	assert.Equal(t, 2, q.Depth()) // rejected request does not grow the queue

	err = q.Enqueue(manualRequest())
	assert.True(t, errors.Is(err, ErrBusy))
	assert.Equal(t, 2, q.Depth())
}

func TestDataUnavailableRequeuedOnce(t *testing.T) {
	rec := newRecorder()
	q := New(8, rec.process, WithRetryDelay(10*time.Millisecond))

	req := manualRequest()
	rec.failWith[req.ID] = &report.DataUnavailableError{Source: "reports.xlsx", Err: errors.New("locked")}

	assert.Nil(t, q.Enqueue(req))
	q.Start()
	defer q.Stop()

	waitFor(t, func() bool { return rec.count(req.ID) == 2 })
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 2, rec.count(req.ID)) // requeued once, then dropped
}

func TestGenerationErrorNotRetried(t *testing.T) {
	rec := newRecorder()
	q := New(8, rec.process, WithRetryDelay(time.Millisecond))

	req := manualRequest()
	rec.failWith[req.ID] = &report.GenerationError{Reason: "bad month"}

	assert.Nil(t, q.Enqueue(req))
	q.Start()
	defer q.Stop()

	waitFor(t, func() bool { return rec.count(req.ID) == 1 })
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 1, rec.count(req.ID))
}

func TestCancelBeforeDequeue(t *testing.T) {
	rec := newRecorder()
	q := New(8, rec.process)

	first := manualRequest()
	second := manualRequest()
	assert.Nil(t, q.Enqueue(first))
	assert.Nil(t, q.Enqueue(second))
	q.Cancel(first.ID)

	q.Start()
	defer q.Stop()

	waitFor(t, func() bool { return rec.count(second.ID) == 1 })
	assert.Equal(t, 0, rec.count(first.ID))
}

func TestCancelMarksPrunedOnDrain(t *testing.T) {
	rec := newRecorder()
	q := New(8, rec.process)

	// marks for ids that will never dequeue must not accumulate
	q.Cancel("ghost-1")
	q.Cancel("ghost-2")

	req := manualRequest()
	assert.Nil(t, q.Enqueue(req))

	q.Start()
	defer q.Stop()

	waitFor(t, func() bool { return rec.count(req.ID) == 1 })
	waitFor(t, func() bool {
		q.mu.Lock()
		defer q.mu.Unlock()
		return len(q.cancelled) == 0
	})
}

func TestWorkerSurvivesPanic(t *testing.T) {
	var mu sync.Mutex
	seen := []string{}
	q := New(8, func(ctx context.Context, req *report.Request) error {
		mu.Lock()
		seen = append(seen, req.ID)
		mu.Unlock()
		if len(seen) == 1 {
			panic("boom")
		}
		return nil
	})

	first := manualRequest()
	second := manualRequest()
	assert.Nil(t, q.Enqueue(first))
	assert.Nil(t, q.Enqueue(second))

	q.Start()
	defer q.Stop()

	waitFor(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 2
	})
}

func TestStopIdempotent(t *testing.T) {
	q := New(2, newRecorder().process)
	q.Start()
	q.Stop()
	q.Stop()
}
