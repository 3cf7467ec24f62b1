package delivery

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/raportyapp/raporty/report"
)

type fakeDestination struct {
	name     string
	failures int // fail this many attempts before succeeding, -1 = always fail
	attempts int
	invalid  bool
	mu       sync.Mutex
}

func (f *fakeDestination) Deliver(ctx context.Context, artifact *report.Artifact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.failures < 0 || f.attempts <= f.failures {
		return errors.New("connection refused")
	}
	return nil
}

func (f *fakeDestination) Name() string { return f.name }
func (f *fakeDestination) Type() string { return "fake" }
func (f *fakeDestination) Validate() error {
	if f.invalid {
		return errors.New("missing token")
	}
	return nil
}

func testArtifact() *report.Artifact {
	req := report.NewRequest(report.KindDaily, report.TriggerManual)
	req.Date = "02.05.2025"
	return report.NewArtifact(req, "raport_02.05.2025.txt", "text/plain", []byte("raport"))
}

func TestRegister(t *testing.T) {
	d := NewDispatcher()
	assert.Nil(t, d.Register(&fakeDestination{name: "chat"}))
	assert.NotNil(t, d.Register(&fakeDestination{name: "chat"}))
	assert.NotNil(t, d.Register(&fakeDestination{name: "bad", invalid: true}))
	assert.Equal(t, []string{"chat"}, d.Names())

	_, has := d.Get("chat")
	assert.True(t, has)
	_, has = d.Get("bad")
	assert.False(t, has)
}

func TestDispatchSuccess(t *testing.T) {
	d := NewDispatcher(WithBackoff(time.Millisecond))
	dest := &fakeDestination{name: "chat"}
	assert.Nil(t, d.Register(dest))

	results := d.Dispatch(context.Background(), testArtifact(), nil)
	assert.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Equal(t, "chat", results[0].Destination)
	assert.Equal(t, 1, results[0].Attempts)
	assert.Empty(t, results[0].Error)
	assert.False(t, results[0].Timestamp.IsZero())
}

func TestDispatchRetriesThenSucceeds(t *testing.T) {
	d := NewDispatcher(WithRetries(3), WithBackoff(time.Millisecond))
	dest := &fakeDestination{name: "chat", failures: 2}
	assert.Nil(t, d.Register(dest))

	results := d.Dispatch(context.Background(), testArtifact(), []string{"chat"})
	assert.True(t, results[0].Success)
	assert.Equal(t, 3, results[0].Attempts)
}

func TestDispatchBoundedRetries(t *testing.T) {
	d := NewDispatcher(WithRetries(2), WithBackoff(time.Millisecond))
	dest := &fakeDestination{name: "chat", failures: -1}
	assert.Nil(t, d.Register(dest))

	results := d.Dispatch(context.Background(), testArtifact(), nil)
	assert.False(t, results[0].Success)
	assert.Equal(t, 3, results[0].Attempts) // N retries, N+1 attempts
	assert.Equal(t, 3, dest.attempts)       // the destination never sees more
	assert.Contains(t, results[0].Error, "chat")
}

func TestDispatchUnknownDestination(t *testing.T) {
	d := NewDispatcher()
	assert.Nil(t, d.Register(&fakeDestination{name: "chat"}))

	results := d.Dispatch(context.Background(), testArtifact(), []string{"chat", "nope"})
	assert.Len(t, results, 1)
	assert.Equal(t, "chat", results[0].Destination)
}

func TestDispatchMultipleDestinations(t *testing.T) {
	d := NewDispatcher(WithRetries(1), WithBackoff(time.Millisecond))
	assert.Nil(t, d.Register(&fakeDestination{name: "chat"}))
	assert.Nil(t, d.Register(&fakeDestination{name: "mail", failures: -1}))

	results := d.Dispatch(context.Background(), testArtifact(), nil)
	assert.Len(t, results, 2)

	byName := map[string]report.DeliveryResult{}
	for _, r := range results {
		byName[r.Destination] = r
	}
	assert.True(t, byName["chat"].Success)
	assert.False(t, byName["mail"].Success)
}

func TestDispatchCancelledContext(t *testing.T) {
	d := NewDispatcher(WithRetries(5), WithBackoff(50*time.Millisecond))
	dest := &fakeDestination{name: "chat", failures: -1}
	assert.Nil(t, d.Register(dest))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	results := d.Dispatch(ctx, testArtifact(), nil)
	assert.False(t, results[0].Success)
	assert.Less(t, dest.attempts, 6)
}
