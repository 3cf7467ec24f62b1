package delivery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yaoapp/kun/log"

	"github.com/raportyapp/raporty/report"
)

// Dispatcher routes artifacts to registered destinations and owns the
// retry policy. Retry budget exhaustion surfaces as a failed
// DeliveryResult, it never raises to the caller.
type Dispatcher struct {
	destinations map[string]Destination
	retries      int
	backoff      time.Duration
	timeout      time.Duration
	mu           sync.RWMutex
}

// Option a dispatcher option
type Option func(*Dispatcher)

// WithRetries sets how many times a failed attempt is retried
func WithRetries(retries int) Option {
	return func(d *Dispatcher) { d.retries = retries }
}

// WithBackoff sets the first retry delay, doubled on every retry
func WithBackoff(backoff time.Duration) Option {
	return func(d *Dispatcher) { d.backoff = backoff }
}

// WithTimeout sets the per-attempt timeout
func WithTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) { d.timeout = timeout }
}

// NewDispatcher creates a dispatcher with the default policy (3
// retries, 2s initial backoff, 30s per attempt)
func NewDispatcher(options ...Option) *Dispatcher {
	dispatcher := &Dispatcher{
		destinations: map[string]Destination{},
		retries:      3,
		backoff:      2 * time.Second,
		timeout:      30 * time.Second,
	}
	for _, option := range options {
		option(dispatcher)
	}
	return dispatcher
}

// Register adds a destination after validating its configuration
func (d *Dispatcher) Register(dest Destination) error {
	if err := dest.Validate(); err != nil {
		return fmt.Errorf("destination %s: %w", dest.Name(), err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, has := d.destinations[dest.Name()]; has {
		return fmt.Errorf("destination %s already registered", dest.Name())
	}
	d.destinations[dest.Name()] = dest
	log.Info("[Delivery] destination %s (%s) registered", dest.Name(), dest.Type())
	return nil
}

// Names lists the registered destination names
func (d *Dispatcher) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.destinations))
	for name := range d.destinations {
		names = append(names, name)
	}
	return names
}

// Get returns a destination by name
func (d *Dispatcher) Get(name string) (Destination, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	dest, has := d.destinations[name]
	return dest, has
}

// Dispatch delivers one artifact to the named destinations, or to all
// registered destinations when names is empty. Each destination gets at
// most retries+1 attempts; the artifact itself is delivered at most
// once per destination per request.
func (d *Dispatcher) Dispatch(ctx context.Context, artifact *report.Artifact, names []string) []report.DeliveryResult {
	targets := []Destination{}

	d.mu.RLock()
	if len(names) == 0 {
		for _, dest := range d.destinations {
			targets = append(targets, dest)
		}
	} else {
		for _, name := range names {
			if dest, has := d.destinations[name]; has {
				targets = append(targets, dest)
			} else {
				log.Warn("[Delivery] unknown destination %s, skipping", name)
			}
		}
	}
	d.mu.RUnlock()

	results := make([]report.DeliveryResult, 0, len(targets))
	for _, dest := range targets {
		results = append(results, d.deliver(ctx, dest, artifact))
	}
	return results
}

// deliver runs the bounded retry loop for one destination
func (d *Dispatcher) deliver(ctx context.Context, dest Destination, artifact *report.Artifact) report.DeliveryResult {
	result := report.DeliveryResult{Destination: dest.Name()}
	delay := d.backoff

	for attempt := 0; attempt <= d.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				result.Attempts = attempt
				result.Error = ctx.Err().Error()
				result.Timestamp = time.Now()
				return result
			}
			delay *= 2
		}

		attemptCtx, cancel := context.WithTimeout(ctx, d.timeout)
		err := dest.Deliver(attemptCtx, artifact)
		cancel()

		result.Attempts = attempt + 1
		result.Timestamp = time.Now()

		if err == nil {
			result.Success = true
			log.Info("[Delivery] %s delivered to %s (attempt %d)", artifact.Filename, dest.Name(), result.Attempts)
			return result
		}

		result.Error = (&report.DeliveryError{Destination: dest.Name(), Err: err}).Error()
		log.Warn("[Delivery] %s to %s attempt %d/%d failed: %s",
			artifact.Filename, dest.Name(), result.Attempts, d.retries+1, err.Error())
	}

	log.Error("[Delivery] %s to %s gave up after %d attempts", artifact.Filename, dest.Name(), result.Attempts)
	return result
}
