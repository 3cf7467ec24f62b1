package scheduler

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/yaoapp/kun/log"

	"github.com/raportyapp/raporty/queue"
	"github.com/raportyapp/raporty/report"
)

// Entry one schedule table row: a report kind and its cron expression
type Entry struct {
	Kind       report.Kind
	Expression string
}

// Enqueuer accepts scheduled report requests. Satisfied by queue.Queue.
type Enqueuer interface {
	Enqueue(req *report.Request) error
}

// Scheduler emits report requests on a timed basis. The schedule table
// is injected, not a process-wide singleton, and missed ticks are not
// backfilled: each entry emits at most one request per fire.
type Scheduler struct {
	cron    *cron.Cron
	entries []Entry
	target  Enqueuer
	now     func() time.Time
}

// Parse reads schedule entries in "kind=cron expression" form, e.g.
// "daily=0 18 * * *"
func Parse(lines []string) ([]Entry, error) {
	entries := make([]Entry, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		kind, expression, found := strings.Cut(line, "=")
		if !found {
			return nil, fmt.Errorf("invalid schedule entry %q, want kind=expression", line)
		}
		kind = strings.TrimSpace(kind)
		expression = strings.TrimSpace(expression)
		if _, err := cron.ParseStandard(expression); err != nil {
			return nil, fmt.Errorf("invalid cron expression for %s: %w", kind, err)
		}
		entries = append(entries, Entry{Kind: report.Kind(kind), Expression: expression})
	}
	return entries, nil
}

// New creates a scheduler over the given schedule table
func New(entries []Entry, target Enqueuer) (*Scheduler, error) {
	s := &Scheduler{
		cron:    cron.New(),
		entries: entries,
		target:  target,
		now:     time.Now,
	}

	for _, entry := range entries {
		entry := entry
		if _, err := s.cron.AddFunc(entry.Expression, func() { s.fire(entry) }); err != nil {
			return nil, fmt.Errorf("schedule %s: %w", entry.Kind, err)
		}
	}
	return s, nil
}

// Start starts the cron loop
func (s *Scheduler) Start() {
	s.cron.Start()
	for _, entry := range s.entries {
		log.Info("[Scheduler] %s scheduled at %q", entry.Kind, entry.Expression)
	}
}

// Stop stops the cron loop and waits for a running fire to return
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info("[Scheduler] stopped")
}

// Entries the injected schedule table
func (s *Scheduler) Entries() []Entry {
	return s.entries
}

// fire builds and enqueues one request for a due entry. A full queue
// drops the request: the next fire will cover the entry again.
func (s *Scheduler) fire(entry Entry) {
	req := s.buildRequest(entry)
	if err := req.Validate(); err != nil {
		log.Error("[Scheduler] %s produced an invalid request: %s", entry.Kind, err.Error())
		return
	}

	if err := s.target.Enqueue(req); err != nil {
		if errors.Is(err, queue.ErrBusy) {
			log.Warn("[Scheduler] %s fire dropped, queue full", entry.Kind)
			return
		}
		log.Error("[Scheduler] %s enqueue failed: %s", entry.Kind, err.Error())
		return
	}
	log.Info("[Scheduler] %s fired, request %s", entry.Kind, req.ID)
}

// buildRequest fills the time range for a scheduled kind. Daily reports
// cover the current day; monthly exports cover the month of yesterday,
// so a fire on the 1st ships the full previous month.
func (s *Scheduler) buildRequest(entry Entry) *report.Request {
	now := s.now()
	req := report.NewRequest(entry.Kind, report.TriggerSchedule)
	switch entry.Kind {
	case report.KindDaily:
		req.Date = now.Format(report.DateLayout)
	case report.KindMonthly:
		req.Month = now.AddDate(0, 0, -1).Format("2006-01")
	}
	return req
}
