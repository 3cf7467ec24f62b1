package generator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yaoapp/kun/log"

	"github.com/raportyapp/raporty/report"
	"github.com/raportyapp/raporty/store"
)

// Generator builds report artifacts from the workbook store
type Generator struct {
	store *store.Store
}

// New creates a generator over the given store
func New(s *store.Store) *Generator {
	return &Generator{store: s}
}

// Generate produces exactly one artifact for the request, or exactly
// one of DataUnavailableError / GenerationError
func (g *Generator) Generate(ctx context.Context, req *report.Request) (*report.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, &report.DataUnavailableError{Source: "context", Err: err}
	}

	if err := req.Validate(); err != nil {
		return nil, &report.GenerationError{Reason: err.Error()}
	}

	switch req.Kind {
	case report.KindDaily:
		return g.daily(req)
	case report.KindMonthly, report.KindMonthlyUser:
		return g.monthly(req)
	}
	return nil, &report.GenerationError{Reason: fmt.Sprintf("unknown report kind: %s", req.Kind)}
}

// daily renders a text summary of one day, either for one user or for
// everyone who reported that day
func (g *Generator) daily(req *report.Request) (*report.Artifact, error) {
	var entries []report.Entry
	var err error

	if req.UserID != 0 {
		entries, err = g.store.Day(req.UserID, req.Date)
	} else {
		entries, err = g.dayAllUsers(req.Date)
	}
	if err != nil {
		return nil, err
	}

	text := g.renderDaily(req, entries)
	filename := fmt.Sprintf("raport_%s.txt", req.Date)
	log.Debug("[Generator] daily report %s: %d entries", req.Date, len(entries))
	return report.NewArtifact(req, filename, "text/plain; charset=utf-8", []byte(text)), nil
}

func (g *Generator) dayAllUsers(date string) ([]report.Entry, error) {
	month, err := report.MonthKey(date)
	if err != nil {
		return nil, err
	}
	entries, err := g.store.MonthEntries(month, 0)
	if err != nil {
		if errors.Is(err, store.ErrNoData) {
			return []report.Entry{}, nil
		}
		return nil, err
	}
	day := []report.Entry{}
	for _, e := range entries {
		if e.Date == date {
			day = append(day, e)
		}
	}
	return day, nil
}

func (g *Generator) renderDaily(req *report.Request, entries []report.Entry) string {
	lines := []string{}
	if req.UserName != "" {
		lines = append(lines, fmt.Sprintf("👤 %s | 📅 %s", req.UserName, req.Date))
	} else {
		lines = append(lines, fmt.Sprintf("📅 Raport dnia %s", req.Date))
	}

	if len(entries) == 0 {
		lines = append(lines, "", "ℹ️ Brak raportu dla tej daty.")
		return strings.Join(lines, "\n")
	}

	lines = append(lines, "")
	for i, e := range entries {
		head := fmt.Sprintf("#%d • 📍 %s • ⏰ %s-%s", i+1, e.Place, e.Start, e.End)
		if req.UserID == 0 && e.Name != "" {
			head = fmt.Sprintf("#%d • 👤 %s • 📍 %s • ⏰ %s-%s", i+1, e.Name, e.Place, e.Start, e.End)
		}
		lines = append(lines,
			head,
			fmt.Sprintf("📝 %s", placeholder(e.Tasks)),
			fmt.Sprintf("💬 %s", placeholder(e.Notes)),
			"")
	}

	if total := report.DailyMinutes(entries); total > 0 {
		lines = append(lines, fmt.Sprintf("⏳ Suma: %s", report.FormatMinutes(total)))
	}
	return strings.Join(lines, "\n")
}

// monthly exports one month sheet as a standalone workbook
func (g *Generator) monthly(req *report.Request) (*report.Artifact, error) {
	userID := int64(0)
	if req.Kind == report.KindMonthlyUser {
		userID = req.UserID
	}

	content, err := g.store.ExportMonth(req.Month, userID)
	if err != nil {
		if errors.Is(err, store.ErrNoData) {
			return nil, &report.GenerationError{Reason: fmt.Sprintf("no data for %s", req.Month)}
		}
		return nil, err
	}

	filename := store.ExportFilename(req.Month, userID)
	log.Debug("[Generator] monthly export %s (%d bytes)", filename, len(content))
	return report.NewArtifact(req, filename, store.XLSXContentType, content), nil
}

func placeholder(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
