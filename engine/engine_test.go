package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/raportyapp/raporty/config"
	"github.com/raportyapp/raporty/report"
	"github.com/raportyapp/raporty/store"
)

func testConfig(t *testing.T) config.Config {
	cfg := config.Config{
		DataRoot:   t.TempDir(),
		BackupKeep: 5,
		QueueSize:  4,
	}
	cfg.Delivery.Retries = 1
	cfg.Delivery.Backoff = 1
	cfg.Delivery.Timeout = 5
	return cfg
}

func TestLoad(t *testing.T) {
	cfg := testConfig(t)
	cfg.Schedules = []string{"daily=0 18 * * *"}

	e, err := Load(cfg)
	assert.Nil(t, err)
	assert.NotNil(t, e.Store)
	assert.NotNil(t, e.Queue)
	assert.Len(t, e.Scheduler.Entries(), 1)
	assert.Nil(t, e.Bot)
	assert.Empty(t, e.Dispatcher.Names())
}

func TestLoadBadSchedule(t *testing.T) {
	cfg := testConfig(t)
	cfg.Schedules = []string{"daily=not a cron"}

	_, err := Load(cfg)
	assert.NotNil(t, err)
}

func TestProcessGeneratesArtifact(t *testing.T) {
	cfg := testConfig(t)
	e, err := Load(cfg)
	assert.Nil(t, err)

	date := report.Today()
	_, err = e.Store.SaveEntries(100, date, "Jan", []store.Draft{
		{Place: "Biuro", Start: "08:00", End: "16:00", Tasks: "montaż"},
	})
	assert.Nil(t, err)

	req := report.NewRequest(report.KindDaily, report.TriggerManual)
	req.Date = date
	req.UserID = 100
	assert.Nil(t, e.process(context.Background(), req))
}

func TestProcessSurfacesGenerationError(t *testing.T) {
	cfg := testConfig(t)
	e, err := Load(cfg)
	assert.Nil(t, err)

	req := report.NewRequest(report.KindMonthly, report.TriggerManual)
	req.Month = "2025-05"
	err = e.process(context.Background(), req)
	assert.True(t, report.IsGeneration(err))
}
