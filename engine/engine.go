package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/yaoapp/kun/log"

	"github.com/raportyapp/raporty/bot"
	"github.com/raportyapp/raporty/config"
	"github.com/raportyapp/raporty/delivery"
	"github.com/raportyapp/raporty/delivery/mailer"
	s3dest "github.com/raportyapp/raporty/delivery/s3"
	tgdest "github.com/raportyapp/raporty/delivery/telegram"
	"github.com/raportyapp/raporty/generator"
	"github.com/raportyapp/raporty/queue"
	"github.com/raportyapp/raporty/report"
	"github.com/raportyapp/raporty/scheduler"
	"github.com/raportyapp/raporty/service"
	"github.com/raportyapp/raporty/store"
)

// Engine owns the wired application: workbook store, report queue,
// scheduler, delivery destinations, service endpoint and the optional
// telegram panel
type Engine struct {
	cfg        config.Config
	Store      *store.Store
	Presets    *store.Presets
	Generator  *generator.Generator
	Dispatcher *delivery.Dispatcher
	Queue      *queue.Queue
	Scheduler  *scheduler.Scheduler
	Service    *service.Service
	Bot        *bot.Bot

	botCancel context.CancelFunc
}

// Load builds the engine from configuration. Any error here is fatal,
// after Load nothing but Stop brings the process down.
func Load(cfg config.Config) (*Engine, error) {
	e := &Engine{cfg: cfg}

	s, err := store.New(cfg.DataRoot, cfg.BackupKeep)
	if err != nil {
		return nil, fmt.Errorf("open data root %s: %w", cfg.DataRoot, err)
	}
	e.Store = s
	e.Presets = store.NewPresets(cfg.DataRoot)
	e.Generator = generator.New(s)

	e.Dispatcher = delivery.NewDispatcher(
		delivery.WithRetries(cfg.Delivery.Retries),
		delivery.WithBackoff(time.Duration(cfg.Delivery.Backoff)*time.Second),
		delivery.WithTimeout(time.Duration(cfg.Delivery.Timeout)*time.Second),
	)

	e.Queue = queue.New(cfg.QueueSize, e.process)

	if cfg.Telegram.Token != "" {
		panel, err := bot.New(cfg, s, e.Presets, e.Queue)
		if err != nil {
			return nil, fmt.Errorf("telegram bot: %w", err)
		}
		e.Bot = panel
		if cfg.Telegram.ChatID != 0 {
			dest := tgdest.New(panel.Client(), cfg.Telegram.ChatID)
			if err := e.Dispatcher.Register(dest); err != nil {
				return nil, err
			}
		}
	}

	if cfg.SMTP.Host != "" {
		dest := mailer.New(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From, cfg.SMTP.To)
		if err := e.Dispatcher.Register(dest); err != nil {
			return nil, err
		}
	}

	if cfg.S3.Bucket != "" {
		dest, err := s3dest.New(cfg.S3.Endpoint, cfg.S3.Region, cfg.S3.Key, cfg.S3.Secret, cfg.S3.Bucket, cfg.S3.Prefix)
		if err != nil {
			return nil, fmt.Errorf("s3 destination: %w", err)
		}
		if err := e.Dispatcher.Register(dest); err != nil {
			return nil, err
		}
	}

	if len(e.Dispatcher.Names()) == 0 {
		log.Warn("[Engine] no delivery destinations configured, artifacts will be dropped")
	}

	entries, err := scheduler.Parse(cfg.Schedules)
	if err != nil {
		return nil, fmt.Errorf("schedules: %w", err)
	}
	sched, err := scheduler.New(entries, e.Queue)
	if err != nil {
		return nil, err
	}
	e.Scheduler = sched

	options := []service.Option{}
	if e.Bot != nil && cfg.Telegram.WebhookURL != "" {
		options = append(options, service.WithWebhook(e.Bot.WebhookPath(), e.Bot.WebhookHandler()))
	}
	e.Service = service.New(e.Queue, options...)

	return e, nil
}

// process is the single queue consumer body: generate the artifact,
// then dispatch it to the requested destinations. Delivery failures
// never come back as errors, they are already sealed into results.
func (e *Engine) process(ctx context.Context, req *report.Request) error {
	artifact, err := e.Generator.Generate(ctx, req)
	if err != nil {
		return err
	}

	results := e.Dispatcher.Dispatch(ctx, artifact, req.Destinations)
	for _, res := range results {
		if res.Success {
			log.Info("[Engine] request %s delivered to %s after %d attempt(s)", req.ID, res.Destination, res.Attempts)
			continue
		}
		log.Error("[Engine] request %s delivery to %s failed: %s", req.ID, res.Destination, res.Error)
	}
	return nil
}

// Start brings the workers up and serves the endpoint. Blocks until
// Stop or until the listener cannot bind.
func (e *Engine) Start() error {
	e.Queue.Start()
	e.Scheduler.Start()

	if e.Bot != nil {
		ctx, cancel := context.WithCancel(context.Background())
		e.botCancel = cancel
		go e.Bot.Run(ctx)
	}

	log.Info("[Engine] started, %d schedule(s), destinations: %v", len(e.Scheduler.Entries()), e.Dispatcher.Names())
	return e.Service.Start(e.cfg)
}

// Stop drains the workers and releases the endpoint
func (e *Engine) Stop() {
	if e.botCancel != nil {
		e.botCancel()
	}
	e.Scheduler.Stop()
	e.Queue.Stop()
	e.Service.Stop()
}
