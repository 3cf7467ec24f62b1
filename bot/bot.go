package bot

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/yaoapp/kun/log"

	"github.com/raportyapp/raporty/config"
	"github.com/raportyapp/raporty/queue"
	"github.com/raportyapp/raporty/store"
)

// Bot the telegram panel: per-user work report entry, exports and the
// daily summary commands
type Bot struct {
	tg         *bot.Bot
	store      *store.Store
	presets    *store.Presets
	queue      *queue.Queue
	admins     map[int64]bool
	webhookURL string
	token      string
}

// New creates the bot and registers its handlers
func New(cfg config.Config, s *store.Store, presets *store.Presets, q *queue.Queue) (*Bot, error) {
	if cfg.Telegram.Token == "" {
		return nil, fmt.Errorf("telegram token is required")
	}

	b := &Bot{
		store:      s,
		presets:    presets,
		queue:      q,
		admins:     map[int64]bool{},
		webhookURL: cfg.Telegram.WebhookURL,
		token:      cfg.Telegram.Token,
	}
	for _, id := range cfg.AdminIDs {
		b.admins[id] = true
	}

	tg, err := bot.New(cfg.Telegram.Token, bot.WithDefaultHandler(b.onMessage))
	if err != nil {
		return nil, err
	}
	b.tg = tg

	tg.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypePrefix, b.onStart)
	tg.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypePrefix, b.onHelp)
	tg.RegisterHandler(bot.HandlerTypeMessageText, "/add", bot.MatchTypePrefix, b.onAdd)
	tg.RegisterHandler(bot.HandlerTypeMessageText, "/edit", bot.MatchTypePrefix, b.onEdit)
	tg.RegisterHandler(bot.HandlerTypeMessageText, "/stats", bot.MatchTypePrefix, b.onStats)
	tg.RegisterHandler(bot.HandlerTypeMessageText, "/export", bot.MatchTypePrefix, b.onExport)
	tg.RegisterHandler(bot.HandlerTypeMessageText, "/myexport", bot.MatchTypePrefix, b.onMyExport)
	tg.RegisterHandler(bot.HandlerTypeCallbackQueryData, "export", bot.MatchTypeExact, b.onExportButton)
	tg.RegisterHandler(bot.HandlerTypeCallbackQueryData, "myexport", bot.MatchTypeExact, b.onMyExportButton)

	return b, nil
}

// Client the underlying telegram client, shared with the delivery
// destination
func (b *Bot) Client() *bot.Bot {
	return b.tg
}

// WebhookPath the route the service mounts for webhook updates. The
// token keeps the path unguessable, same trick the legacy deployment
// used.
func (b *Bot) WebhookPath() string {
	return "/webhook/" + b.token
}

// WebhookHandler the http handler fed by telegram webhook calls
func (b *Bot) WebhookHandler() http.Handler {
	return b.tg.WebhookHandler()
}

// Run serves updates until ctx is cancelled. Webhook mode when a
// public URL is configured, long polling otherwise.
func (b *Bot) Run(ctx context.Context) {
	b.setCommands(ctx)

	if b.webhookURL != "" {
		url := b.webhookURL + b.WebhookPath()
		if _, err := b.tg.SetWebhook(ctx, &bot.SetWebhookParams{URL: url}); err != nil {
			log.Error("[Bot] set webhook: %s", err.Error())
			return
		}
		log.Info("[Bot] webhook mode: %s", url)
		b.tg.StartWebhook(ctx)
		return
	}

	if _, err := b.tg.DeleteWebhook(ctx, &bot.DeleteWebhookParams{}); err != nil {
		log.Warn("[Bot] delete webhook: %s", err.Error())
	}
	log.Info("[Bot] polling mode")
	b.tg.Start(ctx)
}

func (b *Bot) setCommands(ctx context.Context) {
	_, err := b.tg.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: []models.BotCommand{
			{Command: "start", Description: "Otwórz panel raportów"},
			{Command: "add", Description: "Dodaj pozycję: /add 08:00 16:00 Miejsce | zadania | uwagi"},
			{Command: "edit", Description: "Popraw pozycję: /edit N pole wartość"},
			{Command: "stats", Description: "Twoje podsumowanie miesięcy"},
			{Command: "export", Description: "Eksport (admin): /export YYYY-MM"},
			{Command: "myexport", Description: "Mój eksport: /myexport YYYY-MM"},
			{Command: "help", Description: "Pomoc"},
		},
	})
	if err != nil {
		log.Warn("[Bot] set commands: %s", err.Error())
	}
}

func (b *Bot) isAdmin(userID int64) bool {
	// no configured admins means everyone may export
	if len(b.admins) == 0 {
		return true
	}
	return b.admins[userID]
}
