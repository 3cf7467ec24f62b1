package telegram

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/raportyapp/raporty/report"
)

// Destination delivers artifacts to a Telegram chat. Text reports are
// sent as messages, workbook exports as document uploads.
type Destination struct {
	bot    *bot.Bot
	chatID int64
	name   string
}

// New creates a telegram destination over an existing bot client
func New(b *bot.Bot, chatID int64) *Destination {
	return &Destination{bot: b, chatID: chatID, name: "telegram"}
}

// Deliver sends the artifact to the configured chat
func (d *Destination) Deliver(ctx context.Context, artifact *report.Artifact) error {
	if strings.HasPrefix(artifact.ContentType, "text/plain") {
		_, err := d.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: d.chatID,
			Text:   string(artifact.Content),
		})
		return err
	}

	_, err := d.bot.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID: d.chatID,
		Document: &models.InputFileUpload{
			Filename: artifact.Filename,
			Data:     bytes.NewReader(artifact.Content),
		},
		Caption: fmt.Sprintf("Eksport %s", artifact.Filename),
	})
	return err
}

// Name returns the destination identifier
func (d *Destination) Name() string { return d.name }

// Type returns the channel type
func (d *Destination) Type() string { return "telegram" }

// Validate validates the destination configuration
func (d *Destination) Validate() error {
	if d.bot == nil {
		return fmt.Errorf("bot client is required")
	}
	if d.chatID == 0 {
		return fmt.Errorf("chat id is required")
	}
	return nil
}
