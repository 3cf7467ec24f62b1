package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/yaoapp/kun/log"

	"github.com/raportyapp/raporty/report"
	"github.com/raportyapp/raporty/store"
)

const helpText = `Raporty — panel pracy

/add 08:00 16:00 Miejsce | zadania | uwagi
    dodaje pozycję do dzisiejszego raportu
/edit N pole wartość
    poprawia pozycję N (pola: miejsce, start, koniec, zadania, uwagi)
/stats
    Twoje podsumowanie miesięcy
/export YYYY-MM
    eksport miesiąca (admin)
/myexport YYYY-MM
    eksport Twoich pozycji
/help
    ta wiadomość`

func (b *Bot) onStart(ctx context.Context, tg *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	from := update.Message.From

	entries, err := b.store.Day(from.ID, report.Today())
	if err != nil {
		log.Warn("[Bot] read day for %d: %s", from.ID, err.Error())
	}
	text := renderDay(entries)
	if places := b.presets.Recent(from.ID); len(places) > 0 {
		text += "\n\nOstatnie miejsca: " + strings.Join(places, ", ")
	}
	b.reply(ctx, update.Message.Chat.ID, text, menuKeyboard())
}

// renderDay the /start summary of today's entries
func renderDay(entries []report.Entry) string {
	if len(entries) == 0 {
		return "Brak pozycji na dziś. Dodaj pierwszą komendą /add."
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📅 Dzisiejszy raport (%s):\n", report.Today()))
	for i, e := range entries {
		sb.WriteString(fmt.Sprintf("#%d • 📍 %s • ⏰ %s-%s\n", i+1, e.Place, e.Start, e.End))
	}
	sb.WriteString("⏳ Suma: " + report.FormatMinutes(report.DailyMinutes(entries)))
	return sb.String()
}

func (b *Bot) onHelp(ctx context.Context, tg *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	b.reply(ctx, update.Message.Chat.ID, helpText, nil)
}

func (b *Bot) onAdd(ctx context.Context, tg *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID
	from := update.Message.From

	draft, err := parseAdd(update.Message.Text)
	if err != nil {
		b.reply(ctx, chatID, "❗ "+err.Error()+"\n\nPrzykład: /add 08:00 16:00 Biuro | montaż | brak uwag", nil)
		return
	}

	date := report.Today()
	existing, err := b.store.Day(from.ID, date)
	if err != nil {
		log.Error("[Bot] read day %s for %d: %s", date, from.ID, err.Error())
		b.reply(ctx, chatID, "❗ Nie udało się odczytać raportu, spróbuj ponownie.", nil)
		return
	}
	if conflicts := report.Conflicts(existing, draft.Start, draft.End, ""); len(conflicts) > 0 {
		c := conflicts[0]
		b.reply(ctx, chatID, fmt.Sprintf("❗ Ten przedział nakłada się na %s-%s.", c[0], c[1]), nil)
		return
	}

	entries, err := b.store.SaveEntries(from.ID, date, displayName(from), []store.Draft{draft})
	if err != nil {
		log.Error("[Bot] save entry for %d: %s", from.ID, err.Error())
		b.reply(ctx, chatID, "❗ Nie udało się zapisać pozycji, spróbuj ponownie.", nil)
		return
	}
	if err := b.presets.Remember(from.ID, draft.Place); err != nil {
		log.Warn("[Bot] remember place: %s", err.Error())
	}

	day, err := b.store.Day(from.ID, date)
	if err != nil {
		day = entries
	}
	total := report.FormatMinutes(report.DailyMinutes(day))
	b.reply(ctx, chatID, fmt.Sprintf("✅ Zapisano: 📍 %s ⏰ %s-%s\n⏳ Dziś razem: %s",
		draft.Place, draft.Start, draft.End, total), nil)
}

func (b *Bot) onExport(ctx context.Context, tg *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	b.export(ctx, update.Message, monthArg(update.Message.Text), 0)
}

func (b *Bot) onMyExport(ctx context.Context, tg *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	b.export(ctx, update.Message, monthArg(update.Message.Text), update.Message.From.ID)
}

func (b *Bot) onExportButton(ctx context.Context, tg *bot.Bot, update *models.Update) {
	b.answerButton(ctx, update)
	if update.CallbackQuery.Message.Message == nil {
		return
	}
	msg := update.CallbackQuery.Message.Message
	msg.From = &update.CallbackQuery.From
	b.export(ctx, msg, "", 0)
}

func (b *Bot) onMyExportButton(ctx context.Context, tg *bot.Bot, update *models.Update) {
	b.answerButton(ctx, update)
	if update.CallbackQuery.Message.Message == nil {
		return
	}
	msg := update.CallbackQuery.Message.Message
	msg.From = &update.CallbackQuery.From
	b.export(ctx, msg, "", update.CallbackQuery.From.ID)
}

// export enqueues a monthly export request. The artifact comes back
// through the delivery destinations, the chat only gets an ack.
func (b *Bot) export(ctx context.Context, msg *models.Message, month string, userID int64) {
	if msg.From == nil {
		return
	}
	chatID := msg.Chat.ID

	if userID == 0 && !b.isAdmin(msg.From.ID) {
		b.reply(ctx, chatID, "❗ Eksport całego miesiąca jest tylko dla administratorów. Użyj /myexport.", nil)
		return
	}
	if month == "" {
		key, err := report.MonthKey(report.Today())
		if err != nil {
			b.reply(ctx, chatID, "❗ Nie udało się ustalić bieżącego miesiąca.", nil)
			return
		}
		month = key
	}
	if !report.ValidMonthKey(month) {
		b.reply(ctx, chatID, fmt.Sprintf("❗ Nieprawidłowy miesiąc %q, oczekuję YYYY-MM.", month), nil)
		return
	}

	req := report.NewRequest(report.KindMonthly, report.TriggerBot)
	req.Month = month
	if userID != 0 {
		req.Kind = report.KindMonthlyUser
		req.UserID = userID
		req.UserName = displayName(msg.From)
	}
	if err := b.queue.Enqueue(req); err != nil {
		log.Warn("[Bot] export %s dropped: %s", month, err.Error())
		b.reply(ctx, chatID, "⏳ Kolejka jest pełna, spróbuj za chwilę.", nil)
		return
	}
	b.reply(ctx, chatID, fmt.Sprintf("📦 Eksport %s przyjęty, plik dotrze skonfigurowanymi kanałami.", month), nil)
}

func (b *Bot) onMessage(ctx context.Context, tg *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	b.reply(ctx, update.Message.Chat.ID, "Nie rozumiem. /help pokaże dostępne komendy.", menuKeyboard())
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string, markup models.ReplyMarkup) {
	_, err := b.tg.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: markup,
	})
	if err != nil {
		log.Error("[Bot] send message to %d: %s", chatID, err.Error())
	}
}

func (b *Bot) answerButton(ctx context.Context, update *models.Update) {
	_, err := b.tg.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: update.CallbackQuery.ID,
	})
	if err != nil {
		log.Warn("[Bot] answer callback: %s", err.Error())
	}
}

func menuKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "📦 Eksport miesiąca", CallbackData: "export"},
				{Text: "🗂 Mój eksport", CallbackData: "myexport"},
			},
		},
	}
}

// parseAdd parses "/add HH:MM HH:MM Miejsce | zadania | uwagi".
// Tasks and notes are optional.
func parseAdd(text string) (store.Draft, error) {
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(text), "/add"))
	fields := strings.Fields(rest)
	if len(fields) < 3 {
		return store.Draft{}, fmt.Errorf("za mało danych, podaj start, koniec i miejsce")
	}

	start, end := fields[0], fields[1]
	startMin, err := report.ClockMinutes(start)
	if err != nil {
		return store.Draft{}, fmt.Errorf("nieprawidłowa godzina startu %q", start)
	}
	endMin, err := report.ClockMinutes(end)
	if err != nil {
		return store.Draft{}, fmt.Errorf("nieprawidłowa godzina końca %q", end)
	}
	if endMin <= startMin {
		return store.Draft{}, fmt.Errorf("koniec musi być po starcie")
	}

	parts := strings.SplitN(strings.Join(fields[2:], " "), "|", 3)
	draft := store.Draft{
		Start: start,
		End:   end,
		Place: strings.TrimSpace(parts[0]),
	}
	if draft.Place == "" {
		return store.Draft{}, fmt.Errorf("miejsce nie może być puste")
	}
	if len(parts) > 1 {
		draft.Tasks = strings.TrimSpace(parts[1])
	}
	if len(parts) > 2 {
		draft.Notes = strings.TrimSpace(parts[2])
	}
	return draft, nil
}

// monthArg picks the YYYY-MM argument out of an export command
func monthArg(text string) string {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

func displayName(user *models.User) string {
	if user == nil {
		return ""
	}
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)
	if name == "" {
		name = user.Username
	}
	return name
}
