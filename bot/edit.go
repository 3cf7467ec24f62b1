package bot

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/yaoapp/kun/log"

	"github.com/raportyapp/raporty/report"
)

// editFields maps the Polish command vocabulary onto workbook columns
var editFields = map[string]string{
	"miejsce": "place",
	"start":   "start",
	"koniec":  "end",
	"zadania": "tasks",
	"uwagi":   "notes",
}

// onEdit fixes a saved entry of today's report. Bare /edit lists the
// entries, /edit N pole wartość rewrites one field.
func (b *Bot) onEdit(ctx context.Context, tg *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	chatID := update.Message.Chat.ID
	from := update.Message.From
	date := report.Today()

	ok, err := b.store.Exists(from.ID, date)
	if err != nil {
		log.Error("[Bot] read day %s for %d: %s", date, from.ID, err.Error())
		b.reply(ctx, chatID, "❗ Nie udało się odczytać raportu, spróbuj ponownie.", nil)
		return
	}
	if !ok {
		b.reply(ctx, chatID, "Brak pozycji do edycji na dziś. Dodaj pierwszą komendą /add.", nil)
		return
	}

	entries, err := b.store.Day(from.ID, date)
	if err != nil {
		log.Error("[Bot] read day %s for %d: %s", date, from.ID, err.Error())
		b.reply(ctx, chatID, "❗ Nie udało się odczytać raportu, spróbuj ponownie.", nil)
		return
	}

	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(update.Message.Text), "/edit"))
	if rest == "" {
		b.reply(ctx, chatID, renderEditList(entries), nil)
		return
	}

	idx, field, value, err := parseEdit(rest)
	if err != nil {
		b.reply(ctx, chatID, "❗ "+err.Error()+"\n\nPrzykład: /edit 1 miejsce Magazyn", nil)
		return
	}
	if idx > len(entries) {
		b.reply(ctx, chatID, fmt.Sprintf("❗ Nie ma pozycji #%d, dziś jest ich %d.", idx, len(entries)), nil)
		return
	}
	entry := entries[idx-1]

	if field == "start" || field == "end" {
		if err := checkEditedClock(entries, entry, field, value); err != nil {
			b.reply(ctx, chatID, "❗ "+err.Error(), nil)
			return
		}
	}

	if err := b.store.UpdateField(date, entry.ID, field, value); err != nil {
		log.Error("[Bot] update %s of %s: %s", field, entry.ID, err.Error())
		b.reply(ctx, chatID, "❗ Nie udało się zapisać zmiany, spróbuj ponownie.", nil)
		return
	}
	b.reply(ctx, chatID, fmt.Sprintf("✏️ Zaktualizowano pozycję #%d.", idx), nil)
}

// onStats replies with the sender's per-month totals and most used tags
func (b *Bot) onStats(ctx context.Context, tg *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}
	from := update.Message.From

	entries, err := b.store.UserEntries(from.ID)
	if err != nil {
		log.Error("[Bot] read entries for %d: %s", from.ID, err.Error())
		b.reply(ctx, update.Message.Chat.ID, "❗ Nie udało się odczytać raportów, spróbuj ponownie.", nil)
		return
	}
	b.reply(ctx, update.Message.Chat.ID, renderStats(entries), nil)
}

// parseEdit parses "N pole wartość", the argument form of /edit
func parseEdit(rest string) (int, string, string, error) {
	fields := strings.Fields(rest)
	if len(fields) < 3 {
		return 0, "", "", fmt.Errorf("za mało danych, podaj numer pozycji, pole i nową wartość")
	}

	idx, err := strconv.Atoi(fields[0])
	if err != nil || idx < 1 {
		return 0, "", "", fmt.Errorf("nieprawidłowy numer pozycji %q", fields[0])
	}

	field, ok := editFields[strings.ToLower(fields[1])]
	if !ok {
		return 0, "", "", fmt.Errorf("nieznane pole %q, dostępne: miejsce, start, koniec, zadania, uwagi", fields[1])
	}

	value := strings.TrimSpace(strings.Join(fields[2:], " "))
	if value == "" {
		return 0, "", "", fmt.Errorf("wartość nie może być pusta")
	}
	return idx, field, value, nil
}

// checkEditedClock validates a start or end change: the clock must
// parse, keep the interval positive and stay clear of the user's other
// entries that day
func checkEditedClock(entries []report.Entry, entry report.Entry, field string, value string) error {
	if _, err := report.ClockMinutes(value); err != nil {
		return fmt.Errorf("nieprawidłowa godzina %q", value)
	}

	start, end := entry.Start, entry.End
	if field == "start" {
		start = value
	} else {
		end = value
	}

	startMin, _ := report.ClockMinutes(start)
	endMin, _ := report.ClockMinutes(end)
	if endMin <= startMin {
		return fmt.Errorf("koniec musi być po starcie")
	}

	if conflicts := report.Conflicts(entries, start, end, entry.ID); len(conflicts) > 0 {
		c := conflicts[0]
		return fmt.Errorf("ten przedział nakłada się na %s-%s", c[0], c[1])
	}
	return nil
}

// renderEditList the numbered entry list shown by a bare /edit
func renderEditList(entries []report.Entry) string {
	var sb strings.Builder
	sb.WriteString("Którą pozycję poprawić? /edit N pole wartość\n")
	sb.WriteString("Pola: miejsce, start, koniec, zadania, uwagi\n\n")
	for i, e := range entries {
		sb.WriteString(fmt.Sprintf("#%d • 📍 %s • ⏰ %s-%s\n", i+1, e.Place, e.Start, e.End))
		if e.Tasks != "" {
			sb.WriteString(fmt.Sprintf("    📝 %s\n", e.Tasks))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// renderStats the /stats summary: minutes per month, most used tags
func renderStats(entries []report.Entry) string {
	if len(entries) == 0 {
		return "Brak zapisanych pozycji."
	}

	byMonth := map[string][]report.Entry{}
	tagCount := map[string]int{}
	for _, e := range entries {
		month, err := report.MonthKey(e.Date)
		if err != nil {
			continue
		}
		byMonth[month] = append(byMonth[month], e)
		for _, tag := range report.Tags(e.Tasks + " " + e.Notes) {
			tagCount[tag]++
		}
	}

	months := make([]string, 0, len(byMonth))
	for month := range byMonth {
		months = append(months, month)
	}
	sort.Strings(months)

	var sb strings.Builder
	sb.WriteString("📊 Twoje raporty:\n")
	for _, month := range months {
		sb.WriteString(fmt.Sprintf("%s • %d pozycji • ⏳ %s\n",
			month, len(byMonth[month]), report.FormatMinutes(report.DailyMinutes(byMonth[month]))))
	}

	if len(tagCount) > 0 {
		tags := make([]string, 0, len(tagCount))
		for tag := range tagCount {
			tags = append(tags, tag)
		}
		sort.Slice(tags, func(i, j int) bool {
			if tagCount[tags[i]] != tagCount[tags[j]] {
				return tagCount[tags[i]] > tagCount[tags[j]]
			}
			return tags[i] < tags[j]
		})
		if len(tags) > 5 {
			tags = tags[:5]
		}
		sb.WriteString("🏷 Najczęstsze tagi: " + strings.Join(tags, " "))
	}
	return strings.TrimRight(sb.String(), "\n")
}
