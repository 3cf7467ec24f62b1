package report

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Headers the workbook column layout, kept compatible with the
// historical reports.xlsx files
var Headers = []string{"ID", "Data", "Imię", "Miejsce", "Start", "Koniec", "Zadania", "Uwagi"}

// DateLayout the entry date format (dd.mm.yyyy)
const DateLayout = "02.01.2006"

// Entry one work report row
type Entry struct {
	ID    string `json:"id"` // {user}_{dd.mm.yyyy}_{idx}
	Date  string `json:"date"`
	Name  string `json:"name"`
	Place string `json:"place"`
	Start string `json:"start"` // HH:MM
	End   string `json:"end"`   // HH:MM
	Tasks string `json:"tasks"`
	Notes string `json:"notes"`
}

// Row returns the entry as a workbook row in Headers order
func (e Entry) Row() []interface{} {
	return []interface{}{e.ID, e.Date, e.Name, e.Place, e.Start, e.End, e.Tasks, e.Notes}
}

// Index returns the trailing index of the entry id, 0 when unparsable
func (e Entry) Index() int {
	parts := strings.Split(e.ID, "_")
	if len(parts) == 0 {
		return 0
	}
	idx, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return 0
	}
	return idx
}

// EntryID builds the row id for a user, date and index
func EntryID(userID int64, date string, idx int) string {
	return fmt.Sprintf("%d_%s_%d", userID, date, idx)
}

// EntryPrefix the id prefix shared by all rows of one user and day
func EntryPrefix(userID int64, date string) string {
	return fmt.Sprintf("%d_%s_", userID, date)
}

// UserPrefix the id prefix shared by all rows of one user
func UserPrefix(userID int64) string {
	return fmt.Sprintf("%d_", userID)
}

// MonthKey converts a dd.mm.yyyy date to the YYYY-MM sheet key
func MonthKey(date string) (string, error) {
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", &GenerationError{Reason: fmt.Sprintf("invalid date %q", date)}
	}
	return d.Format("2006-01"), nil
}

// ValidMonthKey reports whether key is a YYYY-MM sheet key
func ValidMonthKey(key string) bool {
	_, err := time.Parse("2006-01", key)
	return err == nil
}

// Today the current date in entry format
func Today() string {
	return time.Now().Format(DateLayout)
}

var tagRE = regexp.MustCompile(`#[\p{L}\p{N}_]+`)

// Tags extracts #tags from a task or note text
func Tags(text string) []string {
	return tagRE.FindAllString(text, -1)
}
