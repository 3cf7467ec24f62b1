package store

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/xuri/excelize/v2"

	"github.com/raportyapp/raporty/report"
)

func newTestStore(t *testing.T) *Store {
	s, err := New(t.TempDir(), 3)
	assert.Nil(t, err)
	return s
}

func TestSaveEntries(t *testing.T) {
	s := newTestStore(t)

	entries, err := s.SaveEntries(100, "02.05.2025", "Jan", []Draft{
		{Place: "Warszawa", Start: "08:00", End: "12:00", Tasks: "montaż"},
		{Place: "Warszawa", Start: "13:00", End: "15:00", Notes: "dojazd"},
	})
	assert.Nil(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, "100_02.05.2025_1", entries[0].ID)
	assert.Equal(t, "100_02.05.2025_2", entries[1].ID)

	// appending again continues the index sequence
	entries, err = s.SaveEntries(100, "02.05.2025", "Jan", []Draft{
		{Place: "Kraków", Start: "16:00", End: "17:00"},
	})
	assert.Nil(t, err)
	assert.Equal(t, "100_02.05.2025_3", entries[0].ID)

	day, err := s.Day(100, "02.05.2025")
	assert.Nil(t, err)
	assert.Len(t, day, 3)
	assert.Equal(t, "Jan", day[0].Name)
	assert.Equal(t, "Kraków", day[2].Place)
}

func TestSaveEntriesSheetLayout(t *testing.T) {
	s := newTestStore(t)

	_, err := s.SaveEntries(100, "02.05.2025", "Jan", []Draft{{Place: "A", Start: "08:00", End: "09:00"}})
	assert.Nil(t, err)
	_, err = s.SaveEntries(100, "03.06.2025", "Jan", []Draft{{Place: "B", Start: "08:00", End: "09:00"}})
	assert.Nil(t, err)

	file, err := excelize.OpenFile(s.Path())
	assert.Nil(t, err)
	defer file.Close()

	sheets := file.GetSheetList()
	assert.Contains(t, sheets, "2025-05")
	assert.Contains(t, sheets, "2025-06")
	assert.NotContains(t, sheets, "Sheet1")

	rows, err := file.GetRows("2025-05")
	assert.Nil(t, err)
	assert.Equal(t, report.Headers[0], rows[0][0])
	assert.Equal(t, "Imię", rows[0][2])
}

func TestDayScoping(t *testing.T) {
	s := newTestStore(t)

	_, err := s.SaveEntries(100, "02.05.2025", "Jan", []Draft{{Place: "A", Start: "08:00", End: "09:00"}})
	assert.Nil(t, err)
	_, err = s.SaveEntries(200, "02.05.2025", "Ola", []Draft{{Place: "B", Start: "09:00", End: "10:00"}})
	assert.Nil(t, err)

	day, err := s.Day(100, "02.05.2025")
	assert.Nil(t, err)
	assert.Len(t, day, 1)
	assert.Equal(t, "Jan", day[0].Name)

	exists, err := s.Exists(200, "02.05.2025")
	assert.Nil(t, err)
	assert.True(t, exists)

	exists, err = s.Exists(200, "03.05.2025")
	assert.Nil(t, err)
	assert.False(t, exists)

	// missing workbook reads as empty, not as an error
	fresh := newTestStore(t)
	day, err = fresh.Day(100, "02.05.2025")
	assert.Nil(t, err)
	assert.Empty(t, day)
}

func TestUserEntries(t *testing.T) {
	s := newTestStore(t)

	_, err := s.SaveEntries(100, "02.05.2025", "Jan", []Draft{{Place: "A", Start: "08:00", End: "09:00"}})
	assert.Nil(t, err)
	_, err = s.SaveEntries(100, "03.06.2025", "Jan", []Draft{{Place: "B", Start: "08:00", End: "09:00"}})
	assert.Nil(t, err)
	_, err = s.SaveEntries(200, "02.05.2025", "Ola", []Draft{{Place: "C", Start: "09:00", End: "10:00"}})
	assert.Nil(t, err)

	entries, err := s.UserEntries(100)
	assert.Nil(t, err)
	assert.Len(t, entries, 2)

	entries, err = s.UserEntries(999)
	assert.Nil(t, err)
	assert.Empty(t, entries)
}

func TestUpdateField(t *testing.T) {
	s := newTestStore(t)

	entries, err := s.SaveEntries(100, "02.05.2025", "Jan", []Draft{{Place: "A", Start: "08:00", End: "09:00"}})
	assert.Nil(t, err)

	err = s.UpdateField("02.05.2025", entries[0].ID, "place", "Gdańsk")
	assert.Nil(t, err)

	day, err := s.Day(100, "02.05.2025")
	assert.Nil(t, err)
	assert.Equal(t, "Gdańsk", day[0].Place)

	err = s.UpdateField("02.05.2025", "100_02.05.2025_99", "place", "X")
	assert.NotNil(t, err)

	err = s.UpdateField("02.05.2025", entries[0].ID, "bogus", "X")
	assert.NotNil(t, err)
}

func TestExportMonth(t *testing.T) {
	s := newTestStore(t)

	_, err := s.SaveEntries(100, "02.05.2025", "Jan", []Draft{{Place: "A", Start: "08:00", End: "09:00"}})
	assert.Nil(t, err)
	_, err = s.SaveEntries(200, "03.05.2025", "Ola", []Draft{{Place: "B", Start: "09:00", End: "10:00"}})
	assert.Nil(t, err)

	content, err := s.ExportMonth("2025-05", 0)
	assert.Nil(t, err)
	assert.NotEmpty(t, content)

	// the export is a standalone workbook with a single month sheet
	file, err := excelize.OpenReader(bytes.NewReader(content))
	assert.Nil(t, err)
	defer file.Close()
	assert.Equal(t, []string{"2025-05"}, file.GetSheetList())
	rows, err := file.GetRows("2025-05")
	assert.Nil(t, err)
	assert.Len(t, rows, 3) // header + two rows

	// per-user export filters rows
	content, err = s.ExportMonth("2025-05", 200)
	assert.Nil(t, err)
	file, err = excelize.OpenReader(bytes.NewReader(content))
	assert.Nil(t, err)
	defer file.Close()
	rows, err = file.GetRows("2025-05")
	assert.Nil(t, err)
	assert.Len(t, rows, 2)
	assert.Equal(t, "Ola", rows[1][2])

	_, err = s.ExportMonth("2025-12", 0)
	assert.True(t, errors.Is(err, ErrNoData))

	_, err = s.ExportMonth("05.2025", 0)
	assert.True(t, report.IsGeneration(err))
}

func TestExportFilename(t *testing.T) {
	assert.Equal(t, "export_2025-05_ALL.xlsx", ExportFilename("2025-05", 0))
	assert.Equal(t, "export_2025-05_100.xlsx", ExportFilename("2025-05", 100))
}

func TestBackups(t *testing.T) {
	s := newTestStore(t)

	for i := 0; i < 2; i++ {
		_, err := s.SaveEntries(100, "02.05.2025", "Jan", []Draft{{Place: "A", Start: "08:00", End: "09:00"}})
		assert.Nil(t, err)
	}

	// the first save has no previous file to back up
	backups := s.Backups()
	assert.GreaterOrEqual(t, len(backups), 1)
	assert.LessOrEqual(t, len(backups), 3)
}

func TestMonths(t *testing.T) {
	s := newTestStore(t)
	assert.Empty(t, s.Months())

	_, err := s.SaveEntries(100, "02.05.2025", "Jan", []Draft{{Place: "A", Start: "08:00", End: "09:00"}})
	assert.Nil(t, err)

	assert.Equal(t, []string{"2025-05"}, s.Months())
}
