package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"
	"github.com/yaoapp/kun/log"

	"github.com/raportyapp/raporty/report"
)

// ErrNoData no rows matched the requested month or user
var ErrNoData = errors.New("no data for the requested range")

// Filename the workbook file name inside the data root
const Filename = "reports.xlsx"

// Store the monthly workbook store. One sheet per month (YYYY-MM),
// header row in report.Headers order. All access goes through a single
// mutex, the worker is the only concurrent writer anyway.
type Store struct {
	root       string
	path       string
	backupDir  string
	backupKeep int
	mu         sync.Mutex
}

// Draft one entry to append, before it gets a row id
type Draft struct {
	Place string `json:"place"`
	Start string `json:"start"`
	End   string `json:"end"`
	Tasks string `json:"tasks"`
	Notes string `json:"notes"`
}

// New creates the store and its directories
func New(root string, backupKeep int) (*Store, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, err
	}
	backupDir := filepath.Join(root, "backups")
	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return nil, err
	}
	return &Store{
		root:       root,
		path:       filepath.Join(root, Filename),
		backupDir:  backupDir,
		backupKeep: backupKeep,
	}, nil
}

// Path the workbook file path
func (s *Store) Path() string { return s.path }

// open loads the workbook, or starts a fresh one when the file does
// not exist yet
func (s *Store) open() (*excelize.File, error) {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return excelize.NewFile(), nil
	}
	file, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, &report.DataUnavailableError{Source: s.path, Err: err}
	}
	return file, nil
}

// openExisting loads the workbook, ErrNoData when the file does not exist
func (s *Store) openExisting() (*excelize.File, error) {
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoData
	}
	file, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, &report.DataUnavailableError{Source: s.path, Err: err}
	}
	return file, nil
}

// ensureSheet returns the month sheet, creating it with the header row
// when missing. The default empty sheet is dropped on first use.
func ensureSheet(file *excelize.File, month string) error {
	idx, err := file.GetSheetIndex(month)
	if err != nil {
		return err
	}
	if idx != -1 {
		return nil
	}
	if _, err := file.NewSheet(month); err != nil {
		return err
	}
	header := make([]interface{}, len(report.Headers))
	for i, h := range report.Headers {
		header[i] = h
	}
	if err := file.SetSheetRow(month, "A1", &header); err != nil {
		return err
	}
	// drop the default sheet if it is still empty
	if di, _ := file.GetSheetIndex("Sheet1"); di != -1 && month != "Sheet1" {
		rows, err := file.GetRows("Sheet1")
		if err == nil && len(rows) == 0 {
			file.DeleteSheet("Sheet1")
		}
	}
	return nil
}

// save writes the workbook atomically and rotates a backup of the
// previous file
func (s *Store) save(file *excelize.File) error {
	s.backup()

	tmp := s.path + ".tmp"
	if err := file.SaveAs(tmp); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// SaveEntries appends drafts as new rows for a user and day, assigning
// consecutive row ids after the highest existing index
func (s *Store) SaveEntries(userID int64, date string, name string, drafts []Draft) ([]report.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	month, err := report.MonthKey(date)
	if err != nil {
		return nil, err
	}

	file, err := s.open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if err := ensureSheet(file, month); err != nil {
		return nil, err
	}

	rows, err := file.GetRows(month)
	if err != nil {
		return nil, err
	}

	prefix := report.EntryPrefix(userID, date)
	nextIdx := 1
	for _, row := range rows[1:] {
		if len(row) == 0 || !strings.HasPrefix(row[0], prefix) {
			continue
		}
		e := report.Entry{ID: row[0]}
		if idx := e.Index(); idx >= nextIdx {
			nextIdx = idx + 1
		}
	}

	entries := make([]report.Entry, 0, len(drafts))
	rowNum := len(rows) + 1
	for off, draft := range drafts {
		entry := report.Entry{
			ID:    report.EntryID(userID, date, nextIdx+off),
			Date:  date,
			Name:  name,
			Place: draft.Place,
			Start: draft.Start,
			End:   draft.End,
			Tasks: draft.Tasks,
			Notes: draft.Notes,
		}
		cell, err := excelize.CoordinatesToCellName(1, rowNum+off)
		if err != nil {
			return nil, err
		}
		row := entry.Row()
		if err := file.SetSheetRow(month, cell, &row); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := s.save(file); err != nil {
		return nil, err
	}
	return entries, nil
}

// Exists reports whether a user has any rows for the given day
func (s *Store) Exists(userID int64, date string) (bool, error) {
	entries, err := s.Day(userID, date)
	if err != nil {
		if errors.Is(err, ErrNoData) {
			return false, nil
		}
		return false, err
	}
	return len(entries) > 0, nil
}

// Day reads all rows of one user for one day, sorted by row index
func (s *Store) Day(userID int64, date string) ([]report.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	month, err := report.MonthKey(date)
	if err != nil {
		return nil, err
	}

	file, err := s.openExisting()
	if err != nil {
		if errors.Is(err, ErrNoData) {
			return []report.Entry{}, nil
		}
		return nil, err
	}
	defer file.Close()

	if idx, _ := file.GetSheetIndex(month); idx == -1 {
		return []report.Entry{}, nil
	}

	rows, err := file.GetRows(month)
	if err != nil {
		return nil, err
	}

	prefix := report.EntryPrefix(userID, date)
	entries := []report.Entry{}
	for _, row := range rows[1:] {
		if len(row) == 0 || !strings.HasPrefix(row[0], prefix) {
			continue
		}
		entries = append(entries, entryFromRow(row))
	}

	sortEntries(entries)
	return entries, nil
}

// UserEntries reads every row of one user across all month sheets
func (s *Store) UserEntries(userID int64) ([]report.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.openExisting()
	if err != nil {
		if errors.Is(err, ErrNoData) {
			return []report.Entry{}, nil
		}
		return nil, err
	}
	defer file.Close()

	prefix := report.UserPrefix(userID)
	entries := []report.Entry{}
	for _, sheet := range file.GetSheetList() {
		rows, err := file.GetRows(sheet)
		if err != nil {
			return nil, err
		}
		if len(rows) < 2 {
			continue
		}
		for _, row := range rows[1:] {
			if len(row) == 0 || !strings.HasPrefix(row[0], prefix) {
				continue
			}
			entries = append(entries, entryFromRow(row))
		}
	}
	return entries, nil
}

// MonthEntries reads every row of one month sheet, optionally limited
// to one user (userID 0 means all users)
func (s *Store) MonthEntries(month string, userID int64) ([]report.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.openExisting()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	if idx, _ := file.GetSheetIndex(month); idx == -1 {
		return nil, ErrNoData
	}

	rows, err := file.GetRows(month)
	if err != nil {
		return nil, err
	}

	entries := []report.Entry{}
	for _, row := range rows[1:] {
		if len(row) == 0 || row[0] == "" {
			continue
		}
		if userID != 0 && !strings.HasPrefix(row[0], report.UserPrefix(userID)) {
			continue
		}
		entries = append(entries, entryFromRow(row))
	}

	if len(entries) == 0 {
		return nil, ErrNoData
	}
	return entries, nil
}

// UpdateField rewrites one column of an existing row, addressed by its
// row id
func (s *Store) UpdateField(date string, rid string, field string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	month, err := report.MonthKey(date)
	if err != nil {
		return err
	}

	cols := map[string]int{"place": 4, "start": 5, "end": 6, "tasks": 7, "notes": 8}
	col, ok := cols[field]
	if !ok {
		return fmt.Errorf("unknown field %q", field)
	}

	file, err := s.openExisting()
	if err != nil {
		return err
	}
	defer file.Close()

	if idx, _ := file.GetSheetIndex(month); idx == -1 {
		return fmt.Errorf("row %s not found", rid)
	}

	rows, err := file.GetRows(month)
	if err != nil {
		return err
	}

	target := -1
	for i, row := range rows {
		if len(row) > 0 && row[0] == rid {
			target = i + 1
			break
		}
	}
	if target == -1 {
		return fmt.Errorf("row %s not found", rid)
	}

	cell, err := excelize.CoordinatesToCellName(col, target)
	if err != nil {
		return err
	}
	if err := file.SetCellValue(month, cell, value); err != nil {
		return err
	}
	return s.save(file)
}

func entryFromRow(row []string) report.Entry {
	get := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	return report.Entry{
		ID:    get(0),
		Date:  get(1),
		Name:  get(2),
		Place: get(3),
		Start: get(4),
		End:   get(5),
		Tasks: get(6),
		Notes: get(7),
	}
}

func sortEntries(entries []report.Entry) {
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].Index() < entries[j-1].Index(); j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
}

// Months lists the month sheets present in the workbook
func (s *Store) Months() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.openExisting()
	if err != nil {
		return []string{}
	}
	defer file.Close()

	months := []string{}
	for _, sheet := range file.GetSheetList() {
		if report.ValidMonthKey(sheet) {
			months = append(months, sheet)
		}
	}
	return months
}

// warn-only close used by export paths
func closeQuiet(file *excelize.File) {
	if err := file.Close(); err != nil {
		log.Warn("[Store] close workbook: %s", err.Error())
	}
}
