package store

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/yaoapp/kun/log"
)

// backup copies the current workbook into the backups directory and
// trims old copies beyond the retention count. Failures are logged and
// never block a save.
func (s *Store) backup() {
	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return
	}

	name := "reports_" + time.Now().Format("20060102_150405") + ".xlsx"
	if err := copyFile(s.path, filepath.Join(s.backupDir, name)); err != nil {
		log.Warn("[Store] backup failed: %s", err.Error())
	}

	s.trimBackups()
}

func (s *Store) trimBackups() {
	if s.backupKeep <= 0 {
		return
	}

	items, err := os.ReadDir(s.backupDir)
	if err != nil {
		return
	}

	names := []string{}
	for _, item := range items {
		name := item.Name()
		if strings.HasPrefix(name, "reports_") && strings.HasSuffix(name, ".xlsx") {
			names = append(names, name)
		}
	}
	if len(names) <= s.backupKeep {
		return
	}

	sort.Strings(names)
	for _, old := range names[:len(names)-s.backupKeep] {
		if err := os.Remove(filepath.Join(s.backupDir, old)); err != nil {
			log.Warn("[Store] remove old backup %s: %s", old, err.Error())
		}
	}
}

// Backups lists backup file names, oldest first
func (s *Store) Backups() []string {
	items, err := os.ReadDir(s.backupDir)
	if err != nil {
		return []string{}
	}
	names := []string{}
	for _, item := range items {
		name := item.Name()
		if strings.HasPrefix(name, "reports_") && strings.HasSuffix(name, ".xlsx") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
