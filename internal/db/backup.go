package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const backupTimeFormat = "20060102-150405.000000000"

// Backups keeps timestamped copies of tasks.json taken before each write
type Backups struct {
	dir    string
	now    func() time.Time
	logger *log.Logger
}

// Backup describes one saved copy
type Backup struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

// Dir is where backups are written
func (b *Backups) Dir() string {
	return b.dir
}

// Snapshot copies src into the backup directory and returns the copy's path.
// A missing src is not an error and yields an empty path.
func (b *Backups) Snapshot(src string) (string, error) {
	data, err := os.ReadFile(src)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", storageError("read", src, err)
	}

	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	stamp := b.now().UTC().Format(backupTimeFormat)
	dst := filepath.Join(b.dir, fmt.Sprintf("%s-%s.json", base, stamp))
	for n := 1; fileExists(dst); n++ {
		dst = filepath.Join(b.dir, fmt.Sprintf("%s-%s-%d.json", base, stamp, n))
	}

	if err := writeFileAtomic(dst, data, 0644); err != nil {
		return "", err
	}
	b.logger.Debug("backup written", "path", dst)
	return dst, nil
}

// List returns the saved backups, oldest first
func (b *Backups) List() ([]Backup, error) {
	entries, err := os.ReadDir(b.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, storageError("list", b.dir, err)
	}

	var backups []Backup
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Backup{
			Name:    e.Name(),
			Path:    filepath.Join(b.dir, e.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	slices.SortStableFunc(backups, func(x, y Backup) int {
		if c := x.ModTime.Compare(y.ModTime); c != 0 {
			return c
		}
		return strings.Compare(x.Name, y.Name)
	})
	return backups, nil
}

// Cleanup deletes backups last modified more than maxAge ago and returns how
// many it removed
func (b *Backups) Cleanup(maxAge time.Duration) (int, error) {
	backups, err := b.List()
	if err != nil {
		return 0, err
	}

	cutoff := b.now().Add(-maxAge)
	removed := 0
	for _, bk := range backups {
		if !bk.ModTime.Before(cutoff) {
			continue
		}
		if err := os.Remove(bk.Path); err != nil {
			return removed, storageError("remove", bk.Path, err)
		}
		b.logger.Debug("backup removed", "path", bk.Path)
		removed++
	}
	return removed, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
