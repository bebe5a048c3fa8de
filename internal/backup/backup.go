// Package backup copies the data directory to timestamped snapshots and
// restores them.
package backup

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/conorfennell/studybuddy/internal/domain"
)

const (
	backupPrefix     = "backup_"
	preRestorePrefix = "pre_restore_"
	stampLayout      = "20060102_150405"
)

// Info describes one backup.
type Info struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	Created time.Time `json:"created"`
}

// SizeMB is Size in megabytes, rounded to two decimals.
func (i Info) SizeMB() float64 {
	mb := float64(i.Size) / (1024 * 1024)
	return float64(int64(mb*100+0.5)) / 100
}

// Manager creates and restores backups of dataDir under backupDir.
type Manager struct {
	dataDir   string
	backupDir string
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now for backup names.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger sets the logger; slog.Default is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// New returns a Manager. Both directories are cleaned, so a trailing
// separator is accepted.
func New(dataDir, backupDir string, opts ...Option) *Manager {
	m := &Manager{
		dataDir:   filepath.Clean(dataDir),
		backupDir: filepath.Clean(backupDir),
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create copies the data directory to backup_YYYYMMDD_HHMMSS.
func (m *Manager) Create() (Info, error) {
	if _, err := os.Stat(m.dataDir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Info{}, domain.NotFound("no data to back up")
		}
		return Info{}, domain.Storage("could not read data directory", err)
	}
	name, err := m.snapshot(backupPrefix)
	if err != nil {
		return Info{}, err
	}
	info, err := m.info(name)
	if err != nil {
		return Info{}, err
	}
	m.logger.Info("backup created", "name", name, "size", info.Size)
	return info, nil
}

// List returns the backups, newest first. Pre-restore snapshots are not
// listed.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Info{}, nil
		}
		return nil, domain.Storage("could not list backups", err)
	}

	backups := make([]Info, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), backupPrefix) {
			continue
		}
		info, err := m.info(e.Name())
		if err != nil {
			return nil, err
		}
		backups = append(backups, info)
	}
	slices.SortFunc(backups, func(a, b Info) int { return cmp.Compare(b.Name, a.Name) })
	return backups, nil
}

// Restore replaces the data directory with the named backup. The current
// data directory, if any, is first saved as pre_restore_YYYYMMDD_HHMMSS;
// its name is returned.
func (m *Manager) Restore(name string) (string, error) {
	src, err := m.existing(name)
	if err != nil {
		return "", err
	}

	var saved string
	if _, err := os.Stat(m.dataDir); err == nil {
		if saved, err = m.snapshot(preRestorePrefix); err != nil {
			return "", err
		}
	}

	// Stage the copy next to the data directory so the swap is two renames.
	staging := m.dataDir + ".restoring"
	if err := os.RemoveAll(staging); err != nil {
		return saved, domain.Storage("could not clear staging directory", err)
	}
	if err := os.CopyFS(staging, os.DirFS(src)); err != nil {
		os.RemoveAll(staging)
		return saved, domain.Storage("could not copy backup", err)
	}

	old := m.dataDir + ".old"
	if err := os.RemoveAll(old); err != nil {
		return saved, domain.Storage("could not clear previous data", err)
	}
	if err := os.Rename(m.dataDir, old); err != nil && !errors.Is(err, fs.ErrNotExist) {
		os.RemoveAll(staging)
		return saved, domain.Storage("could not move current data aside", err)
	}
	if err := os.Rename(staging, m.dataDir); err != nil {
		os.Rename(old, m.dataDir)
		return saved, domain.Storage("could not move backup into place", err)
	}
	if err := os.RemoveAll(old); err != nil {
		m.logger.Warn("could not remove previous data", "path", old, "error", err)
	}

	m.logger.Info("backup restored", "name", name, "pre_restore", saved)
	return saved, nil
}

// Delete removes the named backup.
func (m *Manager) Delete(name string) error {
	path, err := m.existing(name)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(path); err != nil {
		return domain.Storage("could not delete backup", err)
	}
	m.logger.Info("backup deleted", "name", name)
	return nil
}

// snapshot copies the data directory to prefix+timestamp and returns the name.
func (m *Manager) snapshot(prefix string) (string, error) {
	if err := os.MkdirAll(m.backupDir, 0o755); err != nil {
		return "", domain.Storage("could not create backup directory", err)
	}
	name := prefix + m.now().Format(stampLayout)
	dst := filepath.Join(m.backupDir, name)
	if _, err := os.Stat(dst); err == nil {
		return "", domain.Conflict("a backup named " + name + " already exists")
	}
	if err := os.CopyFS(dst, os.DirFS(m.dataDir)); err != nil {
		os.RemoveAll(dst)
		return "", domain.Storage("could not copy data directory", err)
	}
	return name, nil
}

// existing validates name and returns the path of the backup.
func (m *Manager) existing(name string) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	path := filepath.Join(m.backupDir, name)
	st, err := os.Stat(path)
	if err != nil || !st.IsDir() {
		return "", domain.NotFound("backup not found: " + name)
	}
	return path, nil
}

func (m *Manager) info(name string) (Info, error) {
	path := filepath.Join(m.backupDir, name)
	var size int64
	err := filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			fi, err := d.Info()
			if err != nil {
				return err
			}
			size += fi.Size()
		}
		return nil
	})
	if err != nil {
		return Info{}, domain.Storage("could not size backup "+name, err)
	}

	created, _ := time.ParseInLocation(stampLayout, strings.TrimPrefix(name, backupPrefix), time.Local)
	return Info{Name: name, Path: path, Size: size, Created: created}, nil
}

// ValidateName accepts backup and pre-restore snapshot names that stay
// inside the backup directory.
func ValidateName(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return domain.Validation("backup name is required")
	case strings.ContainsAny(name, `/\`) || strings.Contains(name, ".."):
		return domain.Validation("backup name may not contain path separators")
	case !strings.HasPrefix(name, backupPrefix) && !strings.HasPrefix(name, preRestorePrefix):
		return domain.Validation(fmt.Sprintf("backup names start with %q or %q", backupPrefix, preRestorePrefix))
	}
	return nil
}
