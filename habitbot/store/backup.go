package store

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const backupPrefix = "backup_"

// BackupManager keeps timestamped copies of the data file, pruning the
// oldest ones past the retention bound.
type BackupManager struct {
	dir        string
	maxBackups int
}

func NewBackupManager(dir string, maxBackups int) *BackupManager {
	return &BackupManager{dir: dir, maxBackups: maxBackups}
}

// Backup copies src into the backup directory under a timestamped
// name, then prunes old backups. A missing src is not an error; there
// is simply nothing to preserve yet.
func (b *BackupManager) Backup(src string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read data file for backup: %w", err)
	}

	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create backup dir: %w", err)
	}

	name := backupPrefix + time.Now().Format("20060102_150405") + ".json"
	path := filepath.Join(b.dir, name)
	// Several flushes within one second must not overwrite each other.
	for i := 1; ; i++ {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			break
		}
		path = filepath.Join(b.dir, fmt.Sprintf("%s_%d.json", strings.TrimSuffix(name, ".json"), i))
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}

	slog.Debug("Backup created",
		slog.String("type", "store"),
		slog.String("file", filepath.Base(path)),
		slog.Int("size_bytes", len(data)),
	)

	b.cleanup()
	return nil
}

// List returns backup paths, newest first.
func (b *BackupManager) List() []string {
	entries, err := os.ReadDir(b.dir)
	if err != nil {
		return nil
	}

	type backup struct {
		path    string
		modTime time.Time
	}
	var backups []backup
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), backupPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		backups = append(backups, backup{
			path:    filepath.Join(b.dir, e.Name()),
			modTime: info.ModTime(),
		})
	}
	sort.Slice(backups, func(i, j int) bool {
		if backups[i].modTime.Equal(backups[j].modTime) {
			return backups[i].path > backups[j].path
		}
		return backups[i].modTime.After(backups[j].modTime)
	})

	paths := make([]string, len(backups))
	for i, bk := range backups {
		paths[i] = bk.path
	}
	return paths
}

func (b *BackupManager) cleanup() {
	backups := b.List()
	for _, path := range backups[min(len(backups), b.maxBackups):] {
		if err := os.Remove(path); err != nil {
			slog.Warn("Failed to prune old backup",
				slog.String("type", "store"),
				slog.String("file", filepath.Base(path)),
				slog.String("error", err.Error()),
			)
		}
	}
}
