package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/habitloop/habitbot/habitbot/models"
)

type Config struct {
	DataFile   string
	BackupDir  string
	MaxBackups int
}

// Cache owns the authoritative in-memory map of all users. Users are
// live, mutable objects; callers that change persisted state must mark
// the user dirty themselves. All reads and mutations are serialized
// through one cache-wide mutex so a flush always snapshots consistent
// users.
type Cache struct {
	cfg     Config
	backups *BackupManager

	mu    sync.Mutex
	users map[string]*models.User
	dirty map[string]uint64
	gen   uint64

	// flushMu serializes flushes; shutdown's final flush queues
	// behind an in-progress periodic one instead of deadlocking.
	flushMu sync.Mutex
}

// Open loads the durable store into memory. Each record is decoded
// independently; a malformed record is logged and skipped so one bad
// user never takes down the rest of the data set.
func Open(cfg Config) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DataFile), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	c := &Cache{
		cfg:     cfg,
		backups: NewBackupManager(cfg.BackupDir, cfg.MaxBackups),
		users:   make(map[string]*models.User),
		dirty:   make(map[string]uint64),
	}

	start := time.Now()
	data, err := os.ReadFile(cfg.DataFile)
	if err != nil {
		if os.IsNotExist(err) {
			slog.Info("No data file found, starting empty",
				slog.String("type", "store"),
				slog.String("file", cfg.DataFile),
			)
			return c, nil
		}
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse data file: %w", err)
	}

	skipped := 0
	for id, record := range raw {
		var user models.User
		if err := json.Unmarshal(record, &user); err != nil {
			skipped++
			slog.Warn("Skipping malformed user record",
				slog.String("type", "store"),
				slog.String("user_id", id),
				slog.String("error", err.Error()),
			)
			continue
		}
		normalize(&user, id)
		c.users[id] = &user
	}

	slog.Info("User store loaded",
		slog.String("type", "store"),
		slog.Int("users", len(c.users)),
		slog.Int("skipped", skipped),
		slog.Duration("took", time.Since(start)),
	)
	return c, nil
}

// normalize repairs fields older records may lack so the rest of the
// code never needs nil checks.
func normalize(u *models.User, id string) {
	if u.ID == "" {
		u.ID = id
	}
	if u.Settings == nil {
		u.Settings = models.NewUserSettings()
	}
	if u.Stats == nil {
		u.Stats = models.NewUserStats()
	}
	if u.Tasks == nil {
		u.Tasks = make(map[string]*models.Task)
	}
	if u.Achievements == nil {
		u.Achievements = make([]string, 0)
	}
	if u.WeeklyGoals == nil {
		u.WeeklyGoals = make(map[string]int)
	}
}

// Get returns the cached user, or nothing. The returned user is the
// live object; mutate it only through Update or an equivalent
// lock-holding path.
func (c *Cache) Get(id string) (*models.User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.users[id]
	return u, ok
}

// GetOrCreate returns the existing user, refreshing its identity
// fields and activity, or creates and caches a new one. Either way the
// id is marked dirty.
func (c *Cache) GetOrCreate(id, username, firstName, lastName string) *models.User {
	c.mu.Lock()
	defer c.mu.Unlock()

	u, ok := c.users[id]
	if !ok {
		u = models.NewUser(id, username, firstName, lastName)
		c.users[id] = u
		slog.Info("New user created",
			slog.String("type", "store"),
			slog.String("user_id", id),
		)
	} else {
		u.Username = username
		u.FirstName = firstName
		u.LastName = lastName
	}
	u.Stats.UpdateActivity()
	u.LastSeen = time.Now()
	c.markDirtyLocked(id)
	return u
}

// MarkDirty queues the user for the next flush.
func (c *Cache) MarkDirty(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.markDirtyLocked(id)
}

func (c *Cache) markDirtyLocked(id string) {
	c.gen++
	c.dirty[id] = c.gen
}

// Update runs fn on the user under the cache lock and marks the id
// dirty. Returns false for an unknown id.
func (c *Cache) Update(id string, fn func(*models.User)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.users[id]
	if !ok {
		return false
	}
	fn(u)
	c.markDirtyLocked(id)
	return true
}

// View runs fn on the user under the cache lock without marking the id
// dirty. Returns false for an unknown id.
func (c *Cache) View(id string, fn func(*models.User)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	u, ok := c.users[id]
	if !ok {
		return false
	}
	fn(u)
	return true
}

// All returns the live user objects.
func (c *Cache) All() []*models.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	users := make([]*models.User, 0, len(c.users))
	for _, u := range c.users {
		users = append(users, u)
	}
	return users
}

// IDs returns every cached user id.
func (c *Cache) IDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.users))
	for id := range c.users {
		ids = append(ids, id)
	}
	return ids
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.users)
}

func (c *Cache) DirtyCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.dirty)
}

// Flush writes a full snapshot of every cached user, dirty or not, to
// the data file: marshal under the cache lock, write to a temp file,
// verify it parses, back up the previous file, then atomically rename
// over it. Dirty entries are dropped only after the rename succeeds,
// and only if they were not re-marked while the disk I/O ran; a failed
// flush keeps the dirty set for the next cycle.
func (c *Cache) Flush() error {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	start := time.Now()

	c.mu.Lock()
	snapshot := make(map[string]json.RawMessage, len(c.users))
	for id, u := range c.users {
		record, err := json.Marshal(u)
		if err != nil {
			c.mu.Unlock()
			return fmt.Errorf("failed to marshal user %s: %w", id, err)
		}
		snapshot[id] = record
	}
	dirtyGen := make(map[string]uint64, len(c.dirty))
	for id, gen := range c.dirty {
		dirtyGen[id] = gen
	}
	userCount := len(snapshot)
	c.mu.Unlock()

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tmp := c.cfg.DataFile + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	// Never replace good data with a snapshot that does not parse.
	if err := verify(tmp); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("flush verification failed: %w", err)
	}

	if err := c.backups.Backup(c.cfg.DataFile); err != nil {
		os.Remove(tmp)
		return err
	}

	if err := os.Rename(tmp, c.cfg.DataFile); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace data file: %w", err)
	}

	c.mu.Lock()
	for id, gen := range dirtyGen {
		if c.dirty[id] == gen {
			delete(c.dirty, id)
		}
	}
	remaining := len(c.dirty)
	c.mu.Unlock()

	slog.Info("User store flushed",
		slog.String("type", "store"),
		slog.Int("users", userCount),
		slog.Int("still_dirty", remaining),
		slog.Int("size_bytes", len(data)),
		slog.Duration("took", time.Since(start)),
	)
	return nil
}

func verify(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var check map[string]json.RawMessage
	return json.Unmarshal(data, &check)
}

// RunFlusher flushes on a fixed interval until ctx is done. Flush
// errors are logged and retried on the next tick.
func (c *Cache) RunFlusher(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Flush(); err != nil {
				slog.Error("Periodic flush failed",
					slog.String("type", "error"),
					slog.String("error", err.Error()),
				)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close performs the final synchronous flush. Safe to call while a
// periodic flush is still running.
func (c *Cache) Close() error {
	slog.Info("Closing user store", slog.String("type", "store"))
	return c.Flush()
}

// CacheStats is a point-in-time health summary of the store.
type CacheStats struct {
	Users         int   `json:"users"`
	Dirty         int   `json:"dirty"`
	FileSizeBytes int64 `json:"file_size_bytes"`
	Backups       int   `json:"backups"`
}

func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	stats := CacheStats{
		Users: len(c.users),
		Dirty: len(c.dirty),
	}
	c.mu.Unlock()

	if info, err := os.Stat(c.cfg.DataFile); err == nil {
		stats.FileSizeBytes = info.Size()
	}
	stats.Backups = len(c.backups.List())
	return stats
}
