package services

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitloop/habitbot/habitbot/models"
	"github.com/habitloop/habitbot/habitbot/store"
)

func testCache(t *testing.T) *store.Cache {
	t.Helper()
	dir := t.TempDir()
	c, err := store.Open(store.Config{
		DataFile:   filepath.Join(dir, "users.json"),
		BackupDir:  filepath.Join(dir, "backups"),
		MaxBackups: 3,
	})
	require.NoError(t, err)
	return c
}

func setupTracker(t *testing.T) (*Tracker, *store.Cache, string) {
	t.Helper()
	cache := testCache(t)
	cache.GetOrCreate("42", "alice", "Alice", "")

	task := models.NewTask("42", "morning run")
	cache.Update("42", func(u *models.User) {
		u.AddTask(task)
	})
	return NewTracker(cache, NewSummaryCache(cache)), cache, task.ID
}

func TestCompleteTask(t *testing.T) {
	tracker, cache, taskID := setupTracker(t)

	res, err := tracker.CompleteTask("42", taskID, "done", 15)
	require.NoError(t, err)

	assert.False(t, res.AlreadyCompleted)
	// medium priority, difficulty 1, streak of 1 after completing.
	assert.Equal(t, 22, res.XPGained)
	assert.Equal(t, 1, res.Streak)
	assert.Contains(t, res.NewAchievements, "first_task")

	u, _ := cache.Get("42")
	assert.Equal(t, 72, u.Stats.TotalXP, "task XP plus first_task reward")
	assert.Equal(t, 1, u.Stats.CompletedTasks)
	assert.Equal(t, 1, u.Stats.TasksCompletedToday)
	assert.Equal(t, 1, u.Stats.TasksByCategory["other"])
	assert.Equal(t, 1, u.Stats.CurrentStreak)
	assert.Equal(t, 1, u.Stats.PerfectDays, "single active task completed today")
	assert.Greater(t, cache.DirtyCount(), 0)
}

func TestCompleteTaskSameDayGrantsNothingTwice(t *testing.T) {
	tracker, cache, taskID := setupTracker(t)

	first, err := tracker.CompleteTask("42", taskID, "", 0)
	require.NoError(t, err)

	second, err := tracker.CompleteTask("42", taskID, "updated note", 0)
	require.NoError(t, err)

	assert.True(t, second.AlreadyCompleted)
	assert.Zero(t, second.XPGained)
	assert.Empty(t, second.NewAchievements)

	u, _ := cache.Get("42")
	assert.Equal(t, first.XPGained+50, u.Stats.TotalXP)
	assert.Equal(t, 1, u.Stats.CompletedTasks)

	task, _ := u.GetTask(taskID)
	require.Len(t, task.Completions, 1)
	assert.Equal(t, "updated note", task.Completions[0].Note)
}

func TestUncompleteTaskReversesXP(t *testing.T) {
	tracker, cache, taskID := setupTracker(t)

	_, err := tracker.CompleteTask("42", taskID, "", 0)
	require.NoError(t, err)

	undone, err := tracker.UncompleteTask("42", taskID)
	require.NoError(t, err)
	assert.True(t, undone)

	u, _ := cache.Get("42")
	assert.Equal(t, 50, u.Stats.TotalXP, "task XP reversed, achievement reward stays")
	assert.Equal(t, 0, u.Stats.CompletedTasks)
	assert.Equal(t, 0, u.Stats.TasksCompletedToday)
	assert.Equal(t, 0, u.Stats.CurrentStreak)

	task, _ := u.GetTask(taskID)
	assert.False(t, task.IsCompletedToday())
}

func TestCompleteTaskOnNewDayKeepsOwnCounters(t *testing.T) {
	tracker, cache, taskID := setupTracker(t)

	// Leftover state from yesterday; the day roll must not swallow
	// the completion being recorded now.
	cache.Update("42", func(u *models.User) {
		u.Stats.LastActivity = time.Now().AddDate(0, 0, -1)
		u.Stats.TasksCompletedToday = 4
		u.Stats.DailyXPEarned = 90
	})

	res, err := tracker.CompleteTask("42", taskID, "", 0)
	require.NoError(t, err)
	require.False(t, res.AlreadyCompleted)

	u, _ := cache.Get("42")
	assert.Equal(t, 1, u.Stats.TasksCompletedToday, "yesterday's count dropped, today's kept")
	assert.Equal(t, res.XPGained+50, u.Stats.DailyXPEarned, "task XP plus first_task reward")
	assert.Equal(t, time.Now().Format(models.DateLayout), u.Stats.LastActivity.Format(models.DateLayout))
}

func TestUncompletePerfectDayDecrementsCounter(t *testing.T) {
	tracker, cache, taskID := setupTracker(t)

	_, err := tracker.CompleteTask("42", taskID, "", 0)
	require.NoError(t, err)

	u, _ := cache.Get("42")
	require.Equal(t, 1, u.Stats.PerfectDays)

	undone, err := tracker.UncompleteTask("42", taskID)
	require.NoError(t, err)
	require.True(t, undone)
	assert.Equal(t, 0, u.Stats.PerfectDays, "undoing the completion unwinds the perfect day")

	// A second task keeps the day imperfect either way.
	other := models.NewTask("42", "stretch")
	cache.Update("42", func(u *models.User) {
		u.AddTask(other)
	})
	_, err = tracker.CompleteTask("42", taskID, "", 0)
	require.NoError(t, err)
	undone, err = tracker.UncompleteTask("42", taskID)
	require.NoError(t, err)
	require.True(t, undone)
	assert.Equal(t, 0, u.Stats.PerfectDays, "never decremented below a perfect day actually counted")
}

func TestUncompleteWithoutRecordIsNoOp(t *testing.T) {
	tracker, cache, taskID := setupTracker(t)

	undone, err := tracker.UncompleteTask("42", taskID)
	require.NoError(t, err)
	assert.False(t, undone)

	u, _ := cache.Get("42")
	assert.Equal(t, 0, u.Stats.TotalXP)
}

func TestTrackerUnknownIDs(t *testing.T) {
	tracker, _, taskID := setupTracker(t)

	_, err := tracker.CompleteTask("404", taskID, "", 0)
	assert.Error(t, err)

	_, err = tracker.CompleteTask("42", "no-such-task", "", 0)
	assert.Error(t, err)

	_, err = tracker.UncompleteTask("42", "no-such-task")
	assert.Error(t, err)
}
