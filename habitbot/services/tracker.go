package services

import (
	"fmt"
	"log/slog"

	"github.com/habitloop/habitbot/habitbot/achievements"
	"github.com/habitloop/habitbot/habitbot/models"
	"github.com/habitloop/habitbot/habitbot/store"
)

// Tracker coordinates the task, stats and achievement mutations of a
// completion event. Task and UserStats always change together inside
// one cache-lock scope, so a flush can never observe XP granted for a
// completion that is not recorded yet.
type Tracker struct {
	cache     *store.Cache
	summaries *SummaryCache
}

func NewTracker(cache *store.Cache, summaries *SummaryCache) *Tracker {
	return &Tracker{cache: cache, summaries: summaries}
}

// CompletionResult describes what a completion event changed.
type CompletionResult struct {
	AlreadyCompleted bool
	XPGained         int
	LeveledUp        bool
	Level            int
	Streak           int
	NewAchievements  []string
}

// CompleteTask marks the task done for today and applies all derived
// state: XP, counters, streak caches and achievement checks. Repeating
// the call on the same day refreshes the completion record but grants
// nothing twice.
func (t *Tracker) CompleteTask(userID, taskID, note string, timeSpent int) (CompletionResult, error) {
	var (
		result CompletionResult
		opErr  error
	)
	found := t.cache.Update(userID, func(u *models.User) {
		task, ok := u.GetTask(taskID)
		if !ok {
			opErr = fmt.Errorf("unknown task: %s", taskID)
			return
		}

		// Roll the daily counters over before recording anything, so
		// the first completion of a new day is not zeroed away.
		u.Stats.UpdateActivity()

		if task.IsCompletedToday() {
			task.MarkCompleted(note, timeSpent)
			result.AlreadyCompleted = true
			result.Level = u.Stats.Level
			result.Streak = task.CurrentStreak()
			return
		}

		task.MarkCompleted(note, timeSpent)
		// XP is computed after marking so the bonus includes today's
		// streak day.
		xp := task.XPValue()
		leveled := u.Stats.AddXP(xp)

		u.Stats.CompletedTasks++
		u.Stats.TasksCompletedToday++
		if u.Stats.TasksByCategory == nil {
			u.Stats.TasksByCategory = make(map[string]int)
		}
		if u.Stats.TasksByPriority == nil {
			u.Stats.TasksByPriority = make(map[string]int)
		}
		u.Stats.TasksByCategory[task.Category]++
		u.Stats.TasksByPriority[string(task.Priority)]++

		u.Stats.CurrentStreak = u.MaxCurrentStreak()
		if u.Stats.CurrentStreak > u.Stats.LongestStreak {
			u.Stats.LongestStreak = u.Stats.CurrentStreak
		}

		// This completion may have been the last one missing today.
		if allCompletedToday(u) {
			u.Stats.PerfectDays++
		}

		result.XPGained = xp
		result.LeveledUp = leveled
		result.Level = u.Stats.Level
		result.Streak = task.CurrentStreak()
		result.NewAchievements = achievements.Check(u)
	})
	if !found {
		return CompletionResult{}, fmt.Errorf("unknown user: %s", userID)
	}
	if opErr != nil {
		return CompletionResult{}, opErr
	}

	t.summaries.Invalidate(userID)
	slog.Debug("Task completed",
		slog.String("type", "task"),
		slog.String("user_id", userID),
		slog.String("task_id", taskID),
		slog.Int("xp", result.XPGained),
		slog.Int("streak", result.Streak),
	)
	return result, nil
}

// UncompleteTask undoes today's completion and takes back the XP it
// granted, clamped at zero. Returns false when the task has no record
// for today.
func (t *Tracker) UncompleteTask(userID, taskID string) (bool, error) {
	var (
		undone bool
		opErr  error
	)
	found := t.cache.Update(userID, func(u *models.User) {
		task, ok := u.GetTask(taskID)
		if !ok {
			opErr = fmt.Errorf("unknown task: %s", taskID)
			return
		}
		if !task.IsCompletedToday() {
			return
		}

		// Value what was granted before the streak loses today.
		xp := task.XPValue()
		wasPerfect := allCompletedToday(u)
		if !task.MarkUncompleted() {
			return
		}
		if wasPerfect && u.Stats.PerfectDays > 0 {
			u.Stats.PerfectDays--
		}
		u.Stats.RemoveXP(xp)
		if u.Stats.CompletedTasks > 0 {
			u.Stats.CompletedTasks--
		}
		if u.Stats.TasksCompletedToday > 0 {
			u.Stats.TasksCompletedToday--
		}
		if u.Stats.TasksByCategory[task.Category] > 0 {
			u.Stats.TasksByCategory[task.Category]--
		}
		if u.Stats.TasksByPriority[string(task.Priority)] > 0 {
			u.Stats.TasksByPriority[string(task.Priority)]--
		}
		u.Stats.CurrentStreak = u.MaxCurrentStreak()
		undone = true
	})
	if !found {
		return false, fmt.Errorf("unknown user: %s", userID)
	}
	if opErr != nil {
		return false, opErr
	}

	if undone {
		t.summaries.Invalidate(userID)
		slog.Debug("Task completion undone",
			slog.String("type", "task"),
			slog.String("user_id", userID),
			slog.String("task_id", taskID),
		)
	}
	return undone, nil
}

func allCompletedToday(u *models.User) bool {
	tasks := u.ActiveTasks()
	if len(tasks) == 0 {
		return false
	}
	for _, task := range tasks {
		if !task.IsCompletedToday() {
			return false
		}
	}
	return true
}
