package models

import (
	"math"
	"time"
)

// UserStats accumulates per-user counters. XP and level are mutated
// only through AddXP so multi-level jumps stay consistent.
type UserStats struct {
	TotalTasks          int            `json:"total_tasks"`
	CompletedTasks      int            `json:"completed_tasks"`
	CurrentStreak       int            `json:"current_streak"`
	LongestStreak       int            `json:"longest_streak"`
	TotalXP             int            `json:"total_xp"`
	Level               int            `json:"level"`
	LastActivity        time.Time      `json:"last_activity"`
	RegistrationDate    time.Time      `json:"registration_date"`
	TasksCompletedToday int            `json:"tasks_completed_today"`
	DailyXPEarned       int            `json:"daily_xp_earned"`
	WeeklyGoal          int            `json:"weekly_goal"`
	MonthlyGoal         int            `json:"monthly_goal"`
	DryDays             int            `json:"dry_days"`
	TotalPomodoros      int            `json:"total_pomodoros"`
	DaysActive          int            `json:"days_active"`
	PerfectDays         int            `json:"perfect_days"`
	SocialInteractions  int            `json:"social_interactions"`
	TasksByCategory     map[string]int `json:"tasks_by_category,omitempty"`
	TasksByPriority     map[string]int `json:"tasks_by_priority,omitempty"`
}

func NewUserStats() *UserStats {
	now := time.Now()
	return &UserStats{
		Level:            1,
		LastActivity:     now,
		RegistrationDate: now,
		WeeklyGoal:       7,
		MonthlyGoal:      30,
		TasksByCategory:  make(map[string]int),
		TasksByPriority:  make(map[string]int),
	}
}

// XPForLevel is the cumulative XP required to reach a level:
// 0 for level 1, then 150 per level step.
func XPForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	return int(math.Floor(100 * float64(level-1) * 1.5))
}

// AddXP adds experience and advances the level while the next
// threshold is reached, so one large grant can cross several levels.
// It reports whether at least one level-up happened.
func (s *UserStats) AddXP(amount int) bool {
	s.TotalXP += amount
	s.DailyXPEarned += amount

	leveled := false
	for s.TotalXP >= XPForLevel(s.Level+1) {
		s.Level++
		leveled = true
	}
	return leveled
}

// RemoveXP takes experience back, clamped at zero. The level is never
// lowered; the original grant may have announced a level-up already.
func (s *UserStats) RemoveXP(amount int) {
	s.TotalXP -= amount
	if s.TotalXP < 0 {
		s.TotalXP = 0
	}
	s.DailyXPEarned -= amount
	if s.DailyXPEarned < 0 {
		s.DailyXPEarned = 0
	}
}

// LevelProgress is the percentage of the current level band already
// earned, capped at 100.
func (s *UserStats) LevelProgress() float64 {
	current := XPForLevel(s.Level)
	next := XPForLevel(s.Level + 1)
	if next <= current {
		return 100
	}
	progress := float64(s.TotalXP-current) / float64(next-current) * 100
	if progress > 100 {
		return 100
	}
	if progress < 0 {
		return 0
	}
	return progress
}

// UpdateActivity rolls the daily counters when the calendar day has
// changed since the last recorded activity.
func (s *UserStats) UpdateActivity() {
	now := time.Now()
	if s.LastActivity.Format(DateLayout) != now.Format(DateLayout) {
		s.TasksCompletedToday = 0
		s.DailyXPEarned = 0
		s.DaysActive++
	}
	s.LastActivity = now
}

var levelTitles = []struct {
	min   int
	title string
}{
	{1, "Novice"},
	{5, "Apprentice"},
	{10, "Adept"},
	{15, "Expert"},
	{20, "Master"},
	{30, "Grandmaster"},
	{50, "Legend"},
}

// LevelTitle names a level tier. Levels above the table fall into the
// highest tier.
func LevelTitle(level int) string {
	title := levelTitles[0].title
	for _, t := range levelTitles {
		if level >= t.min {
			title = t.title
		}
	}
	return title
}
