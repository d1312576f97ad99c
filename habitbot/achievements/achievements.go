package achievements

import (
	"fmt"
	"log/slog"

	"github.com/habitloop/habitbot/habitbot/models"
)

// Rule is a single achievement: a stateless predicate over a user
// snapshot plus the reward granted when it first holds. The catalogue
// below is immutable and process-wide; which rules a user has earned
// lives on the User itself.
type Rule struct {
	ID          string
	Title       string
	Description string
	Icon        string
	XPReward    int
	Check       func(*models.User) bool
}

func completedAtLeast(n int) func(*models.User) bool {
	return func(u *models.User) bool {
		return u.CompletedTotal() >= n
	}
}

func streakAtLeast(n int) func(*models.User) bool {
	return func(u *models.User) bool {
		return u.MaxCurrentStreak() >= n
	}
}

func levelAtLeast(n int) func(*models.User) bool {
	return func(u *models.User) bool {
		return u.Stats.Level >= n
	}
}

func friendsAtLeast(n int) func(*models.User) bool {
	return func(u *models.User) bool {
		return len(u.Friends) >= n
	}
}

var Catalogue = []Rule{
	{ID: "first_task", Title: "First Steps", Description: "Complete your first task", Icon: "🎯", XPReward: 50, Check: completedAtLeast(1)},
	{ID: "tasks_10", Title: "Getting Started", Description: "Complete 10 tasks", Icon: "✅", XPReward: 100, Check: completedAtLeast(10)},
	{ID: "tasks_50", Title: "Productive", Description: "Complete 50 tasks", Icon: "💪", XPReward: 250, Check: completedAtLeast(50)},
	{ID: "tasks_100", Title: "Centurion", Description: "Complete 100 tasks", Icon: "💯", XPReward: 500, Check: completedAtLeast(100)},
	{ID: "tasks_500", Title: "Unstoppable", Description: "Complete 500 tasks", Icon: "🚀", XPReward: 1000, Check: completedAtLeast(500)},
	{ID: "tasks_1000", Title: "Task Titan", Description: "Complete 1000 tasks", Icon: "🏆", XPReward: 2000, Check: completedAtLeast(1000)},
	{ID: "streak_3", Title: "Warming Up", Description: "Hold a 3-day streak", Icon: "🔥", XPReward: 100, Check: streakAtLeast(3)},
	{ID: "streak_7", Title: "One Week Strong", Description: "Hold a 7-day streak", Icon: "📅", XPReward: 200, Check: streakAtLeast(7)},
	{ID: "streak_30", Title: "Habit Formed", Description: "Hold a 30-day streak", Icon: "🌙", XPReward: 500, Check: streakAtLeast(30)},
	{ID: "streak_100", Title: "Iron Will", Description: "Hold a 100-day streak", Icon: "⚡", XPReward: 1000, Check: streakAtLeast(100)},
	{ID: "streak_365", Title: "Year of Discipline", Description: "Hold a 365-day streak", Icon: "👑", XPReward: 3000, Check: streakAtLeast(365)},
	{ID: "level_5", Title: "Rising Star", Description: "Reach level 5", Icon: "⭐", XPReward: 200, Check: levelAtLeast(5)},
	{ID: "level_10", Title: "Veteran", Description: "Reach level 10", Icon: "🌟", XPReward: 500, Check: levelAtLeast(10)},
	{ID: "level_20", Title: "Elite", Description: "Reach level 20", Icon: "💫", XPReward: 1000, Check: levelAtLeast(20)},
	{ID: "social_butterfly", Title: "Social Butterfly", Description: "Add 5 friends", Icon: "🦋", XPReward: 150, Check: friendsAtLeast(5)},
	{ID: "social_network", Title: "Networker", Description: "Add 10 friends", Icon: "🌐", XPReward: 300, Check: friendsAtLeast(10)},
	{ID: "perfect_week", Title: "Perfect Week", Description: "Complete every active task 7 days in a row", Icon: "🏅", XPReward: 300, Check: func(u *models.User) bool {
		return u.PerfectWeek()
	}},
	{ID: "early_bird", Title: "Early Bird", Description: "Complete 10 tasks before 09:00", Icon: "🌅", XPReward: 200, Check: func(u *models.User) bool {
		return u.EarlyCompletions() >= 10
	}},
	{ID: "night_owl", Title: "Night Owl", Description: "Complete 10 tasks after 22:00", Icon: "🦉", XPReward: 200, Check: func(u *models.User) bool {
		return u.LateCompletions() >= 10
	}},
	{ID: "category_master", Title: "Specialist", Description: "Complete 20 tasks in one category", Icon: "🎓", XPReward: 150, Check: func(u *models.User) bool {
		for _, n := range u.CategoryCounts() {
			if n >= 20 {
				return true
			}
		}
		return false
	}},
}

// Get looks a rule up by id.
func Get(id string) (Rule, bool) {
	for _, r := range Catalogue {
		if r.ID == id {
			return r, true
		}
	}
	return Rule{}, false
}

// Check evaluates every not-yet-earned rule against the user, in
// catalogue order. A rule that fires is recorded exactly once and its
// XP granted immediately. A panicking predicate is logged and skipped
// without stopping the remaining rules. Returns the newly earned ids.
func Check(user *models.User) []string {
	var earned []string
	for _, rule := range Catalogue {
		if user.HasAchievement(rule.ID) {
			continue
		}
		if !evaluate(rule, user) {
			continue
		}
		user.Achievements = append(user.Achievements, rule.ID)
		user.Stats.AddXP(rule.XPReward)
		earned = append(earned, rule.ID)
		slog.Debug("Achievement earned",
			slog.String("type", "achieve"),
			slog.String("user_id", user.ID),
			slog.String("achievement", rule.ID),
			slog.Int("xp_reward", rule.XPReward),
		)
	}
	return earned
}

func evaluate(rule Rule, user *models.User) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			slog.Error("Achievement check failed",
				slog.String("type", "error"),
				slog.String("user_id", user.ID),
				slog.String("achievement", rule.ID),
				slog.String("error", fmt.Sprintf("%v", r)),
			)
		}
	}()
	return rule.Check(user)
}
