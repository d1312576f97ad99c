package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	maxNotesLength     = 5000
	maxChatHistorySize = 50
)

type Friend struct {
	ID        string    `json:"id"`
	Username  string    `json:"username,omitempty"`
	FirstName string    `json:"first_name,omitempty"`
	AddedAt   time.Time `json:"added_at"`
}

type Reminder struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	Time      string    `json:"time"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
}

type ChatEntry struct {
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// User owns all of its nested records exclusively; no Task, Friend or
// Reminder is ever shared between two users.
type User struct {
	ID            string           `json:"id"`
	Username      string           `json:"username,omitempty"`
	FirstName     string           `json:"first_name,omitempty"`
	LastName      string           `json:"last_name,omitempty"`
	Settings      *UserSettings    `json:"settings"`
	Stats         *UserStats       `json:"stats"`
	Tasks         map[string]*Task `json:"tasks"`
	Achievements  []string         `json:"achievements"`
	Friends       []Friend         `json:"friends,omitempty"`
	Reminders     []Reminder       `json:"reminders,omitempty"`
	Notes         string           `json:"notes,omitempty"`
	AIChatHistory []ChatEntry      `json:"ai_chat_history,omitempty"`
	WeeklyGoals   map[string]int   `json:"weekly_goals,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	LastSeen      time.Time        `json:"last_seen"`
}

func NewUser(id, username, firstName, lastName string) *User {
	now := time.Now()
	return &User{
		ID:           id,
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		Settings:     NewUserSettings(),
		Stats:        NewUserStats(),
		Tasks:        make(map[string]*Task),
		Achievements: make([]string, 0),
		WeeklyGoals:  make(map[string]int),
		CreatedAt:    now,
		LastSeen:     now,
	}
}

func (u *User) AddTask(task *Task) {
	task.UserID = u.ID
	u.Tasks[task.ID] = task
	u.Stats.TotalTasks++
}

func (u *User) GetTask(id string) (*Task, bool) {
	t, ok := u.Tasks[id]
	return t, ok
}

func (u *User) RemoveTask(id string) bool {
	if _, ok := u.Tasks[id]; !ok {
		return false
	}
	delete(u.Tasks, id)
	return true
}

func (u *User) ActiveTasks() []*Task {
	tasks := make([]*Task, 0, len(u.Tasks))
	for _, t := range u.Tasks {
		if t.Status == StatusActive {
			tasks = append(tasks, t)
		}
	}
	return tasks
}

// AddFriend returns false on a duplicate id.
func (u *User) AddFriend(id, username, firstName string) bool {
	for _, f := range u.Friends {
		if f.ID == id {
			return false
		}
	}
	u.Friends = append(u.Friends, Friend{
		ID:        id,
		Username:  username,
		FirstName: firstName,
		AddedAt:   time.Now(),
	})
	u.Stats.SocialInteractions++
	return true
}

// RemoveFriend returns false when the id is unknown.
func (u *User) RemoveFriend(id string) bool {
	for i, f := range u.Friends {
		if f.ID == id {
			u.Friends = append(u.Friends[:i], u.Friends[i+1:]...)
			return true
		}
	}
	return false
}

func (u *User) AddReminder(taskID, at string) string {
	r := Reminder{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		Time:      at,
		Enabled:   true,
		CreatedAt: time.Now(),
	}
	u.Reminders = append(u.Reminders, r)
	return r.ID
}

func (u *User) RemoveReminder(id string) bool {
	for i, r := range u.Reminders {
		if r.ID == id {
			u.Reminders = append(u.Reminders[:i], u.Reminders[i+1:]...)
			return true
		}
	}
	return false
}

// SetNotes truncates oversized input instead of rejecting it.
func (u *User) SetNotes(notes string) {
	if len(notes) > maxNotesLength {
		notes = notes[:maxNotesLength]
	}
	u.Notes = notes
}

// AppendChatEntry keeps the transcript bounded, dropping the oldest
// entries first.
func (u *User) AppendChatEntry(role, text string) {
	u.AIChatHistory = append(u.AIChatHistory, ChatEntry{
		Role:      role,
		Text:      text,
		Timestamp: time.Now(),
	})
	if n := len(u.AIChatHistory); n > maxChatHistorySize {
		u.AIChatHistory = u.AIChatHistory[n-maxChatHistorySize:]
	}
}

// WeekKey formats a time as the ISO week key used by weekly goal
// overrides, e.g. "2026-W35".
func WeekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

// WeeklyGoalFor returns the override for the given week, or the
// stats-level default when none is set.
func (u *User) WeeklyGoalFor(week string) int {
	if goal, ok := u.WeeklyGoals[week]; ok {
		return goal
	}
	return u.Stats.WeeklyGoal
}

func (u *User) SetWeeklyGoal(week string, goal int) {
	if u.WeeklyGoals == nil {
		u.WeeklyGoals = make(map[string]int)
	}
	u.WeeklyGoals[week] = goal
}

func (u *User) HasAchievement(id string) bool {
	for _, a := range u.Achievements {
		if a == id {
			return true
		}
	}
	return false
}

// MaxCurrentStreak is the best unbroken-run-ending-today streak across
// active tasks.
func (u *User) MaxCurrentStreak() int {
	max := 0
	for _, t := range u.ActiveTasks() {
		if s := t.CurrentStreak(); s > max {
			max = s
		}
	}
	return max
}

// CompletedTotal counts completed records across every task, archived
// ones included.
func (u *User) CompletedTotal() int {
	total := 0
	for _, t := range u.Tasks {
		for _, c := range t.Completions {
			if c.Completed {
				total++
			}
		}
	}
	return total
}

// PerfectWeek reports whether every active task was completed on each
// of the trailing 7 days. A user without active tasks never has a
// perfect week.
func (u *User) PerfectWeek() bool {
	tasks := u.ActiveTasks()
	if len(tasks) == 0 {
		return false
	}
	day := time.Now()
	for i := 0; i < 7; i++ {
		key := day.Format(DateLayout)
		for _, t := range tasks {
			if !t.CompletedOn(key) {
				return false
			}
		}
		day = day.AddDate(0, 0, -1)
	}
	return true
}

// EarlyCompletions counts completed records timestamped before 09:00.
func (u *User) EarlyCompletions() int {
	return u.countCompletionsBy(func(ts time.Time) bool {
		return ts.Hour() < 9
	})
}

// LateCompletions counts completed records timestamped at or after
// 22:00.
func (u *User) LateCompletions() int {
	return u.countCompletionsBy(func(ts time.Time) bool {
		return ts.Hour() >= 22
	})
}

func (u *User) countCompletionsBy(match func(time.Time) bool) int {
	count := 0
	for _, t := range u.Tasks {
		for _, c := range t.Completions {
			if c.Completed && match(c.Timestamp) {
				count++
			}
		}
	}
	return count
}

// CategoryCounts tallies completed records per task category.
func (u *User) CategoryCounts() map[string]int {
	counts := make(map[string]int)
	for _, t := range u.Tasks {
		for _, c := range t.Completions {
			if c.Completed {
				counts[t.Category]++
			}
		}
	}
	return counts
}
