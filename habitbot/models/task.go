package models

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the calendar-day key used for completion records.
const DateLayout = "2006-01-02"

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority maps unknown values to medium.
func ParsePriority(s string) Priority {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(s)
	default:
		return PriorityMedium
	}
}

type Status string

const (
	StatusActive   Status = "active"
	StatusPaused   Status = "paused"
	StatusArchived Status = "archived"
)

// Completion records whether a task was done on one calendar day.
// At most one exists per (task, day); re-completing a day updates it
// in place.
type Completion struct {
	Date             string    `json:"date"`
	Completed        bool      `json:"completed"`
	Note             string    `json:"note,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
	TimeSpentMinutes int       `json:"time_spent_minutes,omitempty"`
}

type Subtask struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
}

type Task struct {
	ID            string       `json:"id"`
	UserID        string       `json:"user_id"`
	Title         string       `json:"title"`
	Description   string       `json:"description,omitempty"`
	Category      string       `json:"category"`
	Priority      Priority     `json:"priority"`
	Status        Status       `json:"status"`
	CreatedAt     time.Time    `json:"created_at"`
	Completions   []Completion `json:"completions"`
	Subtasks      []Subtask    `json:"subtasks,omitempty"`
	Tags          []string     `json:"tags,omitempty"`
	IsDaily       bool         `json:"is_daily"`
	Difficulty    int          `json:"difficulty"`
	EstimatedTime int          `json:"estimated_time,omitempty"`
	ReminderTime  string       `json:"reminder_time,omitempty"`
}

func NewTask(userID, title string) *Task {
	return &Task{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       title,
		Category:    "other",
		Priority:    PriorityMedium,
		Status:      StatusActive,
		CreatedAt:   time.Now(),
		Completions: make([]Completion, 0),
		IsDaily:     true,
		Difficulty:  1,
	}
}

func today() string {
	return time.Now().Format(DateLayout)
}

func (t *Task) completionFor(day string) *Completion {
	for i := range t.Completions {
		if t.Completions[i].Date == day {
			return &t.Completions[i]
		}
	}
	return nil
}

// MarkCompleted records today's completion. Calling it again the same
// day refreshes the existing record instead of appending a second one.
func (t *Task) MarkCompleted(note string, timeSpent int) {
	day := today()
	if c := t.completionFor(day); c != nil {
		c.Completed = true
		c.Note = note
		c.Timestamp = time.Now()
		c.TimeSpentMinutes = timeSpent
		return
	}
	t.Completions = append(t.Completions, Completion{
		Date:             day,
		Completed:        true,
		Note:             note,
		Timestamp:        time.Now(),
		TimeSpentMinutes: timeSpent,
	})
}

// MarkUncompleted flips today's record to not-completed. It returns
// false when no record exists for today; it never fabricates one.
func (t *Task) MarkUncompleted() bool {
	c := t.completionFor(today())
	if c == nil {
		return false
	}
	c.Completed = false
	c.Timestamp = time.Now()
	return true
}

func (t *Task) IsCompletedToday() bool {
	return t.CompletedOn(today())
}

func (t *Task) CompletedOn(day string) bool {
	c := t.completionFor(day)
	return c != nil && c.Completed
}

func (t *Task) AddSubtask(title string) string {
	sub := Subtask{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: time.Now(),
	}
	t.Subtasks = append(t.Subtasks, sub)
	return sub.ID
}

// ToggleSubtask returns false when the id is unknown.
func (t *Task) ToggleSubtask(id string) bool {
	for i := range t.Subtasks {
		if t.Subtasks[i].ID == id {
			t.Subtasks[i].Completed = !t.Subtasks[i].Completed
			return true
		}
	}
	return false
}

func (t *Task) SubtaskProgress() (done, total int) {
	for _, s := range t.Subtasks {
		if s.Completed {
			done++
		}
	}
	return done, len(t.Subtasks)
}

// CurrentStreak counts consecutive completed days ending today. A task
// without a completed record for today has a streak of 0 no matter how
// long the previous run was.
func (t *Task) CurrentStreak() int {
	completed := t.completedDays()
	if len(completed) == 0 {
		return 0
	}

	streak := 0
	day := time.Now()
	for {
		if !completed[day.Format(DateLayout)] {
			break
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// LongestStreak scans the whole completion history for the longest run
// of consecutive completed days.
func (t *Task) LongestStreak() int {
	completed := t.completedDays()
	longest := 0
	for day := range completed {
		d, err := time.Parse(DateLayout, day)
		if err != nil {
			continue
		}
		// Only count runs from their first day.
		if completed[d.AddDate(0, 0, -1).Format(DateLayout)] {
			continue
		}
		run := 0
		for completed[d.Format(DateLayout)] {
			run++
			d = d.AddDate(0, 0, 1)
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

func (t *Task) completedDays() map[string]bool {
	days := make(map[string]bool, len(t.Completions))
	for _, c := range t.Completions {
		if c.Completed {
			days[c.Date] = true
		}
	}
	return days
}

// CompletionRateWeek divides by the fixed 7-day window, not by days
// since creation, so young tasks report low rates.
func (t *Task) CompletionRateWeek() float64 {
	return t.completionRate(7)
}

// CompletionRateMonth divides by a fixed 30-day window.
func (t *Task) CompletionRateMonth() float64 {
	return t.completionRate(30)
}

func (t *Task) completionRate(windowDays int) float64 {
	// ISO day strings compare correctly as strings.
	cutoff := time.Now().AddDate(0, 0, -windowDays).Format(DateLayout)
	count := 0
	for _, c := range t.Completions {
		if c.Completed && c.Date >= cutoff {
			count++
		}
	}
	return float64(count) / float64(windowDays) * 100
}

var xpBase = map[Priority]int{
	PriorityLow:    10,
	PriorityMedium: 20,
	PriorityHigh:   30,
}

// XPValue is the experience granted for completing the task today:
// base(priority) * (difficulty*0.2 + 0.8) + min(streak*2, 50),
// truncated to an integer.
func (t *Task) XPValue() int {
	base, ok := xpBase[t.Priority]
	if !ok {
		base = xpBase[PriorityMedium]
	}

	difficulty := t.Difficulty
	if difficulty < 1 {
		difficulty = 1
	} else if difficulty > 5 {
		difficulty = 5
	}

	bonus := t.CurrentStreak() * 2
	if bonus > 50 {
		bonus = 50
	}

	return int(float64(base)*(float64(difficulty)*0.2+0.8) + float64(bonus))
}
