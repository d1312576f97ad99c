package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(offset int) string {
	return time.Now().AddDate(0, 0, offset).Format(DateLayout)
}

func taskWithCompletions(offsets ...int) *Task {
	t := NewTask("u1", "test task")
	for _, o := range offsets {
		t.Completions = append(t.Completions, Completion{
			Date:      day(o),
			Completed: true,
			Timestamp: time.Now().AddDate(0, 0, o),
		})
	}
	return t
}

func TestMarkCompletedIdempotent(t *testing.T) {
	task := NewTask("u1", "drink water")

	task.MarkCompleted("first", 5)
	task.MarkCompleted("second", 10)

	require.Len(t, task.Completions, 1)
	c := task.Completions[0]
	assert.Equal(t, day(0), c.Date)
	assert.True(t, c.Completed)
	assert.Equal(t, "second", c.Note)
	assert.Equal(t, 10, c.TimeSpentMinutes)
}

func TestMarkUncompleted(t *testing.T) {
	task := NewTask("u1", "stretch")

	assert.False(t, task.MarkUncompleted(), "no record for today yet")
	require.Len(t, task.Completions, 0)

	task.MarkCompleted("", 0)
	require.True(t, task.IsCompletedToday())

	assert.True(t, task.MarkUncompleted())
	assert.False(t, task.IsCompletedToday())
	require.Len(t, task.Completions, 1, "the record is flipped, not removed")
}

func TestCurrentStreak(t *testing.T) {
	tests := []struct {
		name    string
		offsets []int
		want    int
	}{
		{name: "no completions", offsets: nil, want: 0},
		{name: "only today", offsets: []int{0}, want: 1},
		{name: "three consecutive days ending today", offsets: []int{0, -1, -2}, want: 3},
		{name: "gap before today", offsets: []int{0, -2, -3}, want: 1},
		{name: "long run not ending today", offsets: []int{-1, -2, -3, -4, -5}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := taskWithCompletions(tt.offsets...)
			assert.Equal(t, tt.want, task.CurrentStreak())
		})
	}
}

func TestCurrentStreakIgnoresUncompletedRecords(t *testing.T) {
	task := taskWithCompletions(0, -1)
	task.Completions = append(task.Completions, Completion{Date: day(-2), Completed: false})

	assert.Equal(t, 2, task.CurrentStreak())
}

func TestLongestStreak(t *testing.T) {
	task := taskWithCompletions(-1, -2, -3, -4, -10, -11)
	assert.Equal(t, 4, task.LongestStreak())
	assert.Equal(t, 0, task.CurrentStreak())
}

func TestCompletionRates(t *testing.T) {
	task := taskWithCompletions(0, -1, -2)

	assert.InDelta(t, 3.0/7.0*100, task.CompletionRateWeek(), 0.01)
	assert.InDelta(t, 3.0/30.0*100, task.CompletionRateMonth(), 0.01)
}

func TestCompletionRateIgnoresOldRecords(t *testing.T) {
	task := taskWithCompletions(0, -20, -40)

	assert.InDelta(t, 1.0/7.0*100, task.CompletionRateWeek(), 0.01)
	assert.InDelta(t, 2.0/30.0*100, task.CompletionRateMonth(), 0.01)
}

func TestXPValue(t *testing.T) {
	tests := []struct {
		name       string
		priority   Priority
		difficulty int
		offsets    []int
		want       int
	}{
		{name: "high priority difficulty 3 streak 5", priority: PriorityHigh, difficulty: 3, offsets: []int{0, -1, -2, -3, -4}, want: 52},
		{name: "low priority baseline", priority: PriorityLow, difficulty: 1, offsets: nil, want: 10},
		{name: "medium priority difficulty 5", priority: PriorityMedium, difficulty: 5, offsets: nil, want: 36},
		{name: "difficulty clamped above 5", priority: PriorityLow, difficulty: 9, offsets: nil, want: 18},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := taskWithCompletions(tt.offsets...)
			task.Priority = tt.priority
			task.Difficulty = tt.difficulty
			assert.Equal(t, tt.want, task.XPValue())
		})
	}
}

func TestXPValueStreakBonusCap(t *testing.T) {
	offsets := make([]int, 30)
	for i := range offsets {
		offsets[i] = -i
	}
	task := taskWithCompletions(offsets...)
	task.Priority = PriorityLow
	task.Difficulty = 1

	require.Equal(t, 30, task.CurrentStreak())
	assert.Equal(t, 60, task.XPValue(), "bonus capped at 50")
}

func TestSubtasks(t *testing.T) {
	task := NewTask("u1", "clean desk")

	id1 := task.AddSubtask("clear papers")
	id2 := task.AddSubtask("wipe surface")
	require.NotEqual(t, id1, id2)

	assert.True(t, task.ToggleSubtask(id1))
	assert.False(t, task.ToggleSubtask("nope"))

	done, total := task.SubtaskProgress()
	assert.Equal(t, 1, done)
	assert.Equal(t, 2, total)

	assert.True(t, task.ToggleSubtask(id1), "toggling back works")
	done, _ = task.SubtaskProgress()
	assert.Equal(t, 0, done)
}

func TestParsePriority(t *testing.T) {
	assert.Equal(t, PriorityHigh, ParsePriority("high"))
	assert.Equal(t, PriorityMedium, ParsePriority("banana"))
	assert.Equal(t, PriorityMedium, ParsePriority(""))
}
