package services

import (
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru"

	"github.com/habitloop/habitbot/habitbot/models"
	"github.com/habitloop/habitbot/habitbot/store"
)

const summaryCacheSize = 1024

// Summary is the cheap-to-serve profile aggregate shown on
// leaderboards and profile views. It is derived state; completions
// invalidate it.
type Summary struct {
	UserID       string
	Username     string
	Level        int
	LevelTitle   string
	TotalXP      int
	MaxStreak    int
	WeekRate     float64
	Achievements int
	ComputedAt   time.Time
}

// SummaryCache memoizes per-user summaries in an LRU so leaderboard
// reads do not rescan every completion history.
type SummaryCache struct {
	cache *store.Cache
	lru   *lru.Cache
}

func NewSummaryCache(cache *store.Cache) *SummaryCache {
	l, _ := lru.New(summaryCacheSize)
	return &SummaryCache{cache: cache, lru: l}
}

// Get returns the memoized summary, computing it on a miss. The bool
// is false for an unknown user.
func (s *SummaryCache) Get(userID string) (Summary, bool) {
	if v, ok := s.lru.Get(userID); ok {
		return v.(Summary), true
	}

	var summary Summary
	found := s.cache.View(userID, func(u *models.User) {
		summary = summarize(u)
	})
	if !found {
		return Summary{}, false
	}
	s.lru.Add(userID, summary)
	return summary, true
}

// Invalidate drops a user's memoized summary after a mutation.
func (s *SummaryCache) Invalidate(userID string) {
	s.lru.Remove(userID)
}

// Leaderboard returns the top n users by total XP.
func (s *SummaryCache) Leaderboard(n int) []Summary {
	ids := s.cache.IDs()
	summaries := make([]Summary, 0, len(ids))
	for _, id := range ids {
		if summary, ok := s.Get(id); ok {
			summaries = append(summaries, summary)
		}
	}

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].TotalXP == summaries[j].TotalXP {
			return summaries[i].UserID < summaries[j].UserID
		}
		return summaries[i].TotalXP > summaries[j].TotalXP
	})

	if n > 0 && len(summaries) > n {
		summaries = summaries[:n]
	}
	return summaries
}

func summarize(u *models.User) Summary {
	var weekRate float64
	active := u.ActiveTasks()
	for _, t := range active {
		weekRate += t.CompletionRateWeek()
	}
	if len(active) > 0 {
		weekRate /= float64(len(active))
	}

	return Summary{
		UserID:       u.ID,
		Username:     u.Username,
		Level:        u.Stats.Level,
		LevelTitle:   models.LevelTitle(u.Stats.Level),
		TotalXP:      u.Stats.TotalXP,
		MaxStreak:    u.MaxCurrentStreak(),
		WeekRate:     weekRate,
		Achievements: len(u.Achievements),
		ComputedAt:   time.Now(),
	}
}
