package services

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/habitloop/habitbot/habitbot/models"
	"github.com/habitloop/habitbot/habitbot/store"
)

// taskSearchItems implements fuzzy.Source over a user's tasks.
type taskSearchItems []taskSearchItem

type taskSearchItem struct {
	task *models.Task
	name string
}

func (items taskSearchItems) Len() int {
	return len(items)
}

func (items taskSearchItems) String(i int) string {
	return items[i].name
}

// SearchService finds a user's tasks by fuzzy-matching titles and
// tags, ranked by relevance.
type SearchService struct {
	cache *store.Cache
}

func NewSearchService(cache *store.Cache) *SearchService {
	return &SearchService{cache: cache}
}

// SearchTasks returns the user's tasks matching query, best match
// first. An empty query returns every task in map order.
func (s *SearchService) SearchTasks(userID, query string) []*models.Task {
	var results []*models.Task
	s.cache.View(userID, func(u *models.User) {
		if query == "" {
			for _, t := range u.Tasks {
				results = append(results, t)
			}
			return
		}

		items := make(taskSearchItems, 0, len(u.Tasks))
		for _, t := range u.Tasks {
			name := t.Title
			if len(t.Tags) > 0 {
				name += " " + strings.Join(t.Tags, " ")
			}
			items = append(items, taskSearchItem{task: t, name: strings.ToLower(name)})
		}

		matches := fuzzy.FindFrom(strings.ToLower(query), items)
		for _, m := range matches {
			results = append(results, items[m.Index].task)
		}
	})
	return results
}
