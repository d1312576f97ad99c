package store

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/habitloop/habitbot/habitbot/models"
)

// ExportVersion is the interchange document version.
const ExportVersion = "4.0"

type ExportInfo struct {
	Format     string    `json:"format"`
	Version    string    `json:"version"`
	ExportedAt time.Time `json:"exported_at"`
	UserID     string    `json:"user_id"`
}

// ExportDocument is the versioned envelope around a full user record.
type ExportDocument struct {
	ExportInfo ExportInfo   `json:"export_info"`
	UserData   *models.User `json:"user_data"`
}

// ExportJSON serializes one user into the versioned envelope.
func ExportJSON(user *models.User) ([]byte, error) {
	doc := ExportDocument{
		ExportInfo: ExportInfo{
			Format:     "json",
			Version:    ExportVersion,
			ExportedAt: time.Now(),
			UserID:     user.ID,
		},
		UserData: user,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export: %w", err)
	}
	return data, nil
}

var csvHeader = []string{"task_id", "title", "category", "priority", "date", "completed", "time_spent", "note"}

// ExportCSV flattens a user's completion history into one row per
// completion record, tasks ordered by id, completions in history
// order.
func ExportCSV(user *models.User) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(user.Tasks))
	for id := range user.Tasks {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		task := user.Tasks[id]
		for _, c := range task.Completions {
			row := []string{
				task.ID,
				task.Title,
				task.Category,
				string(task.Priority),
				c.Date,
				strconv.FormatBool(c.Completed),
				strconv.Itoa(c.TimeSpentMinutes),
				c.Note,
			}
			if err := w.Write(row); err != nil {
				return nil, err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportUser serializes a cached user without touching the dirty set.
// Format is "json" or "csv"; unknown formats fall back to json.
func (c *Cache) ExportUser(id, format string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	found := c.View(id, func(u *models.User) {
		switch format {
		case "csv":
			data, err = ExportCSV(u)
		default:
			data, err = ExportJSON(u)
		}
	})
	if !found {
		return nil, fmt.Errorf("unknown user: %s", id)
	}
	return data, err
}
