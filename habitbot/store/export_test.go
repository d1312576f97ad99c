package store

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitloop/habitbot/habitbot/models"
)

func exportUser(t *testing.T) *models.User {
	t.Helper()
	u := models.NewUser("42", "alice", "Alice", "")
	task := models.NewTask("42", "morning run")
	task.Category = "health"
	task.Priority = models.PriorityHigh
	task.MarkCompleted("felt great", 25)
	u.AddTask(task)
	return u
}

func TestExportJSONEnvelope(t *testing.T) {
	u := exportUser(t)

	data, err := ExportJSON(u)
	require.NoError(t, err)

	var doc struct {
		ExportInfo ExportInfo      `json:"export_info"`
		UserData   json.RawMessage `json:"user_data"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, "json", doc.ExportInfo.Format)
	assert.Equal(t, ExportVersion, doc.ExportInfo.Version)
	assert.Equal(t, "42", doc.ExportInfo.UserID)
	assert.False(t, doc.ExportInfo.ExportedAt.IsZero())

	var decoded models.User
	require.NoError(t, json.Unmarshal(doc.UserData, &decoded))
	assert.Equal(t, "alice", decoded.Username)
	assert.Len(t, decoded.Tasks, 1)
}

func TestExportCSVRows(t *testing.T) {
	u := exportUser(t)

	data, err := ExportCSV(u)
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, csvHeader, records[0])
	row := records[1]
	assert.Equal(t, "morning run", row[1])
	assert.Equal(t, "health", row[2])
	assert.Equal(t, "high", row[3])
	assert.Equal(t, "true", row[5])
	assert.Equal(t, "25", row[6])
	assert.Equal(t, "felt great", row[7])
}

func TestExportUserDoesNotMarkDirty(t *testing.T) {
	c, err := Open(testConfig(t))
	require.NoError(t, err)
	c.GetOrCreate("42", "alice", "Alice", "")
	require.NoError(t, c.Flush())
	require.Equal(t, 0, c.DirtyCount())

	data, err := c.ExportUser("42", "json")
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	data, err = c.ExportUser("42", "csv")
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	assert.Equal(t, 0, c.DirtyCount())

	_, err = c.ExportUser("404", "json")
	assert.Error(t, err)
}
