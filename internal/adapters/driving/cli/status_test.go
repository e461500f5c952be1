package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/strata-labs/skimmer/internal/core/domain"
)

func setupStatusTest(store *mockTaskStore) func() {
	old := schedulerStore
	schedulerStore = store
	return func() {
		schedulerStore = old
		statusHistory = 3
	}
}

func TestStatusCmd_Use(t *testing.T) {
	assert.Equal(t, "status", statusCmd.Use)
}

func TestStatusCmd_ListsTasks(t *testing.T) {
	cleanup := setupStatusTest(&mockTaskStore{
		tasks: []domain.ScheduledTask{
			{
				ID:       domain.TaskIDScrape,
				Interval: time.Hour,
				Enabled:  true,
				LastRun:  time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
				NextRun:  time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC),
			},
			{
				ID:        domain.TaskIDReembed,
				Interval:  6 * time.Hour,
				Enabled:   true,
				LastError: "api down",
			},
		},
		history: map[string][]domain.TaskResult{
			domain.TaskIDScrape: {{
				TaskID:         domain.TaskIDScrape,
				StartedAt:      time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
				Success:        true,
				ItemsProcessed: 9,
			}},
		},
	})
	defer cleanup()

	out, err := execute("status")
	assert.NoError(t, err)
	assert.Contains(t, out, "scrape")
	assert.Contains(t, out, "reembed")
	assert.Contains(t, out, "api down")
	assert.Contains(t, out, "never")
	assert.Contains(t, out, "9 items")
}

func TestStatusCmd_NoTasks(t *testing.T) {
	cleanup := setupStatusTest(&mockTaskStore{})
	defer cleanup()

	out, err := execute("status")
	assert.NoError(t, err)
	assert.Contains(t, out, "No scheduled tasks.")
}

func TestStatusCmd_NotConfigured(t *testing.T) {
	old := schedulerStore
	schedulerStore = nil
	defer func() { schedulerStore = old }()

	_, err := execute("status")
	assert.Error(t, err)
}
