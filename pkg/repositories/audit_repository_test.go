package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/database"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/models"
	"github.com/YoussefHalitou/LiS-Chatbot-sub000/pkg/testhelpers"
)

func newAuditRepo(t *testing.T) *AuditRepository {
	t.Helper()
	db := testhelpers.GetTestDB(t)
	require.NoError(t, database.RunMigrations(db.ConnStr, "../../migrations", zap.NewNop()))
	return NewAuditRepository(db.Pool)
}

func TestAuditRepositoryWriteAndList(t *testing.T) {
	repo := newAuditRepo(t)
	ctx := context.Background()

	entry := &models.AuditLogEntry{
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
		Action:    models.AuditActionInsert,
		TableName: "t_projects",
		UserID:    "u1",
		IPAddress: "10.0.0.1",
		Filters:   models.RedactedMarker,
		Values:    models.RedactedMarker,
		Result:    models.AuditResultSuccess,
	}
	require.NoError(t, repo.Write(ctx, entry))

	entries, err := repo.List(ctx, AuditEntryFilters{TableName: "t_projects"})
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	var found *models.AuditLogEntry
	for _, e := range entries {
		if e.ID == entry.ID {
			found = e
			break
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, models.AuditActionInsert, found.Action)
	assert.Equal(t, "u1", found.UserID)
	assert.Equal(t, models.RedactedMarker, found.Values)
	assert.Empty(t, found.Error)
}

func TestAuditRepositoryWriteFailureEntry(t *testing.T) {
	repo := newAuditRepo(t)
	ctx := context.Background()

	entry := &models.AuditLogEntry{
		ID:        uuid.New(),
		Timestamp: time.Now().UTC(),
		Action:    models.AuditActionDelete,
		TableName: "t_vehicles",
		Result:    models.AuditResultFailure,
		Error:     "keine passende Zeile",
		Metadata:  map[string]any{"tool": "delete_row"},
	}
	require.NoError(t, repo.Write(ctx, entry))

	entries, err := repo.List(ctx, AuditEntryFilters{
		TableName: "t_vehicles",
		Action:    models.AuditActionDelete,
		Limit:     10,
	})
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	var found *models.AuditLogEntry
	for _, e := range entries {
		if e.ID == entry.ID {
			found = e
			break
		}
	}
	require.NotNil(t, found)
	assert.Equal(t, "keine passende Zeile", found.Error)
	assert.Equal(t, "delete_row", found.Metadata["tool"])
	assert.Empty(t, found.UserID, "NULL user_id reads back as empty string")
}

func TestAuditRepositoryListSinceFilter(t *testing.T) {
	repo := newAuditRepo(t)
	ctx := context.Background()

	future := time.Now().UTC().Add(time.Hour)
	entries, err := repo.List(ctx, AuditEntryFilters{Since: &future})
	require.NoError(t, err)
	assert.Empty(t, entries)
}
