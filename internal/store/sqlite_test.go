package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workmesh/collab/internal/domain"
)

func setupSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "collab.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteDocumentRoundTrip(t *testing.T) {
	s := setupSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.SeedDocument(ctx, Document{
		ID: "d1", Title: "Plan", Content: "v1", Version: 1,
		CreatorID: "u1", Collaborators: []domain.UserID{"u2", "u3"},
	}))

	doc, err := s.GetDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "Plan", doc.Title)
	assert.Equal(t, int64(1), doc.Version)
	assert.ElementsMatch(t, []domain.UserID{"u2", "u3"}, doc.Collaborators)
	assert.True(t, doc.Authorized("u1"))
	assert.True(t, doc.Authorized("u3"))
	assert.False(t, doc.Authorized("stranger"))

	_, err = s.GetDocument(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteCASAcceptsMatchingVersion(t *testing.T) {
	s := setupSQLite(t)
	ctx := context.Background()
	require.NoError(t, s.SeedDocument(ctx, Document{ID: "d1", Title: "t", Content: "old", Version: 1, CreatorID: "u1"}))

	res, err := s.CASUpdateDocument(ctx, "d1", 1, "new", "u1")
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, int64(2), res.NewVersion)

	doc, err := s.GetDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "new", doc.Content)
	assert.Equal(t, int64(2), doc.Version)
}

func TestSQLiteCASRejectsStaleVersion(t *testing.T) {
	s := setupSQLite(t)
	ctx := context.Background()
	require.NoError(t, s.SeedDocument(ctx, Document{ID: "d1", Title: "t", Content: "current", Version: 4, CreatorID: "u1"}))

	res, err := s.CASUpdateDocument(ctx, "d1", 3, "stale write", "u1")
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, int64(4), res.CurrentVersion)
	assert.Equal(t, "current", res.CurrentContent)

	doc, err := s.GetDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, "current", doc.Content)
}

func TestSQLiteCASUnknownDocument(t *testing.T) {
	s := setupSQLite(t)
	_, err := s.CASUpdateDocument(context.Background(), "missing", 1, "x", "u1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteMeetingScopedByTeam(t *testing.T) {
	s := setupSQLite(t)
	ctx := context.Background()
	require.NoError(t, s.SeedMeeting(ctx, Meeting{ID: "m1", TeamID: "t1", Title: "standup"}))

	m, err := s.GetMeeting(ctx, "m1", "t1")
	require.NoError(t, err)
	assert.Equal(t, "standup", m.Title)

	_, err = s.GetMeeting(ctx, "m1", "other-team")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteParticipantAudit(t *testing.T) {
	s := setupSQLite(t)
	ctx := context.Background()
	require.NoError(t, s.SeedMeeting(ctx, Meeting{ID: "m1", TeamID: "t1"}))

	joined := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.RecordParticipant(ctx, domain.NewParticipant("m1", "u1", "c1", joined)))
	require.NoError(t, s.MarkParticipantLeft(ctx, "m1", "c1", joined.Add(time.Minute)))
	// Marking again is harmless: left_at is only set once.
	require.NoError(t, s.MarkParticipantLeft(ctx, "m1", "c1", joined.Add(2*time.Minute)))

	log, err := s.ParticipantLog(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, domain.UserID("u1"), log[0].UserID)
	require.NotNil(t, log[0].LeftAt)
	assert.Equal(t, joined.Add(time.Minute), log[0].LeftAt.UTC())
}
