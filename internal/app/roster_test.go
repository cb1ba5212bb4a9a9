package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workmesh/collab/internal/domain"
)

func TestRosterAddIsUpsertPerUser(t *testing.T) {
	r := NewRoster()
	now := time.Now()
	r.Add(domain.NewParticipant("m1", "u1", "c1", now))
	r.Add(domain.NewParticipant("m1", "u1", "c2", now.Add(time.Second)))

	assert.Equal(t, 1, r.Size("m1"))
	p, ok := r.Get("m1", "u1")
	require.True(t, ok)
	assert.Equal(t, "c2", p.ConnectionID)
}

func TestRosterSnapshotOrderedByJoin(t *testing.T) {
	r := NewRoster()
	base := time.Now()
	r.Add(domain.NewParticipant("m1", "u2", "c2", base.Add(time.Second)))
	r.Add(domain.NewParticipant("m1", "u1", "c1", base))

	snap := r.Snapshot("m1")
	require.Len(t, snap, 2)
	assert.Equal(t, domain.UserID("u1"), snap[0].UserID)
	assert.Equal(t, domain.UserID("u2"), snap[1].UserID)
}

func TestRosterFlagUpdates(t *testing.T) {
	r := NewRoster()
	r.Add(domain.NewParticipant("m1", "u1", "c1", time.Now()))

	assert.True(t, r.SetAudio("m1", "u1", true))
	assert.True(t, r.SetVideo("m1", "u1", true))
	assert.True(t, r.SetScreenShare("m1", "u1", true))
	assert.False(t, r.SetAudio("m1", "ghost", true))

	p, _ := r.Get("m1", "u1")
	assert.True(t, p.AudioActive)
	assert.True(t, p.VideoActive)
	assert.True(t, p.ScreenSharing)
}

func TestRosterRemoveConnChecksOwnership(t *testing.T) {
	r := NewRoster()
	r.Add(domain.NewParticipant("m1", "u1", "c1", time.Now()))

	// A stale connection must not evict the user's fresh entry.
	_, ok := r.RemoveConn("m1", "u1", "c-old")
	assert.False(t, ok)
	assert.Equal(t, 1, r.Size("m1"))

	p, ok := r.RemoveConn("m1", "u1", "c1")
	require.True(t, ok)
	assert.Equal(t, domain.UserID("u1"), p.UserID)
	assert.Equal(t, 0, r.Size("m1"))
}
