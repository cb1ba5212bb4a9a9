package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomKeyRoundTrip(t *testing.T) {
	key := NewRoomKey(RoomDocument, "doc1")
	assert.Equal(t, RoomKey("document:doc1"), key)
	assert.Equal(t, RoomDocument, key.Class())
	assert.Equal(t, "doc1", key.EntityID())
}

func TestRoomKeyEntityWithColon(t *testing.T) {
	key := NewRoomKey(RoomMail, "user:inbox")
	assert.Equal(t, RoomMail, key.Class())
	assert.Equal(t, "user:inbox", key.EntityID())
}

func TestNewIdentity(t *testing.T) {
	ident, err := NewIdentity("u1", "t1")
	require.NoError(t, err)
	assert.Equal(t, UserID("u1"), ident.UserID)
	assert.Equal(t, TeamID("t1"), ident.TeamID)

	_, err = NewIdentity("", "t1")
	assert.ErrorIs(t, err, ErrUserIDEmpty)
	_, err = NewIdentity("u1", "")
	assert.ErrorIs(t, err, ErrTeamIDEmpty)
}
