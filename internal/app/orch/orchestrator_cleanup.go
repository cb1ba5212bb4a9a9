package orch

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/workmesh/collab/internal/core"
	"github.com/workmesh/collab/internal/domain"
)

type userLeft struct {
	DocumentID string        `json:"documentId"`
	UserID     domain.UserID `json:"userId"`
}

// Disconnect tears down all per-connection state on transport loss. It
// walks only the rooms this connection had joined, emits the
// class-appropriate departure event to whoever remains, and is
// idempotent: a duplicate disconnect signal finds nothing to clean.
func (o *Orchestrator) Disconnect(ctx context.Context, connID core.ConnID) {
	ident, rooms, ok := o.Registry.Unregister(connID)
	if !ok {
		return
	}

	for _, key := range rooms {
		switch key.Class() {
		case domain.RoomDocument:
			documentID := key.EntityID()
			if err := o.Cursors.Remove(ctx, documentID, ident.UserID); err != nil {
				log.Warn().Err(err).Str("module", "orch").Str("document", documentID).Msg("removing cursor on disconnect")
			}
			o.broadcast(key, "user-left", userLeft{DocumentID: documentID, UserID: ident.UserID}, "")

		case domain.RoomMeeting:
			meetingID := key.EntityID()
			if _, ok := o.Roster.RemoveConn(meetingID, ident.UserID, string(connID)); !ok {
				continue
			}
			if err := o.Store.MarkParticipantLeft(ctx, meetingID, string(connID), o.now().UTC()); err != nil {
				log.Error().Err(err).Str("module", "orch").Str("meeting", meetingID).Msg("marking participant left on disconnect")
			}
			o.broadcast(key, "participant-left", participantEvent{MeetingID: meetingID, UserID: ident.UserID}, "")

		default:
			// drive/mail/team channels carry no departure events.
		}
	}
	log.Info().Str("module", "orch").Str("conn", string(connID)).Str("user", string(ident.UserID)).Int("rooms", len(rooms)).Msg("disconnect cleanup complete")
}
