package orch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/workmesh/collab/internal/core"
	"github.com/workmesh/collab/internal/domain"
	"github.com/workmesh/collab/internal/store"
)

// MeetingState is the roster replied to a joiner.
type MeetingState struct {
	MeetingID    string               `json:"meetingId"`
	Participants []domain.Participant `json:"participants"`
}

type participantEvent struct {
	MeetingID string        `json:"meetingId"`
	UserID    domain.UserID `json:"userId"`
}

type mediaToggled struct {
	MeetingID string        `json:"meetingId"`
	UserID    domain.UserID `json:"userId"`
	IsActive  bool          `json:"isActive"`
}

type chatMessage struct {
	ID        string        `json:"id"`
	MeetingID string        `json:"meetingId"`
	UserID    domain.UserID `json:"userId"`
	Message   string        `json:"message"`
	Timestamp time.Time     `json:"timestamp"`
}

type signalRelay struct {
	MeetingID  string          `json:"meetingId"`
	FromUserID domain.UserID   `json:"fromUserId"`
	Data       json.RawMessage `json:"data"`
}

// JoinMeeting verifies the meeting exists for the caller's team, then
// admits the caller if the roster is below the team's tier ceiling. The
// size check and the roster insert are one atomic unit per meeting; the
// ceiling is re-read from the tier policy on every join.
func (o *Orchestrator) JoinMeeting(ctx context.Context, connID core.ConnID, meetingID string, claimed domain.UserID) error {
	ident, err := o.requireIdentity(connID, claimed)
	if err != nil {
		return err
	}
	if meetingID == "" {
		return core.Validation("roomId is required")
	}

	if _, err := o.Store.GetMeeting(ctx, meetingID, ident.TeamID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return core.NotFound("meeting not found")
		}
		return core.Internal("loading meeting", err)
	}

	key := domain.NewRoomKey(domain.RoomMeeting, meetingID)
	unlock := o.locks.Lock(string(key))

	if _, rejoining := o.Roster.Get(meetingID, ident.UserID); !rejoining {
		ceiling, err := o.Tiers.MaxMeetingParticipants(ctx, ident.TeamID)
		if err != nil {
			unlock()
			return core.Internal("resolving tier capacity", err)
		}
		if o.Roster.Size(meetingID) >= ceiling {
			unlock()
			return core.CapacityExceeded(fmt.Sprintf("meeting is full (%d participants)", ceiling))
		}
	}

	p := domain.NewParticipant(meetingID, ident.UserID, string(connID), o.now().UTC())
	if err := o.Store.RecordParticipant(ctx, p); err != nil {
		unlock()
		return core.Internal("recording participant", err)
	}
	o.Roster.Add(p)
	unlock()

	o.Registry.Join(connID, key)
	o.broadcast(key, "participant-joined", *p, connID)
	o.send(connID, "meeting-state", MeetingState{
		MeetingID:    meetingID,
		Participants: o.Roster.Snapshot(meetingID),
	})
	return nil
}

// LeaveMeeting is the graceful counterpart of disconnect cleanup: the
// participant is stamped leftAt and dropped from the live roster while
// the connection stays up.
func (o *Orchestrator) LeaveMeeting(ctx context.Context, connID core.ConnID, meetingID string, claimed domain.UserID) error {
	ident, err := o.requireIdentity(connID, claimed)
	if err != nil {
		return err
	}
	key := domain.NewRoomKey(domain.RoomMeeting, meetingID)
	o.Registry.Leave(connID, key)

	if _, ok := o.Roster.RemoveConn(meetingID, ident.UserID, string(connID)); ok {
		if err := o.Store.MarkParticipantLeft(ctx, meetingID, string(connID), o.now().UTC()); err != nil {
			log.Error().Err(err).Str("module", "orch").Str("meeting", meetingID).Msg("marking participant left")
		}
		o.broadcast(key, "participant-left", participantEvent{MeetingID: meetingID, UserID: ident.UserID}, connID)
	}
	return nil
}

type mediaKind int

const (
	mediaAudio mediaKind = iota
	mediaVideo
	mediaScreen
)

func (o *Orchestrator) ToggleAudio(ctx context.Context, connID core.ConnID, meetingID string, active bool, claimed domain.UserID) error {
	return o.toggleMedia(connID, meetingID, mediaAudio, active, claimed)
}

func (o *Orchestrator) ToggleVideo(ctx context.Context, connID core.ConnID, meetingID string, active bool, claimed domain.UserID) error {
	return o.toggleMedia(connID, meetingID, mediaVideo, active, claimed)
}

func (o *Orchestrator) ToggleScreenShare(ctx context.Context, connID core.ConnID, meetingID string, active bool, claimed domain.UserID) error {
	return o.toggleMedia(connID, meetingID, mediaScreen, active, claimed)
}

// toggleMedia updates one participant flag and tells everyone else; the
// sender already knows its own new state.
func (o *Orchestrator) toggleMedia(connID core.ConnID, meetingID string, kind mediaKind, active bool, claimed domain.UserID) error {
	ident, err := o.requireIdentity(connID, claimed)
	if err != nil {
		return err
	}

	var ok bool
	var event string
	switch kind {
	case mediaAudio:
		ok = o.Roster.SetAudio(meetingID, ident.UserID, active)
		event = "audio-toggled"
	case mediaVideo:
		ok = o.Roster.SetVideo(meetingID, ident.UserID, active)
		event = "video-toggled"
	case mediaScreen:
		ok = o.Roster.SetScreenShare(meetingID, ident.UserID, active)
		event = "screen-share-toggled"
	}
	if !ok {
		return core.NotFound("not a participant of this meeting")
	}

	key := domain.NewRoomKey(domain.RoomMeeting, meetingID)
	o.broadcast(key, event, mediaToggled{MeetingID: meetingID, UserID: ident.UserID, IsActive: active}, connID)
	return nil
}

// Chat assigns a server id and timestamp and fans the message out to the
// entire room, sender included, so every client renders one consistent
// order. Durability is the egress consumer's problem.
func (o *Orchestrator) Chat(ctx context.Context, connID core.ConnID, meetingID, message string, claimed domain.UserID) error {
	ident, err := o.requireIdentity(connID, claimed)
	if err != nil {
		return err
	}
	if message == "" {
		return core.Validation("message is empty")
	}
	key := domain.NewRoomKey(domain.RoomMeeting, meetingID)
	if !o.Registry.IsMember(connID, key) {
		return core.AuthorizationDenied("join the meeting before chatting")
	}

	msg := chatMessage{
		ID:        uuid.NewString(),
		MeetingID: meetingID,
		UserID:    ident.UserID,
		Message:   message,
		Timestamp: o.now().UTC(),
	}
	o.broadcast(key, "meeting-chat-message", msg, "")
	o.Egress.Notify(ctx, "meeting-chat-message", msg)
	return nil
}

// RelaySignal forwards an opaque signaling payload to one named peer.
// Both parties must be members of the same meeting room; the payload is
// never interpreted.
func (o *Orchestrator) RelaySignal(ctx context.Context, connID core.ConnID, meetingID string, targetUserID domain.UserID, data json.RawMessage, claimed domain.UserID) error {
	ident, err := o.requireIdentity(connID, claimed)
	if err != nil {
		return err
	}
	key := domain.NewRoomKey(domain.RoomMeeting, meetingID)
	if !o.Registry.IsMember(connID, key) {
		return core.AuthorizationDenied("join the meeting before signaling")
	}

	relayed := false
	for _, m := range o.Registry.MembersOf(key) {
		if m.Identity.UserID != targetUserID || m.ConnID == connID {
			continue
		}
		o.sendTo(m.Sender, "signal", signalRelay{MeetingID: meetingID, FromUserID: ident.UserID, Data: data})
		relayed = true
	}
	if !relayed {
		return core.NotFound("peer is not in this meeting")
	}
	return nil
}
