package signal

import (
	"context"
	"encoding/json"

	"github.com/workmesh/collab/internal/core"
	"github.com/workmesh/collab/internal/domain"
)

// meetingRef is shared by the join/leave/toggle payloads; the wire field
// is roomId for historical reasons.
type meetingRef struct {
	RoomID string        `json:"roomId"`
	UserID domain.UserID `json:"userId"`
}

func (ctl *Controller) handleJoinMeeting(ctx context.Context, connID core.ConnID, raw json.RawMessage) error {
	p, err := decode[meetingRef](raw)
	if err != nil {
		return err
	}
	return ctl.Orch.JoinMeeting(ctx, connID, p.RoomID, p.UserID)
}

func (ctl *Controller) handleLeaveMeeting(ctx context.Context, connID core.ConnID, raw json.RawMessage) error {
	p, err := decode[meetingRef](raw)
	if err != nil {
		return err
	}
	return ctl.Orch.LeaveMeeting(ctx, connID, p.RoomID, p.UserID)
}

type togglePayload struct {
	RoomID   string        `json:"roomId"`
	UserID   domain.UserID `json:"userId"`
	IsActive bool          `json:"isActive"`
}

func (ctl *Controller) handleToggleAudio(ctx context.Context, connID core.ConnID, raw json.RawMessage) error {
	p, err := decode[togglePayload](raw)
	if err != nil {
		return err
	}
	return ctl.Orch.ToggleAudio(ctx, connID, p.RoomID, p.IsActive, p.UserID)
}

func (ctl *Controller) handleToggleVideo(ctx context.Context, connID core.ConnID, raw json.RawMessage) error {
	p, err := decode[togglePayload](raw)
	if err != nil {
		return err
	}
	return ctl.Orch.ToggleVideo(ctx, connID, p.RoomID, p.IsActive, p.UserID)
}

func (ctl *Controller) handleScreenShare(ctx context.Context, connID core.ConnID, raw json.RawMessage) error {
	p, err := decode[togglePayload](raw)
	if err != nil {
		return err
	}
	return ctl.Orch.ToggleScreenShare(ctx, connID, p.RoomID, p.IsActive, p.UserID)
}

func (ctl *Controller) handleMeetingChat(ctx context.Context, connID core.ConnID, raw json.RawMessage) error {
	p, err := decode[struct {
		RoomID  string        `json:"roomId"`
		UserID  domain.UserID `json:"userId"`
		Message string        `json:"message"`
	}](raw)
	if err != nil {
		return err
	}
	return ctl.Orch.Chat(ctx, connID, p.RoomID, p.Message, p.UserID)
}

func (ctl *Controller) handleSignalRelay(ctx context.Context, connID core.ConnID, raw json.RawMessage) error {
	p, err := decode[struct {
		RoomID       string          `json:"roomId"`
		UserID       domain.UserID   `json:"userId"`
		TargetUserID domain.UserID   `json:"targetUserId"`
		Data         json.RawMessage `json:"data"`
	}](raw)
	if err != nil {
		return err
	}
	return ctl.Orch.RelaySignal(ctx, connID, p.RoomID, p.TargetUserID, p.Data, p.UserID)
}
