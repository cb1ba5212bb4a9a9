package orch

import (
	"context"
	"time"

	"github.com/workmesh/collab/internal/core"
	"github.com/workmesh/collab/internal/domain"
)

// Channel fan-out: drive, mail, and team rooms are plain pub/sub with no
// per-room state beyond membership.

type driveActivity struct {
	DriveID   string        `json:"driveId"`
	FileID    string        `json:"fileId"`
	FileName  string        `json:"fileName,omitempty"`
	Action    string        `json:"action"`
	UserID    domain.UserID `json:"userId"`
	Timestamp time.Time     `json:"timestamp"`
}

type mailEvent struct {
	MailID    string          `json:"mailId"`
	TeamID    domain.TeamID   `json:"teamId,omitempty"`
	From      domain.UserID   `json:"from,omitempty"`
	To        []domain.UserID `json:"to,omitempty"`
	Subject   string          `json:"subject,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

type teamEvent struct {
	TeamID    domain.TeamID `json:"teamId"`
	UserID    domain.UserID `json:"userId"`
	Detail    any           `json:"detail,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

func (o *Orchestrator) JoinDrive(connID core.ConnID, driveID string, claimed domain.UserID) error {
	if _, err := o.requireIdentity(connID, claimed); err != nil {
		return err
	}
	if driveID == "" {
		return core.Validation("driveId is required")
	}
	o.Registry.Join(connID, domain.NewRoomKey(domain.RoomDrive, driveID))
	return nil
}

func (o *Orchestrator) FileUpdated(ctx context.Context, connID core.ConnID, driveID, fileID, fileName, action string, claimed domain.UserID) error {
	ident, err := o.requireIdentity(connID, claimed)
	if err != nil {
		return err
	}
	if driveID == "" || fileID == "" {
		return core.Validation("driveId and fileId are required")
	}
	ev := driveActivity{
		DriveID:   driveID,
		FileID:    fileID,
		FileName:  fileName,
		Action:    action,
		UserID:    ident.UserID,
		Timestamp: o.now().UTC(),
	}
	o.broadcast(domain.NewRoomKey(domain.RoomDrive, driveID), "drive-activity", ev, connID)
	return nil
}

// JoinMail subscribes the connection to its team's mail channel and to
// the caller's private per-recipient channel, so delivery does not
// require recipients to share a room with the sender.
func (o *Orchestrator) JoinMail(connID core.ConnID, claimed domain.UserID) error {
	ident, err := o.requireIdentity(connID, claimed)
	if err != nil {
		return err
	}
	o.Registry.Join(connID, domain.NewRoomKey(domain.RoomMail, string(ident.TeamID)))
	o.Registry.Join(connID, domain.NewRoomKey(domain.RoomMail, string(ident.UserID)))
	return nil
}

func (o *Orchestrator) NewMail(ctx context.Context, connID core.ConnID, mailID, subject string, to []domain.UserID, claimed domain.UserID) error {
	ident, err := o.requireIdentity(connID, claimed)
	if err != nil {
		return err
	}
	if mailID == "" {
		return core.Validation("mailId is required")
	}
	ev := mailEvent{
		MailID:    mailID,
		TeamID:    ident.TeamID,
		From:      ident.UserID,
		To:        to,
		Subject:   subject,
		Timestamp: o.now().UTC(),
	}
	o.broadcast(domain.NewRoomKey(domain.RoomMail, string(ident.TeamID)), "new-mail", ev, connID)
	for _, recipient := range to {
		o.broadcast(domain.NewRoomKey(domain.RoomMail, string(recipient)), "new-mail", ev, connID)
	}
	o.Egress.Notify(ctx, "new-mail", ev)
	return nil
}

// MailRead fans out to the reader's own channel so their other devices
// mark the message read.
func (o *Orchestrator) MailRead(ctx context.Context, connID core.ConnID, mailID string, claimed domain.UserID) error {
	ident, err := o.requireIdentity(connID, claimed)
	if err != nil {
		return err
	}
	if mailID == "" {
		return core.Validation("mailId is required")
	}
	ev := mailEvent{MailID: mailID, From: ident.UserID, Timestamp: o.now().UTC()}
	o.broadcast(domain.NewRoomKey(domain.RoomMail, string(ident.UserID)), "mail-read", ev, connID)
	o.Egress.Notify(ctx, "mail-read", ev)
	return nil
}

func (o *Orchestrator) JoinTeam(connID core.ConnID, teamID domain.TeamID, claimed domain.UserID) error {
	ident, err := o.requireIdentity(connID, claimed)
	if err != nil {
		return err
	}
	if teamID != "" && teamID != ident.TeamID {
		return core.AuthorizationDenied("cannot subscribe to another team's channel")
	}
	o.Registry.Join(connID, domain.NewRoomKey(domain.RoomTeam, string(ident.TeamID)))
	return nil
}

func (o *Orchestrator) TeamInvite(ctx context.Context, connID core.ConnID, detail any, claimed domain.UserID) error {
	return o.teamFanout(ctx, connID, "team-invite", detail, claimed, true)
}

func (o *Orchestrator) TeamMemberUpdated(ctx context.Context, connID core.ConnID, detail any, claimed domain.UserID) error {
	return o.teamFanout(ctx, connID, "team-member-updated", detail, claimed, true)
}

// TeamSettingsChanged includes the actor in the fan-out: every member,
// the actor included, must see the same confirmed settings.
func (o *Orchestrator) TeamSettingsChanged(ctx context.Context, connID core.ConnID, detail any, claimed domain.UserID) error {
	return o.teamFanout(ctx, connID, "team-settings-changed", detail, claimed, false)
}

func (o *Orchestrator) teamFanout(ctx context.Context, connID core.ConnID, event string, detail any, claimed domain.UserID, excludeSender bool) error {
	ident, err := o.requireIdentity(connID, claimed)
	if err != nil {
		return err
	}
	ev := teamEvent{
		TeamID:    ident.TeamID,
		UserID:    ident.UserID,
		Detail:    detail,
		Timestamp: o.now().UTC(),
	}
	exclude := connID
	if !excludeSender {
		exclude = ""
	}
	o.broadcast(domain.NewRoomKey(domain.RoomTeam, string(ident.TeamID)), event, ev, exclude)
	o.Egress.Notify(ctx, event, ev)
	return nil
}
