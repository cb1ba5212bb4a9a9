package signal

import (
	"context"
	"encoding/json"

	"github.com/workmesh/collab/internal/core"
	"github.com/workmesh/collab/internal/domain"
)

func (ctl *Controller) handleJoinDrive(connID core.ConnID, raw json.RawMessage) error {
	p, err := decode[struct {
		DriveID string        `json:"driveId"`
		UserID  domain.UserID `json:"userId"`
	}](raw)
	if err != nil {
		return err
	}
	return ctl.Orch.JoinDrive(connID, p.DriveID, p.UserID)
}

func (ctl *Controller) handleFileUpdated(ctx context.Context, connID core.ConnID, raw json.RawMessage) error {
	p, err := decode[struct {
		DriveID  string        `json:"driveId"`
		FileID   string        `json:"fileId"`
		FileName string        `json:"fileName"`
		Action   string        `json:"action"`
		UserID   domain.UserID `json:"userId"`
	}](raw)
	if err != nil {
		return err
	}
	return ctl.Orch.FileUpdated(ctx, connID, p.DriveID, p.FileID, p.FileName, p.Action, p.UserID)
}

func (ctl *Controller) handleJoinMail(connID core.ConnID, raw json.RawMessage) error {
	p, err := decode[struct {
		UserID domain.UserID `json:"userId"`
	}](raw)
	if err != nil {
		return err
	}
	return ctl.Orch.JoinMail(connID, p.UserID)
}

func (ctl *Controller) handleNewMail(ctx context.Context, connID core.ConnID, raw json.RawMessage) error {
	p, err := decode[struct {
		MailID  string          `json:"mailId"`
		Subject string          `json:"subject"`
		To      []domain.UserID `json:"to"`
		UserID  domain.UserID   `json:"userId"`
	}](raw)
	if err != nil {
		return err
	}
	return ctl.Orch.NewMail(ctx, connID, p.MailID, p.Subject, p.To, p.UserID)
}

func (ctl *Controller) handleMailRead(ctx context.Context, connID core.ConnID, raw json.RawMessage) error {
	p, err := decode[struct {
		MailID string        `json:"mailId"`
		UserID domain.UserID `json:"userId"`
	}](raw)
	if err != nil {
		return err
	}
	return ctl.Orch.MailRead(ctx, connID, p.MailID, p.UserID)
}

func (ctl *Controller) handleJoinTeam(connID core.ConnID, raw json.RawMessage) error {
	p, err := decode[struct {
		TeamID domain.TeamID `json:"teamId"`
		UserID domain.UserID `json:"userId"`
	}](raw)
	if err != nil {
		return err
	}
	return ctl.Orch.JoinTeam(connID, p.TeamID, p.UserID)
}

type teamDetail struct {
	UserID domain.UserID   `json:"userId"`
	Detail json.RawMessage `json:"detail"`
}

func (ctl *Controller) handleTeamInvite(ctx context.Context, connID core.ConnID, raw json.RawMessage) error {
	p, err := decode[teamDetail](raw)
	if err != nil {
		return err
	}
	return ctl.Orch.TeamInvite(ctx, connID, p.Detail, p.UserID)
}

func (ctl *Controller) handleTeamMemberUpdated(ctx context.Context, connID core.ConnID, raw json.RawMessage) error {
	p, err := decode[teamDetail](raw)
	if err != nil {
		return err
	}
	return ctl.Orch.TeamMemberUpdated(ctx, connID, p.Detail, p.UserID)
}

func (ctl *Controller) handleTeamSettingsChanged(ctx context.Context, connID core.ConnID, raw json.RawMessage) error {
	p, err := decode[teamDetail](raw)
	if err != nil {
		return err
	}
	return ctl.Orch.TeamSettingsChanged(ctx, connID, p.Detail, p.UserID)
}
