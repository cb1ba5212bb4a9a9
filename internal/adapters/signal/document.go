package signal

import (
	"context"
	"encoding/json"

	"github.com/workmesh/collab/internal/core"
	"github.com/workmesh/collab/internal/domain"
)

func (ctl *Controller) handleJoinDocument(ctx context.Context, connID core.ConnID, raw json.RawMessage) error {
	p, err := decode[struct {
		DocumentID string        `json:"documentId"`
		UserID     domain.UserID `json:"userId"`
	}](raw)
	if err != nil {
		return err
	}
	return ctl.Orch.JoinDocument(ctx, connID, p.DocumentID, p.UserID)
}

func (ctl *Controller) handleDocumentUpdate(ctx context.Context, connID core.ConnID, raw json.RawMessage) error {
	p, err := decode[struct {
		DocumentID string        `json:"documentId"`
		Content    string        `json:"content"`
		Version    int64         `json:"version"`
		UserID     domain.UserID `json:"userId"`
	}](raw)
	if err != nil {
		return err
	}
	return ctl.Orch.UpdateDocument(ctx, connID, p.DocumentID, p.Content, p.Version, p.UserID)
}

func (ctl *Controller) handleCursorMove(ctx context.Context, connID core.ConnID, raw json.RawMessage) error {
	p, err := decode[struct {
		DocumentID string        `json:"documentId"`
		Position   int           `json:"position"`
		UserID     domain.UserID `json:"userId"`
	}](raw)
	if err != nil {
		return err
	}
	return ctl.Orch.MoveCursor(ctx, connID, p.DocumentID, p.Position, p.UserID)
}
