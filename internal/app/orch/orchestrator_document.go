package orch

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/workmesh/collab/internal/core"
	"github.com/workmesh/collab/internal/domain"
	"github.com/workmesh/collab/internal/store"
)

// DocumentState is the snapshot replied to a joiner.
type DocumentState struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Content       string          `json:"content"`
	Version       int64           `json:"version"`
	Collaborators []domain.UserID `json:"collaborators"`
	Cursors       []domain.Cursor `json:"cursors,omitempty"`
}

type userJoined struct {
	DocumentID string        `json:"documentId"`
	UserID     domain.UserID `json:"userId"`
	Color      string        `json:"color"`
}

type documentUpdated struct {
	DocumentID string        `json:"documentId"`
	Content    string        `json:"content"`
	Version    int64         `json:"version"`
	UpdatedBy  domain.UserID `json:"updatedBy"`
	Timestamp  time.Time     `json:"timestamp"`
}

type conflictDetected struct {
	DocumentID    string `json:"documentId"`
	ServerVersion int64  `json:"serverVersion"`
	ClientVersion int64  `json:"clientVersion"`
	ServerContent string `json:"serverContent"`
}

// JoinDocument authorizes the user against the document's collaborator
// list, joins the room, and replies with the authoritative snapshot.
func (o *Orchestrator) JoinDocument(ctx context.Context, connID core.ConnID, documentID string, claimed domain.UserID) error {
	ident, err := o.requireIdentity(connID, claimed)
	if err != nil {
		return err
	}
	if documentID == "" {
		return core.Validation("documentId is required")
	}

	doc, err := o.Store.GetDocument(ctx, documentID)
	if errors.Is(err, store.ErrNotFound) {
		return core.NotFound("document not found")
	}
	if err != nil {
		return core.Internal("loading document", err)
	}
	if !doc.Authorized(ident.UserID) {
		return core.AuthorizationDenied("not a collaborator on this document")
	}

	key := domain.NewRoomKey(domain.RoomDocument, documentID)
	o.Registry.Join(connID, key)
	o.broadcast(key, "user-joined", userJoined{
		DocumentID: documentID,
		UserID:     ident.UserID,
		Color:      domain.ColorFor(ident.UserID),
	}, connID)

	cursors, err := o.Cursors.List(ctx, documentID)
	if err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("document", documentID).Msg("listing cursors")
		cursors = nil
	}
	o.send(connID, "document-state", DocumentState{
		ID:            doc.ID,
		Title:         doc.Title,
		Content:       doc.Content,
		Version:       doc.Version,
		Collaborators: doc.Collaborators,
		Cursors:       cursors,
	})
	return nil
}

// UpdateDocument runs the compare-and-swap. The fetch-compare-write is
// one atomic unit per documentId; mismatches reply conflict-detected to
// the submitter only, an accepted write is broadcast to the whole room,
// submitter included, as the canonical confirmation.
func (o *Orchestrator) UpdateDocument(ctx context.Context, connID core.ConnID, documentID, content string, version int64, claimed domain.UserID) error {
	ident, err := o.requireIdentity(connID, claimed)
	if err != nil {
		return err
	}
	if documentID == "" {
		return core.Validation("documentId is required")
	}
	key := domain.NewRoomKey(domain.RoomDocument, documentID)
	if !o.Registry.IsMember(connID, key) {
		return core.AuthorizationDenied("join the document before editing")
	}

	unlock := o.locks.Lock(string(key))
	defer unlock()

	doc, err := o.Store.GetDocument(ctx, documentID)
	if errors.Is(err, store.ErrNotFound) {
		return core.NotFound("document not found")
	}
	if err != nil {
		return core.Internal("loading document", err)
	}

	if version != doc.Version {
		o.send(connID, "conflict-detected", conflictDetected{
			DocumentID:    documentID,
			ServerVersion: doc.Version,
			ClientVersion: version,
			ServerContent: doc.Content,
		})
		return nil
	}

	res, err := o.Store.CASUpdateDocument(ctx, documentID, version, content, ident.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return core.NotFound("document not found")
	}
	if err != nil {
		return core.Internal("writing document", err)
	}
	if !res.OK {
		o.send(connID, "conflict-detected", conflictDetected{
			DocumentID:    documentID,
			ServerVersion: res.CurrentVersion,
			ClientVersion: version,
			ServerContent: res.CurrentContent,
		})
		return nil
	}

	o.broadcast(key, "document-updated", documentUpdated{
		DocumentID: documentID,
		Content:    content,
		Version:    res.NewVersion,
		UpdatedBy:  ident.UserID,
		Timestamp:  o.now().UTC(),
	}, "")
	return nil
}

// MoveCursor upserts the caller's cursor and fans it out to everyone
// else in the document room.
func (o *Orchestrator) MoveCursor(ctx context.Context, connID core.ConnID, documentID string, position int, claimed domain.UserID) error {
	ident, err := o.requireIdentity(connID, claimed)
	if err != nil {
		return err
	}
	key := domain.NewRoomKey(domain.RoomDocument, documentID)
	if !o.Registry.IsMember(connID, key) {
		return core.AuthorizationDenied("join the document before moving a cursor")
	}

	cursor := domain.Cursor{
		DocumentID: documentID,
		UserID:     ident.UserID,
		Position:   position,
		Color:      domain.ColorFor(ident.UserID),
	}
	if err := o.Cursors.Upsert(ctx, cursor); err != nil {
		return core.Internal("saving cursor", err)
	}
	o.broadcast(key, "cursor-updated", cursor, connID)
	return nil
}
