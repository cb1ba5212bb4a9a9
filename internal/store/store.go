// Package store defines the persistence collaborator contracts the
// collaboration core depends on, with sqlite and in-memory backings.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/workmesh/collab/internal/domain"
)

var ErrNotFound = errors.New("not found")

// Document is the authoritative snapshot held by persistence. Version is
// the sole arbiter of update acceptance.
type Document struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Content       string          `json:"content"`
	Version       int64           `json:"version"`
	CreatorID     domain.UserID   `json:"creatorId"`
	Collaborators []domain.UserID `json:"collaborators"`
}

// Authorized reports whether the user may open the document.
func (d *Document) Authorized(userID domain.UserID) bool {
	if d.CreatorID == userID {
		return true
	}
	for _, id := range d.Collaborators {
		if id == userID {
			return true
		}
	}
	return false
}

// CASResult is the outcome of a compare-and-swap write. On conflict the
// authoritative row is returned so the client can rebase.
type CASResult struct {
	OK             bool
	NewVersion     int64
	CurrentVersion int64
	CurrentContent string
}

type Meeting struct {
	ID     string        `json:"id"`
	TeamID domain.TeamID `json:"teamId"`
	Title  string        `json:"title"`
}

type DocumentStore interface {
	GetDocument(ctx context.Context, id string) (*Document, error)
	// CASUpdateDocument writes newContent at expectedVersion+1 iff the
	// stored version still equals expectedVersion.
	CASUpdateDocument(ctx context.Context, id string, expectedVersion int64, newContent string, updatedBy domain.UserID) (*CASResult, error)
}

type MeetingStore interface {
	// GetMeeting is scoped by team; a meeting of another team is NotFound.
	GetMeeting(ctx context.Context, id string, teamID domain.TeamID) (*Meeting, error)
	RecordParticipant(ctx context.Context, p *domain.Participant) error
	MarkParticipantLeft(ctx context.Context, meetingID, connectionID string, leftAt time.Time) error
}

type Store interface {
	DocumentStore
	MeetingStore
}

// TierPolicy supplies capacity limits derived from a team's subscription.
// Consulted on every join, never cached across a meeting's lifetime.
type TierPolicy interface {
	MaxMeetingParticipants(ctx context.Context, teamID domain.TeamID) (int, error)
}

// Egress is fire-and-forget delivery toward out-of-core notification and
// durability systems. Implementations must not block the caller on failure.
type Egress interface {
	Notify(ctx context.Context, event string, payload any)
}
