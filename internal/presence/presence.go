// Package presence provides pluggable storage for per-document cursor
// state: an in-process map for a single instance, Redis for several.
package presence

import (
	"context"

	"github.com/workmesh/collab/internal/domain"
)

type CursorStore interface {
	Upsert(ctx context.Context, c domain.Cursor) error
	Remove(ctx context.Context, documentID string, userID domain.UserID) error
	List(ctx context.Context, documentID string) ([]domain.Cursor, error)
}
