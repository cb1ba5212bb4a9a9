package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/workmesh/collab/internal/domain"
)

// SQLiteStore implements Store on modernc.org/sqlite. The schema is
// created at open.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// WAL for concurrent readers alongside the CAS writer.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	log.Info().Str("module", "store.sqlite").Str("path", path).Msg("sqlite store initialized")
	return s, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS documents (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			content    TEXT NOT NULL DEFAULT '',
			version    INTEGER NOT NULL DEFAULT 1,
			creator_id TEXT NOT NULL,
			updated_by TEXT,
			updated_at DATETIME
		);

		CREATE TABLE IF NOT EXISTS document_collaborators (
			document_id TEXT NOT NULL,
			user_id     TEXT NOT NULL,
			PRIMARY KEY (document_id, user_id),
			FOREIGN KEY (document_id) REFERENCES documents(id)
		);

		CREATE TABLE IF NOT EXISTS meetings (
			id      TEXT PRIMARY KEY,
			team_id TEXT NOT NULL,
			title   TEXT NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_meetings_team ON meetings(team_id);

		CREATE TABLE IF NOT EXISTS meeting_participants (
			meeting_id    TEXT NOT NULL,
			user_id       TEXT NOT NULL,
			connection_id TEXT NOT NULL,
			joined_at     DATETIME NOT NULL,
			left_at       DATETIME,
			FOREIGN KEY (meeting_id) REFERENCES meetings(id)
		);

		CREATE INDEX IF NOT EXISTS idx_participants_meeting
			ON meeting_participants(meeting_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (*Document, error) {
	doc := &Document{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, title, content, version, creator_id FROM documents WHERE id = ?", id,
	).Scan(&doc.ID, &doc.Title, &doc.Content, &doc.Version, &doc.CreatorID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying document: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id FROM document_collaborators WHERE document_id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("querying collaborators: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var uid domain.UserID
		if err := rows.Scan(&uid); err != nil {
			return nil, fmt.Errorf("scanning collaborator: %w", err)
		}
		doc.Collaborators = append(doc.Collaborators, uid)
	}
	return doc, rows.Err()
}

func (s *SQLiteStore) CASUpdateDocument(ctx context.Context, id string, expectedVersion int64, newContent string, updatedBy domain.UserID) (*CASResult, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents
		   SET content = ?, version = version + 1, updated_by = ?, updated_at = ?
		 WHERE id = ? AND version = ?`,
		newContent, updatedBy, time.Now().UTC(), id, expectedVersion)
	if err != nil {
		return nil, fmt.Errorf("cas update: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("cas rows affected: %w", err)
	}
	if n == 1 {
		return &CASResult{OK: true, NewVersion: expectedVersion + 1}, nil
	}

	// Lost the race or unknown id; re-read the authoritative row.
	var version int64
	var content string
	err = s.db.QueryRowContext(ctx,
		"SELECT version, content FROM documents WHERE id = ?", id,
	).Scan(&version, &content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("cas re-read: %w", err)
	}
	return &CASResult{CurrentVersion: version, CurrentContent: content}, nil
}

func (s *SQLiteStore) GetMeeting(ctx context.Context, id string, teamID domain.TeamID) (*Meeting, error) {
	m := &Meeting{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, team_id, title FROM meetings WHERE id = ? AND team_id = ?", id, teamID,
	).Scan(&m.ID, &m.TeamID, &m.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying meeting: %w", err)
	}
	return m, nil
}

func (s *SQLiteStore) RecordParticipant(ctx context.Context, p *domain.Participant) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meeting_participants (meeting_id, user_id, connection_id, joined_at)
		 VALUES (?, ?, ?, ?)`,
		p.MeetingID, p.UserID, p.ConnectionID, p.JoinedAt)
	if err != nil {
		return fmt.Errorf("recording participant: %w", err)
	}
	return nil
}

func (s *SQLiteStore) MarkParticipantLeft(ctx context.Context, meetingID, connectionID string, leftAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE meeting_participants SET left_at = ?
		 WHERE meeting_id = ? AND connection_id = ? AND left_at IS NULL`,
		leftAt, meetingID, connectionID)
	if err != nil {
		return fmt.Errorf("marking participant left: %w", err)
	}
	return nil
}

// ParticipantLog returns the audit trail for a meeting, departed
// entries included.
func (s *SQLiteStore) ParticipantLog(ctx context.Context, meetingID string) ([]domain.Participant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT meeting_id, user_id, connection_id, joined_at, left_at
		   FROM meeting_participants WHERE meeting_id = ? ORDER BY joined_at`, meetingID)
	if err != nil {
		return nil, fmt.Errorf("querying participants: %w", err)
	}
	defer rows.Close()
	var out []domain.Participant
	for rows.Next() {
		var p domain.Participant
		var leftAt sql.NullTime
		if err := rows.Scan(&p.MeetingID, &p.UserID, &p.ConnectionID, &p.JoinedAt, &leftAt); err != nil {
			return nil, fmt.Errorf("scanning participant: %w", err)
		}
		if leftAt.Valid {
			t := leftAt.Time
			p.LeftAt = &t
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// SeedDocument is used by dev bootstrap and tests.
func (s *SQLiteStore) SeedDocument(ctx context.Context, doc Document) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO documents (id, title, content, version, creator_id)
		 VALUES (?, ?, ?, ?, ?)`,
		doc.ID, doc.Title, doc.Content, doc.Version, doc.CreatorID)
	if err != nil {
		return fmt.Errorf("seeding document: %w", err)
	}
	for _, uid := range doc.Collaborators {
		if _, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO document_collaborators (document_id, user_id) VALUES (?, ?)`,
			doc.ID, uid); err != nil {
			return fmt.Errorf("seeding collaborator: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) SeedMeeting(ctx context.Context, m Meeting) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO meetings (id, team_id, title) VALUES (?, ?, ?)`,
		m.ID, m.TeamID, m.Title)
	if err != nil {
		return fmt.Errorf("seeding meeting: %w", err)
	}
	return nil
}
