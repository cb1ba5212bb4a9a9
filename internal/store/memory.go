package store

import (
	"context"
	"sync"
	"time"

	"github.com/workmesh/collab/internal/domain"
)

// MemoryStore is a threadsafe in-process Store used by tests and dev mode.
type MemoryStore struct {
	mu           sync.Mutex
	documents    map[string]*Document
	meetings     map[string]*Meeting
	participants []*domain.Participant
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		documents: make(map[string]*Document),
		meetings:  make(map[string]*Meeting),
	}
}

// SeedDocument installs or replaces a document snapshot.
func (s *MemoryStore) SeedDocument(doc Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = &doc
}

func (s *MemoryStore) SeedMeeting(m Meeting) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meetings[m.ID] = &m
}

func (s *MemoryStore) GetDocument(ctx context.Context, id string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *doc
	cp.Collaborators = append([]domain.UserID(nil), doc.Collaborators...)
	return &cp, nil
}

func (s *MemoryStore) CASUpdateDocument(ctx context.Context, id string, expectedVersion int64, newContent string, updatedBy domain.UserID) (*CASResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, ErrNotFound
	}
	if doc.Version != expectedVersion {
		return &CASResult{CurrentVersion: doc.Version, CurrentContent: doc.Content}, nil
	}
	doc.Content = newContent
	doc.Version++
	return &CASResult{OK: true, NewVersion: doc.Version}, nil
}

func (s *MemoryStore) GetMeeting(ctx context.Context, id string, teamID domain.TeamID) (*Meeting, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.meetings[id]
	if !ok || m.TeamID != teamID {
		return nil, ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *MemoryStore) RecordParticipant(ctx context.Context, p *domain.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.participants = append(s.participants, &cp)
	return nil
}

func (s *MemoryStore) MarkParticipantLeft(ctx context.Context, meetingID, connectionID string, leftAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.participants {
		if p.MeetingID == meetingID && p.ConnectionID == connectionID && p.LeftAt == nil {
			t := leftAt
			p.LeftAt = &t
		}
	}
	return nil
}

// ParticipantLog returns the audit trail, departed entries included.
func (s *MemoryStore) ParticipantLog(meetingID string) []domain.Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Participant, 0, len(s.participants))
	for _, p := range s.participants {
		if p.MeetingID == meetingID {
			out = append(out, *p)
		}
	}
	return out
}
