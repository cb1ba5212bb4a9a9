package app

import (
	"sort"
	"sync"

	"github.com/workmesh/collab/internal/domain"
)

// Roster is the live participant set per meeting, keyed by user so a
// rejoin from a new connection upserts instead of double-counting
// against the capacity ceiling.
type Roster struct {
	mu        sync.RWMutex
	byMeeting map[string]map[domain.UserID]*domain.Participant
}

func NewRoster() *Roster {
	return &Roster{byMeeting: make(map[string]map[domain.UserID]*domain.Participant)}
}

func (t *Roster) Size(meetingID string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byMeeting[meetingID])
}

// Add upserts the participant for (meetingId, userId).
func (t *Roster) Add(p *domain.Participant) {
	t.mu.Lock()
	defer t.mu.Unlock()
	byUser, ok := t.byMeeting[p.MeetingID]
	if !ok {
		byUser = make(map[domain.UserID]*domain.Participant)
		t.byMeeting[p.MeetingID] = byUser
	}
	cp := *p
	byUser[p.UserID] = &cp
}

func (t *Roster) Get(meetingID string, userID domain.UserID) (domain.Participant, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if p, ok := t.byMeeting[meetingID][userID]; ok {
		return *p, true
	}
	return domain.Participant{}, false
}

// Snapshot returns the roster ordered by join time.
func (t *Roster) Snapshot(meetingID string) []domain.Participant {
	t.mu.RLock()
	defer t.mu.RUnlock()
	byUser := t.byMeeting[meetingID]
	out := make([]domain.Participant, 0, len(byUser))
	for _, p := range byUser {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out
}

func (t *Roster) SetAudio(meetingID string, userID domain.UserID, active bool) bool {
	return t.set(meetingID, userID, func(p *domain.Participant) { p.AudioActive = active })
}

func (t *Roster) SetVideo(meetingID string, userID domain.UserID, active bool) bool {
	return t.set(meetingID, userID, func(p *domain.Participant) { p.VideoActive = active })
}

func (t *Roster) SetScreenShare(meetingID string, userID domain.UserID, active bool) bool {
	return t.set(meetingID, userID, func(p *domain.Participant) { p.ScreenSharing = active })
}

func (t *Roster) set(meetingID string, userID domain.UserID, apply func(*domain.Participant)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.byMeeting[meetingID][userID]
	if !ok {
		return false
	}
	apply(p)
	return true
}

// RemoveConn drops the user's entry only when it still belongs to the
// given connection; a user who rejoined from another connection keeps
// their fresh entry.
func (t *Roster) RemoveConn(meetingID string, userID domain.UserID, connectionID string) (domain.Participant, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	byUser, ok := t.byMeeting[meetingID]
	if !ok {
		return domain.Participant{}, false
	}
	p, ok := byUser[userID]
	if !ok || p.ConnectionID != connectionID {
		return domain.Participant{}, false
	}
	delete(byUser, userID)
	if len(byUser) == 0 {
		delete(t.byMeeting, meetingID)
	}
	return *p, true
}
