package orch

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/workmesh/collab/internal/app"
	"github.com/workmesh/collab/internal/core"
	"github.com/workmesh/collab/internal/domain"
	"github.com/workmesh/collab/internal/presence"
	"github.com/workmesh/collab/internal/store"
)

// fakeSender captures outbound frames for assertions.
type fakeSender struct {
	mu     sync.Mutex
	frames []core.Frame
}

func (s *fakeSender) TrySend(f core.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make(core.Frame, len(f))
	copy(cp, f)
	s.frames = append(s.frames, cp)
	return nil
}

func (s *fakeSender) Close() {}

type capturedEvent struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

func (s *fakeSender) events(t *testing.T) []capturedEvent {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]capturedEvent, 0, len(s.frames))
	for _, f := range s.frames {
		var ev capturedEvent
		require.NoError(t, json.Unmarshal(f, &ev))
		out = append(out, ev)
	}
	return out
}

// named returns the payloads of every captured event with the name.
func (s *fakeSender) named(t *testing.T, name string) []json.RawMessage {
	t.Helper()
	var out []json.RawMessage
	for _, ev := range s.events(t) {
		if ev.Event == name {
			out = append(out, ev.Payload)
		}
	}
	return out
}

func (s *fakeSender) count(t *testing.T, name string) int {
	t.Helper()
	return len(s.named(t, name))
}

func decodePayload[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var p T
	require.NoError(t, json.Unmarshal(raw, &p))
	return p
}

// newTestOrch seeds doc1 (version 1, creator userA, collaborator userB)
// and meeting m1 for team t1 with a capacity ceiling of 2.
func newTestOrch(t *testing.T) (*Orchestrator, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	st.SeedDocument(store.Document{
		ID: "doc1", Title: "Roadmap", Content: "hello", Version: 1,
		CreatorID: "userA", Collaborators: []domain.UserID{"userB"},
	})
	st.SeedMeeting(store.Meeting{ID: "m1", TeamID: "t1", Title: "standup"})

	tiers := store.NewStaticTierPolicy(map[string]int{"free": 2}, "free")
	o := New(app.NewRegistry(), app.NewRoster(), presence.NewMemoryStore(), st, tiers, store.LogEgress{})
	return o, st
}

func connect(t *testing.T, o *Orchestrator, id core.ConnID, user, team string) *fakeSender {
	t.Helper()
	ident, err := domain.NewIdentity(user, team)
	require.NoError(t, err)
	s := &fakeSender{}
	o.Registry.Register(id, ident, s)
	return s
}
