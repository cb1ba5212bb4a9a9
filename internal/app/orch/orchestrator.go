// Package orch wires the registry, roster, cursor store, and external
// collaborators into the domain engines: document sync, meeting
// coordination, channel fan-out, and disconnect cleanup.
package orch

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/workmesh/collab/internal/app"
	"github.com/workmesh/collab/internal/core"
	"github.com/workmesh/collab/internal/domain"
	"github.com/workmesh/collab/internal/presence"
	"github.com/workmesh/collab/internal/store"
)

type Orchestrator struct {
	Registry *app.Registry
	Roster   *app.Roster
	Cursors  presence.CursorStore
	Store    store.Store
	Tiers    store.TierPolicy
	Egress   store.Egress

	// locks serializes check-then-act sequences per room key: the
	// document CAS and the meeting capacity check.
	locks *core.KeyedMutex
	now   func() time.Time
}

func New(reg *app.Registry, roster *app.Roster, cursors presence.CursorStore, st store.Store, tiers store.TierPolicy, egress store.Egress) *Orchestrator {
	return &Orchestrator{
		Registry: reg,
		Roster:   roster,
		Cursors:  cursors,
		Store:    st,
		Tiers:    tiers,
		Egress:   egress,
		locks:    core.NewKeyedMutex(),
		now:      time.Now,
	}
}

// envelope is the wire frame: {event, payload}.
type envelope struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

func marshalEnvelope(event string, payload any) (core.Frame, bool) {
	b, err := json.Marshal(envelope{Event: event, Payload: payload})
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("event", event).Msg("marshal envelope")
		return nil, false
	}
	return b, true
}

// send replies to a single connection.
func (o *Orchestrator) send(id core.ConnID, event string, payload any) {
	s, ok := o.Registry.Sender(id)
	if !ok {
		return
	}
	o.sendTo(s, event, payload)
}

func (o *Orchestrator) sendTo(s core.Sender, event string, payload any) {
	frame, ok := marshalEnvelope(event, payload)
	if !ok {
		return
	}
	if err := s.TrySend(frame); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("event", event).Msg("send dropped")
	}
}

// broadcast fans an event out to every member of the room, skipping
// exclude when non-empty. Marshals once for the whole room.
func (o *Orchestrator) broadcast(key domain.RoomKey, event string, payload any, exclude core.ConnID) {
	frame, ok := marshalEnvelope(event, payload)
	if !ok {
		return
	}
	sent, dropped := 0, 0
	for _, m := range o.Registry.MembersOf(key) {
		if exclude != "" && m.ConnID == exclude {
			continue
		}
		if err := m.Sender.TrySend(frame); err != nil {
			dropped++
			continue
		}
		sent++
	}
	log.Debug().Str("module", "orch").Str("room", string(key)).Str("event", event).Int("sent_to", sent).Int("dropped", dropped).Msg("broadcast result")
}

// requireIdentity resolves the connection's authenticated identity and
// rejects payloads that claim to act as someone else.
func (o *Orchestrator) requireIdentity(id core.ConnID, claimed domain.UserID) (domain.Identity, error) {
	ident, ok := o.Registry.Identity(id)
	if !ok {
		return domain.Identity{}, core.AuthenticationRequired("authenticate before sending events")
	}
	if claimed != "" && claimed != ident.UserID {
		return domain.Identity{}, core.AuthorizationDenied("event userId does not match authenticated identity")
	}
	return ident, nil
}
