package store

import (
	"context"
	"sync"

	"github.com/workmesh/collab/internal/domain"
)

// StaticTierPolicy maps teams to subscription plans and plans to meeting
// capacity ceilings. Billing owns the real mapping; this implementation
// is fed from config plus whatever plan assignments the process learns.
type StaticTierPolicy struct {
	mu          sync.RWMutex
	ceilings    map[string]int
	plans       map[domain.TeamID]string
	defaultPlan string
}

func NewStaticTierPolicy(ceilings map[string]int, defaultPlan string) *StaticTierPolicy {
	cp := make(map[string]int, len(ceilings))
	for plan, n := range ceilings {
		cp[plan] = n
	}
	return &StaticTierPolicy{
		ceilings:    cp,
		plans:       make(map[domain.TeamID]string),
		defaultPlan: defaultPlan,
	}
}

// SetTeamPlan overrides a team's plan; unknown teams use the default.
func (p *StaticTierPolicy) SetTeamPlan(teamID domain.TeamID, plan string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.plans[teamID] = plan
}

func (p *StaticTierPolicy) MaxMeetingParticipants(ctx context.Context, teamID domain.TeamID) (int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	plan, ok := p.plans[teamID]
	if !ok {
		plan = p.defaultPlan
	}
	if n, ok := p.ceilings[plan]; ok {
		return n, nil
	}
	return p.ceilings[p.defaultPlan], nil
}
