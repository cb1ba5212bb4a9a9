package store

import (
	"context"

	"github.com/rs/zerolog/log"
)

// LogEgress is the default notification egress: it records the event and
// drops it. Real deployments plug a push/email pipeline in behind the
// same interface.
type LogEgress struct{}

func (LogEgress) Notify(ctx context.Context, event string, payload any) {
	log.Debug().Str("module", "store.egress").Str("event", event).Interface("payload", payload).Msg("egress notify")
}
