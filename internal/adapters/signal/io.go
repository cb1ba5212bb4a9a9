package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/workmesh/collab/internal/core"
)

const writeWait = 5 * time.Second

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	pingPeriod := ctl.PingPeriod
	if pingPeriod <= 0 {
		pingPeriod = 54 * time.Second
	}
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, cancel context.CancelFunc, connID core.ConnID, authed bool, c *wsConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("conn", string(connID)).Msg("readPump closing")
		cancel()
		c.Close()
		// Transport loss is the only path into cleanup; the call is
		// idempotent on duplicate close signals.
		ctl.Orch.Disconnect(context.Background(), connID)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				log.Debug().Err(err).Str("module", "signal").Str("conn", string(connID)).Msg("readPump read error")
				return
			}
			ctl.dispatch(ctx, connID, authed, c, data)
		}
	}
}

// inbound is the wire frame: {event, payload}.
type inbound struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

func (ctl *Controller) dispatch(ctx context.Context, connID core.ConnID, authed bool, c *wsConn, data []byte) {
	var env inbound
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad json frame")
		ctl.sendError(c, core.Validation("malformed frame"))
		return
	}

	if env.Event == "ping" {
		ctl.handlePing(c)
		return
	}
	if !authed {
		ctl.sendError(c, core.AuthenticationRequired("userId and teamId are required"))
		return
	}

	var err error
	switch env.Event {
	case "join-document":
		err = ctl.handleJoinDocument(ctx, connID, env.Payload)
	case "document-update":
		err = ctl.handleDocumentUpdate(ctx, connID, env.Payload)
	case "cursor-move":
		err = ctl.handleCursorMove(ctx, connID, env.Payload)
	case "join-meeting":
		err = ctl.handleJoinMeeting(ctx, connID, env.Payload)
	case "leave-meeting":
		err = ctl.handleLeaveMeeting(ctx, connID, env.Payload)
	case "toggle-audio":
		err = ctl.handleToggleAudio(ctx, connID, env.Payload)
	case "toggle-video":
		err = ctl.handleToggleVideo(ctx, connID, env.Payload)
	case "screen-share":
		err = ctl.handleScreenShare(ctx, connID, env.Payload)
	case "meeting-chat":
		err = ctl.handleMeetingChat(ctx, connID, env.Payload)
	case "signal":
		err = ctl.handleSignalRelay(ctx, connID, env.Payload)
	case "join-drive":
		err = ctl.handleJoinDrive(connID, env.Payload)
	case "file-updated":
		err = ctl.handleFileUpdated(ctx, connID, env.Payload)
	case "join-mail":
		err = ctl.handleJoinMail(connID, env.Payload)
	case "new-mail":
		err = ctl.handleNewMail(ctx, connID, env.Payload)
	case "mail-read":
		err = ctl.handleMailRead(ctx, connID, env.Payload)
	case "join-team":
		err = ctl.handleJoinTeam(connID, env.Payload)
	case "team-invite":
		err = ctl.handleTeamInvite(ctx, connID, env.Payload)
	case "team-member-updated":
		err = ctl.handleTeamMemberUpdated(ctx, connID, env.Payload)
	case "team-settings-changed":
		err = ctl.handleTeamSettingsChanged(ctx, connID, env.Payload)
	default:
		log.Warn().Str("module", "signal").Str("event", env.Event).Msg("unknown event")
		err = core.Validation("unknown event")
	}

	if err != nil {
		if core.CodeOf(err) == core.CodeInternal {
			log.Error().Err(err).Str("module", "signal").Str("conn", string(connID)).Str("event", env.Event).Msg("handler failed")
		}
		ctl.sendError(c, err)
	}
}

type outbound struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

func (ctl *Controller) sendJSON(c *wsConn, event string, payload any) {
	b, err := json.Marshal(outbound{Event: event, Payload: payload})
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

// sendError reports a failure only to the originating connection; the
// client sees the taxonomy code and, for non-internal errors, the detail.
func (ctl *Controller) sendError(c *wsConn, err error) {
	ctl.sendJSON(c, "error", map[string]any{
		"code":    core.CodeOf(err),
		"message": core.ClientMessage(err),
	})
}

func decode[T any](raw json.RawMessage) (T, error) {
	var p T
	if len(raw) == 0 {
		return p, core.Validation("missing payload")
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return p, core.Validation("bad payload")
	}
	return p, nil
}
