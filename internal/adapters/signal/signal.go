// Package signal is the websocket adapter: it upgrades connections,
// authenticates the handshake, and dispatches inbound events into the
// orchestrator.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/workmesh/collab/internal/app/orch"
	"github.com/workmesh/collab/internal/core"
	"github.com/workmesh/collab/internal/gateway"
)

var ErrBackpressure = errors.New("backpressure")

type Controller struct {
	Orch *orch.Orchestrator
	Auth *gateway.Authenticator

	ReadLimit  int64
	PingPeriod time.Duration
}

func NewController(o *orch.Orchestrator, auth *gateway.Authenticator, readLimit int64, pingPeriod time.Duration) *Controller {
	return &Controller{
		Orch:       o,
		Auth:       auth,
		ReadLimit:  readLimit,
		PingPeriod: pingPeriod,
	}
}

// wsConn is the outbound half of one websocket; TrySend never blocks.
type wsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the request and runs the connection until transport
// loss. An unauthenticated handshake keeps the socket open but no domain
// event is dispatched until identity is present.
func (ctl *Controller) Handle(ctx context.Context, c *gin.Context) {
	hs := gateway.FromRequest(c.Request)

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	connID := core.ConnID(uuid.NewString())
	conn := &wsConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	ident, authErr := ctl.Auth.Authenticate(hs)
	authed := authErr == nil
	if authed {
		ctl.Orch.Registry.Register(connID, ident, conn)
		log.Info().Str("module", "signal").Str("conn", string(connID)).Str("user", string(ident.UserID)).Msg("connection authenticated")
	} else {
		log.Warn().Err(authErr).Str("module", "signal").Str("conn", string(connID)).Msg("unauthenticated connection")
		ctl.sendError(conn, authErr)
	}

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, connID, authed, conn)
}
