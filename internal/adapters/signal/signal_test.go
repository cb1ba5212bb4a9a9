package signal

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workmesh/collab/internal/app"
	"github.com/workmesh/collab/internal/app/orch"
	"github.com/workmesh/collab/internal/core"
	"github.com/workmesh/collab/internal/domain"
	"github.com/workmesh/collab/internal/gateway"
	"github.com/workmesh/collab/internal/presence"
	"github.com/workmesh/collab/internal/store"
)

type wireFrame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewMemoryStore()
	st.SeedDocument(store.Document{
		ID: "doc1", Title: "Notes", Content: "draft", Version: 1,
		CreatorID: "u1", Collaborators: []domain.UserID{"u2"},
	})
	tiers := store.NewStaticTierPolicy(map[string]int{"free": 5}, "free")
	o := orch.New(app.NewRegistry(), app.NewRoster(), presence.NewMemoryStore(), st, tiers, store.LogEgress{})
	ctl := NewController(o, gateway.New(""), 65536, time.Minute)

	r := gin.New()
	r.GET("/api/ws", func(c *gin.Context) { ctl.Handle(context.Background(), c) })

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) wireFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var f wireFrame
	require.NoError(t, json.Unmarshal(data, &f))
	return f
}

func send(t *testing.T, conn *websocket.Conn, event, payload string) {
	t.Helper()
	frame := `{"event":"` + event + `","payload":` + payload + `}`
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(frame)))
}

func TestAuthenticatedJoinDocumentOverWire(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv, "?userId=u1&teamId=t1")

	send(t, conn, "join-document", `{"documentId":"doc1","userId":"u1"}`)

	f := readFrame(t, conn)
	require.Equal(t, "document-state", f.Event)
	state := struct {
		ID      string `json:"id"`
		Content string `json:"content"`
		Version int64  `json:"version"`
	}{}
	require.NoError(t, json.Unmarshal(f.Payload, &state))
	assert.Equal(t, "doc1", state.ID)
	assert.Equal(t, "draft", state.Content)
	assert.Equal(t, int64(1), state.Version)
}

func TestDocumentUpdateFansOutOverWire(t *testing.T) {
	srv := newTestServer(t)
	alice := dial(t, srv, "?userId=u1&teamId=t1")
	bob := dial(t, srv, "?userId=u2&teamId=t1")

	send(t, alice, "join-document", `{"documentId":"doc1","userId":"u1"}`)
	require.Equal(t, "document-state", readFrame(t, alice).Event)
	send(t, bob, "join-document", `{"documentId":"doc1","userId":"u2"}`)
	require.Equal(t, "document-state", readFrame(t, bob).Event)
	require.Equal(t, "user-joined", readFrame(t, alice).Event)

	send(t, alice, "document-update", `{"documentId":"doc1","content":"draft 2","version":1,"userId":"u1"}`)

	for _, conn := range []*websocket.Conn{alice, bob} {
		f := readFrame(t, conn)
		require.Equal(t, "document-updated", f.Event)
		up := struct {
			Content string `json:"content"`
			Version int64  `json:"version"`
		}{}
		require.NoError(t, json.Unmarshal(f.Payload, &up))
		assert.Equal(t, "draft 2", up.Content)
		assert.Equal(t, int64(2), up.Version)
	}
}

func TestUnauthenticatedConnectionGetsErrorButStaysOpen(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv, "")

	// The handshake failure itself is reported.
	f := readFrame(t, conn)
	require.Equal(t, "error", f.Event)

	// Domain events are refused, but ping still answers.
	send(t, conn, "join-document", `{"documentId":"doc1","userId":"u1"}`)
	f = readFrame(t, conn)
	require.Equal(t, "error", f.Event)
	errPayload := struct {
		Code core.Code `json:"code"`
	}{}
	require.NoError(t, json.Unmarshal(f.Payload, &errPayload))
	assert.Equal(t, core.CodeAuthenticationRequired, errPayload.Code)

	send(t, conn, "ping", `{}`)
	assert.Equal(t, "pong", readFrame(t, conn).Event)
}

func TestUnknownEventOverWire(t *testing.T) {
	srv := newTestServer(t)
	conn := dial(t, srv, "?userId=u1&teamId=t1")

	send(t, conn, "frobnicate", `{}`)
	f := readFrame(t, conn)
	require.Equal(t, "error", f.Event)
	errPayload := struct {
		Code core.Code `json:"code"`
	}{}
	require.NoError(t, json.Unmarshal(f.Payload, &errPayload))
	assert.Equal(t, core.CodeValidation, errPayload.Code)
}
