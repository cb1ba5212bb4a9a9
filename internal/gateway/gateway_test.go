package gateway

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/workmesh/collab/internal/core"
	"github.com/workmesh/collab/internal/domain"
)

func TestFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/ws?userId=u1&teamId=t1&token=abc", nil)
	hs := FromRequest(r)
	assert.Equal(t, Handshake{UserID: "u1", TeamID: "t1", Token: "abc"}, hs)
}

func TestAuthenticateMissingIdentity(t *testing.T) {
	a := New("")
	for _, hs := range []Handshake{
		{},
		{UserID: "u1"},
		{TeamID: "t1"},
	} {
		_, err := a.Authenticate(hs)
		assert.Equal(t, core.CodeAuthenticationRequired, core.CodeOf(err))
	}
}

func TestAuthenticateWithoutSecretTrustsDeclaredIdentity(t *testing.T) {
	a := New("")
	ident, err := a.Authenticate(Handshake{UserID: "u1", TeamID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, domain.UserID("u1"), ident.UserID)
	assert.Equal(t, domain.TeamID("t1"), ident.TeamID)
}

func TestAuthenticateWithSecret(t *testing.T) {
	a := New("top-secret")

	// No token at all.
	_, err := a.Authenticate(Handshake{UserID: "u1", TeamID: "t1"})
	assert.Equal(t, core.CodeAuthenticationRequired, core.CodeOf(err))

	ident, _ := domain.NewIdentity("u1", "t1")
	token, err := a.Token(ident, time.Hour)
	require.NoError(t, err)

	got, err := a.Authenticate(Handshake{UserID: "u1", TeamID: "t1", Token: token})
	require.NoError(t, err)
	assert.Equal(t, ident, got)

	// Token minted for someone else.
	_, err = a.Authenticate(Handshake{UserID: "u2", TeamID: "t1", Token: token})
	assert.Equal(t, core.CodeAuthenticationRequired, core.CodeOf(err))

	// Token signed with another key.
	other, err := New("different-secret").Token(ident, time.Hour)
	require.NoError(t, err)
	_, err = a.Authenticate(Handshake{UserID: "u1", TeamID: "t1", Token: other})
	assert.Equal(t, core.CodeAuthenticationRequired, core.CodeOf(err))
}
