// Package gateway authenticates handshakes before any handler runs.
package gateway

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/workmesh/collab/internal/core"
	"github.com/workmesh/collab/internal/domain"
)

// Handshake is the identity a client declares when connecting.
type Handshake struct {
	UserID string
	TeamID string
	Token  string
}

// FromRequest reads the handshake from the upgrade request query.
func FromRequest(r *http.Request) Handshake {
	q := r.URL.Query()
	return Handshake{
		UserID: q.Get("userId"),
		TeamID: q.Get("teamId"),
		Token:  q.Get("token"),
	}
}

type tokenClaims struct {
	Team string `json:"team"`
	jwt.RegisteredClaims
}

// Authenticator validates declared identities. With an empty secret the
// declared identity is trusted (session issuance lives outside this
// core); with a secret set, the token must be an HMAC JWT whose claims
// match the declared identity.
type Authenticator struct {
	secret []byte
}

func New(secret string) *Authenticator {
	var key []byte
	if secret != "" {
		key = []byte(secret)
	}
	return &Authenticator{secret: key}
}

// Authenticate returns the connection's identity or an
// AuthenticationRequired/ValidationError domain error.
func (a *Authenticator) Authenticate(h Handshake) (domain.Identity, error) {
	if h.UserID == "" || h.TeamID == "" {
		return domain.Identity{}, core.AuthenticationRequired("userId and teamId are required")
	}
	ident, err := domain.NewIdentity(h.UserID, h.TeamID)
	if err != nil {
		return domain.Identity{}, core.Validation(err.Error())
	}

	if len(a.secret) == 0 {
		return ident, nil
	}
	if h.Token == "" {
		return domain.Identity{}, core.AuthenticationRequired("token is required")
	}

	claims := &tokenClaims{}
	tok, err := jwt.ParseWithClaims(h.Token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	})
	if err != nil || !tok.Valid {
		return domain.Identity{}, core.AuthenticationRequired("invalid token")
	}
	if claims.Subject != h.UserID || claims.Team != h.TeamID {
		return domain.Identity{}, core.AuthenticationRequired("token identity mismatch")
	}
	return ident, nil
}

// Token mints a handshake token for the identity; used by tests and
// provisioning tooling.
func (a *Authenticator) Token(ident domain.Identity, ttl time.Duration) (string, error) {
	claims := tokenClaims{
		Team: string(ident.TeamID),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   string(ident.UserID),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}
