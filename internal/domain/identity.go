// Package domain contains entity meta-data without logic.
package domain

import "errors"

const (
	MaxUserIDLen = 64
	MaxTeamIDLen = 64
)

var (
	ErrUserIDEmpty   = errors.New("userId empty")
	ErrUserIDTooLong = errors.New("userId too long")
	ErrTeamIDEmpty   = errors.New("teamId empty")
	ErrTeamIDTooLong = errors.New("teamId too long")
)

type (
	UserID string
	TeamID string
)

// Identity is the authenticated principal behind a connection.
type Identity struct {
	UserID UserID `json:"userId"`
	TeamID TeamID `json:"teamId"`
}

// NewIdentity avoids ad-hoc struct literals in adapters and keeps
// validation in one place.
func NewIdentity(userID, teamID string) (Identity, error) {
	switch {
	case userID == "":
		return Identity{}, ErrUserIDEmpty
	case len(userID) > MaxUserIDLen:
		return Identity{}, ErrUserIDTooLong
	case teamID == "":
		return Identity{}, ErrTeamIDEmpty
	case len(teamID) > MaxTeamIDLen:
		return Identity{}, ErrTeamIDTooLong
	}
	return Identity{UserID: UserID(userID), TeamID: TeamID(teamID)}, nil
}
