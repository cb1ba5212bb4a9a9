package domain

import "time"

// Participant is a user's live membership in a meeting. LeftAt is set,
// not deleted, on graceful leave; the live roster drops the entry.
type Participant struct {
	MeetingID     string     `json:"meetingId"`
	UserID        UserID     `json:"userId"`
	ConnectionID  string     `json:"-"`
	AudioActive   bool       `json:"audioActive"`
	VideoActive   bool       `json:"videoActive"`
	ScreenSharing bool       `json:"screenSharing"`
	JoinedAt      time.Time  `json:"joinedAt"`
	LeftAt        *time.Time `json:"leftAt,omitempty"`
}

// NewParticipant keeps construction obvious; media flags start inactive.
func NewParticipant(meetingID string, userID UserID, connectionID string, joinedAt time.Time) *Participant {
	return &Participant{
		MeetingID:    meetingID,
		UserID:       userID,
		ConnectionID: connectionID,
		JoinedAt:     joinedAt,
	}
}
