package domain

import "strings"

// RoomClass names the kind of entity a room is attached to.
type RoomClass string

const (
	RoomDocument RoomClass = "document"
	RoomDrive    RoomClass = "drive"
	RoomMeeting  RoomClass = "meeting"
	RoomMail     RoomClass = "mail"
	RoomTeam     RoomClass = "team"
)

// RoomKey is a "{class}:{entityId}" broadcast group name.
type RoomKey string

func NewRoomKey(class RoomClass, entityID string) RoomKey {
	return RoomKey(string(class) + ":" + entityID)
}

func (k RoomKey) Class() RoomClass {
	if i := strings.IndexByte(string(k), ':'); i >= 0 {
		return RoomClass(k[:i])
	}
	return RoomClass(k)
}

func (k RoomKey) EntityID() string {
	if i := strings.IndexByte(string(k), ':'); i >= 0 {
		return string(k[i+1:])
	}
	return ""
}
