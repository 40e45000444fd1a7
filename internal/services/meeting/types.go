package meeting

import (
	"errors"
	"time"
)

type ConnID string

type Role string

const (
	RoleOwner       Role = "owner"
	RoleParticipant Role = "participant"
)

type MediaKind string

const (
	MediaAudio MediaKind = "audio"
	MediaVideo MediaKind = "video"
)

const SystemOwnerID = "system"

var (
	ErrCategoryRequired    = errors.New("category_required")
	ErrUnknownConnection   = errors.New("unknown_connection")
	ErrNotRoomMember       = errors.New("not_room_member")
	ErrUnknownRoom         = errors.New("unknown_room")
	ErrRoomIDRequired      = errors.New("room_id_required")
	ErrDisplayNameRequired = errors.New("display_name_required")
	ErrDisplayNameTooLong  = errors.New("display_name_too_long")
	ErrUnknownMediaKind    = errors.New("unknown_media_kind")
)

// Owner describes whoever created a room.
type Owner struct {
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
	ConnectionID  ConnID `json:"connectionId,omitempty"`
}

// Connection is a snapshot of one live transport session as the registry sees it.
type Connection struct {
	ID            ConnID
	ParticipantID string
	DisplayName   string
	RoomID        string
	Role          Role
	JoinedAt      time.Time
	AudioEnabled  bool
	VideoEnabled  bool
}

func (c Connection) joined() bool { return c.RoomID != "" }

func (c Connection) descriptor() MemberDescriptor {
	return MemberDescriptor{
		ParticipantID: c.ParticipantID,
		DisplayName:   c.DisplayName,
		ConnectionID:  c.ID,
		Role:          c.Role,
		AudioEnabled:  c.AudioEnabled,
		VideoEnabled:  c.VideoEnabled,
	}
}

func (c Connection) sender() Sender {
	return Sender{
		ConnectionID:  c.ID,
		ParticipantID: c.ParticipantID,
		DisplayName:   c.DisplayName,
	}
}

// RoomSummary is the read-only reporting view of a room.
type RoomSummary struct {
	RoomID      string    `json:"roomId"`
	Category    string    `json:"category"`
	CreatedAt   time.Time `json:"createdAt"`
	Owner       Owner     `json:"owner"`
	MemberCount int       `json:"memberCount"`
}

// JoinRequest carries the client fields of a join-room message.
type JoinRequest struct {
	RoomID      string
	DisplayName string
	Category    string
}

// Event is one outbound message addressed to a single connection.
type Event struct {
	Name string
	Body any
}

// Outbox accepts events for one connection. Send must not block; it
// reports false when the event could not be queued.
type Outbox interface {
	Send(ev Event) bool
}

// RoomObserver is notified of room lifecycle changes while the room is
// still locked, so implementations must return quickly.
type RoomObserver interface {
	RoomOpened(room RoomSummary)
	RoomChanged(room RoomSummary)
	RoomClosed(room RoomSummary, at time.Time)
}

type noopObserver struct{}

func (noopObserver) RoomOpened(RoomSummary)            {}
func (noopObserver) RoomChanged(RoomSummary)           {}
func (noopObserver) RoomClosed(RoomSummary, time.Time) {}
