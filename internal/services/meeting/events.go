package meeting

import "time"

// Outbound event names.
const (
	EventJoinedRoom       = "joined-room"
	EventCurrentMembers   = "current-members"
	EventMemberJoined     = "member-joined"
	EventMemberLeft       = "member-left"
	EventLeftRoom         = "left-room"
	EventOffer            = "offer"
	EventAnswer           = "answer"
	EventICECandidate     = "ice-candidate"
	EventUserAudioChanged = "user-audio-changed"
	EventUserVideoChanged = "user-video-changed"
	EventChatMessage      = "chat-message"
)

type MemberDescriptor struct {
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
	ConnectionID  ConnID `json:"connectionId"`
	Role          Role   `json:"role"`
	AudioEnabled  bool   `json:"audioEnabled"`
	VideoEnabled  bool   `json:"videoEnabled"`
}

type JoinedRoomBody struct {
	RoomID        string `json:"roomId"`
	Category      string `json:"category"`
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
	ConnectionID  ConnID `json:"connectionId"`
	Role          Role   `json:"role"`
	Owner         Owner  `json:"owner"`
}

type CurrentMembersBody struct {
	RoomID  string             `json:"roomId"`
	Members []MemberDescriptor `json:"members"`
}

type MemberJoinedBody struct {
	RoomID string           `json:"roomId"`
	Member MemberDescriptor `json:"member"`
}

type MemberLeftBody struct {
	RoomID        string `json:"roomId"`
	ParticipantID string `json:"participantId"`
	ConnectionID  ConnID `json:"connectionId"`
	DisplayName   string `json:"displayName"`
}

type LeftRoomBody struct {
	RoomID string `json:"roomId"`
}

// Sender is the provenance stamped on every relayed message.
type Sender struct {
	ConnectionID  ConnID `json:"connectionId"`
	ParticipantID string `json:"participantId"`
	DisplayName   string `json:"displayName"`
}

// RelayedBody wraps an opaque payload forwarded between members.
type RelayedBody struct {
	From    Sender `json:"from"`
	RoomID  string `json:"roomId"`
	Payload any    `json:"payload,omitempty"`
}

type MediaState struct {
	Kind    MediaKind `json:"kind"`
	Enabled bool      `json:"enabled"`
}

type ChatPayload struct {
	Text   string    `json:"text"`
	SentAt time.Time `json:"sentAt"`
}
