package ws

import (
	"encoding/json"

	"meetingrelay/internal/services/meeting"
)

// Envelope wraps every inbound WS frame.
type Envelope struct {
	Event string          `json:"event"`          // e.g. "join-room"
	Body  json.RawMessage `json:"body,omitempty"` // arbitrary JSON object
}

// outFrame is the outbound counterpart of Envelope; bodies are marshalled once
// per recipient by clientConn.Send.
type outFrame struct {
	Event string `json:"event"`
	Body  any    `json:"body,omitempty"`
}

const (
	EventJoinRoom     = "join-room"
	EventLeaveRoom    = "leave-room"
	EventOffer        = meeting.EventOffer
	EventAnswer       = meeting.EventAnswer
	EventICECandidate = meeting.EventICECandidate
	EventToggleAudio  = "toggle-audio"
	EventToggleVideo  = "toggle-video"
	EventChatMessage  = meeting.EventChatMessage
	EventPing         = "ping"

	EventConnected = "connected"
	EventPong      = "pong"
	EventError     = "error"
)

// ──────────────────────────── Request / Response DTOs ─────────────────────────

// JoinRoomRequest is the body for "join-room". Field checks are left to the
// meeting service so that each failure gets its own error code.
type JoinRoomRequest struct {
	RoomID          string `json:"roomId"`
	UserName        string `json:"userName"`
	ProductCategory string `json:"productCategory"`
}

// SignalRequest is the body for "offer" and "answer".
type SignalRequest struct {
	Payload            json.RawMessage `json:"payload"            validate:"required"`
	TargetConnectionID string          `json:"targetConnectionId" validate:"required"`
	RoomID             string          `json:"roomId"             validate:"required"`
}

// CandidateRequest is the body for "ice-candidate".
type CandidateRequest struct {
	Candidate          json.RawMessage `json:"candidate"          validate:"required"`
	TargetConnectionID string          `json:"targetConnectionId" validate:"required"`
	RoomID             string          `json:"roomId"             validate:"required"`
}

// ToggleRequest is the body for "toggle-audio" and "toggle-video".
type ToggleRequest struct {
	Enabled *bool  `json:"enabled" validate:"required"`
	RoomID  string `json:"roomId"  validate:"required"`
}

// ChatRequest is the body for "chat-message". DisplayName is accepted for
// compatibility; the registered name is what peers see.
type ChatRequest struct {
	Text        string `json:"text"   validate:"required,max=4000"`
	RoomID      string `json:"roomId" validate:"required"`
	DisplayName string `json:"displayName,omitempty"`
}

// Empty body for events without fields.
type EmptyBody struct{}

type ConnectedBody struct {
	ConnectionID meeting.ConnID `json:"connectionId"`
}

type PongBody struct {
	ServerTime int64 `json:"serverTime"`
}

// ErrorBody is returned for failures.
type ErrorBody struct {
	Error   string `json:"error"`
	Request string `json:"request,omitempty"`
}
