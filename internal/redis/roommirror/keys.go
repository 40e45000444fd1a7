package roommirror

import (
	"strconv"

	"meetingrelay/internal/services/meeting"
)

const (
	HashPrefix    = "room:"
	ActiveSet     = "rooms:active"
	EventsChannel = "rooms:events"
	Stream        = "rooms_stream"
	StreamMaxLen  = 10000
)

func RoomKey(roomID string) string { return HashPrefix + roomID }

// RoomFields flattens a summary into HSET field/value pairs. Values are
// strings so that readers see exactly what was written.
func RoomFields(room meeting.RoomSummary) []any {
	return []any{
		"category", room.Category,
		"created_at", strconv.FormatInt(room.CreatedAt.Unix(), 10),
		"owner_id", room.Owner.ParticipantID,
		"owner_name", room.Owner.DisplayName,
		"member_count", strconv.Itoa(room.MemberCount),
	}
}
