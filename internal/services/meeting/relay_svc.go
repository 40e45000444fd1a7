package meeting

import (
	"go.uber.org/zap"
)

// RelayToTarget forwards payload from sender to target. Both must currently
// be members of roomID; otherwise ErrNotRoomMember is returned and nothing
// is sent. The payload is never inspected.
func (svc *meetingService) RelayToTarget(event string, sender, target ConnID, roomID string, payload any) error {
	roomID = normalizeRoomID(roomID)
	unlock := svc.locks.lock(roomID)
	defer unlock()

	from, ok := svc.memberOf(sender, roomID)
	if !ok {
		return ErrNotRoomMember
	}
	if _, ok := svc.memberOf(target, roomID); !ok {
		return ErrNotRoomMember
	}

	svc.deliver(target, Event{
		Name: event,
		Body: RelayedBody{From: from.sender(), RoomID: roomID, Payload: payload},
	})
	zap.L().Debug("meeting.relay",
		zap.String("event", event),
		zap.String("from", string(sender)),
		zap.String("to", string(target)),
		zap.String("room", roomID),
	)
	return nil
}

// BroadcastToRoom forwards payload from sender to every other member of roomID.
func (svc *meetingService) BroadcastToRoom(event string, sender ConnID, roomID string, payload any) error {
	roomID = normalizeRoomID(roomID)
	unlock := svc.locks.lock(roomID)
	defer unlock()

	from, ok := svc.memberOf(sender, roomID)
	if !ok {
		return ErrNotRoomMember
	}
	svc.broadcastLocked(event, from, roomID, payload)
	return nil
}

// ToggleMedia stores the sender's new media state and tells the room.
func (svc *meetingService) ToggleMedia(sender ConnID, roomID string, kind MediaKind, enabled bool) error {
	event := EventUserAudioChanged
	switch kind {
	case MediaAudio:
	case MediaVideo:
		event = EventUserVideoChanged
	default:
		return ErrUnknownMediaKind
	}

	roomID = normalizeRoomID(roomID)
	unlock := svc.locks.lock(roomID)
	defer unlock()

	from, ok := svc.memberOf(sender, roomID)
	if !ok {
		return ErrNotRoomMember
	}
	if err := svc.registry.SetMedia(sender, kind, enabled); err != nil {
		return err
	}
	svc.broadcastLocked(event, from, roomID, MediaState{Kind: kind, Enabled: enabled})
	return nil
}

func (svc *meetingService) Chat(sender ConnID, roomID, text string) error {
	roomID = normalizeRoomID(roomID)
	unlock := svc.locks.lock(roomID)
	defer unlock()

	from, ok := svc.memberOf(sender, roomID)
	if !ok {
		return ErrNotRoomMember
	}
	svc.broadcastLocked(EventChatMessage, from, roomID, ChatPayload{
		Text:   text,
		SentAt: svc.now().UTC(),
	})
	return nil
}

func (svc *meetingService) broadcastLocked(event string, from Connection, roomID string, payload any) {
	n := svc.deliverAll(svc.rooms.MembersOf(roomID), from.ID, Event{
		Name: event,
		Body: RelayedBody{From: from.sender(), RoomID: roomID, Payload: payload},
	})
	zap.L().Debug("meeting.broadcast",
		zap.String("event", event),
		zap.String("from", string(from.ID)),
		zap.String("room", roomID),
		zap.Int("recipients", n),
	)
}
