package meeting

import (
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// HandleJoin moves a connection into req.RoomID, creating the room when it
// does not exist yet. A connection already in another room leaves it first.
// On error nothing has changed and the caller reports the error to the
// connection.
func (svc *meetingService) HandleJoin(id ConnID, req JoinRequest) error {
	roomID := normalizeRoomID(req.RoomID)
	name := strings.TrimSpace(req.DisplayName)
	if roomID == "" {
		return ErrRoomIDRequired
	}
	if name == "" {
		return ErrDisplayNameRequired
	}
	if svc.maxNameLen > 0 && utf8.RuneCountInString(name) > svc.maxNameLen {
		return ErrDisplayNameTooLong
	}

	conn, ok := svc.registry.Lookup(id)
	if !ok {
		return ErrUnknownConnection
	}
	if conn.RoomID == roomID {
		svc.confirmJoin(id, roomID)
		return nil
	}
	// Reject before leaving the current room. JoinRoom re-checks under the lock.
	if _, exists := svc.rooms.Room(roomID); !exists && strings.TrimSpace(req.Category) == "" {
		return ErrCategoryRequired
	}
	if conn.joined() {
		svc.leave(id)
	}

	// Participant ids are always minted here, never taken from the client.
	participantID := svc.newID()

	unlock := svc.locks.lock(roomID)
	defer unlock()

	owner := Owner{ParticipantID: participantID, DisplayName: name, ConnectionID: id}
	summary, opened, err := svc.rooms.JoinRoom(roomID, req.Category, owner, id)
	if err != nil {
		return err
	}

	role := RoleParticipant
	if summary.Owner.ParticipantID == participantID {
		role = RoleOwner
	}
	if err := svc.registry.Identify(id, participantID, name, role); err != nil {
		svc.rooms.RemoveMember(roomID, id)
		return err
	}
	if err := svc.registry.bindRoom(id, roomID, svc.now().UTC()); err != nil {
		svc.rooms.RemoveMember(roomID, id)
		return err
	}

	joiner, _ := svc.registry.Lookup(id)
	members := svc.rooms.MembersOf(roomID)
	svc.sendJoinState(joiner, roomID, members)

	n := svc.deliverAll(members, id, Event{
		Name: EventMemberJoined,
		Body: MemberJoinedBody{RoomID: roomID, Member: joiner.descriptor()},
	})

	summary.MemberCount = len(members)
	if opened {
		svc.observer.RoomOpened(summary)
	} else {
		svc.observer.RoomChanged(summary)
	}

	zap.L().Info("meeting.join",
		zap.String("conn", string(id)),
		zap.String("room", roomID),
		zap.String("participant", participantID),
		zap.String("role", string(role)),
		zap.Bool("opened", opened),
		zap.Int("notified", n),
	)
	return nil
}

// HandleLeave is the explicit leave-room path. The connection record stays
// registered so the client can join again.
func (svc *meetingService) HandleLeave(id ConnID) error {
	roomID, left := svc.leave(id)
	if left {
		svc.deliver(id, Event{Name: EventLeftRoom, Body: LeftRoomBody{RoomID: roomID}})
	}
	return nil
}

// HandleDisconnect is the transport-level path: leave, then forget the
// connection. Safe to call after HandleLeave.
func (svc *meetingService) HandleDisconnect(id ConnID) {
	svc.leave(id)
	if _, ok := svc.registry.Remove(id); ok {
		zap.L().Debug("meeting.disconnect", zap.String("conn", string(id)))
	}
}

// leave removes id from its room and notifies the remaining members.
// It reports false when the connection was not in a room.
func (svc *meetingService) leave(id ConnID) (string, bool) {
	conn, ok := svc.registry.Lookup(id)
	if !ok || !conn.joined() {
		return "", false
	}
	roomID := conn.RoomID

	unlock := svc.locks.lock(roomID)
	defer unlock()

	// A concurrent path may have moved the connection before we got the lock.
	conn, ok = svc.memberOf(id, roomID)
	if !ok {
		return "", false
	}

	summary, _ := svc.rooms.Room(roomID)
	emptied := svc.rooms.RemoveMember(roomID, id)
	svc.registry.unbindRoom(id)

	if emptied {
		summary.MemberCount = 0
		svc.observer.RoomClosed(summary, svc.now().UTC())
	} else {
		remaining := svc.rooms.MembersOf(roomID)
		svc.deliverAll(remaining, id, Event{
			Name: EventMemberLeft,
			Body: MemberLeftBody{
				RoomID:        roomID,
				ParticipantID: conn.ParticipantID,
				ConnectionID:  id,
				DisplayName:   conn.DisplayName,
			},
		})
		summary.MemberCount = len(remaining)
		svc.observer.RoomChanged(summary)
	}

	zap.L().Info("meeting.leave",
		zap.String("conn", string(id)),
		zap.String("room", roomID),
		zap.Bool("room_closed", emptied),
	)
	return roomID, true
}

// confirmJoin re-sends the join state to a connection that asked to join
// the room it is already in.
func (svc *meetingService) confirmJoin(id ConnID, roomID string) {
	unlock := svc.locks.lock(roomID)
	defer unlock()

	conn, ok := svc.memberOf(id, roomID)
	if !ok {
		return
	}
	svc.sendJoinState(conn, roomID, svc.rooms.MembersOf(roomID))
}

func (svc *meetingService) sendJoinState(joiner Connection, roomID string, members []ConnID) {
	summary, _ := svc.rooms.Room(roomID)
	svc.deliver(joiner.ID, Event{
		Name: EventJoinedRoom,
		Body: JoinedRoomBody{
			RoomID:        roomID,
			Category:      summary.Category,
			ParticipantID: joiner.ParticipantID,
			DisplayName:   joiner.DisplayName,
			ConnectionID:  joiner.ID,
			Role:          joiner.Role,
			Owner:         summary.Owner,
		},
	})

	others := make([]MemberDescriptor, 0, len(members))
	for _, m := range members {
		if m == joiner.ID {
			continue
		}
		if c, ok := svc.registry.Lookup(m); ok {
			others = append(others, c.descriptor())
		}
	}
	svc.deliver(joiner.ID, Event{
		Name: EventCurrentMembers,
		Body: CurrentMembersBody{RoomID: roomID, Members: others},
	})
}
