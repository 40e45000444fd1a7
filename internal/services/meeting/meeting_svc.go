package meeting

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type IMeetingService interface {
	Register(id ConnID, out Outbox)
	HandleJoin(id ConnID, req JoinRequest) error
	HandleLeave(id ConnID) error
	HandleDisconnect(id ConnID)

	RelayToTarget(event string, sender, target ConnID, roomID string, payload any) error
	BroadcastToRoom(event string, sender ConnID, roomID string, payload any) error
	ToggleMedia(sender ConnID, roomID string, kind MediaKind, enabled bool) error
	Chat(sender ConnID, roomID, text string) error

	ListRooms() []RoomSummary
	Room(roomID string) (RoomSummary, bool)
	ConnectionCount() int
}

type meetingService struct {
	registry *Registry
	rooms    *Directory
	locks    *roomLocks
	observer RoomObserver

	maxNameLen int
	now        func() time.Time
	newID      func() string
}

var _ IMeetingService = (*meetingService)(nil)

type Option func(*meetingService)

// WithObserver attaches a room lifecycle observer.
func WithObserver(o RoomObserver) Option {
	return func(svc *meetingService) {
		if o != nil {
			svc.observer = o
		}
	}
}

// WithMaxDisplayName caps display names, counted in runes. Zero disables the cap.
func WithMaxDisplayName(n int) Option {
	return func(svc *meetingService) { svc.maxNameLen = n }
}

func withClock(now func() time.Time) Option {
	return func(svc *meetingService) { svc.now = now }
}

func withIDs(newID func() string) Option {
	return func(svc *meetingService) { svc.newID = newID }
}

func NewMeetingService(reg *Registry, dir *Directory, opts ...Option) IMeetingService {
	svc := &meetingService{
		registry: reg,
		rooms:    dir,
		locks:    newRoomLocks(),
		observer: noopObserver{},
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (svc *meetingService) Register(id ConnID, out Outbox) {
	svc.registry.Register(id, out)
}

func (svc *meetingService) ListRooms() []RoomSummary { return svc.rooms.ListRooms() }

func (svc *meetingService) Room(roomID string) (RoomSummary, bool) { return svc.rooms.Room(roomID) }

func (svc *meetingService) ConnectionCount() int { return svc.registry.Count() }

// deliver queues ev for id. Callers hold the room lock so that every member
// sees events of one room in commit order.
func (svc *meetingService) deliver(id ConnID, ev Event) {
	out, ok := svc.registry.outbox(id)
	if !ok {
		return
	}
	if !out.Send(ev) {
		zap.L().Warn("meeting.deliver_dropped",
			zap.String("conn", string(id)),
			zap.String("event", ev.Name),
		)
	}
}

func (svc *meetingService) deliverAll(ids []ConnID, except ConnID, ev Event) int {
	n := 0
	for _, id := range ids {
		if id == except {
			continue
		}
		svc.deliver(id, ev)
		n++
	}
	return n
}

// memberOf reports the registry record of id when it is currently joined to roomID.
func (svc *meetingService) memberOf(id ConnID, roomID string) (Connection, bool) {
	c, ok := svc.registry.Lookup(id)
	if !ok || c.RoomID != roomID {
		return Connection{}, false
	}
	return c, true
}

// normalizeRoomID is applied to every room id a client sends, so that join
// and signaling agree on the same key.
func normalizeRoomID(roomID string) string { return strings.TrimSpace(roomID) }
