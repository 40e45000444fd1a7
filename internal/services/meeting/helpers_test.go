package meeting

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []Event
	full   bool
}

func (r *recorder) Send(ev Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return false
	}
	r.events = append(r.events, ev)
	return true
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *recorder) names() []string {
	evs := r.all()
	out := make([]string, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.Name)
	}
	return out
}

func (r *recorder) named(name string) []Event {
	var out []Event
	for _, ev := range r.all() {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

type recordingObserver struct {
	mu     sync.Mutex
	opened []RoomSummary
	change []RoomSummary
	closed []RoomSummary
}

func (o *recordingObserver) RoomOpened(rm RoomSummary) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.opened = append(o.opened, rm)
}

func (o *recordingObserver) RoomChanged(rm RoomSummary) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.change = append(o.change, rm)
}

func (o *recordingObserver) RoomClosed(rm RoomSummary, _ time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = append(o.closed, rm)
}

type fixture struct {
	svc *meetingService
	obs *recordingObserver
}

var testClock = time.Date(2025, 7, 27, 16, 5, 5, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	var seq atomic.Int64
	obs := &recordingObserver{}
	dir := NewDirectory()
	dir.now = func() time.Time { return testClock }
	svc := NewMeetingService(NewRegistry(), dir,
		WithObserver(obs),
		WithMaxDisplayName(16),
		withClock(func() time.Time { return testClock }),
		withIDs(func() string { return fmt.Sprintf("p%d", seq.Add(1)) }),
	).(*meetingService)
	return &fixture{svc: svc, obs: obs}
}

func (f *fixture) connect(id ConnID) *recorder {
	rec := &recorder{}
	f.svc.Register(id, rec)
	return rec
}

func (f *fixture) join(t *testing.T, id ConnID, roomID, name, category string) {
	t.Helper()
	require.NoError(t, f.svc.HandleJoin(id, JoinRequest{RoomID: roomID, DisplayName: name, Category: category}))
}

func (f *fixture) roomIDs() []string {
	var ids []string
	for _, rm := range f.svc.ListRooms() {
		ids = append(ids, rm.RoomID)
	}
	return ids
}

// assertConsistent checks that the registry and directory agree and that
// no room other than seeded ones is empty.
func assertConsistent(t *testing.T, svc *meetingService, seeded ...string) {
	t.Helper()
	inRoom := map[ConnID]string{}
	for _, rm := range svc.rooms.ListRooms() {
		members := svc.rooms.MembersOf(rm.RoomID)
		if len(members) == 0 {
			assert.Contains(t, seeded, rm.RoomID, "room %s has no members", rm.RoomID)
		}
		for _, m := range members {
			c, ok := svc.registry.Lookup(m)
			if assert.True(t, ok, "member %s of %s not registered", m, rm.RoomID) {
				assert.Equal(t, rm.RoomID, c.RoomID)
			}
			inRoom[m] = rm.RoomID
		}
	}

	svc.registry.mu.RLock()
	defer svc.registry.mu.RUnlock()
	for id, e := range svc.registry.conns {
		if e.conn.RoomID == "" {
			continue
		}
		assert.Equal(t, e.conn.RoomID, inRoom[id], "registry says %s is in %s", id, e.conn.RoomID)
	}
}
