package meeting

import (
	"slices"
	"strings"
	"sync"
	"time"
)

type room struct {
	id        string
	category  string
	createdAt time.Time
	owner     Owner
	members   []ConnID // join order
}

func (rm *room) add(id ConnID) {
	if !slices.Contains(rm.members, id) {
		rm.members = append(rm.members, id)
	}
}

func (rm *room) summary() RoomSummary {
	return RoomSummary{
		RoomID:      rm.id,
		Category:    rm.category,
		CreatedAt:   rm.createdAt,
		Owner:       rm.owner,
		MemberCount: len(rm.members),
	}
}

// Directory keeps room existence, membership and ownership. Multi-step
// sequences on one room are serialised by the caller's room lock; the
// directory mutex only guards the maps themselves.
type Directory struct {
	mu    sync.RWMutex
	rooms map[string]*room
	now   func() time.Time
}

func NewDirectory() *Directory {
	return &Directory{
		rooms: make(map[string]*room),
		now:   time.Now,
	}
}

// Seed creates an empty system-owned room. It is the only way a room can
// exist without members.
func (d *Directory) Seed(roomID, category string) RoomSummary {
	d.mu.Lock()
	defer d.mu.Unlock()
	if rm, ok := d.rooms[roomID]; ok {
		return rm.summary()
	}
	rm := &room{
		id:        roomID,
		category:  category,
		createdAt: d.now().UTC(),
		owner:     Owner{ParticipantID: SystemOwnerID, DisplayName: SystemOwnerID},
	}
	d.rooms[roomID] = rm
	return rm.summary()
}

// EnsureRoom returns the existing room or creates one owned by creator.
// A new room needs a non-blank category.
func (d *Directory) EnsureRoom(roomID, category string, creator Owner) (RoomSummary, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rm, created, err := d.ensureLocked(roomID, category, creator)
	if err != nil {
		return RoomSummary{}, false, err
	}
	return rm.summary(), created, nil
}

func (d *Directory) AddMember(roomID string, id ConnID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	rm, ok := d.rooms[roomID]
	if !ok {
		return ErrUnknownRoom
	}
	rm.add(id)
	return nil
}

// JoinRoom is EnsureRoom plus AddMember as one step, so a room created here
// is never visible without its first member. opened reports whether the
// room had no members before, which includes the first join of a seed room.
func (d *Directory) JoinRoom(roomID, category string, creator Owner, id ConnID) (RoomSummary, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	rm, _, err := d.ensureLocked(roomID, category, creator)
	if err != nil {
		return RoomSummary{}, false, err
	}
	opened := len(rm.members) == 0
	rm.add(id)
	return rm.summary(), opened, nil
}

func (d *Directory) ensureLocked(roomID, category string, creator Owner) (*room, bool, error) {
	if rm, ok := d.rooms[roomID]; ok {
		return rm, false, nil
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, false, ErrCategoryRequired
	}
	rm := &room{
		id:        roomID,
		category:  category,
		createdAt: d.now().UTC(),
		owner:     creator,
	}
	d.rooms[roomID] = rm
	return rm, true, nil
}

// RemoveMember reports whether the removal emptied (and therefore deleted)
// the room.
func (d *Directory) RemoveMember(roomID string, id ConnID) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	rm, ok := d.rooms[roomID]
	if !ok {
		return false
	}
	i := slices.Index(rm.members, id)
	if i < 0 {
		return false
	}
	rm.members = slices.Delete(rm.members, i, i+1)
	if len(rm.members) == 0 {
		delete(d.rooms, roomID)
		return true
	}
	return false
}

// MembersOf returns a copy in join order.
func (d *Directory) MembersOf(roomID string) []ConnID {
	d.mu.RLock()
	defer d.mu.RUnlock()
	rm, ok := d.rooms[roomID]
	if !ok {
		return nil
	}
	return slices.Clone(rm.members)
}

func (d *Directory) Room(roomID string) (RoomSummary, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	rm, ok := d.rooms[roomID]
	if !ok {
		return RoomSummary{}, false
	}
	return rm.summary(), true
}

func (d *Directory) ListRooms() []RoomSummary {
	d.mu.RLock()
	out := make([]RoomSummary, 0, len(d.rooms))
	for _, rm := range d.rooms {
		out = append(out, rm.summary())
	}
	d.mu.RUnlock()

	slices.SortFunc(out, func(a, b RoomSummary) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.RoomID, b.RoomID)
	})
	return out
}
