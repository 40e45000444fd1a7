package syncrooms

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"meetingrelay/internal/redis/roommirror"
	"meetingrelay/internal/services/meeting"
)

const pipeTimeout = 1500 * time.Millisecond

// RoomLister is the read side of the meeting service used for reconciliation.
type RoomLister interface {
	ListRooms() []meeting.RoomSummary
}

// Run rewrites every live room hash on each tick so that Redis converges on
// the in-memory directory even when feed events were dropped.
func Run(ctx context.Context, rdc *redis.Client, rooms RoomLister, interval, ttl time.Duration) {
	tk := time.NewTicker(interval)
	go func() {
		defer tk.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tk.C:
				syncOnce(ctx, rdc, rooms, ttl)
			}
		}
	}()
}

func syncOnce(ctx context.Context, rdc *redis.Client, rooms RoomLister, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, pipeTimeout)
	defer cancel()

	live := rooms.ListRooms()
	known, err := rdc.SMembers(ctx, roommirror.ActiveSet).Result()
	if err != nil {
		zap.L().Warn("syncrooms.smembers", zap.Error(err))
		return
	}
	stale := staleIDs(known, live)

	// 1. refresh live rooms and prune stale ones in one round-trip
	pipe := rdc.Pipeline()
	for _, room := range live {
		key := roommirror.RoomKey(room.RoomID)
		pipe.HSet(ctx, key, roommirror.RoomFields(room)...)
		pipe.Expire(ctx, key, ttl)
		pipe.SAdd(ctx, roommirror.ActiveSet, room.RoomID)
	}
	if len(stale) > 0 {
		members := make([]any, len(stale))
		keys := make([]string, len(stale))
		for i, id := range stale {
			members[i] = id
			keys[i] = roommirror.RoomKey(id)
		}
		pipe.SRem(ctx, roommirror.ActiveSet, members...)
		pipe.Del(ctx, keys...)
	}
	if pipe.Len() == 0 {
		return
	}

	if _, err = pipe.Exec(ctx); err != nil {
		zap.L().Error("syncrooms.pipeline", zap.Error(err))
		return
	}
	zap.L().Debug("syncrooms.synced", zap.Int("live", len(live)), zap.Int("pruned", len(stale)))
}

// staleIDs returns the entries of known that have no live room, in the
// order Redis reported them.
func staleIDs(known []string, live []meeting.RoomSummary) []string {
	alive := make(map[string]struct{}, len(live))
	for _, room := range live {
		alive[room.RoomID] = struct{}{}
	}
	var stale []string
	for _, id := range known {
		if _, ok := alive[id]; !ok {
			stale = append(stale, id)
		}
	}
	return stale
}
