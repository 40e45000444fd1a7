package roommirror

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"meetingrelay/internal/roomfeed"
)

// Mirror copies room lifecycle events into Redis: a TTL'd hash per live room,
// the rooms:active index, a pub/sub notification and a stream entry that the
// history writer tails.
type Mirror struct {
	rdc *redis.Client
	ttl time.Duration
}

var _ roomfeed.Sink = (*Mirror)(nil)

func New(rdc *redis.Client, ttl time.Duration) *Mirror {
	return &Mirror{rdc: rdc, ttl: ttl}
}

func (m *Mirror) Handle(ctx context.Context, ev roomfeed.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	room := ev.Room
	key := RoomKey(room.RoomID)

	_, err = m.rdc.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if ev.Kind == roomfeed.KindClosed {
			pipe.Del(ctx, key)
			pipe.SRem(ctx, ActiveSet, room.RoomID)
		} else {
			pipe.HSet(ctx, key, RoomFields(room)...)
			pipe.Expire(ctx, key, m.ttl)
			pipe.SAdd(ctx, ActiveSet, room.RoomID)
		}
		pipe.Publish(ctx, EventsChannel, payload)
		pipe.XAdd(ctx, streamArgs(ev))
		return nil
	})
	if err != nil {
		zap.L().Warn("roommirror.write", zap.String("room", room.RoomID), zap.Error(err))
		return err
	}
	return nil
}

func streamArgs(ev roomfeed.Event) *redis.XAddArgs {
	return &redis.XAddArgs{
		Stream: Stream,
		MaxLen: StreamMaxLen,
		Approx: true,
		Values: []any{
			"kind", string(ev.Kind),
			"room_id", ev.Room.RoomID,
			"category", ev.Room.Category,
			"owner_id", ev.Room.Owner.ParticipantID,
			"member_count", strconv.Itoa(ev.Room.MemberCount),
			"created_at", strconv.FormatInt(ev.Room.CreatedAt.UnixMilli(), 10),
			"at", strconv.FormatInt(ev.At.UnixMilli(), 10),
		},
	}
}
