package roomfeed

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"meetingrelay/internal/services/meeting"
)

type Kind string

const (
	KindOpened  Kind = "opened"
	KindChanged Kind = "changed"
	KindClosed  Kind = "closed"
)

const sinkTimeout = 1500 * time.Millisecond

// Event is one room lifecycle change.
type Event struct {
	Kind Kind                `json:"kind"`
	Room meeting.RoomSummary `json:"room"`
	At   time.Time           `json:"at"`
}

// Sink consumes feed events on the feed worker goroutine.
type Sink interface {
	Handle(ctx context.Context, ev Event) error
}

// Feed turns synchronous room notifications into asynchronous sink calls.
// Notifications never block: when the buffer is full the event is dropped.
type Feed struct {
	events  chan Event
	sinks   []Sink
	now     func() time.Time
	dropped atomic.Uint64
}

var _ meeting.RoomObserver = (*Feed)(nil)

func New(buffer int, sinks ...Sink) *Feed {
	return &Feed{
		events: make(chan Event, buffer),
		sinks:  sinks,
		now:    time.Now,
	}
}

func (f *Feed) RoomOpened(room meeting.RoomSummary) {
	f.publish(Event{Kind: KindOpened, Room: room, At: f.now().UTC()})
}

func (f *Feed) RoomChanged(room meeting.RoomSummary) {
	f.publish(Event{Kind: KindChanged, Room: room, At: f.now().UTC()})
}

func (f *Feed) RoomClosed(room meeting.RoomSummary, at time.Time) {
	f.publish(Event{Kind: KindClosed, Room: room, At: at.UTC()})
}

// Dropped reports how many events were discarded because the buffer was full.
func (f *Feed) Dropped() uint64 { return f.dropped.Load() }

func (f *Feed) publish(ev Event) {
	select {
	case f.events <- ev:
	default:
		f.dropped.Add(1)
		zap.L().Warn("roomfeed.dropped",
			zap.String("room", ev.Room.RoomID),
			zap.String("kind", string(ev.Kind)),
		)
	}
}

// Run delivers events until ctx is cancelled, then flushes what is already
// buffered.
func (f *Feed) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			f.drain()
			return
		case ev := <-f.events:
			f.dispatch(ev)
		}
	}
}

func (f *Feed) drain() {
	for {
		select {
		case ev := <-f.events:
			f.dispatch(ev)
		default:
			return
		}
	}
}

func (f *Feed) dispatch(ev Event) {
	for _, s := range f.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		if err := s.Handle(ctx, ev); err != nil {
			zap.L().Error("roomfeed.sink_failed",
				zap.String("room", ev.Room.RoomID),
				zap.String("kind", string(ev.Kind)),
				zap.Error(err),
			)
		}
		cancel()
	}
}
