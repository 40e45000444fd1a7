package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"meetingrelay/internal/services/meeting"
)

// Options tunes the gateway transport.
type Options struct {
	ReadLimit      int64
	SendBuffer     int
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration // must be < PongWait
	AllowedOrigins []string      // empty allows any origin
}

func DefaultOptions() Options {
	return Options{
		ReadLimit:  64 << 10,
		SendBuffer: 64,
		WriteWait:  10 * time.Second,
		PongWait:   60 * time.Second,
		PingPeriod: 54 * time.Second,
	}
}

type WsServer struct {
	router     *Router
	meetingSvc meeting.IMeetingService
	upgrader   websocket.Upgrader
	opts       Options
	newID      func() string
}

func NewWsServer(meetingSvc meeting.IMeetingService, opts Options) *WsServer {
	srv := &WsServer{
		router:     NewRouter(),
		meetingSvc: meetingSvc,
		opts:       opts,
		newID:      uuid.NewString,
	}
	srv.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     srv.checkOrigin,
	}
	srv.registerHandlers() // all WS endpoints configured here
	return srv
}

// ---------------------------------------------------------------------------
//  Public: Gin entry-point
// ---------------------------------------------------------------------------

func (s *WsServer) Handle(ginCtx *gin.Context) {
	rawConn, err := s.upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		zap.L().Warn("ws.accept", zap.Error(err))
		return
	}

	id := meeting.ConnID(s.newID())
	conn := newClientConn(id, rawConn, s.opts)
	s.meetingSvc.Register(id, conn)
	conn.Send(meeting.Event{Name: EventConnected, Body: ConnectedBody{ConnectionID: id}})
	zap.L().Debug("ws.connected", zap.String("conn", string(id)))

	go conn.writePump()
	go s.reader(conn)
}

// ---------------------------------------------------------------------------
//  Private helpers
// ---------------------------------------------------------------------------

func (s *WsServer) checkOrigin(r *http.Request) bool {
	if len(s.opts.AllowedOrigins) == 0 {
		return true
	}
	return slices.Contains(s.opts.AllowedOrigins, r.Header.Get("Origin"))
}

func (s *WsServer) registerHandlers() {
	Register(s.router, EventJoinRoom, func(cc *ConnContext, req JoinRoomRequest) error {
		return s.meetingSvc.HandleJoin(cc.ID, meeting.JoinRequest{
			RoomID:      req.RoomID,
			DisplayName: req.UserName,
			Category:    req.ProductCategory,
		})
	})

	Register(s.router, EventLeaveRoom, func(cc *ConnContext, _ EmptyBody) error {
		return s.meetingSvc.HandleLeave(cc.ID)
	})

	relay := func(event string) func(cc *ConnContext, req SignalRequest) error {
		return func(cc *ConnContext, req SignalRequest) error {
			return s.meetingSvc.RelayToTarget(event, cc.ID, meeting.ConnID(req.TargetConnectionID), req.RoomID, req.Payload)
		}
	}
	Register(s.router, EventOffer, relay(EventOffer))
	Register(s.router, EventAnswer, relay(EventAnswer))

	Register(s.router, EventICECandidate, func(cc *ConnContext, req CandidateRequest) error {
		return s.meetingSvc.RelayToTarget(EventICECandidate, cc.ID, meeting.ConnID(req.TargetConnectionID), req.RoomID, req.Candidate)
	})

	toggle := func(kind meeting.MediaKind) func(cc *ConnContext, req ToggleRequest) error {
		return func(cc *ConnContext, req ToggleRequest) error {
			return s.meetingSvc.ToggleMedia(cc.ID, req.RoomID, kind, *req.Enabled)
		}
	}
	Register(s.router, EventToggleAudio, toggle(meeting.MediaAudio))
	Register(s.router, EventToggleVideo, toggle(meeting.MediaVideo))

	Register(s.router, EventChatMessage, func(cc *ConnContext, req ChatRequest) error {
		return s.meetingSvc.Chat(cc.ID, req.RoomID, req.Text)
	})

	Register(s.router, EventPing, func(cc *ConnContext, _ EmptyBody) error {
		cc.Conn.Send(meeting.Event{Name: EventPong, Body: PongBody{ServerTime: time.Now().UnixMilli()}})
		return nil
	})
}

// reader owns the connection lifecycle: when it returns the connection is
// gone for good and the meeting service is told exactly once.
func (s *WsServer) reader(conn *clientConn) {
	defer func() {
		s.meetingSvc.HandleDisconnect(conn.id)
		conn.close()
		zap.L().Debug("ws.disconnected", zap.String("conn", string(conn.id)))
	}()

	raw := conn.rawConn
	raw.SetReadLimit(s.opts.ReadLimit)
	_ = raw.SetReadDeadline(time.Now().Add(s.opts.PongWait))
	raw.SetPongHandler(func(string) error {
		return raw.SetReadDeadline(time.Now().Add(s.opts.PongWait))
	})

	cc := &ConnContext{ID: conn.id, Conn: conn}

	for {
		_, data, err := raw.ReadMessage()
		if err != nil {
			return // client closed or errored
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
			s.replyError(conn, "", errBadFrame)
			continue
		}

		if err := s.router.dispatch(cc, env); err != nil {
			if errors.Is(err, meeting.ErrNotRoomMember) {
				zap.L().Debug("ws.relay_dropped",
					zap.String("conn", string(conn.id)),
					zap.String("event", env.Event),
				)
				continue
			}
			s.replyError(conn, env.Event, err)
		}
	}
}

// replyError sends {"event":"error","body":{"error":<code>,"request":<event>}}.
func (s *WsServer) replyError(conn *clientConn, request string, err error) {
	zap.L().Debug("ws.request_failed",
		zap.String("conn", string(conn.id)),
		zap.String("request", request),
		zap.Error(err),
	)
	conn.Send(meeting.Event{Name: EventError, Body: ErrorBody{Error: err.Error(), Request: request}})
}
