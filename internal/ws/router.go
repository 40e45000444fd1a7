package ws

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/go-playground/validator/v10"

	"meetingrelay/internal/services/meeting"
)

var (
	errUnknownEvent = errors.New("unknown_event")
	errInvalidBody  = errors.New("invalid_body")
	errBadFrame     = errors.New("bad_frame")
)

// ConnContext is what a handler knows about the caller.
type ConnContext struct {
	ID   meeting.ConnID
	Conn *clientConn
}

// internal (untyped) handler signature.
type rawHandler func(c *ConnContext, body json.RawMessage) error

// Router keeps a map[event]handler, à la gin.Engine.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]rawHandler
	validate *validator.Validate
}

func NewRouter() *Router {
	return &Router{
		handlers: make(map[string]rawHandler),
		validate: validator.New(),
	}
}

// Register binds an event to a strongly typed handler. Bodies are decoded and
// validated before h runs; either failure is reported as errInvalidBody.
func Register[Req any](
	r *Router,
	event string,
	h func(c *ConnContext, req Req) error,
) {
	if event == "" {
		panic("ws router: empty event")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[event] = func(c *ConnContext, body json.RawMessage) error {
		var req Req
		if len(body) > 0 {
			if err := json.Unmarshal(body, &req); err != nil {
				return errInvalidBody
			}
		}
		if err := r.validate.Struct(req); err != nil {
			var invalid *validator.InvalidValidationError
			if !errors.As(err, &invalid) {
				return errInvalidBody
			}
		}
		return h(c, req)
	}
}

// dispatch is called by the server's reader loop.
func (r *Router) dispatch(c *ConnContext, env Envelope) error {
	r.mu.RLock()
	h, ok := r.handlers[env.Event]
	r.mu.RUnlock()
	if !ok {
		return errUnknownEvent
	}
	return h(c, env.Body)
}
