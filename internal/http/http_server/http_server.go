package http_server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/abrar71/swaggerfilesv2" // swagger embed files

	"meetingrelay/internal/http/roomhandler"
	"meetingrelay/internal/services/history"
	"meetingrelay/internal/ws"
)

const WsPath = "/meeting/ws"

type httpServer struct {
	listenPort uint16
	accessLog  bool
	srv        http.Server
	ln         net.Listener
	rooms      roomhandler.RoomReader
	history    history.IHistoryService
	wsSrv      *ws.WsServer
	ctx        context.Context
}

func NewHttpServer(ctx context.Context, listenPort uint16, accessLog bool, wsSrv *ws.WsServer,
	rooms roomhandler.RoomReader, hist history.IHistoryService) *httpServer {
	return &httpServer{
		listenPort: listenPort,
		accessLog:  accessLog,
		wsSrv:      wsSrv,
		rooms:      rooms,
		history:    hist,
		ctx:        ctx,
	}
}

// Engine builds the gin router with every route mounted.
func (h *httpServer) Engine() *gin.Engine {
	routerEngine := gin.New()

	// Swagger UI and API specs
	routerEngine.StaticFS("/swagger-apis", http.FS(swaggerfilesv2.FS))
	routerEngine.Static("/api-specs", "api_specs")

	if h.accessLog {
		routerEngine.Use(ginzap.Ginzap(zap.L(), time.RFC3339, true))
	}
	routerEngine.Use(ginzap.RecoveryWithZap(zap.L(), true))

	// websocket endpoint
	routerEngine.GET(WsPath, h.wsSrv.Handle)

	// REST API
	rh := roomhandler.New(h.rooms, h.history)
	rh.Register(routerEngine)

	return routerEngine
}

func (h *httpServer) Start() error {
	var err error
	listenAddr := fmt.Sprintf(":%d", h.listenPort)
	h.ln, err = net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}

	h.srv = http.Server{
		Handler: h.Engine(),
	}

	zap.L().Info("http_listen", zap.String("addr", listenAddr))
	err = h.srv.Serve(h.ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Dispose gracefully shuts the HTTP server down.
// It waits up to 10 s for in-flight requests to finish. Hijacked websocket
// connections are not tracked by Shutdown and close with the process.
func (h *httpServer) Dispose() error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(h.ctx), 10*time.Second)
	defer cancel()

	if err := h.srv.Shutdown(ctx); err != nil {
		zap.L().Error("http_dispose", zap.Error(err))
		return err // e.g. active conns didn't finish in time
	}
	return nil
}
