package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"meetingrelay/internal/config"
	"meetingrelay/internal/database/db_client"
	"meetingrelay/internal/http/http_server"
	"meetingrelay/internal/redis/redis_client"
	"meetingrelay/internal/redis/roommirror"
	"meetingrelay/internal/roomfeed"
	"meetingrelay/internal/services/history"
	"meetingrelay/internal/services/meeting"
	"meetingrelay/internal/synchistory"
	"meetingrelay/internal/syncrooms"
	"meetingrelay/internal/ws"
)

var (
	Log, _ = zap.NewDevelopment()
)

//	@title			Meeting Relay API
//	@version		1.0
//	@description	Room reporting endpoints of the meeting signaling relay. Signaling itself runs over the /meeting/ws websocket.
//	@BasePath		/
func main() {
	defer Log.Sync()
	zap.ReplaceGlobals(Log)
	startedAt := time.Now().UTC()

	var err error
	var cfg *config.Config
	var redisClient *redis.Client
	var pgDb *sql.DB
	var historyService history.IHistoryService

	// 1. Load configuration
	cfg, err = config.LoadConfig()
	if err != nil {
		Log.Fatal("Failed to load configuration", zap.Error(err))
	}
	Log.Debug("Configuration loaded successfully", zap.Any("config", cfg))

	// 2. Context with signal handling
	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGINT, syscall.SIGTERM,
	)
	defer stop()

	// 3. Optional Redis mirror
	var sinks []roomfeed.Sink
	if cfg.RedisEnabled {
		redisClient, err = redis_client.NewRedisClient(redis_client.Options{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			Log.Fatal("Failed to create Redis client", zap.Error(err))
		}
		defer redisClient.Close()
		sinks = append(sinks, roommirror.New(redisClient, cfg.RoomKeyTTL))
		Log.Debug("Redis client created successfully")
	}

	// 4. Optional Postgres session history
	if cfg.PostgresEnabled {
		pgDb, err = db_client.Open(ctx, cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresUser, cfg.PostgresPassword, cfg.PostgresDb)
		if err != nil {
			Log.Fatal("pg-open", zap.Error(err))
		}
		defer pgDb.Close()
		if err := history.EnsureSchema(ctx, pgDb); err != nil {
			Log.Fatal("pg-schema", zap.Error(err))
		}
		historyService = history.NewHistoryService(pgDb)
	}

	// 5. Meeting service: registry + directory + lifecycle feed
	feed := roomfeed.New(cfg.FeedBuffer, sinks...)
	directory := meeting.NewDirectory()
	if cfg.SeedRoomID != "" {
		directory.Seed(cfg.SeedRoomID, cfg.SeedRoomCategory)
	}
	meetingService := meeting.NewMeetingService(meeting.NewRegistry(), directory,
		meeting.WithObserver(feed),
		meeting.WithMaxDisplayName(cfg.MaxDisplayName),
	)

	feedDone := make(chan struct{})
	go func() {
		feed.Run(ctx)
		close(feedDone)
	}()

	// 6. Background: periodic Redis reconcile and stream -> Postgres history
	if redisClient != nil {
		syncrooms.Run(ctx, redisClient, meetingService, cfg.RoomSyncInterval, cfg.RoomKeyTTL)
		if pgDb != nil {
			synchistory.Run(ctx, redisClient, pgDb, startedAt)
		}
	} else if pgDb != nil {
		Log.Warn("session history needs REDIS_ENABLED=true; nothing will be recorded")
	}

	// 7. Initialize the WS server
	wsSrv := ws.NewWsServer(meetingService, ws.Options{
		ReadLimit:      cfg.WsReadLimit,
		SendBuffer:     cfg.WsSendBuffer,
		WriteWait:      cfg.WsWriteWait,
		PongWait:       cfg.WsPongWait,
		PingPeriod:     cfg.WsPingPeriod,
		AllowedOrigins: cfg.WsAllowedOrigins,
	})

	// 8. HTTP + WS server
	httpServer := http_server.NewHttpServer(ctx, cfg.HttpServerPort, cfg.HttpAccessLog, wsSrv, meetingService, historyService)
	go func() {
		<-ctx.Done()
		_ = httpServer.Dispose()
	}()
	if err := httpServer.Start(); err != nil {
		Log.Fatal("Failed to start HTTP server", zap.Error(err))
	}

	<-feedDone
	Log.Info("shutdown complete")
}
