package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	HttpServerPort uint16 `env:"HTTP_SERVER_PORT" envDefault:"8085" validate:"min=1000,max=65535"`
	HttpAccessLog  bool   `env:"HTTP_ACCESS_LOG"  envDefault:"false"`

	WsReadLimit      int64         `env:"WS_READ_LIMIT"      envDefault:"65536" validate:"min=512"`
	WsSendBuffer     int           `env:"WS_SEND_BUFFER"     envDefault:"64"    validate:"min=1,max=4096"`
	WsWriteWait      time.Duration `env:"WS_WRITE_WAIT"      envDefault:"10s"   validate:"gt=0"`
	WsPongWait       time.Duration `env:"WS_PONG_WAIT"       envDefault:"60s"   validate:"gt=0,gtfield=WsPingPeriod"`
	WsPingPeriod     time.Duration `env:"WS_PING_PERIOD"     envDefault:"54s"   validate:"gt=0"`
	WsAllowedOrigins []string      `env:"WS_ALLOWED_ORIGINS" envSeparator:","`

	SeedRoomID       string `env:"SEED_ROOM_ID"       envDefault:"fashion-1"`
	SeedRoomCategory string `env:"SEED_ROOM_CATEGORY" envDefault:"fashion" validate:"required_with=SeedRoomID"`
	MaxDisplayName   int    `env:"MAX_DISPLAY_NAME"   envDefault:"64"      validate:"min=0"`
	FeedBuffer       int    `env:"FEED_BUFFER"        envDefault:"256"     validate:"min=1"`

	RedisEnabled     bool          `env:"REDIS_ENABLED"      envDefault:"false"`
	RedisHost        string        `env:"REDIS_HOST"         envDefault:"localhost"`
	RedisPort        uint16        `env:"REDIS_PORT"         envDefault:"6379" validate:"min=1000,max=65535"`
	RedisPassword    string        `env:"REDIS_PASSWORD"`
	RedisDB          int           `env:"REDIS_DB"           envDefault:"0"    validate:"min=0,max=15"`
	RoomSyncInterval time.Duration `env:"ROOM_SYNC_INTERVAL" envDefault:"10s"  validate:"gt=0"`
	RoomKeyTTL       time.Duration `env:"ROOM_KEY_TTL"       envDefault:"60s"  validate:"gtfield=RoomSyncInterval"`

	PostgresEnabled  bool   `env:"POSTGRES_ENABLED"  envDefault:"false"`
	PostgresHost     string `env:"POSTGRES_HOST"     envDefault:"localhost"`
	PostgresPort     string `env:"POSTGRES_PORT"     envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER"     envDefault:"meeting_user"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"meeting_password"`
	PostgresDb       string `env:"POSTGRES_DB"       envDefault:"meeting_db"`
}

func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	err := godotenv.Load(".env")
	if err != nil {
		zap.L().Debug(".env file not found", zap.Error(err))
	}

	cfg := &Config{}
	if err = env.Parse(cfg); err != nil {
		zap.L().Error("config_load_failed", zap.Error(err))
		return nil, err
	}

	validate := validator.New()
	err = validate.Struct(cfg)
	if err != nil {
		zap.L().Error("config_validation_failed", zap.Error(err))
		return nil, err
	}
	return cfg, nil
}
