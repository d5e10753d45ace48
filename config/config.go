package config

import (
	"os"
	"time"
)

type Config struct {
	API          APIConfig
	Realtime     RealtimeConfig
	Database     DatabaseConfig
	Sync         SyncConfig
	Notification NotificationConfig
	Attachment   AttachmentConfig
	Logger       LoggerConfig
	Debug        DebugConfig
}

type APIConfig struct {
	BaseURL string
	AppID   string
	Token   string
	Timeout time.Duration
}

type RealtimeConfig struct {
	URL           string
	PingInterval  time.Duration
	ReconnectWait time.Duration
}

type DatabaseConfig struct {
	Path string
}

type SyncConfig struct {
	Interval time.Duration
}

type NotificationConfig struct {
	Enabled             bool
	OnlyWhenOutsideRoom bool // suppress alerts for the room the user is viewing
	EnableMention       bool
}

type AttachmentConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	CacheDir  string
}

type LoggerConfig struct {
	Directory  string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// DebugConfig controls the local status HTTP server.
type DebugConfig struct {
	Enabled bool
	Port    string
	Env     string
}

func Load() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: envOr("PIGEON_API_URL", "https://api.pigeon.chat"),
			AppID:   envOr("PIGEON_APP_ID", ""),
			Token:   envOr("PIGEON_TOKEN", ""),
			Timeout: 30 * time.Second,
		},
		Realtime: RealtimeConfig{
			URL:           envOr("PIGEON_REALTIME_URL", "wss://realtime.pigeon.chat/ws"),
			PingInterval:  30 * time.Second,
			ReconnectWait: 5 * time.Second,
		},
		Database: DatabaseConfig{
			Path: envOr("PIGEON_DB_PATH", "pigeon.db"),
		},
		Sync: SyncConfig{
			Interval: 30 * time.Second,
		},
		Notification: NotificationConfig{
			Enabled:             true,
			OnlyWhenOutsideRoom: true,
			EnableMention:       true,
		},
		Attachment: AttachmentConfig{
			CloudName: envOr("PIGEON_CLOUDINARY_NAME", ""),
			APIKey:    envOr("PIGEON_CLOUDINARY_KEY", ""),
			APISecret: envOr("PIGEON_CLOUDINARY_SECRET", ""),
			CacheDir:  envOr("PIGEON_CACHE_DIR", "attachments"),
		},
		Logger: LoggerConfig{
			Directory:  "logs",
			MaxSize:    20,
			MaxBackups: 5,
			MaxAge:     14,
			Compress:   true,
		},
		Debug: DebugConfig{
			Enabled: true,
			Port:    envOr("PIGEON_DEBUG_PORT", "8099"),
			Env:     envOr("PIGEON_ENV", "development"),
		},
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
