package config

import "time"

// RelayConfig is the root configuration for a relay instance.
type RelayConfig struct {
	Instance    InstanceConfig    `yaml:"instance"`
	Server      ServerConfig      `yaml:"server"`
	Connections ConnectionsConfig `yaml:"connections"`
	Broadcast   BroadcastConfig   `yaml:"broadcast"`
	Bridge      BridgeConfig      `yaml:"bridge"`
	Database    DBConfig          `yaml:"database"`
	Journal     JournalConfig     `yaml:"journal"`
	Logging     LoggingConfig     `yaml:"logging"`
	Metrics     MetricsConfig     `yaml:"metrics"`
}

// InstanceConfig identifies this relay.
type InstanceConfig struct {
	ID string `yaml:"id"`
}

// ServerConfig holds the browser-facing HTTP/WebSocket listener settings.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	AllowedOrigins  []string      `yaml:"allowed_origins"` // Empty = any origin
	ReadBufferSize  int           `yaml:"read_buffer_size"`
	WriteBufferSize int           `yaml:"write_buffer_size"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// ConnectionsConfig holds per-connection and registry settings.
type ConnectionsConfig struct {
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"` // Registry sweep frequency
	PingInterval      time.Duration `yaml:"ping_interval"`
	PongTimeout       time.Duration `yaml:"pong_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	MaxMessageSize    int64         `yaml:"max_message_size"`
	OutboxSize        int           `yaml:"outbox_size"` // Initial outbox capacity, grows on demand
}

// BroadcastConfig holds broadcaster settings.
type BroadcastConfig struct {
	FilterBySubscription bool `yaml:"filter_by_subscription"`
}

// BridgeConfig holds producer bridge settings.
type BridgeConfig struct {
	Driver                string `yaml:"driver"` // "nats" or "local"
	NATSURL               string `yaml:"nats_url"`
	SubjectPrefix         string `yaml:"subject_prefix"`
	SkipPayloadValidation bool   `yaml:"skip_payload_validation"`
	AllowUnknownTopics    bool   `yaml:"allow_unknown_topics"`
}

// DBConfig holds the optional journal database connection.
// The journal is disabled when Host is empty.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// Enabled reports whether a database is configured.
func (db DBConfig) Enabled() bool {
	return db.Host != ""
}

// JournalConfig holds batch writer settings for the journal.
type JournalConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level      string `yaml:"level"`  // debug, info, warn, error
	Format     string `yaml:"format"` // text or json
	File       string `yaml:"file"`   // Empty = stdout
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// MetricsConfig holds Prometheus exposition settings.
type MetricsConfig struct {
	Path string `yaml:"path"`
}
