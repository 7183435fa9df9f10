package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultInstanceID        = "viz-relay"
	DefaultHost              = "0.0.0.0"
	DefaultPort              = 8080
	DefaultReadBufferSize    = 4096
	DefaultWriteBufferSize   = 4096
	DefaultShutdownTimeout   = 10 * time.Second
	DefaultHeartbeatInterval = 5 * time.Second
	DefaultPingInterval      = 15 * time.Second
	DefaultPongTimeout       = 30 * time.Second
	DefaultWriteTimeout      = 10 * time.Second
	DefaultMaxMessageSize    = 64 * 1024
	DefaultOutboxSize        = 64
	DefaultBridgeDriver      = "nats"
	DefaultNATSURL           = "nats://127.0.0.1:4222"
	DefaultSubjectPrefix     = "felicia"
	DefaultDBPort            = 5432
	DefaultDBSSLMode         = "prefer"
	DefaultMaxConns          = 4
	DefaultMinConns          = 1
	DefaultBatchSize         = 500
	DefaultFlushInterval     = 1 * time.Second
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"
	DefaultLogMaxSizeMB      = 100
	DefaultLogMaxBackups     = 5
	DefaultLogMaxAgeDays     = 14
	DefaultMetricsPath       = "/metrics"
)

func (c *RelayConfig) applyDefaults() {
	if c.Instance.ID == "" {
		c.Instance.ID = DefaultInstanceID
	}

	// Server defaults
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.ReadBufferSize == 0 {
		c.Server.ReadBufferSize = DefaultReadBufferSize
	}
	if c.Server.WriteBufferSize == 0 {
		c.Server.WriteBufferSize = DefaultWriteBufferSize
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// Connections defaults
	if c.Connections.HeartbeatInterval == 0 {
		c.Connections.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if c.Connections.PingInterval == 0 {
		c.Connections.PingInterval = DefaultPingInterval
	}
	if c.Connections.PongTimeout == 0 {
		c.Connections.PongTimeout = DefaultPongTimeout
	}
	if c.Connections.WriteTimeout == 0 {
		c.Connections.WriteTimeout = DefaultWriteTimeout
	}
	if c.Connections.MaxMessageSize == 0 {
		c.Connections.MaxMessageSize = DefaultMaxMessageSize
	}
	if c.Connections.OutboxSize == 0 {
		c.Connections.OutboxSize = DefaultOutboxSize
	}

	// Bridge defaults
	if c.Bridge.Driver == "" {
		c.Bridge.Driver = DefaultBridgeDriver
	}
	if c.Bridge.Driver == "nats" && c.Bridge.NATSURL == "" {
		c.Bridge.NATSURL = DefaultNATSURL
	}
	if c.Bridge.SubjectPrefix == "" {
		c.Bridge.SubjectPrefix = DefaultSubjectPrefix
	}

	// Database defaults only matter when the journal is enabled
	if c.Database.Enabled() {
		applyDBDefaults(&c.Database)
	}

	// Journal defaults
	if c.Journal.BatchSize == 0 {
		c.Journal.BatchSize = DefaultBatchSize
	}
	if c.Journal.FlushInterval == 0 {
		c.Journal.FlushInterval = DefaultFlushInterval
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
	if c.Logging.File != "" {
		if c.Logging.MaxSizeMB == 0 {
			c.Logging.MaxSizeMB = DefaultLogMaxSizeMB
		}
		if c.Logging.MaxBackups == 0 {
			c.Logging.MaxBackups = DefaultLogMaxBackups
		}
		if c.Logging.MaxAgeDays == 0 {
			c.Logging.MaxAgeDays = DefaultLogMaxAgeDays
		}
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
