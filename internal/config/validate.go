package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *RelayConfig) Validate() error {
	if c.Instance.ID == "" {
		return errors.New("instance.id is required")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("server.shutdown_timeout must be > 0")
	}
	if c.Server.ReadBufferSize < 0 {
		return fmt.Errorf("server.read_buffer_size must be >= 0, got %d", c.Server.ReadBufferSize)
	}
	if c.Server.WriteBufferSize < 0 {
		return fmt.Errorf("server.write_buffer_size must be >= 0, got %d", c.Server.WriteBufferSize)
	}

	if c.Connections.HeartbeatInterval <= 0 {
		return errors.New("connections.heartbeat_interval must be > 0")
	}
	if c.Connections.PingInterval <= 0 {
		return errors.New("connections.ping_interval must be > 0")
	}
	if c.Connections.PongTimeout <= c.Connections.PingInterval {
		return fmt.Errorf("connections.pong_timeout (%s) must exceed ping_interval (%s)",
			c.Connections.PongTimeout, c.Connections.PingInterval)
	}
	if c.Connections.WriteTimeout <= 0 {
		return errors.New("connections.write_timeout must be > 0")
	}
	if c.Connections.MaxMessageSize < 1 {
		return errors.New("connections.max_message_size must be >= 1")
	}
	if c.Connections.OutboxSize < 1 {
		return errors.New("connections.outbox_size must be >= 1")
	}

	switch c.Bridge.Driver {
	case "nats":
		if c.Bridge.NATSURL == "" {
			return errors.New("bridge.nats_url is required when bridge.driver is nats")
		}
	case "local":
	default:
		return fmt.Errorf("bridge.driver must be nats or local, got %q", c.Bridge.Driver)
	}
	if c.Bridge.SubjectPrefix == "" || strings.ContainsAny(c.Bridge.SubjectPrefix, " *>") {
		return fmt.Errorf("bridge.subject_prefix %q is not a valid subject token", c.Bridge.SubjectPrefix)
	}

	if c.Database.Enabled() {
		if err := c.Database.validate("database"); err != nil {
			return err
		}
		if c.Journal.BatchSize < 1 {
			return errors.New("journal.batch_size must be >= 1")
		}
		if c.Journal.FlushInterval <= 0 {
			return errors.New("journal.flush_interval must be > 0")
		}
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /, got %q", c.Metrics.Path)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
