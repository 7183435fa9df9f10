package database

import (
	"fmt"
	"net/url"

	"github.com/felicia-viz/viz-relay/internal/config"
)

// BuildConnString builds a PostgreSQL connection URL from config. appName is
// reported to the server as application_name when set.
func BuildConnString(cfg config.DBConfig, appName string) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = config.DefaultDBSSLMode
	}

	params := url.Values{}
	params.Set("sslmode", sslMode)
	if appName != "" {
		params.Set("application_name", appName)
	}

	// QueryEscape handles special characters in credentials
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?%s",
		url.QueryEscape(cfg.User),
		url.QueryEscape(cfg.Password),
		cfg.Host,
		cfg.Port,
		cfg.Name,
		params.Encode(),
	)
}
