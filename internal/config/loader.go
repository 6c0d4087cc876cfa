package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures environment driven configuration values for the dashboard service.
type Config struct {
	HTTPPort      int
	SQLiteDSN     string
	SessionSecret string
	SessionTTL    time.Duration
	TickInterval  time.Duration
}

// Load parses configuration values from the current process environment.
//
// The loader applies sensible defaults for optional fields while validating
// required values and reporting localized error messages for missing entries.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:     8080,
		SQLiteDSN:    "file:dashboard.db?_foreign_keys=on",
		SessionTTL:   24 * time.Hour,
		TickInterval: time.Second,
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("DASHBOARD_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "DASHBOARD_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("DASHBOARD_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if secret := strings.TrimSpace(os.Getenv("DASHBOARD_SESSION_SECRET")); secret == "" {
		missing = append(missing, "DASHBOARD_SESSION_SECRET")
	} else {
		cfg.SessionSecret = secret
	}

	if ttlValue := strings.TrimSpace(os.Getenv("DASHBOARD_SESSION_TTL")); ttlValue != "" {
		ttl, err := time.ParseDuration(ttlValue)
		if err != nil || ttl <= 0 {
			invalid = append(invalid, "DASHBOARD_SESSION_TTL")
		} else {
			cfg.SessionTTL = ttl
		}
	}

	if intervalValue := strings.TrimSpace(os.Getenv("DASHBOARD_TICK_INTERVAL")); intervalValue != "" {
		interval, err := time.ParseDuration(intervalValue)
		if err != nil || interval <= 0 {
			invalid = append(invalid, "DASHBOARD_TICK_INTERVAL")
		} else {
			cfg.TickInterval = interval
		}
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("گۆڕاوە ژینگەییە پێویستەکان دانەنراون: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("بەهای گۆڕاوە ژینگەییەکان نادروستە: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
