package config

import "time"

// LoginLimitConfig configures the login attempt counter: at most Attempts
// logins per client IP inside each Window.
type LoginLimitConfig struct {
	Enabled  bool
	Attempts int64
	Window   time.Duration
	Prefix   string
}

func LoadLoginLimitConfig() LoginLimitConfig {
	cfg := LoginLimitConfig{
		Enabled:  getenv("LOGIN_LIMIT_ENABLED", "true") == "true",
		Attempts: int64(atoi(getenv("LOGIN_LIMIT_ATTEMPTS", "5"))),
		Window:   parseDur(getenv("LOGIN_LIMIT_WINDOW", "6s")),
		Prefix:   getenv("LOGIN_LIMIT_PREFIX", "login"),
	}
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	return cfg
}
