package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// CacheConfig defines settings for both Redis caches: the availability cache
// used by the timeslot listing and the response cache middleware on public
// browse routes.  When Enabled is false or no Redis client is configured,
// caching is disabled and every lookup is a miss.
type CacheConfig struct {
	Enabled      bool
	Prefix       string          // namespace prepended to every key (REDIS_CACHE_PREFIX)
	TimeslotTTL  time.Duration   // lifetime of timeslots:{room}:{from}:{to} entries
	Methods      map[string]bool // methods the response cache stores
	TTL          time.Duration   // response cache lifetime
	KeyStrategy  string
	MaxBodyBytes int
}

// LoadCacheConfig reads environment variables to build a CacheConfig.  Defaults
// are used when variables are not set.  All methods are upper-cased.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      getenv("CACHE_ENABLED", "true") == "true",
		Prefix:       getenv("REDIS_CACHE_PREFIX", ""),
		TimeslotTTL:  parseDur(getenv("CACHE_TIMESLOT_TTL", "60s")),
		Methods:      parseMethods(getenv("CACHE_METHODS", "GET")),
		TTL:          parseDur(getenv("CACHE_TTL", "30s")),
		KeyStrategy:  getenv("CACHE_KEY_STRATEGY", "route_query"),
		MaxBodyBytes: atoi(getenv("CACHE_MAX_BODY_BYTES", "1048576")),
	}
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}

// Helper functions shared with redis.go and ratelimit.go
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoi(s string) int {
	i, _ := strconv.Atoi(s)
	return i
}

func parseDur(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return time.Second
	}
	return d
}
