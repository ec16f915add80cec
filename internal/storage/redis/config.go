package redis

import "time"

// Config holds Redis connection and behavior settings
type Config struct {
	// URL is the Redis connection URL (e.g., redis://localhost:6379)
	URL string

	// Pool settings
	PoolSize     int
	MinIdleConns int

	// TTL settings. Rooms and actors are kept hot in the coordinator and
	// swept by the janitor, so the TTLs are a backstop against leaked keys,
	// not the primary expiry mechanism.
	ActorTTL time.Duration
	RoomTTL  time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		URL:          "redis://localhost:6379",
		PoolSize:     10,
		MinIdleConns: 2,
		ActorTTL:     24 * time.Hour,
		RoomTTL:      24 * time.Hour,
	}
}
