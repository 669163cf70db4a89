package config

import "time"

// RCAConfig configures the background RCA pipeline: where its
// per-principal rate limiter counts requests, and how often the
// stale-session sweep runs.
type RCAConfig struct {
	// RedisAddr points the RateLimiter at a Redis instance. Empty uses
	// the in-memory fallback limiter instead.
	RedisAddr string `yaml:"redis_addr"`

	// SweepSchedule is a standard 5-field cron expression for the
	// stale-session sweep. Defaults to every 5 minutes.
	SweepSchedule string `yaml:"sweep_schedule"`

	// StaleSessionThreshold overrides how long a session may sit
	// in_progress before the sweep marks it failed. Zero uses the
	// package default (20 minutes).
	StaleSessionThreshold time.Duration `yaml:"stale_session_threshold"`
}
