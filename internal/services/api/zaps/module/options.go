package module

import (
	"time"

	"zaplens/internal/core/aggregate"
	"zaplens/internal/platform/config"
)

// Options controls session lifetime and analytics bucketing
type Options struct {
	SessionTTL     time.Duration
	Location       *time.Location
	WhaleThreshold int64
}

// FromConfig reads CORE_API_SESSION_TTL and CORE_ANALYTICS_*
func FromConfig(cfg config.Conf) Options {
	api := cfg.Prefix("CORE_API_")
	an := cfg.Prefix("CORE_ANALYTICS_")
	return Options{
		SessionTTL:     api.MayDuration("SESSION_TTL", 30*time.Minute),
		Location:       an.MayLocation("TZ", time.UTC),
		WhaleThreshold: an.MayInt64("WHALE_THRESHOLD", aggregate.DefaultWhaleThreshold),
	}
}
