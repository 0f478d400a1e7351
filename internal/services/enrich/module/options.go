package module

import (
	"zaplens/internal/platform/config"
	"zaplens/internal/services/enrich/service"
)

// Options controls enrichment chunking
type Options = service.Config

// FromConfig reads CORE_ENRICH_* over the stock tuning
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("CORE_ENRICH_")
	d := service.DefaultConfig()
	return Options{
		ContentChunk:   c.MayInt("CONTENT_CHUNK", d.ContentChunk),
		ProfileChunk:   c.MayInt("PROFILE_CHUNK", d.ProfileChunk),
		Concurrency:    c.MayInt("CONCURRENCY", d.Concurrency),
		Pause:          c.MayDuration("PAUSE", d.Pause),
		ContentTimeout: c.MayDuration("CONTENT_TIMEOUT", d.ContentTimeout),
		ProfileTimeout: c.MayDuration("PROFILE_TIMEOUT", d.ProfileTimeout),
		MaxContent:     c.MayInt("MAX_CONTENT", d.MaxContent),
		MaxProfiles:    c.MayInt("MAX_PROFILES", d.MaxProfiles),
	}
}
