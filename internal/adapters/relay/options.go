package relay

import (
	"zaplens/internal/platform/config"
)

// FromConfig reads SERVICE_RELAY_* into Options
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("SERVICE_RELAY_")
	return Options{
		BaseURL:    c.MayString("URL", baseURLDefault),
		UserAgent:  c.MayString("USER_AGENT", defaultUA),
		Timeout:    c.MayDuration("TIMEOUT", defaultTimeout),
		Token:      c.MayString("TOKEN", ""),
		MaxRetries: c.MayInt("RETRIES", defaultMaxRetry),
		RetryBase:  c.MayDuration("RETRY_BASE", defaultRetryBase),
	}
}
