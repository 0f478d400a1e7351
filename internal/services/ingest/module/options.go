package module

import (
	"zaplens/internal/platform/config"
	dom "zaplens/internal/services/ingest/domain"
)

// Options controls pagination and auto loading
type Options = dom.Config

// FromConfig reads CORE_INGEST_* over the stock tuning
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("CORE_INGEST_")
	d := dom.DefaultConfig()
	return Options{
		Kinds:             c.MayInts("RECEIPT_KINDS", d.Kinds),
		InitialBatch:      c.MayInt("INITIAL_BATCH", d.InitialBatch),
		MinBatch:          c.MayInt("MIN_BATCH", d.MinBatch),
		MaxBatch:          c.MayInt("MAX_BATCH", d.MaxBatch),
		AutoBatch:         c.MayInt("AUTO_BATCH", d.AutoBatch),
		FailureThreshold:  c.MayInt("FAILURE_THRESHOLD", d.FailureThreshold),
		BoundaryTolerance: c.MayDuration("BOUNDARY_TOLERANCE", d.BoundaryTolerance),
		BatchTimeout:      c.MayDuration("BATCH_TIMEOUT", d.BatchTimeout),
		InitialDelay:      c.MayDuration("INITIAL_DELAY", d.InitialDelay),
		InterBatchDelay:   c.MayDuration("INTER_BATCH_DELAY", d.InterBatchDelay),
		RetryBase:         c.MayDuration("RETRY_BASE", d.RetryBase),
		MaxRetryDelay:     c.MayDuration("MAX_RETRY_DELAY", d.MaxRetryDelay),
		SubstantialRatio:  c.MayFloat64("SUBSTANTIAL_RATIO", d.SubstantialRatio),
		SubstantialMin:    c.MayInt("SUBSTANTIAL_MIN", d.SubstantialMin),
		MaxUsers:          c.MayInt("MAX_USERS", d.MaxUsers),
	}
}
