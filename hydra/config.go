package hydra

import "github.com/maemo32/hydra/dram"

// Config holds Hydra's input parameters (spec.md §6's configuration
// keys). TrackingThreshold and GroupThreshold are required; the rest
// default the way the reference plugin's param() calls do.
type Config struct {
	TrackingThreshold int
	GroupThreshold    int
	RowGroupSize      int
	ResetPeriodNs     int
	RCCNumPerRank     int
	RCCPolicy         string
	Debug             bool
}

func (c *Config) setDefaults() {
	if c.RowGroupSize == 0 {
		c.RowGroupSize = 128
	}
	if c.ResetPeriodNs == 0 {
		c.ResetPeriodNs = 64_000_000
	}
	if c.RCCNumPerRank == 0 {
		c.RCCNumPerRank = 4096
	}
	if c.RCCPolicy == "" {
		c.RCCPolicy = "RANDOM"
	}
}

func (c *Config) validate() error {
	if c.TrackingThreshold <= 0 {
		return dram.Errorf("hydra_tracking_threshold is required and must be positive")
	}
	if c.GroupThreshold <= 0 {
		return dram.Errorf("hydra_group_threshold is required and must be positive")
	}
	if c.RCCNumPerRank%16 != 0 {
		return dram.Errorf("hydra_rcc_num_per_rank (%d) must be divisible by 16", c.RCCNumPerRank)
	}
	// hydra_rcc_policy is intentionally not validated here: the reference
	// plugin only checks it lazily, inside the eviction path, so an
	// unknown policy surfaces as a Configuration-class failure at the
	// first RCC eviction (a miss on a full set) rather than at setup
	// (spec.md §7.1).
	return nil
}
