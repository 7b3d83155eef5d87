package hydra

// Stats mirrors the reference plugin's register_stat counters, names
// preserved for log compatibility (spec.md §6).
type Stats struct {
	NumVRR            uint64
	NumVRRRCT         uint64
	NumReadReq        uint64
	NumWriteReq       uint64
	NumInitialization uint64
	NumEviction       uint64
	NumRCCMiss        uint64
	GCTCheck          uint64
	RCCCheck          uint64
	RCTCheck          uint64
	RCTCTCheck        uint64
}

// Snapshot returns the stats as a name->value map, keyed the way the
// reference plugin names them in its stats output.
func (s Stats) Snapshot() map[string]uint64 {
	return map[string]uint64{
		"hydra_num_vrr":            s.NumVRR,
		"hydra_num_vrr_rct":        s.NumVRRRCT,
		"hydra_num_read_req":       s.NumReadReq,
		"hydra_num_write_req":      s.NumWriteReq,
		"hydra_num_initialization": s.NumInitialization,
		"hydra_num_eviction":       s.NumEviction,
		"hydra_num_rcc_miss":       s.NumRCCMiss,
		"hydra_gct_check":          s.GCTCheck,
		"hydra_rcc_check":          s.RCCCheck,
		"hydra_rct_check":          s.RCTCheck,
		"hydra_rctct_check":        s.RCTCTCheck,
	}
}
