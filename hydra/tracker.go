package hydra

import (
	"math"

	"github.com/maemo32/hydra/dram"
	"github.com/maemo32/hydra/internal/tracelog"
)

// ─────────────────────────────────────────────────────────────────────────
// Tracker implements the Hydra row-hammer mitigation scheme: a coarse
// per-row-group filter (GCT) gates admission to a small on-chip cache of
// per-row counters (RCC), which spills to a DRAM-resident counter array
// (RCT) on capacity miss. Rows that themselves hold the spilled RCT
// bypass that whole path through a small separate table (RCT-count).
// Crossing the tracking threshold emits a synthetic victim-row-refresh.
// ─────────────────────────────────────────────────────────────────────────

// Tracker is a per-controller instance; it owns no process-wide state
// besides its own tables, stats, and PRNG.
type Tracker struct {
	cfg Config

	topo        *dram.Topology
	sink        PrioritySender
	translation Translation
	mapper      AddressMapper

	rankLevel      int
	bankGroupLevel int
	bankLevel      int
	rowLevel       int
	colLevel       int

	numRanks        int
	numBanksPerRank int
	numRowsPerBank  int
	numCLs          int

	rowBits     int
	bankBits    int
	counterBits int

	gctEntriesPerBank int
	gctIndexBits      int
	rccSetNum         int
	rccIndexBits      int
	rccTagRowBits     int

	totalRCTCLSize  int
	totalRCTRowSize int
	rctPerRow       int
	rctPerCL        int
	groupRCTCLSize  int

	vrrID int32
	rdID  int32
	wrID  int32

	clk            int64
	resetPeriodClk int64

	tables *tables
	stats  Stats
}

// Setup resolves every size and id derived from the topology and config
// (spec.md §3's "Derived sizing" and §4.2's setup algorithm), allocates
// the four table families, and reserves the physical ranges that back
// the spilled RCT. Returns a *dram.ConfigurationError if the topology is
// incompatible (no VRR command, missing hierarchy levels).
func (tr *Tracker) Setup(cfg Config, topo *dram.Topology, sink PrioritySender, translation Translation, mapper AddressMapper) error {
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return err
	}
	tr.cfg = cfg
	tr.topo = topo
	tr.sink = sink
	tr.translation = translation
	tr.mapper = mapper

	if !topo.HasCommand("VRR") {
		return dram.Errorf("hydra requires a DRAM command set that defines VRR (victim-row-refresh)")
	}

	var err error
	if tr.vrrID, err = topo.RequestTypeID("victim-row-refresh"); err != nil {
		return err
	}
	if tr.rdID, err = topo.RequestTypeID("read"); err != nil {
		return err
	}
	if tr.wrID, err = topo.RequestTypeID("write"); err != nil {
		return err
	}

	rowLevel, ok := topo.LevelIndex("row")
	if !ok {
		return dram.Errorf("hydra: topology has no \"row\" level")
	}
	tr.rowLevel = rowLevel

	bankLevel, ok := topo.LevelIndex("bank")
	if !ok {
		return dram.Errorf("hydra: topology has no \"bank\" level")
	}
	tr.bankLevel = bankLevel

	colLevel, ok := topo.LevelIndex("column")
	if !ok {
		return dram.Errorf("hydra: topology has no \"column\" level")
	}
	tr.colLevel = colLevel

	if rankLevel, ok := topo.LevelIndex("rank"); ok {
		tr.rankLevel = rankLevel
	} else {
		tr.rankLevel = tr.bankLevel
	}
	if bankGroupLevel, ok := topo.LevelIndex("bankgroup"); ok {
		tr.bankGroupLevel = bankGroupLevel
	} else {
		tr.bankGroupLevel = -1
	}

	tr.numRanks = topo.Count(tr.rankLevel)
	if tr.bankGroupLevel < 0 {
		tr.numBanksPerRank = topo.Count(tr.bankLevel)
	} else {
		tr.numBanksPerRank = topo.Count(tr.bankGroupLevel) * topo.Count(tr.bankLevel)
	}
	tr.numRowsPerBank = topo.Count(tr.rowLevel)
	tr.numCLs = topo.Count(tr.colLevel) / 8

	if tr.numRowsPerBank%tr.cfg.RowGroupSize != 0 {
		return dram.Errorf("hydra_row_group_size (%d) must divide the row count (%d)", tr.cfg.RowGroupSize, tr.numRowsPerBank)
	}

	tr.rowBits = int(math.Log2(float64(tr.numRowsPerBank)))
	tr.bankBits = int(math.Log2(float64(tr.numBanksPerRank)))
	tr.counterBits = int(math.Ceil(math.Log2(float64(tr.cfg.TrackingThreshold))/8)) * 8

	tr.gctEntriesPerBank = tr.numRowsPerBank / tr.cfg.RowGroupSize
	tr.gctIndexBits = int(math.Log2(float64(tr.gctEntriesPerBank)))
	tr.rccSetNum = tr.cfg.RCCNumPerRank / 16
	tr.rccIndexBits = int(math.Log2(float64(tr.rccSetNum)))
	tr.rccTagRowBits = tr.rowBits - tr.rccIndexBits

	tr.totalRCTCLSize = tr.numRowsPerBank * tr.counterBits / 512
	tr.totalRCTRowSize = int(math.Ceil(float64(tr.totalRCTCLSize) / float64(tr.numCLs)))
	tr.rctPerRow = tr.numCLs * 512 / tr.counterBits
	tr.rctPerCL = 512 / tr.counterBits
	tr.groupRCTCLSize = tr.cfg.RowGroupSize * tr.counterBits / 512

	tr.resetPeriodClk = int64(float64(tr.cfg.ResetPeriodNs) / (topo.TCKPs() / 1000.0))

	numBanks := tr.numRanks * tr.numBanksPerRank
	tr.tables = newTables(numBanks, tr.numRanks, tr.rccSetNum)

	tr.reserveRowsForRCT()

	return nil
}

// Stats returns the tracker's statistics snapshot.
func (tr *Tracker) Stats() Stats { return tr.stats }

// Update is the tick contract: called once per controller cycle with
// whether a request was found this cycle and, if so, a view onto it.
// Emits 0..N synthetic requests through the configured PrioritySender.
func (tr *Tracker) Update(requestFound bool, req ActivationView) {
	tr.clk++
	if tr.clk%tr.resetPeriodClk == 0 {
		tr.tables.reset()
	}

	if !requestFound {
		return
	}

	cmd, ok := tr.topo.CommandMeta(req.Command())
	if !ok || !cmd.IsOpening || cmd.Scope != tr.rowLevel {
		return
	}

	addrVec := req.AddrVec()
	flatBankID := tr.flatBankID(addrVec)
	rankID := addrVec[tr.rankLevel]
	bankID := flatBankID % int32(tr.numBanksPerRank)
	rowID := addrVec[tr.rowLevel]
	gctIndex := rowID >> uint(tr.rowBits-tr.gctIndexBits)
	rccIndex := rowID & dram.Mask(tr.rccIndexBits)
	rccTag := (rowID >> uint(tr.rowBits-tr.rccTagRowBits)) | (bankID << uint(tr.rccTagRowBits))
	tr.trace("activate bank=%d row=%d flat_bank=%d gct_index=%d rcc_index=%d", bankID, rowID, flatBankID, gctIndex, rccIndex)

	// Branch A: rows that hold the spilled RCT itself bypass GCT/RCC/RCT
	// entirely and use a small separate counter table.
	if rowID < int32(tr.totalRCTRowSize) {
		tr.stats.RCTCTCheck++
		counters := tr.tables.rctCount[flatBankID]
		counters[rowID]++
		if counters[rowID] >= uint32(tr.cfg.TrackingThreshold) {
			tr.emit(tr.vrrID, dram.CopyAddrVec(addrVec))
			tr.stats.NumVRRRCT++
			tr.stats.NumVRR++
			delete(counters, rowID)
			tr.trace("rct-row row=%d crossed tracking_threshold=%d, emitting VRR", rowID, tr.cfg.TrackingThreshold)
		}
		return
	}

	// Branch B: the GCT gates admission to the finer-grained tables.
	tr.stats.GCTCheck++
	gct := tr.tables.gct[flatBankID]
	entry := gct[gctIndex]
	if entry.groupCount < uint32(tr.cfg.GroupThreshold) {
		entry.groupCount++
		gct[gctIndex] = entry
		return
	}

	// Branch C: the group has crossed its threshold; lazily seed the RCT
	// for the whole group on first crossing, then consult the RCC.
	if !entry.initialized {
		entry.initialized = true
		gct[gctIndex] = entry
		tr.stats.NumInitialization++
		tr.trace("group gct_index=%d flat_bank=%d crossed group_threshold=%d, seeding RCT", gctIndex, flatBankID, tr.cfg.GroupThreshold)

		rowGroupStart := gctIndex * int32(tr.cfg.RowGroupSize)
		rct := tr.tables.rct[flatBankID]
		for r := rowGroupStart; r < rowGroupStart+int32(tr.cfg.RowGroupSize); r++ {
			rct[r] = uint32(tr.cfg.GroupThreshold)
		}

		for i := 0; i < tr.groupRCTCLSize; i++ {
			rctRow, rctCol := tr.generateRowColID(rowGroupStart + int32(i*tr.rctPerCL))
			initVec := dram.CopyAddrVec(addrVec)
			initVec[tr.rowLevel] = rctRow
			initVec[tr.colLevel] = rctCol
			tr.emit(tr.wrID, initVec)
			tr.stats.NumWriteReq++
		}
	}

	tr.stats.RCCCheck++
	set := tr.tables.rcc[rankID][rccIndex]
	rct := tr.tables.rct[flatBankID]

	if _, hit := set[rccTag]; !hit {
		tr.stats.NumRCCMiss++
		tr.trace("rcc-miss rank=%d rcc_index=%d tag=%d set_size=%d", rankID, rccIndex, rccTag, len(set))

		if len(set) == 16 {
			victimTag := tr.tables.evictionTag(set, tr.cfg.RCCPolicy)
			delete(set, victimTag)
			tr.trace("rcc-evict rank=%d rcc_index=%d victim_tag=%d policy=%s", rankID, rccIndex, victimTag, tr.cfg.RCCPolicy)

			evictedRow := ((victimTag & dram.Mask(tr.rccTagRowBits)) << uint(tr.rccIndexBits)) | rccIndex
			evictedBankFull := victimTag >> uint(tr.rccTagRowBits)
			evictedRCTRow, evictedRCTCol := tr.generateRowColID(evictedRow)

			evictVec := dram.CopyAddrVec(addrVec)
			if tr.bankGroupLevel >= 0 {
				bankSize := int32(tr.topo.Count(tr.bankLevel))
				evictVec[tr.bankGroupLevel] = evictedBankFull / bankSize
				evictVec[tr.bankLevel] = evictedBankFull % bankSize
			} else {
				evictVec[tr.bankLevel] = evictedBankFull
			}
			evictVec[tr.rowLevel] = evictedRCTRow
			evictVec[tr.colLevel] = evictedRCTCol
			tr.emit(tr.wrID, evictVec)
			tr.stats.NumEviction++
			tr.stats.NumWriteReq++
		}

		tr.stats.RCTCheck++
		fillRow, fillCol := tr.generateRowColID(rowID)
		fillVec := dram.CopyAddrVec(addrVec)
		fillVec[tr.rowLevel] = fillRow
		fillVec[tr.colLevel] = fillCol
		tr.emit(tr.rdID, fillVec)
		tr.stats.NumReadReq++

		rct[rowID]++
		set[rccTag] = rct[rowID]
	} else {
		set[rccTag]++
		rct[rowID]++
	}

	if set[rccTag] >= uint32(tr.cfg.TrackingThreshold) {
		tr.emit(tr.vrrID, dram.CopyAddrVec(addrVec))
		tr.stats.NumVRR++
		set[rccTag] = 0
		rct[rowID] = 0
		tr.trace("rcc-cross rank=%d tag=%d crossed tracking_threshold=%d, emitting VRR", rankID, rccTag, tr.cfg.TrackingThreshold)
	}
}

// trace emits a tracker-subsystem debug line, gated on Config.Debug so
// the formatting cost is paid only when tracing was actually requested
// (spec.md §9's debug tracing parity with the reference's std::cout
// trace blocks).
func (tr *Tracker) trace(format string, args ...any) {
	if tr.cfg.Debug {
		tracelog.LogHydraTrace(format, args...)
	}
}

// generateRowColID maps a logical RCT row id onto the physical (row, col)
// slot it occupies within the bank's spilled RCT, 8-byte-aligned columns
// (the <<3 encodes 8 columns per cache line).
func (tr *Tracker) generateRowColID(rowID int32) (row, col int32) {
	row = rowID / int32(tr.rctPerRow)
	col = ((rowID % int32(tr.rctPerRow)) * int32(tr.counterBits) / 512) << 3
	return row, col
}

// flatBankID folds every level between rankLevel and bankLevel into one
// row-major index — the same fold addrmap's RIT indirection performs on
// a decoded address, duplicated here since both the address mapper and
// the tracker observe the same coordinate vector independently.
func (tr *Tracker) flatBankID(addrVec []int32) int32 {
	flat := addrVec[tr.bankLevel]
	accum := int32(1)
	for i := tr.bankLevel - 1; i >= tr.rankLevel; i-- {
		accum *= int32(tr.topo.Count(i + 1))
		flat += addrVec[i] * accum
	}
	return flat
}

func (tr *Tracker) emit(typeID int32, addrVec []int32) {
	tr.sink.PrioritySend(dram.NewRequest(addrVec, typeID))
}

// reserveRowsForRCT enumerates every 64-byte-aligned address up to the
// translation layer's max address, applies the configured mapper, and
// reserves whatever decodes to a row backing the spilled RCT. Grounded
// on the reference's reserve_rows_for_rct, including its 64-byte stride
// (cache-line granularity, independent of the topology's own burst size).
func (tr *Tracker) reserveRowsForRCT() {
	maxAddr := tr.translation.MaxAddr()
	for addr := uint64(0); addr < maxAddr; addr += 64 {
		req := &dram.Request{Addr: addr}
		tr.mapper.Apply(req)
		if req.AddrVec[tr.rowLevel] < int32(tr.totalRCTRowSize) {
			tr.translation.Reserve("Hydra", addr)
		}
	}
}
