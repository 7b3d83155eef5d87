package addrmap

import "github.com/maemo32/hydra/dram"

// ritIndirector is embedded by every *_with_rit scheme: it resolves the
// rank/bank level indices once at setup and folds a decoded address
// vector's bank coordinates into a flat bank id the RIT is keyed by.
type ritIndirector struct {
	rit       *RowIndirectionTable
	rankLevel int
	bankLevel int
	rowLevel  int
}

func (w *ritIndirector) setup(topo *dram.Topology, rowLevel int) error {
	rankLevel, ok := topo.LevelIndex("rank")
	if !ok {
		return dram.Errorf("address mapper: topology has no \"rank\" level, cannot use RIT")
	}
	bankLevel, ok := topo.LevelIndex("bank")
	if !ok {
		return dram.Errorf("address mapper: topology has no \"bank\" level, cannot use RIT")
	}
	w.rankLevel = rankLevel
	w.bankLevel = bankLevel
	w.rowLevel = rowLevel
	w.rit = NewRowIndirectionTable()
	return nil
}

// EnableRIT bounds each bank's table to numRITEntries entries (each
// inserted pair occupies two). Setup alone
// leaves the table uninitialized (RIT is a no-op) until a caller
// explicitly enables it — registration/wiring is a factory concern, not
// a core one (spec.md §4.1/§9).
func (w *ritIndirector) EnableRIT(numBanks, numRITEntries int) {
	w.rit.Init(numBanks, numRITEntries)
}

// RIT exposes the underlying table for direct insert/remove/unlock calls
// by whatever policy decides to remap rows.
func (w *ritIndirector) RIT() *RowIndirectionTable { return w.rit }

// flatBankID folds every level from rankLevel down to bankLevel (the
// rank, bankgroup and bank coordinates) into one index, row-major. Grounded on
// original_source's apply_indirection flat_bank_id computation — the
// same fold hydra.Tracker performs on observed activations.
func flatBankID(topo *dram.Topology, addrVec []int32, rankLevel, bankLevel int) int32 {
	flat := addrVec[bankLevel]
	accum := int32(1)
	for i := bankLevel - 1; i >= rankLevel; i-- {
		accum *= int32(topo.Count(i + 1))
		flat += addrVec[i] * accum
	}
	return flat
}

func (w *ritIndirector) applyIndirection(topo *dram.Topology, req *dram.Request) {
	if !w.rit.Initialized() {
		return
	}
	bank := flatBankID(topo, req.AddrVec, w.rankLevel, w.bankLevel)
	if dst, ok := w.rit.Lookup(int(bank), req.AddrVec[w.rowLevel]); ok {
		req.AddrVec[w.rowLevel] = dst
	}
}

// ChRaBaRoCoWithRIT decodes with ChRaBaRoCo and then indirects the
// resulting row through a RowIndirectionTable.
type ChRaBaRoCoWithRIT struct {
	ChRaBaRoCo
	ritIndirector
	topo *dram.Topology
}

func (m *ChRaBaRoCoWithRIT) Setup(topo *dram.Topology) error {
	if err := m.ChRaBaRoCo.Setup(topo); err != nil {
		return err
	}
	m.topo = topo
	return m.ritIndirector.setup(topo, m.ChRaBaRoCo.rowLevel)
}

func (m *ChRaBaRoCoWithRIT) Apply(req *dram.Request) {
	m.ChRaBaRoCo.Apply(req)
	m.applyIndirection(m.topo, req)
}

// RoBaRaCoChWithRIT decodes with RoBaRaCoCh and then indirects the
// resulting row through a RowIndirectionTable.
type RoBaRaCoChWithRIT struct {
	RoBaRaCoCh
	ritIndirector
	topo *dram.Topology
}

func (m *RoBaRaCoChWithRIT) Setup(topo *dram.Topology) error {
	if err := m.RoBaRaCoCh.Setup(topo); err != nil {
		return err
	}
	m.topo = topo
	return m.ritIndirector.setup(topo, m.RoBaRaCoCh.rowLevel)
}

func (m *RoBaRaCoChWithRIT) Apply(req *dram.Request) {
	m.RoBaRaCoCh.Apply(req)
	m.applyIndirection(m.topo, req)
}

// MOP4CLXORWithRIT decodes with MOP4CLXOR and then indirects the
// resulting row through a RowIndirectionTable.
type MOP4CLXORWithRIT struct {
	MOP4CLXOR
	ritIndirector
	topo *dram.Topology
}

func (m *MOP4CLXORWithRIT) Setup(topo *dram.Topology) error {
	if err := m.MOP4CLXOR.Setup(topo); err != nil {
		return err
	}
	m.topo = topo
	return m.ritIndirector.setup(topo, m.MOP4CLXOR.rowLevel)
}

func (m *MOP4CLXORWithRIT) Apply(req *dram.Request) {
	m.MOP4CLXOR.Apply(req)
	m.applyIndirection(m.topo, req)
}
