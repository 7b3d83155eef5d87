package addrmap

import "github.com/maemo32/hydra/dram"

// ChRaBaRoCo decodes an address channel-highest, column-lowest: the
// highest hierarchy level (channel) occupies the most significant bits
// of the post-transaction-offset address, the last level (column) the
// least significant. Grounded on original_source's ChRaBaRoCo::apply.
type ChRaBaRoCo struct {
	baseMapper
}

func (m *ChRaBaRoCo) Setup(topo *dram.Topology) error {
	return m.setup(topo)
}

func (m *ChRaBaRoCo) Apply(req *dram.Request) {
	req.AddrVec = newAddrVec(m.numLevels)
	addr := req.Addr >> m.txOffset
	for i := len(m.addrBits) - 1; i >= 0; i-- {
		req.AddrVec[i] = sliceLowerBits(&addr, m.addrBits[i])
	}
}

// RoBaRaCoCh extracts the channel (level 0, lowest bits) and the column
// (last level) first, then the levels between the channel and the row
// (inclusive of the row) in ascending order. Any levels strictly between
// the row and the column are left Unassigned — intentional for flat
// topologies, not a bug (see spec.md §9 / DESIGN.md).
type RoBaRaCoCh struct {
	baseMapper
}

func (m *RoBaRaCoCh) Setup(topo *dram.Topology) error {
	return m.setup(topo)
}

func (m *RoBaRaCoCh) Apply(req *dram.Request) {
	req.AddrVec = newAddrVec(m.numLevels)
	addr := req.Addr >> m.txOffset
	last := len(m.addrBits) - 1
	req.AddrVec[0] = sliceLowerBits(&addr, m.addrBits[0])
	req.AddrVec[last] = sliceLowerBits(&addr, m.addrBits[last])
	for i := 1; i <= m.rowLevel; i++ {
		req.AddrVec[i] = sliceLowerBits(&addr, m.addrBits[i])
	}
}

// MOP4CLXOR reserves the 2 lowest column bits, takes the ranks/banks/
// bankgroups (levels below the row), takes the remaining column bits,
// assigns the row the remainder, and finally XOR-obfuscates every level
// below the column that has a nonzero bit width (the row included)
// against successive bit windows of the decoded column value. Grounded on
// original_source's MOP4CLXOR::apply.
type MOP4CLXOR struct {
	baseMapper
}

func (m *MOP4CLXOR) Setup(topo *dram.Topology) error {
	return m.setup(topo)
}

func (m *MOP4CLXOR) Apply(req *dram.Request) {
	req.AddrVec = newAddrVec(m.numLevels)
	addr := req.Addr >> m.txOffset

	req.AddrVec[m.colLevel] = sliceLowerBits(&addr, 2)
	for lvl := 0; lvl < m.rowLevel; lvl++ {
		req.AddrVec[lvl] = sliceLowerBits(&addr, m.addrBits[lvl])
	}
	req.AddrVec[m.colLevel] += sliceLowerBits(&addr, m.addrBits[m.colLevel]-2) << 2
	req.AddrVec[m.rowLevel] = int32(addr)

	rowXorIndex := 0
	for lvl := 0; lvl < m.colLevel; lvl++ {
		if m.addrBits[lvl] > 0 {
			mask := (req.AddrVec[m.colLevel] >> uint(rowXorIndex)) & dram.Mask(m.addrBits[lvl])
			req.AddrVec[lvl] ^= mask
			rowXorIndex += m.addrBits[lvl]
		}
	}
}
