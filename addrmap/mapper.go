// Package addrmap decomposes a linear physical address into a DRAM
// coordinate vector over a dram.Topology, and optionally indirects the
// decoded row through a per-bank Row Indirection Table.
//
// Three canonical interleavings are provided: ChRaBaRoCo (channel
// highest, column lowest), RoBaRaCoCh, and MOP4CLXOR. Each has a
// "_with_rit" counterpart that applies the same decomposition and then
// runs the result through a RowIndirectionTable.
package addrmap

import "github.com/maemo32/hydra/dram"

// Mapper decodes a physical address into req.AddrVec.
type Mapper interface {
	Setup(topo *dram.Topology) error
	Apply(req *dram.Request)
}

// baseMapper holds the bit-width decomposition shared by all three
// linear schemes. Grounded on original_source's LinearMapperBase: one
// setup routine computing m_addr_bits/m_tx_offset/m_row_bits_idx/
// m_col_bits_idx, reused by every concrete scheme via embedding rather
// than the reference's class inheritance.
type baseMapper struct {
	numLevels int
	addrBits  []int
	txOffset  uint
	rowLevel  int
	colLevel  int
}

func (b *baseMapper) setup(topo *dram.Topology) error {
	rowLevel, ok := topo.LevelIndex("row")
	if !ok {
		return dram.Errorf("address mapper: topology has no \"row\" level, cannot use linear mapping")
	}

	n := topo.NumLevels()
	addrBits := make([]int, n)
	for i := 0; i < n; i++ {
		addrBits[i] = dram.Log2Exact(topo.Count(i))
	}
	addrBits[n-1] -= dram.Log2Exact(topo.PrefetchSize())
	if addrBits[n-1] < 0 {
		return dram.Errorf("address mapper: column width %d too small for prefetch size %d", topo.Count(n-1), topo.PrefetchSize())
	}

	txBytes := topo.PrefetchSize() * topo.ChannelWidthBits() / 8

	b.numLevels = n
	b.addrBits = addrBits
	b.txOffset = uint(dram.Log2Exact(txBytes))
	b.rowLevel = rowLevel
	b.colLevel = n - 1
	return nil
}

// newAddrVec returns an address vector of the right length with every
// entry unassigned, matching req.addr_vec.resize(num_levels, -1) in the
// reference.
func newAddrVec(n int) []int32 {
	vec := make([]int32, n)
	for i := range vec {
		vec[i] = dram.Unassigned
	}
	return vec
}

// sliceLowerBits extracts the low `width` bits of addr and shifts them
// out, mirroring the reference's slice_lower_bits helper.
func sliceLowerBits(addr *uint64, width int) int32 {
	if width <= 0 {
		return 0
	}
	mask := uint64(1)<<uint(width) - 1
	v := int32(*addr & mask)
	*addr >>= uint(width)
	return v
}
