package addrmap

import (
	"testing"

	"github.com/maemo32/hydra/dram"
)

// scenarioTopology builds the end-to-end scenario topology from spec.md
// §8: 1 channel, 1 rank, 1 bankgroup, 4 banks, 65536 rows, 128 columns,
// prefetch 8, channel width 64.
func scenarioTopology(t *testing.T) *dram.Topology {
	t.Helper()
	topo := dram.NewTopology([]dram.Level{
		{Name: "channel", Count: 1},
		{Name: "rank", Count: 1},
		{Name: "bankgroup", Count: 1},
		{Name: "bank", Count: 4},
		{Name: "row", Count: 65536},
		{Name: "column", Count: 128},
	}, 8, 64, 1000)
	if err := topo.Validate(); err != nil {
		t.Fatalf("scenario topology invalid: %v", err)
	}
	return topo
}

func TestChRaBaRoCoBitExact(t *testing.T) {
	topo := scenarioTopology(t)
	m := &ChRaBaRoCo{}
	if err := m.Setup(topo); err != nil {
		t.Fatalf("setup: %v", err)
	}

	req := &dram.Request{Addr: 0x4080}
	m.Apply(req)

	want := []int32{0, 0, 0, 0, 16, 2}
	if !equalVec(req.AddrVec, want) {
		t.Fatalf("addr_vec = %v; want %v", req.AddrVec, want)
	}

	// Last-level value equals (addr >> tx_offset) & mask(addr_bits[last]).
	addrPrime := req.Addr >> m.txOffset
	wantCol := int32(addrPrime & uint64(dram.Mask(m.addrBits[m.colLevel])))
	if req.AddrVec[m.colLevel] != wantCol {
		t.Fatalf("col = %d; want %d", req.AddrVec[m.colLevel], wantCol)
	}
}

func TestRoBaRaCoChAgreesOnFields(t *testing.T) {
	topo := scenarioTopology(t)
	m := &RoBaRaCoCh{}
	if err := m.Setup(topo); err != nil {
		t.Fatalf("setup: %v", err)
	}

	req := &dram.Request{Addr: 0x4080}
	m.Apply(req)

	want := []int32{0, 0, 0, 0, 4, 2}
	if !equalVec(req.AddrVec, want) {
		t.Fatalf("addr_vec = %v; want %v", req.AddrVec, want)
	}
}

func TestRoBaRaCoChLeavesMidLevelsUnassigned(t *testing.T) {
	// A topology with a level strictly between row and column should
	// leave that level at dram.Unassigned: intentional per spec.md §9.
	topo := dram.NewTopology([]dram.Level{
		{Name: "channel", Count: 1},
		{Name: "rank", Count: 1},
		{Name: "row", Count: 1024},
		{Name: "extra", Count: 4},
		{Name: "column", Count: 128},
	}, 8, 64, 1000)
	m := &RoBaRaCoCh{}
	if err := m.Setup(topo); err != nil {
		t.Fatalf("setup: %v", err)
	}
	req := &dram.Request{Addr: 0x1234}
	m.Apply(req)

	extraIdx, _ := topo.LevelIndex("extra")
	if req.AddrVec[extraIdx] != dram.Unassigned {
		t.Fatalf("extra level = %d; want Unassigned", req.AddrVec[extraIdx])
	}
}

func TestMOP4CLXORBitExact(t *testing.T) {
	topo := scenarioTopology(t)
	m := &MOP4CLXOR{}
	if err := m.Setup(topo); err != nil {
		t.Fatalf("setup: %v", err)
	}

	req := &dram.Request{Addr: 0x4080}
	m.Apply(req)

	want := []int32{0, 0, 0, 2, 4, 2}
	if !equalVec(req.AddrVec, want) {
		t.Fatalf("addr_vec = %v; want %v", req.AddrVec, want)
	}

	chraba := &ChRaBaRoCo{}
	if err := chraba.Setup(topo); err != nil {
		t.Fatalf("setup: %v", err)
	}
	chrabaReq := &dram.Request{Addr: 0x4080}
	chraba.Apply(chrabaReq)

	gotLow2 := req.AddrVec[m.colLevel] & 0x3
	wantLow2 := chrabaReq.AddrVec[chraba.colLevel] & 0x3
	if gotLow2 != wantLow2 {
		t.Fatalf("MOP4CLXOR low 2 col bits = %d; want %d (ChRaBaRoCo's)", gotLow2, wantLow2)
	}
}

func TestMappersAreDeterministicAndAddrOnly(t *testing.T) {
	topo := scenarioTopology(t)
	for _, name := range []string{"ChRaBaRoCo", "RoBaRaCoCh", "MOP4CLXOR"} {
		name := name
		t.Run(name, func(t *testing.T) {
			m1, _ := New(name)
			m2, _ := New(name)
			if err := m1.Setup(topo); err != nil {
				t.Fatalf("setup m1: %v", err)
			}
			if err := m2.Setup(topo); err != nil {
				t.Fatalf("setup m2: %v", err)
			}
			for _, addr := range []uint64{0, 64, 0x4080, 0xFFFFFF} {
				r1 := &dram.Request{Addr: addr}
				r2 := &dram.Request{Addr: addr}
				m1.Apply(r1)
				m2.Apply(r2)
				if !equalVec(r1.AddrVec, r2.AddrVec) {
					t.Fatalf("addr %#x: %v != %v", addr, r1.AddrVec, r2.AddrVec)
				}
			}
		})
	}
}

func TestSetupRejectsTopologyWithoutRow(t *testing.T) {
	topo := dram.NewTopology([]dram.Level{
		{Name: "channel", Count: 1},
		{Name: "column", Count: 128},
	}, 8, 64, 1000)
	m := &ChRaBaRoCo{}
	if err := m.Setup(topo); err == nil {
		t.Fatal("expected error for topology without a row level")
	}
}

func equalVec(a, b []int32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
