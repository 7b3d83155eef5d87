// Command hydrasim is a headless driver for the hydra row-hammer
// tracker: it wires a topology, an address mapper, and a Tracker
// together, replays a synthetic activation trace that hammers one
// target row, and prints the resulting synthetic command stream plus
// final stats. It owns no DRAM timing model and performs no file I/O
// beyond stdout — it exists to exercise the core the way a real
// controller would, not to simulate one.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/maemo32/hydra/addrmap"
	"github.com/maemo32/hydra/dram"
	"github.com/maemo32/hydra/hydra"
	"github.com/maemo32/hydra/internal/tracelog"
)

func main() {
	scheme := flag.String("scheme", "ChRaBaRoCo", "address mapping scheme (see addrmap.New)")
	hammerAddr := flag.Uint64("hammer-addr", 0x400000, "physical address hammered every tick")
	iterations := flag.Int("iterations", 200, "number of activation ticks to replay")
	trackingThreshold := flag.Int("tracking-threshold", 16, "hydra_tracking_threshold")
	groupThreshold := flag.Int("group-threshold", 4, "hydra_group_threshold")
	rowGroupSize := flag.Int("row-group-size", 128, "hydra_row_group_size")
	rccNumPerRank := flag.Int("rcc-num-per-rank", 64, "hydra_rcc_num_per_rank")
	rccPolicy := flag.String("rcc-policy", "RANDOM", "hydra_rcc_policy (RANDOM or MIN_COUNT)")
	debug := flag.Bool("debug", false, "emit HYDRA tracker trace lines to stdout as the trace runs")
	flag.Parse()

	if *debug {
		if err := tracelog.Initialize(tracelog.LevelTrace, ""); err != nil {
			fmt.Fprintln(os.Stderr, "hydrasim:", err)
			os.Exit(1)
		}
		tracelog.SetHydraLogging(true)
	}

	topo := dram.NewTopology([]dram.Level{
		{Name: "channel", Count: 1},
		{Name: "rank", Count: 1},
		{Name: "bankgroup", Count: 1},
		{Name: "bank", Count: 4},
		{Name: "row", Count: 65536},
		{Name: "column", Count: 128},
	}, 8, 64, 1000)

	if _, err := topo.RegisterCommand("ACT", true, "row"); err != nil {
		fatal(err)
	}
	if _, err := topo.RegisterCommand("PRE", false, "bank"); err != nil {
		fatal(err)
	}
	actID, _ := topo.CommandID("ACT")
	if _, err := topo.RegisterCommand("VRR", true, "row"); err != nil {
		fatal(err)
	}
	topo.RegisterRequestType("read")
	topo.RegisterRequestType("write")
	topo.RegisterRequestType("victim-row-refresh")

	mapper, ok := addrmap.New(*scheme)
	if !ok {
		fatal(fmt.Errorf("hydrasim: unknown address mapping scheme %q", *scheme))
	}
	if err := mapper.Setup(topo); err != nil {
		fatal(err)
	}

	sink := &printingSink{}
	translation := &flatTranslation{max: 1 << 30}

	tracker := &hydra.Tracker{}
	cfg := hydra.Config{
		TrackingThreshold: *trackingThreshold,
		GroupThreshold:    *groupThreshold,
		RowGroupSize:      *rowGroupSize,
		RCCNumPerRank:     *rccNumPerRank,
		RCCPolicy:         *rccPolicy,
		Debug:             *debug,
	}
	if err := tracker.Setup(cfg, topo, sink, translation, mapper); err != nil {
		fatal(err)
	}

	req := &dram.Request{Addr: *hammerAddr}
	mapper.Apply(req)

	fmt.Printf("hydrasim: hammering addr=0x%x decoded addr_vec=%v for %d ticks\n", *hammerAddr, req.AddrVec, *iterations)

	for i := 0; i < *iterations; i++ {
		act := simpleActivation{cmd: actID, addrVec: dram.CopyAddrVec(req.AddrVec)}
		tracker.Update(true, act)
	}

	fmt.Println("hydrasim: final stats:")
	snap := tracker.Stats().Snapshot()
	names := make([]string, 0, len(snap))
	for name := range snap {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-26s %d\n", name, snap[name])
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "hydrasim:", err)
	os.Exit(1)
}

type simpleActivation struct {
	cmd     int32
	addrVec []int32
}

func (a simpleActivation) Command() int32   { return a.cmd }
func (a simpleActivation) AddrVec() []int32 { return a.addrVec }

// printingSink stands in for the controller's priority-send path: every
// synthetic VRR/RD/WR the tracker emits gets printed as it happens.
type printingSink struct{ count int }

func (s *printingSink) PrioritySend(req dram.Request) {
	s.count++
	fmt.Printf("  [emit %4d] type=%d addr_vec=%v\n", s.count, req.TypeID, req.AddrVec)
}

// flatTranslation is a trivial Translation: every address up to max is
// valid, and reservations are tracked only for the RCT-row sweep at
// setup (nothing downstream reads them back in this demo).
type flatTranslation struct {
	max      uint64
	reserved int
}

func (f *flatTranslation) MaxAddr() uint64 { return f.max }
func (f *flatTranslation) Reserve(owner string, addr uint64) {
	f.reserved++
}
