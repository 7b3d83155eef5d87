package hydra

import (
	"math/rand"
	"sort"

	"github.com/maemo32/hydra/dram"
)

// gctEntry mirrors the reference's GCT_Entry: a per-row-group activation
// count plus whether the group's RCT slice has been seeded. The zero
// value is the correct "never touched" state ({0, false}), matching the
// sparse map's absent-entry semantics.
type gctEntry struct {
	groupCount  uint32
	initialized bool
}

// tables holds the four sparse associative families Hydra maintains, one
// slice entry per flat bank id (gct, rct, rctCount) or per rank/set pair
// (rcc). Style grounded on the corpus's tagged-table idiom
// (proto/tage/tage.go's per-entry saturating counters), adapted here to
// sparse maps rather than fixed arrays since row ids are not densely
// populated within an epoch.
type tables struct {
	gct      []map[int32]gctEntry
	rct      []map[int32]uint32
	rcc      [][]map[int32]uint32
	rctCount []map[int32]uint32

	rng *rand.Rand
}

func newTables(numBanks, numRanks, rccSetNum int) *tables {
	t := &tables{
		gct:      make([]map[int32]gctEntry, numBanks),
		rct:      make([]map[int32]uint32, numBanks),
		rcc:      make([][]map[int32]uint32, numRanks),
		rctCount: make([]map[int32]uint32, numBanks),
		rng:      rand.New(rand.NewSource(1337)),
	}
	for i := range t.gct {
		t.gct[i] = make(map[int32]gctEntry)
		t.rct[i] = make(map[int32]uint32)
		t.rctCount[i] = make(map[int32]uint32)
	}
	for i := range t.rcc {
		t.rcc[i] = make([]map[int32]uint32, rccSetNum)
		for j := range t.rcc[i] {
			t.rcc[i][j] = make(map[int32]uint32)
		}
	}
	return t
}

func (t *tables) reset() {
	for _, m := range t.gct {
		for k := range m {
			delete(m, k)
		}
	}
	for _, m := range t.rct {
		for k := range m {
			delete(m, k)
		}
	}
	for _, rank := range t.rcc {
		for _, set := range rank {
			for k := range set {
				delete(set, k)
			}
		}
	}
	for _, m := range t.rctCount {
		for k := range m {
			delete(m, k)
		}
	}
}

// evictionTag picks a victim tag from an RCC set by the configured
// policy. RANDOM draws an index in [0,15] from the seeded PRNG and walks
// the set in sorted key order to land on it — Go's map iteration order
// is randomized per process (unlike the reference's std::unordered_map,
// stable within a run), so sorted iteration is substituted to make a
// fixed seed actually reproduce a fixed eviction sequence run to run;
// see DESIGN.md. MIN_COUNT picks the smallest counter, ties broken by
// first-found in sorted order.
func (t *tables) evictionTag(set map[int32]uint32, policy string) int32 {
	keys := make([]int32, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	switch policy {
	case "RANDOM":
		return keys[t.rng.Intn(16)]
	case "MIN_COUNT":
		victim := keys[0]
		minCount := set[victim]
		for _, k := range keys[1:] {
			if set[k] < minCount {
				minCount = set[k]
				victim = k
			}
		}
		return victim
	default:
		// Grounded on the reference's get_tag_to_evict, which throws
		// ConfigurationError here rather than at setup: an unknown
		// policy only surfaces once an RCC set actually needs eviction.
		panic(dram.Errorf("hydra: undefined rcc_policy %q", policy))
	}
}
