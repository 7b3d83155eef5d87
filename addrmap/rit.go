package addrmap

import (
	"fmt"
	"sort"
	"strings"
)

// ritEntry is one half of a paired row-indirection entry: src_row is the
// map key, dst_row and the shared lock state live here.
type ritEntry struct {
	dstRow int32
	locked bool
}

// RowIndirectionTable is a per-bank mapping src_row -> {dst_row, locked},
// bounded by a configured maxEntries. Entries are always inserted in
// pairs (s->d and d->s, both locked); Remove drops both members of a
// pair; UnlockAll transitions every entry to unlocked. Grounded on
// original_source's rit.{h,cpp}.
//
// A negative maxEntries (as set by NewRowIndirectionTable) means the
// table has not been initialized for
// use: Apply callers treat indirection as a no-op in that state, exactly
// as the reference's "m_num_rit_entries == -1" sentinel does.
type RowIndirectionTable struct {
	perBank    []map[int32]ritEntry
	maxEntries int
}

// NewRowIndirectionTable returns an uninitialized table: Init must be
// called before any bank can hold entries.
func NewRowIndirectionTable() *RowIndirectionTable {
	return &RowIndirectionTable{maxEntries: -1}
}

// Init allocates numBanks empty per-bank tables, each bounded to
// numRITEntries entries (each inserted pair occupies two).
func (r *RowIndirectionTable) Init(numBanks, numRITEntries int) {
	r.perBank = make([]map[int32]ritEntry, numBanks)
	for i := range r.perBank {
		r.perBank[i] = make(map[int32]ritEntry)
	}
	r.maxEntries = numRITEntries
}

// Initialized reports whether Init has been called.
func (r *RowIndirectionTable) Initialized() bool {
	return r.maxEntries >= 0
}

// IsFull reports whether a bank's table already holds at least
// maxEntries entries (counting both halves of every pair).
func (r *RowIndirectionTable) IsFull(bank int) bool {
	return len(r.perBank[bank]) >= r.maxEntries
}

// Lookup returns the destination row for a source row, if present.
func (r *RowIndirectionTable) Lookup(bank int, srcRow int32) (int32, bool) {
	e, ok := r.perBank[bank][srcRow]
	return e.dstRow, ok
}

// Locked reports whether a present row's entry is locked.
func (r *RowIndirectionTable) Locked(bank int, row int32) bool {
	return r.perBank[bank][row].locked
}

// Insert adds the pair (srcRow -> dstRow) and (dstRow -> srcRow), both
// locked. Insertion when the bank is already full is a caller bug —
// spec.md §7.2 classifies it as a fatal invariant violation, so callers
// are expected to check IsFull first; Insert panics rather than silently
// corrupting the table.
func (r *RowIndirectionTable) Insert(bank int, srcRow, dstRow int32) {
	if r.IsFull(bank) {
		panic(fmt.Sprintf("addrmap: RIT bank %d is full, check IsFull before Insert", bank))
	}
	r.perBank[bank][srcRow] = ritEntry{dstRow: dstRow, locked: true}
	r.perBank[bank][dstRow] = ritEntry{dstRow: srcRow, locked: true}
}

// Remove drops both members of the pair rooted at srcRow/dstRow.
func (r *RowIndirectionTable) Remove(bank int, srcRow, dstRow int32) {
	delete(r.perBank[bank], srcRow)
	delete(r.perBank[bank], dstRow)
}

// UnlockAll transitions every entry in every bank to unlocked — called
// at the end of each epoch.
func (r *RowIndirectionTable) UnlockAll() {
	for _, bank := range r.perBank {
		for row, entry := range bank {
			entry.locked = false
			bank[row] = entry
		}
	}
}

// GetUnswapPair returns any unlocked entry in bank whose src and dst are
// both absent from exclude. Go's map iteration order is randomized per
// process (unlike the reference's std::unordered_map, which is at least
// stable within one run), so this walks keys in sorted order to make
// "deterministic by first-match" actually hold for a fixed table state —
// see DESIGN.md. No eligible entry is a runtime assertion failure per
// spec.md §7.3: it signals a policy bug upstream and is fatal.
func (r *RowIndirectionTable) GetUnswapPair(bank int, exclude map[int32]struct{}) (src, dst int32) {
	keys := make([]int32, 0, len(r.perBank[bank]))
	for k := range r.perBank[bank] {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, k := range keys {
		entry := r.perBank[bank][k]
		if entry.locked {
			continue
		}
		if _, excluded := exclude[k]; excluded {
			continue
		}
		if _, excluded := exclude[entry.dstRow]; excluded {
			continue
		}
		return k, entry.dstRow
	}
	panic(fmt.Sprintf("addrmap: no unlocked RIT entry found in bank %d", bank))
}

// Dump formats a bank's table for debugging, grounded on the reference's
// dump_rit; returning a string (rather than printing) lets callers route
// it through tracelog or a test assertion instead.
func (r *RowIndirectionTable) Dump(bank int) string {
	keys := make([]int32, 0, len(r.perBank[bank]))
	for k := range r.perBank[bank] {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var b strings.Builder
	fmt.Fprintf(&b, "RIT[%d].size(): %d\n", bank, len(r.perBank[bank]))
	for _, k := range keys {
		e := r.perBank[bank][k]
		state := "unlocked"
		if e.locked {
			state = "locked"
		}
		fmt.Fprintf(&b, "%d -> %d\t%s\n", k, e.dstRow, state)
	}
	return b.String()
}
