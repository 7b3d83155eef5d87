package dram

import (
	"fmt"
	"math/bits"
)

// ConfigurationError reports a setup-time failure that must abort
// initialization of an address mapper or the row-hammer tracker — never
// a condition a caller can retry past. Grounded on the corpus's total
// absence of an error-wrapping library: a typed error plus fmt.Errorf is
// the only idiom any example repo demonstrates.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("dram: configuration error: %s", e.Reason)
}

func configErrorf(format string, args ...any) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// Errorf builds a ConfigurationError, for use by collaborators (address
// mappers, the row-hammer tracker) that must surface the same error
// class spec.md §7.1 describes.
func Errorf(format string, args ...any) error {
	return configErrorf(format, args...)
}

// Level describes one level of the DRAM hierarchy: a name ("channel",
// "rank", "bankgroup", "bank", "row", "column", ...) and its cardinality.
// Cardinalities must be powers of two; Topology.Validate enforces this.
type Level struct {
	Name  string
	Count int
}

// Command describes one low-level DRAM command the scheduler can issue
// (ACT, PRE, RD, WR, VRR, ...). IsOpening marks commands that open a row
// into the sense amplifiers — the only event the row-hammer tracker
// reacts to. Scope is the hierarchy level index the command operates at
// (row-opening commands scope to the row level).
type Command struct {
	Name      string
	ID        int32
	IsOpening bool
	Scope     int
}

// Topology is the read-only DRAM organization descriptor: an ordered
// list of hierarchy levels, a prefetch size (columns fetched per
// internal burst), a channel width in bits, the per-command-cycle clock
// period, and the small command / logical-request-type registries the
// Controller Adapter collaborator exposes numeric ids through.
type Topology struct {
	levels           []Level
	levelIndex       map[string]int
	prefetchSize     int
	channelWidthBits int
	tckPs            float64

	commandsByName map[string]Command
	commandsByID   map[int32]Command
	nextCommandID  int32

	requestTypesByName map[string]int32
	nextRequestTypeID  int32
}

// NewTopology builds a topology descriptor from an ordered level list, a
// prefetch size, a channel width in bits, and the command clock period
// in picoseconds.
func NewTopology(levels []Level, prefetchSize, channelWidthBits int, tckPs float64) *Topology {
	idx := make(map[string]int, len(levels))
	for i, lvl := range levels {
		idx[lvl.Name] = i
	}
	return &Topology{
		levels:             append([]Level(nil), levels...),
		levelIndex:         idx,
		prefetchSize:       prefetchSize,
		channelWidthBits:   channelWidthBits,
		tckPs:              tckPs,
		commandsByName:     make(map[string]Command),
		commandsByID:       make(map[int32]Command),
		requestTypesByName: make(map[string]int32),
	}
}

// RegisterCommand adds a DRAM command to the registry and returns its
// freshly assigned id. scopeLevelName is resolved against the topology's
// level names; pass "" for commands with no row/bank/... scope.
func (t *Topology) RegisterCommand(name string, isOpening bool, scopeLevelName string) (int32, error) {
	scope := -1
	if scopeLevelName != "" {
		idx, ok := t.levelIndex[scopeLevelName]
		if !ok {
			return 0, configErrorf("command %q scoped to unknown level %q", name, scopeLevelName)
		}
		scope = idx
	}
	id := t.nextCommandID
	t.nextCommandID++
	cmd := Command{Name: name, ID: id, IsOpening: isOpening, Scope: scope}
	t.commandsByName[name] = cmd
	t.commandsByID[id] = cmd
	return id, nil
}

// RegisterRequestType adds a logical request type (e.g. "read", "write",
// "victim-row-refresh") to the registry and returns its freshly assigned
// id. This is the namespace Request.TypeID is drawn from; it is distinct
// from the DRAM command namespace Request.CommandID is drawn from.
func (t *Topology) RegisterRequestType(name string) int32 {
	id := t.nextRequestTypeID
	t.nextRequestTypeID++
	t.requestTypesByName[name] = id
	return id
}

// HasCommand reports whether a command with the given name is registered.
func (t *Topology) HasCommand(name string) bool {
	_, ok := t.commandsByName[name]
	return ok
}

// CommandID looks up a registered command's id by name.
func (t *Topology) CommandID(name string) (int32, error) {
	cmd, ok := t.commandsByName[name]
	if !ok {
		return 0, configErrorf("unknown command %q", name)
	}
	return cmd.ID, nil
}

// RequestTypeID looks up a registered logical request type's id by name.
func (t *Topology) RequestTypeID(name string) (int32, error) {
	id, ok := t.requestTypesByName[name]
	if !ok {
		return 0, configErrorf("unknown request type %q", name)
	}
	return id, nil
}

// CommandMeta returns the metadata for a registered command id.
func (t *Topology) CommandMeta(id int32) (Command, bool) {
	cmd, ok := t.commandsByID[id]
	return cmd, ok
}

// NumLevels returns the number of hierarchy levels.
func (t *Topology) NumLevels() int {
	return len(t.levels)
}

// Count returns the cardinality of the given level index.
func (t *Topology) Count(level int) int {
	return t.levels[level].Count
}

// LevelIndex resolves a level name to its index.
func (t *Topology) LevelIndex(name string) (int, bool) {
	idx, ok := t.levelIndex[name]
	return idx, ok
}

// PrefetchSize returns the number of columns fetched per internal burst.
func (t *Topology) PrefetchSize() int { return t.prefetchSize }

// ChannelWidthBits returns the channel width in bits.
func (t *Topology) ChannelWidthBits() int { return t.channelWidthBits }

// TCKPs returns the command clock period in picoseconds.
func (t *Topology) TCKPs() float64 { return t.tckPs }

// Validate checks the power-of-two assumptions every bit-field
// extraction in this module relies on, and that a "row" level exists.
func (t *Topology) Validate() error {
	if _, ok := t.levelIndex["row"]; !ok {
		return configErrorf("topology has no \"row\" level")
	}
	for _, lvl := range t.levels {
		if !isPowerOfTwo(lvl.Count) {
			return configErrorf("level %q has non-power-of-two count %d", lvl.Name, lvl.Count)
		}
	}
	if !isPowerOfTwo(t.prefetchSize) {
		return configErrorf("prefetch size %d is not a power of two", t.prefetchSize)
	}
	last := t.levels[len(t.levels)-1]
	if Log2Exact(last.Count)-Log2Exact(t.prefetchSize) < 0 {
		return configErrorf("column count %d too small for prefetch size %d", last.Count, t.prefetchSize)
	}
	return nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Log2Exact returns log2(n) for a power-of-two n. Callers that have
// already validated the power-of-two invariant (via Topology.Validate)
// use this instead of the ceiling variant below.
func Log2Exact(n int) int {
	if n <= 0 {
		return 0
	}
	return bits.TrailingZeros(uint(n))
}

// Log2Ceil returns ceil(log2(n)) for n >= 1, without requiring n to be a
// power of two. Used for counter-width sizing, where the tracked
// threshold need not itself be a power of two.
func Log2Ceil(n int) int {
	if n <= 1 {
		return 0
	}
	return bits.Len(uint(n - 1))
}

// Mask returns a bitmask covering the low `width` bits.
func Mask(width int) int32 {
	if width <= 0 {
		return 0
	}
	return int32(1)<<uint(width) - 1
}
