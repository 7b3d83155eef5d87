// Package dram models the read-only DRAM organization metadata and the
// request tuple that flows between an address mapper, a row-hammer
// tracker, and the surrounding memory controller. It owns none of the
// controller's scheduling, timing, or translation logic — those remain
// opaque collaborators reached through small interfaces in the hydra
// package.
package dram

// Unassigned marks an addr_vec entry that a mapper has not (yet) decoded.
const Unassigned int32 = -1

// Request is the tuple that flows through address mapping and DRAM
// command generation. AddrVec has length equal to the topology's level
// count; entries equal to Unassigned denote "not decoded for this
// level."
//
// CommandID identifies the scheduled DRAM command (e.g. an opening
// command like ACT, or VRR) once the controller has picked one — it's
// what the row-hammer tracker inspects to decide whether an activation
// occurred. TypeID identifies the logical request type (read/write/
// victim-row-refresh) a freshly constructed request carries before the
// controller's scheduler turns it into one or more DRAM commands.
type Request struct {
	Addr      uint64
	AddrVec   []int32
	CommandID int32
	TypeID    int32
}

// NewRequest builds a request the way the controller adapter's request
// constructor does: from a decoded address vector and a logical request
// type id, leaving Addr and CommandID undefined (zero and Unassigned
// respectively — the scheduler assigns a concrete command later).
func NewRequest(addrVec []int32, typeID int32) Request {
	return Request{
		AddrVec:   addrVec,
		CommandID: Unassigned,
		TypeID:    typeID,
	}
}

// CopyAddrVec returns an independent copy of vec, so a synthetic request
// built from an observed activation's coordinates can later have its
// row/column overwritten without mutating the original.
func CopyAddrVec(vec []int32) []int32 {
	out := make([]int32, len(vec))
	copy(out, vec)
	return out
}
