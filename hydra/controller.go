// Package hydra implements the Hydra two-tier row-hammer tracker: a
// hierarchical counter cache that approximates a per-row activation
// counter within a bounded on-chip budget by spilling most counters to
// DRAM itself. It reacts to row-opening DRAM commands and emits
// synthetic VRR/RD/WR requests as side effects.
package hydra

import "github.com/maemo32/hydra/dram"

// PrioritySender enqueues a request for immediate scheduling ahead of
// whatever the controller's normal queue discipline would pick next.
// The tracker never waits on the result; priority_send is fire-and-forget
// from its perspective.
type PrioritySender interface {
	PrioritySend(req dram.Request)
}

// AddressMapper is the subset of addrmap.Mapper the tracker needs: just
// enough to decode a synthetic request's row/column coordinates when
// reserving the physical ranges the RCT spills into. The tracker never
// depends on a concrete mapper type.
type AddressMapper interface {
	Apply(req *dram.Request)
}

// Translation is the physical-to-DRAM translation/reservation layer.
// Hydra reserves the address ranges whose decoded row backs the spilled
// RCT so ordinary traffic never collides with it.
type Translation interface {
	MaxAddr() uint64
	Reserve(owner string, addr uint64)
}

// ActivationView is the read-only view of "the current request" the
// tracker's Update is given: enough to classify the command and read its
// decoded address vector, without coupling the tracker to a concrete
// request-queue iterator type.
type ActivationView interface {
	Command() int32
	AddrVec() []int32
}
