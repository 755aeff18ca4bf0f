// Package flit defines the flit and head-flit value types that flow
// through the router engine, and the packet-division policies that
// split a modeled packet into them.
package flit

import "github.com/dantte-lp/nocrouter/internal/noc/endpoint"

// Kind is a bit field of flit roles. HEAD and TAIL may coexist on a
// single-flit packet.
type Kind uint8

const (
	// KindHead marks a flit carrying the route.
	KindHead Kind = 1 << iota
	// KindBody marks a flit carrying only payload.
	KindBody
	// KindTail marks a flit signalling packet end.
	KindTail
)

// Has reports whether k includes the bit other.
func (k Kind) Has(other Kind) bool {
	return k&other != 0
}

func (k Kind) String() string {
	switch {
	case k.Has(KindHead) && k.Has(KindTail):
		return "HEAD+TAIL"
	case k.Has(KindHead):
		return "HEAD"
	case k.Has(KindTail):
		return "TAIL"
	case k.Has(KindBody):
		return "BODY"
	default:
		return "UNKNOWN"
	}
}

// Flit is the minimal flow-control unit. Every packet injected into the
// engine is divided into one or more of these.
type Flit struct {
	Kind Kind

	// Length is the flit's size in phits. Flit-buffer flits are always
	// length 1; packet-buffer flits carry the whole packet's
	// serialization length.
	Length uint64

	SenderCoreID int
	ReceiverCoreID int

	// EntryTime is the normalized time at which this flit was injected
	// (or, for a flit crossing a node, at which it arrived at that
	// node's input). NormalizedTime is the flit's current normalized
	// time, advanced as it experiences contention.
	EntryTime uint64
	NormalizedTime uint64

	// ZeroLoadDelay accumulates the delay this flit would have
	// experienced absent contention.
	ZeroLoadDelay uint64

	// InputEndpoint and OutputEndpoint are filled in by the node as the
	// flit advances through flow control.
	InputEndpoint endpoint.Endpoint
	OutputEndpoint endpoint.Endpoint

	// PacketID identifies the owning NetPacket for reassembly and
	// tracing, without a cyclic back-pointer.
	PacketID uint64
}

// Clone returns a value copy suitable for multicast fanout: each
// broadcast sub-endpoint gets its own independent Flit.
func (f Flit) Clone() Flit {
	return f
}

// HeadFlit is a Flit that additionally carries the packet's flit count
// and its route, in the order output endpoints must be traversed.
// Route is built once by the route-computing collaborator
// at injection and shared by reference across clones made during a
// single node crossing; it is never mutated after construction.
type HeadFlit struct {
	Flit

	NumFlits int
	Route    []endpoint.Endpoint
}

// Clone returns a value copy of the head flit. Route is shared by
// reference across clones, matching the original's "shared until last
// copy departs" lifecycle — flow control never mutates it.
func (h HeadFlit) Clone() HeadFlit {
	return h
}
