package node

import (
	"github.com/dantte-lp/nocrouter/internal/noc/endpoint"
	"github.com/dantte-lp/nocrouter/internal/noc/msg"
)

// RemoteRouter is the thin, read-only view a NetworkNode needs of the
// neighbor across one of its links, to price a buffer-management
// message traveling back upstream.
type RemoteRouter interface {
	// CreditPipelineDelay reports the remote router's credit pipeline
	// delay in cycles.
	CreditPipelineDelay() uint64

	// LinkDelay reports the paired link's delay for the given local
	// endpoint, as seen from the remote side.
	LinkDelay(localEndpoint endpoint.Endpoint) uint64
}

// TopologyResolver resolves the neighbor router reachable from a given
// endpoint, for a given packet type. The engine requires only that
// implementations be pure and stable for the duration of a simulation;
// it performs no locking around calls to it, treating the topology as
// effectively read-only after construction.
type TopologyResolver interface {
	Resolve(packetType msg.PacketType, ep endpoint.Endpoint) (RemoteRouter, error)
}
