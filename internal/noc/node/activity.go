package node

import "github.com/dantte-lp/nocrouter/internal/noc/endpoint"

// NodeEventKind enumerates the activity counters a NetworkNode reports
// as it processes a packet.
type NodeEventKind uint8

const (
	// EventBufferRead marks a flit read from an input buffer.
	EventBufferRead NodeEventKind = iota
	// EventBufferWrite marks a flit written into an input buffer.
	EventBufferWrite
	// EventSwitchAllocatorRequest marks a HEAD flit requesting switch
	// allocation.
	EventSwitchAllocatorRequest
	// EventCrossbarTraversal marks flit-length units crossing the
	// crossbar.
	EventCrossbarTraversal
	// EventLinkTraversal marks a flit or buffer-management message
	// crossing an output link.
	EventLinkTraversal
)

func (k NodeEventKind) String() string {
	switch k {
	case EventBufferRead:
		return "buffer_read"
	case EventBufferWrite:
		return "buffer_write"
	case EventSwitchAllocatorRequest:
		return "switch_allocator_request"
	case EventCrossbarTraversal:
		return "crossbar_traversal"
	case EventLinkTraversal:
		return "link_traversal"
	default:
		return "unknown"
	}
}

// NodeEvent is one activity-counter observation, reported synchronously
// as NetworkNode processes a packet. There is exactly one logical actor
// per node, so no channel or async dispatch is needed here --
// ActivityObserver is invoked inline.
type NodeEvent struct {
	Kind     NodeEventKind
	Router   endpoint.RouterID
	Endpoint endpoint.Endpoint
	NumFlits uint64
	Time     uint64
}

// ActivityObserver receives NodeEvents as a NetworkNode processes a
// packet. Implementations must not block or retain ev's Endpoint value
// beyond the call.
type ActivityObserver func(ev NodeEvent)
