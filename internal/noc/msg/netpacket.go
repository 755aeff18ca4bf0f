package msg

import "github.com/dantte-lp/nocrouter/internal/noc/endpoint"

// PacketType selects which FlowControlScheme instance a packet's payload
// is dispatched to.
type PacketType int

// PayloadKind distinguishes the two NetPacket.Data payload shapes at the
// engine boundary.
type PayloadKind uint8

const (
	// PayloadFlit means Data.Flit is populated.
	PayloadFlit PayloadKind = iota
	// PayloadBufferMgmt means Data.BufferMgmt is populated.
	PayloadBufferMgmt
)

// Payload is the tagged union of what a NetPacket can carry at the
// engine boundary: a data flit or a buffer-management message.
type Payload struct {
	Kind       PayloadKind
	Flit       NetworkMsg // Kind == PayloadFlit; only .Data is populated
	BufferMgmt BufferMgmtMsg
}

// NetPacket is the abstract network packet the engine consumes and
// produces at its external boundary. Time is wall-clock and
// recomputed by the node on emission; it is distinct from the normalized
// time carried inside Payload's flit.
type NetPacket struct {
	Time     uint64
	Sender   endpoint.RouterID
	Receiver endpoint.RouterID
	Type     PacketType
	Data     Payload
	IsRaw    bool
	SequenceNum uint64
	Specific int
}

// Clone returns an independent deep copy, used when a node expands a
// broadcast endpoint into several outbound packets.
func (p NetPacket) Clone() NetPacket {
	out := p
	if p.Data.Kind == PayloadFlit {
		route := p.Data.Flit.Data.Route
		if route != nil {
			cloned := make([]endpoint.Endpoint, len(route))
			copy(cloned, route)
			out.Data.Flit.Data.Route = cloned
		}
	}
	return out
}
