// Package flowcontrol implements the four flow-control schemes that
// divide packets into flits, allocate downstream buffers, serialize
// flits through a switch, and produce upstream backpressure messages.
package flowcontrol

import (
	"errors"

	"github.com/dantte-lp/nocrouter/internal/noc/buffermodel"
	"github.com/dantte-lp/nocrouter/internal/noc/bufferstatus"
	"github.com/dantte-lp/nocrouter/internal/noc/endpoint"
	"github.com/dantte-lp/nocrouter/internal/noc/flit"
	"github.com/dantte-lp/nocrouter/internal/noc/msg"
)

// ErrUnknownInputChannel indicates an input channel id outside the
// configured range.
var ErrUnknownInputChannel = errors.New("flowcontrol: unknown input channel")

// ErrUnknownOutputChannel indicates an output channel id with no
// configured bufferstatus.List.
var ErrUnknownOutputChannel = errors.New("flowcontrol: unknown output channel")

// ErrHeadExpected indicates a flit arrived at the front of an idle input
// channel's buffer without the HEAD bit set.
var ErrHeadExpected = errors.New("flowcontrol: expected HEAD flit to seed a new packet")

// ErrChannelBusy indicates a HEAD arrived for an input channel whose
// previous packet has not finished departing.
var ErrChannelBusy = errors.New("flowcontrol: input channel still has a packet in flight")

// Scheme is the shared contract across the four flow-control variants.
// HandleData and HandleBufferManagement enqueue or
// apply state and then run the fixed-point draining loop themselves,
// returning every outbound message produced as a result, including any
// immediate backpressure message from the enqueue/receive step. Drain is
// also exposed directly so tests can exercise the draining loop in
// isolation from message arrival.
type Scheme interface {
	// HandleData admits a flit arriving on inputChannel and drains.
	HandleData(inputChannel int, f flit.HeadFlit) ([]msg.NetworkMsg, error)

	// HandleBufferManagement applies a downstream buffer-management
	// message and drains.
	HandleBufferManagement(m msg.BufferMgmtMsg) ([]msg.NetworkMsg, error)

	// Drain runs the fixed-point iteration: repeat over all input
	// channels until a full sweep makes no progress.
	Drain() []msg.NetworkMsg

	// Snapshot reports the occupancy of every configured input channel,
	// for read-only introspection by internal/api.
	Snapshot() []ChannelSnapshot
}

// Config wires the per-channel buffer models and downstream buffer
// status lists a scheme operates over. Inputs is indexed by input
// channel id; Outputs is keyed by output channel id.
type Config struct {
	Inputs  []buffermodel.Model
	Outputs map[int]*bufferstatus.List
}

// ChannelSnapshot reports one input channel's buffer occupancy, for the
// read-only introspection internal/api offers -- tooling around the
// engine, not part of its wire protocol.
type ChannelSnapshot struct {
	Channel   int
	Empty     bool
	QueueTime uint64
	Endpoint  endpoint.Endpoint
}

// Snapshot reports the occupancy of every configured input channel, in
// channel order.
func (c Config) Snapshot() []ChannelSnapshot {
	out := make([]ChannelSnapshot, len(c.Inputs))
	for i, m := range c.Inputs {
		out[i] = ChannelSnapshot{
			Channel:   i,
			Empty:     m.Empty(),
			QueueTime: m.QueueTime(),
			Endpoint:  m.Endpoint(),
		}
	}
	return out
}

func (c Config) outputFor(channel int) (*bufferstatus.List, error) {
	l, ok := c.Outputs[channel]
	if !ok {
		return nil, ErrUnknownOutputChannel
	}
	return l, nil
}

func (c Config) inputFor(channel int) (buffermodel.Model, error) {
	if channel < 0 || channel >= len(c.Inputs) {
		return nil, ErrUnknownInputChannel
	}
	return c.Inputs[channel], nil
}
