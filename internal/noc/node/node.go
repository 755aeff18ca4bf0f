// Package node implements NetworkNode, the unit of physical simulation:
// per-router mapping of channel endpoints to neighbor routers, router
// and link traversal cost accounting, and construction of outgoing wire
// messages.
package node

import (
	"errors"
	"fmt"

	"github.com/dantte-lp/nocrouter/internal/noc/endpoint"
	"github.com/dantte-lp/nocrouter/internal/noc/flit"
	"github.com/dantte-lp/nocrouter/internal/noc/flowcontrol"
	"github.com/dantte-lp/nocrouter/internal/noc/msg"
	"github.com/dantte-lp/nocrouter/internal/noc/router"
)

// ErrTimeRegression indicates an inbound packet's time precedes the
// last one this node processed.
var ErrTimeRegression = errors.New("node: packet time regresses")

// Config is the immutable construction-time wiring for a NetworkNode.
// Global singletons (simulator, config, topology) are external to the
// engine and injected explicitly here rather than reached for as
// package state.
type Config struct {
	ID         endpoint.RouterID
	Router     *router.PerformanceModel
	Inputs     *endpoint.Mapping
	Outputs    *endpoint.Mapping
	LinkPerf   map[int]LinkPerformanceModel
	LinkPower  map[int]LinkPowerModel
	FlitWidth  uint64
	Topology   TopologyResolver
	Observer   ActivityObserver
	PacketType msg.PacketType
}

// NetworkNode is a single-threaded-per-router actor: all its state --
// the flow-control scheme, buffer models, and the channel/neighbor
// mappings -- is owned exclusively by one logical caller. ProcessPacket
// is run-to-completion and never blocks; this mirrors
// internal/bfd/session.go's "construct, handle one input, mutate
// internal state, return outputs" shape, but with every mutex gobfd's
// Session uses removed, since the concurrency model here forbids
// concurrent access rather than permitting it.
type NetworkNode struct {
	cfg Config

	lastPacketTime uint64
	haveProcessed bool
}

// New constructs a NetworkNode. cfg.Topology is treated as read-only and
// is never locked around.
func New(cfg Config) *NetworkNode {
	return &NetworkNode{cfg: cfg}
}

// ID reports the router identifier this node represents.
func (n *NetworkNode) ID() endpoint.RouterID {
	return n.cfg.ID
}

// ChannelSnapshot reports the occupancy of every input channel in this
// node's router, for read-only introspection by internal/api.
func (n *NetworkNode) ChannelSnapshot() []flowcontrol.ChannelSnapshot {
	return n.cfg.Router.Snapshot()
}

// ProcessPacket is the engine's public contract:
// monotone in input.Time, returns zero or more packets addressed to
// downstream neighbors.
func (n *NetworkNode) ProcessPacket(input msg.NetPacket) ([]msg.NetPacket, error) {
	if n.haveProcessed && input.Time < n.lastPacketTime {
		return nil, fmt.Errorf("%w: router %s got time %d after %d",
			ErrTimeRegression, n.cfg.ID, input.Time, n.lastPacketTime)
	}
	n.lastPacketTime = input.Time
	n.haveProcessed = true

	var (
		outMsgs []msg.NetworkMsg
		err error
	)

	switch input.Data.Kind {
	case msg.PayloadFlit:
		outMsgs, err = n.dispatchData(input)
	case msg.PayloadBufferMgmt:
		outMsgs, err = n.dispatchBufferManagement(input)
	default:
		return nil, fmt.Errorf("node: unknown payload kind %d", input.Data.Kind)
	}
	if err != nil {
		return nil, err
	}

	return n.buildOutbound(input, outMsgs)
}

func (n *NetworkNode) dispatchData(input msg.NetPacket) ([]msg.NetworkMsg, error) {
	inputEp, err := n.cfg.Inputs.InputEndpoint(input.Sender)
	if err != nil {
		return nil, err
	}

	hf := input.Data.Flit.Data
	hf.InputEndpoint = inputEp
	hf.EntryTime = input.Time
	hf.NormalizedTime = input.Time

	n.observe(NodeEvent{Kind: EventBufferWrite, Router: n.cfg.ID, Endpoint: inputEp, NumFlits: hf.Length, Time: input.Time})
	if hf.Kind.Has(flit.KindHead) {
		n.observe(NodeEvent{Kind: EventSwitchAllocatorRequest, Router: n.cfg.ID, Endpoint: inputEp, Time: input.Time})
	}

	return n.cfg.Router.ProcessDataMsg(inputEp.Channel(), hf)
}

func (n *NetworkNode) dispatchBufferManagement(input msg.NetPacket) ([]msg.NetworkMsg, error) {
	outputEp, err := n.cfg.Outputs.OutputEndpoint(input.Sender)
	if err != nil {
		return nil, err
	}

	bm := input.Data.BufferMgmt
	bm.Endpoint = outputEp

	return n.cfg.Router.ProcessBufferManagementMsg(bm)
}

func (n *NetworkNode) observe(ev NodeEvent) {
	if n.cfg.Observer != nil {
		n.cfg.Observer(ev)
	}
}
