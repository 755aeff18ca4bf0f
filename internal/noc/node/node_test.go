package node_test

import (
	"errors"
	"testing"

	"github.com/dantte-lp/nocrouter/internal/noc/bufferstatus"
	"github.com/dantte-lp/nocrouter/internal/noc/buffermodel"
	"github.com/dantte-lp/nocrouter/internal/noc/endpoint"
	"github.com/dantte-lp/nocrouter/internal/noc/flit"
	"github.com/dantte-lp/nocrouter/internal/noc/flowcontrol"
	"github.com/dantte-lp/nocrouter/internal/noc/msg"
	"github.com/dantte-lp/nocrouter/internal/noc/node"
	"github.com/dantte-lp/nocrouter/internal/noc/router"
)

type fakeRemoteRouter struct {
	creditDelay uint64
	linkDelay   uint64
}

func (f fakeRemoteRouter) CreditPipelineDelay() uint64                         { return f.creditDelay }
func (f fakeRemoteRouter) LinkDelay(endpoint.Endpoint) uint64                   { return f.linkDelay }

type fakeTopology struct {
	remote node.RemoteRouter
}

func (f fakeTopology) Resolve(msg.PacketType, endpoint.Endpoint) (node.RemoteRouter, error) {
	return f.remote, nil
}

func newTestNode(t *testing.T) *node.NetworkNode {
	t.Helper()

	self := endpoint.RouterID{CoreID: 0}
	neighbor := endpoint.RouterID{CoreID: 1}

	inputs := endpoint.NewMapping(
		map[endpoint.RouterID]endpoint.Endpoint{neighbor: endpoint.Specific(0, 0)},
		nil,
	)
	outputs := endpoint.NewMapping(
		nil,
		map[endpoint.RouterID]endpoint.Endpoint{neighbor: endpoint.Specific(0, 0)},
	)

	schemeCfg := flowcontrol.Config{
		Inputs:  []buffermodel.Model{buffermodel.NewInfinite(endpoint.Specific(0, 0))},
		Outputs: map[int]*bufferstatus.List{0: bufferstatus.NewList([]bufferstatus.Status{bufferstatus.Infinite{}})},
	}
	scheme := flowcontrol.NewWormhole(schemeCfg)
	pm := router.NewPerformanceModel(scheme, 2, 1)

	cfg := node.Config{
		ID:        self,
		Router:    pm,
		Inputs:    inputs,
		Outputs:   outputs,
		LinkPerf:  map[int]node.LinkPerformanceModel{0: node.FixedDelayLink{Delay: 3}},
		LinkPower: map[int]node.LinkPowerModel{0: &node.HammingEnergyLink{BitWidth: 64, EnergyPerFlip: 1.0}},
		FlitWidth: 64,
		Topology:  fakeTopology{remote: fakeRemoteRouter{creditDelay: 1, linkDelay: 2}},
	}

	return node.New(cfg)
}

func TestProcessPacketDataPipelineAndLinkDelay(t *testing.T) {
	t.Parallel()

	self := endpoint.RouterID{CoreID: 0}
	neighbor := endpoint.RouterID{CoreID: 1}

	inputs := endpoint.NewMapping(
		map[endpoint.RouterID]endpoint.Endpoint{neighbor: endpoint.Specific(0, 0)},
		nil,
	)
	outputs := endpoint.NewMapping(
		nil,
		map[endpoint.RouterID]endpoint.Endpoint{neighbor: endpoint.Specific(0, 0)},
	)

	schemeCfg := flowcontrol.Config{
		Inputs:  []buffermodel.Model{buffermodel.NewInfinite(endpoint.Specific(0, 0))},
		Outputs: map[int]*bufferstatus.List{0: bufferstatus.NewList([]bufferstatus.Status{bufferstatus.Infinite{}})},
	}
	scheme := flowcontrol.NewWormhole(schemeCfg)
	pm := router.NewPerformanceModel(scheme, 2, 1)

	var events []node.NodeEvent
	n := node.New(node.Config{
		ID:        self,
		Router:    pm,
		Inputs:    inputs,
		Outputs:   outputs,
		LinkPerf:  map[int]node.LinkPerformanceModel{0: node.FixedDelayLink{Delay: 3}},
		FlitWidth: 64,
		Topology:  fakeTopology{remote: fakeRemoteRouter{}},
		Observer:  func(ev node.NodeEvent) { events = append(events, ev) },
	})

	route := []endpoint.Endpoint{endpoint.Specific(0, 0)}
	hf := flit.DivideFlitBuffer(0, 1, 0, route, 1)[0]

	input := msg.NetPacket{
		Time:     100,
		Sender:   neighbor,
		Receiver: self,
		Data:     msg.Payload{Kind: msg.PayloadFlit, Flit: msg.DataMsg(hf)},
	}

	outputs2, err := n.ProcessPacket(input)
	if err != nil {
		t.Fatalf("ProcessPacket() error: %v", err)
	}
	if len(outputs2) != 1 {
		t.Fatalf("len(outputs) = %d, want 1", len(outputs2))
	}

	out := outputs2[0]
	if out.Receiver != neighbor {
		t.Errorf("out.Receiver = %v, want %v", out.Receiver, neighbor)
	}
	// Router pipeline delay (2) + link delay (3) = 5, applied on top of
	// entry time 100.
	if out.Time != 105 {
		t.Errorf("out.Time = %d, want 105 (100 + 2 router + 3 link)", out.Time)
	}

	if len(events) == 0 {
		t.Error("no activity events observed")
	}
}

func TestProcessPacketTimeRegressionRejected(t *testing.T) {
	t.Parallel()

	n := newTestNode(t)

	neighbor := endpoint.RouterID{CoreID: 1}
	self := endpoint.RouterID{CoreID: 0}
	route := []endpoint.Endpoint{endpoint.Specific(0, 0)}
	hf := flit.DivideFlitBuffer(0, 1, 0, route, 1)[0]

	first := msg.NetPacket{
		Time: 50, Sender: neighbor, Receiver: self,
		Data: msg.Payload{Kind: msg.PayloadFlit, Flit: msg.DataMsg(hf)},
	}
	if _, err := n.ProcessPacket(first); err != nil {
		t.Fatalf("first ProcessPacket() error: %v", err)
	}

	second := first
	second.Time = 10
	if _, err := n.ProcessPacket(second); !errors.Is(err, node.ErrTimeRegression) {
		t.Errorf("ProcessPacket() with regressed time error = %v, want ErrTimeRegression", err)
	}
}

func TestProcessPacketUnknownSenderErrors(t *testing.T) {
	t.Parallel()

	n := newTestNode(t)

	stranger := endpoint.RouterID{CoreID: 99}
	self := endpoint.RouterID{CoreID: 0}
	route := []endpoint.Endpoint{endpoint.Specific(0, 0)}
	hf := flit.DivideFlitBuffer(0, 1, 0, route, 1)[0]

	pkt := msg.NetPacket{
		Time: 1, Sender: stranger, Receiver: self,
		Data: msg.Payload{Kind: msg.PayloadFlit, Flit: msg.DataMsg(hf)},
	}
	if _, err := n.ProcessPacket(pkt); err == nil {
		t.Error("ProcessPacket() from an unmapped sender did not error")
	}
}
