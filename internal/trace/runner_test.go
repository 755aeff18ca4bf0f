package trace_test

import (
	"bytes"
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
	"github.com/dantte-lp/nocrouter/internal/trace"
)

// stalledNode builds a NetworkNode whose single output channel has zero
// credits, so every packet it admits is enqueued but never forwarded --
// a dead end convenient for exercising Runner without a multi-hop
// topology.
func stalledNode(id, sender endpoint.RouterID) *node.NetworkNode {
	inputs := endpoint.NewMapping(map[endpoint.RouterID]endpoint.Endpoint{sender: endpoint.Specific(0, 0)}, nil)
	outputs := endpoint.NewMapping(nil, map[endpoint.RouterID]endpoint.Endpoint{sender: endpoint.Specific(0, 0)})

	cfg := flowcontrol.Config{
		Inputs:  []buffermodel.Model{buffermodel.NewCredit(endpoint.Specific(0, 0))},
		Outputs: map[int]*bufferstatus.List{0: bufferstatus.NewList([]bufferstatus.Status{bufferstatus.NewCredit(0)})},
	}
	scheme := flowcontrol.NewWormhole(cfg)
	pm := router.NewPerformanceModel(scheme, 1, 1)

	return node.New(node.Config{ID: id, Router: pm, Inputs: inputs, Outputs: outputs, FlitWidth: 64})
}

func TestRunnerStepDrainsAndDelivers(t *testing.T) {
	t.Parallel()

	self := endpoint.RouterID{CoreID: 0}
	sender := endpoint.RouterID{CoreID: 1}

	nodes := trace.StaticNodeSet{self: stalledNode(self, sender)}
	queue := trace.NewEventQueue()
	runner := trace.NewRunner(queue, nodes)

	route := []endpoint.Endpoint{endpoint.Specific(0, 0)}
	hf := flit.DivideFlitBuffer(1, 0, 0, route, 1)[0]
	queue.Push(msg.NetPacket{
		Time: 5, Sender: sender, Receiver: self,
		Data: msg.Payload{Kind: msg.PayloadFlit, Flit: msg.DataMsg(hf)},
	})

	more, err := runner.Step()
	if err != nil {
		t.Fatalf("Step() error: %v", err)
	}
	if !more {
		t.Fatal("Step() reported false on a non-empty queue")
	}
	if runner.Delivered() != 1 {
		t.Errorf("Delivered() = %d, want 1", runner.Delivered())
	}

	more, err = runner.Step()
	if err != nil {
		t.Fatalf("second Step() error: %v", err)
	}
	if more {
		t.Error("Step() reported true on an empty queue")
	}
}

func TestRunnerRunDrainsFully(t *testing.T) {
	t.Parallel()

	self := endpoint.RouterID{CoreID: 0}
	sender := endpoint.RouterID{CoreID: 1}

	nodes := trace.StaticNodeSet{self: stalledNode(self, sender)}
	queue := trace.NewEventQueue()
	runner := trace.NewRunner(queue, nodes)

	route := []endpoint.Endpoint{endpoint.Specific(0, 0)}
	flits := flit.DivideFlitBuffer(1, 0, 0, route, 3)
	for i := uint64(0); i < 3; i++ {
		queue.Push(msg.NetPacket{
			Time: i, Sender: sender, Receiver: self,
			Data: msg.Payload{Kind: msg.PayloadFlit, Flit: msg.DataMsg(flits[i])},
		})
	}

	if err := runner.Run(); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if runner.Delivered() != 3 {
		t.Errorf("Delivered() = %d, want 3", runner.Delivered())
	}
	if queue.Len() != 0 {
		t.Errorf("queue.Len() after Run() = %d, want 0", queue.Len())
	}
}

func TestRunnerSeedLoadsFromFile(t *testing.T) {
	t.Parallel()

	self := endpoint.RouterID{CoreID: 0}
	sender := endpoint.RouterID{CoreID: 1}

	var buf bytes.Buffer
	w := trace.NewFileWriter(&buf)
	route := []endpoint.Endpoint{endpoint.Specific(0, 0)}
	hf := flit.DivideFlitBuffer(1, 0, 0, route, 1)[0]
	pkt := msg.NetPacket{
		Time: 9, Sender: sender, Receiver: self,
		Data: msg.Payload{Kind: msg.PayloadFlit, Flit: msg.DataMsg(hf)},
	}
	if err := w.Write(pkt); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	nodes := trace.StaticNodeSet{self: stalledNode(self, sender)}
	runner := trace.NewRunner(trace.NewEventQueue(), nodes)

	r := trace.NewFileReader(&buf)
	if err := runner.Seed(r); err != nil {
		t.Fatalf("Seed() error: %v", err)
	}
	if got, ok := runner.Queue.Peek(); !ok || got.Time != 9 {
		t.Errorf("Peek() after Seed() = %+v, %v, want Time 9, true", got, ok)
	}
}

func TestRunnerUnknownDestinationErrors(t *testing.T) {
	t.Parallel()

	stranger := endpoint.RouterID{CoreID: 99}

	nodes := trace.StaticNodeSet{}
	queue := trace.NewEventQueue()
	queue.Push(msg.NetPacket{Time: 1, Receiver: stranger})

	runner := trace.NewRunner(queue, nodes)
	if _, err := runner.Step(); !errors.Is(err, trace.ErrUnknownDestination) {
		t.Errorf("Step() to an unregistered node error = %v, want ErrUnknownDestination", err)
	}
}
