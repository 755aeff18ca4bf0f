package trace

import (
	"errors"
	"fmt"

	"github.com/dantte-lp/nocrouter/internal/noc/endpoint"
	"github.com/dantte-lp/nocrouter/internal/noc/msg"
	"github.com/dantte-lp/nocrouter/internal/noc/node"
)

// ErrUnknownDestination indicates a packet's Receiver has no registered
// NetworkNode.
var ErrUnknownDestination = errors.New("trace: packet addressed to an unregistered router")

// NodeSet resolves a RouterID to the NetworkNode that owns it. This is
// the "surrounding simulator" collaborator the engine assumes exists
// but places outside its own contract.
type NodeSet interface {
	Node(id endpoint.RouterID) (*node.NetworkNode, error)
}

// StaticNodeSet is a NodeSet backed by a fixed map, built once at
// simulation setup.
type StaticNodeSet map[endpoint.RouterID]*node.NetworkNode

// Node implements NodeSet.
func (s StaticNodeSet) Node(id endpoint.RouterID) (*node.NetworkNode, error) {
	n, ok := s[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDestination, id)
	}
	return n, nil
}

// Runner repeatedly pops the earliest-time packet from its EventQueue,
// dispatches it to the destination NetworkNode, and re-enqueues whatever
// the node emits -- the minimum "surrounding simulator" collaborator a
// batch run or an integration test needs to drive the engine
// end-to-end.
type Runner struct {
	Queue *EventQueue
	Nodes NodeSet

	// Sink, if non-nil, receives every packet the Runner pops, after
	// dispatch, for observation (e.g. writing a trace of engine output).
	Sink func(msg.NetPacket)

	delivered uint64
}

// NewRunner constructs a Runner over an already-populated queue and node
// set.
func NewRunner(queue *EventQueue, nodes NodeSet) *Runner {
	return &Runner{Queue: queue, Nodes: nodes}
}

// Seed loads every packet from src into the Runner's queue, in order.
func (r *Runner) Seed(src *File) error {
	packets, err := src.ReadAll()
	if err != nil {
		return err
	}
	for _, pkt := range packets {
		r.Queue.Push(pkt)
	}
	return nil
}

// Step pops and processes exactly one packet. It returns false when the
// queue is empty.
func (r *Runner) Step() (bool, error) {
	pkt, ok := r.Queue.Pop()
	if !ok {
		return false, nil
	}

	n, err := r.Nodes.Node(pkt.Receiver)
	if err != nil {
		return false, err
	}

	outputs, err := n.ProcessPacket(pkt)
	if err != nil {
		return false, fmt.Errorf("trace: router %s: %w", pkt.Receiver, err)
	}

	r.delivered++
	if r.Sink != nil {
		r.Sink(pkt)
	}

	for _, out := range outputs {
		r.Queue.Push(out)
	}

	return true, nil
}

// Run drains the queue completely, processing packets in non-decreasing
// Time order until none remain.
func (r *Runner) Run() error {
	for {
		more, err := r.Step()
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

// Delivered reports how many packets Step has successfully dispatched so
// far.
func (r *Runner) Delivered() uint64 {
	return r.delivered
}
