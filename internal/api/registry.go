// Package api implements the router engine's admin HTTP surface: listing
// the configured nodes, reading a node's channel occupancy, and injecting
// a packet into the running simulation.
//
// The engine's NetworkNode is explicitly single-threaded-per-router: it
// carries no internal locking and assumes one logical caller. Requests
// arrive here on arbitrary goroutines from net/http, while the same
// nodes are normally driven by a trace.Runner's single simulation loop.
// Registry reconciles the two with one mutex guarding every call into
// node or queue state, mirroring how bfd.Manager guards its session maps
// with a single mu sync.RWMutex: callers here mutate as often as they
// read (ProcessPacket dispatch, queue pushes), so a single Mutex is used
// rather than a RWMutex split that would buy nothing.
package api

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/dantte-lp/nocrouter/internal/noc/endpoint"
	"github.com/dantte-lp/nocrouter/internal/noc/flowcontrol"
	"github.com/dantte-lp/nocrouter/internal/noc/msg"
	"github.com/dantte-lp/nocrouter/internal/noc/node"
	"github.com/dantte-lp/nocrouter/internal/trace"
)

// ErrUnknownNode indicates a request named a router id this Registry
// does not own.
var ErrUnknownNode = errors.New("api: unknown node")

// Registry is the admin server's view of a running simulation: the fixed
// set of nodes built at startup, plus the event queue new packets are
// injected onto. It implements trace.NodeSet so the same instance can
// drive a trace.Runner.
type Registry struct {
	mu    sync.Mutex
	nodes map[endpoint.RouterID]*node.NetworkNode
	queue *trace.EventQueue
}

// NewRegistry wraps a fixed node set and the queue feeding it. nodes is
// not copied; the Registry takes ownership of looking it up under lock.
func NewRegistry(nodes map[endpoint.RouterID]*node.NetworkNode, queue *trace.EventQueue) *Registry {
	return &Registry{nodes: nodes, queue: queue}
}

// Node implements trace.NodeSet, so a trace.Runner can drive the exact
// nodes this Registry exposes over HTTP.
func (r *Registry) Node(id endpoint.RouterID) (*node.NetworkNode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nodeLocked(id)
}

func (r *Registry) nodeLocked(id endpoint.RouterID) (*node.NetworkNode, error) {
	n, ok := r.nodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	return n, nil
}

// Lock acquires the Registry's mutex for the duration of fn, so a
// simulation driver sharing this Registry's nodes and queue (e.g. a
// trace.Runner polled from its own goroutine) can serialize its steps
// against concurrent admin requests.
func (r *Registry) Lock(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn()
}

// NodeSummary describes one registered node for listing.
type NodeSummary struct {
	ID endpoint.RouterID `json:"id"`
}

// ListNodes returns every registered node id, in ascending RouterID
// order.
func (r *Registry) ListNodes() []NodeSummary {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]NodeSummary, 0, len(r.nodes))
	for id := range r.nodes {
		out = append(out, NodeSummary{ID: id})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Less(out[j].ID) })
	return out
}

// NodeStatus reports one node's per-channel occupancy snapshot.
type NodeStatus struct {
	ID       endpoint.RouterID            `json:"id"`
	Channels []flowcontrol.ChannelSnapshot `json:"channels"`
}

// Status returns id's current channel snapshot.
func (r *Registry) Status(id endpoint.RouterID) (NodeStatus, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n, err := r.nodeLocked(id)
	if err != nil {
		return NodeStatus{}, err
	}
	return NodeStatus{ID: id, Channels: n.ChannelSnapshot()}, nil
}

// Inject pushes pkt onto the shared event queue, to be picked up by
// whatever simulation loop is draining it next.
func (r *Registry) Inject(pkt msg.NetPacket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := r.nodeLocked(pkt.Receiver); err != nil {
		return err
	}
	r.queue.Push(pkt)
	return nil
}

// QueueDepth reports how many packets are currently pending in the
// shared event queue.
func (r *Registry) QueueDepth() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.queue.Len()
}
