// Package trace provides the event-ordered scheduler and file format that
// drive the router engine end-to-end: a min-heap of pending NetPackets
// and a Runner that repeatedly pops the earliest packet, feeds it to a
// node.NetworkNode, and re-enqueues whatever the node emits.
package trace

import (
	"container/heap"

	"github.com/dantte-lp/nocrouter/internal/noc/msg"
)

// EventQueue is a time-ordered min-heap of pending packets, popped in
// non-decreasing Time order. Ties on Time are broken by insertion order,
// so replaying the same trace always produces the same pop order.
//
// Grounded on original_source/common/misc/min_heap.cc's array-backed
// binary heap keyed by a UInt64, reduced here to container/heap's
// standard interface rather than a hand-rolled sift-up/sift-down -- the
// corpus carries no third-party heap library, so this is the one
// justified stdlib-only component (see DESIGN.md).
type EventQueue struct {
	h eventHeap
}

// NewEventQueue returns an empty EventQueue.
func NewEventQueue() *EventQueue {
	return &EventQueue{}
}

// Len reports the number of pending packets.
func (q *EventQueue) Len() int {
	return q.h.Len()
}

// Push inserts p, keyed by p.Time.
func (q *EventQueue) Push(p msg.NetPacket) {
	heap.Push(&q.h, eventNode{packet: p, seq: q.h.nextSeq})
	q.h.nextSeq++
}

// Pop removes and returns the packet with the smallest Time (ties broken
// by insertion order). The second return is false if the queue is empty.
func (q *EventQueue) Pop() (msg.NetPacket, bool) {
	if q.h.Len() == 0 {
		return msg.NetPacket{}, false
	}
	node := heap.Pop(&q.h).(eventNode)
	return node.packet, true
}

// Peek returns the packet with the smallest Time without removing it.
func (q *EventQueue) Peek() (msg.NetPacket, bool) {
	if q.h.Len() == 0 {
		return msg.NetPacket{}, false
	}
	return q.h.nodes[0].packet, true
}

type eventNode struct {
	packet msg.NetPacket
	seq uint64
}

// eventHeap implements container/heap.Interface. nextSeq is carried on
// the heap itself so EventQueue.Push can stamp insertion order without a
// second field.
type eventHeap struct {
	nodes []eventNode
	nextSeq uint64
}

func (h eventHeap) Len() int { return len(h.nodes) }

func (h eventHeap) Less(i, j int) bool {
	if h.nodes[i].packet.Time != h.nodes[j].packet.Time {
		return h.nodes[i].packet.Time < h.nodes[j].packet.Time
	}
	return h.nodes[i].seq < h.nodes[j].seq
}

func (h eventHeap) Swap(i, j int) {
	h.nodes[i], h.nodes[j] = h.nodes[j], h.nodes[i]
}

func (h *eventHeap) Push(x any) {
	h.nodes = append(h.nodes, x.(eventNode))
}

func (h *eventHeap) Pop() any {
	old := h.nodes
	n := len(old)
	node := old[n-1]
	h.nodes = old[:n-1]
	return node
}
