package buffermodel

import (
	"github.com/dantte-lp/nocrouter/internal/noc/endpoint"
	"github.com/dantte-lp/nocrouter/internal/noc/flit"
	"github.com/dantte-lp/nocrouter/internal/noc/msg"
)

// Infinite is the buffer model with unbounded downstream storage: it
// never emits a backpressure message.
type Infinite struct {
	baseFIFO
}

// NewInfinite constructs an Infinite buffer model for the given input
// endpoint.
func NewInfinite(ep endpoint.Endpoint) *Infinite {
	return &Infinite{baseFIFO: newBaseFIFO(ep)}
}

func (m *Infinite) Enqueue(f flit.HeadFlit) (msg.BufferMgmtMsg, bool) {
	m.push(f)
	return msg.BufferMgmtMsg{}, false
}

func (m *Infinite) Dequeue() (msg.BufferMgmtMsg, bool) {
	m.pop()
	return msg.BufferMgmtMsg{}, false
}
