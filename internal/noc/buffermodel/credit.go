package buffermodel

import (
	"github.com/dantte-lp/nocrouter/internal/noc/endpoint"
	"github.com/dantte-lp/nocrouter/internal/noc/flit"
	"github.com/dantte-lp/nocrouter/internal/noc/msg"
)

// Credit is the buffer model that emits one credit message per dequeued
// flit, granting the flit's Length in credits, at the dequeued flit's
// normalized time. It carries no counter of its own: the credit count downstream
// routers track lives in bufferstatus.Credit, which consumes these
// messages.
type Credit struct {
	baseFIFO
}

// NewCredit constructs a Credit buffer model for the given input
// endpoint.
func NewCredit(ep endpoint.Endpoint) *Credit {
	return &Credit{baseFIFO: newBaseFIFO(ep)}
}

func (m *Credit) Enqueue(f flit.HeadFlit) (msg.BufferMgmtMsg, bool) {
	m.push(f)
	return msg.BufferMgmtMsg{}, false
}

func (m *Credit) Dequeue() (msg.BufferMgmtMsg, bool) {
	f := m.pop()
	return msg.Credit(uint32(f.Length), f.NormalizedTime, m.ep), true
}
