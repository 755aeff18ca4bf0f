package buffermodel

import (
	"github.com/dantte-lp/nocrouter/internal/noc/endpoint"
	"github.com/dantte-lp/nocrouter/internal/noc/flit"
	"github.com/dantte-lp/nocrouter/internal/noc/msg"
)

// DefaultOnOffThreshold is the free-slots-remaining threshold used by a
// freestanding on/off buffer model.
const DefaultOnOffThreshold = 4

// OnOff is the buffer model that toggles a boolean status as its free
// space crosses a configured threshold. Only length-1 flits are valid
// under this scheme.
type OnOff struct {
	baseFIFO

	freeSlots uint32
	threshold uint32
	status    bool // true == on
}

// NewOnOff constructs an OnOff buffer model with the given total buffer
// size and free-slots-remaining threshold. Status starts on.
func NewOnOff(ep endpoint.Endpoint, bufferSize, threshold uint32) *OnOff {
	return &OnOff{
		baseFIFO: newBaseFIFO(ep),
		freeSlots: bufferSize,
		threshold: threshold,
		status: true,
	}
}

func (m *OnOff) Enqueue(f flit.HeadFlit) (msg.BufferMgmtMsg, bool) {
	m.push(f)
	m.freeSlots--
	if m.freeSlots == m.threshold && m.status {
		m.status = false
		return msg.OnOff(false, f.NormalizedTime, m.ep), true
	}
	return msg.BufferMgmtMsg{}, false
}

func (m *OnOff) Dequeue() (msg.BufferMgmtMsg, bool) {
	f := m.pop()
	before := m.freeSlots
	m.freeSlots++
	if before < m.threshold && m.freeSlots >= m.threshold && !m.status {
		m.status = true
		return msg.OnOff(true, f.NormalizedTime, m.ep), true
	}
	return msg.BufferMgmtMsg{}, false
}
