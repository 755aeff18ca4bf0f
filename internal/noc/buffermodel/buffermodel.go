// Package buffermodel implements the per-input-channel FIFO that queues
// flits awaiting departure and the backpressure messages its enqueue and
// dequeue operations may emit.
package buffermodel

import (
	"errors"

	"github.com/dantte-lp/nocrouter/internal/noc/endpoint"
	"github.com/dantte-lp/nocrouter/internal/noc/flit"
	"github.com/dantte-lp/nocrouter/internal/noc/msg"
)

// ErrBufferTimeRegression indicates update_buffer_time was called while
// the front flit's normalized time precedes queue_time.
var ErrBufferTimeRegression = errors.New("buffermodel: front flit time precedes queue time")

// Model is the shared contract across buffer-management schemes.
// Enqueue/Dequeue return the backpressure message to
// propagate upstream, if any.
type Model interface {
	// Enqueue appends f and reports an upstream message to send, if any.
	Enqueue(f flit.HeadFlit) (msg.BufferMgmtMsg, bool)

	// Front reports the flit at the head of the queue without removing it.
	Front() (flit.HeadFlit, bool)

	// Dequeue removes the head flit and reports an upstream message to
	// send, if any. It is a contract violation to call Dequeue on an
	// empty model.
	Dequeue() (msg.BufferMgmtMsg, bool)

	// Empty reports whether the queue holds no flits.
	Empty() bool

	// UpdateFlitTime sets front.NormalizedTime = max(front.NormalizedTime,
	// queueTime), restoring invariant 2 ahead of a drain attempt.
	UpdateFlitTime()

	// AdvanceFrontTime raises the front flit's normalized time to at
	// least t, never regressing it. Flow-control schemes call this after
	// bufferstatus.TryAllocate reports an acceptance time later than the
	// flit's current time.
	AdvanceFrontTime(t uint64)

	// UpdateBufferTime advances queueTime to front.NormalizedTime +
	// front.Length. It is a contract violation if the front flit's time
	// precedes queueTime.
	UpdateBufferTime() error

	// QueueTime reports the current buffer-time cursor.
	QueueTime() uint64

	// Endpoint reports the input endpoint this model queues for.
	Endpoint() endpoint.Endpoint
}

// baseFIFO holds the state and draining mechanics shared by every
// buffer-management variant, mirroring the
// shared-helper-functions-across-variants shape used for the session
// authentication methods in the upstream protocol daemon this engine's
// idioms are drawn from.
type baseFIFO struct {
	queue     []flit.HeadFlit
	queueTime uint64
	ep        endpoint.Endpoint
}

func newBaseFIFO(ep endpoint.Endpoint) baseFIFO {
	return baseFIFO{ep: ep}
}

func (b *baseFIFO) push(f flit.HeadFlit) {
	b.queue = append(b.queue, f)
}

func (b *baseFIFO) pop() flit.HeadFlit {
	f := b.queue[0]
	b.queue = b.queue[1:]
	return f
}

func (b *baseFIFO) Front() (flit.HeadFlit, bool) {
	if len(b.queue) == 0 {
		return flit.HeadFlit{}, false
	}
	return b.queue[0], true
}

func (b *baseFIFO) Empty() bool {
	return len(b.queue) == 0
}

func (b *baseFIFO) QueueTime() uint64 {
	return b.queueTime
}

func (b *baseFIFO) Endpoint() endpoint.Endpoint {
	return b.ep
}

func (b *baseFIFO) UpdateFlitTime() {
	if len(b.queue) == 0 {
		return
	}
	if b.queue[0].NormalizedTime < b.queueTime {
		b.queue[0].NormalizedTime = b.queueTime
	}
}

func (b *baseFIFO) AdvanceFrontTime(t uint64) {
	if len(b.queue) == 0 {
		return
	}
	if b.queue[0].NormalizedTime < t {
		b.queue[0].NormalizedTime = t
	}
}

func (b *baseFIFO) UpdateBufferTime() error {
	if len(b.queue) == 0 {
		return nil
	}
	front := b.queue[0]
	if front.NormalizedTime < b.queueTime {
		return ErrBufferTimeRegression
	}
	b.queueTime = front.NormalizedTime + front.Length
	return nil
}
