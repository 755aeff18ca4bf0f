// Package bufferstatus mirrors downstream free-space state on the
// upstream side of a channel: it answers "can a flit of length L be
// accepted at time T?" and "when?".
package bufferstatus

import (
	"errors"
	"math"

	"github.com/dantte-lp/nocrouter/internal/noc/flit"
	"github.com/dantte-lp/nocrouter/internal/noc/msg"
)

// Unreachable is the sentinel TryAllocate returns when an allocation can
// never succeed with currently known state.
const Unreachable = math.MaxUint64

// ErrCreditUnderflow indicates an allocation would drive the credit
// counter negative.
var ErrCreditUnderflow = errors.New("bufferstatus: credit counter would go negative")

// ErrStatusOff indicates an allocation was attempted while the on/off
// status was off.
var ErrStatusOff = errors.New("bufferstatus: allocation attempted while status is off")

// ErrNonMonotoneMessage indicates a buffer-management message arrived
// with a time not strictly greater than the last one observed on this
// endpoint.
var ErrNonMonotoneMessage = errors.New("bufferstatus: buffer-management message time does not advance")

// ErrBroadcastWidth indicates an on/off status was asked to allocate
// more than one buffer at a time.
var ErrBroadcastWidth = errors.New("bufferstatus: on/off status only allocates one buffer at a time")

// Status is the per-endpoint mirror of a downstream buffer-management
// scheme.
type Status interface {
	// TryAllocate reports the earliest time an allocation of nBuffers for
	// f could succeed, or Unreachable if it never could with current
	// knowledge.
	TryAllocate(f flit.Flit, nBuffers uint32) uint64

	// Allocate mutates state to reflect nBuffers consumed for f. Callers
	// must only call this after TryAllocate reports a time <= f's
	// normalized time.
	Allocate(f flit.Flit, nBuffers uint32) error

	// Receive applies an upstream buffer-management message, advancing
	// last-message-time state.
	Receive(m msg.BufferMgmtMsg) error
}
