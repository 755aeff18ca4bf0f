package bufferstatus

import (
	"fmt"

	"github.com/dantte-lp/nocrouter/internal/noc/endpoint"
	"github.com/dantte-lp/nocrouter/internal/noc/flit"
	"github.com/dantte-lp/nocrouter/internal/noc/msg"
)

// List is the per-output-channel vector of Status, one per sub-endpoint,
// plus a channel_free_time cursor preventing out-of-order link use.
// Broadcast allocation touches every sub-endpoint,
// mirroring how a link-aggregation group's state is only meaningful
// once every member is considered together.
type List struct {
	subs            []Status
	channelFreeTime uint64
}

// NewList constructs a List over subs, one Status per sub-endpoint of
// the output channel, in ascending sub-index order.
func NewList(subs []Status) *List {
	return &List{subs: subs}
}

func (l *List) sub(i int) (Status, error) {
	if i < 0 || i >= len(l.subs) {
		return nil, fmt.Errorf("bufferstatus: sub-endpoint %d out of range [0,%d)", i, len(l.subs))
	}
	return l.subs[i], nil
}

// TryAllocate returns max(channelFreeTime, per-endpoint try_allocate).
// For a BroadcastOn endpoint, the per-endpoint term is itself the max
// across every sub-endpoint's TryAllocate.
func (l *List) TryAllocate(f flit.Flit, ep endpoint.Endpoint, nBuffers uint32) uint64 {
	best := l.channelFreeTime
	if ep.IsBroadcast() {
		for _, s := range l.subs {
			best = maxU64(best, s.TryAllocate(f, nBuffers))
		}
		return best
	}
	s, err := l.sub(ep.Sub())
	if err != nil {
		return Unreachable
	}
	return maxU64(best, s.TryAllocate(f, nBuffers))
}

// Allocate mutates every targeted sub-endpoint and advances
// channelFreeTime to f.NormalizedTime + nBuffers.
func (l *List) Allocate(f flit.Flit, ep endpoint.Endpoint, nBuffers uint32) error {
	if ep.IsBroadcast() {
		for _, s := range l.subs {
			if err := s.Allocate(f, nBuffers); err != nil {
				return err
			}
		}
	} else {
		s, err := l.sub(ep.Sub())
		if err != nil {
			return err
		}
		if err := s.Allocate(f, nBuffers); err != nil {
			return err
		}
	}
	l.channelFreeTime = f.NormalizedTime + uint64(nBuffers)
	return nil
}

// Receive applies an upstream buffer-management message to the
// sub-endpoint it names.
func (l *List) Receive(m msg.BufferMgmtMsg) error {
	s, err := l.sub(m.Endpoint.Sub())
	if err != nil {
		return err
	}
	return s.Receive(m)
}

// ChannelFreeTime reports the current channel-free-time cursor.
func (l *List) ChannelFreeTime() uint64 {
	return l.channelFreeTime
}

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}
