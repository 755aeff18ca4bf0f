package flowcontrol

import (
	"github.com/dantte-lp/nocrouter/internal/noc/buffermodel"
	"github.com/dantte-lp/nocrouter/internal/noc/bufferstatus"
	"github.com/dantte-lp/nocrouter/internal/noc/endpoint"
	"github.com/dantte-lp/nocrouter/internal/noc/flit"
	"github.com/dantte-lp/nocrouter/internal/noc/msg"
)

// wuvbCursor tracks one in-flight packet on an input channel. Unicast
// packets (a single-endpoint route) drain exactly like Wormhole;
// broadcast packets (a multi-endpoint route) drain like a combined,
// all-or-nothing virtual-cut-through reservation.
type wuvbCursor struct {
	route     []endpoint.Endpoint
	broadcast bool
	reserved  bool // HEAD has reserved every output channel and allocated the full packet
}

// WormholeUnicastVCTBroadcast implements a hybrid scheme: unicast
// traffic behaves as pure wormhole; broadcast traffic
// behaves as virtual cut-through with an atomic, all-endpoints-at-once
// reservation.
type WormholeUnicastVCTBroadcast struct {
	cfg          Config
	cursors      []*wuvbCursor
	reservations map[int]Reservation
}

// NewWormholeUnicastVCTBroadcast constructs the scheme over cfg.
func NewWormholeUnicastVCTBroadcast(cfg Config) *WormholeUnicastVCTBroadcast {
	return &WormholeUnicastVCTBroadcast{
		cfg: cfg,
		cursors: make([]*wuvbCursor, len(cfg.Inputs)),
		reservations: make(map[int]Reservation),
	}
}

func (w *WormholeUnicastVCTBroadcast) HandleData(inputChannel int, f flit.HeadFlit) ([]msg.NetworkMsg, error) {
	model, err := w.cfg.inputFor(inputChannel)
	if err != nil {
		return nil, err
	}
	if f.Kind.Has(flit.KindHead) && w.cursors[inputChannel] != nil {
		return nil, ErrChannelBusy
	}

	var out []msg.NetworkMsg
	if bm, ok := model.Enqueue(f); ok {
		out = append(out, msg.BufferMgmtNetworkMsg(bm))
	}
	out = append(out, w.Drain()...)
	return out, nil
}

// Snapshot reports the occupancy of every input channel.
func (w *WormholeUnicastVCTBroadcast) Snapshot() []ChannelSnapshot {
	return w.cfg.Snapshot()
}

func (w *WormholeUnicastVCTBroadcast) HandleBufferManagement(m msg.BufferMgmtMsg) ([]msg.NetworkMsg, error) {
	list, err := w.cfg.outputFor(m.Endpoint.Channel())
	if err != nil {
		return nil, err
	}
	if err := list.Receive(m); err != nil {
		return nil, err
	}
	return w.Drain(), nil
}

func (w *WormholeUnicastVCTBroadcast) Drain() []msg.NetworkMsg {
	var out []msg.NetworkMsg
	for {
		progressed := false
		for ch := range w.cfg.Inputs {
			for {
				sent, _, emitted, err := w.trySend(ch)
				out = append(out, emitted...)
				if err != nil {
					panic(err) // contract violations are fatal
				}
				if !sent {
					break
				}
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	return out
}

func (w *WormholeUnicastVCTBroadcast) trySend(inputChannel int) (sent, packetDone bool, emitted []msg.NetworkMsg, err error) {
	model, err := w.cfg.inputFor(inputChannel)
	if err != nil {
		return false, false, nil, err
	}
	model.UpdateFlitTime()

	front, ok := model.Front()
	if !ok {
		return false, false, nil, nil
	}

	cur := w.cursors[inputChannel]
	if cur == nil {
		if !front.Kind.Has(flit.KindHead) {
			return false, false, nil, ErrHeadExpected
		}
		cur = &wuvbCursor{route: front.Route, broadcast: len(front.Route) > 1}
		w.cursors[inputChannel] = cur
	}

	if !cur.broadcast {
		return w.trySendUnicast(inputChannel, cur, model, front)
	}
	return w.trySendBroadcast(inputChannel, cur, model, front)
}

// trySendUnicast is the single-endpoint wormhole path: one reservation,
// one allocation, one flit at a time.
func (w *WormholeUnicastVCTBroadcast) trySendUnicast(
	inputChannel int, cur *wuvbCursor, model buffermodel.Model, front flit.HeadFlit,
) (sent, packetDone bool, emitted []msg.NetworkMsg, err error) {
	ep := cur.route[0]
	outCh := ep.Channel()

	before := w.reservations[outCh]
	next, owns := transitionReservation(before, reservationEvent{kind: evtAcquire, input: inputChannel})
	if !owns {
		return false, false, nil, nil
	}
	if before.Owner == Unowned && !front.Kind.Has(flit.KindHead) {
		return false, false, nil, ErrHeadExpected
	}
	w.reservations[outCh] = next

	list, err := w.cfg.outputFor(outCh)
	if err != nil {
		return false, false, nil, err
	}

	n := uint32(front.Length)
	earliest := list.TryAllocate(front.Flit, ep, n)
	if earliest == bufferstatus.Unreachable {
		return false, false, nil, nil
	}
	advanced := front.NormalizedTime
	if earliest > advanced {
		advanced = earliest
	}
	model.AdvanceFrontTime(advanced)
	if err := model.UpdateBufferTime(); err != nil {
		return false, false, nil, err
	}
	front, _ = model.Front()

	if err := list.Allocate(front.Flit, ep, n); err != nil {
		return false, false, nil, err
	}

	out := front
	out.OutputEndpoint = ep
	msgs := []msg.NetworkMsg{msg.DataMsg(out)}
	if bm, hasBm := model.Dequeue(); hasBm {
		msgs = append(msgs, msg.BufferMgmtNetworkMsg(bm))
	}

	if front.Kind.Has(flit.KindTail) {
		released, _ := transitionReservation(w.reservations[outCh], reservationEvent{kind: evtRelease})
		w.reservations[outCh] = released
		w.cursors[inputChannel] = nil
		return true, true, msgs, nil
	}
	return true, false, msgs, nil
}

// trySendBroadcast is the combined-reservation path: the
// HEAD reserves every output channel and allocates the whole packet
// atomically; BODY/TAIL flits then proceed one at a time with no
// further capacity check, since that space was already committed.
func (w *WormholeUnicastVCTBroadcast) trySendBroadcast(
	inputChannel int, cur *wuvbCursor, model buffermodel.Model, front flit.HeadFlit,
) (sent, packetDone bool, emitted []msg.NetworkMsg, err error) {
	if !cur.reserved {
		if !front.Kind.Has(flit.KindHead) {
			return false, false, nil, ErrHeadExpected
		}
		for _, ep := range cur.route {
			st := w.reservations[ep.Channel()]
			if st.Owner != Unowned && st.Owner != inputChannel {
				return false, false, nil, nil
			}
		}

		n := uint32(front.NumFlits)
		maxEarliest := front.NormalizedTime
		for _, ep := range cur.route {
			list, err := w.cfg.outputFor(ep.Channel())
			if err != nil {
				return false, false, nil, err
			}
			t := list.TryAllocate(front.Flit, ep, n)
			if t == bufferstatus.Unreachable {
				return false, false, nil, nil
			}
			if t > maxEarliest {
				maxEarliest = t
			}
		}

		for _, ep := range cur.route {
			w.reservations[ep.Channel()] = Reservation{Owner: inputChannel}
		}
		model.AdvanceFrontTime(maxEarliest)
		if err := model.UpdateBufferTime(); err != nil {
			return false, false, nil, err
		}
		front, _ = model.Front()

		msgs := make([]msg.NetworkMsg, 0, len(cur.route))
		for _, ep := range cur.route {
			list, _ := w.cfg.outputFor(ep.Channel())
			if err := list.Allocate(front.Flit, ep, n); err != nil {
				return false, false, nil, err
			}
			out := front
			out.OutputEndpoint = ep
			msgs = append(msgs, msg.DataMsg(out))
		}
		if bm, hasBm := model.Dequeue(); hasBm {
			msgs = append(msgs, msg.BufferMgmtNetworkMsg(bm))
		}
		cur.reserved = true
		return true, false, msgs, nil
	}

	if err := model.UpdateBufferTime(); err != nil {
		return false, false, nil, err
	}
	front, _ = model.Front()
	bm, hasBm := model.Dequeue()

	msgs := make([]msg.NetworkMsg, 0, len(cur.route))
	for _, ep := range cur.route {
		out := front
		out.OutputEndpoint = ep
		msgs = append(msgs, msg.DataMsg(out))
	}
	if hasBm {
		msgs = append(msgs, msg.BufferMgmtNetworkMsg(bm))
	}

	if front.Kind.Has(flit.KindTail) {
		for _, ep := range cur.route {
			w.reservations[ep.Channel()] = Reservation{Owner: Unowned}
		}
		w.cursors[inputChannel] = nil
		return true, true, msgs, nil
	}
	return true, false, msgs, nil
}
