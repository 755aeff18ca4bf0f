package flowcontrol

import (
	"github.com/dantte-lp/nocrouter/internal/noc/bufferstatus"
	"github.com/dantte-lp/nocrouter/internal/noc/endpoint"
	"github.com/dantte-lp/nocrouter/internal/noc/flit"
	"github.com/dantte-lp/nocrouter/internal/noc/msg"
)

// routeCursor tracks, per input channel, the flit-buffer output-endpoint
// list currently being drained and how far the current flit has
// progressed through it. Every flit of a packet walks the
// same route from index 0; the cursor only advances past the last index
// once a full packet (its TAIL) has departed every endpoint.
type routeCursor struct {
	route []endpoint.Endpoint
	pos   int
}

// Wormhole implements the wormhole flow-control scheme:
// flits depart one at a time, each output channel reserved to a single
// input channel for the life of a packet.
type Wormhole struct {
	cfg          Config
	cursors      []*routeCursor
	reservations map[int]Reservation
}

// NewWormhole constructs a Wormhole scheme over cfg.
func NewWormhole(cfg Config) *Wormhole {
	return &Wormhole{
		cfg: cfg,
		cursors: make([]*routeCursor, len(cfg.Inputs)),
		reservations: make(map[int]Reservation),
	}
}

func (w *Wormhole) HandleData(inputChannel int, f flit.HeadFlit) ([]msg.NetworkMsg, error) {
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
func (w *Wormhole) Snapshot() []ChannelSnapshot {
	return w.cfg.Snapshot()
}

func (w *Wormhole) HandleBufferManagement(m msg.BufferMgmtMsg) ([]msg.NetworkMsg, error) {
	list, err := w.cfg.outputFor(m.Endpoint.Channel())
	if err != nil {
		return nil, err
	}
	if err := list.Receive(m); err != nil {
		return nil, err
	}
	return w.Drain(), nil
}

func (w *Wormhole) Drain() []msg.NetworkMsg {
	var out []msg.NetworkMsg
	for {
		progressed := false
		for ch := range w.cfg.Inputs {
			for {
				sent, _, emitted, err := w.trySend(ch)
				out = append(out, emitted...)
				if err != nil {
					panic(err) // contract violations are fatal, no recovery path
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

// trySend attempts to advance the head flit of inputChannel one
// endpoint further through its route.
func (w *Wormhole) trySend(inputChannel int) (sent, packetDone bool, emitted []msg.NetworkMsg, err error) {
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
		cur = &routeCursor{route: front.Route}
		w.cursors[inputChannel] = cur
	}

	ep := cur.route[cur.pos]
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

	isLast := cur.pos == len(cur.route)-1

	out := front
	out.OutputEndpoint = ep
	msgs := []msg.NetworkMsg{msg.DataMsg(out)}

	if isLast {
		if bm, hasBm := model.Dequeue(); hasBm {
			msgs = append(msgs, msg.BufferMgmtNetworkMsg(bm))
		}
	}

	if front.Kind.Has(flit.KindTail) {
		released, _ := transitionReservation(w.reservations[outCh], reservationEvent{kind: evtRelease})
		w.reservations[outCh] = released
	}

	if isLast {
		if front.Kind.Has(flit.KindTail) {
			w.cursors[inputChannel] = nil
			return true, true, msgs, nil
		}
		cur.pos = 0
		return true, false, msgs, nil
	}

	cur.pos++
	return true, false, msgs, nil
}
