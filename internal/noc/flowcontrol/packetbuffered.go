package flowcontrol

import (
	"github.com/dantte-lp/nocrouter/internal/noc/bufferstatus"
	"github.com/dantte-lp/nocrouter/internal/noc/flit"
	"github.com/dantte-lp/nocrouter/internal/noc/msg"
)

// PacketBuffered implements the store-and-forward and virtual
// cut-through flow-control schemes: both queue whole
// packets as single head flits and share an identical draining
// algorithm, differing only in the upstream packet-division policy that
// decides how early a HEAD may depart (flit.DividePacketBuffer's
// storeAndForward flag). Variant exists only for labeling in logs and
// metrics.
type PacketBuffered struct {
	cfg     Config
	variant string
}

// NewStoreAndForward constructs the store-and-forward scheme over cfg.
func NewStoreAndForward(cfg Config) *PacketBuffered {
	return &PacketBuffered{cfg: cfg, variant: "store_and_forward"}
}

// NewVirtualCutThrough constructs the virtual-cut-through scheme over
// cfg.
func NewVirtualCutThrough(cfg Config) *PacketBuffered {
	return &PacketBuffered{cfg: cfg, variant: "virtual_cut_through"}
}

// Variant reports which of the two identical-flow-control schemes this
// instance labels itself as.
func (p *PacketBuffered) Variant() string {
	return p.variant
}

// Snapshot reports the occupancy of every input channel.
func (p *PacketBuffered) Snapshot() []ChannelSnapshot {
	return p.cfg.Snapshot()
}

func (p *PacketBuffered) HandleData(inputChannel int, f flit.HeadFlit) ([]msg.NetworkMsg, error) {
	model, err := p.cfg.inputFor(inputChannel)
	if err != nil {
		return nil, err
	}
	if !f.Kind.Has(flit.KindHead) {
		return nil, ErrHeadExpected
	}

	var out []msg.NetworkMsg
	if bm, ok := model.Enqueue(f); ok {
		out = append(out, msg.BufferMgmtNetworkMsg(bm))
	}
	out = append(out, p.Drain()...)
	return out, nil
}

func (p *PacketBuffered) HandleBufferManagement(m msg.BufferMgmtMsg) ([]msg.NetworkMsg, error) {
	list, err := p.cfg.outputFor(m.Endpoint.Channel())
	if err != nil {
		return nil, err
	}
	if err := list.Receive(m); err != nil {
		return nil, err
	}
	return p.Drain(), nil
}

func (p *PacketBuffered) Drain() []msg.NetworkMsg {
	var out []msg.NetworkMsg
	for {
		progressed := false
		for ch := range p.cfg.Inputs {
			for {
				sent, emitted, err := p.trySend(ch)
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

func (p *PacketBuffered) trySend(inputChannel int) (sent bool, emitted []msg.NetworkMsg, err error) {
	model, err := p.cfg.inputFor(inputChannel)
	if err != nil {
		return false, nil, err
	}
	model.UpdateFlitTime()

	front, ok := model.Front()
	if !ok {
		return false, nil, nil
	}

	n := uint32(front.Length)
	maxEarliest := front.NormalizedTime
	for _, ep := range front.Route {
		list, err := p.cfg.outputFor(ep.Channel())
		if err != nil {
			return false, nil, err
		}
		t := list.TryAllocate(front.Flit, ep, n)
		if t == bufferstatus.Unreachable {
			return false, nil, nil
		}
		if t > maxEarliest {
			maxEarliest = t
		}
	}

	model.AdvanceFrontTime(maxEarliest)
	if err := model.UpdateBufferTime(); err != nil {
		return false, nil, err
	}
	front, _ = model.Front()

	msgs := make([]msg.NetworkMsg, 0, len(front.Route))
	for _, ep := range front.Route {
		list, err := p.cfg.outputFor(ep.Channel())
		if err != nil {
			return false, nil, err
		}
		if err := list.Allocate(front.Flit, ep, n); err != nil {
			return false, nil, err
		}
		out := front
		out.OutputEndpoint = ep
		msgs = append(msgs, msg.DataMsg(out))
	}

	if bm, hasBm := model.Dequeue(); hasBm {
		msgs = append(msgs, msg.BufferMgmtNetworkMsg(bm))
	}
	return true, msgs, nil
}
