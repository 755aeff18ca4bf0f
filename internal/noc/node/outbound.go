package node

import (
	"fmt"

	"github.com/dantte-lp/nocrouter/internal/noc/msg"
)

// buildOutbound implements : price every outgoing
// NetworkMsg with router and link delay, update power accounting and
// activity counters, expand broadcasts into one packet per neighbor, and
// stamp each resulting NetPacket's wall-clock time.
func (n *NetworkNode) buildOutbound(input msg.NetPacket, outMsgs []msg.NetworkMsg) ([]msg.NetPacket, error) {
	out := make([]msg.NetPacket, 0, len(outMsgs))

	for _, om := range outMsgs {
		switch om.Kind {
		case msg.KindData:
			packets, err := n.buildDataPackets(input, om)
			if err != nil {
				return nil, err
			}
			out = append(out, packets...)
		case msg.KindBufferManagement:
			packet, err := n.buildBufferMgmtPacket(input, om)
			if err != nil {
				return nil, err
			}
			out = append(out, packet)
		default:
			return nil, fmt.Errorf("node: unknown network message kind %d", om.Kind)
		}
	}

	return out, nil
}

func (n *NetworkNode) buildDataPackets(input msg.NetPacket, om msg.NetworkMsg) ([]msg.NetPacket, error) {
	ep := om.Data.OutputEndpoint
	ch := ep.Channel()

	delay := uint64(n.cfg.Router.DataPipelineDelay) + n.linkDelay(ch)
	n.chargeLinkEnergy(ch, om.Data.Length)

	finalNorm := om.Data.NormalizedTime + delay
	n.observe(NodeEvent{Kind: EventCrossbarTraversal, Router: n.cfg.ID, Endpoint: ep, NumFlits: om.Data.Length, Time: finalNorm})
	n.observe(NodeEvent{Kind: EventLinkTraversal, Router: n.cfg.ID, Endpoint: ep, NumFlits: om.Data.Length, Time: finalNorm})
	n.observe(NodeEvent{Kind: EventBufferRead, Router: n.cfg.ID, Endpoint: ep, NumFlits: om.Data.Length, Time: finalNorm})

	hf := om.Data
	hf.NormalizedTime = finalNorm
	wallTime := input.Time + (finalNorm - input.Time)

	base := msg.NetPacket{
		Time: wallTime,
		Sender: n.cfg.ID,
		Type: n.cfg.PacketType,
		SequenceNum: input.SequenceNum,
		Specific: input.Specific,
	}

	if !ep.IsBroadcast() {
		neighbor, err := n.cfg.Outputs.NeighborForOutput(ep)
		if err != nil {
			return nil, err
		}
		hf.OutputEndpoint = ep
		base.Receiver = neighbor
		base.Data = msg.Payload{Kind: msg.PayloadFlit, Flit: msg.DataMsg(hf)}
		return []msg.NetPacket{base}, nil
	}

	subs := n.cfg.Outputs.BroadcastSubEndpoints(ch)
	packets := make([]msg.NetPacket, 0, len(subs))
	for _, sub := range subs {
		neighbor, err := n.cfg.Outputs.NeighborForOutput(sub)
		if err != nil {
			return nil, err
		}
		subFlit := hf
		subFlit.OutputEndpoint = sub
		pkt := base
		pkt.Receiver = neighbor
		pkt.Data = msg.Payload{Kind: msg.PayloadFlit, Flit: msg.DataMsg(subFlit)}
		packets = append(packets, pkt.Clone())
	}
	return packets, nil
}

func (n *NetworkNode) buildBufferMgmtPacket(input msg.NetPacket, om msg.NetworkMsg) (msg.NetPacket, error) {
	ep := om.BufferMgmt.Endpoint

	remote, err := n.cfg.Topology.Resolve(n.cfg.PacketType, ep)
	if err != nil {
		return msg.NetPacket{}, err
	}
	neighbor, err := n.cfg.Inputs.NeighborForInput(ep)
	if err != nil {
		return msg.NetPacket{}, err
	}

	delay := remote.CreditPipelineDelay() + remote.LinkDelay(ep)
	finalTime := om.BufferMgmt.Time + delay
	n.observe(NodeEvent{Kind: EventLinkTraversal, Router: n.cfg.ID, Endpoint: ep, Time: finalTime})

	bm := om.BufferMgmt
	bm.Time = finalTime
	wallTime := input.Time + (finalTime - input.Time)

	return msg.NetPacket{
		Time: wallTime,
		Sender: n.cfg.ID,
		Receiver: neighbor,
		Type: n.cfg.PacketType,
		Data: msg.Payload{Kind: msg.PayloadBufferMgmt, BufferMgmt: bm},
		SequenceNum: input.SequenceNum,
		Specific: input.Specific,
	}, nil
}

func (n *NetworkNode) linkDelay(channel int) uint64 {
	if lp, ok := n.cfg.LinkPerf[channel]; ok {
		return lp.GetDelay()
	}
	return 0
}

func (n *NetworkNode) chargeLinkEnergy(channel int, numFlits uint64) {
	power, ok := n.cfg.LinkPower[channel]
	if !ok {
		return
	}
	power.UpdateDynamicEnergy(HalfWidthBitFlips(n.cfg.FlitWidth), numFlits)
}
