package flit

import (
	"errors"

	"github.com/dantte-lp/nocrouter/internal/noc/endpoint"
)

// ErrInvalidPacketSize indicates a non-positive modeled packet size.
var ErrInvalidPacketSize = errors.New("packet size must be positive")

// ErrInvalidFlitWidth indicates a non-positive flit width.
var ErrInvalidFlitWidth = errors.New("flit width must be positive")

// NumFlits computes N = ceil(8*sizeBytes / flitWidthBits), the flit count
// for a modeled packet of sizeBytes bytes at flitWidthBits bits per flit.
func NumFlits(sizeBytes, flitWidthBits uint64) (int, error) {
	if sizeBytes == 0 {
		return 0, ErrInvalidPacketSize
	}
	if flitWidthBits == 0 {
		return 0, ErrInvalidFlitWidth
	}
	bits := sizeBytes * 8
	n := bits / flitWidthBits
	if bits%flitWidthBits != 0 {
		n++
	}
	if n == 0 {
		n = 1
	}
	return int(n), nil
}

// DivideFlitBuffer implements the flit-buffer packet-division policy: N
// distinct length-1 flits, one HEAD, N-2 BODY, one TAIL. If N == 1 the
// single flit is both HEAD and TAIL.
func DivideFlitBuffer(
	senderCore, receiverCore int,
	entryTime uint64,
	route []endpoint.Endpoint,
	numFlits int,
) []HeadFlit {
	flits := make([]HeadFlit, 0, numFlits)
	head := HeadFlit{
		Flit: Flit{
			Kind: KindHead,
			Length: 1,
			SenderCoreID: senderCore,
			ReceiverCoreID: receiverCore,
			EntryTime: entryTime,
			NormalizedTime: entryTime,
		},
		NumFlits: numFlits,
		Route: route,
	}
	if numFlits == 1 {
		head.Kind |= KindTail
		return []HeadFlit{head}
	}
	flits = append(flits, head)

	for i := 1; i < numFlits-1; i++ {
		flits = append(flits, HeadFlit{
			Flit: Flit{
				Kind: KindBody,
				Length: 1,
				SenderCoreID: senderCore,
				ReceiverCoreID: receiverCore,
				EntryTime: entryTime,
				NormalizedTime: entryTime,
			},
		})
	}

	flits = append(flits, HeadFlit{
		Flit: Flit{
			Kind: KindTail,
			Length: 1,
			SenderCoreID: senderCore,
			ReceiverCoreID: receiverCore,
			EntryTime: entryTime,
			NormalizedTime: entryTime,
		},
	})

	return flits
}

// DividePacketBuffer implements the packet-buffer policy: a single HEAD flit whose
// Length equals the packet's serialization latency in phits;
// serializationLatency is the caller-supplied one-flit tail added on top
// of the modeled payload. storeAndForward, when true, adds
// (serializationLatency - 1) to the HEAD's entry time so the whole
// packet is serialized at the upstream router before it can depart
//; when false (virtual cut-through), the HEAD departs as
// soon as the first flit could.
func DividePacketBuffer(
	senderCore, receiverCore int,
	entryTime uint64,
	route []endpoint.Endpoint,
	serializationLatency uint64,
	storeAndForward bool,
) HeadFlit {
	headTime := entryTime
	if storeAndForward && serializationLatency > 0 {
		headTime = entryTime + (serializationLatency - 1)
	}
	return HeadFlit{
		Flit: Flit{
			Kind: KindHead | KindTail,
			Length: serializationLatency,
			SenderCoreID: senderCore,
			ReceiverCoreID: receiverCore,
			EntryTime: headTime,
			NormalizedTime: headTime,
		},
		NumFlits: 1,
		Route: route,
	}
}
