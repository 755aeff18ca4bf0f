package bufferstatus

import (
	"errors"

	"github.com/dantte-lp/nocrouter/internal/noc/flit"
	"github.com/dantte-lp/nocrouter/internal/noc/msg"
)

// ErrOnOffPolarity indicates a received on/off message did not alternate
// polarity relative to the current status, and was not a same-timestamp
// no-op repeat.
var ErrOnOffPolarity = errors.New("bufferstatus: on/off message does not alternate polarity")

// OnOff tracks a downstream on/off status, initially on, plus the
// strictly monotone time of the most recently received message.
type OnOff struct {
	status      bool
	lastMsgTime uint64
	seenMsg     bool
}

// NewOnOff constructs an OnOff status, initially on.
func NewOnOff() *OnOff {
	return &OnOff{status: true}
}

func (o *OnOff) TryAllocate(_ flit.Flit, nBuffers uint32) uint64 {
	if nBuffers != 1 {
		return Unreachable
	}
	if !o.status {
		return Unreachable
	}
	return o.lastMsgTime
}

func (o *OnOff) Allocate(_ flit.Flit, nBuffers uint32) error {
	if nBuffers != 1 {
		return ErrBroadcastWidth
	}
	if !o.status {
		return ErrStatusOff
	}
	return nil
}

func (o *OnOff) Receive(m msg.BufferMgmtMsg) error {
	if o.seenMsg && m.Time == o.lastMsgTime && m.OnOffStatus == o.status {
		return nil
	}
	if o.seenMsg && m.Time <= o.lastMsgTime {
		return ErrNonMonotoneMessage
	}
	if o.seenMsg && m.OnOffStatus == o.status {
		return ErrOnOffPolarity
	}
	o.status = m.OnOffStatus
	o.lastMsgTime = m.Time
	o.seenMsg = true
	return nil
}
