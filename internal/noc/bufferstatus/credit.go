package bufferstatus

import (
	"github.com/dantte-lp/nocrouter/internal/noc/flit"
	"github.com/dantte-lp/nocrouter/internal/noc/msg"
)

// Credit tracks a downstream credit counter, initialized to the
// downstream buffer size, plus the strictly monotone time of the most
// recently received credit message.
type Credit struct {
	count       uint32
	lastMsgTime uint64
	seenMsg     bool
}

// NewCredit constructs a Credit status initialized to bufferSize
// credits.
func NewCredit(bufferSize uint32) *Credit {
	return &Credit{count: bufferSize}
}

func (c *Credit) TryAllocate(_ flit.Flit, nBuffers uint32) uint64 {
	if nBuffers > c.count {
		return Unreachable
	}
	return c.lastMsgTime
}

func (c *Credit) Allocate(_ flit.Flit, nBuffers uint32) error {
	if nBuffers > c.count {
		return ErrCreditUnderflow
	}
	c.count -= nBuffers
	return nil
}

func (c *Credit) Receive(m msg.BufferMgmtMsg) error {
	if c.seenMsg && m.Time <= c.lastMsgTime {
		return ErrNonMonotoneMessage
	}
	c.count += m.NumCredits
	c.lastMsgTime = m.Time
	c.seenMsg = true
	return nil
}
