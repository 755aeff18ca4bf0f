// Package msg defines the message types that flow between flow-control
// schemes and network nodes, and the external NetPacket wire envelope.
package msg

import "github.com/dantte-lp/nocrouter/internal/noc/endpoint"

// BufferMgmtKind distinguishes the two buffer-management message shapes.
type BufferMgmtKind uint8

const (
	// KindCredit is an upstream credit return.
	KindCredit BufferMgmtKind = iota
	// KindOnOff is an upstream on/off toggle.
	KindOnOff
)

// BufferMgmtMsg is either a Credit(num_credits) or an OnOff(status)
// message, tagged by Kind. Only the field matching Kind is meaningful.
type BufferMgmtMsg struct {
	Kind BufferMgmtKind

	// NumCredits is valid when Kind == KindCredit.
	NumCredits uint32

	// OnOffStatus is valid when Kind == KindOnOff; true means "on"
	// (buffer has room), false means "off".
	OnOffStatus bool

	// Time is the normalized time this message was generated.
	Time uint64

	// Endpoint is the endpoint this message refers to.
	Endpoint endpoint.Endpoint

	// AverageRateOfProgress is advisory and may be zero.
	AverageRateOfProgress float64
}

// Credit builds a credit buffer-management message.
func Credit(numCredits uint32, t uint64, ep endpoint.Endpoint) BufferMgmtMsg {
	return BufferMgmtMsg{Kind: KindCredit, NumCredits: numCredits, Time: t, Endpoint: ep}
}

// OnOff builds an on/off buffer-management message.
func OnOff(status bool, t uint64, ep endpoint.Endpoint) BufferMgmtMsg {
	return BufferMgmtMsg{Kind: KindOnOff, OnOffStatus: status, Time: t, Endpoint: ep}
}
