package msg

import "github.com/dantte-lp/nocrouter/internal/noc/flit"

// NetworkMsgKind distinguishes the two payload shapes a NetworkMsg can
// carry between a flow-control scheme and a NetworkNode.
type NetworkMsgKind uint8

const (
	// KindData carries a flit.
	KindData NetworkMsgKind = iota
	// KindBufferManagement carries a BufferMgmtMsg.
	KindBufferManagement
)

// NetworkMsg is the tagged union of outputs a FlowControlScheme produces:
// either a data flit making progress toward its receiver, or a
// buffer-management message travelling upstream.
type NetworkMsg struct {
	Kind NetworkMsgKind

	Data           flit.HeadFlit
	BufferMgmt     BufferMgmtMsg
	InputChannelID int
}

// DataMsg builds a NetworkMsg carrying a data flit.
func DataMsg(f flit.HeadFlit) NetworkMsg {
	return NetworkMsg{Kind: KindData, Data: f}
}

// BufferMgmtNetworkMsg builds a NetworkMsg carrying an upstream
// buffer-management message.
func BufferMgmtNetworkMsg(m BufferMgmtMsg) NetworkMsg {
	return NetworkMsg{Kind: KindBufferManagement, BufferMgmt: m}
}
