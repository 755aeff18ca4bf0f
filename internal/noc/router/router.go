// Package router owns the router-level performance model: one
// flow-control scheme plus the two fixed pipeline delays every outgoing
// message accrues.
package router

import (
	"github.com/dantte-lp/nocrouter/internal/noc/flit"
	"github.com/dantte-lp/nocrouter/internal/noc/flowcontrol"
	"github.com/dantte-lp/nocrouter/internal/noc/msg"
)

// PerformanceModel owns a flow-control scheme and the router's two
// pipeline delays, applied by the caller to every outgoing message by
// kind: DataPipelineDelay to flits, CreditPipelineDelay to
// buffer-management messages.
type PerformanceModel struct {
	Scheme              flowcontrol.Scheme
	DataPipelineDelay   uint32
	CreditPipelineDelay uint32
}

// NewPerformanceModel constructs a PerformanceModel over the given
// scheme and pipeline delays.
func NewPerformanceModel(scheme flowcontrol.Scheme, dataPipelineDelay, creditPipelineDelay uint32) *PerformanceModel {
	return &PerformanceModel{
		Scheme: scheme,
		DataPipelineDelay: dataPipelineDelay,
		CreditPipelineDelay: creditPipelineDelay,
	}
}

// ProcessDataMsg admits a flit arriving on inputChannel into the router's
// flow-control scheme and returns the outgoing network messages it
// produces.
func (p *PerformanceModel) ProcessDataMsg(inputChannel int, f flit.HeadFlit) ([]msg.NetworkMsg, error) {
	return p.Scheme.HandleData(inputChannel, f)
}

// Snapshot reports the occupancy of every input channel in the
// underlying flow-control scheme.
func (p *PerformanceModel) Snapshot() []flowcontrol.ChannelSnapshot {
	return p.Scheme.Snapshot()
}

// ProcessBufferManagementMsg applies a downstream buffer-management
// message to the router's flow-control scheme and returns the outgoing
// network messages it produces.
func (p *PerformanceModel) ProcessBufferManagementMsg(m msg.BufferMgmtMsg) ([]msg.NetworkMsg, error) {
	return p.Scheme.HandleBufferManagement(m)
}
