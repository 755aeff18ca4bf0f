package router_test

import (
	"testing"

	"github.com/dantte-lp/nocrouter/internal/noc/bufferstatus"
	"github.com/dantte-lp/nocrouter/internal/noc/buffermodel"
	"github.com/dantte-lp/nocrouter/internal/noc/endpoint"
	"github.com/dantte-lp/nocrouter/internal/noc/flit"
	"github.com/dantte-lp/nocrouter/internal/noc/flowcontrol"
	"github.com/dantte-lp/nocrouter/internal/noc/router"
)

func TestPerformanceModelProcessDataMsg(t *testing.T) {
	t.Parallel()

	inputs := []buffermodel.Model{buffermodel.NewInfinite(endpoint.Specific(0, 0))}
	outputs := map[int]*bufferstatus.List{
		0: bufferstatus.NewList([]bufferstatus.Status{bufferstatus.Infinite{}}),
	}
	scheme := flowcontrol.NewWormhole(flowcontrol.Config{Inputs: inputs, Outputs: outputs})
	pm := router.NewPerformanceModel(scheme, 2, 1)

	route := []endpoint.Endpoint{endpoint.Specific(0, 0)}
	hf := flit.DivideFlitBuffer(1, 2, 0, route, 1)[0]

	out, err := pm.ProcessDataMsg(0, hf)
	if err != nil {
		t.Fatalf("ProcessDataMsg() error: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("ProcessDataMsg() produced no outbound messages")
	}
	if pm.DataPipelineDelay != 2 || pm.CreditPipelineDelay != 1 {
		t.Errorf("pipeline delays = %d/%d, want 2/1", pm.DataPipelineDelay, pm.CreditPipelineDelay)
	}
}

func TestCommonPipelineDelayHelpers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name             string
		delay            uint32
		wantIsCommon     bool
		wantNearest      uint32
		wantAlignedUpTo  uint32
	}{
		{"exactly 1", 1, true, 1, 1},
		{"exactly 2", 2, true, 2, 2},
		{"exactly 4", 4, true, 4, 4},
		{"2 rounds to itself", 2, true, 2, 2},
		{"3 nearest to 2 or 4 (tie breaks low)", 3, false, 2, 4},
		{"above largest common delay", 6, false, 4, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := router.IsCommonPipelineDelay(tt.delay); got != tt.wantIsCommon {
				t.Errorf("IsCommonPipelineDelay(%d) = %v, want %v", tt.delay, got, tt.wantIsCommon)
			}
			if got := router.NearestCommonDelay(tt.delay); got != tt.wantNearest {
				t.Errorf("NearestCommonDelay(%d) = %d, want %d", tt.delay, got, tt.wantNearest)
			}
			if got := router.AlignToCommonDelay(tt.delay); got != tt.wantAlignedUpTo {
				t.Errorf("AlignToCommonDelay(%d) = %d, want %d", tt.delay, got, tt.wantAlignedUpTo)
			}
		})
	}
}
