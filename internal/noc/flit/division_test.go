package flit_test

import (
	"errors"
	"testing"

	"github.com/dantte-lp/nocrouter/internal/noc/endpoint"
	"github.com/dantte-lp/nocrouter/internal/noc/flit"
)

func TestNumFlits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		sizeBytes     uint64
		flitWidthBits uint64
		want          int
		wantErr       error
	}{
		{"exact multiple", 16, 64, 2, nil},
		{"rounds up", 17, 64, 3, nil},
		{"single flit", 4, 64, 1, nil},
		{"zero size", 0, 64, 0, flit.ErrInvalidPacketSize},
		{"zero width", 16, 0, 0, flit.ErrInvalidFlitWidth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := flit.NumFlits(tt.sizeBytes, tt.flitWidthBits)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("NumFlits() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NumFlits() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("NumFlits(%d, %d) = %d, want %d", tt.sizeBytes, tt.flitWidthBits, got, tt.want)
			}
		})
	}
}

func TestDivideFlitBufferSingleFlit(t *testing.T) {
	t.Parallel()

	route := []endpoint.Endpoint{endpoint.Specific(0, 0)}
	flits := flit.DivideFlitBuffer(1, 2, 100, route, 1)

	if len(flits) != 1 {
		t.Fatalf("len(flits) = %d, want 1", len(flits))
	}
	if !flits[0].Kind.Has(flit.KindHead) || !flits[0].Kind.Has(flit.KindTail) {
		t.Errorf("single flit Kind = %v, want HEAD+TAIL", flits[0].Kind)
	}
}

func TestDivideFlitBufferMultiFlit(t *testing.T) {
	t.Parallel()

	route := []endpoint.Endpoint{endpoint.Specific(0, 0)}
	flits := flit.DivideFlitBuffer(1, 2, 100, route, 4)

	if len(flits) != 4 {
		t.Fatalf("len(flits) = %d, want 4", len(flits))
	}
	if !flits[0].Kind.Has(flit.KindHead) || flits[0].Kind.Has(flit.KindTail) {
		t.Errorf("flits[0].Kind = %v, want HEAD only", flits[0].Kind)
	}
	for i := 1; i < 3; i++ {
		if flits[i].Kind != flit.KindBody {
			t.Errorf("flits[%d].Kind = %v, want BODY", i, flits[i].Kind)
		}
	}
	if flits[3].Kind != flit.KindTail {
		t.Errorf("flits[3].Kind = %v, want TAIL", flits[3].Kind)
	}
	for i, f := range flits {
		if f.Length != 1 {
			t.Errorf("flits[%d].Length = %d, want 1", i, f.Length)
		}
	}
	if flits[0].NumFlits != 4 {
		t.Errorf("flits[0].NumFlits = %d, want 4", flits[0].NumFlits)
	}
}

func TestDividePacketBufferVirtualCutThrough(t *testing.T) {
	t.Parallel()

	route := []endpoint.Endpoint{endpoint.Specific(0, 0)}
	hf := flit.DividePacketBuffer(1, 2, 100, route, 5, false)

	if hf.EntryTime != 100 {
		t.Errorf("EntryTime = %d, want 100 (VCT departs immediately)", hf.EntryTime)
	}
	if hf.Length != 5 {
		t.Errorf("Length = %d, want 5", hf.Length)
	}
	if !hf.Kind.Has(flit.KindHead) || !hf.Kind.Has(flit.KindTail) {
		t.Errorf("Kind = %v, want HEAD+TAIL", hf.Kind)
	}
}

func TestDividePacketBufferStoreAndForward(t *testing.T) {
	t.Parallel()

	route := []endpoint.Endpoint{endpoint.Specific(0, 0)}
	hf := flit.DividePacketBuffer(1, 2, 100, route, 5, true)

	if hf.EntryTime != 104 {
		t.Errorf("EntryTime = %d, want 104 (100 + (5-1))", hf.EntryTime)
	}
}
