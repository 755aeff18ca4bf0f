package api_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dantte-lp/nocrouter/internal/api"
	"github.com/dantte-lp/nocrouter/internal/noc/bufferstatus"
	"github.com/dantte-lp/nocrouter/internal/noc/buffermodel"
	"github.com/dantte-lp/nocrouter/internal/noc/endpoint"
	"github.com/dantte-lp/nocrouter/internal/noc/flowcontrol"
	"github.com/dantte-lp/nocrouter/internal/noc/msg"
	"github.com/dantte-lp/nocrouter/internal/noc/node"
	"github.com/dantte-lp/nocrouter/internal/noc/router"
	"github.com/dantte-lp/nocrouter/internal/trace"
)

// setupTestServer builds a one-node Registry and returns a running
// httptest.Server exposing it, along with the node's own id.
func setupTestServer(t *testing.T) (*httptest.Server, endpoint.RouterID) {
	t.Helper()

	self := endpoint.RouterID{CoreID: 0}
	neighbor := endpoint.RouterID{CoreID: 1}
	inputs := endpoint.NewMapping(map[endpoint.RouterID]endpoint.Endpoint{neighbor: endpoint.Specific(0, 0)}, nil)
	outputs := endpoint.NewMapping(nil, map[endpoint.RouterID]endpoint.Endpoint{neighbor: endpoint.Specific(0, 0)})

	schemeCfg := flowcontrol.Config{
		Inputs:  []buffermodel.Model{buffermodel.NewInfinite(endpoint.Specific(0, 0))},
		Outputs: map[int]*bufferstatus.List{0: bufferstatus.NewList([]bufferstatus.Status{bufferstatus.Infinite{}})},
	}
	scheme := flowcontrol.NewWormhole(schemeCfg)
	pm := router.NewPerformanceModel(scheme, 1, 1)

	n := node.New(node.Config{
		ID:      self,
		Router:  pm,
		Inputs:  inputs,
		Outputs: outputs,
	})

	reg := api.NewRegistry(map[endpoint.RouterID]*node.NetworkNode{self: n}, trace.NewEventQueue())

	logger := slog.New(slog.DiscardHandler)
	srv := httptest.NewServer(api.New(reg, logger))
	t.Cleanup(srv.Close)

	return srv, self
}

func TestListNodes(t *testing.T) {
	t.Parallel()

	srv, self := setupTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/nodes")
	if err != nil {
		t.Fatalf("GET /v1/nodes: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var nodes []api.NodeSummary
	if err := json.NewDecoder(resp.Body).Decode(&nodes); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(nodes) != 1 || nodes[0].ID != self {
		t.Errorf("nodes = %+v, want single entry %+v", nodes, self)
	}
}

func TestNodeStatus(t *testing.T) {
	t.Parallel()

	srv, self := setupTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/nodes/" + self.String())
	if err != nil {
		t.Fatalf("GET /v1/nodes/%s: %v", self, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var status api.NodeStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(status.Channels) != 1 || !status.Channels[0].Empty {
		t.Errorf("channels = %+v, want one empty channel", status.Channels)
	}
}

func TestNodeStatusUnknownReturns404(t *testing.T) {
	t.Parallel()

	srv, _ := setupTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/nodes/99/0")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestNodeStatusMalformedIDReturns400(t *testing.T) {
	t.Parallel()

	srv, _ := setupTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/nodes/not-an-id")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestInjectPacket(t *testing.T) {
	t.Parallel()

	srv, self := setupTestServer(t)

	body, err := json.Marshal(struct {
		Packet msg.NetPacket `json:"packet"`
	}{Packet: msg.NetPacket{
		Time:     0,
		Sender:   endpoint.RouterID{CoreID: 1},
		Receiver: self,
		Type:     0,
		Data: msg.Payload{
			Kind: msg.PayloadBufferMgmt,
			BufferMgmt: msg.BufferMgmtMsg{
				Kind:       msg.KindCredit,
				NumCredits: 1,
			},
		},
	}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	resp, err := http.Post(srv.URL+"/v1/inject", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /v1/inject: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var out struct {
		QueueDepth int `json:"queue_depth"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.QueueDepth != 1 {
		t.Errorf("queue depth = %d, want 1", out.QueueDepth)
	}
}

func TestInjectUnknownDestinationReturns404(t *testing.T) {
	t.Parallel()

	srv, _ := setupTestServer(t)

	body, _ := json.Marshal(struct {
		Packet msg.NetPacket `json:"packet"`
	}{Packet: msg.NetPacket{Receiver: endpoint.RouterID{CoreID: 99}}})

	resp, err := http.Post(srv.URL+"/v1/inject", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /v1/inject: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
