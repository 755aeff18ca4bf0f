package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dantte-lp/nocrouter/internal/noc/endpoint"
	"github.com/dantte-lp/nocrouter/internal/noc/flowcontrol"
	"github.com/dantte-lp/nocrouter/internal/noc/msg"
)

// nodeSummary mirrors internal/api.NodeSummary's wire shape.
type nodeSummary struct {
	ID endpoint.RouterID `json:"id"`
}

// nodeStatus mirrors internal/api.NodeStatus's wire shape.
type nodeStatus struct {
	ID       endpoint.RouterID             `json:"id"`
	Channels []flowcontrol.ChannelSnapshot `json:"channels"`
}

// injectResult mirrors the body handleInject writes on success.
type injectResult struct {
	QueueDepth int `json:"queue_depth"`
}

// apiError mirrors writeError's body.
type apiError struct {
	Error string `json:"error"`
}

// apiClient is a thin JSON-over-HTTP client for internal/api's admin
// surface -- the plain net/http analogue of gobfdctl's generated
// ConnectRPC client.
type apiClient struct {
	http    *http.Client
	baseURL string
}

func newAPIClient(h *http.Client, baseURL string) *apiClient {
	return &apiClient{http: h, baseURL: baseURL}
}

func (c *apiClient) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s", method, path, apiErr.Error)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *apiClient) ListNodes(ctx context.Context) ([]nodeSummary, error) {
	var out []nodeSummary
	if err := c.do(ctx, http.MethodGet, "/v1/nodes", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *apiClient) NodeStatus(ctx context.Context, id endpoint.RouterID) (nodeStatus, error) {
	var out nodeStatus
	if err := c.do(ctx, http.MethodGet, "/v1/nodes/"+id.String(), nil, &out); err != nil {
		return nodeStatus{}, err
	}
	return out, nil
}

func (c *apiClient) Inject(ctx context.Context, pkt msg.NetPacket) (injectResult, error) {
	var out injectResult
	body := struct {
		Packet msg.NetPacket `json:"packet"`
	}{Packet: pkt}
	if err := c.do(ctx, http.MethodPost, "/v1/inject", body, &out); err != nil {
		return injectResult{}, err
	}
	return out, nil
}
