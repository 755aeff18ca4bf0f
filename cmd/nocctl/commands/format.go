package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
)

const (
	formatJSON  = "json"
	formatTable = "table"
)

// errUnsupportedFormat is returned when the requested output format is
// not supported.
var errUnsupportedFormat = errors.New("unsupported output format")

// formatNodeList renders a node summary list in the requested format.
func formatNodeList(nodes []nodeSummary, format string) (string, error) {
	switch format {
	case formatJSON:
		return formatJSONValue(nodes)
	case formatTable:
		return formatNodeListTable(nodes), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

// formatNodeDetail renders one node's channel snapshot in the requested
// format.
func formatNodeDetail(status nodeStatus, format string) (string, error) {
	switch format {
	case formatJSON:
		return formatJSONValue(status)
	case formatTable:
		return formatNodeDetailTable(status), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

// formatInjectResult renders the outcome of an injection in the
// requested format.
func formatInjectResult(result injectResult, format string) (string, error) {
	switch format {
	case formatJSON:
		return formatJSONValue(result)
	case formatTable:
		return fmt.Sprintf("injected; queue depth now %d", result.QueueDepth), nil
	default:
		return "", fmt.Errorf("%w: %q", errUnsupportedFormat, format)
	}
}

func formatJSONValue(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal to JSON: %w", err)
	}
	return string(data), nil
}

func formatNodeListTable(nodes []nodeSummary) string {
	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ROUTER")

	for _, n := range nodes {
		fmt.Fprintf(w, "%s\n", n.ID)
	}

	_ = w.Flush()
	return buf.String()
}

func formatNodeDetailTable(status nodeStatus) string {
	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	fmt.Fprintf(w, "Router:\t%s\n", status.ID)
	fmt.Fprintln(w, "CHANNEL\tEMPTY\tQUEUE-TIME\tENDPOINT")
	for _, ch := range status.Channels {
		fmt.Fprintf(w, "%d\t%t\t%d\t%s\n", ch.Channel, ch.Empty, ch.QueueTime, ch.Endpoint)
	}

	_ = w.Flush()
	return buf.String()
}
