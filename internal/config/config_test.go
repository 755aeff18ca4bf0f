package config_test

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/dantte-lp/nocrouter/internal/config"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()

	if cfg.Admin.Addr != ":8080" {
		t.Errorf("Admin.Addr = %q, want %q", cfg.Admin.Addr, ":8080")
	}

	if cfg.Metrics.Addr != ":9100" {
		t.Errorf("Metrics.Addr = %q, want %q", cfg.Metrics.Addr, ":9100")
	}

	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %q, want %q", cfg.Metrics.Path, "/metrics")
	}

	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}

	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "json")
	}

	// Defaults declare no routers, so they fail validation on their own --
	// a caller must supply at least one router before Validate passes.
	cfg.Routers = map[string]config.RouterConfig{
		"r0": {FlowControlScheme: "wormhole"},
	}
	if err := config.Validate(cfg); err != nil {
		t.Errorf("DefaultConfig() with one router failed validation: %v", err)
	}
}

func TestLoadFromYAML(t *testing.T) {
	t.Parallel()

	yamlContent := `
admin:
  addr: ":60000"
metrics:
  addr: ":9200"
  path: "/custom-metrics"
log:
  level: "debug"
  format: "text"
topology:
  nodes: ["r0", "r1"]
  links:
    - from_node: "r0"
      from_channel: 0
      to_node: "r1"
      to_channel: 0
      delay: 2
routers:
  r0:
    flow_control_scheme: "wormhole"
    data_pipeline_delay: 2
    credit_pipeline_delay: 1
    flit_width_bits: 128
    channels:
      0:
        buffer_management_scheme: "credit"
        buffer_size: 8
  r1:
    flow_control_scheme: "store_and_forward"
`

	path := writeTemp(t, yamlContent)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if cfg.Admin.Addr != ":60000" {
		t.Errorf("Admin.Addr = %q, want %q", cfg.Admin.Addr, ":60000")
	}

	if cfg.Metrics.Addr != ":9200" {
		t.Errorf("Metrics.Addr = %q, want %q", cfg.Metrics.Addr, ":9200")
	}

	if cfg.Metrics.Path != "/custom-metrics" {
		t.Errorf("Metrics.Path = %q, want %q", cfg.Metrics.Path, "/custom-metrics")
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}

	if cfg.Log.Format != "text" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "text")
	}

	if len(cfg.Topology.Nodes) != 2 {
		t.Fatalf("Topology.Nodes count = %d, want 2", len(cfg.Topology.Nodes))
	}

	if len(cfg.Topology.Links) != 1 {
		t.Fatalf("Topology.Links count = %d, want 1", len(cfg.Topology.Links))
	}
	link := cfg.Topology.Links[0]
	if link.FromNode != "r0" || link.ToNode != "r1" || link.Delay != 2 {
		t.Errorf("Links[0] = %+v, want from=r0 to=r1 delay=2", link)
	}

	r0, ok := cfg.Routers["r0"]
	if !ok {
		t.Fatal(`Routers["r0"] missing`)
	}
	if r0.FlowControlScheme != "wormhole" {
		t.Errorf("r0.FlowControlScheme = %q, want %q", r0.FlowControlScheme, "wormhole")
	}
	if r0.DataPipelineDelay != 2 {
		t.Errorf("r0.DataPipelineDelay = %d, want 2", r0.DataPipelineDelay)
	}
	ch0, ok := r0.Channels[0]
	if !ok {
		t.Fatal("r0.Channels[0] missing")
	}
	if ch0.BufferManagementScheme != "credit" || ch0.BufferSize != 8 {
		t.Errorf("r0.Channels[0] = %+v, want scheme=credit size=8", ch0)
	}
}

func TestLoadMergesDefaults(t *testing.T) {
	t.Parallel()

	yamlContent := `
admin:
  addr: ":55555"
log:
  level: "warn"
routers:
  r0:
    flow_control_scheme: "wormhole"
`

	path := writeTemp(t, yamlContent)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if cfg.Admin.Addr != ":55555" {
		t.Errorf("Admin.Addr = %q, want %q", cfg.Admin.Addr, ":55555")
	}

	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "warn")
	}

	if cfg.Metrics.Addr != ":9100" {
		t.Errorf("Metrics.Addr = %q, want default %q", cfg.Metrics.Addr, ":9100")
	}

	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %q, want default %q", cfg.Metrics.Path, "/metrics")
	}

	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want default %q", cfg.Log.Format, "json")
	}
}

func TestValidateErrors(t *testing.T) {
	t.Parallel()

	baseRouters := map[string]config.RouterConfig{
		"r0": {FlowControlScheme: "wormhole"},
	}

	tests := []struct {
		name    string
		modify  func(*config.Config)
		wantErr error
	}{
		{
			name: "empty admin addr",
			modify: func(cfg *config.Config) {
				cfg.Routers = baseRouters
				cfg.Admin.Addr = ""
			},
			wantErr: config.ErrEmptyAdminAddr,
		},
		{
			name: "no routers",
			modify: func(cfg *config.Config) {
				cfg.Routers = nil
			},
			wantErr: config.ErrNoRouters,
		},
		{
			name: "unknown flow control scheme",
			modify: func(cfg *config.Config) {
				cfg.Routers = map[string]config.RouterConfig{
					"r0": {FlowControlScheme: "bogus"},
				}
			},
			wantErr: config.ErrUnknownFlowControlScheme,
		},
		{
			name: "unknown buffer management scheme",
			modify: func(cfg *config.Config) {
				cfg.Routers = map[string]config.RouterConfig{
					"r0": {
						FlowControlScheme: "wormhole",
						Channels: map[int]config.ChannelConfig{
							0: {BufferManagementScheme: "bogus"},
						},
					},
				}
			},
			wantErr: config.ErrUnknownBufferManagementScheme,
		},
		{
			name: "link references undeclared node",
			modify: func(cfg *config.Config) {
				cfg.Routers = baseRouters
				cfg.Topology = config.TopologyConfig{
					Nodes: []string{"r0"},
					Links: []config.LinkConfig{
						{FromNode: "r0", ToNode: "r1"},
					},
				}
			},
			wantErr: config.ErrInvalidLink,
		},
		{
			name: "duplicate link source",
			modify: func(cfg *config.Config) {
				cfg.Routers = baseRouters
				cfg.Topology = config.TopologyConfig{
					Nodes: []string{"r0", "r1", "r2"},
					Links: []config.LinkConfig{
						{FromNode: "r0", FromChannel: 0, ToNode: "r1"},
						{FromNode: "r0", FromChannel: 0, ToNode: "r2"},
					},
				}
			},
			wantErr: config.ErrDuplicateLink,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.DefaultConfig()
			cfg.Routers = baseRouters
			tt.modify(cfg)

			err := config.Validate(cfg)
			if err == nil {
				t.Fatal("Validate() returned nil, want error")
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  slog.Level
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: "DEBUG", want: slog.LevelDebug},
		{input: "info", want: slog.LevelInfo},
		{input: "INFO", want: slog.LevelInfo},
		{input: "warn", want: slog.LevelWarn},
		{input: "WARN", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "Error", want: slog.LevelError},
		{input: "unknown", want: slog.LevelInfo},
		{input: "", want: slog.LevelInfo},
		{input: "trace", want: slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got := config.ParseLogLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoadNonexistentFile(t *testing.T) {
	t.Parallel()

	_, err := config.Load("/nonexistent/path/config.yml")
	if err == nil {
		t.Fatal("Load() returned nil error for nonexistent file")
	}
}

// -------------------------------------------------------------------------
// Environment Variable Override Tests
// -------------------------------------------------------------------------

func TestLoadEnvOverrides(t *testing.T) {
	// Environment variable tests cannot be parallel because they modify
	// process-wide state (os.Setenv).

	yamlContent := `
admin:
  addr: ":50080"
log:
  level: "info"
routers:
  r0:
    flow_control_scheme: "wormhole"
`
	path := writeTemp(t, yamlContent)

	t.Setenv("NOCSIM_ADMIN_ADDR", ":60000")
	t.Setenv("NOCSIM_LOG_LEVEL", "debug")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if cfg.Admin.Addr != ":60000" {
		t.Errorf("Admin.Addr = %q, want %q (from env)", cfg.Admin.Addr, ":60000")
	}

	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q (from env)", cfg.Log.Level, "debug")
	}
}

func TestLoadEnvOverridesMetrics(t *testing.T) {
	yamlContent := `
admin:
  addr: ":50080"
metrics:
  addr: ":9100"
  path: "/metrics"
routers:
  r0:
    flow_control_scheme: "wormhole"
`
	path := writeTemp(t, yamlContent)

	t.Setenv("NOCSIM_METRICS_ADDR", ":9200")
	t.Setenv("NOCSIM_METRICS_PATH", "/custom")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load(%q) error: %v", path, err)
	}

	if cfg.Metrics.Addr != ":9200" {
		t.Errorf("Metrics.Addr = %q, want %q (from env)", cfg.Metrics.Addr, ":9200")
	}

	if cfg.Metrics.Path != "/custom" {
		t.Errorf("Metrics.Path = %q, want %q (from env)", cfg.Metrics.Path, "/custom")
	}
}

// writeTemp creates a temporary YAML file and returns its path.
// The file is automatically cleaned up when the test finishes.
func writeTemp(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	path := filepath.Join(dir, "nocsimd.yml")

	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}

	return path
}
