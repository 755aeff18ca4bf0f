// Package config manages nocsimd configuration using koanf/v2.
//
// Supports YAML files and NOCSIM_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// -------------------------------------------------------------------------
// Configuration Structures
// -------------------------------------------------------------------------

// Config holds the complete nocsimd configuration.
type Config struct {
	Topology TopologyConfig           `koanf:"topology"`
	Routers  map[string]RouterConfig  `koanf:"routers"`
	Log      LogConfig                `koanf:"log"`
	Metrics  MetricsConfig            `koanf:"metrics"`
	Admin    AdminConfig              `koanf:"admin"`
}

// MetricsConfig holds the Prometheus metrics endpoint configuration.
type MetricsConfig struct {
	// Addr is the HTTP listen address for the metrics endpoint (e.g., ":9100").
	Addr string `koanf:"addr"`
	// Path is the URL path for the metrics endpoint (e.g., "/metrics").
	Path string `koanf:"path"`
}

// AdminConfig holds the control-plane HTTP API configuration.
type AdminConfig struct {
	// Addr is the HTTP listen address for the admin API (e.g., ":8080").
	Addr string `koanf:"addr"`
}

// LogConfig holds the logging configuration.
type LogConfig struct {
	// Level is the log level: "debug", "info", "warn", "error".
	Level string `koanf:"level"`
	// Format is the log output format: "json" or "text".
	Format string `koanf:"format"`
}

// RouterConfig describes one router node's performance model and
// channel wiring.
type RouterConfig struct {
	// FlowControlScheme selects the flowcontrol.Scheme implementation:
	// "store_and_forward", "virtual_cut_through", "wormhole", or
	// "wormhole_unicast_vct_broadcast".
	FlowControlScheme string `koanf:"flow_control_scheme"`

	// DataPipelineDelay is the router's fixed per-flit pipeline delay,
	// in cycles.
	DataPipelineDelay uint32 `koanf:"data_pipeline_delay"`

	// CreditPipelineDelay is the router's fixed per-buffer-management
	// message pipeline delay, in cycles.
	CreditPipelineDelay uint32 `koanf:"credit_pipeline_delay"`

	// FlitWidthBits is the physical channel width used for the
	// half-Hamming-weight dynamic energy approximation.
	FlitWidthBits uint64 `koanf:"flit_width_bits"`

	// Channels describes the per-output-channel buffer configuration,
	// keyed by channel number.
	Channels map[int]ChannelConfig `koanf:"channels"`
}

// ChannelConfig describes one output channel's buffer model and
// backpressure scheme.
type ChannelConfig struct {
	// BufferManagementScheme selects the buffermodel.Model /
	// bufferstatus.Status pair: "infinite", "credit", or "on_off".
	BufferManagementScheme string `koanf:"buffer_management_scheme"`

	// BufferSize is the number of flit slots the downstream buffer
	// holds, consumed by the credit and on/off schemes.
	BufferSize uint32 `koanf:"buffer_size"`

	// OnOffThreshold is the free-slot count at which an on/off buffer
	// toggles its status.
	OnOffThreshold uint32 `koanf:"on_off_threshold"`
}

// TopologyConfig describes the static network: every node's neighbor on
// each channel, consumed at construction to build endpoint.Mapping and
// the node.TopologyResolver.
type TopologyConfig struct {
	// Nodes lists every router id participating in the topology.
	Nodes []string `koanf:"nodes"`

	// Links describes one directed channel: from node/channel to node/channel.
	Links []LinkConfig `koanf:"links"`
}

// LinkConfig describes one directed point-to-point link between two
// router endpoints.
type LinkConfig struct {
	FromNode    string `koanf:"from_node"`
	FromChannel int    `koanf:"from_channel"`
	ToNode      string `koanf:"to_node"`
	ToChannel   int    `koanf:"to_channel"`
	// Delay is the link's fixed traversal delay in cycles.
	Delay uint64 `koanf:"delay"`
}

// -------------------------------------------------------------------------
// Defaults
// -------------------------------------------------------------------------

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Metrics: MetricsConfig{
			Addr: ":9100",
			Path: "/metrics",
		},
		Admin: AdminConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level: "info",
			Format: "json",
		},
	}
}

// -------------------------------------------------------------------------
// Loader
// -------------------------------------------------------------------------

// envPrefix is the environment variable prefix for nocsimd configuration.
// Variables are named NOCSIM_<section>_<key>, e.g., NOCSIM_ADMIN_ADDR.
const envPrefix = "NOCSIM_"

// Load reads configuration from a YAML file at path, overlays environment
// variable overrides (NOCSIM_ prefix), and merges on top of
// DefaultConfig(). Missing fields inherit defaults.
//
// Environment variable mapping:
//
//	NOCSIM_METRICS_ADDR -> metrics.addr
//	NOCSIM_METRICS_PATH -> metrics.path
//	NOCSIM_ADMIN_ADDR -> admin.addr
//	NOCSIM_LOG_LEVEL -> log.level
//	NOCSIM_LOG_FORMAT -> log.format
//
// Uses koanf/v2 with file + env providers and YAML parser.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := loadDefaults(k, defaults); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load config from %s: %w", path, err)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config from %s: %w", path, err)
	}

	return cfg, nil
}

// envKeyMapper transforms NOCSIM_ADMIN_ADDR -> admin.addr.
// Strips the NOCSIM_ prefix, lowercases, and replaces _ with .
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "_", ".")
}

// loadDefaults marshals the default config into koanf as the base layer.
func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"metrics.addr": defaults.Metrics.Addr,
		"metrics.path": defaults.Metrics.Path,
		"admin.addr": defaults.Admin.Addr,
		"log.level": defaults.Log.Level,
		"log.format": defaults.Log.Format,
	}

	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}

	return nil
}

// -------------------------------------------------------------------------
// Validation
// -------------------------------------------------------------------------

// Validation errors.
var (
	// ErrEmptyAdminAddr indicates the admin API listen address is empty.
	ErrEmptyAdminAddr = errors.New("admin.addr must not be empty")

	// ErrNoRouters indicates no router was configured.
	ErrNoRouters = errors.New("routers must declare at least one entry")

	// ErrUnknownFlowControlScheme indicates a router names a scheme
	// config does not recognize.
	ErrUnknownFlowControlScheme = errors.New("router flow_control_scheme is not recognized")

	// ErrUnknownBufferManagementScheme indicates a channel names a
	// buffer scheme config does not recognize.
	ErrUnknownBufferManagementScheme = errors.New("channel buffer_management_scheme is not recognized")

	// ErrInvalidLink indicates a topology link references an
	// undeclared node.
	ErrInvalidLink = errors.New("link references a node absent from topology.nodes")

	// ErrDuplicateLink indicates two links share the same
	// (from_node, from_channel) key.
	ErrDuplicateLink = errors.New("duplicate link source endpoint")
)

// ValidFlowControlSchemes lists the recognized flow-control scheme
// strings.
var ValidFlowControlSchemes = map[string]bool{
	"store_and_forward": true,
	"virtual_cut_through": true,
	"wormhole": true,
	"wormhole_unicast_vct_broadcast": true,
}

// ValidBufferManagementSchemes lists the recognized buffer-model scheme
// strings.
var ValidBufferManagementSchemes = map[string]bool{
	"infinite": true,
	"credit": true,
	"on_off": true,
}

// Validate checks the configuration for logical errors.
// Returns the first validation error encountered.
func Validate(cfg *Config) error {
	if cfg.Admin.Addr == "" {
		return ErrEmptyAdminAddr
	}

	if len(cfg.Routers) == 0 {
		return ErrNoRouters
	}

	for name, rc := range cfg.Routers {
		if !ValidFlowControlSchemes[rc.FlowControlScheme] {
			return fmt.Errorf("router %q scheme %q: %w", name, rc.FlowControlScheme, ErrUnknownFlowControlScheme)
		}
		for ch, cc := range rc.Channels {
			if !ValidBufferManagementSchemes[cc.BufferManagementScheme] {
				return fmt.Errorf("router %q channel %d scheme %q: %w", name, ch, cc.BufferManagementScheme, ErrUnknownBufferManagementScheme)
			}
		}
	}

	if err := validateTopology(cfg.Topology); err != nil {
		return err
	}

	return nil
}

// validateTopology checks every link references a declared node and
// that no two links share a source endpoint.
func validateTopology(topo TopologyConfig) error {
	nodes := make(map[string]struct{}, len(topo.Nodes))
	for _, n := range topo.Nodes {
		nodes[n] = struct{}{}
	}

	seen := make(map[string]struct{}, len(topo.Links))
	for i, l := range topo.Links {
		if _, ok := nodes[l.FromNode]; !ok {
			return fmt.Errorf("links[%d] from_node %q: %w", i, l.FromNode, ErrInvalidLink)
		}
		if _, ok := nodes[l.ToNode]; !ok {
			return fmt.Errorf("links[%d] to_node %q: %w", i, l.ToNode, ErrInvalidLink)
		}

		key := fmt.Sprintf("%s|%d", l.FromNode, l.FromChannel)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("links[%d] source %s: %w", i, key, ErrDuplicateLink)
		}
		seen[key] = struct{}{}
	}

	return nil
}

// -------------------------------------------------------------------------
// Log Level Parsing
// -------------------------------------------------------------------------

// ParseLogLevel maps a configuration log level string to the corresponding
// slog.Level. Unknown values default to slog.LevelInfo.
//
// Recognized values: "debug", "info", "warn", "error" (case-insensitive).
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
