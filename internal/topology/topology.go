// Package topology turns a static config.Config into the set of wired
// node.NetworkNodes a simulation runs against: per-router channel
// mappings, flow-control schemes, buffer models, link performance/power
// models, and each node's TopologyResolver.
package topology

import (
	"errors"
	"fmt"

	"github.com/dantte-lp/nocrouter/internal/config"
	"github.com/dantte-lp/nocrouter/internal/noc/buffermodel"
	"github.com/dantte-lp/nocrouter/internal/noc/bufferstatus"
	"github.com/dantte-lp/nocrouter/internal/noc/endpoint"
	"github.com/dantte-lp/nocrouter/internal/noc/flowcontrol"
	"github.com/dantte-lp/nocrouter/internal/noc/msg"
	"github.com/dantte-lp/nocrouter/internal/noc/node"
	"github.com/dantte-lp/nocrouter/internal/noc/router"
)

// energyPerFlip is the per-bit-flip energy unit charged by the
// HammingEnergyLink models this package wires in. It is an arbitrary
// unit pending real calibration data; only relative comparisons between
// runs of this simulator are meaningful with the default value.
const energyPerFlip = 1.0

// ErrNoRoute indicates a router's TopologyResolver was asked to resolve
// an output endpoint with no configured link.
var ErrNoRoute = errors.New("topology: no configured route for endpoint")

// ErrUnknownTopologyNode indicates a link or router entry names a node
// id absent from topology.nodes. config.Validate already rejects this
// for links; Build re-checks because it resolves names independently.
var ErrUnknownTopologyNode = errors.New("topology: reference to undeclared node")

// ErrMissingRouterConfig indicates a node listed in topology.nodes has
// no matching entry under routers.
var ErrMissingRouterConfig = errors.New("topology: node has no router configuration")

type endpointKey struct {
	channel int
	sub     int
}

func keyOf(ep endpoint.Endpoint) endpointKey {
	return endpointKey{channel: ep.Channel(), sub: ep.Sub()}
}

// remoteRouter is the static node.RemoteRouter view of one neighbor
// reachable over exactly one physical link.
type remoteRouter struct {
	creditDelay uint64
	linkDelay   uint64
}

func (r remoteRouter) CreditPipelineDelay() uint64 { return r.creditDelay }

func (r remoteRouter) LinkDelay(endpoint.Endpoint) uint64 { return r.linkDelay }

// Resolver is a node.TopologyResolver scoped to one router's own output
// endpoints, built once from the static link table at startup and never
// mutated afterward.
type Resolver struct {
	remotes map[endpointKey]remoteRouter
}

// Resolve implements node.TopologyResolver.
func (r *Resolver) Resolve(_ msg.PacketType, ep endpoint.Endpoint) (node.RemoteRouter, error) {
	rr, ok := r.remotes[keyOf(ep)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoRoute, ep)
	}
	return rr, nil
}

// Build constructs every router named in cfg.Topology.Nodes into a wired
// node.NetworkNode, keyed by its resolved RouterID. observer, if
// non-nil, is attached to every node so activity counters reach a
// single collector.
func Build(cfg *config.Config, observer node.ActivityObserver) (map[endpoint.RouterID]*node.NetworkNode, error) {
	ids := make(map[string]endpoint.RouterID, len(cfg.Topology.Nodes))
	for _, name := range cfg.Topology.Nodes {
		id, err := endpoint.ParseRouterID(name)
		if err != nil {
			return nil, fmt.Errorf("topology node %q: %w", name, err)
		}
		ids[name] = id
	}

	nodes := make(map[endpoint.RouterID]*node.NetworkNode, len(ids))
	for name, id := range ids {
		rc, ok := cfg.Routers[name]
		if !ok {
			return nil, fmt.Errorf("topology: node %q: %w", name, ErrMissingRouterConfig)
		}

		n, err := buildNode(cfg, name, id, rc, ids, observer)
		if err != nil {
			return nil, err
		}
		nodes[id] = n
	}

	return nodes, nil
}

func buildNode(
	cfg *config.Config,
	name string,
	id endpoint.RouterID,
	rc config.RouterConfig,
	ids map[string]endpoint.RouterID,
	observer node.ActivityObserver,
) (*node.NetworkNode, error) {
	inputEndpoints := map[endpoint.RouterID]endpoint.Endpoint{}
	outputEndpoints := map[endpoint.RouterID]endpoint.Endpoint{}
	linkPerf := map[int]node.LinkPerformanceModel{}
	linkPower := map[int]node.LinkPowerModel{}
	remotes := map[endpointKey]remoteRouter{}

	for _, l := range cfg.Topology.Links {
		switch name {
		case l.FromNode:
			to, ok := ids[l.ToNode]
			if !ok {
				return nil, fmt.Errorf("link %s/%d -> %s/%d: %w", l.FromNode, l.FromChannel, l.ToNode, l.ToChannel, ErrUnknownTopologyNode)
			}
			neighborRC, ok := cfg.Routers[l.ToNode]
			if !ok {
				return nil, fmt.Errorf("topology: node %q: %w", l.ToNode, ErrMissingRouterConfig)
			}

			ep := endpoint.Specific(l.FromChannel, 0)
			outputEndpoints[to] = ep
			linkPerf[l.FromChannel] = node.FixedDelayLink{Delay: l.Delay}
			linkPower[l.FromChannel] = &node.HammingEnergyLink{BitWidth: rc.FlitWidthBits, EnergyPerFlip: energyPerFlip}
			remotes[keyOf(ep)] = remoteRouter{
				creditDelay: uint64(neighborRC.CreditPipelineDelay),
				linkDelay:   l.Delay,
			}

		case l.ToNode:
			from, ok := ids[l.FromNode]
			if !ok {
				return nil, fmt.Errorf("link %s/%d -> %s/%d: %w", l.FromNode, l.FromChannel, l.ToNode, l.ToChannel, ErrUnknownTopologyNode)
			}
			inputEndpoints[from] = endpoint.Specific(l.ToChannel, 0)
		}
	}

	inputs, outputs := buildChannels(rc)

	var scheme flowcontrol.Scheme
	schemeCfg := flowcontrol.Config{Inputs: inputs, Outputs: outputs}
	switch rc.FlowControlScheme {
	case "store_and_forward":
		scheme = flowcontrol.NewStoreAndForward(schemeCfg)
	case "virtual_cut_through":
		scheme = flowcontrol.NewVirtualCutThrough(schemeCfg)
	case "wormhole":
		scheme = flowcontrol.NewWormhole(schemeCfg)
	case "wormhole_unicast_vct_broadcast":
		scheme = flowcontrol.NewWormholeUnicastVCTBroadcast(schemeCfg)
	default:
		return nil, fmt.Errorf("topology: router %q: %w", name, config.ErrUnknownFlowControlScheme)
	}

	pm := router.NewPerformanceModel(scheme, rc.DataPipelineDelay, rc.CreditPipelineDelay)

	return node.New(node.Config{
		ID:        id,
		Router:    pm,
		Inputs:    endpoint.NewMapping(inputEndpoints, nil),
		Outputs:   endpoint.NewMapping(nil, outputEndpoints),
		LinkPerf:  linkPerf,
		LinkPower: linkPower,
		FlitWidth: rc.FlitWidthBits,
		Topology:  &Resolver{remotes: remotes},
		Observer:  observer,
	}), nil
}

// buildChannels builds the per-channel input buffer models and output
// buffer-status lists a router's flow-control scheme operates over.
// Channel numbers are shared between the two: channel i's input buffer
// model and channel i's downstream buffer-status mirror the same
// buffer_management_scheme, since one physical channel carries both
// directions of one logical link.
func buildChannels(rc config.RouterConfig) ([]buffermodel.Model, map[int]*bufferstatus.List) {
	maxChannel := -1
	for ch := range rc.Channels {
		if ch > maxChannel {
			maxChannel = ch
		}
	}

	inputs := make([]buffermodel.Model, maxChannel+1)
	outputs := make(map[int]*bufferstatus.List, len(rc.Channels))

	for ch := 0; ch <= maxChannel; ch++ {
		cc := rc.Channels[ch]
		ep := endpoint.Specific(ch, 0)

		switch cc.BufferManagementScheme {
		case "credit":
			inputs[ch] = buffermodel.NewCredit(ep)
			outputs[ch] = bufferstatus.NewList([]bufferstatus.Status{bufferstatus.NewCredit(cc.BufferSize)})
		case "on_off":
			inputs[ch] = buffermodel.NewOnOff(ep, cc.BufferSize, cc.OnOffThreshold)
			outputs[ch] = bufferstatus.NewList([]bufferstatus.Status{bufferstatus.NewOnOff()})
		default:
			inputs[ch] = buffermodel.NewInfinite(ep)
			outputs[ch] = bufferstatus.NewList([]bufferstatus.Status{bufferstatus.Infinite{}})
		}
	}

	return inputs, outputs
}
