package endpoint

import (
	"errors"
	"fmt"
)

// ErrUnknownNeighbor indicates a router ID has no configured endpoint on
// this node's input or output mapping.
var ErrUnknownNeighbor = errors.New("no channel endpoint configured for neighbor router")

// ErrUnknownEndpoint indicates an endpoint has no configured neighbor
// router ID on this node's mapping.
var ErrUnknownEndpoint = errors.New("no neighbor router configured for channel endpoint")

// Mapping translates between a neighbor RouterID and the local Endpoint
// used to reach it, independently for the input side and the output side
// of a node. It is built once from topology tables at node construction
// and is read-only for the lifetime of the simulation.
type Mapping struct {
	inputByRouter    map[RouterID]Endpoint
	inputByEndpoint  map[endpointKey]RouterID
	outputByRouter   map[RouterID]Endpoint
	outputByEndpoint map[endpointKey]RouterID
}

// endpointKey is the comparable projection of Endpoint used for map keys;
// broadcast endpoints are never map keys (lookups always resolve concrete
// sub-endpoints), so all is omitted deliberately.
type endpointKey struct {
	channel int
	sub     int
}

func keyOf(e Endpoint) endpointKey {
	return endpointKey{channel: e.channel, sub: e.sub}
}

// NewMapping builds a Mapping from explicit input/output (RouterID,
// Endpoint) tables, as produced by parsing a TopologyConfig entry.
func NewMapping(inputs, outputs map[RouterID]Endpoint) *Mapping {
	m := &Mapping{
		inputByRouter: make(map[RouterID]Endpoint, len(inputs)),
		inputByEndpoint: make(map[endpointKey]RouterID, len(inputs)),
		outputByRouter: make(map[RouterID]Endpoint, len(outputs)),
		outputByEndpoint: make(map[endpointKey]RouterID, len(outputs)),
	}
	for router, ep := range inputs {
		m.inputByRouter[router] = ep
		m.inputByEndpoint[keyOf(ep)] = router
	}
	for router, ep := range outputs {
		m.outputByRouter[router] = ep
		m.outputByEndpoint[keyOf(ep)] = router
	}
	return m
}

// InputEndpoint resolves the local input endpoint on which packets from
// sender arrive.
func (m *Mapping) InputEndpoint(sender RouterID) (Endpoint, error) {
	ep, ok := m.inputByRouter[sender]
	if !ok {
		return Endpoint{}, fmt.Errorf("input endpoint for %s: %w", sender, ErrUnknownNeighbor)
	}
	return ep, nil
}

// OutputEndpoint resolves the local output endpoint used to reach
// receiver.
func (m *Mapping) OutputEndpoint(receiver RouterID) (Endpoint, error) {
	ep, ok := m.outputByRouter[receiver]
	if !ok {
		return Endpoint{}, fmt.Errorf("output endpoint for %s: %w", receiver, ErrUnknownNeighbor)
	}
	return ep, nil
}

// NeighborForOutput resolves the neighbor router reachable through a
// concrete (non-broadcast) output endpoint.
func (m *Mapping) NeighborForOutput(ep Endpoint) (RouterID, error) {
	router, ok := m.outputByEndpoint[keyOf(ep)]
	if !ok {
		return RouterID{}, fmt.Errorf("neighbor for output %s: %w", ep, ErrUnknownEndpoint)
	}
	return router, nil
}

// NeighborForInput resolves the neighbor router reachable through a
// concrete input endpoint, used when building buffer-management replies.
func (m *Mapping) NeighborForInput(ep Endpoint) (RouterID, error) {
	router, ok := m.inputByEndpoint[keyOf(ep)]
	if !ok {
		return RouterID{}, fmt.Errorf("neighbor for input %s: %w", ep, ErrUnknownEndpoint)
	}
	return router, nil
}

// BroadcastSubEndpoints expands a BroadcastOn(channel) endpoint into its
// concrete sub-endpoints, in ascending sub-index order, by scanning the
// output mapping for every sub-endpoint configured on that channel.
// Iteration order is deterministic so that fanout clone order matches
// across repeated runs.
func (m *Mapping) BroadcastSubEndpoints(channel int) []Endpoint {
	var subs []int
	for k := range m.outputByEndpoint {
		if k.channel == channel {
			subs = append(subs, k.sub)
		}
	}
	sortInts(subs)

	out := make([]Endpoint, 0, len(subs))
	for _, s := range subs {
		out = append(out, Specific(channel, s))
	}
	return out
}

func sortInts(xs []int) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}
