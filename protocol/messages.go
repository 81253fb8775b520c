// Package protocol defines the wire messages the two routing protocols
// exchange. Both are self-describing JSON objects dispatched on a "type"
// tag. All externally supplied fields are treated as untrusted: malformed
// messages are rejected wholesale, while a malformed entry inside an
// otherwise valid advertisement drops only that entry.
package protocol

import (
	"encoding/json"
	"strconv"

	"github.com/bkmulusew/routesim2/state"
)

const (
	TypePathVector = "path-vector-advert"
	TypeLinkState  = "link-state-advert"
)

// envelope is the minimal shape needed to dispatch on the type tag.
type envelope struct {
	Type string `json:"type"`
}

// routeEntry is the wire form of one advertised destination.
type routeEntry struct {
	Cost state.Cost     `json:"cost"`
	Path []state.NodeId `json:"path"`
}

type pathVectorWire struct {
	Type   string                     `json:"type"`
	Origin state.NodeId               `json:"origin"`
	Routes map[string]json.RawMessage `json:"routes"`
}

type linkStateWire struct {
	Type      string                     `json:"type"`
	Origin    state.NodeId               `json:"origin"`
	Seq       int                        `json:"seq"`
	Neighbors map[string]json.RawMessage `json:"neighbors"`
}

// PathVectorAdvert is a validated path-vector advertisement. Every entry in
// Routes has a numeric cost and a non-empty path starting at Origin.
type PathVectorAdvert struct {
	Origin state.NodeId
	Routes map[state.NodeId]state.Advert
}

// LinkStateAdvert is a validated link-state advertisement. Every entry in
// Neighbors has a numeric, non-negative cost.
type LinkStateAdvert struct {
	Origin    state.NodeId
	Seq       int
	Neighbors map[state.NodeId]state.Cost
}

// DecodePathVector parses raw as a path-vector advertisement. It returns
// false if the message is not well-formed or not of this protocol's type.
// Individual route entries that fail validation are dropped silently.
func DecodePathVector(raw []byte) (*PathVectorAdvert, bool) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Type != TypePathVector {
		return nil, false
	}
	var wire pathVectorWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, false
	}

	adv := &PathVectorAdvert{
		Origin: wire.Origin,
		Routes: make(map[state.NodeId]state.Advert, len(wire.Routes)),
	}
	for key, rawEntry := range wire.Routes {
		dest, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		var entry routeEntry
		if err := json.Unmarshal(rawEntry, &entry); err != nil {
			continue
		}
		// advertised paths must originate at the sender
		if len(entry.Path) == 0 || entry.Path[0] != wire.Origin {
			continue
		}
		adv.Routes[state.NodeId(dest)] = state.Advert{Cost: entry.Cost, Path: entry.Path}
	}
	return adv, true
}

// DecodeLinkState parses raw as a link-state advertisement. It returns
// false if the message is not well-formed or not of this protocol's type.
// Neighbor entries with non-numeric or negative costs are dropped silently.
func DecodeLinkState(raw []byte) (*LinkStateAdvert, bool) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Type != TypeLinkState {
		return nil, false
	}
	var wire linkStateWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, false
	}

	adv := &LinkStateAdvert{
		Origin:    wire.Origin,
		Seq:       wire.Seq,
		Neighbors: make(map[state.NodeId]state.Cost, len(wire.Neighbors)),
	}
	for key, rawCost := range wire.Neighbors {
		nbr, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		var cost state.Cost
		if err := json.Unmarshal(rawCost, &cost); err != nil || cost < 0 {
			continue
		}
		adv.Neighbors[state.NodeId(nbr)] = cost
	}
	return adv, true
}

// EncodePathVector serializes a selected route table as an advertisement.
func EncodePathVector(origin state.NodeId, routes map[state.NodeId]state.Route) []byte {
	wire := struct {
		Type   string                `json:"type"`
		Origin state.NodeId          `json:"origin"`
		Routes map[string]routeEntry `json:"routes"`
	}{
		Type:   TypePathVector,
		Origin: origin,
		Routes: make(map[string]routeEntry, len(routes)),
	}
	for dest, r := range routes {
		wire.Routes[strconv.Itoa(int(dest))] = routeEntry{Cost: r.Cost, Path: r.Path}
	}
	buf, err := json.Marshal(wire)
	if err != nil {
		panic(err)
	}
	return buf
}

// EncodeLinkState serializes one origin's current neighbor set.
func EncodeLinkState(origin state.NodeId, seq int, neighbors map[state.NodeId]state.Cost) []byte {
	wire := struct {
		Type      string                `json:"type"`
		Origin    state.NodeId          `json:"origin"`
		Seq       int                   `json:"seq"`
		Neighbors map[string]state.Cost `json:"neighbors"`
	}{
		Type:      TypeLinkState,
		Origin:    origin,
		Seq:       seq,
		Neighbors: make(map[string]state.Cost, len(neighbors)),
	}
	for nbr, cost := range neighbors {
		wire.Neighbors[strconv.Itoa(int(nbr))] = cost
	}
	buf, err := json.Marshal(wire)
	if err != nil {
		panic(err)
	}
	return buf
}
