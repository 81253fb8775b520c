package core

import (
	"fmt"
	"log/slog"
	"maps"
	"math"
	"slices"
	"strings"

	"github.com/bkmulusew/routesim2/protocol"
	"github.com/bkmulusew/routesim2/state"
)

// PathVectorNode runs a distance-vector protocol that advertises full paths
// alongside costs. Carrying the path lets a receiver reject any route that
// already contains itself, which prevents both loops and count-to-infinity.
type PathVectorNode struct {
	id  state.NodeId
	drv Driver
	log *slog.Logger

	// direct link costs, mutated only by LinkUpdated
	neighborCost map[state.NodeId]state.Cost

	// selected route table, rebuilt from scratch on every recomputation
	routes map[state.NodeId]state.Route

	// most recently accepted advertisement per neighbour, and the
	// simulated time it was accepted at
	neighborAdverts map[state.NodeId]map[state.NodeId]state.Advert
	advertTime      map[state.NodeId]float64
}

func NewPathVectorNode(id state.NodeId, drv Driver, log *slog.Logger) *PathVectorNode {
	n := &PathVectorNode{
		id:              id,
		drv:             drv,
		log:             log.With("node", id),
		neighborCost:    make(map[state.NodeId]state.Cost),
		routes:          make(map[state.NodeId]state.Route),
		neighborAdverts: make(map[state.NodeId]map[state.NodeId]state.Advert),
		advertTime:      make(map[state.NodeId]float64),
	}
	n.routes[id] = selfRoute(id)
	return n
}

func selfRoute(id state.NodeId) state.Route {
	return state.Route{Cost: 0, Nh: id, Path: []state.NodeId{id}}
}

func (n *PathVectorNode) LinkUpdated(neighbor state.NodeId, cost state.Cost) {
	if cost == state.LinkDeleted {
		delete(n.neighborCost, neighbor)
		delete(n.neighborAdverts, neighbor)
		delete(n.advertTime, neighbor)
	} else {
		n.neighborCost[neighbor] = cost
	}

	if n.recompute() {
		n.broadcast()
	}
}

func (n *PathVectorNode) HandleMessage(raw []byte) {
	adv, ok := protocol.DecodePathVector(raw)
	if !ok {
		return
	}

	// drop vectors from stale senders whose link is already gone
	if _, ok := n.neighborCost[adv.Origin]; !ok {
		return
	}

	now := n.drv.Now()
	last, seen := n.advertTime[adv.Origin]
	old := n.neighborAdverts[adv.Origin]

	if seen && now == last && len(adv.Routes) < len(old) {
		// Same simulated time as the last accepted update but fewer
		// entries: likely an older message delivered out of order by the
		// scheduler. Merge instead of replacing, so the newer entries
		// win on collision but nothing already known is lost.
		merged := maps.Clone(old)
		maps.Copy(merged, adv.Routes)
		n.neighborAdverts[adv.Origin] = merged
	} else {
		n.neighborAdverts[adv.Origin] = adv.Routes
	}
	n.advertTime[adv.Origin] = now

	if n.recompute() {
		n.broadcast()
	}
}

func (n *PathVectorNode) NextHop(dest state.NodeId) state.NodeId {
	if dest == n.id {
		return n.id
	}
	r, ok := n.routes[dest]
	if !ok {
		return state.NoRoute
	}
	return r.Nh
}

// Route returns the selected route for dest, if any.
func (n *PathVectorNode) Route(dest state.NodeId) (state.Route, bool) {
	r, ok := n.routes[dest]
	return r, ok
}

// recompute rebuilds the selected route table from the direct links and the
// stored neighbour advertisements. It reports whether the table changed.
func (n *PathVectorNode) recompute() bool {
	inf := state.Cost(math.Inf(1))

	newRoutes := map[state.NodeId]state.Route{
		n.id: selfRoute(n.id),
	}

	// direct neighbours are always candidates
	for nbr, w := range n.neighborCost {
		newRoutes[nbr] = state.Route{Cost: w, Nh: nbr, Path: []state.NodeId{n.id, nbr}}
	}

	// every destination any neighbour talks about is a candidate
	dests := make(map[state.NodeId]bool)
	for d := range newRoutes {
		dests[d] = true
	}
	for _, adv := range n.neighborAdverts {
		for d := range adv {
			dests[d] = true
		}
	}

	for d := range dests {
		if d == n.id {
			continue
		}

		best, ok := newRoutes[d]
		if !ok {
			best = state.Route{Cost: inf, Nh: state.NoRoute}
		}

		for nbr, w := range n.neighborCost {
			entry, ok := n.neighborAdverts[nbr][d]
			if !ok {
				continue
			}

			// loop prevention: never route through a neighbour whose
			// path to d already contains us
			if slices.Contains(entry.Path, n.id) {
				continue
			}

			cand := state.Route{
				Cost: w + entry.Cost,
				Nh:   nbr,
				Path: append([]state.NodeId{n.id}, entry.Path...),
			}
			// lower cost wins; ties broken by shorter path, then by
			// smaller next-hop id, so selection is deterministic
			if routeLess(cand, best) {
				best = cand
			}
		}

		if best.Cost < inf {
			newRoutes[d] = best
		}
	}

	changed := !maps.EqualFunc(newRoutes, n.routes, state.Route.Equal)
	n.routes = newRoutes
	return changed
}

func routeLess(a, b state.Route) bool {
	if a.Cost != b.Cost {
		return a.Cost < b.Cost
	}
	if len(a.Path) != len(b.Path) {
		return len(a.Path) < len(b.Path)
	}
	return a.Nh < b.Nh
}

// broadcast advertises the full selected route table to all neighbours.
func (n *PathVectorNode) broadcast() {
	n.log.Debug("advertising routes", "destinations", len(n.routes))
	n.drv.Broadcast(protocol.EncodePathVector(n.id, n.routes))
}

func (n *PathVectorNode) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Node %d (path-vector)\n", n.id)
	fmt.Fprintf(&sb, "  neighbors=%v\n", n.neighborCost)
	sb.WriteString("  routes:\n")
	for _, d := range slices.Sorted(maps.Keys(n.routes)) {
		r := n.routes[d]
		fmt.Fprintf(&sb, "    %d: cost=%v next=%d path=%v\n", d, r.Cost, r.Nh, r.Path)
	}
	return strings.TrimRight(sb.String(), "\n")
}
