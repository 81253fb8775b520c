package core

import (
	"fmt"
	"log/slog"
	"maps"
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/bkmulusew/routesim2/protocol"
	"github.com/bkmulusew/routesim2/state"
)

// LinkStateNode floods its local link state to the whole network and runs a
// shortest-path computation over the merged database. Each advertisement
// carries a per-origin sequence number; only strictly newer advertisements
// are accepted and re-flooded, which bounds flood propagation.
type LinkStateNode struct {
	id  state.NodeId
	drv Driver
	log *slog.Logger

	// direct link costs, mutated only by LinkUpdated
	neighborCost map[state.NodeId]state.Cost

	// newest accepted advertisement per origin, including self
	lsdb map[state.NodeId]state.LSRecord

	// sequence counter for advertisements originated by this node
	seq int

	// derived on every recomputation, never patched incrementally
	dist  map[state.NodeId]state.Cost
	table map[state.NodeId]state.NodeId
}

func NewLinkStateNode(id state.NodeId, drv Driver, log *slog.Logger) *LinkStateNode {
	n := &LinkStateNode{
		id:           id,
		drv:          drv,
		log:          log.With("node", id),
		neighborCost: make(map[state.NodeId]state.Cost),
		lsdb:         make(map[state.NodeId]state.LSRecord),
		dist:         make(map[state.NodeId]state.Cost),
		table:        make(map[state.NodeId]state.NodeId),
	}
	n.lsdb[id] = state.LSRecord{Seq: 0, Neighbors: map[state.NodeId]state.Cost{}}
	return n
}

func (n *LinkStateNode) LinkUpdated(neighbor state.NodeId, cost state.Cost) {
	if cost == state.LinkDeleted {
		delete(n.neighborCost, neighbor)
	} else {
		n.neighborCost[neighbor] = cost
	}

	n.originate()
}

// originate issues a fresh advertisement of the local neighbour set, floods
// it, and recomputes shortest paths.
func (n *LinkStateNode) originate() {
	n.seq++
	n.lsdb[n.id] = state.LSRecord{Seq: n.seq, Neighbors: maps.Clone(n.neighborCost)}
	n.log.Debug("originating advertisement", "seq", n.seq, "neighbors", len(n.neighborCost))
	n.drv.Broadcast(protocol.EncodeLinkState(n.id, n.seq, n.neighborCost))
	n.recompute()
}

func (n *LinkStateNode) HandleMessage(raw []byte) {
	adv, ok := protocol.DecodeLinkState(raw)
	if !ok {
		return
	}

	// our own floods come back; never reprocess them
	if adv.Origin == n.id {
		return
	}

	// only strictly newer advertisements displace the stored one; stale
	// and duplicate floods die here
	if cur, ok := n.lsdb[adv.Origin]; ok && adv.Seq <= cur.Seq {
		return
	}

	n.lsdb[adv.Origin] = state.LSRecord{Seq: adv.Seq, Neighbors: adv.Neighbors}

	// re-flood the received payload unmodified
	n.drv.Broadcast(raw)

	n.recompute()
}

func (n *LinkStateNode) NextHop(dest state.NodeId) state.NodeId {
	if dest == n.id {
		return n.id
	}
	nh, ok := n.table[dest]
	if !ok {
		return state.NoRoute
	}
	return nh
}

// Distance returns the computed shortest distance to dest, if reachable.
func (n *LinkStateNode) Distance(dest state.NodeId) (state.Cost, bool) {
	d, ok := n.dist[dest]
	return d, ok
}

// Seq returns the node's own advertisement sequence counter.
func (n *LinkStateNode) Seq() int {
	return n.seq
}

// recompute merges the database into an undirected weighted graph and runs
// Dijkstra from this node, recording shortest distances and first hops.
// An edge reported by either endpoint is installed in both directions.
func (n *LinkStateNode) recompute() {
	g := simple.NewWeightedUndirectedGraph(0, math.Inf(1))

	// iterate in sorted order so conflicting weight reports for the same
	// edge resolve the same way on every recomputation
	for _, origin := range slices.Sorted(maps.Keys(n.lsdb)) {
		rec := n.lsdb[origin]
		for _, nbr := range slices.Sorted(maps.Keys(rec.Neighbors)) {
			w := rec.Neighbors[nbr]
			if nbr == origin || w < 0 {
				continue
			}
			g.SetWeightedEdge(simple.WeightedEdge{
				F: simple.Node(origin),
				T: simple.Node(nbr),
				W: float64(w),
			})
		}
	}

	n.dist = make(map[state.NodeId]state.Cost)
	n.table = make(map[state.NodeId]state.NodeId)

	// a node absent from the merged graph has no edges at all
	if g.Node(int64(n.id)) == nil {
		return
	}

	sp := path.DijkstraFrom(simple.Node(n.id), g)
	n.dist[n.id] = 0

	nodes := g.Nodes()
	for nodes.Next() {
		dest := state.NodeId(nodes.Node().ID())
		if dest == n.id {
			continue
		}
		hops, w := sp.To(int64(dest))
		if math.IsInf(w, 1) || len(hops) < 2 {
			continue // unreached destinations stay absent
		}
		n.dist[dest] = state.Cost(w)
		n.table[dest] = state.NodeId(hops[1].ID())
	}
}

func (n *LinkStateNode) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Node %d (link-state)\n", n.id)
	fmt.Fprintf(&sb, "  time=%v\n", n.drv.Now())
	fmt.Fprintf(&sb, "  neighbors=%v\n", n.neighborCost)
	fmt.Fprintf(&sb, "  seq=%d\n", n.seq)
	sb.WriteString("  routing table:\n")
	for _, d := range slices.Sorted(maps.Keys(n.table)) {
		fmt.Fprintf(&sb, "    %d: next=%d dist=%v\n", d, n.table[d], n.dist[d])
	}
	return strings.TrimRight(sb.String(), "\n")
}
