package state

import "slices"

// NodeId identifies a node in the simulated network. Wire formats carry
// these as decimal strings in map keys; they are converted back on parse.
type NodeId int

// Cost is a direct or accumulated link cost, in simulated latency units.
type Cost float64

// Route is one selected entry in a path-vector routing table.
type Route struct {
	Cost Cost
	Nh   NodeId // next hop node
	Path []NodeId
}

// Equal compares every field, including the full path. Route tables are
// rebuilt from scratch on every recomputation, so change detection has to
// be by value rather than by dirty-tracking.
func (r Route) Equal(o Route) bool {
	return r.Cost == o.Cost && r.Nh == o.Nh && slices.Equal(r.Path, o.Path)
}

// Advert is a neighbour's advertised reachability for one destination. The
// path starts at the advertising neighbour; receivers reject paths that
// already contain themselves at selection time.
type Advert struct {
	Cost Cost
	Path []NodeId
}

// LSRecord is the newest accepted link-state advertisement for one origin.
type LSRecord struct {
	Seq       int
	Neighbors map[NodeId]Cost
}
