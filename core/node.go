// Package core implements the per-node control logic for the two routing
// protocols: a path-vector distance-vector variant and a link-state
// flooding variant. Nodes are purely reactive; all work happens
// synchronously inside the entry points invoked by the hosting engine, and
// no state is shared between node instances.
package core

import (
	"fmt"

	"github.com/bkmulusew/routesim2/state"
)

// Driver is the contract a node requires from its hosting environment: a
// monotonically readable simulation clock and a primitive that delivers an
// opaque payload to every currently connected neighbour.
type Driver interface {
	Now() float64
	Broadcast(raw []byte)
}

// Node is the contract every routing variant exposes to the hosting
// environment. Implementations assume the engine never invokes two entry
// points on the same node concurrently.
type Node interface {
	// LinkUpdated signals that the direct link to neighbor changed cost,
	// or was removed when cost is state.LinkDeleted.
	LinkUpdated(neighbor state.NodeId, cost state.Cost)

	// HandleMessage processes one raw payload delivered from a neighbour.
	// Malformed or irrelevant input is dropped silently.
	HandleMessage(raw []byte)

	// NextHop returns the first hop towards dest, the node's own id for
	// itself, or state.NoRoute if dest is unknown or unreachable.
	NextHop(dest state.NodeId) state.NodeId

	// Stringer provides a human-readable state dump for diagnostics.
	fmt.Stringer
}
