// Package sim hosts routing nodes inside a discrete-event network
// simulator. The engine owns simulated time and message delivery; nodes
// only ever see their own link changes and incoming payloads. Messages in
// flight when a link goes down are still delivered, so nodes must tolerate
// stale senders.
package sim

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/iti/evt/evtm"
	"github.com/iti/evt/vrtime"

	"github.com/bkmulusew/routesim2/core"
	"github.com/bkmulusew/routesim2/perf"
	"github.com/bkmulusew/routesim2/state"
)

type linkKey struct {
	a, b state.NodeId
}

func keyFor(a, b state.NodeId) linkKey {
	if a > b {
		a, b = b, a
	}
	return linkKey{a, b}
}

// QueryResult is the outcome of one scheduled next-hop query.
type QueryResult struct {
	At   float64
	From state.NodeId
	To   state.NodeId
	Hop  state.NodeId
}

// Network owns the node instances and the link fabric between them.
type Network struct {
	evtMgr *evtm.EventManager
	log    *slog.Logger

	nodes map[state.NodeId]core.Node
	links map[linkKey]state.Cost

	// results of scheduled queries, in execution order
	Results []QueryResult
}

// New builds a network from a validated scenario. The initial topology is
// applied immediately; timeline events and queries are scheduled on the
// event manager and fire during Run.
func New(sc *state.Scenario, log *slog.Logger) (*Network, error) {
	n := &Network{
		evtMgr: evtm.New(),
		log:    log,
		nodes:  make(map[state.NodeId]core.Node),
		links:  make(map[linkKey]state.Cost),
	}

	for _, id := range sc.Nodes() {
		node, err := n.newNode(sc.Protocol, id)
		if err != nil {
			return nil, err
		}
		n.nodes[id] = node
	}

	for _, l := range sc.Links {
		n.SetLink(l.A, l.B, l.Cost)
	}
	for _, e := range sc.Events {
		n.evtMgr.Schedule(n, e, applyLinkEvent, vrtime.SecondsToTime(e.At))
	}
	for _, q := range sc.Queries {
		n.evtMgr.Schedule(n, q, applyQuery, vrtime.SecondsToTime(q.At))
	}

	return n, nil
}

func (n *Network) newNode(proto state.Protocol, id state.NodeId) (core.Node, error) {
	drv := &driver{net: n, id: id}
	switch proto {
	case state.ProtocolPathVector:
		return core.NewPathVectorNode(id, drv, n.log), nil
	case state.ProtocolLinkState:
		return core.NewLinkStateNode(id, drv, n.log), nil
	default:
		return nil, fmt.Errorf("unknown protocol %q", proto)
	}
}

// Run processes events until the queue drains or simulated time passes
// limit.
func (n *Network) Run(limit float64) {
	n.evtMgr.Run(limit)
}

// Now returns the current simulated time.
func (n *Network) Now() float64 {
	return n.evtMgr.CurrentSeconds()
}

// Node returns the node instance with the given id, or nil.
func (n *Network) Node(id state.NodeId) core.Node {
	return n.nodes[id]
}

// NodeIds returns all node ids, sorted.
func (n *Network) NodeIds() []state.NodeId {
	return slices.Sorted(maps.Keys(n.nodes))
}

// SetLink installs or updates the symmetric link between a and b and
// notifies both endpoints. A cost of state.LinkDeleted removes the link.
func (n *Network) SetLink(a, b state.NodeId, cost state.Cost) {
	perf.LinkEvents.Add(1)
	if cost == state.LinkDeleted {
		delete(n.links, keyFor(a, b))
	} else {
		n.links[keyFor(a, b)] = cost
	}
	n.log.Info("link updated", "a", a, "b", b, "cost", cost, "t", n.Now())
	n.nodes[a].LinkUpdated(b, cost)
	n.nodes[b].LinkUpdated(a, cost)
}

// neighbors returns the ids currently directly linked to id, with costs.
func (n *Network) neighbors(id state.NodeId) map[state.NodeId]state.Cost {
	out := make(map[state.NodeId]state.Cost)
	for k, c := range n.links {
		if k.a == id {
			out[k.b] = c
		} else if k.b == id {
			out[k.a] = c
		}
	}
	return out
}

// broadcast schedules delivery of raw to every node currently linked to
// from. Each delivery is delayed by the link's current latency; a link
// removed while the message is in flight does not recall it.
func (n *Network) broadcast(from state.NodeId, raw []byte) {
	for nbr, cost := range n.neighbors(from) {
		perf.MessagesSent.Add(1)
		n.evtMgr.Schedule(n, delivery{to: nbr, raw: raw}, deliverMessage, vrtime.SecondsToTime(float64(cost)))
	}
}

type delivery struct {
	to  state.NodeId
	raw []byte
}

func deliverMessage(evtMgr *evtm.EventManager, context any, msg any) any {
	n := context.(*Network)
	d := msg.(delivery)
	perf.MessagesDelivered.Add(1)
	n.nodes[d.to].HandleMessage(d.raw)
	return nil
}

func applyLinkEvent(evtMgr *evtm.EventManager, context any, msg any) any {
	n := context.(*Network)
	e := msg.(state.EventCfg)
	n.SetLink(e.A, e.B, e.Cost)
	return nil
}

func applyQuery(evtMgr *evtm.EventManager, context any, msg any) any {
	n := context.(*Network)
	q := msg.(state.QueryCfg)
	hop := n.nodes[q.From].NextHop(q.To)
	n.Results = append(n.Results, QueryResult{At: n.Now(), From: q.From, To: q.To, Hop: hop})
	n.log.Info("next-hop query", "from", q.From, "to", q.To, "hop", hop, "t", n.Now())
	return nil
}

// driver is the per-node view of the engine handed to a core.Node.
type driver struct {
	net *Network
	id  state.NodeId
}

func (d *driver) Now() float64 {
	return d.net.evtMgr.CurrentSeconds()
}

func (d *driver) Broadcast(raw []byte) {
	d.net.broadcast(d.id, raw)
}
