package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/bkmulusew/routesim2/state"
)

func newPV(id state.NodeId) (*PathVectorNode, *testDriver) {
	drv := &testDriver{}
	return NewPathVectorNode(id, drv, testLogger()), drv
}

func TestPathVector_SelfRoute(t *testing.T) {
	n, _ := newPV(1)
	assert.Equal(t, state.NodeId(1), n.NextHop(1))
	assert.Equal(t, state.NoRoute, n.NextHop(9))

	r, ok := n.Route(1)
	assert.True(t, ok)
	assert.Equal(t, state.Route{Cost: 0, Nh: 1, Path: []state.NodeId{1}}, r)
}

func TestPathVector_DirectLink(t *testing.T) {
	n, drv := newPV(1)
	n.LinkUpdated(2, 5)

	assert.Equal(t, state.NodeId(2), n.NextHop(2))
	r, _ := n.Route(2)
	assert.Equal(t, state.Route{Cost: 5, Nh: 2, Path: []state.NodeId{1, 2}}, r)

	// the table changed, so the new table must have been advertised
	sent := drv.take()
	if assert.Len(t, sent, 1) {
		adv := decodePV(t, sent[0])
		assert.Equal(t, state.NodeId(1), adv.Origin)
		assert.Contains(t, adv.Routes, state.NodeId(2))
	}
}

func TestPathVector_LearnsTransitRoute(t *testing.T) {
	n, _ := newPV(1)
	n.LinkUpdated(2, 5)

	n.HandleMessage(pvAdvert(2, map[state.NodeId]state.Advert{
		2: {Cost: 0, Path: []state.NodeId{2}},
		3: {Cost: 5, Path: []state.NodeId{2, 3}},
	}))

	assert.Equal(t, state.NodeId(2), n.NextHop(3))
	r, _ := n.Route(3)
	want := state.Route{Cost: 10, Nh: 2, Path: []state.NodeId{1, 2, 3}}
	if diff := cmp.Diff(want, r); diff != "" {
		t.Errorf("selected route mismatch (-want +got):\n%s", diff)
	}
}

func TestPathVector_RejectsLoopedPath(t *testing.T) {
	n, _ := newPV(1)
	n.LinkUpdated(2, 5)

	// 2 claims to reach 3 through us; taking that route would loop
	n.HandleMessage(pvAdvert(2, map[state.NodeId]state.Advert{
		3: {Cost: 1, Path: []state.NodeId{2, 1, 3}},
	}))

	assert.Equal(t, state.NoRoute, n.NextHop(3))
}

func TestPathVector_DropsNonNeighborAdvert(t *testing.T) {
	n, drv := newPV(1)

	n.HandleMessage(pvAdvert(2, map[state.NodeId]state.Advert{
		2: {Cost: 0, Path: []state.NodeId{2}},
	}))

	assert.Equal(t, state.NoRoute, n.NextHop(2))
	assert.Empty(t, drv.take())
}

func TestPathVector_IgnoresMalformedAndForeign(t *testing.T) {
	n, drv := newPV(1)
	n.LinkUpdated(2, 5)
	drv.take()

	n.HandleMessage([]byte("not json"))
	n.HandleMessage([]byte(`{"type":"link-state-advert","origin":2,"seq":1,"neighbors":{}}`))
	n.HandleMessage([]byte(`{"type":"path-vector-advert"}`))

	assert.Equal(t, state.NoRoute, n.NextHop(3))
	assert.Empty(t, drv.take())
}

func TestPathVector_DropsBadEntriesIndividually(t *testing.T) {
	n, _ := newPV(1)
	n.LinkUpdated(2, 5)

	// dest 3 is fine; dest 4's path does not start at the origin; dest
	// 5's cost is not numeric; the "x" key is not an id
	raw := []byte(`{"type":"path-vector-advert","origin":2,"routes":{` +
		`"3":{"cost":5,"path":[2,3]},` +
		`"4":{"cost":1,"path":[7,4]},` +
		`"5":{"cost":"cheap","path":[2,5]},` +
		`"x":{"cost":1,"path":[2]}}}`)
	n.HandleMessage(raw)

	assert.Equal(t, state.NodeId(2), n.NextHop(3))
	assert.Equal(t, state.NoRoute, n.NextHop(4))
	assert.Equal(t, state.NoRoute, n.NextHop(5))
}

func TestPathVector_LinkDeletionRemovesRoutes(t *testing.T) {
	n, drv := newPV(1)
	n.LinkUpdated(2, 5)
	n.HandleMessage(pvAdvert(2, map[state.NodeId]state.Advert{
		2: {Cost: 0, Path: []state.NodeId{2}},
		3: {Cost: 5, Path: []state.NodeId{2, 3}},
	}))
	drv.take()

	n.LinkUpdated(2, state.LinkDeleted)

	assert.Equal(t, state.NoRoute, n.NextHop(2))
	assert.Equal(t, state.NoRoute, n.NextHop(3))
	assert.Equal(t, state.NodeId(1), n.NextHop(1))
	// removal changed the table, which must be re-advertised
	assert.Len(t, drv.take(), 1)
}

func TestPathVector_NoRebroadcastWithoutChange(t *testing.T) {
	n, drv := newPV(1)
	n.LinkUpdated(2, 5)

	adv := pvAdvert(2, map[state.NodeId]state.Advert{
		2: {Cost: 0, Path: []state.NodeId{2}},
		3: {Cost: 5, Path: []state.NodeId{2, 3}},
	})
	n.HandleMessage(adv)
	drv.take()

	// identical advertisement: recomputation yields the same table and
	// nothing goes out
	n.HandleMessage(adv)
	assert.Empty(t, drv.take())
}

func TestPathVector_SameTimeShorterUpdateMerges(t *testing.T) {
	n, _ := newPV(1)
	n.LinkUpdated(2, 5)

	full := pvAdvert(2, map[state.NodeId]state.Advert{
		2: {Cost: 0, Path: []state.NodeId{2}},
		3: {Cost: 5, Path: []state.NodeId{2, 3}},
		4: {Cost: 7, Path: []state.NodeId{2, 4}},
	})
	partial := pvAdvert(2, map[state.NodeId]state.Advert{
		2: {Cost: 0, Path: []state.NodeId{2}},
	})

	// the scheduler can deliver an older, less complete update after a
	// newer one when both carry the same timestamp; the node keeps what
	// it already knows and overlays the new entries
	n.HandleMessage(full)
	n.HandleMessage(partial)

	assert.Equal(t, state.NodeId(2), n.NextHop(3))
	assert.Equal(t, state.NodeId(2), n.NextHop(4))
}

func TestPathVector_LaterShorterUpdateReplaces(t *testing.T) {
	n, drv := newPV(1)
	n.LinkUpdated(2, 5)

	n.HandleMessage(pvAdvert(2, map[state.NodeId]state.Advert{
		2: {Cost: 0, Path: []state.NodeId{2}},
		3: {Cost: 5, Path: []state.NodeId{2, 3}},
	}))

	// at a strictly later time the shorter vector is authoritative
	drv.now = 1
	n.HandleMessage(pvAdvert(2, map[state.NodeId]state.Advert{
		2: {Cost: 0, Path: []state.NodeId{2}},
	}))

	assert.Equal(t, state.NoRoute, n.NextHop(3))
}

func TestPathVector_TieBreaksOnNextHopId(t *testing.T) {
	n, _ := newPV(1)
	n.LinkUpdated(3, 1)
	n.LinkUpdated(2, 1)

	n.HandleMessage(pvAdvert(3, map[state.NodeId]state.Advert{
		4: {Cost: 1, Path: []state.NodeId{3, 4}},
	}))
	n.HandleMessage(pvAdvert(2, map[state.NodeId]state.Advert{
		4: {Cost: 1, Path: []state.NodeId{2, 4}},
	}))

	// equal cost and equal path length: the smaller next-hop id wins
	r, ok := n.Route(4)
	assert.True(t, ok)
	assert.Equal(t, state.Route{Cost: 2, Nh: 2, Path: []state.NodeId{1, 2, 4}}, r)
}

func TestPathVector_TieBreaksOnPathLength(t *testing.T) {
	n, _ := newPV(1)
	n.LinkUpdated(2, 1)
	n.LinkUpdated(3, 1)

	n.HandleMessage(pvAdvert(2, map[state.NodeId]state.Advert{
		4: {Cost: 2, Path: []state.NodeId{2, 5, 4}},
	}))
	n.HandleMessage(pvAdvert(3, map[state.NodeId]state.Advert{
		4: {Cost: 2, Path: []state.NodeId{3, 4}},
	}))

	// equal cost: the shorter path wins even against a smaller next hop
	r, ok := n.Route(4)
	assert.True(t, ok)
	assert.Equal(t, state.Route{Cost: 3, Nh: 3, Path: []state.NodeId{1, 3, 4}}, r)
}
