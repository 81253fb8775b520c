package core

import (
	"io"
	"log/slog"
	"testing"

	"github.com/bkmulusew/routesim2/protocol"
	"github.com/bkmulusew/routesim2/state"
)

// testDriver records everything a node broadcasts and lets tests control
// the simulated clock.
type testDriver struct {
	now  float64
	sent [][]byte
}

func (d *testDriver) Now() float64 {
	return d.now
}

func (d *testDriver) Broadcast(raw []byte) {
	d.sent = append(d.sent, raw)
}

// take drains and returns the recorded broadcasts.
func (d *testDriver) take() [][]byte {
	out := d.sent
	d.sent = nil
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// pvAdvert builds a wire advertisement from origin covering the given
// destination entries.
func pvAdvert(origin state.NodeId, entries map[state.NodeId]state.Advert) []byte {
	routes := make(map[state.NodeId]state.Route, len(entries))
	for dest, adv := range entries {
		routes[dest] = state.Route{Cost: adv.Cost, Path: adv.Path}
	}
	return protocol.EncodePathVector(origin, routes)
}

func decodePV(t *testing.T, raw []byte) *protocol.PathVectorAdvert {
	t.Helper()
	adv, ok := protocol.DecodePathVector(raw)
	if !ok {
		t.Fatalf("broadcast is not a valid path-vector advertisement: %s", raw)
	}
	return adv
}

func decodeLS(t *testing.T, raw []byte) *protocol.LinkStateAdvert {
	t.Helper()
	adv, ok := protocol.DecodeLinkState(raw)
	if !ok {
		t.Fatalf("broadcast is not a valid link-state advertisement: %s", raw)
	}
	return adv
}
