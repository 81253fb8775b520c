package state

import (
	"fmt"
	"os"
	"slices"

	"github.com/goccy/go-yaml"
)

// Protocol selects which routing node variant a scenario instantiates.
type Protocol string

const (
	ProtocolPathVector Protocol = "path-vector"
	ProtocolLinkState  Protocol = "link-state"
)

// LinkCfg is one symmetric link of the initial topology.
type LinkCfg struct {
	A    NodeId `yaml:"a"`
	B    NodeId `yaml:"b"`
	Cost Cost   `yaml:"cost"`
}

// EventCfg is a scheduled change to one link. A cost of -1 deletes the link.
type EventCfg struct {
	At   float64 `yaml:"at"`
	A    NodeId  `yaml:"a"`
	B    NodeId  `yaml:"b"`
	Cost Cost    `yaml:"cost"`
}

// QueryCfg asks a node for its next hop towards a destination at a point in
// simulated time. Results are logged and collected by the runner.
type QueryCfg struct {
	At   float64 `yaml:"at"`
	From NodeId  `yaml:"from"`
	To   NodeId  `yaml:"to"`
}

// Scenario describes one simulation run: the protocol under test, the
// starting topology and a timeline of link events and queries.
type Scenario struct {
	Protocol Protocol   `yaml:"protocol"`
	Duration float64    `yaml:"duration,omitempty"`
	Links    []LinkCfg  `yaml:"links"`
	Events   []EventCfg `yaml:"events,omitempty"`
	Queries  []QueryCfg `yaml:"queries,omitempty"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(file, &sc); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := ScenarioValidator(&sc); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Nodes returns every node id mentioned anywhere in the scenario, sorted.
func (sc *Scenario) Nodes() []NodeId {
	seen := make(map[NodeId]bool)
	for _, l := range sc.Links {
		seen[l.A] = true
		seen[l.B] = true
	}
	for _, e := range sc.Events {
		seen[e.A] = true
		seen[e.B] = true
	}
	for _, q := range sc.Queries {
		seen[q.From] = true
		seen[q.To] = true
	}
	ids := make([]NodeId, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func ScenarioValidator(sc *Scenario) error {
	if sc.Protocol != ProtocolPathVector && sc.Protocol != ProtocolLinkState {
		return fmt.Errorf("unknown protocol %q", sc.Protocol)
	}
	if sc.Duration < 0 {
		return fmt.Errorf("duration must not be negative, got %v", sc.Duration)
	}
	if sc.Duration == 0 {
		sc.Duration = DefaultDuration
	}
	for _, l := range sc.Links {
		if l.A == l.B {
			return fmt.Errorf("link %d-%d connects a node to itself", l.A, l.B)
		}
		if l.Cost < 0 {
			return fmt.Errorf("link %d-%d has negative cost %v", l.A, l.B, l.Cost)
		}
	}
	for _, e := range sc.Events {
		if e.A == e.B {
			return fmt.Errorf("event at t=%v connects node %d to itself", e.At, e.A)
		}
		if e.At < 0 {
			return fmt.Errorf("event for link %d-%d has negative time %v", e.A, e.B, e.At)
		}
		if e.Cost < 0 && e.Cost != LinkDeleted {
			return fmt.Errorf("event for link %d-%d has invalid cost %v", e.A, e.B, e.Cost)
		}
	}
	for _, q := range sc.Queries {
		if q.At < 0 {
			return fmt.Errorf("query %d->%d has negative time %v", q.From, q.To, q.At)
		}
	}
	return nil
}
