// Package synergy turns the traits of a player's deployed units into active
// tier bonuses and advanced synergies.
package synergy

import (
	"maps"
	"slices"

	"github.com/DoyleJ11/autobattler-backend/internal/catalog"
	"github.com/DoyleJ11/autobattler-backend/internal/events"
)

// Carrier is anything that contributes traits to the count, usually a deployed
// combat unit.
type Carrier interface {
	TraitIDs() []string
}

type ActiveTrait struct {
	TraitID   string          `json:"trait_id"`
	Count     int             `json:"count"`
	TierIndex int             `json:"tier"`
	Tier      catalog.Tier    `json:"-"`
	Ability   catalog.Ability `json:"ability,omitempty"`
}

type Result struct {
	Counts   map[string]int                      `json:"counts"`
	Active   map[string]ActiveTrait              `json:"active"`
	Advanced []catalog.AdvancedSynergyDefinition `json:"advanced"`
}

// TierOf reports the active tier index of a trait, -1 when inactive.
func (r Result) TierOf(traitID string) int {
	if a, ok := r.Active[traitID]; ok {
		return a.TierIndex
	}
	return -1
}

func (r Result) AdvancedIDs() []string {
	ids := make([]string, 0, len(r.Advanced))
	for _, a := range r.Advanced {
		ids = append(ids, a.ID)
	}
	return ids
}

type Engine struct {
	catalog catalog.Provider
}

func NewEngine(c catalog.Provider) *Engine {
	return &Engine{catalog: c}
}

// Recalculate counts traits over units and resolves tiers and advanced
// synergies. It has no side effects; calling it twice on the same input gives
// equal results.
func (e *Engine) Recalculate(units []Carrier, level int) Result {
	res := Result{
		Counts: make(map[string]int),
		Active: make(map[string]ActiveTrait),
	}
	for _, u := range units {
		if u == nil {
			continue
		}
		for _, id := range u.TraitIDs() {
			res.Counts[id]++
		}
	}

	for _, id := range slices.Sorted(maps.Keys(res.Counts)) {
		def, ok := e.catalog.Trait(id)
		if !ok {
			continue
		}
		count := res.Counts[id]
		tier, idx, ok := def.TierFor(count)
		if !ok {
			continue
		}
		res.Active[id] = ActiveTrait{TraitID: id, Count: count, TierIndex: idx, Tier: tier, Ability: def.Ability}
	}

	for _, syn := range e.catalog.AllAdvancedSynergies() {
		if level < syn.MinLevel {
			continue
		}
		present := true
		for _, req := range syn.RequiredTraits {
			if res.Counts[req] == 0 {
				present = false
				break
			}
		}
		if present {
			res.Advanced = append(res.Advanced, syn)
		}
	}
	return res
}

type ChangeKind string

const (
	Activated   ChangeKind = "activated"
	Upgraded    ChangeKind = "upgraded"
	Downgraded  ChangeKind = "downgraded"
	Deactivated ChangeKind = "deactivated"
)

type Change struct {
	TraitID string
	Kind    ChangeKind
	From    int
	To      int
}

// Diff compares the active tiers of two results, ordered by trait id.
func Diff(prev, next Result) []Change {
	ids := make(map[string]struct{}, len(prev.Active)+len(next.Active))
	for id := range prev.Active {
		ids[id] = struct{}{}
	}
	for id := range next.Active {
		ids[id] = struct{}{}
	}

	var out []Change
	for _, id := range slices.Sorted(maps.Keys(ids)) {
		from, to := prev.TierOf(id), next.TierOf(id)
		switch {
		case from == to:
			continue
		case from < 0:
			out = append(out, Change{TraitID: id, Kind: Activated, From: from, To: to})
		case to < 0:
			out = append(out, Change{TraitID: id, Kind: Deactivated, From: from, To: to})
		case to > from:
			out = append(out, Change{TraitID: id, Kind: Upgraded, From: from, To: to})
		default:
			out = append(out, Change{TraitID: id, Kind: Downgraded, From: from, To: to})
		}
	}
	return out
}

// Tracker remembers the last result per player so changes can be announced.
type Tracker struct {
	engine *Engine
	sink   events.Sink
	last   map[string]Result
}

func NewTracker(engine *Engine, sink events.Sink) *Tracker {
	if sink == nil {
		sink = events.Nop{}
	}
	return &Tracker{engine: engine, sink: sink, last: make(map[string]Result)}
}

// Update recalculates a player's synergies and emits one event per tier change
// plus one per newly active advanced synergy.
func (t *Tracker) Update(playerID string, units []Carrier, level int) Result {
	next := t.engine.Recalculate(units, level)
	prev := t.last[playerID]
	for _, c := range Diff(prev, next) {
		t.sink.Emit(events.Event{Type: changeEvent(c.Kind), PlayerID: playerID, TraitID: c.TraitID, Value: c.To})
	}
	had := make(map[string]bool, len(prev.Advanced))
	for _, a := range prev.Advanced {
		had[a.ID] = true
	}
	for _, a := range next.Advanced {
		if !had[a.ID] {
			t.sink.Emit(events.Event{Type: events.SynergyActivated, PlayerID: playerID, TraitID: a.ID})
		}
	}
	t.last[playerID] = next
	return next
}

func (t *Tracker) Last(playerID string) Result { return t.last[playerID] }

func (t *Tracker) Forget(playerID string) { delete(t.last, playerID) }

func changeEvent(k ChangeKind) events.Type {
	switch k {
	case Activated:
		return events.TraitActivated
	case Upgraded:
		return events.TraitUpgraded
	case Downgraded:
		return events.TraitDowngraded
	default:
		return events.TraitDeactivated
	}
}
