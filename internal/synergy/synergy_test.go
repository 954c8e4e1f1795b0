package synergy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/DoyleJ11/autobattler-backend/internal/catalog"
	"github.com/DoyleJ11/autobattler-backend/internal/events"
	"github.com/DoyleJ11/autobattler-backend/internal/events/eventstest"
)

type carrier []string

func (c carrier) TraitIDs() []string { return c }

func testCatalog(t testing.TB) *catalog.Catalog {
	t.Helper()
	traits := []catalog.TraitDefinition{
		{ID: "venom", Ability: catalog.AbilityPoison, Tiers: []catalog.Tier{{Count: 2, Power: 4, Duration: 3}, {Count: 3, Power: 6, Duration: 3}}},
		{ID: "mystic", Ability: catalog.AbilityMantra, Tiers: []catalog.Tier{{Count: 2, Power: 10}, {Count: 4, Power: 20}}},
		{ID: "ranger", Tiers: []catalog.Tier{{Count: 2, AttackBonus: 0.15}}},
	}
	syn := []catalog.AdvancedSynergyDefinition{
		{ID: "plague", RequiredTraits: []string{"venom", "mystic"}, MinLevel: 5},
	}
	c, err := catalog.New(nil, traits, syn)
	require.NoError(t, err)
	return c
}

func units(lists ...[]string) []Carrier {
	out := make([]Carrier, 0, len(lists))
	for _, l := range lists {
		out = append(out, carrier(l))
	}
	return out
}

func TestRecalculate_HighestQualifyingTier(t *testing.T) {
	e := NewEngine(testCatalog(t))

	res := e.Recalculate(units(
		[]string{"venom", "ranger"},
		[]string{"venom"},
		[]string{"venom", "mystic"},
	), 1)

	assert.Equal(t, map[string]int{"venom": 3, "ranger": 1, "mystic": 1}, res.Counts)
	require.Contains(t, res.Active, "venom")
	assert.Equal(t, 1, res.Active["venom"].TierIndex)
	assert.Equal(t, 6.0, res.Active["venom"].Tier.Power)
	assert.Equal(t, catalog.AbilityPoison, res.Active["venom"].Ability)

	// present but below the first threshold contributes nothing
	assert.NotContains(t, res.Active, "ranger")
	assert.NotContains(t, res.Active, "mystic")
}

func TestRecalculate_AdvancedSynergyIsPresenceAndLevelGated(t *testing.T) {
	e := NewEngine(testCatalog(t))
	board := units([]string{"venom"}, []string{"mystic"})

	assert.Empty(t, e.Recalculate(board, 4).Advanced)

	res := e.Recalculate(board, 5)
	assert.Equal(t, []string{"plague"}, res.AdvancedIDs())

	assert.Empty(t, e.Recalculate(units([]string{"venom"}, []string{"venom"}), 9).Advanced)
}

func TestRecalculate_Idempotent(t *testing.T) {
	e := NewEngine(testCatalog(t))
	pool := []string{"venom", "mystic", "ranger", "unknown"}

	rapid.Check(t, func(t *rapid.T) {
		lists := rapid.SliceOfN(rapid.SliceOfN(rapid.SampledFrom(pool), 0, 3), 0, 10).Draw(t, "units")
		level := rapid.IntRange(1, 9).Draw(t, "level")
		board := units(lists...)

		first := e.Recalculate(board, level)
		second := e.Recalculate(board, level)
		if !assert.ObjectsAreEqual(first, second) {
			t.Fatalf("recalculate not idempotent:\n%+v\n%+v", first, second)
		}
	})
}

func TestDiff(t *testing.T) {
	prev := Result{Active: map[string]ActiveTrait{
		"a": {TierIndex: 0},
		"b": {TierIndex: 1},
		"c": {TierIndex: 0},
	}}
	next := Result{Active: map[string]ActiveTrait{
		"a": {TierIndex: 1},
		"b": {TierIndex: 0},
		"d": {TierIndex: 0},
	}}
	got := Diff(prev, next)
	assert.Equal(t, []Change{
		{TraitID: "a", Kind: Upgraded, From: 0, To: 1},
		{TraitID: "b", Kind: Downgraded, From: 1, To: 0},
		{TraitID: "c", Kind: Deactivated, From: 0, To: -1},
		{TraitID: "d", Kind: Activated, From: -1, To: 0},
	}, got)
}

func TestTracker_EmitsChangesOnlyOnce(t *testing.T) {
	var buf events.Buffer
	tr := NewTracker(NewEngine(testCatalog(t)), &buf)

	board := units([]string{"venom"}, []string{"venom", "mystic"}, []string{"mystic"})
	tr.Update("p1", board, 5)
	evts := buf.Drain()
	assert.Equal(t, 2, eventstest.Count(evts, events.TraitActivated))
	assert.Equal(t, 1, eventstest.Count(evts, events.SynergyActivated))

	tr.Update("p1", board, 5)
	assert.Empty(t, buf.Drain())

	tr.Update("p1", units([]string{"venom"}), 5)
	evts = buf.Drain()
	assert.Equal(t, 2, eventstest.Count(evts, events.TraitDeactivated))
}
