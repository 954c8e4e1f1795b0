package combat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/DoyleJ11/autobattler-backend/internal/catalog"
	"github.com/DoyleJ11/autobattler-backend/internal/events"
	"github.com/DoyleJ11/autobattler-backend/internal/events/eventstest"
	"github.com/DoyleJ11/autobattler-backend/internal/grid"
	"github.com/DoyleJ11/autobattler-backend/internal/synergy"
)

const step = 50 * time.Millisecond

func runToEnd(t *testing.T, b *Battle, limit time.Duration) Outcome {
	t.Helper()
	for elapsed := time.Duration(0); elapsed < limit; elapsed += step {
		if b.Step(step) {
			return b.Outcome()
		}
	}
	t.Fatalf("battle still running after %s", limit)
	return Outcome{}
}

func placed(h catalog.HeroDefinition, owner string, star int, at grid.Coord) *Unit {
	u := NewUnit(h, owner, star)
	u.PlaceAt(at)
	return u
}

func TestBattle_StrongerSideWins(t *testing.T) {
	sink := &events.Buffer{}
	strong := placed(testHero("warlord", 1000, 100), "p1", 1, grid.Coord{X: 3, Y: 3})
	weak := placed(testHero("acolyte", 100, 1), "p2", 1, grid.Coord{X: 3, Y: 4})

	b := NewBattle("m1", grid.New(8, 7, grid.ArenaOwner),
		Team{Faction: "m1:a", Units: []*Unit{strong}},
		Team{Faction: "m1:b", Units: []*Unit{weak}},
		sink, zaptest.NewLogger(t), DefaultConfig())

	out := runToEnd(t, b, 10*time.Second)
	assert.Equal(t, "m1:a", out.Winner)
	assert.False(t, out.Draw())
	assert.False(t, out.TimedOut)
	require.Len(t, out.Survivors, 1)
	assert.Same(t, strong, out.Survivors[0])
	assert.False(t, weak.Alive)
	assert.Zero(t, b.Clock().Len())

	evts := sink.Drain()
	assert.Equal(t, 1, eventstest.Count(evts, events.BattleStarted))
	assert.Equal(t, 1, eventstest.Count(evts, events.BattleEnded))
	assert.Equal(t, 1, eventstest.Count(evts, events.UnitDied))
}

func TestBattle_TimeoutIsDraw(t *testing.T) {
	frozen := testHero("statue", 100, 10)
	frozen.Stats.MoveSpeed = 0
	cfg := DefaultConfig()
	cfg.Timeout = 2 * time.Second

	b := NewBattle("m1", grid.New(8, 7, grid.ArenaOwner),
		Team{Faction: "a", Units: []*Unit{placed(frozen, "p1", 1, grid.Coord{X: 0, Y: 0})}},
		Team{Faction: "b", Units: []*Unit{placed(frozen, "p2", 1, grid.Coord{X: 6, Y: 7})}},
		nil, zap.NewNop(), cfg)

	out := runToEnd(t, b, 3*time.Second)
	assert.True(t, out.Draw())
	assert.True(t, out.TimedOut)
	assert.Empty(t, out.Survivors)
	assert.Equal(t, 2*time.Second, out.Elapsed)
}

func TestBattle_EmptySideLosesAtStart(t *testing.T) {
	u := placed(testHero("u", 100, 10), "p1", 1, grid.Coord{})
	b := NewBattle("m1", grid.New(8, 7, grid.ArenaOwner),
		Team{Faction: "a"},
		Team{Faction: "b", Units: []*Unit{u}},
		nil, zap.NewNop(), DefaultConfig())

	b.Start()
	require.True(t, b.Done())
	assert.Equal(t, "b", b.Outcome().Winner)
	assert.True(t, b.Step(step))
}

func TestBattle_BothEmptyIsDraw(t *testing.T) {
	b := NewBattle("m1", grid.New(8, 7, grid.ArenaOwner), Team{Faction: "a"}, Team{Faction: "b"},
		nil, zap.NewNop(), DefaultConfig())
	assert.True(t, b.Step(step))
	assert.True(t, b.Outcome().Draw())
}

func TestBattle_ExcludesBrokenUnits(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	good := placed(testHero("u", 100, 10), "p1", 1, grid.Coord{})
	noHero := placed(catalog.HeroDefinition{}, "p1", 1, grid.Coord{X: 1})
	noOwner := placed(testHero("u", 100, 10), "", 1, grid.Coord{X: 2})

	b := NewBattle("m1", grid.New(8, 7, grid.ArenaOwner),
		Team{Faction: "a", Units: []*Unit{good, noHero, noOwner, nil}},
		Team{Faction: "b"},
		nil, zap.New(core), DefaultConfig())

	assert.Len(t, b.Field().Units(), 1)
	assert.Len(t, b.Teams()[0].Units, 1)
	assert.Equal(t, 2, logs.Len())
}

func TestBattle_AppliesSynergiesAtBuild(t *testing.T) {
	u := placed(testHero("warden", 100, 10, "warden"), "p1", 1, grid.Coord{})
	res := synergy.Result{Active: map[string]synergy.ActiveTrait{
		"warden": {TraitID: "warden", Count: 2, Ability: catalog.AbilityShield,
			Tier: catalog.Tier{Count: 2, HealthBonus: 0.5, Power: 40, Duration: 8}},
	}}
	foe := placed(testHero("foe", 100, 10), "p2", 1, grid.Coord{X: 6, Y: 7})

	b := NewBattle("m1", grid.New(8, 7, grid.ArenaOwner),
		Team{Faction: "a", Units: []*Unit{u}, Synergies: map[string]synergy.Result{"p1": res}},
		Team{Faction: "b", Units: []*Unit{foe}},
		nil, zap.NewNop(), DefaultConfig())

	require64(t, 150, u.MaxHealth())
	assert.Equal(t, "a", u.Faction)
	b.Start()
	require64(t, 40, u.Shield())
}

func TestBattle_StopCancelsEverything(t *testing.T) {
	sink := &events.Buffer{}
	a := placed(testHero("a", 1000, 10), "p1", 1, grid.Coord{X: 0, Y: 0})
	z := placed(testHero("z", 1000, 10), "p2", 1, grid.Coord{X: 6, Y: 7})
	b := NewBattle("m1", grid.New(8, 7, grid.ArenaOwner),
		Team{Faction: "a", Units: []*Unit{a}}, Team{Faction: "b", Units: []*Unit{z}},
		sink, zap.NewNop(), DefaultConfig())
	b.Start()
	b.Buffs().Apply(z, BuffPoison, 4, 4*time.Second, a)
	b.Buffs().Apply(a, BuffShield, 100, 0, a)

	b.Stop()
	sink.Drain()
	assert.True(t, b.Done())
	assert.Zero(t, b.Clock().Len())
	assert.Zero(t, PoisonStacks(z))
	assert.Empty(t, a.Buffs())

	b.Step(time.Minute)
	assert.Zero(t, eventstest.Count(sink.Drain(), events.HealthChanged))
	require64(t, 1000, z.Health)
}

func TestBattle_TwoVersusTwo(t *testing.T) {
	h := testHero("u", 300, 40)
	teamA := []*Unit{
		placed(h, "p1", 2, grid.Coord{X: 1, Y: 3}),
		placed(h, "p2", 2, grid.Coord{X: 3, Y: 3}),
	}
	teamB := []*Unit{
		placed(h, "p3", 1, grid.Coord{X: 2, Y: 4}),
		placed(h, "p4", 1, grid.Coord{X: 4, Y: 4}),
	}
	b := NewBattle("m1", grid.New(8, 7, grid.ArenaOwner),
		Team{Faction: "a", Units: teamA}, Team{Faction: "b", Units: teamB},
		nil, zap.NewNop(), DefaultConfig())

	out := runToEnd(t, b, 30*time.Second)
	assert.Equal(t, "a", out.Winner)
	for _, u := range out.Survivors {
		assert.Equal(t, "a", u.Faction)
		assert.True(t, u.Alive)
	}
	for _, u := range teamB {
		assert.False(t, u.Alive)
	}
}
