package combat

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoyleJ11/autobattler-backend/internal/catalog"
	"github.com/DoyleJ11/autobattler-backend/internal/events"
	"github.com/DoyleJ11/autobattler-backend/internal/grid"
	"github.com/DoyleJ11/autobattler-backend/internal/sched"
	"github.com/DoyleJ11/autobattler-backend/internal/synergy"
)

func testHero(id string, hp, atk float64, traits ...string) catalog.HeroDefinition {
	return catalog.HeroDefinition{
		ID:     id,
		Name:   id,
		Role:   catalog.RoleFrontline,
		Cost:   1,
		Traits: traits,
		Stats: catalog.Stats{
			MaxHealth:    hp,
			AttackDamage: atk,
			AttackRange:  1,
			AttackSpeed:  1,
			MoveSpeed:    2,
		},
	}
}

// rig wires a field, resolver and dispatcher on a private clock.
type rig struct {
	field     *Field
	clock     *sched.Scheduler
	buffs     *Resolver
	abilities *Dispatcher
	ai        *AI
	sink      *events.Buffer
}

func newRig() *rig {
	r := &rig{clock: sched.New(), sink: &events.Buffer{}}
	r.field = NewField(grid.New(8, 7, grid.ArenaOwner), r.sink)
	r.buffs = NewResolver(r.field, r.clock, 2.5)
	r.abilities = NewDispatcher(r.field, r.buffs, r.clock, zap.NewNop())
	r.ai = NewAI(r.field, r.abilities)
	r.field.OnDamaged = r.abilities.OnDamaged
	r.field.OnDeath = func(u *Unit) {
		r.buffs.ClearAllBuffs(u)
		r.clock.CancelEntity(u.ID)
	}
	return r
}

func (r *rig) spawn(h catalog.HeroDefinition, faction string, at Vec2) *Unit {
	u := NewUnit(h, faction, 1)
	u.Pos = at
	r.field.Add(u)
	return u
}

func withAbility(traitID string, ability catalog.Ability, tier catalog.Tier) synergy.Result {
	return synergy.Result{
		Counts: map[string]int{traitID: tier.Count},
		Active: map[string]synergy.ActiveTrait{
			traitID: {TraitID: traitID, Count: tier.Count, Tier: tier, Ability: ability},
		},
	}
}

func require64(t *testing.T, want, got float64) {
	t.Helper()
	require.InDelta(t, want, got, 1e-9)
}
