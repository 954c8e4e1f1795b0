package combat

import (
	"go.uber.org/zap"

	"github.com/DoyleJ11/autobattler-backend/internal/catalog"
	"github.com/DoyleJ11/autobattler-backend/internal/events"
	"github.com/DoyleJ11/autobattler-backend/internal/sched"
	"github.com/DoyleJ11/autobattler-backend/internal/synergy"
)

type boundAbility struct {
	kind    catalog.Ability
	traitID string
	tier    catalog.Tier
}

// Dispatcher runs trait abilities at battle start, on attacks and on damage.
type Dispatcher struct {
	field *Field
	buffs *Resolver
	sched *sched.Scheduler
	sink  events.Sink
	log   *zap.Logger
}

func NewDispatcher(f *Field, r *Resolver, s *sched.Scheduler, log *zap.Logger) *Dispatcher {
	return &Dispatcher{field: f, buffs: r, sched: s, sink: f.sink, log: log.Named("abilities")}
}

// Bind gives u the abilities of its traits that are active for its owner.
func (d *Dispatcher) Bind(u *Unit, res synergy.Result) {
	u.abilities = u.abilities[:0]
	for _, id := range u.Traits {
		a, ok := res.Active[id]
		if !ok || a.Ability == catalog.AbilityNone {
			continue
		}
		u.abilities = append(u.abilities, boundAbility{kind: a.Ability, traitID: id, tier: a.Tier})
	}
}

func (u *Unit) ability(kind catalog.Ability) (boundAbility, bool) {
	for _, a := range u.abilities {
		if a.kind == kind {
			return a, true
		}
	}
	return boundAbility{}, false
}

// OnBattleStart arms one-shot abilities and starts the self buffs and
// periodic abilities of every living unit.
func (d *Dispatcher) OnBattleStart(units []*Unit) {
	for _, u := range units {
		if u == nil || !u.Alive {
			continue
		}
		u.firstStrike = false
		u.rampage = 0
		for _, a := range u.abilities {
			switch a.kind {
			case catalog.AbilityFirstStrike:
				u.firstStrike = true
			case catalog.AbilityRampage:
				d.startRampage(u, a.tier)
			case catalog.AbilityLifesteal:
				d.buffs.Apply(u, BuffLifestealAura, a.tier.Power, catalog.Seconds(a.tier.Duration), u)
			case catalog.AbilityMantra:
				d.buffs.ApplyMantra(u, a.tier.Power, catalog.Seconds(a.tier.Duration), catalog.Seconds(a.tier.Interval))
			case catalog.AbilityShield:
				d.buffs.Apply(u, BuffShield, a.tier.Power, catalog.Seconds(a.tier.Duration), u)
			}
		}
	}
}

// OnAttack runs after attacker's basic attack has landed on target.
func (d *Dispatcher) OnAttack(attacker, target *Unit) {
	if attacker == nil || target == nil || !attacker.Alive || !target.Alive {
		return
	}
	for _, a := range attacker.abilities {
		switch a.kind {
		case catalog.AbilityFirstStrike:
			if !attacker.firstStrike {
				continue
			}
			attacker.firstStrike = false
			splash := a.tier.Power * attacker.BaseAttack()
			for _, e := range d.field.EnemiesWithin(attacker.Faction, target.Pos, a.tier.Radius) {
				d.field.Damage(e, Hit{Source: attacker, Amount: splash, Kind: DamageAbility})
			}
		case catalog.AbilityBleed:
			d.buffs.Apply(target, BuffBleed, a.tier.Power, catalog.Seconds(a.tier.Duration), attacker)
		case catalog.AbilityPoison:
			d.buffs.Apply(target, BuffPoison, a.tier.Power, catalog.Seconds(a.tier.Duration), attacker)
		}
	}
	if a, ok := attacker.ability(catalog.AbilityExecute); ok && target.Alive {
		if target.HealthFraction() <= a.tier.Power {
			d.log.Debug("execute", zap.String("unit_id", attacker.ID), zap.String("target_id", target.ID))
			d.field.Damage(target, Hit{Source: attacker, Amount: target.Health + target.MaxHealth(), Kind: DamageExecute})
		}
	}
}

// OnDamaged runs after victim survived a basic attack from attacker.
func (d *Dispatcher) OnDamaged(victim, attacker *Unit, taken float64) {
	if victim == nil || attacker == nil || !victim.Alive || !attacker.Alive || taken <= 0 {
		return
	}
	if a, ok := victim.ability(catalog.AbilityReflect); ok {
		d.field.Damage(attacker, Hit{Source: victim, Amount: a.tier.Power * taken, Kind: DamageReflect})
	}
}

func (d *Dispatcher) startRampage(u *Unit, tier catalog.Tier) {
	key := sched.Key{Entity: u.ID, Effect: "rampage"}
	d.sched.Every(key, catalog.Seconds(tier.Interval), func() bool {
		if !u.Alive {
			return false
		}
		u.rampage++
		u.BonusAttack += tier.StackAttack * u.BaseAttack()
		hp := tier.StackHealth * u.BaseMaxHealth()
		u.BonusHealth += hp
		u.Health += hp
		d.sink.Emit(events.Event{
			Type:     events.BuffStacksChanged,
			PlayerID: u.OwnerID,
			UnitID:   u.ID,
			Buff:     string(catalog.AbilityRampage),
			Value:    u.rampage,
		})
		if tier.MaxStacks > 0 && u.rampage >= tier.MaxStacks {
			if tier.Lifesteal > 0 {
				d.buffs.Apply(u, BuffLifestealAura, tier.Lifesteal, catalog.Seconds(tier.Duration), u)
			}
			return false
		}
		return true
	})
}
