package combat

import (
	"math"

	"github.com/DoyleJ11/autobattler-backend/internal/events"
	"github.com/DoyleJ11/autobattler-backend/internal/grid"
)

type DamageKind int

const (
	// DamageAttack is a basic attack. Only these reach OnDamaged hooks.
	DamageAttack DamageKind = iota
	DamageAbility
	DamageDOT
	DamageReflect
	// DamageExecute bypasses shields.
	DamageExecute
)

type Hit struct {
	Source *Unit
	Amount float64
	Kind   DamageKind
}

// Field holds the units of one fight and applies damage and healing to them.
type Field struct {
	units []*Unit
	byID  map[string]*Unit
	grid  *grid.Grid
	sink  events.Sink

	// OnDamaged runs after a basic attack hurts a unit that survives it.
	OnDamaged func(victim, attacker *Unit, taken float64)
	// OnDeath runs once when a unit dies.
	OnDeath func(u *Unit)
}

func NewField(g *grid.Grid, sink events.Sink) *Field {
	if sink == nil {
		sink = events.Nop{}
	}
	return &Field{byID: make(map[string]*Unit), grid: g, sink: sink}
}

func (f *Field) Add(u *Unit) {
	if _, ok := f.byID[u.ID]; ok {
		return
	}
	f.units = append(f.units, u)
	f.byID[u.ID] = u
}

func (f *Field) Unit(id string) *Unit { return f.byID[id] }

// Units returns every unit in insertion order, dead ones included.
func (f *Field) Units() []*Unit { return f.units }

func (f *Field) Alive(faction string) int {
	n := 0
	for _, u := range f.units {
		if u.Alive && u.Faction == faction {
			n++
		}
	}
	return n
}

// Nearest finds the closest living unit of another faction. The first unit
// in insertion order wins a tie.
func (f *Field) Nearest(u *Unit) *Unit {
	var best *Unit
	bestDist := math.Inf(1)
	for _, o := range f.units {
		if o == u || !o.Alive || o.Faction == u.Faction {
			continue
		}
		if d := u.Pos.Dist(o.Pos); d < bestDist {
			best, bestDist = o, d
		}
	}
	return best
}

// EnemiesWithin lists living units hostile to faction within radius of center.
func (f *Field) EnemiesWithin(faction string, center Vec2, radius float64) []*Unit {
	var out []*Unit
	for _, o := range f.units {
		if o.Alive && o.Faction != faction && o.Pos.Dist(center) <= radius {
			out = append(out, o)
		}
	}
	return out
}

// AlliesWithin lists living units of u's faction within radius, u excluded.
func (f *Field) AlliesWithin(u *Unit, radius float64) []*Unit {
	var out []*Unit
	for _, o := range f.units {
		if o != u && o.Alive && o.Faction == u.Faction && o.Pos.Dist(u.Pos) <= radius {
			out = append(out, o)
		}
	}
	return out
}

// Damage rounds the hit to a whole number, lets shields absorb what they can
// and takes the rest from health. It returns the health actually lost.
func (f *Field) Damage(target *Unit, hit Hit) float64 {
	if target == nil || !target.Alive {
		return 0
	}
	amount := math.Round(hit.Amount)
	if amount <= 0 {
		return 0
	}
	if hit.Kind != DamageExecute {
		amount -= target.buffs.absorb(amount)
		if amount <= 0 {
			return 0
		}
	}

	target.Health -= amount
	if target.Health < 0 {
		target.Health = 0
	}
	e := events.Event{
		Type:     events.HealthChanged,
		PlayerID: target.OwnerID,
		UnitID:   target.ID,
		Amount:   -amount,
		Value:    int(math.Round(target.Health)),
	}
	if hit.Source != nil {
		e.SourceID = hit.Source.ID
	}
	f.sink.Emit(e)

	if target.Health <= 0 {
		f.kill(target, hit.Source)
		return amount
	}
	if hit.Kind == DamageAttack && f.OnDamaged != nil {
		f.OnDamaged(target, hit.Source, amount)
	}
	return amount
}

// Heal restores health up to the unit's max and returns the amount gained.
func (f *Field) Heal(u *Unit, amount float64) float64 {
	if u == nil || !u.Alive || amount <= 0 {
		return 0
	}
	gained := math.Min(amount, u.MaxHealth()-u.Health)
	if gained <= 0 {
		return 0
	}
	u.Health += gained
	f.sink.Emit(events.Event{
		Type:     events.HealthChanged,
		PlayerID: u.OwnerID,
		UnitID:   u.ID,
		Amount:   gained,
		Value:    int(math.Round(u.Health)),
	})
	return gained
}

func (f *Field) kill(u *Unit, by *Unit) {
	u.Alive = false
	u.state = StateDead
	u.targetID = ""
	u.swinging = false
	if f.grid != nil {
		f.grid.VacateUnit(u.ID)
	}
	if f.OnDeath != nil {
		f.OnDeath(u)
	}
	e := events.Event{Type: events.UnitDied, PlayerID: u.OwnerID, UnitID: u.ID}
	if by != nil {
		e.SourceID = by.ID
	}
	f.sink.Emit(e)
}
