package combat

import (
	"fmt"
	"slices"
	"time"

	"github.com/DoyleJ11/autobattler-backend/internal/events"
	"github.com/DoyleJ11/autobattler-backend/internal/sched"
)

type BuffType string

const (
	BuffPoison        BuffType = "poison"
	BuffBleed         BuffType = "bleed"
	BuffShield        BuffType = "shield"
	BuffLifestealAura BuffType = "lifesteal_aura"
	BuffMantraAura    BuffType = "mantra_aura"
)

// exclusiveOrder is the listing order of the non-stacking buffs.
var exclusiveOrder = []BuffType{BuffBleed, BuffShield, BuffLifestealAura, BuffMantraAura}

const (
	// DOTInterval is the tick rate of poison and bleed.
	DOTInterval = 500 * time.Millisecond
	// DefaultMantraInterval applies when a mantra aura is granted without one.
	DefaultMantraInterval = time.Second
)

// Buff is one running effect. A zero Duration lasts until the battle ends.
type Buff struct {
	Type      BuffType      `json:"type"`
	Magnitude float64       `json:"magnitude"`
	Duration  time.Duration `json:"duration"`
	Started   time.Duration `json:"started"`
	SourceID  string        `json:"source_id,omitempty"`

	keys []sched.Key
}

type buffSet struct {
	exclusive map[BuffType]*Buff
	poison    []*Buff
	bySource  map[string]int
	shield    float64
}

func (s *buffSet) reset() {
	s.exclusive = nil
	s.poison = nil
	s.bySource = nil
	s.shield = 0
}

func (s *buffSet) poisonTotal() int { return len(s.poison) }

// absorb takes up to amount out of the shield and returns what it stopped.
func (s *buffSet) absorb(amount float64) float64 {
	if s.shield <= 0 {
		return 0
	}
	taken := min(s.shield, amount)
	s.shield -= taken
	return taken
}

func (s *buffSet) types() []BuffType {
	var out []BuffType
	for _, t := range exclusiveOrder {
		if _, ok := s.exclusive[t]; ok {
			out = append(out, t)
		}
	}
	if len(s.poison) > 0 {
		out = append(out, BuffPoison)
	}
	return out
}

func (s *buffSet) magnitude(t BuffType) float64 {
	if b, ok := s.exclusive[t]; ok {
		return b.Magnitude
	}
	return 0
}

// Buffs lists copies of the unit's running buffs: exclusive ones first, then
// poison stacks in application order.
func (u *Unit) Buffs() []Buff {
	var out []Buff
	for _, t := range exclusiveOrder {
		if b, ok := u.buffs.exclusive[t]; ok {
			out = append(out, *b)
		}
	}
	for _, b := range u.buffs.poison {
		out = append(out, *b)
	}
	return out
}

func (u *Unit) HasBuff(t BuffType) bool {
	if t == BuffPoison {
		return len(u.buffs.poison) > 0
	}
	_, ok := u.buffs.exclusive[t]
	return ok
}

// Shield is the damage the unit's shield can still absorb.
func (u *Unit) Shield() float64 { return u.buffs.shield }

// LifestealPct is the fraction of attack damage healed back, 0 without an aura.
func (u *Unit) LifestealPct() float64 { return u.buffs.magnitude(BuffLifestealAura) }

// Resolver applies and times buffs on the units of a field.
type Resolver struct {
	field  *Field
	sched  *sched.Scheduler
	sink   events.Sink
	radius float64
	seq    uint64
}

// NewResolver returns a resolver whose mantra auras heal allies within radius.
func NewResolver(f *Field, s *sched.Scheduler, mantraRadius float64) *Resolver {
	return &Resolver{field: f, sched: s, sink: f.sink, radius: mantraRadius}
}

// Apply starts a buff on u. Poison adds an independent stack per call; every
// other type replaces a running instance of the same type. Poison and bleed
// need a positive duration; other types treat a non-positive one as lasting
// the whole battle.
func (r *Resolver) Apply(u *Unit, t BuffType, magnitude float64, duration time.Duration, source *Unit) {
	if u == nil || !u.Alive {
		return
	}
	switch t {
	case BuffPoison:
		r.applyPoison(u, magnitude, duration, source)
	case BuffBleed:
		r.applyBleed(u, magnitude, duration, source)
	case BuffShield, BuffLifestealAura:
		r.applyTimed(u, t, magnitude, duration, source)
	case BuffMantraAura:
		r.ApplyMantra(u, magnitude, duration, DefaultMantraInterval)
	}
}

// ApplyMantra grants u an aura that heals nearby living allies by percent of
// their max health every interval.
func (r *Resolver) ApplyMantra(u *Unit, percent float64, duration, interval time.Duration) {
	if u == nil || !u.Alive {
		return
	}
	if interval <= 0 {
		interval = DefaultMantraInterval
	}
	b := r.replace(u, BuffMantraAura, percent, duration, u)
	tick := sched.Key{Entity: u.ID, Effect: "mantra"}
	b.keys = append(b.keys, tick)
	r.sched.Every(tick, interval, func() bool {
		if !u.Alive {
			return false
		}
		for _, ally := range r.field.AlliesWithin(u, r.radius) {
			r.field.Heal(ally, percent*ally.MaxHealth())
		}
		return true
	})
	if duration > 0 {
		r.expireAfter(u, b, duration)
	}
}

// ClearAllBuffs cancels every buff on u with no further effect and zeroes its
// poison counters.
func (r *Resolver) ClearAllBuffs(u *Unit) {
	if u == nil {
		return
	}
	for _, b := range u.buffs.exclusive {
		r.cancel(b)
	}
	hadPoison := len(u.buffs.poison) > 0
	for _, b := range u.buffs.poison {
		r.cancel(b)
	}
	u.buffs.reset()
	if hadPoison {
		r.emitStacks(u, "")
	}
}

// ClearAllPoison cancels every poison stack on u.
func (r *Resolver) ClearAllPoison(u *Unit) {
	if u == nil || len(u.buffs.poison) == 0 {
		return
	}
	for _, b := range u.buffs.poison {
		r.cancel(b)
	}
	u.buffs.poison = nil
	u.buffs.bySource = nil
	r.emitStacks(u, "")
}

// PoisonStacks is the number of poison stacks running on u.
func PoisonStacks(u *Unit) int { return u.buffs.poisonTotal() }

// PoisonStacksFrom counts the stacks on u applied by source.
func PoisonStacksFrom(u *Unit, sourceID string) int { return u.buffs.bySource[sourceID] }

func (r *Resolver) applyPoison(u *Unit, dmg float64, duration time.Duration, source *Unit) {
	ticks := int(duration / DOTInterval)
	if ticks < 1 || dmg <= 0 {
		return
	}
	r.seq++
	key := sched.Key{Entity: u.ID, Effect: fmt.Sprintf("poison:%d", r.seq)}
	b := &Buff{
		Type:      BuffPoison,
		Magnitude: dmg,
		Duration:  duration,
		Started:   r.sched.Now(),
		SourceID:  sourceID(source),
		keys:      []sched.Key{key},
	}
	u.buffs.poison = append(u.buffs.poison, b)
	if u.buffs.bySource == nil {
		u.buffs.bySource = make(map[string]int)
	}
	u.buffs.bySource[b.SourceID]++
	r.emitStacks(u, b.SourceID)

	r.sched.Every(key, DOTInterval, func() bool {
		r.field.Damage(u, Hit{Source: source, Amount: dmg, Kind: DamageDOT})
		if !u.Alive {
			return false
		}
		ticks--
		if ticks > 0 {
			return true
		}
		r.dropPoison(u, b)
		return false
	})
}

func (r *Resolver) dropPoison(u *Unit, b *Buff) {
	i := slices.Index(u.buffs.poison, b)
	if i < 0 {
		return
	}
	u.buffs.poison = slices.Delete(u.buffs.poison, i, i+1)
	if u.buffs.bySource[b.SourceID]--; u.buffs.bySource[b.SourceID] <= 0 {
		delete(u.buffs.bySource, b.SourceID)
	}
	r.emitStacks(u, b.SourceID)
}

func (r *Resolver) applyBleed(u *Unit, dmg float64, duration time.Duration, source *Unit) {
	ticks := int(duration / DOTInterval)
	if ticks < 1 || dmg <= 0 {
		return
	}
	b := r.replace(u, BuffBleed, dmg, duration, source)
	key := sched.Key{Entity: u.ID, Effect: string(BuffBleed)}
	b.keys = append(b.keys, key)
	r.sched.Every(key, DOTInterval, func() bool {
		r.field.Damage(u, Hit{Source: source, Amount: dmg, Kind: DamageDOT})
		if !u.Alive {
			return false
		}
		ticks--
		if ticks > 0 {
			return true
		}
		r.drop(u, b)
		return false
	})
}

func (r *Resolver) applyTimed(u *Unit, t BuffType, magnitude float64, duration time.Duration, source *Unit) {
	b := r.replace(u, t, magnitude, duration, source)
	if t == BuffShield {
		u.buffs.shield = magnitude
	}
	if duration > 0 {
		r.expireAfter(u, b, duration)
	}
}

// replace cancels a running buff of type t and records a fresh one.
func (r *Resolver) replace(u *Unit, t BuffType, magnitude float64, duration time.Duration, source *Unit) *Buff {
	if old, ok := u.buffs.exclusive[t]; ok {
		r.cancel(old)
		r.drop(u, old)
	}
	b := &Buff{
		Type:      t,
		Magnitude: magnitude,
		Duration:  max(duration, 0),
		Started:   r.sched.Now(),
		SourceID:  sourceID(source),
	}
	if u.buffs.exclusive == nil {
		u.buffs.exclusive = make(map[BuffType]*Buff)
	}
	u.buffs.exclusive[t] = b
	return b
}

func (r *Resolver) expireAfter(u *Unit, b *Buff, d time.Duration) {
	key := sched.Key{Entity: u.ID, Effect: string(b.Type) + ":expire"}
	b.keys = append(b.keys, key)
	r.sched.After(key, d, func() {
		r.cancel(b)
		r.drop(u, b)
	})
}

// drop forgets an exclusive buff if it is still the running one.
func (r *Resolver) drop(u *Unit, b *Buff) {
	if u.buffs.exclusive[b.Type] != b {
		return
	}
	delete(u.buffs.exclusive, b.Type)
	if b.Type == BuffShield {
		u.buffs.shield = 0
	}
}

func (r *Resolver) cancel(b *Buff) {
	for _, k := range b.keys {
		r.sched.Cancel(k)
	}
}

func (r *Resolver) emitStacks(u *Unit, sourceID string) {
	r.sink.Emit(events.Event{
		Type:     events.BuffStacksChanged,
		PlayerID: u.OwnerID,
		UnitID:   u.ID,
		SourceID: sourceID,
		Buff:     string(BuffPoison),
		Value:    len(u.buffs.poison),
	})
}

func sourceID(u *Unit) string {
	if u == nil {
		return ""
	}
	return u.ID
}
