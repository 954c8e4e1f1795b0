// Package combat simulates a battle between two teams of units: the unit
// model, its buffs, trait abilities and the per-unit AI.
package combat

import (
	"math"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/DoyleJ11/autobattler-backend/internal/catalog"
	"github.com/DoyleJ11/autobattler-backend/internal/grid"
	"github.com/DoyleJ11/autobattler-backend/internal/synergy"
)

const MaxStar = 3

type AIState string

const (
	StateIdle      AIState = "idle"
	StateMoving    AIState = "moving"
	StateAttacking AIState = "attacking"
	StateDead      AIState = "dead"
)

// Vec2 is a world position. One tile is one unit of distance and tile (x,y)
// sits at (x,y).
type Vec2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vec2) Sub(o Vec2) Vec2      { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Add(o Vec2) Vec2      { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Scale(f float64) Vec2 { return Vec2{v.X * f, v.Y * f} }
func (v Vec2) Len() float64         { return math.Hypot(v.X, v.Y) }
func (v Vec2) Dist(o Vec2) float64  { return v.Sub(o).Len() }
func TileCenter(c grid.Coord) Vec2  { return Vec2{float64(c.X), float64(c.Y)} }

// StarMultiplier scales base health and attack: 1, 2 and 4 for one to three
// stars. Anything else counts as one star.
func StarMultiplier(star int) float64 {
	switch star {
	case 2:
		return 2
	case 3:
		return 4
	}
	return 1
}

// StarDamage is what a surviving unit of this star deals to a losing player.
func StarDamage(star int) int {
	return int(StarMultiplier(star))
}

// Unit is one deployed hero. Owner and tile are stored as ids; the roster and
// the grids own the other side of those relations.
type Unit struct {
	ID          string
	OwnerID     string
	Faction     string
	Hero        catalog.HeroDefinition
	Star        int
	Traits      []string
	Health      float64
	BonusAttack float64
	BonusHealth float64
	Pos         Vec2
	Yaw         float64
	Tile        grid.Coord
	HomeTile    grid.Coord
	Alive       bool

	state    AIState
	targetID string
	cooldown time.Duration
	windup   time.Duration
	swinging bool

	buffs       buffSet
	abilities   []boundAbility
	firstStrike bool
	rampage     int
}

func NewUnit(hero catalog.HeroDefinition, ownerID string, star int) *Unit {
	if star < 1 || star > MaxStar {
		star = 1
	}
	u := &Unit{
		ID:      uuid.NewString(),
		OwnerID: ownerID,
		Faction: ownerID,
		Hero:    hero,
		Star:    star,
		Traits:  slices.Clone(hero.Traits),
		Alive:   true,
		state:   StateIdle,
	}
	u.Health = u.MaxHealth()
	return u
}

func (u *Unit) BaseMaxHealth() float64 { return u.Hero.Stats.MaxHealth * StarMultiplier(u.Star) }
func (u *Unit) BaseAttack() float64    { return u.Hero.Stats.AttackDamage * StarMultiplier(u.Star) }
func (u *Unit) MaxHealth() float64     { return u.BaseMaxHealth() + u.BonusHealth }
func (u *Unit) Attack() float64        { return u.BaseAttack() + u.BonusAttack }

// TraitIDs lets a unit count towards its owner's synergies.
func (u *Unit) TraitIDs() []string { return u.Traits }

func (u *Unit) State() AIState     { return u.state }
func (u *Unit) TargetID() string   { return u.targetID }
func (u *Unit) RampageStacks() int { return u.rampage }

// HealthFraction is current over max health, 0 for a unit without health.
func (u *Unit) HealthFraction() float64 {
	m := u.MaxHealth()
	if m <= 0 {
		return 0
	}
	return u.Health / m
}

// SetStar changes the fusion level and refills health.
func (u *Unit) SetStar(star int) {
	if star < 1 || star > MaxStar {
		return
	}
	u.Star = star
	u.Health = u.MaxHealth()
}

// ApplyBonuses adds the stat bonuses of every active trait the unit carries
// and of every active advanced synergy, then refills health.
func (u *Unit) ApplyBonuses(res synergy.Result) {
	var atk, hp float64
	for _, id := range u.Traits {
		if a, ok := res.Active[id]; ok {
			atk += a.Tier.AttackBonus
			hp += a.Tier.HealthBonus
		}
	}
	for _, syn := range res.Advanced {
		atk += syn.AttackBonus
		hp += syn.HealthBonus
	}
	u.BonusAttack += atk * u.BaseAttack()
	u.BonusHealth += hp * u.BaseMaxHealth()
	u.Health = u.MaxHealth()
}

// PlaceAt moves the unit onto a tile of whatever grid it is fighting on.
func (u *Unit) PlaceAt(c grid.Coord) {
	u.Tile = c
	u.Pos = TileCenter(c)
}

// Restore returns the unit to its home board after a battle: home tile, full
// base health, no bonuses, buffs or abilities.
func (u *Unit) Restore() {
	u.BonusAttack = 0
	u.BonusHealth = 0
	u.Faction = u.OwnerID
	u.Alive = true
	u.Health = u.MaxHealth()
	u.PlaceAt(u.HomeTile)
	u.Yaw = 0
	u.resetAI()
	u.buffs.reset()
	u.abilities = nil
	u.firstStrike = false
	u.rampage = 0
}

func (u *Unit) resetAI() {
	u.state = StateIdle
	u.targetID = ""
	u.cooldown = 0
	u.windup = 0
	u.swinging = false
}

type UnitView struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	HeroID      string     `json:"hero_id"`
	Star        int        `json:"star"`
	Health      float64    `json:"health"`
	MaxHealth   float64    `json:"max_health"`
	Attack      float64    `json:"attack"`
	Tile        grid.Coord `json:"tile"`
	Pos         Vec2       `json:"pos"`
	Alive       bool       `json:"alive"`
	State       AIState    `json:"state"`
	Buffs       []BuffType `json:"buffs,omitempty"`
	PoisonStack int        `json:"poison_stacks,omitempty"`
}

func (u *Unit) View() UnitView {
	return UnitView{
		ID:          u.ID,
		OwnerID:     u.OwnerID,
		HeroID:      u.Hero.ID,
		Star:        u.Star,
		Health:      u.Health,
		MaxHealth:   u.MaxHealth(),
		Attack:      u.Attack(),
		Tile:        u.Tile,
		Pos:         u.Pos,
		Alive:       u.Alive,
		State:       u.state,
		Buffs:       u.buffs.types(),
		PoisonStack: u.buffs.poisonTotal(),
	}
}
