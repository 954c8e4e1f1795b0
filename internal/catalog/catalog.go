package catalog

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

var (
	ErrHeroNotFound  = errors.New("hero not found")
	ErrTraitNotFound = errors.New("trait not found")
)

type Role string

const (
	RoleFrontline Role = "frontline"
	RoleBackline  Role = "backline"
	RoleFlexible  Role = "flexible"
)

func (r Role) Valid() bool {
	switch r {
	case RoleFrontline, RoleBackline, RoleFlexible:
		return true
	}
	return false
}

// Ability names the trait-triggered behavior a trait grants its carriers.
type Ability string

const (
	AbilityNone        Ability = ""
	AbilityFirstStrike Ability = "first_strike"
	AbilityBleed       Ability = "bleed"
	AbilityPoison      Ability = "poison"
	AbilityReflect     Ability = "reflect"
	AbilityExecute     Ability = "execute"
	AbilityRampage     Ability = "rampage"
	AbilityLifesteal   Ability = "lifesteal"
	AbilityMantra      Ability = "mantra"
	AbilityShield      Ability = "shield"
)

func (a Ability) Valid() bool {
	switch a {
	case AbilityNone, AbilityFirstStrike, AbilityBleed, AbilityPoison, AbilityReflect,
		AbilityExecute, AbilityRampage, AbilityLifesteal, AbilityMantra, AbilityShield:
		return true
	}
	return false
}

// Stats are base (one-star) values. Durations are in seconds.
type Stats struct {
	MaxHealth    float64 `yaml:"max_health" json:"max_health"`
	AttackDamage float64 `yaml:"attack_damage" json:"attack_damage"`
	AttackRange  float64 `yaml:"attack_range" json:"attack_range"`
	AttackSpeed  float64 `yaml:"attack_speed" json:"attack_speed"`
	MoveSpeed    float64 `yaml:"move_speed" json:"move_speed"`
	AttackDelay  float64 `yaml:"attack_delay" json:"attack_delay"`
}

// AttackCooldown is the time between two attack starts.
func (s Stats) AttackCooldown() time.Duration {
	if s.AttackSpeed <= 0 {
		return 0
	}
	return Seconds(1 / s.AttackSpeed)
}

func (s Stats) Telegraph() time.Duration { return Seconds(s.AttackDelay) }

type HeroDefinition struct {
	ID     string   `yaml:"id" json:"id"`
	Name   string   `yaml:"name" json:"name"`
	Stats  Stats    `yaml:"stats" json:"stats"`
	Role   Role     `yaml:"role" json:"role"`
	Cost   int      `yaml:"cost" json:"cost"`
	Traits []string `yaml:"traits" json:"traits"`
}

func (h HeroDefinition) HasTrait(id string) bool { return slices.Contains(h.Traits, id) }

// Tier is one threshold of a trait. Bonus fractions are relative to the
// carrier's base stats; ability parameters are read by the ability named on
// the trait.
type Tier struct {
	Count       int     `yaml:"count" json:"count"`
	Description string  `yaml:"description" json:"description"`
	AttackBonus float64 `yaml:"attack_bonus" json:"attack_bonus,omitempty"`
	HealthBonus float64 `yaml:"health_bonus" json:"health_bonus,omitempty"`
	Power       float64 `yaml:"power" json:"power,omitempty"`
	Radius      float64 `yaml:"radius" json:"radius,omitempty"`
	Duration    float64 `yaml:"duration" json:"duration,omitempty"`
	Interval    float64 `yaml:"interval" json:"interval,omitempty"`
	MaxStacks   int     `yaml:"max_stacks" json:"max_stacks,omitempty"`
	StackAttack float64 `yaml:"stack_attack" json:"stack_attack,omitempty"`
	StackHealth float64 `yaml:"stack_health" json:"stack_health,omitempty"`
	Lifesteal   float64 `yaml:"lifesteal" json:"lifesteal,omitempty"`
}

type TraitDefinition struct {
	ID          string  `yaml:"id" json:"id"`
	Name        string  `yaml:"name" json:"name"`
	Description string  `yaml:"description" json:"description"`
	Ability     Ability `yaml:"ability" json:"ability,omitempty"`
	Tiers       []Tier  `yaml:"tiers" json:"tiers"`
}

// TierFor returns the highest tier whose Count does not exceed count.
func (t TraitDefinition) TierFor(count int) (Tier, int, bool) {
	idx := -1
	for i, tier := range t.Tiers {
		if tier.Count <= count {
			idx = i
		}
	}
	if idx < 0 {
		return Tier{}, -1, false
	}
	return t.Tiers[idx], idx, true
}

type AdvancedSynergyDefinition struct {
	ID             string   `yaml:"id" json:"id"`
	Name           string   `yaml:"name" json:"name"`
	Description    string   `yaml:"description" json:"description"`
	RequiredTraits []string `yaml:"required_traits" json:"required_traits"`
	MinLevel       int      `yaml:"min_level" json:"min_level"`
	AttackBonus    float64  `yaml:"attack_bonus" json:"attack_bonus,omitempty"`
	HealthBonus    float64  `yaml:"health_bonus" json:"health_bonus,omitempty"`
}

// Provider is the read-only catalog the engine consumes. It is loaded once
// before the first placement phase.
type Provider interface {
	GetHeroByID(id string) (HeroDefinition, error)
	AllHeroes() []HeroDefinition
	Trait(id string) (TraitDefinition, bool)
	AllTraits() []TraitDefinition
	AllAdvancedSynergies() []AdvancedSynergyDefinition
}

type Catalog struct {
	heroes    []HeroDefinition
	heroIdx   map[string]int
	traits    []TraitDefinition
	traitIdx  map[string]int
	synergies []AdvancedSynergyDefinition
}

// New validates the definitions and builds an in-memory catalog.
func New(heroes []HeroDefinition, traits []TraitDefinition, synergies []AdvancedSynergyDefinition) (*Catalog, error) {
	if err := validate(heroes, traits, synergies); err != nil {
		return nil, err
	}
	c := &Catalog{
		heroes:    slices.Clone(heroes),
		heroIdx:   make(map[string]int, len(heroes)),
		traits:    slices.Clone(traits),
		traitIdx:  make(map[string]int, len(traits)),
		synergies: slices.Clone(synergies),
	}
	for i, h := range c.heroes {
		c.heroIdx[h.ID] = i
	}
	for i, t := range c.traits {
		c.traitIdx[t.ID] = i
	}
	return c, nil
}

func (c *Catalog) GetHeroByID(id string) (HeroDefinition, error) {
	i, ok := c.heroIdx[id]
	if !ok {
		return HeroDefinition{}, fmt.Errorf("%w: %q", ErrHeroNotFound, id)
	}
	return c.heroes[i], nil
}

func (c *Catalog) AllHeroes() []HeroDefinition { return slices.Clone(c.heroes) }

func (c *Catalog) Trait(id string) (TraitDefinition, bool) {
	i, ok := c.traitIdx[id]
	if !ok {
		return TraitDefinition{}, false
	}
	return c.traits[i], true
}

func (c *Catalog) AllTraits() []TraitDefinition { return slices.Clone(c.traits) }

func (c *Catalog) AllAdvancedSynergies() []AdvancedSynergyDefinition {
	return slices.Clone(c.synergies)
}

// Seconds converts a catalog duration in seconds.
func Seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
