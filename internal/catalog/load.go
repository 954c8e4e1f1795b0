package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalog []byte

type file struct {
	Heroes    []HeroDefinition            `yaml:"heroes"`
	Traits    []TraitDefinition           `yaml:"traits"`
	Synergies []AdvancedSynergyDefinition `yaml:"synergies"`
}

// Load decodes a YAML catalog and validates it. Unknown keys are rejected so
// a typo in a tier field does not silently zero a bonus.
func Load(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f file
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return New(f.Heroes, f.Traits, f.Synergies)
}

func LoadFile(path string) (*Catalog, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer fh.Close()
	c, err := Load(fh)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Default returns the catalog bundled with the server.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultCatalog))
}

func validate(heroes []HeroDefinition, traits []TraitDefinition, synergies []AdvancedSynergyDefinition) error {
	var errs error

	traitIDs := make(map[string]struct{}, len(traits))
	for _, t := range traits {
		if strings.TrimSpace(t.ID) == "" {
			errs = multierr.Append(errs, fmt.Errorf("trait %q: missing id", t.Name))
			continue
		}
		if _, dup := traitIDs[t.ID]; dup {
			errs = multierr.Append(errs, fmt.Errorf("duplicate trait id %q", t.ID))
		}
		traitIDs[t.ID] = struct{}{}
		if !t.Ability.Valid() {
			errs = multierr.Append(errs, fmt.Errorf("trait %q: unknown ability %q", t.ID, t.Ability))
		}
		if len(t.Tiers) == 0 {
			errs = multierr.Append(errs, fmt.Errorf("trait %q: no tiers", t.ID))
		}
		prev := 0
		for i, tier := range t.Tiers {
			if tier.Count <= prev {
				errs = multierr.Append(errs, fmt.Errorf("trait %q: tier %d count %d must be greater than %d", t.ID, i, tier.Count, prev))
			}
			prev = tier.Count
			if !t.Ability.Valid() {
				continue
			}
			if err := checkAbility(t.Ability, tier); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("trait %q: tier %d: %w", t.ID, i, err))
			}
		}
	}

	heroIDs := make(map[string]struct{}, len(heroes))
	for _, h := range heroes {
		if strings.TrimSpace(h.ID) == "" {
			errs = multierr.Append(errs, fmt.Errorf("hero %q: missing id", h.Name))
			continue
		}
		if _, dup := heroIDs[h.ID]; dup {
			errs = multierr.Append(errs, fmt.Errorf("duplicate hero id %q", h.ID))
		}
		heroIDs[h.ID] = struct{}{}
		if !h.Role.Valid() {
			errs = multierr.Append(errs, fmt.Errorf("hero %q: unknown role %q", h.ID, h.Role))
		}
		if h.Stats.MaxHealth <= 0 || h.Stats.AttackSpeed <= 0 {
			errs = multierr.Append(errs, fmt.Errorf("hero %q: max_health and attack_speed must be positive", h.ID))
		}
		if h.Stats.AttackDamage < 0 || h.Stats.AttackRange <= 0 || h.Stats.MoveSpeed < 0 || h.Stats.AttackDelay < 0 {
			errs = multierr.Append(errs, fmt.Errorf("hero %q: invalid combat stats", h.ID))
		}
		if h.Cost <= 0 {
			errs = multierr.Append(errs, fmt.Errorf("hero %q: cost must be positive", h.ID))
		}
		for _, tr := range h.Traits {
			if _, ok := traitIDs[tr]; !ok {
				errs = multierr.Append(errs, fmt.Errorf("hero %q: unknown trait %q", h.ID, tr))
			}
		}
	}

	synIDs := make(map[string]struct{}, len(synergies))
	for _, s := range synergies {
		if _, dup := synIDs[s.ID]; dup || s.ID == "" {
			errs = multierr.Append(errs, fmt.Errorf("synergy %q: missing or duplicate id", s.ID))
		}
		synIDs[s.ID] = struct{}{}
		if len(s.RequiredTraits) == 0 {
			errs = multierr.Append(errs, fmt.Errorf("synergy %q: no required traits", s.ID))
		}
		for _, tr := range s.RequiredTraits {
			if _, ok := traitIDs[tr]; !ok {
				errs = multierr.Append(errs, fmt.Errorf("synergy %q: unknown trait %q", s.ID, tr))
			}
		}
	}
	return errs
}

// checkAbility rejects tier parameters that would leave the trait's ability
// doing nothing at runtime.
func checkAbility(a Ability, tier Tier) error {
	switch a {
	case AbilityNone:
		return nil
	case AbilityRampage:
		if tier.Interval <= 0 {
			return errors.New("rampage needs a positive interval")
		}
		if tier.StackAttack <= 0 && tier.StackHealth <= 0 {
			return errors.New("rampage needs stack_attack or stack_health")
		}
		return nil
	}
	if tier.Power <= 0 {
		return fmt.Errorf("%s needs a positive power", a)
	}
	switch a {
	case AbilityFirstStrike:
		if tier.Radius <= 0 {
			return errors.New("first_strike needs a positive radius")
		}
	case AbilityBleed, AbilityPoison:
		if tier.Duration <= 0 {
			return fmt.Errorf("%s needs a positive duration", a)
		}
	case AbilityMantra:
		if tier.Interval < 0 {
			return errors.New("mantra interval cannot be negative")
		}
	}
	return nil
}
