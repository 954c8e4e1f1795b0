package catalog

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_LoadsAndResolves(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	require.NotEmpty(t, c.AllHeroes())
	require.NotEmpty(t, c.AllTraits())
	require.NotEmpty(t, c.AllAdvancedSynergies())

	h, err := c.GetHeroByID("adder")
	require.NoError(t, err)
	assert.Equal(t, RoleBackline, h.Role)
	assert.True(t, h.HasTrait("venom"))

	_, err = c.GetHeroByID("nobody")
	assert.ErrorIs(t, err, ErrHeroNotFound)

	venom, ok := c.Trait("venom")
	require.True(t, ok)
	assert.Equal(t, AbilityPoison, venom.Ability)
}

func TestTierFor(t *testing.T) {
	tr := TraitDefinition{ID: "x", Tiers: []Tier{{Count: 2}, {Count: 4}, {Count: 6}}}
	cases := []struct {
		count   int
		wantIdx int
		wantOK  bool
	}{
		{0, -1, false},
		{1, -1, false},
		{2, 0, true},
		{3, 0, true},
		{5, 1, true},
		{6, 2, true},
		{9, 2, true},
	}
	for _, tc := range cases {
		_, idx, ok := tr.TierFor(tc.count)
		assert.Equal(t, tc.wantOK, ok, "count %d", tc.count)
		assert.Equal(t, tc.wantIdx, idx, "count %d", tc.count)
	}
}

func TestLoad_AggregatesValidationErrors(t *testing.T) {
	doc := `
traits:
  - id: a
    name: A
    tiers:
      - {count: 3}
      - {count: 2}
  - id: a
    name: A again
    ability: teleport
    tiers: [{count: 1}]
heroes:
  - {id: h1, name: H1, role: tank, cost: 1, traits: [missing],
     stats: {max_health: 10, attack_damage: 1, attack_range: 1, attack_speed: 1, move_speed: 1}}
synergies:
  - {id: s1, required_traits: [ghost], min_level: 2}
`
	_, err := Load(strings.NewReader(doc))
	require.Error(t, err)
	msg := err.Error()
	for _, want := range []string{
		`trait "a": tier 1 count 2`,
		`duplicate trait id "a"`,
		`unknown ability "teleport"`,
		`unknown role "tank"`,
		`unknown trait "missing"`,
		`synergy "s1": unknown trait "ghost"`,
	} {
		assert.Contains(t, msg, want)
	}
}

func TestLoad_RejectsInertAbilityTiers(t *testing.T) {
	cases := []struct {
		name  string
		trait string
		want  string
	}{
		{"rampage without interval", `{id: t, name: T, ability: rampage, tiers: [{count: 2, stack_attack: 3}]}`, "rampage needs a positive interval"},
		{"rampage without stacks", `{id: t, name: T, ability: rampage, tiers: [{count: 2, interval: 1}]}`, "rampage needs stack_attack or stack_health"},
		{"poison without duration", `{id: t, name: T, ability: poison, tiers: [{count: 2, power: 4}]}`, "poison needs a positive duration"},
		{"first strike without radius", `{id: t, name: T, ability: first_strike, tiers: [{count: 2, power: 2}]}`, "first_strike needs a positive radius"},
		{"execute without power", `{id: t, name: T, ability: execute, tiers: [{count: 2}]}`, "execute needs a positive power"},
		{"negative mantra interval", `{id: t, name: T, ability: mantra, tiers: [{count: 2, power: 0.1, interval: -1}]}`, "mantra interval cannot be negative"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(strings.NewReader("traits:\n  - " + tc.trait + "\n"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), `trait "t": tier 0: `+tc.want)
		})
	}

	doc := `
traits:
  - {id: t, name: T, ability: bleed, tiers: [{count: 2, power: 1, duration: 2}, {count: 4}]}
  - {id: m, name: M, ability: mantra, tiers: [{count: 2, power: 0.04}]}
`
	_, err := Load(strings.NewReader(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `trait "t": tier 1: bleed needs a positive power`)
	assert.NotContains(t, err.Error(), `trait "m"`)
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	doc := `
traits:
  - id: a
    name: A
    tiers: [{count: 2, atack_bonus: 0.2}]
`
	_, err := Load(strings.NewReader(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode catalog")
}

func TestStatsDurations(t *testing.T) {
	s := Stats{AttackSpeed: 0.5, AttackDelay: 0.25}
	assert.Equal(t, 2*time.Second, s.AttackCooldown())
	assert.Equal(t, 250*time.Millisecond, s.Telegraph())
	assert.Equal(t, time.Duration(0), Stats{}.AttackCooldown())
}
