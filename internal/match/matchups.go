package match

import (
	"fmt"
	"math/rand/v2"
	"slices"
)

// Matchup is one battle of a round: two teams of player ids.
type Matchup struct {
	ID    string   `json:"id"`
	TeamA []string `json:"team_a"`
	TeamB []string `json:"team_b"`
}

func (m Matchup) Players() []string {
	return slices.Concat(m.TeamA, m.TeamB)
}

func (m Matchup) FactionA() string { return m.ID + ":a" }
func (m Matchup) FactionB() string { return m.ID + ":b" }

// BuildMatchups shuffles players and deals them into battles: groups of four
// split randomly into 2v2, then a 1v1 for a leftover pair. A leftover of
// three plays one 1v1 and sits one player out; a single leftover sits out.
func BuildMatchups(round int, players []string, rng *rand.Rand) ([]Matchup, []string) {
	pool := slices.Clone(players)
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	var (
		out  []Matchup
		idle []string
	)
	nextID := func() string { return fmt.Sprintf("r%d-m%d", round, len(out)+1) }

	i := 0
	for ; len(pool)-i >= 4; i += 4 {
		g := slices.Clone(pool[i : i+4])
		rng.Shuffle(len(g), func(a, b int) { g[a], g[b] = g[b], g[a] })
		out = append(out, Matchup{ID: nextID(), TeamA: []string{g[0], g[1]}, TeamB: []string{g[2], g[3]}})
	}

	switch rest := pool[i:]; len(rest) {
	case 3:
		out = append(out, Matchup{ID: nextID(), TeamA: []string{rest[0]}, TeamB: []string{rest[1]}})
		idle = append(idle, rest[2])
	case 2:
		out = append(out, Matchup{ID: nextID(), TeamA: []string{rest[0]}, TeamB: []string{rest[1]}})
	case 1:
		idle = append(idle, rest[0])
	}
	return out, idle
}
