package match

import (
	"github.com/DoyleJ11/autobattler-backend/internal/combat"
	"github.com/DoyleJ11/autobattler-backend/internal/engine"
	"github.com/DoyleJ11/autobattler-backend/internal/synergy"
)

type PlayerView struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Health     int               `json:"health"`
	Gold       int               `json:"gold"`
	Level      int               `json:"level"`
	Eliminated bool              `json:"eliminated"`
	Spectator  bool              `json:"spectator"`
	Board      []combat.UnitView `json:"board"`
	Bench      []combat.UnitView `json:"bench"`
	Synergy    synergy.Result    `json:"synergy"`
}

type BattleView struct {
	MatchID string            `json:"match_id"`
	TeamA   []string          `json:"team_a"`
	TeamB   []string          `json:"team_b"`
	Done    bool              `json:"done"`
	Elapsed float64           `json:"elapsed"`
	Units   []combat.UnitView `json:"units"`
}

// View is a detached copy of the game safe to hand to other goroutines.
type View struct {
	Code      string       `json:"code"`
	Phase     engine.Phase `json:"phase"`
	Round     RoundState   `json:"round"`
	Countdown float64      `json:"countdown"`
	Players   []PlayerView `json:"players"`
	Battles   []BattleView `json:"battles,omitempty"`
	Winner    string       `json:"winner,omitempty"`
}

func (m *Match) State() View {
	v := View{
		Code:      m.code,
		Phase:     m.Phase(),
		Round:     m.round,
		Countdown: m.Countdown().Seconds(),
		Winner:    m.winner,
	}
	for _, id := range m.order {
		p := m.players[id]
		pv := PlayerView{
			ID:         p.ID,
			Name:       p.Name,
			Health:     p.Health,
			Gold:       m.ledger.Balance(p.ID),
			Level:      p.Level,
			Eliminated: p.Eliminated,
			Spectator:  p.Spectator,
			Board:      views(p.Board.Deployed()),
			Bench:      views(p.Board.Bench()),
			Synergy:    m.synergy.Last(p.ID),
		}
		v.Players = append(v.Players, pv)
	}
	for _, ab := range m.battles {
		v.Battles = append(v.Battles, BattleView{
			MatchID: ab.matchup.ID,
			TeamA:   ab.matchup.TeamA,
			TeamB:   ab.matchup.TeamB,
			Done:    ab.battle.Done(),
			Elapsed: ab.battle.Clock().Now().Seconds(),
			Units:   views(ab.battle.Field().Units()),
		})
	}
	return v
}

func views(units []*combat.Unit) []combat.UnitView {
	out := make([]combat.UnitView, 0, len(units))
	for _, u := range units {
		if u == nil {
			continue
		}
		out = append(out, u.View())
	}
	return out
}
