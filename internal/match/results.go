package match

import (
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/autobattler-backend/internal/combat"
	"github.com/DoyleJ11/autobattler-backend/internal/economy"
	"github.com/DoyleJ11/autobattler-backend/internal/events"
)

// RoundResult is the settled outcome of one matchup.
type RoundResult struct {
	Code      string
	Round     int
	MatchID   string
	Winners   []string
	Losers    []string
	Draw      bool
	TimedOut  bool
	Damage    int
	Survivors int
	Duration  time.Duration
}

// resolve closes the battle phase: every battle is stopped before anything is
// settled, then damage, gold, restoration, round counters and eliminations
// are applied in that order.
func (m *Match) resolve() {
	if !m.transition(evResolve) {
		return
	}
	for _, ab := range m.battles {
		ab.battle.Stop()
	}
	for _, ab := range m.battles {
		m.results = append(m.results, m.settle(ab.matchup, ab.battle.Outcome()))
		ab.arena.Reset()
	}
	m.battles = nil

	for _, id := range m.round.Idle {
		m.pay(id, m.rules.LossGold)
	}
	for _, id := range m.order {
		p := m.players[id]
		if p.Eliminated {
			continue
		}
		p.Board.RestoreAll()
		p.Rounds++
		if m.rules.LevelEvery > 0 && p.Rounds%m.rules.LevelEvery == 0 && p.Level < m.rules.MaxLevel {
			p.Level++
		}
	}
	for _, id := range m.order {
		if p := m.players[id]; !p.Eliminated && p.Health <= 0 {
			m.eliminate(p)
		}
	}

	if _, won := m.CheckForVictory(); won {
		return
	}
	m.clock.After(nextRoundKey, m.rules.ResultsDelay, m.enterPlacement)
}

// settle charges each losing player the star damage of the surviving winners
// and pays round gold. A draw costs nobody health.
func (m *Match) settle(mu Matchup, out combat.Outcome) RoundResult {
	res := RoundResult{
		Code:      m.code,
		Round:     m.round.Number,
		MatchID:   mu.ID,
		Draw:      out.Draw(),
		TimedOut:  out.TimedOut,
		Survivors: len(out.Survivors),
		Duration:  out.Elapsed,
	}
	switch out.Winner {
	case mu.FactionA():
		res.Winners, res.Losers = mu.TeamA, mu.TeamB
	case mu.FactionB():
		res.Winners, res.Losers = mu.TeamB, mu.TeamA
	default:
		for _, id := range mu.Players() {
			m.pay(id, m.rules.LossGold)
		}
		m.log.Info("battle drawn", zap.String("match_id", mu.ID), zap.Bool("timed_out", out.TimedOut))
		return res
	}

	for _, u := range out.Survivors {
		res.Damage += combat.StarDamage(u.Star)
	}
	for _, id := range res.Losers {
		p := m.players[id]
		p.Health = max(p.Health-res.Damage, 0)
		m.sink.Emit(events.Event{Type: events.PlayerDamaged, MatchID: mu.ID, PlayerID: id, Amount: float64(res.Damage), Value: p.Health})
		m.pay(id, m.rules.LossGold)
	}
	for _, id := range res.Winners {
		m.pay(id, m.rules.WinGold)
	}
	m.log.Info("battle settled",
		zap.String("match_id", mu.ID),
		zap.Strings("winners", res.Winners),
		zap.Int("damage", res.Damage))
	return res
}

// eliminate takes a player out for good. It only acts once per player.
func (m *Match) eliminate(p *Player) {
	if p.Eliminated {
		return
	}
	p.Eliminated = true
	p.ShopDisabled = true
	p.Spectator = true
	for _, u := range p.Board.Clear() {
		m.sink.Emit(events.Event{Type: events.UnitDespawned, PlayerID: p.ID, UnitID: u.ID, SourceID: u.Hero.ID})
	}
	m.synergy.Forget(p.ID)
	if f, ok := m.ledger.(economy.Forgetter); ok {
		f.Forget(p.ID)
	}
	m.sink.Emit(events.Event{Type: events.PlayerEliminated, PlayerID: p.ID, Value: m.round.Number})
	m.log.Info("player eliminated", zap.String("player_id", p.ID), zap.Int("round", m.round.Number))
}

// CheckForVictory declares the last player standing the winner and stops any
// further rounds. It reports the winner once one exists.
func (m *Match) CheckForVictory() (string, bool) {
	if m.winner != "" {
		return m.winner, true
	}
	if m.round.Number == 0 {
		return "", false
	}
	alive := m.alivePlayers()
	if len(alive) != 1 {
		return "", false
	}
	m.winner = alive[0]
	m.clock.Cancel(nextRoundKey)
	m.clock.Cancel(countdownKey)
	m.sink.Emit(events.Event{Type: events.VictoryDeclared, PlayerID: m.winner, Value: m.round.Number})
	m.log.Info("victory declared", zap.String("player_id", m.winner), zap.Int("round", m.round.Number))
	return m.winner, true
}
