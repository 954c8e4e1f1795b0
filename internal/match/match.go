// Package match runs one game: the placement, battle and results phases of
// every round, matchmaking and round rewards.
package match

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/looplab/fsm"
	"go.uber.org/zap"

	"github.com/DoyleJ11/autobattler-backend/internal/catalog"
	"github.com/DoyleJ11/autobattler-backend/internal/combat"
	"github.com/DoyleJ11/autobattler-backend/internal/economy"
	"github.com/DoyleJ11/autobattler-backend/internal/engine"
	"github.com/DoyleJ11/autobattler-backend/internal/events"
	"github.com/DoyleJ11/autobattler-backend/internal/formation"
	"github.com/DoyleJ11/autobattler-backend/internal/grid"
	"github.com/DoyleJ11/autobattler-backend/internal/roster"
	"github.com/DoyleJ11/autobattler-backend/internal/sched"
	"github.com/DoyleJ11/autobattler-backend/internal/synergy"
)

var (
	ErrGameStarted      = errors.New("game already started")
	ErrGameFull         = errors.New("game full")
	ErrNotEnoughPlayers = errors.New("not enough players")
	ErrUnknownPlayer    = errors.New("unknown player")
)

const (
	evOpen    = "open"
	evFight   = "fight"
	evResolve = "resolve"
)

var (
	countdownKey = sched.Key{Entity: "game", Effect: "countdown"}
	nextRoundKey = sched.Key{Entity: "game", Effect: "next_round"}
)

type Player struct {
	ID           string
	Name         string
	Health       int
	Level        int
	Rounds       int
	Eliminated   bool
	ShopDisabled bool
	Spectator    bool
	Board        *roster.Board
}

// RoundState is the current round and who fights whom in it.
type RoundState struct {
	Number   int       `json:"number"`
	Matchups []Matchup `json:"matchups"`
	Idle     []string  `json:"idle,omitempty"`
}

type activeBattle struct {
	matchup Matchup
	arena   *grid.Grid
	battle  *combat.Battle
}

type Option func(*Match)

// WithRand fixes the source used to shuffle matchups.
func WithRand(r *rand.Rand) Option { return func(m *Match) { m.rng = r } }

func WithSink(s events.Sink) Option { return func(m *Match) { m.sink = s } }

func WithLedger(l economy.Ledger) Option { return func(m *Match) { m.ledger = l } }

// Match owns every piece of state of one game. It is not safe for concurrent
// use; the lobby goroutine serializes all calls.
type Match struct {
	code    string
	log     *zap.Logger
	rules   Rules
	catalog catalog.Provider
	ledger  economy.Ledger
	sink    events.Sink
	rng     *rand.Rand
	clock   *sched.Scheduler
	phase   *fsm.FSM
	synergy *synergy.Tracker

	players map[string]*Player
	order   []string
	round   RoundState
	battles []*activeBattle
	results []RoundResult
	winner  string
}

func New(code string, rules Rules, cat catalog.Provider, log *zap.Logger, opts ...Option) *Match {
	m := &Match{
		code:    code,
		log:     log.Named("match").With(zap.String("code", code)),
		rules:   rules,
		catalog: cat,
		ledger:  economy.NewMemoryLedger(),
		sink:    events.Nop{},
		rng:     rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		clock:   sched.New(),
		players: make(map[string]*Player),
	}
	for _, o := range opts {
		o(m)
	}
	m.synergy = synergy.NewTracker(synergy.NewEngine(cat), m.sink)
	m.phase = fsm.NewFSM(
		string(engine.PhaseWaiting),
		fsm.Events{
			{Name: evOpen, Src: []string{string(engine.PhaseWaiting), string(engine.PhaseResults)}, Dst: string(engine.PhasePlacement)},
			{Name: evFight, Src: []string{string(engine.PhasePlacement)}, Dst: string(engine.PhaseBattle)},
			{Name: evResolve, Src: []string{string(engine.PhaseBattle)}, Dst: string(engine.PhaseResults)},
		},
		fsm.Callbacks{},
	)
	return m
}

func (m *Match) Code() string        { return m.code }
func (m *Match) Rules() Rules        { return m.rules }
func (m *Match) Phase() engine.Phase { return engine.Phase(m.phase.Current()) }
func (m *Match) Round() RoundState   { return m.round }
func (m *Match) Winner() string      { return m.winner }

func (m *Match) Player(id string) (*Player, bool) {
	p, ok := m.players[id]
	return p, ok
}

func (m *Match) IsEliminated(id string) bool {
	p, ok := m.players[id]
	return ok && p.Eliminated
}

// DrainResults hands over the round results settled since the last call.
func (m *Match) DrainResults() []RoundResult {
	out := m.results
	m.results = nil
	return out
}

// AddPlayer seats a player before the game starts. Adding a seated player
// again only updates the name.
func (m *Match) AddPlayer(id, name string) error {
	if p, ok := m.players[id]; ok {
		if name != "" {
			p.Name = name
		}
		return nil
	}
	if m.Phase() != engine.PhaseWaiting {
		return ErrGameStarted
	}
	if len(m.order) >= m.rules.MaxPlayers {
		return ErrGameFull
	}
	m.players[id] = &Player{
		ID:     id,
		Name:   name,
		Health: m.rules.StartingHealth,
		Level:  m.rules.StartingLevel,
		Board:  roster.New(id, m.rules.HomeRows, m.rules.HomeCols, m.rules.BenchSize),
	}
	m.order = append(m.order, id)
	m.log.Info("player joined", zap.String("player_id", id), zap.Int("players", len(m.order)))
	return nil
}

// RemovePlayer frees a seat. Once the game has started players keep their
// seat so their health and board stay in play.
func (m *Match) RemovePlayer(id string) bool {
	if _, ok := m.players[id]; !ok || m.Phase() != engine.PhaseWaiting {
		return false
	}
	delete(m.players, id)
	m.order = slices.DeleteFunc(m.order, func(s string) bool { return s == id })
	return true
}

// Start hands out starting gold and opens the first placement phase.
func (m *Match) Start() error {
	if m.Phase() != engine.PhaseWaiting {
		m.log.Debug("start ignored", zap.String("phase", string(m.Phase())))
		return nil
	}
	if len(m.order) < m.rules.MinPlayers {
		return fmt.Errorf("%w: %d of %d", ErrNotEnoughPlayers, len(m.order), m.rules.MinPlayers)
	}
	for _, id := range m.order {
		m.pay(id, m.rules.StartingGold)
	}
	m.enterPlacement()
	return nil
}

func (m *Match) enterPlacement() {
	if !m.transition(evOpen) {
		return
	}
	m.round.Number++
	m.round.Matchups, m.round.Idle = BuildMatchups(m.round.Number, m.alivePlayers(), m.rng)
	m.sink.Emit(events.Event{Type: events.RoundStarted, Value: m.round.Number})
	m.log.Info("round started",
		zap.Int("round", m.round.Number),
		zap.Int("matchups", len(m.round.Matchups)),
		zap.Strings("idle", m.round.Idle))
	m.restartCountdown(m.rules.PlacementDuration)
}

// RestartCountdown resets the placement timer to its full length. The old
// timer is replaced. Outside placement it does nothing.
func (m *Match) RestartCountdown() {
	if m.Phase() != engine.PhasePlacement {
		m.log.Debug("countdown restart ignored", zap.String("phase", string(m.Phase())))
		return
	}
	m.restartCountdown(m.rules.PlacementDuration)
}

func (m *Match) restartCountdown(d time.Duration) {
	m.clock.After(countdownKey, d, m.StartBattle)
	m.sink.Emit(events.Event{Type: events.CountdownStarted, Phase: string(engine.PhasePlacement), Amount: d.Seconds()})
}

// Countdown is the time left in the current placement phase.
func (m *Match) Countdown() time.Duration {
	d, _ := m.clock.Remaining(countdownKey)
	return d
}

// StartBattle ends placement early and builds one battle per matchup.
func (m *Match) StartBattle() {
	if !m.transition(evFight) {
		return
	}
	m.clock.Cancel(countdownKey)
	m.battles = nil
	for _, mu := range m.round.Matchups {
		m.battles = append(m.battles, m.buildBattle(mu))
	}
	for _, ab := range m.battles {
		ab.battle.Start()
	}
	if m.battlesDone() {
		m.resolve()
	}
}

// Advance moves the game forward by dt: battles first, then phase timers.
func (m *Match) Advance(dt time.Duration) {
	if dt <= 0 {
		return
	}
	if m.Phase() == engine.PhaseBattle {
		for _, ab := range m.battles {
			ab.battle.Step(dt)
		}
		if m.battlesDone() {
			m.resolve()
		}
	}
	m.clock.Advance(dt)
}

// Apply runs a player's action through the engine and, on success, publishes
// its events and refreshes the player's synergies.
func (m *Match) Apply(playerID string, cmd engine.Command) ([]events.Event, error) {
	p, ok := m.players[playerID]
	if !ok {
		return nil, ErrUnknownPlayer
	}
	cmd.PlayerID = playerID
	evts, err := engine.Apply(engine.Env{
		Phase:        m.Phase(),
		Level:        p.Level,
		Eliminated:   p.Eliminated,
		ShopDisabled: p.ShopDisabled,
		Board:        p.Board,
		Ledger:       m.ledger,
		Catalog:      m.catalog,
	}, cmd)
	if err != nil {
		m.log.Warn("player action rejected",
			zap.String("player_id", playerID),
			zap.String("command", string(cmd.Type)),
			zap.Error(err))
		return nil, err
	}
	for _, e := range evts {
		m.sink.Emit(e)
	}
	m.synergy.Update(playerID, carriers(p.Board.Deployed()), p.Level)
	return evts, nil
}

func (m *Match) transition(event string) bool {
	from := m.phase.Current()
	if !m.phase.Can(event) {
		m.log.Debug("transition ignored", zap.String("event", event), zap.String("phase", from))
		return false
	}
	if err := m.phase.Event(context.Background(), event); err != nil {
		m.log.Error("transition failed", zap.String("event", event), zap.String("phase", from), zap.Error(err))
		return false
	}
	to := m.phase.Current()
	m.log.Info("phase changed", zap.String("from", from), zap.String("to", to), zap.Int("round", m.round.Number))
	m.sink.Emit(events.Event{Type: events.PhaseChanged, Phase: to, Value: m.round.Number})
	return true
}

func (m *Match) buildBattle(mu Matchup) *activeBattle {
	arena := grid.New(m.rules.ArenaRows, m.rules.ArenaCols, grid.ArenaOwner)
	a := m.buildTeam(mu, mu.FactionA(), mu.TeamA, formation.SideA, arena)
	b := m.buildTeam(mu, mu.FactionB(), mu.TeamB, formation.SideB, arena)
	cfg := combat.DefaultConfig()
	cfg.Timeout = m.rules.BattleTimeout
	cfg.MantraRadius = m.rules.MantraRadius
	return &activeBattle{
		matchup: mu,
		arena:   arena,
		battle:  combat.NewBattle(mu.ID, arena, a, b, m.sink, m.log, cfg),
	}
}

// buildTeam recalculates the owners' synergies and lays their deployed units
// out on the arena.
func (m *Match) buildTeam(mu Matchup, faction string, ids []string, side formation.Side, arena *grid.Grid) combat.Team {
	team := combat.Team{Faction: faction, Synergies: make(map[string]synergy.Result)}
	units := make(map[string]*combat.Unit)
	var slots []formation.Slot
	for _, pid := range ids {
		p, ok := m.players[pid]
		if !ok || p.Eliminated {
			continue
		}
		deployed := p.Board.Deployed()
		team.Synergies[pid] = m.synergy.Update(pid, carriers(deployed), p.Level)
		for _, u := range deployed {
			if _, err := m.catalog.GetHeroByID(u.Hero.ID); err != nil {
				m.log.Error("unit excluded from battle", zap.String("unit_id", u.ID), zap.String("player_id", pid), zap.Error(err))
				continue
			}
			units[u.ID] = u
			slots = append(slots, formation.Slot{UnitID: u.ID, Role: u.Hero.Role, PreferredCol: u.HomeTile.X})
		}
	}

	plan := formation.Plan(slots, side, arena)
	for _, id := range plan.Unplaced {
		u := units[id]
		m.log.Warn("no free arena tile, unit sits out",
			zap.String("match_id", mu.ID),
			zap.String("unit_id", id),
			zap.String("player_id", u.OwnerID))
		m.sink.Emit(events.Event{Type: events.UnitUnplaced, MatchID: mu.ID, PlayerID: u.OwnerID, UnitID: id})
	}
	for _, id := range plan.Order {
		u := units[id]
		u.PlaceAt(plan.Assignments[id])
		team.Units = append(team.Units, u)
	}
	return team
}

func (m *Match) battlesDone() bool {
	for _, ab := range m.battles {
		if !ab.battle.Done() {
			return false
		}
	}
	return true
}

func (m *Match) alivePlayers() []string {
	var out []string
	for _, id := range m.order {
		if !m.players[id].Eliminated {
			out = append(out, id)
		}
	}
	return out
}

func (m *Match) pay(playerID string, amount int) {
	if amount == 0 {
		return
	}
	m.ledger.AddGold(playerID, amount)
	m.sink.Emit(events.Event{
		Type:     events.GoldChanged,
		PlayerID: playerID,
		Amount:   float64(amount),
		Value:    m.ledger.Balance(playerID),
	})
}

func carriers(units []*combat.Unit) []synergy.Carrier {
	out := make([]synergy.Carrier, len(units))
	for i, u := range units {
		out[i] = u
	}
	return out
}
