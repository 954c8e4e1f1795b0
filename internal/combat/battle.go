package combat

import (
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/autobattler-backend/internal/events"
	"github.com/DoyleJ11/autobattler-backend/internal/grid"
	"github.com/DoyleJ11/autobattler-backend/internal/sched"
	"github.com/DoyleJ11/autobattler-backend/internal/synergy"
)

type Config struct {
	// VictoryCheck is how often the battle looks for a side with no living units.
	VictoryCheck time.Duration
	// Timeout ends a battle as a draw. Zero disables it.
	Timeout      time.Duration
	MantraRadius float64
}

func DefaultConfig() Config {
	return Config{
		VictoryCheck: 500 * time.Millisecond,
		Timeout:      60 * time.Second,
		MantraRadius: 2.5,
	}
}

// Team is one side of a battle. Synergies holds the recalculated synergy
// result of each owner on the team.
type Team struct {
	Faction   string
	Units     []*Unit
	Synergies map[string]synergy.Result
}

type Outcome struct {
	// Winner is the winning faction, empty on a draw.
	Winner    string
	Survivors []*Unit
	TimedOut  bool
	Elapsed   time.Duration
}

func (o Outcome) Draw() bool { return o.Winner == "" }

// Battle runs one fight on its own logical clock. Step drives it; nothing in
// here blocks or touches the wall clock.
type Battle struct {
	ID string

	log       *zap.Logger
	sink      events.Sink
	cfg       Config
	clock     *sched.Scheduler
	field     *Field
	buffs     *Resolver
	abilities *Dispatcher
	ai        *AI
	teams     [2]Team

	started bool
	done    bool
	outcome Outcome
}

// NewBattle binds the units of both teams to a fresh field on g. Units with
// no hero definition or no owner are logged and left out.
func NewBattle(id string, g *grid.Grid, a, b Team, sink events.Sink, log *zap.Logger, cfg Config) *Battle {
	if sink == nil {
		sink = events.Nop{}
	}
	if cfg.VictoryCheck <= 0 {
		cfg.VictoryCheck = DefaultConfig().VictoryCheck
	}
	bt := &Battle{
		ID:    id,
		log:   log.Named("battle").With(zap.String("match_id", id)),
		sink:  sink,
		cfg:   cfg,
		clock: sched.New(),
	}
	bt.field = NewField(g, sink)
	bt.buffs = NewResolver(bt.field, bt.clock, cfg.MantraRadius)
	bt.abilities = NewDispatcher(bt.field, bt.buffs, bt.clock, bt.log)
	bt.ai = NewAI(bt.field, bt.abilities)
	bt.field.OnDamaged = bt.abilities.OnDamaged
	bt.field.OnDeath = func(u *Unit) {
		bt.buffs.ClearAllBuffs(u)
		bt.clock.CancelEntity(u.ID)
	}

	for i, team := range []Team{a, b} {
		kept := make([]*Unit, 0, len(team.Units))
		for _, u := range team.Units {
			if u == nil {
				continue
			}
			if u.Hero.ID == "" {
				bt.log.Error("unit has no hero definition, excluded", zap.String("unit_id", u.ID))
				continue
			}
			if u.OwnerID == "" {
				bt.log.Error("unit has no owner, excluded", zap.String("unit_id", u.ID), zap.String("hero_id", u.Hero.ID))
				continue
			}
			u.Faction = team.Faction
			u.resetAI()
			if res, ok := team.Synergies[u.OwnerID]; ok {
				u.ApplyBonuses(res)
				bt.abilities.Bind(u, res)
			}
			bt.field.Add(u)
			kept = append(kept, u)
		}
		team.Units = kept
		bt.teams[i] = team
	}
	return bt
}

func (b *Battle) Field() *Field           { return b.field }
func (b *Battle) Buffs() *Resolver        { return b.buffs }
func (b *Battle) Abilities() *Dispatcher  { return b.abilities }
func (b *Battle) Clock() *sched.Scheduler { return b.clock }
func (b *Battle) Teams() [2]Team          { return b.teams }
func (b *Battle) Done() bool              { return b.done }
func (b *Battle) Outcome() Outcome        { return b.outcome }

// Start fires battle-start abilities and arms the victory check and timeout.
// A side that starts empty loses straight away.
func (b *Battle) Start() {
	if b.started {
		return
	}
	b.started = true
	b.sink.Emit(events.Event{Type: events.BattleStarted, MatchID: b.ID, Value: len(b.field.Units())})
	b.log.Debug("battle started",
		zap.Int("team_a", len(b.teams[0].Units)),
		zap.Int("team_b", len(b.teams[1].Units)))

	b.abilities.OnBattleStart(b.field.Units())
	if b.check() {
		return
	}
	b.clock.Every(sched.Key{Entity: b.ID, Effect: "victory"}, b.cfg.VictoryCheck, func() bool {
		return !b.check()
	})
	if b.cfg.Timeout > 0 {
		b.clock.After(sched.Key{Entity: b.ID, Effect: "timeout"}, b.cfg.Timeout, func() {
			b.log.Info("battle timed out", zap.Duration("after", b.cfg.Timeout))
			b.finish("", true)
		})
	}
}

// Step runs every unit's AI for dt, then the timers that came due, and
// reports whether the battle is over.
func (b *Battle) Step(dt time.Duration) bool {
	if !b.started {
		b.Start()
	}
	if b.done {
		return true
	}
	for _, u := range b.field.Units() {
		b.ai.Tick(u, dt)
	}
	b.clock.Advance(dt)
	return b.done
}

// check ends the battle once a side has no living units.
func (b *Battle) check() bool {
	aliveA := b.field.Alive(b.teams[0].Faction)
	aliveB := b.field.Alive(b.teams[1].Faction)
	switch {
	case aliveA > 0 && aliveB > 0:
		return false
	case aliveA > 0:
		b.finish(b.teams[0].Faction, false)
	case aliveB > 0:
		b.finish(b.teams[1].Faction, false)
	default:
		b.finish("", false)
	}
	return true
}

func (b *Battle) finish(winner string, timedOut bool) {
	if b.done {
		return
	}
	b.done = true
	out := Outcome{Winner: winner, TimedOut: timedOut, Elapsed: b.clock.Now()}
	if winner != "" {
		for _, u := range b.field.Units() {
			if u.Alive && u.Faction == winner {
				out.Survivors = append(out.Survivors, u)
			}
		}
	}
	b.outcome = out
	b.Stop()
	b.sink.Emit(events.Event{Type: events.BattleEnded, MatchID: b.ID, Value: len(out.Survivors)})
	b.log.Debug("battle ended",
		zap.String("winner", winner),
		zap.Int("survivors", len(out.Survivors)),
		zap.Duration("elapsed", out.Elapsed))
}

// Stop halts every pending timer and clears every buff without letting any
// of them fire. It is safe to call more than once.
func (b *Battle) Stop() {
	b.clock.CancelAll()
	for _, u := range b.field.Units() {
		b.buffs.ClearAllBuffs(u)
		if u.Alive {
			u.resetAI()
		}
	}
	b.done = true
}
