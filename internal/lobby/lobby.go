// Package lobby runs one game on its own goroutine. Every player request,
// timer tick and battle step goes through the lobby's inbox, so the game
// state is only ever touched by that goroutine.
package lobby

import (
	"context"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/autobattler-backend/internal/catalog"
	"github.com/DoyleJ11/autobattler-backend/internal/engine"
	"github.com/DoyleJ11/autobattler-backend/internal/events"
	"github.com/DoyleJ11/autobattler-backend/internal/match"
	"github.com/DoyleJ11/autobattler-backend/internal/store"
)

const recordTimeout = 2 * time.Second

type Msg interface{ isLobbyMsg() }

// Join attaches a client connection to a player seat. Reply, when set,
// receives the seating error or nil.
type Join struct {
	ClientID string
	PlayerID string
	Name     string
	Outbox   chan Snapshot
	Reply    chan error
}

func (Join) isLobbyMsg() {}

type Leave struct{ ClientID string }

func (Leave) isLobbyMsg() {}

type FromClient struct {
	ClientID string
	Cmd      engine.Command
}

func (FromClient) isLobbyMsg() {}

type StartGame struct{ ClientID string }

func (StartGame) isLobbyMsg() {}

// Advance moves the game clock by DT, the same as one ticker fire.
type Advance struct{ DT time.Duration }

func (Advance) isLobbyMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

// Snapshot is what a client receives: either a new versioned state with the
// events that produced it, or an error meant only for that client.
type Snapshot struct {
	Version int
	State   match.View
	Events  []events.Event
	Err     error
}

type View struct {
	Version    int
	NumClients int
	State      match.View
}

type Config struct {
	Code     string
	Rules    match.Rules
	Catalog  catalog.Provider
	Recorder store.Recorder
	// Tick is the ticker period. Zero leaves the clock to Advance messages.
	Tick time.Duration
	Rand *rand.Rand
}

type client struct {
	playerID string
	out      chan Snapshot
}

type Lobby struct {
	inbox   chan Msg
	code    string
	game    *match.Match
	events  *events.Buffer
	rec     store.Recorder
	log     *zap.Logger
	tick    time.Duration
	version int
	clients map[string]client

	winnerRecorded bool

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func NewLobby(parent context.Context, cfg Config, log *zap.Logger) *Lobby {
	ctx, cancel := context.WithCancel(parent)
	buf := &events.Buffer{}
	log = log.Named("lobby").With(zap.String("code", cfg.Code))

	opts := []match.Option{match.WithSink(buf)}
	if cfg.Rand != nil {
		opts = append(opts, match.WithRand(cfg.Rand))
	}
	rec := cfg.Recorder
	if rec == nil {
		rec = store.NopRecorder{}
	}

	l := &Lobby{
		inbox:   make(chan Msg, 64),
		code:    cfg.Code,
		game:    match.New(cfg.Code, cfg.Rules, cfg.Catalog, log, opts...),
		events:  buf,
		rec:     rec,
		log:     log,
		tick:    cfg.Tick,
		clients: make(map[string]client),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go l.loop()
	return l
}

func (l *Lobby) Code() string { return l.code }

// Inbox is where the ws layer and tests send messages.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

// Done is closed once the lobby goroutine has exited.
func (l *Lobby) Done() <-chan struct{} { return l.done }

func (l *Lobby) loop() {
	defer close(l.done)

	var tick <-chan time.Time
	if l.tick > 0 {
		t := time.NewTicker(l.tick)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case <-tick:
			l.advance(l.tick)

		case m := <-l.inbox:
			switch msg := m.(type) {
			case Join:
				l.join(msg)

			case Leave:
				c, ok := l.clients[msg.ClientID]
				if !ok {
					break
				}
				delete(l.clients, msg.ClientID)
				// Before the game starts a leaving player gives up the seat.
				if !l.seated(c.playerID) && l.game.RemovePlayer(c.playerID) {
					l.publish()
				}

			case FromClient:
				c, ok := l.clients[msg.ClientID]
				if !ok {
					break
				}
				if _, err := l.game.Apply(c.playerID, msg.Cmd); err != nil {
					l.sendError(msg.ClientID, err)
					break
				}
				l.publish()

			case StartGame:
				if err := l.game.Start(); err != nil {
					l.sendError(msg.ClientID, err)
					break
				}
				l.publish()

			case Advance:
				l.advance(msg.DT)

			case GetState:
				msg.Reply <- View{
					Version:    l.version,
					NumClients: len(l.clients),
					State:      l.game.State(),
				}

			case Shutdown:
				l.shutdown()
				return
			}
		}
	}
}

func (l *Lobby) join(msg Join) {
	_, known := l.game.Player(msg.PlayerID)
	err := l.game.AddPlayer(msg.PlayerID, msg.Name)
	if msg.Reply != nil {
		msg.Reply <- err
	}
	if err != nil {
		l.log.Warn("join rejected", zap.String("player_id", msg.PlayerID), zap.Error(err))
		return
	}
	l.clients[msg.ClientID] = client{playerID: msg.PlayerID, out: msg.Outbox}
	if !known {
		l.publish()
		return
	}
	// Reconnect: only the new connection needs the current state.
	l.send(msg.ClientID, Snapshot{Version: l.version, State: l.game.State()})
}

// seated reports whether another connection still holds the player's seat.
func (l *Lobby) seated(playerID string) bool {
	for _, c := range l.clients {
		if c.playerID == playerID {
			return true
		}
	}
	return false
}

func (l *Lobby) advance(dt time.Duration) {
	l.game.Advance(dt)
	l.record()
	if l.events.Len() > 0 || l.game.Phase() == engine.PhaseBattle {
		l.publish()
	}
}

// record persists the rounds settled by the last advance.
func (l *Lobby) record() {
	results := l.game.DrainResults()
	if len(results) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(l.ctx, recordTimeout)
	defer cancel()
	for _, res := range results {
		if err := l.rec.RecordRound(ctx, res); err != nil {
			l.log.Warn("round not recorded", zap.String("match_id", res.MatchID), zap.Error(err))
		}
	}
	if w := l.game.Winner(); w != "" && !l.winnerRecorded {
		l.winnerRecorded = true
		if err := l.rec.RecordWinner(ctx, l.code, w, l.game.Round().Number); err != nil {
			l.log.Warn("winner not recorded", zap.String("player_id", w), zap.Error(err))
		}
	}
}

func (l *Lobby) publish() {
	l.version++
	l.broadcast(Snapshot{Version: l.version, State: l.game.State(), Events: l.events.Drain()})
}

func (l *Lobby) broadcast(snap Snapshot) {
	for id := range l.clients {
		l.send(id, snap)
	}
}

// send never blocks: a client whose outbox is full is dropped.
func (l *Lobby) send(clientID string, snap Snapshot) {
	c, ok := l.clients[clientID]
	if !ok {
		return
	}
	select {
	case c.out <- snap:
	default:
		l.log.Info("dropping slow client", zap.String("client_id", clientID), zap.String("player_id", c.playerID))
		close(c.out)
		delete(l.clients, clientID)
	}
}

func (l *Lobby) sendError(clientID string, err error) {
	l.send(clientID, Snapshot{Version: l.version, Err: err})
}

func (l *Lobby) shutdown() {
	for id, c := range l.clients {
		close(c.out)
		delete(l.clients, id)
	}
	l.cancel()
}
