// Package engine validates and applies player actions against a player's
// roster and gold. Every check runs before anything is mutated, so a rejected
// action leaves no trace.
package engine

import (
	"errors"
	"fmt"

	"github.com/DoyleJ11/autobattler-backend/internal/catalog"
	"github.com/DoyleJ11/autobattler-backend/internal/economy"
	"github.com/DoyleJ11/autobattler-backend/internal/events"
	"github.com/DoyleJ11/autobattler-backend/internal/grid"
	"github.com/DoyleJ11/autobattler-backend/internal/roster"
)

var ErrInsufficientGold = errors.New("insufficient gold")
var ErrTileOccupied = errors.New("tile occupied")
var ErrForeignTile = errors.New("tile not on home board")
var ErrUnitNotFound = errors.New("unit not found")
var ErrBenchFull = errors.New("bench full")
var ErrBoardFull = errors.New("board full for player level")
var ErrWrongPhase = errors.New("action not allowed in this phase")
var ErrEliminated = errors.New("player eliminated")
var ErrUnknownHero = errors.New("unknown hero")
var ErrShopDisabled = errors.New("shop disabled")
var ErrUnsupportedCommand = errors.New("unsupported command")

type Phase string

const (
	PhaseWaiting   Phase = "waiting"
	PhasePlacement Phase = "placement"
	PhaseBattle    Phase = "battle"
	PhaseResults   Phase = "results"
)

type CommandType string

const (
	CmdBuy      CommandType = "Buy"
	CmdSell     CommandType = "Sell"
	CmdPlace    CommandType = "Place"
	CmdWithdraw CommandType = "Withdraw"
	CmdMove     CommandType = "Move"
)

/*
	CmdBuy      -> GoldChanged -> UnitSpawned -> (UnitFused, UnitDespawned x2)*
	CmdSell     -> UnitDespawned -> GoldChanged
	CmdPlace    -> UnitPlaced
	CmdWithdraw -> UnitWithdrawn
	CmdMove     -> UnitPlaced
*/

type Command struct {
	Type     CommandType
	PlayerID string
	HeroID   string
	UnitID   string
	Tile     grid.Coord
}

// Env is everything Apply may read or change for one player.
type Env struct {
	Phase        Phase
	Level        int
	Eliminated   bool
	ShopDisabled bool
	Board        *roster.Board
	Ledger       economy.Ledger
	Catalog      catalog.Provider
}

func Apply(env Env, cmd Command) ([]events.Event, error) {
	if env.Eliminated {
		return nil, ErrEliminated
	}
	if !Allowed(env.Phase, cmd.Type) {
		if _, known := commandPhases[cmd.Type]; !known {
			return nil, ErrUnsupportedCommand
		}
		return nil, fmt.Errorf("%w: %s during %s", ErrWrongPhase, cmd.Type, env.Phase)
	}

	switch cmd.Type {
	case CmdBuy:
		return buy(env, cmd)
	case CmdSell:
		return sell(env, cmd)
	case CmdPlace:
		return place(env, cmd)
	case CmdWithdraw:
		return withdraw(env, cmd)
	case CmdMove:
		return move(env, cmd)
	default:
		return nil, ErrUnsupportedCommand
	}
}

func buy(env Env, cmd Command) ([]events.Event, error) {
	if env.ShopDisabled {
		return nil, ErrShopDisabled
	}
	hero, err := env.Catalog.GetHeroByID(cmd.HeroID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnknownHero, err)
	}
	if !env.Board.CanAccept(hero.ID) {
		return nil, ErrBenchFull
	}
	if !env.Ledger.TrySpendGold(cmd.PlayerID, hero.Cost) {
		return nil, ErrInsufficientGold
	}

	u, fusions, err := env.Board.Spawn(hero)
	if err != nil {
		// Gold is already gone; hand it back.
		env.Ledger.AddGold(cmd.PlayerID, hero.Cost)
		return nil, fmt.Errorf("%w: %w", ErrBenchFull, err)
	}

	evts := []events.Event{
		{Type: events.GoldChanged, PlayerID: cmd.PlayerID, Amount: float64(-hero.Cost), Value: env.Ledger.Balance(cmd.PlayerID)},
		{Type: events.UnitSpawned, PlayerID: cmd.PlayerID, UnitID: u.ID, SourceID: hero.ID, Value: u.Star},
	}
	for _, f := range fusions {
		evts = append(evts, events.Event{Type: events.UnitFused, PlayerID: cmd.PlayerID, UnitID: f.Into.ID, SourceID: hero.ID, Value: f.Into.Star})
		for _, c := range f.Consumed {
			evts = append(evts, events.Event{Type: events.UnitDespawned, PlayerID: cmd.PlayerID, UnitID: c.ID, SourceID: hero.ID})
		}
	}
	return evts, nil
}

func sell(env Env, cmd Command) ([]events.Event, error) {
	u, ok := env.Board.Unit(cmd.UnitID)
	if !ok {
		return nil, ErrUnitNotFound
	}
	refund := u.Hero.Cost * roster.Copies(u.Star)
	if _, err := env.Board.Remove(u.ID); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnitNotFound, err)
	}
	env.Ledger.AddGold(cmd.PlayerID, refund)

	return []events.Event{
		{Type: events.UnitDespawned, PlayerID: cmd.PlayerID, UnitID: u.ID, SourceID: u.Hero.ID},
		{Type: events.GoldChanged, PlayerID: cmd.PlayerID, Amount: float64(refund), Value: env.Ledger.Balance(cmd.PlayerID)},
	}, nil
}

func place(env Env, cmd Command) ([]events.Event, error) {
	if _, ok := env.Board.Unit(cmd.UnitID); !ok {
		return nil, ErrUnitNotFound
	}
	if env.Board.IsDeployed(cmd.UnitID) {
		return move(env, cmd)
	}
	if err := checkTile(env.Board, cmd.UnitID, cmd.Tile); err != nil {
		return nil, err
	}
	if env.Board.DeployedCount() >= env.Level {
		return nil, fmt.Errorf("%w: %d/%d", ErrBoardFull, env.Board.DeployedCount(), env.Level)
	}

	if err := env.Board.Deploy(cmd.UnitID, cmd.Tile); err != nil {
		return nil, err
	}
	tile := cmd.Tile
	return []events.Event{{Type: events.UnitPlaced, PlayerID: cmd.PlayerID, UnitID: cmd.UnitID, Tile: &tile}}, nil
}

func withdraw(env Env, cmd Command) ([]events.Event, error) {
	if _, ok := env.Board.Unit(cmd.UnitID); !ok || !env.Board.IsDeployed(cmd.UnitID) {
		return nil, ErrUnitNotFound
	}
	if env.Board.BenchFree() == 0 {
		return nil, ErrBenchFull
	}
	if err := env.Board.Withdraw(cmd.UnitID); err != nil {
		return nil, err
	}
	return []events.Event{{Type: events.UnitWithdrawn, PlayerID: cmd.PlayerID, UnitID: cmd.UnitID}}, nil
}

func move(env Env, cmd Command) ([]events.Event, error) {
	if _, ok := env.Board.Unit(cmd.UnitID); !ok || !env.Board.IsDeployed(cmd.UnitID) {
		return nil, ErrUnitNotFound
	}
	if err := checkTile(env.Board, cmd.UnitID, cmd.Tile); err != nil {
		return nil, err
	}
	if err := env.Board.Move(cmd.UnitID, cmd.Tile); err != nil {
		return nil, err
	}
	tile := cmd.Tile
	return []events.Event{{Type: events.UnitPlaced, PlayerID: cmd.PlayerID, UnitID: cmd.UnitID, Tile: &tile}}, nil
}

// checkTile accepts c when it lies on the home board and is empty or already
// holds unitID.
func checkTile(b *roster.Board, unitID string, c grid.Coord) error {
	home := b.Home()
	if !home.InBounds(c) {
		return fmt.Errorf("%w: %s", ErrForeignTile, c)
	}
	if id, taken := home.Occupant(c); taken && id != unitID {
		return fmt.Errorf("%w: %s", ErrTileOccupied, c)
	}
	return nil
}
