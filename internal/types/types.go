package types

import (
	"github.com/DoyleJ11/autobattler-backend/internal/events"
	"github.com/DoyleJ11/autobattler-backend/internal/match"
)

const (
	MsgJoinGame  = "join_game"
	MsgStartGame = "start_game"
	MsgBuy       = "buy"
	MsgSell      = "sell"
	MsgPlace     = "place"
	MsgWithdraw  = "withdraw"
	MsgMove      = "move"

	MsgStateSnapshot = "state_snapshot"
	MsgError         = "error"
)

type ClientMessage struct {
	Type   string `json:"type"`
	Name   string `json:"name,omitempty"`
	HeroID string `json:"hero_id,omitempty"`
	UnitID string `json:"unit_id,omitempty"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
}

type ServerMessage struct {
	Type    string         `json:"type"` // "state_snapshot" | "error"
	Version int            `json:"version,omitempty"`
	State   *match.View    `json:"state,omitempty"`
	Events  []events.Event `json:"events,omitempty"`
	Error   string         `json:"error,omitempty"`
}
