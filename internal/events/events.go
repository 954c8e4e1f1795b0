package events

import "github.com/DoyleJ11/autobattler-backend/internal/grid"

type Type string

const (
	PhaseChanged      Type = "PhaseChanged"
	RoundStarted      Type = "RoundStarted"
	CountdownStarted  Type = "CountdownStarted"
	HealthChanged     Type = "HealthChanged"
	UnitDied          Type = "UnitDied"
	BuffStacksChanged Type = "BuffStacksChanged"
	TraitActivated    Type = "TraitActivated"
	TraitUpgraded     Type = "TraitUpgraded"
	TraitDowngraded   Type = "TraitDowngraded"
	TraitDeactivated  Type = "TraitDeactivated"
	SynergyActivated  Type = "SynergyActivated"
	UnitSpawned       Type = "UnitSpawned"
	UnitDespawned     Type = "UnitDespawned"
	UnitFused         Type = "UnitFused"
	UnitPlaced        Type = "UnitPlaced"
	UnitWithdrawn     Type = "UnitWithdrawn"
	UnitUnplaced      Type = "UnitUnplaced"
	GoldChanged       Type = "GoldChanged"
	BattleStarted     Type = "BattleStarted"
	BattleEnded       Type = "BattleEnded"
	PlayerDamaged     Type = "PlayerDamaged"
	PlayerEliminated  Type = "PlayerEliminated"
	VictoryDeclared   Type = "VictoryDeclared"
)

// Event is an immutable notification for presentation collaborators. Only the
// fields relevant to Type are set.
type Event struct {
	Type     Type        `json:"type"`
	MatchID  string      `json:"match_id,omitempty"`
	PlayerID string      `json:"player_id,omitempty"`
	UnitID   string      `json:"unit_id,omitempty"`
	SourceID string      `json:"source_id,omitempty"`
	TraitID  string      `json:"trait_id,omitempty"`
	Phase    string      `json:"phase,omitempty"`
	Buff     string      `json:"buff,omitempty"`
	Amount   float64     `json:"amount,omitempty"`
	Value    int         `json:"value,omitempty"`
	Tile     *grid.Coord `json:"tile,omitempty"`
}

type Sink interface {
	Emit(Event)
}

// Buffer collects events until drained. Not safe for concurrent use; the
// owning lobby goroutine is the only writer.
type Buffer struct {
	events []Event
}

func (b *Buffer) Emit(e Event) { b.events = append(b.events, e) }

// Drain returns the buffered events and resets the buffer.
func (b *Buffer) Drain() []Event {
	out := b.events
	b.events = nil
	return out
}

func (b *Buffer) Len() int { return len(b.events) }

type Nop struct{}

func (Nop) Emit(Event) {}
