// Package economy holds players' gold.
package economy

import "sync"

//go:generate go tool mockgen -destination=./mocks/ledger_mock.go -package=mocks . Ledger

// Ledger is the gold balance collaborator. TrySpendGold must check and deduct
// in one step so that two spends from the same player cannot both pass.
type Ledger interface {
	Balance(playerID string) int
	AddGold(playerID string, amount int)
	TrySpendGold(playerID string, amount int) bool
}

// Forgetter is implemented by ledgers that can drop a player's balance once
// the player leaves the game for good.
type Forgetter interface {
	Forget(playerID string)
}

type MemoryLedger struct {
	mu   sync.Mutex
	gold map[string]int
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{gold: make(map[string]int)}
}

func (l *MemoryLedger) Balance(playerID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.gold[playerID]
}

// AddGold credits amount. A negative amount debits, never below zero.
func (l *MemoryLedger) AddGold(playerID string, amount int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gold[playerID] = max(l.gold[playerID]+amount, 0)
}

func (l *MemoryLedger) TrySpendGold(playerID string, amount int) bool {
	if amount < 0 {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.gold[playerID] < amount {
		return false
	}
	l.gold[playerID] -= amount
	return true
}

// Forget drops a player's balance.
func (l *MemoryLedger) Forget(playerID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.gold, playerID)
}
