package economy

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryLedger(t *testing.T) {
	l := NewMemoryLedger()
	l.AddGold("p1", 10)
	assert.Equal(t, 10, l.Balance("p1"))

	assert.True(t, l.TrySpendGold("p1", 4))
	assert.False(t, l.TrySpendGold("p1", 7))
	assert.Equal(t, 6, l.Balance("p1"))
	assert.False(t, l.TrySpendGold("p1", -1))
	assert.True(t, l.TrySpendGold("p1", 0))

	l.AddGold("p1", -100)
	assert.Equal(t, 0, l.Balance("p1"))

	l.AddGold("p2", 3)
	l.Forget("p2")
	assert.Equal(t, 0, l.Balance("p2"))
}

func TestMemoryLedger_ConcurrentSpendNeverOverdraws(t *testing.T) {
	l := NewMemoryLedger()
	l.AddGold("p1", 50)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.TrySpendGold("p1", 1) {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, ok)
	assert.Equal(t, 0, l.Balance("p1"))
}
