// Package roster keeps one player's units: the ones deployed on the home
// board and the ones waiting on the bench.
package roster

import (
	"errors"
	"fmt"
	"slices"

	"github.com/DoyleJ11/autobattler-backend/internal/catalog"
	"github.com/DoyleJ11/autobattler-backend/internal/combat"
	"github.com/DoyleJ11/autobattler-backend/internal/grid"
)

var (
	ErrBenchFull    = errors.New("bench full")
	ErrUnitNotFound = errors.New("unit not found")
	ErrNotDeployed  = errors.New("unit not deployed")
	ErrDeployed     = errors.New("unit already deployed")
)

// FusionSize is how many same-star copies of a hero merge into one.
const FusionSize = 3

// Fusion records one merge: Into was promoted, Consumed were removed.
type Fusion struct {
	Into     *combat.Unit
	Consumed []*combat.Unit
}

type Board struct {
	owner string
	home  *grid.Grid
	bench []string
	units map[string]*combat.Unit
	order []string
}

func New(owner string, rows, cols, benchSize int) *Board {
	return &Board{
		owner: owner,
		home:  grid.New(rows, cols, owner),
		bench: make([]string, max(benchSize, 0)),
		units: make(map[string]*combat.Unit),
	}
}

func (b *Board) Owner() string    { return b.owner }
func (b *Board) Home() *grid.Grid { return b.home }
func (b *Board) BenchSize() int   { return len(b.bench) }
func (b *Board) Len() int         { return len(b.order) }

func (b *Board) Unit(id string) (*combat.Unit, bool) {
	u, ok := b.units[id]
	return u, ok
}

// Units lists every unit in spawn order.
func (b *Board) Units() []*combat.Unit {
	out := make([]*combat.Unit, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.units[id])
	}
	return out
}

// Deployed lists the units on the home board in spawn order.
func (b *Board) Deployed() []*combat.Unit {
	var out []*combat.Unit
	for _, id := range b.order {
		if b.IsDeployed(id) {
			out = append(out, b.units[id])
		}
	}
	return out
}

// Bench returns the bench slots; empty slots are nil.
func (b *Board) Bench() []*combat.Unit {
	out := make([]*combat.Unit, len(b.bench))
	for i, id := range b.bench {
		if id != "" {
			out[i] = b.units[id]
		}
	}
	return out
}

func (b *Board) IsDeployed(id string) bool {
	_, ok := b.home.Find(id)
	return ok
}

func (b *Board) DeployedCount() int { return b.home.Occupied() }

func (b *Board) BenchFree() int {
	n := 0
	for _, id := range b.bench {
		if id == "" {
			n++
		}
	}
	return n
}

// CanAccept reports whether a new one-star copy of hero fits, either in a free
// bench slot or because it completes a fusion.
func (b *Board) CanAccept(heroID string) bool {
	return b.BenchFree() > 0 || len(b.copies(heroID, 1)) >= FusionSize-1
}

// Spawn adds a one-star unit of hero to the bench and runs any fusions it
// completes.
func (b *Board) Spawn(hero catalog.HeroDefinition) (*combat.Unit, []Fusion, error) {
	if !b.CanAccept(hero.ID) {
		return nil, nil, ErrBenchFull
	}
	u := combat.NewUnit(hero, b.owner, 1)
	b.units[u.ID] = u
	b.order = append(b.order, u.ID)
	if slot := b.freeSlot(); slot >= 0 {
		b.bench[slot] = u.ID
	}
	fusions := b.fuse(hero.ID)
	return u, fusions, nil
}

// Deploy moves a benched unit onto tile c of the home board.
func (b *Board) Deploy(id string, c grid.Coord) error {
	u, ok := b.units[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnitNotFound, id)
	}
	if b.IsDeployed(id) {
		return fmt.Errorf("%w: %s", ErrDeployed, id)
	}
	if err := b.home.Place(c, id); err != nil {
		return err
	}
	b.unbench(id)
	u.HomeTile = c
	u.PlaceAt(c)
	return nil
}

// Withdraw returns a deployed unit to the first free bench slot.
func (b *Board) Withdraw(id string) error {
	if _, ok := b.units[id]; !ok {
		return fmt.Errorf("%w: %s", ErrUnitNotFound, id)
	}
	if !b.IsDeployed(id) {
		return fmt.Errorf("%w: %s", ErrNotDeployed, id)
	}
	slot := b.freeSlot()
	if slot < 0 {
		return ErrBenchFull
	}
	b.home.VacateUnit(id)
	b.bench[slot] = id
	return nil
}

// Move repositions a deployed unit on the home board.
func (b *Board) Move(id string, c grid.Coord) error {
	u, ok := b.units[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnitNotFound, id)
	}
	from, ok := b.home.Find(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotDeployed, id)
	}
	if from == c {
		return nil
	}
	if err := b.home.Place(c, id); err != nil {
		return err
	}
	b.home.Vacate(from)
	u.HomeTile = c
	u.PlaceAt(c)
	return nil
}

// Remove takes a unit out of the roster wherever it is.
func (b *Board) Remove(id string) (*combat.Unit, error) {
	u, ok := b.units[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnitNotFound, id)
	}
	b.home.VacateUnit(id)
	b.unbench(id)
	delete(b.units, id)
	b.order = slices.DeleteFunc(b.order, func(s string) bool { return s == id })
	return u, nil
}

// Clear empties the roster and returns what it held.
func (b *Board) Clear() []*combat.Unit {
	out := b.Units()
	b.home.Reset()
	clear(b.bench)
	clear(b.units)
	b.order = nil
	return out
}

// RestoreAll puts every deployed unit back on its home tile at full health.
func (b *Board) RestoreAll() {
	for _, u := range b.Deployed() {
		u.Restore()
	}
}

func (b *Board) freeSlot() int {
	return slices.Index(b.bench, "")
}

func (b *Board) unbench(id string) {
	if i := slices.Index(b.bench, id); i >= 0 {
		b.bench[i] = ""
	}
}

func (b *Board) copies(heroID string, star int) []*combat.Unit {
	var out []*combat.Unit
	for _, id := range b.order {
		if u := b.units[id]; u.Hero.ID == heroID && u.Star == star {
			out = append(out, u)
		}
	}
	return out
}

// fuse merges groups of three same-star copies of a hero until none are left.
// A deployed copy is kept in preference to benched ones so the merged unit
// stays on the board.
func (b *Board) fuse(heroID string) []Fusion {
	var out []Fusion
	for star := 1; star < combat.MaxStar; star++ {
		for {
			group := b.copies(heroID, star)
			if len(group) < FusionSize {
				break
			}
			group = group[:FusionSize]
			keep := 0
			for i, u := range group {
				if b.IsDeployed(u.ID) {
					keep = i
					break
				}
			}
			f := Fusion{Into: group[keep]}
			for i, u := range group {
				if i == keep {
					continue
				}
				b.Remove(u.ID)
				f.Consumed = append(f.Consumed, u)
			}
			f.Into.SetStar(star + 1)
			if !b.IsDeployed(f.Into.ID) && !slices.Contains(b.bench, f.Into.ID) {
				if slot := b.freeSlot(); slot >= 0 {
					b.bench[slot] = f.Into.ID
				}
			}
			out = append(out, f)
		}
	}
	return out
}

// Copies is how many one-star units a unit of this star is worth.
func Copies(star int) int {
	n := 1
	for range star - 1 {
		n *= FusionSize
	}
	return n
}
