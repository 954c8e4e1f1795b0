package grid

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfBounds  = errors.New("tile out of bounds")
	ErrTileOccupied = errors.New("tile occupied")
)

// ArenaOwner owns battle grids; home boards are owned by a player id.
const ArenaOwner = "arena"

// Coord addresses a tile: X is the column, Y the row.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (c Coord) String() string { return fmt.Sprintf("(%d,%d)", c.X, c.Y) }

// Grid tracks which unit occupies each tile. It only stores unit ids; the
// unit lifecycle belongs to whoever spawned it.
type Grid struct {
	rows, cols int
	owner      string
	cells      []string
}

func New(rows, cols int, owner string) *Grid {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	return &Grid{rows: rows, cols: cols, owner: owner, cells: make([]string, rows*cols)}
}

func (g *Grid) Rows() int     { return g.rows }
func (g *Grid) Cols() int     { return g.cols }
func (g *Grid) Owner() string { return g.owner }

func (g *Grid) InBounds(c Coord) bool {
	return c.X >= 0 && c.X < g.cols && c.Y >= 0 && c.Y < g.rows
}

func (g *Grid) idx(c Coord) int { return c.Y*g.cols + c.X }

func (g *Grid) Occupant(c Coord) (string, bool) {
	if !g.InBounds(c) {
		return "", false
	}
	id := g.cells[g.idx(c)]
	return id, id != ""
}

func (g *Grid) IsFree(c Coord) bool {
	if !g.InBounds(c) {
		return false
	}
	return g.cells[g.idx(c)] == ""
}

// Place puts unitID on c. A tile holds at most one unit.
func (g *Grid) Place(c Coord, unitID string) error {
	if !g.InBounds(c) {
		return fmt.Errorf("%w: %s", ErrOutOfBounds, c)
	}
	if cur := g.cells[g.idx(c)]; cur != "" && cur != unitID {
		return fmt.Errorf("%w: %s", ErrTileOccupied, c)
	}
	g.cells[g.idx(c)] = unitID
	return nil
}

func (g *Grid) Vacate(c Coord) {
	if g.InBounds(c) {
		g.cells[g.idx(c)] = ""
	}
}

// VacateUnit frees whichever tile holds unitID.
func (g *Grid) VacateUnit(unitID string) (Coord, bool) {
	if unitID == "" {
		return Coord{}, false
	}
	for i, id := range g.cells {
		if id == unitID {
			g.cells[i] = ""
			return Coord{X: i % g.cols, Y: i / g.cols}, true
		}
	}
	return Coord{}, false
}

func (g *Grid) Find(unitID string) (Coord, bool) {
	if unitID == "" {
		return Coord{}, false
	}
	for i, id := range g.cells {
		if id == unitID {
			return Coord{X: i % g.cols, Y: i / g.cols}, true
		}
	}
	return Coord{}, false
}

func (g *Grid) Occupied() int {
	n := 0
	for _, id := range g.cells {
		if id != "" {
			n++
		}
	}
	return n
}

func (g *Grid) Reset() {
	clear(g.cells)
}
