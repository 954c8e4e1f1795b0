// Package formation places one team's units on the battle grid.
package formation

import (
	"slices"

	"github.com/DoyleJ11/autobattler-backend/internal/catalog"
	"github.com/DoyleJ11/autobattler-backend/internal/grid"
)

type Side int

const (
	SideA Side = iota
	SideB
)

func (s Side) String() string {
	if s == SideB {
		return "b"
	}
	return "a"
}

// Slot is a unit waiting for a tile. PreferredCol is the unit's column on its
// home board.
type Slot struct {
	UnitID       string
	Role         catalog.Role
	PreferredCol int
}

type Result struct {
	Assignments map[string]grid.Coord
	// Order lists assigned unit ids in the order they were placed.
	Order []string
	// Unplaced units found no free tile and sit this battle out.
	Unplaced []string
}

// Flip mirrors a row across the arena midline.
func Flip(row, totalRows int) int { return totalRows - 1 - row }

// Rows returns a side's front and back rows. Side A holds the two rows just
// below the midline; side B holds their mirror image.
func Rows(side Side, totalRows int) (front, back int) {
	front = totalRows/2 - 1
	back = totalRows/2 - 2
	if front < 0 {
		front = 0
	}
	if back < 0 {
		back = front
	}
	if side == SideB {
		return Flip(front, totalRows), Flip(back, totalRows)
	}
	return front, back
}

// Plan assigns tiles on g for slots and reserves them on the grid. Frontline
// units are placed first, then backline, then flexible, each group in input
// order. Output only depends on the slots and the grid's current occupancy.
func Plan(slots []Slot, side Side, g *grid.Grid) Result {
	res := Result{Assignments: make(map[string]grid.Coord, len(slots))}
	if len(slots) == 0 || g.Rows() == 0 || g.Cols() == 0 {
		for _, s := range slots {
			res.Unplaced = append(res.Unplaced, s.UnitID)
		}
		return res
	}

	front, back := Rows(side, g.Rows())
	var frontline, backline, flexible []Slot
	for _, s := range slots {
		switch s.Role {
		case catalog.RoleFrontline:
			frontline = append(frontline, s)
		case catalog.RoleBackline:
			backline = append(backline, s)
		default:
			flexible = append(flexible, s)
		}
	}

	place := func(s Slot, rows ...int) {
		for _, row := range rows {
			if col, ok := pickColumn(g, row, s.PreferredCol); ok {
				c := grid.Coord{X: col, Y: row}
				if err := g.Place(c, s.UnitID); err == nil {
					res.Assignments[s.UnitID] = c
					res.Order = append(res.Order, s.UnitID)
					return
				}
			}
		}
		res.Unplaced = append(res.Unplaced, s.UnitID)
	}

	for _, s := range frontline {
		place(s, front, back)
	}
	for _, s := range backline {
		place(s, back, front)
	}
	for _, s := range flexible {
		place(s, front, back)
	}
	return res
}

// StaggerColumns lists the columns matching the row's parity, nearest to
// preferred first. Ties keep ascending column order.
func StaggerColumns(row, cols, preferred int) []int {
	preferred = clamp(preferred, 0, cols-1)
	out := make([]int, 0, cols/2+1)
	for c := row % 2; c < cols; c += 2 {
		out = append(out, c)
	}
	slices.SortStableFunc(out, func(a, b int) int {
		return abs(a-preferred) - abs(b-preferred)
	})
	return out
}

func pickColumn(g *grid.Grid, row, preferred int) (int, bool) {
	for _, c := range StaggerColumns(row, g.Cols(), preferred) {
		if g.IsFree(grid.Coord{X: c, Y: row}) {
			return c, true
		}
	}
	for c := 0; c < g.Cols(); c++ {
		if g.IsFree(grid.Coord{X: c, Y: row}) {
			return c, true
		}
	}
	return 0, false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
