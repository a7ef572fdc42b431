package world

import (
	"math"
	"sync"

	"github.com/lugo/server/internal/core/ecs"
)

// gridCellSize is the edge length of one grid cell in world units.
const gridCellSize = 64

type cellKey struct {
	cx int32
	cz int32
}

func toCellCoord(v float32) int32 {
	return int32(math.Floor(float64(v) / gridCellSize))
}

func cellOf(p Vector3) cellKey {
	return cellKey{cx: toCellCoord(p.X), cz: toCellCoord(p.Z)}
}

// Grid is a cell-based spatial index over the X/Z plane. It only narrows
// candidates; callers do the exact distance test.
type Grid struct {
	mu    sync.RWMutex
	cells map[cellKey]map[ecs.ObjectID]struct{}
	where map[ecs.ObjectID]cellKey
}

func NewGrid() *Grid {
	return &Grid{
		cells: make(map[cellKey]map[ecs.ObjectID]struct{}),
		where: make(map[ecs.ObjectID]cellKey),
	}
}

// Set places id at p, moving it if it is already indexed.
func (g *Grid) Set(id ecs.ObjectID, p Vector3) {
	k := cellOf(p)
	g.mu.Lock()
	defer g.mu.Unlock()
	if old, ok := g.where[id]; ok {
		if old == k {
			return
		}
		g.removeLocked(id, old)
	}
	cell := g.cells[k]
	if cell == nil {
		cell = make(map[ecs.ObjectID]struct{})
		g.cells[k] = cell
	}
	cell[id] = struct{}{}
	g.where[id] = k
}

// Remove takes id out of the grid.
func (g *Grid) Remove(id ecs.ObjectID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if k, ok := g.where[id]; ok {
		g.removeLocked(id, k)
	}
}

func (g *Grid) removeLocked(id ecs.ObjectID, k cellKey) {
	delete(g.where, id)
	if cell := g.cells[k]; cell != nil {
		delete(cell, id)
		if len(cell) == 0 {
			delete(g.cells, k)
		}
	}
}

// Nearby returns the ids in every cell touched by the square around p with
// half-width radius.
func (g *Grid) Nearby(p Vector3, radius float32) []ecs.ObjectID {
	lo := cellOf(Vector3{X: p.X - radius, Z: p.Z - radius})
	hi := cellOf(Vector3{X: p.X + radius, Z: p.Z + radius})
	g.mu.RLock()
	defer g.mu.RUnlock()
	var result []ecs.ObjectID
	for cx := lo.cx; cx <= hi.cx; cx++ {
		for cz := lo.cz; cz <= hi.cz; cz++ {
			for id := range g.cells[cellKey{cx: cx, cz: cz}] {
				result = append(result, id)
			}
		}
	}
	return result
}

func (g *Grid) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.where)
}
