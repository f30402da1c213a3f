package main

import "sort"

// ConnectedGroup is a maximal 4-connected region of same-colored cells.
// Groups live in a GroupGraph arena and refer to each other by id, so the
// graph carries no reference cycles. Membership is fixed after the build;
// only Removed flips during a graph's lifetime.
type ConnectedGroup struct {
	ID     int
	Color  Cell
	Points []Coord

	// Neighbor ids, sorted ascending. SpaceNeighbors and StoneNeighbors
	// partition Neighbors by the neighbor's color; the partitions are
	// cached because removal propagation walks them repeatedly.
	Neighbors      []int
	SpaceNeighbors []int
	StoneNeighbors []int

	Removed bool

	// Territory classification, only meaningful for empty groups.
	IsTerritory       bool
	TerritoryColor    Cell
	IsTerritoryInSeki bool
}

func (g *ConnectedGroup) Size() int {
	return len(g.Points)
}

// GroupGraph partitions a board into connected groups plus a cell-to-group
// lookup grid. Rebuilt from scratch whenever the underlying board changes;
// ids are assigned in row-major discovery order so two builds of the same
// board are identical.
type GroupGraph struct {
	width     int
	height    int
	groups    []*ConnectedGroup
	cellGroup []int
}

func BuildGroupGraph(board Board) *GroupGraph {
	width := board.Width()
	height := board.Height()
	graph := &GroupGraph{
		width:     width,
		height:    height,
		cellGroup: make([]int, width*height),
	}
	for i := range graph.cellGroup {
		graph.cellGroup[i] = -1
	}

	// Iterative flood fill; recursion would blow the stack on large
	// boards with a single snaking group.
	stack := make([]Coord, 0, 64)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if graph.cellGroup[y*width+x] != -1 {
				continue
			}
			id := len(graph.groups)
			color := board.At(x, y)
			group := &ConnectedGroup{ID: id, Color: color}
			graph.cellGroup[y*width+x] = id
			stack = append(stack[:0], Coord{X: x, Y: y})
			for len(stack) > 0 {
				point := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				group.Points = append(group.Points, point)
				for _, adj := range neighborCoords(point) {
					if !board.InBounds(adj.X, adj.Y) {
						continue
					}
					idx := adj.Y*width + adj.X
					if graph.cellGroup[idx] != -1 || board.At(adj.X, adj.Y) != color {
						continue
					}
					graph.cellGroup[idx] = id
					stack = append(stack, adj)
				}
			}
			sortCoords(group.Points)
			graph.groups = append(graph.groups, group)
		}
	}

	graph.wireNeighbors(board)
	graph.classifyTerritory()
	return graph
}

func neighborCoords(point Coord) [4]Coord {
	return [4]Coord{
		{X: point.X + 1, Y: point.Y},
		{X: point.X - 1, Y: point.Y},
		{X: point.X, Y: point.Y + 1},
		{X: point.X, Y: point.Y - 1},
	}
}

func (gg *GroupGraph) wireNeighbors(board Board) {
	seen := make([]int, len(gg.groups))
	for i := range seen {
		seen[i] = -1
	}
	for _, group := range gg.groups {
		for _, point := range group.Points {
			for _, adj := range neighborCoords(point) {
				if !board.InBounds(adj.X, adj.Y) {
					continue
				}
				other := gg.cellGroup[adj.Y*gg.width+adj.X]
				if other == group.ID || seen[other] == group.ID {
					continue
				}
				seen[other] = group.ID
				group.Neighbors = append(group.Neighbors, other)
			}
		}
		sort.Ints(group.Neighbors)
		for _, id := range group.Neighbors {
			if gg.groups[id].Color == CellEmpty {
				group.SpaceNeighbors = append(group.SpaceNeighbors, id)
			} else {
				group.StoneNeighbors = append(group.StoneNeighbors, id)
			}
		}
	}
}

// classifyTerritory marks each empty group that is bordered by stones of a
// single color as that color's territory. Empty regions are maximal, so
// there is no empty-to-empty adjacency to chase; a region's direct stone
// neighbors are the whole story. Regions bordered by both colors are dame,
// and flagged as seki-adjacent when none of the bordering chains is
// currently marked removed.
func (gg *GroupGraph) classifyTerritory() {
	for _, group := range gg.groups {
		if group.Color != CellEmpty {
			continue
		}
		group.IsTerritory = false
		group.TerritoryColor = CellEmpty
		group.IsTerritoryInSeki = false
		sawBlack := false
		sawWhite := false
		anyRemoved := false
		for _, id := range group.StoneNeighbors {
			neighbor := gg.groups[id]
			switch neighbor.Color {
			case CellBlack:
				sawBlack = true
			case CellWhite:
				sawWhite = true
			}
			if neighbor.Removed {
				anyRemoved = true
			}
		}
		switch {
		case sawBlack && !sawWhite:
			group.IsTerritory = true
			group.TerritoryColor = CellBlack
		case sawWhite && !sawBlack:
			group.IsTerritory = true
			group.TerritoryColor = CellWhite
		case sawBlack && sawWhite:
			group.IsTerritoryInSeki = !anyRemoved
		}
	}
}

func (gg *GroupGraph) GroupAt(x, y int) *ConnectedGroup {
	if x < 0 || y < 0 || x >= gg.width || y >= gg.height {
		return nil
	}
	id := gg.cellGroup[y*gg.width+x]
	if id < 0 {
		return nil
	}
	return gg.groups[id]
}

func (gg *GroupGraph) Group(id int) *ConnectedGroup {
	return gg.groups[id]
}

func (gg *GroupGraph) Groups() []*ConnectedGroup {
	return gg.groups
}

// sortCoords orders points row-major, y before x, matching discovery order.
func sortCoords(coords []Coord) {
	sort.Slice(coords, func(i, j int) bool {
		return coordLess(coords[i], coords[j])
	})
}

func coordLess(a, b Coord) bool {
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.X < b.X
}
