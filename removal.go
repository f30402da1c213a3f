package main

import (
	"github.com/rs/zerolog/log"
)

// RemovalMap is the per-point source of truth for "excluded from scoring".
// It mirrors the union of the Removed flags of the groups covering each
// point and is what the string encodings and Score read.
type RemovalMap struct {
	width   int
	height  int
	removed []bool
}

func NewRemovalMap(width, height int) RemovalMap {
	return RemovalMap{
		width:   width,
		height:  height,
		removed: make([]bool, width*height),
	}
}

func (m RemovalMap) At(x, y int) bool {
	return m.removed[y*m.width+x]
}

func (m *RemovalMap) Set(x, y int, removed bool) {
	m.removed[y*m.width+x] = removed
}

func (m RemovalMap) Clone() RemovalMap {
	clone := RemovalMap{width: m.width, height: m.height}
	clone.removed = make([]bool, len(m.removed))
	copy(clone.removed, m.removed)
	return clone
}

// RemovalChangeFunc is the optional UI collaborator informed whenever a
// single coordinate's removed flag changes. Fire-and-forget; a panicking
// callback is recovered and logged, never allowed to abort a toggle.
type RemovalChangeFunc func(x, y int, removed bool)

// removalState couples a group graph with the removal map and the change
// callback. It owns all removed-flag mutation.
type removalState struct {
	graph    *GroupGraph
	removal  RemovalMap
	onChange RemovalChangeFunc
}

func newRemovalState(graph *GroupGraph, onChange RemovalChangeFunc) *removalState {
	return &removalState{
		graph:    graph,
		removal:  NewRemovalMap(graph.width, graph.height),
		onChange: onChange,
	}
}

// ToggleChain flips the dead/alive status of the logical chain at (x, y):
// the clicked stone group plus every same-colored stone group reachable
// from it through open space, the way a reviewer marks a whole dead shape
// with one click. Opposite-colored groups block propagation; they are
// visited so the walk terminates but their flags are never touched.
// Clicking empty space flips just that space group (dame marking).
func (rs *removalState) ToggleChain(x, y int) {
	group := rs.graph.GroupAt(x, y)
	if group == nil {
		return
	}
	if group.Color == CellEmpty {
		rs.setGroupRemoved(group, !group.Removed)
		rs.graph.classifyTerritory()
		return
	}

	removing := !group.Removed
	visited := make([]bool, len(rs.graph.groups))
	visited[group.ID] = true
	rs.setGroupRemoved(group, removing)

	frontier := make([]int, 0, len(group.SpaceNeighbors))
	for _, id := range group.SpaceNeighbors {
		if !visited[id] {
			visited[id] = true
			frontier = append(frontier, id)
		}
	}
	for len(frontier) > 0 {
		space := rs.graph.groups[frontier[0]]
		frontier = frontier[1:]
		for _, id := range space.StoneNeighbors {
			if visited[id] {
				continue
			}
			visited[id] = true
			stone := rs.graph.groups[id]
			if stone.Color != group.Color {
				continue
			}
			rs.setGroupRemoved(stone, removing)
			for _, spaceID := range stone.SpaceNeighbors {
				if !visited[spaceID] {
					visited[spaceID] = true
					frontier = append(frontier, spaceID)
				}
			}
		}
	}
	rs.graph.classifyTerritory()
}

// SetRemoved flips exactly the group covering (x, y), no propagation.
// Fine-grained manual correction for when the chain rule overshoots.
func (rs *removalState) SetRemoved(x, y int, removed bool) {
	group := rs.graph.GroupAt(x, y)
	if group == nil {
		return
	}
	if group.Removed != removed {
		rs.setGroupRemoved(group, removed)
		rs.graph.classifyTerritory()
	}
}

func (rs *removalState) setGroupRemoved(group *ConnectedGroup, removed bool) {
	group.Removed = removed
	for _, point := range group.Points {
		rs.removal.Set(point.X, point.Y, removed)
		rs.notifyChange(point.X, point.Y, removed)
	}
}

func (rs *removalState) notifyChange(x, y int, removed bool) {
	if rs.onChange == nil {
		return
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			log.Warn().Msgf("removal change callback panicked at (%d,%d): %v", x, y, recovered)
		}
	}()
	rs.onChange(x, y, removed)
}

// RemovedCoords lists every removed point in row-major order.
func (rs *removalState) RemovedCoords() []Coord {
	coords := []Coord{}
	for y := 0; y < rs.removal.height; y++ {
		for x := 0; x < rs.removal.width; x++ {
			if rs.removal.At(x, y) {
				coords = append(coords, Coord{X: x, Y: y})
			}
		}
	}
	return coords
}
