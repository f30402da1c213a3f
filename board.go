package main

import "fmt"

type Cell int

const (
	CellEmpty Cell = iota
	CellBlack
	CellWhite
)

// Board is a rectangular grid of cells. Cells are stored row by row,
// so (x, y) lives at y*width+x.
type Board struct {
	width  int
	height int
	cells  []Cell
}

func NewBoard(width, height int) Board {
	b := Board{}
	b.Reset(width, height)
	return b
}

func (b *Board) Reset(width, height int) {
	b.width = width
	b.height = height
	b.cells = make([]Cell, width*height)
}

func (b Board) At(x, y int) Cell {
	return b.cells[b.index(x, y)]
}

func (b *Board) Set(x, y int, value Cell) {
	b.cells[b.index(x, y)] = value
}

func (b *Board) Remove(x, y int) {
	b.cells[b.index(x, y)] = CellEmpty
}

func (b Board) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < b.width && y < b.height
}

func (b Board) IsEmpty(x, y int) bool {
	return b.InBounds(x, y) && b.At(x, y) == CellEmpty
}

func (b Board) CountEmpty() int {
	count := 0
	for _, cell := range b.cells {
		if cell == CellEmpty {
			count++
		}
	}
	return count
}

func (b Board) Width() int {
	return b.width
}

func (b Board) Height() int {
	return b.height
}

func (b Board) Clone() Board {
	clone := Board{width: b.width, height: b.height}
	clone.cells = make([]Cell, len(b.cells))
	copy(clone.cells, b.cells)
	return clone
}

func (b Board) index(x, y int) int {
	return y*b.width + x
}

func (c Cell) String() string {
	switch c {
	case CellBlack:
		return "Black"
	case CellWhite:
		return "White"
	default:
		return "Empty"
	}
}

func (c Cell) Opponent() Cell {
	switch c {
	case CellBlack:
		return CellWhite
	case CellWhite:
		return CellBlack
	default:
		return CellEmpty
	}
}

func (c Cell) IsStone() bool {
	return c == CellBlack || c == CellWhite
}

func cellToInt(cell Cell) int {
	switch cell {
	case CellBlack:
		return 1
	case CellWhite:
		return 2
	default:
		return 0
	}
}

func intToCell(value int) Cell {
	switch value {
	case 1:
		return CellBlack
	case 2:
		return CellWhite
	default:
		return CellEmpty
	}
}

// BoardFromInts builds a board from the 0/1/2 grid the game engine hands
// over. Rows are indexed rows[y][x].
func BoardFromInts(rows [][]int) (Board, error) {
	height := len(rows)
	if height == 0 {
		return Board{}, fmt.Errorf("empty board")
	}
	width := len(rows[0])
	if width == 0 {
		return Board{}, fmt.Errorf("empty board row")
	}
	board := NewBoard(width, height)
	for y, row := range rows {
		if len(row) != width {
			return Board{}, fmt.Errorf("ragged board: row %d has %d cells, want %d", y, len(row), width)
		}
		for x, value := range row {
			board.Set(x, y, intToCell(value))
		}
	}
	return board, nil
}

func boardToSlice(board Board) [][]int {
	rows := make([][]int, board.Height())
	for y := 0; y < board.Height(); y++ {
		rows[y] = make([]int, board.Width())
		for x := 0; x < board.Width(); x++ {
			rows[y][x] = cellToInt(board.At(x, y))
		}
	}
	return rows
}
