package main

import "context"

// OwnershipMap holds per-cell signed ownership: positive leans Black,
// negative leans White, zero is neutral. Transient, rebuilt on every
// estimate refresh.
type OwnershipMap struct {
	width  int
	height int
	values []float64
}

func NewOwnershipMap(width, height int) OwnershipMap {
	return OwnershipMap{
		width:  width,
		height: height,
		values: make([]float64, width*height),
	}
}

func (m OwnershipMap) At(x, y int) float64 {
	return m.values[y*m.width+x]
}

func (m *OwnershipMap) Set(x, y int, value float64) {
	m.values[y*m.width+x] = value
}

func (m OwnershipMap) Width() int {
	return m.width
}

func (m OwnershipMap) Height() int {
	return m.height
}

func (m OwnershipMap) Clone() OwnershipMap {
	clone := OwnershipMap{width: m.width, height: m.height}
	clone.values = make([]float64, len(m.values))
	copy(clone.values, m.values)
	return clone
}

func (m OwnershipMap) Rows() [][]float64 {
	rows := make([][]float64, m.height)
	for y := 0; y < m.height; y++ {
		rows[y] = make([]float64, m.width)
		copy(rows[y], m.values[y*m.width:(y+1)*m.width])
	}
	return rows
}

// signWithin clamps an ownership value to -1/0/+1, treating anything
// within tolerance of zero as neutral.
func signWithin(value, tolerance float64) int {
	if value > tolerance {
		return 1
	}
	if value < -tolerance {
		return -1
	}
	return 0
}

// EstimateRequest is the board snapshot handed to an ownership source.
// Removed stones have already been substituted with empty cells.
type EstimateRequest struct {
	Board          Board
	PlayerToMove   Cell
	Rules          RuleSet
	Trials         int
	Tolerance      float64
	BlackPrisoners int
	WhitePrisoners int
}

// EstimateResult carries the raw ownership map and an advisory score,
// black minus white with komi already applied. HasWinRate marks sources
// that report one.
type EstimateResult struct {
	Ownership  OwnershipMap
	Score      float64
	WinRate    float64
	HasWinRate bool
}

// OwnershipSource turns a board snapshot into raw per-cell ownership.
// Implementations may block on network or long local computation and must
// honor context cancellation.
type OwnershipSource interface {
	Estimate(ctx context.Context, req EstimateRequest) (EstimateResult, error)
}
