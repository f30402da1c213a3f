package main

import "fmt"

// RuleSet carries the scoring flags the upstream engine plays under.
// Exactly one of area counting (ScoreStones true) or territory counting
// (ScoreStones false, ScorePrisoners true) is expected; mixed
// configurations are unsupported and not validated here.
type RuleSet struct {
	ScoreStones          bool    `json:"score_stones"`
	ScorePrisoners       bool    `json:"score_prisoners"`
	ScoreTerritory       bool    `json:"score_territory"`
	ScoreTerritoryInSeki bool    `json:"score_territory_in_seki"`
	Komi                 float64 `json:"komi"`
	Handicap             int     `json:"handicap"`
}

func AreaRules(komi float64, handicap int) RuleSet {
	return RuleSet{
		ScoreStones:          true,
		ScoreTerritory:       true,
		ScoreTerritoryInSeki: true,
		Komi:                 komi,
		Handicap:             handicap,
	}
}

func TerritoryRules(komi float64, handicap int) RuleSet {
	return RuleSet{
		ScorePrisoners: true,
		ScoreTerritory: true,
		Komi:           komi,
		Handicap:       handicap,
	}
}

// HandicapPointAdjustmentForWhite is the area-scoring compensation White
// receives for Black's free handicap placements.
func (r RuleSet) HandicapPointAdjustmentForWhite() float64 {
	if !r.ScoreStones || r.Handicap <= 0 {
		return 0
	}
	return float64(r.Handicap)
}

// GameSnapshot is the read-only view of the upstream game the estimator
// works from: board position, rules and the prisoners captured so far.
type GameSnapshot struct {
	Board          Board
	Rules          RuleSet
	PlayerToMove   Cell
	BlackPrisoners int
	WhitePrisoners int
}

func (s GameSnapshot) Clone() GameSnapshot {
	clone := s
	clone.Board = s.Board.Clone()
	return clone
}

// GameEngine is the upstream collaborator providing snapshots. Snapshot is
// re-read at construction and on every Score call, never cached across
// them.
type GameEngine interface {
	Snapshot() GameSnapshot
}

// StaticEngine serves a fixed snapshot. The review service uses it to wrap
// a position submitted over the API; tests use it for fixtures.
type StaticEngine struct {
	snapshot GameSnapshot
}

func NewStaticEngine(snapshot GameSnapshot) *StaticEngine {
	return &StaticEngine{snapshot: snapshot}
}

func (e *StaticEngine) Snapshot() GameSnapshot {
	return e.snapshot.Clone()
}

func validateSnapshot(s GameSnapshot) error {
	if s.Board.Width() <= 0 || s.Board.Height() <= 0 {
		return &MalformedInputError{Reason: fmt.Sprintf("board dimensions %dx%d", s.Board.Width(), s.Board.Height())}
	}
	if s.Board.Width() > len(coordAlphabet) || s.Board.Height() > len(coordAlphabet) {
		return &MalformedInputError{Reason: fmt.Sprintf("board dimensions %dx%d exceed the %d-point coordinate alphabet",
			s.Board.Width(), s.Board.Height(), len(coordAlphabet))}
	}
	if len(s.Board.cells) != s.Board.Width()*s.Board.Height() {
		return &MalformedInputError{Reason: fmt.Sprintf("board storage has %d cells for %dx%d", len(s.Board.cells), s.Board.Width(), s.Board.Height())}
	}
	if s.BlackPrisoners < 0 || s.WhitePrisoners < 0 {
		return &MalformedInputError{Reason: "negative prisoner count"}
	}
	return nil
}
