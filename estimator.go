package main

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

type EstimatorState int

const (
	StateBuilding EstimatorState = iota
	StateEstimating
	StateReady
)

func (s EstimatorState) String() string {
	switch s {
	case StateBuilding:
		return "building"
	case StateEstimating:
		return "estimating"
	default:
		return "ready"
	}
}

// PlayerScore is one player's side of the final accounting.
type PlayerScore struct {
	Stones           int     `json:"stones"`
	Territory        int     `json:"territory"`
	Prisoners        int     `json:"prisoners"`
	Handicap         int     `json:"handicap"`
	Komi             float64 `json:"komi"`
	Total            float64 `json:"total"`
	ScoringPositions []Coord `json:"scoring_positions"`
}

// EstimatorOptions configures a ScoreEstimator at construction.
type EstimatorOptions struct {
	Trials    int
	Tolerance float64

	// Remote is consulted only when PreferRemote is set and the board
	// fits within RemoteMaxWidth/Height; everything else runs locally.
	PreferRemote    bool
	Remote          *RemoteEstimator
	RemoteMaxWidth  int
	RemoteMaxHeight int

	// Fire-and-forget UI collaborators. Panics are recovered and logged.
	OnEstimateUpdated func()
	OnRemovalChanged  RemovalChangeFunc
}

// ScoreEstimator owns a board snapshot, its group graph and removal state,
// and the latest ownership estimate. One logical owner per instance:
// callers serialize HandleClick/SetRemoved/Score against it. The only
// asynchronous path is the ownership refresh, which is ordered by a
// generation counter - the highest-generation completion wins and stale
// results are discarded, so a slow in-flight estimate can never overwrite
// the result of a newer toggle.
type ScoreEstimator struct {
	engine  GameEngine
	options EstimatorOptions
	local   *LocalEstimator

	snapshot GameSnapshot
	graph    *GroupGraph
	removal  *removalState

	mu         sync.Mutex
	state      EstimatorState
	generation uint64
	appliedGen uint64
	ownership  OwnershipMap
	display    OwnershipMap
	// Advisory score, black minus white. The authoritative result comes
	// from Score.
	estimatedScore float64
	winRate        float64
	hasWinRate     bool
	hasEstimate    bool

	ready     chan struct{}
	readyOnce sync.Once

	board Board
	black PlayerScore
	white PlayerScore
}

// NewScoreEstimator snapshots the engine, builds the group graph and
// launches the initial asynchronous estimate. Await Ready before reading
// ownership.
func NewScoreEstimator(ctx context.Context, engine GameEngine, options EstimatorOptions) (*ScoreEstimator, error) {
	snapshot := engine.Snapshot()
	if err := validateSnapshot(snapshot); err != nil {
		return nil, err
	}
	se := &ScoreEstimator{
		engine:   engine,
		options:  options,
		local:    NewLocalEstimator(),
		snapshot: snapshot,
		state:    StateBuilding,
		ready:    make(chan struct{}),
		board:    snapshot.Board.Clone(),
	}
	se.graph = BuildGroupGraph(snapshot.Board)
	se.removal = newRemovalState(se.graph, options.OnRemovalChanged)
	errCh := se.EstimateScore(ctx)
	go func() {
		if err := <-errCh; err != nil {
			log.Warn().Msgf("initial estimate failed: %v", err)
		}
	}()
	return se, nil
}

// Ready is closed once the first estimate has been applied.
func (se *ScoreEstimator) Ready() <-chan struct{} {
	return se.ready
}

func (se *ScoreEstimator) State() EstimatorState {
	se.mu.Lock()
	defer se.mu.Unlock()
	return se.state
}

// EstimateScore launches an asynchronous ownership refresh and returns a
// channel that yields its outcome. A refresh that loses the generation
// race still reports nil; its result is simply dropped.
func (se *ScoreEstimator) EstimateScore(ctx context.Context) <-chan error {
	gen := atomic.AddUint64(&se.generation, 1)

	se.mu.Lock()
	se.state = StateEstimating
	se.mu.Unlock()

	request := EstimateRequest{
		Board:          se.workingBoard(),
		PlayerToMove:   se.snapshot.PlayerToMove,
		Rules:          se.snapshot.Rules,
		Trials:         se.options.Trials,
		Tolerance:      se.options.Tolerance,
		BlackPrisoners: se.snapshot.BlackPrisoners,
		WhitePrisoners: se.snapshot.WhitePrisoners,
	}
	source := se.pickSource(request.Board)

	errCh := make(chan error, 1)
	go func() {
		result, err := source.Estimate(ctx, request)
		if err != nil {
			// A rejected refresh must not leave the session reporting
			// "estimating" forever.
			se.mu.Lock()
			if se.state == StateEstimating {
				if se.hasEstimate {
					se.state = StateReady
				} else {
					se.state = StateBuilding
				}
			}
			se.mu.Unlock()
			errCh <- err
			return
		}
		se.applyEstimate(gen, request, result)
		errCh <- nil
	}()
	return errCh
}

// pickSource applies the remote policy: remote only when asked for,
// registered, and the board fits the service's limits.
func (se *ScoreEstimator) pickSource(board Board) OwnershipSource {
	if !se.options.PreferRemote || se.options.Remote == nil {
		return se.local
	}
	if se.options.RemoteMaxWidth > 0 && board.Width() > se.options.RemoteMaxWidth {
		return se.local
	}
	if se.options.RemoteMaxHeight > 0 && board.Height() > se.options.RemoteMaxHeight {
		return se.local
	}
	return se.options.Remote
}

func (se *ScoreEstimator) applyEstimate(gen uint64, request EstimateRequest, result EstimateResult) {
	adjusted, display := AdjustEstimate(se.snapshot.Rules, request.Board, result.Ownership,
		result.Score, se.snapshot.BlackPrisoners, se.snapshot.WhitePrisoners)

	se.mu.Lock()
	if gen <= se.appliedGen {
		se.mu.Unlock()
		log.Debug().Msgf("dropping stale estimate generation %d (applied %d)", gen, se.appliedGen)
		return
	}
	se.appliedGen = gen
	se.ownership = result.Ownership
	se.display = display
	se.estimatedScore = adjusted
	se.winRate = result.WinRate
	se.hasWinRate = result.HasWinRate
	se.hasEstimate = true
	se.state = StateReady
	se.mu.Unlock()

	se.readyOnce.Do(func() { close(se.ready) })
	se.notifyEstimateUpdated()
}

func (se *ScoreEstimator) notifyEstimateUpdated() {
	if se.options.OnEstimateUpdated == nil {
		return
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			log.Warn().Msgf("estimate update callback panicked: %v", recovered)
		}
	}()
	se.options.OnEstimateUpdated()
}

// workingBoard is the snapshot with removed stones substituted as empty,
// the view every estimate runs against.
func (se *ScoreEstimator) workingBoard() Board {
	board := se.snapshot.Board.Clone()
	for y := 0; y < board.Height(); y++ {
		for x := 0; x < board.Width(); x++ {
			if se.removal.removal.At(x, y) && board.At(x, y).IsStone() {
				board.Remove(x, y)
			}
		}
	}
	return board
}

// HandleClick services one reviewer interaction: chainMode toggles the
// whole logical chain at (x, y), otherwise just the one group covering it.
// Either way a fresh estimate is kicked off; a rejection from that refresh
// is logged, not propagated.
func (se *ScoreEstimator) HandleClick(ctx context.Context, x, y int, chainMode bool) {
	if chainMode {
		se.removal.ToggleChain(x, y)
	} else if group := se.graph.GroupAt(x, y); group != nil {
		se.removal.SetRemoved(x, y, !group.Removed)
	}
	errCh := se.EstimateScore(ctx)
	go func() {
		if err := <-errCh; err != nil {
			log.Warn().Msgf("estimate refresh after click (%d,%d) failed: %v", x, y, err)
		}
	}()
}

// SetRemoved is the direct single-point override, no chain propagation and
// no estimate refresh.
func (se *ScoreEstimator) SetRemoved(x, y int, removed bool) {
	se.removal.SetRemoved(x, y, removed)
}

func (se *ScoreEstimator) Removed(x, y int) bool {
	return se.removal.removal.At(x, y)
}

// Estimate returns the latest applied ownership estimate. The bool is
// false until the first refresh completes.
func (se *ScoreEstimator) Estimate() (EstimateSummary, bool) {
	se.mu.Lock()
	defer se.mu.Unlock()
	if !se.hasEstimate {
		return EstimateSummary{}, false
	}
	return EstimateSummary{
		Ownership:  se.ownership.Clone(),
		Display:    se.display.Clone(),
		Score:      se.estimatedScore,
		WinRate:    se.winRate,
		HasWinRate: se.hasWinRate,
	}, true
}

// EstimateSummary is the advisory, display-only view of the latest
// refresh.
type EstimateSummary struct {
	Ownership  OwnershipMap
	Display    OwnershipMap
	Score      float64
	WinRate    float64
	HasWinRate bool
}

// ProbablyDead encodes every coordinate that the current estimate reads as
// neutral within tolerance, or whose stone disagrees with the
// ownership-implied occupant. Seeds the initial removal suggestion.
// Output is row-major and byte-for-byte reproducible.
func (se *ScoreEstimator) ProbablyDead() string {
	se.mu.Lock()
	ownership := se.ownership
	hasEstimate := se.hasEstimate
	se.mu.Unlock()
	if !hasEstimate {
		return ""
	}

	var builder strings.Builder
	board := se.snapshot.Board
	for y := 0; y < board.Height(); y++ {
		for x := 0; x < board.Width(); x++ {
			sign := signWithin(ownership.At(x, y), se.options.Tolerance)
			cell := board.At(x, y)
			dead := sign == 0 ||
				(cell == CellBlack && sign < 0) ||
				(cell == CellWhite && sign > 0)
			if dead {
				builder.WriteString(encodeCoord(x, y))
			}
		}
	}
	return builder.String()
}

// StoneRemovalString encodes every currently-removed coordinate in
// row-major order.
func (se *ScoreEstimator) StoneRemovalString() string {
	var builder strings.Builder
	for _, coord := range se.removal.RemovedCoords() {
		builder.WriteString(encodeCoord(coord.X, coord.Y))
	}
	return builder.String()
}

// Scores returns the per-player records of the last Score call.
func (se *ScoreEstimator) Scores() (black, white PlayerScore) {
	return se.black, se.white
}

// Score runs the authoritative final computation, independent of the
// heuristic ownership map: removed stones are zeroed off a working copy,
// territory is reclassified over a fresh group graph of that board, and
// stones/territory/prisoners/handicap/komi are folded into the two player
// records per the active rule flags. Pure computation, no I/O.
func (se *ScoreEstimator) Score() *ScoreEstimator {
	snapshot := se.engine.Snapshot()
	if snapshot.Board.Width() != se.removal.removal.width || snapshot.Board.Height() != se.removal.removal.height {
		// Removal marks are tied to the construction-time geometry; an
		// engine that resizes mid-session gets scored on the position the
		// review was opened with.
		log.Warn().Msgf("engine snapshot resized to %dx%d, scoring the original %dx%d position",
			snapshot.Board.Width(), snapshot.Board.Height(), se.removal.removal.width, se.removal.removal.height)
		snapshot = se.snapshot.Clone()
	}
	rules := snapshot.Rules
	board := snapshot.Board.Clone()

	removedBlack := 0
	removedWhite := 0
	for y := 0; y < board.Height(); y++ {
		for x := 0; x < board.Width(); x++ {
			if !se.removal.removal.At(x, y) {
				continue
			}
			switch board.At(x, y) {
			case CellBlack:
				removedBlack++
				board.Remove(x, y)
			case CellWhite:
				removedWhite++
				board.Remove(x, y)
			}
		}
	}

	se.black = PlayerScore{ScoringPositions: []Coord{}}
	se.white = PlayerScore{ScoringPositions: []Coord{}}
	graph := BuildGroupGraph(board)

	if rules.ScoreTerritory {
		for _, group := range graph.Groups() {
			if !group.IsTerritory {
				continue
			}
			if group.IsTerritoryInSeki && !rules.ScoreTerritoryInSeki {
				continue
			}
			side := &se.black
			if group.TerritoryColor == CellWhite {
				side = &se.white
			}
			for _, point := range group.Points {
				if se.removal.removal.At(point.X, point.Y) && snapshot.Board.At(point.X, point.Y) == CellEmpty {
					// Reviewer marked the open point dame. Points under
					// removed stones still count; the stone itself is
					// credited as a prisoner below.
					continue
				}
				side.Territory++
				side.ScoringPositions = append(side.ScoringPositions, point)
			}
		}
	}

	if rules.ScoreStones {
		for y := 0; y < board.Height(); y++ {
			for x := 0; x < board.Width(); x++ {
				switch board.At(x, y) {
				case CellBlack:
					se.black.Stones++
					se.black.ScoringPositions = append(se.black.ScoringPositions, Coord{X: x, Y: y})
				case CellWhite:
					se.white.Stones++
					se.white.ScoringPositions = append(se.white.ScoringPositions, Coord{X: x, Y: y})
				}
			}
		}
	}

	if rules.ScorePrisoners {
		se.black.Prisoners = snapshot.BlackPrisoners + removedWhite
		se.white.Prisoners = snapshot.WhitePrisoners + removedBlack
	}

	se.white.Komi = rules.Komi
	if rules.ScoreStones {
		se.white.Handicap = rules.Handicap
	}

	se.black.Total = float64(se.black.Stones+se.black.Territory+se.black.Prisoners+se.black.Handicap) + se.black.Komi
	se.white.Total = float64(se.white.Stones+se.white.Territory+se.white.Prisoners+se.white.Handicap) + se.white.Komi
	se.board = board
	return se
}

// ScoredBoard exposes the post-Score working board (removed stones
// zeroed).
func (se *ScoreEstimator) ScoredBoard() Board {
	return se.board
}
