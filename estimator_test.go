package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestEstimator(t *testing.T, snapshot GameSnapshot, options EstimatorOptions) *ScoreEstimator {
	t.Helper()
	se, err := NewScoreEstimator(context.Background(), NewStaticEngine(snapshot), options)
	require.NoError(t, err)
	select {
	case <-se.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("estimator never became ready")
	}
	return se
}

func TestNewScoreEstimatorRejectsMalformedInput(t *testing.T) {
	snapshot := GameSnapshot{
		Board:          NewBoard(5, 5),
		Rules:          TerritoryRules(6.5, 0),
		BlackPrisoners: -1,
	}
	_, err := NewScoreEstimator(context.Background(), NewStaticEngine(snapshot), EstimatorOptions{})
	var malformed *MalformedInputError
	require.ErrorAs(t, err, &malformed)

	_, err = NewScoreEstimator(context.Background(), NewStaticEngine(GameSnapshot{}), EstimatorOptions{})
	require.ErrorAs(t, err, &malformed)
}

func TestNewScoreEstimatorRejectsBoardsBeyondCoordinateAlphabet(t *testing.T) {
	// The two-letter coordinate tokens cover 26 columns and rows; a wider
	// board must be rejected up front, not blow up later in the string
	// encoders.
	snapshot := GameSnapshot{Board: NewBoard(27, 3), Rules: TerritoryRules(6.5, 0)}
	_, err := NewScoreEstimator(context.Background(), NewStaticEngine(snapshot), EstimatorOptions{})
	var malformed *MalformedInputError
	require.ErrorAs(t, err, &malformed)

	snapshot = GameSnapshot{Board: NewBoard(3, 27), Rules: TerritoryRules(6.5, 0)}
	_, err = NewScoreEstimator(context.Background(), NewStaticEngine(snapshot), EstimatorOptions{})
	require.ErrorAs(t, err, &malformed)

	snapshot = GameSnapshot{Board: NewBoard(26, 26), Rules: TerritoryRules(6.5, 0)}
	_, err = NewScoreEstimator(context.Background(), NewStaticEngine(snapshot), EstimatorOptions{})
	require.NoError(t, err, "the full alphabet is still usable")
}

func TestScoreTerritoryCountingEndToEnd(t *testing.T) {
	// Three live Black stones walling off a 5x5 corner; everything empty
	// is bordered by Black alone.
	board := NewBoard(5, 5)
	board.Set(0, 0, CellBlack)
	board.Set(1, 0, CellBlack)
	board.Set(0, 1, CellBlack)
	snapshot := GameSnapshot{Board: board, Rules: TerritoryRules(6.5, 0), PlayerToMove: CellWhite}

	se := newTestEstimator(t, snapshot, EstimatorOptions{Tolerance: 0.25})
	black, white := se.Score().Scores()

	require.Equal(t, 22, black.Territory)
	require.Equal(t, 0, black.Stones, "territory counting does not score stones")
	require.Equal(t, 0, black.Prisoners)
	require.Equal(t, 22.0, black.Total)
	require.Len(t, black.ScoringPositions, 22)

	require.Equal(t, 0, white.Territory)
	require.Equal(t, 6.5, white.Komi)
	require.Equal(t, 6.5, white.Total)
}

func TestScoreAreaCountingAddsStonesAndHandicap(t *testing.T) {
	board := NewBoard(5, 5)
	board.Set(0, 0, CellBlack)
	board.Set(1, 0, CellBlack)
	board.Set(0, 1, CellBlack)
	snapshot := GameSnapshot{Board: board, Rules: AreaRules(6.5, 2), PlayerToMove: CellWhite}

	se := newTestEstimator(t, snapshot, EstimatorOptions{Tolerance: 0.25})
	black, white := se.Score().Scores()

	require.Equal(t, 3, black.Stones)
	require.Equal(t, 22, black.Territory)
	require.Equal(t, 25.0, black.Total)
	require.Equal(t, 2, white.Handicap)
	require.Equal(t, 8.5, white.Total)
}

func TestScoreCountsRemovedStonesAsPrisoners(t *testing.T) {
	board := NewBoard(5, 5)
	board.Set(0, 0, CellBlack)
	board.Set(1, 0, CellBlack)
	board.Set(0, 1, CellBlack)
	board.Set(4, 4, CellWhite)
	snapshot := GameSnapshot{Board: board, Rules: TerritoryRules(6.5, 0)}

	se := newTestEstimator(t, snapshot, EstimatorOptions{Tolerance: 0.25})

	// Live white stone spoils the territory entirely.
	black, white := se.Score().Scores()
	require.Equal(t, 0, black.Territory)
	require.Equal(t, 0.0, black.Total)
	require.Equal(t, 6.5, white.Total)

	// Marked dead, it becomes a prisoner and the corner closes up again.
	se.SetRemoved(4, 4, true)
	black, white = se.Score().Scores()
	require.Equal(t, 22, black.Territory)
	require.Equal(t, 1, black.Prisoners)
	require.Equal(t, 23.0, black.Total)
	require.Equal(t, 6.5, white.Total)
}

func TestScoreSkipsSpaceMarkedAsDame(t *testing.T) {
	board := NewBoard(3, 3)
	board.Set(0, 0, CellBlack)
	snapshot := GameSnapshot{Board: board, Rules: TerritoryRules(0, 0)}

	se := newTestEstimator(t, snapshot, EstimatorOptions{})
	black, _ := se.Score().Scores()
	require.Equal(t, 8, black.Territory)

	se.HandleClick(context.Background(), 2, 2, true)
	black, _ = se.Score().Scores()
	require.Equal(t, 0, black.Territory, "dame-marked space region is excluded")
}

func TestScoreReReadsEngineSnapshot(t *testing.T) {
	first := GameSnapshot{Board: NewBoard(3, 3), Rules: TerritoryRules(0, 0)}
	second := first.Clone()
	second.Board.Set(0, 0, CellBlack)
	engine := &sequenceEngine{snapshots: []GameSnapshot{first, second}}

	se, err := NewScoreEstimator(context.Background(), engine, EstimatorOptions{})
	require.NoError(t, err)
	<-se.Ready()

	black, _ := se.Score().Scores()
	require.Equal(t, 8, black.Territory, "score saw the fresh snapshot, not the cached one")
}

func TestScoreIgnoresResizedEngineSnapshot(t *testing.T) {
	board := NewBoard(3, 3)
	board.Set(0, 0, CellBlack)
	first := GameSnapshot{Board: board, Rules: TerritoryRules(0, 0)}
	resized := GameSnapshot{Board: NewBoard(9, 9), Rules: TerritoryRules(0, 0)}
	engine := &sequenceEngine{snapshots: []GameSnapshot{first, resized}}

	se, err := NewScoreEstimator(context.Background(), engine, EstimatorOptions{})
	require.NoError(t, err)
	<-se.Ready()

	var black PlayerScore
	require.NotPanics(t, func() {
		black, _ = se.Score().Scores()
	})
	require.Equal(t, 8, black.Territory, "scored on the geometry the review was opened with")
}

type sequenceEngine struct {
	snapshots []GameSnapshot
	calls     int
}

func (e *sequenceEngine) Snapshot() GameSnapshot {
	snapshot := e.snapshots[e.calls]
	if e.calls < len(e.snapshots)-1 {
		e.calls++
	}
	return snapshot.Clone()
}

func TestStoneRemovalStringIsDeterministicAndDecodable(t *testing.T) {
	board := boardFromRows(t, [][]int{
		{2, 0, 2, 0, 1},
	})
	snapshot := GameSnapshot{Board: board, Rules: TerritoryRules(6.5, 0)}
	se := newTestEstimator(t, snapshot, EstimatorOptions{Tolerance: 0.25})

	se.HandleClick(context.Background(), 0, 0, true)

	first := se.StoneRemovalString()
	second := se.StoneRemovalString()
	require.Equal(t, first, second, "byte-identical without intervening mutation")
	require.Equal(t, "aaca", first)

	coords, err := decodeCoordString(first)
	require.NoError(t, err)
	require.Equal(t, []Coord{{X: 0, Y: 0}, {X: 2, Y: 0}}, coords)
}

func TestProbablyDeadFlagsNeutralAndContradictedPoints(t *testing.T) {
	board := boardFromRows(t, [][]int{
		{1, 0, 2},
	})
	snapshot := GameSnapshot{Board: board, Rules: TerritoryRules(6.5, 0)}
	se := newTestEstimator(t, snapshot, EstimatorOptions{Tolerance: 0.25})

	ownership := NewOwnershipMap(3, 1)
	ownership.Set(0, 0, 1)   // black stone, read as black: alive
	ownership.Set(1, 0, 0.1) // within tolerance: dame
	ownership.Set(2, 0, 0.9) // white stone, read as black: dead
	se.mu.Lock()
	se.ownership = ownership
	se.hasEstimate = true
	se.mu.Unlock()

	require.Equal(t, "baca", se.ProbablyDead())
	require.Equal(t, se.ProbablyDead(), se.ProbablyDead())
}

func TestApplyEstimateDropsStaleGenerations(t *testing.T) {
	snapshot := GameSnapshot{Board: NewBoard(3, 3), Rules: AreaRules(0, 0)}
	se := newTestEstimator(t, snapshot, EstimatorOptions{})

	request := EstimateRequest{Board: se.workingBoard(), Rules: snapshot.Rules}
	newer := EstimateResult{Ownership: NewOwnershipMap(3, 3), Score: 42}
	older := EstimateResult{Ownership: NewOwnershipMap(3, 3), Score: 7}

	se.applyEstimate(10, request, newer)
	se.applyEstimate(5, request, older)

	summary, ok := se.Estimate()
	require.True(t, ok)
	require.Equal(t, 42.0, summary.Score, "the slow stale completion must not win")
}

func TestEstimateScoreSurfacesRemoteFailure(t *testing.T) {
	snapshot := GameSnapshot{Board: NewBoard(3, 3), Rules: AreaRules(7.5, 0)}
	options := EstimatorOptions{
		PreferRemote:    true,
		Remote:          NewRemoteEstimator("http://127.0.0.1:1", ""),
		RemoteMaxWidth:  19,
		RemoteMaxHeight: 19,
	}
	se, err := NewScoreEstimator(context.Background(), NewStaticEngine(snapshot), options)
	require.NoError(t, err)

	err = <-se.EstimateScore(context.Background())
	var remoteErr *RemoteServiceError
	require.ErrorAs(t, err, &remoteErr, "no silent local fallback after dispatching remote")

	_, ok := se.Estimate()
	require.False(t, ok, "failed refresh applies nothing")
	require.Equal(t, StateBuilding, se.State(), "no estimate ever applied, so not stuck estimating")
}

func TestFailedRefreshRestoresReadyState(t *testing.T) {
	snapshot := GameSnapshot{Board: NewBoard(3, 3), Rules: AreaRules(7.5, 0)}
	se := newTestEstimator(t, snapshot, EstimatorOptions{})
	require.Equal(t, StateReady, se.State())

	se.options.PreferRemote = true
	se.options.Remote = NewRemoteEstimator("http://127.0.0.1:1", "")
	se.options.RemoteMaxWidth = 19
	se.options.RemoteMaxHeight = 19

	err := <-se.EstimateScore(context.Background())
	require.Error(t, err)
	require.Equal(t, StateReady, se.State(), "the earlier estimate still stands")

	summary, ok := se.Estimate()
	require.True(t, ok)
	require.Equal(t, 9, summary.Ownership.Width()*summary.Ownership.Height())
}

func TestPickSourceFallsBackToLocal(t *testing.T) {
	remote := NewRemoteEstimator("http://example.invalid", "")
	se := &ScoreEstimator{
		local: NewLocalEstimator(),
		options: EstimatorOptions{
			PreferRemote:    true,
			Remote:          remote,
			RemoteMaxWidth:  9,
			RemoteMaxHeight: 9,
		},
	}

	require.Equal(t, OwnershipSource(remote), se.pickSource(NewBoard(9, 9)))
	require.Equal(t, OwnershipSource(se.local), se.pickSource(NewBoard(19, 19)),
		"oversized board runs locally")

	se.options.Remote = nil
	require.Equal(t, OwnershipSource(se.local), se.pickSource(NewBoard(9, 9)),
		"no registered endpoint runs locally")

	se.options.Remote = remote
	se.options.PreferRemote = false
	require.Equal(t, OwnershipSource(se.local), se.pickSource(NewBoard(9, 9)),
		"remote must be explicitly requested")
}

func TestHandleClickChainVersusDirect(t *testing.T) {
	board := boardFromRows(t, [][]int{
		{2, 0, 2},
	})
	snapshot := GameSnapshot{Board: board, Rules: TerritoryRules(6.5, 0)}

	chained := newTestEstimator(t, snapshot, EstimatorOptions{Tolerance: 0.25})
	chained.HandleClick(context.Background(), 0, 0, true)
	require.True(t, chained.Removed(0, 0))
	require.True(t, chained.Removed(2, 0))

	direct := newTestEstimator(t, snapshot, EstimatorOptions{Tolerance: 0.25})
	direct.HandleClick(context.Background(), 0, 0, false)
	require.True(t, direct.Removed(0, 0))
	require.False(t, direct.Removed(2, 0))
}
