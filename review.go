package main

import (
	"context"
	"errors"
	"sync"
)

var errNoReview = errors.New("no review in progress")

// ReviewController serializes all access to one scoring review session.
// The estimator itself supports a single logical owner; every HTTP handler
// and hub callback goes through here.
type ReviewController struct {
	mu        sync.Mutex
	estimator *ScoreEstimator
}

func NewReviewController() *ReviewController {
	return &ReviewController{}
}

// StartReview replaces any session in progress with a fresh estimator over
// the submitted position.
func (rc *ReviewController) StartReview(ctx context.Context, snapshot GameSnapshot, options EstimatorOptions) error {
	estimator, err := NewScoreEstimator(ctx, NewStaticEngine(snapshot), options)
	if err != nil {
		return err
	}
	rc.mu.Lock()
	rc.estimator = estimator
	rc.mu.Unlock()
	return nil
}

func (rc *ReviewController) HasReview() bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.estimator != nil
}

func (rc *ReviewController) Click(ctx context.Context, x, y int, chainMode bool) error {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.estimator == nil {
		return errNoReview
	}
	if !rc.estimator.snapshot.Board.InBounds(x, y) {
		return errors.New("coordinate out of bounds")
	}
	rc.estimator.HandleClick(ctx, x, y, chainMode)
	return nil
}

func (rc *ReviewController) SetRemoved(x, y int, removed bool) error {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.estimator == nil {
		return errNoReview
	}
	if !rc.estimator.snapshot.Board.InBounds(x, y) {
		return errors.New("coordinate out of bounds")
	}
	rc.estimator.SetRemoved(x, y, removed)
	return nil
}

func (rc *ReviewController) Estimate() (EstimateSummary, EstimatorState, error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.estimator == nil {
		return EstimateSummary{}, StateBuilding, errNoReview
	}
	summary, ok := rc.estimator.Estimate()
	state := rc.estimator.State()
	if !ok {
		return EstimateSummary{}, state, nil
	}
	return summary, state, nil
}

func (rc *ReviewController) ReEstimate(ctx context.Context) (<-chan error, error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.estimator == nil {
		return nil, errNoReview
	}
	return rc.estimator.EstimateScore(ctx), nil
}

func (rc *ReviewController) Score() (black, white PlayerScore, board Board, err error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.estimator == nil {
		return PlayerScore{}, PlayerScore{}, Board{}, errNoReview
	}
	rc.estimator.Score()
	black, white = rc.estimator.Scores()
	return black, white, rc.estimator.ScoredBoard(), nil
}

func (rc *ReviewController) ProbablyDead() (string, error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.estimator == nil {
		return "", errNoReview
	}
	return rc.estimator.ProbablyDead(), nil
}

func (rc *ReviewController) StoneRemovalString() (string, error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.estimator == nil {
		return "", errNoReview
	}
	return rc.estimator.StoneRemovalString(), nil
}

func (rc *ReviewController) Ready() (<-chan struct{}, error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.estimator == nil {
		return nil, errNoReview
	}
	return rc.estimator.Ready(), nil
}
