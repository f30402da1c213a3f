package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// The remote scorer prices every board against one fixed komi; correctScore
// shifts its result onto the komi actually in effect.
const remoteReferenceKomi = 7.5

const defaultRemoteTimeout = 15 * time.Second

type remoteScoreRequest struct {
	PlayerToMove   string  `json:"player_to_move"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	BoardState     [][]int `json:"board_state"`
	Rules          RuleSet `json:"rules"`
	BlackPrisoners int     `json:"black_prisoners"`
	WhitePrisoners int     `json:"white_prisoners"`
	Komi           float64 `json:"komi"`
	AuthToken      string  `json:"auth_token,omitempty"`
}

type remoteScoreResponse struct {
	Ownership [][]float64 `json:"ownership"`
	Score     *float64    `json:"score,omitempty"`
	WinRate   *float64    `json:"win_rate,omitempty"`
}

// RemoteEstimator posts board snapshots to a networked scorer. A failed
// call rejects the pending estimate with the underlying error; the caller
// decides whether to retry. There is no silent local fallback once a
// remote call has been dispatched.
type RemoteEstimator struct {
	url       string
	authToken string
	client    *http.Client
}

func NewRemoteEstimator(url, authToken string) *RemoteEstimator {
	return &RemoteEstimator{
		url:       url,
		authToken: authToken,
		client:    &http.Client{Timeout: defaultRemoteTimeout},
	}
}

func (e *RemoteEstimator) Estimate(ctx context.Context, req EstimateRequest) (EstimateResult, error) {
	if e.url == "" {
		return EstimateResult{}, ErrNoRemoteEndpoint
	}

	payload := remoteScoreRequest{
		PlayerToMove:   remotePlayerName(req.PlayerToMove),
		Width:          req.Board.Width(),
		Height:         req.Board.Height(),
		BoardState:     remoteBoardState(req.Board),
		Rules:          req.Rules,
		BlackPrisoners: req.BlackPrisoners,
		WhitePrisoners: req.WhitePrisoners,
		Komi:           req.Rules.Komi,
		AuthToken:      e.authToken,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return EstimateResult{}, &RemoteServiceError{URL: e.url, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, bytes.NewReader(body))
	if err != nil {
		return EstimateResult{}, &RemoteServiceError{URL: e.url, Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return EstimateResult{}, &RemoteServiceError{URL: e.url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return EstimateResult{}, &RemoteServiceError{URL: e.url, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var decoded remoteScoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return EstimateResult{}, &RemoteServiceError{URL: e.url, Err: err}
	}
	ownership, err := ownershipFromRows(decoded.Ownership, req.Board.Width(), req.Board.Height())
	if err != nil {
		return EstimateResult{}, &RemoteServiceError{URL: e.url, Err: err}
	}

	result := EstimateResult{Ownership: ownership}
	if decoded.Score != nil {
		result.Score = e.correctScore(*decoded.Score, req)
	} else {
		result.Score = scoreFromOwnership(ownership, req.Tolerance, req.Rules.Komi)
	}
	if decoded.WinRate != nil {
		result.WinRate = *decoded.WinRate
		result.HasWinRate = true
	}
	log.Debug().Msgf("remote estimate from %s: score %.1f", e.url, result.Score)
	return result, nil
}

// correctScore shifts the service's fixed-reference-komi score onto the
// actual komi and folds in the capture differential under prisoner
// scoring. Handicap compensation is left to the score adjuster.
func (e *RemoteEstimator) correctScore(raw float64, req EstimateRequest) float64 {
	score := raw + (remoteReferenceKomi - req.Rules.Komi)
	if req.Rules.ScorePrisoners {
		score += float64(req.BlackPrisoners - req.WhitePrisoners)
	}
	return score
}

// remoteBoardState encodes the board in the scorer's wire convention:
// 1 for Black, -1 for White, 0 for empty. Removed stones were already
// substituted with empty cells upstream.
func remoteBoardState(board Board) [][]int {
	rows := make([][]int, board.Height())
	for y := 0; y < board.Height(); y++ {
		rows[y] = make([]int, board.Width())
		for x := 0; x < board.Width(); x++ {
			switch board.At(x, y) {
			case CellBlack:
				rows[y][x] = 1
			case CellWhite:
				rows[y][x] = -1
			}
		}
	}
	return rows
}

func remotePlayerName(cell Cell) string {
	if cell == CellWhite {
		return "white"
	}
	return "black"
}

func ownershipFromRows(rows [][]float64, width, height int) (OwnershipMap, error) {
	if len(rows) != height {
		return OwnershipMap{}, fmt.Errorf("ownership has %d rows, want %d", len(rows), height)
	}
	ownership := NewOwnershipMap(width, height)
	for y, row := range rows {
		if len(row) != width {
			return OwnershipMap{}, fmt.Errorf("ownership row %d has %d cells, want %d", y, len(row), width)
		}
		for x, value := range row {
			ownership.Set(x, y, value)
		}
	}
	return ownership, nil
}

func scoreFromOwnership(ownership OwnershipMap, tolerance, komi float64) float64 {
	score := -komi
	for y := 0; y < ownership.Height(); y++ {
		for x := 0; x < ownership.Width(); x++ {
			score += float64(signWithin(ownership.At(x, y), tolerance))
		}
	}
	return score
}
