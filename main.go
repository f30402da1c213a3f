package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type statusResponse struct {
	HasReview bool   `json:"has_review"`
	State     string `json:"state"`
	Config    Config `json:"config"`
}

type reviewRequest struct {
	Board          [][]int `json:"board"`
	Rules          RuleSet `json:"rules"`
	PlayerToMove   int     `json:"player_to_move"`
	BlackPrisoners int     `json:"black_prisoners"`
	WhitePrisoners int     `json:"white_prisoners"`
}

type clickRequest struct {
	X     int  `json:"x"`
	Y     int  `json:"y"`
	Chain bool `json:"chain"`
}

type removedRequest struct {
	X       int  `json:"x"`
	Y       int  `json:"y"`
	Removed bool `json:"removed"`
}

type scoreResponse struct {
	Black PlayerScore `json:"black"`
	White PlayerScore `json:"white"`
	Board [][]int     `json:"board"`
}

type estimateResponse struct {
	State     string      `json:"state"`
	Score     float64     `json:"score"`
	WinRate   float64     `json:"win_rate,omitempty"`
	Ownership [][]float64 `json:"ownership,omitempty"`
	Display   [][]float64 `json:"display,omitempty"`
}

func snapshotFromRequest(payload reviewRequest) (GameSnapshot, error) {
	board, err := BoardFromInts(payload.Board)
	if err != nil {
		return GameSnapshot{}, &MalformedInputError{Reason: err.Error()}
	}
	snapshot := GameSnapshot{
		Board:          board,
		Rules:          payload.Rules,
		PlayerToMove:   intToCell(payload.PlayerToMove),
		BlackPrisoners: payload.BlackPrisoners,
		WhitePrisoners: payload.WhitePrisoners,
	}
	if snapshot.PlayerToMove == CellEmpty {
		snapshot.PlayerToMove = CellBlack
	}
	return snapshot, validateSnapshot(snapshot)
}

func main() {
	config := GetConfig()
	if level, err := zerolog.ParseLevel(config.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	controller := NewReviewController()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go hub.Run(ctx.Done())

	publishEstimate := func() {
		summary, state, err := controller.Estimate()
		if err != nil {
			return
		}
		hub.PublishEstimate(estimatePayloadFrom(summary, state))
	}
	publishRemoval := func(x, y int, removed bool) {
		hub.PublishRemoval(removalPayload{X: x, Y: y, Removed: removed})
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	r.Get("/api/status", func(w http.ResponseWriter, r *http.Request) {
		state := StateBuilding
		if _, reviewState, err := controller.Estimate(); err == nil {
			state = reviewState
		}
		writeJSON(w, http.StatusOK, statusResponse{
			HasReview: controller.HasReview(),
			State:     state.String(),
			Config:    GetConfig(),
		})
	})

	r.Post("/api/review", func(w http.ResponseWriter, r *http.Request) {
		var payload reviewRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		snapshot, err := snapshotFromRequest(payload)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		options := estimatorOptionsFromConfig(GetConfig(), publishEstimate, publishRemoval)
		if err := controller.StartReview(ctx, snapshot, options); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		log.Info().Msgf("review started: %dx%d board, komi %.1f",
			snapshot.Board.Width(), snapshot.Board.Height(), snapshot.Rules.Komi)
		writeJSON(w, http.StatusOK, map[string]bool{"started": true})
	})

	r.Post("/api/click", func(w http.ResponseWriter, r *http.Request) {
		var payload clickRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		if err := controller.Click(ctx, payload.X, payload.Y, payload.Chain); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	r.Post("/api/removed", func(w http.ResponseWriter, r *http.Request) {
		var payload removedRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		if err := controller.SetRemoved(payload.X, payload.Y, payload.Removed); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	r.Post("/api/estimate", func(w http.ResponseWriter, r *http.Request) {
		errCh, err := controller.ReEstimate(ctx)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		if err := <-errCh; err != nil {
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
			return
		}
		summary, state, _ := controller.Estimate()
		writeJSON(w, http.StatusOK, estimateResponseFrom(summary, state))
	})

	r.Get("/api/estimate", func(w http.ResponseWriter, r *http.Request) {
		summary, state, err := controller.Estimate()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		if summary.Ownership.Width() == 0 {
			writeJSON(w, http.StatusAccepted, map[string]string{"state": state.String()})
			return
		}
		writeJSON(w, http.StatusOK, estimateResponseFrom(summary, state))
	})

	r.Get("/api/score", func(w http.ResponseWriter, r *http.Request) {
		black, white, board, err := controller.Score()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, scoreResponse{
			Black: black,
			White: white,
			Board: boardToSlice(board),
		})
	})

	r.Get("/api/dead", func(w http.ResponseWriter, r *http.Request) {
		dead, err := controller.ProbablyDead()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"dead": dead})
	})

	r.Get("/api/removal", func(w http.ResponseWriter, r *http.Request) {
		removal, err := controller.StoneRemovalString()
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"removal": removal})
	})

	r.Post("/api/settings", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Config *Config `json:"config"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
		if payload.Config != nil {
			configStore.Update(*payload.Config)
		}
		writeJSON(w, http.StatusOK, GetConfig())
	})

	r.Get("/ws/", func(w http.ResponseWriter, r *http.Request) {
		serveWS(hub, controller, w, r)
	})

	server := &http.Server{
		Addr:    config.ListenAddr,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
		close(serverErrCh)
	}()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	log.Info().Msgf("score review service listening on %s", config.ListenAddr)
	select {
	case <-sigCtx.Done():
		log.Info().Msg("shutdown signal received")
	case err, ok := <-serverErrCh:
		if ok {
			log.Error().Msgf("server error: %v", err)
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Warn().Msgf("graceful shutdown failed: %v", err)
		if closeErr := server.Close(); closeErr != nil && !errors.Is(closeErr, http.ErrServerClosed) {
			log.Warn().Msgf("forced close failed: %v", closeErr)
		}
	}
	cancel()
}

func estimateResponseFrom(summary EstimateSummary, state EstimatorState) estimateResponse {
	response := estimateResponse{State: state.String()}
	if summary.Ownership.Width() == 0 {
		return response
	}
	response.Score = summary.Score
	response.WinRate = summary.WinRate
	response.Ownership = summary.Ownership.Rows()
	response.Display = summary.Display.Rows()
	return response
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
