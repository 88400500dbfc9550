// Package httpapi exposes the scoring service: a JSON endpoint that
// maps feature rows to class-name predictions, a health probe, and a
// websocket variant of the scoring endpoint.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/your-org/diabetes-classifier/internal/model"
	"github.com/your-org/diabetes-classifier/internal/scorecache"
	"github.com/your-org/diabetes-classifier/pkg/logger"
)

// ClassNames maps a predicted label index to its human-readable class.
var ClassNames = []string{"not-diabetic", "diabetic"}

// ScoreRequest is the body of a scoring call. Each row in Data holds
// one observation's feature values, in training column order.
type ScoreRequest struct {
	Data [][]float64 `json:"data"`
}

// ScoreResponse carries one class name per input row.
type ScoreResponse struct {
	Predictions []string `json:"predictions"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Handler serves scoring requests against a loaded model artifact.
type Handler struct {
	artifact *model.Artifact
	clf      model.Classifier
	cache    scorecache.Cache
}

// NewHandler builds a Handler. cache may be nil to disable caching.
func NewHandler(artifact *model.Artifact, cache scorecache.Cache) (*Handler, error) {
	clf, err := artifact.Classifier()
	if err != nil {
		return nil, fmt.Errorf("failed to prepare classifier: %w", err)
	}
	return &Handler{artifact: artifact, clf: clf, cache: cache}, nil
}

// Router wires the handler's endpoints onto a chi router.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", h.handleHealth)
	r.Post("/score", h.handleScore)
	r.Get("/ws", h.handleWS)
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "OK")
}

func (h *Handler) handleScore(w http.ResponseWriter, r *http.Request) {
	var req ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body"})
		return
	}
	predictions, err := h.score(r.Context(), req.Data)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, ScoreResponse{Predictions: predictions})
}

// score validates the rows, runs inference and returns class names.
// Results are served from and written back to the cache when one is
// configured.
func (h *Handler) score(ctx context.Context, rows [][]float64) ([]string, error) {
	if err := h.validate(rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return []string{}, nil
	}

	var key string
	if h.cache != nil {
		key = scorecache.Key(rows)
		cached, err := h.cache.Get(ctx, key)
		if err == nil {
			logger.Debugf("Served %d predictions from cache", len(cached))
			return cached, nil
		}
		if !errors.Is(err, scorecache.ErrCacheMiss) {
			logger.Warnf("Cache read failed: %v", err)
		}
	}

	logger.Infof("Data: %v", rows)
	labels := h.clf.Predict(rows)
	predictions := make([]string, len(labels))
	for i, lbl := range labels {
		predictions[i] = ClassNames[lbl]
	}
	logger.Infof("Predictions: %v", predictions)

	if h.cache != nil {
		if err := h.cache.Set(ctx, key, predictions); err != nil {
			logger.Warnf("Cache write failed: %v", err)
		}
	}
	return predictions, nil
}

func (h *Handler) validate(rows [][]float64) error {
	want := h.artifact.NumFeatures()
	for i, row := range rows {
		if len(row) != want {
			return fmt.Errorf("row %d has %d values, expected %d", i, len(row), want)
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf("Failed to write response: %v", err)
	}
}
