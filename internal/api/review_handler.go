// Package api provides HTTP handlers for the scheduling engine.
package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/aslema/aslema-api/internal/api/shared"
	"github.com/aslema/aslema-api/internal/platform/logger"
	"github.com/aslema/aslema-api/internal/service/review"
)

// ReviewHandler handles review-related HTTP requests.
type ReviewHandler struct {
	reviewService review.ReviewService
	logger        *slog.Logger
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviewService review.ReviewService, logger *slog.Logger) *ReviewHandler {
	if reviewService == nil {
		panic("reviewService cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ReviewHandler{
		reviewService: reviewService,
		logger:        logger.With(slog.String("component", "review_handler")),
	}
}

// StartLearningRequest is the body for POST /reviews/start.
type StartLearningRequest struct {
	ItemIDs []int64 `json:"item_ids" validate:"required,min=1,dive,gt=0"`
}

// StartLearningResponse reports how many reviews were actually created.
type StartLearningResponse struct {
	Created int64 `json:"created"`
}

// StartLearning handles POST /reviews/start. Items the user already started
// are skipped; the created count covers only new reviews.
func (h *ReviewHandler) StartLearning(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID := shared.UserID(r.Context())

	var req StartLearningRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "item_ids must be a non-empty list of positive IDs")
		return
	}

	created, err := h.reviewService.StartLearning(r.Context(), userID, req.ItemIDs)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("started learning items",
		slog.String("user_id", userID),
		slog.Int64("created", created))
	shared.RespondWithJSON(w, r, http.StatusCreated, StartLearningResponse{Created: created})
}

// SubmitAnswerRequest is the body for POST /reviews/{id}/answer.
// Quality is a pointer so a literal 0 survives the required check.
type SubmitAnswerRequest struct {
	Quality        *int    `json:"quality"          validate:"required,min=0,max=5"`
	ResponseTimeMs *int    `json:"response_time_ms" validate:"omitempty,min=0"`
	UserAnswer     *string `json:"user_answer"      validate:"omitempty,max=1024"`
}

// SubmitAnswer handles POST /reviews/{id}/answer.
func (h *ReviewHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID := shared.UserID(r.Context())

	reviewID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || reviewID <= 0 {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid review ID")
		return
	}

	var req SubmitAnswerRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "quality must be between 0 and 5")
		return
	}

	result, err := h.reviewService.SubmitAnswer(r.Context(), userID, reviewID, review.Answer{
		Quality:        *req.Quality,
		ResponseTimeMs: req.ResponseTimeMs,
		UserAnswer:     req.UserAnswer,
	})
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("answer processed",
		slog.String("user_id", userID),
		slog.Int64("review_id", reviewID),
		slog.Int("quality", *req.Quality))
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// DueReviews handles GET /reviews/due.
func (h *ReviewHandler) DueReviews(w http.ResponseWriter, r *http.Request) {
	userID := shared.UserID(r.Context())

	limit := queryInt(r, "limit", 0)
	locale := r.URL.Query().Get("locale")

	items, err := h.reviewService.DueReviews(r.Context(), userID, locale, limit)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, items)
}

// TodaySession handles GET /reviews/today.
func (h *ReviewHandler) TodaySession(w http.ResponseWriter, r *http.Request) {
	userID := shared.UserID(r.Context())

	opts := review.SessionOptions{
		NewLimit: queryInt(r, "new_limit", 0),
		DueLimit: queryInt(r, "due_limit", 0),
		Locale:   r.URL.Query().Get("locale"),
	}

	session, err := h.reviewService.TodaySession(r.Context(), userID, opts)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, session)
}

// Stats handles GET /reviews/stats.
func (h *ReviewHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID := shared.UserID(r.Context())

	report, err := h.reviewService.Stats(r.Context(), userID, queryInt(r, "daily_new_limit", 0))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, report)
}

// SimulateDaysRequest is the body for POST /reviews/dev/simulate-days.
type SimulateDaysRequest struct {
	Days int `json:"days" validate:"required,min=1,max=365"`
}

// SimulateDays handles POST /reviews/dev/simulate-days. Only mounted in
// development environments.
func (h *ReviewHandler) SimulateDays(w http.ResponseWriter, r *http.Request) {
	userID := shared.UserID(r.Context())

	var req SimulateDaysRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "days must be between 1 and 365")
		return
	}

	if err := h.reviewService.SimulateDays(r.Context(), userID, req.Days); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, map[string]int{"days": req.Days})
}

// Reset handles POST /reviews/dev/reset. Only mounted in development
// environments.
func (h *ReviewHandler) Reset(w http.ResponseWriter, r *http.Request) {
	userID := shared.UserID(r.Context())

	if err := h.reviewService.Reset(r.Context(), userID); err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// queryInt parses an optional integer query parameter, falling back to def
// on absence or garbage.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return value
}
