// internal/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"commit-insights/internal/analytics"
	"commit-insights/internal/cache"
	"commit-insights/internal/classification"
	"commit-insights/internal/database"
	custom_errors "commit-insights/internal/errors"
	"commit-insights/internal/model"
	"commit-insights/internal/syncer"
)

// Quota level under which the rate-limit endpoint adds a warning.
const rateLimitWarningThreshold = 500

type Credentials interface {
	GetGithubToken(ctx context.Context, userID string) (string, error)
	UpsertGithubAccount(ctx context.Context, arg database.UpsertGithubAccountParams) error
}

type RateLimitChecker interface {
	CheckRateLimit(ctx context.Context, token string) *model.RateLimit
}

type Syncer interface {
	SyncUserData(ctx context.Context, token, userID string, days int) (syncer.Result, error)
}

type Classifier interface {
	ClassifyUnclassified(ctx context.Context, userID string) (classification.Outcome, error)
	ReclassifyAll(ctx context.Context, userID string) (classification.ReclassifyOutcome, error)
	Stats(ctx context.Context, userID string) (map[model.CommitType]int, error)
	CommitsByType(ctx context.Context, userID string, t model.CommitType, limit int) ([]database.Commit, error)
}

type Analytics interface {
	Overview(ctx context.Context, userID string) (*analytics.Overview, error)
}

type Cache interface {
	Get(key string) (any, bool)
	Generation(userID string) uint64
	SetIfGeneration(userID, name string, gen uint64, value any, ttl time.Duration) bool
	Flush() int
	Stats() cache.Stats
}

// Services are the collaborators the HTTP surface delegates to.
type Services struct {
	Credentials Credentials
	GitHub      RateLimitChecker
	Syncer      Syncer
	Classifier  Classifier
	Analytics   Analytics
	Cache       Cache
	SyncDays    int
}

// Handler is the container for API dependencies.
type Handler struct {
	Services
	logger *slog.Logger
}

// NewRouter creates and configures a new chi router with all API routes.
func NewRouter(svc Services, logger *slog.Logger) http.Handler {
	h := &Handler{
		Services: svc,
		logger:   logger,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", h.healthCheck)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/cache/stats", h.getCacheStats)
		r.Delete("/cache", h.flushCache)
		r.Route("/users/{userID}", func(r chi.Router) {
			r.Put("/github-token", h.putGithubToken)
			r.Post("/sync", h.syncUser)
			r.Get("/rate-limit", h.getRateLimit)
			r.Post("/classify", h.classify)
			r.Post("/reclassify", h.reclassify)
			r.Get("/classification/stats", h.getClassificationStats)
			r.Get("/commits", h.getCommits)
			r.Get("/analytics/overview", h.getAnalyticsOverview)
		})
	})

	return r
}

// healthCheck is a simple health endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /v1/cache/stats
func (h *Handler) getCacheStats(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, h.Cache.Stats())
}

// DELETE /v1/cache
func (h *Handler) flushCache(w http.ResponseWriter, r *http.Request) {
	n := h.Cache.Flush()
	h.logger.Info("Flushed result cache", "entries", n)
	respondWithJSON(w, http.StatusOK, map[string]int{"removed": n})
}

type githubTokenRequest struct {
	AccessToken string `json:"accessToken"`
}

// putGithubToken stores the GitHub OAuth token of a user.
// PUT /v1/users/{userID}/github-token
func (h *Handler) putGithubToken(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req githubTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AccessToken == "" {
		respondWithError(w, http.StatusBadRequest, "Request body must contain a non-empty 'accessToken'.")
		return
	}

	err := h.Credentials.UpsertGithubAccount(r.Context(), database.UpsertGithubAccountParams{
		UserID:      userID,
		AccessToken: req.AccessToken,
	})
	if err != nil {
		h.logger.Error("Failed to store github token", "user_id", userID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusNoContent, nil)
}

// syncUser pulls the user's recent commits from GitHub.
// POST /v1/users/{userID}/sync?days=N
func (h *Handler) syncUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	days := h.SyncDays
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 365 {
			respondWithError(w, http.StatusBadRequest, "Invalid 'days' parameter. Must be an integer between 1 and 365.")
			return
		}
		days = n
	}

	token, ok := h.lookupToken(w, r, userID)
	if !ok {
		return
	}

	result, err := h.Syncer.SyncUserData(r.Context(), token, userID, days)
	if err != nil {
		var rlErr *custom_errors.ErrRateLimitExceeded
		if errors.As(err, &rlErr) {
			respondWithJSON(w, http.StatusTooManyRequests, errorResponse{
				Error:   "GitHub rate limit too low, try again later",
				Code:    codeRateLimitExceeded,
				Details: map[string]any{"remaining": rlErr.Remaining, "resetAt": rlErr.ResetAt},
			})
			return
		}
		h.logger.Error("Sync failed", "user_id", userID, "error", err)
		respondWithError(w, http.StatusBadGateway, "Failed to sync GitHub data")
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

type rateLimitResponse struct {
	RateLimit *model.RateLimit `json:"rateLimit"`
	Warning   string           `json:"warning,omitempty"`
}

// GET /v1/users/{userID}/rate-limit
func (h *Handler) getRateLimit(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	token, ok := h.lookupToken(w, r, userID)
	if !ok {
		return
	}

	rl := h.GitHub.CheckRateLimit(r.Context(), token)
	if rl == nil {
		respondWithError(w, http.StatusBadGateway, "Failed to fetch rate limit")
		return
	}

	resp := rateLimitResponse{RateLimit: rl}
	if rl.Remaining < rateLimitWarningThreshold {
		resp.Warning = "Rate limit is running low"
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// POST /v1/users/{userID}/classify
func (h *Handler) classify(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	out, err := h.Classifier.ClassifyUnclassified(r.Context(), userID)
	if err != nil {
		h.logger.Error("Classification failed", "user_id", userID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, out)
}

// POST /v1/users/{userID}/reclassify
func (h *Handler) reclassify(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	out, err := h.Classifier.ReclassifyAll(r.Context(), userID)
	if err != nil {
		h.logger.Error("Reclassification failed", "user_id", userID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, out)
}

// GET /v1/users/{userID}/classification/stats
func (h *Handler) getClassificationStats(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	key := cache.UserKey(userID, cache.KeyClassificationStats)

	gen := h.Cache.Generation(userID)
	if v, ok := h.Cache.Get(key); ok {
		respondWithJSON(w, http.StatusOK, v)
		return
	}

	stats, err := h.Classifier.Stats(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to get classification stats", "user_id", userID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.storeResult(userID, cache.KeyClassificationStats, gen, stats)
	respondWithJSON(w, http.StatusOK, stats)
}

// getCommits lists commits of one classification.
// GET /v1/users/{userID}/commits?type=docs&limit=N
func (h *Handler) getCommits(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	t := model.CommitType(r.URL.Query().Get("type"))
	if !t.Valid() {
		respondWithError(w, http.StatusBadRequest, "Invalid 'type' parameter. Must be one of frontend, backend, docs, config, test, other.")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 100 {
			respondWithError(w, http.StatusBadRequest, "Invalid 'limit' parameter. Must be an integer between 1 and 100.")
			return
		}
		limit = n
	}

	commits, err := h.Classifier.CommitsByType(r.Context(), userID, t, limit)
	if err != nil {
		h.logger.Error("Failed to get commits", "user_id", userID, "type", t, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, commits)
}

type overviewResponse struct {
	Data   *analytics.Overview `json:"data"`
	Cached bool                `json:"cached"`
}

// GET /v1/users/{userID}/analytics/overview
func (h *Handler) getAnalyticsOverview(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	key := cache.UserKey(userID, cache.KeyAnalyticsOverview)

	gen := h.Cache.Generation(userID)
	if v, ok := h.Cache.Get(key); ok {
		if o, ok := v.(*analytics.Overview); ok {
			respondWithJSON(w, http.StatusOK, overviewResponse{Data: o, Cached: true})
			return
		}
	}

	o, err := h.Analytics.Overview(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to compute analytics overview", "user_id", userID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	h.storeResult(userID, cache.KeyAnalyticsOverview, gen, o)
	respondWithJSON(w, http.StatusOK, overviewResponse{Data: o})
}

// storeResult caches a computed read unless the user was invalidated while it ran.
func (h *Handler) storeResult(userID, name string, gen uint64, value any) {
	if !h.Cache.SetIfGeneration(userID, name, gen, value, 0) {
		h.logger.Debug("Discarded result computed before invalidation", "user_id", userID, "key", name)
	}
}

// lookupToken fetches the user's GitHub token, writing the error response when there is none.
func (h *Handler) lookupToken(w http.ResponseWriter, r *http.Request, userID string) (string, bool) {
	token, err := h.Credentials.GetGithubToken(r.Context(), userID)
	if err == nil {
		return token, true
	}
	if errors.Is(err, custom_errors.ErrNoGithubToken) {
		respondWithError(w, http.StatusBadRequest, "No GitHub token found. Please connect your GitHub account.")
		return "", false
	}
	h.logger.Error("Failed to look up github token", "user_id", userID, "error", err)
	respondWithError(w, http.StatusInternalServerError, "Internal server error")
	return "", false
}
