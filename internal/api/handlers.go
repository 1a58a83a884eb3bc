// Package api exposes HTTP handlers for activities and recommendations.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"example.com/fittrack/internal/auth"
	"example.com/fittrack/internal/domain"
	"example.com/fittrack/internal/events"
	"example.com/fittrack/internal/identity"
)

// FactPublisher announces stored activities, best-effort.
type FactPublisher interface {
	Publish(ctx context.Context, fact events.ActivityRecorded)
}

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service   *domain.Service
	publisher FactPublisher
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service, publisher FactPublisher) *Handler {
	return &Handler{service: service, publisher: publisher}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/activities", h.activities)
	mux.HandleFunc("/v1/activities/", h.activityByID)
	mux.HandleFunc("/v1/recommendations", h.listRecommendations)
	mux.HandleFunc("/v1/recommendations/", h.recommendationByActivity)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) activities(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.recordActivity(w, r)
	case http.MethodGet:
		h.listActivities(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) activityByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/activities/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing activity id")
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	h.getActivity(w, r, id)
}

func (h *Handler) recordActivity(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeActivitiesWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope activities:write required")
		return
	}

	var req RecordActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	// The gateway's reconciliation filter stamps the resolved user id.
	userID := r.Header.Get(identity.HeaderUserID)
	if userID == "" {
		userID = claims.Subject
	}

	activity, err := h.service.RecordActivity(r.Context(), domain.RecordActivityInput{
		UserID:      userID,
		Kind:        req.Kind,
		DurationMin: req.DurationMin,
		Calories:    req.Calories,
		StartedAt:   req.StartedAt,
		Metrics:     req.Metrics,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	// Best-effort announce: a broker outage must not change the response,
	// and a client disconnect must not drop the fact. The publisher
	// applies its own timeout.
	h.publisher.Publish(context.WithoutCancel(r.Context()), events.ActivityRecorded{
		ActivityID:  activity.ID,
		UserID:      activity.UserID,
		Kind:        string(activity.Kind),
		DurationMin: activity.DurationMin,
		Calories:    activity.Calories,
		StartedAt:   activity.StartedAt,
		Metrics:     activity.Metrics,
		Version:     "v1",
	})

	writeJSON(w, http.StatusAccepted, toActivityView(*activity))
}

func (h *Handler) getActivity(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeActivitiesRead) && !claims.HasScope(auth.ScopeActivitiesWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope activities:read required")
		return
	}

	activity, err := h.service.GetActivity(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrActivityNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "activity not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toActivityView(*activity))
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeActivitiesRead) && !claims.HasScope(auth.ScopeActivitiesWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope activities:read required")
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "missing user_id parameter")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	activities, err := h.service.ListActivitiesByUser(r.Context(), userID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	items := make([]ActivityView, 0, len(activities))
	for _, activity := range activities {
		items = append(items, toActivityView(activity))
	}
	writeJSON(w, http.StatusOK, ListActivitiesResponse{Items: items})
}

func (h *Handler) recommendationByActivity(w http.ResponseWriter, r *http.Request) {
	activityID := strings.TrimPrefix(r.URL.Path, "/v1/recommendations/")
	if activityID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing activity id")
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeRecommendationsRead) {
		writeError(w, http.StatusForbidden, "forbidden", "scope recommendations:read required")
		return
	}

	rec, err := h.service.GetRecommendation(r.Context(), activityID)
	if err != nil {
		if errors.Is(err, domain.ErrRecommendationNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "recommendation not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toRecommendationView(*rec))
}

func (h *Handler) listRecommendations(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeRecommendationsRead) {
		writeError(w, http.StatusForbidden, "forbidden", "scope recommendations:read required")
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "validation_failed", "missing user_id parameter")
		return
	}

	recs, err := h.service.ListRecommendationsByUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	items := make([]RecommendationView, 0, len(recs))
	for _, rec := range recs {
		items = append(items, toRecommendationView(rec))
	}
	writeJSON(w, http.StatusOK, ListRecommendationsResponse{Items: items})
}

// RecordActivityRequest is the payload for POST /v1/activities.
type RecordActivityRequest struct {
	Kind        string             `json:"kind"`
	DurationMin int                `json:"duration_min"`
	Calories    int                `json:"calories"`
	StartedAt   time.Time          `json:"started_at"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
}

// Validate ensures request correctness.
func (r RecordActivityRequest) Validate() error {
	if strings.TrimSpace(r.Kind) == "" {
		return errors.New("kind is required")
	}
	if r.DurationMin <= 0 {
		return errors.New("duration_min must be > 0")
	}
	if r.Calories < 0 {
		return errors.New("calories must be >= 0")
	}
	if r.StartedAt.IsZero() {
		return errors.New("started_at is required")
	}
	return nil
}

// ActivityView exposes full details about an activity.
type ActivityView struct {
	ActivityID  string             `json:"activity_id"`
	UserID      string             `json:"user_id"`
	Kind        string             `json:"kind"`
	DurationMin int                `json:"duration_min"`
	Calories    int                `json:"calories"`
	StartedAt   time.Time          `json:"started_at"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// ListActivitiesResponse packages list results.
type ListActivitiesResponse struct {
	Items []ActivityView `json:"items"`
}

// RecommendationView exposes a stored recommendation.
type RecommendationView struct {
	ActivityID   string    `json:"activity_id"`
	UserID       string    `json:"user_id"`
	Kind         string    `json:"kind"`
	Analysis     string    `json:"analysis"`
	Improvements []string  `json:"improvements"`
	Suggestions  []string  `json:"suggestions"`
	Safety       []string  `json:"safety"`
	CreatedAt    time.Time `json:"created_at"`
}

// ListRecommendationsResponse packages list results.
type ListRecommendationsResponse struct {
	Items []RecommendationView `json:"items"`
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toActivityView(activity domain.Activity) ActivityView {
	return ActivityView{
		ActivityID:  activity.ID,
		UserID:      activity.UserID,
		Kind:        string(activity.Kind),
		DurationMin: activity.DurationMin,
		Calories:    activity.Calories,
		StartedAt:   activity.StartedAt,
		Metrics:     activity.Metrics,
		CreatedAt:   activity.CreatedAt,
		UpdatedAt:   activity.UpdatedAt,
	}
}

func toRecommendationView(rec domain.Recommendation) RecommendationView {
	view := RecommendationView{
		ActivityID:   rec.ActivityID,
		UserID:       rec.UserID,
		Kind:         string(rec.Kind),
		Analysis:     rec.Analysis,
		Improvements: rec.Improvements,
		Suggestions:  rec.Suggestions,
		Safety:       rec.Safety,
		CreatedAt:    rec.CreatedAt,
	}
	if view.Improvements == nil {
		view.Improvements = []string{}
	}
	if view.Suggestions == nil {
		view.Suggestions = []string{}
	}
	if view.Safety == nil {
		view.Safety = []string{}
	}
	return view
}
