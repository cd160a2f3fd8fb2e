package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	appNotification "github.com/rental-hub/rental-hub/internal/application/notification"
	appQuote "github.com/rental-hub/rental-hub/internal/application/quote"
	domainNotification "github.com/rental-hub/rental-hub/internal/domain/notification"
	domainQuote "github.com/rental-hub/rental-hub/internal/domain/quote"
	"github.com/rental-hub/rental-hub/internal/infrastructure/watch"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	quoteSvc        *appQuote.Service
	notificationSvc *appNotification.Service
	retryProcessor  *appNotification.RetryProcessor
	watchHub        *watch.Hub
	drainBatchSize  int
}

func NewServer(
	quoteSvc *appQuote.Service,
	notificationSvc *appNotification.Service,
	retryProcessor *appNotification.RetryProcessor,
	watchHub *watch.Hub,
	drainBatchSize int,
) *Server {
	return &Server{
		quoteSvc:        quoteSvc,
		notificationSvc: notificationSvc,
		retryProcessor:  retryProcessor,
		watchHub:        watchHub,
		drainBatchSize:  drainBatchSize,
	}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/quotes", func(r chi.Router) {
			r.Post("/", s.createQuote)
			r.Get("/", s.listQuotes)
			// registered before {quoteId} so chi does not treat
			// "subscribe" as an id
			r.Get("/subscribe", s.subscribeQuotes)
			r.Get("/{quoteId}", s.getQuote)
			r.Post("/{quoteId}/transition", s.transitionQuote)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", s.listNotifications)
			r.Get("/unread-count", s.unreadCount)
			r.Post("/{notificationId}/read", s.markNotificationRead)
			r.Delete("/{notificationId}", s.deleteNotification)
		})

		r.Post("/retries/drain", s.drainRetries)
	})

	return r
}

// Helpers
func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]interface{}{
		"error":   code,
		"message": message,
	})
}

func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domainQuote.ErrValidation):
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
	case errors.Is(err, domainQuote.ErrIllegalTransition):
		respondError(w, http.StatusBadRequest, "ILLEGAL_TRANSITION", err.Error())
	case errors.Is(err, domainQuote.ErrUnauthorized):
		respondError(w, http.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, domainQuote.ErrNotFound), errors.Is(err, domainNotification.ErrNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}

func parseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	val := chi.URLParam(r, key)
	return uuid.Parse(val)
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// actorFromRequest resolves the acting user. The gateway in front of
// this service authenticates and injects the id.
func actorFromRequest(r *http.Request) string {
	if actor := r.Header.Get("X-User-ID"); actor != "" {
		return actor
	}
	return r.URL.Query().Get("userId")
}

func parseLimitOffset(r *http.Request, defaultLimit, maxLimit int) (int, int) {
	limit := defaultLimit
	offset := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil {
			limit = l
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if o, err := strconv.Atoi(v); err == nil {
			offset = o
		}
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// Request types

type quoteCreateRequest struct {
	OwnerID     string    `json:"ownerId"`
	MachineID   string    `json:"machineId"`
	MachineName string    `json:"machineName,omitempty"`
	PhotoURLs   []string  `json:"photoUrls,omitempty"`
	StartDate   time.Time `json:"startDate"`
	EndDate     time.Time `json:"endDate"`
	Purpose     string    `json:"purpose,omitempty"`
	Location    string    `json:"location,omitempty"`
}

type quoteTransitionRequest struct {
	Status      string   `json:"status"`
	Value       *float64 `json:"value,omitempty"`
	Message     *string  `json:"message,omitempty"`
	ReturnType  *string  `json:"returnType,omitempty"`
	ReturnNotes *string  `json:"returnNotes,omitempty"`
}

// Quote handlers

func (s *Server) createQuote(w http.ResponseWriter, r *http.Request) {
	actor := actorFromRequest(r)
	if actor == "" {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "X-User-ID header required")
		return
	}

	var req quoteCreateRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}

	q, err := s.quoteSvc.CreateRequest(r.Context(), appQuote.CreateInput{
		OwnerID:     req.OwnerID,
		RequesterID: actor,
		MachineID:   req.MachineID,
		MachineName: req.MachineName,
		PhotoURLs:   req.PhotoURLs,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		Purpose:     req.Purpose,
		Location:    req.Location,
	})
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, q)
}

func (s *Server) getQuote(w http.ResponseWriter, r *http.Request) {
	id, err := parseUUIDParam(r, "quoteId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid quoteId")
		return
	}
	q, err := s.quoteSvc.GetQuote(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, q)
}

func (s *Server) listQuotes(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		userID = r.Header.Get("X-User-ID")
	}
	if userID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "userId required")
		return
	}

	var (
		quotes []*domainQuote.Quote
		err    error
	)
	switch role := r.URL.Query().Get("role"); role {
	case string(domainQuote.RoleOwner):
		quotes, err = s.quoteSvc.ListByOwner(r.Context(), userID)
	case string(domainQuote.RoleRequester), "":
		quotes, err = s.quoteSvc.ListByRequester(r.Context(), userID)
	default:
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "role must be owner or requester")
		return
	}
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if quotes == nil {
		quotes = []*domainQuote.Quote{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"quotes": quotes})
}

func (s *Server) transitionQuote(w http.ResponseWriter, r *http.Request) {
	actor := actorFromRequest(r)
	if actor == "" {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "X-User-ID header required")
		return
	}

	id, err := parseUUIDParam(r, "quoteId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid quoteId")
		return
	}

	var req quoteTransitionRequest
	if err := decodeBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", err.Error())
		return
	}
	if req.Status == "" {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "status required")
		return
	}

	payload := &appQuote.TransitionPayload{
		Value:       req.Value,
		Message:     req.Message,
		ReturnNotes: req.ReturnNotes,
	}
	if req.ReturnType != nil {
		rt := domainQuote.ReturnType(*req.ReturnType)
		payload.ReturnType = &rt
	}

	q, err := s.quoteSvc.Transition(r.Context(), id, domainQuote.Status(req.Status), actor, payload)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, q)
}

// subscribeQuotes streams full quote snapshots over SSE. Each event
// replaces the client's whole list.
func (s *Server) subscribeQuotes(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		userID = r.Header.Get("X-User-ID")
	}
	if userID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "userId required")
		return
	}
	role := domainQuote.Role(r.URL.Query().Get("role"))
	if role != domainQuote.RoleOwner && role != domainQuote.RoleRequester {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "role must be owner or requester")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "streaming not supported")
		return
	}

	sub := s.watchHub.Subscribe(r.Context(), userID, role)
	defer sub.Cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	// Send an initial comment to flush headers and keep the connection alive.
	_, _ = w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case snapshot, open := <-sub.C:
			if !open {
				return
			}
			payload, _ := json.Marshal(map[string]interface{}{"quotes": snapshot})
			_, _ = w.Write([]byte("data: "))
			_, _ = w.Write(payload)
			_, _ = w.Write([]byte("\n\n"))
			flusher.Flush()
		case <-ctx.Done():
			return
		}
	}
}

// Notification handlers

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	userID := actorFromRequest(r)
	if userID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "userId required")
		return
	}
	limit, offset := parseLimitOffset(r, 50, 200)
	notifications, err := s.notificationSvc.List(r.Context(), userID, limit, offset)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if notifications == nil {
		notifications = []*domainNotification.Notification{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"notifications": notifications})
}

func (s *Server) unreadCount(w http.ResponseWriter, r *http.Request) {
	userID := actorFromRequest(r)
	if userID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "userId required")
		return
	}
	count, err := s.notificationSvc.UnreadCount(r.Context(), userID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"unread": count})
}

func (s *Server) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	userID := actorFromRequest(r)
	if userID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "userId required")
		return
	}
	id, err := parseUUIDParam(r, "notificationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid notificationId")
		return
	}
	if err := s.notificationSvc.MarkRead(r.Context(), id, userID); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"id": id, "read": true})
}

func (s *Server) deleteNotification(w http.ResponseWriter, r *http.Request) {
	userID := actorFromRequest(r)
	if userID == "" {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "userId required")
		return
	}
	id, err := parseUUIDParam(r, "notificationId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_PARAM", "invalid notificationId")
		return
	}
	if err := s.notificationSvc.Delete(r.Context(), id, userID); err != nil {
		respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Retry handlers

func (s *Server) drainRetries(w http.ResponseWriter, r *http.Request) {
	limit := s.drainBatchSize
	if v := r.URL.Query().Get("limit"); v != "" {
		if l, err := strconv.Atoi(v); err == nil && l > 0 {
			limit = l
		}
	}
	resolved, failed, err := s.retryProcessor.Drain(r.Context(), limit)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"resolved": resolved,
		"failed":   failed,
	})
}
