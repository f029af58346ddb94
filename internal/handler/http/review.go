package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trustdot/reputation/internal/domain"
	"github.com/trustdot/reputation/internal/service"
	apperrors "github.com/trustdot/reputation/pkg/errors"
	"github.com/trustdot/reputation/pkg/httputil"
	"github.com/trustdot/reputation/pkg/middleware"
	"github.com/trustdot/reputation/pkg/pagination"
	"github.com/trustdot/reputation/pkg/validator"
)

// ReviewHandler handles HTTP requests for review endpoints.
type ReviewHandler struct {
	service         *service.ReviewService
	defaultPageSize int
	maxPageSize     int
	logger          *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *service.ReviewService, defaultPageSize, maxPageSize int, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service:         svc,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
		logger:          logger,
	}
}

// --- Request DTOs ---

// SubmitReviewRequest is the JSON request body for submitting a review.
type SubmitReviewRequest struct {
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment" validate:"max=2000"`
	Anonymous bool   `json:"anonymous"`
	ImageRef  string `json:"image_ref" validate:"omitempty,max=512"`
}

// --- Handlers ---

// SubmitReview handles POST /api/v1/vendors/{vendorId}/reviews
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	vendorID := chi.URLParam(r, "vendorId")

	var req SubmitReviewRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	result, err := h.service.SubmitReview(r.Context(), &service.SubmitReviewInput{
		VendorID:  vendorID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		Anonymous: req.Anonymous,
		ImageRef:  req.ImageRef,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, result)
}

// ListReviews handles GET /api/v1/vendors/{vendorId}/reviews
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	recency, ok := h.recency(w, r)
	if !ok {
		return
	}

	result, err := h.service.ListReviewsWithUpvotes(r.Context(), &service.ListReviewsInput{
		VendorID:  chi.URLParam(r, "vendorId"),
		SessionID: r.Header.Get(middleware.SessionIDHeader),
		Window:    pagination.FromRequest(r, h.defaultPageSize, h.maxPageSize),
		Recency:   recency,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, result)
}

// GetAnalytics handles GET /api/v1/vendors/{vendorId}/reviews/analytics
func (h *ReviewHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	recency, ok := h.recency(w, r)
	if !ok {
		return
	}

	window := pagination.FromRequest(r, h.defaultPageSize, h.maxPageSize)
	analytics, err := h.service.GetReviewAnalytics(r.Context(), chi.URLParam(r, "vendorId"), window, recency)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, analytics)
}

func (h *ReviewHandler) recency(w http.ResponseWriter, r *http.Request) (domain.RecencyFilter, bool) {
	recency, err := domain.ParseRecency(r.URL.Query().Get("recency"))
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput(err.Error()), h.logger)
		return "", false
	}
	return recency, true
}
