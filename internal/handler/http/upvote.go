package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/trustdot/reputation/internal/service"
	apperrors "github.com/trustdot/reputation/pkg/errors"
	"github.com/trustdot/reputation/pkg/httputil"
	"github.com/trustdot/reputation/pkg/middleware"
)

// UpvoteHandler handles HTTP requests for upvote endpoints.
type UpvoteHandler struct {
	service  *service.UpvoteService
	maxBatch int
	logger   *slog.Logger
}

// NewUpvoteHandler creates a new upvote HTTP handler. maxBatch caps the
// number of review ids one tally request may ask for.
func NewUpvoteHandler(svc *service.UpvoteService, maxBatch int, logger *slog.Logger) *UpvoteHandler {
	return &UpvoteHandler{
		service:  svc,
		maxBatch: maxBatch,
		logger:   logger,
	}
}

// Upvote handles POST /api/v1/reviews/{reviewId}/upvotes. A first vote
// answers 201, a repeat vote from the same session answers 200.
func (h *UpvoteHandler) Upvote(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := httputil.ParseUUID(w, "review id", chi.URLParam(r, "reviewId"))
	if !ok {
		return
	}

	sessionID := r.Header.Get(middleware.SessionIDHeader)
	if strings.TrimSpace(sessionID) == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput(middleware.SessionIDHeader+" header is required"), h.logger)
		return
	}

	result, err := h.service.Upvote(r.Context(), reviewID.String(), sessionID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	status := http.StatusCreated
	if result.AlreadyVoted {
		status = http.StatusOK
	}
	httputil.WriteData(w, status, result)
}

// CountUpvotes handles GET /api/v1/upvotes?review_ids=a,b,c
func (h *UpvoteHandler) CountUpvotes(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("review_ids")
	if strings.TrimSpace(raw) == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("review_ids is required"), h.logger)
		return
	}

	ids := strings.Split(raw, ",")
	for i := range ids {
		ids[i] = strings.TrimSpace(ids[i])
	}
	if h.maxBatch > 0 && len(ids) > h.maxBatch {
		httputil.WriteError(w, r, apperrors.InvalidInput(fmt.Sprintf("at most %d review_ids per request", h.maxBatch)), h.logger)
		return
	}

	counts := h.service.CountUpvotes(r.Context(), ids, r.Header.Get(middleware.SessionIDHeader))
	httputil.WriteData(w, http.StatusOK, counts)
}
