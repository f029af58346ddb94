package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/trustdot/reputation/internal/service"
	"github.com/trustdot/reputation/pkg/httputil"
)

// VendorHandler serves vendor profiles and manual aggregate recomputes.
type VendorHandler struct {
	profiles   *service.ProfileService
	aggregator *service.Aggregator
	logger     *slog.Logger
}

// NewVendorHandler creates a new vendor HTTP handler.
func NewVendorHandler(profiles *service.ProfileService, aggregator *service.Aggregator, logger *slog.Logger) *VendorHandler {
	return &VendorHandler{
		profiles:   profiles,
		aggregator: aggregator,
		logger:     logger,
	}
}

// GetProfile handles GET /api/v1/vendors/{vendorId}/profile
func (h *VendorHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.GetVendorProfile(r.Context(), chi.URLParam(r, "vendorId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, profile)
}

// RecomputeAggregate handles POST /api/v1/vendors/{vendorId}/recompute.
// It repairs an aggregate left stale by a pending score update.
func (h *VendorHandler) RecomputeAggregate(w http.ResponseWriter, r *http.Request) {
	agg, err := h.aggregator.RecomputeAggregate(r.Context(), chi.URLParam(r, "vendorId"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, agg)
}
