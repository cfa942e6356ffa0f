package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/marikmarie/collectovault/internal/handlers/actorctx"
	"github.com/marikmarie/collectovault/internal/handlers/render"
	"github.com/marikmarie/collectovault/internal/logger"
	"github.com/marikmarie/collectovault/internal/models"
)

type tierRequest struct {
	Name      string   `json:"name" validate:"required,max=64"`
	MinPoints int64    `json:"min_points" validate:"gte=0"`
	Perks     []string `json:"perks" validate:"dive,max=128"`
	Active    *bool    `json:"active"`
}

type tierResponse struct {
	ID        uuid.UUID `json:"id"`
	VendorID  uuid.UUID `json:"vendor_id"`
	Name      string    `json:"name"`
	MinPoints int64     `json:"min_points"`
	Perks     []string  `json:"perks"`
	Active    bool      `json:"active"`
}

func tierToResponse(tier models.Tier) tierResponse {
	perks := tier.Perks
	if perks == nil {
		perks = []string{}
	}
	return tierResponse{
		ID:        tier.ID,
		VendorID:  tier.VendorID,
		Name:      tier.Name,
		MinPoints: tier.MinPoints,
		Perks:     perks,
		Active:    tier.Active,
	}
}

func pathVendorID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	vendorID, err := uuid.Parse(r.PathValue("vendorID"))
	if err != nil {
		render.ServiceError(w, "malformed vendor id", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return vendorID, true
}

func mustManageVendor(w http.ResponseWriter, r *http.Request, vendorID uuid.UUID) bool {
	actor, ok := actorctx.FromContext(r.Context())
	if !ok {
		render.ServiceError(w, "not authenticated", http.StatusUnauthorized)
		return false
	}
	if !canManageVendor(actor, vendorID) {
		render.ServiceError(w, "not your vendor", http.StatusForbidden)
		return false
	}
	return true
}

func handleListTiers(tierService tierService, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vendorID, ok := pathVendorID(w, r)
		if !ok {
			return
		}

		tiers, err := tierService.ListTiers(r.Context(), vendorID)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}

		resp := make([]tierResponse, 0, len(tiers))
		for _, tier := range tiers {
			resp = append(resp, tierToResponse(tier))
		}
		render.JSON(w, resp)
	})
}

// handleTierPreview resolves a hypothetical balance against the vendor's
// tier ladder without touching any account
func handleTierPreview(tierService tierService, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vendorID, ok := pathVendorID(w, r)
		if !ok {
			return
		}

		balance, err := strconv.ParseInt(r.URL.Query().Get("balance"), 10, 64)
		if err != nil || balance < 0 {
			render.ServiceError(w, "balance must be a non-negative integer", http.StatusBadRequest)
			return
		}

		status, err := tierService.Preview(r.Context(), vendorID, balance)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}

		render.JSON(w, tierStatusToResponse(status, balance))
	})
}

func handleCreateTier(tierService tierService, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vendorID, ok := pathVendorID(w, r)
		if !ok {
			return
		}
		if !mustManageVendor(w, r, vendorID) {
			return
		}

		req, err := render.BindAndValidate[tierRequest](w, r)
		if err != nil {
			return
		}

		active := true
		if req.Active != nil {
			active = *req.Active
		}
		tier, err := tierService.CreateTier(r.Context(), models.Tier{
			VendorID:  vendorID,
			Name:      req.Name,
			MinPoints: req.MinPoints,
			Perks:     req.Perks,
			Active:    active,
		})
		if err != nil {
			writeServiceError(w, log, err)
			return
		}

		render.JSONWithStatus(w, tierToResponse(tier), http.StatusCreated)
	})
}

func handleUpdateTier(tierService tierService, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vendorID, ok := pathVendorID(w, r)
		if !ok {
			return
		}
		tierID, err := uuid.Parse(r.PathValue("tierID"))
		if err != nil {
			render.ServiceError(w, "malformed tier id", http.StatusBadRequest)
			return
		}
		if !mustManageVendor(w, r, vendorID) {
			return
		}

		req, err := render.BindAndValidate[tierRequest](w, r)
		if err != nil {
			return
		}

		active := true
		if req.Active != nil {
			active = *req.Active
		}
		tier, err := tierService.UpdateTier(r.Context(), models.Tier{
			ID:        tierID,
			VendorID:  vendorID,
			Name:      req.Name,
			MinPoints: req.MinPoints,
			Perks:     req.Perks,
			Active:    active,
		})
		if err != nil {
			writeServiceError(w, log, err)
			return
		}

		render.JSON(w, tierToResponse(tier))
	})
}

func handleDeleteTier(tierService tierService, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vendorID, ok := pathVendorID(w, r)
		if !ok {
			return
		}
		tierID, err := uuid.Parse(r.PathValue("tierID"))
		if err != nil {
			render.ServiceError(w, "malformed tier id", http.StatusBadRequest)
			return
		}
		if !mustManageVendor(w, r, vendorID) {
			return
		}

		if err := tierService.DeleteTier(r.Context(), vendorID, tierID); err != nil {
			writeServiceError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}
