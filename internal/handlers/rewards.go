package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marikmarie/collectovault/internal/handlers/render"
	"github.com/marikmarie/collectovault/internal/logger"
	"github.com/marikmarie/collectovault/internal/models"
)

type rewardRequest struct {
	Title         string           `json:"title" validate:"required,max=128"`
	PointsPrice   *int64           `json:"points_price" validate:"omitempty,gte=0"`
	CurrencyPrice *decimal.Decimal `json:"currency_price"`
	Availability  string           `json:"availability" validate:"omitempty,oneof=available soldout coming_soon"`
}

type rewardResponse struct {
	ID            uuid.UUID `json:"id"`
	VendorID      uuid.UUID `json:"vendor_id"`
	Title         string    `json:"title"`
	PointsPrice   *int64    `json:"points_price,omitempty"`
	CurrencyPrice *string   `json:"currency_price,omitempty"`
	Availability  string    `json:"availability"`
}

func rewardToResponse(reward models.Reward) rewardResponse {
	resp := rewardResponse{
		ID:           reward.ID,
		VendorID:     reward.VendorID,
		Title:        reward.Title,
		PointsPrice:  reward.PointsPrice,
		Availability: reward.Availability,
	}
	if reward.CurrencyPrice != nil {
		price := reward.CurrencyPrice.StringFixed(2)
		resp.CurrencyPrice = &price
	}
	return resp
}

func rewardFromRequest(req rewardRequest, vendorID uuid.UUID) models.Reward {
	availability := req.Availability
	if availability == "" {
		availability = models.RewardAvailable
	}
	return models.Reward{
		VendorID:      vendorID,
		Title:         req.Title,
		PointsPrice:   req.PointsPrice,
		CurrencyPrice: req.CurrencyPrice,
		Availability:  availability,
	}
}

func handleListRewards(rewardService rewardService, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vendorID, ok := pathVendorID(w, r)
		if !ok {
			return
		}

		rewards, err := rewardService.ListRewards(r.Context(), vendorID)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}

		resp := make([]rewardResponse, 0, len(rewards))
		for _, reward := range rewards {
			resp = append(resp, rewardToResponse(reward))
		}
		render.JSON(w, resp)
	})
}

func handleCreateReward(rewardService rewardService, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vendorID, ok := pathVendorID(w, r)
		if !ok {
			return
		}
		if !mustManageVendor(w, r, vendorID) {
			return
		}

		req, err := render.BindAndValidate[rewardRequest](w, r)
		if err != nil {
			return
		}

		reward, err := rewardService.CreateReward(r.Context(), rewardFromRequest(req, vendorID))
		if err != nil {
			writeServiceError(w, log, err)
			return
		}

		render.JSONWithStatus(w, rewardToResponse(reward), http.StatusCreated)
	})
}

func handleUpdateReward(rewardService rewardService, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vendorID, ok := pathVendorID(w, r)
		if !ok {
			return
		}
		rewardID, err := uuid.Parse(r.PathValue("rewardID"))
		if err != nil {
			render.ServiceError(w, "malformed reward id", http.StatusBadRequest)
			return
		}
		if !mustManageVendor(w, r, vendorID) {
			return
		}

		req, err := render.BindAndValidate[rewardRequest](w, r)
		if err != nil {
			return
		}

		reward := rewardFromRequest(req, vendorID)
		reward.ID = rewardID
		updated, err := rewardService.UpdateReward(r.Context(), reward)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}

		render.JSON(w, rewardToResponse(updated))
	})
}

type rewardAvailabilityRequest struct {
	Availability string `json:"availability" validate:"required,oneof=available soldout coming_soon"`
}

// handleRewardAvailability flips the availability state without touching
// the rest of the reward
func handleRewardAvailability(rewardService rewardService, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vendorID, ok := pathVendorID(w, r)
		if !ok {
			return
		}
		rewardID, err := uuid.Parse(r.PathValue("rewardID"))
		if err != nil {
			render.ServiceError(w, "malformed reward id", http.StatusBadRequest)
			return
		}
		if !mustManageVendor(w, r, vendorID) {
			return
		}

		req, err := render.BindAndValidate[rewardAvailabilityRequest](w, r)
		if err != nil {
			return
		}

		reward, err := rewardService.SetAvailability(r.Context(), vendorID, rewardID, req.Availability)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}

		render.JSON(w, rewardToResponse(reward))
	})
}

func handleDeleteReward(rewardService rewardService, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vendorID, ok := pathVendorID(w, r)
		if !ok {
			return
		}
		rewardID, err := uuid.Parse(r.PathValue("rewardID"))
		if err != nil {
			render.ServiceError(w, "malformed reward id", http.StatusBadRequest)
			return
		}
		if !mustManageVendor(w, r, vendorID) {
			return
		}

		if err := rewardService.DeleteReward(r.Context(), vendorID, rewardID); err != nil {
			writeServiceError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}
