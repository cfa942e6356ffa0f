package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/marikmarie/collectovault/internal/handlers/actorctx"
	"github.com/marikmarie/collectovault/internal/handlers/render"
	"github.com/marikmarie/collectovault/internal/logger"
	"github.com/marikmarie/collectovault/internal/models"
)

type redeemRequest struct {
	RewardID uuid.UUID `json:"reward_id" validate:"required"`
	Method   string    `json:"method" validate:"omitempty,oneof=points currency"`
}

type redeemResponse struct {
	Balance     int64                `json:"balance"`
	Entry       *ledgerEntryResponse `json:"entry,omitempty"`
	Fulfillment fulfillmentResponse  `json:"fulfillment"`
}

func handleRedeem(redemptionService redemptionService, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "not authenticated", http.StatusUnauthorized)
			return
		}

		req, err := render.BindAndValidate[redeemRequest](w, r)
		if err != nil {
			return
		}
		method := req.Method
		if method == "" {
			method = models.RedeemMethodPoints
		}

		result, err := redemptionService.Redeem(r.Context(), actor.AccountID, req.RewardID, method)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}

		resp := redeemResponse{
			Balance:     result.Balance,
			Fulfillment: fulfillmentToResponse(result.Fulfillment),
		}
		if result.Entry != nil {
			entry := entryToResponse(*result.Entry)
			resp.Entry = &entry
		}
		render.JSON(w, resp)
	})
}
