package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marikmarie/collectovault/internal/apperrors"
	"github.com/marikmarie/collectovault/internal/handlers/actorctx"
	"github.com/marikmarie/collectovault/internal/handlers/render"
	"github.com/marikmarie/collectovault/internal/logger"
)

type eventRequest struct {
	AccountID uuid.UUID `json:"account_id" validate:"required"`
	VendorID  uuid.UUID `json:"vendor_id" validate:"required"`
	Trigger   string    `json:"trigger" validate:"required,oneof=purchase registration birthday referral manual event"`
	Note      string    `json:"note" validate:"max=256"`
}

type awardResponse struct {
	RuleID uuid.UUID `json:"rule_id"`
	Points int64     `json:"points"`
}

type eventResponse struct {
	Awards []awardResponse `json:"awards"`
}

// handleEvent triggers the vendor's active point rules for an activity event.
// An event no rule covers is not an error: the response carries zero awards
func handleEvent(ruleService ruleService, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "not authenticated", http.StatusUnauthorized)
			return
		}

		req, err := render.BindAndValidate[eventRequest](w, r)
		if err != nil {
			return
		}

		if !canManageVendor(actor, req.VendorID) {
			render.ServiceError(w, "not your vendor", http.StatusForbidden)
			return
		}

		awards, err := ruleService.Trigger(r.Context(), req.AccountID, req.VendorID, req.Trigger, req.Note)
		if err != nil && !errors.Is(err, apperrors.ErrRuleNotApplicable) {
			writeServiceError(w, log, err)
			return
		}

		resp := eventResponse{Awards: make([]awardResponse, 0, len(awards))}
		for _, award := range awards {
			resp.Awards = append(resp.Awards, awardResponse{RuleID: award.RuleID, Points: award.Points})
		}
		render.JSON(w, resp)
	})
}

type settlementRequest struct {
	AccountID uuid.UUID       `json:"account_id" validate:"required"`
	RewardID  uuid.UUID       `json:"reward_id" validate:"required"`
	Amount    decimal.Decimal `json:"amount" validate:"required"`
}

// handleSettlement is the payment collaborator callback confirming that a
// currency redemption was paid for
func handleSettlement(redemptionService redemptionService, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, err := render.BindAndValidate[settlementRequest](w, r)
		if err != nil {
			return
		}

		if req.Amount.IsNegative() {
			render.ServiceError(w, "amount must not be negative", http.StatusBadRequest)
			return
		}

		fulfillment, err := redemptionService.OnSettlementConfirmed(r.Context(), req.AccountID, req.RewardID, req.Amount)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}

		render.JSON(w, fulfillmentToResponse(fulfillment))
	})
}
