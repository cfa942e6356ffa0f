package handlers

import (
	"errors"
	"net/http"

	"github.com/marikmarie/collectovault/internal/apperrors"
	"github.com/marikmarie/collectovault/internal/handlers/render"
	"github.com/marikmarie/collectovault/internal/logger"
)

// writeServiceError maps domain errors to HTTP statuses
func writeServiceError(w http.ResponseWriter, log logger.Logger, err error) {
	switch {
	case errors.Is(err, apperrors.ErrInsufficientPoints):
		render.ServiceError(w, "not enough points on the account", http.StatusPaymentRequired)
	case errors.Is(err, apperrors.ErrAccountNotFound),
		errors.Is(err, apperrors.ErrRewardNotFound),
		errors.Is(err, apperrors.ErrTierNotFound),
		errors.Is(err, apperrors.ErrRuleNotFound),
		errors.Is(err, apperrors.ErrFulfillmentNotFound),
		errors.Is(err, apperrors.ErrNoTiersConfigured):
		render.ServiceError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, apperrors.ErrRewardNotPointsRedeemable),
		errors.Is(err, apperrors.ErrRewardPriceRequired),
		errors.Is(err, apperrors.ErrRuleNotApplicable):
		render.ServiceError(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, apperrors.ErrInvalidDelta):
		render.ServiceError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrTierThresholdTaken):
		render.ServiceError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, apperrors.ErrConcurrencyTimeout):
		w.Header().Set("Retry-After", "1")
		render.ServiceError(w, "account is busy, retry later", http.StatusServiceUnavailable)
	default:
		log.Error("unhandled service error", "error", err.Error())
		render.ServiceError(w, "internal error", http.StatusInternalServerError)
	}
}
