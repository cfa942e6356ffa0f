package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marikmarie/collectovault/internal/handlers/render"
	"github.com/marikmarie/collectovault/internal/logger"
	"github.com/marikmarie/collectovault/internal/models"
)

type ruleRequest struct {
	Trigger           string           `json:"trigger" validate:"required,oneof=purchase registration birthday referral manual event"`
	Points            int64            `json:"points" validate:"gte=0"`
	Multiplier        *decimal.Decimal `json:"multiplier"`
	MaxPerTransaction *int64           `json:"max_per_transaction" validate:"omitempty,gte=0"`
	MaxPerDay         *int64           `json:"max_per_day" validate:"omitempty,gte=0"`
	Active            *bool            `json:"active"`
	StartAt           *time.Time       `json:"start_at"`
	EndAt             *time.Time       `json:"end_at"`
}

type ruleResponse struct {
	ID                uuid.UUID  `json:"id"`
	VendorID          uuid.UUID  `json:"vendor_id"`
	Trigger           string     `json:"trigger"`
	Points            int64      `json:"points"`
	Multiplier        *string    `json:"multiplier,omitempty"`
	MaxPerTransaction *int64     `json:"max_per_transaction,omitempty"`
	MaxPerDay         *int64     `json:"max_per_day,omitempty"`
	Active            bool       `json:"active"`
	StartAt           *time.Time `json:"start_at,omitempty"`
	EndAt             *time.Time `json:"end_at,omitempty"`
}

func ruleToResponse(rule models.PointRule) ruleResponse {
	resp := ruleResponse{
		ID:                rule.ID,
		VendorID:          rule.VendorID,
		Trigger:           rule.Trigger,
		Points:            rule.Points,
		MaxPerTransaction: rule.MaxPerTransaction,
		MaxPerDay:         rule.MaxPerDay,
		Active:            rule.Active,
		StartAt:           rule.StartAt,
		EndAt:             rule.EndAt,
	}
	if rule.Multiplier != nil {
		multiplier := rule.Multiplier.String()
		resp.Multiplier = &multiplier
	}
	return resp
}

func ruleFromRequest(req ruleRequest, vendorID uuid.UUID) models.PointRule {
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return models.PointRule{
		VendorID:          vendorID,
		Trigger:           req.Trigger,
		Points:            req.Points,
		Multiplier:        req.Multiplier,
		MaxPerTransaction: req.MaxPerTransaction,
		MaxPerDay:         req.MaxPerDay,
		Active:            active,
		StartAt:           req.StartAt,
		EndAt:             req.EndAt,
	}
}

func handleListRules(ruleService ruleService, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vendorID, ok := pathVendorID(w, r)
		if !ok {
			return
		}
		if !mustManageVendor(w, r, vendorID) {
			return
		}

		rules, err := ruleService.ListRules(r.Context(), vendorID)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}

		resp := make([]ruleResponse, 0, len(rules))
		for _, rule := range rules {
			resp = append(resp, ruleToResponse(rule))
		}
		render.JSON(w, resp)
	})
}

func handleCreateRule(ruleService ruleService, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vendorID, ok := pathVendorID(w, r)
		if !ok {
			return
		}
		if !mustManageVendor(w, r, vendorID) {
			return
		}

		req, err := render.BindAndValidate[ruleRequest](w, r)
		if err != nil {
			return
		}

		rule, err := ruleService.CreateRule(r.Context(), ruleFromRequest(req, vendorID))
		if err != nil {
			writeServiceError(w, log, err)
			return
		}

		render.JSONWithStatus(w, ruleToResponse(rule), http.StatusCreated)
	})
}

func handleUpdateRule(ruleService ruleService, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vendorID, ok := pathVendorID(w, r)
		if !ok {
			return
		}
		ruleID, err := uuid.Parse(r.PathValue("ruleID"))
		if err != nil {
			render.ServiceError(w, "malformed rule id", http.StatusBadRequest)
			return
		}
		if !mustManageVendor(w, r, vendorID) {
			return
		}

		req, err := render.BindAndValidate[ruleRequest](w, r)
		if err != nil {
			return
		}

		rule := ruleFromRequest(req, vendorID)
		rule.ID = ruleID
		updated, err := ruleService.UpdateRule(r.Context(), rule)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}

		render.JSON(w, ruleToResponse(updated))
	})
}

func handleDeleteRule(ruleService ruleService, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		vendorID, ok := pathVendorID(w, r)
		if !ok {
			return
		}
		ruleID, err := uuid.Parse(r.PathValue("ruleID"))
		if err != nil {
			render.ServiceError(w, "malformed rule id", http.StatusBadRequest)
			return
		}
		if !mustManageVendor(w, r, vendorID) {
			return
		}

		if err := ruleService.DeleteRule(r.Context(), vendorID, ruleID); err != nil {
			writeServiceError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
}
