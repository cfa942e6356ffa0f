package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marikmarie/collectovault/internal/apperrors"
	"github.com/marikmarie/collectovault/internal/handlers/actorctx"
	"github.com/marikmarie/collectovault/internal/handlers/render"
	"github.com/marikmarie/collectovault/internal/logger"
	"github.com/marikmarie/collectovault/internal/models"
)

type tierStatusResponse struct {
	Current     string  `json:"current"`
	Next        *string `json:"next"`
	ProgressPct int     `json:"progress_pct"`
	PointsToGo  int64   `json:"points_to_go"`
}

type balanceResponse struct {
	Balance int64               `json:"balance"`
	Tier    *tierStatusResponse `json:"tier,omitempty"`
}

func tierStatusToResponse(status models.TierStatus, balance int64) *tierStatusResponse {
	resp := tierStatusResponse{
		Current:     status.Current.Name,
		ProgressPct: status.ProgressPct,
	}
	if status.Next != nil {
		next := status.Next.Name
		resp.Next = &next
		resp.PointsToGo = status.Next.MinPoints - balance
	}
	return &resp
}

// handleMyBalance returns the account balance and, when a vendor program is
// named with the "vendor" query parameter, the tier standing in it
func handleMyBalance(ledgerService ledgerService, tierService tierService, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "not authenticated", http.StatusUnauthorized)
			return
		}

		balance, err := ledgerService.Balance(r.Context(), actor.AccountID)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}

		resp := balanceResponse{Balance: balance}
		if rawVendor := r.URL.Query().Get("vendor"); rawVendor != "" {
			vendorID, err := uuid.Parse(rawVendor)
			if err != nil {
				render.ServiceError(w, "malformed vendor id", http.StatusBadRequest)
				return
			}

			status, err := tierService.Status(r.Context(), actor.AccountID, vendorID)
			switch {
			case err == nil:
				resp.Tier = tierStatusToResponse(status, balance)
			case errors.Is(err, apperrors.ErrNoTiersConfigured):
				// balance is still worth returning without tier standing
			default:
				writeServiceError(w, log, err)
				return
			}
		}

		render.JSON(w, resp)
	})
}

type ledgerEntryResponse struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Kind      string    `json:"kind"`
	Delta     int64     `json:"delta"`
	Note      string    `json:"note,omitempty"`
	RuleID    *string   `json:"rule_id,omitempty"`
}

func entryToResponse(entry models.LedgerEntry) ledgerEntryResponse {
	resp := ledgerEntryResponse{
		ID:        entry.ID,
		CreatedAt: entry.CreatedAt,
		Kind:      entry.Kind,
		Delta:     entry.Delta,
		Note:      entry.Note,
	}
	if entry.RuleID != nil {
		id := entry.RuleID.String()
		resp.RuleID = &id
	}
	return resp
}

// handleMyHistory lists the account's ledger entries in insertion order.
// The optional "kind" parameter takes a comma separated list of entry kinds
func handleMyHistory(ledgerService ledgerService, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "not authenticated", http.StatusUnauthorized)
			return
		}

		var kinds []string
		if rawKinds := r.URL.Query().Get("kind"); rawKinds != "" {
			for _, kind := range strings.Split(rawKinds, ",") {
				kind = strings.TrimSpace(kind)
				if !models.KnownEntryKind(kind) {
					render.ServiceError(w, "unknown entry kind: "+kind, http.StatusBadRequest)
					return
				}
				kinds = append(kinds, kind)
			}
		}

		entries, err := ledgerService.History(r.Context(), actor.AccountID, kinds)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}

		resp := make([]ledgerEntryResponse, 0, len(entries))
		for _, entry := range entries {
			resp = append(resp, entryToResponse(entry))
		}
		render.JSON(w, resp)
	})
}

type fulfillmentResponse struct {
	ID        uuid.UUID  `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	RewardID  uuid.UUID  `json:"reward_id"`
	Method    string     `json:"method"`
	Status    string     `json:"status"`
	Amount    *string    `json:"amount,omitempty"`
	SettledAt *time.Time `json:"settled_at,omitempty"`
}

func fulfillmentToResponse(f models.Fulfillment) fulfillmentResponse {
	resp := fulfillmentResponse{
		ID:        f.ID,
		CreatedAt: f.CreatedAt,
		RewardID:  f.RewardID,
		Method:    f.Method,
		Status:    f.Status,
		SettledAt: f.SettledAt,
	}
	if f.Amount != nil {
		amount := f.Amount.StringFixed(2)
		resp.Amount = &amount
	}
	return resp
}

func handleMyFulfillments(redemptionService redemptionService, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorctx.FromContext(r.Context())
		if !ok {
			render.ServiceError(w, "not authenticated", http.StatusUnauthorized)
			return
		}

		fulfillments, err := redemptionService.Fulfillments(r.Context(), actor.AccountID)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}

		resp := make([]fulfillmentResponse, 0, len(fulfillments))
		for _, f := range fulfillments {
			resp = append(resp, fulfillmentToResponse(f))
		}
		render.JSON(w, resp)
	})
}
