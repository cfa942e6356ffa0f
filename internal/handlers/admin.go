package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/marikmarie/collectovault/internal/handlers/render"
	"github.com/marikmarie/collectovault/internal/logger"
	"github.com/marikmarie/collectovault/internal/models"
)

type awardRequest struct {
	Points int64  `json:"points" validate:"required,gt=0"`
	Note   string `json:"note" validate:"max=256"`
}

// handleAdminAward credits points to an account outside of any rule
func handleAdminAward(ledgerService ledgerService, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accountID, err := uuid.Parse(r.PathValue("accountID"))
		if err != nil {
			render.ServiceError(w, "malformed account id", http.StatusBadRequest)
			return
		}

		req, err := render.BindAndValidate[awardRequest](w, r)
		if err != nil {
			return
		}

		entry, account, err := ledgerService.Append(r.Context(), accountID, models.EntryKindAdminAward, req.Points, req.Note)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}

		render.JSON(w, struct {
			Balance int64               `json:"balance"`
			Entry   ledgerEntryResponse `json:"entry"`
		}{Balance: account.Balance, Entry: entryToResponse(entry)})
	})
}

// handleRebuild recomputes the balance snapshot from the ledger
func handleRebuild(ledgerService ledgerService, log logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accountID, err := uuid.Parse(r.PathValue("accountID"))
		if err != nil {
			render.ServiceError(w, "malformed account id", http.StatusBadRequest)
			return
		}

		account, err := ledgerService.Rebuild(r.Context(), accountID)
		if err != nil {
			writeServiceError(w, log, err)
			return
		}

		render.JSON(w, balanceResponse{Balance: account.Balance})
	})
}
