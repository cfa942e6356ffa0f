package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marikmarie/collectovault/internal/handlers/middleware"
	"github.com/marikmarie/collectovault/internal/logger"
	"github.com/marikmarie/collectovault/internal/models"
	"github.com/marikmarie/collectovault/internal/service/rules"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

func NewRouter(
	sessionManager sessionManager,
	ledgerService ledgerService,
	tierService tierService,
	rewardService rewardService,
	ruleService ruleService,
	redemptionService redemptionService,
	logger logger.Logger,
) http.Handler {
	authMiddleware := middleware.AuthMiddleware(sessionManager)
	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(h)
	}
	asStaff := middleware.RequireRole(models.RoleVendor, models.RoleAdmin)
	asAdmin := middleware.RequireRole(models.RoleAdmin)

	api := http.NewServeMux()

	// customer surface
	api.Handle("GET /me/balance", withAuth(handleMyBalance(ledgerService, tierService, logger)))
	api.Handle("GET /me/history", withAuth(handleMyHistory(ledgerService, logger)))
	api.Handle("GET /me/fulfillments", withAuth(handleMyFulfillments(redemptionService, logger)))
	api.Handle("POST /me/redeem", withAuth(handleRedeem(redemptionService, logger)))

	// events and settlements from collaborators
	api.Handle("POST /events", withAuth(asStaff(handleEvent(ruleService, logger))))
	api.Handle("POST /settlements", withAuth(asStaff(handleSettlement(redemptionService, logger))))

	// admin surface
	api.Handle("POST /accounts/{accountID}/award", withAuth(asAdmin(handleAdminAward(ledgerService, logger))))
	api.Handle("POST /accounts/{accountID}/rebuild", withAuth(asAdmin(handleRebuild(ledgerService, logger))))

	// vendor catalogs
	api.Handle("GET /vendors/{vendorID}/tiers", withAuth(handleListTiers(tierService, logger)))
	api.Handle("GET /vendors/{vendorID}/tiers/resolve", withAuth(handleTierPreview(tierService, logger)))
	api.Handle("POST /vendors/{vendorID}/tiers", withAuth(asStaff(handleCreateTier(tierService, logger))))
	api.Handle("PUT /vendors/{vendorID}/tiers/{tierID}", withAuth(asStaff(handleUpdateTier(tierService, logger))))
	api.Handle("DELETE /vendors/{vendorID}/tiers/{tierID}", withAuth(asStaff(handleDeleteTier(tierService, logger))))

	api.Handle("GET /vendors/{vendorID}/rewards", withAuth(handleListRewards(rewardService, logger)))
	api.Handle("POST /vendors/{vendorID}/rewards", withAuth(asStaff(handleCreateReward(rewardService, logger))))
	api.Handle("PUT /vendors/{vendorID}/rewards/{rewardID}", withAuth(asStaff(handleUpdateReward(rewardService, logger))))
	api.Handle("PUT /vendors/{vendorID}/rewards/{rewardID}/availability", withAuth(asStaff(handleRewardAvailability(rewardService, logger))))
	api.Handle("DELETE /vendors/{vendorID}/rewards/{rewardID}", withAuth(asStaff(handleDeleteReward(rewardService, logger))))

	api.Handle("GET /vendors/{vendorID}/rules", withAuth(asStaff(handleListRules(ruleService, logger))))
	api.Handle("POST /vendors/{vendorID}/rules", withAuth(asStaff(handleCreateRule(ruleService, logger))))
	api.Handle("PUT /vendors/{vendorID}/rules/{ruleID}", withAuth(asStaff(handleUpdateRule(ruleService, logger))))
	api.Handle("DELETE /vendors/{vendorID}/rules/{ruleID}", withAuth(asStaff(handleDeleteRule(ruleService, logger))))

	root := http.NewServeMux()
	root.Handle("/api/", http.StripPrefix("/api", api))

	return chain(root,
		middleware.LoggerMiddleware(logger),
	)
}

type sessionManager interface {
	// Resolve the request's bearer token to an actor
	Authenticate(r *http.Request) (models.Actor, error)
}

type ledgerService interface {
	// Append one point event
	// Has to return apperrors.ErrInvalidDelta on a kind/sign mismatch
	Append(ctx context.Context, accountID uuid.UUID, kind string, delta int64, note string) (models.LedgerEntry, models.Account, error)

	// Balance of the account, 0 for unknown accounts
	Balance(ctx context.Context, accountID uuid.UUID) (int64, error)

	// History of the account in insertion order, optionally filtered by kinds
	History(ctx context.Context, accountID uuid.UUID, kinds []string) ([]models.LedgerEntry, error)

	// Rebuild the balance snapshot from the ledger
	Rebuild(ctx context.Context, accountID uuid.UUID) (models.Account, error)
}

type tierService interface {
	Status(ctx context.Context, accountID uuid.UUID, vendorID uuid.UUID) (models.TierStatus, error)
	Preview(ctx context.Context, vendorID uuid.UUID, balance int64) (models.TierStatus, error)
	CreateTier(ctx context.Context, tier models.Tier) (models.Tier, error)

	// Update and delete are scoped to the tier's vendor: another vendor's
	// tier has to come back as apperrors.ErrTierNotFound
	UpdateTier(ctx context.Context, tier models.Tier) (models.Tier, error)
	DeleteTier(ctx context.Context, vendorID uuid.UUID, tierID uuid.UUID) error
	ListTiers(ctx context.Context, vendorID uuid.UUID) ([]models.Tier, error)
}

type rewardService interface {
	CreateReward(ctx context.Context, reward models.Reward) (models.Reward, error)

	// Mutations are scoped to the reward's vendor: another vendor's reward
	// has to come back as apperrors.ErrRewardNotFound
	UpdateReward(ctx context.Context, reward models.Reward) (models.Reward, error)
	DeleteReward(ctx context.Context, vendorID uuid.UUID, rewardID uuid.UUID) error
	SetAvailability(ctx context.Context, vendorID uuid.UUID, rewardID uuid.UUID, availability string) (models.Reward, error)

	ListRewards(ctx context.Context, vendorID uuid.UUID) ([]models.Reward, error)
}

type ruleService interface {
	// Trigger all matching active vendor rules for the event
	// Has to return apperrors.ErrRuleNotApplicable when nothing applies
	Trigger(ctx context.Context, accountID uuid.UUID, vendorID uuid.UUID, trigger string, note string) ([]rules.Award, error)

	CreateRule(ctx context.Context, rule models.PointRule) (models.PointRule, error)

	// Update and delete are scoped to the rule's vendor: another vendor's
	// rule has to come back as apperrors.ErrRuleNotFound
	UpdateRule(ctx context.Context, rule models.PointRule) (models.PointRule, error)
	DeleteRule(ctx context.Context, vendorID uuid.UUID, ruleID uuid.UUID) error
	ListRules(ctx context.Context, vendorID uuid.UUID) ([]models.PointRule, error)
}

type redemptionService interface {
	// Redeem a reward for points or currency
	// Expected failures: apperrors.ErrRewardNotFound,
	// ErrRewardNotPointsRedeemable, ErrInsufficientPoints, ErrConcurrencyTimeout
	Redeem(ctx context.Context, accountID uuid.UUID, rewardID uuid.UUID, method string) (models.RedemptionResult, error)

	// Settlement callback from the payment collaborator
	OnSettlementConfirmed(ctx context.Context, accountID uuid.UUID, rewardID uuid.UUID, amount decimal.Decimal) (models.Fulfillment, error)

	Fulfillments(ctx context.Context, accountID uuid.UUID) ([]models.Fulfillment, error)
}

// canManageVendor tells whether the actor may edit this vendor's catalogs
func canManageVendor(actor models.Actor, vendorID uuid.UUID) bool {
	switch actor.Role {
	case models.RoleAdmin:
		return true
	case models.RoleVendor:
		return actor.VendorID == vendorID
	default:
		return false
	}
}
