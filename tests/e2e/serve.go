package e2e

import (
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stretchr/testify/require"

	"github.com/marikmarie/collectovault/internal/handlers"
	"github.com/marikmarie/collectovault/internal/logger"
	"github.com/marikmarie/collectovault/internal/repository"
	"github.com/marikmarie/collectovault/internal/repository/postgres"
	"github.com/marikmarie/collectovault/internal/service/ledger"
	"github.com/marikmarie/collectovault/internal/service/redemption"
	"github.com/marikmarie/collectovault/internal/service/reward"
	"github.com/marikmarie/collectovault/internal/service/rules"
	"github.com/marikmarie/collectovault/internal/service/session"
	"github.com/marikmarie/collectovault/internal/service/tier"
	"github.com/marikmarie/collectovault/internal/testutil"
)

type Services struct {
	Storage    repository.Storage
	Sessions   *session.Manager
	Ledger     *ledger.LedgerService
	Tiers      *tier.TierService
	Rewards    *reward.RewardService
	Rules      *rules.RuleService
	Redemption *redemption.RedemptionService
}

// Create db transaction and run the server on that connection (one
// connection cause one transaction). The created transaction is passed to
// the inner function: so, you can safely use testutil.WithTx with it
func ServeInTx(dbpool *pgxpool.Pool, t *testing.T, fn func(tx pgx.Tx, srvURL string, services Services)) {
	testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
		storage := postgres.NewStorage(tx)

		sessionManager, err := session.New(session.Config{SecretKey: "test-secret"})
		require.NoError(t, err, "session manager should be created without errors")

		ledgerService := ledger.NewService(storage)
		tierService := tier.NewService(storage)
		rewardService := reward.NewService(storage)
		ruleService := rules.NewService(storage)
		redemptionService := redemption.NewService(storage, ruleService)

		router := handlers.NewRouter(
			sessionManager,
			ledgerService,
			tierService,
			rewardService,
			ruleService,
			redemptionService,
			logger.NewNoOpLogger(),
		)

		// Run http server with the router in transaction
		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(tx, srv.URL, Services{
			Storage:    storage,
			Sessions:   sessionManager,
			Ledger:     ledgerService,
			Tiers:      tierService,
			Rewards:    rewardService,
			Rules:      ruleService,
			Redemption: redemptionService,
		})
	})
}
