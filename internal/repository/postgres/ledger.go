package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/marikmarie/collectovault/internal/apperrors"
	"github.com/marikmarie/collectovault/internal/models"
)

type LedgerRepo struct {
	DB DBTX
}

const appendEntry = `-- name: AppendEntry
INSERT INTO ledger_entries (account_id, kind, delta, note, rule_id)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at, account_id, kind, delta, note, rule_id
`

func (r *LedgerRepo) Append(ctx context.Context, entry models.LedgerEntry) (models.LedgerEntry, error) {
	rows, _ := r.DB.Query(ctx, appendEntry, entry.AccountID, entry.Kind, entry.Delta, entry.Note, entry.RuleID)
	entry, err := pgx.CollectOneRow(rows, rowToEntry)

	if err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation:
			return entry, apperrors.ErrAccountNotFound
		case errors.As(err, &pgErr) && pgErr.Code == pgerrcode.CheckViolation:
			return entry, apperrors.ErrInvalidDelta
		default:
			return entry, fmt.Errorf("db error: %w", err)
		}
	}

	return entry, nil
}

const listEntries = `-- name: ListEntries
SELECT id, created_at, account_id, kind, delta, note, rule_id FROM ledger_entries
WHERE account_id = $1
	AND (cardinality($2::text[]) = 0 OR kind = ANY ($2::text[]))
ORDER BY id
`

func (r *LedgerRepo) ListForAccount(ctx context.Context, accountID uuid.UUID, kinds []string) ([]models.LedgerEntry, error) {
	if kinds == nil {
		kinds = []string{}
	}

	rows, _ := r.DB.Query(ctx, listEntries, accountID, kinds)
	entries, err := pgx.CollectRows(rows, rowToEntry)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return entries, nil
}

const sumEntries = `-- name: SumEntries
SELECT COALESCE(SUM(delta), 0) FROM ledger_entries
WHERE account_id = $1
`

func (r *LedgerRepo) SumForAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	var sum int64
	err := r.DB.QueryRow(ctx, sumEntries, accountID).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return sum, nil
}

const earnedByRuleSince = `-- name: EarnedByRuleSince
SELECT COALESCE(SUM(delta), 0) FROM ledger_entries
WHERE account_id = $1
	AND rule_id = $2
	AND delta > 0
	AND created_at >= $3
`

func (r *LedgerRepo) EarnedByRuleSince(ctx context.Context, accountID uuid.UUID, ruleID uuid.UUID, since time.Time) (int64, error) {
	var sum int64
	err := r.DB.QueryRow(ctx, earnedByRuleSince, accountID, ruleID, since).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return sum, nil
}

func rowToEntry(row pgx.CollectableRow) (models.LedgerEntry, error) {
	var e models.LedgerEntry
	err := row.Scan(&e.ID, &e.CreatedAt, &e.AccountID, &e.Kind, &e.Delta, &e.Note, &e.RuleID)
	return e, err
}
