package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/eduledger/school_ledger_app/internal/apperrors"
	"github.com/eduledger/school_ledger_app/internal/core/domain"
	portsrepo "github.com/eduledger/school_ledger_app/internal/core/ports/repositories"
)

// PgxPeriodRepository persists accounting periods, their audit events, and
// closing-balance snapshots.
type PgxPeriodRepository struct {
	BaseRepository
}

// newPgxPeriodRepository creates a new repository for accounting period data.
func newPgxPeriodRepository(pool *pgxpool.Pool) portsrepo.PeriodRepositoryFacade {
	return &PgxPeriodRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.PeriodRepositoryFacade = (*PgxPeriodRepository)(nil)

const periodColumns = `
	period_id, tenant_id, name, start_date, end_date, status,
	created_at, created_by, last_updated_at, last_updated_by
`

// SavePeriod inserts a new accounting period.
func (r *PgxPeriodRepository) SavePeriod(ctx context.Context, tenantID string, period domain.AccountingPeriod) error {
	query := `
		INSERT INTO accounting_periods (` + periodColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);
	`
	_, err := r.Pool.Exec(ctx, query,
		period.PeriodID,
		tenantID,
		period.Name,
		period.StartDate,
		period.EndDate,
		period.Status,
		period.CreatedAt,
		period.CreatedBy,
		period.LastUpdatedAt,
		period.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert period "+period.PeriodID, err)
	}
	return nil
}

// FindPeriodByID retrieves a single period scoped to the tenant.
func (r *PgxPeriodRepository) FindPeriodByID(ctx context.Context, tenantID string, periodID string) (*domain.AccountingPeriod, error) {
	query := `
		SELECT ` + periodColumns + `
		FROM accounting_periods
		WHERE tenant_id = $1 AND period_id = $2;
	`
	period, err := scanPeriod(r.Pool.QueryRow(ctx, query, tenantID, periodID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find period "+periodID, err)
	}
	return period, nil
}

// FindPeriodForDate locates the period whose [start, end) range contains the
// given effective date.
func (r *PgxPeriodRepository) FindPeriodForDate(ctx context.Context, tenantID string, date time.Time) (*domain.AccountingPeriod, error) {
	query := `
		SELECT ` + periodColumns + `
		FROM accounting_periods
		WHERE tenant_id = $1 AND start_date <= $2 AND $2 < end_date;
	`
	period, err := scanPeriod(r.Pool.QueryRow(ctx, query, tenantID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find period for date", err)
	}
	return period, nil
}

// ListPeriods returns all of the tenant's periods ordered by start date.
func (r *PgxPeriodRepository) ListPeriods(ctx context.Context, tenantID string) ([]domain.AccountingPeriod, error) {
	query := `
		SELECT ` + periodColumns + `
		FROM accounting_periods
		WHERE tenant_id = $1
		ORDER BY start_date;
	`
	rows, err := r.Pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list periods for tenant "+tenantID, err)
	}
	defer rows.Close()

	periods := []domain.AccountingPeriod{}
	for rows.Next() {
		period, scanErr := scanPeriod(rows)
		if scanErr != nil {
			return nil, apperrors.NewAppError(500, "failed to scan period row", scanErr)
		}
		periods = append(periods, *period)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating period rows", err)
	}
	return periods, nil
}

// TransitionPeriodStatus performs a compare-and-set on the period status.
//
// For the OPEN -> CLOSING transition it first locks the tenants row inside
// the same transaction. Appends hold that lock while committing, so this
// update waits until every admitted entry has committed or aborted; once it
// commits, later appends see CLOSING on their in-transaction status re-check
// and abort. That is the whole drain barrier.
func (r *PgxPeriodRepository) TransitionPeriodStatus(ctx context.Context, tenantID string, periodID string, from domain.PeriodStatus, to domain.PeriodStatus, updatedBy string, updatedAt time.Time) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	defer r.Rollback(ctx, tx)

	if from == domain.PeriodOpen && to == domain.PeriodClosing {
		cmdTag, err := tx.Exec(ctx, `
			UPDATE tenants SET last_updated_at = $2 WHERE tenant_id = $1;
		`, tenantID, updatedAt)
		if err != nil {
			return apperrors.NewAppError(500, "failed to lock tenant for period transition", err)
		}
		if cmdTag.RowsAffected() == 0 {
			return apperrors.ErrNotFound
		}
	}

	cmdTag, err := tx.Exec(ctx, `
		UPDATE accounting_periods
		SET status = $4, last_updated_at = $5, last_updated_by = $6
		WHERE tenant_id = $1 AND period_id = $2 AND status = $3;
	`, tenantID, periodID, from, to, updatedAt, updatedBy)
	if err != nil {
		return apperrors.NewAppError(500, "failed to transition period "+periodID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		// Either the period does not exist or its status moved under us.
		var current domain.PeriodStatus
		err := tx.QueryRow(ctx, `
			SELECT status FROM accounting_periods WHERE tenant_id = $1 AND period_id = $2;
		`, tenantID, periodID).Scan(&current)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.ErrNotFound
			}
			return apperrors.NewAppError(500, "failed to read period status "+periodID, err)
		}
		return apperrors.ErrConcurrentModification
	}

	return r.Commit(ctx, tx)
}

// SavePeriodEvent appends a close/reopen audit event.
func (r *PgxPeriodRepository) SavePeriodEvent(ctx context.Context, tenantID string, event domain.PeriodEvent) error {
	query := `
		INSERT INTO period_events (event_id, tenant_id, period_id, event_type, reason, occurred_at, actor_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := r.Pool.Exec(ctx, query,
		event.EventID,
		tenantID,
		event.PeriodID,
		event.EventType,
		event.Reason,
		event.OccurredAt,
		event.ActorID,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert period event "+event.EventID, err)
	}
	return nil
}

// ListPeriodEvents returns the audit trail of a period in occurrence order.
func (r *PgxPeriodRepository) ListPeriodEvents(ctx context.Context, tenantID string, periodID string) ([]domain.PeriodEvent, error) {
	query := `
		SELECT event_id, tenant_id, period_id, event_type, reason, occurred_at, actor_id
		FROM period_events
		WHERE tenant_id = $1 AND period_id = $2
		ORDER BY occurred_at;
	`
	rows, err := r.Pool.Query(ctx, query, tenantID, periodID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list period events for "+periodID, err)
	}
	defer rows.Close()

	events := []domain.PeriodEvent{}
	for rows.Next() {
		var e domain.PeriodEvent
		if err := rows.Scan(&e.EventID, &e.TenantID, &e.PeriodID, &e.EventType, &e.Reason, &e.OccurredAt, &e.ActorID); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan period event row", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating period event rows", err)
	}
	return events, nil
}

// SavePeriodBalances stores the closing balance snapshot. Snapshots are
// derived data: a later close of the same period (after reopen) overwrites.
func (r *PgxPeriodRepository) SavePeriodBalances(ctx context.Context, tenantID string, balances []domain.PeriodBalance) error {
	if len(balances) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, b := range balances {
		batch.Queue(`
			INSERT INTO period_balances (tenant_id, period_id, account_id, closing_balance, currency_code)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (tenant_id, period_id, account_id)
			DO UPDATE SET closing_balance = EXCLUDED.closing_balance, currency_code = EXCLUDED.currency_code;
		`, tenantID, b.PeriodID, b.AccountID, b.ClosingBalance.Amount, b.ClosingBalance.CurrencyCode)
	}
	if err := r.Pool.SendBatch(ctx, batch).Close(); err != nil {
		return apperrors.NewAppError(500, "failed to save period balance snapshot", err)
	}
	return nil
}

// ListPeriodBalances returns the closing balance snapshot of a period.
func (r *PgxPeriodRepository) ListPeriodBalances(ctx context.Context, tenantID string, periodID string) ([]domain.PeriodBalance, error) {
	query := `
		SELECT tenant_id, period_id, account_id, closing_balance, currency_code
		FROM period_balances
		WHERE tenant_id = $1 AND period_id = $2
		ORDER BY account_id;
	`
	rows, err := r.Pool.Query(ctx, query, tenantID, periodID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to list period balances for "+periodID, err)
	}
	defer rows.Close()

	balances := []domain.PeriodBalance{}
	for rows.Next() {
		var b domain.PeriodBalance
		if err := rows.Scan(&b.TenantID, &b.PeriodID, &b.AccountID, &b.ClosingBalance.Amount, &b.ClosingBalance.CurrencyCode); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan period balance row", err)
		}
		balances = append(balances, b)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating period balance rows", err)
	}
	return balances, nil
}

// scanPeriod reads one accounting period row.
func scanPeriod(row pgx.Row) (*domain.AccountingPeriod, error) {
	var p domain.AccountingPeriod
	err := row.Scan(
		&p.PeriodID,
		&p.TenantID,
		&p.Name,
		&p.StartDate,
		&p.EndDate,
		&p.Status,
		&p.CreatedAt,
		&p.CreatedBy,
		&p.LastUpdatedAt,
		&p.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
