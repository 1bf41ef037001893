package pgsql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/eduledger/school_ledger_app/internal/apperrors"
	"github.com/eduledger/school_ledger_app/internal/core/domain"
	portsrepo "github.com/eduledger/school_ledger_app/internal/core/ports/repositories"
	"github.com/eduledger/school_ledger_app/internal/utils/accounting"
	"github.com/eduledger/school_ledger_app/internal/utils/pagination"
)

// PgxLedgerRepository is the append-only ledger store backed by Postgres.
//
// Commit ordering relies on the tenants row: every append increments the
// tenant's last_sequence_no inside its transaction, which both assigns the
// sequence and serializes appends per tenant on the row lock. The period
// close barrier takes the same lock, so a close transition cannot commit
// while an admitted entry is still in flight.
type PgxLedgerRepository struct {
	BaseRepository
}

// newPgxLedgerRepository creates a new repository for journal entries and postings.
func newPgxLedgerRepository(pool *pgxpool.Pool) portsrepo.LedgerRepositoryFacade {
	return &PgxLedgerRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

var _ portsrepo.LedgerRepositoryFacade = (*PgxLedgerRepository)(nil)

// AppendEntry persists a validated entry and its postings atomically, assigns
// the tenant-scoped sequence number, and applies balance changes. A reversal
// additionally claims its original entry within the same transaction.
func (r *PgxLedgerRepository) AppendEntry(ctx context.Context, tenantID string, entry domain.JournalEntry, postings []domain.Posting, balanceChanges map[string]decimal.Decimal) (*domain.JournalEntry, error) {
	tx, err := r.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(ctx, tx)

	now := entry.CreatedAt
	userID := entry.CreatedBy

	// 1. Claim the next sequence number. This locks the tenant row for the
	// rest of the transaction, serializing appends within the tenant.
	var sequenceNo int64
	err = tx.QueryRow(ctx, `
		UPDATE tenants
		SET last_sequence_no = last_sequence_no + 1, last_updated_at = $2
		WHERE tenant_id = $1
		RETURNING last_sequence_no;
	`, tenantID, now).Scan(&sequenceNo)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to assign sequence number for tenant "+tenantID, err)
	}
	entry.SequenceNo = sequenceNo

	// 2. Re-check the period status. The service validated it as OPEN before
	// calling; a close may have committed since. Read-committed sees that
	// commit here, so the append fails instead of landing in a closed period.
	var periodStatus domain.PeriodStatus
	err = tx.QueryRow(ctx, `
		SELECT status FROM accounting_periods
		WHERE tenant_id = $1 AND period_id = $2;
	`, tenantID, entry.PeriodID).Scan(&periodStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to re-check period status for period "+entry.PeriodID, err)
	}
	if !periodStatus.AcceptsPostings() {
		return nil, apperrors.ErrConcurrentModification
	}

	// 3. Lock the touched accounts in a stable order and read their balances.
	accountIDs := make([]string, 0, len(balanceChanges))
	for accID := range balanceChanges {
		accountIDs = append(accountIDs, accID)
	}
	sort.Strings(accountIDs)

	lockedBalances := make(map[string]decimal.Decimal, len(accountIDs))
	lockedTypes := make(map[string]domain.AccountType, len(accountIDs))
	rows, err := tx.Query(ctx, `
		SELECT account_id, account_type, balance
		FROM accounts
		WHERE tenant_id = $1 AND account_id = ANY($2)
		ORDER BY account_id
		FOR UPDATE;
	`, tenantID, accountIDs)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to lock accounts for entry "+entry.EntryID, err)
	}
	for rows.Next() {
		var accID string
		var accType domain.AccountType
		var balance decimal.Decimal
		if err := rows.Scan(&accID, &accType, &balance); err != nil {
			rows.Close()
			return nil, apperrors.NewAppError(500, "failed to scan locked account row", err)
		}
		lockedBalances[accID] = balance
		lockedTypes[accID] = accType
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating locked account rows", err)
	}
	if len(lockedBalances) != len(accountIDs) {
		return nil, apperrors.ErrNotFound
	}

	// 4. Insert the entry row.
	_, err = tx.Exec(ctx, `
		INSERT INTO journal_entries (
			entry_id, tenant_id, period_id, sequence_no, entry_date, description,
			currency_code, status, original_entry_id, reversing_entry_id, amount,
			created_at, created_by, last_updated_at, last_updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15);
	`,
		entry.EntryID,
		tenantID,
		entry.PeriodID,
		entry.SequenceNo,
		entry.EntryDate,
		entry.Description,
		entry.CurrencyCode,
		entry.Status,
		entry.OriginalEntryID,
		entry.ReversingEntryID,
		entry.Amount,
		entry.CreatedAt,
		entry.CreatedBy,
		entry.LastUpdatedAt,
		entry.LastUpdatedBy,
	)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to insert journal entry "+entry.EntryID, err)
	}

	// 5. A reversal claims its original in the same transaction. The
	// conditional update only matches a still-POSTED original; zero rows
	// means a racing reversal won, and the whole append rolls back.
	if entry.OriginalEntryID != nil {
		cmdTag, err := tx.Exec(ctx, `
			UPDATE journal_entries
			SET status = $3, reversing_entry_id = $4, last_updated_at = $5, last_updated_by = $6
			WHERE tenant_id = $1 AND entry_id = $2 AND status = $7;
		`, tenantID, *entry.OriginalEntryID, domain.Reversed, entry.EntryID, now, userID, domain.Posted)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to mark entry reversed "+*entry.OriginalEntryID, err)
		}
		if cmdTag.RowsAffected() == 0 {
			return nil, fmt.Errorf("%w: entry %s is no longer open for reversal", apperrors.ErrConflict, *entry.OriginalEntryID)
		}
	}

	// 6. Apply balance changes.
	balanceBatch := &pgx.Batch{}
	for _, accID := range accountIDs {
		balanceBatch.Queue(`
			UPDATE accounts
			SET balance = balance + $3, last_updated_at = $4, last_updated_by = $5
			WHERE tenant_id = $1 AND account_id = $2;
		`, tenantID, accID, balanceChanges[accID], now, userID)
	}
	if err := tx.SendBatch(ctx, balanceBatch).Close(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to update account balances for entry "+entry.EntryID, err)
	}

	// 7. Insert postings with running balances, in deterministic order.
	sort.Slice(postings, func(i, j int) bool {
		return postings[i].PostingID < postings[j].PostingID
	})

	running := make(map[string]decimal.Decimal, len(lockedBalances))
	for accID, balance := range lockedBalances {
		running[accID] = balance
	}

	postingBatch := &pgx.Batch{}
	for i := range postings {
		p := &postings[i]
		signed, err := accounting.SignedAmount(*p, lockedTypes[p.AccountID])
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to compute signed amount for posting "+p.PostingID, err)
		}
		newBalance := running[p.AccountID].Add(signed)
		p.RunningBalance = newBalance
		running[p.AccountID] = newBalance

		postingBatch.Queue(`
			INSERT INTO postings (
				posting_id, entry_id, tenant_id, account_id, amount, side,
				currency_code, memo, running_balance,
				created_at, created_by, last_updated_at, last_updated_by
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
		`,
			p.PostingID, p.EntryID, tenantID, p.AccountID, p.Amount, p.Side,
			p.CurrencyCode, p.Memo, p.RunningBalance,
			p.CreatedAt, p.CreatedBy, p.LastUpdatedAt, p.LastUpdatedBy,
		)
	}
	if err := tx.SendBatch(ctx, postingBatch).Close(); err != nil {
		return nil, apperrors.NewAppError(500, "failed to insert postings for entry "+entry.EntryID, err)
	}

	if err := r.Commit(ctx, tx); err != nil {
		return nil, err
	}

	entry.Postings = postings
	return &entry, nil
}

// FindEntryByID retrieves a committed entry without its postings.
func (r *PgxLedgerRepository) FindEntryByID(ctx context.Context, tenantID string, entryID string) (*domain.JournalEntry, error) {
	query := `
		SELECT entry_id, tenant_id, period_id, sequence_no, entry_date, description,
		       currency_code, status, original_entry_id, reversing_entry_id, amount,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM journal_entries
		WHERE tenant_id = $1 AND entry_id = $2;
	`
	entry, err := scanEntry(r.Pool.QueryRow(ctx, query, tenantID, entryID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find journal entry "+entryID, err)
	}
	return entry, nil
}

// FindPostingsByEntryID retrieves the postings of a committed entry.
func (r *PgxLedgerRepository) FindPostingsByEntryID(ctx context.Context, tenantID string, entryID string) ([]domain.Posting, error) {
	query := `
		SELECT posting_id, entry_id, tenant_id, account_id, amount, side,
		       currency_code, memo, running_balance,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM postings
		WHERE tenant_id = $1 AND entry_id = $2
		ORDER BY posting_id;
	`
	rows, err := r.Pool.Query(ctx, query, tenantID, entryID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query postings for entry "+entryID, err)
	}
	defer rows.Close()

	return scanPostings(rows)
}

// ListEntries pages through a period's entries in commit order, keyed on the
// tenant-scoped sequence number.
func (r *PgxLedgerRepository) ListEntries(ctx context.Context, tenantID string, periodID string, limit int, nextToken *string) ([]domain.JournalEntry, *string, error) {
	if limit <= 0 {
		limit = 20
	}
	fetchLimit := limit + 1

	baseQuery := `
		SELECT entry_id, tenant_id, period_id, sequence_no, entry_date, description,
		       currency_code, status, original_entry_id, reversing_entry_id, amount,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM journal_entries
		WHERE tenant_id = $1 AND period_id = $2
	`
	orderByClause := `ORDER BY sequence_no ASC`

	args := []interface{}{tenantID, periodID}
	query := baseQuery
	if nextToken != nil && *nextToken != "" {
		lastSequence, decodeErr := pagination.DecodeSequenceToken(*nextToken)
		if decodeErr != nil {
			return nil, nil, apperrors.NewAppError(400, "invalid nextToken", decodeErr)
		}
		query += ` AND sequence_no > $3`
		args = append(args, lastSequence)
	}
	query += " " + orderByClause + " LIMIT $" + strconv.Itoa(len(args)+1) + ";"
	args = append(args, fetchLimit)

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, apperrors.NewAppError(500, "failed to query journal entries for period "+periodID, err)
	}
	defer rows.Close()

	entries := make([]domain.JournalEntry, 0, fetchLimit)
	for rows.Next() {
		entry, scanErr := scanEntry(rows)
		if scanErr != nil {
			return nil, nil, apperrors.NewAppError(500, "failed to scan journal entry row", scanErr)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, apperrors.NewAppError(500, "error iterating journal entry rows", err)
	}

	var nextTokenVal *string
	if len(entries) > limit {
		lastEntry := entries[limit-1]
		token := pagination.EncodeSequenceToken(lastEntry.SequenceNo)
		nextTokenVal = &token
		entries = entries[:limit]
	}

	if err := r.attachPostings(ctx, tenantID, entries); err != nil {
		return nil, nil, err
	}

	return entries, nextTokenVal, nil
}

// attachPostings bulk-loads the postings of the given entries.
func (r *PgxLedgerRepository) attachPostings(ctx context.Context, tenantID string, entries []domain.JournalEntry) error {
	if len(entries) == 0 {
		return nil
	}

	entryIDs := make([]string, len(entries))
	for i := range entries {
		entryIDs[i] = entries[i].EntryID
	}

	query := `
		SELECT posting_id, entry_id, tenant_id, account_id, amount, side,
		       currency_code, memo, running_balance,
		       created_at, created_by, last_updated_at, last_updated_by
		FROM postings
		WHERE tenant_id = $1 AND entry_id = ANY($2)
		ORDER BY entry_id, posting_id;
	`
	rows, err := r.Pool.Query(ctx, query, tenantID, entryIDs)
	if err != nil {
		return apperrors.NewAppError(500, "failed to query postings for entry batch", err)
	}
	defer rows.Close()

	postings, err := scanPostings(rows)
	if err != nil {
		return err
	}

	byEntry := make(map[string][]domain.Posting, len(entries))
	for _, p := range postings {
		byEntry[p.EntryID] = append(byEntry[p.EntryID], p)
	}
	for i := range entries {
		entries[i].Postings = byEntry[entries[i].EntryID]
	}
	return nil
}

// GetAccountBalance sums the account's postings up to and including asOf,
// signed by the account's normal balance side.
func (r *PgxLedgerRepository) GetAccountBalance(ctx context.Context, tenantID string, accountID string, asOf time.Time) (decimal.Decimal, error) {
	var accountType domain.AccountType
	err := r.Pool.QueryRow(ctx, `
		SELECT account_type FROM accounts
		WHERE tenant_id = $1 AND account_id = $2;
	`, tenantID, accountID).Scan(&accountType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, apperrors.ErrNotFound
		}
		return decimal.Zero, apperrors.NewAppError(500, "failed to find account "+accountID, err)
	}

	var balance decimal.Decimal
	err = r.Pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(CASE WHEN p.side = $4 THEN p.amount ELSE -p.amount END), 0)
		FROM postings p
		JOIN journal_entries e ON e.tenant_id = p.tenant_id AND e.entry_id = p.entry_id
		WHERE p.tenant_id = $1 AND p.account_id = $2 AND e.entry_date <= $3;
	`, tenantID, accountID, asOf, string(accountType.NormalBalance())).Scan(&balance)
	if err != nil {
		return decimal.Zero, apperrors.NewAppError(500, "failed to sum balance for account "+accountID, err)
	}
	return balance, nil
}

// SumAccountActivity aggregates per-account debit and credit totals for all
// postings within the period.
func (r *PgxLedgerRepository) SumAccountActivity(ctx context.Context, tenantID string, periodID string) ([]domain.AccountActivity, error) {
	query := `
		SELECT p.account_id,
		       COALESCE(SUM(p.amount) FILTER (WHERE p.side = 'DEBIT'), 0) AS total_debits,
		       COALESCE(SUM(p.amount) FILTER (WHERE p.side = 'CREDIT'), 0) AS total_credits
		FROM postings p
		JOIN journal_entries e ON e.tenant_id = p.tenant_id AND e.entry_id = p.entry_id
		WHERE p.tenant_id = $1 AND e.period_id = $2
		GROUP BY p.account_id
		ORDER BY p.account_id;
	`
	rows, err := r.Pool.Query(ctx, query, tenantID, periodID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to aggregate account activity for period "+periodID, err)
	}
	defer rows.Close()

	activity := []domain.AccountActivity{}
	for rows.Next() {
		var a domain.AccountActivity
		if err := rows.Scan(&a.AccountID, &a.TotalDebits, &a.TotalCredits); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan account activity row", err)
		}
		activity = append(activity, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating account activity rows", err)
	}
	return activity, nil
}

// SumLedgerTotals returns whole-ledger debit and credit totals for the tenant.
func (r *PgxLedgerRepository) SumLedgerTotals(ctx context.Context, tenantID string) (decimal.Decimal, decimal.Decimal, error) {
	var debits, credits decimal.Decimal
	err := r.Pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount) FILTER (WHERE side = 'DEBIT'), 0),
		       COALESCE(SUM(amount) FILTER (WHERE side = 'CREDIT'), 0)
		FROM postings
		WHERE tenant_id = $1;
	`, tenantID).Scan(&debits, &credits)
	if err != nil {
		return decimal.Zero, decimal.Zero, apperrors.NewAppError(500, "failed to sum ledger totals for tenant "+tenantID, err)
	}
	return debits, credits, nil
}

// scanEntry reads one journal entry row.
func scanEntry(row pgx.Row) (*domain.JournalEntry, error) {
	var e domain.JournalEntry
	var originalID, reversingID sql.NullString
	err := row.Scan(
		&e.EntryID,
		&e.TenantID,
		&e.PeriodID,
		&e.SequenceNo,
		&e.EntryDate,
		&e.Description,
		&e.CurrencyCode,
		&e.Status,
		&originalID,
		&reversingID,
		&e.Amount,
		&e.CreatedAt,
		&e.CreatedBy,
		&e.LastUpdatedAt,
		&e.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	if originalID.Valid {
		e.OriginalEntryID = &originalID.String
	}
	if reversingID.Valid {
		e.ReversingEntryID = &reversingID.String
	}
	return &e, nil
}

// scanPostings reads all posting rows from a result set.
func scanPostings(rows pgx.Rows) ([]domain.Posting, error) {
	postings := []domain.Posting{}
	for rows.Next() {
		var p domain.Posting
		if err := rows.Scan(
			&p.PostingID,
			&p.EntryID,
			&p.TenantID,
			&p.AccountID,
			&p.Amount,
			&p.Side,
			&p.CurrencyCode,
			&p.Memo,
			&p.RunningBalance,
			&p.CreatedAt,
			&p.CreatedBy,
			&p.LastUpdatedAt,
			&p.LastUpdatedBy,
		); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan posting row", err)
		}
		postings = append(postings, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating posting rows", err)
	}
	return postings, nil
}
