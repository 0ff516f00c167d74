package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	vo "ecowallet/internal/common/value_objects"
	"ecowallet/internal/wallet/domain"
)

// TransactionRepository implements domain.TransactionRepository using PostgreSQL.
// Optional sub-objects are stored as JSONB.
type TransactionRepository struct {
	db Executor
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db Executor) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `id, type, amount, description, occurred_at, eco_contribution, campaign_info, split_info`

// Save inserts or replaces a transaction.
func (r *TransactionRepository) Save(ctx context.Context, userID vo.UserID, tx domain.Transaction) error {
	if userID.IsEmpty() {
		return domain.ErrEmptyUserID
	}
	eco, err := jsonOrNull(tx.EcoContribution)
	if err != nil {
		return fmt.Errorf("marshal eco_contribution: %w", err)
	}
	campaign, err := jsonOrNull(tx.CampaignInfo)
	if err != nil {
		return fmt.Errorf("marshal campaign_info: %w", err)
	}
	split, err := jsonOrNull(tx.SplitInfo)
	if err != nil {
		return fmt.Errorf("marshal split_info: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO wallet.transactions (
			id, user_id, type, amount, description, occurred_at,
			eco_contribution, campaign_info, split_info
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE
		SET description = EXCLUDED.description,
			eco_contribution = EXCLUDED.eco_contribution,
			campaign_info = EXCLUDED.campaign_info,
			split_info = EXCLUDED.split_info
		WHERE wallet.transactions.user_id = EXCLUDED.user_id`,
		tx.ID.String(), userID.String(), string(tx.Type), tx.Amount, tx.Description, tx.Date,
		eco, campaign, split,
	)
	if err != nil {
		return fmt.Errorf("upsert transaction: %w", err)
	}
	return nil
}

// ListByUserID returns the history of a user, newest first.
func (r *TransactionRepository) ListByUserID(ctx context.Context, userID vo.UserID) ([]domain.Transaction, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM wallet.transactions
		WHERE user_id = $1
		ORDER BY occurred_at DESC, id`,
		userID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("select transactions: %w", err)
	}
	defer rows.Close()

	txs := []domain.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// FindByID returns ErrTransactionNotFound when no record exists.
func (r *TransactionRepository) FindByID(ctx context.Context, userID vo.UserID, id domain.TransactionID) (domain.Transaction, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM wallet.transactions
		WHERE user_id = $1 AND id = $2`,
		userID.String(), id.String(),
	)
	tx, err := scanTransaction(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Transaction{}, domain.ErrTransactionNotFound
	}
	return tx, err
}

// Delete returns ErrTransactionNotFound when no record exists.
func (r *TransactionRepository) Delete(ctx context.Context, userID vo.UserID, id domain.TransactionID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM wallet.transactions WHERE user_id = $1 AND id = $2`, userID.String(), id.String())
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

func scanTransaction(row pgx.Row) (domain.Transaction, error) {
	var (
		tx                   domain.Transaction
		id, typ              string
		eco, campaign, split []byte
	)
	if err := row.Scan(&id, &typ, &tx.Amount, &tx.Description, &tx.Date, &eco, &campaign, &split); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return tx, err
		}
		return tx, fmt.Errorf("scan transaction: %w", err)
	}

	parsed, err := domain.ParseTransactionID(id)
	if err != nil {
		return tx, fmt.Errorf("%w: %v", domain.ErrCorruptData, err)
	}
	tx.ID = parsed
	tx.Type = domain.TransactionType(typ)

	if tx.EcoContribution, err = jsonPtr[domain.EcoContribution](eco); err != nil {
		return tx, fmt.Errorf("%w: eco_contribution: %v", domain.ErrCorruptData, err)
	}
	if tx.CampaignInfo, err = jsonPtr[domain.CampaignInfo](campaign); err != nil {
		return tx, fmt.Errorf("%w: campaign_info: %v", domain.ErrCorruptData, err)
	}
	if tx.SplitInfo, err = jsonPtr[domain.SplitInfo](split); err != nil {
		return tx, fmt.Errorf("%w: split_info: %v", domain.ErrCorruptData, err)
	}
	return tx, nil
}

// Verify interface implementation.
var _ domain.TransactionRepository = (*TransactionRepository)(nil)
