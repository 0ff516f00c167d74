package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	vo "ecowallet/internal/common/value_objects"
	"ecowallet/internal/wallet/domain"
)

// AccountRepository implements domain.AccountRepository using PostgreSQL.
// Campaign credits live in their own table and are rewritten on every save.
type AccountRepository struct {
	db Executor
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db Executor) *AccountRepository {
	return &AccountRepository{db: db}
}

// Save persists an account and its campaign credits.
// Uses optimistic locking via version column to prevent concurrent modification conflicts.
func (r *AccountRepository) Save(ctx context.Context, account *domain.Account) error {
	if account.UserID.IsEmpty() {
		return domain.ErrEmptyUserID
	}
	eco := account.Eco
	next := account.Version + 1

	if account.Version == 0 {
		tag, err := r.db.Exec(ctx, `
			INSERT INTO wallet.accounts (
				user_id, regular_balance,
				forest_area, water_saved, co2_reduction, total_donation, monthly_donation,
				target_forest_area, target_water_saved, target_co2_reduction,
				version, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (user_id) DO NOTHING`,
			account.UserID.String(), account.RegularBalance,
			floatToNumeric(eco.ForestArea), eco.WaterSaved, eco.Co2Reduction, eco.TotalDonation, eco.MonthlyDonation,
			floatToNumeric(eco.EcoTargets.ForestArea), eco.EcoTargets.WaterSaved, eco.EcoTargets.Co2Reduction,
			next, account.CreatedAt, account.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert account: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrOptimisticLock
		}
	} else {
		tag, err := r.db.Exec(ctx, `
			UPDATE wallet.accounts
			SET regular_balance = $1,
				forest_area = $2,
				water_saved = $3,
				co2_reduction = $4,
				total_donation = $5,
				monthly_donation = $6,
				target_forest_area = $7,
				target_water_saved = $8,
				target_co2_reduction = $9,
				version = $10,
				updated_at = $11
			WHERE user_id = $12 AND version = $13`,
			account.RegularBalance,
			floatToNumeric(eco.ForestArea), eco.WaterSaved, eco.Co2Reduction, eco.TotalDonation, eco.MonthlyDonation,
			floatToNumeric(eco.EcoTargets.ForestArea), eco.EcoTargets.WaterSaved, eco.EcoTargets.Co2Reduction,
			next, account.UpdatedAt,
			account.UserID.String(), account.Version,
		)
		if err != nil {
			return fmt.Errorf("update account: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrOptimisticLock
		}
	}

	if err := r.saveCampaigns(ctx, account); err != nil {
		return err
	}
	account.Version = next
	return nil
}

func (r *AccountRepository) saveCampaigns(ctx context.Context, account *domain.Account) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM wallet.campaign_balances WHERE user_id = $1`, account.UserID.String()); err != nil {
		return fmt.Errorf("clear campaigns: %w", err)
	}
	for _, c := range account.Campaigns {
		_, err := r.db.Exec(ctx, `
			INSERT INTO wallet.campaign_balances (user_id, campaign_id, name, amount, expiry_date)
			VALUES ($1, $2, $3, $4, $5)`,
			account.UserID.String(), c.ID, c.Name, c.Amount, c.ExpiryDate,
		)
		if err != nil {
			return fmt.Errorf("insert campaign %s: %w", c.ID, err)
		}
	}
	return nil
}

// FindByUserID retrieves the account of a user with its campaign credits.
func (r *AccountRepository) FindByUserID(ctx context.Context, userID vo.UserID) (*domain.Account, error) {
	var (
		regular, water, co2, total, monthly int64
		targetWater, targetCo2              int64
		forest, targetForest                pgtype.Numeric
		version                             int64
		createdAt, updatedAt                time.Time
	)
	err := r.db.QueryRow(ctx, `
		SELECT regular_balance,
			   forest_area, water_saved, co2_reduction, total_donation, monthly_donation,
			   target_forest_area, target_water_saved, target_co2_reduction,
			   version, created_at, updated_at
		FROM wallet.accounts
		WHERE user_id = $1`,
		userID.String(),
	).Scan(
		&regular,
		&forest, &water, &co2, &total, &monthly,
		&targetForest, &targetWater, &targetCo2,
		&version, &createdAt, &updatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrWalletNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select account: %w", err)
	}

	forestArea, err := numericToFloat(forest)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid forest_area: %v", domain.ErrCorruptData, err)
	}
	targetForestArea, err := numericToFloat(targetForest)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid target_forest_area: %v", domain.ErrCorruptData, err)
	}

	campaigns, err := r.findCampaigns(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &domain.Account{
		UserID:         userID,
		RegularBalance: regular,
		Campaigns:      campaigns,
		Eco: domain.EcoState{
			ForestArea:      forestArea,
			WaterSaved:      water,
			Co2Reduction:    co2,
			TotalDonation:   total,
			MonthlyDonation: monthly,
			EcoTargets: domain.EcoTargets{
				ForestArea:   targetForestArea,
				WaterSaved:   targetWater,
				Co2Reduction: targetCo2,
			},
		},
		Version:   version,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

func (r *AccountRepository) findCampaigns(ctx context.Context, userID vo.UserID) ([]domain.CampaignBalance, error) {
	rows, err := r.db.Query(ctx, `
		SELECT campaign_id, name, amount, expiry_date
		FROM wallet.campaign_balances
		WHERE user_id = $1
		ORDER BY expiry_date, campaign_id`,
		userID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("select campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := []domain.CampaignBalance{}
	for rows.Next() {
		var c domain.CampaignBalance
		if err := rows.Scan(&c.ID, &c.Name, &c.Amount, &c.ExpiryDate); err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// Verify interface implementation.
var _ domain.AccountRepository = (*AccountRepository)(nil)
