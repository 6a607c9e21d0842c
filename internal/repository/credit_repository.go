package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/L7NNON-loop/incutador-pro/internal/model"
	"github.com/L7NNON-loop/incutador-pro/internal/utils"
	"gorm.io/gorm"
)

// CreditRepository handles the credit ledger: balances, redeem codes
// and redemption records. Every mutation runs inside a transaction so
// no partial state is ever observable.
type CreditRepository struct {
	db *gorm.DB
}

// NewCreditRepository creates a new credit repository instance
func NewCreditRepository(db *gorm.DB) *CreditRepository {
	return &CreditRepository{db: db}
}

// RedeemOutcome reports a successful redemption
type RedeemOutcome struct {
	CreditsReceived int64
	TotalCredits    int64
}

// Redeem exchanges a promotional code for credits. All steps commit or
// roll back as a unit: the redemption insert (unique on user+code) is
// the idempotence guard, and the guarded usage increment enforces
// max_uses even under concurrent redemptions.
func (r *CreditRepository) Redeem(ctx context.Context, userID int64, codeText string, caseInsensitive bool) (*RedeemOutcome, error) {
	var outcome RedeemOutcome

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var code model.RedeemCode
		q := tx.Where("code = ?", codeText)
		if caseInsensitive {
			q = tx.Where("LOWER(code) = LOWER(?)", codeText)
		}
		if err := q.First(&code).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCodeNotFound
			}
			return fmt.Errorf("failed to look up redeem code: %w", err)
		}

		if !code.Active {
			return ErrCodeInactive
		}

		redemptionID, err := utils.GenerateID()
		if err != nil {
			return err
		}
		redemption := model.Redemption{
			ID:              redemptionID,
			UserID:          userID,
			CodeID:          code.ID,
			CreditsReceived: code.Credits,
		}
		if err := tx.Create(&redemption).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrAlreadyRedeemed
			}
			return fmt.Errorf("failed to record redemption: %w", err)
		}

		res := tx.Model(&model.RedeemCode{}).
			Where("id = ? AND (max_uses IS NULL OR current_uses < max_uses)", code.ID).
			UpdateColumn("current_uses", gorm.Expr("current_uses + ?", 1))
		if res.Error != nil {
			return fmt.Errorf("failed to increment code uses: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrCodeExhausted
		}

		if err := r.creditTx(tx, userID, code.Credits); err != nil {
			return err
		}

		var balance model.UserCredits
		if err := tx.Where("user_id = ?", userID).First(&balance).Error; err != nil {
			return fmt.Errorf("failed to read balance: %w", err)
		}

		outcome = RedeemOutcome{
			CreditsReceived: code.Credits,
			TotalCredits:    balance.Credits,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &outcome, nil
}

// creditTx adds amount to the user's balance inside tx, creating the
// balance row if the user has none yet.
func (r *CreditRepository) creditTx(tx *gorm.DB, userID, amount int64) error {
	res := tx.Model(&model.UserCredits{}).
		Where("user_id = ?", userID).
		UpdateColumn("credits", gorm.Expr("credits + ?", amount))
	if res.Error != nil {
		return fmt.Errorf("failed to credit balance: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	id, err := utils.GenerateID()
	if err != nil {
		return err
	}
	if err := tx.Create(&model.UserCredits{ID: id, UserID: userID, Credits: amount}).Error; err != nil {
		return fmt.Errorf("failed to create balance: %w", err)
	}
	return nil
}

// debitCredits subtracts amount from the user's balance. The guarded
// update only matches when the balance covers the debit, so concurrent
// debits can never drive the balance negative.
func debitCredits(tx *gorm.DB, userID, amount int64) error {
	res := tx.Model(&model.UserCredits{}).
		Where("user_id = ? AND credits >= ?", userID, amount).
		UpdateColumn("credits", gorm.Expr("credits - ?", amount))
	if res.Error != nil {
		return fmt.Errorf("failed to debit credits: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrInsufficientCredits
	}
	return nil
}

// Spend debits amount from the user's balance, rejecting debits the
// balance cannot cover.
func (r *CreditRepository) Spend(ctx context.Context, userID, amount int64) error {
	return debitCredits(r.db.WithContext(ctx), userID, amount)
}

// GetBalance returns the user's current credit balance (0 when the
// user has no balance row yet).
func (r *CreditRepository) GetBalance(ctx context.Context, userID int64) (int64, error) {
	var balance model.UserCredits
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&balance).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return balance.Credits, nil
}

// CreateBalance creates the initial balance row for a new user
func (r *CreditRepository) CreateBalance(ctx context.Context, userID, initial int64) error {
	id, err := utils.GenerateID()
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&model.UserCredits{
		ID:      id,
		UserID:  userID,
		Credits: initial,
	}).Error; err != nil {
		return fmt.Errorf("failed to create balance: %w", err)
	}
	return nil
}

// GetCodeByText fetches a redeem code row, mostly for tests and admin views
func (r *CreditRepository) GetCodeByText(ctx context.Context, codeText string) (*model.RedeemCode, error) {
	var code model.RedeemCode
	if err := r.db.WithContext(ctx).Where("code = ?", codeText).First(&code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, fmt.Errorf("failed to get redeem code: %w", err)
	}
	return &code, nil
}
