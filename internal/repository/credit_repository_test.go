package repository

import (
	"context"
	"testing"

	"github.com/L7NNON-loop/incutador-pro/internal/model"
	"github.com/L7NNON-loop/incutador-pro/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedeemSeededCode(t *testing.T) {
	repo := NewCreditRepository(newTestDB(t))
	ctx := context.Background()
	userID := utils.MustGenerateID()

	outcome, err := repo.Redeem(ctx, userID, "EllonMusk", false)
	require.NoError(t, err)
	assert.Equal(t, int64(50), outcome.CreditsReceived)
	assert.Equal(t, int64(50), outcome.TotalCredits)

	code, err := repo.GetCodeByText(ctx, "EllonMusk")
	require.NoError(t, err)
	assert.Equal(t, int64(1), code.CurrentUses)

	// Second attempt fails and changes nothing
	_, err = repo.Redeem(ctx, userID, "EllonMusk", false)
	assert.ErrorIs(t, err, ErrAlreadyRedeemed)

	balance, err := repo.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), balance)

	code, err = repo.GetCodeByText(ctx, "EllonMusk")
	require.NoError(t, err)
	assert.Equal(t, int64(1), code.CurrentUses)
}

func TestRedeemAccumulates(t *testing.T) {
	repo := NewCreditRepository(newTestDB(t))
	ctx := context.Background()
	userID := utils.MustGenerateID()

	_, err := repo.Redeem(ctx, userID, "Madara", false)
	require.NoError(t, err)

	outcome, err := repo.Redeem(ctx, userID, "INC", false)
	require.NoError(t, err)
	assert.Equal(t, int64(2), outcome.CreditsReceived)
	assert.Equal(t, int64(12), outcome.TotalCredits)
}

func TestRedeemCaseInsensitive(t *testing.T) {
	repo := NewCreditRepository(newTestDB(t))
	ctx := context.Background()

	_, err := repo.Redeem(ctx, utils.MustGenerateID(), "ellonmusk", false)
	assert.ErrorIs(t, err, ErrCodeNotFound)

	outcome, err := repo.Redeem(ctx, utils.MustGenerateID(), "ellonmusk", true)
	require.NoError(t, err)
	assert.Equal(t, int64(50), outcome.CreditsReceived)
}

func TestRedeemUnknownAndInactive(t *testing.T) {
	db := newTestDB(t)
	repo := NewCreditRepository(db)
	ctx := context.Background()

	_, err := repo.Redeem(ctx, utils.MustGenerateID(), "nope", false)
	assert.ErrorIs(t, err, ErrCodeNotFound)

	require.NoError(t, db.Create(&model.RedeemCode{
		ID:      utils.MustGenerateID(),
		Code:    "retired",
		Credits: 5,
		Active:  false,
	}).Error)

	_, err = repo.Redeem(ctx, utils.MustGenerateID(), "retired", false)
	assert.ErrorIs(t, err, ErrCodeInactive)
}

func TestRedeemMaxUses(t *testing.T) {
	db := newTestDB(t)
	repo := NewCreditRepository(db)
	ctx := context.Background()

	maxUses := int64(1)
	require.NoError(t, db.Create(&model.RedeemCode{
		ID:      utils.MustGenerateID(),
		Code:    "limited",
		Credits: 5,
		MaxUses: &maxUses,
		Active:  true,
	}).Error)

	_, err := repo.Redeem(ctx, utils.MustGenerateID(), "limited", false)
	require.NoError(t, err)

	secondUser := utils.MustGenerateID()
	_, err = repo.Redeem(ctx, secondUser, "limited", false)
	assert.ErrorIs(t, err, ErrCodeExhausted)

	// The failed attempt rolled back entirely
	balance, err := repo.GetBalance(ctx, secondUser)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
}

func TestSpend(t *testing.T) {
	repo := NewCreditRepository(newTestDB(t))
	ctx := context.Background()
	userID := utils.MustGenerateID()

	require.NoError(t, repo.CreateBalance(ctx, userID, 10))
	require.NoError(t, repo.Spend(ctx, userID, 4))

	balance, err := repo.GetBalance(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(6), balance)

	err = repo.Spend(ctx, userID, 100)
	assert.ErrorIs(t, err, ErrInsufficientCredits)

	// A user with no balance row cannot spend either
	err = repo.Spend(ctx, utils.MustGenerateID(), 1)
	assert.ErrorIs(t, err, ErrInsufficientCredits)
}

func TestGetBalanceMissing(t *testing.T) {
	repo := NewCreditRepository(newTestDB(t))

	balance, err := repo.GetBalance(context.Background(), utils.MustGenerateID())
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
}
