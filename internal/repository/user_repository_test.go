package repository

import (
	"context"
	"testing"

	"github.com/L7NNON-loop/incutador-pro/internal/model"
	"github.com/L7NNON-loop/incutador-pro/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserCreateAndGet(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	user := &model.User{
		ID:       utils.MustGenerateID(),
		Email:    "ana@example.com",
		FullName: "Ana",
	}
	require.NoError(t, user.SetPassword("secret123"))
	require.NoError(t, repo.Create(ctx, user))

	got, err := repo.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.ID)
	assert.True(t, got.CheckPassword("secret123"))
	assert.False(t, got.CheckPassword("wrong"))

	byID, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "ana@example.com", byID.Email)
}

func TestUserEmailTaken(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	first := &model.User{ID: utils.MustGenerateID(), Email: "dup@example.com"}
	require.NoError(t, first.SetPassword("secret123"))
	require.NoError(t, repo.Create(ctx, first))

	second := &model.User{ID: utils.MustGenerateID(), Email: "dup@example.com"}
	require.NoError(t, second.SetPassword("other456"))
	assert.ErrorIs(t, repo.Create(ctx, second), ErrEmailTaken)
}

func TestUserMissing(t *testing.T) {
	repo := NewUserRepository(newTestDB(t))
	ctx := context.Background()

	got, err := repo.GetByEmail(ctx, "ghost@example.com")
	require.NoError(t, err)
	assert.Nil(t, got)

	byID, err := repo.GetByID(ctx, utils.MustGenerateID())
	require.NoError(t, err)
	assert.Nil(t, byID)
}

func TestSMSCreateAndHistory(t *testing.T) {
	repo := NewSMSRepository(newTestDB(t))
	ctx := context.Background()
	userID := utils.MustGenerateID()

	for _, status := range []string{
		model.SMSStatusPending,
		model.SMSStatusPending,
		model.SMSStatusSent,
	} {
		require.NoError(t, repo.Create(ctx, &model.SMSMessage{
			ID:          utils.MustGenerateID(),
			UserID:      userID,
			PhoneNumber: "+258841234567",
			Message:     "hello",
			Status:      status,
		}))
	}

	msgs, err := repo.ListByUser(ctx, userID, 10)
	require.NoError(t, err)
	assert.Len(t, msgs, 3)

	counts, err := repo.CountByStatus(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[model.SMSStatusPending])
	assert.Equal(t, int64(1), counts[model.SMSStatusSent])

	// Other users see nothing
	counts, err = repo.CountByStatus(ctx, utils.MustGenerateID())
	require.NoError(t, err)
	assert.Empty(t, counts)
}
