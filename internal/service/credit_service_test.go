package service

import (
	"context"
	"testing"

	"github.com/L7NNON-loop/incutador-pro/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLedger returns a scripted outcome or error per code
type fakeLedger struct {
	outcomes map[string]*repository.RedeemOutcome
	errs     map[string]error
	balances map[int64]int64
	lastCase bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		outcomes: make(map[string]*repository.RedeemOutcome),
		errs:     make(map[string]error),
		balances: make(map[int64]int64),
	}
}

func (f *fakeLedger) Redeem(ctx context.Context, userID int64, codeText string, caseInsensitive bool) (*repository.RedeemOutcome, error) {
	f.lastCase = caseInsensitive
	if err, ok := f.errs[codeText]; ok {
		return nil, err
	}
	if outcome, ok := f.outcomes[codeText]; ok {
		return outcome, nil
	}
	return nil, repository.ErrCodeNotFound
}

func (f *fakeLedger) Spend(ctx context.Context, userID, amount int64) error {
	if f.balances[userID] < amount {
		return repository.ErrInsufficientCredits
	}
	f.balances[userID] -= amount
	return nil
}

func (f *fakeLedger) GetBalance(ctx context.Context, userID int64) (int64, error) {
	return f.balances[userID], nil
}

func (f *fakeLedger) CreateBalance(ctx context.Context, userID, initial int64) error {
	f.balances[userID] = initial
	return nil
}

func TestRedeemSuccess(t *testing.T) {
	ledger := newFakeLedger()
	ledger.outcomes["Madara"] = &repository.RedeemOutcome{CreditsReceived: 10, TotalCredits: 10}
	notifier := &fakeNotifier{}
	svc := NewCreditService(ledger, notifier, true, 10)

	result, err := svc.Redeem(context.Background(), 1, "Madara")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Code redeemed successfully!", result.Message)
	assert.Equal(t, int64(10), result.CreditsReceived)
	assert.Equal(t, int64(10), result.TotalCredits)
	assert.True(t, ledger.lastCase)
	assert.Equal(t, "user_credits", notifier.lastChange().Table)
}

func TestRedeemRejections(t *testing.T) {
	ledger := newFakeLedger()
	ledger.errs["retired"] = repository.ErrCodeInactive
	ledger.errs["full"] = repository.ErrCodeExhausted
	ledger.errs["again"] = repository.ErrAlreadyRedeemed
	svc := NewCreditService(ledger, &fakeNotifier{}, false, 10)
	ctx := context.Background()

	tests := []struct {
		code string
		want string
	}{
		{"", "Code is required"},
		{"nope", "Invalid or inactive code"},
		{"retired", "Invalid or inactive code"},
		{"full", "Code usage limit reached"},
		{"again", "You already redeemed this code"},
	}
	for _, tt := range tests {
		result, err := svc.Redeem(ctx, 1, tt.code)
		require.NoError(t, err, "code %q", tt.code)
		assert.False(t, result.Success, "code %q", tt.code)
		assert.Equal(t, tt.want, result.Message, "code %q", tt.code)
	}
}

func TestSignupBonusAndBalance(t *testing.T) {
	ledger := newFakeLedger()
	svc := NewCreditService(ledger, &fakeNotifier{}, true, 10)
	ctx := context.Background()

	require.NoError(t, svc.GrantSignupBonus(ctx, 5))

	balance, err := svc.Balance(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(10), balance)
}
