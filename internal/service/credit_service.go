package service

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/L7NNON-loop/incutador-pro/internal/notify"
	"github.com/L7NNON-loop/incutador-pro/internal/repository"
)

// CreditLedger is the transactional ledger surface behind the service
type CreditLedger interface {
	Redeem(ctx context.Context, userID int64, codeText string, caseInsensitive bool) (*repository.RedeemOutcome, error)
	Spend(ctx context.Context, userID, amount int64) error
	GetBalance(ctx context.Context, userID int64) (int64, error)
	CreateBalance(ctx context.Context, userID, initial int64) error
}

// CreditService exposes the credit ledger: redemptions, balances and
// the signup bonus.
type CreditService struct {
	ledger          CreditLedger
	notifier        ChangePublisher
	caseInsensitive bool
	signupBonus     int64
}

// NewCreditService creates a new credit service instance
func NewCreditService(ledger CreditLedger, notifier ChangePublisher, caseInsensitive bool, signupBonus int64) *CreditService {
	return &CreditService{
		ledger:          ledger,
		notifier:        notifier,
		caseInsensitive: caseInsensitive,
		signupBonus:     signupBonus,
	}
}

// RedeemResult is the structured outcome of a redemption attempt
type RedeemResult struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	CreditsReceived int64  `json:"credits_received,omitempty"`
	TotalCredits    int64  `json:"total_credits,omitempty"`
}

// Redeem attempts to exchange a code for credits. Validation failures
// come back as Success=false with a reason and no mutation; only store
// or transport failures return a non-nil error.
func (s *CreditService) Redeem(ctx context.Context, userID int64, codeText string) (*RedeemResult, error) {
	codeText = strings.TrimSpace(codeText)
	if codeText == "" {
		return &RedeemResult{Success: false, Message: "Code is required"}, nil
	}

	outcome, err := s.ledger.Redeem(ctx, userID, codeText, s.caseInsensitive)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrCodeNotFound), errors.Is(err, repository.ErrCodeInactive):
			return &RedeemResult{Success: false, Message: "Invalid or inactive code"}, nil
		case errors.Is(err, repository.ErrCodeExhausted):
			return &RedeemResult{Success: false, Message: "Code usage limit reached"}, nil
		case errors.Is(err, repository.ErrAlreadyRedeemed):
			return &RedeemResult{Success: false, Message: "You already redeemed this code"}, nil
		default:
			return nil, err
		}
	}

	if err := s.notifier.Publish(ctx, notify.Change{Table: "user_credits", Action: "update"}); err != nil {
		log.Printf("credit: failed to publish change: %v", err)
	}

	return &RedeemResult{
		Success:         true,
		Message:         "Code redeemed successfully!",
		CreditsReceived: outcome.CreditsReceived,
		TotalCredits:    outcome.TotalCredits,
	}, nil
}

// Balance returns the user's current credits
func (s *CreditService) Balance(ctx context.Context, userID int64) (int64, error) {
	return s.ledger.GetBalance(ctx, userID)
}

// GrantSignupBonus seeds the initial balance for a new account
func (s *CreditService) GrantSignupBonus(ctx context.Context, userID int64) error {
	return s.ledger.CreateBalance(ctx, userID, s.signupBonus)
}
