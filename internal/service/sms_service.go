package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/L7NNON-loop/incutador-pro/internal/model"
	"github.com/L7NNON-loop/incutador-pro/internal/utils"
)

// defaultSenderName is stamped on queued messages
const defaultSenderName = "Placar.sms"

// phonePattern matches Mozambican mobile numbers with an optional
// country prefix.
var phonePattern = regexp.MustCompile(`^(\+258|258)?[8][2-7]\d{7}$`)

// SMSStore is the persistence surface for queued messages
type SMSStore interface {
	Create(ctx context.Context, msg *model.SMSMessage) error
	ListByUser(ctx context.Context, userID int64, limit int) ([]model.SMSMessage, error)
	CountByStatus(ctx context.Context, userID int64) (map[string]int64, error)
}

// SMSService queues bulk SMS messages. Messages are persisted as
// pending only; delivery through an external provider is not wired up.
type SMSService struct {
	store SMSStore
}

// NewSMSService creates a new SMS service instance
func NewSMSService(store SMSStore) *SMSService {
	return &SMSService{store: store}
}

// Queue validates the recipient and persists a pending message
func (s *SMSService) Queue(ctx context.Context, userID int64, phoneNumber, message string) (*model.SMSMessage, error) {
	phoneNumber = strings.TrimSpace(phoneNumber)
	if !phonePattern.MatchString(phoneNumber) {
		return nil, fmt.Errorf("%w: use +258XXXXXXXXX or 258XXXXXXXXX", ErrInvalidPhoneNumber)
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	id, err := utils.GenerateID()
	if err != nil {
		return nil, err
	}
	msg := &model.SMSMessage{
		ID:          id,
		UserID:      userID,
		PhoneNumber: phoneNumber,
		Message:     utils.Truncate(message, 1024),
		SenderName:  defaultSenderName,
		Status:      model.SMSStatusPending,
	}
	if err := s.store.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// History returns the user's newest messages plus per-status counts
func (s *SMSService) History(ctx context.Context, userID int64, limit int) ([]model.SMSMessage, map[string]int64, error) {
	msgs, err := s.store.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, nil, err
	}
	counts, err := s.store.CountByStatus(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return msgs, counts, nil
}
