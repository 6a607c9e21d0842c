package model

import (
	"time"
)

// SMS delivery states. Messages are persisted as pending; delivery
// through an external provider is not integrated.
const (
	SMSStatusPending = "pending"
	SMSStatusSent    = "sent"
	SMSStatusFailed  = "failed"
)

// SMSMessage is a queued bulk-SMS record
type SMSMessage struct {
	ID          int64      `gorm:"primaryKey" json:"id"`
	UserID      int64      `gorm:"index;not null" json:"user_id"`
	PhoneNumber string     `gorm:"type:varchar(20);not null" json:"phone_number"`
	Message     string     `gorm:"type:varchar(1024);not null" json:"message"`
	SenderName  string     `gorm:"type:varchar(64)" json:"sender_name,omitempty"`
	Status      string     `gorm:"type:varchar(16);default:pending" json:"status"`
	CreditsUsed int64      `gorm:"default:0" json:"credits_used"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for SMSMessage
func (SMSMessage) TableName() string {
	return "sms_messages"
}
