package model

import (
	"time"
)

// RedeemCode is a promotional code exchangeable for credits
type RedeemCode struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	Code        string    `gorm:"uniqueIndex;type:varchar(64);not null" json:"code"`
	Credits     int64     `gorm:"not null" json:"credits"`
	MaxUses     *int64    `json:"max_uses,omitempty"`
	CurrentUses int64     `gorm:"default:0" json:"current_uses"`
	Active      bool      `gorm:"default:true" json:"active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for RedeemCode
func (RedeemCode) TableName() string {
	return "redeem_codes"
}

// Redemption records one successful redemption of a code by a user.
// The (user_id, code_id) pair is unique: a user can redeem a given
// code at most once, and the index is the authoritative guard.
type Redemption struct {
	ID              int64     `gorm:"primaryKey" json:"id"`
	UserID          int64     `gorm:"uniqueIndex:idx_user_code;not null" json:"user_id"`
	CodeID          int64     `gorm:"uniqueIndex:idx_user_code;not null" json:"code_id"`
	CreditsReceived int64     `gorm:"not null" json:"credits_received"`
	RedeemedAt      time.Time `gorm:"autoCreateTime" json:"redeemed_at"`
}

// TableName specifies the table name for Redemption
func (Redemption) TableName() string {
	return "code_redemptions"
}

// UserCredits holds the per-user credit balance. The balance is only
// ever changed inside the ledger transactions, never written directly.
type UserCredits struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	UserID    int64     `gorm:"uniqueIndex;not null" json:"user_id"`
	Credits   int64     `gorm:"default:0;not null" json:"credits"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName specifies the table name for UserCredits
func (UserCredits) TableName() string {
	return "user_credits"
}
