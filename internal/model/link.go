package model

import (
	"time"
)

// Link represents a shortened URL record
type Link struct {
	ID            int64      `gorm:"primaryKey" json:"id"`
	ShortCode     string     `gorm:"uniqueIndex;type:varchar(32);not null" json:"short_code"`
	OriginalURL   string     `gorm:"type:varchar(2048);not null" json:"original_url"`
	Clicks        uint64     `gorm:"default:0" json:"clicks"`
	CustomCode    bool       `gorm:"default:false" json:"custom_code"`
	QRCode        string     `gorm:"type:mediumtext" json:"qr_code,omitempty"`
	UserID        *int64     `gorm:"index" json:"user_id,omitempty"`
	CreditsUsed   int64      `gorm:"default:0" json:"credits_used"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	ExpiresAt     *time.Time `gorm:"index" json:"expires_at,omitempty"`
	LastClickedAt *time.Time `json:"last_clicked_at,omitempty"`
}

// TableName specifies the table name for Link
func (Link) TableName() string {
	return "links"
}

// IsExpired checks if the link is past its expiry time
func (l *Link) IsExpired() bool {
	if l.ExpiresAt == nil {
		return false
	}
	return time.Now().After(*l.ExpiresAt)
}

// ClickEvent represents one resolution of a short code.
// Rows are append-only; they are removed only via cascade when the
// parent link is deleted.
type ClickEvent struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	LinkID     int64     `gorm:"index;not null" json:"link_id"`
	ClickedAt  time.Time `gorm:"autoCreateTime;index" json:"clicked_at"`
	DeviceType string    `gorm:"type:varchar(32)" json:"device_type,omitempty"`
	Country    string    `gorm:"type:varchar(64)" json:"country,omitempty"`
	City       string    `gorm:"type:varchar(128)" json:"city,omitempty"`
	Referer    string    `gorm:"type:varchar(512)" json:"referer,omitempty"`
	UserAgent  string    `gorm:"type:varchar(512)" json:"user_agent,omitempty"`
	IP         string    `gorm:"type:varchar(45)" json:"ip,omitempty"`
}

// TableName specifies the table name for ClickEvent
func (ClickEvent) TableName() string {
	return "link_analytics"
}
