package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/L7NNON-loop/incutador-pro/internal/model"
	"gorm.io/gorm"
)

// LinkRepository handles database operations for links and click events
type LinkRepository struct {
	db *gorm.DB
}

// NewLinkRepository creates a new link repository instance
func NewLinkRepository(db *gorm.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

// Create inserts a new link. A unique-index violation on short_code is
// reported as ErrDuplicateShortCode so callers can regenerate or reject.
func (r *LinkRepository) Create(ctx context.Context, link *model.Link) error {
	if err := r.db.WithContext(ctx).Create(link).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateShortCode
		}
		return fmt.Errorf("failed to create link: %w", err)
	}
	return nil
}

// CreateCharged debits cost credits from the owner and inserts the link
// in a single transaction. Either both happen or neither does; an
// insufficient balance rejects the shortening outright.
func (r *LinkRepository) CreateCharged(ctx context.Context, link *model.Link, userID int64, cost int64) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := debitCredits(tx, userID, cost); err != nil {
			return err
		}
		link.UserID = &userID
		link.CreditsUsed = cost
		if err := tx.Create(link).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateShortCode
			}
			return fmt.Errorf("failed to create link: %w", err)
		}
		return nil
	})
	return err
}

// GetByShortCode retrieves a link by its short code. Lookup is an
// exact, case-sensitive match; missing rows return (nil, nil).
func (r *LinkRepository) GetByShortCode(ctx context.Context, shortCode string) (*model.Link, error) {
	var link model.Link
	if err := r.db.WithContext(ctx).Where("short_code = ?", shortCode).First(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}
	return &link, nil
}

// ExistsShortCode reports whether a short code is taken. This is the
// advisory pre-check for custom codes; the unique index remains the
// authoritative guard.
func (r *LinkRepository) ExistsShortCode(ctx context.Context, shortCode string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Link{}).
		Where("short_code = ?", shortCode).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check short code: %w", err)
	}
	return count > 0, nil
}

// IncrementClicks bumps the click counter and last-clicked timestamp
func (r *LinkRepository) IncrementClicks(ctx context.Context, shortCode string) error {
	now := time.Now()
	if err := r.db.WithContext(ctx).Model(&model.Link{}).
		Where("short_code = ?", shortCode).
		UpdateColumns(map[string]interface{}{
			"clicks":          gorm.Expr("clicks + ?", 1),
			"last_clicked_at": now,
		}).Error; err != nil {
		return fmt.Errorf("failed to increment clicks: %w", err)
	}
	return nil
}

// CreateClickEvent appends one analytics record
func (r *LinkRepository) CreateClickEvent(ctx context.Context, event *model.ClickEvent) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return fmt.Errorf("failed to create click event: %w", err)
	}
	return nil
}

// ListClickEvents returns the most recent click events for a link
func (r *LinkRepository) ListClickEvents(ctx context.Context, linkID int64, limit int) ([]model.ClickEvent, error) {
	var events []model.ClickEvent
	if err := r.db.WithContext(ctx).
		Where("link_id = ?", linkID).
		Order("clicked_at desc").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list click events: %w", err)
	}
	return events, nil
}

// ListRecent returns the newest anonymous links
func (r *LinkRepository) ListRecent(ctx context.Context, limit int) ([]model.Link, error) {
	var links []model.Link
	if err := r.db.WithContext(ctx).
		Where("user_id IS NULL").
		Order("created_at desc").
		Limit(limit).
		Find(&links).Error; err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	return links, nil
}

// ListByUser returns the newest links owned by a user
func (r *LinkRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]model.Link, error) {
	var links []model.Link
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at desc").
		Limit(limit).
		Find(&links).Error; err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	return links, nil
}

// Delete removes a link and its click events in one transaction.
// Returns the number of links deleted (0 when the code was unknown or
// not owned by ownerID).
func (r *LinkRepository) Delete(ctx context.Context, shortCode string, ownerID int64) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var link model.Link
		if err := tx.Where("short_code = ? AND user_id = ?", shortCode, ownerID).First(&link).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		if err := tx.Where("link_id = ?", link.ID).Delete(&model.ClickEvent{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Link{}, link.ID)
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete link: %w", err)
	}
	return deleted, nil
}

// DeleteExpired removes links whose expiry passed, cascading their
// click events. Returns the number of links removed.
func (r *LinkRepository) DeleteExpired(ctx context.Context) (int64, error) {
	var removed int64
	now := time.Now()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []int64
		if err := tx.Model(&model.Link{}).
			Where("expires_at IS NOT NULL AND expires_at <= ?", now).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Where("link_id IN ?", ids).Delete(&model.ClickEvent{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", ids).Delete(&model.Link{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired links: %w", err)
	}
	return removed, nil
}

// GetAllShortCodes retrieves every short code, used to warm the bloom filter
func (r *LinkRepository) GetAllShortCodes(ctx context.Context) ([]string, error) {
	var shortCodes []string
	if err := r.db.WithContext(ctx).Model(&model.Link{}).
		Pluck("short_code", &shortCodes).Error; err != nil {
		return nil, fmt.Errorf("failed to get all short codes: %w", err)
	}
	return shortCodes, nil
}

// SaveQRCode stores a rendered QR data URI on the link row
func (r *LinkRepository) SaveQRCode(ctx context.Context, linkID int64, dataURI string) error {
	if err := r.db.WithContext(ctx).Model(&model.Link{}).
		Where("id = ?", linkID).
		UpdateColumn("qr_code", dataURI).Error; err != nil {
		return fmt.Errorf("failed to save qr code: %w", err)
	}
	return nil
}
