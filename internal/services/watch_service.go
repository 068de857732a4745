package services

import (
	"context"
	"errors"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"enstore_storefront/internal/models"
)

// TrackMeta is what the storefront knows about a purchase besides the API
// response.
type TrackMeta struct {
	ProductSlug   string
	ProductItemID uint
	PaymentMethod string
	CustomerEmail string
	CustomerNo    string
	CustomerPhone string
}

// WatchFilter narrows the ops listing.
type WatchFilter struct {
	Status  models.TransactionStatus
	Search  string
	Page    int
	PerPage int
}

// WatchService keeps the local mirror of transactions submitted through this
// storefront and publishes their status changes.
type WatchService struct {
	db     *gorm.DB
	events *EventPublisher
	now    func() time.Time
}

func NewWatchService(db *gorm.DB, events *EventPublisher) *WatchService {
	return &WatchService{db: db, events: events, now: time.Now}
}

// Track stores a newly created transaction. Tracking the same code twice is a
// no-op.
func (s *WatchService) Track(ctx context.Context, tx models.Transaction, meta TrackMeta) error {
	if tx.TransactionCode == "" {
		return errors.New("transaction code is required")
	}
	now := s.now()
	row := models.WatchedTransaction{
		TransactionCode: tx.TransactionCode,
		ProductSlug:     meta.ProductSlug,
		ProductItemID:   meta.ProductItemID,
		PaymentMethod:   meta.PaymentMethod,
		CustomerEmail:   meta.CustomerEmail,
		CustomerNo:      meta.CustomerNo,
		CustomerPhone:   meta.CustomerPhone,
		Status:          tx.Status,
		PaymentStatus:   tx.PaymentStatus,
		ExpiredAt:       tx.Payment.ExpiredAt,
		LastCheckedAt:   &now,
		Terminal:        tx.IsTerminal(),
	}
	if row.Status == "" {
		row.Status = models.TransactionPending
	}
	if row.CustomerNo == "" {
		row.CustomerNo = tx.CustomerNo
	}

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "transaction_code"}}, DoNothing: true}).
		Create(&row).Error
}

// Observe records a freshly fetched status. It returns true when the status
// changed, in which case a history row is written and an event published.
// Untracked codes are ignored.
func (s *WatchService) Observe(ctx context.Context, tx models.Transaction, source models.StatusSource) (bool, error) {
	var ev *StatusChangeEvent
	now := s.now()

	err := s.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		var row models.WatchedTransaction
		if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("transaction_code = ?", tx.TransactionCode).
			First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		updates := map[string]interface{}{
			"last_checked_at": now,
			"payment_status":  tx.PaymentStatus,
			"terminal":        tx.IsTerminal(),
		}
		if tx.Payment.ExpiredAt != nil {
			updates["expired_at"] = tx.Payment.ExpiredAt
		}

		changed := tx.Status != "" && (tx.Status != row.Status || tx.PaymentStatus != row.PaymentStatus)
		if tx.Status != "" {
			updates["status"] = tx.Status
		}
		if err := db.Model(&row).Updates(updates).Error; err != nil {
			return err
		}
		if !changed {
			return nil
		}

		history := models.TransactionStatusHistory{
			TransactionCode: row.TransactionCode,
			FromStatus:      row.Status,
			ToStatus:        tx.Status,
			PaymentStatus:   tx.PaymentStatus,
			Source:          source,
			ObservedAt:      now,
		}
		if err := db.Create(&history).Error; err != nil {
			return err
		}
		ev = &StatusChangeEvent{
			TransactionCode: row.TransactionCode,
			From:            row.Status,
			To:              tx.Status,
			PaymentStatus:   tx.PaymentStatus,
			Source:          source,
			ObservedAt:      now,
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if ev == nil {
		return false, nil
	}

	if err := s.events.PublishStatusChange(*ev); err != nil {
		log.Printf("publish status change %s: %v", ev.TransactionCode, err)
	}
	return true, nil
}

// DuePending returns non-terminal transactions not checked within staleAfter.
func (s *WatchService) DuePending(ctx context.Context, staleAfter time.Duration, limit int) ([]models.WatchedTransaction, error) {
	var rows []models.WatchedTransaction
	cutoff := s.now().Add(-staleAfter)
	err := s.db.WithContext(ctx).
		Where("terminal = ?", false).
		Where("last_checked_at IS NULL OR last_checked_at < ?", cutoff).
		Order("last_checked_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// PendingReceipts returns settled transactions whose buyer was not told yet.
func (s *WatchService) PendingReceipts(ctx context.Context, limit int) ([]models.WatchedTransaction, error) {
	var rows []models.WatchedTransaction
	err := s.db.WithContext(ctx).
		Where("terminal = ? AND notified = ?", true, false).
		Order("updated_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (s *WatchService) MarkNotified(ctx context.Context, code string) error {
	return s.db.WithContext(ctx).
		Model(&models.WatchedTransaction{}).
		Where("transaction_code = ?", code).
		Update("notified", true).Error
}

// Get loads a watched transaction with its history, oldest first.
func (s *WatchService) Get(ctx context.Context, code string) (*models.WatchedTransaction, error) {
	var row models.WatchedTransaction
	err := s.db.WithContext(ctx).
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("observed_at ASC")
		}).
		Where("transaction_code = ?", code).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// List pages through watched transactions, newest first.
func (s *WatchService) List(ctx context.Context, f WatchFilter) ([]models.WatchedTransaction, int64, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage <= 0 || f.PerPage > 100 {
		f.PerPage = 25
	}

	q := s.db.WithContext(ctx).Model(&models.WatchedTransaction{})
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("transaction_code LIKE ? OR customer_email LIKE ? OR customer_no LIKE ?", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.WatchedTransaction
	err := q.Order("created_at DESC").
		Offset((f.Page - 1) * f.PerPage).
		Limit(f.PerPage).
		Find(&rows).Error
	return rows, total, err
}
