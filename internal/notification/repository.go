// File: internal/notification/repository.go
package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"donation_share_backend/internal/common"
)

// Repository defines the interface for notification data operations.
type Repository interface {
	Create(ctx context.Context, notif *Notification) error
	FindByIDForDonor(ctx context.Context, id uuid.UUID, donorID string) (*Notification, error)
	ListForDonor(ctx context.Context, donorID string, page common.PaginationQuery) ([]Notification, *common.Pagination, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByProductID(ctx context.Context, productID uuid.UUID) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM notification repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, notif *Notification) error {
	if err := r.db.WithContext(ctx).Create(notif).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// FindByIDForDonor fetches a notification only if it belongs to the given
// donor. A row owned by someone else reads the same as a missing row, so the
// API does not leak queue contents across donors.
func (r *gormRepository) FindByIDForDonor(ctx context.Context, id uuid.UUID, donorID string) (*Notification, error) {
	var notif Notification
	err := r.db.WithContext(ctx).
		First(&notif, "id = ? AND donor_id = ?", id, donorID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Notification not found.")
		}
		return nil, err
	}
	return &notif, nil
}

func (r *gormRepository) ListForDonor(ctx context.Context, donorID string, page common.PaginationQuery) ([]Notification, *common.Pagination, error) {
	query := r.db.WithContext(ctx).Model(&Notification{}).Where("donor_id = ?", donorID)

	var totalItems int64
	if err := query.Count(&totalItems).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to count notifications: %w", err)
	}

	var notifs []Notification
	err := query.Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&notifs).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	return notifs, common.NewPagination(totalItems, page.Page, page.PageSize), nil
}

func (r *gormRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&Notification{}).
		Where("id = ?", id).
		Update("is_read", true)
	if res.Error != nil {
		return fmt.Errorf("failed to mark notification read: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return common.ErrNotFound.WithDetails("Notification not found.")
	}
	return nil
}

func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&Notification{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return nil
}

// DeleteByProductID removes all work items referencing a product, used when a
// listing is purged or rejected so no orphaned entries survive.
func (r *gormRepository) DeleteByProductID(ctx context.Context, productID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&Notification{}, "product_id = ?", productID)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete notifications for product: %w", res.Error)
	}
	return res.RowsAffected, nil
}
