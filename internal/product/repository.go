// File: internal/product/repository.go
package product

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"donation_share_backend/internal/common"
	"donation_share_backend/internal/notification"
)

// Repository defines the interface for product data operations.
//
// All lifecycle transitions are conditional single-statement updates: the
// WHERE clause re-checks the precondition, so two racing writers cannot both
// apply. Zero rows affected means the precondition no longer held; callers
// resolve that to NOT_FOUND or CONFLICT via a follow-up read.
type Repository interface {
	Create(ctx context.Context, product *Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	// Resubmit writes a donor edit and sends the row back to Pending, but only
	// while the row is still editable (Pending, Available, Rejected).
	Resubmit(ctx context.Context, product *Product) error

	// MarkRequested atomically flips Available -> Requested and inserts the
	// donor notification in the same transaction.
	MarkRequested(ctx context.Context, id uuid.UUID, requesterID string, now time.Time, notif *notification.Notification) error
	// MarkApproved flips Pending -> Available.
	MarkApproved(ctx context.Context, id uuid.UUID) error
	// MarkDelivered flips Requested -> Delivered, clearing requester fields.
	MarkDelivered(ctx context.Context, id uuid.UUID) error
	// MarkDeclined flips Requested -> Available, clearing requester fields and
	// starting the 24h urgency countdown.
	MarkDeclined(ctx context.Context, id uuid.UUID, now time.Time, deleteAt time.Time) error
	// MarkRejected soft-deletes: any non-terminal status -> Rejected.
	MarkRejected(ctx context.Context, id uuid.UUID) error

	HideFromAdmin(ctx context.Context, id uuid.UUID) error
	HideAllRejected(ctx context.Context) (int64, error)

	// ReleaseStaleRequests bulk-releases Requested rows whose request is older
	// than the cutoff back to Available.
	ReleaseStaleRequests(ctx context.Context, cutoff time.Time) (int64, error)
	// EscalateTier bulk-advances Available rows from one urgency tier to the
	// next when their flag time is at or before the cutoff.
	EscalateTier(ctx context.Context, from, to UrgencyTier, cutoff time.Time, deleteAt time.Time) (int64, error)
	FindPurgeable(ctx context.Context, now time.Time) ([]Product, error)
	HardDelete(ctx context.Context, id uuid.UUID) error

	ListByStatus(ctx context.Context, status Status, page common.PaginationQuery) ([]Product, *common.Pagination, error)
	ListByDonor(ctx context.Context, donorID string, page common.PaginationQuery) ([]Product, *common.Pagination, error)
	ListPendingForAdmin(ctx context.Context, page common.PaginationQuery) ([]Product, *common.Pagination, error)
	ListUrgentForAdmin(ctx context.Context, page common.PaginationQuery) ([]Product, *common.Pagination, error)
	ListApprovedForAdmin(ctx context.Context, page common.PaginationQuery) ([]Product, *common.Pagination, error)
}

type gormRepository struct {
	db *gorm.DB
}

// NewGORMRepository creates a new GORM product repository.
func NewGORMRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) Create(ctx context.Context, product *Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	var product Product
	err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrNotFound.WithDetails("Product not found.")
		}
		return nil, err
	}
	return &product, nil
}

func (r *gormRepository) Resubmit(ctx context.Context, product *Product) error {
	editable := []Status{StatusPending, StatusAvailable, StatusRejected}
	res := r.db.WithContext(ctx).Model(&Product{}).
		Where("id = ? AND status IN ?", product.ID, editable).
		Updates(map[string]interface{}{
			"image_path":       product.ImagePath,
			"name":             product.Name,
			"contact":          product.Contact,
			"email":            product.Email,
			"country":          product.Country,
			"city":             product.City,
			"district":         product.District,
			"description":      product.Description,
			"status":           StatusPending,
			"requester_id":     nil,
			"requested_at":     nil,
			"urgent_flag":      UrgencyNone,
			"urgent_flag_time": nil,
			"delete_at":        nil,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to resubmit product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return r.resolveZeroRows(ctx, product.ID, "A requested or delivered listing cannot be edited.")
	}
	return nil
}

// resolveZeroRows distinguishes a vanished row from a precondition that no
// longer holds after a conditional update matched nothing.
func (r *gormRepository) resolveZeroRows(ctx context.Context, id uuid.UUID, conflictMsg string) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return common.ErrNotFound.WithDetails("Product not found.")
	}
	return common.ErrConflict.WithDetails(conflictMsg)
}

func (r *gormRepository) MarkRequested(ctx context.Context, id uuid.UUID, requesterID string, now time.Time, notif *notification.Notification) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The new claim supersedes any running urgency countdown; a later
		// decline restarts it at 24h. Leaving delete_at in place would let the
		// purge reap a row that is no longer Available.
		res := tx.Model(&Product{}).
			Where("id = ? AND status = ?", id, StatusAvailable).
			Updates(map[string]interface{}{
				"status":           StatusRequested,
				"requester_id":     requesterID,
				"requested_at":     now,
				"urgent_flag":      UrgencyNone,
				"urgent_flag_time": nil,
				"delete_at":        nil,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to mark product requested: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound // resolved below, outside the tx
		}
		if err := tx.Create(notif).Error; err != nil {
			return fmt.Errorf("failed to create request notification: %w", err)
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.resolveZeroRows(ctx, id, "Product is not available for request.")
	}
	return err
}

func (r *gormRepository) MarkApproved(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&Product{}).
		Where("id = ? AND status = ?", id, StatusPending).
		Update("status", StatusAvailable)
	if res.Error != nil {
		return fmt.Errorf("failed to approve product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return r.resolveZeroRows(ctx, id, "Product is not pending approval.")
	}
	return nil
}

func (r *gormRepository) MarkDelivered(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&Product{}).
		Where("id = ? AND status = ?", id, StatusRequested).
		Updates(map[string]interface{}{
			"status":           StatusDelivered,
			"requester_id":     nil,
			"requested_at":     nil,
			"urgent_flag":      UrgencyNone,
			"urgent_flag_time": nil,
			"delete_at":        nil,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to mark product delivered: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return r.resolveZeroRows(ctx, id, "Product has no active request to accept.")
	}
	return nil
}

func (r *gormRepository) MarkDeclined(ctx context.Context, id uuid.UUID, now time.Time, deleteAt time.Time) error {
	res := r.db.WithContext(ctx).Model(&Product{}).
		Where("id = ? AND status = ?", id, StatusRequested).
		Updates(map[string]interface{}{
			"status":           StatusAvailable,
			"requester_id":     nil,
			"requested_at":     nil,
			"urgent_flag":      Urgency24h,
			"urgent_flag_time": now,
			"delete_at":        deleteAt,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to decline product request: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return r.resolveZeroRows(ctx, id, "Product has no active request to decline.")
	}
	return nil
}

func (r *gormRepository) MarkRejected(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&Product{}).
		Where("id = ? AND status NOT IN ?", id, []Status{StatusDelivered, StatusRejected}).
		Updates(map[string]interface{}{
			"status":           StatusRejected,
			"requester_id":     nil,
			"requested_at":     nil,
			"urgent_flag":      UrgencyNone,
			"urgent_flag_time": nil,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to reject product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return r.resolveZeroRows(ctx, id, "Product cannot be rejected in its current state.")
	}
	return nil
}

// HideFromAdmin only applies to Rejected rows: there is no un-hide path, so
// hiding a live listing would silently drop it from the moderation queue.
func (r *gormRepository) HideFromAdmin(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&Product{}).
		Where("id = ? AND status = ?", id, StatusRejected).
		Update("is_hidden_from_admin", true)
	if res.Error != nil {
		return fmt.Errorf("failed to hide product: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return r.resolveZeroRows(ctx, id, "Only rejected products can be hidden.")
	}
	return nil
}

func (r *gormRepository) HideAllRejected(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Model(&Product{}).
		Where("status = ? AND is_hidden_from_admin = ?", StatusRejected, false).
		Update("is_hidden_from_admin", true)
	if res.Error != nil {
		return 0, fmt.Errorf("failed to hide rejected products: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *gormRepository) ReleaseStaleRequests(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&Product{}).
		Where("status = ? AND requested_at <= ?", StatusRequested, cutoff).
		Updates(map[string]interface{}{
			"status":       StatusAvailable,
			"requester_id": nil,
			"requested_at": nil,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to release stale requests: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *gormRepository) EscalateTier(ctx context.Context, from, to UrgencyTier, cutoff time.Time, deleteAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&Product{}).
		Where("status = ? AND urgent_flag = ? AND urgent_flag_time <= ?", StatusAvailable, from, cutoff).
		Updates(map[string]interface{}{
			"urgent_flag": to,
			"delete_at":   deleteAt,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to escalate urgency %s -> %s: %w", from, to, res.Error)
	}
	return res.RowsAffected, nil
}

func (r *gormRepository) FindPurgeable(ctx context.Context, now time.Time) ([]Product, error) {
	var products []Product
	err := r.db.WithContext(ctx).
		Where("delete_at IS NOT NULL AND delete_at <= ?", now).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find purgeable products: %w", err)
	}
	return products, nil
}

func (r *gormRepository) HardDelete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&Product{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// paginate runs the count+page query shared by all list methods, newest first.
func (r *gormRepository) paginate(query *gorm.DB, page common.PaginationQuery) ([]Product, *common.Pagination, error) {
	var totalItems int64
	if err := query.Count(&totalItems).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to count products: %w", err)
	}

	var products []Product
	err := query.Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&products).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list products: %w", err)
	}

	return products, common.NewPagination(totalItems, page.Page, page.PageSize), nil
}

func (r *gormRepository) ListByStatus(ctx context.Context, status Status, page common.PaginationQuery) ([]Product, *common.Pagination, error) {
	query := r.db.WithContext(ctx).Model(&Product{}).Where("status = ?", status)
	return r.paginate(query, page)
}

func (r *gormRepository) ListByDonor(ctx context.Context, donorID string, page common.PaginationQuery) ([]Product, *common.Pagination, error) {
	query := r.db.WithContext(ctx).Model(&Product{}).Where("donor_id = ?", donorID)
	return r.paginate(query, page)
}

func (r *gormRepository) ListPendingForAdmin(ctx context.Context, page common.PaginationQuery) ([]Product, *common.Pagination, error) {
	query := r.db.WithContext(ctx).Model(&Product{}).
		Where("status = ? AND is_hidden_from_admin = ?", StatusPending, false)
	return r.paginate(query, page)
}

func (r *gormRepository) ListUrgentForAdmin(ctx context.Context, page common.PaginationQuery) ([]Product, *common.Pagination, error) {
	query := r.db.WithContext(ctx).Model(&Product{}).
		Where("urgent_flag <> ? AND is_hidden_from_admin = ?", UrgencyNone, false)
	return r.paginate(query, page)
}

func (r *gormRepository) ListApprovedForAdmin(ctx context.Context, page common.PaginationQuery) ([]Product, *common.Pagination, error) {
	query := r.db.WithContext(ctx).Model(&Product{}).
		Where("status = ? AND is_hidden_from_admin = ?", StatusAvailable, false)
	return r.paginate(query, page)
}
