// File: internal/product/service.go
package product

import (
	"context"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"donation_share_backend/internal/common"
	"donation_share_backend/internal/config"
	"donation_share_backend/internal/notification"
	"donation_share_backend/internal/platform/clock"
	"donation_share_backend/internal/shared"
)

// Urgency escalation measures each threshold from the moment the countdown
// started (the donor's decline), not from the previous escalation.
const (
	escalateTo48hAfter = 24 * time.Hour
	escalateTo96hAfter = 48 * time.Hour

	lifetimeAt24h = 24 * time.Hour
	lifetimeAt48h = 48 * time.Hour
	lifetimeAt96h = 96 * time.Hour
)

const imageSubDir = "products"

// ImageStore abstracts the image persistence used by the lifecycle engine.
// Implemented by filestorage.Service.
type ImageStore interface {
	Save(fileHeader *multipart.FileHeader, subDir, label string) (string, error)
	Delete(relativePath string) error
}

// Service implements the product lifecycle: moderation, requesting, donor
// decisions, donor edits, and the time-driven sweeps.
type Service struct {
	repo      Repository
	notifRepo notification.Repository
	images    ImageStore
	clock     clock.Clock
	cfg       *config.Config
	logger    *zap.Logger
}

// NewService creates a new product service.
func NewService(
	repo Repository,
	notifRepo notification.Repository,
	images ImageStore,
	clk clock.Clock,
	cfg *config.Config,
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:      repo,
		notifRepo: notifRepo,
		images:    images,
		clock:     clk,
		cfg:       cfg,
		logger:    logger.Named("product_service"),
	}
}

// Submit stores the image and creates a new listing in Pending, awaiting
// admin moderation.
func (s *Service) Submit(ctx context.Context, donorID string, req SubmitProductRequest, image *multipart.FileHeader) (*ProductResponse, error) {
	if image == nil {
		return nil, common.ErrBadRequest.WithDetails("A product image is required.")
	}

	imagePath, err := s.images.Save(image, imageSubDir, req.Name)
	if err != nil {
		s.logger.Error("Failed to store product image", zap.String("donorID", donorID), zap.Error(err))
		return nil, common.ErrBadRequest.WithDetails(fmt.Sprintf("Could not store image: %v", err))
	}

	product := &Product{
		ImagePath:   imagePath,
		Name:        req.Name,
		Contact:     req.Contact,
		Email:       req.Email,
		Country:     req.Country,
		City:        req.City,
		District:    req.District,
		Description: req.Description,
		Status:      StatusPending,
		DonorID:     donorID,
		UrgentFlag:  UrgencyNone,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		// The listing never existed; do not leave its image behind.
		if delErr := s.images.Delete(imagePath); delErr != nil {
			s.logger.Warn("Failed to remove image after create failure", zap.String("imagePath", imagePath), zap.Error(delErr))
		}
		s.logger.Error("Failed to create product", zap.String("donorID", donorID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Product submitted for moderation",
		zap.String("productID", product.ID.String()),
		zap.String("donorID", donorID))

	resp := ToProductResponse(product, s.cfg.ImagePublicBaseURL)
	return &resp, nil
}

// GetByID fetches a single listing.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToProductResponse(product, s.cfg.ImagePublicBaseURL)
	return &resp, nil
}

// ListAvailable returns approved, requestable listings for the recipient view.
func (s *Service) ListAvailable(ctx context.Context, page common.PaginationQuery) ([]ProductResponse, *common.Pagination, error) {
	products, pagination, err := s.repo.ListByStatus(ctx, StatusAvailable, page)
	if err != nil {
		return nil, nil, err
	}
	return s.toResponses(products), pagination, nil
}

// ListByDonor returns all of a donor's own listings, any status.
func (s *Service) ListByDonor(ctx context.Context, donorID string, page common.PaginationQuery) ([]ProductResponse, *common.Pagination, error) {
	products, pagination, err := s.repo.ListByDonor(ctx, donorID, page)
	if err != nil {
		return nil, nil, err
	}
	return s.toResponses(products), pagination, nil
}

// ListForAdmin serves the moderation views. statusFilter "pending" shows the
// moderation queue, "urgent" shows escalated listings, empty shows approved
// listings. Rows hidden from admin are excluded everywhere.
func (s *Service) ListForAdmin(ctx context.Context, statusFilter string, page common.PaginationQuery) ([]ProductResponse, *common.Pagination, error) {
	var (
		products   []Product
		pagination *common.Pagination
		err        error
	)
	switch statusFilter {
	case "pending":
		products, pagination, err = s.repo.ListPendingForAdmin(ctx, page)
	case "urgent":
		products, pagination, err = s.repo.ListUrgentForAdmin(ctx, page)
	case "":
		products, pagination, err = s.repo.ListApprovedForAdmin(ctx, page)
	default:
		return nil, nil, common.ErrBadRequest.WithDetails("status must be 'pending' or 'urgent'.")
	}
	if err != nil {
		return nil, nil, err
	}
	return s.toResponses(products), pagination, nil
}

// Approve moves a Pending listing to Available. Any other state conflicts.
func (s *Service) Approve(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	if err := s.repo.MarkApproved(ctx, id); err != nil {
		return nil, err
	}
	s.logger.Info("Product approved", zap.String("productID", id.String()))
	return s.GetByID(ctx, id)
}

// Request claims an Available listing for a recipient. The transition and the
// donor's notification commit in one transaction, so a notification exists iff
// the claim succeeded.
func (s *Service) Request(ctx context.Context, id uuid.UUID, requesterID string) (*ProductResponse, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	notif := &notification.Notification{
		ProductID:   product.ID,
		DonorID:     product.DonorID,
		RequesterID: requesterID,
		Message:     fmt.Sprintf("Someone has requested your product: %s", product.Name),
	}

	now := s.clock.Now()
	if err := s.repo.MarkRequested(ctx, id, requesterID, now, notif); err != nil {
		return nil, err
	}

	s.logger.Info("Product requested",
		zap.String("productID", id.String()),
		zap.String("requesterID", requesterID))
	return s.GetByID(ctx, id)
}

// EditAndResubmit applies a donor's changes and sends the listing back through
// moderation. Only the owner may edit; a listing mid-request or already
// delivered cannot be edited.
func (s *Service) EditAndResubmit(ctx context.Context, id uuid.UUID, donorID string, req EditProductRequest, newImage *multipart.FileHeader) (*ProductResponse, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.DonorID != donorID {
		return nil, common.ErrForbidden.WithDetails("Only the listing's donor can edit it.")
	}
	if product.Status == StatusRequested || product.Status == StatusDelivered {
		return nil, common.ErrConflict.WithDetails("A requested or delivered listing cannot be edited.")
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Contact != nil {
		product.Contact = *req.Contact
	}
	if req.Email != nil {
		product.Email = *req.Email
	}
	if req.Country != nil {
		product.Country = *req.Country
	}
	if req.City != nil {
		product.City = *req.City
	}
	if req.District != nil {
		product.District = *req.District
	}
	if req.Description != nil {
		product.Description = *req.Description
	}

	oldImage := ""
	if newImage != nil {
		imagePath, err := s.images.Save(newImage, imageSubDir, product.Name)
		if err != nil {
			return nil, common.ErrBadRequest.WithDetails(fmt.Sprintf("Could not store image: %v", err))
		}
		oldImage = product.ImagePath
		product.ImagePath = imagePath
	}

	if err := s.repo.Resubmit(ctx, product); err != nil {
		if product.ImagePath != oldImage && oldImage != "" {
			if delErr := s.images.Delete(product.ImagePath); delErr != nil {
				s.logger.Warn("Failed to remove replacement image after edit failure",
					zap.String("imagePath", product.ImagePath), zap.Error(delErr))
			}
		}
		return nil, err
	}

	if oldImage != "" {
		if delErr := s.images.Delete(oldImage); delErr != nil {
			s.logger.Warn("Failed to remove replaced image",
				zap.String("imagePath", oldImage), zap.Error(delErr))
		}
	}

	s.logger.Info("Product edited and resubmitted",
		zap.String("productID", id.String()),
		zap.String("donorID", donorID))
	return s.GetByID(ctx, id)
}

// Reject soft-deletes a listing and clears any outstanding work items for it.
func (s *Service) Reject(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.MarkRejected(ctx, id); err != nil {
		return err
	}
	if removed, err := s.notifRepo.DeleteByProductID(ctx, id); err != nil {
		s.logger.Warn("Failed to clear notifications for rejected product",
			zap.String("productID", id.String()), zap.Error(err))
	} else if removed > 0 {
		s.logger.Info("Cleared notifications for rejected product",
			zap.String("productID", id.String()), zap.Int64("count", removed))
	}
	s.logger.Info("Product rejected", zap.String("productID", id.String()))
	return nil
}

// HideFromAdmin removes a listing from the moderation views without touching
// its lifecycle state.
func (s *Service) HideFromAdmin(ctx context.Context, id uuid.UUID) error {
	return s.repo.HideFromAdmin(ctx, id)
}

// HideAllRejected hides every visible rejected listing and returns how many
// were affected.
func (s *Service) HideAllRejected(ctx context.Context) (int64, error) {
	count, err := s.repo.HideAllRejected(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Info("Hid rejected products from admin view", zap.Int64("count", count))
	return count, nil
}

// --- shared.ProductResolver ---

// Snapshot returns the cross-package view of a listing.
func (s *Service) Snapshot(ctx context.Context, id uuid.UUID) (*shared.ProductSnapshot, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToSnapshot(product, s.cfg.ImagePublicBaseURL), nil
}

// ApplyRequestDecision applies a donor's accept or decline to the listing.
// Retries are idempotent: re-applying a decision that already took effect is
// a no-op success and never restarts the urgency countdown.
func (s *Service) ApplyRequestDecision(ctx context.Context, productID uuid.UUID, decision shared.Decision) (*shared.ProductSnapshot, error) {
	switch decision {
	case shared.DecisionAccept:
		if err := s.repo.MarkDelivered(ctx, productID); err != nil {
			if !s.alreadyApplied(ctx, productID, StatusDelivered, err) {
				return nil, err
			}
		}
		s.logger.Info("Request accepted, product delivered", zap.String("productID", productID.String()))
	case shared.DecisionDecline:
		now := s.clock.Now()
		if err := s.repo.MarkDeclined(ctx, productID, now, now.Add(lifetimeAt24h)); err != nil {
			if !s.alreadyApplied(ctx, productID, StatusAvailable, err) {
				return nil, err
			}
		}
		s.logger.Info("Request declined, product released with urgency", zap.String("productID", productID.String()))
	default:
		return nil, common.ErrBadRequest.WithDetails("decision must be 'accept' or 'decline'.")
	}

	return s.Snapshot(ctx, productID)
}

// alreadyApplied reports whether a CONFLICT from a decision update just means
// the decision already landed (retry), in which case it is not an error.
func (s *Service) alreadyApplied(ctx context.Context, id uuid.UUID, want Status, cause error) bool {
	if !common.HasCode(cause, "CONFLICT") {
		return false
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return false
	}
	return product.Status == want
}

// --- Sweeps ---

// ReleaseStaleRequests returns Requested listings whose claim has outlived the
// grace window back to Available. No urgency is applied and no notification is
// produced; the original work item remains for the donor.
func (s *Service) ReleaseStaleRequests(ctx context.Context) (int64, error) {
	cutoff := s.clock.Now().Add(-s.cfg.RequestGraceWindow)
	count, err := s.repo.ReleaseStaleRequests(ctx, cutoff)
	if err != nil {
		s.logger.Error("Stale request release failed", zap.Error(err))
		return 0, err
	}
	if count > 0 {
		s.logger.Info("Released stale requests", zap.Int64("count", count))
	}
	return count, nil
}

// EscalateUrgency advances urgency tiers for declined listings still waiting
// for a new request. Thresholds are measured from the original decline, so
// tiers advance 24h -> 48h at one day and 48h -> 96h at two days. Each step
// pushes the purge deadline out to the new tier's lifetime.
func (s *Service) EscalateUrgency(ctx context.Context) (int64, error) {
	now := s.clock.Now()
	var total int64

	// Escalate the older tier first so a row crossing both thresholds in one
	// pass is promoted a single step per pass.
	count, err := s.repo.EscalateTier(ctx, Urgency48h, Urgency96h, now.Add(-escalateTo96hAfter), now.Add(lifetimeAt96h))
	if err != nil {
		s.logger.Error("Urgency escalation 48h -> 96h failed", zap.Error(err))
		return total, err
	}
	total += count

	count, err = s.repo.EscalateTier(ctx, Urgency24h, Urgency48h, now.Add(-escalateTo48hAfter), now.Add(lifetimeAt48h))
	if err != nil {
		s.logger.Error("Urgency escalation 24h -> 48h failed", zap.Error(err))
		return total, err
	}
	total += count

	if total > 0 {
		s.logger.Info("Escalated urgency tiers", zap.Int64("count", total))
	}
	return total, nil
}

// PurgeExpired hard-deletes listings past their purge deadline, releasing the
// stored image and any notifications first. One bad row never aborts the pass.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	now := s.clock.Now()
	products, err := s.repo.FindPurgeable(ctx, now)
	if err != nil {
		s.logger.Error("Failed to query purgeable products", zap.Error(err))
		return 0, err
	}

	var purged int64
	for i := range products {
		p := &products[i]
		if p.ImagePath != "" {
			if err := s.images.Delete(p.ImagePath); err != nil {
				s.logger.Warn("Failed to release image during purge, continuing",
					zap.String("productID", p.ID.String()),
					zap.String("imagePath", p.ImagePath),
					zap.Error(err))
			}
		}
		if _, err := s.notifRepo.DeleteByProductID(ctx, p.ID); err != nil {
			s.logger.Warn("Failed to clear notifications during purge, continuing",
				zap.String("productID", p.ID.String()), zap.Error(err))
		}
		if err := s.repo.HardDelete(ctx, p.ID); err != nil {
			s.logger.Error("Failed to purge product",
				zap.String("productID", p.ID.String()), zap.Error(err))
			continue
		}
		purged++
	}

	if purged > 0 {
		s.logger.Info("Purged expired products", zap.Int64("count", purged))
	}
	return purged, nil
}

func (s *Service) toResponses(products []Product) []ProductResponse {
	responses := make([]ProductResponse, 0, len(products))
	for i := range products {
		responses = append(responses, ToProductResponse(&products[i], s.cfg.ImagePublicBaseURL))
	}
	return responses
}
