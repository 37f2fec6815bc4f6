// File: internal/notification/service.go
package notification

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"donation_share_backend/internal/common"
	"donation_share_backend/internal/shared"
)

// Service is the donor-facing work queue: listing outstanding requests and
// applying the donor's decision back onto the listing.
type Service struct {
	repo     Repository
	resolver shared.ProductResolver
	logger   *zap.Logger
}

// NewService creates a new notification service.
func NewService(repo Repository, resolver shared.ProductResolver, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		resolver: resolver,
		logger:   logger.Named("notification_service"),
	}
}

// ListForDonor returns the donor's queue newest first, each entry enriched
// with a snapshot of the listing it concerns. A snapshot that cannot be
// resolved (listing purged between queries) is returned without one rather
// than failing the whole page.
func (s *Service) ListForDonor(ctx context.Context, donorID string, page common.PaginationQuery) ([]NotificationResponse, *common.Pagination, error) {
	notifs, pagination, err := s.repo.ListForDonor(ctx, donorID, page)
	if err != nil {
		return nil, nil, err
	}

	responses := make([]NotificationResponse, 0, len(notifs))
	for i := range notifs {
		n := &notifs[i]
		resp := NotificationResponse{
			ID:          n.ID,
			ProductID:   n.ProductID,
			RequesterID: n.RequesterID,
			Message:     n.Message,
			IsRead:      n.IsRead,
			CreatedAt:   n.CreatedAt,
		}
		snapshot, err := s.resolver.Snapshot(ctx, n.ProductID)
		if err != nil {
			s.logger.Warn("Could not resolve product for notification",
				zap.String("notificationID", n.ID.String()),
				zap.String("productID", n.ProductID.String()),
				zap.Error(err))
		} else {
			resp.Product = snapshot
		}
		responses = append(responses, resp)
	}

	return responses, pagination, nil
}

// MarkRead flags a notification as seen without consuming it.
func (s *Service) MarkRead(ctx context.Context, donorID string, id uuid.UUID) error {
	notif, err := s.repo.FindByIDForDonor(ctx, id, donorID)
	if err != nil {
		return err
	}
	return s.repo.MarkRead(ctx, notif.ID)
}

// Respond applies the donor's decision to the listing, then consumes the work
// item. The decision lands on the product first, so a crash between the two
// steps leaves a re-respondable notification rather than a lost decision; the
// product transition itself is idempotent on retry.
func (s *Service) Respond(ctx context.Context, donorID string, id uuid.UUID, decision shared.Decision) (*shared.ProductSnapshot, error) {
	if !decision.Valid() {
		return nil, common.ErrBadRequest.WithDetails("decision must be 'accept' or 'decline'.")
	}

	notif, err := s.repo.FindByIDForDonor(ctx, id, donorID)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.resolver.ApplyRequestDecision(ctx, notif.ProductID, decision)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Delete(ctx, notif.ID); err != nil {
		s.logger.Error("Decision applied but notification not consumed",
			zap.String("notificationID", notif.ID.String()),
			zap.String("productID", notif.ProductID.String()),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Donor responded to request",
		zap.String("notificationID", notif.ID.String()),
		zap.String("productID", notif.ProductID.String()),
		zap.String("decision", string(decision)))
	return snapshot, nil
}
