package notification

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"donation_share_backend/internal/common"
	"donation_share_backend/internal/shared"
)

// MockRepository is a mock type for notification.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, notif *Notification) error {
	args := m.Called(ctx, notif)
	return args.Error(0)
}

func (m *MockRepository) FindByIDForDonor(ctx context.Context, id uuid.UUID, donorID string) (*Notification, error) {
	args := m.Called(ctx, id, donorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Notification), args.Error(1)
}

func (m *MockRepository) ListForDonor(ctx context.Context, donorID string, page common.PaginationQuery) ([]Notification, *common.Pagination, error) {
	args := m.Called(ctx, donorID, page)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).([]Notification), args.Get(1).(*common.Pagination), args.Error(2)
}

func (m *MockRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRepository) DeleteByProductID(ctx context.Context, productID uuid.UUID) (int64, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(int64), args.Error(1)
}

// MockProductResolver is a mock type for shared.ProductResolver
type MockProductResolver struct {
	mock.Mock
}

func (m *MockProductResolver) Snapshot(ctx context.Context, id uuid.UUID) (*shared.ProductSnapshot, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.ProductSnapshot), args.Error(1)
}

func (m *MockProductResolver) ApplyRequestDecision(ctx context.Context, productID uuid.UUID, decision shared.Decision) (*shared.ProductSnapshot, error) {
	args := m.Called(ctx, productID, decision)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.ProductSnapshot), args.Error(1)
}

func newTestService() (*Service, *MockRepository, *MockProductResolver) {
	repo := new(MockRepository)
	resolver := new(MockProductResolver)
	return NewService(repo, resolver, zap.NewNop()), repo, resolver
}

func notificationFixture(donorID string) Notification {
	n := Notification{
		ProductID:   uuid.New(),
		DonorID:     donorID,
		RequesterID: "recipient-9",
		Message:     "Someone has requested your product: Winter Coat",
	}
	n.ID = uuid.New()
	return n
}

func TestListForDonor_ResolvesProductSnapshots(t *testing.T) {
	svc, repo, resolver := newTestService()
	n := notificationFixture("donor-1")

	repo.On("ListForDonor", mock.Anything, "donor-1", mock.Anything).
		Return([]Notification{n}, &common.Pagination{TotalItems: 1}, nil)
	resolver.On("Snapshot", mock.Anything, n.ProductID).
		Return(&shared.ProductSnapshot{ID: n.ProductID, Name: "Winter Coat", Status: "Requested"}, nil)

	responses, pagination, err := svc.ListForDonor(context.Background(), "donor-1", common.PaginationQuery{})

	assert.NoError(t, err)
	assert.Equal(t, int64(1), pagination.TotalItems)
	assert.Len(t, responses, 1)
	assert.NotNil(t, responses[0].Product)
	assert.Equal(t, "Winter Coat", responses[0].Product.Name)
}

func TestListForDonor_ToleratesUnresolvableProduct(t *testing.T) {
	svc, repo, resolver := newTestService()
	n := notificationFixture("donor-1")

	repo.On("ListForDonor", mock.Anything, "donor-1", mock.Anything).
		Return([]Notification{n}, &common.Pagination{TotalItems: 1}, nil)
	resolver.On("Snapshot", mock.Anything, n.ProductID).
		Return(nil, common.ErrNotFound.WithDetails("Product not found."))

	responses, _, err := svc.ListForDonor(context.Background(), "donor-1", common.PaginationQuery{})

	assert.NoError(t, err)
	assert.Len(t, responses, 1)
	assert.Nil(t, responses[0].Product)
	assert.Equal(t, n.Message, responses[0].Message)
}

func TestRespond_AppliesDecisionThenConsumes(t *testing.T) {
	svc, repo, resolver := newTestService()
	n := notificationFixture("donor-1")

	repo.On("FindByIDForDonor", mock.Anything, n.ID, "donor-1").Return(&n, nil)
	resolver.On("ApplyRequestDecision", mock.Anything, n.ProductID, shared.DecisionAccept).
		Return(&shared.ProductSnapshot{ID: n.ProductID, Status: "Delivered"}, nil)
	repo.On("Delete", mock.Anything, n.ID).Return(nil)

	snapshot, err := svc.Respond(context.Background(), "donor-1", n.ID, shared.DecisionAccept)

	assert.NoError(t, err)
	assert.Equal(t, "Delivered", snapshot.Status)
	repo.AssertExpectations(t)
	resolver.AssertExpectations(t)
}

func TestRespond_UnknownDecisionRejected(t *testing.T) {
	svc, repo, _ := newTestService()

	_, err := svc.Respond(context.Background(), "donor-1", uuid.New(), shared.Decision("maybe"))

	assert.True(t, common.HasCode(err, "BAD_REQUEST"))
	repo.AssertNotCalled(t, "FindByIDForDonor", mock.Anything, mock.Anything, mock.Anything)
}

func TestRespond_OtherDonorsQueueIsInvisible(t *testing.T) {
	svc, repo, resolver := newTestService()
	id := uuid.New()

	repo.On("FindByIDForDonor", mock.Anything, id, "intruder").
		Return(nil, common.ErrNotFound.WithDetails("Notification not found."))

	_, err := svc.Respond(context.Background(), "intruder", id, shared.DecisionDecline)

	assert.True(t, common.HasCode(err, "NOT_FOUND"))
	resolver.AssertNotCalled(t, "ApplyRequestDecision", mock.Anything, mock.Anything, mock.Anything)
}

func TestRespond_KeepsNotificationWhenDecisionFails(t *testing.T) {
	svc, repo, resolver := newTestService()
	n := notificationFixture("donor-1")

	repo.On("FindByIDForDonor", mock.Anything, n.ID, "donor-1").Return(&n, nil)
	resolver.On("ApplyRequestDecision", mock.Anything, n.ProductID, shared.DecisionDecline).
		Return(nil, common.ErrConflict.WithDetails("Product has no active request to decline."))

	_, err := svc.Respond(context.Background(), "donor-1", n.ID, shared.DecisionDecline)

	assert.True(t, common.HasCode(err, "CONFLICT"))
	repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
