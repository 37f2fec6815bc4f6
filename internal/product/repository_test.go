package product

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"donation_share_backend/internal/common"
	"donation_share_backend/internal/notification"
)

func setupRepositoryTest(t *testing.T) (Repository, notification.Repository, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err, "Failed to open in-memory database")

	err = db.AutoMigrate(&Product{}, &notification.Notification{})
	require.NoError(t, err, "Failed to migrate test schema")

	return NewGORMRepository(db), notification.NewGORMRepository(db), db
}

func createProduct(t *testing.T, repo Repository, status Status, mutate func(*Product)) *Product {
	t.Helper()
	p := &Product{
		ImagePath: "products/test.jpg",
		Name:      "Test Item",
		Contact:   "555-0101",
		Email:     "donor@example.com",
		Country:   "Ethiopia",
		City:      "Addis Ababa",
		District:  "Bole",
		Status:    status,
		DonorID:   "donor-1",
	}
	if mutate != nil {
		mutate(p)
	}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestMarkRequested_TransitionsAndCreatesNotification(t *testing.T) {
	repo, notifRepo, _ := setupRepositoryTest(t)
	ctx := context.Background()
	p := createProduct(t, repo, StatusAvailable, nil)
	now := time.Now().UTC().Truncate(time.Second)

	notif := &notification.Notification{
		ProductID:   p.ID,
		DonorID:     p.DonorID,
		RequesterID: "recipient-9",
		Message:     "Someone has requested your product: Test Item",
	}
	err := repo.MarkRequested(ctx, p.ID, "recipient-9", now, notif)
	require.NoError(t, err)

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRequested, got.Status)
	require.NotNil(t, got.RequesterID)
	assert.Equal(t, "recipient-9", *got.RequesterID)
	require.NotNil(t, got.RequestedAt)

	notifs, _, err := notifRepo.ListForDonor(ctx, "donor-1", common.PaginationQuery{})
	require.NoError(t, err)
	require.Len(t, notifs, 1)
	assert.Equal(t, p.ID, notifs[0].ProductID)
}

func TestMarkRequested_SecondRequesterLoses(t *testing.T) {
	repo, notifRepo, _ := setupRepositoryTest(t)
	ctx := context.Background()
	p := createProduct(t, repo, StatusAvailable, nil)
	now := time.Now().UTC()

	first := &notification.Notification{ProductID: p.ID, DonorID: p.DonorID, RequesterID: "recipient-1", Message: "m"}
	require.NoError(t, repo.MarkRequested(ctx, p.ID, "recipient-1", now, first))

	second := &notification.Notification{ProductID: p.ID, DonorID: p.DonorID, RequesterID: "recipient-2", Message: "m"}
	err := repo.MarkRequested(ctx, p.ID, "recipient-2", now, second)
	assert.True(t, common.HasCode(err, "CONFLICT"))

	// The loser's notification must not exist.
	notifs, _, err := notifRepo.ListForDonor(ctx, "donor-1", common.PaginationQuery{})
	require.NoError(t, err)
	assert.Len(t, notifs, 1)

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "recipient-1", *got.RequesterID)
}

func TestMarkRequested_MissingProductIsNotFound(t *testing.T) {
	repo, _, _ := setupRepositoryTest(t)

	err := repo.MarkRequested(context.Background(), uuid.New(), "recipient-1", time.Now(), &notification.Notification{})
	assert.True(t, common.HasCode(err, "NOT_FOUND"))
}

func TestMarkApproved_OnlyFromPending(t *testing.T) {
	repo, _, _ := setupRepositoryTest(t)
	ctx := context.Background()
	p := createProduct(t, repo, StatusPending, nil)

	require.NoError(t, repo.MarkApproved(ctx, p.ID))

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAvailable, got.Status)

	// A second approval finds the row no longer Pending.
	err = repo.MarkApproved(ctx, p.ID)
	assert.True(t, common.HasCode(err, "CONFLICT"))
}

func TestMarkDeclined_ReleasesWithUrgency(t *testing.T) {
	repo, _, _ := setupRepositoryTest(t)
	ctx := context.Background()
	requester := "recipient-9"
	requestedAt := time.Now().UTC()
	p := createProduct(t, repo, StatusRequested, func(p *Product) {
		p.RequesterID = &requester
		p.RequestedAt = &requestedAt
	})

	now := time.Now().UTC().Truncate(time.Second)
	deleteAt := now.Add(24 * time.Hour)
	require.NoError(t, repo.MarkDeclined(ctx, p.ID, now, deleteAt))

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAvailable, got.Status)
	assert.Nil(t, got.RequesterID)
	assert.Nil(t, got.RequestedAt)
	assert.Equal(t, Urgency24h, got.UrgentFlag)
	require.NotNil(t, got.UrgentFlagTime)
	require.NotNil(t, got.DeleteAt)

	// Declining again must conflict, not restart the countdown.
	err = repo.MarkDeclined(ctx, p.ID, now.Add(time.Hour), deleteAt.Add(time.Hour))
	assert.True(t, common.HasCode(err, "CONFLICT"))
}

func TestMarkRequested_SupersedesUrgencyCountdown(t *testing.T) {
	repo, _, _ := setupRepositoryTest(t)
	ctx := context.Background()
	now := time.Now().UTC()

	// Declined 23 hours ago: one hour left on the purge deadline.
	flaggedAt := now.Add(-23 * time.Hour)
	deleteAt := now.Add(time.Hour)
	p := createProduct(t, repo, StatusAvailable, func(p *Product) {
		p.UrgentFlag = Urgency24h
		p.UrgentFlagTime = &flaggedAt
		p.DeleteAt = &deleteAt
	})

	notif := &notification.Notification{ProductID: p.ID, DonorID: p.DonorID, RequesterID: "recipient-9", Message: "m"}
	require.NoError(t, repo.MarkRequested(ctx, p.ID, "recipient-9", now, notif))

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRequested, got.Status)
	assert.Equal(t, UrgencyNone, got.UrgentFlag)
	assert.Nil(t, got.UrgentFlagTime)
	assert.Nil(t, got.DeleteAt)

	// Past the old deadline the claimed row must not be reaped.
	purgeable, err := repo.FindPurgeable(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, purgeable)
}

func TestMarkDelivered_ClearsRequesterFields(t *testing.T) {
	repo, _, _ := setupRepositoryTest(t)
	ctx := context.Background()
	requester := "recipient-9"
	requestedAt := time.Now().UTC()
	p := createProduct(t, repo, StatusRequested, func(p *Product) {
		p.RequesterID = &requester
		p.RequestedAt = &requestedAt
	})

	require.NoError(t, repo.MarkDelivered(ctx, p.ID))

	got, err := repo.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, got.Status)
	assert.Nil(t, got.RequesterID)
	assert.Nil(t, got.RequestedAt)
	assert.Equal(t, UrgencyNone, got.UrgentFlag)
	assert.Nil(t, got.DeleteAt)
}

func TestMarkDelivered_TerminalRowIsNeverPurgeable(t *testing.T) {
	repo, _, _ := setupRepositoryTest(t)
	ctx := context.Background()
	now := time.Now().UTC()

	// A stale delete_at left over from an earlier decline episode.
	requester := "recipient-9"
	requestedAt := now.Add(-time.Minute)
	deleteAt := now.Add(time.Hour)
	p := createProduct(t, repo, StatusRequested, func(p *Product) {
		p.RequesterID = &requester
		p.RequestedAt = &requestedAt
		p.DeleteAt = &deleteAt
	})

	require.NoError(t, repo.MarkDelivered(ctx, p.ID))

	purgeable, err := repo.FindPurgeable(ctx, now.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, purgeable)
}

func TestResubmit_OnlyEditableStatuses(t *testing.T) {
	repo, _, _ := setupRepositoryTest(t)
	ctx := context.Background()

	rejected := createProduct(t, repo, StatusRejected, func(p *Product) {
		now := time.Now().UTC()
		p.UrgentFlag = Urgency48h
		p.UrgentFlagTime = &now
		p.DeleteAt = &now
	})
	rejected.Name = "Edited Item"
	require.NoError(t, repo.Resubmit(ctx, rejected))

	got, err := repo.FindByID(ctx, rejected.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, "Edited Item", got.Name)
	assert.Equal(t, UrgencyNone, got.UrgentFlag)
	assert.Nil(t, got.UrgentFlagTime)
	assert.Nil(t, got.DeleteAt)

	requester := "recipient-9"
	requested := createProduct(t, repo, StatusRequested, func(p *Product) {
		p.RequesterID = &requester
	})
	err = repo.Resubmit(ctx, requested)
	assert.True(t, common.HasCode(err, "CONFLICT"))
}

func TestReleaseStaleRequests_OnlyPastCutoff(t *testing.T) {
	repo, _, _ := setupRepositoryTest(t)
	ctx := context.Background()
	now := time.Now().UTC()

	staleAt := now.Add(-45 * time.Minute)
	freshAt := now.Add(-5 * time.Minute)
	requester := "recipient-9"

	stale := createProduct(t, repo, StatusRequested, func(p *Product) {
		p.RequesterID = &requester
		p.RequestedAt = &staleAt
	})
	fresh := createProduct(t, repo, StatusRequested, func(p *Product) {
		p.RequesterID = &requester
		p.RequestedAt = &freshAt
	})

	count, err := repo.ReleaseStaleRequests(ctx, now.Add(-30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	gotStale, err := repo.FindByID(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAvailable, gotStale.Status)
	assert.Nil(t, gotStale.RequesterID)
	assert.Equal(t, UrgencyNone, gotStale.UrgentFlag)

	gotFresh, err := repo.FindByID(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRequested, gotFresh.Status)
}

func TestEscalateTier_MatchesTierAndCutoff(t *testing.T) {
	repo, _, _ := setupRepositoryTest(t)
	ctx := context.Background()
	now := time.Now().UTC()

	oldFlag := now.Add(-25 * time.Hour)
	newFlag := now.Add(-1 * time.Hour)

	due := createProduct(t, repo, StatusAvailable, func(p *Product) {
		p.UrgentFlag = Urgency24h
		p.UrgentFlagTime = &oldFlag
	})
	notDue := createProduct(t, repo, StatusAvailable, func(p *Product) {
		p.UrgentFlag = Urgency24h
		p.UrgentFlagTime = &newFlag
	})
	wrongStatus := createProduct(t, repo, StatusRequested, func(p *Product) {
		p.UrgentFlag = Urgency24h
		p.UrgentFlagTime = &oldFlag
	})

	deleteAt := now.Add(48 * time.Hour)
	count, err := repo.EscalateTier(ctx, Urgency24h, Urgency48h, now.Add(-24*time.Hour), deleteAt)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	gotDue, err := repo.FindByID(ctx, due.ID)
	require.NoError(t, err)
	assert.Equal(t, Urgency48h, gotDue.UrgentFlag)
	require.NotNil(t, gotDue.DeleteAt)

	gotNotDue, err := repo.FindByID(ctx, notDue.ID)
	require.NoError(t, err)
	assert.Equal(t, Urgency24h, gotNotDue.UrgentFlag)

	gotWrongStatus, err := repo.FindByID(ctx, wrongStatus.ID)
	require.NoError(t, err)
	assert.Equal(t, Urgency24h, gotWrongStatus.UrgentFlag)
}

func TestFindPurgeableAndHardDelete(t *testing.T) {
	repo, _, _ := setupRepositoryTest(t)
	ctx := context.Background()
	now := time.Now().UTC()

	expiredAt := now.Add(-time.Hour)
	futureAt := now.Add(time.Hour)

	expired := createProduct(t, repo, StatusAvailable, func(p *Product) {
		p.UrgentFlag = Urgency96h
		p.DeleteAt = &expiredAt
	})
	createProduct(t, repo, StatusAvailable, func(p *Product) {
		p.DeleteAt = &futureAt
	})
	createProduct(t, repo, StatusAvailable, nil)

	purgeable, err := repo.FindPurgeable(ctx, now)
	require.NoError(t, err)
	require.Len(t, purgeable, 1)
	assert.Equal(t, expired.ID, purgeable[0].ID)

	require.NoError(t, repo.HardDelete(ctx, expired.ID))
	_, err = repo.FindByID(ctx, expired.ID)
	assert.True(t, common.HasCode(err, "NOT_FOUND"))
}

func TestMarkRejected_And_HideAllRejected(t *testing.T) {
	repo, _, _ := setupRepositoryTest(t)
	ctx := context.Background()

	p1 := createProduct(t, repo, StatusAvailable, nil)
	p2 := createProduct(t, repo, StatusPending, nil)
	delivered := createProduct(t, repo, StatusDelivered, nil)

	require.NoError(t, repo.MarkRejected(ctx, p1.ID))
	require.NoError(t, repo.MarkRejected(ctx, p2.ID))
	err := repo.MarkRejected(ctx, delivered.ID)
	assert.True(t, common.HasCode(err, "CONFLICT"))

	count, err := repo.HideAllRejected(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// Idempotent: nothing left to hide.
	count, err = repo.HideAllRejected(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestHideFromAdmin_OnlyRejectedRows(t *testing.T) {
	repo, _, _ := setupRepositoryTest(t)
	ctx := context.Background()

	rejected := createProduct(t, repo, StatusRejected, nil)
	pending := createProduct(t, repo, StatusPending, nil)

	require.NoError(t, repo.HideFromAdmin(ctx, rejected.ID))

	// Hiding a live listing would drop it from the moderation queue for good.
	err := repo.HideFromAdmin(ctx, pending.ID)
	assert.True(t, common.HasCode(err, "CONFLICT"))

	err = repo.HideFromAdmin(ctx, uuid.New())
	assert.True(t, common.HasCode(err, "NOT_FOUND"))

	products, _, err := repo.ListPendingForAdmin(ctx, common.PaginationQuery{})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, pending.ID, products[0].ID)
}

func TestAdminLists_ExcludeHiddenRows(t *testing.T) {
	repo, _, _ := setupRepositoryTest(t)
	ctx := context.Background()

	visible := createProduct(t, repo, StatusPending, nil)
	createProduct(t, repo, StatusPending, func(p *Product) {
		p.IsHiddenFromAdmin = true
	})

	products, pagination, err := repo.ListPendingForAdmin(ctx, common.PaginationQuery{})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, visible.ID, products[0].ID)
	assert.Equal(t, int64(1), pagination.TotalItems)
}
