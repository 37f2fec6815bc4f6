// File: internal/notification/model.go
package notification

import (
	"time"

	"github.com/google/uuid"

	"donation_share_backend/internal/common"
	"donation_share_backend/internal/shared"
)

// Notification is a pending-decision work item for a donor. One row exists
// per outstanding request; responding to it consumes (deletes) the row.
type Notification struct {
	common.BaseModel
	ProductID   uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	DonorID     string    `gorm:"type:varchar(255);not null;index" json:"donor_id"`
	RequesterID string    `gorm:"type:varchar(255);not null" json:"requester_id"`
	Message     string    `gorm:"type:text;not null" json:"message"`
	IsRead      bool      `gorm:"not null;default:false" json:"is_read"`
}

// TableName specifies the table name for GORM.
func (Notification) TableName() string {
	return "notifications"
}

// RespondRequest carries the donor's decision for a notification.
type RespondRequest struct {
	Decision shared.Decision `json:"decision" binding:"required,oneof=accept decline"`
}

// NotificationResponse is the API view of a work item, enriched with a
// snapshot of the product it concerns.
type NotificationResponse struct {
	ID          uuid.UUID               `json:"id"`
	ProductID   uuid.UUID               `json:"product_id"`
	RequesterID string                  `json:"requester_id"`
	Message     string                  `json:"message"`
	IsRead      bool                    `json:"is_read"`
	CreatedAt   time.Time               `json:"created_at"`
	Product     *shared.ProductSnapshot `json:"product,omitempty"`
}
