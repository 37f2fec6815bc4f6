// File: internal/product/model.go
package product

import (
	"strings"
	"time"

	"donation_share_backend/internal/common"
	"donation_share_backend/internal/shared"
)

// --- Status state machine ---

type Status string

const (
	StatusPending   Status = "Pending"   // awaiting admin moderation
	StatusAvailable Status = "Available" // approved, requestable
	StatusRequested Status = "Requested" // claimed by exactly one requester
	StatusDelivered Status = "Delivered" // terminal
	StatusRejected  Status = "Rejected"  // soft-deleted by admin
)

// UrgencyTier is the escalating countdown applied to a listing released back
// to availability after a donor decline. Escalation is one-directional:
// none -> 24h -> 48h -> 96h, then purge.
type UrgencyTier string

const (
	UrgencyNone UrgencyTier = "none"
	Urgency24h  UrgencyTier = "24h"
	Urgency48h  UrgencyTier = "48h"
	Urgency96h  UrgencyTier = "96h"
)

// Product is a donated item listing.
//
// Invariants maintained by the service and the conditional repository updates:
// RequesterID/RequestedAt are set iff Status is Requested; UrgentFlag is only
// non-none while Available; DeleteAt only moves forward.
type Product struct {
	common.BaseModel
	ImagePath   string `gorm:"type:text;not null" json:"-"`
	Name        string `gorm:"type:varchar(255);not null" json:"name"`
	Contact     string `gorm:"type:varchar(100);not null" json:"contact"`
	Email       string `gorm:"type:varchar(255);not null" json:"email"`
	Country     string `gorm:"type:varchar(100);not null" json:"country"`
	City        string `gorm:"type:varchar(100);not null" json:"city"`
	District    string `gorm:"type:varchar(100);not null" json:"district"`
	Description string `gorm:"type:text" json:"description"`

	Status  Status `gorm:"type:varchar(20);not null;default:'Pending';index" json:"status"`
	DonorID string `gorm:"type:varchar(255);not null;index" json:"donor_id"`

	RequesterID *string    `gorm:"type:varchar(255)" json:"requester_id,omitempty"`
	RequestedAt *time.Time `json:"requested_at,omitempty"`

	UrgentFlag     UrgencyTier `gorm:"type:varchar(10);not null;default:'none'" json:"urgent_flag"`
	UrgentFlagTime *time.Time  `json:"urgent_flag_time,omitempty"`
	DeleteAt       *time.Time  `gorm:"index" json:"delete_at,omitempty"`

	IsHiddenFromAdmin bool `gorm:"not null;default:false" json:"is_hidden_from_admin"`
}

// TableName specifies the table name for GORM.
func (Product) TableName() string {
	return "products"
}

// --- DTOs for API ---

// SubmitProductRequest carries the multipart form fields for a new listing.
// The image itself arrives as a separate file part.
type SubmitProductRequest struct {
	Name        string `form:"productName" binding:"required,max=255"`
	Contact     string `form:"contact" binding:"required,max=100"`
	Email       string `form:"email" binding:"required,email,max=255"`
	Country     string `form:"country" binding:"required,max=100"`
	City        string `form:"city" binding:"required,max=100"`
	District    string `form:"district" binding:"required,max=100"`
	Description string `form:"description" binding:"omitempty"`
}

// EditProductRequest carries partial updates for a donor edit. A replacement
// image, if any, arrives as a file part.
type EditProductRequest struct {
	Name        *string `form:"productName" binding:"omitempty,max=255"`
	Contact     *string `form:"contact" binding:"omitempty,max=100"`
	Email       *string `form:"email" binding:"omitempty,email,max=255"`
	Country     *string `form:"country" binding:"omitempty,max=100"`
	City        *string `form:"city" binding:"omitempty,max=100"`
	District    *string `form:"district" binding:"omitempty,max=100"`
	Description *string `form:"description" binding:"omitempty"`
}

// RequestProductRequest identifies the recipient claiming a listing.
type RequestProductRequest struct {
	RequesterID string `json:"requester_id" binding:"required,max=255"`
}

// AdminListQuery filters the admin listing view. Pagination is bound
// separately via common.GetPaginationParams.
type AdminListQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=pending urgent"`
}

// ProductResponse is the API view of a listing.
type ProductResponse struct {
	Product
	ImageURL string `json:"image_url"`
}

// ToProductResponse resolves the stored image reference into a public URL.
func ToProductResponse(p *Product, imageBaseURL string) ProductResponse {
	resp := ProductResponse{Product: *p}
	if p.ImagePath != "" {
		resp.ImageURL = strings.TrimSuffix(imageBaseURL, "/") + "/" + strings.TrimPrefix(p.ImagePath, "/")
	}
	return resp
}

// ToSnapshot converts a product to the cross-package snapshot used by the
// notification read side.
func ToSnapshot(p *Product, imageBaseURL string) *shared.ProductSnapshot {
	resp := ToProductResponse(p, imageBaseURL)
	return &shared.ProductSnapshot{
		ID:          p.ID,
		Name:        p.Name,
		ImageURL:    resp.ImageURL,
		Status:      string(p.Status),
		DonorID:     p.DonorID,
		RequesterID: p.RequesterID,
		Country:     p.Country,
		City:        p.City,
		District:    p.District,
		CreatedAt:   p.CreatedAt,
	}
}
