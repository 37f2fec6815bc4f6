// File: internal/user/model.go
package user

import (
	"time"

	"donation_share_backend/internal/common"
)

// User is the minimal identity/role record. Identities are caller-supplied
// opaque strings; the record is upserted idempotently on first contact.
type User struct {
	common.BaseModel
	UserID string `gorm:"type:varchar(255);not null;uniqueIndex" json:"user_id"`
	Role   string `gorm:"type:varchar(50);not null" json:"role"`
}

// TableName specifies the table name for the User model.
func (User) TableName() string {
	return "users"
}

// --- DTOs ---

// RegisterUserRequest defines the payload for the idempotent upsert.
type RegisterUserRequest struct {
	UserID string `json:"user_id" binding:"required,max=255"`
	Role   string `json:"role" binding:"required,oneof=admin donor recipient"`
}

// UserResponse defines the structure for user data sent in API responses.
type UserResponse struct {
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// ToUserResponse converts a User model to a UserResponse DTO.
func ToUserResponse(u *User) UserResponse {
	return UserResponse{
		UserID:    u.UserID,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}
