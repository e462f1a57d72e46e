package api

import (
	"time"

	"account-service/internal/model"
)

// UserResponse 使用者資料，不含密碼哈希
// swagger:model api.UserResponse
type UserResponse struct {
	ID           int       `json:"id" example:"1"`
	UserID       *string   `json:"user_id" example:"0b7f8c3e-3f0e-4c3a-9b5e-0e6f3f7d9a11"`
	Name         string    `json:"name" example:"alice123"`
	EmailAddress *string   `json:"email_address" example:"a@example.com"`
	CreateAt     time.Time `json:"create_at" example:"2025-05-01T15:04:05Z"`
	UpdateAt     time.Time `json:"update_at" example:"2025-05-01T15:04:05Z"`
	OperationAt  time.Time `json:"operation_at" example:"2025-05-01T15:04:05Z"`
}

func NewUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:           u.ID,
		UserID:       u.ExternalID,
		Name:         u.Name,
		EmailAddress: u.Email,
		CreateAt:     u.CreatedAt,
		UpdateAt:     u.UpdatedAt,
		OperationAt:  u.OperationAt,
	}
}
