package api

import "time"

// swagger:model api.LoginResponse
type LoginResponse struct {
	Token     string    `json:"token" example:"eyJhbGciOi..."`
	Message   string    `json:"message" example:"Login successful"`
	ExpiresAt time.Time `json:"expires_at" example:"2025-05-09T15:04:05Z"`
}
