package api

// swagger:model api.LoginRequest
type LoginRequest struct {
	Username string `json:"username" form:"username" validate:"required" example:"alice123"`
	Password string `json:"password" form:"password" validate:"required" example:"secret1"`
}
