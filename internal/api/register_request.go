package api

// swagger:model api.RegisterRequest
type RegisterRequest struct {
	Username     string `json:"username" form:"username" validate:"min=5,max=20" example:"alice123"`
	Password     string `json:"password" form:"password" validate:"min=5" example:"secret1"`
	EmailAddress string `json:"email_address,omitempty" form:"email_address" validate:"omitempty,email" example:"a@example.com"`
}
