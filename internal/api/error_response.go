package api

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// ErrorResponse 全域錯誤響應模型
// swagger:model api.ErrorResponse
type ErrorResponse struct {
	Message string `json:"message" example:"Invalid credentials"`
}

// ValidationErrorResponse 欄位驗證失敗時的響應，errors 以 JSON 欄位名為 key
// swagger:model api.ValidationErrorResponse
type ValidationErrorResponse struct {
	Message string            `json:"message" example:"validation failed"`
	Errors  map[string]string `json:"errors"`
}

// 對外訊息
const (
	MsgValidationFailed = "validation failed"
	MsgUsernameTaken    = "Username has already been taken"
	MsgHashFailed       = "Failed to hash password"
	MsgInvalidCreds     = "Invalid credentials"
	MsgLoginSuccessful  = "Login successful"
	MsgInternal         = "internal server error"
	MsgInvalidBody      = "invalid request body"
)

// fieldMessages 依 "struct.field" 對應欄位錯誤訊息
var fieldMessages = map[string]string{
	"RegisterRequest.Username":     "Username must be between 5 and 20 characters",
	"RegisterRequest.Password":     "Password must be at least 5 characters",
	"RegisterRequest.EmailAddress": "Email address is invalid",
	"LoginRequest.Username":        "Username cannot be empty",
	"LoginRequest.Password":        "Password cannot be empty",
}

// jsonNames 將 struct 欄位名轉為 JSON 欄位名
var jsonNames = map[string]string{
	"Username":     "username",
	"Password":     "password",
	"EmailAddress": "email_address",
}

// NewValidationErrorResponse 將 validator 錯誤轉為結構化響應；
// 非 validator.ValidationErrors 的錯誤歸入 "_" 欄位。
func NewValidationErrorResponse(err error) ValidationErrorResponse {
	resp := ValidationErrorResponse{Message: MsgValidationFailed, Errors: map[string]string{}}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		resp.Errors["_"] = err.Error()
		return resp
	}
	for _, fe := range verrs {
		name, ok := jsonNames[fe.StructField()]
		if !ok {
			name = fe.Field()
		}
		msg, ok := fieldMessages[structName(fe.StructNamespace())]
		if !ok {
			msg = fe.Error()
		}
		resp.Errors[name] = msg
	}
	return resp
}

// structName 取 namespace 最後兩段，例如 "RegisterRequest.Username"
func structName(ns string) string {
	dots := 0
	for i := len(ns) - 1; i >= 0; i-- {
		if ns[i] == '.' {
			dots++
			if dots == 2 {
				return ns[i+1:]
			}
		}
	}
	return ns
}
