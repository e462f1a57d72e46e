package users

import (
	"context"
	"errors"
	"net/http"

	"account-service/internal/api"
	"account-service/internal/database"
	"account-service/internal/metrics"
	"account-service/internal/model"
	"account-service/internal/service"
	"account-service/internal/store"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var (
	getUserByName = store.GetUserByName
	createUser    = store.CreateUser
	newUUID       = uuid.NewString
)

// PasswordHasher 由 *service.Credentials 實作
type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
}

// RegisterHandler 註冊新使用者
// @Summary     Register a new user
// @Description 驗證輸入、確認名稱未被使用、雜湊密碼後建立帳號；回應不含密碼哈希
// @Tags        users
// @Accept      json
// @Produce     json
// @Param       body body     api.RegisterRequest true "註冊資料"
// @Success     201  {object} api.UserResponse
// @Failure     400  {object} api.ValidationErrorResponse
// @Failure     400  {object} api.ErrorResponse
// @Failure     500  {object} api.ErrorResponse
// @Router      /users/register [post]
func RegisterHandler(db database.DB, hasher PasswordHasher) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		var req api.RegisterRequest
		if err := c.Bind(&req); err != nil {
			metrics.Registrations.WithLabelValues(metrics.ResultInvalid).Inc()
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: api.MsgInvalidBody})
		}
		if err := c.Validate(&req); err != nil {
			metrics.Registrations.WithLabelValues(metrics.ResultInvalid).Inc()
			return c.JSON(http.StatusBadRequest, api.NewValidationErrorResponse(err))
		}
		// 空字串視為未提供
		var email *string
		if req.EmailAddress != "" {
			email = &req.EmailAddress
		}

		// 快速路徑；併發重複註冊由唯一索引擋下
		_, err := getUserByName(ctx, db, req.Username)
		switch {
		case err == nil:
			metrics.Registrations.WithLabelValues(metrics.ResultConflict).Inc()
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: api.MsgUsernameTaken})
		case !errors.Is(err, store.ErrUserNotFound):
			metrics.Registrations.WithLabelValues(metrics.ResultError).Inc()
			c.Logger().Errorf("register lookup %q: %v", req.Username, err)
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: api.MsgInternal})
		}

		hash, err := hasher.Hash(ctx, req.Password)
		if errors.Is(err, service.ErrHashing) {
			metrics.Registrations.WithLabelValues(metrics.ResultError).Inc()
			c.Logger().Warnf("register hash for %q: %v", req.Username, err)
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: api.MsgHashFailed})
		}
		if err != nil {
			// 多為 ctx 取消或逾時
			metrics.Registrations.WithLabelValues(metrics.ResultError).Inc()
			c.Logger().Errorf("register hash for %q: %v", req.Username, err)
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: api.MsgInternal})
		}

		externalID := newUUID()
		user, err := createUser(ctx, db, &model.User{
			ExternalID:   &externalID,
			Name:         req.Username,
			PasswordHash: hash,
			Email:        email,
		})
		if errors.Is(err, store.ErrUserExists) {
			metrics.Registrations.WithLabelValues(metrics.ResultConflict).Inc()
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: api.MsgUsernameTaken})
		}
		if err != nil {
			metrics.Registrations.WithLabelValues(metrics.ResultError).Inc()
			c.Logger().Errorf("register insert %q: %v", req.Username, err)
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: api.MsgInternal})
		}

		metrics.Registrations.WithLabelValues(metrics.ResultSuccess).Inc()
		return c.JSON(http.StatusCreated, api.NewUserResponse(user))
	}
}
