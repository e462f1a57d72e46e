// File: internal/handler/auth/login.go
package auth

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"account-service/internal/api"
	"account-service/internal/database"
	"account-service/internal/metrics"
	"account-service/internal/service"
	"account-service/internal/store"

	"github.com/labstack/echo/v4"
)

var (
	getUserByName = store.GetUserByName
	timeNow       = time.Now

	// dummyHash 供查無使用者時比對，使回應時間與密碼錯誤相同
	dummyHash = sync.OnceValue(func() string {
		h, err := service.HashPassword("account-service-unknown-user")
		if err != nil {
			panic(err)
		}
		return h
	})
)

// PasswordVerifier 由 *service.Credentials 實作
type PasswordVerifier interface {
	Verify(ctx context.Context, password, hash string) (bool, error)
}

// TokenIssuer 由 *service.TokenIssuer 實作
type TokenIssuer interface {
	Issue(identity string, now time.Time) (string, time.Time, error)
}

// LoginHandler 使用 Username/Password 驗證並回傳 JWT
// @Summary     登入使用者
// @Description 驗證帳密，成功回傳存取令牌；使用者不存在與密碼錯誤回應相同
// @Tags        users
// @Accept      json
// @Produce     json
// @Param       body body     api.LoginRequest true "登入資料"
// @Success     200  {object} api.LoginResponse
// @Failure     400  {object} api.ValidationErrorResponse
// @Failure     401  {object} api.ErrorResponse
// @Failure     500  {object} api.ErrorResponse
// @Router      /users/login [post]
func LoginHandler(db database.DB, verifier PasswordVerifier, issuer TokenIssuer) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		var req api.LoginRequest
		if err := c.Bind(&req); err != nil {
			metrics.Logins.WithLabelValues(metrics.ResultInvalid).Inc()
			return c.JSON(http.StatusBadRequest, api.ErrorResponse{Message: api.MsgInvalidBody})
		}
		if err := c.Validate(&req); err != nil {
			metrics.Logins.WithLabelValues(metrics.ResultInvalid).Inc()
			return c.JSON(http.StatusBadRequest, api.NewValidationErrorResponse(err))
		}

		user, err := getUserByName(ctx, db, req.Username)
		if errors.Is(err, store.ErrUserNotFound) {
			// 結果一律忽略
			_, _ = verifier.Verify(ctx, req.Password, dummyHash())
			metrics.Logins.WithLabelValues(metrics.ResultDenied).Inc()
			return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: api.MsgInvalidCreds})
		}
		if err != nil {
			metrics.Logins.WithLabelValues(metrics.ResultError).Inc()
			c.Logger().Errorf("login lookup %q: %v", req.Username, err)
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: api.MsgInternal})
		}

		ok, err := verifier.Verify(ctx, req.Password, user.PasswordHash)
		if err != nil {
			metrics.Logins.WithLabelValues(metrics.ResultError).Inc()
			c.Logger().Errorf("login verify %q: %v", req.Username, err)
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: api.MsgInternal})
		}
		if !ok {
			metrics.Logins.WithLabelValues(metrics.ResultDenied).Inc()
			return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: api.MsgInvalidCreds})
		}

		token, expiresAt, err := issuer.Issue(user.Name, timeNow())
		if err != nil {
			metrics.Logins.WithLabelValues(metrics.ResultError).Inc()
			c.Logger().Errorf("login issue token %q: %v", req.Username, err)
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: api.MsgInternal})
		}

		metrics.Logins.WithLabelValues(metrics.ResultSuccess).Inc()
		return c.JSON(http.StatusOK, api.LoginResponse{
			Token:     token,
			Message:   api.MsgLoginSuccessful,
			ExpiresAt: expiresAt,
		})
	}
}
