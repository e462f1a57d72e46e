package users

import (
	"errors"
	"net/http"

	"account-service/internal/api"
	"account-service/internal/database"
	"account-service/internal/middleware"
	"account-service/internal/store"

	"github.com/labstack/echo/v4"
)

// GetMeHandler 取得令牌持有者的個人資料
// @Summary     Get current user
// @Description 依令牌 sub 查詢使用者
// @Tags        users
// @Produce     json
// @Success     200 {object} api.UserResponse
// @Failure     401 {object} api.ErrorResponse
// @Failure     404 {object} api.ErrorResponse
// @Failure     500 {object} api.ErrorResponse
// @Security    ApiKeyAuth
// @Router      /users/me [get]
func GetMeHandler(db database.DB) echo.HandlerFunc {
	return func(c echo.Context) error {
		claims, ok := middleware.ClaimsFrom(c)
		if !ok || claims.Subject == "" {
			return c.JSON(http.StatusUnauthorized, api.ErrorResponse{Message: "invalid token"})
		}

		user, err := getUserByName(c.Request().Context(), db, claims.Subject)
		if errors.Is(err, store.ErrUserNotFound) {
			return c.JSON(http.StatusNotFound, api.ErrorResponse{Message: "user not found"})
		}
		if err != nil {
			c.Logger().Errorf("get me %q: %v", claims.Subject, err)
			return c.JSON(http.StatusInternalServerError, api.ErrorResponse{Message: api.MsgInternal})
		}
		return c.JSON(http.StatusOK, api.NewUserResponse(user))
	}
}
