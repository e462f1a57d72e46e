package middleware

import (
	"net/http"
	"strings"

	"account-service/internal/api"
	"account-service/internal/service"

	"github.com/labstack/echo/v4"
)

// ContextUserKey 驗證通過後 claims 存放在 echo.Context 的 key
const ContextUserKey = "user"

// TokenVerifier 由 *service.TokenIssuer 實作
type TokenVerifier interface {
	Verify(token string) (*service.Claims, error)
}

func extractClaims(c echo.Context, verifier TokenVerifier) (*service.Claims, error) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, api.ErrorResponse{Message: "missing token"})
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, api.ErrorResponse{Message: "invalid authorization header format"})
	}
	claims, err := verifier.Verify(parts[1])
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, api.ErrorResponse{Message: "invalid token"})
	}
	return claims, nil
}

// RequireAuth 要求 Bearer 令牌，通過後將 claims 放入 context
func RequireAuth(verifier TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := extractClaims(c, verifier)
			if err != nil {
				return err
			}
			c.Set(ContextUserKey, claims)
			return next(c)
		}
	}
}

// ClaimsFrom 取出 RequireAuth 設定的 claims
func ClaimsFrom(c echo.Context) (*service.Claims, bool) {
	claims, ok := c.Get(ContextUserKey).(*service.Claims)
	return claims, ok
}
