package users

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"account-service/internal/database"
	"account-service/internal/middleware"
	"account-service/internal/model"
	"account-service/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

func newMeCtx(e *echo.Echo, sub string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if sub != "" {
		c.Set(middleware.ContextUserKey, &service.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: sub}})
	}
	return c, rec
}

func TestGetMeHandler(t *testing.T) {
	e := echo.New()

	t.Run("no claims", func(t *testing.T) {
		t.Cleanup(restore)
		ctx, rec := newMeCtx(e, "")
		require.NoError(t, GetMeHandler(nil)(ctx))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("not found", func(t *testing.T) {
		t.Cleanup(restore)
		getUserByName = notFound
		ctx, rec := newMeCtx(e, "alice123")
		require.NoError(t, GetMeHandler(nil)(ctx))
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("store error", func(t *testing.T) {
		t.Cleanup(restore)
		getUserByName = func(context.Context, database.DB, string) (*model.User, error) {
			return nil, errors.New("x")
		}
		ctx, rec := newMeCtx(e, "alice123")
		require.NoError(t, GetMeHandler(nil)(ctx))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("success", func(t *testing.T) {
		t.Cleanup(restore)
		getUserByName = func(_ context.Context, _ database.DB, name string) (*model.User, error) {
			return &model.User{ID: 3, Name: name, PasswordHash: "secret-hash"}, nil
		}
		ctx, rec := newMeCtx(e, "alice123")
		require.NoError(t, GetMeHandler(nil)(ctx))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Contains(t, rec.Body.String(), `"name":"alice123"`)
		require.NotContains(t, rec.Body.String(), "secret-hash")
	})
}
