package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"account-service/internal/api"
	"account-service/internal/database"
	"account-service/internal/model"
	"account-service/internal/service"
	"account-service/internal/store"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
)

// helper to build echo context
func newLoginCtx(e *echo.Echo, body string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodPost, "/api/users/login", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

type errBinder struct{}

func (errBinder) Bind(i any, c echo.Context) error { return errors.New("bind") }

type errValidator struct{}

func (errValidator) Validate(i any) error { return errors.New("v") }

type okValidator struct{}

func (okValidator) Validate(i any) error { return nil }

type stubVerifier struct {
	ok  bool
	err error
}

func (s stubVerifier) Verify(context.Context, string, string) (bool, error) { return s.ok, s.err }

// recordingVerifier 記錄收到的哈希
type recordingVerifier struct {
	hashes []string
	ok     bool
}

func (r *recordingVerifier) Verify(_ context.Context, _ string, hash string) (bool, error) {
	r.hashes = append(r.hashes, hash)
	return r.ok, nil
}

func fixedDummyHash() string { return "$2a$10$dummy" }

type stubIssuer struct {
	token string
	err   error
	sub   string
}

func (s *stubIssuer) Issue(identity string, now time.Time) (string, time.Time, error) {
	s.sub = identity
	return s.token, now.Add(24 * time.Hour), s.err
}

var origDummyHash = dummyHash

func restore() {
	getUserByName = store.GetUserByName
	timeNow = time.Now
	dummyHash = origDummyHash
}

func found(context.Context, database.DB, string) (*model.User, error) {
	return &model.User{ID: 1, Name: "alice123", PasswordHash: "h"}, nil
}

const body = `{"username":"alice123","password":"secret1"}`

func TestLoginHandler(t *testing.T) {
	t.Run("bind error", func(t *testing.T) {
		t.Cleanup(restore)
		e := echo.New()
		e.Binder = errBinder{}
		ctx, rec := newLoginCtx(e, "")
		require.NoError(t, LoginHandler(nil, stubVerifier{}, &stubIssuer{})(ctx))
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("validate error", func(t *testing.T) {
		t.Cleanup(restore)
		e := echo.New()
		e.Validator = errValidator{}
		ctx, rec := newLoginCtx(e, body)
		require.NoError(t, LoginHandler(nil, stubVerifier{}, &stubIssuer{})(ctx))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Contains(t, rec.Body.String(), api.MsgValidationFailed)
	})

	t.Run("lookup error", func(t *testing.T) {
		t.Cleanup(restore)
		e := echo.New()
		e.Validator = okValidator{}
		getUserByName = func(context.Context, database.DB, string) (*model.User, error) {
			return nil, errors.New("timeout")
		}
		ctx, rec := newLoginCtx(e, body)
		require.NoError(t, LoginHandler(nil, stubVerifier{}, &stubIssuer{})(ctx))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.NotContains(t, rec.Body.String(), "timeout")
	})

	t.Run("verify error", func(t *testing.T) {
		t.Cleanup(restore)
		e := echo.New()
		e.Validator = okValidator{}
		getUserByName = found
		ctx, rec := newLoginCtx(e, body)
		require.NoError(t, LoginHandler(nil, stubVerifier{err: errors.New("malformed")}, &stubIssuer{})(ctx))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.NotContains(t, rec.Body.String(), "malformed")
	})

	t.Run("issue error", func(t *testing.T) {
		t.Cleanup(restore)
		e := echo.New()
		e.Validator = okValidator{}
		getUserByName = found
		ctx, rec := newLoginCtx(e, body)
		require.NoError(t, LoginHandler(nil, stubVerifier{ok: true}, &stubIssuer{err: errors.New("sign")})(ctx))
		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("success", func(t *testing.T) {
		t.Cleanup(restore)
		e := echo.New()
		e.Validator = okValidator{}
		now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
		timeNow = func() time.Time { return now }
		getUserByName = found
		issuer := &stubIssuer{token: "tok"}
		ctx, rec := newLoginCtx(e, body)
		require.NoError(t, LoginHandler(nil, stubVerifier{ok: true}, issuer)(ctx))
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "alice123", issuer.sub)

		var resp api.LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Equal(t, "tok", resp.Token)
		require.Equal(t, api.MsgLoginSuccessful, resp.Message)
		require.True(t, now.Add(24*time.Hour).Equal(resp.ExpiresAt))
	})
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	t.Cleanup(restore)
	e := echo.New()
	e.Validator = okValidator{}

	dummyHash = fixedDummyHash
	getUserByName = func(context.Context, database.DB, string) (*model.User, error) {
		return nil, store.ErrUserNotFound
	}
	// 即使比對結果為 true，查無使用者仍是 401
	unknownVerifier := &recordingVerifier{ok: true}
	ctx, unknown := newLoginCtx(e, body)
	require.NoError(t, LoginHandler(nil, unknownVerifier, &stubIssuer{})(ctx))

	getUserByName = found
	wrongVerifier := &recordingVerifier{}
	ctx, wrong := newLoginCtx(e, body)
	require.NoError(t, LoginHandler(nil, wrongVerifier, &stubIssuer{})(ctx))

	// 兩條路徑都做一次密碼比對
	require.Equal(t, []string{"$2a$10$dummy"}, unknownVerifier.hashes)
	require.Equal(t, []string{"h"}, wrongVerifier.hashes)

	require.Equal(t, http.StatusUnauthorized, unknown.Code)
	require.Equal(t, unknown.Code, wrong.Code)
	require.Equal(t, unknown.Body.String(), wrong.Body.String())
	require.Contains(t, wrong.Body.String(), api.MsgInvalidCreds)
}

func TestDummyHashIsRealBcrypt(t *testing.T) {
	h := origDummyHash()
	require.Equal(t, h, origDummyHash())
	ok, err := service.VerifyPassword(h, "secret1")
	require.NoError(t, err)
	require.False(t, ok)
}
