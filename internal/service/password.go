// File: internal/service/password.go
package service

import (
	"context"
	"errors"
	"fmt"

	"account-service/internal/worker"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrHashing bcrypt 拒絕輸入 (例如超過 72 bytes)
	ErrHashing = errors.New("hashing failed")
	// ErrVerification 儲存的哈希格式錯誤，與「密碼不符」不同
	ErrVerification = errors.New("verification failed")
)

// 測試可覆寫
var (
	bcryptGenerateFromPassword   = bcrypt.GenerateFromPassword
	bcryptCompareHashAndPassword = bcrypt.CompareHashAndPassword
)

// HashPassword 接收明文密碼，回傳 bcrypt 哈希字串
func HashPassword(password string) (string, error) {
	hashBytes, err := bcryptGenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHashing, err)
	}
	return string(hashBytes), nil
}

// VerifyPassword 比對明文密碼與 bcrypt 哈希。
// 密碼不符回傳 false, nil；哈希本身無效時回傳 ErrVerification。
func VerifyPassword(hash, password string) (bool, error) {
	err := bcryptCompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrVerification, err)
	}
}

// Credentials 在 worker pool 上執行 bcrypt，限制同時進行的雜湊運算數量
type Credentials struct {
	pool worker.Pool
}

func NewCredentials(pool worker.Pool) *Credentials {
	return &Credentials{pool: pool}
}

// Hash 產生密碼哈希；ctx 結束時放棄等待
func (c *Credentials) Hash(ctx context.Context, password string) (string, error) {
	var (
		hash string
		err  error
	)
	if runErr := c.pool.Run(ctx, func() { hash, err = HashPassword(password) }); runErr != nil {
		return "", runErr
	}
	return hash, err
}

// Verify 比對密碼，語意同 VerifyPassword
func (c *Credentials) Verify(ctx context.Context, password, hash string) (bool, error) {
	var (
		ok  bool
		err error
	)
	if runErr := c.pool.Run(ctx, func() { ok, err = VerifyPassword(hash, password) }); runErr != nil {
		return false, runErr
	}
	return ok, err
}
