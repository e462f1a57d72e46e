// File: internal/service/token.go
package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTTL 存取令牌有效期限
const TokenTTL = 24 * time.Hour

var (
	// ErrSigning 令牌簽章失敗
	ErrSigning = errors.New("signing failed")
	// ErrInvalidToken 令牌無法通過驗證
	ErrInvalidToken = errors.New("invalid token")
)

// 測試可覆寫
var (
	timeNow         = time.Now
	parseWithClaims = jwt.ParseWithClaims
	signToken       = func(t *jwt.Token, key []byte) (string, error) { return t.SignedString(key) }
)

// Claims 定義 JWT 負載內容：sub、iat、exp
type Claims struct {
	jwt.RegisteredClaims
}

// Keyring 保存目前簽章用金鑰與仍可驗證的舊金鑰，以 kid 區分
type Keyring struct {
	activeID string
	keys     map[string][]byte
}

// NewKeyring 建立 keyring。previous 格式為 "kid:secret,kid:secret"，可為空。
func NewKeyring(activeID, secret, previous string) (*Keyring, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT_SECRET not set")
	}
	if activeID == "" {
		activeID = "default"
	}
	kr := &Keyring{activeID: activeID, keys: map[string][]byte{activeID: []byte(secret)}}
	for _, entry := range strings.Split(previous, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		kid, key, ok := strings.Cut(entry, ":")
		if !ok || kid == "" || key == "" {
			return nil, fmt.Errorf("invalid previous key entry %q", entry)
		}
		if kid == activeID {
			return nil, fmt.Errorf("previous key %q collides with active key", kid)
		}
		kr.keys[kid] = []byte(key)
	}
	return kr, nil
}

// ActiveID 目前簽章使用的 kid
func (k *Keyring) ActiveID() string { return k.activeID }

func (k *Keyring) lookup(kid string) ([]byte, bool) {
	key, ok := k.keys[kid]
	return key, ok
}

// TokenIssuer 以 HS256 簽發與驗證存取令牌
type TokenIssuer struct {
	keys *Keyring
	ttl  time.Duration
}

func NewTokenIssuer(keys *Keyring) *TokenIssuer {
	return &TokenIssuer{keys: keys, ttl: TokenTTL}
}

// Issue 為 identity 簽發令牌，exp = now + 24h
func (ti *TokenIssuer) Issue(identity string, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(ti.ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header["kid"] = ti.keys.ActiveID()
	key, _ := ti.keys.lookup(ti.keys.ActiveID())
	signed, err := signToken(token, key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%w: %v", ErrSigning, err)
	}
	return signed, expiresAt, nil
}

// Verify 驗證並解析令牌，依 header 的 kid 選擇金鑰
func (ti *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	token, err := parseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		kid, _ := t.Header["kid"].(string)
		key, ok := ti.keys.lookup(kid)
		if !ok {
			return nil, fmt.Errorf("unknown key id %q", kid)
		}
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(timeNow), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
