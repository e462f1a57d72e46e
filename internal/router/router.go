// File: internal/router/router.go
package router

import (
	"net/http"

	"account-service/internal/cache"
	"account-service/internal/database"
	"account-service/internal/handler"
	"account-service/internal/handler/auth"
	"account-service/internal/handler/users"
	"account-service/internal/middleware"
	"account-service/internal/service"

	"github.com/labstack/echo/v4"
)

// Deps 為路由注入的相依物件
type Deps struct {
	DB          database.DB
	Cache       cache.Cache // nil 表示未啟用 redis
	Credentials *service.Credentials
	Tokens      *service.TokenIssuer
	RateLimit   echo.MiddlewareFunc // nil 表示不限流
	Metrics     http.Handler        // nil 表示不提供 /metrics
}

// Setup 註冊所有路由與中介層
func Setup(e *echo.Echo, d Deps) {
	api := e.Group("/api")

	// 健康檢查
	api.GET("/ping", handler.PingHandler(d.DB, d.Cache))

	var limited []echo.MiddlewareFunc
	if d.RateLimit != nil {
		limited = append(limited, d.RateLimit)
	}

	// 註冊與登入
	apiUsers := api.Group("/users")
	apiUsers.POST("/register", users.RegisterHandler(d.DB, d.Credentials), limited...)
	apiUsers.POST("/login", auth.LoginHandler(d.DB, d.Credentials, d.Tokens), limited...)

	// 當前使用者
	apiUsers.GET("/me", users.GetMeHandler(d.DB), middleware.RequireAuth(d.Tokens))

	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics))
	}
}
