// @title        Account Service API
// @version      1.0
// @description  使用者註冊與登入 API
// @host         localhost:8080
// @BasePath     /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"account-service/internal/cache"
	"account-service/internal/database"
	"account-service/internal/metrics"
	appmw "account-service/internal/middleware"
	"account-service/internal/router"
	"account-service/internal/service"
	"account-service/internal/worker"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	_ "account-service/docs" // 引入 swag 產出的 docs

	echoSwagger "github.com/swaggo/echo-swagger"
)

// CustomValidator wraps go-playground/validator for Echo
// swagger:ignore
type CustomValidator struct {
	validator *validator.Validate
}

// Validate calls the underlying validator
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

var (
	loadDotEnv      = func() error { return godotenv.Load() }
	newPgxPool      = database.NewPgxPool
	newRedisClient  = cache.NewRedisClient
	runMigrationsFn = database.RunMigrations
	rollbackAllFn   = database.RollbackAll
	startServer     = func(e *echo.Echo, addr string) error { return e.Start(addr) }
	newWorkerPool   = worker.NewPool
	exitFunc        = os.Exit
)

// rateLimitWindow redis 固定視窗長度
const rateLimitWindow = time.Minute

func envInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("無效的 %s: %q", key, v)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, fmt.Errorf("無效的 %s: %q", key, v)
	}
	return f, nil
}

// ipExtractor 決定 c.RealIP() 的來源。未設定 TRUSTED_PROXIES 時只採用連線位址；
// 設定後僅在直接連線來自這些網段時才讀取 X-Forwarded-For。
func ipExtractor(trusted string) (echo.IPExtractor, error) {
	if strings.TrimSpace(trusted) == "" {
		return echo.ExtractIPDirect(), nil
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, cidr := range strings.Split(trusted, ",") {
		_, ipNet, err := net.ParseCIDR(strings.TrimSpace(cidr))
		if err != nil {
			return nil, fmt.Errorf("無效的 TRUSTED_PROXIES: %q", cidr)
		}
		opts = append(opts, echo.TrustIPRange(ipNet))
	}
	return echo.ExtractIPFromXFFHeader(opts...), nil
}

func run() error {
	// .env 不存在時沿用既有環境變數
	if err := loadDotEnv(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("讀取 .env 失敗: %v", err)
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return fmt.Errorf("環境變數 DATABASE_URL 未設定")
	}

	keys, err := service.NewKeyring(os.Getenv("JWT_KEY_ID"), os.Getenv("JWT_SECRET"), os.Getenv("JWT_PREVIOUS_KEYS"))
	if err != nil {
		return fmt.Errorf("JWT 金鑰設定錯誤: %v", err)
	}

	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return fmt.Errorf("無效的 API_PORT: %q", port)
	}
	addr := net.JoinHostPort(os.Getenv("API_HOST"), port)

	workerCount, err := envInt("WORKER_COUNT", runtime.NumCPU())
	if err != nil {
		return err
	}
	rps, err := envFloat("RATE_LIMIT_RPS", 5)
	if err != nil {
		return err
	}
	burst, err := envInt("RATE_LIMIT_BURST", 10)
	if err != nil {
		return err
	}

	extractIP, err := ipExtractor(os.Getenv("TRUSTED_PROXIES"))
	if err != nil {
		return err
	}

	redisAddr := os.Getenv("REDIS_ADDR")
	redisIndex := 0
	if redisAddr != "" {
		if v := os.Getenv("REDIS_DB"); v != "" {
			redisIndex, err = strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("無效的 REDIS_DB: %v", err)
			}
		}
	}

	// MIGRATE_ROLLBACK=true 只退回所有 migration 後結束，不啟動服務
	if rollback, _ := strconv.ParseBool(os.Getenv("MIGRATE_ROLLBACK")); rollback {
		if err := rollbackAllFn(dbURL); err != nil {
			return fmt.Errorf("Rollback 執行失敗: %v", err)
		}
		log.Print("all migrations rolled back")
		return nil
	}

	if err := runMigrationsFn(dbURL); err != nil {
		return fmt.Errorf("Migration 執行失敗: %v", err)
	}

	db, err := newPgxPool(context.Background(), dbURL)
	if err != nil {
		return fmt.Errorf("DB 連線失敗: %v", err)
	}
	defer db.Close()

	var (
		cch     cache.Cache
		limiter echo.MiddlewareFunc
	)
	if redisAddr != "" {
		rdb, err := newRedisClient(redisAddr, os.Getenv("REDIS_PASSWORD"), redisIndex)
		if err != nil {
			return fmt.Errorf("Redis 連線失敗: %v", err)
		}
		defer rdb.Close()
		cch = rdb
		limiter = appmw.RedisRateLimit(rdb, rps, burst, rateLimitWindow)
	} else {
		limiter = appmw.RateLimit(rps, burst)
	}

	wp := newWorkerPool(workerCount)
	defer wp.Stop()

	reg := prometheus.NewRegistry()
	metrics.RegisterCollectors(reg)

	e := echo.New()
	e.Validator = &CustomValidator{validator: validator.New()}
	e.HideBanner = true
	e.IPExtractor = extractIP
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	router.Setup(e, router.Deps{
		DB:          db,
		Cache:       cch,
		Credentials: service.NewCredentials(wp),
		Tokens:      service.NewTokenIssuer(keys),
		RateLimit:   limiter,
		Metrics:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)
	log.Printf("listening on %s", addr)
	return startServer(e, addr)
}

func main() {
	if err := run(); err != nil {
		log.Print(err)
		exitFunc(1)
	}
}
