package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"account-service/internal/api"
	"account-service/internal/cache"
	"account-service/internal/metrics"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

var errRateLimited = echo.NewHTTPError(http.StatusTooManyRequests, api.ErrorResponse{Message: "rate limit exceeded"})

// 測試可覆寫
var now = time.Now

func clientKey(c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}

// 閒置 limiter 的保留時間下限與上限
const (
	minLimiterIdle = 10 * time.Minute
	maxLimiterIdle = 24 * time.Hour
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64 // unix nano
}

// ipLimiter 保存每個來源 IP 的 token bucket，閒置超過 idle 的項目會被清除
type ipLimiter struct {
	rps       float64
	burst     int
	idle      time.Duration
	visitors  sync.Map // map[string]*visitor
	lastSweep atomic.Int64
}

func newIPLimiter(rps float64, burst int) *ipLimiter {
	// 清除時 bucket 必須已回滿，否則重建會多給額度
	idle := maxLimiterIdle
	if rps > 0 {
		if refill := float64(burst) / rps * float64(time.Second); refill < float64(maxLimiterIdle) {
			idle = time.Duration(refill)
		}
	}
	if idle < minLimiterIdle {
		idle = minLimiterIdle
	}
	l := &ipLimiter{rps: rps, burst: burst, idle: idle}
	l.lastSweep.Store(now().UnixNano())
	return l
}

func (l *ipLimiter) allow(key string) bool {
	t := now()
	l.sweep(t)

	v, ok := l.visitors.Load(key)
	if !ok {
		fresh := &visitor{limiter: rate.NewLimiter(rate.Limit(l.rps), l.burst)}
		fresh.lastSeen.Store(t.UnixNano())
		v, _ = l.visitors.LoadOrStore(key, fresh)
	}
	vis := v.(*visitor)
	vis.lastSeen.Store(t.UnixNano())
	return vis.limiter.AllowN(t, 1)
}

// sweep 每個 idle 週期最多執行一次
func (l *ipLimiter) sweep(t time.Time) {
	last := l.lastSweep.Load()
	if t.UnixNano()-last < int64(l.idle) || !l.lastSweep.CompareAndSwap(last, t.UnixNano()) {
		return
	}
	cutoff := t.Add(-l.idle).UnixNano()
	l.visitors.Range(func(k, v any) bool {
		if v.(*visitor).lastSeen.Load() < cutoff {
			l.visitors.Delete(k)
		}
		return true
	})
}

// RateLimit 以 token bucket 對每個來源 IP 限流，狀態保存在本機記憶體。
// 來源 IP 取自 c.RealIP()，須搭配 e.IPExtractor 避免信任用戶端自帶的 header。
func RateLimit(rps float64, burst int) echo.MiddlewareFunc {
	l := newIPLimiter(rps, burst)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !l.allow(clientKey(c)) {
				metrics.RateLimitRejected.WithLabelValues("memory").Inc()
				c.Response().Header().Set("Retry-After", "1")
				return errRateLimited
			}
			return next(c)
		}
	}
}

// RedisRateLimit 以 redis 固定視窗計數限流，多個實例共用同一組計數。
// 每個視窗允許 floor(rps*window)+burst 次請求。
func RedisRateLimit(store cache.Cache, rps float64, burst int, window time.Duration) echo.MiddlewareFunc {
	windowSeconds := int64(window.Seconds())
	if windowSeconds <= 0 {
		windowSeconds = 1
	}
	allowed := int64(rps*float64(windowSeconds)) + int64(burst)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			bucket := now().Unix() / windowSeconds
			key := fmt.Sprintf("rl:%s:%d", clientKey(c), bucket)

			cnt, err := store.Incr(ctx, key).Result()
			if err != nil {
				c.Logger().Errorf("rate limit incr %s: %v", key, err)
				return echo.NewHTTPError(http.StatusInternalServerError, api.ErrorResponse{Message: api.MsgInternal})
			}
			if cnt == 1 {
				if err := store.Expire(ctx, key, time.Duration(windowSeconds+1)*time.Second).Err(); err != nil {
					c.Logger().Warnf("rate limit expire %s: %v", key, err)
				}
			}
			if cnt > allowed {
				metrics.RateLimitRejected.WithLabelValues("redis").Inc()
				c.Response().Header().Set("Retry-After", fmt.Sprint(windowSeconds))
				return errRateLimited
			}
			return next(c)
		}
	}
}
