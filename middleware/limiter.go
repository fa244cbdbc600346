package middleware

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"gamecollection/config"
	"gamecollection/models"
)

func GetTrustedIP(c *fiber.Ctx, cfg *config.Config) string {
	xffHeaders := c.GetReqHeaders()["X-Forwarded-For"]

	if len(xffHeaders) > 0 {
		// 自分の手前のプロキシが追加したものは配列の「最後」の要素。
		// 何段のプロキシを信用するかは client_ip_from_last で決める
		idx := len(xffHeaders) - cfg.Server.ClientIpFromLast
		if idx < 0 {
			idx = 0
		}

		// 1つのヘッダー内にカンマ区切りで複数ある場合は、その一番右を取る
		ips := strings.Split(xffHeaders[idx], ",")
		if ip := strings.TrimSpace(ips[len(ips)-1]); ip != "" {
			return ip
		}
	}

	// プロキシを介していない場合は直接のIP
	return c.IP()
}

func passThrough(c *fiber.Ctx) error {
	return c.Next()
}

// GlobalLimit: 全ユーザー合計の制限。設定に無いエンドポイントは無制限
func GlobalLimit(cfg *config.Config, name string) fiber.Handler {
	epCfg, ok := cfg.Limits.Endpoints[name]
	if !ok || epCfg.Max <= 0 {
		return passThrough
	}
	expiration := time.Duration(epCfg.Expiration) * time.Second
	if expiration <= 0 {
		expiration = time.Minute
	}
	return limiter.New(limiter.Config{
		Max:        epCfg.Max,
		Expiration: expiration,
		KeyGenerator: func(c *fiber.Ctx) string {
			return "server-global-limit:" + name
		},
		LimiterMiddleware: limiter.SlidingWindow{},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{Error: "Server-wide rate limit reached"})
		},
	})
}

// UserLimit: IPアドレス単位、1分あたりの制限。0なら無効
func UserLimit(cfg *config.Config) fiber.Handler {
	if cfg.Limits.UserLimit <= 0 {
		return passThrough
	}
	return limiter.New(limiter.Config{
		Max:        cfg.Limits.UserLimit,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return GetTrustedIP(c, cfg)
		},
		LimiterMiddleware: limiter.SlidingWindow{},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{Error: "Too many requests from your IP"})
		},
	})
}
