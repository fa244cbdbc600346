package server

import (
	"errors"
	"io"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/google/uuid"

	"gamecollection/config"
	"gamecollection/database"
	"gamecollection/handlers"
	"gamecollection/middleware"
	"gamecollection/models"
)

const logFormat = "${time} | ${status} | ${latency} | ${real_ip} | ${method} | ${path} | ${locals:requestid} | ${error}\n"

// New はミドルウェアとルーティングを設定した Fiber アプリを返す。
// accessLog が nil でなければコンソールとは別にアクセスログを書き込む
func New(cfg *config.Config, store *database.GameStore, accessLog io.Writer) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Game Collection API v1",
		JSONEncoder:  sonic.Marshal,
		JSONDecoder:  sonic.Unmarshal,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
		ErrorHandler: errorHandler,
	})

	// レイテンシ計測用statsとミドルウェア
	latencyStats := middleware.NewLatencyStats(1000)
	app.Use(middleware.NewLatencyMiddleware(latencyStats))

	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))

	// ユーザ単位のリミッター
	app.Use(middleware.UserLimit(cfg))

	app.Use(helmet.New())

	realIP := map[string]logger.LogFunc{
		"real_ip": func(output logger.Buffer, c *fiber.Ctx, data *logger.Data, extraParam string) (int, error) {
			return output.WriteString(middleware.GetTrustedIP(c, cfg))
		},
	}
	app.Use(logger.New(logger.Config{
		CustomTags: realIP,
		Format:     logFormat,
	}))
	if accessLog != nil {
		app.Use(logger.New(logger.Config{
			Output:     accessLog,
			CustomTags: realIP,
			Format:     logFormat,
		}))
	}

	// recover: パニックが起きてもサーバーを落とさない
	app.Use(recover.New())

	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.Server.CORSAllowOrigins, ","),
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	// ドキュメント
	if cfg.Server.OpenAPIPath != "" {
		app.Get("/doc/*", swagger.New(swagger.Config{
			URL: "/openapi.yaml",
		}))
		app.Static("/openapi.yaml", cfg.Server.OpenAPIPath)
	}

	// コレクション
	api := app.Group("/api")
	api.Get("/", middleware.GlobalLimit(cfg, "list_games"), handlers.ListGames(store))
	api.Post("/", middleware.GlobalLimit(cfg, "create_game"), handlers.CreateGame(store))
	api.Put("/", middleware.GlobalLimit(cfg, "replace_games"), handlers.ReplaceGames(store))
	api.Delete("/", middleware.GlobalLimit(cfg, "delete_games"), handlers.DeleteGames(store))
	api.Get("/:id", middleware.GlobalLimit(cfg, "get_game"), handlers.GetGame(store))
	api.Put("/:id", middleware.GlobalLimit(cfg, "update_game"), handlers.UpdateGame(store))
	api.Delete("/:id", middleware.GlobalLimit(cfg, "delete_game"), handlers.DeleteGame(store))

	// メトリクス
	app.Get("/metrics", middleware.GlobalLimit(cfg, "get_metrics"), handlers.GetMetrics(store, latencyStats))

	return app
}

// ルートが無い場合などもJSONでエラーを返す
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(models.ErrorResponse{Error: err.Error()})
}
