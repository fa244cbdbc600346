package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"

	"gamecollection/config"
	"gamecollection/database"
	"gamecollection/server"
)

func main() {
	// 1. 設定ファイルの読み込み
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Load config failed: %v", err)
	}

	// 2. データベースの初期化（テーブル作成と列の追加）
	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Initialize DB failed: %v", err)
	}
	store := database.NewGameStore(db)

	// 3. アクセスログをファイルにも書き込む
	var accessLog io.Writer
	if cfg.Server.AccessLogPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Server.AccessLogPath), 0o755); err != nil {
			log.Fatalf("error creating log directory: %v", err)
		}
		file, err := os.OpenFile(cfg.Server.AccessLogPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("error opening file: %v", err)
		}
		defer file.Close()
		accessLog = file
	}

	app := server.New(cfg, store, accessLog)

	// 4. サーバーの起動
	go func() {
		fiberlog.Infof("Starting server (Port: %d)...", cfg.Server.Port)
		if err := app.Listen(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	// 5. SIGINT (Ctrl+C) と SIGTERM を待つ
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	fiberlog.Info("Gracefully shutting down...")

	// 6. 期限内に終わらないリクエストは打ち切る
	if err := app.ShutdownWithTimeout(time.Duration(cfg.Server.ShutdownTimeout) * time.Second); err != nil {
		fiberlog.Errorf("error during shutdown: %v", err)
	}

	// 7. データベース接続を閉じる
	if err := db.Close(); err != nil {
		fiberlog.Errorf("error closing database: %v", err)
	}

	fiberlog.Info("Server stopped safely.")
}
