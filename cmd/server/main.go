package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/jaylenmareko/topic-funding-sub001/internal/config"
	"github.com/jaylenmareko/topic-funding-sub001/internal/database"
	"github.com/jaylenmareko/topic-funding-sub001/internal/gateway"
	"github.com/jaylenmareko/topic-funding-sub001/internal/logger"
	"github.com/jaylenmareko/topic-funding-sub001/internal/notify"
	"github.com/jaylenmareko/topic-funding-sub001/internal/router"
	"github.com/jaylenmareko/topic-funding-sub001/internal/task"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	level := logger.ParseLogLevel(cfg.Log.Level)
	if cfg.Log.Output == "file" {
		l, err := logger.NewWithFileRotation(level, cfg.Log.File)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		logger.SetDefaultLogger(l)
	}

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// 初始化支付网关客户端
	gw, err := gateway.Init(cfg.Gateway)
	if err != nil {
		log.Fatalf("Failed to initialize payment gateway client: %v", err)
	}

	// 初始化通知分发器
	notifier, err := notify.NewDispatcher(db, 16)
	if err != nil {
		log.Fatalf("Failed to initialize notifier: %v", err)
	}
	defer notifier.Release()

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(db, gw, notifier, cfg)

	// 启动定时任务
	manager := task.Start(db, gw, cfg)
	defer manager.Stop()

	// 启动服务器
	logger.Info("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
