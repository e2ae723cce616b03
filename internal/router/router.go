package router

import (
	"github.com/gin-gonic/gin"
	"github.com/jaylenmareko/topic-funding-sub001/internal/config"
	"github.com/jaylenmareko/topic-funding-sub001/internal/gateway"
	"github.com/jaylenmareko/topic-funding-sub001/internal/handler"
	"github.com/jaylenmareko/topic-funding-sub001/internal/logic"
	"gorm.io/gorm"
)

func Setup(db *gorm.DB, gw gateway.Gateway, notifier logic.Notifier, cfg *config.Config) *gin.Engine {
	r := gin.Default()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "topic-funding-service",
		})
	})

	// 业务逻辑装配
	store := logic.NewLedgerStore(db)
	creatorLogic := logic.NewCreatorLogic(db, cfg.Payout.DefaultFeeRate)
	refundLogic := logic.NewRefundLogic(db, store)
	topicLogic := logic.NewTopicLogic(db, store, refundLogic)
	payoutLogic := logic.NewPayoutLogic(db, store, gw, notifier)
	reconcileLogic := logic.NewReconcileLogic(db, store, gw, notifier, cfg.Payout.ContentGraceHours)

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// webhook 入口
		webhookHandler := handler.NewWebhookHandler(db, reconcileLogic, cfg.Gateway.WebhookSecret)
		v1.POST("/webhook/payment", webhookHandler.HandlePaymentWebhook)

		// 话题相关路由
		topicHandler := handler.NewTopicHandler(topicLogic, payoutLogic)
		topics := v1.Group("/topics")
		{
			topics.POST("", topicHandler.CreateTopic)
			topics.GET("", topicHandler.GetTopics)
			topics.GET("/:id", topicHandler.GetTopic)
			topics.GET("/:id/contributions", topicHandler.GetTopicContributions)
			topics.POST("/:id/approve", topicHandler.ApproveTopic)
			topics.POST("/:id/reject", topicHandler.RejectTopic)
			topics.POST("/:id/content", topicHandler.DeliverContent)
		}

		// 支付会话暂存
		v1.POST("/checkout-sessions", topicHandler.StageCheckoutSession)

		// 创作者相关路由
		creatorHandler := handler.NewCreatorHandler(creatorLogic)
		creators := v1.Group("/creators")
		{
			creators.POST("", creatorHandler.CreateCreator)
			creators.GET("/:id", creatorHandler.GetCreator)
		}

		// 运营工具路由
		adminHandler := handler.NewAdminHandler(reconcileLogic, payoutLogic)
		admin := v1.Group("/admin")
		{
			admin.GET("/payments/unprocessed", adminHandler.ListUnprocessedPayments)
			admin.POST("/payments/:payment_id/reprocess", adminHandler.ReprocessPayment)
			admin.POST("/topics/:id/payout", adminHandler.InitiatePayout)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
