package router

import (
	"fmt"
	"strings"

	"github.com/pricetide/internal/cache"
	"github.com/pricetide/internal/config"
	adminhandlers "github.com/pricetide/internal/http/handlers/admin"
	publichandlers "github.com/pricetide/internal/http/handlers/public"
	"github.com/pricetide/internal/logger"
	"github.com/pricetide/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按公开/运营分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "pt"
	}
	// 外部平台回调限流，避免 webhook 风暴打穿 sweep
	sweepRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:sweep", redisPrefix),
		WindowSeconds: 60,
		MaxRequests:   120,
		Message:       "error.sweep_rate_limited",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 外部平台回调
		webhooks := apiV1.Group("/webhooks")
		{
			webhooks.POST("/scheduler/sweep",
				RateLimitMiddleware(cache.Client(), sweepRule, KeyByIP),
				publicHandler.SchedulerSweepWebhook)
		}

		// 运营接口
		admin := apiV1.Group("/admin")
		{
			// 折扣规则管理
			admin.POST("/rules", adminHandler.CreateRule)
			admin.GET("/rules", adminHandler.GetRules)
			admin.GET("/rules/:id", adminHandler.GetRule)
			admin.PUT("/rules/:id", adminHandler.UpdateRule)
			admin.DELETE("/rules/:id", adminHandler.DeleteRule)

			// 商品价格状态与流水
			admin.GET("/items/:item_id/state", adminHandler.GetItemState)
			admin.GET("/items/:item_id/history", adminHandler.GetItemHistory)
			admin.POST("/items/:item_id/restore", adminHandler.RestoreItem)
			admin.POST("/items/:item_id/restore-original", adminHandler.RestoreItemOriginal)
			admin.POST("/items/:item_id/price", adminHandler.OverrideItemPrice)

			// 折扣运行概览
			admin.GET("/analytics/summary", adminHandler.GetDiscountSummary)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
