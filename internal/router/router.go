package router

import (
	"fmt"
	"strings"

	"github.com/meit-next/internal/cache"
	"github.com/meit-next/internal/config"
	"github.com/meit-next/internal/constants"
	adminhandlers "github.com/meit-next/internal/http/handlers/admin"
	checkinhandlers "github.com/meit-next/internal/http/handlers/checkin"
	"github.com/meit-next/internal/logger"
	"github.com/meit-next/internal/provider"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（后台 / 打卡回调分组）
	adminHandler := adminhandlers.New(c)
	checkinHandler := checkinhandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "meit"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		MessageKey:    "error.login_too_many",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 员工认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("username")), adminHandler.StaffLogin)
		}

		// WhatsApp 通道打卡回调（共享令牌鉴权，限流在处理器内按手机号做）
		apiV1.POST("/checkin", checkinHandler.CheckIn)

		// 后台接口（需员工鉴权）
		admin := apiV1.Group("/admin")
		admin.Use(StaffJWTAuthMiddleware(c.AuthService))
		{
			admin.GET("/me", adminHandler.GetCurrentStaff)
			admin.PUT("/password", adminHandler.UpdateStaffPassword)

			// 积分操作（任意在职员工）
			admin.POST("/points/assign", adminHandler.AssignPoints)
			admin.GET("/points/transactions", adminHandler.GetPointTransactions)

			// 礼品卡核销与查询
			admin.GET("/gift-cards", adminHandler.GetGiftCards)
			admin.GET("/gift-cards/export", adminHandler.ExportGiftCards)
			admin.GET("/gift-cards/validate/:code", adminHandler.ValidateGiftCard)
			admin.POST("/gift-cards/redeem", adminHandler.RedeemGiftCard)
			admin.GET("/gift-cards/:id", adminHandler.GetGiftCard)

			// 顾客管理
			admin.GET("/customers", adminHandler.GetCustomers)
			admin.POST("/customers", adminHandler.RegisterCustomer)
			admin.GET("/customers/:id", adminHandler.GetCustomer)
			admin.PUT("/customers/:id", adminHandler.UpdateCustomer)
			admin.GET("/customers/:id/reconcile", adminHandler.ReconcileBalance)

			// 门店与挑战（只读对所有员工开放）
			admin.GET("/branches", adminHandler.GetBranches)
			admin.GET("/branches/:id", adminHandler.GetBranch)
			admin.GET("/challenges", adminHandler.GetChallenges)
			admin.GET("/challenges/:id", adminHandler.GetChallenge)

			// 商户 owner 及以上
			owner := admin.Group("")
			owner.Use(RequireRole(constants.StaffRoleOwner))
			{
				owner.POST("/points/adjust", adminHandler.AdjustPoints)
				owner.POST("/gift-cards/:id/cancel", adminHandler.CancelGiftCard)

				owner.POST("/branches", adminHandler.CreateBranch)
				owner.PUT("/branches/:id", adminHandler.UpdateBranch)
				owner.DELETE("/branches/:id", adminHandler.DeleteBranch)

				owner.POST("/challenges", adminHandler.CreateChallenge)
				owner.PUT("/challenges/:id", adminHandler.UpdateChallenge)
				owner.DELETE("/challenges/:id", adminHandler.DeleteChallenge)

				owner.GET("/loyalty-config", adminHandler.GetLoyaltyConfig)
				owner.PUT("/loyalty-config", adminHandler.UpdateLoyaltyConfig)

				owner.GET("/audit-logs", adminHandler.GetAuditLogs)
			}

			// 平台超管
			super := admin.Group("")
			super.Use(RequireRole(constants.StaffRoleSuper))
			{
				super.GET("/merchants", adminHandler.GetMerchants)
				super.POST("/merchants", adminHandler.CreateMerchant)
				super.GET("/merchants/:id", adminHandler.GetMerchant)
				super.PUT("/merchants/:id", adminHandler.UpdateMerchant)

				super.GET("/staff", adminHandler.GetStaffList)
				super.POST("/staff", adminHandler.CreateStaff)
			}
		}
	}

	// Prometheus 指标
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
