package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/promostreet/internal/authz"
	"github.com/promostreet/internal/cache"
	"github.com/promostreet/internal/config"
	adminhandlers "github.com/promostreet/internal/http/handlers/admin"
	publichandlers "github.com/promostreet/internal/http/handlers/public"
	"github.com/promostreet/internal/http/response"
	"github.com/promostreet/internal/logger"
	"github.com/promostreet/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按前台/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "ps"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "登录尝试过于频繁",
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		Message:       "登录尝试过于频繁",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 公开接口（兑换落地页与曝光计数）
		public := apiV1.Group("/public")
		{
			public.GET("/offers/:ref", publicHandler.GetPublicOffer)
			public.POST("/redemptions", publicHandler.IssueRedemption)
			public.POST("/partnerships/:id/impressions", publicHandler.RecordPartnershipImpression)
		}

		// 用户认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", publicHandler.UserRegister)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.UserLogin)
		}

		// 零售商接口（需鉴权）
		user := apiV1.Group("")
		user.Use(UserJWTAuthMiddleware(cfg.UserJWT.SecretKey, c.UserRepo))
		{
			user.GET("/me", publicHandler.GetCurrentUser)

			user.POST("/locations", publicHandler.CreateLocation)
			user.GET("/locations", publicHandler.ListMyLocations)
			user.GET("/locations/:id", publicHandler.GetLocation)
			user.GET("/locations/:id/state", publicHandler.GetLocationState)
			user.PUT("/locations/:id", publicHandler.UpdateLocation)
			user.DELETE("/locations/:id", publicHandler.DeleteLocation)

			user.GET("/locations/:id/open-offer", publicHandler.GetOpenOfferSubscription)
			user.POST("/locations/:id/open-offer/preview", publicHandler.PreviewOpenOffer)
			user.POST("/locations/:id/open-offer", publicHandler.EnableOpenOffer)
			user.POST("/locations/:id/open-offer/cancel", publicHandler.CancelOpenOffer)
			user.POST("/locations/:id/open-offer/resume", publicHandler.ResumeOpenOffer)

			user.POST("/offers", publicHandler.CreateOffer)
			user.GET("/offers", publicHandler.ListMyOffers)
			user.PUT("/offers/:id", publicHandler.UpdateOffer)
			user.POST("/offers/:id/deactivate", publicHandler.DeactivateOffer)

			user.POST("/partnerships", publicHandler.SendPartnerRequest)
			user.POST("/partnerships/preview", publicHandler.PreviewPartnerRequest)
			user.GET("/partnerships", publicHandler.ListMyPartnerships)
			user.POST("/partnerships/:id/approve", publicHandler.ApprovePartnerRequest)
			user.POST("/partnerships/:id/reject", publicHandler.RejectPartnerRequest)
			user.POST("/partnerships/:id/cancel", publicHandler.CancelPartnerRequest)

			user.POST("/redemptions/confirm", publicHandler.ConfirmRedemption)
			user.GET("/redemptions", publicHandler.ListMyRedemptions)

			user.GET("/credit", publicHandler.GetMyCredit)
			user.GET("/credit/entries", publicHandler.ListMyCreditEntries)
			user.GET("/billing", publicHandler.ListMyBillingTransactions)

			user.POST("/payment-methods", publicHandler.AttachPaymentMethod)
			user.GET("/payment-methods", publicHandler.ListMyPaymentMethods)
			user.POST("/payment-methods/:id/default", publicHandler.SetDefaultPaymentMethod)
			user.DELETE("/payment-methods/:id", publicHandler.DetachPaymentMethod)

			user.POST("/promo-codes/validate", publicHandler.ValidatePromoCode)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		{
			// 登录接口（无需鉴权）
			admin.POST("/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIP), adminHandler.AdminLogin)

			// 需要鉴权的接口
			authorized := admin.Use(JWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo), AdminRBACMiddleware(c.AuthzService))
			{
				// 仪表盘
				authorized.GET("/dashboard/overview", adminHandler.GetDashboardOverview)

				// 零售商管理
				authorized.GET("/users", adminHandler.ListUsers)
				authorized.GET("/users/:id", adminHandler.GetUser)
				authorized.PUT("/users/:id", adminHandler.UpdateUserStatus)

				// 门店与报价管理
				authorized.GET("/locations", adminHandler.ListLocations)
				authorized.GET("/offers", adminHandler.ListOffers)

				// 合作请求管理
				authorized.GET("/partnerships", adminHandler.ListPartnerships)
				authorized.GET("/partnerships/:id", adminHandler.GetPartnership)
				authorized.POST("/partnerships/:id/cancel", adminHandler.CancelPartnership)

				// 兑换码管理
				authorized.GET("/redemptions", adminHandler.ListRedemptions)
				authorized.POST("/redemptions/sweep", adminHandler.SweepExpiredRedemptions)

				// 计费与信用管理
				authorized.GET("/billing", adminHandler.ListBillingTransactions)
				authorized.GET("/billing/:reference", adminHandler.GetBillingTransaction)
				authorized.GET("/credit/entries", adminHandler.ListCreditEntries)
				authorized.POST("/credit/grant", adminHandler.GrantCredit)

				// 促销码管理
				authorized.POST("/promo-codes", adminHandler.CreatePromoCode)
				authorized.GET("/promo-codes", adminHandler.ListPromoCodes)
				authorized.PUT("/promo-codes/:id", adminHandler.UpdatePromoCode)
				authorized.DELETE("/promo-codes/:id", adminHandler.DeletePromoCode)

				// 订阅续费
				authorized.POST("/subscriptions/renew-due", adminHandler.RenewDueSubscriptions)

				// 修改密码
				authorized.PUT("/password", adminHandler.UpdateAdminPassword)

				// 权限管理
				authorized.GET("/authz/me", adminHandler.GetAuthzMe)
				authorized.GET("/authz/roles", adminHandler.ListAuthzRoles)
				authorized.GET("/authz/admins", adminHandler.ListAuthzAdmins)
				authorized.POST("/authz/admins", adminHandler.CreateAuthzAdmin)
				authorized.PUT("/authz/admins/:id", adminHandler.UpdateAuthzAdmin)
				authorized.DELETE("/authz/admins/:id", adminHandler.DeleteAuthzAdmin)
				authorized.GET("/authz/permissions/catalog", func(ctx *gin.Context) {
					response.Success(ctx, buildAdminPermissionCatalog(r))
				})
				authorized.POST("/authz/roles", adminHandler.CreateAuthzRole)
				authorized.DELETE("/authz/roles/:role", adminHandler.DeleteAuthzRole)
				authorized.GET("/authz/roles/:role/policies", adminHandler.GetAuthzRolePolicies)
				authorized.POST("/authz/policies", adminHandler.GrantAuthzPolicy)
				authorized.DELETE("/authz/policies", adminHandler.RevokeAuthzPolicy)
				authorized.GET("/authz/admins/:id/roles", adminHandler.GetAuthzAdminRoles)
				authorized.PUT("/authz/admins/:id/roles", adminHandler.SetAuthzAdminRoles)
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type adminPermissionCatalogItem struct {
	Module     string `json:"module"`
	Method     string `json:"method"`
	Object     string `json:"object"`
	Permission string `json:"permission"`
}

func buildAdminPermissionCatalog(engine *gin.Engine) []adminPermissionCatalogItem {
	if engine == nil {
		return []adminPermissionCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]adminPermissionCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, "/api/v1/admin/") {
			continue
		}
		if item.Path == "/api/v1/admin/login" {
			continue
		}
		object := authz.NormalizeObject(item.Path)
		permission := method + ":" + object
		if _, exists := seen[permission]; exists {
			continue
		}
		seen[permission] = struct{}{}
		items = append(items, adminPermissionCatalogItem{
			Module:     deriveAdminPermissionModule(object),
			Method:     method,
			Object:     object,
			Permission: permission,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Object == items[j].Object {
				return items[i].Method < items[j].Method
			}
			return items[i].Object < items[j].Object
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveAdminPermissionModule(object string) string {
	normalized := strings.TrimPrefix(strings.TrimSpace(object), "/")
	if normalized == "" {
		return "system"
	}
	segments := strings.Split(normalized, "/")
	if len(segments) <= 1 {
		return segments[0]
	}
	if segments[0] != "admin" {
		return segments[0]
	}
	if segments[1] == "authz" {
		return "authz"
	}
	return segments[1]
}
