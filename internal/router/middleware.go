package router

import (
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/promostreet/internal/authz"
	"github.com/promostreet/internal/cache"
	"github.com/promostreet/internal/config"
	"github.com/promostreet/internal/constants"
	"github.com/promostreet/internal/http/response"
	"github.com/promostreet/internal/logger"
	"github.com/promostreet/internal/repository"
	"github.com/promostreet/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	requestIDKey           = "request_id"
	requestIDHeader        = "X-Request-ID"
	adminIsSuperContextKey = "admin_is_super"
)

func abortUnauthorized(c *gin.Context, msg string) {
	response.Unauthorized(c, msg)
	c.Abort()
}

// CORSMiddleware 跨域响应头中间件，预检请求直接 204 短路
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowedOrigins := nonEmptyList(cfg.AllowedOrigins, []string{"*"})
	allowedMethods := nonEmptyList(cfg.AllowedMethods, []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	allowedHeaders := nonEmptyList(cfg.AllowedHeaders, []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
	})
	methodsHeader := strings.Join(allowedMethods, ", ")
	headersHeader := strings.Join(allowedHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowedOrigin := resolveAllowedOrigin(origin, allowedOrigins, cfg.AllowCredentials)
		if allowedOrigin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			if allowedOrigin != "*" {
				c.Writer.Header().Add("Vary", "Origin")
			}
		}
		if cfg.AllowCredentials {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", headersHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", methodsHeader)
		if cfg.MaxAge > 0 {
			c.Writer.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func nonEmptyList(values, fallback []string) []string {
	if len(values) == 0 {
		return fallback
	}
	return values
}

// 带凭证时不能回 "*"，浏览器会拒收，回显具体 Origin
func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	if len(allowedOrigins) == 0 {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			if allowCredentials && origin != "" {
				return origin
			}
			return "*"
		}
	}
	if origin == "" {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// RequestIDMiddleware 为每个请求分配或透传 request_id
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggerMiddleware 请求访问日志，出错的请求升级到 error 级别
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.L()
	}
	sugar := logger.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := sugar.With(
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		if len(c.Errors) > 0 {
			log.Errorw("request", "errors", c.Errors.String())
			return
		}
		log.Infow("request")
	}
}

func getRequestID(c *gin.Context) string {
	value, ok := c.Get(requestIDKey)
	if !ok {
		return ""
	}
	if requestID, ok := value.(string); ok {
		return requestID
	}
	return ""
}

// JWTAuthMiddleware 管理端令牌鉴权，鉴权快照命中时免查库
func JWTAuthMiddleware(secretKey string, adminRepo repository.AdminRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secretKey == "" {
			abortUnauthorized(c, "JWT 密钥未配置")
			return
		}
		if adminRepo == nil {
			abortUnauthorized(c, "登录凭证无效")
			return
		}
		claims, ok := parseBearerToken(c, secretKey, func() jwt.Claims { return &service.JWTClaims{} })
		if !ok {
			return
		}
		adminClaims, typeOK := claims.(*service.JWTClaims)
		if !typeOK || adminClaims.AdminID == 0 {
			abortUnauthorized(c, "登录凭证无效")
			return
		}

		if cached, hit, cacheErr := cache.GetAdminAuthState(c.Request.Context(), adminClaims.AdminID); cacheErr == nil && hit && cached != nil {
			setAdminContext(c, adminClaims.AdminID, cached.Username, cached.IsSuper)
			c.Next()
			return
		}

		admin, err := adminRepo.GetByID(adminClaims.AdminID)
		if err != nil || admin == nil {
			abortUnauthorized(c, "登录凭证无效")
			return
		}
		_ = cache.SetAdminAuthState(c.Request.Context(), cache.BuildAdminAuthState(admin))

		setAdminContext(c, adminClaims.AdminID, admin.Username, admin.IsSuper)
		c.Next()
	}
}

func setAdminContext(c *gin.Context, adminID uint, username string, isSuper bool) {
	c.Set("admin_id", adminID)
	c.Set("username", username)
	c.Set(adminIsSuperContextKey, isSuper)
}

// AdminRBACMiddleware 管理端按角色授权，超管放行，其余走 casbin 判定
func AdminRBACMiddleware(authzService *authz.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authzService == nil {
			logger.Errorw("admin_rbac_service_unavailable")
			abortUnauthorized(c, "未授权访问")
			return
		}

		if isSuper, ok := c.Get(adminIsSuperContextKey); ok {
			if superValue, typeOK := isSuper.(bool); typeOK && superValue {
				c.Next()
				return
			}
		}

		adminIDRaw, exists := c.Get("admin_id")
		if !exists {
			abortUnauthorized(c, "未授权访问")
			return
		}

		adminID, typeOK := adminIDRaw.(uint)
		if !typeOK || adminID == 0 {
			abortUnauthorized(c, "未授权访问")
			return
		}

		// 用路由模板而非实际路径，策略里才能按 /admin/offers/:id 这种粒度配置
		resource := c.FullPath()
		if strings.TrimSpace(resource) == "" {
			resource = c.Request.URL.Path
		}

		allowed, err := authzService.EnforceAdmin(adminID, resource, c.Request.Method)
		if err != nil {
			logger.Errorw("admin_rbac_enforce_failed",
				"admin_id", adminID,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"error", err,
			)
			abortUnauthorized(c, "未授权访问")
			return
		}
		if !allowed {
			logger.Warnw("admin_rbac_permission_denied",
				"admin_id", adminID,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"resource", authz.NormalizeObject(resource),
			)
			response.Forbidden(c, "没有访问权限")
			c.Abort()
			return
		}

		c.Next()
	}
}

// UserJWTAuthMiddleware 零售商令牌鉴权，封禁账号即使持有效令牌也拒绝
func UserJWTAuthMiddleware(secretKey string, userRepo repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secretKey == "" {
			abortUnauthorized(c, "JWT 密钥未配置")
			return
		}
		if userRepo == nil {
			abortUnauthorized(c, "登录凭证无效")
			return
		}
		claims, ok := parseBearerToken(c, secretKey, func() jwt.Claims { return &service.UserJWTClaims{} })
		if !ok {
			return
		}
		userClaims, typeOK := claims.(*service.UserJWTClaims)
		if !typeOK || userClaims.UserID == 0 {
			abortUnauthorized(c, "登录凭证无效")
			return
		}

		if cached, hit, cacheErr := cache.GetUserAuthState(c.Request.Context(), userClaims.UserID); cacheErr == nil && hit && cached != nil {
			if !isActiveUserStatus(cached.Status) {
				abortUnauthorized(c, "账号已被禁用")
				return
			}
			setUserContext(c, userClaims.UserID, userClaims.Email)
			c.Next()
			return
		}

		user, err := userRepo.GetByID(userClaims.UserID)
		if err != nil || user == nil {
			abortUnauthorized(c, "登录凭证无效")
			return
		}
		if !isActiveUserStatus(user.Status) {
			abortUnauthorized(c, "账号已被禁用")
			return
		}
		_ = cache.SetUserAuthState(c.Request.Context(), cache.BuildUserAuthState(user))

		setUserContext(c, userClaims.UserID, userClaims.Email)
		c.Next()
	}
}

func setUserContext(c *gin.Context, userID uint, email string) {
	c.Set("user_id", userID)
	c.Set("user_email", email)
}

func parseBearerToken(c *gin.Context, secretKey string, newClaims func() jwt.Claims) (jwt.Claims, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		abortUnauthorized(c, "缺少认证头")
		return nil, false
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if !(len(parts) == 2 && parts[0] == "Bearer") {
		abortUnauthorized(c, "认证头格式错误")
		return nil, false
	}

	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := newClaims()
	token, err := parser.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secretKey), nil
	})
	if err != nil || !token.Valid {
		abortUnauthorized(c, "登录凭证无效")
		return nil, false
	}
	return claims, true
}

func isActiveUserStatus(status string) bool {
	return strings.ToLower(strings.TrimSpace(status)) == constants.UserStatusActive
}
