package server

import (
	"context"
	"crypto/subtle"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/storefront/internal/audit/domain"
	obscontext "github.com/smallbiznis/storefront/internal/observability/context"
	"github.com/smallbiznis/storefront/internal/observability/logger"
	"go.uber.org/zap"
)

const (
	headerAuthorization = "Authorization"
	bearerPrefix        = "bearer "
	adminActorID        = "admin"
)

// ClientContext stores caller ip and user agent for audit entries.
func ClientContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := obscontext.WithClientInfo(c.Request.Context(), c.ClientIP(), c.Request.UserAgent())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// StorefrontActor tags public requests so audit entries name the storefront.
func StorefrontActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := obscontext.WithActor(c.Request.Context(), string(auditdomain.ActorTypeStorefront), "")
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// AdminRequired checks the static bearer token. Without a configured token
// the admin API is open outside production and closed in production.
func (s *Server) AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		expected := strings.TrimSpace(s.cfg.AdminToken)
		if expected == "" {
			if s.cfg.IsProduction() {
				AbortWithError(c, ErrUnauthorized)
				return
			}
		} else {
			header := strings.TrimSpace(c.GetHeader(headerAuthorization))
			if len(header) < len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
				AbortWithError(c, ErrUnauthorized)
				return
			}
			token := strings.TrimSpace(header[len(bearerPrefix):])
			if subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
				AbortWithError(c, ErrUnauthorized)
				return
			}
		}

		ctx := obscontext.WithActor(c.Request.Context(), string(auditdomain.ActorTypeAdmin), adminActorID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// CheckoutRateLimit applies the per-caller token bucket to checkout submissions.
func (s *Server) CheckoutRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.limiter == nil || !s.limiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		result, err := s.limiter.Allow(ctx, c.ClientIP())
		if err != nil {
			// fail open when redis is unreachable
			logger.FromContext(ctx).Warn("checkout rate limit check failed", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		if !result.Allowed {
			denyRateLimit(ctx, c, s, int(result.RetryAfter.Seconds()))
			return
		}
		c.Next()
	}
}

func denyRateLimit(ctx context.Context, c *gin.Context, s *Server, retryAfter int) {
	endpoint := normalizeRateLimitEndpoint(c)
	logger.FromContext(ctx).Warn("checkout rate limit exceeded", zap.String("endpoint", endpoint))
	if s.obsMetrics != nil {
		s.obsMetrics.RecordRateLimitDenied(ctx, endpoint)
	}

	if retryAfter < 1 {
		retryAfter = 1
	}
	c.Header("Retry-After", strconv.Itoa(retryAfter))
	AbortWithError(c, ErrRateLimited)
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	if c == nil {
		return "unknown"
	}
	endpoint := strings.TrimSpace(c.FullPath())
	if endpoint == "" {
		endpoint = strings.TrimSpace(c.Request.URL.Path)
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}
