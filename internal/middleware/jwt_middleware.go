package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/gtd_visa/internal/utils"
)

// JWTMiddleware authenticates admin requests with a bearer token.
type JWTMiddleware struct {
	limiter *InvalidAuthRateLimiter
}

// NewJWTMiddleware creates a JWTMiddleware allowing 5 bad tokens per minute per IP.
func NewJWTMiddleware() *JWTMiddleware {
	return &JWTMiddleware{limiter: NewInvalidAuthRateLimiter(5, time.Minute)}
}

// Handle returns the gin handler.
func (m *JWTMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			m.reject(c, "UNAUTHORIZED", "Missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			m.reject(c, "UNAUTHORIZED", "Invalid authorization header")
			return
		}

		claims, err := utils.ValidateJWT(parts[1])
		if err != nil {
			log.Debug().Err(err).Str("ip", c.ClientIP()).Msg("Rejected admin token")
			m.reject(c, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Next()
	}
}

func (m *JWTMiddleware) reject(c *gin.Context, code, message string) {
	if !m.limiter.Allow(c.ClientIP()) {
		utils.Error(c, http.StatusTooManyRequests, "TOO_MANY_REQUESTS", "Too many invalid authentication attempts")
		c.Abort()
		return
	}
	utils.Error(c, http.StatusUnauthorized, code, message)
	c.Abort()
}

// UserID returns the authenticated admin id, or 0.
func UserID(c *gin.Context) int {
	return c.GetInt("user_id")
}
