package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"market-api/internal/shared/response"
	"market-api/pkg/jwt"
)

// ContextKeyUserID là key của user id trong gin context
const ContextKeyUserID = "userID"

type userIDKey struct{}

// TokenValidator verify access token, *jwt.Manager implement interface này
type TokenValidator interface {
	ValidateAccessToken(token string) (*jwt.Claims, error)
}

// AuthMiddleware - Middleware xác thực JWT bearer token
// Mọi lỗi xác thực đều là 401, không bao giờ 403
func AuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Lấy token từ Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.AbortWithError(c, 401, "missing authorization header")
			return
		}

		// 2. Extract token từ "Bearer <token>"
		scheme, token, ok := strings.Cut(authHeader, " ")
		token = strings.TrimSpace(token)
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			response.AbortWithError(c, 401, "invalid authorization header format")
			return
		}

		// 3. Verify và parse JWT
		claims, err := tokens.ValidateAccessToken(token)
		if err != nil {
			log.Debug().Err(err).Str("request_id", c.GetString(ContextKeyRequestID)).Msg("rejected bearer token")
			response.AbortWithError(c, 401, "invalid token")
			return
		}

		// 4. Set userID vào gin context và request context
		c.Set(ContextKeyUserID, claims.Subject)
		c.Request = c.Request.WithContext(WithUserID(c.Request.Context(), claims.Subject))

		c.Next()
	}
}

// WithUserID gắn user id vào context (dùng bởi middleware và test)
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey{}, userID)
}

// UserIDFromContext lấy user id đã xác thực từ request context
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey{}).(string)
	return id, ok && id != ""
}

// CurrentUserID lấy user id từ gin context
func CurrentUserID(c *gin.Context) (string, bool) {
	id := c.GetString(ContextKeyUserID)
	return id, id != ""
}
