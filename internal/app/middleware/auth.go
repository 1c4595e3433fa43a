package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"plantcare-backend/pkg/status"
)

// UserIDKey 用户 ID 在 gin 上下文中的键名
const UserIDKey = "user_id"

// Auth Bearer 令牌认证中间件。
// 当前为直通实现：令牌本身就是用户 ID（UUID），
// 接入真实身份服务时只需替换这里的令牌校验逻辑。
func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			unauthorized(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			unauthorized(c, "invalid authorization header format")
			return
		}

		userID, err := uuid.Parse(strings.TrimSpace(parts[1]))
		if err != nil {
			unauthorized(c, "invalid token")
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// GetUserID 从 gin 上下文取出已认证的用户 ID
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(UserIDKey)
	if !ok {
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	return userID, ok
}

func unauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code":    status.ErrCodeUnauthorized,
		"message": message,
	})
}
