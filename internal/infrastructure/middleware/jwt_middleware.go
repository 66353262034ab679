package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"terrasapp_server/pkg/errorx"
	"terrasapp_server/pkg/util/jwt"
)

// ContextUserIDKey 认证通过后用户 uuid 在 gin.Context 中的键
const ContextUserIDKey = "user_id"

// BearerToken 从 Authorization 头解析 Bearer Token，格式错误返回空字符串
func BearerToken(c *gin.Context) string {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// JWTAuth JWT 认证中间件
// 验证 Access Token 并将用户 uuid 存入上下文
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			abortUnauthorized(c, "请先登录")
			return
		}

		token := BearerToken(c)
		if token == "" {
			abortUnauthorized(c, "Token 格式错误，请使用 Bearer Token")
			return
		}

		// ParseAccessToken 同时校验 subject 必须为 access_token
		claims, err := jwt.ParseAccessToken(token)
		if err != nil {
			abortUnauthorized(c, "Token 已过期或无效，请重新登录")
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code": errorx.CodeUnauthorized,
		"msg":  msg,
	})
}
