package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	correlationIDKey = "correlationID"
	// CorrelationHeader 在请求、响应、导出任务与通知之间传递同一个 ID。
	CorrelationHeader = "X-Correlation-ID"
)

// 客户端传入的 ID 会写入日志与任务负载，只接受短的安全字符。
var correlationPattern = regexp.MustCompile(`^[A-Za-z0-9._-]{1,64}$`)

// CorrelationIDMiddleware 确保每个请求都带有 Correlation ID。
func CorrelationIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(CorrelationHeader)
		if !correlationPattern.MatchString(id) {
			id = uuid.NewString()
		}

		c.Set(correlationIDKey, id)
		c.Header(CorrelationHeader, id)

		c.Next()
	}
}

// GetCorrelationID 从上下文中取出 Correlation ID。
func GetCorrelationID(c *gin.Context) string {
	if value, ok := c.Get(correlationIDKey); ok {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}
