package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const slogLoggerKey = "slogLogger"

// SlogLoggerMiddleware 将 slog 集成到 Gin，并注入 Correlation ID。
// 经过编辑令牌校验的请求在完成日志中带上 resume_id。
func SlogLoggerMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		requestLogger := logger.With(
			slog.String("correlation_id", GetCorrelationID(c)),
			slog.String("method", c.Request.Method),
			slog.String("path", path),
		)
		c.Set(slogLoggerKey, requestLogger)

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			slog.Int("status", status),
			slog.Duration("latency", time.Since(start)),
		}
		if resumeID, _, ok := EditGrant(c); ok {
			attrs = append(attrs, slog.Uint64("resume_id", uint64(resumeID)))
		}

		switch {
		case status >= http.StatusInternalServerError:
			requestLogger.Error("request completed", attrs...)
		case status == http.StatusTooManyRequests || status == http.StatusConflict:
			requestLogger.Warn("request completed", attrs...)
		default:
			requestLogger.Info("request completed", attrs...)
		}
	}
}

// withResume 让后续处理器的日志带上 resume_id。
func withResume(c *gin.Context, resumeID uint) {
	c.Set(slogLoggerKey, LoggerFromContext(c).With(slog.Uint64("resume_id", uint64(resumeID))))
}

// LoggerFromContext 返回上下文中的 slog.Logger。
func LoggerFromContext(c *gin.Context) *slog.Logger {
	if value, ok := c.Get(slogLoggerKey); ok {
		if logger, ok := value.(*slog.Logger); ok {
			return logger
		}
	}
	return slog.Default()
}
