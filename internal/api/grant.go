package api

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"resumepager/internal/api/middleware"
	"resumepager/internal/database"
)

// loadGranted 读取令牌授权的简历；令牌已被轮换时视为未授权。
// 失败时已写入响应，调用方直接返回。
func loadGranted(c *gin.Context, db *gorm.DB) (*database.Resume, bool) {
	resumeID, tokenID, ok := middleware.EditGrant(c)
	if !ok {
		AbortUnauthorized(c)
		return nil, false
	}

	var row database.Resume
	if err := db.WithContext(c.Request.Context()).First(&row, resumeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			NotFound(c, "resume not found")
			return nil, false
		}
		middleware.LoggerFromContext(c).Error("query resume failed", slog.Any("error", err))
		Internal(c, "failed to query resume")
		return nil, false
	}
	if row.EditTokenID != tokenID {
		AbortUnauthorized(c)
		return nil, false
	}
	return &row, true
}
