package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"resumepager/internal/api/middleware"
	"resumepager/internal/auth"
	"resumepager/internal/pagination"
)

// Deps 汇总路由需要的依赖。Counter、Subscriber、Scanner 为 nil 时对应功能关闭。
type Deps struct {
	DB              *gorm.DB
	Queue           Enqueuer
	Storage         Presigner
	Paginator       Paginator
	Tokens          *auth.TokenService
	Counter         RateCounter
	Subscriber      Subscriber
	Scanner         PhotoScanner
	Options         pagination.Options
	PreviewDebounce time.Duration
	PresignTTL      time.Duration
	AllowedOrigins  []string
	Logger          *slog.Logger
}

// RegisterRoutes 注册 /v1 下的业务路由。
func RegisterRoutes(router *gin.Engine, deps Deps) {
	resumeHandler := NewResumeHandler(deps.DB, deps.Tokens, deps.Scanner)
	paginationHandler := NewPaginationHandler(deps.DB, deps.Paginator, deps.Options)
	exportHandler := NewExportHandler(deps.DB, deps.Queue, deps.Storage, deps.Counter, deps.PresignTTL)
	wsHandler := NewWsHandler(deps.DB, deps.Tokens, deps.Paginator, deps.Subscriber, deps.PreviewDebounce, deps.Logger, deps.AllowedOrigins)
	editAuth := middleware.EditTokenMiddleware(deps.Tokens)

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)
		v1.POST("/pack", paginationHandler.Pack)
		v1.POST("/paginate", paginationHandler.PaginateData)

		v1.POST("/resumes", resumeHandler.CreateResume)
		v1.GET("/demo", resumeHandler.GetDemo)

		resumeGroup := v1.Group("/resumes/:id")
		resumeGroup.Use(editAuth)
		{
			resumeGroup.GET("", resumeHandler.GetResume)
			resumeGroup.PUT("", resumeHandler.UpdateResume)
			resumeGroup.DELETE("/items/:section/:itemId", resumeHandler.DeleteItem)
			resumeGroup.POST("/paginate", paginationHandler.PaginateStored)
			resumeGroup.POST("/export", exportHandler.Export)
			resumeGroup.GET("/download-link", exportHandler.GetDownloadLink)
		}
	}
}
