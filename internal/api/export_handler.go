package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"

	"resumepager/internal/api/middleware"
	"resumepager/internal/database"
	"resumepager/internal/tasks"
)

const (
	exportsPerHour = 20
	exportRateTTL  = time.Hour
)

// Enqueuer 投递异步任务，*asynq.Client 满足该接口。
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Presigner 生成导出文件的下载链接，*storage.Client 满足该接口。
type Presigner interface {
	PresignDownload(ctx context.Context, objectKey, fileName string, ttl time.Duration) (string, error)
}

// ExportHandler 负责导出任务的投递与下载链接。
type ExportHandler struct {
	db         *gorm.DB
	queue      Enqueuer
	storage    Presigner
	counter    RateCounter
	presignTTL time.Duration
}

func NewExportHandler(db *gorm.DB, queue Enqueuer, storage Presigner, counter RateCounter, presignTTL time.Duration) *ExportHandler {
	return &ExportHandler{db: db, queue: queue, storage: storage, counter: counter, presignTTL: presignTTL}
}

// Export 将导出任务入队并立即返回 202。
func (h *ExportHandler) Export(c *gin.Context) {
	row, ok := loadGranted(c, h.db)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	log := middleware.LoggerFromContext(c)

	if row.Status == database.StatusProcessing {
		Conflict(c, "export already in progress")
		return
	}

	if h.counter != nil {
		count, err := incrWithTTL(ctx, h.counter, exportRateKey(row.ID), exportRateTTL)
		if err != nil {
			log.Warn("export rate counter unavailable", slog.Any("error", err))
		} else if count > exportsPerHour {
			TooManyRequests(c, "too many exports, try again later")
			return
		}
	}

	correlationID := middleware.GetCorrelationID(c)
	task, err := tasks.NewResumeExportTask(row.ID, correlationID)
	if err != nil {
		Internal(c, "failed to create task")
		return
	}

	if err := h.db.WithContext(ctx).Model(row).Update("status", database.StatusProcessing).Error; err != nil {
		Internal(c, "failed to update resume status")
		return
	}

	info, err := h.queue.Enqueue(task)
	if err != nil {
		log.Error("enqueue export failed", slog.Any("error", err))
		_ = h.db.WithContext(ctx).Model(row).Update("status", database.StatusFailed).Error
		Internal(c, "failed to enqueue export")
		return
	}

	log.Info("export enqueued", slog.String("task_id", info.ID))
	c.JSON(http.StatusAccepted, gin.H{
		"message":        "export request accepted",
		"task_id":        info.ID,
		"correlation_id": correlationID,
	})
}

// GetDownloadLink 生成最近一次导出文件的预签名下载链接。
func (h *ExportHandler) GetDownloadLink(c *gin.Context) {
	row, ok := loadGranted(c, h.db)
	if !ok {
		return
	}

	if row.PdfKey == "" || row.Status == database.StatusProcessing {
		Conflict(c, "pdf not ready")
		return
	}

	data, err := row.Data()
	if err != nil {
		Internal(c, "failed to decode resume")
		return
	}

	signedURL, err := h.storage.PresignDownload(c.Request.Context(), row.PdfKey, data.FileName(), h.presignTTL)
	if err != nil {
		middleware.LoggerFromContext(c).Error("presign download failed", slog.Any("error", err))
		Internal(c, "failed to generate download link")
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": signedURL, "file_name": data.FileName(), "pages": row.PdfPages})
}
