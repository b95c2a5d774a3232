package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"resumepager/internal/database"
	"resumepager/internal/errcode"
	"resumepager/internal/export"
	"resumepager/internal/metrics"
	"resumepager/internal/pagination"
	"resumepager/internal/resume"
	"resumepager/internal/storage"
	"resumepager/internal/tasks"
)

// Paginator 为导出计算分页。
type Paginator interface {
	Paginate(ctx context.Context, data resume.Data, demo bool) (pagination.Layout, error)
}

// Exporter 把分页结果变成 PDF。
type Exporter interface {
	Export(ctx context.Context, data resume.Data, layout pagination.Layout) (export.Result, error)
}

// ObjectStore 是导出用到的对象存储操作。
type ObjectStore interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
	DeleteObject(ctx context.Context, objectKey string) error
}

// Publisher 发布通知，*redis.Client 满足该接口。
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// ExportTaskHandler 负责消费简历导出任务。
type ExportTaskHandler struct {
	db        *gorm.DB
	paginator Paginator
	exporter  Exporter
	storage   ObjectStore
	publisher Publisher
	logger    *slog.Logger
	// lastAttempt 判断本次失败后是否还会重试。
	lastAttempt func(ctx context.Context, err error) bool
}

// NewExportTaskHandler 创建任务处理器。
func NewExportTaskHandler(
	db *gorm.DB,
	paginator Paginator,
	exporter Exporter,
	store ObjectStore,
	publisher Publisher,
	logger *slog.Logger,
) *ExportTaskHandler {
	return &ExportTaskHandler{
		db:          db,
		paginator:   paginator,
		exporter:    exporter,
		storage:     store,
		publisher:   publisher,
		logger:      logger,
		lastAttempt: isLastAttempt,
	}
}

// ProcessTask 实现 asynq.Handler。
func (h *ExportTaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) (retErr error) {
	log := h.logger

	var payload tasks.ResumeExportPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		log.Error("unmarshal task payload failed", slog.Any("error", err))
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	log = log.With(
		slog.String("correlation_id", payload.CorrelationID),
		slog.Uint64("resume_id", uint64(payload.ResumeID)),
	)
	log.Info("starting resume export")

	var row database.Resume
	if err := h.db.WithContext(ctx).First(&row, payload.ResumeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("resume not found, skipping task")
			return nil
		}
		log.Error("query resume failed", slog.Any("error", err))
		return err
	}

	if err := h.setStatus(ctx, &row, database.StatusProcessing); err != nil {
		return err
	}

	started := time.Now()
	defer func() {
		metrics.ExportDuration.Observe(time.Since(started).Seconds())
		if retErr == nil {
			return
		}
		// 还会重试时保持 processing，避免重复投递导出任务。
		if !h.lastAttempt(ctx, retErr) {
			log.Warn("resume export attempt failed, retry pending", slog.Any("error", retErr))
			return
		}
		// 使用独立的 context：任务 context 可能已超时。
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := h.setStatus(cleanupCtx, &row, database.StatusFailed); err != nil {
			log.Error("mark resume export failed", slog.Any("error", err))
		}
		notify := ExportNotifyMessage{
			Type:          NotifyType,
			Status:        database.StatusFailed,
			ResumeID:      row.ID,
			CorrelationID: payload.CorrelationID,
			ErrorCode:     errcode.ExportFailed,
			ErrorMessage:  exportFailedMessage,
		}
		if err := h.publish(cleanupCtx, notify); err != nil {
			log.Error("publish export error notification failed", slog.Any("error", err))
		}
	}()

	data, err := row.Data()
	if err != nil {
		log.Error("decode resume content failed", slog.Any("error", err))
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	layout, err := h.paginator.Paginate(ctx, data, false)
	if err != nil {
		log.Error("paginate resume failed", slog.Any("error", err))
		return err
	}

	result, err := h.exporter.Export(ctx, data, layout)
	if err != nil {
		log.Error("export pdf failed", slog.Any("error", err))
		return err
	}

	objectName := storage.PDFKey(row.ID, uuid.NewString())
	if err := h.storage.UploadFile(ctx, objectName, bytes.NewReader(result.PDF), int64(len(result.PDF)), "application/pdf"); err != nil {
		log.Error("upload pdf to minio failed", slog.Any("error", err))
		return err
	}

	previous := row.PdfKey
	update := map[string]any{
		"pdf_key":   objectName,
		"pdf_pages": result.Pages,
		"status":    database.StatusCompleted,
	}
	if err := h.db.WithContext(ctx).Model(&row).Updates(update).Error; err != nil {
		log.Error("update resume failed", slog.Any("error", err))
		return err
	}
	if previous != "" && previous != objectName {
		if err := h.storage.DeleteObject(ctx, previous); err != nil {
			log.Warn("delete previous export failed", slog.String("key", previous), slog.Any("error", err))
		}
	}

	notify := ExportNotifyMessage{
		Type:          NotifyType,
		Status:        database.StatusCompleted,
		ResumeID:      row.ID,
		CorrelationID: payload.CorrelationID,
		Pages:         result.Pages,
		FileName:      result.FileName,
		ErrorCode:     errcode.OK,
	}
	if layout.Fallback {
		notify.ErrorCode = errcode.MeasurementFallback
		notify.ErrorMessage = "Não foi possível medir o conteúdo; o currículo foi exportado em uma única página."
		log.Warn("pdf exported with single-page fallback")
	}
	if err := h.publish(ctx, notify); err != nil {
		log.Error("publish redis notification failed", slog.Any("error", err))
	}

	log.Info("resume export completed", slog.Int("pages", result.Pages), slog.String("object", objectName))
	return nil
}

func (h *ExportTaskHandler) setStatus(ctx context.Context, row *database.Resume, status string) error {
	if err := h.db.WithContext(ctx).Model(row).Update("status", status).Error; err != nil {
		return fmt.Errorf("set resume %d status %s: %w", row.ID, status, err)
	}
	return nil
}

func (h *ExportTaskHandler) publish(ctx context.Context, notify ExportNotifyMessage) error {
	data, err := json.Marshal(notify)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := tasks.NotifyChannel(notify.ResumeID)
	if err := h.publisher.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}

// isLastAttempt 在 SkipRetry 或重试次数用尽时返回 true；没有重试信息时（直接调用）也视为最后一次。
func isLastAttempt(ctx context.Context, err error) bool {
	if errors.Is(err, asynq.SkipRetry) {
		return true
	}
	retryCount, ok1 := asynq.GetRetryCount(ctx)
	maxRetry, ok2 := asynq.GetMaxRetry(ctx)
	if !ok1 || !ok2 {
		return true
	}
	return retryCount >= maxRetry
}
