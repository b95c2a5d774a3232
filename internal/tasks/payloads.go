package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// 任务类型常量，确保队列生产者与消费者一致。
const (
	TypeResumeExport = "resume:export"
)

// ResumeExportPayload 描述导出 PDF 所需的最小信息。
type ResumeExportPayload struct {
	ResumeID      uint   `json:"resume_id"`
	CorrelationID string `json:"correlation_id"`
}

// NewResumeExportTask 构造一个新的简历导出任务。
func NewResumeExportTask(id uint, correlationID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ResumeExportPayload{
		ResumeID:      id,
		CorrelationID: correlationID,
	})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeResumeExport, payload, asynq.MaxRetry(2)), nil
}

// NotifyChannel 返回某份简历导出结果的 Redis 通知频道。
func NotifyChannel(resumeID uint) string {
	return fmt.Sprintf("resume_notify:%d", resumeID)
}
