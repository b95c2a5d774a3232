package worker

// ExportNotifyMessage 是通过 Redis Pub/Sub 转发到 WebSocket 的导出结果。
// 字段名与前端解析保持一致。
type ExportNotifyMessage struct {
	Type          string `json:"type"`
	Status        string `json:"status"`
	ResumeID      uint   `json:"resume_id"`
	CorrelationID string `json:"correlation_id"`
	Pages         int    `json:"pages,omitempty"`
	FileName      string `json:"file_name,omitempty"`
	ErrorCode     int    `json:"error_code"`
	ErrorMessage  string `json:"error_message"`
}

// NotifyType 标记导出通知，区别于预览消息。
const NotifyType = "export"

// exportFailedMessage 不暴露内部错误细节。
const exportFailedMessage = "Não foi possível gerar o PDF. Tente novamente."
