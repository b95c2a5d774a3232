package database

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"resumepager/internal/resume"
)

// 导出状态。
const (
	StatusDraft      = "draft"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Resume 保存一份简历的原始数据；分页结果不落库，每次按需重新计算。
type Resume struct {
	gorm.Model
	Title       string         `gorm:"size:255"`
	Content     datatypes.JSON `gorm:"type:jsonb"`
	DemoMode    bool           `gorm:"default:false"`
	EditTokenID string         `gorm:"size:36;index"`
	PdfKey      string         `gorm:"size:512"`
	PdfPages    int
	Status      string `gorm:"size:32"`
}

// Data 解析 Content。
func (r *Resume) Data() (resume.Data, error) {
	var data resume.Data
	if err := json.Unmarshal(r.Content, &data); err != nil {
		return resume.Data{}, fmt.Errorf("decode resume %d: %w", r.ID, err)
	}
	return data, nil
}

// SetData 写入 Content，并以姓名作为标题。
func (r *Resume) SetData(data resume.Data) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode resume: %w", err)
	}
	r.Content = datatypes.JSON(raw)
	r.Title = data.PersonalInfo.Name
	return nil
}
