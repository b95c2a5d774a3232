package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"resumepager/internal/api/middleware"
	"resumepager/internal/auth"
	"resumepager/internal/database"
	"resumepager/internal/resume"
)

// ResumeHandler 负责简历数据的创建、读取与编辑。
type ResumeHandler struct {
	db      *gorm.DB
	tokens  *auth.TokenService
	scanner PhotoScanner
}

// NewResumeHandler 构造 ResumeHandler。scanner 为 nil 时跳过头像扫描。
func NewResumeHandler(db *gorm.DB, tokens *auth.TokenService, scanner PhotoScanner) *ResumeHandler {
	return &ResumeHandler{db: db, tokens: tokens, scanner: scanner}
}

type saveResumeRequest struct {
	Data     *resume.Data `json:"data"`
	DemoMode bool         `json:"demo_mode"`
}

type resumeResponse struct {
	ID        uint        `json:"id"`
	Data      resume.Data `json:"data"`
	DemoMode  bool        `json:"demo_mode"`
	Status    string      `json:"status"`
	PdfPages  int         `json:"pdf_pages,omitempty"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type createResumeResponse struct {
	resumeResponse
	Token string `json:"token"`
}

// CreateResume 保存一份新简历并签发编辑令牌。请求体为空时使用空白模板。
func (h *ResumeHandler) CreateResume(c *gin.Context) {
	var req saveResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		BadRequest(c, err.Error())
		return
	}
	data := resume.New()
	if req.Data != nil {
		data = *req.Data
	}
	if !h.accept(c, &data) {
		return
	}

	ctx := c.Request.Context()
	log := middleware.LoggerFromContext(c)

	row := database.Resume{DemoMode: req.DemoMode, Status: database.StatusDraft}
	if err := row.SetData(data); err != nil {
		Internal(c, "failed to encode resume")
		return
	}

	var token string
	err := h.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		var tokenID string
		var err error
		token, tokenID, err = h.tokens.Issue(row.ID)
		if err != nil {
			return err
		}
		row.EditTokenID = tokenID
		return tx.Model(&row).Update("edit_token_id", tokenID).Error
	})
	if err != nil {
		log.Error("create resume failed", slog.Any("error", err))
		Internal(c, "failed to create resume")
		return
	}

	log.Info("resume created", slog.Uint64("resume_id", uint64(row.ID)))
	c.JSON(http.StatusCreated, createResumeResponse{
		resumeResponse: newResumeResponse(row, data),
		Token:          token,
	})
}

// GetDemo 返回演示数据，不落库。
func (h *ResumeHandler) GetDemo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": resume.Demo(), "demo_mode": true})
}

// GetResume 返回令牌授权的简历。
func (h *ResumeHandler) GetResume(c *gin.Context) {
	row, ok := loadGranted(c, h.db)
	if !ok {
		return
	}
	data, err := row.Data()
	if err != nil {
		Internal(c, "failed to decode resume")
		return
	}
	c.JSON(http.StatusOK, newResumeResponse(*row, data))
}

// UpdateResume 整体覆盖简历数据。
func (h *ResumeHandler) UpdateResume(c *gin.Context) {
	var req saveResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if req.Data == nil {
		BadRequest(c, "data is required")
		return
	}

	row, ok := loadGranted(c, h.db)
	if !ok {
		return
	}
	if !h.accept(c, req.Data) {
		return
	}

	row.DemoMode = req.DemoMode
	h.save(c, row, *req.Data)
}

// DeleteItem 删除某个区块中的一个条目。
func (h *ResumeHandler) DeleteItem(c *gin.Context) {
	section, err := resume.ParseSection(c.Param("section"))
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	row, ok := loadGranted(c, h.db)
	if !ok {
		return
	}
	data, err := row.Data()
	if err != nil {
		Internal(c, "failed to decode resume")
		return
	}

	if err := data.RemoveItem(section, c.Param("itemId")); err != nil {
		if errors.Is(err, resume.ErrItemNotFound) {
			NotFound(c, "item not found")
			return
		}
		BadRequest(c, err.Error())
		return
	}
	h.save(c, row, data)
}

func (h *ResumeHandler) save(c *gin.Context, row *database.Resume, data resume.Data) {
	if err := row.SetData(data); err != nil {
		Internal(c, "failed to encode resume")
		return
	}
	updates := map[string]any{
		"title":     row.Title,
		"content":   row.Content,
		"demo_mode": row.DemoMode,
	}
	if err := h.db.WithContext(c.Request.Context()).Model(row).Updates(updates).Error; err != nil {
		middleware.LoggerFromContext(c).Error("update resume failed", slog.Any("error", err))
		Internal(c, "failed to update resume")
		return
	}
	c.JSON(http.StatusOK, newResumeResponse(*row, data))
}

// accept 校验数据并扫描头像；失败时已写入响应。
func (h *ResumeHandler) accept(c *gin.Context, data *resume.Data) bool {
	if err := data.Validate(); err != nil {
		BadRequest(c, err.Error())
		return false
	}
	if data.PersonalInfo.ProfilePicture == "" || h.scanner == nil {
		return true
	}

	photo, err := decodePhoto(data.PersonalInfo.ProfilePicture)
	if err != nil {
		BadRequest(c, err.Error())
		return false
	}
	if err := h.scanner.Scan(c.Request.Context(), photo); err != nil {
		if errors.Is(err, ErrInfected) {
			BadRequest(c, ErrInfected.Error())
			return false
		}
		middleware.LoggerFromContext(c).Error("scan profile picture", slog.Any("error", err))
		Internal(c, "failed to scan profile picture")
		return false
	}
	return true
}

func newResumeResponse(row database.Resume, data resume.Data) resumeResponse {
	return resumeResponse{
		ID:        row.ID,
		Data:      data,
		DemoMode:  row.DemoMode,
		Status:    row.Status,
		PdfPages:  row.PdfPages,
		UpdatedAt: row.UpdatedAt,
	}
}
