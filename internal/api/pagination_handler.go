package api

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"resumepager/internal/api/middleware"
	"resumepager/internal/errcode"
	"resumepager/internal/metrics"
	"resumepager/internal/pagination"
	"resumepager/internal/resume"
)

// Paginator 执行服务端测量与分页，*pagination.Paginator 满足该接口。
type Paginator interface {
	Paginate(ctx context.Context, data resume.Data, demo bool) (pagination.Layout, error)
}

// PaginationHandler 暴露分页计算。
type PaginationHandler struct {
	db        *gorm.DB
	paginator Paginator
	opts      pagination.Options
}

func NewPaginationHandler(db *gorm.DB, paginator Paginator, opts pagination.Options) *PaginationHandler {
	return &PaginationHandler{db: db, paginator: paginator, opts: opts}
}

type paginateRequest struct {
	Data     resume.Data `json:"data"`
	DemoMode bool        `json:"demo_mode"`
}

type packRequest struct {
	Data        resume.Data            `json:"data"`
	Measurement pagination.Measurement `json:"measurement"`
}

type layoutResponse struct {
	Layout       pagination.Layout `json:"layout"`
	PageCount    int               `json:"page_count"`
	Page         int               `json:"page"`
	ErrorCode    int               `json:"error_code"`
	ErrorMessage string            `json:"error_message,omitempty"`
}

// PaginateData 对请求体中的数据做服务端测量与分页，不落库。
func (h *PaginationHandler) PaginateData(c *gin.Context) {
	var req paginateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if err := req.Data.Validate(); err != nil {
		BadRequest(c, err.Error())
		return
	}
	h.paginate(c, req.Data, req.DemoMode)
}

// PaginateStored 对已保存的简历做服务端测量与分页。
func (h *PaginationHandler) PaginateStored(c *gin.Context) {
	row, ok := loadGranted(c, h.db)
	if !ok {
		return
	}
	data, err := row.Data()
	if err != nil {
		Internal(c, "failed to decode resume")
		return
	}
	h.paginate(c, data, row.DemoMode)
}

// Pack 使用客户端提供的测量结果装箱，不触发服务端渲染。
func (h *PaginationHandler) Pack(c *gin.Context) {
	var req packRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if err := req.Data.Validate(); err != nil {
		BadRequest(c, err.Error())
		return
	}
	m := req.Measurement
	if err := m.Validate(); err != nil {
		BadRequest(c, err.Error())
		return
	}
	if m.DocumentHeight <= 0 {
		m.DocumentHeight = m.Extent()
	}

	layout := pagination.Pack(req.Data, m, h.opts)
	metrics.PaginationPasses.WithLabelValues("packed").Inc()
	c.JSON(http.StatusOK, newLayoutResponse(layout, requestedPage(c)))
}

func (h *PaginationHandler) paginate(c *gin.Context, data resume.Data, demo bool) {
	layout, err := h.paginator.Paginate(c.Request.Context(), data, demo)
	if err != nil {
		// 只有请求被取消时才会出错。
		middleware.LoggerFromContext(c).Warn("pagination canceled", slog.Any("error", err))
		metrics.PaginationPasses.WithLabelValues("canceled").Inc()
		Error(c, http.StatusServiceUnavailable, "pagination canceled")
		return
	}
	outcome := "paginated"
	if layout.Fallback {
		outcome = "fallback"
	}
	metrics.PaginationPasses.WithLabelValues(outcome).Inc()
	metrics.PagesPerResume.Observe(float64(layout.PageCount()))
	c.JSON(http.StatusOK, newLayoutResponse(layout, requestedPage(c)))
}

func requestedPage(c *gin.Context) int {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil {
		return 0
	}
	return page
}

func newLayoutResponse(layout pagination.Layout, page int) layoutResponse {
	resp := layoutResponse{
		Layout:    layout,
		PageCount: layout.PageCount(),
		Page:      layout.ClampPage(page),
		ErrorCode: errcode.OK,
	}
	if layout.Fallback {
		resp.ErrorCode = errcode.MeasurementFallback
		resp.ErrorMessage = "measurement unavailable, showing a single unpaginated page"
	}
	return resp
}
