package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/bcgov/bctw-api/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// LoadedMessage 运行成功时返回的消息
const LoadedMessage = "Database Loaded"

// PipelineRunner 执行一次完整同步
type PipelineRunner interface {
	Run(ctx context.Context) (*model.RunReport, error)
}

type SyncHandler struct {
	runner  PipelineRunner
	timeout time.Duration
	logger  *logrus.Logger
}

func NewSyncHandler(runner PipelineRunner, timeout time.Duration, logger *logrus.Logger) *SyncHandler {
	return &SyncHandler{
		runner:  runner,
		timeout: timeout,
		logger:  logger,
	}
}

// RunHandler 同步执行一次完整的拉取与归并
// @Summary 触发一次厂商数据同步
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]string
// @Failure 500 {object} map[string]interface{}
// @Router /sync/run [post]
func (h *SyncHandler) RunHandler(c *gin.Context) {
	// 客户端断开不应中断已开始的运行，只受运行超时约束
	ctx := context.WithoutCancel(c.Request.Context())
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	report, err := h.runner.Run(ctx)
	switch {
	case errors.Is(err, model.ErrRunInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		h.logger.WithError(err).Error("sync run failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  err.Error(),
			"report": report,
		})
	default:
		c.JSON(http.StatusOK, gin.H{
			"message": LoadedMessage,
			"report":  report,
		})
	}
}

// HealthHandler 存活检查
func (h *SyncHandler) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RegisterRoutes 注册触发接口；GET / 保留给原有的定时触发方
func (h *SyncHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/", h.RunHandler)
	r.POST("/sync/run", h.RunHandler)
	r.GET("/healthz", h.HealthHandler)
}
