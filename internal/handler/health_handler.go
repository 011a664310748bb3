package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const readinessTimeout = 2 * time.Second

// ReadinessChecker サービスがトラフィックを受けられるかを報告する
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// HealthHandler 稼働確認用のHTTPハンドラー
type HealthHandler struct {
	ready ReadinessChecker
}

// NewHealthHandler HealthHandlerの新しいインスタンスを作成
func NewHealthHandler(ready ReadinessChecker) *HealthHandler {
	return &HealthHandler{ready: ready}
}

// Root GET /
func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "CrisisConnect backend is running!",
	})
}

// Healthz GET /healthz
func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Readyz GET /readyz - ストアへの疎通を2秒以内に確認できれば ready
func (h *HealthHandler) Readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
	defer cancel()

	if err := h.ready.CheckReadiness(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
