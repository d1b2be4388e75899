package admin

import (
	"github.com/pricetide/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetDiscountSummary 获取折扣运行概览
func (h *Handler) GetDiscountSummary(c *gin.Context) {
	summary, err := h.AnalyticsService.Summary()
	if err != nil {
		respondError(c, response.CodeInternal, "error.analytics_fetch_failed", err)
		return
	}
	response.Success(c, summary)
}
