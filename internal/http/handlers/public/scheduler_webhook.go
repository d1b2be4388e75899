package public

import (
	"time"

	handlershared "github.com/pricetide/internal/http/handlers/shared"
	"github.com/pricetide/internal/http/response"

	"github.com/gin-gonic/gin"
)

// SchedulerSweepWebhook 外部平台触发的 sweep 回调。
// 重复触发安全：到期事件由数据库侧的原子认领保证至多生效一次。
func (h *Handler) SchedulerSweepWebhook(c *gin.Context) {
	result, err := h.SchedulerService.Sweep(c.Request.Context(), time.Now())
	if err != nil {
		handlershared.RespondError(c, response.CodeInternal, "error.sweep_failed", err)
		return
	}
	response.Success(c, result)
}
