package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/pricetide/internal/http/response"
	"github.com/pricetide/internal/models"
	"github.com/pricetide/internal/repository"
	"github.com/pricetide/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// GetItemState 获取商品价格状态
func (h *Handler) GetItemState(c *gin.Context) {
	itemID := strings.TrimSpace(c.Param("item_id"))
	if itemID == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	state, err := h.PriceStateService.Get(itemID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.item_state_fetch_failed", err)
		return
	}
	if state == nil {
		respondError(c, response.CodeNotFound, "error.item_state_not_found", nil)
		return
	}
	response.Success(c, state)
}

// GetItemHistory 获取商品价格流水（最新在前）
func (h *Handler) GetItemHistory(c *gin.Context) {
	itemID := strings.TrimSpace(c.Param("item_id"))
	if itemID == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	entries, total, err := h.LedgerService.History(itemID, repository.LedgerListFilter{
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.history_fetch_failed", err)
		return
	}
	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, entries, pagination)
}

// RestoreItemRequest 恢复到指定流水请求
type RestoreItemRequest struct {
	EntryID uint `json:"entry_id" binding:"required"`
}

// RestoreItem 把商品价格恢复到指定流水的变更前价格
func (h *Handler) RestoreItem(c *gin.Context) {
	itemID := strings.TrimSpace(c.Param("item_id"))
	if itemID == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	var req RestoreItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	entry, err := h.LedgerService.Restore(itemID, req.EntryID)
	if err != nil {
		respondItemError(c, err, "error.restore_failed")
		return
	}
	response.Success(c, entry)
}

// RestoreItemOriginal 恢复商品原价并清空生效规则
func (h *Handler) RestoreItemOriginal(c *gin.Context) {
	itemID := strings.TrimSpace(c.Param("item_id"))
	if itemID == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	entry, err := h.LedgerService.RestoreToOriginal(itemID)
	if err != nil {
		respondItemError(c, err, "error.restore_failed")
		return
	}
	response.Success(c, entry)
}

// OverridePriceRequest 手工改价请求
type OverridePriceRequest struct {
	Price float64 `json:"price" binding:"required"`
}

// OverrideItemPrice 运营手工改价（生效规则保持不变）
func (h *Handler) OverrideItemPrice(c *gin.Context) {
	itemID := strings.TrimSpace(c.Param("item_id"))
	if itemID == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	var req OverridePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Price < 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	price := models.NewMoneyFromDecimal(decimal.NewFromFloat(req.Price))
	entry, err := h.PriceStateService.ManualOverride(itemID, price)
	if err != nil {
		respondItemError(c, err, "error.override_failed")
		return
	}
	response.Success(c, entry)
}

func respondItemError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrEntryNotFound):
		respondError(c, response.CodeNotFound, "error.entry_not_found", nil)
	case errors.Is(err, service.ErrItemStateNotFound):
		respondError(c, response.CodeNotFound, "error.item_state_not_found", nil)
	case errors.Is(err, service.ErrSinkFailure):
		// 本地状态与流水已提交，推送失败提示调用方稍后重推
		respondError(c, response.CodeInternal, "error.price_push_failed", err)
	default:
		respondError(c, response.CodeInternal, fallback, err)
	}
}
