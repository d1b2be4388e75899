package admin

import (
	"errors"
	"strconv"

	"github.com/pricetide/internal/http/response"
	"github.com/pricetide/internal/models"
	"github.com/pricetide/internal/repository"
	"github.com/pricetide/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// RuleRequest 创建/更新折扣规则请求
type RuleRequest struct {
	Name       string   `json:"name" binding:"required"`
	Kind       string   `json:"kind" binding:"required"`
	Value      float64  `json:"value"`
	Formula    string   `json:"formula"`
	ScopeType  string   `json:"scope_type" binding:"required"`
	ScopeRefID string   `json:"scope_ref_id" binding:"required"`
	StartAt    string   `json:"start_at"`
	EndAt      string   `json:"end_at"`
	Timezone   string   `json:"timezone"`
	TagsAdd    []string `json:"tags_add"`
	TagsRemove []string `json:"tags_remove"`
}

func (req *RuleRequest) toInput() (*service.RuleInput, error) {
	startAt, err := parseTimeNullable(req.StartAt)
	if err != nil {
		return nil, err
	}
	endAt, err := parseTimeNullable(req.EndAt)
	if err != nil {
		return nil, err
	}
	return &service.RuleInput{
		Name:       req.Name,
		Kind:       req.Kind,
		Value:      models.NewMoneyFromDecimal(decimal.NewFromFloat(req.Value)),
		Formula:    req.Formula,
		ScopeType:  req.ScopeType,
		ScopeRefID: req.ScopeRefID,
		StartAt:    startAt,
		EndAt:      endAt,
		Timezone:   req.Timezone,
		TagsAdd:    req.TagsAdd,
		TagsRemove: req.TagsRemove,
	}, nil
}

// CreateRule 创建折扣规则
func (h *Handler) CreateRule(c *gin.Context) {
	var req RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	rule, err := h.RuleAdminService.Create(input)
	if err != nil {
		respondRuleError(c, err, "error.rule_create_failed")
		return
	}
	response.Success(c, rule)
}

// UpdateRule 更新折扣规则
func (h *Handler) UpdateRule(c *gin.Context) {
	ruleID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || ruleID == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	var req RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	input, err := req.toInput()
	if err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	rule, err := h.RuleAdminService.Update(uint(ruleID), input)
	if err != nil {
		respondRuleError(c, err, "error.rule_update_failed")
		return
	}
	response.Success(c, rule)
}

// DeleteRule 删除折扣规则
func (h *Handler) DeleteRule(c *gin.Context) {
	ruleID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || ruleID == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.RuleAdminService.Delete(uint(ruleID)); err != nil {
		respondRuleError(c, err, "error.rule_delete_failed")
		return
	}
	response.Success(c, gin.H{
		"deleted": true,
	})
}

// GetRule 获取折扣规则
func (h *Handler) GetRule(c *gin.Context) {
	ruleID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || ruleID == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	rule, err := h.RuleAdminService.Get(uint(ruleID))
	if err != nil {
		respondRuleError(c, err, "error.rule_fetch_failed")
		return
	}
	response.Success(c, rule)
}

// GetRules 获取折扣规则列表
func (h *Handler) GetRules(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	rules, total, err := h.RuleAdminService.List(repository.RuleListFilter{
		Status:     c.Query("status"),
		Kind:       c.Query("kind"),
		ScopeType:  c.Query("scope_type"),
		ScopeRefID: c.Query("scope_ref_id"),
		Search:     c.Query("search"),
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.rule_fetch_failed", err)
		return
	}

	pagination := response.BuildPagination(page, pageSize, total)
	response.SuccessWithPage(c, rules, pagination)
}

func respondRuleError(c *gin.Context, err error, fallback string) {
	var verrs service.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		respondErrorWithData(c, response.CodeBadRequest, "error.rule_invalid", gin.H{"errors": verrs}, nil)
	case errors.Is(err, service.ErrRuleInvalid):
		respondError(c, response.CodeBadRequest, "error.rule_invalid", nil)
	case errors.Is(err, service.ErrRuleNotFound):
		respondError(c, response.CodeNotFound, "error.rule_not_found", nil)
	default:
		respondError(c, response.CodeInternal, fallback, err)
	}
}
