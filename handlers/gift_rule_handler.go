package handlers

import (
	"net/http"
	"time"

	"gift_with_purchase/models"
	"gift_with_purchase/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type GiftRuleHandler struct {
	giftRuleService *services.GiftRuleService
}

func NewGiftRuleHandler(giftRuleService *services.GiftRuleService) *GiftRuleHandler {
	return &GiftRuleHandler{giftRuleService: giftRuleService}
}

// giftRuleRequest 未填的欄位使用 NewGiftRule 的預設值
type giftRuleRequest struct {
	Name              string              `json:"name"`
	Note              *string             `json:"note"`
	GiftPurchasableID int64               `json:"gift_purchasable_id"`
	GiftQty           *int                `json:"gift_qty"`
	GiftPrice         *decimal.Decimal    `json:"gift_price"`
	Enabled           *bool               `json:"enabled"`
	DateFrom          *time.Time          `json:"date_from"`
	DateTo            *time.Time          `json:"date_to"`
	MinSubtotal       decimal.NullDecimal `json:"min_subtotal"`
	MaxSubtotal       decimal.NullDecimal `json:"max_subtotal"`
	AllCategories     *bool               `json:"all_categories"`
	CategoryIDs       []int64             `json:"category_ids"`
	AllPurchasables   *bool               `json:"all_purchasables"`
	PurchasableIDs    []int64             `json:"purchasable_ids"`
	UserGroupIDs      []int64             `json:"user_group_ids"`
	AutoAdd           *bool               `json:"auto_add"`
	ReAddOnRemoval    *bool               `json:"re_add_on_removal"`
	SortOrder         *int                `json:"sort_order"`
}

func (r giftRuleRequest) toRule() *models.GiftRule {
	rule := models.NewGiftRule()
	rule.Name = r.Name
	rule.Note = r.Note
	rule.GiftPurchasableID = r.GiftPurchasableID
	rule.DateFrom = r.DateFrom
	rule.DateTo = r.DateTo
	rule.MinSubtotal = r.MinSubtotal
	rule.MaxSubtotal = r.MaxSubtotal
	if r.GiftQty != nil {
		rule.GiftQty = *r.GiftQty
	}
	if r.GiftPrice != nil {
		rule.GiftPrice = *r.GiftPrice
	}
	if r.Enabled != nil {
		rule.Enabled = *r.Enabled
	}
	// 有指定條件 id 但未指定 all_* 時視為限定條件
	if r.AllCategories != nil {
		rule.AllCategories = *r.AllCategories
	} else if len(r.CategoryIDs) > 0 {
		rule.AllCategories = false
	}
	if r.AllPurchasables != nil {
		rule.AllPurchasables = *r.AllPurchasables
	} else if len(r.PurchasableIDs) > 0 {
		rule.AllPurchasables = false
	}
	if r.AutoAdd != nil {
		rule.AutoAdd = *r.AutoAdd
	}
	if r.ReAddOnRemoval != nil {
		rule.ReAddOnRemoval = *r.ReAddOnRemoval
	}
	if r.SortOrder != nil {
		rule.SortOrder = *r.SortOrder
	}
	rule.SetCategoryIDs(r.CategoryIDs)
	rule.SetPurchasableIDs(r.PurchasableIDs)
	rule.SetUserGroupIDs(r.UserGroupIDs)
	return rule
}

type reorderRequest struct {
	IDs []int64 `json:"ids" binding:"required"`
}

type statusRequest struct {
	IDs     []int64 `json:"ids" binding:"required"`
	Enabled *bool   `json:"enabled" binding:"required"`
}

func (h *GiftRuleHandler) ListGiftRules(c *gin.Context) {
	rules, err := h.giftRuleService.GetAllGiftRules(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rules)
}

func (h *GiftRuleHandler) GetGiftRule(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	rule, err := h.giftRuleService.GetGiftRuleByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rule)
}

func (h *GiftRuleHandler) CreateGiftRule(c *gin.Context) {
	var req giftRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rule := req.toRule()
	if err := h.giftRuleService.CreateGiftRule(c.Request.Context(), rule); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rule)
}

func (h *GiftRuleHandler) UpdateGiftRule(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req giftRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rule := req.toRule()
	if err := h.giftRuleService.UpdateGiftRule(c.Request.Context(), id, rule); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, rule)
}

func (h *GiftRuleHandler) DeleteGiftRule(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.giftRuleService.DeleteGiftRule(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *GiftRuleHandler) ReorderGiftRules(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.giftRuleService.ReorderGiftRules(c.Request.Context(), req.IDs); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *GiftRuleHandler) UpdateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.giftRuleService.UpdateStatusByIDs(c.Request.Context(), req.IDs, *req.Enabled); err != nil {
		respondError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
