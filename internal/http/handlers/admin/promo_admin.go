package admin

import (
	"strconv"
	"strings"
	"time"

	"github.com/promostreet/internal/constants"
	"github.com/promostreet/internal/http/response"
	"github.com/promostreet/internal/models"

	"github.com/gin-gonic/gin"
)

// CreatePromoCodeRequest 创建促销码请求
type CreatePromoCodeRequest struct {
	Code        string       `json:"code" binding:"required,min=4,max=64"`
	CreditValue models.Money `json:"credit_value"`
	UsageLimit  int          `json:"usage_limit"`
	ExpiresAt   *time.Time   `json:"expires_at"`
}

// CreatePromoCode 创建促销码 (Admin)
func (h *Handler) CreatePromoCode(c *gin.Context) {
	var req CreatePromoCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if existing, err := h.PromoCodeRepo.GetByCode(code); err != nil {
		respondError(c, response.CodeInternal, "促销码查询失败", err)
		return
	} else if existing != nil {
		respondError(c, response.CodeConflict, "促销码已存在", nil)
		return
	}
	if req.CreditValue.IsNegative() {
		respondError(c, response.CodeBadRequest, "促销码面额无效", nil)
		return
	}
	if req.UsageLimit < 0 {
		respondError(c, response.CodeBadRequest, "使用上限无效", nil)
		return
	}

	promo := &models.PromoCode{
		Code:        code,
		Status:      constants.PromoCodeStatusActive,
		CreditValue: req.CreditValue,
		UsageLimit:  req.UsageLimit,
		ExpiresAt:   req.ExpiresAt,
	}
	if err := h.PromoCodeRepo.Create(promo); err != nil {
		respondError(c, response.CodeInternal, "促销码创建失败", err)
		return
	}
	requestLog(c).Infow("admin_create_promo_code", "code", promo.Code, "credit_value", promo.CreditValue.String())
	response.Success(c, promo)
}

// ListPromoCodes 获取促销码列表 (Admin)
func (h *Handler) ListPromoCodes(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	promos, total, err := h.PromoCodeRepo.List(page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "促销码列表获取失败", err)
		return
	}
	response.SuccessWithPage(c, promos, response.BuildPagination(page, pageSize, total))
}

// UpdatePromoCodeRequest 更新促销码请求
type UpdatePromoCodeRequest struct {
	Status     *string    `json:"status"`
	UsageLimit *int       `json:"usage_limit"`
	ExpiresAt  *time.Time `json:"expires_at"`
}

// UpdatePromoCode 更新促销码 (Admin)
func (h *Handler) UpdatePromoCode(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "促销码ID无效", nil)
		return
	}
	var req UpdatePromoCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	promo, err := h.PromoCodeRepo.GetByID(uint(id))
	if err != nil {
		respondError(c, response.CodeInternal, "促销码获取失败", err)
		return
	}
	if promo == nil {
		respondError(c, response.CodeNotFound, "促销码不存在", nil)
		return
	}

	if req.Status != nil {
		status := strings.ToLower(strings.TrimSpace(*req.Status))
		if status != constants.PromoCodeStatusActive && status != constants.PromoCodeStatusDisabled {
			respondError(c, response.CodeBadRequest, "促销码状态无效", nil)
			return
		}
		promo.Status = status
	}
	if req.UsageLimit != nil {
		if *req.UsageLimit < 0 {
			respondError(c, response.CodeBadRequest, "使用上限无效", nil)
			return
		}
		promo.UsageLimit = *req.UsageLimit
	}
	if req.ExpiresAt != nil {
		promo.ExpiresAt = req.ExpiresAt
	}

	if err := h.PromoCodeRepo.Update(promo); err != nil {
		respondError(c, response.CodeInternal, "促销码更新失败", err)
		return
	}
	response.Success(c, promo)
}

// DeletePromoCode 删除促销码 (Admin)
func (h *Handler) DeletePromoCode(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "促销码ID无效", nil)
		return
	}
	promo, err := h.PromoCodeRepo.GetByID(uint(id))
	if err != nil {
		respondError(c, response.CodeInternal, "促销码获取失败", err)
		return
	}
	if promo == nil {
		respondError(c, response.CodeNotFound, "促销码不存在", nil)
		return
	}
	if err := h.PromoCodeRepo.Delete(promo.ID); err != nil {
		respondError(c, response.CodeInternal, "促销码删除失败", err)
		return
	}
	requestLog(c).Infow("admin_delete_promo_code", "code", promo.Code)
	response.Success(c, nil)
}
