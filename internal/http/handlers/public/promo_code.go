package public

import (
	"strings"

	"github.com/promostreet/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ValidatePromoCodeRequest 促销码校验请求
type ValidatePromoCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

// ValidatePromoCode 校验促销码是否可用（不消耗使用次数）
func (h *Handler) ValidatePromoCode(c *gin.Context) {
	var req ValidatePromoCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	promo, err := h.BillingService.ValidatePromoCode(strings.TrimSpace(req.Code))
	if err != nil {
		respondWithMappedError(c, err, billingErrorRules, response.CodeInternal, "促销码校验失败")
		return
	}
	response.Success(c, gin.H{
		"code":         promo.Code,
		"credit_value": promo.CreditValue,
		"expires_at":   promo.ExpiresAt,
	})
}
