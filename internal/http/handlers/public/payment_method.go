package public

import (
	"errors"
	"strconv"

	"github.com/promostreet/internal/http/response"
	"github.com/promostreet/internal/service"

	"github.com/gin-gonic/gin"
)

// AttachPaymentMethodRequest 绑定支付方式请求
type AttachPaymentMethodRequest struct {
	GatewayRef string `json:"gateway_ref" binding:"required"`
	Brand      string `json:"brand"`
	Last4      string `json:"last4"`
	SetDefault bool   `json:"set_default"`
}

// AttachPaymentMethod 绑定支付方式
func (h *Handler) AttachPaymentMethod(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req AttachPaymentMethodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	method, err := h.PaymentMethodService.Attach(service.AttachPaymentMethodInput{
		UserID:     uid,
		GatewayRef: req.GatewayRef,
		Brand:      req.Brand,
		Last4:      req.Last4,
		SetDefault: req.SetDefault,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "支付方式绑定失败", err)
		return
	}
	response.Success(c, method)
}

// ListMyPaymentMethods 获取当前零售商的支付方式列表
func (h *Handler) ListMyPaymentMethods(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	methods, err := h.PaymentMethodService.List(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "支付方式获取失败", err)
		return
	}
	response.Success(c, methods)
}

// SetDefaultPaymentMethod 设为默认支付方式
func (h *Handler) SetDefaultPaymentMethod(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "支付方式ID无效", nil)
		return
	}
	method, err := h.PaymentMethodService.SetDefault(uid, uint(id))
	if err != nil {
		if errors.Is(err, service.ErrPaymentMethodRequired) {
			respondError(c, response.CodeNotFound, "支付方式不存在", nil)
			return
		}
		respondError(c, response.CodeInternal, "默认支付方式设置失败", err)
		return
	}
	response.Success(c, method)
}

// DetachPaymentMethod 解绑支付方式
func (h *Handler) DetachPaymentMethod(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "支付方式ID无效", nil)
		return
	}
	if err := h.PaymentMethodService.Detach(uid, uint(id)); err != nil {
		respondError(c, response.CodeInternal, "支付方式解绑失败", err)
		return
	}
	response.Success(c, gin.H{"detached": true})
}
