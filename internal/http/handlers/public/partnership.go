package public

import (
	"errors"
	"strconv"
	"strings"

	"github.com/promostreet/internal/http/response"
	"github.com/promostreet/internal/logger"
	"github.com/promostreet/internal/queue"
	"github.com/promostreet/internal/repository"
	"github.com/promostreet/internal/service"

	"github.com/gin-gonic/gin"
)

// SendPartnerRequestRequest 发起合作请求
type SendPartnerRequestRequest struct {
	RecipientID         uint   `json:"recipient_id" binding:"required"`
	SenderLocationID    *uint  `json:"sender_location_id"`
	RecipientLocationID *uint  `json:"recipient_location_id"`
	PromoCode           string `json:"promo_code"`
}

// SendPartnerRequest 发起合作请求
func (h *Handler) SendPartnerRequest(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req SendPartnerRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	request, decision, err := h.PartnershipService.Send(service.SendPartnerRequestInput{
		SenderID:            uid,
		RecipientID:         req.RecipientID,
		SenderLocationID:    req.SenderLocationID,
		RecipientLocationID: req.RecipientLocationID,
		PromoCode:           req.PromoCode,
	})
	if err != nil {
		if errors.Is(err, service.ErrEligibilityDenied) {
			respondDecisionDenied(c, decision)
			return
		}
		respondPartnershipError(c, err)
		return
	}
	response.Success(c, gin.H{"request": request, "decision": decision})
}

// PreviewPartnerRequest 预判发起合作请求的资格（只读，不产生副作用）
func (h *Handler) PreviewPartnerRequest(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req SendPartnerRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}
	// 预判与正式发起同样校验促销码，避免无效码预览为免付
	promoCode := strings.TrimSpace(req.PromoCode)
	if promoCode != "" {
		if _, err := h.BillingService.ValidatePromoCode(promoCode); err != nil {
			respondPartnershipError(c, err)
			return
		}
	}
	decision := h.EligibilityService.SendPartnerRequest(uid, req.RecipientID, promoCode)
	response.Success(c, gin.H{"decision": decision})
}

// ApprovePartnerRequest 批准合作请求并触发双边计费
func (h *Handler) ApprovePartnerRequest(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "合作请求ID无效", nil)
		return
	}

	request, decision, err := h.PartnershipService.Approve(uint(id), uid)
	if err != nil {
		if errors.Is(err, service.ErrEligibilityDenied) {
			respondDecisionDenied(c, decision)
			return
		}
		respondPartnershipError(c, err)
		return
	}
	response.Success(c, gin.H{"request": request, "decision": decision})
}

// RejectPartnerRequest 拒绝合作请求
func (h *Handler) RejectPartnerRequest(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "合作请求ID无效", nil)
		return
	}
	request, err := h.PartnershipService.Reject(uint(id), uid)
	if err != nil {
		respondPartnershipError(c, err)
		return
	}
	response.Success(c, request)
}

// CancelPartnerRequest 取消/终止合作
func (h *Handler) CancelPartnerRequest(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "合作请求ID无效", nil)
		return
	}
	request, err := h.PartnershipService.Cancel(uint(id), uid)
	if err != nil {
		respondPartnershipError(c, err)
		return
	}
	response.Success(c, request)
}

// ListMyPartnerships 获取当前零售商的合作请求列表（双向）
func (h *Handler) ListMyPartnerships(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	requests, total, err := h.PartnershipService.List(repository.PartnerRequestListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uid,
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "合作请求列表获取失败", err)
		return
	}
	response.SuccessWithPage(c, requests, response.BuildPagination(page, pageSize, total))
}

// RecordPartnershipImpression 记录伙伴侧曝光（公开追踪端点，尽力而为）
func (h *Handler) RecordPartnershipImpression(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "合作请求ID无效", nil)
		return
	}
	senderSide := strings.EqualFold(c.DefaultQuery("side", "sender"), "sender")
	if h.QueueClient.Enabled() {
		err := h.QueueClient.EnqueuePartnershipCounters(queue.PartnershipCountersPayload{
			PartnerRequestID: uint(id),
			SenderSide:       senderSide,
		})
		if err == nil {
			response.Success(c, gin.H{"recorded": true})
			return
		}
		// 入队失败退回同步路径
		logger.Warnw("partnership_impression_enqueue_failed", "partner_request_id", id, "error", err)
	}
	if err := h.PartnershipService.RecordImpression(uint(id), senderSide); err != nil {
		respondError(c, response.CodeInternal, "曝光记录失败", err)
		return
	}
	response.Success(c, gin.H{"recorded": true})
}
