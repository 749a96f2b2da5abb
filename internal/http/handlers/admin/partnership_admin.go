package admin

import (
	"strconv"
	"strings"

	"github.com/promostreet/internal/constants"
	"github.com/promostreet/internal/http/response"
	"github.com/promostreet/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListPartnerships 获取合作请求列表 (Admin)
func (h *Handler) ListPartnerships(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 64)

	requests, total, err := h.PartnershipService.List(repository.PartnerRequestListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uint(userID),
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "合作请求列表获取失败", err)
		return
	}
	response.SuccessWithPage(c, requests, response.BuildPagination(page, pageSize, total))
}

// GetPartnership 获取合作请求详情 (Admin)
func (h *Handler) GetPartnership(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "合作请求ID无效", nil)
		return
	}
	request, err := h.PartnershipService.GetByID(uint(id))
	if err != nil {
		respondError(c, response.CodeInternal, "合作请求获取失败", err)
		return
	}
	if request == nil {
		respondError(c, response.CodeNotFound, "合作请求不存在", nil)
		return
	}
	response.Success(c, gin.H{
		"request":         request,
		"unpaid_fee_user": h.PartnershipService.UnpaidFeePayer(request),
	})
}

// CancelPartnership 管理员强制取消合作 (Admin)
func (h *Handler) CancelPartnership(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "合作请求ID无效", nil)
		return
	}
	request, err := h.PartnershipService.GetByID(uint(id))
	if err != nil {
		respondError(c, response.CodeInternal, "合作请求获取失败", err)
		return
	}
	if request == nil {
		respondError(c, response.CodeNotFound, "合作请求不存在", nil)
		return
	}
	if request.Status == constants.PartnerRequestStatusRejected || request.Status == constants.PartnerRequestStatusCancelled {
		respondError(c, response.CodeConflict, "合作请求已终结", nil)
		return
	}

	// 管理员取消走发起方路径，不受审批方所有权限制
	cancelled, err := h.PartnershipService.Cancel(uint(id), request.SenderID)
	if err != nil {
		respondError(c, response.CodeInternal, "合作请求取消失败", err)
		return
	}
	requestLog(c).Infow("admin_cancel_partnership", "admin_id", adminID, "request_id", id)
	response.Success(c, cancelled)
}
