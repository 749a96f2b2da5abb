package admin

import (
	"strconv"
	"strings"

	"github.com/promostreet/internal/http/response"
	"github.com/promostreet/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListBillingTransactions 获取计费交易列表 (Admin)
func (h *Handler) ListBillingTransactions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 64)

	txns, total, err := h.BillingService.List(repository.BillingListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uint(userID),
		Reason:   strings.TrimSpace(c.Query("reason")),
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "计费交易获取失败", err)
		return
	}
	response.SuccessWithPage(c, txns, response.BuildPagination(page, pageSize, total))
}

// GetBillingTransaction 按业务引用查询计费交易 (Admin)
func (h *Handler) GetBillingTransaction(c *gin.Context) {
	reference := strings.TrimSpace(c.Param("reference"))
	if reference == "" {
		respondError(c, response.CodeBadRequest, "业务引用无效", nil)
		return
	}
	txn, err := h.BillingService.GetByReference(reference)
	if err != nil {
		respondError(c, response.CodeInternal, "计费交易获取失败", err)
		return
	}
	if txn == nil {
		respondError(c, response.CodeNotFound, "计费交易不存在", nil)
		return
	}
	response.Success(c, txn)
}
