package public

import (
	"strconv"
	"strings"

	"github.com/promostreet/internal/http/response"
	"github.com/promostreet/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetMyCredit 获取当前零售商的信用账户
func (h *Handler) GetMyCredit(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	account, err := h.CreditService.GetAccount(uid)
	if err != nil {
		respondError(c, response.CodeInternal, "信用账户获取失败", err)
		return
	}
	response.Success(c, account)
}

// ListMyCreditEntries 获取当前零售商的信用流水
func (h *Handler) ListMyCreditEntries(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	entries, total, err := h.CreditService.ListEntries(repository.CreditEntryListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uid,
		Reason:   strings.TrimSpace(c.Query("reason")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "信用流水获取失败", err)
		return
	}
	response.SuccessWithPage(c, entries, response.BuildPagination(page, pageSize, total))
}

// ListMyBillingTransactions 获取当前零售商的计费流水
func (h *Handler) ListMyBillingTransactions(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	transactions, total, err := h.BillingService.List(repository.BillingListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uid,
		Reason:   strings.TrimSpace(c.Query("reason")),
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "计费流水获取失败", err)
		return
	}
	response.SuccessWithPage(c, transactions, response.BuildPagination(page, pageSize, total))
}
