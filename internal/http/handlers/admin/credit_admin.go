package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/promostreet/internal/http/response"
	"github.com/promostreet/internal/models"
	"github.com/promostreet/internal/repository"
	"github.com/promostreet/internal/service"

	"github.com/gin-gonic/gin"
)

// ListCreditEntries 获取信用账本条目列表 (Admin)
func (h *Handler) ListCreditEntries(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 64)

	entries, total, err := h.CreditService.ListEntries(repository.CreditEntryListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uint(userID),
		Reason:   strings.TrimSpace(c.Query("reason")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "信用流水获取失败", err)
		return
	}
	response.SuccessWithPage(c, entries, response.BuildPagination(page, pageSize, total))
}

// GrantCreditRequest 管理员信用调整请求
type GrantCreditRequest struct {
	UserID    uint         `json:"user_id" binding:"required"`
	Amount    models.Money `json:"amount" binding:"required"`
	Reference string       `json:"reference"`
	Remark    string       `json:"remark"`
}

// GrantCredit 管理员调整用户信用余额 (Admin)
func (h *Handler) GrantCredit(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	var req GrantCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	account, entry, err := h.CreditService.Grant(service.CreditGrantInput{
		UserID:    req.UserID,
		Amount:    req.Amount,
		Reference: strings.TrimSpace(req.Reference),
		Remark:    strings.TrimSpace(req.Remark),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			respondError(c, response.CodeNotFound, service.ErrUserNotFound.Error(), nil)
		case errors.Is(err, service.ErrCreditInvalidAmount):
			respondError(c, response.CodeBadRequest, service.ErrCreditInvalidAmount.Error(), nil)
		case errors.Is(err, service.ErrCreditInsufficient):
			respondError(c, response.CodeBadRequest, service.ErrCreditInsufficient.Error(), nil)
		default:
			respondError(c, response.CodeInternal, "信用调整失败", err)
		}
		return
	}
	requestLog(c).Infow("admin_grant_credit",
		"admin_id", adminID,
		"user_id", req.UserID,
		"amount", req.Amount.String(),
	)
	response.Success(c, gin.H{"account": account, "entry": entry})
}
