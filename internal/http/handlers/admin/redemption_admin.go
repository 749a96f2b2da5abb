package admin

import (
	"strconv"
	"strings"
	"time"

	"github.com/promostreet/internal/http/response"
	"github.com/promostreet/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListRedemptions 获取兑换记录列表 (Admin)
func (h *Handler) ListRedemptions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	offerID, _ := strconv.ParseUint(c.Query("offer_id"), 10, 64)
	locationID, _ := strconv.ParseUint(c.Query("location_id"), 10, 64)

	filter := repository.RedemptionListFilter{
		Page:       page,
		PageSize:   pageSize,
		OfferID:    uint(offerID),
		LocationID: uint(locationID),
		Status:     strings.TrimSpace(c.Query("status")),
	}
	if from, err := time.Parse(time.RFC3339, c.Query("from")); err == nil {
		filter.From = &from
	}
	if to, err := time.Parse(time.RFC3339, c.Query("to")); err == nil {
		filter.To = &to
	}

	redemptions, total, err := h.RedemptionService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "兑换记录获取失败", err)
		return
	}
	response.SuccessWithPage(c, redemptions, response.BuildPagination(page, pageSize, total))
}

// SweepExpiredRedemptions 手动触发过期兑换码清理 (Admin)
func (h *Handler) SweepExpiredRedemptions(c *gin.Context) {
	adminID, ok := getAdminID(c)
	if !ok {
		return
	}
	count, err := h.RedemptionService.SweepExpired(time.Now())
	if err != nil {
		respondError(c, response.CodeInternal, "兑换码清理失败", err)
		return
	}
	requestLog(c).Infow("admin_sweep_redemptions", "admin_id", adminID, "expired", count)
	response.Success(c, gin.H{"expired": count})
}
