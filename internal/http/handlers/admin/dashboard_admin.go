package admin

import (
	"github.com/promostreet/internal/constants"
	"github.com/promostreet/internal/http/response"
	"github.com/promostreet/internal/repository"

	"github.com/gin-gonic/gin"
)

// GetDashboardOverview 获取后台仪表盘总览
func (h *Handler) GetDashboardOverview(c *gin.Context) {
	counts := gin.H{}

	_, totalUsers, err := h.UserRepo.List(repository.UserListFilter{Page: 1, PageSize: 1})
	if err != nil {
		respondError(c, response.CodeInternal, "仪表盘数据获取失败", err)
		return
	}
	counts["users"] = totalUsers

	_, totalLocations, err := h.LocationService.List(repository.LocationListFilter{Page: 1, PageSize: 1})
	if err != nil {
		respondError(c, response.CodeInternal, "仪表盘数据获取失败", err)
		return
	}
	counts["locations"] = totalLocations

	_, totalOffers, err := h.OfferService.List(repository.OfferListFilter{Page: 1, PageSize: 1, OnlyActive: true})
	if err != nil {
		respondError(c, response.CodeInternal, "仪表盘数据获取失败", err)
		return
	}
	counts["active_offers"] = totalOffers

	partnershipCounts := gin.H{}
	for _, status := range []string{
		constants.PartnerRequestStatusPending,
		constants.PartnerRequestStatusApproved,
	} {
		_, total, err := h.PartnershipService.List(repository.PartnerRequestListFilter{Page: 1, PageSize: 1, Status: status})
		if err != nil {
			respondError(c, response.CodeInternal, "仪表盘数据获取失败", err)
			return
		}
		partnershipCounts[status] = total
	}
	counts["partnerships"] = partnershipCounts

	redemptionCounts := gin.H{}
	for _, status := range []string{
		constants.RedemptionStatusIssued,
		constants.RedemptionStatusConfirmed,
		constants.RedemptionStatusExpired,
	} {
		_, total, err := h.RedemptionService.List(repository.RedemptionListFilter{Page: 1, PageSize: 1, Status: status})
		if err != nil {
			respondError(c, response.CodeInternal, "仪表盘数据获取失败", err)
			return
		}
		redemptionCounts[status] = total
	}
	counts["redemptions"] = redemptionCounts

	_, totalCharged, err := h.BillingService.List(repository.BillingListFilter{Page: 1, PageSize: 1, Status: constants.BillingStatusCharged})
	if err != nil {
		respondError(c, response.CodeInternal, "仪表盘数据获取失败", err)
		return
	}
	counts["billing_charged"] = totalCharged

	response.Success(c, counts)
}
