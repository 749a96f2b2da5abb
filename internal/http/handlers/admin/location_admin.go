package admin

import (
	"strconv"
	"strings"

	"github.com/promostreet/internal/http/response"
	"github.com/promostreet/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListLocations 获取门店列表 (Admin)
func (h *Handler) ListLocations(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 64)

	locations, total, err := h.LocationService.List(repository.LocationListFilter{
		Page:            page,
		PageSize:        pageSize,
		UserID:          uint(userID),
		ChannelCategory: strings.TrimSpace(c.Query("channel_category")),
		Search:          strings.TrimSpace(c.Query("search")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "门店列表获取失败", err)
		return
	}
	response.SuccessWithPage(c, locations, response.BuildPagination(page, pageSize, total))
}

// ListOffers 获取报价列表 (Admin)
func (h *Handler) ListOffers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 64)
	locationID, _ := strconv.ParseUint(c.Query("location_id"), 10, 64)

	offers, total, err := h.OfferService.List(repository.OfferListFilter{
		Page:       page,
		PageSize:   pageSize,
		UserID:     uint(userID),
		LocationID: uint(locationID),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "报价列表获取失败", err)
		return
	}
	response.SuccessWithPage(c, offers, response.BuildPagination(page, pageSize, total))
}
