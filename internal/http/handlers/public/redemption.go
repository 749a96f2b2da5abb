package public

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/promostreet/internal/http/response"
	"github.com/promostreet/internal/repository"
	"github.com/promostreet/internal/service"

	"github.com/gin-gonic/gin"
)

// IssueRedemptionRequest 签发兑换码请求
type IssueRedemptionRequest struct {
	OfferRef         string `json:"offer_ref" binding:"required"`
	LocationID       uint   `json:"location_id" binding:"required"`
	PartnerRequestID *uint  `json:"partner_request_id"`
}

// IssueRedemption 公开签发兑换码
//
// 开放报价路径按 Referer 主机做来源校验，伙伴路径按归因关系校验。
func (h *Handler) IssueRedemption(c *gin.Context) {
	var req IssueRedemptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	redemption, err := h.RedemptionService.Issue(service.IssueRedemptionInput{
		OfferRef:         req.OfferRef,
		LocationID:       req.LocationID,
		PartnerRequestID: req.PartnerRequestID,
		ReferrerHost:     referrerHost(c),
	})
	if err != nil {
		respondWithMappedError(c, err,
			concatMappedHandlerErrors(redemptionErrorRules, offerErrorRules),
			response.CodeInternal, "兑换码签发失败")
		return
	}
	response.Success(c, redemption)
}

// ConfirmRedemptionRequest 核销确认请求
type ConfirmRedemptionRequest struct {
	Code string `json:"code" binding:"required"`
}

// ConfirmRedemption 门店核销兑换码（至多一次）
func (h *Handler) ConfirmRedemption(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req ConfirmRedemptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	code := strings.TrimSpace(req.Code)
	existing, err := h.RedemptionRepo.GetByCode(code)
	if err != nil {
		respondError(c, response.CodeInternal, "兑换码查询失败", err)
		return
	}
	if existing == nil {
		respondError(c, response.CodeNotFound, service.ErrRedemptionNotFound.Error(), nil)
		return
	}
	if _, err := h.LocationService.GetOwned(uid, existing.LocationID); err != nil {
		respondWithMappedError(c, err, locationErrorRules, response.CodeInternal, "门店校验失败")
		return
	}

	redemption, err := h.RedemptionService.Confirm(code)
	if err != nil {
		if errors.Is(err, service.ErrRedemptionRedeemed) {
			// 已核销的兑换码返回冲突并附带首次核销结果
			response.ErrorWithData(c, response.CodeConflict, err.Error(), gin.H{"redemption": redemption})
			return
		}
		respondWithMappedError(c, err, redemptionErrorRules, response.CodeInternal, "核销失败")
		return
	}
	response.Success(c, redemption)
}

// ListMyRedemptions 获取门店的兑换记录
func (h *Handler) ListMyRedemptions(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	locationID, err := strconv.ParseUint(c.Query("location_id"), 10, 64)
	if err != nil || locationID == 0 {
		respondError(c, response.CodeBadRequest, "门店ID无效", nil)
		return
	}
	if _, err := h.LocationService.GetOwned(uid, uint(locationID)); err != nil {
		respondWithMappedError(c, err, locationErrorRules, response.CodeInternal, "门店校验失败")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	redemptions, total, err := h.RedemptionService.List(repository.RedemptionListFilter{
		Page:       page,
		PageSize:   pageSize,
		LocationID: uint(locationID),
		Status:     strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "兑换记录获取失败", err)
		return
	}
	response.SuccessWithPage(c, redemptions, response.BuildPagination(page, pageSize, total))
}

func referrerHost(c *gin.Context) string {
	referrer := strings.TrimSpace(c.GetHeader("Referer"))
	if referrer == "" {
		return ""
	}
	parsed, err := url.Parse(referrer)
	if err != nil {
		return referrer
	}
	if host := parsed.Hostname(); host != "" {
		return host
	}
	return referrer
}
