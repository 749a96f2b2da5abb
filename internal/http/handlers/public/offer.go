package public

import (
	"strconv"
	"strings"
	"time"

	"github.com/promostreet/internal/http/response"
	"github.com/promostreet/internal/repository"
	"github.com/promostreet/internal/service"

	"github.com/gin-gonic/gin"
)

// CreateOfferRequest 创建报价请求
type CreateOfferRequest struct {
	LocationID   uint       `json:"location_id" binding:"required"`
	CallToAction string     `json:"call_to_action" binding:"required"`
	CodePrefix   string     `json:"code_prefix"`
	ImageURL     string     `json:"image_url"`
	LogoURL      string     `json:"logo_url"`
	IsOpenOffer  bool       `json:"is_open_offer"`
	ExpiresAt    *time.Time `json:"expires_at"`
}

// UpdateOfferRequest 更新报价请求
type UpdateOfferRequest struct {
	CallToAction   *string    `json:"call_to_action"`
	ImageURL       *string    `json:"image_url"`
	LogoURL        *string    `json:"logo_url"`
	IsActive       *bool      `json:"is_active"`
	ExpiresAt      *time.Time `json:"expires_at"`
	ClearExpiresAt bool       `json:"clear_expires_at"`
}

// CreateOffer 创建报价
func (h *Handler) CreateOffer(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	var req CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	offer, err := h.OfferService.Create(service.CreateOfferInput{
		UserID:       uid,
		LocationID:   req.LocationID,
		CallToAction: req.CallToAction,
		CodePrefix:   req.CodePrefix,
		ImageURL:     req.ImageURL,
		LogoURL:      req.LogoURL,
		IsOpenOffer:  req.IsOpenOffer,
		ExpiresAt:    req.ExpiresAt,
	})
	if err != nil {
		respondWithMappedError(c, err,
			concatMappedHandlerErrors(offerErrorRules, locationErrorRules),
			response.CodeInternal, "报价创建失败")
		return
	}
	response.Success(c, offer)
}

// ListMyOffers 获取当前零售商的报价列表
func (h *Handler) ListMyOffers(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)
	locationID, _ := strconv.ParseUint(c.Query("location_id"), 10, 64)

	offers, total, err := h.OfferService.List(repository.OfferListFilter{
		Page:       page,
		PageSize:   pageSize,
		UserID:     uid,
		LocationID: uint(locationID),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "报价列表获取失败", err)
		return
	}
	response.SuccessWithPage(c, offers, response.BuildPagination(page, pageSize, total))
}

// UpdateOffer 更新报价
func (h *Handler) UpdateOffer(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "报价ID无效", nil)
		return
	}
	var req UpdateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "请求参数无效", err)
		return
	}

	offer, err := h.OfferService.Update(uid, uint(id), service.UpdateOfferInput{
		CallToAction:   req.CallToAction,
		ImageURL:       req.ImageURL,
		LogoURL:        req.LogoURL,
		IsActive:       req.IsActive,
		ExpiresAt:      req.ExpiresAt,
		ClearExpiresAt: req.ClearExpiresAt,
	})
	if err != nil {
		respondWithMappedError(c, err, offerErrorRules, response.CodeInternal, "报价更新失败")
		return
	}
	response.Success(c, offer)
}

// DeactivateOffer 下线报价
func (h *Handler) DeactivateOffer(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "报价ID无效", nil)
		return
	}
	offer, err := h.OfferService.Deactivate(uid, uint(id))
	if err != nil {
		respondWithMappedError(c, err, offerErrorRules, response.CodeInternal, "报价下线失败")
		return
	}
	response.Success(c, offer)
}

// GetPublicOffer 获取公开报价详情并记录一次曝光
func (h *Handler) GetPublicOffer(c *gin.Context) {
	ref := strings.TrimSpace(c.Param("ref"))
	if ref == "" {
		respondError(c, response.CodeBadRequest, "报价标识无效", nil)
		return
	}
	offer, err := h.OfferService.GetPublic(ref)
	if err != nil {
		respondWithMappedError(c, err, offerErrorRules, response.CodeInternal, "报价获取失败")
		return
	}

	partnerRequestID, _ := strconv.ParseUint(c.Query("partner_request_id"), 10, 64)
	h.OfferService.RecordView(offer.ID, uint(partnerRequestID))

	response.Success(c, offer)
}
