package public

import (
	"errors"
	"strconv"

	"github.com/promostreet/internal/http/response"
	"github.com/promostreet/internal/service"

	"github.com/gin-gonic/gin"
)

func subscriptionLocationID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "门店ID无效", nil)
		return 0, false
	}
	return uint(id), true
}

// GetOpenOfferSubscription 获取门店的开放报价订阅
func (h *Handler) GetOpenOfferSubscription(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	locationID, ok := subscriptionLocationID(c)
	if !ok {
		return
	}
	sub, err := h.SubscriptionService.GetByLocation(uid, locationID)
	if err != nil {
		respondSubscriptionError(c, err)
		return
	}
	response.Success(c, sub)
}

// PreviewOpenOffer 预判门店能否开启开放报价（只读）
func (h *Handler) PreviewOpenOffer(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	locationID, ok := subscriptionLocationID(c)
	if !ok {
		return
	}
	location, err := h.LocationService.GetOwned(uid, locationID)
	if err != nil {
		respondWithMappedError(c, err, locationErrorRules, response.CodeInternal, "门店获取失败")
		return
	}
	decision := h.EligibilityService.EnableOpenOffer(location)
	response.Success(c, gin.H{"decision": decision})
}

// EnableOpenOffer 为门店开启开放报价订阅并收取首期月费
func (h *Handler) EnableOpenOffer(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	locationID, ok := subscriptionLocationID(c)
	if !ok {
		return
	}
	sub, decision, err := h.SubscriptionService.Enable(uid, locationID)
	if err != nil {
		if errors.Is(err, service.ErrEligibilityDenied) {
			respondDecisionDenied(c, decision)
			return
		}
		respondSubscriptionError(c, err)
		return
	}
	response.Success(c, gin.H{"subscription": sub, "decision": decision})
}

// CancelOpenOffer 周期末取消开放报价订阅（当期继续生效）
func (h *Handler) CancelOpenOffer(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	locationID, ok := subscriptionLocationID(c)
	if !ok {
		return
	}
	sub, err := h.SubscriptionService.Cancel(uid, locationID)
	if err != nil {
		respondSubscriptionError(c, err)
		return
	}
	response.Success(c, sub)
}

// ResumeOpenOffer 撤回周期末取消
func (h *Handler) ResumeOpenOffer(c *gin.Context) {
	uid, ok := getUserID(c)
	if !ok {
		return
	}
	locationID, ok := subscriptionLocationID(c)
	if !ok {
		return
	}
	sub, err := h.SubscriptionService.Resume(uid, locationID)
	if err != nil {
		respondSubscriptionError(c, err)
		return
	}
	response.Success(c, sub)
}
