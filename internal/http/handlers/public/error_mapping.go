package public

import (
	"errors"

	"github.com/promostreet/internal/constants"
	handlershared "github.com/promostreet/internal/http/handlers/shared"
	"github.com/promostreet/internal/http/response"
	"github.com/promostreet/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.target.Error(), nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

func concatMappedHandlerErrors(groups ...[]mappedHandlerError) []mappedHandlerError {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]mappedHandlerError, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}

var locationErrorRules = []mappedHandlerError{
	{target: service.ErrLocationNotFound, code: response.CodeNotFound},
	{target: service.ErrLocationForbidden, code: response.CodeForbidden},
}

var offerErrorRules = []mappedHandlerError{
	{target: service.ErrOfferNotFound, code: response.CodeNotFound},
	{target: service.ErrOfferForbidden, code: response.CodeForbidden},
	{target: service.ErrOfferInvalid, code: response.CodeBadRequest},
	{target: service.ErrOfferExpired, code: response.CodeBadRequest},
	{target: service.ErrOpenOfferConflict, code: response.CodeConflict},
}

var partnershipErrorRules = []mappedHandlerError{
	{target: service.ErrPartnerRequestNotFound, code: response.CodeNotFound},
	{target: service.ErrPartnerRequestForbidden, code: response.CodeForbidden},
	{target: service.ErrPartnerRequestConflict, code: response.CodeConflict},
	{target: service.ErrPartnerRequestTerminal, code: response.CodeConflict},
}

var billingErrorRules = []mappedHandlerError{
	{target: service.ErrPaymentMethodRequired, code: response.CodePaymentRequired},
	{target: service.ErrPaymentDeclined, code: response.CodePaymentRequired},
	{target: service.ErrPaymentUnavailable, code: response.CodeInternal},
	{target: service.ErrPromoCodeNotFound, code: response.CodeBadRequest},
	{target: service.ErrPromoCodeInvalid, code: response.CodeBadRequest},
	{target: service.ErrPromoCodeUsedUp, code: response.CodeBadRequest},
	{target: service.ErrStateUnavailable, code: response.CodeInternal},
}

var subscriptionErrorRules = []mappedHandlerError{
	{target: service.ErrSubscriptionNotFound, code: response.CodeNotFound},
	{target: service.ErrSubscriptionExists, code: response.CodeConflict},
}

var redemptionErrorRules = []mappedHandlerError{
	{target: service.ErrRedemptionNotFound, code: response.CodeNotFound},
	{target: service.ErrRedemptionExpired, code: response.CodeBadRequest},
	{target: service.ErrRedemptionNotEligible, code: response.CodeForbidden},
}

// respondDecisionDenied 返回资格判定拒绝响应，Data 中携带稳定原因码。
func respondDecisionDenied(c *gin.Context, decision service.Decision) {
	code := response.CodeBadRequest
	switch decision.Reason {
	case constants.ReasonPaymentRequired:
		code = response.CodePaymentRequired
	case constants.ReasonStateUnavailable:
		code = response.CodeInternal
	}
	handlershared.RespondErrorWithData(c, code, service.ErrEligibilityDenied.Error(), gin.H{"decision": decision}, nil)
}

func respondPartnershipError(c *gin.Context, err error) {
	respondWithMappedError(c, err,
		concatMappedHandlerErrors(partnershipErrorRules, billingErrorRules, locationErrorRules),
		response.CodeInternal, "合作请求处理失败")
}

func respondSubscriptionError(c *gin.Context, err error) {
	respondWithMappedError(c, err,
		concatMappedHandlerErrors(subscriptionErrorRules, billingErrorRules, locationErrorRules),
		response.CodeInternal, "订阅处理失败")
}
