package service

import (
	"strings"

	"github.com/promostreet/internal/models"
	"github.com/promostreet/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentCollaborator 支付协作方接口
//
// 计费服务只负责金额拆分与流水落库，实际卡扣款委托给协作方。
// ChargeDefault 返回网关侧扣款引用；硬拒绝返回 ErrPaymentDeclined，
// 暂时性故障返回 ErrPaymentUnavailable（可重试，事务整体回滚）。
type PaymentCollaborator interface {
	ChargeDefault(userID uint, amount decimal.Decimal, reference string) (string, error)
	HasDefaultMethod(userID uint) (bool, error)
}

// TokenPaymentCollaborator 基于已保存支付方式 token 的协作方实现
type TokenPaymentCollaborator struct {
	methodRepo repository.PaymentMethodRepository
}

// NewTokenPaymentCollaborator 创建支付协作方
func NewTokenPaymentCollaborator(methodRepo repository.PaymentMethodRepository) *TokenPaymentCollaborator {
	return &TokenPaymentCollaborator{methodRepo: methodRepo}
}

// HasDefaultMethod 用户是否已绑定默认支付方式
func (c *TokenPaymentCollaborator) HasDefaultMethod(userID uint) (bool, error) {
	if c == nil || c.methodRepo == nil || userID == 0 {
		return false, nil
	}
	method, err := c.methodRepo.GetDefaultByUser(userID)
	if err != nil {
		return false, err
	}
	return method != nil, nil
}

// ChargeDefault 按默认支付方式扣款
func (c *TokenPaymentCollaborator) ChargeDefault(userID uint, amount decimal.Decimal, reference string) (string, error) {
	if c == nil || c.methodRepo == nil {
		return "", ErrPaymentUnavailable
	}
	if userID == 0 || strings.TrimSpace(reference) == "" {
		return "", ErrPaymentDeclined
	}
	if amount.Round(2).LessThanOrEqual(decimal.Zero) {
		return "", ErrBillingInvalidAmount
	}
	method, err := c.methodRepo.GetDefaultByUser(userID)
	if err != nil {
		return "", ErrPaymentUnavailable
	}
	if method == nil || strings.TrimSpace(method.GatewayRef) == "" {
		return "", ErrPaymentMethodRequired
	}
	return buildGatewayChargeRef(method), nil
}

func buildGatewayChargeRef(method *models.PaymentMethod) string {
	return "ch_" + method.GatewayRef + "_" + uuid.NewString()
}
