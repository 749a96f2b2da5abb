package service

import (
	"strings"
	"time"

	"github.com/promostreet/internal/models"
	"github.com/promostreet/internal/repository"
)

// PaymentMethodService 支付方式管理服务
type PaymentMethodService struct {
	methodRepo repository.PaymentMethodRepository
}

// AttachPaymentMethodInput 绑定支付方式输入
type AttachPaymentMethodInput struct {
	UserID     uint
	GatewayRef string
	Brand      string
	Last4      string
	SetDefault bool
}

// NewPaymentMethodService 创建支付方式服务
func NewPaymentMethodService(methodRepo repository.PaymentMethodRepository) *PaymentMethodService {
	return &PaymentMethodService{methodRepo: methodRepo}
}

// Attach 绑定支付方式（首张卡自动设为默认）
func (s *PaymentMethodService) Attach(input AttachPaymentMethodInput) (*models.PaymentMethod, error) {
	gatewayRef := strings.TrimSpace(input.GatewayRef)
	if input.UserID == 0 || gatewayRef == "" {
		return nil, ErrPaymentMethodRequired
	}
	existing, err := s.methodRepo.ListByUser(input.UserID)
	if err != nil {
		return nil, err
	}
	setDefault := input.SetDefault || len(existing) == 0
	if setDefault {
		if err := s.methodRepo.ClearDefaultByUser(input.UserID); err != nil {
			return nil, err
		}
	}
	now := time.Now()
	method := &models.PaymentMethod{
		UserID:     input.UserID,
		GatewayRef: gatewayRef,
		Brand:      strings.TrimSpace(input.Brand),
		Last4:      strings.TrimSpace(input.Last4),
		IsDefault:  setDefault,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.methodRepo.Create(method); err != nil {
		return nil, err
	}
	return method, nil
}

// SetDefault 切换默认支付方式
func (s *PaymentMethodService) SetDefault(userID, methodID uint) (*models.PaymentMethod, error) {
	method, err := s.methodRepo.GetByID(methodID)
	if err != nil {
		return nil, err
	}
	if method == nil || method.UserID != userID {
		return nil, ErrPaymentMethodRequired
	}
	if err := s.methodRepo.ClearDefaultByUser(userID); err != nil {
		return nil, err
	}
	method.IsDefault = true
	method.UpdatedAt = time.Now()
	if err := s.methodRepo.Update(method); err != nil {
		return nil, err
	}
	return method, nil
}

// List 查询用户支付方式
func (s *PaymentMethodService) List(userID uint) ([]models.PaymentMethod, error) {
	return s.methodRepo.ListByUser(userID)
}

// Detach 解绑支付方式
func (s *PaymentMethodService) Detach(userID, methodID uint) error {
	method, err := s.methodRepo.GetByID(methodID)
	if err != nil {
		return err
	}
	if method == nil || method.UserID != userID {
		return ErrPaymentMethodRequired
	}
	return s.methodRepo.Delete(methodID)
}
