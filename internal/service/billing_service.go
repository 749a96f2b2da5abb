package service

import (
	"strings"
	"time"

	"github.com/promostreet/internal/constants"
	"github.com/promostreet/internal/models"
	"github.com/promostreet/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BillingService 计费触发服务
//
// 扣费顺序固定：先按 min(信用余额, 应收额) 抵扣账本，
// 余额不足部分走默认支付方式。Reference 为幂等键，
// 同一引用的第二次触发直接返回首次流水。
type BillingService struct {
	billingRepo  repository.BillingRepository
	promoRepo    repository.PromoCodeRepository
	creditSvc    *CreditService
	collaborator PaymentCollaborator
}

// ChargeInput 计费输入
type ChargeInput struct {
	UserID    uint
	Amount    models.Money
	Reason    string
	Reference string
	PromoCode string
	Remark    string
}

// NewBillingService 创建计费服务
func NewBillingService(
	billingRepo repository.BillingRepository,
	promoRepo repository.PromoCodeRepository,
	creditSvc *CreditService,
	collaborator PaymentCollaborator,
) *BillingService {
	return &BillingService{
		billingRepo:  billingRepo,
		promoRepo:    promoRepo,
		creditSvc:    creditSvc,
		collaborator: collaborator,
	}
}

// GetByReference 按幂等键查询计费流水
func (s *BillingService) GetByReference(reference string) (*models.BillingTransaction, error) {
	return s.billingRepo.GetByReference(reference)
}

// List 查询计费流水
func (s *BillingService) List(filter repository.BillingListFilter) ([]models.BillingTransaction, int64, error) {
	return s.billingRepo.List(filter)
}

// Charge 独立事务计费
func (s *BillingService) Charge(input ChargeInput) (*models.BillingTransaction, error) {
	var result *models.BillingTransaction
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		txn, txErr := s.ChargeInTx(tx, input)
		if txErr != nil {
			return txErr
		}
		result = txn
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ChargeInTx 事务内计费
//
// 有效促销码产生 0 元豁免流水，不伪造负数账本条目。
// 卡扣款失败时返回错误，由调用方回滚整个事务。
func (s *BillingService) ChargeInTx(tx *gorm.DB, input ChargeInput) (*models.BillingTransaction, error) {
	if tx == nil || s == nil || s.billingRepo == nil {
		return nil, ErrBillingCreateFailed
	}
	if input.UserID == 0 {
		return nil, ErrUserNotFound
	}
	amount := input.Amount.Decimal.Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrBillingInvalidAmount
	}
	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		return nil, ErrBillingCreateFailed
	}

	repo := s.billingRepo.WithTx(tx)
	exists, err := repo.GetByReference(reference)
	if err != nil {
		return nil, err
	}
	// declined 审计记录不拦截重试，原位改写为本次结果
	if exists != nil && exists.Status != constants.BillingStatusDeclined {
		return exists, nil
	}

	now := time.Now()
	txn := &models.BillingTransaction{
		UserID:    input.UserID,
		Amount:    models.NewMoneyFromDecimal(amount),
		Reason:    strings.TrimSpace(input.Reason),
		Reference: reference,
		CreatedAt: now,
	}
	persist := repo.Create
	if exists != nil {
		txn.ID = exists.ID
		txn.CreatedAt = exists.CreatedAt
		persist = repo.Save
	}

	if promoCode := strings.TrimSpace(input.PromoCode); promoCode != "" {
		promo, promoErr := s.consumePromoInTx(tx, promoCode)
		if promoErr != nil {
			return nil, promoErr
		}
		txn.Status = constants.BillingStatusWaived
		txn.PromoWaived = true
		txn.PromoCode = promo.Code
		txn.CreditUsed = models.NewMoneyFromDecimal(decimal.Zero)
		txn.CardCharged = models.NewMoneyFromDecimal(decimal.Zero)
		if err := persist(txn); err != nil {
			return nil, ErrBillingCreateFailed
		}
		return txn, nil
	}

	creditUsed, err := s.creditSvc.ConsumeInTx(tx, input.UserID, amount,
		creditReasonForBilling(input.Reason), "billing:"+reference, input.Remark)
	if err != nil {
		return nil, err
	}
	remainder := amount.Sub(creditUsed).Round(2)

	if remainder.GreaterThan(decimal.Zero) {
		if _, chargeErr := s.collaborator.ChargeDefault(input.UserID, remainder, reference); chargeErr != nil {
			return nil, chargeErr
		}
	}

	txn.Status = constants.BillingStatusCharged
	txn.CreditUsed = models.NewMoneyFromDecimal(creditUsed)
	txn.CardCharged = models.NewMoneyFromDecimal(remainder)
	if err := persist(txn); err != nil {
		return nil, ErrBillingCreateFailed
	}
	return txn, nil
}

// RecordDeclined 记录被拒绝的计费尝试（事务回滚后审计用）
func (s *BillingService) RecordDeclined(input ChargeInput) (*models.BillingTransaction, error) {
	reference := strings.TrimSpace(input.Reference)
	if input.UserID == 0 || reference == "" {
		return nil, ErrBillingCreateFailed
	}
	exists, err := s.billingRepo.GetByReference(reference)
	if err != nil {
		return nil, err
	}
	if exists != nil {
		return exists, nil
	}
	txn := &models.BillingTransaction{
		UserID:      input.UserID,
		Amount:      models.NewMoneyFromDecimal(input.Amount.Decimal.Round(2)),
		CreditUsed:  models.NewMoneyFromDecimal(decimal.Zero),
		CardCharged: models.NewMoneyFromDecimal(decimal.Zero),
		Reason:      strings.TrimSpace(input.Reason),
		Reference:   reference,
		Status:      constants.BillingStatusDeclined,
		CreatedAt:   time.Now(),
	}
	if err := s.billingRepo.Create(txn); err != nil {
		return nil, ErrBillingCreateFailed
	}
	return txn, nil
}

// ValidatePromoCode 校验促销码可用性（只读）
func (s *BillingService) ValidatePromoCode(code string) (*models.PromoCode, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrPromoCodeNotFound
	}
	promo, err := s.promoRepo.GetByCode(code)
	if err != nil {
		return nil, err
	}
	return checkPromoUsable(promo, time.Now())
}

func (s *BillingService) consumePromoInTx(tx *gorm.DB, code string) (*models.PromoCode, error) {
	repo := s.promoRepo.WithTx(tx)
	promo, err := repo.GetByCodeForUpdate(code)
	if err != nil {
		return nil, err
	}
	promo, err = checkPromoUsable(promo, time.Now())
	if err != nil {
		return nil, err
	}
	if err := repo.IncrementUsed(promo.ID); err != nil {
		return nil, ErrBillingCreateFailed
	}
	return promo, nil
}

func checkPromoUsable(promo *models.PromoCode, now time.Time) (*models.PromoCode, error) {
	if promo == nil {
		return nil, ErrPromoCodeNotFound
	}
	if promo.Status != constants.PromoCodeStatusActive {
		return nil, ErrPromoCodeInvalid
	}
	if promo.ExpiresAt != nil && promo.ExpiresAt.Before(now) {
		return nil, ErrPromoCodeInvalid
	}
	if promo.UsageLimit > 0 && promo.UsedCount >= promo.UsageLimit {
		return nil, ErrPromoCodeUsedUp
	}
	return promo, nil
}

func creditReasonForBilling(billingReason string) string {
	switch billingReason {
	case constants.CreditReasonOfferXSub:
		return constants.CreditReasonOfferXSub
	default:
		return constants.CreditReasonPartnershipCharge
	}
}
