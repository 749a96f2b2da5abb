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

// CreditService 促销信用账本服务
//
// 余额与流水在同一事务内更新，Reference 为幂等键：
// 同一引用的入账/扣减重复调用只会生效一次。
type CreditService struct {
	creditRepo repository.CreditRepository
	userRepo   repository.UserRepository
}

// CreditAddInput 事务内入账输入
type CreditAddInput struct {
	UserID    uint
	Amount    models.Money
	Reason    string
	Reference string
	Remark    string
}

// CreditGrantInput 管理员信用调整输入
type CreditGrantInput struct {
	UserID    uint
	Amount    models.Money
	Reference string
	Remark    string
}

// NewCreditService 创建信用服务
func NewCreditService(creditRepo repository.CreditRepository, userRepo repository.UserRepository) *CreditService {
	return &CreditService{creditRepo: creditRepo, userRepo: userRepo}
}

// GetAccount 获取信用账户（不存在时自动创建）
func (s *CreditService) GetAccount(userID uint) (*models.CreditAccount, error) {
	if userID == 0 {
		return nil, ErrCreditAccountNotFound
	}
	account, err := s.creditRepo.GetAccountByUserID(userID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}
	now := time.Now()
	account = &models.CreditAccount{
		UserID:    userID,
		Balance:   models.NewMoneyFromDecimal(decimal.Zero),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.creditRepo.CreateAccount(account); err != nil {
		created, queryErr := s.creditRepo.GetAccountByUserID(userID)
		if queryErr == nil && created != nil {
			return created, nil
		}
		return nil, ErrCreditAccountCreateFailed
	}
	return account, nil
}

// ListEntries 查询信用流水
func (s *CreditService) ListEntries(filter repository.CreditEntryListFilter) ([]models.CreditEntry, int64, error) {
	return s.creditRepo.ListEntries(filter)
}

// AddInTx 事务内入账
func (s *CreditService) AddInTx(tx *gorm.DB, input CreditAddInput) (*models.CreditAccount, *models.CreditEntry, error) {
	if tx == nil {
		return nil, nil, ErrCreditEntryCreateFailed
	}
	if input.UserID == 0 {
		return nil, nil, ErrCreditAccountNotFound
	}
	amount := input.Amount.Decimal.Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, nil, ErrCreditInvalidAmount
	}
	reference := strings.TrimSpace(input.Reference)
	if reference == "" {
		return nil, nil, ErrCreditEntryCreateFailed
	}
	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		reason = constants.CreditReasonAdminGrant
	}
	now := time.Now()
	repo := s.creditRepo.WithTx(tx)

	exists, err := repo.GetEntryByReference(reference)
	if err != nil {
		return nil, nil, err
	}
	if exists != nil {
		account, accountErr := repo.GetAccountByUserID(input.UserID)
		if accountErr != nil {
			return nil, nil, accountErr
		}
		return account, exists, nil
	}

	account, err := s.ensureAccountForUpdate(repo, input.UserID, now)
	if err != nil {
		return nil, nil, err
	}
	before := account.Balance.Decimal.Round(2)
	after := before.Add(amount).Round(2)
	account.Balance = models.NewMoneyFromDecimal(after)
	account.UpdatedAt = now
	if err := repo.UpdateAccount(account); err != nil {
		return nil, nil, ErrCreditAccountUpdateFailed
	}

	entry := &models.CreditEntry{
		UserID:       input.UserID,
		Amount:       models.NewMoneyFromDecimal(amount),
		Reason:       reason,
		Reference:    reference,
		BalanceAfter: models.NewMoneyFromDecimal(after),
		Remark:       cleanCreditRemark(input.Remark, "信用入账"),
		CreatedAt:    now,
	}
	if err := repo.CreateEntry(entry); err != nil {
		return nil, nil, ErrCreditEntryCreateFailed
	}
	return account, entry, nil
}

// ConsumeInTx 事务内按可用余额扣减，返回实际扣减金额
//
// 扣减额为 min(余额, 应收额)；余额为零时不产生流水。
// 同一 Reference 重复调用返回首次扣减额。
func (s *CreditService) ConsumeInTx(tx *gorm.DB, userID uint, amount decimal.Decimal, reason, reference, remark string) (decimal.Decimal, error) {
	if tx == nil {
		return decimal.Zero, ErrCreditEntryCreateFailed
	}
	if userID == 0 {
		return decimal.Zero, ErrCreditAccountNotFound
	}
	amount = amount.Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, nil
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return decimal.Zero, ErrCreditEntryCreateFailed
	}

	now := time.Now()
	repo := s.creditRepo.WithTx(tx)

	exists, err := repo.GetEntryByReference(reference)
	if err != nil {
		return decimal.Zero, err
	}
	if exists != nil {
		return exists.Amount.Decimal.Neg().Round(2), nil
	}

	account, err := s.ensureAccountForUpdate(repo, userID, now)
	if err != nil {
		return decimal.Zero, err
	}
	available := account.Balance.Decimal.Round(2)
	if available.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, nil
	}
	deduct := available
	if deduct.GreaterThan(amount) {
		deduct = amount
	}

	after := available.Sub(deduct).Round(2)
	if after.LessThan(decimal.Zero) {
		return decimal.Zero, ErrCreditInsufficient
	}
	account.Balance = models.NewMoneyFromDecimal(after)
	account.UpdatedAt = now
	if err := repo.UpdateAccount(account); err != nil {
		return decimal.Zero, ErrCreditAccountUpdateFailed
	}

	entry := &models.CreditEntry{
		UserID:       userID,
		Amount:       models.NewMoneyFromDecimal(deduct.Neg()),
		Reason:       reason,
		Reference:    reference,
		BalanceAfter: models.NewMoneyFromDecimal(after),
		Remark:       cleanCreditRemark(remark, "信用抵扣"),
		CreatedAt:    now,
	}
	if err := repo.CreateEntry(entry); err != nil {
		return decimal.Zero, ErrCreditEntryCreateFailed
	}
	return deduct, nil
}

// Grant 管理员调整信用余额
func (s *CreditService) Grant(input CreditGrantInput) (*models.CreditAccount, *models.CreditEntry, error) {
	if input.UserID == 0 {
		return nil, nil, ErrCreditAccountNotFound
	}
	user, err := s.userRepo.GetByID(input.UserID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, ErrUserNotFound
	}
	var (
		accountResult *models.CreditAccount
		entryResult   *models.CreditEntry
	)
	err = s.creditRepo.Transaction(func(tx *gorm.DB) error {
		account, entry, txErr := s.AddInTx(tx, CreditAddInput{
			UserID:    input.UserID,
			Amount:    input.Amount,
			Reason:    constants.CreditReasonAdminGrant,
			Reference: input.Reference,
			Remark:    cleanCreditRemark(input.Remark, "管理员调整"),
		})
		if txErr != nil {
			return txErr
		}
		accountResult = account
		entryResult = entry
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return accountResult, entryResult, nil
}

func (s *CreditService) ensureAccountForUpdate(repo *repository.GormCreditRepository, userID uint, now time.Time) (*models.CreditAccount, error) {
	account, err := repo.GetAccountByUserIDForUpdate(userID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}
	account = &models.CreditAccount{
		UserID:    userID,
		Balance:   models.NewMoneyFromDecimal(decimal.Zero),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.CreateAccount(account); err != nil {
		created, queryErr := repo.GetAccountByUserIDForUpdate(userID)
		if queryErr == nil && created != nil {
			return created, nil
		}
		return nil, ErrCreditAccountCreateFailed
	}
	return account, nil
}

func cleanCreditRemark(raw string, fallback string) string {
	remark := strings.TrimSpace(raw)
	if remark == "" {
		return fallback
	}
	if len(remark) > 255 {
		remark = remark[:255]
	}
	return remark
}
