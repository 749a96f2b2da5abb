package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/promostreet/internal/constants"
	"github.com/promostreet/internal/models"
	"github.com/promostreet/internal/repository"

	"gorm.io/gorm"
)

// SubscriptionService 开放报价订阅服务
//
// 订阅按门店粒度，月费固定；取消置 CancelAtPeriodEnd，由续费任务
// 在周期结束时真正停用，周期内保持可兑换。
type SubscriptionService struct {
	subscriptionRepo repository.SubscriptionRepository
	locationRepo     repository.LocationRepository
	userRepo         repository.UserRepository
	eligibilitySvc   *EligibilityService
	billingSvc       *BillingService
	creditSvc        *CreditService

	monthlyFee    models.Money
	referralBonus models.Money
}

// NewSubscriptionService 创建订阅服务
func NewSubscriptionService(
	subscriptionRepo repository.SubscriptionRepository,
	locationRepo repository.LocationRepository,
	userRepo repository.UserRepository,
	eligibilitySvc *EligibilityService,
	billingSvc *BillingService,
	creditSvc *CreditService,
	monthlyFee models.Money,
	referralBonus models.Money,
) *SubscriptionService {
	return &SubscriptionService{
		subscriptionRepo: subscriptionRepo,
		locationRepo:     locationRepo,
		userRepo:         userRepo,
		eligibilitySvc:   eligibilitySvc,
		billingSvc:       billingSvc,
		creditSvc:        creditSvc,
		monthlyFee:       monthlyFee,
		referralBonus:    referralBonus,
	}
}

// GetByLocation 查询门店订阅
func (s *SubscriptionService) GetByLocation(userID, locationID uint) (*models.OpenOfferSubscription, error) {
	location, err := s.ownedLocation(userID, locationID)
	if err != nil {
		return nil, err
	}
	sub, err := s.subscriptionRepo.GetByLocationID(location.ID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, ErrSubscriptionNotFound
	}
	return sub, nil
}

// Enable 开启门店的开放报价订阅并收取首期费用
func (s *SubscriptionService) Enable(userID, locationID uint) (*models.OpenOfferSubscription, Decision, error) {
	location, err := s.ownedLocation(userID, locationID)
	if err != nil {
		return nil, deny(constants.ReasonStateUnavailable), err
	}

	existing, err := s.subscriptionRepo.GetByLocationID(location.ID)
	if err != nil {
		return nil, deny(constants.ReasonStateUnavailable), ErrStateUnavailable
	}
	if existing != nil && existing.Active {
		return nil, Decision{}, ErrSubscriptionExists
	}

	decision := s.eligibilitySvc.EnableOpenOffer(location)
	if !decision.Allowed {
		if decision.Reason == constants.ReasonStateUnavailable {
			return nil, decision, ErrStateUnavailable
		}
		return nil, decision, ErrEligibilityDenied
	}

	now := time.Now()
	periodEnd := now.AddDate(0, 1, 0)
	var result *models.OpenOfferSubscription
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		subRepo := s.subscriptionRepo.WithTx(tx)
		locRepo := s.locationRepo.WithTx(tx)

		locked, lockErr := locRepo.GetByIDForUpdate(location.ID)
		if lockErr != nil || locked == nil {
			return ErrStateUnavailable
		}

		var sub *models.OpenOfferSubscription
		if existing != nil {
			sub = existing
			sub.Active = true
			sub.CancelAtPeriodEnd = false
			sub.MonthlyFee = s.monthlyFee
			sub.CurrentPeriodEnd = periodEnd
			sub.UpdatedAt = now
			if updErr := subRepo.Update(sub); updErr != nil {
				return ErrSubscriptionUpdateFailed
			}
		} else {
			sub = &models.OpenOfferSubscription{
				LocationID:       location.ID,
				UserID:           userID,
				Active:           true,
				MonthlyFee:       s.monthlyFee,
				CurrentPeriodEnd: periodEnd,
				CreatedAt:        now,
				UpdatedAt:        now,
			}
			if createErr := subRepo.Create(sub); createErr != nil {
				return ErrSubscriptionCreateFailed
			}
		}

		if _, billErr := s.billingSvc.ChargeInTx(tx, ChargeInput{
			UserID:    userID,
			Amount:    s.monthlyFee,
			Reason:    constants.CreditReasonOfferXSub,
			Reference: subscriptionPeriodReference(sub.ID, periodEnd),
			Remark:    "开放报价月费",
		}); billErr != nil {
			return billErr
		}

		if bonusErr := s.grantReferralBonusInTx(tx, userID, sub.ID); bonusErr != nil {
			return bonusErr
		}

		locked.OpenOfferOnly = true
		locked.UpdatedAt = now
		if updErr := locRepo.Update(locked); updErr != nil {
			return ErrLocationUpdateFailed
		}
		result = sub
		return nil
	})
	if err != nil {
		return nil, decision, err
	}
	return result, decision, nil
}

// Cancel 预约取消：当前周期结束时生效
func (s *SubscriptionService) Cancel(userID, locationID uint) (*models.OpenOfferSubscription, error) {
	sub, err := s.GetByLocation(userID, locationID)
	if err != nil {
		return nil, err
	}
	if !sub.Active {
		return nil, ErrSubscriptionNotFound
	}
	if sub.CancelAtPeriodEnd {
		return sub, nil
	}
	sub.CancelAtPeriodEnd = true
	sub.UpdatedAt = time.Now()
	if err := s.subscriptionRepo.Update(sub); err != nil {
		return nil, ErrSubscriptionUpdateFailed
	}
	return sub, nil
}

// Resume 撤销未生效的取消预约
func (s *SubscriptionService) Resume(userID, locationID uint) (*models.OpenOfferSubscription, error) {
	sub, err := s.GetByLocation(userID, locationID)
	if err != nil {
		return nil, err
	}
	if !sub.Active || !sub.CancelAtPeriodEnd {
		return sub, nil
	}
	sub.CancelAtPeriodEnd = false
	sub.UpdatedAt = time.Now()
	if err := s.subscriptionRepo.Update(sub); err != nil {
		return nil, ErrSubscriptionUpdateFailed
	}
	return sub, nil
}

// RenewDue 续费到期订阅（由 worker 周期调用），返回处理条数
//
// CancelAtPeriodEnd 的订阅停用并恢复门店普通模式；
// 扣费硬拒绝同样停用；暂时性故障跳过等待下轮。
func (s *SubscriptionService) RenewDue(now time.Time, limit int) (int, error) {
	due, err := s.subscriptionRepo.ListDueForRenewal(now, limit)
	if err != nil {
		return 0, err
	}
	processed := 0
	for i := range due {
		if renewErr := s.renewOne(due[i].ID, now); renewErr != nil {
			if errors.Is(renewErr, ErrPaymentUnavailable) {
				continue
			}
			return processed, renewErr
		}
		processed++
	}
	return processed, nil
}

func (s *SubscriptionService) renewOne(subID uint, now time.Time) error {
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		subRepo := s.subscriptionRepo.WithTx(tx)
		sub, err := subRepo.GetByID(subID)
		if err != nil || sub == nil {
			return ErrStateUnavailable
		}
		if !sub.Active || sub.CurrentPeriodEnd.After(now) {
			return nil
		}
		if sub.CancelAtPeriodEnd {
			return s.deactivateInTx(tx, sub, now)
		}

		nextPeriodEnd := sub.CurrentPeriodEnd.AddDate(0, 1, 0)
		_, billErr := s.billingSvc.ChargeInTx(tx, ChargeInput{
			UserID:    sub.UserID,
			Amount:    sub.MonthlyFee,
			Reason:    constants.CreditReasonOfferXSub,
			Reference: subscriptionPeriodReference(sub.ID, nextPeriodEnd),
			Remark:    "开放报价月费续期",
		})
		if billErr != nil {
			return billErr
		}

		sub.CurrentPeriodEnd = nextPeriodEnd
		sub.UpdatedAt = now
		if err := subRepo.Update(sub); err != nil {
			return ErrSubscriptionUpdateFailed
		}
		return nil
	})
	if err == nil {
		return nil
	}
	// 扣费事务已整体回滚（信用抵扣不落账）；硬拒绝在独立事务里停用
	if errors.Is(err, ErrPaymentDeclined) || errors.Is(err, ErrPaymentMethodRequired) {
		return models.DB.Transaction(func(tx *gorm.DB) error {
			sub, subErr := s.subscriptionRepo.WithTx(tx).GetByID(subID)
			if subErr != nil || sub == nil {
				return ErrStateUnavailable
			}
			if !sub.Active {
				return nil
			}
			return s.deactivateInTx(tx, sub, now)
		})
	}
	return err
}

func (s *SubscriptionService) deactivateInTx(tx *gorm.DB, sub *models.OpenOfferSubscription, now time.Time) error {
	subRepo := s.subscriptionRepo.WithTx(tx)
	locRepo := s.locationRepo.WithTx(tx)

	sub.Active = false
	sub.CancelAtPeriodEnd = false
	sub.UpdatedAt = now
	if err := subRepo.Update(sub); err != nil {
		return ErrSubscriptionUpdateFailed
	}

	location, err := locRepo.GetByIDForUpdate(sub.LocationID)
	if err != nil {
		return ErrStateUnavailable
	}
	if location != nil && location.OpenOfferOnly {
		location.OpenOfferOnly = false
		location.UpdatedAt = now
		if err := locRepo.Update(location); err != nil {
			return ErrLocationUpdateFailed
		}
	}
	return nil
}

// grantReferralBonusInTx 推荐人奖励：被推荐用户首笔订阅费落地时入账一次
func (s *SubscriptionService) grantReferralBonusInTx(tx *gorm.DB, userID, subID uint) error {
	if s.referralBonus.Decimal.IsZero() {
		return nil
	}
	user, err := s.userRepo.WithTx(tx).GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil || user.ReferredBy == nil || *user.ReferredBy == 0 {
		return nil
	}
	_, _, err = s.creditSvc.AddInTx(tx, CreditAddInput{
		UserID:    *user.ReferredBy,
		Amount:    s.referralBonus,
		Reason:    constants.CreditReasonReferralBonus,
		Reference: fmt.Sprintf("referral:%d", user.ID),
		Remark:    fmt.Sprintf("推荐奖励：%s", user.Email),
	})
	return err
}

func (s *SubscriptionService) ownedLocation(userID, locationID uint) (*models.Location, error) {
	location, err := s.locationRepo.GetByID(locationID)
	if err != nil {
		return nil, ErrStateUnavailable
	}
	if location == nil {
		return nil, ErrLocationNotFound
	}
	if location.UserID != userID {
		return nil, ErrLocationForbidden
	}
	return location, nil
}

// subscriptionPeriodReference 幂等键按周期终点的精确时刻生成。
// 按年月生成会让首期与首次续期落在同一自然月时撞键，续期被
// 幂等短路而漏收一期。
func subscriptionPeriodReference(subID uint, periodEnd time.Time) string {
	return fmt.Sprintf("offerx_sub:%d:%d", subID, periodEnd.Unix())
}
