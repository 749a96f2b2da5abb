package provider

import (
	"github.com/promostreet/internal/authz"
	"github.com/promostreet/internal/cache"
	"github.com/promostreet/internal/config"
	"github.com/promostreet/internal/logger"
	"github.com/promostreet/internal/models"
	"github.com/promostreet/internal/queue"
	"github.com/promostreet/internal/repository"
	"github.com/promostreet/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo          repository.AdminRepository
	UserRepo           repository.UserRepository
	LocationRepo       repository.LocationRepository
	OfferRepo          repository.OfferRepository
	PartnerRequestRepo repository.PartnerRequestRepository
	SubscriptionRepo   repository.SubscriptionRepository
	RedemptionRepo     repository.RedemptionRepository
	CreditRepo         repository.CreditRepository
	BillingRepo        repository.BillingRepository
	PromoCodeRepo      repository.PromoCodeRepository
	PaymentMethodRepo  repository.PaymentMethodRepository

	// Services
	AuthzService         *authz.Service
	AuthService          *service.AuthService
	UserAuthService      *service.UserAuthService
	LocationService      *service.LocationService
	OfferService         *service.OfferService
	EligibilityService   *service.EligibilityService
	PartnershipService   *service.PartnershipService
	SubscriptionService  *service.SubscriptionService
	RedemptionService    *service.RedemptionService
	CreditService        *service.CreditService
	BillingService       *service.BillingService
	PaymentMethodService *service.PaymentMethodService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
	c.LocationRepo = repository.NewLocationRepository(db)
	c.OfferRepo = repository.NewOfferRepository(db)
	c.PartnerRequestRepo = repository.NewPartnerRequestRepository(db)
	c.SubscriptionRepo = repository.NewSubscriptionRepository(db)
	c.RedemptionRepo = repository.NewRedemptionRepository(db)
	c.CreditRepo = repository.NewCreditRepository(db)
	c.BillingRepo = repository.NewBillingRepository(db)
	c.PromoCodeRepo = repository.NewPromoCodeRepository(db)
	c.PaymentMethodRepo = repository.NewPaymentMethodRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	partnershipFee := models.NewMoneyFromString(c.Config.Billing.PartnershipFee)
	monthlyFee := models.NewMoneyFromString(c.Config.Billing.OpenOfferMonthlyFee)
	referralBonus := models.NewMoneyFromString(c.Config.Billing.ReferralBonus)

	collaborator := service.NewTokenPaymentCollaborator(c.PaymentMethodRepo)

	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo)
	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo)
	c.LocationService = service.NewLocationService(c.LocationRepo, c.OfferRepo, c.PartnerRequestRepo, c.SubscriptionRepo)
	c.OfferService = service.NewOfferService(c.OfferRepo, c.LocationRepo, c.PartnerRequestRepo)
	c.EligibilityService = service.NewEligibilityService(
		c.OfferRepo,
		c.LocationRepo,
		c.PartnerRequestRepo,
		c.SubscriptionRepo,
		c.CreditRepo,
		collaborator,
		partnershipFee.Decimal,
		monthlyFee.Decimal,
	)
	c.CreditService = service.NewCreditService(c.CreditRepo, c.UserRepo)
	c.BillingService = service.NewBillingService(c.BillingRepo, c.PromoCodeRepo, c.CreditService, collaborator)
	c.PartnershipService = service.NewPartnershipService(
		c.PartnerRequestRepo,
		c.UserRepo,
		c.LocationRepo,
		c.EligibilityService,
		c.BillingService,
		partnershipFee,
		c.Config.Billing.UnpaidFeePolicy,
	)
	c.SubscriptionService = service.NewSubscriptionService(
		c.SubscriptionRepo,
		c.LocationRepo,
		c.UserRepo,
		c.EligibilityService,
		c.BillingService,
		c.CreditService,
		monthlyFee,
		referralBonus,
	)
	c.RedemptionService = service.NewRedemptionService(
		c.RedemptionRepo,
		c.OfferRepo,
		c.PartnerRequestRepo,
		c.Config.Platform.CanonicalHost,
	)
	c.PaymentMethodService = service.NewPaymentMethodService(c.PaymentMethodRepo)
}
