package constants

// 合作请求状态常量
const (
	PartnerRequestStatusPending   = "pending"
	PartnerRequestStatusApproved  = "approved"
	PartnerRequestStatusRejected  = "rejected"
	PartnerRequestStatusCancelled = "cancelled"
)

// 兑换码状态常量
const (
	RedemptionStatusIssued    = "issued"
	RedemptionStatusConfirmed = "confirmed"
	RedemptionStatusExpired   = "expired"
)

// 信用账本条目原因常量
const (
	CreditReasonReferralBonus     = "referral_bonus"
	CreditReasonPromoRedemption   = "promo_redemption"
	CreditReasonPartnershipCharge = "partnership_charge"
	CreditReasonOfferXSub         = "offerx_subscription"
	CreditReasonAdminGrant        = "admin_grant"
)

// 计费交易状态常量
const (
	BillingStatusCharged  = "charged"
	BillingStatusWaived   = "waived"
	BillingStatusDeclined = "declined"
)

// 资格判定拒绝原因常量
const (
	ReasonActiveOfferConflict       = "ACTIVE_OFFER_CONFLICT"
	ReasonActivePartnershipConflict = "ACTIVE_PARTNERSHIP_CONFLICT"
	ReasonNoOffer                   = "NO_OFFER"
	ReasonPaymentRequired           = "PAYMENT_REQUIRED"
	ReasonSelfRequest               = "SELF_REQUEST"
	ReasonDuplicatePending          = "DUPLICATE_PENDING"
	ReasonRecipientOpenOffer        = "RECIPIENT_OPEN_OFFER"
	ReasonSenderOpenOffer           = "SENDER_OPEN_OFFER"
	ReasonApproverOpenOffer         = "APPROVER_OPEN_OFFER"
	ReasonStateUnavailable          = "STATE_UNAVAILABLE"
	ReasonOfferNotFound             = "OFFER_NOT_FOUND"
	ReasonAlreadyRedeemed           = "ALREADY_REDEEMED"
)

// 未付费方判定策略常量
const (
	UnpaidFeePolicyFewestRedemptions = "fewest_redemptions"
	UnpaidFeePolicyMostRedemptions   = "most_redemptions"
)

// 促销码状态常量
const (
	PromoCodeStatusActive   = "active"
	PromoCodeStatusDisabled = "disabled"
)

// 用户状态常量
const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// 零售渠道类别常量
const (
	ChannelCategoryRestaurant = "restaurant"
	ChannelCategoryRetail     = "retail"
	ChannelCategoryFitness    = "fitness"
	ChannelCategoryBeauty     = "beauty"
	ChannelCategoryService    = "service"
	ChannelCategoryOther      = "other"
)

// 异步任务名称常量
const (
	TaskSubscriptionRenew     = "subscription:renew"
	TaskRedemptionExpireSweep = "redemption:expire_sweep"
	TaskPartnershipCounters   = "partnership:refresh_counters"
)

// 队列名称常量
const (
	QueueDefault  = "default"
	QueueCritical = "critical"
)
