package service

import "errors"

// 用户与认证相关错误
var (
	ErrUserNotFound       = errors.New("用户不存在")
	ErrUserDisabled       = errors.New("账号已被禁用")
	ErrEmailTaken         = errors.New("邮箱已被注册")
	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrWeakPassword       = errors.New("密码强度不足")
	ErrAdminNotFound      = errors.New("管理员不存在")
	ErrAdminLoginFailed   = errors.New("用户名或密码错误")
	ErrTokenInvalid       = errors.New("登录凭证无效")
)

// 门店与报价相关错误
var (
	ErrLocationNotFound     = errors.New("门店不存在")
	ErrLocationForbidden    = errors.New("无权操作该门店")
	ErrLocationCreateFailed = errors.New("门店创建失败")
	ErrLocationUpdateFailed = errors.New("门店更新失败")
	ErrOfferNotFound        = errors.New("报价不存在")
	ErrOfferForbidden       = errors.New("无权操作该报价")
	ErrOfferInvalid         = errors.New("报价参数无效")
	ErrOfferExpired         = errors.New("报价已过期")
	ErrOfferCreateFailed    = errors.New("报价创建失败")
	ErrOfferUpdateFailed    = errors.New("报价更新失败")
	ErrOpenOfferConflict    = errors.New("开放报价与普通报价互斥")
)

// 资格判定相关错误（携带稳定拒绝原因码）
var (
	ErrEligibilityDenied = errors.New("资格校验未通过")
	ErrStateUnavailable  = errors.New("状态读取失败，请重试")
)

// 合作请求相关错误
var (
	ErrPartnerRequestNotFound     = errors.New("合作请求不存在")
	ErrPartnerRequestForbidden    = errors.New("无权操作该合作请求")
	ErrPartnerRequestConflict     = errors.New("合作请求状态已变更")
	ErrPartnerRequestTerminal     = errors.New("合作请求已终结")
	ErrPartnerRequestCreateFailed = errors.New("合作请求创建失败")
)

// 订阅相关错误
var (
	ErrSubscriptionNotFound     = errors.New("订阅不存在")
	ErrSubscriptionExists       = errors.New("该门店已存在订阅")
	ErrSubscriptionCreateFailed = errors.New("订阅创建失败")
	ErrSubscriptionUpdateFailed = errors.New("订阅更新失败")
)

// 兑换码相关错误
var (
	ErrRedemptionNotFound     = errors.New("兑换码不存在")
	ErrRedemptionRedeemed     = errors.New("兑换码已被核销")
	ErrRedemptionExpired      = errors.New("兑换码已过期")
	ErrRedemptionNotEligible  = errors.New("当前路径不可兑换")
	ErrRedemptionCreateFailed = errors.New("兑换码签发失败")
	ErrRedemptionUpdateFailed = errors.New("兑换码更新失败")
)

// 信用账本相关错误
var (
	ErrCreditAccountNotFound     = errors.New("信用账户不存在")
	ErrCreditAccountCreateFailed = errors.New("信用账户创建失败")
	ErrCreditAccountUpdateFailed = errors.New("信用账户更新失败")
	ErrCreditEntryCreateFailed   = errors.New("信用流水创建失败")
	ErrCreditInvalidAmount       = errors.New("信用金额无效")
	ErrCreditInsufficient        = errors.New("信用余额不足")
)

// 计费相关错误
var (
	ErrBillingCreateFailed   = errors.New("计费流水创建失败")
	ErrBillingInvalidAmount  = errors.New("计费金额无效")
	ErrPaymentMethodRequired = errors.New("未绑定默认支付方式")
	ErrPaymentDeclined       = errors.New("支付被拒绝")
	ErrPaymentUnavailable    = errors.New("支付服务暂不可用，请稍后重试")
)

// 促销码相关错误
var (
	ErrPromoCodeNotFound = errors.New("促销码不存在")
	ErrPromoCodeInvalid  = errors.New("促销码无效或已过期")
	ErrPromoCodeUsedUp   = errors.New("促销码已达使用上限")
)
