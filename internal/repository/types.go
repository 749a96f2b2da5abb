package repository

import "time"

// UserListFilter 查询用户列表的过滤条件
type UserListFilter struct {
	Page     int
	PageSize int
	Search   string
	Status   string
}

// LocationListFilter 查询门店列表的过滤条件
type LocationListFilter struct {
	Page            int
	PageSize        int
	UserID          uint
	ChannelCategory string
	Search          string
	OpenOfferOnly   *bool
}

// OfferListFilter 查询报价列表的过滤条件
type OfferListFilter struct {
	Page        int
	PageSize    int
	UserID      uint
	LocationID  uint
	OnlyActive  bool
	IsOpenOffer *bool
}

// PartnerRequestListFilter 查询合作请求列表的过滤条件
type PartnerRequestListFilter struct {
	Page     int
	PageSize int
	UserID   uint // 作为发起方或接收方
	Status   string
}

// RedemptionListFilter 查询兑换记录的过滤条件
type RedemptionListFilter struct {
	Page       int
	PageSize   int
	OfferID    uint
	LocationID uint
	Status     string
	From       *time.Time
	To         *time.Time
}

// CreditEntryListFilter 查询账本条目的过滤条件
type CreditEntryListFilter struct {
	Page     int
	PageSize int
	UserID   uint
	Reason   string
}

// BillingListFilter 查询计费交易的过滤条件
type BillingListFilter struct {
	Page     int
	PageSize int
	UserID   uint
	Reason   string
	Status   string
}
