package services

import "errors"

var (
	ErrGiftRuleNotFound      = errors.New("gift rule not found")
	ErrOrderNotFound         = errors.New("order not found")
	ErrLineItemNotFound      = errors.New("line item not found")
	ErrPurchasableNotFound   = errors.New("purchasable not found")
	ErrOrderCompleted        = errors.New("order is already completed")
	ErrGiftLineItemReadOnly  = errors.New("gift line item quantity cannot be changed")
	ErrInvalidQty            = errors.New("quantity must be at least 1")
	ErrGiftRuleNameRequired  = errors.New("gift rule name is required")
	ErrGiftPurchasableNeeded = errors.New("gift purchasable is required")
	ErrGiftQtyTooSmall       = errors.New("gift quantity must be at least 1")
	ErrInvalidDateRange      = errors.New("date from cannot be after date to")
	ErrInvalidSubtotalRange  = errors.New("min subtotal cannot be greater than max subtotal")
)
