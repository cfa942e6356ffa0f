package apperrors

import (
	"errors"
)

var (
	ErrAccountNotFound = errors.New("account not found")

	ErrInvalidDelta       = errors.New("ledger delta sign does not match entry kind")
	ErrConcurrencyTimeout = errors.New("timed out acquiring account lock")

	ErrTierNotFound         = errors.New("tier not found")
	ErrTierThresholdTaken   = errors.New("tier with the same minimum points already exists")
	ErrNoTiersConfigured    = errors.New("no tiers configured for program")
	ErrDegenerateTierConfig = errors.New("tier thresholds are not distinct")

	ErrRewardNotFound            = errors.New("reward not found or unavailable")
	ErrRewardNotPointsRedeemable = errors.New("reward can not be redeemed with points")
	ErrRewardPriceRequired       = errors.New("reward needs a points or currency price")
	ErrInsufficientPoints        = errors.New("insufficient points")

	ErrRuleNotFound      = errors.New("point rule not found")
	ErrRuleNotApplicable = errors.New("point rule is inactive or outside its validity window")

	ErrFulfillmentNotFound = errors.New("fulfillment not found")
)
