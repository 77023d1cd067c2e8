package services

import "errors"

var (
	// ErrPromotionInvalidInput signals the supplied promotion fields are missing or malformed.
	ErrPromotionInvalidInput = errors.New("promotion: invalid input")
	// ErrPromotionNotFound indicates no promotion exists for the provided code or id.
	ErrPromotionNotFound = errors.New("promotion: not found")
	// ErrPromotionNotYetValid indicates the code's validity window has not opened.
	ErrPromotionNotYetValid = errors.New("promotion: not yet valid")
	// ErrPromotionExpired indicates the code's validity window has closed.
	ErrPromotionExpired = errors.New("promotion: expired")
	// ErrPromotionAlreadyUsed indicates the user has already redeemed the code.
	ErrPromotionAlreadyUsed = errors.New("promotion: already used")
	// ErrPromotionUsageLimitReached indicates the aggregate redemption cap is exhausted.
	ErrPromotionUsageLimitReached = errors.New("promotion: usage limit reached")
	// ErrPromotionDuplicateCode indicates another promotion already carries the code.
	ErrPromotionDuplicateCode = errors.New("promotion: duplicate code")
)
