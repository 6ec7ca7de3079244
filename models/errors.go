package models

import "errors"

// Errors that block an operation. Idempotency short-circuits are not
// errors anywhere in this package: a repeated webhook, a repeated
// deduction, or a same-status transition all return success.
var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidSignature  = errors.New("invalid webhook signature")
	ErrEntityNotFound    = errors.New("entity not found")
	ErrAlreadyRedeemed   = errors.New("reward already redeemed")
	ErrRewardExpired     = errors.New("reward expired")
	ErrRewardNotActive   = errors.New("reward is not active")
)
