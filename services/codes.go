package services

import (
	"strings"

	"github.com/google/uuid"
)

// randomCode returns prefix plus n uppercase hex characters drawn from
// a fresh UUID. Shared by order numbers and reward codes so both read
// the same over the counter and on receipts.
func randomCode(prefix string, n int) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + strings.ToUpper(raw[:n])
}

// GenerateOrderNumber produces a human-facing order number. The caller
// owns collision checking against existing orders and re-generates on a
// hit, the same way reward codes are retried.
func GenerateOrderNumber() string {
	return randomCode("WGB-", 8)
}
