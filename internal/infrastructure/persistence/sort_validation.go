package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// OrderSortFields contains allowed sort fields for orders
var OrderSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"order_number": true,
	"party_id":     true,
	"status":       true,
	"total_amount": true,
	"due_date":     true,
	"ordered_at":   true,
}

// PaymentRecordSortFields contains allowed sort fields for payment records
var PaymentRecordSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"payment_number": true,
	"order_number":   true,
	"party_id":       true,
	"method":         true,
	"amount":         true,
	"status":         true,
	"payment_date":   true,
}

// RefundRecordSortFields contains allowed sort fields for refund records
var RefundRecordSortFields = map[string]bool{
	"id":               true,
	"created_at":       true,
	"updated_at":       true,
	"refund_number":    true,
	"order_number":     true,
	"party_id":         true,
	"type":             true,
	"amount":           true,
	"processed_amount": true,
	"status":           true,
	"refund_date":      true,
}

// ReturnOrderSortFields contains allowed sort fields for return orders
var ReturnOrderSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"return_number": true,
	"order_number":  true,
	"party_id":      true,
	"type":          true,
	"status":        true,
	"total_amount":  true,
	"refund_amount": true,
}
