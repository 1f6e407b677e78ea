package persistence

import (
	"strings"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" || !allowedFields[trimmed] {
		return defaultField
	}
	return trimmed
}

var (
	itemSortFields = map[string]bool{
		"created_at": true, "updated_at": true, "sku": true, "name": true, "unit_price": true,
	}
	partySortFields = map[string]bool{
		"created_at": true, "updated_at": true, "name": true, "email": true,
	}
	packageSortFields = map[string]bool{
		"created_at": true, "updated_at": true, "name": true, "tier": true, "price": true,
	}
	invoiceSortFields = map[string]bool{
		"created_at": true, "updated_at": true, "invoice_number": true, "issue_date": true,
		"due_date": true, "total": true, "balance_due": true, "status": true,
	}
	auditSortFields = map[string]bool{
		"created_at": true, "action": true,
	}
)

// applyOrder adds a whitelisted ORDER BY
func applyOrder(q *gorm.DB, f shared.Filter, allowed map[string]bool) *gorm.DB {
	field := ValidateSortField(f.OrderBy, allowed, "created_at")
	return q.Order(field + " " + ValidateSortOrder(f.OrderDir))
}

// applyPage adds LIMIT/OFFSET from the filter
func applyPage(q *gorm.DB, f shared.Filter) *gorm.DB {
	return q.Offset(f.Offset()).Limit(f.Limit())
}

// applySearch adds a case-insensitive substring match over columns
func applySearch(q *gorm.DB, search string, columns ...string) *gorm.DB {
	search = strings.TrimSpace(search)
	if search == "" || len(columns) == 0 {
		return q
	}
	pattern := "%" + strings.ToLower(search) + "%"
	conds := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, c := range columns {
		conds[i] = "LOWER(" + c + ") LIKE ?"
		args[i] = pattern
	}
	return q.Where("("+strings.Join(conds, " OR ")+")", args...)
}
