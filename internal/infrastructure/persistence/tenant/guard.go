package tenant

import (
	"reflect"
	"strings"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

var uuidType = reflect.TypeOf(uuid.UUID{})

// Guard registers callbacks that fail statements on tenant-owned tables
// (tables with a non-nullable uuid tenant_id column) when no tenant
// condition is present, and inserts that carry a nil tenant.
func Guard(db *gorm.DB) error {
	cb := db.Callback()
	if err := cb.Query().Before("gorm:query").Register("tenant:guard_query", requireCondition); err != nil {
		return err
	}
	if err := cb.Row().Before("gorm:row").Register("tenant:guard_row", requireCondition); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("tenant:guard_update", requireCondition); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("tenant:guard_delete", requireCondition); err != nil {
		return err
	}
	return cb.Create().Before("gorm:create").Register("tenant:guard_create", requireTenantOnCreate)
}

func tenantField(db *gorm.DB) *schema.Field {
	if db.Statement.Schema == nil {
		return nil
	}
	f := db.Statement.Schema.LookUpField(Column)
	if f == nil || f.FieldType != uuidType {
		return nil
	}
	return f
}

func requireCondition(db *gorm.DB) {
	if db.Error != nil || tenantField(db) == nil {
		return
	}
	if db.Statement.Context != nil && IsCrossTenant(db.Statement.Context) {
		return
	}
	if hasCondition(db.Statement) {
		return
	}
	_ = db.AddError(shared.ErrCrossTenantViolation.WithCause(
		gorm.ErrMissingWhereClause))
}

func hasCondition(stmt *gorm.Statement) bool {
	c, ok := stmt.Clauses["WHERE"]
	if !ok {
		return false
	}
	where, ok := c.Expression.(clause.Where)
	if !ok {
		return false
	}
	for _, expr := range where.Exprs {
		if mentionsTenant(expr) {
			return true
		}
	}
	return false
}

func mentionsTenant(expr clause.Expression) bool {
	switch e := expr.(type) {
	case clause.Eq:
		return columnName(e.Column) == Column
	case clause.IN:
		return columnName(e.Column) == Column
	case clause.Expr:
		return strings.Contains(e.SQL, Column)
	case clause.NamedExpr:
		return strings.Contains(e.SQL, Column)
	case clause.AndConditions:
		for _, c := range e.Exprs {
			if mentionsTenant(c) {
				return true
			}
		}
	}
	return false
}

func columnName(col any) string {
	switch c := col.(type) {
	case clause.Column:
		return c.Name
	case string:
		return c
	}
	return ""
}

func requireTenantOnCreate(db *gorm.DB) {
	f := tenantField(db)
	if db.Error != nil || f == nil {
		return
	}
	ctx := db.Statement.Context
	rv := db.Statement.ReflectValue
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := 0; i < rv.Len(); i++ {
			if _, zero := f.ValueOf(ctx, reflect.Indirect(rv.Index(i))); zero {
				_ = db.AddError(shared.ErrCrossTenantViolation)
				return
			}
		}
	case reflect.Struct:
		if _, zero := f.ValueOf(ctx, rv); zero {
			_ = db.AddError(shared.ErrCrossTenantViolation)
		}
	}
}
