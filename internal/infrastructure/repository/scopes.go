package repository

import (
	"time"

	"github.com/sangkips/economy-api/internal/domain/enum"
	"github.com/sangkips/economy-api/pkg/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Paginate applies offset and limit from params after clamping them
func Paginate(params *pagination.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if params == nil {
			params = pagination.DefaultPagination()
		}
		params.Validate()
		return db.Offset(params.Offset()).Limit(params.PerPage)
	}
}

// UsableEntitlements restricts a query to active, unexpired entitlements with units left
func UsableEntitlements(now time.Time) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("status = ?", enum.EntitlementStatusActive).
			Where("(expires_at IS NULL OR expires_at > ?)", now).
			Where("consumed_quantity < quantity")
	}
}

// ForUpdate takes a row lock on the selected rows. SQLite has no row locks and
// ignores the clause; its single writer serialises instead.
func ForUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}
