package option

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// QueryOption mutates a gorm query before it runs. Options compose left to
// right, so later options win on conflicting clauses.
type QueryOption func(*gorm.DB) *gorm.DB

// Apply runs every option against tx.
func Apply(tx *gorm.DB, opts ...QueryOption) *gorm.DB {
	for _, opt := range opts {
		tx = opt(tx)
	}
	return tx
}

type QuerySortBy struct {
	SortBy  string
	OrderBy string
	// Allow whitelists sortable columns; an empty map allows created_at only.
	Allow map[string]bool
}

func WithSortBy(sort QuerySortBy) QueryOption {
	return func(tx *gorm.DB) *gorm.DB {
		column := sort.SortBy
		if column == "" {
			column = "created_at"
		}
		if len(sort.Allow) > 0 && !sort.Allow[column] {
			column = "created_at"
		}

		direction := strings.ToUpper(sort.OrderBy)
		if direction != "ASC" && direction != "DESC" {
			direction = "DESC"
		}

		return tx.Order(fmt.Sprintf("%s %s", column, direction))
	}
}

// LockingUpdate is a gorm scope adding FOR UPDATE to every query in the tx.
func LockingUpdate(tx *gorm.DB) *gorm.DB {
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// WithLockingUpdate row-locks the rows read by this single query.
func WithLockingUpdate() QueryOption {
	return LockingUpdate
}

type Operator string

const (
	EQ  Operator = "="
	NEQ Operator = "<>"
	GT  Operator = ">"
	GTE Operator = ">="
	LT  Operator = "<"
	LTE Operator = "<="
)

type Condition struct {
	Field    string
	Operator Operator
	Value    interface{}
}

// ApplyOperator adds a comparison predicate that a struct filter cannot
// express (struct filters are equality only).
func ApplyOperator(cond Condition) QueryOption {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Where(fmt.Sprintf("%s %s ?", cond.Field, cond.Operator), cond.Value)
	}
}

func WithLimit(limit int) QueryOption {
	return func(tx *gorm.DB) *gorm.DB {
		if limit <= 0 {
			return tx
		}
		return tx.Limit(limit)
	}
}
