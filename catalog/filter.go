package catalog

import (
	"fmt"
	"strings"

	"github.com/lib/pq"
)

// Filters describes a catalog query. Zero values mean "no constraint".
// Prices are paise, pagination is 1-indexed.
type Filters struct {
	Type     []string
	Category []string
	Occasion []string
	Search   string
	MinPrice *int64
	MaxPrice *int64
	SortBy   string
	Page     int
	Limit    int
}

// DefaultLimit is the catalog page size.
const DefaultLimit = 12

var sortOrders = map[string]string{
	"price-low":  "price ASC",
	"price-high": "price DESC",
	"rating":     "rating DESC",
	"newest":     "created_at DESC",
	"featured":   "is_featured DESC, rating DESC",
}

// whereBuilder collects typed filter clauses and renders them as a
// parameterized WHERE fragment, keeping query construction injection-safe
// and testable independent of the storage engine.
type whereBuilder struct {
	conditions []string
	args       []interface{}
}

// add appends one clause. expr uses %d placeholders, one per arg, which are
// rewritten to consecutive $n parameters.
func (b *whereBuilder) add(expr string, args ...interface{}) {
	positions := make([]interface{}, len(args))
	for i := range args {
		positions[i] = len(b.args) + i + 1
	}
	b.conditions = append(b.conditions, fmt.Sprintf(expr, positions...))
	b.args = append(b.args, args...)
}

func (b *whereBuilder) where() string {
	if len(b.conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conditions, " AND ")
}

func buildWhere(f Filters) (string, []interface{}) {
	var b whereBuilder
	b.add("is_active = TRUE")

	if len(f.Type) > 0 {
		b.add("type = ANY($%d)", pq.Array(f.Type))
	}
	if len(f.Category) > 0 {
		b.add("category = ANY($%d)", pq.Array(f.Category))
	}
	if len(f.Occasion) > 0 {
		b.add("occasion && $%d", pq.Array(f.Occasion))
	}
	if f.Search != "" {
		term := "%" + f.Search + "%"
		b.add("(name ILIKE $%d OR description ILIKE $%d OR category ILIKE $%d)", term, term, term)
	}
	if f.MinPrice != nil {
		b.add("price >= $%d", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		b.add("price <= $%d", *f.MaxPrice)
	}

	return b.where(), b.args
}

func orderBy(sortBy string) string {
	if order, ok := sortOrders[sortBy]; ok {
		return order
	}
	return sortOrders["featured"]
}
