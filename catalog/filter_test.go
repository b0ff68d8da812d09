package catalog

import (
	"strings"
	"testing"
)

func TestBuildWhere_NoFilters(t *testing.T) {
	where, args := buildWhere(Filters{})
	if where != " WHERE is_active = TRUE" {
		t.Errorf("Unexpected where clause: %q", where)
	}
	if len(args) != 0 {
		t.Errorf("Expected no args, got %v", args)
	}
}

func TestBuildWhere_TypeAndPriceRange(t *testing.T) {
	minPrice := int64(10000)
	maxPrice := int64(50000)
	where, args := buildWhere(Filters{
		Type:     []string{"FRESH_FLOWERS"},
		MinPrice: &minPrice,
		MaxPrice: &maxPrice,
	})

	if !strings.Contains(where, "type = ANY($1)") {
		t.Errorf("Missing type clause: %q", where)
	}
	if !strings.Contains(where, "price >= $2") {
		t.Errorf("Missing min price clause: %q", where)
	}
	if !strings.Contains(where, "price <= $3") {
		t.Errorf("Missing max price clause: %q", where)
	}
	if len(args) != 3 {
		t.Errorf("Expected 3 args, got %d", len(args))
	}
	if args[1] != minPrice || args[2] != maxPrice {
		t.Errorf("Unexpected price args: %v", args)
	}
}

func TestBuildWhere_Search(t *testing.T) {
	where, args := buildWhere(Filters{Search: "roses"})

	if !strings.Contains(where, "(name ILIKE $1 OR description ILIKE $2 OR category ILIKE $3)") {
		t.Errorf("Missing search clause: %q", where)
	}
	if len(args) != 3 {
		t.Fatalf("Expected 3 args, got %d", len(args))
	}
	for i, arg := range args {
		if arg != "%roses%" {
			t.Errorf("Arg %d: expected %%roses%%, got %v", i, arg)
		}
	}
}

func TestBuildWhere_OccasionOverlap(t *testing.T) {
	where, _ := buildWhere(Filters{Occasion: []string{"Birthday", "Anniversary"}})
	if !strings.Contains(where, "occasion && $1") {
		t.Errorf("Missing occasion overlap clause: %q", where)
	}
}

func TestOrderBy(t *testing.T) {
	tests := []struct {
		sortBy string
		want   string
	}{
		{"price-low", "price ASC"},
		{"price-high", "price DESC"},
		{"rating", "rating DESC"},
		{"newest", "created_at DESC"},
		{"featured", "is_featured DESC, rating DESC"},
		{"", "is_featured DESC, rating DESC"},
		{"garbage", "is_featured DESC, rating DESC"},
	}
	for _, tt := range tests {
		if got := orderBy(tt.sortBy); got != tt.want {
			t.Errorf("orderBy(%q) = %q, want %q", tt.sortBy, got, tt.want)
		}
	}
}
