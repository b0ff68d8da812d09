package catalog

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

func setupCatalogTest(t *testing.T) (*Service, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	logger := zaptest.NewLogger(t, zaptest.Level(zap.InfoLevel))
	return NewService(db, nil, logger), mock, db
}

func productColumnsRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "description", "type", "price", "original_price", "category",
		"occasion", "stock", "is_active", "is_featured", "rating", "review_count",
		"partner_id", "partner_name", "image", "created_at", "updated_at",
	})
}

func addProductRow(rows *sqlmock.Rows, id, name string, price int64) *sqlmock.Rows {
	return rows.AddRow(
		id, name, "description", "FRESH_FLOWERS", price, nil, "Roses",
		"{Birthday,Anniversary}", 10, true, true, 4.5, 12,
		"partner-1", "Bloom Partner", "https://cdn.example/p.jpg", time.Now(), time.Now(),
	)
}

func TestCatalog_Query_Paginates(t *testing.T) {
	svc, mock, db := setupCatalogTest(t)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM products").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))

	rows := productColumnsRows()
	addProductRow(rows, "p1", "Red Roses", 49900)
	addProductRow(rows, "p2", "Sunflowers", 29900)
	mock.ExpectQuery("SELECT (.+) FROM products(.+) ORDER BY is_featured DESC, rating DESC LIMIT").
		WillReturnRows(rows)

	result, err := svc.Query(context.Background(), Filters{Page: 2})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}

	if result.TotalCount != 25 {
		t.Errorf("Expected totalCount 25, got %d", result.TotalCount)
	}
	if result.TotalPages != 3 {
		t.Errorf("Expected totalPages 3, got %d", result.TotalPages)
	}
	if result.CurrentPage != 2 {
		t.Errorf("Expected currentPage 2, got %d", result.CurrentPage)
	}
	if !result.HasNextPage || !result.HasPrevPage {
		t.Errorf("Expected both pagination flags set on middle page")
	}
	if len(result.Products) != 2 {
		t.Fatalf("Expected 2 products, got %d", len(result.Products))
	}
	if result.Products[0].Occasion[0] != "Birthday" {
		t.Errorf("Occasion array not scanned: %v", result.Products[0].Occasion)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestCatalog_Query_SearchFilter(t *testing.T) {
	svc, mock, db := setupCatalogTest(t)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM products WHERE is_active = TRUE AND \\(name ILIKE").
		WithArgs("%roses%", "%roses%", "%roses%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	rows := productColumnsRows()
	addProductRow(rows, "p1", "Red Roses", 49900)
	mock.ExpectQuery("SELECT (.+) FROM products WHERE is_active = TRUE AND \\(name ILIKE").
		WithArgs("%roses%", "%roses%", "%roses%", 12, 0).
		WillReturnRows(rows)

	result, err := svc.Query(context.Background(), Filters{Search: "roses"})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if result.TotalCount != 1 {
		t.Errorf("Expected totalCount 1, got %d", result.TotalCount)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Database expectations were not met: %v", err)
	}
}

func TestCatalog_GetByID_NotFound(t *testing.T) {
	svc, mock, db := setupCatalogTest(t)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM products WHERE id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := svc.GetByID(context.Background(), "missing")
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("Expected ErrProductNotFound, got %v", err)
	}
}

func TestCatalog_GetByID_Success(t *testing.T) {
	svc, mock, db := setupCatalogTest(t)
	defer db.Close()

	rows := productColumnsRows()
	addProductRow(rows, "p1", "Red Roses", 49900)
	mock.ExpectQuery("SELECT (.+) FROM products WHERE id").
		WithArgs("p1").
		WillReturnRows(rows)

	product, err := svc.GetByID(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if product.Name != "Red Roses" {
		t.Errorf("Expected Red Roses, got %s", product.Name)
	}
	if product.Price != 49900 {
		t.Errorf("Expected price 49900 paise, got %d", product.Price)
	}
}
