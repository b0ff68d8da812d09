package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/uma-shankar-2005/Bloomcart/cache"
	"github.com/uma-shankar-2005/Bloomcart/models"
)

// ErrProductNotFound means no active product matches the given id.
var ErrProductNotFound = errors.New("product not found")

const productCacheTTL = 5 * time.Minute

// Service answers filtered, paginated product queries. It is a read-only
// collaborator: the checkout path only consults it, never mutates it.
type Service struct {
	db          *sql.DB
	redisClient *redis.Client // nil disables caching
	logger      *zap.Logger
}

func NewService(db *sql.DB, redisClient *redis.Client, logger *zap.Logger) *Service {
	return &Service{
		db:          db,
		redisClient: redisClient,
		logger:      logger,
	}
}

type QueryResult struct {
	Products    []models.Product `json:"products"`
	TotalCount  int              `json:"totalCount"`
	TotalPages  int              `json:"totalPages"`
	CurrentPage int              `json:"currentPage"`
	HasNextPage bool             `json:"hasNextPage"`
	HasPrevPage bool             `json:"hasPrevPage"`
}

const productColumns = `id, name, description, type, price, original_price, category, occasion,
	stock, is_active, is_featured, rating, review_count, partner_id, partner_name, image,
	created_at, updated_at`

func scanProduct(row interface{ Scan(...interface{}) error }) (*models.Product, error) {
	var p models.Product
	var originalPrice sql.NullInt64
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.Type, &p.Price, &originalPrice,
		&p.Category, pq.Array(&p.Occasion), &p.Stock, &p.IsActive, &p.IsFeatured,
		&p.Rating, &p.ReviewCount, &p.PartnerID, &p.PartnerName, &p.Image,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if originalPrice.Valid {
		p.OriginalPrice = &originalPrice.Int64
	}
	return &p, nil
}

func (s *Service) Query(ctx context.Context, filters Filters) (*QueryResult, error) {
	where, args := buildWhere(filters)

	var totalCount int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products"+where, args...).Scan(&totalCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	page := filters.Page
	if page < 1 {
		page = 1
	}
	limit := filters.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	offset := (page - 1) * limit

	query := fmt.Sprintf("SELECT %s FROM products%s ORDER BY %s LIMIT $%d OFFSET $%d",
		productColumns, where, orderBy(filters.SortBy), len(args)+1, len(args)+2)
	rows, err := s.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	totalPages := (totalCount + limit - 1) / limit
	return &QueryResult{
		Products:    products,
		TotalCount:  totalCount,
		TotalPages:  totalPages,
		CurrentPage: page,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.Product, error) {
	if s.redisClient != nil {
		cachedData, err := cache.GetProduct(ctx, s.redisClient, id)
		if err == nil {
			var product models.Product
			if err := json.Unmarshal(cachedData, &product); err == nil {
				return &product, nil
			}
		}
	}

	row := s.db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = $1 AND is_active = TRUE", id)
	product, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}

	if s.redisClient != nil {
		if err := cache.SetProduct(ctx, s.redisClient, id, product, productCacheTTL); err != nil {
			s.logger.Warn("Failed to cache product", zap.String("product_id", id), zap.Error(err))
		}
	}
	return product, nil
}

func (s *Service) Featured(ctx context.Context, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = 8
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE is_active = TRUE AND is_featured = TRUE ORDER BY rating DESC LIMIT $1",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

// Related returns top-rated active products in the same category.
func (s *Service) Related(ctx context.Context, productID string, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = 4
	}
	product, err := s.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE is_active = TRUE AND category = $1 AND id <> $2 ORDER BY rating DESC LIMIT $3",
		product.Category, productID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectProducts(rows)
}

func collectProducts(rows *sql.Rows) ([]models.Product, error) {
	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}
