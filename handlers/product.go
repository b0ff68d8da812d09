package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/uma-shankar-2005/Bloomcart/catalog"
	"github.com/uma-shankar-2005/Bloomcart/middleware"
)

type ProductHandler struct {
	catalog *catalog.Service
	logger  *zap.Logger
}

func NewProductHandler(catalogService *catalog.Service, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		catalog: catalogService,
		logger:  logger,
	}
}

func (h *ProductHandler) GetProducts(c *gin.Context) {
	ctx, span := otel.Tracer("bloomcart").Start(c.Request.Context(), "GetProducts")
	defer span.End()

	filters := catalog.Filters{
		Search: c.Query("search"),
		SortBy: c.DefaultQuery("sortBy", "featured"),
		Page:   1,
		Limit:  catalog.DefaultLimit,
	}
	if v := c.Query("type"); v != "" {
		filters.Type = []string{v}
	}
	if v := c.Query("category"); v != "" {
		filters.Category = []string{v}
	}
	if v := c.Query("occasion"); v != "" {
		filters.Occasion = []string{v}
	}
	if v := c.Query("minPrice"); v != "" {
		if p, err := strconv.ParseInt(v, 10, 64); err == nil {
			filters.MinPrice = &p
		}
	}
	if v := c.Query("maxPrice"); v != "" {
		if p, err := strconv.ParseInt(v, 10, 64); err == nil {
			filters.MaxPrice = &p
		}
	}
	if v := c.Query("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			filters.Page = p
		}
	}

	result, err := h.catalog.Query(ctx, filters)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to fetch products",
			zap.String("trace_id", middleware.GetTraceID(ctx)),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	span.SetAttributes(attribute.Int("products.count", len(result.Products)))
	c.JSON(http.StatusOK, result)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	ctx, span := otel.Tracer("bloomcart").Start(c.Request.Context(), "GetProduct")
	defer span.End()

	id := c.Param("id")
	span.SetAttributes(attribute.String("product.id", id))

	product, err := h.catalog.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		span.RecordError(err)
		h.logger.Error("Failed to fetch product",
			zap.String("trace_id", middleware.GetTraceID(ctx)),
			zap.String("product_id", id),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) GetRelatedProducts(c *gin.Context) {
	ctx, span := otel.Tracer("bloomcart").Start(c.Request.Context(), "GetRelatedProducts")
	defer span.End()

	id := c.Param("id")
	span.SetAttributes(attribute.String("product.id", id))

	products, err := h.catalog.Related(ctx, id, 4)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		span.RecordError(err)
		h.logger.Error("Failed to fetch related products",
			zap.String("trace_id", middleware.GetTraceID(ctx)),
			zap.String("product_id", id),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, products)
}

func (h *ProductHandler) GetFeaturedProducts(c *gin.Context) {
	ctx, span := otel.Tracer("bloomcart").Start(c.Request.Context(), "GetFeaturedProducts")
	defer span.End()

	limit := 8
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	products, err := h.catalog.Featured(ctx, limit)
	if err != nil {
		span.RecordError(err)
		h.logger.Error("Failed to fetch featured products",
			zap.String("trace_id", middleware.GetTraceID(ctx)),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, products)
}
