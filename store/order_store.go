package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/uma-shankar-2005/Bloomcart/models"
)

var (
	// ErrNotFound means no order row matches the given key.
	ErrNotFound = errors.New("order not found")
	// ErrDuplicate means an insert violated the gateway_order_id uniqueness invariant.
	ErrDuplicate = errors.New("duplicate gateway order id")
	// ErrStatusConflict means a compare-and-set matched no row because the
	// current status differs from the expected one.
	ErrStatusConflict = errors.New("order status does not match expected status")
)

const uniqueViolation = "23505"

// OrderStore is the durable order table. Status mutation goes through
// CompareAndSetStatus only; there is no unconditional update and no delete.
type OrderStore interface {
	Insert(ctx context.Context, order *models.Order) error
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error)
	CompareAndSetStatus(ctx context.Context, gatewayOrderID string, expected, next models.OrderStatus, gatewayPaymentID string) (*models.Order, error)
	ListByUser(ctx context.Context, userID int) ([]models.Order, error)
}

type orderStore struct {
	db *sql.DB
}

func NewOrderStore(db *sql.DB) OrderStore {
	return &orderStore{db: db}
}

func (s *orderStore) Insert(ctx context.Context, order *models.Order) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO orders (id, user_id, amount, currency, gateway_order_id, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		order.ID, order.UserID, order.Amount, order.Currency, order.GatewayOrderID,
		order.Status, order.CreatedAt, order.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicate
		}
		return err
	}

	for _, item := range order.Items {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity, unit_price) VALUES ($1, $2, $3, $4)`,
			order.ID, item.ProductID, item.Quantity, item.UnitPrice,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

const orderColumns = `id, user_id, amount, currency, gateway_order_id, gateway_payment_id, status, created_at, updated_at`

func scanOrder(row interface{ Scan(...interface{}) error }) (*models.Order, error) {
	var order models.Order
	var paymentID sql.NullString
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.Amount,
		&order.Currency,
		&order.GatewayOrderID,
		&paymentID,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	order.GatewayPaymentID = paymentID.String
	return &order, nil
}

func (s *orderStore) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (*models.Order, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE gateway_order_id = $1`,
		gatewayOrderID,
	)
	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

// CompareAndSetStatus transitions the order in a single conditional UPDATE so
// that the status check and the write cannot interleave with a concurrent
// confirmation. gatewayPaymentID is only written when non-empty.
func (s *orderStore) CompareAndSetStatus(ctx context.Context, gatewayOrderID string, expected, next models.OrderStatus, gatewayPaymentID string) (*models.Order, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE orders
		 SET status = $3,
		     gateway_payment_id = COALESCE(NULLIF($4, ''), gateway_payment_id),
		     updated_at = now()
		 WHERE gateway_order_id = $1 AND status = $2
		 RETURNING `+orderColumns,
		gatewayOrderID, expected, next, gatewayPaymentID,
	)
	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrStatusConflict
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *orderStore) ListByUser(ctx context.Context, userID int) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []models.Order
	var ids []uuid.UUID
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	items, err := s.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

// loadItems fetches the item snapshots for a set of orders with the catalog
// display fields joined in.
func (s *orderStore) loadItems(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]models.OrderItem, error) {
	idStrings := make([]string, len(ids))
	for i, id := range ids {
		idStrings[i] = id.String()
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT oi.order_id, oi.product_id, oi.quantity, oi.unit_price,
		        COALESCE(p.name, ''), COALESCE(p.image, '')
		 FROM order_items oi
		 LEFT JOIN products p ON p.id = oi.product_id
		 WHERE oi.order_id = ANY($1)`,
		pq.Array(idStrings),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make(map[uuid.UUID][]models.OrderItem)
	for rows.Next() {
		var orderID uuid.UUID
		var item models.OrderItem
		if err := rows.Scan(&orderID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.Name, &item.Image); err != nil {
			return nil, err
		}
		items[orderID] = append(items[orderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read order items: %w", err)
	}
	return items, nil
}
