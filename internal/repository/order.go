package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gsmmotor/storefront/internal/domain/order"
	"github.com/gsmmotor/storefront/internal/domain/product"
)

const (
	orderColumns = `id, order_number, user_id, total_price, shipping_cost,
		courier, courier_service, tracking_number, shipping_method, shipping_address,
		status, payment_status, notes, created_at, updated_at`

	createOrderSQL = `INSERT INTO orders
		(order_number, user_id, total_price, shipping_cost, courier, courier_service,
		 shipping_method, shipping_address, status, payment_status, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	createOrderItemSQL = `INSERT INTO order_items (order_id, product_id, quantity, price_at_purchase)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	// The stock guard lives in the WHERE clause. A concurrent checkout that
	// drains the stock first makes this update match zero rows, and the whole
	// transaction rolls back.
	decrementStockSQL = `UPDATE products SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2`

	stockForUpdateSQL = `SELECT stock FROM products WHERE id = $1`

	getOrderByIDSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	getOrderForUserSQL = `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 AND user_id = $2`

	listOrderItemsSQL = `SELECT oi.id, oi.order_id, oi.product_id, p.name, oi.quantity, oi.price_at_purchase, oi.created_at
		FROM order_items oi JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1) ORDER BY oi.id`

	listProofsSQL = `SELECT id, order_id, image_path, status, admin_notes, created_at, updated_at
		FROM payment_proofs WHERE order_id = ANY($1) ORDER BY id`

	updateOrderStatusSQL = `UPDATE orders SET status = $2, payment_status = $3, tracking_number = $4, updated_at = now()
		WHERE id = $1`

	createProofSQL = `INSERT INTO payment_proofs (order_id, image_path, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`

	getProofSQL = `SELECT id, order_id, image_path, status, admin_notes, created_at, updated_at
		FROM payment_proofs WHERE order_id = $1 AND id = $2`

	updateProofSQL = `UPDATE payment_proofs SET status = $2, admin_notes = $3, updated_at = now()
		WHERE id = $1 AND status = 'pending'`

	updatePaymentStatusSQL = `UPDATE orders SET payment_status = $2, updated_at = now() WHERE id = $1`

	orderStatsSQL = `SELECT COUNT(*),
		COUNT(*) FILTER (WHERE status = 'pending'),
		COUNT(*) FILTER (WHERE status = 'processing'),
		COUNT(*) FILTER (WHERE created_at >= date_trunc('day', now())),
		COALESCE(SUM(total_price + shipping_cost) FILTER (WHERE payment_status = 'verified' AND status <> 'cancelled'), 0)
		FROM orders`
)

// uniqueViolation is the PostgreSQL error code for unique constraint breaks.
const uniqueViolation = "23505"

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// CreateWithItems persists the order, its items, the stock decrements, and the
// cart deletion in one transaction. A colliding order number surfaces as
// order.ErrDuplicateOrderNumber so the caller can regenerate and retry.
func (r *OrderRepository) CreateWithItems(ctx context.Context, o *order.Order, items []order.Item) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning checkout transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, createOrderSQL,
		o.OrderNumber, o.UserID, o.TotalPrice, o.ShippingCost,
		o.Courier, o.CourierService, o.ShippingMethod, o.ShippingAddress,
		o.Status, o.PaymentStatus, o.Notes,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return order.ErrDuplicateOrderNumber
		}
		return fmt.Errorf("creating order %q: %w", o.OrderNumber, err)
	}

	for i := range items {
		item := &items[i]
		item.OrderID = o.ID

		err = tx.QueryRow(ctx, createOrderItemSQL,
			item.OrderID, item.ProductID, item.Quantity, item.PriceAtPurchase,
		).Scan(&item.ID, &item.CreatedAt)
		if err != nil {
			return fmt.Errorf("creating order item for product %d: %w", item.ProductID, err)
		}

		tag, err := tx.Exec(ctx, decrementStockSQL, item.ProductID, item.Quantity)
		if err != nil {
			return fmt.Errorf("decrementing stock for product %d: %w", item.ProductID, err)
		}
		if tag.RowsAffected() == 0 {
			var available int
			if err := tx.QueryRow(ctx, stockForUpdateSQL, item.ProductID).Scan(&available); err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return product.ErrNotFound
				}
				return fmt.Errorf("reading stock for product %d: %w", item.ProductID, err)
			}
			return &product.InsufficientStockError{ProductID: item.ProductID, Available: available}
		}
	}

	if _, err := tx.Exec(ctx, clearCartSQL, o.UserID); err != nil {
		return fmt.Errorf("clearing cart after checkout: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing checkout transaction: %w", err)
	}
	o.Items = items
	return nil
}

// GetByID returns a single order with its items and payment proofs.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	return r.getOne(ctx, getOrderByIDSQL, id)
}

// GetForUser returns an order only when it belongs to the given user. Orders
// owned by someone else are indistinguishable from missing ones.
func (r *OrderRepository) GetForUser(ctx context.Context, id, userID int64) (*order.Order, error) {
	return r.getOne(ctx, getOrderForUserSQL, id, userID)
}

func (r *OrderRepository) getOne(ctx context.Context, query string, args ...any) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("getting order: %w", err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order: %w", err)
	}

	orders := []order.Order{o}
	if err := r.loadDetails(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// ListByUser returns one page of the user's order history, newest first, plus
// the total number of orders.
func (r *OrderRepository) ListByUser(ctx context.Context, userID int64, page, perPage int) ([]order.Order, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting orders: %w", err)
	}

	if page < 1 {
		page = 1
	}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1
		ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, userID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}
	if err := r.loadDetails(ctx, orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// List returns one page of all orders matching the filter plus the total
// number of matching rows.
func (r *OrderRepository) List(ctx context.Context, f order.ListFilter) ([]order.Order, int, error) {
	where := ` WHERE TRUE`
	args := []any{}
	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.PaymentStatus != "" {
		args = append(args, f.PaymentStatus)
		where += fmt.Sprintf(" AND payment_status = $%d", len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		where += fmt.Sprintf(" AND order_number ILIKE $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting orders: %w", err)
	}

	query := `SELECT ` + orderColumns + ` FROM orders` + where + ` ORDER BY created_at DESC, id DESC`
	if f.PerPage > 0 {
		args = append(args, f.PerPage, f.Offset())
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, 0, fmt.Errorf("listing orders: %w", err)
	}
	if err := r.loadDetails(ctx, orders); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// loadDetails attaches items and payment proofs to the given orders.
func (r *OrderRepository) loadDetails(ctx context.Context, orders []order.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]int64, len(orders))
	byID := make(map[int64]*order.Order, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		byID[orders[i].ID] = &orders[i]
	}

	rows, err := r.pool.Query(ctx, listOrderItemsSQL, ids)
	if err != nil {
		return fmt.Errorf("listing order items: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Item, error) {
		var it order.Item
		err := row.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName,
			&it.Quantity, &it.PriceAtPurchase, &it.CreatedAt)
		return it, err
	})
	if err != nil {
		return fmt.Errorf("listing order items: %w", err)
	}
	for _, it := range items {
		o := byID[it.OrderID]
		o.Items = append(o.Items, it)
	}

	rows, err = r.pool.Query(ctx, listProofsSQL, ids)
	if err != nil {
		return fmt.Errorf("listing payment proofs: %w", err)
	}
	proofs, err := pgx.CollectRows(rows, scanProof)
	if err != nil {
		return fmt.Errorf("listing payment proofs: %w", err)
	}
	for _, p := range proofs {
		o := byID[p.OrderID]
		o.Proofs = append(o.Proofs, p)
	}
	return nil
}

// UpdateStatus persists the order's status, payment status, and tracking
// number.
func (r *OrderRepository) UpdateStatus(ctx context.Context, o *order.Order) error {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL, o.ID, o.Status, o.PaymentStatus, o.TrackingNumber)
	if err != nil {
		return fmt.Errorf("updating order %d status: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// AddProof inserts a payment proof and moves the order's payment status in
// the same transaction.
func (r *OrderRepository) AddProof(ctx context.Context, p *order.PaymentProof, payment order.PaymentStatus) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning proof transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, createProofSQL, p.OrderID, p.ImagePath, p.Status).
		Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("creating payment proof for order %d: %w", p.OrderID, err)
	}

	if _, err := tx.Exec(ctx, updatePaymentStatusSQL, p.OrderID, payment); err != nil {
		return fmt.Errorf("updating payment status for order %d: %w", p.OrderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing proof transaction: %w", err)
	}
	return nil
}

// GetProof returns a payment proof scoped to an order.
func (r *OrderRepository) GetProof(ctx context.Context, orderID, proofID int64) (*order.PaymentProof, error) {
	rows, err := r.pool.Query(ctx, getProofSQL, orderID, proofID)
	if err != nil {
		return nil, fmt.Errorf("getting payment proof %d: %w", proofID, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProof)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrProofNotFound
		}
		return nil, fmt.Errorf("getting payment proof %d: %w", proofID, err)
	}
	return &p, nil
}

// DecideProof persists the proof decision together with the order's new
// payment status in one transaction.
func (r *OrderRepository) DecideProof(ctx context.Context, p *order.PaymentProof, payment order.PaymentStatus) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning proof decision transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, updateProofSQL, p.ID, p.Status, p.AdminNotes)
	if err != nil {
		return fmt.Errorf("updating payment proof %d: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		// The proof was decided by a concurrent admin between our read
		// and this update.
		return order.ErrProofAlreadyDecided
	}

	if _, err := tx.Exec(ctx, updatePaymentStatusSQL, p.OrderID, payment); err != nil {
		return fmt.Errorf("updating payment status for order %d: %w", p.OrderID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing proof decision transaction: %w", err)
	}
	return nil
}

// Stats returns the aggregate counters for the admin dashboard.
func (r *OrderRepository) Stats(ctx context.Context) (*order.DashboardStats, error) {
	var s order.DashboardStats
	err := r.pool.QueryRow(ctx, orderStatsSQL).Scan(
		&s.TotalOrders, &s.PendingOrders, &s.ProcessingOrders, &s.TodayOrders, &s.Revenue,
	)
	if err != nil {
		return nil, fmt.Errorf("reading order stats: %w", err)
	}
	return &s, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var o order.Order
	err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.TotalPrice, &o.ShippingCost,
		&o.Courier, &o.CourierService, &o.TrackingNumber, &o.ShippingMethod, &o.ShippingAddress,
		&o.Status, &o.PaymentStatus, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
	)
	return o, err
}

func scanProof(row pgx.CollectableRow) (order.PaymentProof, error) {
	var p order.PaymentProof
	err := row.Scan(&p.ID, &p.OrderID, &p.ImagePath, &p.Status, &p.AdminNotes, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
