package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"telenonym/internal/domain"
)

var (
	ErrOrderNotFound = errors.New("order not found")
)

// OrderRepository defines the interface for order record access
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID int64, query string) ([]*domain.Order, error)
	Stats(ctx context.Context) (count int, revenue float64, err error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

// Create inserts a completed order record
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (id, user_id, product, amount, status, transaction_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		order.ID,
		order.UserID,
		order.Product,
		order.Amount,
		order.Status,
		order.TransactionID,
		order.CreatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

// FindByID retrieves an order by ID
func (r *orderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	query := `
		SELECT id, user_id, product, amount, status, transaction_id, created_at
		FROM orders
		WHERE id = $1
	`

	order := &domain.Order{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.UserID,
		&order.Product,
		&order.Amount,
		&order.Status,
		&order.TransactionID,
		&order.CreatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}

	return order, nil
}

// ListByUser retrieves a user's orders, newest first, optionally filtered by
// a search over order ID and product name
func (r *orderRepository) ListByUser(ctx context.Context, userID int64, query string) ([]*domain.Order, error) {
	whereClause := "WHERE user_id = $1"
	args := []interface{}{userID}

	if strings.TrimSpace(query) != "" {
		whereClause += " AND (id ILIKE $2 OR product ILIKE $2)"
		args = append(args, "%"+query+"%")
	}

	listQuery := fmt.Sprintf(`
		SELECT id, user_id, product, amount, status, transaction_id, created_at
		FROM orders
		%s
		ORDER BY created_at DESC
	`, whereClause)

	rows, err := r.db.QueryContext(ctx, listQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order := &domain.Order{}
		err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.Product,
			&order.Amount,
			&order.Status,
			&order.TransactionID,
			&order.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// Stats returns the total order count and completed revenue
func (r *orderRepository) Stats(ctx context.Context) (int, float64, error) {
	var count int
	var revenue float64

	query := `
		SELECT COUNT(*), COALESCE(SUM(amount) FILTER (WHERE status = 'completed'), 0)
		FROM orders
	`
	if err := r.db.QueryRowContext(ctx, query).Scan(&count, &revenue); err != nil {
		return 0, 0, fmt.Errorf("failed to compute order stats: %w", err)
	}

	return count, revenue, nil
}
