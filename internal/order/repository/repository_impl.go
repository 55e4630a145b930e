package repository

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/storefront/internal/order/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertOrder(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO orders (
			id, client_id, total, status, payment_method, payment_proof_url,
			version, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID,
		order.ClientID,
		order.Total,
		order.Status,
		order.PaymentMethod,
		order.PaymentProofURL,
		order.Version,
		order.CreatedAt,
		order.UpdatedAt,
	).Error
}

func (r *repo) InsertLines(ctx context.Context, db *gorm.DB, lines []domain.OrderLine) error {
	for _, line := range lines {
		err := db.WithContext(ctx).Exec(
			`INSERT INTO order_lines (id, order_id, product_id, quantity, unit_price, subtotal, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			line.ID,
			line.OrderID,
			line.ProductID,
			line.Quantity,
			line.UnitPrice,
			line.Subtotal,
			line.CreatedAt,
		).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	var order domain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT id, client_id, total, status, payment_method, payment_proof_url,
			version, created_at, updated_at
		 FROM orders WHERE id = ?`,
		id,
	).Scan(&order).Error
	if err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, nil
	}
	return &order, nil
}

func (r *repo) FindLines(ctx context.Context, db *gorm.DB, orderID snowflake.ID) ([]domain.OrderLine, error) {
	var lines []domain.OrderLine
	err := db.WithContext(ctx).Raw(
		`SELECT l.id, l.order_id, l.product_id, p.model AS product_model, l.quantity,
			l.unit_price, l.subtotal, l.created_at
		 FROM order_lines l
		 JOIN products p ON p.id = l.product_id
		 WHERE l.order_id = ?
		 ORDER BY l.id ASC`,
		orderID,
	).Scan(&lines).Error
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Order, error) {
	var orders []*domain.Order
	stmt := db.WithContext(ctx).Model(&domain.Order{})

	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.ClientID != 0 {
		stmt = stmt.Where("client_id = ?", filter.ClientID)
	}
	if filter.CreatedFrom != nil {
		stmt = stmt.Where("created_at >= ?", filter.CreatedFrom.UTC())
	}
	if filter.CreatedTo != nil {
		stmt = stmt.Where("created_at <= ?", filter.CreatedTo.UTC())
	}
	if filter.Cursor != nil {
		stmt = stmt.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			filter.Cursor.CreatedAt,
			filter.Cursor.CreatedAt,
			filter.Cursor.ID,
		)
	}

	stmt = stmt.Order("created_at desc, id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	if err := stmt.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, version int64, status domain.Status, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE orders SET status = ?, version = version + 1, updated_at = ?
		 WHERE id = ? AND version = ?`,
		status, now, id, version,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repo) UpdateProof(ctx context.Context, db *gorm.DB, id snowflake.ID, version int64, proofURL string, status domain.Status, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE orders SET payment_proof_url = ?, status = ?, version = version + 1, updated_at = ?
		 WHERE id = ? AND version = ?`,
		proofURL, status, now, id, version,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// rangeClause renders the created_at bounds for alias-qualified order columns.
func rangeClause(alias string, rng domain.StatsRange) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if rng.Start != nil {
		clauses = append(clauses, alias+"created_at >= ?")
		args = append(args, rng.Start.UTC())
	}
	if rng.End != nil {
		clauses = append(clauses, alias+"created_at <= ?")
		args = append(args, rng.End.UTC())
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " AND " + strings.Join(clauses, " AND "), args
}

func (r *repo) Totals(ctx context.Context, db *gorm.DB, rng domain.StatsRange) (domain.Totals, error) {
	where, args := rangeClause("", rng)
	var row struct {
		Count  int64
		Amount decimal.NullDecimal
	}
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) AS count, SUM(total) AS amount
		 FROM orders
		 WHERE status <> ?`+where,
		append([]any{domain.StatusCancelled}, args...)...,
	).Scan(&row).Error
	if err != nil {
		return domain.Totals{}, err
	}

	totals := domain.Totals{Count: row.Count, Amount: decimal.Zero}
	if row.Amount.Valid {
		totals.Amount = row.Amount.Decimal
	}
	return totals, nil
}

func (r *repo) CountByStatus(ctx context.Context, db *gorm.DB, rng domain.StatsRange) ([]domain.StatusCount, error) {
	where, args := rangeClause("", rng)
	var rows []domain.StatusCount
	err := db.WithContext(ctx).Raw(
		`SELECT status, COUNT(*) AS count
		 FROM orders
		 WHERE 1 = 1`+where+`
		 GROUP BY status`,
		args...,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) Amounts(ctx context.Context, db *gorm.DB, rng domain.StatsRange) ([]domain.OrderAmount, error) {
	where, args := rangeClause("", rng)
	var rows []domain.OrderAmount
	err := db.WithContext(ctx).Raw(
		`SELECT created_at, total
		 FROM orders
		 WHERE status <> ?`+where+`
		 ORDER BY created_at ASC`,
		append([]any{domain.StatusCancelled}, args...)...,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) TopProducts(ctx context.Context, db *gorm.DB, rng domain.StatsRange, limit int) ([]domain.TopProduct, error) {
	where, args := rangeClause("o.", rng)
	args = append([]any{domain.StatusCancelled}, args...)
	args = append(args, limit)

	var rows []domain.TopProduct
	err := db.WithContext(ctx).Raw(
		`SELECT l.product_id AS product_id, p.model AS model,
			SUM(l.quantity) AS quantity, SUM(l.subtotal) AS revenue
		 FROM order_lines l
		 JOIN orders o ON o.id = l.order_id
		 JOIN products p ON p.id = l.product_id
		 WHERE o.status <> ?`+where+`
		 GROUP BY l.product_id, p.model
		 ORDER BY quantity DESC, l.product_id ASC
		 LIMIT ?`,
		args...,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
