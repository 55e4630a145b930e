package repository

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/storefront/internal/product/domain"
	"gorm.io/gorm"
)

const selectProducts = `SELECT p.id, p.brand_id, b.name AS brand_name, p.model, p.slug, p.price, p.stock,
	p.description, p.created_at, p.updated_at
	FROM products p
	JOIN brands b ON b.id = p.brand_id`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO products (id, brand_id, model, slug, price, stock, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		product.ID,
		product.BrandID,
		product.Model,
		product.Slug,
		product.Price,
		product.Stock,
		product.Description,
		product.CreatedAt,
		product.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Product, error) {
	var product domain.Product
	err := db.WithContext(ctx).Raw(selectProducts+` WHERE p.id = ?`, id).Scan(&product).Error
	if err != nil {
		return nil, err
	}
	if product.ID == 0 {
		return nil, nil
	}
	return &product, nil
}

func (r *repo) FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]domain.Product, error) {
	if len(ids) == 0 {
		return []domain.Product{}, nil
	}
	var products []domain.Product
	err := db.WithContext(ctx).Raw(selectProducts+` WHERE p.id IN ?`, ids).Scan(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Product, error) {
	var (
		clauses []string
		args    []any
	)
	if filter.BrandID != 0 {
		clauses = append(clauses, "p.brand_id = ?")
		args = append(args, filter.BrandID)
	}
	if filter.InStock {
		clauses = append(clauses, "p.stock > 0")
	}
	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		clauses = append(clauses, "(LOWER(p.model) LIKE ? OR LOWER(b.name) LIKE ?)")
		args = append(args, "%"+search+"%", "%"+search+"%")
	}

	query := selectProducts
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY b.name ASC, p.model ASC, p.id ASC"

	var products []domain.Product
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *repo) UpdatePrice(ctx context.Context, db *gorm.DB, id snowflake.ID, price decimal.Decimal, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE products SET price = ?, updated_at = ? WHERE id = ?`,
		price, now, id,
	)
	return result.RowsAffected > 0, result.Error
}

func (r *repo) SetStock(ctx context.Context, db *gorm.DB, id snowflake.ID, stock int, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE products SET stock = ?, updated_at = ? WHERE id = ?`,
		stock, now, id,
	)
	return result.RowsAffected > 0, result.Error
}

func (r *repo) DecrementStock(ctx context.Context, db *gorm.DB, id snowflake.ID, qty int, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE products SET stock = stock - ?, updated_at = ? WHERE id = ? AND stock >= ?`,
		qty, now, id, qty,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repo) IncrementStock(ctx context.Context, db *gorm.DB, id snowflake.ID, qty int, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE products SET stock = stock + ?, updated_at = ? WHERE id = ?`,
		qty, now, id,
	).Error
}

func (r *repo) CountOrderLines(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM order_lines WHERE product_id = ?`,
		id,
	).Scan(&count).Error
	return count, err
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM products WHERE id = ?`, id).Error
}
