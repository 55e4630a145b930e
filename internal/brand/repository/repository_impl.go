package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storefront/internal/brand/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, brand *domain.Brand) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO brands (id, name, description, logo_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		brand.ID,
		brand.Name,
		brand.Description,
		brand.LogoURL,
		brand.CreatedAt,
		brand.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Brand, error) {
	var brand domain.Brand
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, description, logo_url, created_at, updated_at
		 FROM brands WHERE id = ?`,
		id,
	).Scan(&brand).Error
	if err != nil {
		return nil, err
	}
	if brand.ID == 0 {
		return nil, nil
	}
	return &brand, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, name string) ([]domain.Brand, error) {
	var brands []domain.Brand
	stmt := db.WithContext(ctx).Model(&domain.Brand{})
	if name != "" {
		stmt = stmt.Where("LOWER(name) LIKE ?", "%"+name+"%")
	}
	if err := stmt.Order("name asc").Find(&brands).Error; err != nil {
		return nil, err
	}
	return brands, nil
}

func (r *repo) CountProducts(ctx context.Context, db *gorm.DB, id snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM products WHERE brand_id = ?`,
		id,
	).Scan(&count).Error
	return count, err
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`DELETE FROM brands WHERE id = ?`, id).Error
}
