package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	branddomain "github.com/smallbiznis/storefront/internal/brand/domain"
	productdomain "github.com/smallbiznis/storefront/internal/product/domain"
	"gorm.io/gorm"
)

type demoProduct struct {
	Brand string
	Model string
	Price string
	Stock int
}

var demoBrands = []string{"Samsung", "Apple", "Xiaomi"}

var demoProducts = []demoProduct{
	{Brand: "Samsung", Model: "Galaxy S24", Price: "899.00", Stock: 12},
	{Brand: "Samsung", Model: "Galaxy A55", Price: "449.00", Stock: 30},
	{Brand: "Apple", Model: "iPhone 15", Price: "999.00", Stock: 8},
	{Brand: "Apple", Model: "AirPods Pro", Price: "249.00", Stock: 25},
	{Brand: "Xiaomi", Model: "Redmi Note 13", Price: "279.00", Stock: 40},
}

// EnsureDemoCatalog seeds a small catalog for local development. Existing
// brands and products are left untouched.
func EnsureDemoCatalog(db *gorm.DB, node *snowflake.Node) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	if node == nil {
		return errors.New("seed id generator is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		brands := make(map[string]snowflake.ID, len(demoBrands))
		for _, name := range demoBrands {
			brand, err := ensureBrandTx(ctx, tx, node, name, now)
			if err != nil {
				return err
			}
			brands[name] = brand.ID
		}

		for _, item := range demoProducts {
			if err := ensureProductTx(ctx, tx, node, brands[item.Brand], item, now); err != nil {
				return err
			}
		}
		return nil
	})
}

func ensureBrandTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, name string, now time.Time) (branddomain.Brand, error) {
	var brand branddomain.Brand
	err := tx.WithContext(ctx).Where("name = ?", name).First(&brand).Error
	if err == nil {
		return brand, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return branddomain.Brand{}, err
	}

	brand = branddomain.Brand{
		ID:        node.Generate(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(&brand).Error; err != nil {
		return branddomain.Brand{}, err
	}
	return brand, nil
}

func ensureProductTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, brandID snowflake.ID, item demoProduct, now time.Time) error {
	productSlug := slug.Make(item.Brand + " " + item.Model)

	var count int64
	if err := tx.WithContext(ctx).
		Model(&productdomain.Product{}).
		Where("slug = ?", productSlug).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	product := productdomain.Product{
		ID:        node.Generate(),
		BrandID:   brandID,
		Model:     item.Model,
		Slug:      productSlug,
		Price:     decimal.RequireFromString(item.Price),
		Stock:     item.Stock,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return tx.WithContext(ctx).Create(&product).Error
}
