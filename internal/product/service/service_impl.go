package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	branddomain "github.com/smallbiznis/storefront/internal/brand/domain"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/product/domain"
	"github.com/smallbiznis/storefront/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	BrandRepo branddomain.Repository
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	brandRepo branddomain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("product.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		brandRepo: p.BrandRepo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Product, error) {
	brandID, err := snowflake.ParseString(strings.TrimSpace(req.BrandID))
	if err != nil || brandID == 0 {
		return nil, domain.ErrInvalidBrandID
	}

	model := strings.TrimSpace(req.Model)
	if model == "" {
		return nil, domain.ErrInvalidModel
	}
	if req.Price.IsNegative() {
		return nil, domain.ErrInvalidPrice
	}
	if req.Stock < 0 {
		return nil, domain.ErrInvalidStock
	}

	var description *string
	if req.Description != nil {
		if trimmed := strings.TrimSpace(*req.Description); trimmed != "" {
			description = &trimmed
		}
	}

	var product domain.Product
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		brand, err := s.brandRepo.FindByID(ctx, tx, brandID)
		if err != nil {
			return fmt.Errorf("find brand: %w", err)
		}
		if brand == nil {
			return domain.ErrBrandNotFound
		}

		now := s.clock.Now()
		product = domain.Product{
			ID:          s.genID.Generate(),
			BrandID:     brand.ID,
			BrandName:   brand.Name,
			Model:       model,
			Slug:        slug.Make(brand.Name + " " + model),
			Price:       req.Price.Round(2),
			Stock:       req.Stock,
			Description: description,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repo.Insert(ctx, tx, &product); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrSlugTaken
			}
			return fmt.Errorf("insert product: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("product created",
		zap.String("product_id", product.ID.String()),
		zap.String("slug", product.Slug),
	)
	return &product, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Product, error) {
	filter := domain.ListFilter{
		InStock: req.InStock,
		Search:  strings.TrimSpace(req.Search),
	}
	if raw := strings.TrimSpace(req.BrandID); raw != "" {
		brandID, err := snowflake.ParseString(raw)
		if err != nil || brandID == 0 {
			return nil, domain.ErrInvalidBrandID
		}
		filter.BrandID = brandID
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Product{}
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	productID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	item, err := s.repo.FindByID(ctx, s.db, productID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}
	return item, nil
}

func (s *Service) UpdatePrice(ctx context.Context, id string, price decimal.Decimal) (*domain.Product, error) {
	productID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if price.IsNegative() {
		return nil, domain.ErrInvalidPrice
	}

	ok, err := s.repo.UpdatePrice(ctx, s.db, productID, price.Round(2), s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("update price: %w", err)
	}
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *Service) UpdateStock(ctx context.Context, id string, stock int) (*domain.Product, error) {
	productID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if stock < 0 {
		return nil, domain.ErrInvalidStock
	}

	ok, err := s.repo.SetStock(ctx, s.db, productID, stock, s.clock.Now())
	if err != nil {
		return nil, fmt.Errorf("set stock: %w", err)
	}
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	productID, err := parseID(id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.repo.FindByID(ctx, tx, productID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}

		lines, err := s.repo.CountOrderLines(ctx, tx, productID)
		if err != nil {
			return err
		}
		if lines > 0 {
			return domain.ErrInUse
		}

		if err := s.repo.Delete(ctx, tx, productID); err != nil {
			if db.IsForeignKeyErr(err) {
				return domain.ErrInUse
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("product deleted", zap.String("product_id", productID.String()))
	return nil
}

func parseID(id string) (snowflake.ID, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return 0, domain.ErrInvalidID
	}
	return parsed, nil
}
