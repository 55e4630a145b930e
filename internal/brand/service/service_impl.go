package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storefront/internal/brand/domain"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("brand.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (domain.Brand, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Brand{}, domain.ErrInvalidName
	}

	now := s.clock.Now()
	brand := domain.Brand{
		ID:          s.genID.Generate(),
		Name:        name,
		Description: trimmedOrNil(req.Description),
		LogoURL:     trimmedOrNil(req.LogoURL),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(ctx, s.db, &brand); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Brand{}, domain.ErrNameTaken
		}
		return domain.Brand{}, fmt.Errorf("insert brand: %w", err)
	}

	s.log.Info("brand created", zap.String("brand_id", brand.ID.String()))
	return brand, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Brand, error) {
	items, err := s.repo.List(ctx, s.db, strings.ToLower(strings.TrimSpace(req.Name)))
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Brand{}
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.Brand, error) {
	brandID, err := parseID(id)
	if err != nil {
		return domain.Brand{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, brandID)
	if err != nil {
		return domain.Brand{}, err
	}
	if item == nil {
		return domain.Brand{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	brandID, err := parseID(id)
	if err != nil {
		return err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		item, err := s.repo.FindByID(ctx, tx, brandID)
		if err != nil {
			return err
		}
		if item == nil {
			return domain.ErrNotFound
		}

		count, err := s.repo.CountProducts(ctx, tx, brandID)
		if err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrHasProducts
		}

		if err := s.repo.Delete(ctx, tx, brandID); err != nil {
			if db.IsForeignKeyErr(err) {
				return domain.ErrHasProducts
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("brand deleted", zap.String("brand_id", brandID.String()))
	return nil
}

func parseID(id string) (snowflake.ID, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return 0, domain.ErrInvalidID
	}
	return parsed, nil
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
