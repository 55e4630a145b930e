package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/storefront/internal/config"
	"github.com/smallbiznis/storefront/internal/observability/tracing"
	"github.com/smallbiznis/storefront/internal/order/domain"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

func (s *Service) Stats(ctx context.Context, req domain.StatsRequest) (*domain.Stats, error) {
	ctx, span := tracer.Start(ctx, "order.stats")
	defer span.End()

	rng, err := parseRange(req.Start, req.End)
	if err != nil {
		return nil, err
	}

	cfg := s.store.Get()
	now := s.clock.Now()
	key := statsKey(rng, now, cfg)

	cached, gen, cacheable := s.cachedStats(ctx, key)
	if cached != nil {
		return cached, nil
	}

	var stats *domain.Stats
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		stats, err = s.computeStats(ctx, tx, rng, now, cfg)
		return err
	})
	if err != nil {
		span.RecordError(tracing.SafeError(err))
		span.SetStatus(codes.Error, "stats failed")
		return nil, err
	}

	if cacheable {
		s.storeStats(ctx, gen, key, stats, time.Duration(cfg.StatsCacheTTLSeconds)*time.Second)
	}
	return stats, nil
}

func (s *Service) computeStats(ctx context.Context, tx *gorm.DB, rng domain.StatsRange, now time.Time, cfg config.StoreConfig) (*domain.Stats, error) {
	totals, err := s.repo.Totals(ctx, tx, rng)
	if err != nil {
		return nil, fmt.Errorf("stats totals: %w", err)
	}
	totals.Amount = totals.Amount.Round(2)

	byStatus, err := s.repo.CountByStatus(ctx, tx, rng)
	if err != nil {
		return nil, fmt.Errorf("stats by status: %w", err)
	}
	if byStatus == nil {
		byStatus = []domain.StatusCount{}
	}
	sort.Slice(byStatus, func(i, j int) bool {
		return byStatus[i].Status.Ordinal() < byStatus[j].Status.Ordinal()
	})

	daily := []domain.DailyPoint{}
	if window, ok := dailyWindow(rng, now, cfg.StatsWindowDays); ok {
		amounts, err := s.repo.Amounts(ctx, tx, window)
		if err != nil {
			return nil, fmt.Errorf("stats daily: %w", err)
		}
		daily = bucketDaily(amounts)
	}

	top, err := s.repo.TopProducts(ctx, tx, rng, cfg.TopProductsLimit)
	if err != nil {
		return nil, fmt.Errorf("stats top products: %w", err)
	}
	if top == nil {
		top = []domain.TopProduct{}
	}
	for i := range top {
		top[i].Revenue = top[i].Revenue.Round(2)
	}

	return &domain.Stats{
		Range:       rng,
		Totals:      totals,
		ByStatus:    byStatus,
		Daily:       daily,
		TopProducts: top,
	}, nil
}

// dailyWindow intersects rng with the last days calendar days ending today (UTC).
func dailyWindow(rng domain.StatsRange, now time.Time, days int) (domain.StatsRange, bool) {
	if days <= 0 {
		return domain.StatsRange{}, false
	}
	today := now.UTC().Truncate(24 * time.Hour)
	from := today.AddDate(0, 0, -(days - 1))
	if rng.Start != nil && rng.Start.After(from) {
		from = rng.Start.UTC()
	}
	window := domain.StatsRange{Start: &from, End: rng.End}
	if rng.End != nil && from.After(*rng.End) {
		return window, false
	}
	return window, true
}

func bucketDaily(amounts []domain.OrderAmount) []domain.DailyPoint {
	points := []domain.DailyPoint{}
	index := map[string]int{}
	for _, amount := range amounts {
		day := amount.CreatedAt.UTC().Format(dateLayout)
		idx, ok := index[day]
		if !ok {
			idx = len(points)
			index[day] = idx
			points = append(points, domain.DailyPoint{Date: day, Amount: decimal.Zero})
		}
		points[idx].Count++
		points[idx].Amount = points[idx].Amount.Add(amount.Total)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date < points[j].Date })
	for i := range points {
		points[i].Amount = points[i].Amount.Round(2)
	}
	return points
}

func parseRange(start, end string) (domain.StatsRange, error) {
	var rng domain.StatsRange

	if raw := strings.TrimSpace(start); raw != "" {
		parsed, _, err := parseBound(raw)
		if err != nil {
			return rng, domain.ErrInvalidTimeRange
		}
		rng.Start = &parsed
	}
	if raw := strings.TrimSpace(end); raw != "" {
		parsed, dateOnly, err := parseBound(raw)
		if err != nil {
			return rng, domain.ErrInvalidTimeRange
		}
		if dateOnly {
			parsed = parsed.Add(24*time.Hour - time.Nanosecond)
		}
		rng.End = &parsed
	}
	if rng.Start != nil && rng.End != nil && rng.Start.After(*rng.End) {
		return rng, domain.ErrInvalidTimeRange
	}
	return rng, nil
}

func parseBound(raw string) (time.Time, bool, error) {
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed.UTC(), false, nil
	}
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, false, err
	}
	return parsed.UTC(), true, nil
}

func statsKey(rng domain.StatsRange, now time.Time, cfg config.StoreConfig) string {
	bound := func(t *time.Time) string {
		if t == nil {
			return "-"
		}
		return t.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprintf("%s|%s|%s|%d|%d",
		bound(rng.Start),
		bound(rng.End),
		now.UTC().Format(dateLayout),
		cfg.StatsWindowDays,
		cfg.TopProductsLimit,
	)
}

// cachedStats returns a cached snapshot, or the generation a freshly computed
// one must be stored under. cacheable is false when the cache is unusable.
func (s *Service) cachedStats(ctx context.Context, key string) (stats *domain.Stats, gen int64, cacheable bool) {
	if s.statsCache == nil {
		return nil, 0, false
	}
	raw, gen, ok, err := s.statsCache.Get(ctx, key)
	if err != nil {
		s.metrics.RecordStatsCache(ctx, "error")
		s.log.Warn("stats cache read failed", zap.Error(err))
		return nil, 0, false
	}
	if !ok {
		s.metrics.RecordStatsCache(ctx, "miss")
		return nil, gen, true
	}

	var cached domain.Stats
	if err := json.Unmarshal(raw, &cached); err != nil {
		s.metrics.RecordStatsCache(ctx, "error")
		s.log.Warn("stats cache entry unreadable", zap.Error(err))
		return nil, gen, true
	}
	s.metrics.RecordStatsCache(ctx, "hit")
	return &cached, gen, true
}

func (s *Service) storeStats(ctx context.Context, gen int64, key string, stats *domain.Stats, ttl time.Duration) {
	if s.statsCache == nil || ttl <= 0 {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		s.log.Warn("stats cache encode failed", zap.Error(err))
		return
	}
	if err := s.statsCache.Set(ctx, gen, key, raw, ttl); err != nil {
		s.log.Warn("stats cache write failed", zap.Error(err))
	}
}
