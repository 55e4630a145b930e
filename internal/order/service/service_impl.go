package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/storefront/internal/audit/domain"
	"github.com/smallbiznis/storefront/internal/cache"
	clientdomain "github.com/smallbiznis/storefront/internal/client/domain"
	clientservice "github.com/smallbiznis/storefront/internal/client/service"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/config"
	obsmetrics "github.com/smallbiznis/storefront/internal/observability/metrics"
	"github.com/smallbiznis/storefront/internal/observability/tracing"
	"github.com/smallbiznis/storefront/internal/order/domain"
	productdomain "github.com/smallbiznis/storefront/internal/product/domain"
	"github.com/smallbiznis/storefront/pkg/db/pagination"
	"github.com/smallbiznis/storefront/pkg/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("storefront/order")

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        domain.Repository
	ClientRepo  clientdomain.Repository
	ProductRepo productdomain.Repository
	Store       *config.StoreConfigHolder
	AuditSvc    auditdomain.Service `optional:"true"`
	StatsCache  cache.StatsCache    `optional:"true"`
	Metrics     *obsmetrics.Metrics `optional:"true"`
	Telemetry   *telemetry.Metrics  `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        domain.Repository
	clientRepo  clientdomain.Repository
	productRepo productdomain.Repository
	store       *config.StoreConfigHolder
	auditSvc    auditdomain.Service
	statsCache  cache.StatsCache
	metrics     *obsmetrics.Metrics
	telemetry   *telemetry.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("order.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		clientRepo:  p.ClientRepo,
		productRepo: p.ProductRepo,
		store:       p.Store,
		auditSvc:    p.AuditSvc,
		statsCache:  p.StatsCache,
		metrics:     p.Metrics,
		telemetry:   p.Telemetry,
	}
}

// lineDraft is a validated, merged request line.
type lineDraft struct {
	productID snowflake.ID
	quantity  int
	unitPrice decimal.Decimal
}

type orderDraft struct {
	lines         []lineDraft
	total         decimal.Decimal
	paymentMethod domain.PaymentMethod
}

func (s *Service) Create(ctx context.Context, req domain.CreateOrderRequest) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "order.create")
	defer span.End()

	clientID, err := snowflake.ParseString(strings.TrimSpace(req.ClientID))
	if err != nil || clientID == 0 {
		return nil, s.reject(ctx, span, domain.ErrInvalidClientID)
	}

	draft, err := s.validateDraft(req.Items, req.Total, req.PaymentMethod)
	if err != nil {
		return nil, s.reject(ctx, span, err)
	}

	var order *domain.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		client, err := s.clientRepo.FindByID(ctx, tx, clientID)
		if err != nil {
			return fmt.Errorf("find client: %w", err)
		}
		if client == nil {
			return domain.ErrClientNotFound
		}

		order, err = s.createInTx(ctx, tx, client, draft)
		return err
	})
	if err != nil {
		return nil, s.reject(ctx, span, err)
	}

	s.afterCreate(ctx, span, order)
	return order, nil
}

func (s *Service) Checkout(ctx context.Context, req domain.CheckoutRequest) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "order.checkout")
	defer span.End()

	contact, err := req.Client.Normalize()
	if err != nil {
		return nil, s.reject(ctx, span, err)
	}

	draft, err := s.validateDraft(req.Items, req.Total, req.PaymentMethod)
	if err != nil {
		return nil, s.reject(ctx, span, err)
	}

	var order *domain.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		client, err := clientservice.Upsert(ctx, tx, s.clientRepo, s.genID, s.clock.Now(), contact)
		if err != nil {
			return err
		}

		order, err = s.createInTx(ctx, tx, &client, draft)
		return err
	})
	if err != nil {
		return nil, s.reject(ctx, span, err)
	}

	s.afterCreate(ctx, span, order)
	return order, nil
}

// validateDraft checks every line before anything touches storage.
func (s *Service) validateDraft(items []domain.OrderItemRequest, total decimal.Decimal, method string) (orderDraft, error) {
	paymentMethod, err := domain.ParsePaymentMethod(method)
	if err != nil {
		return orderDraft{}, err
	}
	if len(items) == 0 {
		return orderDraft{}, domain.ErrInvalidItems
	}
	if total.IsNegative() {
		return orderDraft{}, domain.ErrTotalMismatch
	}

	merged := make(map[snowflake.ID]int, len(items))
	lines := make([]lineDraft, 0, len(items))
	for _, item := range items {
		productID, err := snowflake.ParseString(strings.TrimSpace(item.ProductID))
		if err != nil || productID == 0 {
			return orderDraft{}, domain.ErrInvalidItems
		}
		if item.Quantity <= 0 || item.Quantity > math.MaxInt32 {
			return orderDraft{}, domain.ErrInvalidQuantity
		}
		if item.UnitPrice.IsNegative() {
			return orderDraft{}, domain.ErrInvalidUnitPrice
		}
		unitPrice := item.UnitPrice.Round(2)

		if idx, ok := merged[productID]; ok {
			if !lines[idx].unitPrice.Equal(unitPrice) {
				return orderDraft{}, domain.ErrInvalidItems
			}
			if lines[idx].quantity > math.MaxInt32-item.Quantity {
				return orderDraft{}, domain.ErrInvalidQuantity
			}
			lines[idx].quantity += item.Quantity
			continue
		}
		merged[productID] = len(lines)
		lines = append(lines, lineDraft{productID: productID, quantity: item.Quantity, unitPrice: unitPrice})
	}

	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(subtotal(line))
	}

	tolerance := decimal.NewFromFloat(s.store.Get().TotalTolerance)
	if total.Sub(sum).Abs().GreaterThan(tolerance) {
		return orderDraft{}, domain.ErrTotalMismatch
	}

	// Stock rows are always touched in product id order.
	sort.Slice(lines, func(i, j int) bool { return lines[i].productID < lines[j].productID })

	return orderDraft{lines: lines, total: sum, paymentMethod: paymentMethod}, nil
}

func (s *Service) createInTx(ctx context.Context, tx *gorm.DB, client *clientdomain.Client, draft orderDraft) (*domain.Order, error) {
	ids := make([]snowflake.ID, 0, len(draft.lines))
	for _, line := range draft.lines {
		ids = append(ids, line.productID)
	}
	products, err := s.productRepo.FindByIDs(ctx, tx, ids)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	models := make(map[snowflake.ID]string, len(products))
	for _, product := range products {
		models[product.ID] = product.Model
	}

	now := s.clock.Now()
	for _, line := range draft.lines {
		if _, ok := models[line.productID]; !ok {
			return nil, domain.ErrProductNotFound
		}
		ok, err := s.productRepo.DecrementStock(ctx, tx, line.productID, line.quantity, now)
		if err != nil {
			return nil, fmt.Errorf("decrement stock: %w", err)
		}
		if !ok {
			s.telemetry.ObserveInsufficientStock()
			return nil, domain.ErrInsufficientStock
		}
	}

	order := &domain.Order{
		ID:            s.genID.Generate(),
		ClientID:      client.ID,
		Total:         draft.total,
		Status:        draft.paymentMethod.InitialStatus(),
		PaymentMethod: draft.paymentMethod,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
		Client:        client,
	}
	if err := s.repo.InsertOrder(ctx, tx, order); err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}

	order.Lines = make([]domain.OrderLine, 0, len(draft.lines))
	for _, line := range draft.lines {
		order.Lines = append(order.Lines, domain.OrderLine{
			ID:           s.genID.Generate(),
			OrderID:      order.ID,
			ProductID:    line.productID,
			ProductModel: models[line.productID],
			Quantity:     line.quantity,
			UnitPrice:    line.unitPrice,
			Subtotal:     subtotal(line),
			CreatedAt:    now,
		})
	}
	if err := s.repo.InsertLines(ctx, tx, order.Lines); err != nil {
		return nil, fmt.Errorf("insert order lines: %w", err)
	}

	return order, nil
}

func (s *Service) afterCreate(ctx context.Context, span trace.Span, order *domain.Order) {
	span.SetAttributes(tracing.SafeAttributes(
		attribute.String("order.id", order.ID.String()),
		attribute.String("order.status", string(order.Status)),
		attribute.String("order.payment_method", string(order.PaymentMethod)),
		attribute.Int("order.lines", len(order.Lines)),
	)...)

	s.metrics.RecordOrderCreated(ctx, string(order.PaymentMethod), string(order.Status))
	s.telemetry.ObserveOrderCreated(string(order.PaymentMethod), string(order.Status), order.Total.InexactFloat64())
	s.invalidateStats(ctx)
	s.audit(ctx, auditdomain.ActionOrderCreated, order, map[string]any{
		"client_id":      order.ClientID.String(),
		"total":          order.Total.StringFixed(2),
		"status":         string(order.Status),
		"payment_method": string(order.PaymentMethod),
		"line_count":     len(order.Lines),
	})

	s.log.Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.String("client_id", order.ClientID.String()),
		zap.String("status", string(order.Status)),
		zap.String("total", order.Total.StringFixed(2)),
	)
}

// reject records a failed create/checkout and passes err through.
func (s *Service) reject(ctx context.Context, span trace.Span, err error) error {
	span.RecordError(tracing.SafeError(err))
	span.SetStatus(codes.Error, "order rejected")

	reason := "storage"
	if code := errorCode(err); code != "" {
		reason = code
	}
	s.metrics.RecordOrderRejected(ctx, reason)
	if reason == "storage" {
		s.log.Error("order create failed", zap.Error(err))
	}
	return err
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	orderID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	order, err := s.repo.FindByID(ctx, s.db, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	if err := s.loadDetails(ctx, s.db, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) loadDetails(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	lines, err := s.repo.FindLines(ctx, db, order.ID)
	if err != nil {
		return fmt.Errorf("load order lines: %w", err)
	}
	order.Lines = lines

	client, err := s.clientRepo.FindByID(ctx, db, order.ClientID)
	if err != nil {
		return fmt.Errorf("load client: %w", err)
	}
	order.Client = client
	return nil
}

func (s *Service) List(ctx context.Context, req domain.ListOrderRequest) (domain.ListOrderResponse, error) {
	if req.CreatedFrom != nil && req.CreatedTo != nil && req.CreatedFrom.After(*req.CreatedTo) {
		return domain.ListOrderResponse{}, domain.ErrInvalidTimeRange
	}

	filter := domain.ListFilter{
		CreatedFrom: req.CreatedFrom,
		CreatedTo:   req.CreatedTo,
	}
	if raw := strings.TrimSpace(req.Status); raw != "" {
		status, err := domain.ParseStatus(raw)
		if err != nil {
			return domain.ListOrderResponse{}, err
		}
		filter.Status = status
	}
	if raw := strings.TrimSpace(req.ClientID); raw != "" {
		clientID, err := snowflake.ParseString(raw)
		if err != nil || clientID == 0 {
			return domain.ListOrderResponse{}, domain.ErrInvalidClientID
		}
		filter.ClientID = clientID
	}
	if token := strings.TrimSpace(req.PageToken); token != "" {
		cursor, err := decodeCursor(token)
		if err != nil {
			return domain.ListOrderResponse{}, domain.ErrInvalidPageToken
		}
		filter.Cursor = cursor
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	filter.Limit = pageSize

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return domain.ListOrderResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, int32(pageSize), func(order *domain.Order) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        order.ID.String(),
			CreatedAt: order.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})
	if len(items) > pageSize {
		items = items[:pageSize]
	}

	orders := make([]domain.Order, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		orders = append(orders, *item)
	}

	return domain.ListOrderResponse{PageInfo: *pageInfo, Orders: orders}, nil
}

func (s *Service) audit(ctx context.Context, action string, order *domain.Order, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	targetID := order.ID.String()
	if err := s.auditSvc.AuditLog(ctx, "", nil, action, auditdomain.TargetTypeOrder, &targetID, metadata); err != nil {
		s.log.Warn("audit log failed", zap.String("action", action), zap.String("order_id", targetID), zap.Error(err))
	}
}

func (s *Service) invalidateStats(ctx context.Context) {
	if s.statsCache == nil {
		return
	}
	if err := s.statsCache.Invalidate(ctx); err != nil {
		s.log.Warn("stats cache invalidation failed", zap.Error(err))
	}
}

func subtotal(line lineDraft) decimal.Decimal {
	return line.unitPrice.Mul(decimal.NewFromInt(int64(line.quantity))).Round(2)
}

func parseID(id string) (snowflake.ID, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return 0, domain.ErrInvalidID
	}
	return parsed, nil
}

func decodeCursor(token string) (*domain.Cursor, error) {
	decoded, err := pagination.DecodeCursor(token)
	if err != nil {
		return nil, err
	}
	createdAt, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
	if err != nil {
		return nil, err
	}
	id, err := snowflake.ParseString(strings.TrimSpace(decoded.ID))
	if err != nil || id == 0 {
		return nil, domain.ErrInvalidPageToken
	}
	return &domain.Cursor{ID: id, CreatedAt: createdAt}, nil
}

var knownErrors = []error{
	domain.ErrInvalidClientID,
	domain.ErrInvalidItems,
	domain.ErrInvalidQuantity,
	domain.ErrInvalidUnitPrice,
	domain.ErrTotalMismatch,
	domain.ErrInvalidPaymentMethod,
	domain.ErrClientNotFound,
	domain.ErrProductNotFound,
	domain.ErrInsufficientStock,
	clientdomain.ErrInvalidName,
	clientdomain.ErrInvalidEmail,
	clientdomain.ErrEmailTaken,
}

// errorCode returns the sentinel code for known domain errors, or "".
func errorCode(err error) string {
	for _, known := range knownErrors {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return ""
}
