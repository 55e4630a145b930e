package service

import (
	"context"
	"fmt"
	"strings"

	auditdomain "github.com/smallbiznis/storefront/internal/audit/domain"
	"github.com/smallbiznis/storefront/internal/observability/tracing"
	"github.com/smallbiznis/storefront/internal/order/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func (s *Service) AttachPaymentProof(ctx context.Context, id string, proofURL string) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "order.attach_payment_proof")
	defer span.End()

	orderID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	proofURL = strings.TrimSpace(proofURL)
	if proofURL == "" {
		return nil, domain.ErrInvalidProofURL
	}

	var (
		order    *domain.Order
		previous domain.Status
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindByID(ctx, tx, orderID)
		if err != nil {
			return fmt.Errorf("find order: %w", err)
		}
		if current == nil {
			return domain.ErrNotFound
		}
		if current.Status.Terminal() {
			return domain.ErrOrderClosed
		}
		if !current.PaymentMethod.RequiresProof() {
			return domain.ErrProofNotRequired
		}

		previous = current.Status
		next := current.Status
		if next == domain.StatusPending {
			next = domain.StatusProcessing
		}

		now := s.clock.Now()
		ok, err := s.repo.UpdateProof(ctx, tx, current.ID, current.Version, proofURL, next, now)
		if err != nil {
			return fmt.Errorf("update proof: %w", err)
		}
		if !ok {
			return domain.ErrConcurrentUpdate
		}

		current.PaymentProofURL = &proofURL
		current.Status = next
		current.Version++
		current.UpdatedAt = now
		order = current
		return s.loadDetails(ctx, tx, order)
	})
	if err != nil {
		span.RecordError(tracing.SafeError(err))
		span.SetStatus(codes.Error, "attach payment proof failed")
		return nil, err
	}

	span.SetAttributes(tracing.SafeAttributes(
		attribute.String("order.id", order.ID.String()),
		attribute.String("order.status", string(order.Status)),
	)...)
	s.metrics.RecordPaymentProof(ctx, string(order.PaymentMethod))
	s.telemetry.ObserveProofAttached(string(order.PaymentMethod))
	if previous != order.Status {
		s.metrics.RecordStatusTransition(ctx, string(previous), string(order.Status))
		s.telemetry.ObserveStatusChange(string(previous), string(order.Status))
	}
	s.invalidateStats(ctx)
	s.audit(ctx, auditdomain.ActionOrderProofAttached, order, map[string]any{
		"proof_url":       proofURL,
		"previous_status": string(previous),
		"status":          string(order.Status),
	})

	s.log.Info("payment proof attached",
		zap.String("order_id", order.ID.String()),
		zap.String("status", string(order.Status)),
	)
	return order, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id string, status string) (*domain.Order, error) {
	ctx, span := tracer.Start(ctx, "order.update_status")
	defer span.End()

	target, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	orderID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var (
		order    *domain.Order
		previous domain.Status
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		current, err := s.repo.FindByID(ctx, tx, orderID)
		if err != nil {
			return fmt.Errorf("find order: %w", err)
		}
		if current == nil {
			return domain.ErrNotFound
		}

		previous = current.Status
		order = current
		if current.Status == target {
			return s.loadDetails(ctx, tx, order)
		}
		if !current.Status.CanTransitionTo(target) {
			return domain.ErrInvalidTransition
		}

		now := s.clock.Now()
		if target == domain.StatusCancelled {
			lines, err := s.repo.FindLines(ctx, tx, current.ID)
			if err != nil {
				return fmt.Errorf("load order lines: %w", err)
			}
			for _, line := range lines {
				if err := s.productRepo.IncrementStock(ctx, tx, line.ProductID, line.Quantity, now); err != nil {
					return fmt.Errorf("restore stock: %w", err)
				}
			}
		}

		ok, err := s.repo.UpdateStatus(ctx, tx, current.ID, current.Version, target, now)
		if err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		if !ok {
			return domain.ErrConcurrentUpdate
		}

		current.Status = target
		current.Version++
		current.UpdatedAt = now
		return s.loadDetails(ctx, tx, order)
	})
	if err != nil {
		span.RecordError(tracing.SafeError(err))
		span.SetStatus(codes.Error, "update status failed")
		return nil, err
	}
	if previous == order.Status {
		return order, nil
	}

	span.SetAttributes(tracing.SafeAttributes(
		attribute.String("order.id", order.ID.String()),
		attribute.String("order.previous_status", string(previous)),
		attribute.String("order.status", string(order.Status)),
	)...)
	s.metrics.RecordStatusTransition(ctx, string(previous), string(order.Status))
	s.telemetry.ObserveStatusChange(string(previous), string(order.Status))
	s.invalidateStats(ctx)
	s.audit(ctx, auditdomain.ActionOrderStatusChanged, order, map[string]any{
		"previous_status": string(previous),
		"status":          string(order.Status),
	})

	s.log.Info("order status changed",
		zap.String("order_id", order.ID.String()),
		zap.String("from", string(previous)),
		zap.String("to", string(order.Status)),
	)
	return order, nil
}
