package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/storefront/internal/audit/domain"
	"github.com/smallbiznis/storefront/internal/audit/repository"
	"github.com/smallbiznis/storefront/internal/audit/service"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/migration"
	obscontext "github.com/smallbiznis/storefront/internal/observability/context"
	"github.com/smallbiznis/storefront/pkg/db"
	"github.com/smallbiznis/storefront/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newService(t *testing.T) (auditdomain.Service, *clock.FakeClock) {
	t.Helper()

	conn := db.NewTest(t)
	require.NoError(t, migration.Apply(conn))

	node, err := snowflake.NewNode(13)
	require.NoError(t, err)

	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	return service.NewService(service.Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Repo:  repository.Provide(),
	}), clk
}

func TestAuditLogResolvesContext(t *testing.T) {
	svc, _ := newService(t)

	ctx := obscontext.WithRequestID(context.Background(), "req-1")
	ctx = obscontext.WithActor(ctx, "admin", "ops")
	ctx = obscontext.WithClientInfo(ctx, "10.0.0.1", "curl/8")

	orderID := "123"
	require.NoError(t, svc.AuditLog(ctx, "", nil, auditdomain.ActionOrderCreated, auditdomain.TargetTypeOrder, &orderID, map[string]any{
		"email": "ana@example.com",
		"total": "10.00",
	}))

	resp, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{TargetType: "order", TargetID: "123"})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)

	entry := resp.AuditLogs[0]
	assert.Equal(t, "admin", entry.ActorType)
	require.NotNil(t, entry.ActorID)
	assert.Equal(t, "ops", *entry.ActorID)
	require.NotNil(t, entry.IPAddress)
	assert.Equal(t, "10.0.0.1", *entry.IPAddress)
	assert.Equal(t, "req-1", entry.Metadata["request_id"])
	assert.Equal(t, "a****@example.com", entry.Metadata["email"])
	assert.Equal(t, "10.00", entry.Metadata["total"])
}

func TestAuditLogRequiresAction(t *testing.T) {
	svc, _ := newService(t)

	err := svc.AuditLog(context.Background(), "", nil, " ", "order", nil, nil)
	assert.ErrorIs(t, err, auditdomain.ErrInvalidAction)
}

func TestListAuditLogsPaginates(t *testing.T) {
	svc, clk := newService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.AuditLog(ctx, "system", nil, auditdomain.ActionOrderStatusChanged, "order", nil, nil))
		clk.Advance(time.Second)
	}

	first, err := svc.List(ctx, auditdomain.ListAuditLogRequest{
		Pagination: pagination.Pagination{PageSize: 2},
		Action:     auditdomain.ActionOrderStatusChanged,
	})
	require.NoError(t, err)
	require.Len(t, first.AuditLogs, 2)
	assert.True(t, first.HasMore)
	assert.True(t, first.AuditLogs[0].CreatedAt.After(first.AuditLogs[1].CreatedAt))

	second, err := svc.List(ctx, auditdomain.ListAuditLogRequest{
		Pagination: pagination.Pagination{PageSize: 2, PageToken: first.NextPageToken},
		Action:     auditdomain.ActionOrderStatusChanged,
	})
	require.NoError(t, err)
	require.Len(t, second.AuditLogs, 1)
	assert.False(t, second.HasMore)

	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err = svc.List(ctx, auditdomain.ListAuditLogRequest{StartAt: &start, EndAt: &end})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidTimeRange)
}

func TestHistoryReturnsTargetTrailOldestFirst(t *testing.T) {
	svc, clk := newService(t)
	ctx := context.Background()

	order := "42"
	other := "43"
	require.NoError(t, svc.AuditLog(ctx, "", nil, auditdomain.ActionOrderCreated, auditdomain.TargetTypeOrder, &order, map[string]any{"status": "pendiente"}))
	clk.Advance(time.Minute)
	require.NoError(t, svc.AuditLog(ctx, "", nil, auditdomain.ActionOrderCreated, auditdomain.TargetTypeOrder, &other, nil))
	clk.Advance(time.Minute)
	require.NoError(t, svc.AuditLog(ctx, "admin", nil, auditdomain.ActionOrderStatusChanged, auditdomain.TargetTypeOrder, &order, map[string]any{"to": "pagado"}))

	history, err := svc.History(ctx, auditdomain.TargetTypeOrder, order)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, auditdomain.ActionOrderCreated, history[0].Action)
	assert.Equal(t, auditdomain.ActionOrderStatusChanged, history[1].Action)
	assert.Equal(t, "admin", history[1].ActorType)
	assert.Equal(t, "pagado", history[1].Metadata["to"])

	empty, err := svc.History(ctx, auditdomain.TargetTypeOrder, "999")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	_, err = svc.History(ctx, auditdomain.TargetTypeOrder, " ")
	assert.ErrorIs(t, err, auditdomain.ErrInvalidTarget)
}
