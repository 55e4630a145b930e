package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/storefront/internal/audit/domain"
	branddomain "github.com/smallbiznis/storefront/internal/brand/domain"
	clientdomain "github.com/smallbiznis/storefront/internal/client/domain"
	"github.com/smallbiznis/storefront/internal/config"
	"github.com/smallbiznis/storefront/internal/observability"
	obscontext "github.com/smallbiznis/storefront/internal/observability/context"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	productdomain "github.com/smallbiznis/storefront/internal/product/domain"
	"github.com/smallbiznis/storefront/internal/receipt"
	"github.com/smallbiznis/storefront/internal/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

type fakeOrderService struct {
	create       func(ctx context.Context, req orderdomain.CreateOrderRequest) (*orderdomain.Order, error)
	checkout     func(ctx context.Context, req orderdomain.CheckoutRequest) (*orderdomain.Order, error)
	attachProof  func(ctx context.Context, id, proofURL string) (*orderdomain.Order, error)
	updateStatus func(ctx context.Context, id, status string) (*orderdomain.Order, error)
	get          func(ctx context.Context, id string) (*orderdomain.Order, error)
	stats        func(ctx context.Context, req orderdomain.StatsRequest) (*orderdomain.Stats, error)
}

func (f *fakeOrderService) Create(ctx context.Context, req orderdomain.CreateOrderRequest) (*orderdomain.Order, error) {
	return f.create(ctx, req)
}

func (f *fakeOrderService) Checkout(ctx context.Context, req orderdomain.CheckoutRequest) (*orderdomain.Order, error) {
	return f.checkout(ctx, req)
}

func (f *fakeOrderService) AttachPaymentProof(ctx context.Context, id string, proofURL string) (*orderdomain.Order, error) {
	return f.attachProof(ctx, id, proofURL)
}

func (f *fakeOrderService) UpdateStatus(ctx context.Context, id string, status string) (*orderdomain.Order, error) {
	return f.updateStatus(ctx, id, status)
}

func (f *fakeOrderService) Get(ctx context.Context, id string) (*orderdomain.Order, error) {
	return f.get(ctx, id)
}

func (f *fakeOrderService) List(ctx context.Context, req orderdomain.ListOrderRequest) (orderdomain.ListOrderResponse, error) {
	return orderdomain.ListOrderResponse{Orders: []orderdomain.Order{}}, nil
}

func (f *fakeOrderService) Stats(ctx context.Context, req orderdomain.StatsRequest) (*orderdomain.Stats, error) {
	return f.stats(ctx, req)
}

type fakeClientService struct{}

func (fakeClientService) Create(ctx context.Context, req clientdomain.CreateClientRequest) (clientdomain.Client, error) {
	return clientdomain.Client{}, clientdomain.ErrEmailTaken
}

func (fakeClientService) UpsertByEmail(ctx context.Context, req clientdomain.CreateClientRequest) (clientdomain.Client, error) {
	return clientdomain.Client{}, nil
}

func (fakeClientService) GetByID(ctx context.Context, id string) (clientdomain.Client, error) {
	return clientdomain.Client{}, clientdomain.ErrNotFound
}

func (fakeClientService) List(ctx context.Context, req clientdomain.ListClientRequest) (clientdomain.ListClientResponse, error) {
	return clientdomain.ListClientResponse{}, nil
}

type fakeProductService struct{}

func (fakeProductService) Create(ctx context.Context, req productdomain.CreateRequest) (*productdomain.Product, error) {
	return nil, productdomain.ErrBrandNotFound
}

func (fakeProductService) List(ctx context.Context, req productdomain.ListRequest) ([]productdomain.Product, error) {
	return []productdomain.Product{}, nil
}

func (fakeProductService) Get(ctx context.Context, id string) (*productdomain.Product, error) {
	return nil, productdomain.ErrNotFound
}

func (fakeProductService) UpdatePrice(ctx context.Context, id string, price decimal.Decimal) (*productdomain.Product, error) {
	return &productdomain.Product{Price: price}, nil
}

func (fakeProductService) UpdateStock(ctx context.Context, id string, stock int) (*productdomain.Product, error) {
	return &productdomain.Product{Stock: stock}, nil
}

func (fakeProductService) Delete(ctx context.Context, id string) error {
	return productdomain.ErrInUse
}

type fakeBrandService struct{}

func (fakeBrandService) Create(ctx context.Context, req branddomain.CreateRequest) (branddomain.Brand, error) {
	return branddomain.Brand{Name: req.Name}, nil
}

func (fakeBrandService) List(ctx context.Context, req branddomain.ListRequest) ([]branddomain.Brand, error) {
	return []branddomain.Brand{}, nil
}

func (fakeBrandService) Get(ctx context.Context, id string) (branddomain.Brand, error) {
	return branddomain.Brand{}, branddomain.ErrNotFound
}

func (fakeBrandService) Delete(ctx context.Context, id string) error {
	return branddomain.ErrHasProducts
}

type fakeAuditService struct{}

func (fakeAuditService) AuditLog(ctx context.Context, actorType string, actorID *string, action string, targetType string, targetID *string, metadata map[string]any) error {
	return nil
}

func (fakeAuditService) List(ctx context.Context, req auditdomain.ListAuditLogRequest) (auditdomain.ListAuditLogResponse, error) {
	return auditdomain.ListAuditLogResponse{AuditLogs: []auditdomain.AuditLog{}}, nil
}

func (fakeAuditService) History(ctx context.Context, targetType, targetID string) ([]auditdomain.AuditLog, error) {
	return []auditdomain.AuditLog{{
		ID:         1,
		ActorType:  "storefront",
		Action:     auditdomain.ActionOrderCreated,
		TargetType: targetType,
		TargetID:   &targetID,
	}}, nil
}

type testServer struct {
	engine   *gin.Engine
	orders   *fakeOrderService
	proofDir string
}

func newTestServer(t *testing.T, cfg config.Config) testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	cfg.Upload = config.UploadConfig{Dir: dir, PublicBase: "/uploads", MaxBytes: 1 << 20}
	storage, err := upload.NewStorage(cfg, config.NewStaticStoreConfigHolder(config.DefaultStoreConfig()), zap.NewNop())
	require.NoError(t, err)

	orders := &fakeOrderService{}
	engine := NewEngine(EngineParams{ObsCfg: observability.Config{Environment: "test"}})
	NewServer(ServerParams{
		Gin:        engine,
		Cfg:        cfg,
		Log:        zap.NewNop(),
		OrderSvc:   orders,
		ClientSvc:  fakeClientService{},
		ProductSvc: fakeProductService{},
		BrandSvc:   fakeBrandService{},
		AuditSvc:   fakeAuditService{},
		Storage:    storage,
		Receipts:   receipt.NewPDFRenderer(cfg),
	})

	return testServer{engine: engine, orders: orders, proofDir: dir + "/comprobantes"}
}

func (ts testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	ts.engine.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func sampleOrder() *orderdomain.Order {
	return &orderdomain.Order{
		ID:            snowflake.ID(1001),
		ClientID:      snowflake.ID(1),
		Total:         decimal.RequireFromString("200.00"),
		Status:        orderdomain.StatusPending,
		PaymentMethod: orderdomain.PaymentQR,
		Version:       1,
		CreatedAt:     time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
	}
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func proofRequest(t *testing.T, path string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(proofFormField, "comprobante.png")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, config.Config{})
	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateOrderReturnsCreated(t *testing.T) {
	ts := newTestServer(t, config.Config{})

	var got orderdomain.CreateOrderRequest
	ts.orders.create = func(ctx context.Context, req orderdomain.CreateOrderRequest) (*orderdomain.Order, error) {
		got = req
		return sampleOrder(), nil
	}

	rec := ts.do(t, jsonRequest(http.MethodPost, "/api/orders", `{
		"client_id": " 1 ",
		"items": [{"product_id": "5", "quantity": 2, "unit_price": 100}],
		"total": "200.00",
		"payment_method": "qr"
	}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	assert.Equal(t, "1", got.ClientID)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.True(t, got.Items[0].UnitPrice.Equal(decimal.NewFromInt(100)))
	assert.True(t, got.Total.Equal(decimal.RequireFromString("200")))

	var body struct {
		Data struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "1001", body.Data.ID)
	assert.Equal(t, "pendiente", body.Data.Status)
}

func TestCreateOrderMalformedBody(t *testing.T) {
	ts := newTestServer(t, config.Config{})
	rec := ts.do(t, jsonRequest(http.MethodPost, "/api/orders", `{"items": "nope"`))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	assert.Equal(t, "validation_error", payload.Type)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "invalid_request", payload.Errors[0].Code)
}

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantCode   string
	}{
		{"validation", orderdomain.ErrTotalMismatch, http.StatusBadRequest, "validation_error", "total_mismatch"},
		{"wrapped validation", fmt.Errorf("create order: %w", orderdomain.ErrInvalidQuantity), http.StatusBadRequest, "validation_error", "invalid_quantity"},
		{"client missing", orderdomain.ErrClientNotFound, http.StatusNotFound, "not_found", ""},
		{"stock", orderdomain.ErrInsufficientStock, http.StatusConflict, "conflict", ""},
		{"storage", fmt.Errorf("insert order: %w", errors.New("pq: connection refused to 10.0.0.5")), http.StatusInternalServerError, "internal_error", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ts := newTestServer(t, config.Config{})
			ts.orders.create = func(ctx context.Context, req orderdomain.CreateOrderRequest) (*orderdomain.Order, error) {
				return nil, tc.err
			}

			rec := ts.do(t, jsonRequest(http.MethodPost, "/api/orders", `{"client_id":"1","items":[],"total":0,"payment_method":"qr"}`))
			require.Equal(t, tc.wantStatus, rec.Code)

			payload := decodeError(t, rec)
			assert.Equal(t, tc.wantType, payload.Type)
			if tc.wantCode != "" {
				require.Len(t, payload.Errors, 1)
				assert.Equal(t, tc.wantCode, payload.Errors[0].Code)
			}
			assert.NotContains(t, rec.Body.String(), "10.0.0.5")
		})
	}
}

func TestTotalMismatchNamesTotalField(t *testing.T) {
	status, payload := mapError(orderdomain.ErrTotalMismatch)
	assert.Equal(t, http.StatusBadRequest, status)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "total", payload.Errors[0].Field)

	status, payload = mapError(orderdomain.ErrInvalidPaymentMethod)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "payment_method", payload.Errors[0].Field)
}

func TestGetOrderNotFound(t *testing.T) {
	ts := newTestServer(t, config.Config{})
	ts.orders.get = func(ctx context.Context, id string) (*orderdomain.Order, error) {
		return nil, orderdomain.ErrNotFound
	}

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/orders/42", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	payload := decodeError(t, rec)
	assert.Equal(t, "order_not_found", payload.Message)
}

func TestAdminRequiresBearerToken(t *testing.T) {
	ts := newTestServer(t, config.Config{AdminToken: "s3cret"})
	ts.orders.stats = func(ctx context.Context, req orderdomain.StatsRequest) (*orderdomain.Stats, error) {
		return &orderdomain.Stats{}, nil
	}

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/admin/orders/stats", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/admin/orders/stats", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = ts.do(t, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/admin/orders/stats", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = ts.do(t, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminWithoutTokenClosedInProduction(t *testing.T) {
	ts := newTestServer(t, config.Config{Environment: "production"})
	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/admin/orders", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	ts = newTestServer(t, config.Config{Environment: "development"})
	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/admin/orders", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpdateStatusRunsAsAdmin(t *testing.T) {
	ts := newTestServer(t, config.Config{})

	var actorType, status string
	ts.orders.updateStatus = func(ctx context.Context, id, next string) (*orderdomain.Order, error) {
		actorType, _ = obscontext.ActorFromContext(ctx)
		status = next
		order := sampleOrder()
		order.Status = orderdomain.StatusShipped
		return order, nil
	}

	rec := ts.do(t, jsonRequest(http.MethodPut, "/admin/orders/1001/status", `{"status":"enviado"}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "admin", actorType)
	assert.Equal(t, "enviado", status)
}

func TestUpdateStatusInvalidTransition(t *testing.T) {
	ts := newTestServer(t, config.Config{})
	ts.orders.updateStatus = func(ctx context.Context, id, next string) (*orderdomain.Order, error) {
		return nil, orderdomain.ErrInvalidTransition
	}

	rec := ts.do(t, jsonRequest(http.MethodPut, "/admin/orders/1001/status", `{"status":"pendiente"}`))
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_transition", decodeError(t, rec).Message)
}

func TestStatsForwardsRange(t *testing.T) {
	ts := newTestServer(t, config.Config{})

	var got orderdomain.StatsRequest
	ts.orders.stats = func(ctx context.Context, req orderdomain.StatsRequest) (*orderdomain.Stats, error) {
		got = req
		return nil, orderdomain.ErrInvalidTimeRange
	}

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/admin/orders/stats?start=2026-03-10&end=2026-03-01", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "2026-03-10", got.Start)
	assert.Equal(t, "2026-03-01", got.End)
	assert.Equal(t, "time_range", decodeError(t, rec).Errors[0].Field)
}

func TestUploadPaymentProofStoresFile(t *testing.T) {
	ts := newTestServer(t, config.Config{})

	var proofURL string
	ts.orders.attachProof = func(ctx context.Context, id, url string) (*orderdomain.Order, error) {
		proofURL = url
		order := sampleOrder()
		order.Status = orderdomain.StatusProcessing
		order.PaymentProofURL = &url
		return order, nil
	}

	content := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 64)...)
	rec := ts.do(t, proofRequest(t, "/api/orders/1001/payment-proof", content))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Regexp(t, `^/uploads/comprobantes/[0-9a-z]+\.png$`, proofURL)
	entries, err := os.ReadDir(ts.proofDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	var body struct {
		Data struct {
			ProofURL string `json:"proof_url"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, proofURL, body.Data.ProofURL)
}

func TestUploadPaymentProofRemovesFileOnRejection(t *testing.T) {
	ts := newTestServer(t, config.Config{})
	ts.orders.attachProof = func(ctx context.Context, id, url string) (*orderdomain.Order, error) {
		return nil, orderdomain.ErrProofNotRequired
	}

	content := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 64)...)
	rec := ts.do(t, proofRequest(t, "/api/orders/1001/payment-proof", content))
	require.Equal(t, http.StatusConflict, rec.Code)

	entries, err := os.ReadDir(ts.proofDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestUploadPaymentProofValidation(t *testing.T) {
	ts := newTestServer(t, config.Config{})
	ts.orders.attachProof = func(ctx context.Context, id, url string) (*orderdomain.Order, error) {
		t.Fatal("attach must not run for rejected uploads")
		return nil, nil
	}

	rec := ts.do(t, proofRequest(t, "/api/orders/1001/payment-proof", []byte("just some text, not an image")))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "invalid_file_type", payload.Errors[0].Code)
	assert.Equal(t, proofFormField, payload.Errors[0].Field)

	req := httptest.NewRequest(http.MethodPost, "/api/orders/1001/payment-proof", nil)
	rec = ts.do(t, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadPaymentProofRejectsOversizedBody(t *testing.T) {
	ts := newTestServer(t, config.Config{})
	ts.orders.attachProof = func(ctx context.Context, id, url string) (*orderdomain.Order, error) {
		t.Fatal("attach must not run for oversized uploads")
		return nil, nil
	}

	content := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 1<<20+128<<10)...)
	rec := ts.do(t, proofRequest(t, "/api/orders/1001/payment-proof", content))
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	payload := decodeError(t, rec)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "file_too_large", payload.Errors[0].Code)
	assert.Equal(t, proofFormField, payload.Errors[0].Field)

	entries, err := os.ReadDir(ts.proofDir)
	if err == nil {
		assert.Empty(t, entries)
	}
}

func orderWithClient() *orderdomain.Order {
	order := sampleOrder()
	phone := "+591 700 00000"
	order.Client = &clientdomain.Client{
		ID:      snowflake.ID(1),
		Name:    "Ana",
		Email:   "ana@example.com",
		Phone:   &phone,
		Address: "Calle 1",
	}
	return order
}

func TestPublicOrderHidesClientContact(t *testing.T) {
	ts := newTestServer(t, config.Config{})
	ts.orders.get = func(ctx context.Context, id string) (*orderdomain.Order, error) {
		return orderWithClient(), nil
	}

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/orders/1001", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "ana@example.com")
	assert.NotContains(t, rec.Body.String(), "Calle 1")
	assert.NotContains(t, rec.Body.String(), "700 00000")

	var body struct {
		Data struct {
			ID     string `json:"id"`
			Total  string `json:"total"`
			Client struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"client"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "1001", body.Data.ID)
	assert.Equal(t, "1", body.Data.Client.ID)
	assert.Equal(t, "Ana", body.Data.Client.Name)

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/admin/orders/1001", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "ana@example.com")
	assert.Contains(t, rec.Body.String(), "Calle 1")
}

func TestReceiptOrderKeepsOnlyClientNameForStorefront(t *testing.T) {
	order := orderWithClient()

	storefront := obscontext.WithActor(context.Background(), string(auditdomain.ActorTypeStorefront), "")
	redacted := receiptOrder(storefront, order)
	require.NotNil(t, redacted.Client)
	assert.Equal(t, "Ana", redacted.Client.Name)
	assert.Empty(t, redacted.Client.Email)
	assert.Empty(t, redacted.Client.Address)
	assert.Nil(t, redacted.Client.Phone)
	assert.Equal(t, "ana@example.com", order.Client.Email, "original order must not be mutated")

	admin := obscontext.WithActor(context.Background(), string(auditdomain.ActorTypeAdmin), "")
	assert.Same(t, order, receiptOrder(admin, order))
}

func TestOrderHistory(t *testing.T) {
	ts := newTestServer(t, config.Config{})
	ts.orders.get = func(ctx context.Context, id string) (*orderdomain.Order, error) {
		if id != "1001" {
			return nil, orderdomain.ErrNotFound
		}
		return sampleOrder(), nil
	}

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/admin/orders/1001/history", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Data []struct {
			Action     string `json:"action"`
			TargetType string `json:"target_type"`
			TargetID   string `json:"target_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, auditdomain.TargetTypeOrder, body.Data[0].TargetType)
	assert.Equal(t, "1001", body.Data[0].TargetID)

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/admin/orders/77/history", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReceiptIsPDF(t *testing.T) {
	ts := newTestServer(t, config.Config{AppName: "Tienda"})
	ts.orders.get = func(ctx context.Context, id string) (*orderdomain.Order, error) {
		order := sampleOrder()
		order.Lines = []orderdomain.OrderLine{{
			ProductID:    snowflake.ID(5),
			ProductModel: "Phone X",
			Quantity:     2,
			UnitPrice:    decimal.RequireFromString("100"),
			Subtotal:     decimal.RequireFromString("200"),
		}}
		return order, nil
	}

	rec := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/orders/1001/receipt.pdf", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestCatalogErrors(t *testing.T) {
	ts := newTestServer(t, config.Config{})

	rec := ts.do(t, httptest.NewRequest(http.MethodDelete, "/admin/brands/2", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, httptest.NewRequest(http.MethodDelete, "/admin/products/5", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, httptest.NewRequest(http.MethodGet, "/api/products/5", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, jsonRequest(http.MethodPost, "/admin/clients", `{"name":"Ana","email":"ana@example.com"}`))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(t, jsonRequest(http.MethodPatch, "/admin/products/5/stock", `{}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, jsonRequest(http.MethodPatch, "/admin/products/5/stock", `{"stock": 3}`))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCheckoutWithoutLimiter(t *testing.T) {
	ts := newTestServer(t, config.Config{})

	var got orderdomain.CheckoutRequest
	ts.orders.checkout = func(ctx context.Context, req orderdomain.CheckoutRequest) (*orderdomain.Order, error) {
		got = req
		return sampleOrder(), nil
	}

	rec := ts.do(t, jsonRequest(http.MethodPost, "/api/checkout", `{
		"client": {"name": "Ana", "email": "ana@example.com", "address": "Calle 1"},
		"items": [{"product_id": "5", "quantity": 1, "unit_price": "100.00"}],
		"total": 100,
		"payment_method": "transferencia"
	}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "ana@example.com", got.Client.Email)
	assert.Equal(t, "transferencia", got.PaymentMethod)
}
