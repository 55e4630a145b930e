package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	auditdomain "github.com/smallbiznis/storefront/internal/audit/domain"
	clientdomain "github.com/smallbiznis/storefront/internal/client/domain"
	obscontext "github.com/smallbiznis/storefront/internal/observability/context"
	"github.com/smallbiznis/storefront/internal/observability/logger"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
	"github.com/smallbiznis/storefront/internal/upload"
	"github.com/smallbiznis/storefront/pkg/db/pagination"
	"go.uber.org/zap"
)

const (
	proofFormField = "comprobante"
	// multipart headers and boundaries on top of the file itself
	proofFormOverhead = 64 << 10
)

type orderItemRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type createOrderRequest struct {
	ClientID      string             `json:"client_id"`
	Items         []orderItemRequest `json:"items"`
	Total         decimal.Decimal    `json:"total"`
	PaymentMethod string             `json:"payment_method"`
}

type checkoutClientRequest struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   *string `json:"phone"`
	Address string  `json:"address"`
}

type checkoutRequest struct {
	Client        checkoutClientRequest `json:"client"`
	Items         []orderItemRequest    `json:"items"`
	Total         decimal.Decimal       `json:"total"`
	PaymentMethod string                `json:"payment_method"`
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

type storefrontClient struct {
	ID   snowflake.ID `json:"id"`
	Name string       `json:"name"`
}

// storefrontOrder is the public shape of an order; client contact data is admin-only.
type storefrontOrder struct {
	*orderdomain.Order
	Client *storefrontClient `json:"client,omitempty"`
}

func isAdminRequest(ctx context.Context) bool {
	actorType, _ := obscontext.ActorFromContext(ctx)
	return actorType == string(auditdomain.ActorTypeAdmin)
}

func orderView(ctx context.Context, order *orderdomain.Order) any {
	if order == nil || isAdminRequest(ctx) {
		return order
	}
	view := storefrontOrder{Order: order}
	if order.Client != nil {
		view.Client = &storefrontClient{ID: order.Client.ID, Name: order.Client.Name}
	}
	return view
}

// receiptOrder keeps only the client name on receipts served publicly.
func receiptOrder(ctx context.Context, order *orderdomain.Order) *orderdomain.Order {
	if order == nil || order.Client == nil || isAdminRequest(ctx) {
		return order
	}
	redacted := *order
	redacted.Client = &clientdomain.Client{ID: order.Client.ID, Name: order.Client.Name}
	return &redacted
}

func toOrderItems(items []orderItemRequest) []orderdomain.OrderItemRequest {
	out := make([]orderdomain.OrderItemRequest, 0, len(items))
	for _, item := range items {
		out = append(out, orderdomain.OrderItemRequest{
			ProductID: strings.TrimSpace(item.ProductID),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return out
}

func (s *Server) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.orderSvc.Create(c.Request.Context(), orderdomain.CreateOrderRequest{
		ClientID:      strings.TrimSpace(req.ClientID),
		Items:         toOrderItems(req.Items),
		Total:         req.Total,
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": orderView(c.Request.Context(), resp)})
}

func (s *Server) Checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	ctx := c.Request.Context()
	release, err := s.lockCheckout(ctx, req.Client.Email)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer release(context.WithoutCancel(ctx))

	resp, err := s.orderSvc.Checkout(ctx, orderdomain.CheckoutRequest{
		Client: clientdomain.CreateClientRequest{
			Name:    req.Client.Name,
			Email:   req.Client.Email,
			Phone:   req.Client.Phone,
			Address: req.Client.Address,
		},
		Items:         toOrderItems(req.Items),
		Total:         req.Total,
		PaymentMethod: strings.TrimSpace(req.PaymentMethod),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": orderView(ctx, resp)})
}

func (s *Server) lockCheckout(ctx context.Context, email string) (func(context.Context), error) {
	noop := func(context.Context) {}
	if s.limiter == nil || strings.TrimSpace(email) == "" {
		return noop, nil
	}
	release, err := s.limiter.LockEmail(ctx, email)
	if err == nil {
		return release, nil
	}
	if isConflictError(err) {
		return noop, err
	}
	logger.FromContext(ctx).Warn("checkout lock failed", zap.Error(err))
	return noop, nil
}

func (s *Server) GetOrderByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.orderSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": orderView(c.Request.Context(), resp)})
}

func (s *Server) UploadPaymentProof(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.storage.MaxBytes()+proofFormOverhead)
	header, err := c.FormFile(proofFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			AbortWithError(c, upload.ErrFileTooLarge)
			return
		}
		if errors.Is(err, http.ErrMissingFile) {
			AbortWithError(c, newValidationError(proofFormField, "required", "comprobante file is required"))
			return
		}
		AbortWithError(c, invalidRequestError())
		return
	}

	file, err := header.Open()
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	defer file.Close()

	ctx := c.Request.Context()
	stored, err := s.storage.SaveProof(ctx, file)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	order, err := s.orderSvc.AttachPaymentProof(ctx, id, stored.URL)
	if err != nil {
		if rmErr := s.storage.Remove(stored.Name); rmErr != nil {
			logger.FromContext(ctx).Warn("remove orphan payment proof", zap.String("name", stored.Name), zap.Error(rmErr))
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"proof_url": stored.URL,
		"order":     orderView(ctx, order),
	}})
}

func (s *Server) RenderOrderReceipt(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	ctx := c.Request.Context()

	order, err := s.orderSvc.Get(ctx, id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	doc, err := s.receipts.Render(ctx, receiptOrder(ctx, order))
	if err != nil {
		AbortWithError(c, fmt.Errorf("render receipt: %w", err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=\"pedido-%s.pdf\"", order.ID.String()))
	c.Data(http.StatusOK, "application/pdf", doc)
}

func (s *Server) ListOrders(c *gin.Context) {
	var query struct {
		pagination.Pagination
		Status      string `form:"status"`
		ClientID    string `form:"client_id"`
		CreatedFrom string `form:"created_from"`
		CreatedTo   string `form:"created_to"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	createdFrom, err := parseOptionalTime(query.CreatedFrom, false)
	if err != nil {
		AbortWithError(c, newValidationError("created_from", "invalid_created_from", "invalid created_from"))
		return
	}

	createdTo, err := parseOptionalTime(query.CreatedTo, true)
	if err != nil {
		AbortWithError(c, newValidationError("created_to", "invalid_created_to", "invalid created_to"))
		return
	}

	resp, err := s.orderSvc.List(c.Request.Context(), orderdomain.ListOrderRequest{
		Pagination: pagination.Pagination{
			PageToken: strings.TrimSpace(query.PageToken),
			PageSize:  query.PageSize,
		},
		Status:      strings.TrimSpace(query.Status),
		ClientID:    strings.TrimSpace(query.ClientID),
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp.Orders, "page_info": resp.PageInfo})
}

func (s *Server) UpdateOrderStatus(c *gin.Context) {
	var req updateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.orderSvc.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetOrderStats(c *gin.Context) {
	var query struct {
		Start string `form:"start"`
		End   string `form:"end"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.orderSvc.Stats(c.Request.Context(), orderdomain.StatsRequest{
		Start: strings.TrimSpace(query.Start),
		End:   strings.TrimSpace(query.End),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
