package receipt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	marotoconfig "github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	clientdomain "github.com/smallbiznis/storefront/internal/client/domain"
	"github.com/smallbiznis/storefront/internal/config"
	orderdomain "github.com/smallbiznis/storefront/internal/order/domain"
)

const dateLayout = "2006-01-02 15:04 UTC"

var paymentLabels = map[orderdomain.PaymentMethod]string{
	orderdomain.PaymentQR:       "QR",
	orderdomain.PaymentTransfer: "Transferencia bancaria",
	orderdomain.PaymentCard:     "Tarjeta",
}

// Renderer turns an order into a printable receipt.
type Renderer interface {
	Render(ctx context.Context, order *orderdomain.Order) ([]byte, error)
}

type PDFRenderer struct {
	storeName string
}

func NewPDFRenderer(cfg config.Config) Renderer {
	name := strings.TrimSpace(cfg.AppName)
	if name == "" {
		name = "storefront"
	}
	return &PDFRenderer{storeName: name}
}

func (r *PDFRenderer) Render(ctx context.Context, order *orderdomain.Order) ([]byte, error) {
	if order == nil {
		return nil, errors.New("order is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := marotoconfig.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Pagina {current} de {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(8, r.storeName, props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
		text.NewCol(4, "Comprobante de pedido", props.Text{
			Size:  11,
			Align: align.Right,
			Top:   3,
		}),
	)

	m.AddRow(22,
		col.New(6).Add(
			text.New("Pedido: "+order.ID.String(), props.Text{Top: 0}),
			text.New("Fecha: "+order.CreatedAt.UTC().Format(dateLayout), props.Text{Top: 5}),
			text.New("Estado: "+string(order.Status), props.Text{Top: 10}),
			text.New("Pago: "+paymentLabel(order.PaymentMethod), props.Text{Top: 15}),
		),
		clientCol(order.Client),
	)

	m.AddRow(10,
		text.NewCol(6, "Producto", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Cant.", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Precio", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Subtotal", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, line := range order.Lines {
		description := line.ProductModel
		if description == "" {
			description = line.ProductID.String()
		}
		m.AddRow(8,
			text.NewCol(6, description, props.Text{Size: 9}),
			text.NewCol(2, fmt.Sprintf("%d", line.Quantity), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, line.UnitPrice.StringFixed(2), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, line.Subtotal.StringFixed(2), props.Text{Size: 9, Align: align.Right}),
		)
	}

	m.AddRow(12,
		col.New(8),
		text.NewCol(2, "Total", props.Text{Size: 10, Style: fontstyle.Bold, Top: 3}),
		text.NewCol(2, order.Total.StringFixed(2), props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right, Top: 3}),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("generate receipt: %w", err)
	}
	return doc.GetBytes(), nil
}

func clientCol(client *clientdomain.Client) core.Col {
	c := col.New(6)
	if client == nil {
		return c
	}
	c.Add(
		text.New("Cliente", props.Text{Style: fontstyle.Bold}),
		text.New(client.Name, props.Text{Top: 5}),
	)
	if client.Email != "" {
		c.Add(text.New(client.Email, props.Text{Top: 10}))
	}
	if client.Address != "" {
		c.Add(text.New(client.Address, props.Text{Top: 15}))
	}
	return c
}

func paymentLabel(method orderdomain.PaymentMethod) string {
	if label, ok := paymentLabels[method]; ok {
		return label
	}
	return string(method)
}
