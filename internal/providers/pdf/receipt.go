package pdf

import (
	"context"
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// ReceiptData feeds the purchase receipt PDF.
type ReceiptData struct {
	OrderID      string
	ProductTitle string
	BuyerName    string
	BuyerEmail   string
	Amount       string
	DatePaid     string
	ProductURL   string
}

type ReceiptRenderer struct{}

func NewReceiptRenderer() *ReceiptRenderer {
	return &ReceiptRenderer{}
}

func (r *ReceiptRenderer) Render(ctx context.Context, data ReceiptData) ([]byte, error) {
	cfg := config.NewBuilder().Build()
	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(12, "Receipt", props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(16,
		col.New(6).Add(
			text.New("Order: "+data.OrderID, props.Text{Top: 0}),
			text.New("Date paid: "+data.DatePaid, props.Text{Top: 5}),
		),
		col.New(6).Add(
			text.New(data.BuyerName, props.Text{Top: 0, Align: align.Right}),
			text.New(data.BuyerEmail, props.Text{Top: 5, Align: align.Right}),
		),
	)

	m.AddRow(4, line.NewCol(12))

	m.AddRow(12,
		text.NewCol(8, data.ProductTitle, props.Text{Top: 2}),
		text.NewCol(4, data.Amount, props.Text{Top: 2, Align: align.Right, Style: fontstyle.Bold}),
	)

	if data.ProductURL != "" {
		m.AddRow(10,
			text.NewCol(12, "Access your purchase: "+data.ProductURL, props.Text{Top: 2, Size: 9}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("render receipt pdf: %w", err)
	}
	return doc.GetBytes(), nil
}
