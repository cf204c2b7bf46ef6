package domain

import "github.com/shopspring/decimal"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusDelivered OrderStatus = "delivered"
)

type OrderLineItem struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image,omitempty"`
}

// Subtotal returns quantity x unit price.
func (i OrderLineItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type Order struct {
	ID       string          `json:"id"`
	Status   OrderStatus     `json:"status"`
	FullName string          `json:"full_name"`
	Email    string          `json:"email"`
	Address  string          `json:"address"`
	City     string          `json:"city"`
	Country  string          `json:"country"`
	Items    []OrderLineItem `json:"items"`
}

func (o Order) EntityID() string { return o.ID }

// Total is always derived from the line items.
func (o Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

type OrdersPage struct {
	Items []Order `json:"items"`
	Total int     `json:"total"`
}
