package view

import (
	"strings"

	"catalogadmin/pkg/domain"
	"catalogadmin/services/console/internal/orders"
)

type LineItem struct {
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
	Subtotal  string `json:"subtotal"`
	Image     string `json:"image,omitempty"`
}

type OrderCard struct {
	ID               string     `json:"id"`
	Status           string     `json:"status"`
	Badge            string     `json:"badge"`
	Customer         string     `json:"customer"`
	Email            string     `json:"email"`
	Address          string     `json:"address"`
	Total            string     `json:"total"`
	Items            []LineItem `json:"items"`
	CanMarkDelivered bool       `json:"canMarkDelivered"`
}

type Pager struct {
	Page        int  `json:"page"`
	TotalPages  int  `json:"totalPages"`
	HasPrevious bool `json:"hasPrevious"`
	HasNext     bool `json:"hasNext"`
}

type OrdersView struct {
	Status  string       `json:"status"`
	Orders  []OrderCard  `json:"orders"`
	Total   int          `json:"total"`
	Pager   Pager        `json:"pager"`
	Loading bool         `json:"loading"`
	Empty   *Placeholder `json:"empty,omitempty"`
}

// Badge is the display label of a status; unknown statuses are shown verbatim.
func Badge(status domain.OrderStatus) string {
	switch status {
	case domain.OrderStatusPending:
		return "Pending"
	case domain.OrderStatusDelivered:
		return "Delivered"
	default:
		return string(status)
	}
}

func joinAddress(o domain.Order) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{o.Address, o.City, o.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func Orders(snap orders.Snapshot) OrdersView {
	out := OrdersView{
		Status:  string(snap.Status),
		Orders:  []OrderCard{},
		Total:   snap.Total,
		Loading: snap.Loading && !snap.Loaded,
		Pager: Pager{
			Page:        snap.Page,
			TotalPages:  snap.TotalPages,
			HasPrevious: snap.HasPrevious,
			HasNext:     snap.HasNext,
		},
	}
	for _, o := range snap.Items {
		card := OrderCard{
			ID:               o.ID,
			Status:           string(o.Status),
			Badge:            Badge(o.Status),
			Customer:         o.FullName,
			Email:            o.Email,
			Address:          joinAddress(o),
			Total:            FormatPrice(o.Total()),
			Items:            make([]LineItem, 0, len(o.Items)),
			CanMarkDelivered: o.Status == domain.OrderStatusPending,
		}
		for _, item := range o.Items {
			card.Items = append(card.Items, LineItem{
				Name:      item.Name,
				Quantity:  item.Quantity,
				UnitPrice: FormatPrice(item.Price),
				Subtotal:  FormatPrice(item.Subtotal()),
				Image:     item.Image,
			})
		}
		out.Orders = append(out.Orders, card)
	}
	if len(out.Orders) == 0 && !out.Loading {
		out.Empty = &Placeholder{Text: EmptyText("orders"), Colspan: 1}
	}
	return out
}
