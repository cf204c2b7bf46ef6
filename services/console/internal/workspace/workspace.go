// Package workspace owns the per-session page state of the console: one set of
// entity pages, the orders page, the chat session and the toast feed per admin
// session.
package workspace

import (
	"catalogadmin/pkg/domain"
	"catalogadmin/services/console/internal/agentclient"
	"catalogadmin/services/console/internal/catalogclient"
	"catalogadmin/services/console/internal/chat"
	"catalogadmin/services/console/internal/crud"
	"catalogadmin/services/console/internal/notify"
	"catalogadmin/services/console/internal/orders"
	"catalogadmin/services/console/internal/view"
)

// Deps are the collaborators every workspace shares.
type Deps struct {
	Catalog        *catalogclient.Client
	Agent          *agentclient.Client
	OrdersPageSize int
	ToastCapacity  int
	// OnToast is called once per toast; the server wires it to metrics.
	OnToast func(page string)
}

type Workspace struct {
	ID string

	Toasts *notify.Feed

	Categories      *crud.Page[domain.Category, domain.CategoryData]
	Colors          *crud.Page[domain.Color, domain.ColorData]
	Sizes           *crud.Page[domain.Size, domain.SizeData]
	Products        *crud.Page[domain.Product, domain.ProductData]
	ProductVariants *crud.Page[domain.ProductVariant, domain.ProductVariantData]
	Orders          *orders.Page
	Chat            *chat.Session

	// ProductCategories labels product rows.
	ProductCategories *crud.Ref[domain.Category]
	// VariantRefs labels variant rows and feeds the variant dialog selects.
	VariantRefs view.VariantRefs
}

func categoryLabel(c domain.Category) string { return c.Name }
func colorLabel(c domain.Color) string       { return c.Name }
func sizeLabel(s domain.Size) string         { return s.Label }
func productLabel(p domain.Product) string   { return p.Name }

// New builds a workspace with every page idle.
func New(id string, deps Deps) *Workspace {
	feed := notify.NewFeed(deps.ToastCapacity, deps.OnToast)
	catalog := deps.Catalog
	ws := &Workspace{ID: id, Toasts: feed}

	ws.Categories = crud.NewPage(crud.Config[domain.Category, domain.CategoryData]{
		Singular: "category",
		Plural:   "categories",
		Client:   catalog.Categories,
		Notifier: feed,
	})
	ws.Colors = crud.NewPage(crud.Config[domain.Color, domain.ColorData]{
		Singular:     "color",
		Plural:       "colors",
		Client:       catalog.Colors,
		DefaultDraft: func() domain.ColorData { return domain.ColorData{Hex: "#000000"} },
		Notifier:     feed,
	})
	ws.Sizes = crud.NewPage(crud.Config[domain.Size, domain.SizeData]{
		Singular: "size",
		Plural:   "sizes",
		Client:   catalog.Sizes,
		Notifier: feed,
	})

	ws.ProductCategories = crud.NewRef("categories", catalog.Categories.List, categoryLabel)
	ws.Products = crud.NewPage(crud.Config[domain.Product, domain.ProductData]{
		Singular: "product",
		Plural:   "products",
		Client:   catalog.Products,
		Match: func(p domain.Product, term string) bool {
			return crud.ContainsFold(term, p.Name, p.Brand, p.Description)
		},
		Refs:     []crud.RefSet{ws.ProductCategories},
		Notifier: feed,
	})

	ws.VariantRefs = view.VariantRefs{
		Products: crud.NewRef("products", catalog.Products.List, productLabel),
		Colors:   crud.NewRef("colors", catalog.Colors.List, colorLabel),
		Sizes:    crud.NewRef("sizes", catalog.Sizes.List, sizeLabel),
	}
	ws.ProductVariants = crud.NewPage(crud.Config[domain.ProductVariant, domain.ProductVariantData]{
		Singular: "product variant",
		Plural:   "product variants",
		Client:   catalog.ProductVariants,
		Refs:     []crud.RefSet{ws.VariantRefs.Products, ws.VariantRefs.Colors, ws.VariantRefs.Sizes},
		Notifier: feed,
	})

	ws.Orders = orders.NewPage(catalog.Orders, deps.OrdersPageSize, feed)
	ws.Chat = chat.NewSession(deps.Agent, catalog.Images, feed)
	return ws
}
