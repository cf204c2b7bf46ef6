// Package view turns page state into the JSON view models the console UI renders.
package view

import (
	"strings"

	"github.com/shopspring/decimal"

	"catalogadmin/pkg/domain"
	"catalogadmin/services/console/internal/crud"
)

type Column struct {
	Key   string `json:"key"`
	Title string `json:"title"`
}

// Cell is one table cell. Swatch carries a hex color, Image a URL.
type Cell struct {
	Text   string `json:"text"`
	Swatch string `json:"swatch,omitempty"`
	Image  string `json:"image,omitempty"`
}

type Row struct {
	ID    string `json:"id"`
	Cells []Cell `json:"cells"`
}

// Placeholder is the single row shown for an empty table.
type Placeholder struct {
	Text    string `json:"text"`
	Colspan int    `json:"colspan"`
}

type Table struct {
	Entity  string       `json:"entity"`
	Columns []Column     `json:"columns"`
	Rows    []Row        `json:"rows"`
	Loading bool         `json:"loading"`
	Empty   *Placeholder `json:"empty,omitempty"`
}

// Option is one entry of a select input.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// FormatPrice renders a price with two decimals.
func FormatPrice(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// EmptyText is the placeholder shown when a list has nothing to show.
func EmptyText(plural string) string {
	return "No " + plural + " found."
}

// BuildTable renders a page through cells. Rows are withheld while loading.
func BuildTable[T domain.Entity, D any](page *crud.Page[T, D], term string, columns []Column, cells func(T) []Cell) Table {
	table := Table{Entity: page.Plural(), Columns: columns, Rows: []Row{}}
	if page.State() != crud.StateReady {
		table.Loading = true
		return table
	}
	for _, item := range page.Items(term) {
		table.Rows = append(table.Rows, Row{ID: item.EntityID(), Cells: cells(item)})
	}
	if len(table.Rows) == 0 {
		table.Empty = &Placeholder{Text: EmptyText(page.Plural()), Colspan: len(columns)}
	}
	return table
}

// RefOptions lists a reference set as select options.
func RefOptions[T domain.Entity](ref *crud.Ref[T]) []Option {
	items := ref.Items()
	out := make([]Option, 0, len(items))
	for _, item := range items {
		out = append(out, Option{Value: item.EntityID(), Label: ref.Label(item.EntityID())})
	}
	return out
}

func text(s string) Cell { return Cell{Text: s} }

// CategoriesTable: name, description.
func CategoriesTable(page *crud.Page[domain.Category, domain.CategoryData], term string) Table {
	columns := []Column{{Key: "name", Title: "Name"}, {Key: "description", Title: "Description"}}
	return BuildTable(page, term, columns, func(c domain.Category) []Cell {
		return []Cell{text(c.Name), text(c.Description)}
	})
}

func ColorsTable(page *crud.Page[domain.Color, domain.ColorData], term string) Table {
	columns := []Column{{Key: "name", Title: "Name"}, {Key: "hex", Title: "Hex"}}
	return BuildTable(page, term, columns, func(c domain.Color) []Cell {
		return []Cell{text(c.Name), {Text: strings.ToLower(c.Hex), Swatch: c.Hex}}
	})
}

func SizesTable(page *crud.Page[domain.Size, domain.SizeData], term string) Table {
	columns := []Column{{Key: "label", Title: "Label"}}
	return BuildTable(page, term, columns, func(s domain.Size) []Cell {
		return []Cell{text(s.Label)}
	})
}

// ProductsTable resolves the category label through categories.
func ProductsTable(page *crud.Page[domain.Product, domain.ProductData], categories *crud.Ref[domain.Category], term string) Table {
	columns := []Column{
		{Key: "name", Title: "Name"},
		{Key: "brand", Title: "Brand"},
		{Key: "category", Title: "Category"},
		{Key: "description", Title: "Description"},
	}
	return BuildTable(page, term, columns, func(p domain.Product) []Cell {
		return []Cell{text(p.Name), text(p.Brand), text(categories.Label(p.CategoryID)), text(p.Description)}
	})
}

// VariantRefs are the lists a variant row is labelled from.
type VariantRefs struct {
	Products *crud.Ref[domain.Product]
	Colors   *crud.Ref[domain.Color]
	Sizes    *crud.Ref[domain.Size]
}

func VariantsTable(page *crud.Page[domain.ProductVariant, domain.ProductVariantData], refs VariantRefs, term string) Table {
	columns := []Column{
		{Key: "image", Title: "Image"},
		{Key: "product", Title: "Product"},
		{Key: "color", Title: "Color"},
		{Key: "size", Title: "Size"},
		{Key: "price", Title: "Price"},
	}
	return BuildTable(page, term, columns, func(v domain.ProductVariant) []Cell {
		color := Cell{Text: refs.Colors.Label(v.ColorID)}
		if c, ok := refs.Colors.Get(v.ColorID); ok {
			color.Swatch = c.Hex
		}
		return []Cell{
			{Image: v.Image},
			text(refs.Products.Label(v.ProductID)),
			color,
			text(refs.Sizes.Label(v.SizeID)),
			text(FormatPrice(v.Price)),
		}
	})
}
