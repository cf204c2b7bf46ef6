package domain

import "github.com/shopspring/decimal"

// The catalog backend expects prices as JSON numbers.
func init() {
	decimal.MarshalJSONWithoutQuotes = true
}

// Entity is any catalog record addressed by a server-assigned id.
type Entity interface {
	EntityID() string
}

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

type CategoryData struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
}

type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
}

func (c Category) EntityID() string { return c.ID }

type ColorData struct {
	Name string `json:"name" validate:"required"`
	Hex  string `json:"hex" validate:"required,hexcolor"`
}

type Color struct {
	ID   string `json:"id"`
	Name string `json:"name" validate:"required"`
	Hex  string `json:"hex" validate:"required,hexcolor"`
}

func (c Color) EntityID() string { return c.ID }

type SizeData struct {
	Label string `json:"label" validate:"required"`
}

type Size struct {
	ID    string `json:"id"`
	Label string `json:"label" validate:"required"`
}

func (s Size) EntityID() string { return s.ID }

type ProductData struct {
	Name        string `json:"name" validate:"required"`
	Brand       string `json:"brand" validate:"required"`
	Description string `json:"description" validate:"required"`
	CategoryID  string `json:"category_id"`
}

type Product struct {
	ID          string `json:"id"`
	Name        string `json:"name" validate:"required"`
	Brand       string `json:"brand" validate:"required"`
	Description string `json:"description" validate:"required"`
	CategoryID  string `json:"category_id"`
}

func (p Product) EntityID() string { return p.ID }

// ProductVariantData is the write shape; Image holds an inline data URL.
type ProductVariantData struct {
	ProductID string          `json:"product_id" validate:"required"`
	ColorID   string          `json:"color_id" validate:"required"`
	SizeID    string          `json:"size_id" validate:"required"`
	Price     decimal.Decimal `json:"price" validate:"gte=0"`
	Image     string          `json:"image,omitempty"`
}

// ProductVariant is the read shape; Image is the resolved URL.
type ProductVariant struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id" validate:"required"`
	ColorID   string          `json:"color_id" validate:"required"`
	SizeID    string          `json:"size_id" validate:"required"`
	Price     decimal.Decimal `json:"price" validate:"gte=0"`
	Image     string          `json:"image,omitempty"`
}

func (v ProductVariant) EntityID() string { return v.ID }

type TempImageData struct {
	Base64Data string `json:"base64_data"`
}

type TempImage struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

type DescriptionRequest struct {
	Name              string   `json:"name"`
	Brand             string   `json:"brand"`
	Category          string   `json:"category"`
	PrimaryKeyword    string   `json:"primary_keyword"`
	SecondaryKeywords []string `json:"secondary_keywords"`
	TargetAudience    string   `json:"target_audience"`
}
