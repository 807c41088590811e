package domain

import (
	"bytes"
	"encoding/json"
)

// Ref is a nested reference to a parent entity (brand, category, product...).
// The backend sends either an object, a bare id, or just a name string.
type Ref struct {
	ID   ID     `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Code string `json:"code,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Ref) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*r = Ref{}
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = Ref{Name: s}
		return nil
	case b[0] != '{':
		var id ID
		if err := id.UnmarshalJSON(b); err != nil {
			return err
		}
		*r = Ref{ID: id}
		return nil
	}
	type plain Ref
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = Ref(p)
	return nil
}

func (r *Ref) id() ID {
	if r == nil {
		return ""
	}
	return r.ID
}

func (r *Ref) fields() []string {
	if r == nil {
		return nil
	}
	return []string{r.Name, r.Code}
}

// ProductImage is one picture attached to a product.
type ProductImage struct {
	ID        ID     `json:"id,omitempty"`
	URL       string `json:"url,omitempty"`
	IsPrimary bool   `json:"isPrimary,omitempty"`
}

// Product is a catalog item. Display* and PrimaryImage are derived on read
// by WithDerived and are not sent back to the backend.
type Product struct {
	ID          ID               `json:"id"`
	Name        string           `json:"name"`
	SKU         string           `json:"sku,omitempty"`
	Model       string           `json:"model,omitempty"`
	PartNumber  string           `json:"partNumber,omitempty"`
	Description string           `json:"description,omitempty"`
	Unit        string           `json:"unit,omitempty"`
	SellPrice   Money            `json:"sellPrice,omitempty"`
	CostPrice   Money            `json:"costPrice,omitempty"`
	Active      *bool            `json:"active,omitempty"`
	Brand       *Ref             `json:"brand,omitempty"`
	Category    *Ref             `json:"category,omitempty"`
	Group       *Ref             `json:"group,omitempty"`
	Supplier    *Ref             `json:"supplier,omitempty"`
	Tags        []Ref            `json:"tags,omitempty"`
	Images      []ProductImage   `json:"images,omitempty"`
	Variants    []ProductVariant `json:"variants,omitempty"`
	CreatedAt   Timestamp        `json:"createdAt"`
	UpdatedAt   Timestamp        `json:"updatedAt"`

	PrimaryImage     *ProductImage `json:"primaryImage,omitempty"`
	DisplayUnit      string        `json:"displayUnit,omitempty"`
	DisplaySellPrice Money         `json:"displaySellPrice,omitempty"`
}

// ProductVariant is a sellable variation of a product.
type ProductVariant struct {
	ID         ID        `json:"id"`
	Name       string    `json:"name,omitempty"`
	SKU        string    `json:"sku,omitempty"`
	Model      string    `json:"model,omitempty"`
	PartNumber string    `json:"partNumber,omitempty"`
	Unit       string    `json:"unit,omitempty"`
	SellPrice  Money     `json:"sellPrice,omitempty"`
	CostPrice  Money     `json:"costPrice,omitempty"`
	Stock      float64   `json:"stock,omitempty"`
	ProductID  ID        `json:"productId,omitempty"`
	Product    *Ref      `json:"product,omitempty"`
	CreatedAt  Timestamp `json:"createdAt"`
	UpdatedAt  Timestamp `json:"updatedAt"`
}

// Expense is a recorded business expense.
type Expense struct {
	ID            ID        `json:"id"`
	Description   string    `json:"description"`
	Amount        Money     `json:"amount"`
	Category      *Ref      `json:"category,omitempty"`
	Date          Timestamp `json:"date"`
	Note          string    `json:"note,omitempty"`
	PaymentMethod string    `json:"paymentMethod,omitempty"`
	CreatedAt     Timestamp `json:"createdAt"`
	UpdatedAt     Timestamp `json:"updatedAt"`
}

// CatalogEntry holds the fields shared by brands, categories and groups.
type CatalogEntry struct {
	ID          ID        `json:"id"`
	Name        string    `json:"name"`
	Code        string    `json:"code,omitempty"`
	Description string    `json:"description,omitempty"`
	Active      *bool     `json:"active,omitempty"`
	CreatedAt   Timestamp `json:"createdAt"`
	UpdatedAt   Timestamp `json:"updatedAt"`
}

// Brand is a product brand.
type Brand struct {
	CatalogEntry
}

// Category is a product category, optionally nested under a parent.
type Category struct {
	CatalogEntry
	Parent *Ref `json:"parent,omitempty"`
}

// Group is a product group, optionally bound to a category.
type Group struct {
	CatalogEntry
	Category *Ref `json:"category,omitempty"`
}

// Supplier provides products.
type Supplier struct {
	ID        ID        `json:"id"`
	Name      string    `json:"name"`
	Code      string    `json:"code,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt Timestamp `json:"createdAt"`
	UpdatedAt Timestamp `json:"updatedAt"`
}

// Tag labels products for filtering.
type Tag struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// User is the authenticated account.
type User struct {
	ID    ID     `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Session is the outcome of a successful login or signup.
type Session struct {
	Token string `json:"token"`
	User  *User  `json:"user,omitempty"`
}
