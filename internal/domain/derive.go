package domain

// PrimaryImageOf returns the image flagged isPrimary, else the first image,
// else nil.
func PrimaryImageOf(images []ProductImage) *ProductImage {
	if len(images) == 0 {
		return nil
	}
	for i := range images {
		if images[i].IsPrimary {
			img := images[i]
			return &img
		}
	}
	img := images[0]
	return &img
}

// WithDerived returns a copy of p with the read-side display fields set.
// Unit and sell price come from the first variant when variants are nested,
// otherwise from the product itself.
func (p Product) WithDerived() Product {
	p.PrimaryImage = PrimaryImageOf(p.Images)
	p.DisplayUnit = p.Unit
	p.DisplaySellPrice = p.SellPrice
	if len(p.Variants) > 0 {
		v := p.Variants[0]
		if v.Unit != "" {
			p.DisplayUnit = v.Unit
		}
		if v.SellPrice != 0 {
			p.DisplaySellPrice = v.SellPrice
		}
	}
	return p
}

// IsActive reports the active flag, defaulting to true when absent.
func (p Product) IsActive() bool { return p.Active == nil || *p.Active }

// Recency is updatedAt, falling back to createdAt.
func (p Product) Recency() Timestamp { return latest(p.UpdatedAt, p.CreatedAt) }

// TagIDs returns the ids of the product's tags.
func (p Product) TagIDs() []string {
	out := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		if !t.ID.IsZero() {
			out = append(out, t.ID.String())
		}
	}
	return out
}

// SupplierID returns the nested supplier id, if any.
func (p Product) SupplierID() ID { return p.Supplier.id() }

// CategoryID returns the nested category id, if any.
func (p Product) CategoryID() ID { return p.Category.id() }

// KeywordFields is the fixed field set matched by client-side keyword search.
func (p Product) KeywordFields() []string {
	return []string{p.Name, p.SKU, p.Model, p.PartNumber}
}

// ParentID returns the owning product id from the nested product or the
// flat productId field.
func (v ProductVariant) ParentID() ID {
	if id := v.Product.id(); !id.IsZero() {
		return id
	}
	return v.ProductID
}

// Recency is updatedAt, falling back to createdAt.
func (v ProductVariant) Recency() Timestamp { return latest(v.UpdatedAt, v.CreatedAt) }

// KeywordFields includes the parent product's name and code.
func (v ProductVariant) KeywordFields() []string {
	return append([]string{v.Name, v.SKU, v.Model, v.PartNumber}, v.Product.fields()...)
}

// Recency orders expenses by creation time.
func (e Expense) Recency() Timestamp { return e.CreatedAt }

// KeywordFields for expenses.
func (e Expense) KeywordFields() []string {
	return append([]string{e.Description, e.Note}, e.Category.fields()...)
}

// IsActive reports the active flag, defaulting to true when absent.
func (c CatalogEntry) IsActive() bool { return c.Active == nil || *c.Active }

// Recency is updatedAt, falling back to createdAt.
func (c CatalogEntry) Recency() Timestamp { return latest(c.UpdatedAt, c.CreatedAt) }

// KeywordFields for catalog entries.
func (c CatalogEntry) KeywordFields() []string { return []string{c.Name, c.Code} }

// KeywordFields for suppliers.
func (s Supplier) KeywordFields() []string { return []string{s.Name, s.Code, s.Phone, s.Email} }

// Recency is updatedAt, falling back to createdAt.
func (s Supplier) Recency() Timestamp { return latest(s.UpdatedAt, s.CreatedAt) }

// KeywordFields for tags.
func (t Tag) KeywordFields() []string { return []string{t.Name} }

func latest(primary, fallback Timestamp) Timestamp {
	if primary.Valid() {
		return primary
	}
	return fallback
}
