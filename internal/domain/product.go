package domain

// ProductVariant is the listing shape of a purchasable configuration of a product
type ProductVariant struct {
	Price        int64  `json:"price" validate:"gte=0"`        // Minor currency units
	Color        string `json:"color"`                         // Display color
	Size         string `json:"size"`                          // Display size
	QtyAvailable int    `json:"qtyAvailable" validate:"gte=0"` // Units in stock
}

type Product struct {
	Name     string                    `json:"name" validate:"required"`
	PackSize *int                      `json:"packSize,omitempty" validate:"omitempty,gt=0"`
	Variants map[string]ProductVariant `json:"variants" validate:"required,dive,keys,required,endkeys,required"`
}

// ProductPage is the body of the listing endpoint
type ProductPage struct {
	Products []Product `json:"products" validate:"required,dive"`
	Meta     *PageMeta `json:"meta" validate:"required"`
}

// VariantIDs returns the ids of all variants listed on the page
func (p *ProductPage) VariantIDs() []string {
	ids := make([]string, 0)
	for _, product := range p.Products {
		for id := range product.Variants {
			ids = append(ids, id)
		}
	}
	return ids
}
