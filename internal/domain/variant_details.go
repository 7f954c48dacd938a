package domain

// VariantDetails is the extended, descriptive data of a variant
type VariantDetails struct {
	SizeGuidance string   `json:"sizeGuidance"`
	Thickness    string   `json:"thickness"`
	Care         string   `json:"care"`
	Materials    []string `json:"materials" validate:"required"`
}

// VariantDetailsPage is the body of the extended details endpoint
type VariantDetailsPage struct {
	Variants map[string]VariantDetails `json:"variants" validate:"required,dive,keys,required,endkeys,required"`
	Meta     *PageMeta                 `json:"meta" validate:"required"`
}
