package domain

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(pageMetaStructLevel, PageMeta{})
	return v
}

// pageMetaStructLevel checks the relations between the envelope fields
func pageMetaStructLevel(sl validator.StructLevel) {
	meta := sl.Current().Interface().(PageMeta)

	if meta.Pages > 0 && meta.Page > meta.Pages {
		sl.ReportError(meta.Page, "Page", "page", "ltefield", "Pages")
	}
	if meta.Prev != nil && *meta.Prev != meta.Page-1 {
		sl.ReportError(meta.Prev, "Prev", "prev", "prevpage", "")
	}
	if meta.Next != nil && *meta.Next != meta.Page+1 {
		sl.ReportError(meta.Next, "Next", "next", "nextpage", "")
	}
}

// Validate checks a decoded response body against its schema
func Validate(body any) error {
	if err := validate.Struct(body); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
