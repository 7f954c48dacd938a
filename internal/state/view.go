package state

import (
	"time"

	"catalog/storefront/internal/domain"
)

// Status is the lifecycle of a view: idle -> loading -> loaded | errored.
// Errored is terminal.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusLoaded  Status = "loaded"
	StatusErrored Status = "errored"
)

// DetailsStatus describes the extended-details panel of the selected variant
type DetailsStatus string

const (
	DetailsNone        DetailsStatus = "none"
	DetailsLoading     DetailsStatus = "loading"
	DetailsReady       DetailsStatus = "ready"
	DetailsFailed      DetailsStatus = "failed"
	DetailsUnavailable DetailsStatus = "unavailable"
)

// CatalogView is the transient state of one visit to the product catalog
type CatalogView struct {
	ID          string           `json:"id"`
	Status      Status           `json:"status"`
	CurrentPage int              `json:"current_page"`
	TotalPages  int              `json:"total_pages"`
	Products    []domain.Product `json:"products"`
	Meta        *domain.PageMeta `json:"meta,omitempty"`
	Error       string           `json:"error,omitempty"`
	Seq         uint64           `json:"seq"` // Token of the latest issued listing fetch

	// Variant detail cache. Entries are merged in and never evicted.
	Details            map[string]domain.VariantDetails `json:"details"`
	FetchedDetailPages map[int]bool                     `json:"fetched_detail_pages"`
	DetailTotalPages   int                              `json:"detail_total_pages"` // 0 until the first detail page arrives
	SelectedVariant    string                           `json:"selected_variant,omitempty"`
	DetailsLoading     bool                             `json:"details_loading"`
	DetailsStartedAt   time.Time                        `json:"details_started_at"`
	DetailsError       string                           `json:"details_error,omitempty"`
	DetailsSeq         uint64                           `json:"details_seq"`

	CreatedAt time.Time `json:"created_at"`
}

func NewCatalogView(id string) *CatalogView {
	return &CatalogView{
		ID:                 id,
		Status:             StatusIdle,
		CurrentPage:        1,
		TotalPages:         1,
		Products:           []domain.Product{},
		Details:            map[string]domain.VariantDetails{},
		FetchedDetailPages: map[int]bool{},
		CreatedAt:          time.Now().UTC(),
	}
}

// BeginPage moves the view to loading for page and returns the fetch token
func (v *CatalogView) BeginPage(page int) uint64 {
	v.CurrentPage = page
	v.Status = StatusLoading
	v.Seq++
	return v.Seq
}

func (v *CatalogView) ApplyPage(page *domain.ProductPage) {
	v.Products = page.Products
	v.Meta = page.Meta
	v.TotalPages = page.Meta.TotalPages()
	v.Status = StatusLoaded
	v.Error = ""
}

func (v *CatalogView) Fail(message string) {
	v.Status = StatusErrored
	v.Error = message
}

func (v *CatalogView) Cached(variantID string) bool {
	_, ok := v.Details[variantID]
	return ok
}

// MergeDetails adds a batch of extended details; later batches win per key
func (v *CatalogView) MergeDetails(page *domain.VariantDetailsPage) {
	if v.Details == nil {
		v.Details = map[string]domain.VariantDetails{}
	}
	if v.FetchedDetailPages == nil {
		v.FetchedDetailPages = map[int]bool{}
	}
	for id, details := range page.Variants {
		v.Details[id] = details
	}
	v.FetchedDetailPages[page.Meta.Page] = true
	v.DetailTotalPages = page.Meta.TotalPages()
}

// NextDetailPage returns the lowest detail page not fetched yet, or 0 once
// every known page has been fetched.
func (v *CatalogView) NextDetailPage() int {
	for page := 1; v.DetailTotalPages == 0 || page <= v.DetailTotalPages; page++ {
		if !v.FetchedDetailPages[page] {
			return page
		}
	}
	return 0
}

func (v *CatalogView) DetailsStatusFor(variantID string) DetailsStatus {
	if variantID == "" || variantID != v.SelectedVariant {
		return DetailsNone
	}
	switch {
	case v.Cached(variantID):
		return DetailsReady
	case v.DetailsLoading:
		return DetailsLoading
	case v.DetailsError != "":
		return DetailsFailed
	default:
		return DetailsUnavailable
	}
}

// BrowserView is the transient state of one visit to the variant details browser
type BrowserView struct {
	ID          string                           `json:"id"`
	Status      Status                           `json:"status"`
	CurrentPage int                              `json:"current_page"`
	TotalPages  int                              `json:"total_pages"`
	Variants    map[string]domain.VariantDetails `json:"variants"`
	Meta        *domain.PageMeta                 `json:"meta,omitempty"`
	Error       string                           `json:"error,omitempty"`
	Seq         uint64                           `json:"seq"`
	CreatedAt   time.Time                        `json:"created_at"`
}

func NewBrowserView(id string) *BrowserView {
	return &BrowserView{
		ID:          id,
		Status:      StatusIdle,
		CurrentPage: 1,
		TotalPages:  1,
		Variants:    map[string]domain.VariantDetails{},
		CreatedAt:   time.Now().UTC(),
	}
}

func (v *BrowserView) BeginPage(page int) uint64 {
	v.CurrentPage = page
	v.Status = StatusLoading
	v.Seq++
	return v.Seq
}

func (v *BrowserView) ApplyPage(page *domain.VariantDetailsPage) {
	v.Variants = page.Variants
	v.Meta = page.Meta
	v.CurrentPage = page.Meta.Page
	v.TotalPages = page.Meta.TotalPages()
	v.Status = StatusLoaded
	v.Error = ""
}

func (v *BrowserView) Fail(message string) {
	v.Status = StatusErrored
	v.Error = message
}
