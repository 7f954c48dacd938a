package service

import (
	"context"
	"fmt"
	"sync"

	"catalog/storefront/internal/domain"
)

func intPtr(i int) *int { return &i }

func pageMeta(page, pages, count int) *domain.PageMeta {
	meta := &domain.PageMeta{Page: page, Pages: pages, Count: count}
	if page > 1 {
		meta.Prev = intPtr(page - 1)
	}
	if page < pages {
		meta.Next = intPtr(page + 1)
	}
	return meta
}

func productsPage(page, pages int) *domain.ProductPage {
	sku := fmt.Sprintf("sku%d", page)
	return &domain.ProductPage{
		Products: []domain.Product{{
			Name: fmt.Sprintf("Mat %d", page),
			Variants: map[string]domain.ProductVariant{
				sku: {Price: 1999, Color: "blue", Size: "M", QtyAvailable: 5},
			},
		}},
		Meta: pageMeta(page, pages, pages*10),
	}
}

func detailsPage(page, pages int, ids ...string) *domain.VariantDetailsPage {
	variants := make(map[string]domain.VariantDetails, len(ids))
	for _, id := range ids {
		variants[id] = domain.VariantDetails{
			SizeGuidance: "true to size",
			Thickness:    "4mm",
			Care:         "wipe " + id,
			Materials:    []string{"cork", "rubber"},
		}
	}
	return &domain.VariantDetailsPage{Variants: variants, Meta: pageMeta(page, pages, len(ids))}
}

// fakeCatalog serves canned pages and records every request. A gate holds a
// request open until the channel is closed; started reports gated requests.
type fakeCatalog struct {
	mu           sync.Mutex
	products     map[int]*domain.ProductPage
	details      map[int]*domain.VariantDetailsPage
	productErr   map[int]error
	detailErr    map[int]error
	productGate  map[int]chan struct{}
	detailGate   map[int]chan struct{}
	started      chan int
	productCalls []int
	detailCalls  []int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		products:    map[int]*domain.ProductPage{},
		details:     map[int]*domain.VariantDetailsPage{},
		productErr:  map[int]error{},
		detailErr:   map[int]error{},
		productGate: map[int]chan struct{}{},
		detailGate:  map[int]chan struct{}{},
		started:     make(chan int, 4),
	}
}

func (f *fakeCatalog) GetProductsPage(ctx context.Context, page int) (*domain.ProductPage, error) {
	f.mu.Lock()
	f.productCalls = append(f.productCalls, page)
	gate := f.productGate[page]
	f.mu.Unlock()

	if gate != nil {
		f.started <- page
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.productErr[page]; err != nil {
		return nil, err
	}
	if p, ok := f.products[page]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("no products page %d in fake", page)
}

func (f *fakeCatalog) GetVariantDetailsPage(ctx context.Context, page int) (*domain.VariantDetailsPage, error) {
	f.mu.Lock()
	f.detailCalls = append(f.detailCalls, page)
	gate := f.detailGate[page]
	f.mu.Unlock()

	if gate != nil {
		f.started <- page
		<-gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.detailErr[page]; err != nil {
		return nil, err
	}
	if p, ok := f.details[page]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("no details page %d in fake", page)
}

func (f *fakeCatalog) Close() error { return nil }

func (f *fakeCatalog) ProductCalls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.productCalls...)
}

func (f *fakeCatalog) DetailCalls() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.detailCalls...)
}
