package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog/storefront/internal/client"
	"catalog/storefront/internal/state"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var ErrInvalidVariant = errors.New("invalid variant id")

// CatalogService drives the product catalog view: the listing loader, the
// pagination controller and the variant detail cache.
type CatalogService struct {
	client          client.CatalogClient
	views           state.Store[state.CatalogView]
	detailScanPages int
	detailsTimeout  time.Duration
}

// NewCatalogService wires the catalog view. detailScanPages bounds how many
// unfetched detail pages one selection may walk; detailsTimeout is how long an
// in-flight detail fetch blocks further ones.
func NewCatalogService(
	client client.CatalogClient,
	views state.Store[state.CatalogView],
	detailScanPages int,
	detailsTimeout time.Duration,
) *CatalogService {
	return &CatalogService{
		client:          client,
		views:           views,
		detailScanPages: max(detailScanPages, 1),
		detailsTimeout:  detailsTimeout,
	}
}

// Open starts a new catalog view and loads its first page
func (s *CatalogService) Open(ctx context.Context) (*state.CatalogView, error) {
	id := uuid.NewString()
	if err := s.views.Create(ctx, id, state.NewCatalogView(id)); err != nil {
		return nil, fmt.Errorf("failed to create catalog view: %w", err)
	}

	log.Infof("🆕 Opened catalog view %s", id)

	var token uint64
	if _, err := s.views.Update(ctx, id, func(v *state.CatalogView) error {
		token = v.BeginPage(1)
		return nil
	}); err != nil {
		return nil, err
	}

	return s.fetchPage(ctx, id, 1, token)
}

func (s *CatalogService) Get(ctx context.Context, id string) (*state.CatalogView, error) {
	return s.views.Get(ctx, id)
}

// ChangePage moves the view to page and re-fetches it. Pages outside
// [1, totalPages] and errored views are left untouched.
func (s *CatalogService) ChangePage(ctx context.Context, id string, page int) (*state.CatalogView, error) {
	var token uint64

	// Update may run fn more than once; outputs are reset on every attempt
	view, err := s.views.Update(ctx, id, func(v *state.CatalogView) error {
		token = 0
		if v.Status == state.StatusErrored || !InRange(page, v.TotalPages) {
			return nil
		}
		token = v.BeginPage(page)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if token == 0 {
		log.Debugf("Ignoring page change to %d on view %s (%s, %d pages)", page, id, view.Status, view.TotalPages)
		return view, nil
	}

	return s.fetchPage(ctx, id, page, token)
}

func (s *CatalogService) fetchPage(ctx context.Context, id string, page int, token uint64) (*state.CatalogView, error) {
	// The fetch outlives a client that navigates away; a newer fetch supersedes it instead
	products, fetchErr := s.client.GetProductsPage(context.WithoutCancel(ctx), page)
	if fetchErr != nil {
		log.Errorf("❌ Failed to fetch products page %d for view %s: %v", page, id, fetchErr)
	}

	stale := false
	view, err := s.views.Update(ctx, id, func(v *state.CatalogView) error {
		stale = false
		if v.Seq != token {
			stale = true
			return nil
		}
		if fetchErr != nil {
			v.Fail(userMessage(fetchErr, msgProductsFailed))
			return nil
		}
		v.ApplyPage(products)
		return nil
	})
	if err != nil {
		return nil, err
	}

	switch {
	case stale:
		log.Debugf("Discarded stale products page %d for view %s", page, id)
	case fetchErr == nil:
		log.Debugf("Loaded products page %d (%d variants) into view %s", page, len(products.VariantIDs()), id)
	}

	return view, nil
}

// SelectVariant marks variantID as selected, fetching extended details only
// when they are not cached. Each detail page is fetched at most once per view.
func (s *CatalogService) SelectVariant(ctx context.Context, id, variantID string) (*state.CatalogView, error) {
	if variantID == "" {
		return nil, ErrInvalidVariant
	}

	var (
		token uint64
		page  int
	)

	view, err := s.views.Update(ctx, id, func(v *state.CatalogView) error {
		token, page = 0, 0
		if v.Status == state.StatusErrored {
			return nil
		}
		if v.Cached(variantID) {
			v.SelectedVariant = variantID
			return nil
		}
		if v.DetailsLoading && time.Since(v.DetailsStartedAt) < s.detailsTimeout {
			return nil
		}

		v.SelectedVariant = variantID
		v.DetailsError = ""
		v.DetailsLoading = false

		page = v.NextDetailPage()
		if page == 0 {
			return nil
		}

		v.DetailsSeq++
		v.DetailsLoading = true
		v.DetailsStartedAt = time.Now().UTC()
		token = v.DetailsSeq
		return nil
	})
	if err != nil {
		return nil, err
	}

	if token == 0 {
		return view, nil
	}

	for scanned := 1; ; scanned++ {
		next, done, view, err := s.fetchDetails(ctx, id, variantID, page, token, scanned >= s.detailScanPages)
		if err != nil || done {
			return view, err
		}
		page = next
	}
}

// fetchDetails fetches one detail page and merges it. It reports the next page
// to scan when the selected variant is still missing and scanning may go on.
func (s *CatalogService) fetchDetails(
	ctx context.Context,
	id, variantID string,
	page int,
	token uint64,
	lastScan bool,
) (int, bool, *state.CatalogView, error) {
	details, fetchErr := s.client.GetVariantDetailsPage(context.WithoutCancel(ctx), page)
	if fetchErr != nil {
		log.Errorf("❌ Failed to fetch variant details page %d for view %s: %v", page, id, fetchErr)
	}

	next := 0
	stale := false
	view, err := s.views.Update(ctx, id, func(v *state.CatalogView) error {
		next, stale = 0, false
		if v.DetailsSeq != token {
			stale = true
			return nil
		}
		if fetchErr != nil {
			v.DetailsLoading = false
			v.DetailsError = userMessage(fetchErr, msgDetailsFailed)
			return nil
		}

		v.MergeDetails(details)
		if !v.Cached(variantID) && !lastScan {
			next = v.NextDetailPage()
		}
		if next == 0 {
			v.DetailsLoading = false
		}
		return nil
	})
	if err != nil {
		return 0, true, nil, err
	}

	if stale {
		log.Debugf("Discarded stale variant details page %d for view %s", page, id)
		return 0, true, view, nil
	}

	if fetchErr == nil {
		log.Debugf("Merged %d variant details from page %d into view %s", len(details.Variants), page, id)
	}

	return next, next == 0, view, nil
}
