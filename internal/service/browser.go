package service

import (
	"context"
	"fmt"

	"catalog/storefront/internal/client"
	"catalog/storefront/internal/state"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type Direction string

const (
	DirectionPrev Direction = "prev"
	DirectionNext Direction = "next"
)

// BrowserService drives the variant details browser, which pages through the
// extended details endpoint following the prev/next links of each page.
type BrowserService struct {
	client client.CatalogClient
	views  state.Store[state.BrowserView]
}

func NewBrowserService(client client.CatalogClient, views state.Store[state.BrowserView]) *BrowserService {
	return &BrowserService{
		client: client,
		views:  views,
	}
}

func (s *BrowserService) Open(ctx context.Context) (*state.BrowserView, error) {
	id := uuid.NewString()
	if err := s.views.Create(ctx, id, state.NewBrowserView(id)); err != nil {
		return nil, fmt.Errorf("failed to create browser view: %w", err)
	}

	log.Infof("🆕 Opened details browser view %s", id)

	return s.begin(ctx, id, func(v *state.BrowserView) int { return 1 })
}

func (s *BrowserService) Get(ctx context.Context, id string) (*state.BrowserView, error) {
	return s.views.Get(ctx, id)
}

// Navigate follows the prev or next link of the current page; a missing link is a no-op
func (s *BrowserService) Navigate(ctx context.Context, id string, direction Direction) (*state.BrowserView, error) {
	return s.begin(ctx, id, func(v *state.BrowserView) int {
		if v.Status != state.StatusLoaded || v.Meta == nil {
			return 0
		}
		switch {
		case direction == DirectionPrev && v.Meta.HasPrev():
			return *v.Meta.Prev
		case direction == DirectionNext && v.Meta.HasNext():
			return *v.Meta.Next
		}
		return 0
	})
}

// GoTo jumps to page when it lies within [1, totalPages]
func (s *BrowserService) GoTo(ctx context.Context, id string, page int) (*state.BrowserView, error) {
	return s.begin(ctx, id, func(v *state.BrowserView) int {
		if v.Status == state.StatusErrored || !InRange(page, v.TotalPages) {
			return 0
		}
		return page
	})
}

// begin asks target for the page to load (0 for none) and fetches it
func (s *BrowserService) begin(ctx context.Context, id string, target func(v *state.BrowserView) int) (*state.BrowserView, error) {
	var (
		token uint64
		page  int
	)

	// Update may run fn more than once; outputs are reset on every attempt
	view, err := s.views.Update(ctx, id, func(v *state.BrowserView) error {
		token = 0
		if page = target(v); page == 0 {
			return nil
		}
		token = v.BeginPage(page)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if token == 0 {
		log.Debugf("Ignoring navigation on browser view %s (%s)", id, view.Status)
		return view, nil
	}

	details, fetchErr := s.client.GetVariantDetailsPage(context.WithoutCancel(ctx), page)
	if fetchErr != nil {
		log.Errorf("❌ Failed to fetch variant details page %d for browser view %s: %v", page, id, fetchErr)
	}

	stale := false
	view, err = s.views.Update(ctx, id, func(v *state.BrowserView) error {
		stale = false
		if v.Seq != token {
			stale = true
			return nil
		}
		if fetchErr != nil {
			v.Fail(userMessage(fetchErr, msgDetailsFailed))
			return nil
		}
		v.ApplyPage(details)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if stale {
		log.Debugf("Discarded stale details page %d for browser view %s", page, id)
	}

	return view, nil
}
