package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"

	"catalog/storefront/internal/config"
	"catalog/storefront/internal/domain"
	"catalog/storefront/internal/proxy"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

const (
	ProductsPath       = "/products/core"
	VariantDetailsPath = "/products/data"
)

type CatalogClient interface {
	GetProductsPage(ctx context.Context, page int) (*domain.ProductPage, error)
	GetVariantDetailsPage(ctx context.Context, page int) (*domain.VariantDetailsPage, error)
	Close() error
}

type catalogClient struct {
	rl ratelimit.Limiter

	// One client per usable proxy, or a single direct client. Rotation only
	// moves current, so in-flight requests never see a transport change.
	clients []*resty.Client
	proxies []string
	current atomic.Uint32
}

func NewCatalogClient(cfg config.CatalogAPIConfig, proxySupplier proxy.Supplier) CatalogClient {
	proxies := []string{""}
	if proxySupplier != nil && proxySupplier.Len() > 0 {
		proxies = make([]string, 0, proxySupplier.Len())
		for i, n := 0, proxySupplier.Len(); i < n; i++ {
			proxies = append(proxies, proxySupplier.Get())
		}
	}

	clients := make([]*resty.Client, 0, len(proxies))
	for _, proxyURL := range proxies {
		clients = append(clients, newHTTPClient(cfg, proxyURL))
	}
	if proxies[0] != "" {
		log.Infof("🔗 Using %d catalog API proxies, starting with %s", len(proxies), proxies[0])
	}

	rl := ratelimit.NewUnlimited()
	if cfg.MaxRequestsPerSecond > 0 {
		rl = ratelimit.New(cfg.MaxRequestsPerSecond)
	}

	return &catalogClient{
		rl:      rl,
		clients: clients,
		proxies: proxies,
	}
}

func newHTTPClient(cfg config.CatalogAPIConfig, proxyURL string) *resty.Client {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.TimeoutDuration()).
		SetRetryCount(cfg.MaxRetries).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "storefront-catalog-viewer")

	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return client
}

func (c *catalogClient) GetProductsPage(ctx context.Context, page int) (*domain.ProductPage, error) {
	var body domain.ProductPage
	if err := c.fetchJSON(ctx, ProductsPath, page, &body); err != nil {
		return nil, err
	}

	log.Debugf("Fetched products page %d of %d with %d products", body.Meta.Page, body.Meta.Pages, len(body.Products))
	return &body, nil
}

func (c *catalogClient) GetVariantDetailsPage(ctx context.Context, page int) (*domain.VariantDetailsPage, error) {
	var body domain.VariantDetailsPage
	if err := c.fetchJSON(ctx, VariantDetailsPath, page, &body); err != nil {
		return nil, err
	}

	log.Debugf("Fetched variant details page %d of %d with %d variants", body.Meta.Page, body.Meta.Pages, len(body.Variants))
	return &body, nil
}

func (c *catalogClient) fetchJSON(ctx context.Context, path string, page int, out any) error {
	c.rl.Take()

	current := c.current.Load()
	httpClient := c.clients[current%uint32(len(c.clients))]

	resp, err := httpClient.R().
		SetContext(ctx).
		SetQueryParam("page", strconv.Itoa(page)).
		Get(path)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: request cancelled: %w", ErrUnavailable, ctx.Err())
		}
		c.rotateProxy(current)
		return fmt.Errorf("%w: %s?page=%d: %w", ErrUnavailable, path, page, err)
	}

	if !resp.IsSuccess() {
		return &StatusError{Endpoint: path, StatusCode: resp.StatusCode()}
	}

	if err := json.Unmarshal([]byte(resp.String()), out); err != nil {
		return fmt.Errorf("%w: %s?page=%d: %w", ErrMalformedPayload, path, page, err)
	}

	if err := domain.Validate(out); err != nil {
		return fmt.Errorf("%w: %s?page=%d: %w", ErrMalformedPayload, path, page, err)
	}

	return nil
}

// rotateProxy moves later requests to the next proxy after a transport
// failure. Concurrent failures on the same proxy rotate only once.
func (c *catalogClient) rotateProxy(failed uint32) {
	if len(c.clients) < 2 {
		return
	}
	if c.current.CompareAndSwap(failed, failed+1) {
		next := c.proxies[(failed+1)%uint32(len(c.proxies))]
		log.Warnf("🔄 Switching catalog API proxy to %s", next)
	}
}

func (c *catalogClient) Close() error {
	var errs []error
	for _, client := range c.clients {
		if err := client.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
