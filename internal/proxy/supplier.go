package proxy

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"resty.dev/v3"
)

const maxConcurrentProbes = 16

// Supplier hands out outbound proxies for the catalog API client
type Supplier interface {
	Get() string
	Len() int
}

type roundRobin struct {
	proxies []string
	current int
	mutex   sync.Mutex
}

// NewSupplier probes every proxy against probeURL and keeps the ones that
// answer with a 2xx. An empty list yields a supplier that never returns a proxy.
func NewSupplier(ctx context.Context, proxies []string, probeURL string) (Supplier, error) {
	if len(proxies) == 0 {
		return &roundRobin{}, nil
	}

	log.Infof("🔄 Probing %d catalog API proxies...", len(proxies))

	healthy := make([]bool, len(proxies))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentProbes)

	for i, proxyURL := range proxies {
		i, proxyURL := i, proxyURL
		g.Go(func() error {
			healthy[i] = probe(gctx, proxyURL, probeURL)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	valid := make([]string, 0, len(proxies))
	for i, ok := range healthy {
		if ok {
			valid = append(valid, proxies[i])
		}
	}

	log.Infof("✅ Proxy supplier ready with %d of %d proxies", len(valid), len(proxies))

	return &roundRobin{proxies: valid}, nil
}

// Get returns the next proxy URL, or "" when none are usable
func (p *roundRobin) Get() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if len(p.proxies) == 0 {
		return ""
	}

	proxyURL := p.proxies[p.current]
	p.current = (p.current + 1) % len(p.proxies)

	return proxyURL
}

func (p *roundRobin) Len() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return len(p.proxies)
}

func probe(ctx context.Context, proxyURL, probeURL string) bool {
	client := resty.New().
		SetTimeout(5 * time.Second).
		SetRetryCount(0).
		SetProxy(proxyURL)
	defer client.Close()

	resp, err := client.R().
		SetContext(ctx).
		SetQueryParam("page", "1").
		Get(probeURL)
	if err != nil {
		log.Warnf("❌ Proxy %s failed probe: %v", proxyURL, err)
		return false
	}

	if !resp.IsSuccess() {
		log.Warnf("❌ Proxy %s failed probe with status: %s", proxyURL, resp.Status())
		return false
	}

	log.Debugf("✅ Proxy %s is usable", proxyURL)
	return true
}
