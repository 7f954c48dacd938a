package service

import (
	"context"
	"encoding/json"
	"reflect"
	"sync"
	"testing"
	"time"

	"catalog/storefront/internal/state"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

const testKeyPrefix = "storefront:view:"

// conflictHook runs a one-shot callback right before the next MULTI/EXEC so
// another writer can touch the watched view and force a retry.
type conflictHook struct {
	mu     sync.Mutex
	before func()
}

func (h *conflictHook) arm(fn func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.before = fn
}

func (h *conflictHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (h *conflictHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook { return next }

func (h *conflictHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		h.mu.Lock()
		before := h.before
		h.before = nil
		h.mu.Unlock()

		if before != nil {
			before()
		}
		return next(ctx, cmds)
	}
}

type redisFixture struct {
	rdb   *redis.Client
	other *redis.Client
	hook  *conflictHook
}

func newRedisFixture(t *testing.T) *redisFixture {
	t.Helper()
	mr := miniredis.RunT(t)

	hook := &conflictHook{}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	rdb.AddHook(hook)
	other := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		_ = other.Close()
	})

	return &redisFixture{rdb: rdb, other: other, hook: hook}
}

// rewrite returns a callback that edits the stored view through the second client
func rewrite[T any](t *testing.T, f *redisFixture, key string, edit func(v *T)) func() {
	return func() {
		ctx := context.Background()
		data, err := f.other.Get(ctx, key).Bytes()
		if err != nil {
			t.Errorf("read %s: %v", key, err)
			return
		}
		var view T
		if err := json.Unmarshal(data, &view); err != nil {
			t.Errorf("decode %s: %v", key, err)
			return
		}
		edit(&view)
		out, err := json.Marshal(&view)
		if err != nil {
			t.Errorf("encode %s: %v", key, err)
			return
		}
		if err := f.other.Set(ctx, key, out, time.Minute).Err(); err != nil {
			t.Errorf("write %s: %v", key, err)
		}
	}
}

func newRedisCatalog(t *testing.T, pages int) (*CatalogService, *fakeCatalog, *redisFixture) {
	t.Helper()
	f := newRedisFixture(t)
	fake := newFakeCatalog()
	for p := 1; p <= pages; p++ {
		fake.products[p] = productsPage(p, pages)
	}
	views := state.NewRedisStore[state.CatalogView](f.rdb, testKeyPrefix, "catalog", time.Minute)
	return NewCatalogService(fake, views, 1, time.Minute), fake, f
}

func TestChangePageRetryKeepsErroredViewTerminal(t *testing.T) {
	svc, fake, f := newRedisCatalog(t, 3)
	ctx := context.Background()
	view := openCatalog(t, svc)

	// Another request starts page 2 and fails it while this one is in flight
	f.hook.arm(rewrite(t, f, testKeyPrefix+"catalog:"+view.ID, func(v *state.CatalogView) {
		v.BeginPage(2)
		v.Fail(msgProductsFailed)
	}))

	got, err := svc.ChangePage(ctx, view.ID, 3)
	if err != nil {
		t.Fatalf("ChangePage: %v", err)
	}
	if got.Status != state.StatusErrored || got.Error != msgProductsFailed {
		t.Fatalf("errored view changed: %+v", got)
	}
	if calls := fake.ProductCalls(); !reflect.DeepEqual(calls, []int{1}) {
		t.Fatalf("product calls: got %v, want [1]", calls)
	}

	stored, err := svc.Get(ctx, view.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Status != state.StatusErrored || stored.CurrentPage != 2 || stored.Seq != 2 {
		t.Fatalf("stored view: %+v", stored)
	}
}

func TestChangePageRetriesAfterConflict(t *testing.T) {
	svc, fake, f := newRedisCatalog(t, 3)
	view := openCatalog(t, svc)

	// A write that changes nothing still invalidates the WATCH
	f.hook.arm(rewrite(t, f, testKeyPrefix+"catalog:"+view.ID, func(v *state.CatalogView) {}))

	got, err := svc.ChangePage(context.Background(), view.ID, 3)
	if err != nil {
		t.Fatalf("ChangePage: %v", err)
	}
	if got.Status != state.StatusLoaded || got.CurrentPage != 3 || got.Seq != 2 {
		t.Fatalf("unexpected view: %+v", got)
	}
	if calls := fake.ProductCalls(); !reflect.DeepEqual(calls, []int{1, 3}) {
		t.Fatalf("product calls: got %v, want [1 3]", calls)
	}
}

func TestSelectVariantRetrySeesCachedDetails(t *testing.T) {
	svc, fake, f := newRedisCatalog(t, 1)
	fake.details[1] = detailsPage(1, 1, "sku1")
	view := openCatalog(t, svc)

	// A concurrent selection caches the details first
	f.hook.arm(rewrite(t, f, testKeyPrefix+"catalog:"+view.ID, func(v *state.CatalogView) {
		v.MergeDetails(detailsPage(1, 1, "sku1"))
	}))

	got, err := svc.SelectVariant(context.Background(), view.ID, "sku1")
	if err != nil {
		t.Fatalf("SelectVariant: %v", err)
	}
	if calls := fake.DetailCalls(); len(calls) != 0 {
		t.Fatalf("cached details were fetched again: %v", calls)
	}
	if got.DetailsLoading || got.DetailsStatusFor("sku1") != state.DetailsReady {
		t.Fatalf("unexpected view: %+v", got)
	}
}

func TestBrowserRetryKeepsErroredViewTerminal(t *testing.T) {
	f := newRedisFixture(t)
	fake := newFakeCatalog()
	fake.details[1] = detailsPage(1, 3, "a")
	fake.details[2] = detailsPage(2, 3, "b")
	svc := NewBrowserService(fake, state.NewRedisStore[state.BrowserView](f.rdb, testKeyPrefix, "details", time.Minute))
	ctx := context.Background()

	view, err := svc.Open(ctx)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	f.hook.arm(rewrite(t, f, testKeyPrefix+"details:"+view.ID, func(v *state.BrowserView) {
		v.BeginPage(3)
		v.Fail(msgDetailsFailed)
	}))

	got, err := svc.GoTo(ctx, view.ID, 2)
	if err != nil {
		t.Fatalf("GoTo: %v", err)
	}
	if got.Status != state.StatusErrored || got.CurrentPage != 3 {
		t.Fatalf("errored browser changed: %+v", got)
	}
	if calls := fake.DetailCalls(); !reflect.DeepEqual(calls, []int{1}) {
		t.Fatalf("detail calls: got %v, want [1]", calls)
	}
}
