package sqlstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-issue-metrics/core"
)

type stubLabelStore struct {
	mu       sync.Mutex
	labels   map[string]core.Label
	getCalls int
	getErr   error
}

func newStubLabelStore(names ...string) *stubLabelStore {
	store := &stubLabelStore{labels: map[string]core.Label{}}
	for _, name := range names {
		store.labels[name] = core.Label{Name: name}
	}
	return store
}

func (s *stubLabelStore) GetByName(_ context.Context, name string) (core.Label, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	if s.getErr != nil {
		return core.Label{}, s.getErr
	}
	label, ok := s.labels[name]
	if !ok {
		return core.Label{}, core.ErrLabelNotFound
	}
	return label, nil
}

func (s *stubLabelStore) Create(_ context.Context, label core.Label) (core.Label, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.labels[label.Name] = label
	return label, nil
}

func (s *stubLabelStore) Rename(_ context.Context, from string, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.labels, from)
	s.labels[to] = core.Label{Name: to}
	return nil
}

func (s *stubLabelStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.labels, name)
	return nil
}

func TestCachedLabelStore_GetByName_MissFetchThenHit(t *testing.T) {
	cacheService := newTestCatalogCacheService(t)
	base := newStubLabelStore("bug")

	store, err := NewCachedLabelStore(base, cacheService)
	if err != nil {
		t.Fatalf("new cached label store: %v", err)
	}

	if _, err := store.GetByName(context.Background(), "bug"); err != nil {
		t.Fatalf("first get: %v", err)
	}
	if base.getCalls != 1 {
		t.Fatalf("expected first get to fetch base store once, got %d", base.getCalls)
	}

	if _, err := store.GetByName(context.Background(), "bug"); err != nil {
		t.Fatalf("second get: %v", err)
	}
	if base.getCalls != 1 {
		t.Fatalf("expected second get to be cache hit, base get calls=%d", base.getCalls)
	}
}

func TestCachedLabelStore_Rename_InvalidatesBothKeys(t *testing.T) {
	cacheService := newTestCatalogCacheService(t)
	base := newStubLabelStore("bug")

	store, err := NewCachedLabelStore(base, cacheService)
	if err != nil {
		t.Fatalf("new cached label store: %v", err)
	}

	if _, err := store.GetByName(context.Background(), "bug"); err != nil {
		t.Fatalf("prime cache with get: %v", err)
	}
	if base.getCalls != 1 {
		t.Fatalf("expected one base read after cache prime, got %d", base.getCalls)
	}

	if err := store.Rename(context.Background(), "bug", "defect"); err != nil {
		t.Fatalf("rename through cached store: %v", err)
	}

	if _, err := store.GetByName(context.Background(), "bug"); !errors.Is(err, core.ErrLabelNotFound) {
		t.Fatalf("expected stale source key evicted, got %v", err)
	}
	label, err := store.GetByName(context.Background(), "defect")
	if err != nil {
		t.Fatalf("get renamed label: %v", err)
	}
	if label.Name != "defect" {
		t.Fatalf("expected renamed label, got %+v", label)
	}
	if base.getCalls != 3 {
		t.Fatalf("expected invalidation to force fresh base reads, got %d", base.getCalls)
	}
}

func TestLabelCacheKey_Contract(t *testing.T) {
	key := LabelCacheKey(" status: needs info ")
	const expected = "go-issue-metrics::label::v1::status:%20needs%20info"
	if key != expected {
		t.Fatalf("unexpected cache key contract: got %q want %q", key, expected)
	}
}

func TestCachedLabelStore_PropagatesBaseErrors(t *testing.T) {
	cacheService := newTestCatalogCacheService(t)
	base := newStubLabelStore()
	base.getErr = core.ErrLabelNotFound

	store, err := NewCachedLabelStore(base, cacheService)
	if err != nil {
		t.Fatalf("new cached label store: %v", err)
	}

	if _, err := store.GetByName(context.Background(), "missing"); !errors.Is(err, core.ErrLabelNotFound) {
		t.Fatalf("expected base error propagation, got %v", err)
	}
}

func newTestCatalogCacheService(t *testing.T) repositorycache.CacheService {
	t.Helper()
	config := repositorycache.DefaultConfig()
	config.TTL = time.Minute
	service, err := repositorycache.NewCacheService(config)
	if err != nil {
		t.Fatalf("new cache service: %v", err)
	}
	return service
}
