package sqlstore

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-issue-metrics/core"
)

const (
	labelCacheKeyPrefix     = "go-issue-metrics::label::v1"
	milestoneCacheKeyPrefix = "go-issue-metrics::milestone::v1"
)

// CachedLabelStore decorates label lookups with a read-through cache. It is
// intended for the non-transactional read path; dispatch units of work read
// the base store directly so lookups see uncommitted writes.
type CachedLabelStore struct {
	base  core.LabelStore
	cache repositorycache.CacheService
}

func NewCachedLabelStore(base core.LabelStore, cacheService repositorycache.CacheService) (*CachedLabelStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base label store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: label cache service is required")
	}
	return &CachedLabelStore{base: base, cache: cacheService}, nil
}

var _ core.LabelStore = (*CachedLabelStore)(nil)

func LabelCacheKey(name string) string {
	return labelCacheKeyPrefix + "::" + url.PathEscape(strings.TrimSpace(name))
}

func (s *CachedLabelStore) GetByName(ctx context.Context, name string) (core.Label, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Label{}, fmt.Errorf("sqlstore: cached label store is not configured")
	}
	return repositorycache.GetOrFetch(ctx, s.cache, LabelCacheKey(name), func(ctx context.Context) (core.Label, error) {
		return s.base.GetByName(ctx, name)
	})
}

func (s *CachedLabelStore) Create(ctx context.Context, label core.Label) (core.Label, error) {
	created, err := s.base.Create(ctx, label)
	if err != nil {
		return core.Label{}, err
	}
	if err := s.cache.Delete(ctx, LabelCacheKey(created.Name)); err != nil {
		return core.Label{}, err
	}
	return created, nil
}

func (s *CachedLabelStore) Rename(ctx context.Context, from string, to string) error {
	if err := s.base.Rename(ctx, from, to); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, LabelCacheKey(from)); err != nil {
		return err
	}
	return s.cache.Delete(ctx, LabelCacheKey(to))
}

func (s *CachedLabelStore) Delete(ctx context.Context, name string) error {
	if err := s.base.Delete(ctx, name); err != nil {
		return err
	}
	return s.cache.Delete(ctx, LabelCacheKey(name))
}

// CachedMilestoneStore mirrors CachedLabelStore for the milestone catalog.
type CachedMilestoneStore struct {
	base  core.MilestoneStore
	cache repositorycache.CacheService
}

func NewCachedMilestoneStore(base core.MilestoneStore, cacheService repositorycache.CacheService) (*CachedMilestoneStore, error) {
	if base == nil {
		return nil, fmt.Errorf("sqlstore: base milestone store is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("sqlstore: milestone cache service is required")
	}
	return &CachedMilestoneStore{base: base, cache: cacheService}, nil
}

var _ core.MilestoneStore = (*CachedMilestoneStore)(nil)

func MilestoneCacheKey(title string) string {
	return milestoneCacheKeyPrefix + "::" + url.PathEscape(strings.TrimSpace(title))
}

func (s *CachedMilestoneStore) GetByTitle(ctx context.Context, title string) (core.Milestone, error) {
	if s == nil || s.base == nil || s.cache == nil {
		return core.Milestone{}, fmt.Errorf("sqlstore: cached milestone store is not configured")
	}
	return repositorycache.GetOrFetch(ctx, s.cache, MilestoneCacheKey(title), func(ctx context.Context) (core.Milestone, error) {
		return s.base.GetByTitle(ctx, title)
	})
}

func (s *CachedMilestoneStore) Create(ctx context.Context, milestone core.Milestone) (core.Milestone, error) {
	created, err := s.base.Create(ctx, milestone)
	if err != nil {
		return core.Milestone{}, err
	}
	if err := s.cache.Delete(ctx, MilestoneCacheKey(created.Title)); err != nil {
		return core.Milestone{}, err
	}
	return created, nil
}

func (s *CachedMilestoneStore) Rename(ctx context.Context, from string, to string) error {
	if err := s.base.Rename(ctx, from, to); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, MilestoneCacheKey(from)); err != nil {
		return err
	}
	return s.cache.Delete(ctx, MilestoneCacheKey(to))
}

func (s *CachedMilestoneStore) Delete(ctx context.Context, title string) error {
	if err := s.base.Delete(ctx, title); err != nil {
		return err
	}
	return s.cache.Delete(ctx, MilestoneCacheKey(title))
}
