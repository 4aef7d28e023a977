package sqlstore

import (
	"context"
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	repository "github.com/goliatone/go-repository-bun"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-issue-metrics/core"
	"github.com/uptrace/bun"
)

type repos struct {
	issues      repository.Repository[*issueRecord]
	issueLabels repository.Repository[*issueLabelRecord]
	labels      repository.Repository[*labelRecord]
	milestones  repository.Repository[*milestoneRecord]
	events      repository.Repository[*eventRecord]
	dailyTotals repository.Repository[*dailyTotalRecord]
}

// StoreProvider wires every entity store over one bun handle and acts as the
// unit of work for the dispatcher: Within binds the same stores to a single
// transaction.
type StoreProvider struct {
	db               *bun.DB
	repos            repos
	cachedLabels     core.LabelStore
	cachedMilestones core.MilestoneStore
}

var _ core.UnitOfWork = (*StoreProvider)(nil)

func New(db *bun.DB) (*StoreProvider, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	provider := &StoreProvider{db: db}
	if err := provider.initRepos(); err != nil {
		return nil, err
	}
	return provider, nil
}

func NewFromPersistence(client *persistence.Client) (*StoreProvider, error) {
	if client == nil {
		return nil, fmt.Errorf("sqlstore: persistence client is required")
	}
	return New(client.DB())
}

func (p *StoreProvider) DB() *bun.DB {
	if p == nil {
		return nil
	}
	return p.db
}

func (p *StoreProvider) Issues() core.IssueStore {
	return &IssueStore{idb: p.db, repo: p.repos.issues, link: p.repos.issueLabels}
}

func (p *StoreProvider) Labels() core.LabelStore {
	if p.cachedLabels != nil {
		return p.cachedLabels
	}
	return &LabelStore{idb: p.db, repo: p.repos.labels}
}

func (p *StoreProvider) Milestones() core.MilestoneStore {
	if p.cachedMilestones != nil {
		return p.cachedMilestones
	}
	return &MilestoneStore{idb: p.db, repo: p.repos.milestones}
}

// WithCatalogCache decorates the non-transactional label and milestone read
// path with the read-through cache. Transaction-bound stores handed out by
// Within stay uncached, so in-flight units never observe a stale lookup; the
// decorators invalidate their keys on rename and delete.
func (p *StoreProvider) WithCatalogCache(cacheService repositorycache.CacheService) (*StoreProvider, error) {
	if p == nil || p.db == nil {
		return nil, fmt.Errorf("sqlstore: store provider is not configured")
	}
	labels, err := NewCachedLabelStore(&LabelStore{idb: p.db, repo: p.repos.labels}, cacheService)
	if err != nil {
		return nil, err
	}
	milestones, err := NewCachedMilestoneStore(&MilestoneStore{idb: p.db, repo: p.repos.milestones}, cacheService)
	if err != nil {
		return nil, err
	}
	p.cachedLabels = labels
	p.cachedMilestones = milestones
	return p, nil
}

func (p *StoreProvider) Events() core.EventStore {
	return &EventStore{idb: p.db, repo: p.repos.events}
}

func (p *StoreProvider) DailyTotals() core.DailyTotalStore {
	return &DailyTotalStore{idb: p.db, repo: p.repos.dailyTotals}
}

// Within runs fn against transaction-bound stores. The transaction commits
// when fn returns nil and rolls back otherwise.
func (p *StoreProvider) Within(ctx context.Context, fn func(ctx context.Context, stores core.Stores) error) error {
	if p == nil || p.db == nil {
		return fmt.Errorf("sqlstore: store provider is not configured")
	}
	return p.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &txStores{provider: p, tx: tx})
	})
}

type txStores struct {
	provider *StoreProvider
	tx       bun.Tx
}

var _ core.Stores = (*txStores)(nil)

func (s *txStores) Issues() core.IssueStore {
	return &IssueStore{idb: s.tx, tx: &s.tx, repo: s.provider.repos.issues, link: s.provider.repos.issueLabels}
}

func (s *txStores) Labels() core.LabelStore {
	return &LabelStore{idb: s.tx, tx: &s.tx, repo: s.provider.repos.labels}
}

func (s *txStores) Milestones() core.MilestoneStore {
	return &MilestoneStore{idb: s.tx, tx: &s.tx, repo: s.provider.repos.milestones}
}

func (s *txStores) Events() core.EventStore {
	return &EventStore{idb: s.tx, tx: &s.tx, repo: s.provider.repos.events}
}

func (s *txStores) DailyTotals() core.DailyTotalStore {
	return &DailyTotalStore{idb: s.tx, tx: &s.tx, repo: s.provider.repos.dailyTotals}
}

func (p *StoreProvider) initRepos() error {
	p.repos.issues = repository.NewRepository[*issueRecord](p.db, issueHandlers())
	if err := validateRepo(p.repos.issues, "issue"); err != nil {
		return err
	}
	p.repos.issueLabels = repository.NewRepository[*issueLabelRecord](p.db, issueLabelHandlers())
	if err := validateRepo(p.repos.issueLabels, "issue label"); err != nil {
		return err
	}
	p.repos.labels = repository.NewRepository[*labelRecord](p.db, labelHandlers())
	if err := validateRepo(p.repos.labels, "label"); err != nil {
		return err
	}
	p.repos.milestones = repository.NewRepository[*milestoneRecord](p.db, milestoneHandlers())
	if err := validateRepo(p.repos.milestones, "milestone"); err != nil {
		return err
	}
	p.repos.events = repository.NewRepository[*eventRecord](p.db, eventHandlers())
	if err := validateRepo(p.repos.events, "event"); err != nil {
		return err
	}
	p.repos.dailyTotals = repository.NewRepository[*dailyTotalRecord](p.db, dailyTotalHandlers())
	if err := validateRepo(p.repos.dailyTotals, "daily total"); err != nil {
		return err
	}
	return nil
}

func validateRepo(repo any, name string) error {
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("sqlstore: invalid %s repository wiring: %w", name, err)
		}
	}
	return nil
}
