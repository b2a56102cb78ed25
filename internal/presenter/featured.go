package presenter

import (
	"context"
	"log/slog"
	"maps"
	"strconv"
	"sync"

	"github.com/rpggio/crowdfund/internal/domain/escrow"
	"github.com/rpggio/crowdfund/internal/domain/project"
	"github.com/rpggio/crowdfund/internal/fetch"
	"github.com/rpggio/crowdfund/internal/identity"
)

// FeaturedData is the cached value for the featured projects list. Stats fill
// in progressively after the list is ready.
type FeaturedData struct {
	Projects []project.ProjectWithOwner

	mu         sync.RWMutex
	stats      map[string]escrow.Stats
	enrichment *fetch.Enrichment
}

func newFeaturedData(projects []project.ProjectWithOwner) *FeaturedData {
	return &FeaturedData{
		Projects: projects,
		stats:    make(map[string]escrow.Stats, len(projects)),
	}
}

// Stats returns a snapshot of the stats resolved so far, keyed by project id.
func (d *FeaturedData) Stats() map[string]escrow.Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return maps.Clone(d.stats)
}

func (d *FeaturedData) setStats(id string, st escrow.Stats) {
	d.mu.Lock()
	d.stats[id] = st
	d.mu.Unlock()
}

// Wait blocks until every project's stats have settled.
func (d *FeaturedData) Wait(ctx context.Context) error {
	if d.enrichment == nil {
		return nil
	}
	return d.enrichment.Wait(ctx)
}

// FeaturedView is what the featured projects section renders from.
type FeaturedView struct {
	Projects []project.ProjectWithOwner
	Stats    map[string]escrow.Stats
	Loading  bool
	Fetching bool
	// Empty is the "no projects featured" condition.
	Empty bool
	Err   error
}

func featuredView(st fetch.State) FeaturedView {
	v := FeaturedView{
		Projects: []project.ProjectWithOwner{},
		Stats:    map[string]escrow.Stats{},
		Loading:  st.IsLoading,
		Fetching: st.IsFetching,
		Err:      st.Err,
	}
	if data, ok := st.Value.(*FeaturedData); ok && data != nil {
		if data.Projects != nil {
			v.Projects = data.Projects
		}
		v.Stats = data.Stats()
	}
	v.Empty = !v.Loading && len(v.Projects) == 0
	return v
}

// Featured presents the featured projects with their escrow stats.
type Featured struct {
	backend ProjectLister
	escrow  StatsReader
	logger  *slog.Logger
}

// NewFeatured creates the featured projects presenter.
func NewFeatured(backend ProjectLister, escrow StatsReader, logger *slog.Logger) *Featured {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Featured{backend: backend, escrow: escrow, logger: logger}
}

// FeaturedKey is the cache key for the featured list as seen by ctx's caller.
func FeaturedKey(ctx context.Context) fetch.Key {
	if id, ok := identity.Authenticated(ctx); ok {
		return fetch.NewKey(featuredProjectsKey, id.Principal)
	}
	return fetch.NewKey(featuredProjectsKey, anonymousKeyPart)
}

// FeaturedQuery is an open subscription to the featured list.
type FeaturedQuery struct {
	sub *fetch.Subscription
}

// View returns the latest view.
func (q *FeaturedQuery) View() FeaturedView { return featuredView(q.sub.State()) }

// Data returns the cached value, or nil before the first result.
func (q *FeaturedQuery) Data() *FeaturedData {
	st := q.sub.State()
	if st.IsPlaceholder {
		return nil
	}
	data, _ := st.Value.(*FeaturedData)
	return data
}

// Refetch reloads the list.
func (q *FeaturedQuery) Refetch() bool { return q.sub.Refetch() }

// Close tears the query down.
func (q *FeaturedQuery) Close() { q.sub.Close() }

// Open subscribes to the featured list using the cache in ctx. onChange
// receives every view change and may be nil.
func (f *Featured) Open(ctx context.Context, onChange func(FeaturedView)) (*FeaturedQuery, error) {
	cache, err := cacheFrom(ctx)
	if err != nil {
		return nil, err
	}

	key := FeaturedKey(ctx)
	caller, hasCaller := identity.FromContext(ctx)

	fetcher := func(fctx context.Context) (any, error) {
		fctx = withCaller(fctx, caller, hasCaller)
		projects, err := f.backend.ListProjects(fctx)
		if err != nil {
			return nil, err
		}
		data := newFeaturedData(projects)

		ids := make([]string, 0, len(projects))
		for _, p := range projects {
			ids = append(ids, p.Project.ID)
		}
		data.enrichment = fetch.Enrich(fctx, ids, f.projectStats, escrow.Stats{},
			func(id string, st escrow.Stats) {
				data.setStats(id, st)
				// Wake subscribers; the stats live on data, not in the entry.
				cache.Update(key, func(v any) any { return v })
			}, f.logger)

		f.logger.Debug("featured projects loaded", "count", len(projects))
		return data, nil
	}

	var listener fetch.Listener
	if onChange != nil {
		listener = func(st fetch.State) { onChange(featuredView(st)) }
	}

	sub := cache.Subscribe(key, fetcher, listener,
		fetch.WithPlaceholder(newFeaturedData([]project.ProjectWithOwner{})),
		fetch.WithRefetchOnFocus(false),
	)
	return &FeaturedQuery{sub: sub}, nil
}

func (f *Featured) projectStats(ctx context.Context, id string) (escrow.Stats, error) {
	projectID, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return escrow.Stats{}, err
	}
	return f.escrow.GetProjectStats(ctx, projectID)
}
