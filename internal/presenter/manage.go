package presenter

import (
	"context"
	"log/slog"

	"github.com/rpggio/crowdfund/internal/domain/project"
	"github.com/rpggio/crowdfund/internal/fetch"
	"github.com/rpggio/crowdfund/internal/identity"
)

// ManageView is the state of the manage project page.
type ManageView struct {
	LoginPrompt bool
	Loading     bool
	// Redirect is set once the caller's projects are known and no project
	// was selected.
	Redirect string
	// ProjectID is the project being managed.
	ProjectID string
	Err       error
}

func manageView(st fetch.State) ManageView {
	v := ManageView{Loading: st.Status == fetch.StatusLoading || st.Status == fetch.StatusIdle, Err: st.Err}
	if st.Status != fetch.StatusReady {
		return v
	}
	projects, _ := st.Value.([]project.Project)
	if len(projects) == 0 {
		v.Redirect = CreateProjectPath
	} else {
		v.Redirect = ManageProjectPath(projects[0].ID)
	}
	return v
}

// Manage presents the manage project page.
type Manage struct {
	backend MyProjectsLister
	logger  *slog.Logger
}

// NewManage creates the manage project presenter.
func NewManage(backend MyProjectsLister, logger *slog.Logger) *Manage {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manage{backend: backend, logger: logger}
}

// MyProjectsKey is the cache key for a principal's own projects.
func MyProjectsKey(principal string) fetch.Key {
	return fetch.NewKey(myProjectsKey, principal)
}

// ManageQuery is an open manage page. Queries for signed-out callers or an
// already selected project hold no subscription.
type ManageQuery struct {
	sub  *fetch.Subscription
	view ManageView
}

// View returns the latest view.
func (q *ManageQuery) View() ManageView {
	if q.sub == nil {
		return q.view
	}
	return manageView(q.sub.State())
}

// Close tears the query down.
func (q *ManageQuery) Close() {
	if q.sub != nil {
		q.sub.Close()
	}
}

// Open resolves the manage page for ctx's caller. Without a signed-in
// identity the view is a login prompt and no cache key is created. When
// projectID is empty the caller's projects are fetched to pick a redirect.
// onChange is only called for fetched views.
func (m *Manage) Open(ctx context.Context, projectID string, onChange func(ManageView)) (*ManageQuery, error) {
	caller, ok := identity.Authenticated(ctx)
	if !ok {
		return &ManageQuery{view: ManageView{LoginPrompt: true}}, nil
	}
	if projectID != "" {
		return &ManageQuery{view: ManageView{ProjectID: projectID}}, nil
	}

	cache, err := cacheFrom(ctx)
	if err != nil {
		return nil, err
	}

	fetcher := func(fctx context.Context) (any, error) {
		projects, err := m.backend.GetMyProjects(identity.WithIdentity(fctx, caller))
		if err != nil {
			m.logger.Warn("failed to load own projects", "principal", caller.Principal, "error", err)
			return nil, err
		}
		return projects, nil
	}

	var listener fetch.Listener
	if onChange != nil {
		listener = func(st fetch.State) { onChange(manageView(st)) }
	}
	sub := cache.Subscribe(MyProjectsKey(caller.Principal), fetcher, listener)
	return &ManageQuery{sub: sub}, nil
}
