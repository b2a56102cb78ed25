package presenter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rpggio/crowdfund/internal/domain/profile"
	"github.com/rpggio/crowdfund/internal/domain/project"
	"github.com/rpggio/crowdfund/internal/fetch"
	"github.com/rpggio/crowdfund/internal/identity"
)

// ValidationError is the first failed rule of a draft.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ProjectDraft is the create project wizard's form state.
type ProjectDraft struct {
	Title          string
	Category       string
	TwitterLink    string
	DiscordLink    string
	Description    string
	Story          string
	Goal           float64
	NFTVolume      uint64
	Tags           []string
	CoverImg       []byte
	WalletID       string
	WetransferLink string
}

// Validate returns the first missing required field, in form order.
func (d ProjectDraft) Validate() error {
	required := []struct {
		field, value, message string
	}{
		{"title", d.Title, "Enter a title for your project"},
		{"category", d.Category, "Select a category for your project"},
		{"twitterLink", d.TwitterLink, "Enter Twitter link for your project"},
		{"description", d.Description, "Enter a description for your project"},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ValidationError{Field: r.field, Message: r.message}
		}
	}
	return nil
}

func (d ProjectDraft) newProject() project.NewProject {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return project.NewProject{
		Title:          strings.TrimSpace(d.Title),
		Description:    d.Description,
		Story:          d.Story,
		Category:       d.Category,
		Goal:           d.Goal,
		NFTVolume:      d.NFTVolume,
		Tags:           tags,
		CoverImg:       d.CoverImg,
		WalletID:       d.WalletID,
		TwitterLink:    d.TwitterLink,
		DiscordLink:    d.DiscordLink,
		WetransferLink: d.WetransferLink,
	}
}

// Wizard submits the create project wizard.
type Wizard struct {
	backend ProjectCreator
	logger  *slog.Logger
}

// NewWizard creates the wizard presenter.
func NewWizard(backend ProjectCreator, logger *slog.Logger) *Wizard {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Wizard{backend: backend, logger: logger}
}

// Submit validates the draft and creates the project. A caller without a
// profile passes the profile draft so both are created in one call. On
// success the caller's project queries in the context's cache are refetched.
func (w *Wizard) Submit(ctx context.Context, newProfile *profile.NewProfile, draft ProjectDraft) (*project.Project, error) {
	if _, ok := identity.Authenticated(ctx); !ok {
		return nil, ErrLoginRequired
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	var (
		created *project.Project
		err     error
	)
	if newProfile != nil {
		created, err = w.backend.CreateFirstProject(ctx, *newProfile, draft.newProject())
	} else {
		created, err = w.backend.CreateProject(ctx, draft.newProject())
	}
	if err != nil {
		return nil, err
	}
	w.logger.Info("project created", "project_id", created.ID, "first", newProfile != nil)

	if cache, ok := fetch.FromContext(ctx); ok {
		cache.RefetchMatching(func(k fetch.Key) bool {
			op := k.Operation()
			return op == myProjectsKey || op == featuredProjectsKey
		})
	}
	return created, nil
}
