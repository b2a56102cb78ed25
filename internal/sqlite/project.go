package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/rpggio/crowdfund/internal/domain/project"
	"github.com/rpggio/crowdfund/internal/repository"
)

// ProjectRepository implements project.Repository for SQLite
type ProjectRepository struct {
	db *DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

var _ project.Repository = (*ProjectRepository)(nil)

const projectColumns = `id, owner, title, description, story, category, goal, nft_volume,
	tags, cover_img, wallet_id, twitter_link, discord_link, wetransfer_link`

// Create inserts a project and assigns its sequential id.
func (r *ProjectRepository) Create(ctx context.Context, proj *project.Project) error {
	tags, err := json.Marshal(nonNilTags(proj.Tags))
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	query := `
		INSERT INTO projects (owner, title, description, story, category, goal, nft_volume,
			tags, cover_img, wallet_id, twitter_link, discord_link, wetransfer_link)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		proj.Owner,
		proj.Title,
		proj.Description,
		proj.Story,
		proj.Category,
		proj.Goal,
		int64(proj.NFTVolume),
		string(tags),
		proj.CoverImg,
		proj.WalletID,
		proj.TwitterLink,
		proj.DiscordLink,
		proj.WetransferLink,
	)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read project id: %w", err)
	}
	proj.ID = strconv.FormatInt(id, 10)
	return nil
}

// Get retrieves a project by ID
func (r *ProjectRepository) Get(ctx context.Context, id string) (*project.Project, error) {
	numericID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, repository.ErrNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = ?`, numericID)
	proj, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return proj, nil
}

// List returns every project in creation order.
func (r *ProjectRepository) List(ctx context.Context) ([]project.Project, error) {
	return r.query(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY id`)
}

// ListByOwner returns an owner's projects in creation order.
func (r *ProjectRepository) ListByOwner(ctx context.Context, owner string) ([]project.Project, error) {
	return r.query(ctx, `SELECT `+projectColumns+` FROM projects WHERE owner = ? ORDER BY id`, owner)
}

func (r *ProjectRepository) query(ctx context.Context, query string, args ...any) ([]project.Project, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var projects []project.Project
	for rows.Next() {
		proj, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *proj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}
	return projects, nil
}

func scanProject(s scanner) (*project.Project, error) {
	var (
		proj      project.Project
		id        int64
		nftVolume int64
		tags      string
	)
	err := s.Scan(
		&id,
		&proj.Owner,
		&proj.Title,
		&proj.Description,
		&proj.Story,
		&proj.Category,
		&proj.Goal,
		&nftVolume,
		&tags,
		&proj.CoverImg,
		&proj.WalletID,
		&proj.TwitterLink,
		&proj.DiscordLink,
		&proj.WetransferLink,
	)
	if err != nil {
		return nil, err
	}
	proj.ID = strconv.FormatInt(id, 10)
	proj.NFTVolume = uint64(nftVolume)
	if err := json.Unmarshal([]byte(tags), &proj.Tags); err != nil {
		return nil, fmt.Errorf("failed to decode tags: %w", err)
	}
	proj.Tags = nonNilTags(proj.Tags)
	return &proj, nil
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
