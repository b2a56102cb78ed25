package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rpggio/crowdfund/internal/domain/profile"
	"github.com/rpggio/crowdfund/internal/repository"
)

// ProfileRepository implements profile.Repository for SQLite
type ProfileRepository struct {
	db *DB
}

// NewProfileRepository creates a new ProfileRepository
func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

var _ profile.Repository = (*ProfileRepository)(nil)

// Create inserts a profile. A principal has at most one profile.
func (r *ProfileRepository) Create(ctx context.Context, p *profile.Profile) error {
	query := `
		INSERT INTO profiles (id, first_name, last_name, bio, img)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query, p.ID, p.FirstName, p.LastName, p.Bio, p.Img)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// Get retrieves a profile by principal
func (r *ProfileRepository) Get(ctx context.Context, id string) (*profile.Profile, error) {
	query := `
		SELECT id, first_name, last_name, bio, img
		FROM profiles
		WHERE id = ?
	`

	p, err := scanProfile(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// Update replaces a profile's fields
func (r *ProfileRepository) Update(ctx context.Context, p *profile.Profile) error {
	query := `
		UPDATE profiles
		SET first_name = ?, last_name = ?, bio = ?, img = ?, modified_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, p.FirstName, p.LastName, p.Bio, p.Img, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Search matches the query against first and last names, case-insensitively.
// An empty query returns every profile.
func (r *ProfileRepository) Search(ctx context.Context, query string) ([]profile.Profile, error) {
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, first_name, last_name, bio, img
		FROM profiles
		WHERE lower(first_name) LIKE ? ESCAPE '\'
		   OR lower(last_name) LIKE ? ESCAPE '\'
		   OR lower(first_name || ' ' || last_name) LIKE ? ESCAPE '\'
		ORDER BY first_name, last_name, id
	`, pattern, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search profiles: %w", err)
	}
	defer rows.Close()

	var profiles []profile.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profiles: %w", err)
	}
	return profiles, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(s scanner) (*profile.Profile, error) {
	var p profile.Profile
	if err := s.Scan(&p.ID, &p.FirstName, &p.LastName, &p.Bio, &p.Img); err != nil {
		return nil, err
	}
	return &p, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
