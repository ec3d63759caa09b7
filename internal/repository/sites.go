package repository

import (
	"context"
	"database/sql"

	"github.com/entoto-dev/site-attendance/backend/internal/domain"
	"github.com/google/uuid"
)

func (r *Repository) CreateSite(ctx context.Context, site *domain.Site) error {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	if site.ID == uuid.Nil {
		site.ID = uuid.New()
	}

	query := `
		INSERT INTO sites (id, name)
		VALUES ($1, $2)
		RETURNING created_at, version
	`
	return r.dbpool.QueryRowContext(ctx, query, site.ID, site.Name).Scan(&site.CreatedAt, &site.Version)
}

func (r *Repository) GetSiteByID(ctx context.Context, id uuid.UUID) (*domain.Site, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	return getSite(ctx, r.dbpool, id)
}

func getSite(ctx context.Context, q querier, id uuid.UUID) (*domain.Site, error) {
	query := `SELECT name, created_at, version FROM sites WHERE id = $1`

	site := &domain.Site{ID: id}
	if err := q.QueryRowContext(ctx, query, id).Scan(&site.Name, &site.CreatedAt, &site.Version); err != nil {
		return nil, err
	}

	return site, nil
}

func (r *Repository) GetAllSites(ctx context.Context) ([]*domain.Site, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	return getSites(ctx, r.dbpool, uuid.NullUUID{})
}

// getSites lists every site, or only the given one when siteID is valid.
func getSites(ctx context.Context, q querier, siteID uuid.NullUUID) ([]*domain.Site, error) {
	query := `
		SELECT id, name, created_at, version
		FROM sites
		WHERE $1::uuid IS NULL OR id = $1
		ORDER BY name
	`

	rows, err := q.QueryContext(ctx, query, siteID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sites := make([]*domain.Site, 0)
	for rows.Next() {
		site := &domain.Site{}
		if err := rows.Scan(&site.ID, &site.Name, &site.CreatedAt, &site.Version); err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sites, nil
}

// UpdateSite renames a site. A stale version yields sql.ErrNoRows.
func (r *Repository) UpdateSite(ctx context.Context, site *domain.Site) error {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	query := `
		UPDATE sites
		SET name = $1, version = version + 1
		WHERE id = $2 AND version = $3
		RETURNING created_at, version
	`
	return r.dbpool.QueryRowContext(ctx, query, site.Name, site.ID, site.Version).Scan(&site.CreatedAt, &site.Version)
}

// DeleteSite removes a site together with its members, roster assignments and
// attendance records.
func (r *Repository) DeleteSite(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, `DELETE FROM sites WHERE id = $1`, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}
