package repository

import (
	"context"
	"database/sql"

	"github.com/entoto-dev/site-attendance/backend/internal/domain"
	"github.com/google/uuid"
)

const memberColumns = `id, name, category, site_id, is_active, created_at, version`

// MemberFilter narrows a member listing. Zero values mean "any".
type MemberFilter struct {
	SiteID          uuid.NullUUID
	Category        domain.Category
	IncludeInactive bool
}

func scanMember(s scanner) (*domain.Member, error) {
	m := &domain.Member{}
	dst := []any{&m.ID, &m.Name, &m.Category, &m.SiteID, &m.IsActive, &m.CreatedAt, &m.Version}
	if err := s.Scan(dst...); err != nil {
		return nil, err
	}
	return m, nil
}

// CreateMembers inserts every member in one transaction, so a bulk add either
// lands completely or not at all.
func (r *Repository) CreateMembers(ctx context.Context, members []*domain.Member) error {
	ctx, cancel := context.WithTimeout(ctx, r.transactionTimeout())
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO members (id, name, category, site_id, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, version
	`
	for _, m := range members {
		if m.ID == uuid.Nil {
			m.ID = uuid.New()
		}
		args := []any{m.ID, m.Name, m.Category, m.SiteID, m.IsActive}
		if err := tx.QueryRowContext(ctx, query, args...).Scan(&m.CreatedAt, &m.Version); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *Repository) GetMemberByID(ctx context.Context, id uuid.UUID) (*domain.Member, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`
	return scanMember(r.dbpool.QueryRowContext(ctx, query, id))
}

func (r *Repository) GetMembers(ctx context.Context, filter MemberFilter) ([]*domain.Member, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	return getMembers(ctx, r.dbpool, filter)
}

func getMembers(ctx context.Context, q querier, filter MemberFilter) ([]*domain.Member, error) {
	query := `
		SELECT ` + memberColumns + `
		FROM members
		WHERE ($1::uuid IS NULL OR site_id = $1)
		  AND ($2 = '' OR category = $2)
		  AND ($3 OR is_active)
		ORDER BY name, id
	`

	rows, err := q.QueryContext(ctx, query, filter.SiteID, string(filter.Category), filter.IncludeInactive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]*domain.Member, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return members, nil
}

// UpdateMember writes name, activity and site. Moving a member to another site
// drops the assignments they held at the old one in the same transaction. A
// stale version yields sql.ErrNoRows.
func (r *Repository) UpdateMember(ctx context.Context, m *domain.Member) error {
	ctx, cancel := context.WithTimeout(ctx, r.transactionTimeout())
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var currentSite uuid.UUID
	query := `SELECT site_id FROM members WHERE id = $1 AND version = $2 FOR UPDATE`
	if err := tx.QueryRowContext(ctx, query, m.ID, m.Version).Scan(&currentSite); err != nil {
		return err
	}

	if currentSite != m.SiteID {
		query = `DELETE FROM roster_assignments WHERE member_id = $1 AND site_id = $2`
		if _, err := tx.ExecContext(ctx, query, m.ID, currentSite); err != nil {
			return err
		}
	}

	query = `
		UPDATE members
		SET name = $1, is_active = $2, site_id = $3, version = version + 1
		WHERE id = $4
		RETURNING category, created_at, version
	`
	args := []any{m.Name, m.IsActive, m.SiteID, m.ID}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&m.Category, &m.CreatedAt, &m.Version); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteMember removes a member of the given category. Their roster assignments
// and attendance entries go with them.
func (r *Repository) DeleteMember(ctx context.Context, id uuid.UUID, c domain.Category) error {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, `DELETE FROM members WHERE id = $1 AND category = $2`, id, c)
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
