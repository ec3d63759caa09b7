package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/entoto-dev/site-attendance/backend/internal/domain"
	"github.com/entoto-dev/site-attendance/backend/internal/roster"
	"github.com/google/uuid"
)

// RosterSnapshot is what roster resolution reads for one (site, date).
type RosterSnapshot struct {
	Site          *domain.Site
	Assignments   []domain.RosterAssignment
	ActiveMembers []*domain.Member
}

// GetRosterSnapshot reads the assignments and the active members of a site in
// one read-only transaction so both halves describe the same moment. A missing
// site yields sql.ErrNoRows.
func (r *Repository) GetRosterSnapshot(ctx context.Context, siteID uuid.UUID, date string) (*RosterSnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	site, err := getSite(ctx, tx, siteID)
	if err != nil {
		return nil, err
	}

	assignments, err := getAssignments(ctx, tx, uuid.NullUUID{UUID: siteID, Valid: true}, date, date, "")
	if err != nil {
		return nil, err
	}

	members, err := getMembers(ctx, tx, MemberFilter{SiteID: uuid.NullUUID{UUID: siteID, Valid: true}})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &RosterSnapshot{Site: site, Assignments: assignments, ActiveMembers: members}, nil
}

// ResolveRoster returns the roster in effect for (siteID, date), falling back to
// every active member when nothing is assigned.
func (r *Repository) ResolveRoster(ctx context.Context, siteID uuid.UUID, date string) (*domain.Roster, error) {
	snapshot, err := r.GetRosterSnapshot(ctx, siteID, date)
	if err != nil {
		return nil, err
	}
	return roster.Resolve(siteID, date, snapshot.Assignments, snapshot.ActiveMembers), nil
}

// getAssignments lists assignments between two dates inclusive, for one site
// when siteID is valid and one category when c is set.
func getAssignments(ctx context.Context, q querier, siteID uuid.NullUUID, start, end string, c domain.Category) ([]domain.RosterAssignment, error) {
	query := `
		SELECT site_id, member_id, category, date
		FROM roster_assignments
		WHERE ($1::uuid IS NULL OR site_id = $1)
		  AND date BETWEEN $2 AND $3
		  AND ($4 = '' OR category = $4)
		ORDER BY date, site_id, category, member_id
	`

	rows, err := q.QueryContext(ctx, query, siteID, start, end, string(c))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := make([]domain.RosterAssignment, 0)
	for rows.Next() {
		var (
			a    domain.RosterAssignment
			date time.Time
		)
		if err := rows.Scan(&a.SiteID, &a.MemberID, &a.Category, &date); err != nil {
			return nil, err
		}
		a.Date = date.Format(domain.DateLayout)
		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return assignments, nil
}

// SaveRoster replaces every assignment of (site, date) across all categories.
// Ids the site does not own are dropped; the roster actually stored is returned.
func (r *Repository) SaveRoster(ctx context.Context, rs *domain.Roster) (*domain.Roster, error) {
	saved, err := r.SaveRosters(ctx, rs.SiteID, []*domain.Roster{rs})
	if err != nil {
		return nil, err
	}
	return saved[0], nil
}

// SaveRosters stores several rosters of one site in a single transaction. Either
// every date is replaced or none is.
func (r *Repository) SaveRosters(ctx context.Context, siteID uuid.UUID, rosters []*domain.Roster) ([]*domain.Roster, error) {
	ctx, cancel := context.WithTimeout(ctx, r.transactionTimeout())
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := getSite(ctx, tx, siteID); err != nil {
		return nil, err
	}

	members, err := getMembers(ctx, tx, MemberFilter{SiteID: uuid.NullUUID{UUID: siteID, Valid: true}, IncludeInactive: true})
	if err != nil {
		return nil, err
	}
	owned := roster.NewOwnership(siteID, members)

	saved := make([]*domain.Roster, 0, len(rosters))
	for _, rs := range rosters {
		filtered := roster.FilterOwned(rs, owned)
		filtered.SiteID = siteID

		query := `DELETE FROM roster_assignments WHERE site_id = $1 AND date = $2`
		if _, err := tx.ExecContext(ctx, query, siteID, filtered.Date); err != nil {
			return nil, err
		}

		query = `
			INSERT INTO roster_assignments (site_id, member_id, category, date)
			VALUES ($1, $2, $3, $4)
		`
		for _, a := range filtered.Assignments() {
			if _, err := tx.ExecContext(ctx, query, a.SiteID, a.MemberID, a.Category, a.Date); err != nil {
				return nil, err
			}
		}

		saved = append(saved, filtered)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return saved, nil
}
