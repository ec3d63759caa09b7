package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/entoto-dev/site-attendance/backend/internal/domain"
	"github.com/google/uuid"
)

// GetExportData reads everything an export of one site and category needs from
// a single snapshot. Inactive members are included so past attendance is not
// lost from the sheet.
func (r *Repository) GetExportData(ctx context.Context, siteID uuid.UUID, c domain.Category, start, end string) (*domain.ExportData, error) {
	ctx, cancel := context.WithTimeout(ctx, r.transactionTimeout())
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

	scope := uuid.NullUUID{UUID: siteID, Valid: true}

	members, err := getMembers(ctx, tx, MemberFilter{SiteID: scope, Category: c, IncludeInactive: true})
	if err != nil {
		return nil, err
	}

	assignments, err := getAssignments(ctx, tx, scope, start, end, c)
	if err != nil {
		return nil, err
	}

	entries, err := getDatedEntries(ctx, tx, scope, start, end, c)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &domain.ExportData{
		Site:        site,
		Category:    c,
		StartDate:   start,
		EndDate:     end,
		Members:     members,
		Assignments: assignments,
		Entries:     entries,
	}, nil
}

// GetDashboardData reads sites, records with entries and assignments between
// two dates, for every site or only the one given.
func (r *Repository) GetDashboardData(ctx context.Context, siteID uuid.NullUUID, start, end string) (*domain.DashboardData, error) {
	ctx, cancel := context.WithTimeout(ctx, r.transactionTimeout())
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	sites, err := getSites(ctx, tx, siteID)
	if err != nil {
		return nil, err
	}
	if siteID.Valid && len(sites) == 0 {
		return nil, sql.ErrNoRows
	}

	records, err := getRecords(ctx, tx, siteID, start, end)
	if err != nil {
		return nil, err
	}

	entries, err := getDatedEntries(ctx, tx, siteID, start, end, "")
	if err != nil {
		return nil, err
	}

	assignments, err := getAssignments(ctx, tx, siteID, start, end, "")
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	type key struct {
		siteID uuid.UUID
		date   string
	}
	byKey := make(map[key]*domain.AttendanceRecord, len(records))
	for _, rec := range records {
		byKey[key{rec.SiteID, rec.Date}] = rec
	}
	for _, e := range entries {
		if rec, ok := byKey[key{e.SiteID, e.Date}]; ok {
			rec.Entries = append(rec.Entries, e.AttendanceEntry)
		}
	}

	return &domain.DashboardData{Sites: sites, Records: records, Assignments: assignments}, nil
}

func getRecords(ctx context.Context, q querier, siteID uuid.NullUUID, start, end string) ([]*domain.AttendanceRecord, error) {
	query := `
		SELECT id, site_id, date, created_at, updated_at
		FROM attendance_records
		WHERE ($1::uuid IS NULL OR site_id = $1) AND date BETWEEN $2 AND $3
		ORDER BY date DESC, site_id
	`

	rows, err := q.QueryContext(ctx, query, siteID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]*domain.AttendanceRecord, 0)
	for rows.Next() {
		var date time.Time
		rec := &domain.AttendanceRecord{Entries: make([]domain.AttendanceEntry, 0)}
		if err := rows.Scan(&rec.ID, &rec.SiteID, &date, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		rec.Date = date.Format(domain.DateLayout)
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// GetMemberAttendance lists members matching the filter, each with the entries
// recorded for them between two dates, newest first.
func (r *Repository) GetMemberAttendance(ctx context.Context, filter MemberFilter, start, end string) ([]*domain.MemberAttendance, error) {
	ctx, cancel := context.WithTimeout(ctx, r.transactionTimeout())
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	members, err := getMembers(ctx, tx, filter)
	if err != nil {
		return nil, err
	}

	entries, err := getDatedEntries(ctx, tx, filter.SiteID, start, end, filter.Category)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	result := make([]*domain.MemberAttendance, 0, len(members))
	byMember := make(map[uuid.UUID]*domain.MemberAttendance, len(members))
	for _, m := range members {
		ma := &domain.MemberAttendance{Member: m, Entries: make([]domain.DatedAttendanceEntry, 0)}
		byMember[m.ID] = ma
		result = append(result, ma)
	}
	for _, e := range entries {
		if ma, ok := byMember[e.MemberID]; ok {
			ma.Entries = append(ma.Entries, e)
		}
	}

	return result, nil
}
