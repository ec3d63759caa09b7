package repository

import (
	"context"
	"time"

	"github.com/entoto-dev/site-attendance/backend/internal/domain"
	"github.com/entoto-dev/site-attendance/backend/internal/roster"
	"github.com/google/uuid"
)

// RecordAttendance upserts the record of (site, date) and, for every category
// that carries entries, replaces that category's entries. Categories without
// entries keep what they had. Entries for members the site does not own are
// dropped after the category is cleared, so a category whose entries all name
// strangers ends up empty. The whole submission is one transaction.
func (r *Repository) RecordAttendance(ctx context.Context, s *domain.AttendanceSubmission) (*domain.AttendanceRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.transactionTimeout())
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := getSite(ctx, tx, s.SiteID); err != nil {
		return nil, err
	}

	// the conflicting row is locked until commit, which serializes concurrent
	// submissions for the same (site, date)
	query := `
		INSERT INTO attendance_records (id, site_id, date)
		VALUES ($1, $2, $3)
		ON CONFLICT (site_id, date) DO UPDATE SET updated_at = NOW()
		RETURNING id, created_at, updated_at
	`
	record := &domain.AttendanceRecord{SiteID: s.SiteID, Date: s.Date}
	if err := tx.QueryRowContext(ctx, query, uuid.New(), s.SiteID, s.Date).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt); err != nil {
		return nil, err
	}

	var owned roster.Ownership
	for _, c := range domain.Categories {
		entries := s.Entries[c]
		if len(entries) == 0 {
			continue
		}

		if owned == nil {
			members, err := getMembers(ctx, tx, MemberFilter{SiteID: uuid.NullUUID{UUID: s.SiteID, Valid: true}, IncludeInactive: true})
			if err != nil {
				return nil, err
			}
			owned = roster.NewOwnership(s.SiteID, members)
		}

		query := `DELETE FROM attendance_entries WHERE attendance_record_id = $1 AND category = $2`
		if _, err := tx.ExecContext(ctx, query, record.ID, c); err != nil {
			return nil, err
		}

		query = `
			INSERT INTO attendance_entries (attendance_record_id, member_id, category, present, overtime_hours)
			VALUES ($1, $2, $3, $4, $5)
		`
		for _, e := range roster.FilterEntries(entries, c, owned) {
			if _, err := tx.ExecContext(ctx, query, record.ID, e.MemberID, c, e.Present, e.OvertimeHours); err != nil {
				return nil, err
			}
		}
	}

	record.Entries, err = getRecordEntries(ctx, tx, record.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return record, nil
}

// GetAttendanceRecord returns the record of (site, date) with its entries, or
// sql.ErrNoRows when nothing was recorded.
func (r *Repository) GetAttendanceRecord(ctx context.Context, siteID uuid.UUID, date string) (*domain.AttendanceRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout())
	defer cancel()

	query := `
		SELECT id, created_at, updated_at
		FROM attendance_records
		WHERE site_id = $1 AND date = $2
	`
	record := &domain.AttendanceRecord{SiteID: siteID, Date: date}
	if err := r.dbpool.QueryRowContext(ctx, query, siteID, date).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt); err != nil {
		return nil, err
	}

	entries, err := getRecordEntries(ctx, r.dbpool, record.ID)
	if err != nil {
		return nil, err
	}
	record.Entries = entries

	return record, nil
}

func getRecordEntries(ctx context.Context, q querier, recordID uuid.UUID) ([]domain.AttendanceEntry, error) {
	query := `
		SELECT member_id, category, present, overtime_hours
		FROM attendance_entries
		WHERE attendance_record_id = $1
		ORDER BY category, member_id
	`

	rows, err := q.QueryContext(ctx, query, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.AttendanceEntry, 0)
	for rows.Next() {
		var e domain.AttendanceEntry
		if err := rows.Scan(&e.MemberID, &e.Category, &e.Present, &e.OvertimeHours); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// getDatedEntries lists entries recorded between two dates inclusive, for one
// site when siteID is valid and one category when c is set.
func getDatedEntries(ctx context.Context, q querier, siteID uuid.NullUUID, start, end string, c domain.Category) ([]domain.DatedAttendanceEntry, error) {
	query := `
		SELECT ar.site_id, ar.date, ae.member_id, ae.category, ae.present, ae.overtime_hours
		FROM attendance_entries ae
		JOIN attendance_records ar ON ar.id = ae.attendance_record_id
		WHERE ($1::uuid IS NULL OR ar.site_id = $1)
		  AND ar.date BETWEEN $2 AND $3
		  AND ($4 = '' OR ae.category = $4)
		ORDER BY ar.date DESC, ae.member_id
	`

	rows, err := q.QueryContext(ctx, query, siteID, start, end, string(c))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]domain.DatedAttendanceEntry, 0)
	for rows.Next() {
		var (
			e    domain.DatedAttendanceEntry
			date time.Time
		)
		dst := []any{&e.SiteID, &date, &e.MemberID, &e.Category, &e.Present, &e.OvertimeHours}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		e.Date = date.Format(domain.DateLayout)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
