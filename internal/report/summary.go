package report

import (
	"sort"

	"github.com/entoto-dev/site-attendance/backend/internal/domain"
	"github.com/google/uuid"
)

// Summarize counts present and absent members per site, date and category.
// Members assigned to the roster but never marked count as absent, the same
// rule the export applies. Days with neither a record nor an assignment are
// left out.
func Summarize(data *domain.DashboardData) []domain.DailySummary {
	type key struct {
		siteID uuid.UUID
		date   string
	}

	names := make(map[uuid.UUID]string, len(data.Sites))
	for _, s := range data.Sites {
		names[s.ID] = s.Name
	}

	summaries := make(map[key]*domain.DailySummary)
	marked := make(map[key]map[uuid.UUID]bool)

	get := func(k key) *domain.DailySummary {
		s, ok := summaries[k]
		if !ok {
			s = &domain.DailySummary{
				SiteID:   k.siteID,
				SiteName: names[k.siteID],
				Date:     k.date,
				Counts:   make(map[domain.Category]domain.CategorySummary, len(domain.Categories)),
			}
			for _, c := range domain.Categories {
				s.Counts[c] = domain.CategorySummary{}
			}
			summaries[k] = s
			marked[k] = make(map[uuid.UUID]bool)
		}
		return s
	}

	for _, rec := range data.Records {
		k := key{rec.SiteID, rec.Date}
		s := get(k)
		s.Recorded = true
		for _, e := range rec.Entries {
			counts := s.Counts[e.Category]
			if e.Present {
				counts.Present++
			} else {
				counts.Absent++
			}
			counts.Total++
			s.Counts[e.Category] = counts
			marked[k][e.MemberID] = true
		}
	}

	for _, a := range data.Assignments {
		k := key{a.SiteID, a.Date}
		s := get(k)
		if marked[k][a.MemberID] {
			continue
		}
		marked[k][a.MemberID] = true
		counts := s.Counts[a.Category]
		counts.Absent++
		counts.Total++
		s.Counts[a.Category] = counts
	}

	result := make([]domain.DailySummary, 0, len(summaries))
	for _, s := range summaries {
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date > result[j].Date
		}
		return result[i].SiteName < result[j].SiteName
	})

	return result
}
