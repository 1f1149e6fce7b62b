package goalengine

import (
	"sort"
	"strings"
	"time"

	"unigoals/internal/models"
)

// maxGenerationDays clamps occurrence derivation so an inverted or absurd
// date range cannot loop forever.
const maxGenerationDays = 366

// DefaultDebtTrailDays is the look-back window used when the caller does not
// supply one.
const DefaultDebtTrailDays = 30

// StartOfLocalDay returns the UTC instant at which "today" begins for a user
// offsetMinutes east of UTC. This is the debt threshold: anything due before
// it belongs to a previous local day.
func StartOfLocalDay(now time.Time, offsetMinutes int) time.Time {
	local := now.UTC().Add(time.Duration(offsetMinutes) * time.Minute)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	return day.Add(-time.Duration(offsetMinutes) * time.Minute)
}

// IsRecurringTemplate reports whether g is a recurring template rather than
// a one-time goal or a spawned occurrence.
func IsRecurringTemplate(g models.Goal) bool {
	return g.RecurringPattern != nil && *g.RecurringPattern != "" && g.RecurringTemplateID == nil
}

// IsOverdue reports whether g's due instant fell before the start of the
// user's current local day and the goal is still incomplete.
func IsOverdue(g models.Goal, now time.Time, offsetMinutes int) bool {
	return g.DueDate != nil && !g.Completed && g.DueDate.Before(StartOfLocalDay(now, offsetMinutes))
}

// IsDebt decides debt status as a pure function of the goal's own fields:
// an obligation already flagged as debt, or newly lapsed, that is not
// completed. The persistence layer may additionally flag rows lazily, but
// membership never depends on anything beyond these fields.
func IsDebt(g models.Goal, now time.Time, offsetMinutes int) bool {
	if g.Completed {
		return false
	}
	return g.IsDebt || IsOverdue(g, now, offsetMinutes)
}

// Occurrence is one concrete day on which a recurring template fires.
type Occurrence struct {
	Due       time.Time // local midnight expressed as a UTC instant
	DateLocal string    // YYYY-MM-DD in the user's timezone
}

// OccurrencesInRange walks each day from start to end (inclusive) and emits
// an occurrence for every day whose local short weekday name appears in the
// comma-joined pattern.
func OccurrencesInRange(pattern string, start, end time.Time, offsetMinutes int) []Occurrence {
	days := map[string]bool{}
	for _, d := range strings.Split(pattern, ",") {
		if d = strings.TrimSpace(d); d != "" {
			days[d] = true
		}
	}
	if len(days) == 0 {
		return nil
	}

	var out []Occurrence
	curr := start
	for processed := 0; !curr.After(end) && processed < maxGenerationDays; processed++ {
		local := curr.UTC().Add(time.Duration(offsetMinutes) * time.Minute)
		if days[local.Format("Mon")] {
			midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC).
				Add(-time.Duration(offsetMinutes) * time.Minute)
			out = append(out, Occurrence{
				Due:       midnight,
				DateLocal: local.Format("2006-01-02"),
			})
		}
		curr = curr.AddDate(0, 0, 1)
	}
	return out
}

// SpawnOccurrence builds the concrete goal row a template produces for one
// occurrence. The pair (RecurringTemplateID, DueDateLocal) identifies the
// row, so repeated generation for the same day is idempotent.
func SpawnOccurrence(tmpl models.Goal, occ Occurrence) models.Goal {
	due := occ.Due
	dateLocal := occ.DateLocal
	templateID := tmpl.ID
	return models.Goal{
		UserID:              tmpl.UserID,
		Text:                tmpl.Text,
		Description:         tmpl.Description,
		Priority:            tmpl.Priority,
		Urgent:              tmpl.Urgent,
		DueDate:             &due,
		DueDateLocal:        &dateLocal,
		RecurringTemplateID: &templateID,
		OriginalDate:        &dateLocal,
		Metrics:             cloneMetrics(tmpl.Metrics),
		Labels:              append([]string(nil), tmpl.Labels...),
		ProblemID:           tmpl.ProblemID,
	}
}

func cloneMetrics(metrics []models.Metric) []models.Metric {
	if metrics == nil {
		return nil
	}
	out := make([]models.Metric, len(metrics))
	copy(out, metrics)
	for i := range out {
		out[i].Current = 0
	}
	return out
}

// DebtTrailItem groups the lapsed goals of one local date.
type DebtTrailItem struct {
	Date      string        `json:"date"` // YYYY-MM-DD
	DebtCount int           `json:"debtCount"`
	Goals     []models.Goal `json:"goals"`
}

// DebtTrail groups incomplete debt by the date the obligation originally
// fell on, within a caller-supplied look-back window of daysBack days ending
// at endDate (YYYY-MM-DD). The window is inclusive on both ends, so debt
// dated endDate itself is on the trail. Goals with neither an original date
// nor a local due date cannot be placed on the trail and are skipped.
func DebtTrail(goals []models.Goal, endDate string, daysBack int) []DebtTrailItem {
	if daysBack <= 0 {
		daysBack = DefaultDebtTrailDays
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return nil
	}
	startDate := end.AddDate(0, 0, -daysBack).Format("2006-01-02")

	grouped := map[string][]models.Goal{}
	for _, g := range goals {
		if !g.IsDebt || g.Completed {
			continue
		}
		date := trailDate(g)
		if date == "" || date < startDate || date > endDate {
			continue
		}
		grouped[date] = append(grouped[date], g)
	}

	trail := make([]DebtTrailItem, 0, len(grouped))
	for date, items := range grouped {
		trail = append(trail, DebtTrailItem{Date: date, DebtCount: len(items), Goals: items})
	}
	sort.Slice(trail, func(i, j int) bool { return trail[i].Date < trail[j].Date })
	return trail
}

func trailDate(g models.Goal) string {
	if g.OriginalDate != nil && *g.OriginalDate != "" {
		return *g.OriginalDate
	}
	if g.DueDateLocal != nil {
		return *g.DueDateLocal
	}
	if g.DueDate != nil {
		return g.DueDate.UTC().Format("2006-01-02")
	}
	return ""
}
