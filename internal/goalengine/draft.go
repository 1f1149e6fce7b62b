package goalengine

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"unigoals/internal/models"
)

// ValidationError rejects a draft before any request reaches the boundary.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

var weekdayTokens = map[string]bool{
	"Mon": true, "Tue": true, "Wed": true, "Thu": true,
	"Fri": true, "Sat": true, "Sun": true,
}

// MetricRow is a raw metric line as typed into the form: all strings,
// nothing validated yet.
type MetricRow struct {
	Label  string `json:"label"`
	Target string `json:"target"`
	Unit   string `json:"unit"`
}

// GoalDraft is the loose UI-state shape of a goal before validation.
// Strings stay unchecked here; BuildPayload is the single conversion point
// into the strict payload, so unchecked input never reaches persistence.
type GoalDraft struct {
	Text                  string      `json:"text"`
	Description           string      `json:"description"`
	Priority              string      `json:"priority"`
	Urgent                bool        `json:"urgent"`
	Date                  *time.Time  `json:"date"`       // calendar date selection, time-of-day ignored
	TimeOfDay             string      `json:"timeOfDay"`  // "HH:mm", blank means 00:00
	TimezoneOffsetMinutes int         `json:"timezoneOffsetMinutes"`
	Weekdays              []string    `json:"weekdays"` // toggle order, preserved in the pattern
	Metrics               []MetricRow `json:"metrics"`
	ProblemID             string      `json:"problemId"`
	Labels                []string    `json:"labels"`
}

// BuildPayload validates a draft and converts it into a persistence payload.
// prev is the goal being edited, or nil on create; it drives both the
// metric reconciliation and the create/update recurrence encoding.
func BuildPayload(draft GoalDraft, prev *models.Goal) (models.GoalPayload, error) {
	text := strings.TrimSpace(draft.Text)
	if text == "" {
		return models.GoalPayload{}, &ValidationError{Field: "text", Message: "must not be blank"}
	}

	priority := draft.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	switch priority {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
	default:
		return models.GoalPayload{}, &ValidationError{Field: "priority", Message: "must be low, medium or high"}
	}

	payload := models.GoalPayload{
		Text:     text,
		Priority: priority,
		Urgent:   draft.Urgent,
		Labels:   draft.Labels,
	}

	if desc := strings.TrimSpace(draft.Description); desc != "" {
		payload.Description = &desc
	}
	if pid := strings.TrimSpace(draft.ProblemID); pid != "" {
		payload.ProblemID = &pid
	}

	if draft.Date != nil {
		due, err := CombineDueDate(*draft.Date, draft.TimeOfDay, draft.TimezoneOffsetMinutes)
		if err != nil {
			return models.GoalPayload{}, err
		}
		s := due.Format(time.RFC3339)
		payload.DueDate = &s
	}

	pattern, err := encodePattern(draft.Weekdays, prev != nil)
	if err != nil {
		return models.GoalPayload{}, err
	}
	payload.RecurringPattern = pattern

	var prevMetrics []models.Metric
	if prev != nil {
		prevMetrics = prev.Metrics
	}
	metrics, err := buildMetrics(draft.Metrics, prevMetrics)
	if err != nil {
		return models.GoalPayload{}, err
	}
	payload.Metrics = metrics

	return payload, nil
}

// CombineDueDate merges a calendar date with a wall-clock "HH:mm" string in
// the user's timezone into a single UTC instant. A blank time means 00:00.
func CombineDueDate(date time.Time, timeOfDay string, offsetMinutes int) (time.Time, error) {
	hour, minute := 0, 0
	if s := strings.TrimSpace(timeOfDay); s != "" {
		t, err := time.Parse("15:04", s)
		if err != nil {
			return time.Time{}, &ValidationError{Field: "timeOfDay", Message: "must be HH:mm"}
		}
		hour, minute = t.Hour(), t.Minute()
	}

	// Local wall clock, then shift back to UTC by the supplied offset.
	local := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, time.UTC)
	return local.Add(-time.Duration(offsetMinutes) * time.Minute), nil
}

// encodePattern joins the toggled weekdays in toggle order. On create an
// empty selection omits the pattern; on update it becomes an empty string,
// which tells the server to clear recurrence.
func encodePattern(weekdays []string, isUpdate bool) (*string, error) {
	if len(weekdays) == 0 {
		if isUpdate {
			empty := ""
			return &empty, nil
		}
		return nil, nil
	}

	joined := strings.Join(weekdays, ",")
	if err := ValidatePattern(joined); err != nil {
		return nil, err
	}
	return &joined, nil
}

// ValidatePattern checks a comma-joined weekday pattern: every token must be
// one of Mon..Sun and may occur at most once.
func ValidatePattern(pattern string) error {
	if pattern == "" {
		return &ValidationError{Field: "recurringPattern", Message: "must not be empty"}
	}
	seen := map[string]bool{}
	for _, d := range strings.Split(pattern, ",") {
		if !weekdayTokens[d] {
			return &ValidationError{Field: "recurringPattern", Message: "unknown weekday " + strconv.Quote(d)}
		}
		if seen[d] {
			return &ValidationError{Field: "recurringPattern", Message: "duplicate weekday " + strconv.Quote(d)}
		}
		seen[d] = true
	}
	return nil
}

// ReconcileMetrics merges incoming metric payloads against a goal's existing
// metrics. Identity is label-keyed, not positional: an incoming metric
// without an id adopts the id and progress of the existing metric with the
// same label, or gets a fresh id with progress zero. Metrics that arrive
// with an id are trusted as-is, which is how explicit progress updates flow.
func ReconcileMetrics(prev, next []models.Metric) []models.Metric {
	byLabel := make(map[string]models.Metric, len(prev))
	for _, m := range prev {
		byLabel[m.Label] = m
	}

	out := make([]models.Metric, 0, len(next))
	for _, m := range next {
		if strings.TrimSpace(m.Label) == "" {
			m.Label = "Target"
		}
		if m.ID == "" {
			if existing, ok := byLabel[m.Label]; ok {
				m.ID = existing.ID
				m.Current = existing.Current
			} else {
				m.ID = uuid.NewString()
			}
		}
		out = append(out, m)
	}
	return out
}

// buildMetrics drops incomplete rows, parses targets and reconciles against
// the previous metrics by label: an unchanged label keeps its id and
// progress, a new label mints a fresh id with progress reset to zero.
func buildMetrics(rows []MetricRow, prev []models.Metric) ([]models.Metric, error) {
	byLabel := make(map[string]models.Metric, len(prev))
	for _, m := range prev {
		byLabel[m.Label] = m
	}

	var out []models.Metric
	for _, row := range rows {
		target := strings.TrimSpace(row.Target)
		unit := strings.TrimSpace(row.Unit)
		if target == "" || unit == "" {
			continue
		}

		value, err := strconv.ParseFloat(target, 64)
		if err != nil || math.IsInf(value, 0) || math.IsNaN(value) {
			return nil, &ValidationError{Field: "metrics", Message: "target must be a finite number"}
		}

		label := strings.TrimSpace(row.Label)
		if label == "" {
			label = "Target"
		}

		metric := models.Metric{Label: label, Target: value, Unit: unit}
		if existing, ok := byLabel[label]; ok {
			metric.ID = existing.ID
			metric.Current = existing.Current
		} else {
			metric.ID = uuid.NewString()
		}
		out = append(out, metric)
	}

	return out, nil
}
