package goalengine

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unigoals/internal/models"
)

func goalDue(due time.Time, completed bool) models.Goal {
	return models.Goal{Text: "g", DueDate: &due, Completed: completed}
}

func TestStartOfLocalDay(t *testing.T) {
	// 2025-06-15 01:30 UTC.
	now := time.Date(2025, 6, 15, 1, 30, 0, 0, time.UTC)

	tests := []struct {
		name   string
		offset int
		want   time.Time
	}{
		{"utc", 0, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)},
		// IST (+05:30): local clock reads 07:00 on the 15th, whose midnight
		// was 18:30 UTC the previous day.
		{"ist", 330, time.Date(2025, 6, 14, 18, 30, 0, 0, time.UTC)},
		// UTC-5: local clock still reads the 14th, so today started at
		// 05:00 UTC on the 14th.
		{"est", -300, time.Date(2025, 6, 14, 5, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := StartOfLocalDay(now, tt.offset)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

func TestIsOverdueAndIsDebt(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	t.Run("two days past due is debt", func(t *testing.T) {
		g := goalDue(now.AddDate(0, 0, -2), false)
		assert.True(t, IsOverdue(g, now, 0))
		assert.True(t, IsDebt(g, now, 0))
	})

	t.Run("due later today is not debt", func(t *testing.T) {
		g := goalDue(now.Add(2*time.Hour), false)
		assert.False(t, IsOverdue(g, now, 0))
		assert.False(t, IsDebt(g, now, 0))
	})

	t.Run("earlier today is not debt until the day rolls over", func(t *testing.T) {
		g := goalDue(now.Add(-6*time.Hour), false)
		assert.False(t, IsOverdue(g, now, 0))
	})

	t.Run("completed goals are never debt", func(t *testing.T) {
		g := goalDue(now.AddDate(0, 0, -2), true)
		assert.False(t, IsDebt(g, now, 0))

		flagged := goalDue(now.AddDate(0, 0, -2), true)
		flagged.IsDebt = true
		assert.False(t, IsDebt(flagged, now, 0))
	})

	t.Run("no due date is never overdue", func(t *testing.T) {
		g := models.Goal{Text: "someday"}
		assert.False(t, IsOverdue(g, now, 0))
	})

	t.Run("persisted flag is respected", func(t *testing.T) {
		g := models.Goal{Text: "old debt", IsDebt: true}
		assert.True(t, IsDebt(g, now, 0))
	})
}

func TestIsRecurringTemplate(t *testing.T) {
	pattern := "Mon,Wed"
	templateID := uuid.New()

	tests := []struct {
		name string
		goal models.Goal
		want bool
	}{
		{"one-time goal", models.Goal{}, false},
		{"template", models.Goal{RecurringPattern: &pattern}, true},
		{"spawned occurrence", models.Goal{RecurringPattern: nil, RecurringTemplateID: &templateID}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRecurringTemplate(tt.goal))
		})
	}
}

func TestOccurrencesInRange(t *testing.T) {
	// Monday June 2 through Sunday June 8, 2025.
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 8, 0, 0, 0, 0, time.UTC)

	t.Run("weekday pattern over one week", func(t *testing.T) {
		occ := OccurrencesInRange("Mon,Wed,Fri", start, end, 0)
		require.Len(t, occ, 3)
		assert.Equal(t, "2025-06-02", occ[0].DateLocal)
		assert.Equal(t, "2025-06-04", occ[1].DateLocal)
		assert.Equal(t, "2025-06-06", occ[2].DateLocal)
	})

	t.Run("single day range", func(t *testing.T) {
		occ := OccurrencesInRange("Mon", start, start, 0)
		require.Len(t, occ, 1)
		assert.True(t, occ[0].Due.Equal(start))
	})

	t.Run("empty pattern yields nothing", func(t *testing.T) {
		assert.Nil(t, OccurrencesInRange("", start, end, 0))
	})

	t.Run("range clamp", func(t *testing.T) {
		farEnd := start.AddDate(10, 0, 0)
		occ := OccurrencesInRange("Mon,Tue,Wed,Thu,Fri,Sat,Sun", start, farEnd, 0)
		assert.LessOrEqual(t, len(occ), 366)
	})

	t.Run("offset shifts the local weekday", func(t *testing.T) {
		// 22:00 UTC Sunday June 1 is already Monday in IST (+05:30).
		sundayEvening := time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC)
		occ := OccurrencesInRange("Mon", sundayEvening, sundayEvening, 330)
		require.Len(t, occ, 1)
		assert.Equal(t, "2025-06-02", occ[0].DateLocal)
	})
}

func TestSpawnOccurrence(t *testing.T) {
	pattern := "Mon"
	tmpl := models.Goal{
		ID:               uuid.New(),
		Text:             "weekly review",
		Priority:         models.PriorityHigh,
		Urgent:           true,
		RecurringPattern: &pattern,
		Metrics: []models.Metric{
			{ID: "m-1", Label: "Notes", Target: 3, Current: 2, Unit: "notes"},
		},
	}

	occ := Occurrence{Due: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC), DateLocal: "2025-06-02"}
	inst := SpawnOccurrence(tmpl, occ)

	require.NotNil(t, inst.RecurringTemplateID)
	assert.Equal(t, tmpl.ID, *inst.RecurringTemplateID)
	assert.Nil(t, inst.RecurringPattern, "an occurrence is not itself a template")
	require.NotNil(t, inst.DueDate)
	assert.True(t, inst.DueDate.Equal(occ.Due))
	require.NotNil(t, inst.OriginalDate)
	assert.Equal(t, "2025-06-02", *inst.OriginalDate)

	// Metric progress starts fresh on each occurrence.
	require.Len(t, inst.Metrics, 1)
	assert.Zero(t, inst.Metrics[0].Current)
	// And the template's own metrics are untouched.
	assert.Equal(t, 2.0, tmpl.Metrics[0].Current)
}

func TestDebtTrail(t *testing.T) {
	mk := func(date string, completed bool) models.Goal {
		d := date
		return models.Goal{Text: "g " + date, OriginalDate: &d, IsDebt: true, Completed: completed}
	}

	goals := []models.Goal{
		mk("2025-06-10", false),
		mk("2025-06-10", false),
		mk("2025-06-12", false),
		mk("2025-06-12", true),  // completed: off the trail
		mk("2025-04-01", false), // outside the window
		mk("2025-06-15", false), // on the end date itself: included
		{Text: "undated", IsDebt: true},
	}

	trail := DebtTrail(goals, "2025-06-15", 30)
	require.Len(t, trail, 3)

	assert.Equal(t, "2025-06-10", trail[0].Date)
	assert.Equal(t, 2, trail[0].DebtCount)
	assert.Equal(t, "2025-06-12", trail[1].Date)
	assert.Equal(t, 1, trail[1].DebtCount)
	assert.Equal(t, "2025-06-15", trail[2].Date)
	assert.Equal(t, 1, trail[2].DebtCount)
}

func TestDebtTrailWindowIsInclusive(t *testing.T) {
	mk := func(date string) models.Goal {
		d := date
		return models.Goal{Text: "g " + date, OriginalDate: &d, IsDebt: true}
	}

	goals := []models.Goal{
		mk("2025-06-15"), // end date
		mk("2025-06-08"), // start date (end - 7 days)
		mk("2025-06-07"), // one day before the window
		mk("2025-06-16"), // one day after the window
	}

	trail := DebtTrail(goals, "2025-06-15", 7)
	require.Len(t, trail, 2)
	assert.Equal(t, "2025-06-08", trail[0].Date)
	assert.Equal(t, "2025-06-15", trail[1].Date)
}

func TestDebtTrailDefaultWindow(t *testing.T) {
	d := "2025-06-10"
	goals := []models.Goal{{Text: "g", OriginalDate: &d, IsDebt: true}}

	// Zero daysBack falls back to the 30-day default.
	trail := DebtTrail(goals, "2025-06-15", 0)
	require.Len(t, trail, 1)
}

