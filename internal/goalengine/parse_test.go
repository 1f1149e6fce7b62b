package goalengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unigoals/internal/models"
)

// Fixed reference time: Wednesday, January 15, 2025, 10:00:00 UTC.
var parseNow = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

func TestParseUrgency(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantUrgent bool
	}{
		{"plain text", "Buy milk", false},
		{"urgent token", "Submit report urgent", true},
		{"asap token", "fix the build ASAP", true},
		{"immediately token", "call the bank immediately", true},
		{"mixed case", "URGENT: renew passport", true},
		{"token inside word does not count", "urgently needed", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input, parseNow)
			assert.Equal(t, tt.wantUrgent, got.Urgent)
		})
	}
}

func TestParsePriority(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"default is medium", "water the plants", models.PriorityMedium},
		{"high priority phrase", "high priority: tax filing", models.PriorityHigh},
		{"priority high phrase", "mark this priority high", models.PriorityHigh},
		{"important phrase", "important meeting prep", models.PriorityHigh},
		{"urgency implies high", "do the dishes asap", models.PriorityHigh},
		// Low is never inferred; only the user can set it explicitly.
		{"low never inferred", "low priority chore", models.PriorityMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input, parseNow)
			assert.Equal(t, tt.want, got.Priority)
		})
	}
}

func TestParseDateExtraction(t *testing.T) {
	t.Run("tomorrow with urgency", func(t *testing.T) {
		got := Parse("Finish PR tomorrow urgent", parseNow)

		assert.True(t, got.Urgent)
		assert.Equal(t, models.PriorityHigh, got.Priority)
		require.NotNil(t, got.Date)
		assert.Equal(t, parseNow.AddDate(0, 0, 1).Format("2006-01-02"), got.Date.Format("2006-01-02"))
	})

	t.Run("no date expression", func(t *testing.T) {
		got := Parse("Buy milk", parseNow)
		assert.Nil(t, got.Date)
	})
}

func TestParseIsIdempotent(t *testing.T) {
	// The form re-runs the parser on every keystroke; same text, same result.
	first := Parse("Submit report urgent tomorrow", parseNow)
	second := Parse("Submit report urgent tomorrow", parseNow)
	assert.Equal(t, first, second)
}
