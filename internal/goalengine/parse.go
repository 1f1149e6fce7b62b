// Package goalengine holds the domain core of the unified goal system:
// smart-text parsing, draft validation, recurrence/debt classification and
// the filter/sort/aggregate view engine. Everything here is a pure,
// synchronous computation over in-memory data; persistence lives behind the
// handlers and the client adapter.
package goalengine

import (
	"regexp"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"

	"unigoals/internal/models"
)

var (
	urgentRe   = regexp.MustCompile(`(?i)\b(urgent|asap|immediately)\b`)
	highPrioRe = regexp.MustCompile(`(?i)\b(high\s+priority|priority\s+high|important)\b`)
)

// dateParser is the shared natural-language date extractor. when.Parser is
// safe for concurrent reads once the rules are added.
var dateParser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// ParseResult is what smart parsing extracts from free-form goal text.
type ParseResult struct {
	Date     *time.Time `json:"date,omitempty"`
	Urgent   bool       `json:"urgent"`
	Priority string     `json:"priority"`
}

// Parse extracts a candidate due date, urgency flag and priority from raw
// text. It is idempotent and only ever escalates: urgency implies high
// priority, and low is never inferred (low is an explicit user choice).
// Relative dates ("tomorrow", "next friday") are resolved against now.
func Parse(text string, now time.Time) ParseResult {
	res := ParseResult{Priority: models.PriorityMedium}

	if urgentRe.MatchString(text) {
		res.Urgent = true
		res.Priority = models.PriorityHigh
	} else if highPrioRe.MatchString(text) {
		res.Priority = models.PriorityHigh
	}

	if r, err := dateParser.Parse(text, now); err == nil && r != nil {
		t := r.Time.UTC()
		res.Date = &t
	}

	return res
}
