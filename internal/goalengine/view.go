package goalengine

import (
	"sort"
	"strings"

	"unigoals/internal/models"
)

type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
	FilterUrgent    Filter = "urgent"
	FilterDebt      Filter = "debt"
)

type SortBy string

const (
	SortByPriority SortBy = "priority"
	SortByDue      SortBy = "due"
	SortByNewest   SortBy = "newest" // default
)

// ViewOptions select and order a goal collection for display.
type ViewOptions struct {
	Search string `json:"search"`
	Filter Filter `json:"filter"`
	SortBy SortBy `json:"sortBy"`
}

// ViewResult partitions the filtered, sorted goals into the debt zone and
// the regular zone. Debt ∪ Regular is exactly the filtered set and the two
// never overlap.
type ViewResult struct {
	Debt    []models.Goal `json:"debtGoals"`
	Regular []models.Goal `json:"regularGoals"`
}

// Apply runs search, then the view filter, then a stable sort. It is pure
// and deterministic: ties keep their input order.
func Apply(goals []models.Goal, opts ViewOptions) []models.Goal {
	out := make([]models.Goal, 0, len(goals))

	search := strings.ToLower(strings.TrimSpace(opts.Search))
	for _, g := range goals {
		if search != "" && !strings.Contains(strings.ToLower(g.Text), search) {
			continue
		}
		if matchesFilter(g, opts.Filter) {
			out = append(out, g)
		}
	}

	switch opts.SortBy {
	case SortByPriority:
		sort.SliceStable(out, func(i, j int) bool {
			return models.PriorityRank(out[i].Priority) > models.PriorityRank(out[j].Priority)
		})
	case SortByDue:
		// No due date sorts after any real date.
		sort.SliceStable(out, func(i, j int) bool {
			switch {
			case out[i].DueDate == nil:
				return false
			case out[j].DueDate == nil:
				return true
			default:
				return out[i].DueDate.Before(*out[j].DueDate)
			}
		})
	default: // SortByNewest
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	}

	return out
}

func matchesFilter(g models.Goal, f Filter) bool {
	switch f {
	case FilterActive:
		return !g.Completed && !g.IsDebt
	case FilterCompleted:
		return g.Completed
	case FilterUrgent:
		// The one filter that keeps completed items.
		return g.Urgent
	case FilterDebt:
		return g.IsDebt && !g.Completed
	default: // FilterAll or unset
		return true
	}
}

// View applies the options and partitions the result into debt and regular
// zones. The partition runs on the filtered, sorted output so it respects
// the active search, filter and sort context.
func View(goals []models.Goal, opts ViewOptions) ViewResult {
	filtered := Apply(goals, opts)
	res := ViewResult{
		Debt:    make([]models.Goal, 0, len(filtered)),
		Regular: make([]models.Goal, 0, len(filtered)),
	}
	for _, g := range filtered {
		if g.IsDebt && !g.Completed {
			res.Debt = append(res.Debt, g)
		} else {
			res.Regular = append(res.Regular, g)
		}
	}
	return res
}

// Stats are summary numbers computed over the full, unfiltered collection,
// so they stay stable while the user changes view filters.
type Stats struct {
	Total          int            `json:"total"`
	Completed      int            `json:"completed"`
	Active         int            `json:"active"`
	Debt           int            `json:"debt"`
	Urgent         int            `json:"urgent"`
	Recurring      int            `json:"recurring"`
	ByPriority     map[string]int `json:"byPriority"`
	CompletionRate float64        `json:"completionRate"`
}

// Summarize computes aggregate statistics over every goal it is given.
func Summarize(goals []models.Goal) Stats {
	s := Stats{ByPriority: map[string]int{
		models.PriorityLow:    0,
		models.PriorityMedium: 0,
		models.PriorityHigh:   0,
	}}

	for _, g := range goals {
		s.Total++
		s.ByPriority[g.Priority]++
		switch {
		case g.Completed:
			s.Completed++
		case g.IsDebt:
			s.Debt++
		default:
			s.Active++
		}
		if g.Urgent {
			s.Urgent++
		}
		if IsRecurringTemplate(g) {
			s.Recurring++
		}
	}

	if s.Total > 0 {
		s.CompletionRate = float64(s.Completed) / float64(s.Total)
	}
	return s
}
