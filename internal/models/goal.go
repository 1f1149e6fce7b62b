package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// PriorityRank maps a priority string to its sort rank. Unknown values rank
// below low so malformed rows sink to the bottom instead of panicking.
func PriorityRank(p string) int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Metric is a quantitative sub-target owned by a Goal. Metrics are stored
// inline as a JSON column; they have no existence outside their parent.
type Metric struct {
	ID      string  `json:"id"`
	Label   string  `json:"label"`
	Target  float64 `json:"target"`
	Current float64 `json:"current"`
	Unit    string  `json:"unit"`
}

// Goal is the central entity: a tracked obligation, one-time or recurring.
//
// A goal with RecurringPattern set and no RecurringTemplateID is a recurring
// template; rows spawned from a template carry the template's id plus a
// DueDateLocal (YYYY-MM-DD in the user's timezone) that makes generation
// idempotent. IsDebt marks an overdue, incomplete obligation.
type Goal struct {
	ID                  uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	UserID              uuid.UUID  `json:"-" gorm:"type:uuid;index;not null"`
	Text                string     `json:"text" gorm:"not null"`
	Description         *string    `json:"description"`
	Priority            string     `json:"priority" gorm:"not null;default:'medium'"` // low, medium, high
	Urgent              bool       `json:"urgent" gorm:"default:false"`
	Completed           bool       `json:"completed" gorm:"default:false"`
	CompletedAt         *time.Time `json:"completedAt"`
	Verified            bool       `json:"verified" gorm:"default:false"`
	DueDate             *time.Time `json:"dueDate"`
	DueDateLocal        *string    `json:"dueDateLocal" gorm:"uniqueIndex:idx_goal_occurrence"`
	RecurringPattern    *string    `json:"recurringPattern"`
	RecurringTemplateID *uuid.UUID `json:"recurringTemplateId" gorm:"type:uuid;uniqueIndex:idx_goal_occurrence"`
	IsDebt              bool       `json:"isDebt" gorm:"default:false"`
	OriginalDate        *string    `json:"originalDate"` // YYYY-MM-DD the obligation originally fell on
	ProblemID           *string    `json:"problemId"`
	Metrics             []Metric   `json:"metrics" gorm:"serializer:json"`
	Labels              []string   `json:"labels,omitempty" gorm:"serializer:json"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
}

func (g *Goal) BeforeCreate(tx *gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// GoalPayload is the draft payload accepted by create and update. It omits
// id, completed, isDebt and createdAt, which are server-assigned. On update
// the payload is a whole-record replacement, never a partial patch.
//
// RecurringPattern semantics: nil on create means "no recurrence requested";
// an empty string on update means "recurrence cleared".
type GoalPayload struct {
	Text             string   `json:"text"`
	Description      *string  `json:"description,omitempty"`
	Priority         string   `json:"priority"`
	Urgent           bool     `json:"urgent"`
	DueDate          *string  `json:"dueDate,omitempty"` // UTC ISO instant
	RecurringPattern *string  `json:"recurringPattern,omitempty"`
	Metrics          []Metric `json:"metrics,omitempty"`
	Labels           []string `json:"labels,omitempty"`
	ProblemID        *string  `json:"problemId,omitempty"`
}
