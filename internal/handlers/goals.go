package handlers

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"unigoals/internal/database"
	"unigoals/internal/goalengine"
	"unigoals/internal/middleware"
	"unigoals/internal/models"
)

// GetGoals returns the caller's goals, filtered/sorted/partitioned by the
// view engine. Before fetching, two lazy passes keep the collection honest:
// overdue incomplete goals are promoted to debt, and active recurring
// templates spawn their occurrence rows for the requested range (default:
// today).
func GetGoals(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	offset := c.QueryInt("timezoneOffset", 0)
	now := time.Now().UTC()

	promoteOverdueToDebt(userID, now, offset)

	start, end, rangeSet := parseDateRange(c)
	if !rangeSet {
		start, end = now, now
	}
	generateOccurrences(userID, start, end, offset)

	q := database.DB.Where("user_id = ?", userID)
	if rangeSet {
		q = q.Where("due_date >= ? AND due_date <= ?", start, end)
	}

	var goals []models.Goal
	if err := q.Order("created_at DESC").Find(&goals).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load goals",
		})
	}

	opts := goalengine.ViewOptions{
		Search: c.Query("search"),
		Filter: goalengine.Filter(c.Query("filter", string(goalengine.FilterAll))),
		SortBy: goalengine.SortBy(c.Query("sortBy", string(goalengine.SortByNewest))),
	}
	view := goalengine.View(goals, opts)

	return c.JSON(fiber.Map{
		"debtGoals":    view.Debt,
		"regularGoals": view.Regular,
	})
}

// promoteOverdueToDebt flags incomplete goals whose due instant fell before
// the start of the user's current local day. Done before every list so the
// UI always sees the latest debt state.
func promoteOverdueToDebt(userID uuid.UUID, now time.Time, offsetMinutes int) {
	threshold := goalengine.StartOfLocalDay(now, offsetMinutes)
	err := database.DB.Model(&models.Goal{}).
		Where("user_id = ? AND completed = ? AND is_debt = ? AND due_date IS NOT NULL AND due_date < ?",
			userID, false, false, threshold).
		Update("is_debt", true).Error
	if err != nil {
		log.Printf("[goals] debt promotion failed: %v", err)
	}
}

// generateOccurrences spawns concrete rows for every active recurring
// template whose pattern matches a day in [start, end]. The unique index on
// (recurring_template_id, due_date_local) makes repeated generation a no-op.
func generateOccurrences(userID uuid.UUID, start, end time.Time, offsetMinutes int) {
	var templates []models.Goal
	err := database.DB.
		Where("user_id = ? AND recurring_pattern IS NOT NULL AND recurring_pattern <> '' AND recurring_template_id IS NULL AND completed = ?",
			userID, false).
		Find(&templates).Error
	if err != nil {
		log.Printf("[goals] template fetch failed: %v", err)
		return
	}

	for _, tmpl := range templates {
		for _, occ := range goalengine.OccurrencesInRange(*tmpl.RecurringPattern, start, end, offsetMinutes) {
			instance := goalengine.SpawnOccurrence(tmpl, occ)
			err := database.DB.
				Where("recurring_template_id = ? AND due_date_local = ?", tmpl.ID, occ.DateLocal).
				FirstOrCreate(&instance).Error
			if err != nil {
				log.Printf("[goals] failed to generate occurrence of %s for %s: %v", tmpl.ID, occ.DateLocal, err)
			}
		}
	}
}

func parseDateRange(c *fiber.Ctx) (start, end time.Time, ok bool) {
	startStr, endStr := c.Query("startDate"), c.Query("endDate")
	if startStr == "" || endStr == "" {
		return time.Time{}, time.Time{}, false
	}
	var err error
	if start, err = time.Parse(time.RFC3339, startStr); err != nil {
		return time.Time{}, time.Time{}, false
	}
	if end, err = time.Parse(time.RFC3339, endStr); err != nil {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

func CreateGoal(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	offset := c.QueryInt("timezoneOffset", 0)

	var payload models.GoalPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	goal := models.Goal{UserID: userID}
	if err := applyPayload(&goal, payload, offset); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := database.DB.Create(&goal).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create goal",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(goal)
}

// UpdateGoal replaces the goal wholesale from the payload. There are no
// partial patches at this level; the caller always submits the complete
// record.
func UpdateGoal(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	offset := c.QueryInt("timezoneOffset", 0)

	goalID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid goal ID",
		})
	}

	var goal models.Goal
	if err := database.DB.Where("id = ? AND user_id = ?", goalID, userID).First(&goal).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Goal not found",
		})
	}

	var payload models.GoalPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := applyPayload(&goal, payload, offset); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := database.DB.Save(&goal).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update goal",
		})
	}

	return c.JSON(goal)
}

// applyPayload validates the payload and writes every draft-controlled field
// onto the goal. Server-assigned fields (id, completed, isDebt, createdAt)
// are untouched.
func applyPayload(goal *models.Goal, payload models.GoalPayload, offsetMinutes int) error {
	text := strings.TrimSpace(payload.Text)
	if text == "" {
		return &goalengine.ValidationError{Field: "text", Message: "must not be blank"}
	}
	goal.Text = text

	priority := payload.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}
	switch priority {
	case models.PriorityLow, models.PriorityMedium, models.PriorityHigh:
	default:
		return &goalengine.ValidationError{Field: "priority", Message: "must be low, medium or high"}
	}
	goal.Priority = priority

	goal.Description = payload.Description
	goal.Urgent = payload.Urgent
	goal.ProblemID = payload.ProblemID
	goal.Labels = payload.Labels

	if payload.DueDate != nil {
		due, err := time.Parse(time.RFC3339, *payload.DueDate)
		if err != nil {
			return &goalengine.ValidationError{Field: "dueDate", Message: "must be a UTC ISO instant"}
		}
		due = due.UTC()
		local := due.Add(time.Duration(offsetMinutes) * time.Minute).Format("2006-01-02")
		goal.DueDate = &due
		goal.DueDateLocal = &local
	} else {
		goal.DueDate = nil
		goal.DueDateLocal = nil
	}

	// nil and "" both clear recurrence here: "" is what the adapter sends on
	// update, nil is a create with no recurrence requested.
	if payload.RecurringPattern == nil || *payload.RecurringPattern == "" {
		goal.RecurringPattern = nil
	} else {
		if err := goalengine.ValidatePattern(*payload.RecurringPattern); err != nil {
			return err
		}
		goal.RecurringPattern = payload.RecurringPattern
	}

	goal.Metrics = goalengine.ReconcileMetrics(goal.Metrics, payload.Metrics)
	return nil
}

func DeleteGoal(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	goalID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid goal ID",
		})
	}

	result := database.DB.Where("id = ? AND user_id = ?", goalID, userID).Delete(&models.Goal{})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete goal",
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Goal not found",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func ToggleGoalCompletion(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	goalID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid goal ID",
		})
	}

	var goal models.Goal
	if err := database.DB.Where("id = ? AND user_id = ?", goalID, userID).First(&goal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Goal not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load goal",
		})
	}

	goal.Completed = !goal.Completed
	if goal.Completed {
		now := time.Now().UTC()
		goal.CompletedAt = &now
	} else {
		goal.CompletedAt = nil
	}

	if err := database.DB.Save(&goal).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to toggle goal",
		})
	}

	return c.JSON(goal)
}

// ParseGoalText previews what smart parsing extracts from draft text. The
// consuming form calls this on new drafts only and treats the result as
// set-only: it never downgrades a field the user already chose.
func ParseGoalText(c *fiber.Ctx) error {
	var req struct {
		Text                  string `json:"text"`
		TimezoneOffsetMinutes int    `json:"timezoneOffsetMinutes"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	// Resolve relative dates ("tomorrow") against the user's local clock.
	now := time.Now().UTC().Add(time.Duration(req.TimezoneOffsetMinutes) * time.Minute)
	return c.JSON(goalengine.Parse(req.Text, now))
}

// GetDebtTrail groups the caller's lapsed goals by the date they fell on,
// within a look-back window supplied by the caller (default 30 days).
func GetDebtTrail(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	offset := c.QueryInt("timezoneOffset", 0)
	daysBack := c.QueryInt("daysBack", goalengine.DefaultDebtTrailDays)

	localToday := time.Now().UTC().Add(time.Duration(offset) * time.Minute).Format("2006-01-02")
	endDate := c.Query("endDate", localToday)

	var goals []models.Goal
	err := database.DB.
		Where("user_id = ? AND is_debt = ? AND completed = ?", userID, true, false).
		Order("created_at ASC").
		Find(&goals).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load debt goals",
		})
	}

	return c.JSON(goalengine.DebtTrail(goals, endDate, daysBack))
}

// GetGoalStats computes summary numbers over the full collection, ignoring
// whatever view filter is active, so the numbers stay stable while the user
// flips filters.
func GetGoalStats(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)

	var goals []models.Goal
	if err := database.DB.Where("user_id = ?", userID).Find(&goals).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load goals",
		})
	}

	return c.JSON(goalengine.Summarize(goals))
}
