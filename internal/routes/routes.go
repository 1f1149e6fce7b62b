package routes

import (
	"github.com/gofiber/fiber/v2"

	"unigoals/internal/handlers"
	"unigoals/internal/middleware"
)

func Setup(app *fiber.App) {
	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/register", handlers.Register)
	auth.Post("/login", handlers.Login)

	protected := api.Group("/", middleware.Protected())

	protected.Get("/me", handlers.GetMe)
	protected.Put("/me", handlers.UpdateProfile)

	goals := protected.Group("/goals")
	goals.Get("/", handlers.GetGoals)
	goals.Post("/", handlers.CreateGoal)
	goals.Post("/parse", handlers.ParseGoalText)
	goals.Get("/debt-trail", handlers.GetDebtTrail)
	goals.Get("/stats", handlers.GetGoalStats)
	goals.Put("/:id", handlers.UpdateGoal)
	goals.Delete("/:id", handlers.DeleteGoal)
	goals.Post("/:id/toggle", handlers.ToggleGoalCompletion)
}
