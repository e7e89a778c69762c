package server

import (
	"time"

	"github.com/InQuant/plusforms/internal/auth"
	"github.com/InQuant/plusforms/internal/form"
	"github.com/InQuant/plusforms/internal/submission"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func SetupRoutes(app *fiber.App) {
	// Middleware
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS, PATCH",
	}))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "Forms API is running",
		})
	})

	// ==========================================
	// AUTH ROUTES (No authentication required)
	// ==========================================
	authGroup := app.Group("/auth")
	app.Use("/auth", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 1 * time.Minute,
	}))
	authGroup.Post("/register", auth.RegisterHandler)
	authGroup.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 15 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}), auth.LoginHandler)

	// ==========================================
	// PUBLIC FORM ROUTES
	// ==========================================
	app.Get("/fields/types", form.ListFieldTypesHandler)
	app.Get("/forms/:slug/schema", form.SchemaHandler)
	app.Post("/forms/:slug/submissions", auth.JWTOptional(), submission.SubmitHandler)

	// ==========================================
	// FORM MANAGEMENT (Authenticated)
	// ==========================================
	formGroup := app.Group("/forms")
	formGroup.Use(auth.JWTProtected())
	formGroup.Post("/", form.CreateFormHandler)
	formGroup.Get("/", form.ListFormsHandler)
	formGroup.Get("/:slug", form.GetFormHandler)
	formGroup.Put("/:id", form.UpdateFormHandler)
	formGroup.Delete("/:id", form.DeleteFormHandler)
	formGroup.Post("/:id/fields", form.AddFieldHandler)
	formGroup.Put("/fields/:id", form.UpdateFieldHandler)
	formGroup.Delete("/fields/:id", form.DeleteFieldHandler)
	formGroup.Get("/:slug/submissions", submission.ListHandler)
	formGroup.Get("/:slug/submissions/export.csv", submission.ExportCSVHandler)
	formGroup.Get("/:slug/submissions/export.zip", submission.ExportZIPHandler)

	// ==========================================
	// SUBMISSIONS (Authenticated)
	// ==========================================
	subGroup := app.Group("/submissions")
	subGroup.Use(auth.JWTProtected())
	subGroup.Get("/:id", submission.GetHandler)
	subGroup.Put("/:id", submission.UpdateHandler)
	subGroup.Delete("/:id", submission.DeleteHandler)
}
