package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"aeroform-backend/internal/admin"
	"aeroform-backend/internal/auth"
	"aeroform-backend/internal/config"
	"aeroform-backend/internal/engine"
	"aeroform-backend/internal/forms"
	"aeroform-backend/internal/instrument"
	"aeroform-backend/internal/store"
)

func main() {
	ctx := context.Background()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Printf("Config loaded (port: %d, driver: %s)", cfg.Server.Port, cfg.Database.Driver)

	// 2. Connect to database
	db, err := store.New(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	// 3. Bootstrap system tables
	if err := db.Bootstrap(ctx); err != nil {
		log.Fatalf("Failed to bootstrap system tables: %v", err)
	}
	log.Println("System tables ready")

	// 4. Create registry and load form definitions
	reg := forms.NewRegistry()
	if err := forms.LoadAll(ctx, db.DB, reg); err != nil {
		log.Printf("WARN: Failed to load forms: %v", err)
	}

	// 5. Instrumentation
	var inst instrument.Instrumenter = &instrument.NoopInstrumenter{}
	if cfg.Instrumentation.Enabled {
		sqlInst := instrument.NewSQLInstrumenter(db, cfg.Instrumentation.BufferSize, cfg.Instrumentation.FlushIntervalMs)
		defer sqlInst.Stop()
		inst = sqlInst
	}

	// 6. Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))

	// 7. Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// 8. Auth routes (login/refresh/logout open, /me behind the middleware)
	authMW := auth.Middleware(cfg.JWTSecret)
	authHandler := auth.NewHandler(db, cfg.JWTSecret)
	auth.RegisterAuthRoutes(app, authHandler, authMW)

	// 9. Builder routes (owner or admin, auth required)
	adminHandler := admin.NewHandler(db, reg)
	admin.RegisterBuilderRoutes(app, adminHandler, authMW)

	// 10. Respondent routes. Anonymous submissions are allowed; a token
	// just attaches the respondent to the submission.
	engineHandler := engine.NewHandler(db, reg, inst)
	engine.RegisterFormRoutes(app, engineHandler, auth.Optional(cfg.JWTSecret))

	// 11. Start server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting server on %s", addr)
	log.Fatal(app.Listen(addr))
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	var appErr *engine.AppError
	if errors.As(err, &appErr) {
		return c.Status(appErr.Status).JSON(engine.ErrorResponse{Error: appErr})
	}

	log.Printf("ERROR: %v", err)
	return c.Status(code).JSON(engine.ErrorResponse{
		Error: &engine.AppError{
			Code:    "INTERNAL_ERROR",
			Message: "Internal server error",
		},
	})
}
