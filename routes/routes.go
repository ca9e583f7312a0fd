package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/fundwise/ledgex/controllers"
)

func SetupRouter() *fiber.App {
	app := fiber.New()

	app.Get("/api/v1/public/timestamp", controllers.GetTimestamp)

	app.Post("/api/v1/portfolios", controllers.CreatePortfolio)
	app.Post("/api/v1/holdings", controllers.CreateHolding)

	app.Post("/api/v1/valuations", controllers.UpsertValuation)
	app.Post("/api/v1/valuations/aggregate", controllers.EnsureParentValuation)

	app.Post("/api/v1/ledger/batch", controllers.WriteBatch)
	app.Get("/api/v1/ledger/entries", controllers.GetLedgerEntries)

	app.Post("/api/v1/schedules", controllers.CreateSchedule)
	app.Get("/api/v1/schedules", controllers.GetSchedules)
	app.Post("/api/v1/schedules/:id/pause", controllers.PauseSchedule)
	app.Post("/api/v1/schedules/:id/resume", controllers.ResumeSchedule)
	app.Post("/api/v1/schedules/:id/cancel", controllers.CancelSchedule)
	app.Get("/api/v1/schedules/:id/executions", controllers.GetScheduleExecutions)

	app.Post("/api/v1/scheduler/run_due", controllers.RunDue)
	app.Get("/api/v1/performance/irr", controllers.GetIRR)

	return app
}
