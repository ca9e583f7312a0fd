package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/fundwise/ledgex/config"
	"github.com/fundwise/ledgex/controllers/entities"
	"github.com/fundwise/ledgex/controllers/helpers"
	"github.com/fundwise/ledgex/controllers/queries"
	"github.com/fundwise/ledgex/irr"
	"github.com/fundwise/ledgex/scheduler"
	"github.com/fundwise/ledgex/types"
	"github.com/fundwise/ledgex/valuation"
)

// GetIRR computes (or serves from cache) the rate for a set of holdings.
// Domain-level "cannot compute" outcomes are 200s with a status, never a
// misleading 0%.
func GetIRR(c *fiber.Ctx) error {
	params := new(queries.IRRFilters)
	if err := c.QueryParser(params); err != nil {
		return c.Status(500).JSON(helpers.Errors{Errors: []string{"server.method.invalid_query"}})
	}

	if len(params.HoldingIDs) == 0 {
		return c.Status(422).JSON(helpers.Errors{Errors: []string{"irr.missing_holding_ids"}})
	}

	refs := strings.Split(params.HoldingIDs, ",")
	holdingIDs := make([]uuid.UUID, 0, len(refs))

	for _, ref := range refs {
		id, err := uuid.Parse(strings.TrimSpace(ref))
		if err != nil {
			return c.Status(422).JSON(helpers.Errors{Errors: []string{"irr.invalid_holding_id"}})
		}

		holdingIDs = append(holdingIDs, id)
	}

	asOf := time.Now().UTC()
	if len(params.AsOf) > 0 {
		parsed, err := time.Parse("2006-01-02", params.AsOf)
		if err != nil {
			return c.Status(422).JSON(helpers.Errors{Errors: []string{"irr.invalid_as_of"}})
		}

		asOf = parsed
	}

	engine := irr.NewEngine(irr.NewGormStore(config.DataBase), irr.NewRedisCache())

	entity := entities.IRREntity{
		HoldingRefs: refs,
		AsOfDate:    asOf.Format("2006-01-02"),
	}

	rate, err := engine.Compute(c.Context(), holdingIDs, asOf)

	switch {
	case err == nil:
		entity.Rate = &rate
		entity.Status = entities.IRRStatusOK
	case errors.Is(err, types.ErrUndefined):
		entity.Status = entities.IRRStatusUndefined
	case errors.Is(err, types.ErrNoConvergence):
		entity.Status = entities.IRRStatusNoConvergence
	case errors.Is(err, types.ErrNoChildValuations):
		entity.Status = entities.IRRStatusUnavailable
	default:
		return c.Status(503).JSON(helpers.Errors{Errors: []string{"irr.compute_failed"}})
	}

	return c.Status(200).JSON(entity)
}

type RunDueParams struct {
	AsOf string `json:"as_of" form:"as_of"`
}

// RunDue triggers scheduled-transaction execution for everything due on or
// before the given date (today when omitted).
func RunDue(c *fiber.Ctx) error {
	payload := new(RunDueParams)

	if err := c.BodyParser(payload); err != nil && len(c.Body()) > 0 {
		c.Status(500).JSON(helpers.Errors{Errors: []string{"server.method.invalid_message_body"}})
		return err
	}

	asOf := time.Now().UTC()
	if len(payload.AsOf) > 0 {
		parsed, err := time.Parse("2006-01-02", payload.AsOf)
		if err != nil {
			return c.Status(422).JSON(helpers.Errors{Errors: []string{"scheduler.invalid_as_of"}})
		}

		asOf = parsed
	}

	service := scheduler.NewService(scheduler.NewGormStore(config.DataBase), newWriter())

	result, err := service.RunDue(c.Context(), asOf)
	if err != nil {
		return c.Status(503).JSON(helpers.Errors{Errors: []string{"scheduler.run_failed"}})
	}

	return c.Status(200).JSON(result)
}

type EnsureParentValuationParams struct {
	PortfolioID string `json:"portfolio_id" form:"portfolio_id" validate:"required"`
	Date        string `json:"date" form:"date" validate:"required"`
}

// EnsureParentValuation rolls child holdings up into a portfolio valuation
// for the date.
func EnsureParentValuation(c *fiber.Ctx) error {
	errs := new(helpers.Errors)
	payload := new(EnsureParentValuationParams)

	if err := c.BodyParser(payload); err != nil {
		c.Status(500).JSON(helpers.Errors{Errors: []string{"server.method.invalid_message_body"}})
		return err
	}

	helpers.Validate(payload, errs)
	if errs.Size() > 0 {
		return c.Status(422).JSON(errs)
	}

	portfolioID, err := uuid.Parse(payload.PortfolioID)
	if err != nil {
		return c.Status(422).JSON(helpers.Errors{Errors: []string{"valuation.invalid_portfolio_id"}})
	}

	date, err := time.Parse("2006-01-02", payload.Date)
	if err != nil {
		return c.Status(422).JSON(helpers.Errors{Errors: []string{"valuation.invalid_date"}})
	}

	aggregator := valuation.NewAggregator(valuation.NewGormStore(config.DataBase))

	snapshot, err := aggregator.EnsureParentValuation(c.Context(), portfolioID, date)
	if err != nil {
		if errors.Is(err, types.ErrNoChildValuations) {
			return c.Status(422).JSON(helpers.Errors{Errors: []string{"valuation.no_child_valuations"}})
		}

		return c.Status(503).JSON(helpers.Errors{Errors: []string{"valuation.aggregate_failed"}})
	}

	return c.Status(200).JSON(snapshot.ToJSON())
}
