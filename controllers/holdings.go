package controllers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fundwise/ledgex/config"
	"github.com/fundwise/ledgex/controllers/helpers"
	"github.com/fundwise/ledgex/ledger"
	"github.com/fundwise/ledgex/models"
	"github.com/fundwise/ledgex/recurrence"
	"github.com/fundwise/ledgex/types"
	"github.com/fundwise/ledgex/valuation"
)

type CreatePortfolioParams struct {
	Name     string `json:"name" form:"name" validate:"required"`
	Currency string `json:"currency" form:"currency" validate:"required"`
}

func CreatePortfolio(c *fiber.Ctx) error {
	errs := new(helpers.Errors)
	payload := new(CreatePortfolioParams)

	if err := c.BodyParser(payload); err != nil {
		c.Status(500).JSON(helpers.Errors{Errors: []string{"server.method.invalid_message_body"}})
		return err
	}

	helpers.Validate(payload, errs)
	if errs.Size() > 0 {
		return c.Status(422).JSON(errs)
	}

	portfolio := &models.Portfolio{
		ID:       uuid.New(),
		Name:     payload.Name,
		Currency: payload.Currency,
	}

	if result := config.DataBase.Create(portfolio); result.Error != nil {
		return c.Status(500).JSON(helpers.Errors{Errors: []string{"server.internal_error"}})
	}

	return c.Status(201).JSON(portfolio.ToJSON())
}

type CreateHoldingParams struct {
	PortfolioID string `json:"portfolio_id" form:"portfolio_id" validate:"required"`
	Name        string `json:"name" form:"name" validate:"required"`
	Currency    string `json:"currency" form:"currency" validate:"required"`
}

func CreateHolding(c *fiber.Ctx) error {
	errs := new(helpers.Errors)
	payload := new(CreateHoldingParams)

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
		return c.Status(422).JSON(helpers.Errors{Errors: []string{"holding.invalid_portfolio_id"}})
	}

	var count int64
	config.DataBase.Model(&models.Portfolio{}).Where("id = ?", portfolioID).Count(&count)
	if count == 0 {
		return c.Status(422).JSON(helpers.Errors{Errors: []string{"holding.unknown_portfolio"}})
	}

	holding := &models.Holding{
		ID:          uuid.New(),
		PortfolioID: portfolioID,
		Name:        payload.Name,
		Currency:    payload.Currency,
	}

	if result := config.DataBase.Create(holding); result.Error != nil {
		return c.Status(500).JSON(helpers.Errors{Errors: []string{"server.internal_error"}})
	}

	return c.Status(201).JSON(holding.ToJSON())
}

type UpsertValuationParams struct {
	OwnerID string          `json:"owner_id" form:"owner_id" validate:"required"`
	Date    string          `json:"date" form:"date" validate:"required"`
	Amount  decimal.Decimal `json:"amount" form:"amount" validate:"ValidateAmount"`
}

func (p UpsertValuationParams) ValidateAmount(Amount decimal.Decimal) bool {
	return !Amount.IsNegative()
}

// UpsertValuation stores a holding's snapshot for a date and notifies the
// performance pipeline so dependent aggregates and rates refresh.
func UpsertValuation(c *fiber.Ctx) error {
	errs := new(helpers.Errors)
	payload := new(UpsertValuationParams)

	if err := c.BodyParser(payload); err != nil {
		c.Status(500).JSON(helpers.Errors{Errors: []string{"server.method.invalid_message_body"}})
		return err
	}

	helpers.Validate(payload, errs)
	if errs.Size() > 0 {
		return c.Status(422).JSON(errs)
	}

	ownerID, err := uuid.Parse(payload.OwnerID)
	if err != nil {
		return c.Status(422).JSON(helpers.Errors{Errors: []string{"valuation.invalid_owner_id"}})
	}

	date, err := time.Parse("2006-01-02", payload.Date)
	if err != nil {
		return c.Status(422).JSON(helpers.Errors{Errors: []string{"valuation.invalid_date"}})
	}

	store := valuation.NewGormStore(config.DataBase)

	snapshot, err := store.Upsert(c.Context(), &models.Valuation{
		OwnerID: ownerID,
		Date:    recurrence.DateOf(date),
		Amount:  payload.Amount,
	})

	if err != nil {
		return c.Status(503).JSON(helpers.Errors{Errors: []string{"valuation.write_failed"}})
	}

	if models.HoldingExists(ownerID) {
		publisher := ledger.NewNatsPublisher()
		if err := publisher.PublishHoldingTouched(types.HoldingTouchedMessage{
			HoldingID: ownerID.String(),
			Date:      payload.Date,
		}); err != nil {
			config.Logger.Warnf("valuation: publish for %s failed: %v", ownerID, err)
		}
	}

	return c.Status(201).JSON(snapshot.ToJSON())
}
