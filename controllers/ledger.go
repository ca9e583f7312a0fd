package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/fundwise/ledgex/config"
	"github.com/fundwise/ledgex/controllers/helpers"
	"github.com/fundwise/ledgex/controllers/queries"
	"github.com/fundwise/ledgex/ledger"
	"github.com/fundwise/ledgex/models"
	"github.com/fundwise/ledgex/sequence"
	"github.com/fundwise/ledgex/types"
)

func newWriter() *ledger.Writer {
	return ledger.NewWriter(
		sequence.NewPostgresAllocator(config.DataBase),
		ledger.NewGormStore(config.DataBase),
		ledger.NewNatsPublisher(),
	)
}

// WriteBatch creates ledger entries for the whole batch atomically, with
// identifiers assigned in input order.
func WriteBatch(c *fiber.Ctx) error {
	errs := new(helpers.Errors)
	payload := new(helpers.WriteBatchParams)

	if err := c.BodyParser(payload); err != nil {
		c.Status(500).JSON(helpers.Errors{
			Errors: []string{"server.method.invalid_message_body"},
		})

		return err
	}

	inputs := payload.ToInputs(errs)
	if errs.Size() > 0 {
		return c.Status(422).JSON(errs)
	}

	entries, err := newWriter().WriteBatch(c.Context(), inputs)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrValidationFailed):
			return c.Status(422).JSON(helpers.Errors{Errors: []string{err.Error()}})
		case errors.Is(err, types.ErrDeadlineExceeded):
			return c.Status(504).JSON(helpers.Errors{Errors: []string{"server.deadline_exceeded"}})
		case types.Retryable(err):
			return c.Status(503).JSON(helpers.Errors{Errors: []string{"ledger.write_failed"}})
		default:
			return c.Status(500).JSON(helpers.Errors{Errors: []string{"server.internal_error"}})
		}
	}

	entries_json := make([]models.LedgerEntryJSON, 0, len(entries))
	for _, entry := range entries {
		entries_json = append(entries_json, entry.ToJSON())
	}

	return c.Status(201).JSON(entries_json)
}

func GetLedgerEntries(c *fiber.Ctx) error {
	errs := new(helpers.Errors)
	params := new(queries.EntryFilters)
	if err := c.QueryParser(params); err != nil {
		return c.Status(500).JSON(helpers.Errors{Errors: []string{"server.method.invalid_query"}})
	}

	helpers.Validate(params, errs)
	if errs.Size() > 0 {
		return c.Status(422).JSON(errs)
	}

	if len(params.OrderBy) == 0 {
		params.OrderBy = types.OrderByAsc
	}

	tx := config.DataBase.Order("effective_at " + params.OrderBy + ", id " + params.OrderBy)

	if len(params.HoldingID) > 0 {
		tx = tx.Where("holding_id = ?", params.HoldingID)
	}

	if len(params.TimeFrom) > 0 {
		tx = tx.Where("effective_at >= ?", params.TimeFrom)
	}

	if len(params.TimeTo) > 0 {
		tx = tx.Where("effective_at <= ?", params.TimeTo)
	}

	if params.Limit > 0 {
		tx = tx.Limit(params.Limit)
	}

	var entries []*models.LedgerEntry
	tx.Find(&entries)

	entries_json := make([]models.LedgerEntryJSON, 0)
	for _, entry := range entries {
		entries_json = append(entries_json, entry.ToJSON())
	}

	return c.Status(200).JSON(entries_json)
}
