package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/fundwise/ledgex/config"
	"github.com/fundwise/ledgex/controllers/helpers"
	"github.com/fundwise/ledgex/controllers/queries"
	"github.com/fundwise/ledgex/models"
	"github.com/fundwise/ledgex/types"
)

func CreateSchedule(c *fiber.Ctx) error {
	errors := new(helpers.Errors)
	payload := new(helpers.CreateScheduleParams)

	if err := c.BodyParser(payload); err != nil {
		c.Status(500).JSON(helpers.Errors{
			Errors: []string{"server.method.invalid_message_body"},
		})

		return err
	}

	helpers.Validate(payload, errors)
	if errors.Size() > 0 {
		return c.Status(422).JSON(errors)
	}

	schedule := payload.CreateSchedule(errors)
	if errors.Size() > 0 {
		return c.Status(422).JSON(errors)
	}

	return c.Status(201).JSON(schedule.ToJSON())
}

func GetSchedules(c *fiber.Ctx) error {
	var schedules []*models.ScheduleDefinition

	tx := config.DataBase.Order("id asc")

	if status := c.Query("status"); len(status) > 0 {
		tx = tx.Where("status = ?", status)
	}

	if holdingID := c.Query("holding_id"); len(holdingID) > 0 {
		tx = tx.Where("holding_id = ?", holdingID)
	}

	tx.Find(&schedules)

	schedules_json := make([]models.ScheduleDefinitionJSON, 0)
	for _, schedule := range schedules {
		schedules_json = append(schedules_json, schedule.ToJSON())
	}

	return c.Status(200).JSON(schedules_json)
}

func findSchedule(c *fiber.Ctx, tx *gorm.DB) (*models.ScheduleDefinition, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return nil, c.Status(422).JSON(helpers.Errors{Errors: []string{"schedule.invalid_id"}})
	}

	schedule := &models.ScheduleDefinition{}
	if result := tx.First(schedule, "id = ?", id); result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, c.Status(404).JSON(helpers.Errors{Errors: []string{"schedule.not_found"}})
		}

		return nil, c.Status(500).JSON(helpers.Errors{Errors: []string{"server.internal_error"}})
	}

	return schedule, nil
}

func transitionSchedule(c *fiber.Ctx, transition func(*models.ScheduleDefinition) error) error {
	schedule, err := findSchedule(c, models.Lock())
	if schedule == nil {
		return err
	}

	if err := transition(schedule); err != nil {
		return c.Status(422).JSON(helpers.Errors{Errors: []string{err.Error()}})
	}

	if result := config.DataBase.Save(schedule); result.Error != nil {
		return c.Status(500).JSON(helpers.Errors{Errors: []string{"server.internal_error"}})
	}

	return c.Status(200).JSON(schedule.ToJSON())
}

func PauseSchedule(c *fiber.Ctx) error {
	return transitionSchedule(c, (*models.ScheduleDefinition).Pause)
}

func ResumeSchedule(c *fiber.Ctx) error {
	return transitionSchedule(c, (*models.ScheduleDefinition).Resume)
}

func CancelSchedule(c *fiber.Ctx) error {
	return transitionSchedule(c, (*models.ScheduleDefinition).Cancel)
}

// GetScheduleExecutions returns the append-only execution history for one
// definition, newest first by default.
func GetScheduleExecutions(c *fiber.Ctx) error {
	schedule, err := findSchedule(c, config.DataBase)
	if schedule == nil {
		return err
	}

	errs := new(helpers.Errors)
	params := new(queries.ExecutionFilters)
	if err := c.QueryParser(params); err != nil {
		return c.Status(500).JSON(helpers.Errors{Errors: []string{"server.method.invalid_query"}})
	}

	helpers.Validate(params, errs)
	if errs.Size() > 0 {
		return c.Status(422).JSON(errs)
	}

	if len(params.OrderBy) == 0 {
		params.OrderBy = types.OrderByDesc
	}

	tx := config.DataBase.Order("executed_at " + params.OrderBy).Where("schedule_definition_id = ?", schedule.ID)

	if params.Limit > 0 {
		tx = tx.Limit(params.Limit)
	}

	var records []*models.ExecutionRecord
	tx.Find(&records)

	records_json := make([]models.ExecutionRecordJSON, 0)
	for _, record := range records {
		records_json = append(records_json, record.ToJSON())
	}

	return c.Status(200).JSON(records_json)
}
