package recurrence

import (
	"io/ioutil"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/volatiletech/null"
	yaml "gopkg.in/yaml.v2"

	"github.com/fundwise/ledgex/models"
	"github.com/fundwise/ledgex/types"
)

type suiteRecurrenceTester struct {
	suite.Suite
}

type RecurrenceEntry struct {
	Name            string  `yaml:"name"`
	AnchorDay       int     `yaml:"anchor_day"`
	Interval        string  `yaml:"interval"`
	StartDate       string  `yaml:"start_date"`
	PriorDue        string  `yaml:"prior_due"`
	ExecutionsSoFar uint32  `yaml:"executions_so_far"`
	MaxExecutions   uint32  `yaml:"max_executions"`
	After           string  `yaml:"after"`
	Expect          *string `yaml:"expect"`
}

func (e *RecurrenceEntry) Definition(t *testing.T) *models.ScheduleDefinition {
	def := &models.ScheduleDefinition{
		AnchorDay:       e.AnchorDay,
		Interval:        e.Interval,
		StartDate:       mustDate(t, e.StartDate),
		ExecutionsSoFar: e.ExecutionsSoFar,
	}

	if len(e.PriorDue) > 0 {
		def.NextDueDate = null.TimeFrom(mustDate(t, e.PriorDue))
	}

	if e.MaxExecutions > 0 {
		def.MaxExecutions = null.Uint32From(e.MaxExecutions)
	}

	return def
}

func (e *RecurrenceEntry) Test(s *suiteRecurrenceTester) {
	s.T().Run(e.Name, func(t *testing.T) {
		def := e.Definition(t)
		after := mustDate(t, e.After)

		due, ok := NextDueDate(def, after)

		if e.Expect == nil {
			require.False(t, ok)
			return
		}

		require.True(t, ok)
		require.Equal(t, *e.Expect, due.Format("2006-01-02"))

		// Pure function: a second call must agree with the first.
		again, okAgain := NextDueDate(def, after)
		require.True(t, okAgain)
		require.Equal(t, due, again)
	})
}

func (s *suiteRecurrenceTester) TestNextDueDate() {
	fixtureFile, err := ioutil.ReadFile("./fixtures/recurrence.yaml")
	s.NoError(err)

	var entries []RecurrenceEntry
	err = yaml.Unmarshal(fixtureFile, &entries)
	if err != nil {
		panic(err)
	}

	for _, entry := range entries {
		entry.Test(s)
	}
}

func TestSuiteRecurrence(t *testing.T) {
	suite.Run(t, new(suiteRecurrenceTester))
}

// Anchor 31 monthly from January 31: the full clamp chain through a short
// February and a 30-day April.
func TestClampChainAnchorThirtyFirst(t *testing.T) {
	def := &models.ScheduleDefinition{
		AnchorDay: 31,
		Interval:  types.IntervalMonthly,
		StartDate: mustDate(t, "2023-01-31"),
	}

	expected := []string{"2023-01-31", "2023-02-28", "2023-03-31", "2023-04-30", "2023-05-31"}

	after := def.StartDate
	for _, want := range expected {
		due, ok := NextDueDate(def, after)
		require.True(t, ok)
		require.Equal(t, want, due.Format("2006-01-02"))

		def.NextDueDate = null.TimeFrom(due)
		after = due.AddDate(0, 0, 1)
	}
}

func TestDaysInMonth(t *testing.T) {
	require.Equal(t, 29, DaysInMonth(2024, time.February))
	require.Equal(t, 28, DaysInMonth(2023, time.February))
	require.Equal(t, 31, DaysInMonth(2023, time.December))
	require.Equal(t, 30, DaysInMonth(2023, time.April))
}

func TestDateOfTruncates(t *testing.T) {
	ts := time.Date(2024, time.June, 3, 17, 45, 12, 0, time.UTC)
	require.Equal(t, time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC), DateOf(ts))
}

func mustDate(t *testing.T, value string) time.Time {
	parsed, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)

	return parsed
}
