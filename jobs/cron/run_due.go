package cron

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/jasonlvhit/gocron"

	"github.com/fundwise/ledgex/config"
	"github.com/fundwise/ledgex/ledger"
	"github.com/fundwise/ledgex/mq_client"
	"github.com/fundwise/ledgex/scheduler"
	"github.com/fundwise/ledgex/sequence"
)

// RunDueJob executes due schedule definitions once a day shortly after
// midnight UTC.
type RunDueJob struct {
}

func (j *RunDueJob) Process() {
	s := gocron.NewScheduler()
	s.Every(1).Day().At("00:05:00").Do(runDue)
	<-s.Start()
}

func runDue() {
	writer := ledger.NewWriter(
		sequence.NewPostgresAllocator(config.DataBase),
		ledger.NewGormStore(config.DataBase),
		ledger.NewNatsPublisher(),
	)

	service := scheduler.NewService(scheduler.NewGormStore(config.DataBase), writer)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	asOf := time.Now().UTC()

	result, err := service.RunDue(ctx, asOf)
	if err != nil {
		config.Logger.Errorf("cron: run due failed: %v", err)
		return
	}

	config.Logger.Infof("cron: run due executed=%d failed=%d", result.ExecutedCount, result.FailedCount)

	summary, _ := json.Marshal(result)
	mq_client.EnqueueEvent("private", asOf.Format("2006-01-02"), "schedules_executed", summary)

	for _, execErr := range result.Errors {
		config.Logger.Warnf("cron: definition %d failed: %s", execErr.DefinitionID, execErr.Reason)

		payload, _ := json.Marshal(execErr)
		mq_client.EnqueueEvent("private", strconv.FormatUint(execErr.DefinitionID, 10), "execution_failed", payload)
	}
}
