package main

import (
	"fmt"
	"os"
	"time"

	"github.com/streadway/amqp"

	"github.com/fundwise/ledgex/config"
	"github.com/fundwise/ledgex/mq_client"
	"github.com/fundwise/ledgex/types"
	"github.com/fundwise/ledgex/workers/engines"
)

var Connection *amqp.Connection

func CreateWorker(id string) engines.Worker {
	switch id {
	case "performance":
		return engines.NewPerformanceWorker()
	default:
		return nil
	}
}

func GetSubject(id string) string {
	switch id {
	case "performance":
		return types.SubjectHoldingTouched
	default:
		return id
	}
}

func main() {
	if err := config.InitializeConfig(); err != nil {
		fmt.Println(err.Error())
		return
	}
	mq_client.Connect()

	Connection = mq_client.Connection
	Channel := mq_client.GetChannel()

	ARVG := os.Args[1:]

	for _, id := range ARVG {
		fmt.Println("Start ledgex-worker: " + id)
		worker := CreateWorker(id)

		prefetch := mq_client.GetPrefetchCount(id)

		if prefetch > 0 {
			mq_client.GetChannel().Qos(prefetch, 0, false)
		}

		binding_queue := mq_client.GetBindingQueue(id)
		binding_queue_id := mq_client.GetBindingExchangeId(id)
		exchange_name, exchange_kind := mq_client.GetExchange(binding_queue_id)
		routing_key := mq_client.GetRoutingKey(id)

		if err := Channel.ExchangeDeclare(exchange_name, exchange_kind, binding_queue.Durable, false, false, false, nil); err != nil {
			config.Logger.Errorf("Exchange Declare: %v\n", err)
			return
		}
		if _, err := Channel.QueueDeclare(binding_queue.Name, binding_queue.Durable, false, false, false, nil); err != nil {
			config.Logger.Errorf("Queue Declare: %v\n", err)
			return
		}
		Channel.QueueBind(binding_queue.Name, routing_key, exchange_name, false, nil)

		sub, _ := config.Nats.QueueSubscribeSync(GetSubject(id), binding_queue.Name)

		for {
			m, err := sub.NextMsg(1 * time.Second)

			if err != nil {
				continue
			}

			if err := worker.Process(m.Data); err == nil {
				m.Ack()
			} else {
				config.Logger.Errorf("Worker error: %v", err.Error())
			}
		}
	}
}
