package main

import (
	"fmt"

	"github.com/fundwise/ledgex/config"
	"github.com/fundwise/ledgex/mq_client"
	"github.com/fundwise/ledgex/routes"
)

func main() {
	if err := config.InitializeConfig(); err != nil {
		fmt.Println(err.Error())
		return
	}
	mq_client.Connect()

	r := routes.SetupRouter()
	// running
	r.Listen(":3000")
}
