package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"settlementapi/src/controller"
	"settlementapi/src/database"
	"settlementapi/src/queue"
	"settlementapi/src/server"
)

var (
	APP_NAME = os.Getenv("APP_NAME")
)

func SetupLogger() {
	levelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))

	level, err := logger.ParseLevel(levelStr)
	if err != nil {
		level = logger.DebugLevel
	}

	logger.SetLevel(level)
	logger.SetFormatter(&logger.TextFormatter{
		FullTimestamp: true,
	})
}

func main() {
	SetupLogger()
	defer handlePanic()

	if err := database.InitMainDB(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	queueCfg := queue.GetConfig()
	ctrlCfg := controller.GetConfig()

	var publisher queue.Publisher
	if queueCfg.Enabled {
		publisher = queue.NewKafkaPublisher(queueCfg)
	} else {
		// Single-binary mode: materialization runs in-process.
		mem := queue.NewMemory(0)
		publisher = mem

		orders := controller.NewOrderController(database.MainDB, mem, ctrlCfg)
		go mem.Run(context.Background(), orders.MaterializeCommissions)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.WithError(err).Error("Failed to close publisher")
		}
	}()

	deps := server.Deps{
		Orders:  controller.NewOrderController(database.MainDB, publisher, ctrlCfg),
		Cash:    controller.NewCashController(database.MainDB),
		Payouts: controller.NewPayoutController(database.MainDB, ctrlCfg),
	}

	server.StartServer(server.GetConfig().Port, deps)
}

func handlePanic() {
	if r := recover(); r != nil {
		logger.WithError(fmt.Errorf("%+v", r)).Error(fmt.Sprintf("Application %s panic", APP_NAME))
	}
	//nolint
	time.Sleep(time.Second * 5)
}
