package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"settlementapi/src/audit"
	"settlementapi/src/controller"
	"settlementapi/src/database"
	"settlementapi/src/queue"
	"settlementapi/src/repository"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "Settlement CMD"
	app.Usage = "The settlement command line interface"

	app.Commands = []cli.Command{
		workerCMD,
		auditVerifyCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	workerCMD = cli.Command{
		Name:        "worker",
		Usage:       "run commission materialization worker",
		Action:      workerAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Consume materialization tasks and create commission rows`,
	}
	auditVerifyCMD = cli.Command{
		Name:        "auditverify",
		Usage:       "run audit chain verifier",
		Action:      auditVerifyAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Periodically revalidate the audit log hash chain`,
	}
)

func workerAction(_ *cli.Context) error {
	logrus.Info("Starting worker CMD")

	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Error("Failed to connect to database")
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	orders := controller.NewOrderController(database.MainDB, queue.NewMemory(0), controller.GetConfig())

	consumer := queue.NewKafkaConsumer(queue.GetConfig())
	defer func() {
		if err := consumer.Close(); err != nil {
			logrus.WithError(err).Error("Failed to close consumer")
		}
	}()

	if err := consumer.Run(ctx, orders.MaterializeCommissions); err != nil {
		logrus.WithError(err).Error("Worker stopped with error")
		return err
	}

	logrus.Info("Worker stopped")
	return nil
}

func auditVerifyAction(_ *cli.Context) error {
	logrus.Info("Starting auditverify CMD")

	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Error("Failed to connect to database")
		return err
	}

	config := GetConfig()

	ctx, cancel := signalContext()
	defer cancel()

	ticker := time.NewTicker(config.AuditVerifyInterval)
	defer ticker.Stop()

	// First pass immediately, then on every tick.
	if err := verifyAuditChain(ctx, config.AuditVerifyBatchSize); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			logrus.Info("auditverify stopped")
			return nil
		case <-ticker.C:
			if err := verifyAuditChain(ctx, config.AuditVerifyBatchSize); err != nil {
				return err
			}
		}
	}
}

// verifyAuditChain walks the full chain in batches, recomputing every hash.
// A broken chain is a tampering signal and stops the process loudly.
func verifyAuditChain(ctx context.Context, batchSize int) error {
	repo := repository.NewAuditRepository()

	prev := audit.GenesisHash
	var afterID uint
	var verified int

	for {
		entries, err := repo.ListAfter(ctx, afterID, batchSize)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			break
		}

		prev, err = audit.VerifyChainFrom(entries, prev)
		if err != nil {
			logrus.WithError(err).Error("AUDIT CHAIN BROKEN")
			return err
		}

		afterID = entries[len(entries)-1].ID
		verified += len(entries)
	}

	logrus.WithField("entries", verified).Info("Audit chain verified")
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		cancel()
	}()

	return ctx, cancel
}
