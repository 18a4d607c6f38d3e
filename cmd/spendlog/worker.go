package main

import (
	"context"

	"github.com/spf13/cobra"

	"spendlog/internal/amqp"
	"spendlog/internal/backend"
	"spendlog/internal/cli"
	applog "spendlog/internal/log"
	"spendlog/internal/worker"
)

func newWorkerCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Mirror stored values into the mirror backend",
		Long: `worker consumes storage change messages from AMQP and copies the
changed values from the data backend into the mirror backend. It also
reconciles every tracked key at startup and on a fixed interval.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runWorker()
		},
	}
}

func (a *app) runWorker() error {
	logger := a.logger.WithComponent(applog.ComponentWorker).Logger

	if err := a.cfg.ValidateWorker(); err != nil {
		return err
	}

	// The worker never publishes; it only reads the primary.
	primaryConfig, err := backend.Primary(a.cfg)
	if err != nil {
		return err
	}
	primaryConfig.Publish = nil
	mirrorConfig, err := backend.Mirror(a.cfg)
	if err != nil {
		return err
	}

	opener := backend.NewOpener(logger)
	primary, err := opener.Open(context.Background(), primaryConfig)
	if err != nil {
		return err
	}
	defer primary.Close()

	mirror, err := opener.Open(context.Background(), mirrorConfig)
	if err != nil {
		return err
	}
	defer mirror.Close()

	client, err := amqp.NewClient(a.cfg.AMQPURL, a.cfg.AMQPExchange, a.cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		return err
	}
	defer client.Close()

	ctx, stop := cli.SignalContext(context.Background(), logger)
	defer stop()

	logger.Info("Starting spendlog worker",
		"data_backend", a.cfg.DataBackend,
		"mirror_backend", a.cfg.MirrorBackend,
		"sync_interval", a.cfg.SyncInterval)

	w := worker.NewMirrorWorker(primary.Store, mirror.Store, a.cfg.SyncInterval)
	if err := w.Run(ctx, client); err != nil {
		logger.Error("Worker stopped", applog.FieldError, err)
		return err
	}

	logger.Info("Worker shutdown complete")
	return nil
}
