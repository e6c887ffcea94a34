package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/anicoll/gqgmc-mqtt/internal/pkg/config"
	"github.com/anicoll/gqgmc-mqtt/internal/pkg/control"
	"github.com/anicoll/gqgmc-mqtt/internal/pkg/gmc"
	"github.com/anicoll/gqgmc-mqtt/internal/pkg/ipc"
	"github.com/anicoll/gqgmc-mqtt/internal/pkg/mqtt"
	"github.com/anicoll/gqgmc-mqtt/internal/pkg/payload"
	"github.com/anicoll/gqgmc-mqtt/internal/pkg/publisher"
)

// GatewayCommand loads the configuration, connects to the broker and the
// instrument and runs until SIGINT or SIGTERM.
func GatewayCommand(ctx *cli.Context) error {
	cfg, err := config.Load(ctx.String("config-file"))
	if err != nil {
		return err
	}
	if ctx.IsSet("log-level") {
		cfg.LogLevel = ctx.String("log-level")
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync() // flushes buffer, if any.
	}()
	zap.ReplaceGlobals(logger)

	session, instrument, err := connect(
		func() (SessionService, error) {
			session, err := mqtt.Connect(cfg.MQTTSettings(), mqtt.WithLogger(logger))
			if err != nil {
				return nil, err
			}
			return session, nil
		},
		func() (Instrument, error) {
			instrument, err := gmc.Open(cfg.SerialPort, cfg.SerialBaudRate)
			if err != nil {
				return nil, err
			}
			return instrument, nil
		},
	)
	if err != nil {
		return err
	}
	defer func() {
		if err := instrument.Close(); err != nil {
			logger.Warn("failed to close instrument", zap.Error(err))
		}
	}()

	sigCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return run(sigCtx, cfg, session, instrument, logger)
}

// connect dials the broker and then opens the instrument. The broker
// connection is closed again if the instrument can't be opened.
func connect(dial func() (SessionService, error), open func() (Instrument, error)) (SessionService, Instrument, error) {
	session, err := dial()
	if err != nil {
		return nil, nil, err
	}
	instrument, err := open()
	if err != nil {
		session.Close()
		return nil, nil, err
	}
	return session, instrument, nil
}

func newLogger(level string) (*zap.Logger, error) {
	var err error
	logCfg := zap.NewProductionConfig()

	logCfg.Level, err = zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("%w: log level %q: %w", config.ErrConfigInvalid, level, err)
	}
	logCfg.OutputPaths = []string{"stdout"}
	logCfg.ErrorOutputPaths = []string{"stdout"}
	logCfg.Sampling = nil
	return logCfg.Build(zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel))
}

// run supervises the session task and the poll loop. Either one exiting
// shuts the other down; the first error is returned.
func run(ctx context.Context, cfg *config.Config, session SessionService, instrument payload.Instrument, logger *zap.Logger) error {
	outboundTx, outboundRx := ipc.New(ipc.DefaultCapacity)
	inboundTx, inboundRx := ipc.New(ipc.DefaultCapacity)
	broadcaster := control.NewBroadcaster(control.DefaultCapacity)

	sessionCtrl := broadcaster.Subscribe()
	watchCtrl := broadcaster.Subscribe()
	poller := publisher.New(instrument, outboundTx, inboundRx, broadcaster.Subscribe(),
		publisher.WithInterval(cfg.PollInterval),
		publisher.WithLogger(logger),
	)

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		select {
		case <-ctx.Done():
			logger.Info("shutting down", zap.Error(context.Cause(ctx)))
			broadcaster.Shutdown()
		case <-watchCtrl:
		}
		return nil
	})

	eg.Go(func() error {
		defer broadcaster.Shutdown()
		if err := session.Run(outboundRx, sessionCtrl, inboundTx); err != nil {
			return fmt.Errorf("mqtt session: %w", err)
		}
		logger.Info("mqtt session stopped")
		return nil
	})

	eg.Go(func() error {
		defer broadcaster.Shutdown()
		if err := poller.Run(ctx); err != nil {
			logger.Error("poll loop failed", zap.Error(err))
			return err
		}
		logger.Info("poll loop stopped")
		return nil
	})

	return eg.Wait()
}
