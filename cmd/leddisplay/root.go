package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/speedsqueak/leddisplay"
	"github.com/speedsqueak/leddisplay/telemetry"
	"github.com/spf13/cobra"
)

var (
	// arguments
	argTransport     string
	argEndpoint      string
	argTopic         string
	argClientID      string
	argGPIO          string
	argClock         string
	argData          string
	argLatch         string
	argChip          string
	argFlashes       int
	argFlashInterval time.Duration
	argHold          time.Duration
	argLogLevel      string

	rootCmd = &cobra.Command{
		Use:          "leddisplay",
		Short:        "Show speed events on a large seven-segment display",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(os.Stderr, argLogLevel)
			if err != nil {
				return err
			}
			return run(cmd.Context(), log)
		},
	}
)

func init() {
	rootCmd.Flags().StringVarP(&argTransport, "transport", "t", "zmq", "Telemetry transport: zmq or mqtt")
	rootCmd.Flags().StringVarP(&argEndpoint, "endpoint", "e", telemetry.DefaultEndpoint, "Publisher endpoint (zmq) or broker URL (mqtt)")
	rootCmd.Flags().StringVar(&argTopic, "topic", telemetry.DefaultTopic, "Topic prefix to subscribe to")
	rootCmd.Flags().StringVar(&argClientID, "client-id", "leddisplay", "MQTT client id")
	rootCmd.Flags().StringVar(&argGPIO, "gpio", "periph", "GPIO backend: periph or cdev")
	rootCmd.Flags().StringVar(&argClock, "clock", "GPIO17", "Clock line (pin name for periph, offset for cdev)")
	rootCmd.Flags().StringVar(&argData, "data", "GPIO22", "Data line (pin name for periph, offset for cdev)")
	rootCmd.Flags().StringVar(&argLatch, "latch", "GPIO27", "Latch line (pin name for periph, offset for cdev)")
	rootCmd.Flags().StringVar(&argChip, "chip", "gpiochip0", "GPIO chip for the cdev backend")
	rootCmd.Flags().IntVar(&argFlashes, "flashes", leddisplay.DefaultFlashes, "Number of flashes before the hold")
	rootCmd.Flags().DurationVar(&argFlashInterval, "flash-interval", leddisplay.DefaultFlashInterval, "Duration of each flash and each gap")
	rootCmd.Flags().DurationVar(&argHold, "hold", leddisplay.DefaultHold, "How long a reading is held after flashing")
	rootCmd.Flags().StringVar(&argLogLevel, "log-level", "info", "Log level: debug, info, warn, error")
}

func newLogger(w io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().
		Timestamp().
		Str("service", "speedsqueak-display").
		Logger(), nil
}

func run(ctx context.Context, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	lines, err := openLines(argGPIO, argChip, argClock, argData, argLatch)
	if err != nil {
		return err
	}
	defer lines.Close()

	return serve(ctx, log, lines, func(ctx context.Context) (telemetry.Subscriber, error) {
		return openSubscriber(ctx, log)
	})
}

// serve drives the display from the subscriber returned by open until ctx is
// cancelled or the loop fails. Once the display is up it is blanked on every
// exit path, and cancellation is a clean shutdown.
func serve(ctx context.Context, log zerolog.Logger, lines *busLines, open func(context.Context) (telemetry.Subscriber, error)) error {
	dev, err := leddisplay.New(&leddisplay.Opts{
		Clock:         lines.clock,
		Data:          lines.data,
		Latch:         lines.latch,
		Flashes:       argFlashes,
		FlashInterval: argFlashInterval,
		Hold:          argHold,
	})
	if err != nil {
		return err
	}
	if err := dev.Clear(); err != nil {
		log.Error().Err(err).Msg("failed to blank display")
		return err
	}
	log.Info().Str("gpio", argGPIO).Stringer("display", dev).Msg("display ready")

	err = func() error {
		sub, err := open(ctx)
		if err != nil {
			return err
		}
		defer sub.Close()
		log.Info().Str("transport", argTransport).Str("endpoint", argEndpoint).Str("topic", argTopic).Msg("subscribed")

		loop := &telemetry.Loop{
			Sub:     sub,
			Display: dev,
			Prefix:  argTopic,
			Logger:  log,
		}
		return loop.Run(ctx)
	}()

	if herr := dev.Halt(); herr != nil {
		log.Error().Err(herr).Msg("failed to blank display")
		if err == nil || errors.Is(err, context.Canceled) {
			err = herr
		}
	}
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		log.Info().Msg("shutting down")
		return nil
	}
	log.Error().Err(err).Msg("display loop stopped")
	return err
}

func openSubscriber(ctx context.Context, log zerolog.Logger) (telemetry.Subscriber, error) {
	switch argTransport {
	case "zmq":
		return telemetry.NewZMQSubscriber(argEndpoint, argTopic)
	case "mqtt":
		return telemetry.NewMQTTSubscriber(ctx, telemetry.MQTTOpts{
			Broker:   argEndpoint,
			ClientID: argClientID,
			Prefix:   argTopic,
			Logger:   log,
		})
	}
	return nil, fmt.Errorf("unknown transport %q", argTransport)
}
