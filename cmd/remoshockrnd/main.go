// Command remoshockrnd runs the randomizer without a web server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/remoshock/remoshock/internal/app"
	"github.com/remoshock/remoshock/internal/config"
)

func main() {
	var (
		common  app.CommonFlags
		section string
		skip    bool
	)
	fs := flag.NewFlagSet("remoshockrnd", flag.ExitOnError)
	common.Register(fs)
	fs.StringVar(&section, "s", config.DefaultSection, "randomizer section or profile of the configuration")
	fs.StringVar(&section, "section", config.DefaultSection, "randomizer section or profile of the configuration")
	fs.BoolVar(&skip, "skip-startup-beeps", false, "skips the test beeps on startup")
	_ = fs.Parse(os.Args[1:])

	if common.Version {
		fmt.Println(app.Version)
		return
	}

	logger, closer := common.Logger("remoshockrnd")
	defer closer.Close()

	if err := run(common, section, skip, logger); err != nil {
		logger.Error().Err(err).Msg("Randomizer failed")
		_ = closer.Close()
		os.Exit(1)
	}
}

func run(common app.CommonFlags, section string, skip bool, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Load(common.Options(), logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.Boot(ctx); err != nil {
		return err
	}

	cfg, err := a.RandomizerConfig(section)
	if err != nil {
		return err
	}
	cfg.SkipStartupBeeps = skip

	err = a.NewRandomizer(cfg).Run(ctx, cfg)
	if errors.Is(err, context.Canceled) {
		logger.Info().Msg("Stopped by signal")
		return nil
	}
	return err
}
