// Command remoshockcli sends a single command to a receiver.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/remoshock/remoshock/internal/app"
	"github.com/remoshock/remoshock/internal/codec"
	"github.com/remoshock/remoshock/internal/config"
	"github.com/remoshock/remoshock/internal/receiver"
)

func main() {
	var (
		common   app.CommonFlags
		index    int
		action   string
		power    int
		duration int
		initWith string
	)
	fs := flag.NewFlagSet("remoshockcli", flag.ExitOnError)
	common.Register(fs)
	fs.IntVar(&index, "r", 1, "number of the receiver in the configuration, starting at 1")
	fs.IntVar(&index, "receiver", 1, "number of the receiver in the configuration, starting at 1")
	fs.StringVar(&action, "a", "BEEP", "action: LIGHT, BEEP, VIBRATE, SHOCK or BEEPSHOCK")
	fs.StringVar(&action, "action", "BEEP", "action: LIGHT, BEEP, VIBRATE, SHOCK or BEEPSHOCK")
	fs.IntVar(&power, "p", 1, "power level (0-100)")
	fs.IntVar(&power, "power", 1, "power level (0-100)")
	fs.IntVar(&duration, "d", 250, "duration in ms")
	fs.IntVar(&duration, "duration", 250, "duration in ms")
	fs.StringVar(&initWith, "init", "", "writes a new configuration with the given comma separated receiver types and exits")
	_ = fs.Parse(os.Args[1:])

	if common.Version {
		fmt.Println(app.Version)
		return
	}

	logger, closer := common.Logger("remoshockcli")
	defer closer.Close()

	if initWith != "" {
		if err := writeConfig(common, initWith); err != nil {
			logger.Error().Err(err).Msg("Failed to write configuration")
			os.Exit(1)
		}
		return
	}

	act, err := codec.ParseAction(action)
	if err != nil || !act.Transmittable() {
		logger.Error().Str("action", action).Msg("Invalid action")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Load(common.Options(), logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load configuration")
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Boot(ctx); err != nil {
		logger.Error().Err(err).Msg("Failed to boot")
		os.Exit(1)
	}

	logger.Info().
		Int("receiver", index).
		Str("action", act.String()).
		Int("power", power).
		Int("durationMs", duration).
		Msg("Command")
	if err := a.Dispatcher.Dispatch(ctx, index, act, power, duration); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		_ = a.Close()
		os.Exit(1)
	}
}

// writeConfig generates a configuration with fresh transmitter codes and a
// fresh web authentication token. An existing file is never overwritten.
func writeConfig(common app.CommonFlags, types string) error {
	path, err := config.ResolvePath(common.ConfigPath)
	if err != nil {
		return err
	}
	sdr := common.SDR
	if sdr == "" {
		sdr = "HackRF"
	}
	var list []string
	for _, t := range strings.Split(types, ",") {
		if t = strings.TrimSpace(t); t != "" {
			list = append(list, t)
		}
	}
	if len(list) == 0 {
		return fmt.Errorf("no receiver types given, supported types: %s", strings.Join(receiver.Types(), ", "))
	}

	cfg, err := config.Generate(sdr, list)
	if err != nil {
		return err
	}
	if err := config.Write(path, cfg); err != nil {
		return err
	}
	fmt.Printf("Configuration written to %s\n", path)
	fmt.Printf("Web authentication token: %s\n", cfg.Global.WebAuthenticationToken)
	return nil
}
