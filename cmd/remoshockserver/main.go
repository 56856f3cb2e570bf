// Command remoshockserver serves the web interface API, the randomizer and
// the activity feed.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/remoshock/remoshock/internal/api"
	"github.com/remoshock/remoshock/internal/app"
	"github.com/remoshock/remoshock/internal/auth"
	"github.com/remoshock/remoshock/internal/config"
	"github.com/remoshock/remoshock/internal/telemetry"
)

func main() {
	var (
		common app.CommonFlags
		port   int
	)
	fs := flag.NewFlagSet("remoshockserver", flag.ExitOnError)
	common.Register(fs)
	fs.IntVar(&port, "port", 0, "overrides the web_port setting of the configuration")
	_ = fs.Parse(os.Args[1:])

	if common.Version {
		fmt.Println(app.Version)
		return
	}

	logger, closer := common.Logger("remoshockserver")
	defer closer.Close()

	if err := run(common, port, logger); err != nil {
		logger.Error().Err(err).Msg("Server failed")
		_ = closer.Close()
		os.Exit(1)
	}
}

func run(common app.CommonFlags, port int, logger zerolog.Logger) error {
	api.Version = app.Version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Load(common.Options(), logger)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := a.Config
	if port != 0 {
		cfg.Global.WebPort = port
	}

	// hooks are in place before Boot arms the keep-awake timers
	hub := telemetry.NewHub(&cfg.Timing, logger)
	hub.SetSnapshot(func() interface{} { return a.Dispatcher.GetConfig() })
	a.Dispatcher.SetPublisher(hub)

	if err := a.Boot(ctx); err != nil {
		return err
	}

	rndCfg, err := a.RandomizerConfig(config.DefaultSection)
	if err != nil {
		return err
	}
	rnd := a.NewRandomizer(rndCfg)
	a.Dispatcher.SetSection(config.DefaultSection, func() interface{} { return rnd.Status().Form })

	authMiddleware, err := auth.NewMiddleware(cfg.Global.WebAuthenticationToken, logger)
	if err != nil {
		return fmt.Errorf("web_authentication_token: %w", err)
	}

	server := api.NewServer(a.Dispatcher, rnd, hub, authMiddleware, &cfg.Timing, logger)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Global.WebPort))
	if err != nil {
		return fmt.Errorf("failed to listen on port %d: %w", cfg.Global.WebPort, err)
	}

	fmt.Printf("Open http://127.0.0.1:%d/#token=%s\n", cfg.Global.WebPort, cfg.Global.WebAuthenticationToken)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Serve(listener)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("Shutting down")
		rnd.Stop()
		hub.Stop()
		return server.Stop(context.Background())
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
