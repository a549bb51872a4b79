// Command taexmarketd runs the marketplace daemon: a bbolt-backed state
// store with the registry, settlement and ledger operations exposed over
// HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/taexart/taexmarket/account"
	"github.com/taexart/taexmarket/config"
	"github.com/taexart/taexmarket/internal/log"
	"github.com/taexart/taexmarket/market"
	"github.com/taexart/taexmarket/server"
	"github.com/taexart/taexmarket/state"
	"golang.org/x/time/rate"
)

func main() {
	// a .env file is optional; environment overrides still apply without it
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "taexmarketd",
		Usage: "digital collectible marketplace daemon",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to the config file",
				Value: config.ConfigPath(config.DefaultDataDir()),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "write a default config file",
				Action: runInit,
			},
			{
				Name:   "serve",
				Usage:  "run the daemon",
				Action: runServe,
			},
		},
		// running without a subcommand serves
		Action: runServe,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runInit(c *cli.Context) error {
	path := c.String("config")
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config already exists at %s", path)
	}
	if err := config.SaveConfig(path, config.DefaultConfig()); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func runServe(c *cli.Context) error {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil && !errors.Is(err, config.ErrConfigNotFound) {
		return err
	}
	cfg = config.FromEnv(cfg)
	if err := config.ValidateConfig(cfg); err != nil {
		return err
	}

	logger, err := log.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer logger.Sync()

	store, err := state.OpenBoltStore(filepath.Join(cfg.DataDir, "state.db"))
	if err != nil {
		return err
	}
	defer store.Close()

	mkt, err := buildMarketplace(store, cfg, logger)
	if err != nil {
		return err
	}

	srv := server.New(store, mkt, logger, server.Options{
		RateLimit: rate.Limit(cfg.RateLimit),
		Burst:     cfg.Burst,
	})

	httpSrv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      srv.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.ListenAddr),
			zap.String("payoutMode", cfg.PayoutMode))
		errCh <- httpSrv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpSrv.Shutdown(ctx)
}

func buildMarketplace(store state.Store, cfg config.Config, logger *zap.Logger) (*market.Marketplace, error) {
	addr, err := account.Parse(cfg.MarketAddr)
	if err != nil {
		return nil, err
	}
	owner, err := account.Parse(cfg.MarketOwner)
	if err != nil {
		return nil, err
	}
	platform, err := account.Parse(cfg.PlatformTreasury)
	if err != nil {
		return nil, err
	}

	var payout market.PayoutPolicy
	switch cfg.PayoutMode {
	case "fixed":
		artist, err := account.Parse(cfg.ArtistTreasury)
		if err != nil {
			return nil, err
		}
		payout, err = market.NewFixedTreasuries(artist, platform)
		if err != nil {
			return nil, err
		}
	case "peritem":
		payout, err = market.NewPerItemPayout(platform)
		if err != nil {
			return nil, err
		}
	default:
		return nil, config.ErrInvalidPayoutMode
	}

	return market.New(store, addr, owner, payout, logger)
}
