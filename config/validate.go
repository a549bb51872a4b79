package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/taexart/taexmarket/account"
)

// validLogLevels lists the accepted log level strings.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// ValidateConfig checks that all configuration values are within acceptable
// ranges and returns the first error encountered, or nil if valid.
func ValidateConfig(cfg Config) error {
	if cfg.DataDir == "" {
		return ErrEmptyDataDir
	}

	if cfg.PayoutMode != "fixed" && cfg.PayoutMode != "peritem" {
		return ErrInvalidPayoutMode
	}

	if err := validateAddr(cfg.ListenAddr); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidListenAddr, err)
	}

	if !validLogLevels[strings.ToLower(cfg.LogLevel)] {
		return ErrInvalidLogLevel
	}

	if err := validateAccount("marketaddr", cfg.MarketAddr); err != nil {
		return err
	}
	if err := validateAccount("marketowner", cfg.MarketOwner); err != nil {
		return err
	}
	if err := validateAccount("platformtreasury", cfg.PlatformTreasury); err != nil {
		return err
	}
	if cfg.PayoutMode == "fixed" {
		if err := validateAccount("artisttreasury", cfg.ArtistTreasury); err != nil {
			return err
		}
	}

	if cfg.RateLimit <= 0 || cfg.Burst <= 0 {
		return ErrInvalidRateLimit
	}

	return nil
}

// validateAddr checks that addr is a valid host:port address.
func validateAddr(addr string) error {
	_, _, err := net.SplitHostPort(addr)
	return err
}

// validateAccount checks that a required account field parses to a non-zero
// address.
func validateAccount(name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidAccount, name)
	}
	a, err := account.Parse(value)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidAccount, name, err)
	}
	if a.IsZero() {
		return fmt.Errorf("%w: %s is the zero account", ErrInvalidAccount, name)
	}
	return nil
}
