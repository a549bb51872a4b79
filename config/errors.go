package config

import "errors"

var (
	// ErrInvalidPayoutMode indicates the payout mode is not recognized.
	ErrInvalidPayoutMode = errors.New("config: invalid payout mode (must be \"fixed\" or \"peritem\")")

	// ErrInvalidListenAddr indicates the listen address is malformed.
	ErrInvalidListenAddr = errors.New("config: invalid listen address")

	// ErrInvalidLogLevel indicates the log level is not recognized.
	ErrInvalidLogLevel = errors.New("config: invalid log level (must be \"debug\", \"info\", \"warn\", or \"error\")")

	// ErrEmptyDataDir indicates the data directory path is empty.
	ErrEmptyDataDir = errors.New("config: data directory must not be empty")

	// ErrInvalidAccount indicates an account field is missing or not a
	// valid hex address.
	ErrInvalidAccount = errors.New("config: invalid account address")

	// ErrInvalidRateLimit indicates the rate limit or burst is not positive.
	ErrInvalidRateLimit = errors.New("config: rate limit and burst must be positive")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")

	// ErrInvalidConfigLine indicates a line in the config file is malformed.
	ErrInvalidConfigLine = errors.New("config: invalid configuration line")
)
