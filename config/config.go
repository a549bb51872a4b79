// Package config holds the daemon configuration: where state lives, how the
// HTTP surface listens, which payout mode the marketplace runs in and where
// the treasuries are. Values come from a plain key=value file with
// environment overrides on top.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full daemon configuration.
type Config struct {
	// DataDir is where the state database lives.
	DataDir string

	// ListenAddr is the host:port the HTTP surface binds.
	ListenAddr string

	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// LogFile is an optional path for JSON log output in addition to the
	// console. Empty disables the file sink.
	LogFile string

	// PayoutMode selects the settlement variant: "fixed" routes the artist
	// share to a fixed treasury, "peritem" routes it to the recipient
	// captured on each item at mint time.
	PayoutMode string

	// MarketAddr and MarketOwner are the marketplace identity and its
	// administrative account, hex encoded.
	MarketAddr  string
	MarketOwner string

	// ArtistTreasury and PlatformTreasury are the settlement recipients,
	// hex encoded. ArtistTreasury is only meaningful in fixed mode.
	ArtistTreasury   string
	PlatformTreasury string

	// RateLimit caps requests per second per client on the HTTP surface;
	// Burst is the bucket size.
	RateLimit float64
	Burst     int
}

// DefaultDataDir returns the per-user state directory.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".taexmarket"
	}
	return filepath.Join(home, ".taexmarket")
}

// DefaultConfig returns the configuration the daemon runs with when no file
// or environment overrides are present. The identity and treasury fields
// have no sensible defaults and must be set before the daemon starts.
func DefaultConfig() Config {
	return Config{
		DataDir:    DefaultDataDir(),
		ListenAddr: ":8080",
		LogLevel:   "info",
		LogFile:    "",
		PayoutMode: "fixed",
		RateLimit:  50,
		Burst:      100,
	}
}

// ConfigPath returns the config file location inside a data directory.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "config")
}

// LoadConfig reads a config file and returns DefaultConfig overlaid with the
// values it sets. Lines are "key = value"; '#' starts a comment; unknown
// keys are ignored so old daemons tolerate newer files.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return cfg, err
	}

	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, err := parseKeyValue(line)
		if err != nil {
			return cfg, fmt.Errorf("%w: line %d: %q", ErrInvalidConfigLine, i+1, line)
		}
		if err := applyKey(&cfg, key, value); err != nil {
			return cfg, fmt.Errorf("%w: line %d: %q", ErrInvalidConfigLine, i+1, line)
		}
	}
	return cfg, nil
}

// SaveConfig writes the configuration to path, creating parent directories
// as needed.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("# Taexmarket Configuration\n\n")
	fmt.Fprintf(&b, "datadir = %s\n", cfg.DataDir)
	fmt.Fprintf(&b, "listen = %s\n", cfg.ListenAddr)
	fmt.Fprintf(&b, "loglevel = %s\n", cfg.LogLevel)
	fmt.Fprintf(&b, "logfile = %s\n", cfg.LogFile)
	fmt.Fprintf(&b, "payoutmode = %s\n", cfg.PayoutMode)
	fmt.Fprintf(&b, "marketaddr = %s\n", cfg.MarketAddr)
	fmt.Fprintf(&b, "marketowner = %s\n", cfg.MarketOwner)
	fmt.Fprintf(&b, "artisttreasury = %s\n", cfg.ArtistTreasury)
	fmt.Fprintf(&b, "platformtreasury = %s\n", cfg.PlatformTreasury)
	fmt.Fprintf(&b, "ratelimit = %g\n", cfg.RateLimit)
	fmt.Fprintf(&b, "burst = %d\n", cfg.Burst)

	return os.WriteFile(path, []byte(b.String()), 0600)
}

// FromEnv overlays TAEXMARKET_* environment variables on cfg, e.g.
// TAEXMARKET_LISTEN or TAEXMARKET_PAYOUTMODE. Unset variables leave the
// existing value alone.
func FromEnv(cfg Config) Config {
	v := viper.New()
	v.SetEnvPrefix("taexmarket")
	v.AutomaticEnv()

	v.SetDefault("datadir", cfg.DataDir)
	v.SetDefault("listen", cfg.ListenAddr)
	v.SetDefault("loglevel", cfg.LogLevel)
	v.SetDefault("logfile", cfg.LogFile)
	v.SetDefault("payoutmode", cfg.PayoutMode)
	v.SetDefault("marketaddr", cfg.MarketAddr)
	v.SetDefault("marketowner", cfg.MarketOwner)
	v.SetDefault("artisttreasury", cfg.ArtistTreasury)
	v.SetDefault("platformtreasury", cfg.PlatformTreasury)
	v.SetDefault("ratelimit", cfg.RateLimit)
	v.SetDefault("burst", cfg.Burst)

	cfg.DataDir = v.GetString("datadir")
	cfg.ListenAddr = v.GetString("listen")
	cfg.LogLevel = v.GetString("loglevel")
	cfg.LogFile = v.GetString("logfile")
	cfg.PayoutMode = v.GetString("payoutmode")
	cfg.MarketAddr = v.GetString("marketaddr")
	cfg.MarketOwner = v.GetString("marketowner")
	cfg.ArtistTreasury = v.GetString("artisttreasury")
	cfg.PlatformTreasury = v.GetString("platformtreasury")
	cfg.RateLimit = v.GetFloat64("ratelimit")
	cfg.Burst = v.GetInt("burst")
	return cfg
}

// parseKeyValue splits a "key = value" line on the first '='.
func parseKeyValue(line string) (string, string, error) {
	idx := strings.Index(line, "=")
	if idx < 0 {
		return "", "", fmt.Errorf("no '=' separator")
	}
	key := strings.ToLower(strings.TrimSpace(line[:idx]))
	value := strings.TrimSpace(line[idx+1:])
	if key == "" {
		return "", "", fmt.Errorf("empty key")
	}
	return key, value, nil
}

// applyKey sets one config field. Unknown keys are ignored so old daemons
// tolerate newer files; malformed numeric values are an error.
func applyKey(cfg *Config, key, value string) error {
	switch key {
	case "datadir":
		cfg.DataDir = value
	case "listen":
		cfg.ListenAddr = value
	case "loglevel":
		cfg.LogLevel = value
	case "logfile":
		cfg.LogFile = value
	case "payoutmode":
		cfg.PayoutMode = value
	case "marketaddr":
		cfg.MarketAddr = value
	case "marketowner":
		cfg.MarketOwner = value
	case "artisttreasury":
		cfg.ArtistTreasury = value
	case "platformtreasury":
		cfg.PlatformTreasury = value
	case "ratelimit":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		cfg.RateLimit = v
	case "burst":
		v, err := strconv.Atoi(value)
		if err != nil {
			return err
		}
		cfg.Burst = v
	}
	return nil
}
