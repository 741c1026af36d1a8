// Package config loads and validates wallet configuration from a YAML file,
// FINCH_* environment variables, and built-in defaults, lowest to highest
// precedence file < env.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// envPrefix namespaces environment overrides: FINCH_NETWORK, FINCH_RPCURL,
// FINCH_FLATFEE and so on.
const envPrefix = "FINCH"

// Config holds every tunable of the wallet.
type Config struct {
	DataDir  string `mapstructure:"datadir"`
	Network  string `mapstructure:"network"`
	LogLevel string `mapstructure:"loglevel"`
	LogFile  string `mapstructure:"logfile"` // empty logs to stderr

	// Node RPC endpoint. Empty URL means offline mode; testnet and regtest
	// fall back to the well-known local presets when unset.
	RPCURL      string `mapstructure:"rpcurl"`
	RPCUser     string `mapstructure:"rpcuser"`
	RPCPassword string `mapstructure:"rpcpassword"`

	FlatFee            uint64        `mapstructure:"flatfee"`        // satoshis per transaction
	MinConfirmations   uint64        `mapstructure:"minconf"`        // spendability floor
	ConfirmationTarget uint64        `mapstructure:"conftarget"`     // refresh cutoff
	ReservationTTL     time.Duration `mapstructure:"reservationttl"` // in-flight input hold
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		DataDir:            DefaultDataDir(),
		Network:            "mainnet",
		LogLevel:           "info",
		FlatFee:            1000,
		MinConfirmations:   1,
		ConfirmationTarget: 6,
		ReservationTTL:     2 * time.Minute,
	}
}

// DefaultDataDir returns ~/.finch, or .finch in the working directory when
// the home directory cannot be determined.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".finch"
	}
	return filepath.Join(home, ".finch")
}

// ConfigPath returns the configuration file path inside a data directory.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "config.yaml")
}

// LoadConfig reads the file at path, layers FINCH_* environment variables on
// top, and fills the rest from defaults. A missing file is ErrConfigNotFound
// so callers can decide whether defaults alone are acceptable.
func LoadConfig(path string) (Config, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return Config{}, fmt.Errorf("config: stat %s: %w", path, err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// LoadEnv builds a Config from environment variables and defaults alone,
// for deployments that carry no config file.
func LoadEnv() (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return cfg, nil
}

// SaveConfig writes cfg as YAML, creating parent directories as needed.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create config directory: %w", err)
	}

	values := map[string]interface{}{}
	if err := mapstructure.Decode(cfg, &values); err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	// Durations serialize as nanosecond integers; store the string form so
	// the file stays editable and the load-side duration hook parses it back.
	values["reservationttl"] = cfg.ReservationTTL.String()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	for key, value := range values {
		v.Set(key, value)
	}
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// setDefaults registers every key with viper so environment-only values
// survive Unmarshal.
func setDefaults(v *viper.Viper) {
	defaults := map[string]interface{}{}
	if err := mapstructure.Decode(DefaultConfig(), &defaults); err != nil {
		return
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}
