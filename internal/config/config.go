// Package config loads service configuration from file, environment and
// flags via viper.
package config

import (
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"github.com/stellar/go/network"
)

type Config struct {
	HorizonURL        string        `mapstructure:"horizon_url"`
	RPCURL            string        `mapstructure:"rpc_url"`
	NetworkPassphrase string        `mapstructure:"network_passphrase"`
	BaseFee           int64         `mapstructure:"base_fee"`
	Expiry            time.Duration `mapstructure:"expiry"`
	PollInterval      time.Duration `mapstructure:"poll_interval"`
	PollAttempts      int           `mapstructure:"poll_attempts"`
	RetryAttempts     int           `mapstructure:"retry_attempts"`
	RetryBase         time.Duration `mapstructure:"retry_base"`
	JournalPath       string        `mapstructure:"journal_path"`
	TraceEndpoint     string        `mapstructure:"trace_endpoint"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("horizon_url", "https://horizon-testnet.stellar.org")
	v.SetDefault("rpc_url", "https://soroban-testnet.stellar.org")
	v.SetDefault("network_passphrase", network.TestNetworkPassphrase)
	v.SetDefault("base_fee", 100)
	v.SetDefault("expiry", 300*time.Second)
	v.SetDefault("poll_interval", 2*time.Second)
	v.SetDefault("poll_attempts", 30)
	v.SetDefault("retry_attempts", 5)
	v.SetDefault("retry_base", time.Second)
	v.SetDefault("journal_path", "questrelay.db")
}

// Load reads configuration, optionally from an explicit file. Environment
// variables prefixed QUESTRELAY_ override file values.
func Load(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("QUESTRELAY")
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "reading config file %s", file)
		}
	} else {
		v.SetConfigName("questrelay")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.questrelay")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(err, "reading config")
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "parsing config")
	}
	return &cfg, nil
}
